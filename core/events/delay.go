package events

import "github.com/earnor/look-ahead-planning/core/model"

// DelayEvent is published when a delay report enters the system.
type DelayEvent struct {
	Project  string
	ModuleID string
	Phase    model.Phase
	Type     model.DelayType
	Hours    int
}
