package model

import (
	"fmt"
	"time"
)

// DelayRecord is one delay report from the site or the factory. Magnitudes are
// whole working hours; sub-hour reports are rejected at intake because the
// planning grid is one slot per hour.
type DelayRecord struct {
	ID            string    `json:"id"`
	ModuleID      string    `json:"module_id"`
	Phase         Phase     `json:"phase"`
	Type          DelayType `json:"type"`
	Hours         int       `json:"hours"`
	DetectedAt    time.Time `json:"detected_at"`
	DetectedIndex int       `json:"detected_index,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	// AppliedVersion is the schedule version that consumed this record,
	// 0 while the record is still pending.
	AppliedVersion int `json:"applied_version,omitempty"`
}

// Pending reports whether the record has not been consumed by a
// re-optimization yet.
func (d DelayRecord) Pending() bool { return d.AppliedVersion == 0 }

// Validate checks the report fields.
func (d DelayRecord) Validate() error {
	if d.ModuleID == "" {
		return fmt.Errorf("delay record: module id must not be empty")
	}
	if !d.Phase.Valid() {
		return fmt.Errorf("delay record for module %q: invalid phase", d.ModuleID)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("delay record for module %q: invalid delay type", d.ModuleID)
	}
	if d.Hours < 1 {
		return fmt.Errorf("delay record for module %q: hours must be >= 1, got %d", d.ModuleID, d.Hours)
	}
	return nil
}
