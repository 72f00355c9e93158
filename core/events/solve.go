package events

import "time"

// SolveEvent is published after a schedule has been computed and stored.
type SolveEvent struct {
	Project    string
	Version    int
	Status     string
	Objective  float64
	Gap        float64
	FinishTime int
	Modules    int
	Horizon    int
	Runtime    time.Duration
}
