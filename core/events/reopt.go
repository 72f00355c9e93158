package events

// ReoptEvent is published after a re-optimization cycle replaced the active
// schedule. Completed, InProgress and NotStarted count tasks at the
// reference index, Applied counts the delay reports folded in.
type ReoptEvent struct {
	Project    string
	Version    int
	RefIndex   int
	Applied    int
	Completed  int
	InProgress int
	NotStarted int
}
