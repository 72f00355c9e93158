// Package events defines the planning related events emitted on the event bus.
//
// Available event types:
//   - SolveEvent: a schedule was computed
//   - ReoptEvent: a re-optimization cycle replaced the active schedule
//   - DelayEvent: a delay report entered the system
package events
