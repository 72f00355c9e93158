package metrics

import (
	"context"
	"time"

	"github.com/earnor/look-ahead-planning/core/events"
	coremetrics "github.com/earnor/look-ahead-planning/core/metrics"
	"github.com/earnor/look-ahead-planning/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// planning events. It stops when the context is canceled or the bus closes.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer sub.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				record(sink, ev)
			}
		}
	}()
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.SolveEvent:
		_ = sink.RecordSolve(coremetrics.SolveReport{
			Project:    e.Project,
			Version:    e.Version,
			Status:     e.Status,
			Objective:  e.Objective,
			Gap:        e.Gap,
			FinishTime: e.FinishTime,
			Modules:    e.Modules,
			Horizon:    e.Horizon,
			Runtime:    e.Runtime,
			Time:       time.Now(),
		})
	case events.ReoptEvent:
		if r, ok := sink.(coremetrics.ReoptRecorder); ok {
			_ = r.RecordReopt(coremetrics.ReoptReport{
				Project:    e.Project,
				Version:    e.Version,
				RefIndex:   e.RefIndex,
				Applied:    e.Applied,
				Completed:  e.Completed,
				InProgress: e.InProgress,
				NotStarted: e.NotStarted,
				Time:       time.Now(),
			})
		}
	case events.DelayEvent:
		if r, ok := sink.(coremetrics.DelayRecorder); ok {
			_ = r.RecordDelay(coremetrics.DelayReport{
				Project:  e.Project,
				ModuleID: e.ModuleID,
				Phase:    e.Phase.String(),
				Type:     e.Type.String(),
				Hours:    e.Hours,
				Time:     time.Now(),
			})
		}
	}
}
