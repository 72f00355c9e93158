package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/earnor/look-ahead-planning/core/metrics"
	"github.com/earnor/look-ahead-planning/infra/logger"
)

// InfluxSink writes planning events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns
// a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordSolve writes the outcome of a scheduling run as a single point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve").
		AddTag("status", ev.Status)
	if ev.Project != "" {
		p.AddTag("project", ev.Project)
	}
	p = p.AddField("version", ev.Version).
		AddField("objective", round3(ev.Objective)).
		AddField("gap", round3(ev.Gap)).
		AddField("finish_slot", ev.FinishTime).
		AddField("modules", ev.Modules).
		AddField("runtime_ms", round3(ev.Runtime.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordReopt writes a re-optimization cycle summary.
func (s *InfluxSink) RecordReopt(ev coremetrics.ReoptReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("reoptimization")
	if ev.Project != "" {
		p.AddTag("project", ev.Project)
	}
	p = p.AddField("version", ev.Version).
		AddField("ref_index", ev.RefIndex).
		AddField("delays_applied", ev.Applied).
		AddField("completed", ev.Completed).
		AddField("in_progress", ev.InProgress).
		AddField("not_started", ev.NotStarted).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDelay writes a received delay report.
func (s *InfluxSink) RecordDelay(ev coremetrics.DelayReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("delay_report").
		AddTag("module_id", ev.ModuleID).
		AddTag("phase", ev.Phase).
		AddTag("type", ev.Type)
	if ev.Project != "" {
		p.AddTag("project", ev.Project)
	}
	p = p.AddField("hours", ev.Hours).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
