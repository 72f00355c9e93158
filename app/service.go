// Package app assembles the planning service from its configuration.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/oklog/run"

	"github.com/earnor/look-ahead-planning/config"
	"github.com/earnor/look-ahead-planning/core/factory"
	coremetrics "github.com/earnor/look-ahead-planning/core/metrics"
	"github.com/earnor/look-ahead-planning/core/planner"
	"github.com/earnor/look-ahead-planning/infra/logger"
	"github.com/earnor/look-ahead-planning/infra/metrics"
	"github.com/earnor/look-ahead-planning/infra/mqtt"
	"github.com/earnor/look-ahead-planning/infra/solver"
	"github.com/earnor/look-ahead-planning/infra/store"
	"github.com/earnor/look-ahead-planning/internal/eventbus"
)

// Service owns the store, planner, delay intake and metric sinks built from
// one configuration.
type Service struct {
	Planner  *planner.Planner
	Store    *store.SQLite
	bus      *eventbus.Bus
	listener *mqtt.Listener
	sink     coremetrics.MetricsSink
	metrics  config.MetricsConfig
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config must not be nil")
	}
	if cfg.Log.Dev {
		// The zerolog console writer keys off APP_ENV.
		_ = os.Setenv("APP_ENV", "dev")
	}
	logg := logger.NewZerologLogger("service", cfg.Log.Level)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	sink, err := buildSink(cfg.Metrics)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New(16)
	sol := solver.New(logger.NewZerologLogger("solver", cfg.Log.Level))
	pl, err := planner.New(st, sol, planner.Options{
		Resources: cfg.Resources,
		Costs:     cfg.Costs,
		Calendar:  cfg.Calendar,
		Solver:    cfg.Solver.Options(),
	}, bus, logg)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("planner: %w", err)
	}

	svc := &Service{
		Planner: pl,
		Store:   st,
		bus:     bus,
		sink:    sink,
		metrics: cfg.Metrics,
		log:     logg,
	}
	if cfg.MQTT.Enabled {
		lst, err := mqtt.NewListener(cfg.MQTT, st, cfg.Calendar,
			bus, logger.NewZerologLogger("mqtt", cfg.Log.Level))
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("mqtt listener: %w", err)
		}
		svc.listener = lst
	}
	return svc, nil
}

// buildSink translates the flat metrics section into sink module configs and
// hands them to the sink factory. No enabled sink yields a NopSink.
func buildSink(cfg config.MetricsConfig) (coremetrics.MetricsSink, error) {
	var mods []factory.ModuleConfig
	if cfg.PrometheusEnabled {
		mods = append(mods, factory.ModuleConfig{Type: "prometheus"})
	}
	if cfg.InfluxEnabled {
		mods = append(mods, factory.ModuleConfig{Type: "influx", Conf: map[string]any{
			"url":    cfg.InfluxURL,
			"token":  cfg.InfluxToken,
			"org":    cfg.InfluxOrg,
			"bucket": cfg.InfluxBucket,
		}})
	}
	return coremetrics.NewMetricsSink(mods)
}

// Run starts the long-running parts (metrics endpoint, event collector, delay
// intake) and blocks until the context is cancelled or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.StartEventCollector(ctx, s.bus, s.sink)

	var g run.Group
	g.Add(func() error {
		<-ctx.Done()
		return ctx.Err()
	}, func(error) {
		cancel()
	})
	if s.metrics.PrometheusEnabled {
		addr := s.metrics.PrometheusPort
		g.Add(func() error {
			s.log.Infof("serving metrics on %s", addr)
			return metrics.StartServer(ctx, addr)
		}, func(error) {
			cancel()
		})
	}
	if s.listener != nil {
		g.Add(func() error {
			if err := s.listener.Start(); err != nil {
				return err
			}
			s.log.Infof("listening for delay reports on %s", s.listener.Topic())
			<-ctx.Done()
			return ctx.Err()
		}, func(error) {
			s.listener.Close()
			cancel()
		})
	}
	return g.Run()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.listener != nil {
		s.listener.Close()
	}
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return s.Store.Close()
}
