// Package mqtt receives delay reports from site and factory gateways over an
// MQTT broker and records them for the next re-optimization.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/earnor/look-ahead-planning/core/calendar"
	"github.com/earnor/look-ahead-planning/core/events"
	"github.com/earnor/look-ahead-planning/core/model"
	"github.com/earnor/look-ahead-planning/infra/logger"
	"github.com/earnor/look-ahead-planning/internal/eventbus"
)

// Store is the slice of the persistence layer the listener needs.
type Store interface {
	ProjectByName(ctx context.Context, name string) (model.Project, error)
	AddDelay(ctx context.Context, projectID int64, rec model.DelayRecord) error
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// DelayReport is the wire payload accepted on the delay topic.
type DelayReport struct {
	ModuleID   string    `json:"module_id"`
	Phase      string    `json:"phase"`
	Type       string    `json:"type"`
	Hours      int       `json:"hours"`
	DetectedAt time.Time `json:"detected_at"`
	Reason     string    `json:"reason"`
}

// Listener subscribes to the per-project delay topics and records every valid
// report through the Store. Malformed reports are logged and dropped.
type Listener struct {
	cfg    Config
	store  Store
	calCfg calendar.Config
	bus    *eventbus.Bus
	log    logger.Logger
	cli    pahoClient
}

// NewListener builds a listener. The bus may be nil when no events are
// wanted; a nil logger falls back to the NopLogger.
func NewListener(cfg Config, store Store, calCfg calendar.Config, bus *eventbus.Bus, log logger.Logger) (*Listener, error) {
	if store == nil {
		return nil, fmt.Errorf("mqtt: store must not be nil")
	}
	cfg.SetDefaults()
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", cfg.QoS)
	}
	calCfg.SetDefaults()
	if err := calCfg.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt: calendar: %w", err)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Listener{cfg: cfg, store: store, calCfg: calCfg, bus: bus, log: log}, nil
}

// Topic returns the subscription filter covering every project.
func (l *Listener) Topic() string {
	return l.cfg.TopicRoot + "/+/delays"
}

// Start connects to the broker and subscribes. The subscription is installed
// from the OnConnect hook so reconnects restore it.
func (l *Listener) Start() error {
	opts, err := NewClientOptions(l.cfg)
	if err != nil {
		return err
	}
	opts.OnConnect = func(c paho.Client) {
		l.log.Infof("mqtt connected, subscribing to %s", l.Topic())
		if token := c.Subscribe(l.Topic(), l.cfg.QoS, l.onDelay); token.Wait() && token.Error() != nil {
			l.log.Errorf("subscribe %s: %v", l.Topic(), token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		l.log.Errorf("mqtt connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		l.log.Warnf("reconnecting to mqtt broker")
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: connect %s: %w", l.cfg.Broker, token.Error())
	}
	l.cli = cli
	return nil
}

// Close gracefully disconnects from the broker.
func (l *Listener) Close() {
	if l.cli != nil && l.cli.IsConnected() {
		l.cli.Disconnect(250)
	}
}

func (l *Listener) onDelay(_ paho.Client, msg paho.Message) {
	project, ok := l.projectFromTopic(msg.Topic())
	if !ok {
		l.log.Warnf("ignoring message on unexpected topic %s", msg.Topic())
		return
	}
	var report DelayReport
	if err := json.Unmarshal(msg.Payload(), &report); err != nil {
		l.log.Warnf("dropping malformed delay report for project %q: %v", project, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec, err := l.record(ctx, project, report)
	if err != nil {
		l.log.Warnf("dropping delay report for project %q: %v", project, err)
		return
	}
	l.log.Infof("recorded %s delay of %dh on module %s of project %q", rec.Phase, rec.Hours, rec.ModuleID, project)
	if l.bus != nil {
		l.bus.Publish(events.DelayEvent{
			Project:  project,
			ModuleID: rec.ModuleID,
			Phase:    rec.Phase,
			Type:     rec.Type,
			Hours:    rec.Hours,
		})
	}
}

func (l *Listener) record(ctx context.Context, project string, report DelayReport) (model.DelayRecord, error) {
	phase, err := model.ParsePhase(report.Phase)
	if err != nil {
		return model.DelayRecord{}, err
	}
	typ, err := model.ParseDelayType(report.Type)
	if err != nil {
		return model.DelayRecord{}, err
	}
	if report.Hours < 1 {
		return model.DelayRecord{}, fmt.Errorf("hours must be >= 1, got %d", report.Hours)
	}
	proj, err := l.store.ProjectByName(ctx, project)
	if err != nil {
		return model.DelayRecord{}, err
	}
	if _, ok := proj.ModuleByID(report.ModuleID); !ok {
		return model.DelayRecord{}, fmt.Errorf("unknown module %q", report.ModuleID)
	}
	detectedAt := report.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now().UTC()
	}
	rec := model.DelayRecord{
		ID:            uuid.NewString(),
		ModuleID:      report.ModuleID,
		Phase:         phase,
		Type:          typ,
		Hours:         report.Hours,
		DetectedAt:    detectedAt,
		DetectedIndex: l.slotOf(proj, detectedAt),
		Reason:        report.Reason,
	}
	if err := l.store.AddDelay(ctx, proj.ID, rec); err != nil {
		return model.DelayRecord{}, err
	}
	return rec, nil
}

// slotOf maps the detection time onto the project's working grid, 0 when the
// time lies outside it.
func (l *Listener) slotOf(proj model.Project, at time.Time) int {
	horizon := l.calCfg.Horizon
	if horizon < 1 {
		horizon = l.calCfg.EstimateHorizon(proj.Start, proj.TargetEnd)
	}
	cal, err := calendar.New(l.calCfg, proj.Start, horizon)
	if err != nil {
		return 0
	}
	idx, ok := cal.IndexOf(at)
	if !ok {
		return 0
	}
	return idx
}

func (l *Listener) projectFromTopic(topic string) (string, bool) {
	prefix := l.cfg.TopicRoot + "/"
	rest, found := strings.CutPrefix(topic, prefix)
	if !found {
		return "", false
	}
	name, leaf, ok := strings.Cut(rest, "/")
	if !ok || name == "" || leaf != "delays" {
		return "", false
	}
	return name, true
}
