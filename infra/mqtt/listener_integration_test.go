package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/earnor/look-ahead-planning/core/calendar"
	"github.com/earnor/look-ahead-planning/core/model"
	"github.com/earnor/look-ahead-planning/infra/store"
)

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
log_type notice
log_type information
connection_messages true
log_timestamp true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	if err := waitForMQTTReady(broker, 5*time.Second); err != nil {
		t.Logf("mosquitto not ready at %s: %v", broker, err)
		t.Skip("Mosquitto not ready after retries")
	}
	return cont, broker
}

func connectPublisher(broker string, t *testing.T) paho.Client {
	t.Helper()
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("site-gateway-sim")
	cli := paho.NewClient(opts)
	var connErr error
	for i := 0; i < 5; i++ {
		token := cli.Connect()
		token.Wait()
		connErr = token.Error()
		if connErr == nil {
			break
		}
		t.Logf("publisher connect attempt %d to %s: %v", i+1, broker, connErr)
		time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
	}
	if connErr != nil {
		t.Logf("publisher connect failed to %s: %v", broker, connErr)
		t.Skip("Mosquitto not ready after retries")
	}
	return cli
}

func TestListenerRecordsDelayFromBroker(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	st, err := store.Open(filepath.Join(t.TempDir(), "lookahead.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = st.Close() }()

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	modules := []model.Module{{Index: 1, ID: "M1", ProductionHours: 2, TransportHours: 1, InstallationHours: 2}}
	projectID, err := st.CreateProject(ctx, "hall-7", start, start.AddDate(0, 0, 11), modules, nil)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	lst, err := NewListener(Config{Broker: broker, ClientID: "intake", QoS: 1}, st, calendar.Config{}, nil, nil)
	if err != nil {
		t.Fatalf("listener: %v", err)
	}
	if err := lst.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer lst.Close()
	time.Sleep(250 * time.Millisecond)

	pub := connectPublisher(broker, t)
	defer pub.Disconnect(100)

	report := DelayReport{
		ModuleID:   "M1",
		Phase:      "installation",
		Type:       "duration_extension",
		Hours:      3,
		DetectedAt: time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		Reason:     "crane breakdown",
	}
	payload, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if token := pub.Publish("lookahead/projects/hall-7/delays", 1, false, payload); token.Wait() && token.Error() != nil {
		t.Fatalf("publish: %v", token.Error())
	}

	var recs []model.DelayRecord
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		recs, err = st.PendingDelays(ctx, projectID)
		if err != nil {
			t.Fatalf("pending delays: %v", err)
		}
		if len(recs) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recorded delay, got %d", len(recs))
	}
	rec := recs[0]
	if rec.ID == "" {
		t.Error("record id empty")
	}
	if rec.ModuleID != "M1" {
		t.Errorf("module id: %s", rec.ModuleID)
	}
	if rec.Phase != model.PhaseInstallation {
		t.Errorf("phase: %s", rec.Phase)
	}
	if rec.Type != model.DelayDurationExtension {
		t.Errorf("type: %s", rec.Type)
	}
	if rec.Hours != 3 {
		t.Errorf("hours: %d", rec.Hours)
	}
	if !rec.DetectedAt.Equal(report.DetectedAt) {
		t.Errorf("detected at: %v", rec.DetectedAt)
	}
	if rec.DetectedIndex != 11 {
		t.Errorf("detected index: %d", rec.DetectedIndex)
	}
	if rec.Reason != "crane breakdown" {
		t.Errorf("reason: %s", rec.Reason)
	}
	if !rec.Pending() {
		t.Errorf("applied version: %d", rec.AppliedVersion)
	}
}
