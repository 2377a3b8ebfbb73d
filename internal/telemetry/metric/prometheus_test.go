package metric

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.CommandsTotal == nil || r.CommandDuration == nil {
		t.Error("command metrics are nil")
	}
}

func TestGlobal(t *testing.T) {
	if Global() != Global() {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	body := scrape(t, Handler())

	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

// ============================================================
// Client Metrics
// ============================================================

func TestCommandMetrics(t *testing.T) {
	r := NewRegistry()

	r.ObserveCommand("get", 2*time.Millisecond, nil)
	r.ObserveCommand("get", time.Millisecond, nil)
	r.ObserveCommand("set", 0, errors.New("boom"))

	body := scrape(t, r.Handler())

	for _, want := range []string{
		`redis_client_commands_total{command="get",status="ok"} 2`,
		`redis_client_commands_total{command="set",status="error"} 1`,
		`redis_client_command_duration_seconds_count{command="get"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
	if strings.Contains(body, `redis_client_command_duration_seconds_count{command="set"}`) {
		t.Error("zero duration should not be observed")
	}
}

func TestConnectionMetrics(t *testing.T) {
	r := NewRegistry()

	r.IncConnectFailure()
	r.IncConnectFailure()
	r.IncReconnect()
	r.ObservePipeline(3)
	r.IncMessage("message")
	r.IncMessage("pmessage")
	r.IncMessage("message")

	body := scrape(t, r.Handler())

	for _, want := range []string{
		"redis_client_connect_failures_total 2",
		"redis_client_reconnects_total 1",
		"redis_client_pipeline_commands_count 1",
		"redis_client_pipeline_commands_sum 3",
		`redis_client_pubsub_messages_total{kind="message"} 2`,
		`redis_client_pubsub_messages_total{kind="pmessage"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry

	r.ObserveCommand("get", time.Millisecond, nil)
	r.IncConnectFailure()
	r.IncReconnect()
	r.ObservePipeline(1)
	r.IncMessage("message")
	r.MustRegister(NewParkedCollector(func() int { return 0 }))
}

func TestParkedCollector(t *testing.T) {
	r := NewRegistry()
	n := 4
	r.MustRegister(NewParkedCollector(func() int { return n }))

	body := scrape(t, r.Handler())
	if !strings.Contains(body, "redis_client_persistent_parked_connections 4") {
		t.Errorf("expected parked gauge in output:\n%s", body)
	}

	n = 1
	if !strings.Contains(scrape(t, r.Handler()), "redis_client_persistent_parked_connections 1") {
		t.Error("expected parked gauge to follow the source")
	}
}
