package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveWorkflow(t *testing.T) {
	m := New()
	m.ObserveWorkflow("set", true)
	m.ObserveWorkflow("set", true)
	m.ObserveWorkflow("reset", false)

	if got := testutil.ToFloat64(m.workflows.WithLabelValues("set", "true")); got != 2 {
		t.Errorf("set/true = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.workflows.WithLabelValues("reset", "false")); got != 1 {
		t.Errorf("reset/false = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	// Must not panic.
	m.ObserveWorkflow("set", true)
	m.ObserveCommand("netsh.exe", "success")
	m.ObserveProbe(false)
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveCommand("netsh.exe", "benign")
	m.ObserveProbe(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`dnsswitch_commands_total{command="netsh.exe",outcome="benign"} 1`,
		`dnsswitch_doh_probes_total{reachable="true"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
