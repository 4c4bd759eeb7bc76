// Package metrics exposes Prometheus counters for DNS workflows, external
// command invocations, and DoH endpoint probes.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dnsswitch collectors on a private registry so tests can
// create as many instances as they like. All methods are safe on a nil
// receiver.
type Metrics struct {
	registry  *prometheus.Registry
	workflows *prometheus.CounterVec
	commands  *prometheus.CounterVec
	probes    *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnsswitch",
			Name:      "workflows_total",
			Help:      "DNS workflows run, by operation and success.",
		}, []string{"operation", "success"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnsswitch",
			Name:      "commands_total",
			Help:      "External commands invoked, by executable and outcome.",
		}, []string{"command", "outcome"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dnsswitch",
			Name:      "doh_probes_total",
			Help:      "DoH endpoint probes, by result.",
		}, []string{"reachable"}),
	}
	m.registry.MustRegister(m.workflows, m.commands, m.probes)
	return m
}

// ObserveWorkflow counts one finished Set/Reset workflow.
func (m *Metrics) ObserveWorkflow(operation string, success bool) {
	if m == nil {
		return
	}
	m.workflows.WithLabelValues(operation, strconv.FormatBool(success)).Inc()
}

// ObserveCommand counts one external command invocation.
func (m *Metrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// ObserveProbe counts one DoH probe.
func (m *Metrics) ObserveProbe(reachable bool) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(strconv.FormatBool(reachable)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
