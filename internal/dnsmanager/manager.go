// Package dnsmanager sequences the public DNS workflows: switch an interface
// to static resolvers plus DNS-over-HTTPS, reset it to DHCP, and report its
// current state. Progress is reported as free-text status messages through
// a callback injected at construction.
package dnsmanager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/dohstore"
	"github.com/HerbHall/dnsswitch/internal/journal"
	"github.com/HerbHall/dnsswitch/internal/metrics"
	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/writer"
)

// StatusFunc receives human-readable progress messages.
type StatusFunc func(message string)

// InterfaceDirectory lists and resolves live interfaces.
type InterfaceDirectory interface {
	ListActive(ctx context.Context) ([]netif.Interface, error)
	Resolve(ctx context.Context, name string) (netif.Interface, error)
}

// ConfigWriter applies resolver settings.
type ConfigWriter interface {
	ApplyDNS(ctx context.Context, iface netif.Interface, servers []string) error
	ResetDNS(ctx context.Context, iface netif.Interface) error
	ApplyDoh(ctx context.Context, iface netif.Interface, enabled bool, template string) (writer.DohResult, error)
	ReadDoh(ctx context.Context, iface netif.Interface) (dohstore.DohConfig, error)
	RegisterDohServers(ctx context.Context, servers []string, template string) error
	ClearResolverCache(ctx context.Context) error
	FlushDNSCache(ctx context.Context) error
	ClearNeighborCache(ctx context.Context) error
}

// Prober checks a DoH endpoint before it is committed.
type Prober interface {
	Probe(ctx context.Context, template string) bool
}

// Labeler names a DoH template for display.
type Labeler interface {
	Label(template string) string
}

// Compile-time interface guards.
var (
	_ InterfaceDirectory = (*netif.Directory)(nil)
	_ ConfigWriter       = (*writer.Writer)(nil)
)

// Operation names used in logs, metrics and the journal.
const (
	OpSet   = "set"
	OpReset = "reset"
)

// Options configures a Manager.
type Options struct {
	Directory InterfaceDirectory
	Writer    ConfigWriter
	// Prober validates DoH endpoints. Nil skips the probe and trusts the
	// template.
	Prober Prober
	// Labeler names templates in status messages. Nil shows the template.
	Labeler Labeler
	// Journal records finished workflows. Nil disables recording.
	Journal journal.Recorder
	Metrics *metrics.Metrics
	Status  StatusFunc
	Logger  *zap.Logger
	// RegisterServers also adds the static servers to the OS DoH server
	// table when DoH is enabled.
	RegisterServers bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager runs DNS workflows. Workflows are not serialized internally;
// callers must not run two against the same interface at once.
type Manager struct {
	dir             InterfaceDirectory
	writer          ConfigWriter
	prober          Prober
	labeler         Labeler
	journal         journal.Recorder
	metrics         *metrics.Metrics
	status          StatusFunc
	logger          *zap.Logger
	registerServers bool
	now             func() time.Time
}

// New creates a Manager.
func New(opts Options) (*Manager, error) {
	if opts.Directory == nil {
		return nil, errors.New("dnsmanager: interface directory is required")
	}
	if opts.Writer == nil {
		return nil, errors.New("dnsmanager: config writer is required")
	}
	m := &Manager{
		dir:             opts.Directory,
		writer:          opts.Writer,
		prober:          opts.Prober,
		labeler:         opts.Labeler,
		journal:         opts.Journal,
		metrics:         opts.Metrics,
		status:          opts.Status,
		logger:          opts.Logger,
		registerServers: opts.RegisterServers,
		now:             opts.Now,
	}
	if m.status == nil {
		m.status = func(string) {}
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// WithStatus returns a Manager sharing m's collaborators but reporting to
// fn instead.
func (m *Manager) WithStatus(fn StatusFunc) *Manager {
	c := *m
	if fn == nil {
		fn = func(string) {}
	}
	c.status = fn
	return &c
}

// workflow tracks one Set/Reset run.
type workflow struct {
	id        string
	operation string
	iface     string
	servers   []string
	doh       bool
	template  string
	started   time.Time
	last      string
}

func (m *Manager) begin(operation, iface string) *workflow {
	return &workflow{
		id:        uuid.NewString(),
		operation: operation,
		iface:     iface,
		started:   m.now(),
	}
}

func (m *Manager) emit(w *workflow, msg string) {
	w.last = msg
	m.logger.Info(msg, zap.String("op_id", w.id), zap.String("operation", w.operation), zap.String("interface", w.iface))
	m.status(msg)
}

func (m *Manager) fail(w *workflow, err error) bool {
	m.logger.Warn("workflow failed", zap.String("op_id", w.id), zap.Error(err))
	m.emit(w, "Error: "+err.Error())
	return false
}

func (m *Manager) finish(ctx context.Context, w *workflow, success bool) {
	m.metrics.ObserveWorkflow(w.operation, success)
	if m.journal == nil {
		return
	}
	err := m.journal.Record(ctx, journal.Entry{
		ID:         w.id,
		Operation:  w.operation,
		Interface:  w.iface,
		Servers:    w.servers,
		DohEnabled: w.doh,
		Template:   w.template,
		Success:    success,
		Message:    w.last,
		StartedAt:  w.started,
		FinishedAt: m.now(),
	})
	if err != nil {
		m.logger.Warn("journal record failed", zap.String("op_id", w.id), zap.Error(err))
	}
}

// ListActiveInterfaces returns the interfaces that can be configured.
func (m *Manager) ListActiveInterfaces(ctx context.Context) ([]netif.Interface, error) {
	return m.dir.ListActive(ctx)
}

// resolve looks up name, reporting a missing interface.
func (m *Manager) resolve(ctx context.Context, w *workflow, name string) (netif.Interface, bool) {
	iface, err := m.dir.Resolve(ctx, name)
	if errors.Is(err, netif.ErrInterfaceNotFound) {
		m.emit(w, "Interface not found: "+name)
		return netif.Interface{}, false
	}
	if err != nil {
		return netif.Interface{}, m.fail(w, err)
	}
	return iface, true
}

// SetDNS points name at up to two static servers and enables or disables
// DoH. It reports success; every failure is reported through the status
// callback instead of returned. Once started the workflow runs to completion
// even if ctx is cancelled; runner and prober timeouts still bound it.
func (m *Manager) SetDNS(ctx context.Context, name string, servers []string, enableDoh bool, template string) bool {
	ctx = context.WithoutCancel(ctx)
	w := m.begin(OpSet, name)
	template = strings.TrimSpace(template)
	w.doh, w.template = enableDoh, template

	ok := m.setDNS(ctx, w, name, servers, enableDoh, template)
	m.finish(ctx, w, ok)
	return ok
}

func (m *Manager) setDNS(ctx context.Context, w *workflow, name string, servers []string, enableDoh bool, template string) bool {
	iface, found := m.resolve(ctx, w, name)
	if !found {
		return false
	}

	// Rejected before anything is written.
	if enableDoh && template == "" {
		m.emit(w, "DoH enabled but template is empty")
		return false
	}
	capped, err := writer.Servers(servers)
	if err != nil {
		return m.fail(w, err)
	}
	w.servers = capped

	m.emit(w, "Interface: "+iface.Name)
	if err := m.writer.ApplyDNS(ctx, iface, capped); err != nil {
		return m.fail(w, err)
	}
	if len(capped) == 0 {
		m.emit(w, "DNS: automatic (DHCP)")
	} else {
		m.emit(w, "DNS: "+strings.Join(capped, ", "))
	}

	if enableDoh {
		if m.prober != nil && !m.prober.Probe(ctx, template) {
			// Plain DNS stays applied; only DoH activation is aborted.
			m.emit(w, "DoH server unreachable: "+template)
			return false
		}
		res, err := m.writer.ApplyDoh(ctx, iface, true, template)
		if err != nil {
			return m.fail(w, err)
		}
		if res.Outcome == writer.DohSkipped {
			m.emit(w, "DoH profile not found, skipping DoH")
		} else {
			m.emit(w, "DoH: "+m.label(template))
		}
		if m.registerServers && len(capped) > 0 {
			if err := m.writer.RegisterDohServers(ctx, capped, template); err != nil {
				return m.fail(w, err)
			}
		}
	} else {
		if _, err := m.writer.ApplyDoh(ctx, iface, false, ""); err != nil {
			return m.fail(w, err)
		}
		m.emit(w, "DoH disabled")
	}

	m.cleanupBestEffort(ctx, w)
	m.emit(w, "Done")
	return true
}

// ResetDNS returns name to DHCP-assigned resolvers and clears DoH. Like
// SetDNS it ignores cancellation of ctx.
func (m *Manager) ResetDNS(ctx context.Context, name string) bool {
	ctx = context.WithoutCancel(ctx)
	w := m.begin(OpReset, name)
	ok := m.resetDNS(ctx, w, name)
	m.finish(ctx, w, ok)
	return ok
}

func (m *Manager) resetDNS(ctx context.Context, w *workflow, name string) bool {
	iface, found := m.resolve(ctx, w, name)
	if !found {
		return false
	}
	m.emit(w, "Interface: "+iface.Name)
	if err := m.writer.ResetDNS(ctx, iface); err != nil {
		return m.fail(w, err)
	}
	if _, err := m.writer.ApplyDoh(ctx, iface, false, ""); err != nil {
		return m.fail(w, err)
	}
	m.cleanupBestEffort(ctx, w)
	m.emit(w, "Reset to DHCP")
	return true
}

// cleanup runs every cache-hygiene step, even after one fails, and returns
// the combined error.
func (m *Manager) cleanup(ctx context.Context) error {
	return multierr.Combine(
		m.writer.ClearResolverCache(ctx),
		m.writer.FlushDNSCache(ctx),
		m.writer.ClearNeighborCache(ctx),
	)
}

func (m *Manager) cleanupBestEffort(ctx context.Context, w *workflow) {
	if err := m.cleanup(ctx); err != nil {
		m.logger.Debug("cache cleanup incomplete, ignoring",
			zap.String("op_id", w.id),
			zap.Errors("errors", multierr.Errors(err)),
		)
	}
}

// GetStatus describes the resolvers and DoH state of name. Failures are
// described in the returned text.
func (m *Manager) GetStatus(ctx context.Context, name string) string {
	iface, err := m.dir.Resolve(ctx, name)
	if errors.Is(err, netif.ErrInterfaceNotFound) {
		return "Interface not found: " + name
	}
	if err != nil {
		return "Error: " + err.Error()
	}

	cfg, err := m.writer.ReadDoh(ctx, iface)
	if err != nil {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Interface: %s; DNS: %s; DoH: %s", iface.Name, dnsSummary(iface), m.dohSummary(cfg))
}

func dnsSummary(iface netif.Interface) string {
	addrs := iface.DNSServers
	if len(addrs) == 0 {
		return "automatic (DHCP)"
	}
	if len(addrs) > writer.MaxServers {
		addrs = addrs[:writer.MaxServers]
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func (m *Manager) dohSummary(cfg dohstore.DohConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}
	return "enabled (" + m.label(cfg.Template) + ")"
}

func (m *Manager) label(template string) string {
	if m.labeler == nil {
		return template
	}
	return m.labeler.Label(template)
}
