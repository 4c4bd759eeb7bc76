// Package writer applies resolver configuration to an interface: the DNS
// server list through netsh, the DoH setting through the registry store,
// and the cache hygiene that makes the change take effect.
package writer

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/dohstore"
	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/profile"
	"github.com/HerbHall/dnsswitch/internal/runner"
)

// ErrInvalidServer is returned when a resolver address is not an IPv4
// address.
var ErrInvalidServer = errors.New("invalid DNS server address")

// InterfaceKey selects which adapter string identifies the interface to
// netsh and to the per-interface DoH store.
type InterfaceKey string

const (
	KeyName        InterfaceKey = "name"
	KeyDescription InterfaceKey = "description"
)

// ParseInterfaceKey validates a configured key.
func ParseInterfaceKey(s string) (InterfaceKey, error) {
	switch InterfaceKey(s) {
	case "":
		return KeyName, nil
	case KeyName, KeyDescription:
		return InterfaceKey(s), nil
	default:
		return "", fmt.Errorf("unknown interface key %q (want %q or %q)", s, KeyName, KeyDescription)
	}
}

func (k InterfaceKey) of(iface netif.Interface) string {
	if k == KeyDescription && iface.Description != "" {
		return iface.Description
	}
	return iface.Name
}

// ProfileFinder locates the network profile of an interface.
type ProfileFinder interface {
	Find(ctx context.Context, t profile.Target) (profile.Profile, error)
}

// DohOutcome describes what ApplyDoh did.
type DohOutcome string

const (
	DohWritten DohOutcome = "written"
	DohCleared DohOutcome = "cleared"
	DohSkipped DohOutcome = "skipped"
)

// DohResult reports the store target ApplyDoh acted on.
type DohResult struct {
	Outcome DohOutcome
	// Target is the profile GUID or interface key; empty when skipped.
	Target string
}

// Options configures a Writer.
type Options struct {
	Runner runner.Runner
	Store  *dohstore.Store
	// Profiles is required for the profile store.
	Profiles ProfileFinder
	// NetshKey names the interface to netsh.
	NetshKey InterfaceKey
	// StoreKey names the interface in the per-interface store.
	StoreKey InterfaceKey
	Logger   *zap.Logger
}

// Writer applies DNS and DoH settings.
type Writer struct {
	run      runner.Runner
	store    *dohstore.Store
	profiles ProfileFinder
	netshKey InterfaceKey
	storeKey InterfaceKey
	logger   *zap.Logger
}

// New creates a Writer.
func New(opts Options) (*Writer, error) {
	if opts.Runner == nil {
		return nil, errors.New("writer: runner is required")
	}
	if opts.Store == nil {
		return nil, errors.New("writer: DoH store is required")
	}
	if opts.Store.Kind() == dohstore.KindProfile && opts.Profiles == nil {
		return nil, errors.New("writer: profile store needs a profile finder")
	}
	if opts.NetshKey == "" {
		opts.NetshKey = KeyName
	}
	if opts.StoreKey == "" {
		opts.StoreKey = KeyName
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		run:      opts.Runner,
		store:    opts.Store,
		profiles: opts.Profiles,
		netshKey: opts.NetshKey,
		storeKey: opts.StoreKey,
		logger:   logger,
	}, nil
}

// Servers validates and caps a resolver list. Only the first MaxServers
// entries are examined; the rest are dropped unseen.
func Servers(servers []string) ([]string, error) {
	if len(servers) > MaxServers {
		servers = servers[:MaxServers]
	}
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		s = strings.TrimSpace(s)
		addr, err := netip.ParseAddr(s)
		if err != nil || !addr.Is4() {
			return nil, fmt.Errorf("%q: %w", s, ErrInvalidServer)
		}
		out = append(out, addr.String())
	}
	return out, nil
}

// ApplyDNS resets the interface to DHCP and then installs up to two static
// resolvers: the first with set, the second with add at index 2.
func (w *Writer) ApplyDNS(ctx context.Context, iface netif.Interface, servers []string) error {
	servers, err := Servers(servers)
	if err != nil {
		return err
	}
	name := w.netshKey.of(iface)

	if _, err := w.run.Run(ctx, resetCommand(name)); err != nil {
		return fmt.Errorf("reset DNS source: %w", err)
	}
	if len(servers) == 0 {
		return nil
	}
	if _, err := w.run.Run(ctx, setStaticCommand(name, servers[0])); err != nil {
		return fmt.Errorf("set primary DNS: %w", err)
	}
	for i := 1; i < len(servers); i++ {
		if _, err := w.run.Run(ctx, addServerCommand(name, servers[i], i+1)); err != nil {
			return fmt.Errorf("add secondary DNS: %w", err)
		}
	}
	w.logger.Info("DNS servers applied", zap.String("interface", name), zap.Strings("servers", servers))
	return nil
}

// ResetDNS switches the interface back to DHCP-assigned resolvers.
func (w *Writer) ResetDNS(ctx context.Context, iface netif.Interface) error {
	if _, err := w.run.Run(ctx, resetCommand(w.netshKey.of(iface))); err != nil {
		return fmt.Errorf("reset DNS source: %w", err)
	}
	return nil
}

// target resolves the store key for iface. ok is false when the profile
// store has no profile for it.
func (w *Writer) target(ctx context.Context, iface netif.Interface) (string, bool, error) {
	if w.store.Kind() == dohstore.KindInterface {
		return w.storeKey.of(iface), true, nil
	}
	p, err := w.profiles.Find(ctx, profile.Target{
		Name:         iface.Name,
		Description:  iface.Description,
		HardwareAddr: iface.MAC(),
	})
	if errors.Is(err, profile.ErrProfileNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.ID, true, nil
}

// ApplyDoh enables DoH with template, or clears it when enabled is false.
// Plaintext fallback is never allowed. A missing network profile skips the
// write without error.
func (w *Writer) ApplyDoh(ctx context.Context, iface netif.Interface, enabled bool, template string) (DohResult, error) {
	cfg := dohstore.DohConfig{Enabled: enabled, Template: template, AllowFallback: false}
	if err := cfg.Validate(); err != nil {
		return DohResult{}, err
	}

	target, ok, err := w.target(ctx, iface)
	if err != nil {
		return DohResult{}, fmt.Errorf("resolve DoH target: %w", err)
	}
	if !ok {
		w.logger.Info("no network profile for interface, DoH write skipped", zap.String("interface", iface.Name))
		return DohResult{Outcome: DohSkipped}, nil
	}

	if err := w.store.Write(target, cfg); err != nil {
		return DohResult{}, err
	}
	if enabled {
		return DohResult{Outcome: DohWritten, Target: target}, nil
	}
	return DohResult{Outcome: DohCleared, Target: target}, nil
}

// ReadDoh returns the stored DoH config of iface. A missing profile reads
// as disabled.
func (w *Writer) ReadDoh(ctx context.Context, iface netif.Interface) (dohstore.DohConfig, error) {
	target, ok, err := w.target(ctx, iface)
	if err != nil {
		return dohstore.DohConfig{}, fmt.Errorf("resolve DoH target: %w", err)
	}
	if !ok {
		return dohstore.DohConfig{}, nil
	}
	return w.store.Read(target)
}

// RegisterDohServers adds each resolver to the OS DoH server table with
// template, so the resolver upgrades queries to those addresses.
func (w *Writer) RegisterDohServers(ctx context.Context, servers []string, template string) error {
	if template == "" {
		return dohstore.ErrTemplateRequired
	}
	if strings.ContainsRune(template, '"') {
		return fmt.Errorf("template %q: double quotes are not allowed", template)
	}
	servers, err := Servers(servers)
	if err != nil {
		return err
	}
	for _, s := range servers {
		if _, err := w.run.Run(ctx, powershell(registerServerScript(s, template))); err != nil {
			return fmt.Errorf("register DoH server %s: %w", s, err)
		}
	}
	return nil
}

// ClearResolverCache restarts the DNS client service.
func (w *Writer) ClearResolverCache(ctx context.Context) error {
	for _, cmd := range restartResolverCommands() {
		if _, err := w.run.Run(ctx, cmd); err != nil {
			return fmt.Errorf("restart DNS client: %w", err)
		}
	}
	return nil
}

// FlushDNSCache empties the system DNS cache.
func (w *Writer) FlushDNSCache(ctx context.Context) error {
	if _, err := w.run.Run(ctx, flushCommand()); err != nil {
		return fmt.Errorf("flush DNS cache: %w", err)
	}
	return nil
}

// ClearNeighborCache empties the ARP cache.
func (w *Writer) ClearNeighborCache(ctx context.Context) error {
	if _, err := w.run.Run(ctx, neighborCacheCommand()); err != nil {
		return fmt.Errorf("clear neighbor cache: %w", err)
	}
	return nil
}
