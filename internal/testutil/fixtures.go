package testutil

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"sync"

	"github.com/HerbHall/dnsswitch/internal/netif"
)

// NewInterface returns an active wired interface named "Ethernet".
// Override individual fields with options.
func NewInterface(opts ...func(*netif.Interface)) netif.Interface {
	mac, _ := net.ParseMAC("00:11:22:33:44:55")
	i := netif.Interface{
		ID:           "{4D36E972-E325-11CE-BFC1-08002BE10318}",
		Index:        12,
		Name:         "Ethernet",
		Description:  "Realtek PCIe GbE Family Controller",
		HardwareAddr: mac,
		Up:           true,
		Media:        netif.MediaWired,
	}
	for _, opt := range opts {
		opt(&i)
	}
	return i
}

// WithName sets the display name.
func WithName(name string) func(*netif.Interface) {
	return func(i *netif.Interface) { i.Name = name }
}

// WithDescription sets the adapter description.
func WithDescription(desc string) func(*netif.Interface) {
	return func(i *netif.Interface) { i.Description = desc }
}

// WithMAC sets the hardware address.
func WithMAC(mac string) func(*netif.Interface) {
	return func(i *netif.Interface) { i.HardwareAddr, _ = net.ParseMAC(mac) }
}

// WithMedia sets the medium.
func WithMedia(m netif.Media) func(*netif.Interface) {
	return func(i *netif.Interface) { i.Media = m }
}

// WithDNS sets the current resolver addresses.
func WithDNS(addrs ...string) func(*netif.Interface) {
	return func(i *netif.Interface) {
		i.DNSServers = nil
		for _, a := range addrs {
			i.DNSServers = append(i.DNSServers, netip.MustParseAddr(a))
		}
	}
}

// Down marks the interface operationally down.
func Down() func(*netif.Interface) {
	return func(i *netif.Interface) { i.Up = false }
}

// Compile-time interface check.
var _ netif.Enumerator = (*FakeEnumerator)(nil)

// FakeEnumerator serves a fixed adapter list.
type FakeEnumerator struct {
	mu     sync.Mutex
	ifaces []netif.Interface
	Err    error
}

// NewFakeEnumerator returns an enumerator over ifaces.
func NewFakeEnumerator(ifaces ...netif.Interface) *FakeEnumerator {
	return &FakeEnumerator{ifaces: ifaces}
}

// Interfaces returns a copy of the configured list.
func (f *FakeEnumerator) Interfaces(context.Context) ([]netif.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]netif.Interface, len(f.ifaces))
	copy(out, f.ifaces)
	return out, nil
}

// SetDNS replaces the resolver list of the named interface, mimicking the
// OS after a configuration change.
func (f *FakeEnumerator) SetDNS(name string, addrs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.ifaces {
		if f.ifaces[i].Name == name {
			WithDNS(addrs...)(&f.ifaces[i])
		}
	}
}

// StatusRecorder collects status messages.
type StatusRecorder struct {
	mu       sync.Mutex
	messages []string
}

// Func returns the callback to hand to the code under test.
func (s *StatusRecorder) Func() func(string) {
	return func(msg string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.messages = append(s.messages, msg)
	}
}

// Messages returns a copy of all recorded messages.
func (s *StatusRecorder) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// Last returns the most recent message, or "".
func (s *StatusRecorder) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1]
}

// Contains reports whether any message contains substr.
func (s *StatusRecorder) Contains(substr string) bool {
	for _, m := range s.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
