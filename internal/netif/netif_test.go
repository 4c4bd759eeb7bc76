package netif

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Compile-time interface guard.
var _ Enumerator = (*staticEnumerator)(nil)

type staticEnumerator struct {
	ifaces []Interface
	err    error
	calls  int
}

func (s *staticEnumerator) Interfaces(context.Context) ([]Interface, error) {
	s.calls++
	return s.ifaces, s.err
}

func fixture() *staticEnumerator {
	mac, _ := net.ParseMAC("00:11:22:33:44:55")
	return &staticEnumerator{ifaces: []Interface{
		{Name: "Loopback Pseudo-Interface 1", Up: true, Media: MediaOther},
		{Name: "Ethernet", Description: "Realtek PCIe GbE", Up: true, Media: MediaWired, HardwareAddr: mac},
		{Name: "Ethernet 2", Description: "Intel I219-V", Up: false, Media: MediaWired},
		{Name: "Wi-Fi", Description: "Intel Wi-Fi 6 AX201", Up: true, Media: MediaWireless},
		{Name: "vEthernet (WSL)", Up: true, Media: MediaOther},
	}}
}

func TestDirectory_ListActive(t *testing.T) {
	d := NewDirectory(fixture(), zap.NewNop())
	got, err := d.ListActive(context.Background())
	require.NoError(t, err)

	var names []string
	for _, i := range got {
		names = append(names, i.Name)
	}
	assert.Equal(t, []string{"Ethernet", "Wi-Fi"}, names)
}

func TestDirectory_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"exact wired", "Ethernet", false},
		{"exact wireless", "Wi-Fi", false},
		{"case differs", "ethernet", true},
		{"prefix only", "Ether", true},
		{"down interface", "Ethernet 2", true},
		{"virtual interface", "vEthernet (WSL)", true},
		{"unknown", "Bluetooth", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDirectory(fixture(), zap.NewNop())
			got, err := d.Resolve(context.Background(), tt.query)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInterfaceNotFound), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.query, got.Name)
		})
	}
}

func TestDirectory_NeverCaches(t *testing.T) {
	enum := fixture()
	d := NewDirectory(enum, zap.NewNop())
	_, _ = d.ListActive(context.Background())
	_, _ = d.Resolve(context.Background(), "Ethernet")
	assert.Equal(t, 2, enum.calls)
}

func TestDirectory_EnumeratorError(t *testing.T) {
	d := NewDirectory(&staticEnumerator{err: errors.New("boom")}, zap.NewNop())
	_, err := d.Resolve(context.Background(), "Ethernet")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInterfaceNotFound))
}

func TestInterface_MAC(t *testing.T) {
	mac, _ := net.ParseMAC("aa-bb-cc-dd-ee-ff")
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", Interface{HardwareAddr: mac}.MAC())
	assert.Equal(t, "", Interface{}.MAC())
}

func TestParseResolvectlDNS(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"none", "Link 2 (eth0):\n", nil},
		{"ipv4", "Link 2 (eth0): 192.168.1.1 9.9.9.9\n", []string{"192.168.1.1", "9.9.9.9"}},
		{"sni suffix", "Link 3 (wlan0): 1.1.1.1#cloudflare-dns.com", []string{"1.1.1.1"}},
		{"ipv6 with zone", "Link 2 (eth0): fe80::1%eth0 2606:4700::1111", []string{"fe80::1%eth0", "2606:4700::1111"}},
		{"with port", "Link 2 (eth0): 10.0.0.1:53", []string{"10.0.0.1"}},
		{"global ignored", "Global: 8.8.8.8\nLink 2 (eth0): 10.0.0.1", []string{"10.0.0.1"}},
		{"garbage", "Link 2 (eth0): not-an-ip", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResolvectlDNS(tt.in)
			var want []netip.Addr
			for _, s := range tt.want {
				want = append(want, netip.MustParseAddr(s))
			}
			assert.Equal(t, want, got)
		})
	}
}
