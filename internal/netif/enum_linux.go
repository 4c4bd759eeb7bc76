//go:build linux

package netif

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/mdlayher/wifi"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/HerbHall/dnsswitch/internal/runner"
)

// Compile-time interface guard.
var _ Enumerator = (*linuxEnumerator)(nil)

// linuxEnumerator reads links over netlink, asks nl80211 which of them are
// wireless, and reads per-link resolvers from systemd-resolved.
type linuxEnumerator struct {
	run    runner.Runner
	logger *zap.Logger
}

// NewSystemEnumerator returns the enumerator for this platform. run is used
// to query per-link resolvers and may be nil to skip that step.
func NewSystemEnumerator(logger *zap.Logger, run runner.Runner) Enumerator {
	return &linuxEnumerator{run: run, logger: logger}
}

func (e *linuxEnumerator) Interfaces(ctx context.Context) ([]Interface, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	wireless := e.wirelessIndexes()

	out := make([]Interface, 0, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		iface := Interface{
			ID:           attrs.Name,
			Index:        attrs.Index,
			Name:         attrs.Name,
			Description:  linkDescription(l),
			HardwareAddr: attrs.HardwareAddr,
			Up:           linkUp(attrs),
			Media:        classifyLink(l.Type(), attrs.EncapType, attrs.RawFlags, wireless[attrs.Index]),
		}
		if iface.Active() {
			iface.DNSServers = e.dnsServers(ctx, attrs.Name)
		}
		out = append(out, iface)
	}
	return out, nil
}

func (e *linuxEnumerator) wirelessIndexes() map[int]bool {
	c, err := wifi.New()
	if err != nil {
		e.logger.Debug("nl80211 unavailable, treating all links as wired", zap.Error(err))
		return nil
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		e.logger.Debug("nl80211 interface query failed", zap.Error(err))
		return nil
	}
	idx := make(map[int]bool, len(ifis))
	for _, ifi := range ifis {
		idx[ifi.Index] = true
	}
	return idx
}

func (e *linuxEnumerator) dnsServers(ctx context.Context, link string) []netip.Addr {
	if e.run == nil {
		return nil
	}
	res, err := e.run.Run(ctx, runner.Command{
		Name:     "resolvectl",
		Args:     []string{"dns", link},
		Encoding: runner.EncodingUTF8,
	})
	if err != nil {
		e.logger.Debug("resolvectl query failed", zap.String("link", link), zap.Error(err))
		return nil
	}
	return parseResolvectlDNS(res.Stdout)
}

func linkUp(attrs *netlink.LinkAttrs) bool {
	if attrs.OperState == netlink.OperUp {
		return true
	}
	// Some drivers never report an operstate; fall back to the flags.
	return attrs.OperState == netlink.OperUnknown &&
		attrs.Flags&net.FlagUp != 0 &&
		attrs.RawFlags&unix.IFF_RUNNING != 0
}

func linkDescription(l netlink.Link) string {
	attrs := l.Attrs()
	if attrs.Alias != "" {
		return attrs.Alias
	}
	return strings.TrimSpace(l.Type() + " " + attrs.EncapType)
}

// classifyLink maps a netlink link onto a Media. Only physical Ethernet
// devices count; bridges, veths, tunnels and loopback are MediaOther.
func classifyLink(linkType, encap string, rawFlags uint32, isWireless bool) Media {
	if rawFlags&unix.IFF_LOOPBACK != 0 || rawFlags&unix.IFF_POINTOPOINT != 0 {
		return MediaOther
	}
	if linkType != "device" || encap != "ether" {
		return MediaOther
	}
	if isWireless {
		return MediaWireless
	}
	return MediaWired
}
