package netif

import (
	"net/netip"
	"strings"
)

// parseResolvectlDNS extracts resolver addresses from `resolvectl dns <link>`
// output such as
//
//	Link 2 (eth0): 192.168.1.1 1.1.1.1#cloudflare-dns.com fe80::1%eth0
//
// Unparseable tokens are skipped.
func parseResolvectlDNS(out string) []netip.Addr {
	var addrs []netip.Addr
	for _, line := range strings.Split(out, "\n") {
		_, rest, ok := strings.Cut(line, "):")
		if !ok {
			// "Global:" lines carry system-wide servers, not per-link ones.
			continue
		}
		for _, tok := range strings.Fields(rest) {
			tok, _, _ = strings.Cut(tok, "#")
			if addr, err := netip.ParseAddr(tok); err == nil {
				addrs = append(addrs, addr)
				continue
			}
			if ap, err := netip.ParseAddrPort(tok); err == nil {
				addrs = append(addrs, ap.Addr())
			}
		}
	}
	return addrs
}
