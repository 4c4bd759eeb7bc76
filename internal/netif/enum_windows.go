//go:build windows

package netif

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"

	"github.com/HerbHall/dnsswitch/internal/runner"
)

// Compile-time interface guard.
var _ Enumerator = (*windowsEnumerator)(nil)

// windowsEnumerator reads the IP Helper adapter table.
type windowsEnumerator struct {
	logger *zap.Logger
}

// NewSystemEnumerator returns the enumerator for this platform. The adapter
// table already carries resolver addresses, so run is unused here.
func NewSystemEnumerator(logger *zap.Logger, _ runner.Runner) Enumerator {
	return &windowsEnumerator{logger: logger}
}

func (e *windowsEnumerator) Interfaces(_ context.Context) ([]Interface, error) {
	head, err := adapterAddresses()
	if err != nil {
		return nil, err
	}

	var out []Interface
	for aa := head; aa != nil; aa = aa.Next {
		iface := Interface{
			ID:          windows.BytePtrToString(aa.AdapterName),
			Index:       int(aa.IfIndex),
			Name:        windows.UTF16PtrToString(aa.FriendlyName),
			Description: windows.UTF16PtrToString(aa.Description),
			Up:          aa.OperStatus == windows.IfOperStatusUp,
			Media:       classifyIfType(aa.IfType),
		}
		if aa.PhysicalAddressLength > 0 {
			iface.HardwareAddr = append(net.HardwareAddr(nil), aa.PhysicalAddress[:aa.PhysicalAddressLength]...)
		}
		for dns := aa.FirstDnsServerAddress; dns != nil; dns = dns.Next {
			if addr, ok := netip.AddrFromSlice(dns.Address.IP()); ok {
				iface.DNSServers = append(iface.DNSServers, addr.Unmap())
			}
		}
		out = append(out, iface)
	}
	return out, nil
}

func classifyIfType(t uint32) Media {
	switch t {
	case windows.IF_TYPE_ETHERNET_CSMACD:
		return MediaWired
	case windows.IF_TYPE_IEEE80211:
		return MediaWireless
	default:
		return MediaOther
	}
}

// adapterAddresses grows its buffer until GetAdaptersAddresses fits.
func adapterAddresses() (*windows.IpAdapterAddresses, error) {
	size := uint32(15000)
	for range 3 {
		buf := make([]byte, size)
		head := (*windows.IpAdapterAddresses)(unsafe.Pointer(&buf[0]))
		err := windows.GetAdaptersAddresses(windows.AF_UNSPEC, windows.GAA_FLAG_INCLUDE_PREFIX, 0, head, &size)
		if err == nil {
			return head, nil
		}
		if !errors.Is(err, windows.ERROR_BUFFER_OVERFLOW) {
			return nil, fmt.Errorf("GetAdaptersAddresses: %w", err)
		}
	}
	return nil, fmt.Errorf("GetAdaptersAddresses: buffer still too small at %d bytes", size)
}
