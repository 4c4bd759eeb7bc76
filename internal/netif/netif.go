// Package netif enumerates the host's network adapters and resolves a
// display name to a live interface. Interfaces are read from the OS on
// every call and never cached.
package netif

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"go.uber.org/zap"
)

// ErrInterfaceNotFound is returned when no active interface has the
// requested display name.
var ErrInterfaceNotFound = errors.New("interface not found")

// Media classifies the physical medium of an adapter.
type Media string

const (
	MediaOther    Media = "other"
	MediaWired    Media = "wired"
	MediaWireless Media = "wireless"
)

// Interface is a live network adapter as reported by the OS.
type Interface struct {
	// ID is the OS handle: the adapter GUID on Windows, the link name
	// elsewhere.
	ID           string           `json:"id"`
	Index        int              `json:"index"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	HardwareAddr net.HardwareAddr `json:"-"`
	Up           bool             `json:"up"`
	Media        Media            `json:"media"`
	DNSServers   []netip.Addr     `json:"dns_servers"`
}

// MAC returns the hardware address in colon form, or "" if absent.
func (i Interface) MAC() string {
	if len(i.HardwareAddr) == 0 {
		return ""
	}
	return i.HardwareAddr.String()
}

// Active reports whether the interface is a valid configuration target.
func (i Interface) Active() bool {
	return i.Up && (i.Media == MediaWired || i.Media == MediaWireless)
}

// Enumerator lists every adapter the OS knows about.
type Enumerator interface {
	Interfaces(ctx context.Context) ([]Interface, error)
}

// Directory filters enumerated adapters down to configuration targets.
type Directory struct {
	enum   Enumerator
	logger *zap.Logger
}

// NewDirectory creates a Directory over enum.
func NewDirectory(enum Enumerator, logger *zap.Logger) *Directory {
	return &Directory{enum: enum, logger: logger}
}

// ListActive returns the operationally up wired and wireless interfaces in
// OS enumeration order.
func (d *Directory) ListActive(ctx context.Context) ([]Interface, error) {
	all, err := d.enum.Interfaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate interfaces: %w", err)
	}
	active := make([]Interface, 0, len(all))
	for i := range all {
		if all[i].Active() {
			active = append(active, all[i])
		}
	}
	d.logger.Debug("interfaces enumerated", zap.Int("total", len(all)), zap.Int("active", len(active)))
	return active, nil
}

// Resolve returns the active interface whose display name equals name
// exactly.
func (d *Directory) Resolve(ctx context.Context, name string) (Interface, error) {
	active, err := d.ListActive(ctx)
	if err != nil {
		return Interface{}, err
	}
	for i := range active {
		if active[i].Name == name {
			return active[i], nil
		}
	}
	return Interface{}, fmt.Errorf("%q: %w", name, ErrInterfaceNotFound)
}
