//go:build !windows && !linux

package netif

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/runner"
)

// Compile-time interface guard.
var _ Enumerator = (*stdEnumerator)(nil)

// stdEnumerator uses the portable net package. It cannot tell wired from
// wireless, so every broadcast adapter with a MAC counts as wired.
type stdEnumerator struct {
	logger *zap.Logger
}

// NewSystemEnumerator returns the enumerator for this platform.
func NewSystemEnumerator(logger *zap.Logger, _ runner.Runner) Enumerator {
	return &stdEnumerator{logger: logger}
}

func (e *stdEnumerator) Interfaces(_ context.Context) ([]Interface, error) {
	ifis, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	out := make([]Interface, 0, len(ifis))
	for _, ifi := range ifis {
		media := MediaOther
		if ifi.Flags&(net.FlagLoopback|net.FlagPointToPoint) == 0 && len(ifi.HardwareAddr) == 6 {
			media = MediaWired
		}
		out = append(out, Interface{
			ID:           ifi.Name,
			Index:        ifi.Index,
			Name:         ifi.Name,
			Description:  ifi.Name,
			HardwareAddr: ifi.HardwareAddr,
			Up:           ifi.Flags&net.FlagUp != 0 && ifi.Flags&net.FlagRunning != 0,
			Media:        media,
		})
	}
	return out, nil
}
