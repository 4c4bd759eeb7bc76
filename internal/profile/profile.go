// Package profile locates the OS network-profile record for a live
// interface. No single identifier is present on every profile, so lookup
// runs a configurable chain of matchers over the persisted profiles.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrProfileNotFound is returned when no persisted profile matches. Callers
// treat it as "skip the profile write", not as a failure.
var ErrProfileNotFound = errors.New("network profile not found")

// Profile is a persisted network-profile record.
type Profile struct {
	// ID is the profile GUID including braces.
	ID          string
	Name        string
	Description string
	// ManagedAddress is the recorded hardware address, if any, in whatever
	// form the OS stored it.
	ManagedAddress string
}

// Target describes the live interface being matched.
type Target struct {
	Name         string
	Description  string
	HardwareAddr string
}

// Source enumerates persisted profiles in OS order.
type Source interface {
	Profiles(ctx context.Context) ([]Profile, error)
}

// Resolver finds the profile for a target using matchers in order.
type Resolver struct {
	source   Source
	matchers []Matcher
	logger   *zap.Logger
}

// NewResolver creates a resolver. At least one matcher is required.
func NewResolver(source Source, matchers []Matcher, logger *zap.Logger) (*Resolver, error) {
	if len(matchers) == 0 {
		return nil, errors.New("profile resolver needs at least one matcher")
	}
	return &Resolver{source: source, matchers: matchers, logger: logger}, nil
}

// Find returns the first profile accepted by a matcher. Matchers are tried
// in order; within a matcher, profiles are tried in enumeration order.
func (r *Resolver) Find(ctx context.Context, t Target) (Profile, error) {
	profiles, err := r.source.Profiles(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("list network profiles: %w", err)
	}
	for _, m := range r.matchers {
		for _, p := range profiles {
			if m.Match(t, p) {
				r.logger.Debug("network profile matched",
					zap.String("interface", t.Name),
					zap.String("profile_id", p.ID),
					zap.String("profile_name", p.Name),
					zap.String("strategy", m.Name()),
				)
				return p, nil
			}
		}
	}
	return Profile{}, fmt.Errorf("%q: %w", t.Name, ErrProfileNotFound)
}

// NormalizeMAC strips ':', '-' and '.' separators and upper-cases the rest,
// so "aa:bb:cc:dd:ee:ff", "AA-BB-CC-DD-EE-FF" and "aabb.ccdd.eeff" compare
// equal.
func NormalizeMAC(mac string) string {
	r := strings.NewReplacer(":", "", "-", "", ".", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(mac)))
}
