package profile

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/regstore"
)

// Registry locations of the network list.
const (
	ProfilesPath   = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\NetworkList\Profiles`
	SignaturesPath = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\NetworkList\Signatures`
)

// Compile-time interface guard.
var _ Source = (*RegistrySource)(nil)

// RegistrySource reads profiles from the NetworkList hive. Managed
// addresses come from the DefaultGatewayMac recorded in the matching
// signature. That is the router's MAC, not the adapter's, so
// HardwareAddressMatcher only hits when the two coincide; on most hosts
// the name and description strategies resolve the profile first.
type RegistrySource struct {
	reg    regstore.Registry
	logger *zap.Logger
}

// NewRegistrySource creates a source over reg.
func NewRegistrySource(reg regstore.Registry, logger *zap.Logger) *RegistrySource {
	return &RegistrySource{reg: reg, logger: logger}
}

// Profiles lists every profile in registry enumeration order. A missing
// Profiles key yields an empty list.
func (s *RegistrySource) Profiles(_ context.Context) ([]Profile, error) {
	root, err := s.reg.OpenKey(ProfilesPath)
	if errors.Is(err, regstore.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	guids, err := root.SubKeyNames()
	_ = root.Close()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	managed := s.managedAddresses()

	profiles := make([]Profile, 0, len(guids))
	for _, guid := range guids {
		p, err := s.readProfile(guid)
		if err != nil {
			s.logger.Debug("skipping unreadable profile", zap.String("profile_id", guid), zap.Error(err))
			continue
		}
		p.ManagedAddress = managed[strings.ToUpper(guid)]
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (s *RegistrySource) readProfile(guid string) (Profile, error) {
	k, err := s.reg.OpenKey(ProfilesPath + `\` + guid)
	if err != nil {
		return Profile{}, err
	}
	defer k.Close()

	p := Profile{ID: guid}
	if p.Name, err = k.GetString("ProfileName"); err != nil && !errors.Is(err, regstore.ErrNotExist) {
		return Profile{}, err
	}
	if p.Description, err = k.GetString("Description"); err != nil && !errors.Is(err, regstore.ErrNotExist) {
		return Profile{}, err
	}
	return p, nil
}

// managedAddresses maps upper-cased profile GUIDs to the hex-encoded
// DefaultGatewayMac of their signatures. Unreadable signatures are skipped.
func (s *RegistrySource) managedAddresses() map[string]string {
	out := map[string]string{}
	for _, group := range []string{"Managed", "Unmanaged"} {
		base := SignaturesPath + `\` + group
		k, err := s.reg.OpenKey(base)
		if err != nil {
			continue
		}
		sigs, err := k.SubKeyNames()
		_ = k.Close()
		if err != nil {
			continue
		}
		for _, sig := range sigs {
			sk, err := s.reg.OpenKey(base + `\` + sig)
			if err != nil {
				continue
			}
			guid, gerr := sk.GetString("ProfileGuid")
			mac, merr := sk.GetBinary("DefaultGatewayMac")
			_ = sk.Close()
			if gerr != nil || merr != nil || len(mac) == 0 {
				continue
			}
			key := strings.ToUpper(guid)
			if _, seen := out[key]; !seen {
				out[key] = strings.ToUpper(hex.EncodeToString(mac))
			}
		}
	}
	return out
}
