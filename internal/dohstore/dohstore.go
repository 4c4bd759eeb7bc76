// Package dohstore persists per-network DNS-over-HTTPS settings in the
// registry. Two alternative locations are supported: the network profile
// store keyed by profile GUID and the DNS client's per-interface store keyed
// by interface name. Both hold the same three values under different names.
package dohstore

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/regstore"
)

// Kind selects a store location.
type Kind string

const (
	KindProfile   Kind = "profile"
	KindInterface Kind = "interface"
)

// ErrTemplateRequired is returned when enabling DoH without a template.
var ErrTemplateRequired = errors.New("DoH template is required when DoH is enabled")

// DohConfig is the encrypted resolver setting for one target.
type DohConfig struct {
	Enabled       bool   `json:"enabled"`
	Template      string `json:"template,omitempty"`
	AllowFallback bool   `json:"allow_fallback"`
}

// Validate enforces that an enabled config carries a template.
func (c DohConfig) Validate() error {
	if c.Enabled && c.Template == "" {
		return ErrTemplateRequired
	}
	return nil
}

// Layout names the key and values of one store location.
type Layout struct {
	// PathFormat is a fmt pattern taking the target (profile GUID or
	// interface key).
	PathFormat    string
	EnabledValue  string
	TemplateValue string
	FallbackValue string
}

// Path returns the registry path for target.
func (l Layout) Path(target string) string {
	return fmt.Sprintf(l.PathFormat, target)
}

var (
	// ProfileLayout is the per-profile store.
	ProfileLayout = Layout{
		PathFormat:    `SOFTWARE\Microsoft\Windows NT\CurrentVersion\NetworkList\Profiles\%s\DnsOverHttps`,
		EnabledValue:  "Enabled",
		TemplateValue: "Template",
		FallbackValue: "AllowFallback",
	}

	// InterfaceLayout is the system-wide per-interface store.
	InterfaceLayout = Layout{
		PathFormat:    `SYSTEM\CurrentControlSet\Services\Dnscache\Parameters\DohInterfaceSettings\%s`,
		EnabledValue:  "Enabled",
		TemplateValue: "ServerTemplate",
		FallbackValue: "FallbackAllowed",
	}
)

// ParseKind validates a configured store kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindProfile, KindInterface:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown DoH store %q (want %q or %q)", s, KindProfile, KindInterface)
	}
}

// Store reads and writes DohConfig at one location.
type Store struct {
	kind   Kind
	layout Layout
	reg    regstore.Registry
	logger *zap.Logger
}

// New creates a store of the given kind over reg.
func New(kind Kind, reg regstore.Registry, logger *zap.Logger) (*Store, error) {
	var layout Layout
	switch kind {
	case KindProfile:
		layout = ProfileLayout
	case KindInterface:
		layout = InterfaceLayout
	default:
		return nil, fmt.Errorf("unknown DoH store %q", kind)
	}
	return &Store{kind: kind, layout: layout, reg: reg, logger: logger}, nil
}

// Kind reports the store location.
func (s *Store) Kind() Kind { return s.kind }

// Layout reports the key and value names in use.
func (s *Store) Layout() Layout { return s.layout }

// Write persists cfg for target. A disabled cfg clears the values instead.
// When any value fails to write, the values already written are removed
// again so the key never holds a half-applied config.
func (s *Store) Write(target string, cfg DohConfig) error {
	if !cfg.Enabled {
		return s.Clear(target)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := s.layout.Path(target)
	key, err := s.reg.CreateKey(path)
	if err != nil {
		return fmt.Errorf("open DoH key %s: %w", path, err)
	}
	defer key.Close()

	err = key.SetDWord(s.layout.EnabledValue, 1)
	if err == nil {
		err = key.SetString(s.layout.TemplateValue, cfg.Template)
	}
	if err == nil {
		err = key.SetDWord(s.layout.FallbackValue, boolDWord(cfg.AllowFallback))
	}
	if err != nil {
		if rbErr := s.clearKey(key); rbErr != nil {
			s.logger.Warn("rollback of partial DoH write failed", zap.String("path", path), zap.Error(rbErr))
		}
		return fmt.Errorf("write DoH config %s: %w", path, err)
	}

	s.logger.Debug("DoH config written",
		zap.String("path", path),
		zap.String("template", cfg.Template),
		zap.Bool("allow_fallback", cfg.AllowFallback),
	)
	return nil
}

// Clear removes all three values for target. A missing key or value is not
// an error.
func (s *Store) Clear(target string) error {
	path := s.layout.Path(target)
	key, err := s.reg.OpenKey(path)
	if errors.Is(err, regstore.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open DoH key %s: %w", path, err)
	}
	defer key.Close()

	if err := s.clearKey(key); err != nil {
		return fmt.Errorf("clear DoH config %s: %w", path, err)
	}
	s.logger.Debug("DoH config cleared", zap.String("path", path))
	return nil
}

func (s *Store) clearKey(key regstore.Key) error {
	return multierr.Combine(
		key.DeleteValue(s.layout.EnabledValue),
		key.DeleteValue(s.layout.TemplateValue),
		key.DeleteValue(s.layout.FallbackValue),
	)
}

// Read returns the stored config for target. A missing key or missing
// values read as the zero config.
func (s *Store) Read(target string) (DohConfig, error) {
	path := s.layout.Path(target)
	key, err := s.reg.OpenKey(path)
	if errors.Is(err, regstore.ErrNotExist) {
		return DohConfig{}, nil
	}
	if err != nil {
		return DohConfig{}, fmt.Errorf("open DoH key %s: %w", path, err)
	}
	defer key.Close()

	var cfg DohConfig
	enabled, err := key.GetDWord(s.layout.EnabledValue)
	if err != nil && !errors.Is(err, regstore.ErrNotExist) {
		return DohConfig{}, fmt.Errorf("read %s: %w", s.layout.EnabledValue, err)
	}
	cfg.Enabled = enabled != 0

	cfg.Template, err = key.GetString(s.layout.TemplateValue)
	if err != nil && !errors.Is(err, regstore.ErrNotExist) {
		return DohConfig{}, fmt.Errorf("read %s: %w", s.layout.TemplateValue, err)
	}

	fallback, err := key.GetDWord(s.layout.FallbackValue)
	if err != nil && !errors.Is(err, regstore.ErrNotExist) {
		return DohConfig{}, fmt.Errorf("read %s: %w", s.layout.FallbackValue, err)
	}
	cfg.AllowFallback = fallback != 0

	return cfg, nil
}

func boolDWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
