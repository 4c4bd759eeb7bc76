package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/dnsswitch/internal/dohstore"
	"github.com/HerbHall/dnsswitch/internal/probe"
	"github.com/HerbHall/dnsswitch/internal/profile"
	"github.com/HerbHall/dnsswitch/internal/runner"
	"github.com/HerbHall/dnsswitch/internal/writer"
)

// EnvPrefix prefixes environment overrides: dns.template is read from
// DNSSWITCH_DNS_TEMPLATE.
const EnvPrefix = "DNSSWITCH"

// Default resolver preset.
const (
	DefaultTemplate = "https://dns.comss.one/dns-query"
	DefaultAddr     = "127.0.0.1:5380"
)

// DefaultServers are the plain resolvers paired with DefaultTemplate.
var DefaultServers = []string{"83.220.169.155", "212.109.195.93"}

// Settings is the typed configuration of the dnsswitch binary.
type Settings struct {
	Log     LogSettings     `mapstructure:"log"`
	DNS     DNSSettings     `mapstructure:"dns"`
	Probe   ProbeSettings   `mapstructure:"probe"`
	Runner  RunnerSettings  `mapstructure:"runner"`
	Profile ProfileSettings `mapstructure:"profile"`
	Doh     DohSettings     `mapstructure:"doh"`
	Netsh   NetshSettings   `mapstructure:"netsh"`
	Store   StoreSettings   `mapstructure:"store"`
	Journal JournalSettings `mapstructure:"journal"`
	Server  ServerSettings  `mapstructure:"server"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

// DNSSettings are the values used when the CLI is not given explicit ones.
type DNSSettings struct {
	Servers   []string `mapstructure:"servers"`
	Template  string   `mapstructure:"template"`
	EnableDoh bool     `mapstructure:"enable_doh"`
}

type ProbeSettings struct {
	Enabled   bool          `mapstructure:"enabled"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type RunnerSettings struct {
	Mode    string        `mapstructure:"mode"`
	Timeout time.Duration `mapstructure:"timeout"`
	// BenignPatterns are added to runner.DefaultBenignPatterns.
	BenignPatterns []string `mapstructure:"benign_patterns"`
}

type ProfileSettings struct {
	Strategy      string                 `mapstructure:"strategy"`
	Keywords      []string               `mapstructure:"keywords"`
	KnownNetworks []profile.KnownNetwork `mapstructure:"known_networks"`
}

type DohSettings struct {
	Store           string `mapstructure:"store"`
	InterfaceKey    string `mapstructure:"interface_key"`
	RegisterServers bool   `mapstructure:"register_servers"`
}

type NetshSettings struct {
	InterfaceKey string `mapstructure:"interface_key"`
}

// StoreSettings locate the SQLite file holding the journal and saved
// settings. An empty path means the user's config directory.
type StoreSettings struct {
	Path string `mapstructure:"path"`
}

type JournalSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

// ServerSettings configure the control API. A zero RateLimit disables
// throttling.
type ServerSettings struct {
	Addr      string  `mapstructure:"addr"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// SetDefaults registers every key with its default so environment
// overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("dns.servers", DefaultServers)
	v.SetDefault("dns.template", DefaultTemplate)
	v.SetDefault("dns.enable_doh", true)

	v.SetDefault("probe.enabled", true)
	v.SetDefault("probe.timeout", probe.DefaultTimeout)
	v.SetDefault("probe.user_agent", probe.DefaultUserAgent)

	v.SetDefault("runner.mode", runner.ModeBlocking)
	v.SetDefault("runner.timeout", time.Duration(0))
	v.SetDefault("runner.benign_patterns", []string{})

	v.SetDefault("profile.strategy", profile.StrategyChain)
	v.SetDefault("profile.keywords", profile.DefaultKeywords)
	v.SetDefault("profile.known_networks", []profile.KnownNetwork{})

	v.SetDefault("doh.store", string(dohstore.KindProfile))
	v.SetDefault("doh.interface_key", string(writer.KeyName))
	v.SetDefault("doh.register_servers", false)

	v.SetDefault("netsh.interface_key", string(writer.KeyName))

	v.SetDefault("store.path", "")
	v.SetDefault("journal.enabled", true)

	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.burst", 20)
}

// Load reads configuration from path (optional), the environment, and the
// defaults, in that order of precedence after explicit overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return New(v), nil
}

// Settings decodes and validates the typed settings.
func (c *Config) Settings() (*Settings, error) {
	var s Settings
	if err := c.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks enumerations, addresses and templates. All problems are
// reported together.
func (s *Settings) Validate() error {
	var errs []error

	switch strings.ToLower(s.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", s.Log.Level))
	}
	for _, srv := range s.DNS.Servers {
		if _, err := netip.ParseAddr(srv); err != nil {
			errs = append(errs, fmt.Errorf("dns.servers: %q is not an IP address", srv))
		}
	}
	if s.DNS.EnableDoh && s.DNS.Template == "" {
		errs = append(errs, errors.New("dns.template: required when dns.enable_doh is set"))
	}
	if s.DNS.Template != "" {
		if err := checkTemplate(s.DNS.Template); err != nil {
			errs = append(errs, fmt.Errorf("dns.template: %w", err))
		}
	}
	if s.Probe.Timeout < 0 {
		errs = append(errs, errors.New("probe.timeout: must not be negative"))
	}
	switch s.Runner.Mode {
	case runner.ModeBlocking, runner.ModeAwait:
	default:
		errs = append(errs, fmt.Errorf("runner.mode: unknown mode %q", s.Runner.Mode))
	}
	if s.Runner.Timeout < 0 {
		errs = append(errs, errors.New("runner.timeout: must not be negative"))
	}
	if _, err := profile.MatchersFor(s.Profile.Strategy, s.Profile.Keywords, s.Profile.KnownNetworks); err != nil {
		errs = append(errs, fmt.Errorf("profile.strategy: %w", err))
	}
	if _, err := dohstore.ParseKind(s.Doh.Store); err != nil {
		errs = append(errs, fmt.Errorf("doh.store: %w", err))
	}
	if _, err := writer.ParseInterfaceKey(s.Doh.InterfaceKey); err != nil {
		errs = append(errs, fmt.Errorf("doh.interface_key: %w", err))
	}
	if _, err := writer.ParseInterfaceKey(s.Netsh.InterfaceKey); err != nil {
		errs = append(errs, fmt.Errorf("netsh.interface_key: %w", err))
	}
	if s.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr: required"))
	}
	if s.Server.RateLimit < 0 || s.Server.Burst < 0 {
		errs = append(errs, errors.New("server.rate_limit and server.burst: must not be negative"))
	}
	return errors.Join(errs...)
}

func checkTemplate(t string) error {
	u, err := url.Parse(t)
	if err != nil {
		return err
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%q is not an https URL", t)
	}
	return nil
}
