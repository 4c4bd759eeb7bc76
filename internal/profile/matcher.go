package profile

import (
	"fmt"
	"strings"
)

// Matcher decides whether a persisted profile belongs to a target.
type Matcher interface {
	Name() string
	Match(t Target, p Profile) bool
}

// Strategy names accepted by MatchersFor.
const (
	StrategyName        = "name"
	StrategyDescription = "description"
	StrategyHardware    = "hardware"
	StrategyChain       = "chain"
)

// DefaultKeywords are the medium and vendor terms the description heuristic
// looks for.
var DefaultKeywords = []string{
	"ethernet", "wired", "wi-fi", "wifi", "wireless",
	"realtek", "intel", "broadcom", "qualcomm", "atheros", "mediatek",
	"проводн", "беспровод", "сеть",
}

// KnownNetwork pins a profile name to an SSID seen in its description.
type KnownNetwork struct {
	Profile string `mapstructure:"profile" json:"profile"`
	SSID    string `mapstructure:"ssid" json:"ssid"`
}

// Compile-time interface guards.
var (
	_ Matcher = NameMatcher{}
	_ Matcher = DescriptionMatcher{}
	_ Matcher = HardwareAddressMatcher{}
)

// NameMatcher accepts a profile whose name equals the interface name,
// ignoring case, or whose description equals it exactly.
type NameMatcher struct{}

func (NameMatcher) Name() string { return StrategyName }

func (NameMatcher) Match(t Target, p Profile) bool {
	if t.Name == "" {
		return false
	}
	return strings.EqualFold(p.Name, t.Name) || p.Description == t.Name
}

// DescriptionMatcher accepts a profile whose description mentions the
// interface name or one of Keywords, or which is listed in KnownNetworks.
type DescriptionMatcher struct {
	Keywords      []string
	KnownNetworks []KnownNetwork
}

func (DescriptionMatcher) Name() string { return StrategyDescription }

func (m DescriptionMatcher) Match(t Target, p Profile) bool {
	desc := strings.ToLower(p.Description)
	if t.Name != "" && strings.Contains(desc, strings.ToLower(t.Name)) {
		return true
	}
	for _, kw := range m.Keywords {
		if kw != "" && strings.Contains(desc, strings.ToLower(kw)) {
			return true
		}
	}
	for _, kn := range m.KnownNetworks {
		if strings.EqualFold(p.Name, kn.Profile) && kn.SSID != "" &&
			strings.Contains(desc, strings.ToLower(kn.SSID)) {
			return true
		}
	}
	return false
}

// HardwareAddressMatcher accepts a profile whose managed address equals the
// interface's hardware address after normalization. The managed address is
// the gateway MAC (see RegistrySource), so this is the chain's last resort.
type HardwareAddressMatcher struct{}

func (HardwareAddressMatcher) Name() string { return StrategyHardware }

func (HardwareAddressMatcher) Match(t Target, p Profile) bool {
	want := NormalizeMAC(t.HardwareAddr)
	return want != "" && NormalizeMAC(p.ManagedAddress) == want
}

// MatchersFor builds the matcher list for a configured strategy. The chain
// tries name, then description, then hardware address.
func MatchersFor(strategy string, keywords []string, known []KnownNetwork) ([]Matcher, error) {
	desc := DescriptionMatcher{Keywords: keywords, KnownNetworks: known}
	switch strategy {
	case StrategyName:
		return []Matcher{NameMatcher{}}, nil
	case StrategyDescription:
		return []Matcher{desc}, nil
	case StrategyHardware:
		return []Matcher{HardwareAddressMatcher{}}, nil
	case "", StrategyChain:
		return []Matcher{NameMatcher{}, desc, HardwareAddressMatcher{}}, nil
	default:
		return nil, fmt.Errorf("unknown profile strategy %q", strategy)
	}
}
