package dohstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/dnsswitch/internal/regstore"
)

const template = "https://dns.example/dns-query"

func newStore(t *testing.T, kind Kind) (*Store, *regstore.Memory) {
	t.Helper()
	reg := regstore.NewMemory()
	s, err := New(kind, reg, zap.NewNop())
	require.NoError(t, err)
	return s, reg
}

func TestStore_WriteLayouts(t *testing.T) {
	tests := []struct {
		kind   Kind
		target string
		path   string
		want   map[string]any
	}{
		{
			kind:   KindProfile,
			target: "{1111}",
			path:   `SOFTWARE\Microsoft\Windows NT\CurrentVersion\NetworkList\Profiles\{1111}\DnsOverHttps`,
			want:   map[string]any{"enabled": uint32(1), "template": template, "allowfallback": uint32(0)},
		},
		{
			kind:   KindInterface,
			target: "Ethernet",
			path:   `SYSTEM\CurrentControlSet\Services\Dnscache\Parameters\DohInterfaceSettings\Ethernet`,
			want:   map[string]any{"enabled": uint32(1), "servertemplate": template, "fallbackallowed": uint32(0)},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s, reg := newStore(t, tt.kind)
			require.NoError(t, s.Write(tt.target, DohConfig{Enabled: true, Template: template}))
			assert.Equal(t, tt.want, reg.Values(tt.path))

			got, err := s.Read(tt.target)
			require.NoError(t, err)
			assert.Equal(t, DohConfig{Enabled: true, Template: template}, got)
		})
	}
}

func TestStore_WriteRequiresTemplate(t *testing.T) {
	s, reg := newStore(t, KindInterface)
	err := s.Write("Ethernet", DohConfig{Enabled: true})
	assert.True(t, errors.Is(err, ErrTemplateRequired))
	assert.False(t, reg.Exists(InterfaceLayout.Path("Ethernet")), "no key is created on validation failure")
}

func TestStore_DisableClearsEverything(t *testing.T) {
	s, reg := newStore(t, KindProfile)
	require.NoError(t, s.Write("{g}", DohConfig{Enabled: true, Template: template}))

	require.NoError(t, s.Write("{g}", DohConfig{Enabled: false, Template: "ignored"}))
	assert.Empty(t, reg.Values(ProfileLayout.Path("{g}")))

	got, err := s.Read("{g}")
	require.NoError(t, err)
	assert.Equal(t, DohConfig{}, got)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	s, _ := newStore(t, KindInterface)
	// Missing key.
	require.NoError(t, s.Clear("Wi-Fi"))

	require.NoError(t, s.Write("Wi-Fi", DohConfig{Enabled: true, Template: template}))
	require.NoError(t, s.Clear("Wi-Fi"))
	require.NoError(t, s.Clear("Wi-Fi"))
}

func TestStore_ReadMissing(t *testing.T) {
	s, _ := newStore(t, KindProfile)
	got, err := s.Read("{none}")
	require.NoError(t, err)
	assert.Equal(t, DohConfig{}, got)
}

func TestStore_UnsupportedRegistry(t *testing.T) {
	s, err := New(KindInterface, failingRegistry{}, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, s.Write("Ethernet", DohConfig{Enabled: true, Template: template}))
	assert.Error(t, s.Clear("Ethernet"))
	_, err = s.Read("Ethernet")
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, in := range []string{"profile", "interface"} {
		k, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, Kind(in), k)
	}
	_, err := ParseKind("both")
	assert.Error(t, err)

	_, err = New("both", regstore.NewMemory(), zap.NewNop())
	assert.Error(t, err)
}

// Compile-time interface guard.
var _ regstore.Registry = failingRegistry{}

type failingRegistry struct{}

func (failingRegistry) OpenKey(string) (regstore.Key, error) {
	return nil, errors.New("access denied")
}

func (failingRegistry) CreateKey(string) (regstore.Key, error) {
	return nil, errors.New("access denied")
}

// flakyRegistry wraps Memory and fails every SetString.
type flakyRegistry struct {
	*regstore.Memory
}

type flakyKey struct {
	regstore.Key
}

func (f flakyRegistry) CreateKey(path string) (regstore.Key, error) {
	k, err := f.Memory.CreateKey(path)
	if err != nil {
		return nil, err
	}
	return flakyKey{k}, nil
}

func (flakyKey) SetString(string, string) error { return errors.New("disk full") }

func TestStore_PartialWriteRollsBack(t *testing.T) {
	reg := flakyRegistry{regstore.NewMemory()}
	s, err := New(KindInterface, reg, zap.NewNop())
	require.NoError(t, err)

	err = s.Write("Ethernet", DohConfig{Enabled: true, Template: template})
	require.Error(t, err)
	assert.Empty(t, reg.Values(InterfaceLayout.Path("Ethernet")), "Enabled must not survive a failed write")
}
