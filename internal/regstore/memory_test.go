package regstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_OpenMissing(t *testing.T) {
	m := NewMemory()
	_, err := m.OpenKey(`SOFTWARE\Nope`)
	assert.True(t, errors.Is(err, ErrNotExist), "want ErrNotExist, got %v", err)
}

func TestMemory_CreateAndRead(t *testing.T) {
	m := NewMemory()
	k, err := m.CreateKey(`SYSTEM\A\B`)
	require.NoError(t, err)
	require.NoError(t, k.SetString("Template", "https://x/dns-query"))
	require.NoError(t, k.SetDWord("Enabled", 1))
	require.NoError(t, k.Close())

	// Paths and value names are case-insensitive.
	k, err = m.OpenKey(`system\a\b`)
	require.NoError(t, err)
	s, err := k.GetString("template")
	require.NoError(t, err)
	assert.Equal(t, "https://x/dns-query", s)
	d, err := k.GetDWord("ENABLED")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), d)

	_, err = k.GetString("Enabled")
	assert.Error(t, err, "type mismatch")
	_, err = k.GetDWord("Missing")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestMemory_DeleteValue(t *testing.T) {
	m := NewMemory()
	k, _ := m.CreateKey(`K`)
	_ = k.SetDWord("Enabled", 1)

	require.NoError(t, k.DeleteValue("Enabled"))
	require.NoError(t, k.DeleteValue("Enabled"), "deleting a missing value is not an error")
	assert.Empty(t, m.Values(`K`))
}

func TestMemory_SubKeyOrder(t *testing.T) {
	m := NewMemory()
	for _, p := range []string{`P\{b}`, `P\{a}`, `P\{c}`, `P\{A}\child`} {
		_, err := m.CreateKey(p)
		require.NoError(t, err)
	}
	k, err := m.OpenKey(`P`)
	require.NoError(t, err)
	names, err := k.SubKeyNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"{b}", "{a}", "{c}"}, names)
}

func TestMemory_Binary(t *testing.T) {
	m := NewMemory()
	m.SetBinary(`Sig\X`, "DefaultGatewayMac", []byte{0xaa, 0xbb})
	k, err := m.OpenKey(`Sig\X`)
	require.NoError(t, err)
	b, err := k.GetBinary("DefaultGatewayMac")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, b)
	assert.True(t, m.Exists(`sig\x`))
	assert.Nil(t, m.Values(`Sig\Y`))
}
