package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/dnsswitch/internal/dohstore"
	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/regstore"
	"github.com/HerbHall/dnsswitch/internal/testutil"
)

type harness struct {
	run  *testutil.FakeRunner
	reg  *regstore.Memory
	enum *testutil.FakeEnumerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("DNSSWITCH_STORE_PATH", filepath.Join(t.TempDir(), "dnsswitch.db"))
	t.Setenv("DNSSWITCH_DOH_STORE", "interface")
	t.Setenv("DNSSWITCH_LOG_LEVEL", "error")
	return &harness{
		run: testutil.NewFakeRunner(),
		reg: regstore.NewMemory(),
		enum: testutil.NewFakeEnumerator(
			testutil.NewInterface(),
			testutil.NewInterface(testutil.WithName("Wi-Fi"), testutil.WithMedia(netif.MediaWireless), testutil.WithDNS("192.168.1.1")),
			testutil.NewInterface(testutil.WithName("vEthernet"), testutil.WithMedia(netif.MediaOther)),
		),
	}
}

func (h *harness) deps() deps {
	return deps{enumerator: h.enum, registry: h.reg, runner: h.run}
}

func (h *harness) exec(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, h.deps())
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitOK, run(context.Background(), []string{"version"}, &out, &out, deps{}))
	assert.True(t, strings.HasPrefix(out.String(), "dnsswitch "), out.String())
}

func TestUsage(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.exec(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Usage: dnsswitch")

	code, _, stderr = h.exec(t, "frobnicate")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	t.Setenv("DNSSWITCH_RUNNER_MODE", "sometimes")
	code, _, stderr := h.exec(t, "list")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "runner.mode")
}

func TestList(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.exec(t, "list")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Ethernet")
	assert.Contains(t, stdout, "192.168.1.1")
	assert.NotContains(t, stdout, "vEthernet")

	code, stdout, _ = h.exec(t, "list", "--json")
	require.Equal(t, exitOK, code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(stdout), "["))
}

func TestSet_Provider(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.exec(t, "set", "--interface", "Ethernet", "--provider", "cloudflare", "--no-probe")
	require.Equal(t, exitOK, code, stdout)

	assert.Contains(t, stdout, "DNS: 1.1.1.1, 1.0.0.1")
	assert.Contains(t, stdout, "DoH: Cloudflare")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(stdout), "Done"))
	assert.Equal(t, 1, h.run.Count("static 1.1.1.1"))
	assert.Equal(t, "https://cloudflare-dns.com/dns-query",
		h.reg.Values(dohstore.InterfaceLayout.Path("Ethernet"))["servertemplate"])
}

func TestSet_ExplicitServersOverrideProvider(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.exec(t, "set", "--interface", "Ethernet", "--provider", "Cloudflare", "--servers", "9.9.9.9", "--no-probe")
	require.Equal(t, exitOK, code, stdout)
	assert.Equal(t, 1, h.run.Count("static 9.9.9.9"))
	assert.Zero(t, h.run.Count("1.1.1.1"))
}

func TestSet_Defaults(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.exec(t, "set", "--interface", "Wi-Fi", "--no-probe")
	require.Equal(t, exitOK, code, stdout)
	assert.Contains(t, stdout, "DNS: 83.220.169.155, 212.109.195.93")
	assert.Contains(t, stdout, "DoH: Comss.one")
}

func TestSet_Errors(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.exec(t, "set")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "--interface is required")

	code, _, stderr = h.exec(t, "set", "--interface", "Ethernet", "--provider", "nope")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unknown DoH provider")

	code, stdout, _ := h.exec(t, "set", "--interface", "Ethernet 9", "--no-probe")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "Interface not found: Ethernet 9")
	assert.Empty(t, h.run.Lines())
}

func TestSet_DryRun(t *testing.T) {
	h := newHarness(t)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"set", "--interface", "Ethernet", "--servers", "1.1.1.1", "--doh=false", "--dry-run"},
		&stdout, &stderr, deps{enumerator: h.enum})
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), `[dry-run] netsh.exe interface ip set dns name="Ethernet" static 1.1.1.1`)
	assert.Contains(t, stdout.String(), "[dry-run] ipconfig.exe /flushdns")
}

func TestResetAndStatus(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, exitOK, first(h.exec(t, "set", "--interface", "Ethernet", "--no-probe")))

	code, stdout, _ := h.exec(t, "status", "--interface", "Ethernet")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "DoH: enabled (Comss.one)")

	code, stdout, _ = h.exec(t, "reset", "--interface", "Ethernet")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Reset to DHCP")

	code, stdout, _ = h.exec(t, "status")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Interface: Ethernet; DNS: automatic (DHCP); DoH: disabled")
	assert.Contains(t, stdout, "Interface: Wi-Fi; DNS: 192.168.1.1; DoH: disabled")

	code, stdout, _ = h.exec(t, "status", "--interface", "nope")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "Interface not found: nope")
}

func TestHistory(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.exec(t, "history")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No history.")

	h.exec(t, "set", "--interface", "Ethernet", "--no-probe")
	h.exec(t, "reset", "--interface", "missing")

	code, stdout, _ = h.exec(t, "history")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "set")
	assert.Contains(t, stdout, "Interface not found: missing")
	assert.Contains(t, stdout, "failed")

	code, stdout, _ = h.exec(t, "history", "--interface", "Ethernet")
	require.Equal(t, exitOK, code)
	assert.NotContains(t, stdout, "missing")
}

func TestHistory_Disabled(t *testing.T) {
	h := newHarness(t)
	t.Setenv("DNSSWITCH_JOURNAL_ENABLED", "false")
	code, _, stderr := h.exec(t, "history")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "journal is disabled")
}

func TestDefaultInterface(t *testing.T) {
	h := newHarness(t)

	code, stdout, _ := h.exec(t, "default")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No default interface.")

	code, stdout, _ = h.exec(t, "default", "--interface", "vEthernet")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "Interface not found: vEthernet")

	code, stdout, _ = h.exec(t, "default", "--interface", "Wi-Fi")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Default interface: Wi-Fi")

	code, stdout, _ = h.exec(t, "set", "--servers", "9.9.9.9", "--doh=false")
	require.Equal(t, exitOK, code, stdout)
	assert.Contains(t, stdout, "Interface: Wi-Fi")
	assert.Equal(t, 1, h.run.Count(`name="Wi-Fi" static 9.9.9.9`))

	code, stdout, _ = h.exec(t, "reset")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Reset to DHCP")

	code, stdout, _ = h.exec(t, "default", "--clear")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Default interface cleared")

	code, _, stderr := h.exec(t, "reset")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "--interface is required")

	code, _, _ = h.exec(t, "default", "--clear", "--interface", "Wi-Fi")
	assert.Equal(t, exitUsage, code)
}

func TestProviders(t *testing.T) {
	h := newHarness(t)
	code, stdout, _ := h.exec(t, "providers")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Comss.one")
	assert.Contains(t, stdout, "83.220.169.155,212.109.195.93")
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"1.1.1.1", []string{"1.1.1.1"}},
		{" 1.1.1.1 , ,1.0.0.1", []string{"1.1.1.1", "1.0.0.1"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in), tt.in)
	}
}

func first(code int, _, _ string) int { return code }
