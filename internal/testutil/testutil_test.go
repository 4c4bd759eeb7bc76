package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/runner"
)

func TestLogger_NotNil(t *testing.T) {
	if Logger() == nil {
		t.Fatal("expected non-nil logger")
	}
	TestLogger(t).Debug("visible only on failure")
}

func TestNewStore_Usable(t *testing.T) {
	db := NewStore(t)
	if err := db.DB().PingContext(context.Background()); err != nil {
		t.Fatalf("PingContext: %v", err)
	}
	if NewJournal(t) == nil {
		t.Fatal("expected non-nil journal")
	}
}

func TestFakeRunner_RecordsAndScripts(t *testing.T) {
	f := NewFakeRunner().
		On("ipconfig", &runner.Result{Stdout: "flushed"}, nil).
		FailOn("arpcache", 1, "access denied")

	ctx := context.Background()
	res, err := f.Run(ctx, runner.Command{Name: "ipconfig.exe", Args: []string{"/flushdns"}})
	if err != nil || res.Stdout != "flushed" {
		t.Fatalf("ipconfig = %+v, %v", res, err)
	}
	_, err = f.Run(ctx, runner.Command{Name: "netsh.exe", Args: []string{"interface", "ip", "delete", "arpcache"}})
	var cmdErr *runner.ExternalCommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode != 1 {
		t.Fatalf("arpcache error = %v", err)
	}
	if _, err := f.Run(ctx, runner.Command{Name: "other"}); err != nil {
		t.Fatalf("unmatched command failed: %v", err)
	}

	if got := len(f.Commands()); got != 3 {
		t.Errorf("Commands len = %d, want 3", got)
	}
	if f.Count("netsh.exe") != 1 {
		t.Errorf("Count(netsh.exe) = %d, want 1", f.Count("netsh.exe"))
	}
	f.Reset()
	if len(f.Lines()) != 0 {
		t.Error("expected no commands after Reset")
	}
}

func TestFakeRunner_CancelledContext(t *testing.T) {
	f := NewFakeRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Run(ctx, runner.Command{Name: "ipconfig.exe", Args: []string{"/flushdns"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := f.Count("flushdns"); got != 1 {
		t.Errorf("cancelled command recorded %d times, want 1", got)
	}
}

func TestClock_Steps(t *testing.T) {
	c := NewClock(time.Time{}, time.Second)
	a, b := c.Now(), c.Now()
	if b.Sub(a) != time.Second {
		t.Errorf("step = %v, want 1s", b.Sub(a))
	}
	c.Advance(time.Minute)
	if got := c.Now().Sub(b); got != time.Minute+time.Second {
		t.Errorf("after Advance: %v", got)
	}
}

func TestNewInterface_WithOptions(t *testing.T) {
	i := NewInterface(WithName("Wi-Fi"), WithMedia(netif.MediaWireless), WithDNS("1.1.1.1"), Down())
	if i.Name != "Wi-Fi" || i.Media != netif.MediaWireless || i.Up {
		t.Errorf("unexpected interface %+v", i)
	}
	if len(i.DNSServers) != 1 || i.DNSServers[0].String() != "1.1.1.1" {
		t.Errorf("DNSServers = %v", i.DNSServers)
	}
}

func TestFakeEnumerator_SetDNS(t *testing.T) {
	e := NewFakeEnumerator(NewInterface())
	e.SetDNS("Ethernet", "9.9.9.9")
	got, _ := e.Interfaces(context.Background())
	if len(got[0].DNSServers) != 1 || got[0].DNSServers[0].String() != "9.9.9.9" {
		t.Errorf("DNSServers = %v", got[0].DNSServers)
	}
}

func TestStatusRecorder(t *testing.T) {
	var s StatusRecorder
	fn := s.Func()
	fn("Interface: Ethernet")
	fn("Done")
	if s.Last() != "Done" || !s.Contains("Ethernet") || len(s.Messages()) != 2 {
		t.Errorf("messages = %v", s.Messages())
	}
}
