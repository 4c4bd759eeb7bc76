package writer

import (
	"fmt"
	"strings"

	"github.com/HerbHall/dnsswitch/internal/runner"
)

// Executables invoked by the writer.
const (
	netshExe      = "netsh.exe"
	netExe        = "net.exe"
	ipconfigExe   = "ipconfig.exe"
	powershellExe = "powershell.exe"
)

// MaxServers is the number of resolver addresses applied per interface.
const MaxServers = 2

func netsh(args ...string) runner.Command {
	return runner.Command{Name: netshExe, Args: args, Encoding: runner.EncodingOEM866}
}

func nameArg(name string) string {
	return `name="` + name + `"`
}

// resetCommand switches the interface's resolver source to DHCP.
func resetCommand(name string) runner.Command {
	return netsh("interface", "ip", "set", "dns", nameArg(name), "source=dhcp")
}

// setStaticCommand makes server the sole static resolver.
func setStaticCommand(name, server string) runner.Command {
	return netsh("interface", "ip", "set", "dns", nameArg(name), "static", server)
}

// addServerCommand appends server at the given 1-based position.
func addServerCommand(name, server string, index int) runner.Command {
	return netsh("interface", "ip", "add", "dns", nameArg(name), server, fmt.Sprintf("index=%d", index))
}

func restartResolverCommands() []runner.Command {
	return []runner.Command{
		{Name: netExe, Args: []string{"stop", "dnscache"}, Encoding: runner.EncodingOEM866},
		{Name: netExe, Args: []string{"start", "dnscache"}, Encoding: runner.EncodingOEM866},
	}
}

func flushCommand() runner.Command {
	return runner.Command{Name: ipconfigExe, Args: []string{"/flushdns"}, Encoding: runner.EncodingOEM866}
}

func neighborCacheCommand() runner.Command {
	return netsh("interface", "ip", "delete", "arpcache")
}

// registerServerScript registers server with the OS DoH server table,
// updating an existing entry in place. The script avoids double quotes so
// it survives Windows command-line quoting intact.
func registerServerScript(server, template string) string {
	t := strings.ReplaceAll(template, "'", "''")
	flags := "-AllowFallbackToUdp $false -AutoUpgrade $true"
	return fmt.Sprintf(
		"$s='%s'; $t='%s'; "+
			"if (Get-DnsClientDohServerAddress -ServerAddress $s -ErrorAction SilentlyContinue) "+
			"{ Set-DnsClientDohServerAddress -ServerAddress $s -DohTemplate $t %s } "+
			"else { Add-DnsClientDohServerAddress -ServerAddress $s -DohTemplate $t %s }",
		server, t, flags, flags,
	)
}

func powershell(script string) runner.Command {
	return runner.Command{
		Name:     powershellExe,
		Args:     []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", script},
		Encoding: runner.EncodingUTF8,
	}
}
