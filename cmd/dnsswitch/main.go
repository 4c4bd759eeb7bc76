// Command dnsswitch points a network interface at static DNS resolvers with
// DNS-over-HTTPS, or returns it to DHCP-assigned resolvers.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: dnsswitch [--config FILE] [--debug] <command> [flags]

Commands:
  list       list interfaces that can be configured
  set        set static resolvers and DoH on an interface
  reset      return an interface to DHCP-assigned resolvers
  status     show resolvers and DoH state
  default    show or save the interface used when --interface is omitted
  providers  list known DoH providers
  probe      check that a DoH endpoint answers
  history    show past set/reset runs
  serve      run the local control API
  version    print version information

Run "dnsswitch <command> -h" for command flags.
`

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type command func(ctx context.Context, a *app, args []string) int

var commands = map[string]command{
	"list":      runList,
	"set":       runSet,
	"reset":     runReset,
	"status":    runStatus,
	"default":   runDefault,
	"providers": runProviders,
	"probe":     runProbe,
	"history":   runHistory,
	"serve":     runServe,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, deps{})
	stop()
	os.Exit(code)
}

// run parses global flags and dispatches to a command. d overrides system
// collaborators.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, d deps) int {
	fs := flag.NewFlagSet("dnsswitch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to configuration file")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}
	name, cmdArgs := rest[0], rest[1:]

	if name == "version" {
		return runVersion(stdout)
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		fs.Usage()
		return exitUsage
	}

	a, err := newApp(*configPath, *debug, stdout, stderr, d)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	defer func() { _ = a.logger.Sync() }()

	return cmd(ctx, a, cmdArgs)
}
