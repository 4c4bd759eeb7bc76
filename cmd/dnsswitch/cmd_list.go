package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/HerbHall/dnsswitch/internal/netif"
)

func runList(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	run, err := a.execRunner()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	ifaces, err := a.directory(run).ListActive(ctx)
	if err != nil {
		fmt.Fprintf(a.stderr, "list interfaces: %v\n", err)
		return exitFailure
	}

	if *asJSON {
		if ifaces == nil {
			ifaces = []netif.Interface{}
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ifaces); err != nil {
			fmt.Fprintf(a.stderr, "encode: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	if len(ifaces) == 0 {
		fmt.Fprintln(a.stdout, "No active interfaces.")
		return exitOK
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMEDIA\tMAC\tDNS\tDESCRIPTION")
	for _, i := range ifaces {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", i.Name, i.Media, dash(i.MAC()), dash(joinAddrs(i)), i.Description)
	}
	if err := tw.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}

func joinAddrs(i netif.Interface) string {
	parts := make([]string, len(i.DNSServers))
	for n, a := range i.DNSServers {
		parts[n] = a.String()
	}
	return strings.Join(parts, ",")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
