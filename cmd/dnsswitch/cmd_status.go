package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
)

func runStatus(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	iface := fs.String("interface", "", "interface display name (default: every active interface)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	mgr, err := a.manager(managerOptions{noProbe: true})
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}

	names := []string{*iface}
	if *iface == "" {
		ifaces, err := mgr.ListActiveInterfaces(ctx)
		if err != nil {
			fmt.Fprintf(a.stderr, "list interfaces: %v\n", err)
			return exitFailure
		}
		names = names[:0]
		for _, i := range ifaces {
			names = append(names, i.Name)
		}
	}

	code := exitOK
	for _, name := range names {
		line := mgr.GetStatus(ctx, name)
		fmt.Fprintln(a.stdout, line)
		if strings.HasPrefix(line, "Error: ") || strings.HasPrefix(line, "Interface not found: ") {
			code = exitFailure
		}
	}
	return code
}
