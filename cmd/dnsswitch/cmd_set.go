package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
)

const errNoInterface = `error: --interface is required (or save one with "dnsswitch default --interface NAME")`

func runSet(ctx context.Context, a *app, args []string) int {
	s := a.settings
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	iface := fs.String("interface", "", "interface display name (default: the saved default interface)")
	servers := fs.String("servers", strings.Join(s.DNS.Servers, ","), "comma-separated resolver addresses, at most two are used")
	provider := fs.String("provider", "", "take servers and template from a known provider")
	template := fs.String("template", s.DNS.Template, "DoH URI template")
	doh := fs.Bool("doh", s.DNS.EnableDoh, "enable DNS-over-HTTPS")
	noProbe := fs.Bool("no-probe", false, "skip the DoH reachability probe")
	dryRun := fs.Bool("dry-run", false, "print commands instead of running them and use a scratch store")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	name := a.interfaceOrDefault(ctx, *iface)
	if name == "" {
		fmt.Fprintln(a.stderr, errNoInterface)
		fs.Usage()
		return exitUsage
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	list := splitList(*servers)
	tmpl := *template
	if *provider != "" {
		p, err := a.catalog.Lookup(*provider)
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitUsage
		}
		if !explicit["servers"] {
			list = p.Servers
		}
		if !explicit["template"] {
			tmpl = p.Template
		}
	}

	rec, closeJournal := a.recorder(ctx, *dryRun)
	defer closeJournal()

	mgr, err := a.manager(managerOptions{
		dryRun:  *dryRun,
		noProbe: *noProbe,
		status:  a.printStatus,
		journal: rec,
	})
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	if !mgr.SetDNS(ctx, name, list, *doh, tmpl) {
		return exitFailure
	}
	return exitOK
}

func runReset(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	iface := fs.String("interface", "", "interface display name (default: the saved default interface)")
	dryRun := fs.Bool("dry-run", false, "print commands instead of running them and use a scratch store")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	name := a.interfaceOrDefault(ctx, *iface)
	if name == "" {
		fmt.Fprintln(a.stderr, errNoInterface)
		fs.Usage()
		return exitUsage
	}

	rec, closeJournal := a.recorder(ctx, *dryRun)
	defer closeJournal()

	mgr, err := a.manager(managerOptions{dryRun: *dryRun, status: a.printStatus, journal: rec})
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	if !mgr.ResetDNS(ctx, name) {
		return exitFailure
	}
	return exitOK
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
