package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
)

func runProviders(_ context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("providers", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	providers, err := a.catalog.Providers()
	if err != nil {
		fmt.Fprintf(a.stderr, "load providers: %v\n", err)
		return exitFailure
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSERVERS\tTEMPLATE")
	for _, p := range providers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, strings.Join(p.Servers, ","), p.Template)
	}
	if err := tw.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}

func runProbe(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	template := fs.String("template", a.settings.DNS.Template, "DoH URI template to check")
	provider := fs.String("provider", "", "check a known provider's template")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	tmpl := *template
	if *provider != "" {
		p, err := a.catalog.Lookup(*provider)
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitUsage
		}
		tmpl = p.Template
	}

	p, err := a.prober()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	if err := p.Check(ctx, tmpl); err != nil {
		fmt.Fprintf(a.stdout, "%s: unreachable (%v)\n", tmpl, err)
		return exitFailure
	}
	fmt.Fprintf(a.stdout, "%s: ok\n", tmpl)
	return exitOK
}
