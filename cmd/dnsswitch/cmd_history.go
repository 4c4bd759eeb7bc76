package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/HerbHall/dnsswitch/internal/journal"
)

func runHistory(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	iface := fs.String("interface", "", "only show runs for this interface")
	limit := fs.Int("limit", 20, "maximum entries to show")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	repo, closeJournal, err := a.openJournal(ctx)
	defer closeJournal()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}

	entries, err := repo.List(ctx, journal.ListOptions{Interface: *iface, Limit: *limit})
	if err != nil {
		fmt.Fprintf(a.stderr, "read history: %v\n", err)
		return exitFailure
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "No history.")
		return exitOK
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tOPERATION\tINTERFACE\tRESULT\tDURATION\tMESSAGE")
	for _, e := range entries {
		result := "ok"
		if !e.Success {
			result = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.StartedAt.Local().Format(time.DateTime), e.Operation, e.Interface, result,
			e.Duration().Round(time.Millisecond), e.Message)
	}
	if err := tw.Flush(); err != nil {
		return exitFailure
	}
	return exitOK
}
