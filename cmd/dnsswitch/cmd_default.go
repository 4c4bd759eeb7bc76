package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/settings"
)

// runDefault shows, saves or clears the default interface.
func runDefault(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("default", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	iface := fs.String("interface", "", "interface to save as the default")
	forget := fs.Bool("clear", false, "forget the saved default")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *forget && *iface != "" {
		fmt.Fprintln(a.stderr, "error: --clear and --interface are mutually exclusive")
		return exitUsage
	}

	repo, closeStore, err := a.openSettings(ctx)
	defer closeStore()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}

	switch {
	case *forget:
		if err := repo.Delete(ctx, settings.KeyDefaultInterface); err != nil && !errors.Is(err, settings.ErrNotFound) {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitFailure
		}
		fmt.Fprintln(a.stdout, "Default interface cleared")
		return exitOK

	case *iface != "":
		cmdRunner, err := a.execRunner()
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitFailure
		}
		ifc, err := a.directory(cmdRunner).Resolve(ctx, *iface)
		if errors.Is(err, netif.ErrInterfaceNotFound) {
			fmt.Fprintf(a.stdout, "Interface not found: %s\n", *iface)
			return exitFailure
		}
		if err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitFailure
		}
		if err := repo.Set(ctx, settings.KeyDefaultInterface, ifc.Name); err != nil {
			fmt.Fprintf(a.stderr, "error: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(a.stdout, "Default interface: %s\n", ifc.Name)
		return exitOK
	}

	name, err := settings.DefaultInterface(ctx, repo)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	if name == "" {
		fmt.Fprintln(a.stdout, "No default interface.")
		return exitOK
	}
	fmt.Fprintf(a.stdout, "Default interface: %s\n", name)
	return exitOK
}
