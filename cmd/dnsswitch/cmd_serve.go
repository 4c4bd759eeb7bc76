package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/dnsswitch/internal/catalog"
	"github.com/HerbHall/dnsswitch/internal/dnsmanager"
	"github.com/HerbHall/dnsswitch/internal/journal"
	"github.com/HerbHall/dnsswitch/internal/server"
	"github.com/HerbHall/dnsswitch/internal/settings"
)

func runServe(ctx context.Context, a *app, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	addr := fs.String("addr", a.settings.Server.Addr, "listen address (loopback)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	logger := a.logger

	db, closeStore, err := a.openStore()
	defer closeStore()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: open store: %v\n", err)
		return exitFailure
	}
	prefs, err := settings.NewSQLiteRepository(ctx, db)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	repo, err := a.journalOn(ctx, db)
	if err != nil && !errors.Is(err, errJournalDisabled) {
		logger.Warn("journal unavailable", zap.Error(err))
	}

	opts := managerOptions{}
	if repo != nil {
		opts.journal = repo
	}
	mgr, err := a.manager(opts)
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}
	cmdRunner, err := a.execRunner()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return exitFailure
	}

	api := logger.Named("api")
	registrars := []server.RouteRegistrar{
		dnsmanager.NewHandler(mgr, api),
		catalog.NewHandler(a.catalog, api),
		settings.NewHandler(prefs, a.directory(cmdRunner), api),
	}
	if repo != nil {
		registrars = append(registrars, journal.NewHandler(repo, api))
	}
	srv := server.New(*addr, logger, a.metrics, registrars...).
		WithRateLimit(rate.Limit(a.settings.Server.RateLimit), a.settings.Server.Burst)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.Info("dnsswitch API ready", zap.String("addr", *addr))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return exitFailure
		}
		return exitOK
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return exitFailure
	}
	logger.Info("dnsswitch API stopped")
	return exitOK
}
