package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/dnsswitch/internal/catalog"
	"github.com/HerbHall/dnsswitch/internal/config"
	"github.com/HerbHall/dnsswitch/internal/dnsmanager"
	"github.com/HerbHall/dnsswitch/internal/dohstore"
	"github.com/HerbHall/dnsswitch/internal/journal"
	"github.com/HerbHall/dnsswitch/internal/metrics"
	"github.com/HerbHall/dnsswitch/internal/netif"
	"github.com/HerbHall/dnsswitch/internal/probe"
	"github.com/HerbHall/dnsswitch/internal/profile"
	"github.com/HerbHall/dnsswitch/internal/regstore"
	"github.com/HerbHall/dnsswitch/internal/runner"
	"github.com/HerbHall/dnsswitch/internal/settings"
	"github.com/HerbHall/dnsswitch/internal/store"
	"github.com/HerbHall/dnsswitch/internal/writer"
	pkgcatalog "github.com/HerbHall/dnsswitch/pkg/catalog"
)

// deps replaces system collaborators. Nil fields use the real OS.
type deps struct {
	enumerator netif.Enumerator
	registry   regstore.Registry
	runner     runner.Runner
}

// app carries what every command needs.
type app struct {
	settings *config.Settings
	logger   *zap.Logger
	metrics  *metrics.Metrics
	catalog  *catalog.Engine
	stdout   io.Writer
	stderr   io.Writer
	deps     deps
}

func newApp(configPath string, debug bool, stdout, stderr io.Writer, d deps) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	s, err := cfg.Settings()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(s.Log.Level, debug)
	if err != nil {
		return nil, err
	}
	return &app{
		settings: s,
		logger:   logger,
		metrics:  metrics.New(),
		catalog:  catalog.NewEngine(pkgcatalog.NewCatalog()),
		stdout:   stdout,
		stderr:   stderr,
		deps:     d,
	}, nil
}

// newLogger builds a production logger at level, or a development logger
// when debug is set.
func newLogger(level string, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// execRunner returns the runner that really executes commands.
func (a *app) execRunner() (runner.Runner, error) {
	if a.deps.runner != nil {
		return a.deps.runner, nil
	}
	benign := append(slices.Clone(runner.DefaultBenignPatterns), a.settings.Runner.BenignPatterns...)
	return runner.New(a.settings.Runner.Mode, a.logger.Named("runner"),
		runner.WithBenignPatterns(benign),
		runner.WithTimeout(a.settings.Runner.Timeout),
		runner.WithMetrics(a.metrics),
	)
}

func (a *app) registry(dryRun bool) regstore.Registry {
	switch {
	case a.deps.registry != nil:
		return a.deps.registry
	case dryRun:
		return regstore.NewMemory()
	default:
		return regstore.NewSystem()
	}
}

func (a *app) directory(run runner.Runner) *netif.Directory {
	enum := a.deps.enumerator
	if enum == nil {
		enum = netif.NewSystemEnumerator(a.logger.Named("netif"), run)
	}
	return netif.NewDirectory(enum, a.logger.Named("netif"))
}

// managerOptions select per-invocation behavior.
type managerOptions struct {
	dryRun  bool
	noProbe bool
	status  dnsmanager.StatusFunc
	journal journal.Recorder
}

// manager wires a Manager from settings.
func (a *app) manager(opts managerOptions) (*dnsmanager.Manager, error) {
	s := a.settings

	run, err := a.execRunner()
	if err != nil {
		return nil, err
	}
	writeRun := run
	if opts.dryRun {
		writeRun = &printRunner{w: a.stdout}
	}
	reg := a.registry(opts.dryRun)

	kind, err := dohstore.ParseKind(s.Doh.Store)
	if err != nil {
		return nil, err
	}
	st, err := dohstore.New(kind, reg, a.logger.Named("dohstore"))
	if err != nil {
		return nil, err
	}

	var finder writer.ProfileFinder
	if kind == dohstore.KindProfile {
		matchers, err := profile.MatchersFor(s.Profile.Strategy, s.Profile.Keywords, s.Profile.KnownNetworks)
		if err != nil {
			return nil, err
		}
		finder, err = profile.NewResolver(profile.NewRegistrySource(reg, a.logger.Named("profile")), matchers, a.logger.Named("profile"))
		if err != nil {
			return nil, err
		}
	}

	netshKey, err := writer.ParseInterfaceKey(s.Netsh.InterfaceKey)
	if err != nil {
		return nil, err
	}
	storeKey, err := writer.ParseInterfaceKey(s.Doh.InterfaceKey)
	if err != nil {
		return nil, err
	}
	w, err := writer.New(writer.Options{
		Runner:   writeRun,
		Store:    st,
		Profiles: finder,
		NetshKey: netshKey,
		StoreKey: storeKey,
		Logger:   a.logger.Named("writer"),
	})
	if err != nil {
		return nil, err
	}

	mo := dnsmanager.Options{
		Directory:       a.directory(run),
		Writer:          w,
		Labeler:         a.catalog,
		Journal:         opts.journal,
		Metrics:         a.metrics,
		Status:          opts.status,
		Logger:          a.logger.Named("dnsmanager"),
		RegisterServers: s.Doh.RegisterServers,
	}
	if s.Probe.Enabled && !opts.noProbe {
		p, err := a.prober()
		if err != nil {
			return nil, err
		}
		mo.Prober = p
	}
	return dnsmanager.New(mo)
}

func (a *app) prober() (*probe.Prober, error) {
	return probe.New(a.logger.Named("probe"),
		probe.WithTimeout(a.settings.Probe.Timeout),
		probe.WithUserAgent(a.settings.Probe.UserAgent),
		probe.WithMetrics(a.metrics),
	)
}

// storePath is the configured store location or one under the user's
// config directory.
func (a *app) storePath() (string, error) {
	if a.settings.Store.Path != "" {
		return a.settings.Store.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "dnsswitch", "dnsswitch.db"), nil
}

// openStore opens the SQLite store shared by the journal and saved
// settings. The returned close func is never nil.
func (a *app) openStore() (*store.SQLiteStore, func(), error) {
	path, err := a.storePath()
	if err != nil {
		return nil, func() {}, err
	}
	db, err := store.New(path)
	if err != nil {
		return nil, func() {}, err
	}
	a.logger.Debug("store opened", zap.String("path", db.Path()))
	return db, func() {
		if err := db.Close(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
	}, nil
}

// errJournalDisabled is returned when journal.enabled is off.
var errJournalDisabled = errors.New("journal is disabled")

func (a *app) journalOn(ctx context.Context, db *store.SQLiteStore) (*journal.Repository, error) {
	if !a.settings.Journal.Enabled {
		return nil, errJournalDisabled
	}
	return journal.NewRepository(ctx, db)
}

// openJournal opens the store and its journal.
func (a *app) openJournal(ctx context.Context) (*journal.Repository, func(), error) {
	if !a.settings.Journal.Enabled {
		return nil, func() {}, errJournalDisabled
	}
	db, closeDB, err := a.openStore()
	if err != nil {
		return nil, closeDB, err
	}
	repo, err := a.journalOn(ctx, db)
	if err != nil {
		closeDB()
		return nil, func() {}, err
	}
	return repo, closeDB, nil
}

// openSettings opens the store and its settings table.
func (a *app) openSettings(ctx context.Context) (*settings.SQLiteRepository, func(), error) {
	db, closeDB, err := a.openStore()
	if err != nil {
		return nil, closeDB, err
	}
	repo, err := settings.NewSQLiteRepository(ctx, db)
	if err != nil {
		closeDB()
		return nil, func() {}, err
	}
	return repo, closeDB, nil
}

// interfaceOrDefault returns name, or the saved default interface when name
// is empty. A store failure is logged and treated as no default.
func (a *app) interfaceOrDefault(ctx context.Context, name string) string {
	if name != "" {
		return name
	}
	repo, closeFn, err := a.openSettings(ctx)
	defer closeFn()
	if err != nil {
		a.logger.Warn("settings unavailable", zap.Error(err))
		return ""
	}
	saved, err := settings.DefaultInterface(ctx, repo)
	if err != nil {
		a.logger.Warn("read default interface", zap.Error(err))
		return ""
	}
	return saved
}

// recorder opens the journal for a workflow command. Failures are logged
// and the workflow runs unjournaled.
func (a *app) recorder(ctx context.Context, dryRun bool) (journal.Recorder, func()) {
	if dryRun {
		return nil, func() {}
	}
	repo, closeFn, err := a.openJournal(ctx)
	if err != nil {
		if !errors.Is(err, errJournalDisabled) {
			a.logger.Warn("journal unavailable", zap.Error(err))
		}
		return nil, closeFn
	}
	return repo, closeFn
}

// printStatus writes each status message on its own line.
func (a *app) printStatus(msg string) {
	fmt.Fprintln(a.stdout, msg)
}
