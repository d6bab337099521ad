package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cofferdb/coffer-go/pkg/catalog"
	"github.com/cofferdb/coffer-go/pkg/config"
	"github.com/cofferdb/coffer-go/pkg/lifecycle"
	"github.com/cofferdb/coffer-go/pkg/native"
	"github.com/cofferdb/coffer-go/pkg/store"
	"github.com/cofferdb/coffer-go/pkg/telemetry"
)

// hostRuntime bundles the wired host stack for one command invocation:
// configuration, telemetry, the engine binder, the lifecycle supervisor,
// and the optional catalog and binary watcher.
type hostRuntime struct {
	cfg    *config.Config
	tel    *telemetry.Telemetry
	logger zerolog.Logger

	binder  *native.Binder
	super   *lifecycle.Supervisor
	catalog *catalog.SQLiteCatalog
	watcher *native.Watcher

	watchCancel context.CancelFunc
}

// openRuntime loads configuration and wires the host stack. The engine
// itself is bound lazily on the first call that needs it, so commands
// that only read the catalog work without an engine binary present.
func openRuntime(ctx context.Context) (*hostRuntime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.LogLevel = "debug"
	}

	tel, err := telemetry.NewTelemetry(cfg.Telemetry.Expand())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	r := &hostRuntime{
		cfg:    cfg,
		tel:    tel,
		logger: tel.Logger.Zerolog(),
	}

	locator := native.NewLocator(native.LocatorConfig{
		ExplicitPath: cfg.Engine.Path,
		LibraryDir:   cfg.Engine.LibraryDir,
	}, r.logger)
	r.binder = native.NewBinder(locator, &native.LibraryConfig{
		CallTimeout: cfg.Engine.CallTimeout.Std(),
	}, r.logger)

	var sink lifecycle.EventSink
	if cfg.Catalog.Enabled {
		cat, err := openCatalog(ctx, cfg)
		if err != nil {
			r.Close(ctx)
			return nil, err
		}
		r.catalog = cat
		sink = cat
	}

	r.super = lifecycle.NewSupervisor(r.binder, lifecycle.SupervisorConfig{
		DataDir:       cfg.DataDir,
		MaxAttempts:   cfg.Lifecycle.MaxAttempts,
		RetryInterval: cfg.Lifecycle.RetryInterval.Std(),
		Pool:          lifecycle.InitShared(cfg.Lifecycle.StalenessWindow.Std()),
		Metrics:       tel.Metrics,
		Events:        tel.Events,
		Sink:          sink,
	}, r.logger)

	if cfg.Engine.Watch {
		r.startWatcher(ctx)
	}
	return r, nil
}

func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.SQLiteCatalog, error) {
	cat, err := catalog.New(catalog.Config{Path: cfg.CatalogPath()})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := cat.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}
	if err := cat.Migrate(ctx); err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return cat, nil
}

// openStore attaches the operation facade for the --database flag; an
// empty flag adopts the most recently used name.
func (r *hostRuntime) openStore() (*store.Store, error) {
	return store.Attach(r.super, databaseName,
		store.WithLogger(r.logger),
		store.WithTelemetry(r.tel),
	)
}

// startWatcher invalidates the engine binding when the binary is replaced
// on disk, so the next operation rebinds against the new build. Watch
// failures degrade to a warning; the stack keeps working without it.
func (r *hostRuntime) startWatcher(ctx context.Context) {
	path := r.cfg.Engine.Path
	if path == "" {
		path = filepath.Join(r.cfg.Engine.LibraryDir, native.DefaultBinaryName)
	}

	w, err := native.NewWatcher(r.logger)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Engine watch disabled")
		return
	}

	wctx, cancel := context.WithCancel(ctx)
	onSwap := func() {
		r.super.InvalidateBinding(context.Background(), "engine binary replaced")
		r.tel.Metrics.RecordBinarySwap()
		if err := r.tel.Events.PublishEngineSwapped(path); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to publish engine swap event")
		}
	}
	if err := w.Watch(wctx, path, onSwap); err != nil {
		cancel()
		r.logger.Warn().Err(err).Str("path", path).Msg("Engine watch disabled")
		return
	}
	r.watcher = w
	r.watchCancel = cancel
}

// Close tears the stack down in reverse order of construction. Teardown
// keeps going past individual failures; the first one is returned.
func (r *hostRuntime) Close(ctx context.Context) error {
	var firstErr error

	if r.watchCancel != nil {
		r.watchCancel()
	}
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to stop engine watcher")
		}
	}
	if r.super != nil {
		if err := r.super.Shutdown(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("Supervisor shutdown failed")
			firstErr = err
		}
	}
	if r.catalog != nil {
		if err := r.catalog.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close catalog")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if r.tel != nil {
		if err := r.tel.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
