package native

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// hostModuleName is the import namespace the engine uses for host entries.
const hostModuleName = "coffer_host"

const (
	// DefaultCallTimeout bounds one foreign call.
	DefaultCallTimeout = 30 * time.Second

	// DefaultMemoryLimitPages caps engine memory in 64KB pages (16MB).
	DefaultMemoryLimitPages = 256
)

// LibraryConfig contains configuration for one loaded engine instance.
type LibraryConfig struct {
	// CallTimeout is the upper bound for a single foreign call.
	CallTimeout time.Duration

	// MemoryLimitPages is the maximum engine memory in pages (64KB each).
	MemoryLimitPages uint32
}

// Library is one loaded engine instance: runtime, instantiated module, and
// the bound entry table. Instances are independent; closing one never
// affects another.
type Library struct {
	image   Image
	runtime wazero.Runtime
	module  api.Module
	table   *Table
	logger  zerolog.Logger
}

// Load resolves the engine binary through the locator and opens it. Every
// call yields a new Library; callers must discard entry tables bound to an
// earlier instance rather than mix old and new.
func Load(ctx context.Context, locator *Locator, cfg *LibraryConfig, logger zerolog.Logger) (*Library, error) {
	image, err := locator.Locate()
	if err != nil {
		return nil, err
	}
	return OpenLibrary(ctx, *image, cfg, logger)
}

// OpenLibrary instantiates an already-resolved engine image and binds its
// entry table. Errors during runtime or module setup are load-classed;
// missing required entries are binding-classed.
func OpenLibrary(ctx context.Context, image Image, cfg *LibraryConfig, logger zerolog.Logger) (*Library, error) {
	if cfg == nil {
		cfg = &LibraryConfig{}
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MemoryLimitPages == 0 {
		cfg.MemoryLimitPages = DefaultMemoryLimitPages
	}

	logger = logger.With().Str("component", "native-library").Logger()

	runtimeConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(cfg.MemoryLimitPages).
		WithCloseOnContextDone(true)

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, engine.NewLoadError("failed to instantiate WASI", err)
	}

	builder := runtime.NewHostModuleBuilder(hostModuleName)
	registerHostEntries(builder, logger)
	if _, err := builder.Instantiate(ctx); err != nil {
		runtime.Close(ctx)
		return nil, engine.NewLoadError("failed to instantiate host module", err)
	}

	// Engine builds are reactor modules: _initialize sets up their runtime
	// and the host drives the exported entries afterwards. A command-style
	// module would exit during instantiation and take its exports with it.
	moduleConfig := wazero.NewModuleConfig().
		WithStartFunctions("_initialize")

	module, err := runtime.InstantiateWithConfig(ctx, image.Bytes, moduleConfig)
	if err != nil {
		runtime.Close(ctx)
		return nil, engine.NewLoadError("failed to instantiate engine module", err)
	}

	table, err := NewTable(module, cfg.CallTimeout, logger)
	if err != nil {
		module.Close(ctx)
		runtime.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("source", image.Source).
		Str("path", image.Path).
		Msg("Engine library loaded")

	return &Library{
		image:   image,
		runtime: runtime,
		module:  module,
		table:   table,
		logger:  logger,
	}, nil
}

// registerHostEntries registers the host functions the engine may import.
func registerHostEntries(builder wazero.HostModuleBuilder, logger zerolog.Logger) {
	// host_log routes engine diagnostics into the host's structured log.
	builder.NewFunctionBuilder().
		WithFunc(func(ctx context.Context, mod api.Module, level, ptr, length uint32) {
			msg, ok := mod.Memory().Read(ptr, length)
			if !ok {
				logger.Warn().Msg("Engine log message was unreadable")
				return
			}

			event := logger.Debug()
			switch level {
			case 1:
				event = logger.Info()
			case 2:
				event = logger.Warn()
			case 3:
				event = logger.Error()
			}
			event.Str("origin", "engine").Msg(string(msg))
		}).
		Export("host_log")
}

// Table returns the bound entry table. It implements engine.Engine.
func (l *Library) Table() *Table {
	return l.table
}

// Image returns the provenance of the loaded binary.
func (l *Library) Image() Image {
	return l.image
}

// Close tears down the module and the runtime. The entry table must not be
// used afterwards.
func (l *Library) Close(ctx context.Context) error {
	if l.module != nil {
		if err := l.module.Close(ctx); err != nil {
			return engine.NewLoadError("failed to close engine module", err)
		}
		l.module = nil
	}

	if l.runtime != nil {
		if err := l.runtime.Close(ctx); err != nil {
			return engine.NewLoadError("failed to close engine runtime", err)
		}
		l.runtime = nil
	}

	l.logger.Debug().Msg("Engine library closed")
	return nil
}
