package native

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// Binder couples a Locator with library instantiation so the lifecycle
// layer can rebuild the entry table on demand. Every Bind yields a fresh
// instance; any prior one is closed first, because entries from different
// instances must never mix.
type Binder struct {
	mu      sync.Mutex
	locator *Locator
	cfg     *LibraryConfig
	logger  zerolog.Logger
	lib     *Library
}

// NewBinder creates a binder over the given locator and library config.
func NewBinder(locator *Locator, cfg *LibraryConfig, logger zerolog.Logger) *Binder {
	return &Binder{
		locator: locator,
		cfg:     cfg,
		logger:  logger.With().Str("component", "binder").Logger(),
	}
}

// Bind loads the engine binary and binds its entry table. A previously
// bound instance is closed before the new one is opened.
func (b *Binder) Bind(ctx context.Context) (engine.Engine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lib != nil {
		if err := b.lib.Close(ctx); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to close superseded engine instance")
		}
		b.lib = nil
	}

	lib, err := Load(ctx, b.locator, b.cfg, b.logger)
	if err != nil {
		return nil, err
	}
	b.lib = lib
	return lib.Table(), nil
}

// Close releases the current library instance, if any.
func (b *Binder) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lib == nil {
		return nil
	}
	err := b.lib.Close(ctx)
	b.lib = nil
	return err
}

// Image returns the image of the currently bound instance.
func (b *Binder) Image() (Image, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lib == nil {
		return Image{}, false
	}
	return b.lib.Image(), true
}
