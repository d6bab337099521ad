package native

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// swapDebounce coalesces the event burst a binary replacement produces
// into one notification.
const swapDebounce = 500 * time.Millisecond

// Watcher observes one engine binary on disk and reports when it is
// replaced, so the lifecycle layer can mark the loaded library superseded
// and rebuild its table on the next validation pass.
type Watcher struct {
	logger   zerolog.Logger
	fsw      *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher creates a watcher. Call Watch to start observing a path and
// Stop to release the underlying file descriptor.
func NewWatcher(logger zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		logger:   logger.With().Str("component", "native-watcher").Logger(),
		fsw:      fsw,
		debounce: swapDebounce,
	}, nil
}

// Watch starts observing binaryPath and invokes onSwap after each debounced
// replacement. The containing directory is watched rather than the file
// itself, because a swap is usually a rename-then-create that would drop a
// file-level watch. Watch returns immediately; events are processed until
// ctx is done or Stop is called.
func (w *Watcher) Watch(ctx context.Context, binaryPath string, onSwap func()) error {
	dir := filepath.Dir(binaryPath)
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go w.processEvents(ctx, filepath.Base(binaryPath), onSwap)

	w.logger.Info().Str("path", binaryPath).Msg("Watching engine binary")
	return nil
}

// processEvents filters directory events down to the watched binary and
// debounces them into onSwap calls.
func (w *Watcher) processEvents(ctx context.Context, base string, onSwap func()) {
	var swapTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Engine binary changed")

			if swapTimer != nil {
				swapTimer.Stop()
			}
			swapTimer = time.AfterFunc(w.debounce, func() {
				w.logger.Info().Str("file", base).Msg("Engine binary swapped")
				onSwap()
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// Stop stops watching and releases the watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}
