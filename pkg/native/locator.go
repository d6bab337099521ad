package native

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// DefaultBinaryName is the unqualified engine binary name searched first.
const DefaultBinaryName = "coffer_engine.wasm"

// Image is one resolved engine binary ready for instantiation.
type Image struct {
	// Bytes is the wasm binary.
	Bytes []byte

	// Path is the on-disk location the image came from. Empty for the
	// resident image.
	Path string

	// Source names the strategy that produced the image: "explicit",
	// "search", or "resident".
	Source string
}

// LocatorConfig controls where the engine binary is looked for.
type LocatorConfig struct {
	// ExplicitPath, when set, is tried before any search strategy.
	ExplicitPath string

	// LibraryDir is the directory searched for the default and
	// architecture-qualified binary names. When empty, the executable's
	// directory and then the working directory are searched instead.
	LibraryDir string
}

// Locator resolves the engine binary for the running platform.
type Locator struct {
	cfg    LocatorConfig
	logger zerolog.Logger
}

// NewLocator creates a locator with the given search configuration.
func NewLocator(cfg LocatorConfig, logger zerolog.Logger) *Locator {
	return &Locator{
		cfg:    cfg,
		logger: logger.With().Str("component", "native-locator").Logger(),
	}
}

// Locate tries each strategy in order and returns the first image found:
// the explicit path, then each candidate name across the search
// directories, then the registered resident image. Exhausting all of them
// returns a load-classed error carrying every attempted name.
func (l *Locator) Locate() (*Image, error) {
	var attempted []string

	if l.cfg.ExplicitPath != "" {
		if img := l.readImage(l.cfg.ExplicitPath, "explicit"); img != nil {
			return img, nil
		}
		attempted = append(attempted, l.cfg.ExplicitPath)
	}

	dirs := l.searchDirs()
	for _, name := range candidateNames() {
		for _, dir := range dirs {
			path := filepath.Join(dir, name)
			if img := l.readImage(path, "search"); img != nil {
				return img, nil
			}
			attempted = append(attempted, path)
		}
	}

	if img, label, ok := residentImage(); ok {
		l.logger.Debug().Str("label", label).Msg("Using resident engine image")
		return &Image{Bytes: img, Source: "resident"}, nil
	}
	attempted = append(attempted, "<resident image>")

	return nil, engine.NewLoadError("engine binary not found", nil).
		WithAttempted(attempted)
}

// readImage reads one candidate path; a failure of any kind is a miss.
func (l *Locator) readImage(path, source string) *Image {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return nil
	}
	l.logger.Debug().Str("path", path).Str("source", source).Msg("Engine binary resolved")
	return &Image{Bytes: data, Path: path, Source: source}
}

// searchDirs returns the directories scanned for candidate names.
func (l *Locator) searchDirs() []string {
	if l.cfg.LibraryDir != "" {
		return []string{l.cfg.LibraryDir}
	}

	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	dirs = append(dirs, ".")
	return dirs
}

// candidateNames lists the binary names tried in each directory, the
// unqualified default first, then architecture-qualified variants.
func candidateNames() []string {
	return []string{
		DefaultBinaryName,
		fmt.Sprintf("coffer_engine-%s-%s.wasm", runtime.GOOS, runtime.GOARCH),
		fmt.Sprintf("coffer_engine-%s.wasm", runtime.GOARCH),
	}
}
