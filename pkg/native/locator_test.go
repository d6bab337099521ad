package native

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func writeBinary(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("\x00asm-test"), 0o644); err != nil {
		t.Fatalf("Failed to write binary: %v", err)
	}
}

func TestLocatorExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom-engine.wasm")
	writeBinary(t, path)

	loc := NewLocator(LocatorConfig{ExplicitPath: path}, testLogger())
	img, err := loc.Locate()
	if err != nil {
		t.Fatalf("Locate() error = %v, want nil", err)
	}

	if img.Source != "explicit" {
		t.Errorf("Source = %q, want %q", img.Source, "explicit")
	}
	if img.Path != path {
		t.Errorf("Path = %q, want %q", img.Path, path)
	}
	if len(img.Bytes) == 0 {
		t.Error("Bytes is empty, want binary contents")
	}
}

func TestLocatorDefaultName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultBinaryName)
	writeBinary(t, path)

	loc := NewLocator(LocatorConfig{LibraryDir: dir}, testLogger())
	img, err := loc.Locate()
	if err != nil {
		t.Fatalf("Locate() error = %v, want nil", err)
	}

	if img.Source != "search" {
		t.Errorf("Source = %q, want %q", img.Source, "search")
	}
	if img.Path != path {
		t.Errorf("Path = %q, want %q", img.Path, path)
	}
}

func TestLocatorArchQualifiedFallback(t *testing.T) {
	dir := t.TempDir()
	name := fmt.Sprintf("coffer_engine-%s-%s.wasm", runtime.GOOS, runtime.GOARCH)
	path := filepath.Join(dir, name)
	writeBinary(t, path)

	loc := NewLocator(LocatorConfig{LibraryDir: dir}, testLogger())
	img, err := loc.Locate()
	if err != nil {
		t.Fatalf("Locate() error = %v, want nil", err)
	}

	if img.Path != path {
		t.Errorf("Path = %q, want %q", img.Path, path)
	}
}

func TestLocatorPrefersDefaultName(t *testing.T) {
	dir := t.TempDir()
	defaultPath := filepath.Join(dir, DefaultBinaryName)
	archPath := filepath.Join(dir, fmt.Sprintf("coffer_engine-%s.wasm", runtime.GOARCH))
	writeBinary(t, defaultPath)
	writeBinary(t, archPath)

	loc := NewLocator(LocatorConfig{LibraryDir: dir}, testLogger())
	img, err := loc.Locate()
	if err != nil {
		t.Fatalf("Locate() error = %v, want nil", err)
	}

	if img.Path != defaultPath {
		t.Errorf("Path = %q, want the default name %q", img.Path, defaultPath)
	}
}

func TestLocatorResidentFallback(t *testing.T) {
	RegisterResident("embedded-test", []byte("resident-image"))
	t.Cleanup(ClearResident)

	loc := NewLocator(LocatorConfig{LibraryDir: t.TempDir()}, testLogger())
	img, err := loc.Locate()
	if err != nil {
		t.Fatalf("Locate() error = %v, want nil", err)
	}

	if img.Source != "resident" {
		t.Errorf("Source = %q, want %q", img.Source, "resident")
	}
	if img.Path != "" {
		t.Errorf("Path = %q, want empty for resident image", img.Path)
	}
	if string(img.Bytes) != "resident-image" {
		t.Errorf("Bytes = %q, want the registered image", img.Bytes)
	}
}

func TestLocatorExhaustionCarriesAttemptedNames(t *testing.T) {
	ClearResident()

	dir := t.TempDir()
	explicit := filepath.Join(dir, "missing.wasm")
	loc := NewLocator(LocatorConfig{ExplicitPath: explicit, LibraryDir: dir}, testLogger())

	_, err := loc.Locate()
	if err == nil {
		t.Fatal("Locate() error = nil, want load failure")
	}
	if !engine.IsLoadFailure(err) {
		t.Fatalf("IsLoadFailure() = false for %v", err)
	}

	var hostErr *engine.HostError
	if !errors.As(err, &hostErr) {
		t.Fatalf("error %v is not a *HostError", err)
	}

	// Explicit path, three candidate names, resident marker.
	if len(hostErr.Attempted) != 5 {
		t.Errorf("len(Attempted) = %d, want 5: %v", len(hostErr.Attempted), hostErr.Attempted)
	}

	wantFirst := explicit
	if hostErr.Attempted[0] != wantFirst {
		t.Errorf("Attempted[0] = %q, want %q", hostErr.Attempted[0], wantFirst)
	}

	wantDefault := filepath.Join(dir, DefaultBinaryName)
	found := false
	for _, name := range hostErr.Attempted {
		if name == wantDefault {
			found = true
		}
	}
	if !found {
		t.Errorf("Attempted = %v, want it to include %q", hostErr.Attempted, wantDefault)
	}
}

func TestLocatorEmptyFileIsMiss(t *testing.T) {
	ClearResident()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultBinaryName), nil, 0o644); err != nil {
		t.Fatalf("Failed to write empty file: %v", err)
	}

	loc := NewLocator(LocatorConfig{LibraryDir: dir}, testLogger())
	if _, err := loc.Locate(); !engine.IsLoadFailure(err) {
		t.Errorf("Locate() on an empty binary = %v, want load failure", err)
	}
}

func TestCandidateNames(t *testing.T) {
	names := candidateNames()

	if len(names) != 3 {
		t.Fatalf("len(candidateNames()) = %d, want 3", len(names))
	}
	if names[0] != DefaultBinaryName {
		t.Errorf("names[0] = %q, want %q", names[0], DefaultBinaryName)
	}
	for _, name := range names[1:] {
		if !strings.Contains(name, runtime.GOARCH) {
			t.Errorf("qualified name %q does not carry the architecture", name)
		}
	}
}
