package native

import "sync"

// resident holds the process-wide engine image for hosts that carry the
// engine inside their own binary instead of shipping it next to the
// executable. It is the last load strategy the Locator tries.
var resident struct {
	mu    sync.RWMutex
	label string
	image []byte
}

// RegisterResident installs an engine image carried inside the host binary,
// typically from an init function next to a go:embed directive:
//
//	//go:embed coffer_engine.wasm
//	var engineWasm []byte
//
//	func init() { native.RegisterResident("embedded", engineWasm) }
//
// A later registration replaces an earlier one. Libraries already opened
// from the previous image are unaffected.
func RegisterResident(label string, image []byte) {
	resident.mu.Lock()
	defer resident.mu.Unlock()
	resident.label = label
	resident.image = image
}

// ClearResident removes the registered image. Mainly for tests.
func ClearResident() {
	resident.mu.Lock()
	defer resident.mu.Unlock()
	resident.label = ""
	resident.image = nil
}

// residentImage returns the registered image, its label, and whether one
// is registered.
func residentImage() ([]byte, string, bool) {
	resident.mu.RLock()
	defer resident.mu.RUnlock()
	if len(resident.image) == 0 {
		return nil, "", false
	}
	return resident.image, resident.label, true
}
