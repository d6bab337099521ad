// Package main implements memdoc, the reference CofferDB engine build.
// It is an in-memory document store behind the coffer_* entry
// convention, small enough to read in one sitting and faithful enough
// to exercise every host code path: handles, tagged responses, the
// packed-pointer result convention, and the epoch counter.
//
// The engine side of the contract, as memdoc implements it:
//
//   - coffer_alloc/coffer_release manage every buffer that crosses the
//     boundary, in both directions. The host writes request bytes into
//     an allocated buffer and releases it after the call; results come
//     back packed ptr<<32|len and the host releases them after copy-out.
//   - coffer_create(path) returns a non-zero handle or zero when the
//     engine refuses. Handles are opaque and die with the instance.
//   - The document entries answer with a single-key tagged JSON object:
//     {"Ok": payload}, {"NotFound": null}, or an error tag carrying a
//     message.
//   - coffer_ping returns a packed status string, or zero for a handle
//     this instance does not know. coffer_generation reports the epoch,
//     which advances when the environment resets underneath the host.
//
// Build it as a reactor module:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o coffer_engine.wasm .
//
// or with TinyGo for a smaller binary:
//
//	tinygo build -target=wasip1 -buildmode=c-shared -o coffer_engine.wasm .
package main

// main never runs in a reactor build; the host drives the exported
// entries directly after _initialize.
func main() {}
