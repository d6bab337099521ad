// Package native loads the CofferDB wasm engine and binds its exported
// entries into a typed call table.
//
// # Loading
//
// The engine ships as an externally-built wasm binary. Locator resolves it
// through three strategies, in order: an explicitly configured path, the
// default and architecture-qualified binary names in the search directories,
// and finally an in-process resident image registered via RegisterResident
// (for hosts that embed the engine with go:embed). Exhausting every strategy
// yields a load-classed error listing each name that was tried.
//
// Load is idempotent but not reuse-safe: every call produces a new Library
// with its own runtime, module, and Table. Callers must discard entries
// bound to an earlier Library instead of mixing old and new.
//
// # Call Convention
//
// Requests cross the boundary through guest memory: the host allocates with
// coffer_alloc, writes the bytes, and passes (ptr, len). Data operations
// return a packed u64 (pointer in the high 32 bits, length in the low 32)
// addressing a guest-allocated response buffer. Every buffer, on either
// direction, is released exactly once through coffer_release by the side
// that did not allocate it staying hands-off: the host releases what it
// asked the guest allocator for, and releases each response buffer after
// one copy-out. Response payloads are copied before release so no returned
// slice aliases guest memory.
//
// # Required and Optional Entries
//
// Table binding resolves every required entry up front and fails with a
// single binding-classed error naming all missing entries; partial binding
// is disallowed because it produces inconsistent behavior, such as a write
// that succeeds while close silently no-ops. The optional entries
// coffer_ping, coffer_generation, and coffer_is_open bind when present and
// are reported through Supports.
//
// # Binary Watching
//
// Watcher observes the resolved binary path and, after a debounce, reports
// that the on-disk engine was swapped so the lifecycle layer can rebuild
// its table on the next validation pass.
package native
