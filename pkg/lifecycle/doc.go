// Package lifecycle keeps engine connections usable across environment
// resets the host process cannot observe directly.
//
// The engine invalidates every open handle when its environment is torn
// down and rebuilt, while the OS process keeps running. Nothing signals
// the reset; the first symptom is an engine call failing against a handle
// that worked moments ago. This package absorbs that failure mode: it
// pools connection records per database name, validates them against the
// engine's own liveness signals before use, and transparently recreates
// connections the engine has dropped.
//
// # Architecture
//
// Three pieces cooperate:
//
//   - Pool: a concurrent map of name → Record with a staleness window and
//     a most-recently-used name. One process-shared instance survives
//     caller state loss (see Shared).
//   - Record: one pooled connection (handle, generation, validity flag,
//     last-used time). Invalidation is one-way.
//   - Supervisor: runs the validation pass, serializing passes per name
//     so concurrent callers share a single recreation.
//
// # Validation Pass
//
// EnsureLive works through the failure modes from most to least specific:
//
//  1. An unbound entry table is rebuilt via the Binder. Failure is fatal
//     for the call, never the process.
//  2. An empty database name adopts the most-recently-used one, so a
//     caller whose own state was wiped still reaches its database.
//  3. An existing record is validated: a generation disagreement marks
//     it suspect (advisory only), a failed liveness ping invalidates it,
//     a successful ping proves it live.
//  4. A missing or invalidated record is recreated with exponential
//     backoff. Later attempts use a uniquely suffixed path in case the
//     engine still holds a file lock from a prior epoch. When every
//     attempt fails, a throwaway probe database distinguishes a dead
//     engine from a poisoned path, and the caller receives a classified
//     connection error.
//
// # Usage
//
//	super := lifecycle.NewSupervisor(binder, lifecycle.SupervisorConfig{
//		DataDir: "/var/lib/coffer",
//	}, logger)
//
//	table, rec, err := super.EnsureLive(ctx, "orders.db")
//	if err != nil {
//		return err
//	}
//	resp, err := table.Write(ctx, rec.Handle(), doc)
//
// The returned table and record are valid until the next pass; callers
// must not cache them across passes, and must report call failures via
// Invalidate so the next pass recreates instead of reusing.
//
// # Observers
//
// A Supervisor optionally feeds telemetry metrics and events plus a
// durable EventSink (the catalog). Observer failures are logged and never
// affect the pass.
package lifecycle
