// Package store provides the operation facade: typed document
// operations against one logical database, with connection recovery
// handled underneath by a lifecycle supervisor.
//
// # Architecture
//
// A Store binds a database name to a Supervisor. Each operation runs
// the same sequence:
//
//  1. Validate the request locally. Malformed keys and documents are
//     rejected before anything crosses the engine boundary.
//  2. Ask the supervisor for a live connection. The supervisor
//     validates the pooled record, recreates it after an environment
//     reset, and returns the engine table the pass used.
//  3. Perform the call and map the engine's reply: absent keys become
//     absent-value successes, error replies become classified errors
//     carrying the operation and database name.
//
// A transport-level call failure (the engine did not answer at all)
// invalidates the pooled record so the next operation revalidates
// instead of reusing a handle the engine may have forgotten.
//
// # Usage
//
//	st, err := store.Open(ctx, super, "users",
//		store.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	if err := st.Put(ctx, []byte(`{"id": "u-1", "name": "Ada"}`)); err != nil {
//		return err
//	}
//
//	doc, found, err := st.Get(ctx, "u-1")
//
// Attach defers connection establishment to the first operation; Open
// validates eagerly. An empty name adopts the most-recently-used
// database at construction, so a caller that reconnects after a reset
// does not need to remember which database it had open.
package store
