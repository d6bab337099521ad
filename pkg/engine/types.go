package engine

import (
	"context"
)

// Handle is an opaque reference to one open database inside the engine.
// The host never interprets the value; it only carries it back across the
// boundary. The zero value means "no handle" and matches the engine's null.
type Handle uint64

// Valid reports whether the handle refers to anything at all. It says
// nothing about liveness; only the lifecycle layer can establish that.
func (h Handle) Valid() bool {
	return h != 0
}

// Feature identifies an optional engine entry point.
type Feature string

const (
	// FeaturePing is the cheap liveness round-trip (coffer_ping).
	FeaturePing Feature = "ping"

	// FeatureGeneration is the engine-side epoch counter (coffer_generation).
	FeatureGeneration Feature = "generation"

	// FeatureIsOpen is the legacy boolean open-check (coffer_is_open).
	// It is known to both over- and under-report and is advisory only.
	FeatureIsOpen Feature = "is_open"
)

// Engine is the typed surface of one loaded engine instance.
//
// Implementations are bound once per loaded library; after a reload the old
// Engine must be discarded entirely, never mixed with entries from the new
// instance. All methods are synchronous: the context is honored up to the
// moment the call crosses the boundary, not during it.
type Engine interface {
	// Create opens (or creates) the database at path and returns its handle.
	// A load- or database-classed error is returned when the engine refuses,
	// for example because a stale file lock from a prior epoch is still held.
	Create(ctx context.Context, path string) (Handle, error)

	// ReadByID fetches one document by key. Absent keys come back as a
	// Response with KindNotFound, not as an error.
	ReadByID(ctx context.Context, h Handle, key string) (Response, error)

	// ReadAll fetches every document in the database as a JSON array payload.
	ReadAll(ctx context.Context, h Handle) (Response, error)

	// Write stores the document (create-or-replace keyed by its "id" field).
	Write(ctx context.Context, h Handle, doc []byte) (Response, error)

	// Delete removes one document by key. Absent keys report KindNotFound;
	// the facade treats that as success.
	Delete(ctx context.Context, h Handle, key string) (Response, error)

	// Clear removes every document in the database.
	Clear(ctx context.Context, h Handle) (Response, error)

	// Close releases the database handle inside the engine. The handle must
	// not be used afterwards.
	Close(ctx context.Context, h Handle) (Response, error)

	// Ping performs the liveness round-trip and returns the engine's status
	// string. Only valid when Supports(FeaturePing); an error or empty reply
	// means the handle no longer responds.
	Ping(ctx context.Context, h Handle) (string, error)

	// Generation returns the engine-side epoch counter. Only valid when
	// Supports(FeatureGeneration).
	Generation(ctx context.Context) (uint64, error)

	// IsOpen is the legacy boolean open-check. Only valid when
	// Supports(FeatureIsOpen). Its result is advisory: a false answer alone
	// must never trigger recreation.
	IsOpen(ctx context.Context, h Handle) (bool, error)

	// Supports reports whether an optional entry point was bound.
	Supports(f Feature) bool
}
