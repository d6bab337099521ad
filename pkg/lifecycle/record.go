package lifecycle

import (
	"sync/atomic"
	"time"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// Record is the manager-owned wrapper around one opaque engine handle.
// Handle and generation are fixed at construction; validity is a one-way
// flag so in-flight readers observe invalidity rather than a vanished
// entry. All access routes through the Pool.
type Record struct {
	handle     engine.Handle
	generation uint64

	valid    atomic.Bool
	lastUsed atomic.Int64 // unix nanoseconds
}

// NewRecord wraps a freshly created handle. The record starts valid with
// lastUsed set to now.
func NewRecord(handle engine.Handle, generation uint64) *Record {
	r := &Record{
		handle:     handle,
		generation: generation,
	}
	r.valid.Store(true)
	r.lastUsed.Store(time.Now().UnixNano())
	return r
}

// Handle returns the wrapped engine handle.
func (r *Record) Handle() engine.Handle {
	return r.handle
}

// Generation returns the epoch the handle was created under.
func (r *Record) Generation() uint64 {
	return r.generation
}

// Valid reports whether the record is still usable.
func (r *Record) Valid() bool {
	return r.valid.Load()
}

// Invalidate marks the record unusable. The transition is one-way.
func (r *Record) Invalidate() {
	r.valid.Store(false)
}

// Touch records activity at the given instant.
func (r *Record) Touch(now time.Time) {
	r.lastUsed.Store(now.UnixNano())
}

// LastUsed returns the instant of the most recent activity.
func (r *Record) LastUsed() time.Time {
	return time.Unix(0, r.lastUsed.Load())
}
