package lifecycle

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultStalenessWindow is how long a record may sit unused before the
// pool stops handing it out.
const DefaultStalenessWindow = 30 * time.Minute

// Eviction names a record removed by Sweep and why.
type Eviction struct {
	Name   string
	Reason string // "invalid" or "stale"
}

// Pool holds at most one record per logical database name plus the
// process-surviving bookkeeping: a monotonic generation counter and the
// most-recently-used name. The map itself is safe for concurrent use;
// mutation ordering is the Supervisor's job, which serializes validation
// passes per name.
type Pool struct {
	records   *xsync.MapOf[string, *Record]
	staleness time.Duration

	generation atomic.Uint64

	mu  sync.RWMutex // guards mru
	mru string
}

// NewPool creates a pool with the given staleness window; zero means
// DefaultStalenessWindow.
func NewPool(staleness time.Duration) *Pool {
	if staleness <= 0 {
		staleness = DefaultStalenessWindow
	}
	return &Pool{
		records:   xsync.NewMapOf[string, *Record](),
		staleness: staleness,
	}
}

// Get returns the record for name, or absent when the record is missing,
// invalidated, or inactive beyond the staleness window. Stale entries are
// left in place for Sweep; Get only reports absence.
func (p *Pool) Get(name string) (*Record, bool) {
	rec, ok := p.records.Load(name)
	if !ok {
		return nil, false
	}
	if !rec.Valid() {
		return nil, false
	}
	if time.Since(rec.LastUsed()) > p.staleness {
		return nil, false
	}
	return rec, true
}

// Store replaces any existing record for name and remembers name as
// most-recently-used. The replaced record is invalidated first so no two
// valid records for one name ever coexist.
func (p *Pool) Store(name string, rec *Record) {
	if prev, ok := p.records.Load(name); ok && prev != rec {
		prev.Invalidate()
	}
	p.records.Store(name, rec)
	p.SetMostRecentlyUsed(name)
}

// Invalidate marks the record for name unusable without removing it, so
// in-flight readers observe invalidity rather than a vanished entry.
// It reports whether a record existed.
func (p *Pool) Invalidate(name string) bool {
	rec, ok := p.records.Load(name)
	if !ok {
		return false
	}
	rec.Invalidate()
	return true
}

// Remove deletes the record for name entirely and returns it.
func (p *Pool) Remove(name string) (*Record, bool) {
	return p.records.LoadAndDelete(name)
}

// Sweep removes every invalidated or stale record and reports what went.
func (p *Pool) Sweep() []Eviction {
	var evicted []Eviction
	now := time.Now()

	p.records.Range(func(name string, rec *Record) bool {
		switch {
		case !rec.Valid():
			evicted = append(evicted, Eviction{Name: name, Reason: "invalid"})
		case now.Sub(rec.LastUsed()) > p.staleness:
			rec.Invalidate()
			evicted = append(evicted, Eviction{Name: name, Reason: "stale"})
		}
		return true
	})

	for _, e := range evicted {
		p.records.Delete(e.Name)
	}
	return evicted
}

// Len returns the number of records currently held, valid or not.
func (p *Pool) Len() int {
	return p.records.Size()
}

// Range calls fn for every held record until fn returns false.
func (p *Pool) Range(fn func(name string, rec *Record) bool) {
	p.records.Range(fn)
}

// NextGeneration advances the pool's own epoch counter, used when the
// engine build does not report generations itself.
func (p *Pool) NextGeneration() uint64 {
	return p.generation.Add(1)
}

// MostRecentlyUsed returns the last name passed to Store, or empty.
func (p *Pool) MostRecentlyUsed() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mru
}

// SetMostRecentlyUsed remembers name for adoption after an environment
// reset. An empty name clears the memory.
func (p *Pool) SetMostRecentlyUsed(name string) {
	p.mu.Lock()
	p.mru = name
	p.mu.Unlock()
}
