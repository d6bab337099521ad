package lifecycle

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/cofferdb/coffer-go/pkg/engine"
	"github.com/cofferdb/coffer-go/pkg/telemetry"
)

const (
	// DefaultMaxAttempts bounds creation attempts per validation pass.
	DefaultMaxAttempts = 3

	// DefaultRetryInterval is the initial delay between creation attempts;
	// subsequent delays grow exponentially.
	DefaultRetryInterval = 100 * time.Millisecond
)

// Binder rebuilds the engine entry table on demand. Every Bind yields a
// fresh instance whose entries must never mix with a prior one's.
type Binder interface {
	Bind(ctx context.Context) (engine.Engine, error)
	Close(ctx context.Context) error
}

// EventSink receives durable lifecycle notifications, typically backed by
// the catalog. Sink failures never fail the validation pass.
type EventSink interface {
	// DatabaseOpened upserts the database row after a successful create.
	DatabaseOpened(ctx context.Context, name, path string, generation uint64) error

	// DatabaseClosed marks the database row closed.
	DatabaseClosed(ctx context.Context, name string) error

	// LifecycleEvent appends one event row (created, recreated, suspect,
	// invalidated, evicted, closed).
	LifecycleEvent(ctx context.Context, name, event, detail string) error
}

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	// DataDir is where bare logical names are materialized. Names carrying
	// a path separator are used as-is.
	DataDir string

	// MaxAttempts bounds creation attempts per validation pass (default 3).
	MaxAttempts int

	// RetryInterval is the initial backoff delay between creation attempts
	// (default 100ms).
	RetryInterval time.Duration

	// Pool overrides the process-shared pool. Leave nil outside tests so
	// the most-recently-used name survives an environment reset.
	Pool *Pool

	// Metrics, Events, and Sink are optional observers.
	Metrics *telemetry.Metrics
	Events  *telemetry.EventPublisher
	Sink    EventSink
}

// Supervisor drives the connection lifecycle: it validates pooled records
// against the engine's own liveness signals and recreates connections the
// engine has silently dropped. A validation pass never lets an engine
// failure escape as anything but a classified error.
type Supervisor struct {
	cfg    SupervisorConfig
	binder Binder
	pool   *Pool
	locks  *xsync.MapOf[string, *sync.Mutex]
	logger zerolog.Logger

	mu    sync.Mutex // guards table
	table engine.Engine
}

// NewSupervisor creates a supervisor attached to the process-shared pool
// unless cfg.Pool overrides it.
func NewSupervisor(binder Binder, cfg SupervisorConfig, logger zerolog.Logger) *Supervisor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	pool := cfg.Pool
	if pool == nil {
		pool = Shared()
	}
	return &Supervisor{
		cfg:    cfg,
		binder: binder,
		pool:   pool,
		locks:  xsync.NewMapOf[string, *sync.Mutex](),
		logger: logger.With().Str("component", "lifecycle").Logger(),
	}
}

// EnsureOption adjusts a single validation pass.
type EnsureOption func(*ensureOptions)

type ensureOptions struct {
	cachedHandle engine.Handle
}

// WithCachedHandle supplies the caller's cached handle so the pass can
// detect when the pooled record has superseded it.
func WithCachedHandle(h engine.Handle) EnsureOption {
	return func(o *ensureOptions) {
		o.cachedHandle = h
	}
}

// EnsureLive returns a live record for name plus the entry table it was
// validated against, establishing both if necessary.
//
// The pass runs most-specific to least-specific: rebind the entry table
// if unbound; adopt the most-recently-used name when name is empty (the
// recovery path after an environment reset wiped the caller's state);
// validate any pooled record by generation (advisory) and liveness ping
// (decisive); recreate with backoff when validation fails or no record
// exists. Passes for the same name are serialized, so concurrent callers
// share one recreation instead of racing their own.
//
// Callers must use the returned table for the returned handle and discard
// both after the next pass; entries from different loads must never mix.
func (s *Supervisor) EnsureLive(ctx context.Context, name string, opts ...EnsureOption) (engine.Engine, *Record, error) {
	var o ensureOptions
	for _, opt := range opts {
		opt(&o)
	}

	// An unbound entry table is rebuilt first. Failure is fatal for this
	// call only, never for the process.
	table, err := s.ensureTable(ctx)
	if err != nil {
		return nil, nil, err
	}

	// An empty name adopts the most-recently-used one, reconnecting after
	// a full reset without caller re-supply.
	if name == "" {
		name = s.pool.MostRecentlyUsed()
		if name == "" {
			return nil, nil, engine.NewConnectionError("no database name given and no prior name to adopt", nil)
		}
		s.logger.Info().Str("database", name).Msg("Adopting most recently used database")
	}

	lock, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	lock.Lock()
	defer lock.Unlock()

	recovered := false
	if rec, ok := s.pool.Get(name); ok {
		if live := s.validate(ctx, table, name, rec, o.cachedHandle); live != nil {
			return table, live, nil
		}
		recovered = true
	} else {
		s.observeValidation(ctx, name, StateAbsent, "")
	}

	rec, err := s.recreate(ctx, table, name, recovered)
	if err != nil {
		return nil, nil, err
	}
	return table, rec, nil
}

// validate checks one pooled record against the engine's liveness
// signals. It returns the record when it may be handed out, or nil after
// discarding it, in which case the caller recreates.
func (s *Supervisor) validate(ctx context.Context, table engine.Engine, name string, rec *Record, cached engine.Handle) *Record {
	log := s.logger.With().Str("database", name).Logger()

	// A record without a handle can only be replaced.
	if !rec.Handle().Valid() {
		s.discard(ctx, name, rec, "record holds no handle")
		return nil
	}

	if cached.Valid() && cached != rec.Handle() {
		log.Debug().
			Uint64("cached", uint64(cached)).
			Uint64("pooled", uint64(rec.Handle())).
			Msg("Cached handle superseded by pooled record")
	}

	// Generation disagreement is advisory only: some engine builds bump
	// the counter on benign internal compaction, others never bump it at
	// all, so it must not invalidate on its own.
	if table.Supports(engine.FeatureGeneration) {
		if gen, err := table.Generation(ctx); err == nil && gen != rec.Generation() {
			log.Warn().
				Uint64("stored", rec.Generation()).
				Uint64("reported", gen).
				Msg("Generation disagreement, marking suspect")
			s.observeValidation(ctx, name, StateSuspect,
				fmt.Sprintf("stored generation %d, engine reports %d", rec.Generation(), gen))
		}
	}

	// The ping is decisive in both directions: success proves liveness,
	// failure proves the handle is dead.
	if table.Supports(engine.FeaturePing) {
		if _, err := table.Ping(ctx, rec.Handle()); err != nil {
			log.Warn().Err(err).Msg("Liveness ping failed, invalidating record")
			s.discard(ctx, name, rec, "liveness ping failed")
			return nil
		}
		rec.Touch(time.Now())
		s.observeValidation(ctx, name, StateLive, "")
		return rec
	}

	// Without a ping, the legacy open-check is consulted but over- and
	// under-reports, so a false answer is logged and nothing more.
	if table.Supports(engine.FeatureIsOpen) {
		if open, err := table.IsOpen(ctx, rec.Handle()); err == nil && !open {
			log.Warn().Msg("Engine reports handle not open; advisory only, keeping record")
			s.observeValidation(ctx, name, StateSuspect, "legacy open-check reported closed")
		}
	}
	rec.Touch(time.Now())
	s.observeValidation(ctx, name, StateLive, "")
	return rec
}

// recreate establishes a fresh connection for name with bounded backoff.
// From the second attempt on, the on-disk path gets a unique suffix to
// sidestep a native file lock a prior epoch may not have released yet.
func (s *Supervisor) recreate(ctx context.Context, table engine.Engine, name string, recovered bool) (*Record, error) {
	log := s.logger.With().Str("database", name).Logger()
	log.Info().Msg("Establishing database connection")
	s.observeValidation(ctx, name, StateReconnecting, "")

	start := time.Now()
	attempt := 0
	var handle engine.Handle
	var path string

	op := func() error {
		attempt++
		path = s.databasePath(name, attempt)
		h, err := table.Create(ctx, path)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("Database create failed")
			return err
		}
		handle = h
		return nil
	}

	if err := backoff.Retry(op, s.retryPolicy(ctx)); err != nil {
		s.recordRecreation("failed", time.Since(start))
		engineAlive := s.fallbackProbe(ctx, table)

		msg := "connection could not be recreated and the engine is unresponsive; a process restart may be required"
		if engineAlive {
			msg = "connection could not be recreated although the engine responds; the database file may still be locked by a prior epoch"
		}
		return nil, engine.NewConnectionError(msg, err).WithDatabase(name).WithAttempts(attempt)
	}

	generation := s.pool.NextGeneration()
	if table.Supports(engine.FeatureGeneration) {
		if gen, err := table.Generation(ctx); err == nil {
			generation = gen
		}
	}

	rec := NewRecord(handle, generation)
	s.pool.Store(name, rec)
	s.recordRecreation("succeeded", time.Since(start))
	s.syncPoolGauge()

	log.Info().
		Uint64("generation", generation).
		Int("attempts", attempt).
		Str("path", path).
		Msg("Database connection established")

	if s.cfg.Events != nil {
		if recovered {
			_ = s.cfg.Events.PublishRecordRecreated(name, generation, attempt)
		} else {
			_ = s.cfg.Events.PublishRecordCreated(name, generation)
		}
	}
	if s.cfg.Sink != nil {
		if err := s.cfg.Sink.DatabaseOpened(ctx, name, path, generation); err != nil {
			log.Warn().Err(err).Msg("Event sink rejected database open")
		}
		event := "created"
		if recovered {
			event = "recreated"
		}
		if err := s.cfg.Sink.LifecycleEvent(ctx, name, event, fmt.Sprintf("attempts=%d", attempt)); err != nil {
			log.Warn().Err(err).Msg("Event sink rejected lifecycle event")
		}
	}

	return rec, nil
}

// fallbackProbe opens one throwaway database to tell a dead engine apart
// from a poisoned path. The probe database is closed immediately.
func (s *Supervisor) fallbackProbe(ctx context.Context, table engine.Engine) bool {
	name := "recovery-" + uuid.New().String()
	path := filepath.Join(s.cfg.DataDir, name)

	handle, err := table.Create(ctx, path)
	if err != nil {
		s.logger.Error().Err(err).Msg("Fallback probe failed, engine appears dead")
		return false
	}
	if _, err := table.Close(ctx, handle); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to close fallback probe database")
	}
	s.logger.Warn().Str("path", path).Msg("Fallback probe succeeded, original path appears unusable")
	return true
}

// retryPolicy builds the backoff schedule for one recreation sequence:
// exponential from RetryInterval, no jitter, MaxAttempts tries in total,
// aborted between attempts when ctx ends.
func (s *Supervisor) retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInterval
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 10 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.MaxAttempts-1)), ctx)
}

// databasePath materializes a logical name on disk. Bare names live under
// DataDir; names carrying a separator are taken as-is. From the second
// attempt on, a millisecond suffix makes the path unique so a stale
// native lock on the original cannot block recovery.
func (s *Supervisor) databasePath(name string, attempt int) string {
	path := name
	if !filepath.IsAbs(name) && !strings.ContainsAny(name, `/\`) {
		path = filepath.Join(s.cfg.DataDir, name)
	}
	if attempt >= 2 {
		ext := filepath.Ext(path)
		path = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), time.Now().UnixMilli(), ext)
	}
	return path
}

// Invalidate marks the record for name unusable so the next validation
// pass recreates it. Used by the facade after an engine call fails
// against a handle that just validated.
func (s *Supervisor) Invalidate(ctx context.Context, name, reason string) {
	if !s.pool.Invalidate(name) {
		return
	}
	s.logger.Warn().Str("database", name).Str("reason", reason).Msg("Record invalidated")
	s.observeValidation(ctx, name, StateInvalid, reason)
}

// Close releases the connection for name: the record leaves the pool, the
// engine closes its side, and observers are told. Closing an unknown name
// is a no-op.
func (s *Supervisor) Close(ctx context.Context, name string) error {
	lock, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	lock.Lock()
	defer lock.Unlock()

	rec, ok := s.pool.Remove(name)
	if !ok {
		return nil
	}
	wasValid := rec.Valid()
	rec.Invalidate()
	s.syncPoolGauge()
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordEviction("closed")
	}

	var closeErr error
	if wasValid && rec.Handle().Valid() {
		if table := s.currentTable(); table != nil {
			if resp, err := table.Close(ctx, rec.Handle()); err != nil {
				closeErr = err
			} else {
				closeErr = resp.Err()
			}
		}
	}
	if closeErr != nil {
		s.logger.Warn().Err(closeErr).Str("database", name).Msg("Engine close failed")
	} else {
		s.logger.Info().Str("database", name).Msg("Database connection closed")
	}

	if s.cfg.Events != nil {
		_ = s.cfg.Events.PublishRecordClosed(name)
	}
	if s.cfg.Sink != nil {
		if err := s.cfg.Sink.DatabaseClosed(ctx, name); err != nil {
			s.logger.Warn().Err(err).Str("database", name).Msg("Event sink rejected database close")
		}
		if err := s.cfg.Sink.LifecycleEvent(ctx, name, "closed", ""); err != nil {
			s.logger.Warn().Err(err).Str("database", name).Msg("Event sink rejected lifecycle event")
		}
	}
	return closeErr
}

// Sweep evicts invalidated and stale records, telling observers about
// each one. It returns the number evicted.
func (s *Supervisor) Sweep(ctx context.Context) int {
	evicted := s.pool.Sweep()
	for _, e := range evicted {
		s.logger.Info().Str("database", e.Name).Str("reason", e.Reason).Msg("Record evicted")
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.RecordEviction(e.Reason)
		}
		if s.cfg.Events != nil {
			_ = s.cfg.Events.PublishRecordEvicted(e.Name, e.Reason)
		}
		if s.cfg.Sink != nil {
			if err := s.cfg.Sink.LifecycleEvent(ctx, e.Name, "evicted", e.Reason); err != nil {
				s.logger.Warn().Err(err).Str("database", e.Name).Msg("Event sink rejected lifecycle event")
			}
		}
	}
	s.syncPoolGauge()
	return len(evicted)
}

// InvalidateBinding drops the bound entry table so the next pass reloads
// the library. Every pooled record is invalidated with it: handles from
// the old instance must not meet entries from the new one.
func (s *Supervisor) InvalidateBinding(ctx context.Context, reason string) {
	s.mu.Lock()
	s.table = nil
	s.mu.Unlock()

	s.logger.Warn().Str("reason", reason).Msg("Entry table invalidated, records will be recreated")
	s.pool.Range(func(name string, rec *Record) bool {
		if rec.Valid() {
			rec.Invalidate()
			s.observeValidation(ctx, name, StateInvalid, reason)
		}
		return true
	})
}

// Shutdown closes every pooled connection and releases the library.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	var firstErr error
	s.pool.Range(func(name string, rec *Record) bool {
		if err := s.Close(ctx, name); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})

	s.mu.Lock()
	s.table = nil
	s.mu.Unlock()

	if s.binder != nil {
		if err := s.binder.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pool returns the pool this supervisor works against.
func (s *Supervisor) Pool() *Pool {
	return s.pool
}

// ensureTable returns the bound entry table, rebuilding it when unbound.
func (s *Supervisor) ensureTable(ctx context.Context) (engine.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table != nil {
		return s.table, nil
	}
	if s.binder == nil {
		return nil, engine.NewLoadError("no engine binder configured", nil)
	}

	table, err := s.binder.Bind(ctx)
	if err != nil {
		return nil, err
	}
	s.table = table
	s.logger.Info().Msg("Entry table bound")
	return table, nil
}

// currentTable returns the bound entry table without rebinding.
func (s *Supervisor) currentTable() engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// discard invalidates and removes a record that failed validation.
func (s *Supervisor) discard(ctx context.Context, name string, rec *Record, reason string) {
	rec.Invalidate()
	s.pool.Remove(name)
	s.syncPoolGauge()
	s.observeValidation(ctx, name, StateInvalid, reason)
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordEviction("invalid")
	}
}

// observeValidation records one validation outcome with every observer.
func (s *Supervisor) observeValidation(ctx context.Context, name string, state State, detail string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordValidation(string(state))
	}
	if s.cfg.Events != nil {
		switch state {
		case StateSuspect:
			_ = s.cfg.Events.PublishRecordSuspect(name, detail)
		case StateInvalid:
			_ = s.cfg.Events.PublishRecordInvalidated(name, detail)
		}
	}
	if s.cfg.Sink != nil {
		switch state {
		case StateSuspect, StateInvalid:
			event := "suspect"
			if state == StateInvalid {
				event = "invalidated"
			}
			if err := s.cfg.Sink.LifecycleEvent(ctx, name, event, detail); err != nil {
				s.logger.Warn().Err(err).Str("database", name).Msg("Event sink rejected lifecycle event")
			}
		}
	}
}

// recordRecreation records one recreation outcome when metrics are on.
func (s *Supervisor) recordRecreation(outcome string, d time.Duration) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordRecreation(outcome, d)
	}
}

// syncPoolGauge mirrors the pool size into the metrics gauge.
func (s *Supervisor) syncPoolGauge() {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SetPoolRecords(float64(s.pool.Len()))
	}
}
