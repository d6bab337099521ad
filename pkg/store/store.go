package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cofferdb/coffer-go/pkg/engine"
	"github.com/cofferdb/coffer-go/pkg/lifecycle"
	"github.com/cofferdb/coffer-go/pkg/telemetry"
)

// Store is the operation facade for one logical database. Every
// operation validates its request first, then runs a validation pass to
// obtain a live handle, then crosses the boundary — so a caller never
// sees a stale-handle failure, only the operation's own outcome or a
// classified error.
type Store struct {
	name   string
	super  *lifecycle.Supervisor
	logger zerolog.Logger
	tel    *telemetry.Telemetry

	mu     sync.Mutex
	cached engine.Handle
}

// Option adjusts a Store at construction.
type Option func(*Store)

// WithLogger attaches a logger; without it the store is silent.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger.With().Str("component", "store").Logger()
	}
}

// WithTelemetry wires span and request metrics instrumentation.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(s *Store) {
		s.tel = tel
	}
}

// Attach binds a store to name without validating the connection; the
// first operation establishes it. An empty name adopts the
// most-recently-used database once, at attach time.
func Attach(super *lifecycle.Supervisor, name string, opts ...Option) (*Store, error) {
	if name == "" {
		name = super.Pool().MostRecentlyUsed()
		if name == "" {
			return nil, engine.NewConnectionError("no database name given and no prior name to adopt", nil)
		}
	}

	s := &Store{
		name:   name,
		super:  super,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open binds a store to name and eagerly establishes the connection.
func Open(ctx context.Context, super *lifecycle.Supervisor, name string, opts ...Option) (*Store, error) {
	s, err := Attach(super, name, opts...)
	if err != nil {
		return nil, err
	}
	if _, _, err := s.ensure(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the logical database name the store is bound to.
func (s *Store) Name() string {
	return s.name
}

// Put stores doc, creating or replacing the document under its id.
func (s *Store) Put(ctx context.Context, doc []byte) error {
	id, err := probeDocument(doc)
	if err != nil {
		return err
	}

	return s.instrument(ctx, "put", func(ctx context.Context) error {
		table, rec, err := s.ensure(ctx)
		if err != nil {
			return err
		}

		resp, err := table.Write(ctx, rec.Handle(), doc)
		if err != nil {
			return s.callFailed(ctx, "put", err)
		}
		switch resp.Kind {
		case engine.KindOk, engine.KindNotFound:
			s.logger.Debug().Str("database", s.name).Str("key", id).Msg("Document stored")
			return nil
		default:
			return s.respErr("put", resp)
		}
	})
}

// Get retrieves the document stored under key. A missing key is an
// absent-value success, not an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	var payload []byte
	var found bool
	err := s.instrument(ctx, "get", func(ctx context.Context) error {
		table, rec, err := s.ensure(ctx)
		if err != nil {
			return err
		}

		resp, err := table.ReadByID(ctx, rec.Handle(), key)
		if err != nil {
			return s.callFailed(ctx, "get", err)
		}
		switch resp.Kind {
		case engine.KindOk:
			payload = append([]byte(nil), resp.Payload...)
			found = true
			return nil
		case engine.KindNotFound:
			return nil
		default:
			return s.respErr("get", resp)
		}
	})
	return payload, found, err
}

// GetAll retrieves every document in the database.
func (s *Store) GetAll(ctx context.Context) ([]json.RawMessage, error) {
	var docs []json.RawMessage
	err := s.instrument(ctx, "get_all", func(ctx context.Context) error {
		table, rec, err := s.ensure(ctx)
		if err != nil {
			return err
		}

		resp, err := table.ReadAll(ctx, rec.Handle())
		if err != nil {
			return s.callFailed(ctx, "get_all", err)
		}
		switch resp.Kind {
		case engine.KindOk:
			if err := json.Unmarshal(resp.Payload, &docs); err != nil {
				return engine.NewSerializationError("engine returned a malformed document array", err).
					WithOp("get_all").WithDatabase(s.name)
			}
			return nil
		case engine.KindNotFound:
			docs = []json.RawMessage{}
			return nil
		default:
			return s.respErr("get_all", resp)
		}
	})
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	return docs, nil
}

// Delete removes the document under key. Deleting a missing key is a
// success: the desired state already holds.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	return s.instrument(ctx, "delete", func(ctx context.Context) error {
		table, rec, err := s.ensure(ctx)
		if err != nil {
			return err
		}

		resp, err := table.Delete(ctx, rec.Handle(), key)
		if err != nil {
			return s.callFailed(ctx, "delete", err)
		}
		switch resp.Kind {
		case engine.KindOk, engine.KindNotFound:
			return nil
		default:
			return s.respErr("delete", resp)
		}
	})
}

// Clear removes every document in the database.
func (s *Store) Clear(ctx context.Context) error {
	return s.instrument(ctx, "clear", func(ctx context.Context) error {
		table, rec, err := s.ensure(ctx)
		if err != nil {
			return err
		}

		resp, err := table.Clear(ctx, rec.Handle())
		if err != nil {
			return s.callFailed(ctx, "clear", err)
		}
		switch resp.Kind {
		case engine.KindOk, engine.KindNotFound:
			return nil
		default:
			return s.respErr("clear", resp)
		}
	})
}

// PutAll stores docs in order. Every document is validated before the
// first one crosses the boundary, so a malformed batch changes nothing.
func (s *Store) PutAll(ctx context.Context, docs [][]byte) error {
	for i, doc := range docs {
		if _, err := probeDocument(doc); err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	return s.instrument(ctx, "put_all", func(ctx context.Context) error {
		table, rec, err := s.ensure(ctx)
		if err != nil {
			return err
		}

		for i, doc := range docs {
			resp, err := table.Write(ctx, rec.Handle(), doc)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, s.callFailed(ctx, "put_all", err))
			}
			switch resp.Kind {
			case engine.KindOk, engine.KindNotFound:
			default:
				return fmt.Errorf("document %d: %w", i, s.respErr("put_all", resp))
			}
		}
		return nil
	})
}

// Close releases the database connection. The store may be reused; the
// next operation reconnects.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.cached = 0
	s.mu.Unlock()

	return s.instrument(ctx, "close", func(ctx context.Context) error {
		return s.super.Close(ctx, s.name)
	})
}

// ensure runs one validation pass and refreshes the cached handle hint.
func (s *Store) ensure(ctx context.Context) (engine.Engine, *lifecycle.Record, error) {
	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()

	table, rec, err := s.super.EnsureLive(ctx, s.name, lifecycle.WithCachedHandle(cached))
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.cached = rec.Handle()
	s.mu.Unlock()
	return table, rec, nil
}

// callFailed handles a transport-level failure: the record is
// invalidated so the next operation revalidates instead of reusing a
// handle the engine may no longer know.
func (s *Store) callFailed(ctx context.Context, op string, err error) error {
	s.logger.Warn().Err(err).Str("database", s.name).Str("op", op).Msg("Engine call failed, invalidating record")
	s.super.Invalidate(ctx, s.name, fmt.Sprintf("%s call failed", op))
	return err
}

// respErr converts an error-kind response into a classified error
// carrying the operation and database context.
func (s *Store) respErr(op string, resp engine.Response) error {
	err := resp.Err()
	if err == nil {
		return nil
	}
	var hostErr *engine.HostError
	if errors.As(err, &hostErr) {
		return hostErr.WithOp(op).WithDatabase(s.name)
	}
	return err
}

// instrument wraps fn in span and request metrics when telemetry is
// wired, and is a plain call when it is not.
func (s *Store) instrument(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.tel != nil && telemetry.FromTelemetryContext(ctx) == nil {
		ctx = s.tel.WithContext(ctx)
	}
	return telemetry.InstrumentStoreOperation(ctx, op, s.name, fn)
}
