package lifecycle

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

func TestShared_ReturnsSamePool(t *testing.T) {
	InitShared(time.Minute)

	first := Shared()
	second := Shared()
	if first != second {
		t.Error("Expected Shared to return the same pool on every call")
	}
}

func TestInitShared_ReplacesPool(t *testing.T) {
	old := InitShared(time.Minute)
	old.Store("orders.db", NewRecord(engine.Handle(1), 1))

	fresh := InitShared(time.Minute)
	if fresh == old {
		t.Fatal("Expected InitShared to build a new pool")
	}
	if Shared() != fresh {
		t.Error("Expected Shared to hand out the replacement pool")
	}
	if _, ok := fresh.Get("orders.db"); ok {
		t.Error("Expected the replacement pool to start empty")
	}
}

func TestResetShared_ClosesRecordsAndClearsMRU(t *testing.T) {
	pool := InitShared(time.Minute)
	live := NewRecord(engine.Handle(1), 1)
	dead := NewRecord(engine.Handle(2), 2)
	dead.Invalidate()
	pool.Store("orders.db", live)
	pool.Store("users.db", dead)
	pool.SetMostRecentlyUsed("orders.db")

	var closed []string
	err := ResetShared(context.Background(), func(_ context.Context, name string, rec *Record) error {
		if rec.Valid() {
			t.Errorf("Expected record %q invalidated before the closer runs", name)
		}
		closed = append(closed, name)
		return nil
	})
	if err != nil {
		t.Fatalf("Expected clean teardown, got %v", err)
	}

	sort.Strings(closed)
	if len(closed) != 2 || closed[0] != "orders.db" || closed[1] != "users.db" {
		t.Errorf("Expected both records handed to the closer, got %v", closed)
	}

	// The next Shared call starts a fresh pool with no history.
	next := Shared()
	if next == pool {
		t.Error("Expected a fresh pool after teardown")
	}
	if next.MostRecentlyUsed() != "" {
		t.Errorf("Expected cleared MRU name, got %q", next.MostRecentlyUsed())
	}
}

func TestResetShared_ReportsFirstCloserError(t *testing.T) {
	pool := InitShared(time.Minute)
	pool.Store("orders.db", NewRecord(engine.Handle(1), 1))
	pool.Store("users.db", NewRecord(engine.Handle(2), 2))

	closeErr := errors.New("close failed")
	calls := 0
	err := ResetShared(context.Background(), func(context.Context, string, *Record) error {
		calls++
		return closeErr
	})
	if !errors.Is(err, closeErr) {
		t.Fatalf("Expected the closer error back, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected teardown to keep going past the failure, got %d calls", calls)
	}
}

func TestResetShared_NoPoolIsNoop(t *testing.T) {
	if err := ResetShared(context.Background(), nil); err != nil {
		t.Fatalf("Expected nil on first teardown, got %v", err)
	}
	// Pool is gone now; a second teardown has nothing to do.
	if err := ResetShared(context.Background(), func(context.Context, string, *Record) error {
		t.Error("Expected no closer calls without a pool")
		return nil
	}); err != nil {
		t.Fatalf("Expected nil without a pool, got %v", err)
	}
}
