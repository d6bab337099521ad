package lifecycle

import (
	"testing"
	"time"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

func TestPool_StoreAndGet(t *testing.T) {
	pool := NewPool(0)
	rec := NewRecord(engine.Handle(1), 1)

	pool.Store("orders.db", rec)

	got, ok := pool.Get("orders.db")
	if !ok {
		t.Fatal("Expected record for orders.db")
	}
	if got != rec {
		t.Error("Expected the stored record back")
	}
	if pool.Len() != 1 {
		t.Errorf("Expected pool size 1, got %d", pool.Len())
	}
}

func TestPool_Get_Missing(t *testing.T) {
	pool := NewPool(0)

	if _, ok := pool.Get("missing.db"); ok {
		t.Error("Expected no record for unknown name")
	}
}

func TestPool_Get_Invalidated(t *testing.T) {
	pool := NewPool(0)
	rec := NewRecord(engine.Handle(1), 1)
	pool.Store("orders.db", rec)

	if !pool.Invalidate("orders.db") {
		t.Fatal("Expected Invalidate to find the record")
	}
	if _, ok := pool.Get("orders.db"); ok {
		t.Error("Expected invalidated record to be treated as absent")
	}

	// The entry stays in the map for Sweep to report.
	if pool.Len() != 1 {
		t.Errorf("Expected invalidated entry to remain held, size %d", pool.Len())
	}
}

func TestPool_Get_Stale(t *testing.T) {
	pool := NewPool(time.Minute)
	rec := NewRecord(engine.Handle(1), 1)
	pool.Store("orders.db", rec)

	rec.Touch(time.Now().Add(-time.Hour))

	if _, ok := pool.Get("orders.db"); ok {
		t.Error("Expected stale record to be treated as absent")
	}

	evicted := pool.Sweep()
	if len(evicted) != 1 {
		t.Fatalf("Expected 1 eviction, got %d", len(evicted))
	}
	if evicted[0].Name != "orders.db" || evicted[0].Reason != "stale" {
		t.Errorf("Expected orders.db evicted as stale, got %+v", evicted[0])
	}
	if pool.Len() != 0 {
		t.Errorf("Expected empty pool after sweep, size %d", pool.Len())
	}
}

func TestPool_Store_ReplacesPrevious(t *testing.T) {
	pool := NewPool(0)
	old := NewRecord(engine.Handle(1), 1)
	pool.Store("orders.db", old)

	replacement := NewRecord(engine.Handle(2), 2)
	pool.Store("orders.db", replacement)

	if old.Valid() {
		t.Error("Expected replaced record to be invalidated")
	}
	got, ok := pool.Get("orders.db")
	if !ok || got != replacement {
		t.Error("Expected the replacement record back")
	}

	// Never more than one record per name, valid or not.
	if pool.Len() != 1 {
		t.Errorf("Expected pool size 1, got %d", pool.Len())
	}
}

func TestPool_Remove(t *testing.T) {
	pool := NewPool(0)
	rec := NewRecord(engine.Handle(1), 1)
	pool.Store("orders.db", rec)

	got, ok := pool.Remove("orders.db")
	if !ok || got != rec {
		t.Fatal("Expected Remove to return the stored record")
	}
	if _, ok := pool.Remove("orders.db"); ok {
		t.Error("Expected second Remove to find nothing")
	}
	if pool.Len() != 0 {
		t.Errorf("Expected empty pool, size %d", pool.Len())
	}
}

func TestPool_Invalidate_Missing(t *testing.T) {
	pool := NewPool(0)

	if pool.Invalidate("missing.db") {
		t.Error("Expected Invalidate of unknown name to report false")
	}
}

func TestPool_Sweep_Invalidated(t *testing.T) {
	pool := NewPool(0)
	pool.Store("orders.db", NewRecord(engine.Handle(1), 1))
	pool.Store("users.db", NewRecord(engine.Handle(2), 1))
	pool.Invalidate("orders.db")

	evicted := pool.Sweep()
	if len(evicted) != 1 {
		t.Fatalf("Expected 1 eviction, got %d", len(evicted))
	}
	if evicted[0].Name != "orders.db" || evicted[0].Reason != "invalid" {
		t.Errorf("Expected orders.db evicted as invalid, got %+v", evicted[0])
	}
	if _, ok := pool.Get("users.db"); !ok {
		t.Error("Expected untouched record to survive the sweep")
	}
}

func TestPool_MostRecentlyUsed(t *testing.T) {
	pool := NewPool(0)

	if pool.MostRecentlyUsed() != "" {
		t.Errorf("Expected empty MRU on fresh pool, got %q", pool.MostRecentlyUsed())
	}

	pool.Store("orders.db", NewRecord(engine.Handle(1), 1))
	pool.Store("users.db", NewRecord(engine.Handle(2), 1))

	if pool.MostRecentlyUsed() != "users.db" {
		t.Errorf("Expected users.db as MRU, got %q", pool.MostRecentlyUsed())
	}

	pool.SetMostRecentlyUsed("")
	if pool.MostRecentlyUsed() != "" {
		t.Error("Expected cleared MRU")
	}
}

func TestPool_NextGeneration(t *testing.T) {
	pool := NewPool(0)

	for want := uint64(1); want <= 3; want++ {
		if got := pool.NextGeneration(); got != want {
			t.Errorf("Expected generation %d, got %d", want, got)
		}
	}
}

func TestPool_Range(t *testing.T) {
	pool := NewPool(0)
	pool.Store("a.db", NewRecord(engine.Handle(1), 1))
	pool.Store("b.db", NewRecord(engine.Handle(2), 1))

	seen := map[string]bool{}
	pool.Range(func(name string, rec *Record) bool {
		seen[name] = true
		return true
	})

	if len(seen) != 2 || !seen["a.db"] || !seen["b.db"] {
		t.Errorf("Expected to visit both records, saw %v", seen)
	}
}
