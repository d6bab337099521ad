package native

import (
	"context"
	"testing"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// A table with no optional entries bound, as an engine build that predates
// ping, generation, and is_open would produce.
func legacyTable() *Table {
	return &Table{logger: testLogger()}
}

func TestTableSupportsUnboundOptionalEntries(t *testing.T) {
	tbl := legacyTable()

	tests := []struct {
		name    string
		feature engine.Feature
	}{
		{"ping", engine.FeaturePing},
		{"generation", engine.FeatureGeneration},
		{"is_open", engine.FeatureIsOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tbl.Supports(tt.feature) {
				t.Errorf("Supports(%q) = true with no entry bound, want false", tt.feature)
			}
		})
	}

	if tbl.Supports(engine.Feature("telepathy")) {
		t.Error("Supports() = true for an unknown feature, want false")
	}
}

func TestTableOptionalEntriesFailAsBindingErrors(t *testing.T) {
	tbl := legacyTable()
	ctx := context.Background()

	if _, err := tbl.Ping(ctx, 1); !engine.IsBindingFailure(err) {
		t.Errorf("Ping() error = %v, want binding failure", err)
	}
	if _, err := tbl.Generation(ctx); !engine.IsBindingFailure(err) {
		t.Errorf("Generation() error = %v, want binding failure", err)
	}
	if _, err := tbl.IsOpen(ctx, 1); !engine.IsBindingFailure(err) {
		t.Errorf("IsOpen() error = %v, want binding failure", err)
	}
}
