package lifecycle

import (
	"context"
	"sort"
	"time"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// RecordStatus is a point-in-time snapshot of one pooled record.
type RecordStatus struct {
	Database   string    `json:"database"`
	Handle     uint64    `json:"handle"`
	Generation uint64    `json:"generation"`
	Valid      bool      `json:"valid"`
	LastUsed   time.Time `json:"last_used"`
}

// Status snapshots every pooled record, valid or not, sorted by name.
// The snapshot is advisory: a record can be invalidated the moment
// after it is read.
func (s *Supervisor) Status() []RecordStatus {
	var statuses []RecordStatus
	s.pool.Range(func(name string, rec *Record) bool {
		statuses = append(statuses, RecordStatus{
			Database:   name,
			Handle:     uint64(rec.Handle()),
			Generation: rec.Generation(),
			Valid:      rec.Valid(),
			LastUsed:   rec.LastUsed(),
		})
		return true
	})
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Database < statuses[j].Database
	})
	return statuses
}

// EngineInfo describes the bound engine build: which optional entry
// points it exports and, when it reports one, its current epoch.
type EngineInfo struct {
	Features   []engine.Feature `json:"features"`
	Generation uint64           `json:"generation,omitempty"`
}

// EngineInfo binds the engine if necessary and probes its optional
// feature surface.
func (s *Supervisor) EngineInfo(ctx context.Context) (EngineInfo, error) {
	table, err := s.ensureTable(ctx)
	if err != nil {
		return EngineInfo{}, err
	}

	info := EngineInfo{Features: []engine.Feature{}}
	for _, feat := range []engine.Feature{engine.FeaturePing, engine.FeatureGeneration, engine.FeatureIsOpen} {
		if table.Supports(feat) {
			info.Features = append(info.Features, feat)
		}
	}
	if table.Supports(engine.FeatureGeneration) {
		if gen, err := table.Generation(ctx); err == nil {
			info.Generation = gen
		}
	}
	return info, nil
}
