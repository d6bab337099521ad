package main

import (
	"encoding/json"
	"sort"
	"sync"
)

// database is one logical database: its documents keyed by id. The
// struct outlives handles the way a file outlives an environment reset.
type database struct {
	path string
	docs map[string][]byte
}

// engineState is the whole engine: open handles, known databases, and
// the epoch counter. One instance backs the wasm exports; tests build
// their own.
type engineState struct {
	mu sync.Mutex

	nextHandle uint64
	generation uint64

	handles   map[uint64]*database
	databases map[string]*database
}

func newEngineState() *engineState {
	return &engineState{
		generation: 1,
		handles:    make(map[uint64]*database),
		databases:  make(map[string]*database),
	}
}

// create opens or creates the database at path and returns its handle.
// Zero means the engine refused.
func (e *engineState) create(path string) uint64 {
	if path == "" {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	db, ok := e.databases[path]
	if !ok {
		db = &database{path: path, docs: make(map[string][]byte)}
		e.databases[path] = db
	}
	e.nextHandle++
	e.handles[e.nextHandle] = db
	return e.nextHandle
}

// reset is the failure mode the host exists to absorb: every handle
// dies while the stored documents survive, and the epoch advances.
func (e *engineState) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handles = make(map[uint64]*database)
	e.generation++
}

func (e *engineState) readByID(h uint64, key string) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	db, ok := e.handles[h]
	if !ok {
		return errorResponse(kindDatabaseError, "unknown database handle")
	}
	doc, ok := db.docs[key]
	if !ok {
		return notFoundResponse()
	}
	return okResponse(doc)
}

func (e *engineState) readAll(h uint64) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	db, ok := e.handles[h]
	if !ok {
		return errorResponse(kindDatabaseError, "unknown database handle")
	}

	ids := make([]string, 0, len(db.docs))
	for id := range db.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	all := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		all = append(all, db.docs[id])
	}
	payload, err := json.Marshal(all)
	if err != nil {
		return errorResponse(kindSerializationError, "failed to encode documents")
	}
	return okResponse(payload)
}

func (e *engineState) write(h uint64, doc []byte) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	db, ok := e.handles[h]
	if !ok {
		return errorResponse(kindDatabaseError, "unknown database handle")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil || fields == nil {
		return errorResponse(kindSerializationError, "document is not a JSON object")
	}
	var id string
	if err := json.Unmarshal(fields["id"], &id); err != nil || id == "" {
		return errorResponse(kindValidationError, "document must carry a non-empty string id")
	}

	db.docs[id] = append([]byte(nil), doc...)
	return okResponse([]byte("null"))
}

func (e *engineState) remove(h uint64, key string) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	db, ok := e.handles[h]
	if !ok {
		return errorResponse(kindDatabaseError, "unknown database handle")
	}
	if _, ok := db.docs[key]; !ok {
		return notFoundResponse()
	}
	delete(db.docs, key)
	return okResponse([]byte("null"))
}

func (e *engineState) clear(h uint64) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	db, ok := e.handles[h]
	if !ok {
		return errorResponse(kindDatabaseError, "unknown database handle")
	}
	db.docs = make(map[string][]byte)
	return okResponse([]byte("null"))
}

func (e *engineState) closeHandle(h uint64) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.handles[h]; !ok {
		return errorResponse(kindDatabaseError, "unknown database handle")
	}
	delete(e.handles, h)
	return okResponse([]byte("null"))
}

// ping answers with a status string for a live handle and empty for a
// dead one; the export turns empty into the null result the host reads
// as a failed ping.
func (e *engineState) ping(h uint64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.handles[h]; !ok {
		return ""
	}
	return "pong"
}

func (e *engineState) gen() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

func (e *engineState) isOpen(h uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.handles[h]
	return ok
}
