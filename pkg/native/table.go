package native

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero/api"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// Entry names every engine build must export.
const (
	entryAlloc    = "coffer_alloc"
	entryRelease  = "coffer_release"
	entryCreate   = "coffer_create"
	entryReadByID = "coffer_read_by_id"
	entryReadAll  = "coffer_read_all"
	entryWrite    = "coffer_write"
	entryDelete   = "coffer_delete"
	entryClear    = "coffer_clear"
	entryClose    = "coffer_close"
)

// Entry names older engine builds may lack; absence is reported through
// Supports rather than failing the bind.
const (
	entryPing       = "coffer_ping"
	entryGeneration = "coffer_generation"
	entryIsOpen     = "coffer_is_open"
)

// Table is the immutable set of bound callables for one loaded engine
// instance. It is created once per Library and discarded whole when the
// lifecycle layer decides a fresh load is required.
type Table struct {
	module  api.Module
	memory  api.Memory
	timeout time.Duration
	logger  zerolog.Logger

	alloc   api.Function
	release api.Function

	create   api.Function
	readByID api.Function
	readAll  api.Function
	write    api.Function
	del      api.Function
	clear    api.Function
	closeDB  api.Function

	ping       api.Function
	generation api.Function
	isOpen     api.Function
}

var _ engine.Engine = (*Table)(nil)

// NewTable resolves every required entry of the instantiated module. Any
// missing required entry fails the whole table with one binding-classed
// error naming all of them; partial binding is disallowed.
func NewTable(module api.Module, timeout time.Duration, logger zerolog.Logger) (*Table, error) {
	t := &Table{
		module:  module,
		timeout: timeout,
		logger:  logger.With().Str("component", "native-table").Logger(),
	}

	t.memory = module.Memory()
	if t.memory == nil {
		return nil, engine.NewBindingError("engine module does not export memory", nil)
	}

	var missing []string
	bind := func(name string) api.Function {
		fn := module.ExportedFunction(name)
		if fn == nil {
			missing = append(missing, name)
		}
		return fn
	}

	t.alloc = bind(entryAlloc)
	t.release = bind(entryRelease)
	t.create = bind(entryCreate)
	t.readByID = bind(entryReadByID)
	t.readAll = bind(entryReadAll)
	t.write = bind(entryWrite)
	t.del = bind(entryDelete)
	t.clear = bind(entryClear)
	t.closeDB = bind(entryClose)

	if len(missing) > 0 {
		return nil, engine.NewBindingError(
			fmt.Sprintf("engine module is missing required entries: %s", strings.Join(missing, ", ")), nil)
	}

	t.ping = module.ExportedFunction(entryPing)
	t.generation = module.ExportedFunction(entryGeneration)
	t.isOpen = module.ExportedFunction(entryIsOpen)

	t.logger.Debug().
		Bool("ping", t.ping != nil).
		Bool("generation", t.generation != nil).
		Bool("is_open", t.isOpen != nil).
		Msg("Entry table bound")

	return t, nil
}

// Supports reports whether an optional entry was bound.
func (t *Table) Supports(f engine.Feature) bool {
	switch f {
	case engine.FeaturePing:
		return t.ping != nil
	case engine.FeatureGeneration:
		return t.generation != nil
	case engine.FeatureIsOpen:
		return t.isOpen != nil
	default:
		return false
	}
}

// Create opens or creates the database at path and returns its handle.
func (t *Table) Create(ctx context.Context, path string) (engine.Handle, error) {
	ptr, length, err := t.copyIn(ctx, "create", []byte(path))
	if err != nil {
		return 0, err
	}
	if ptr != 0 {
		defer t.releaseBuffer(ctx, ptr)
	}

	results, err := t.callEntry(ctx, "create", t.create, uint64(ptr), uint64(length))
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, engine.NewSerializationError("engine returned no result", nil).WithOp("create")
	}

	handle := engine.Handle(results[0])
	if !handle.Valid() {
		return 0, engine.NewDatabaseError("engine returned a null handle", nil).WithOp("create")
	}
	return handle, nil
}

// ReadByID fetches one document by key. Absent keys come back as a tagged
// NotFound response, not as an error.
func (t *Table) ReadByID(ctx context.Context, h engine.Handle, key string) (engine.Response, error) {
	ptr, length, err := t.copyIn(ctx, "read_by_id", []byte(key))
	if err != nil {
		return engine.Response{}, err
	}
	if ptr != 0 {
		defer t.releaseBuffer(ctx, ptr)
	}
	return t.invokeTagged(ctx, "read_by_id", t.readByID, uint64(h), uint64(ptr), uint64(length))
}

// ReadAll fetches every document in the database.
func (t *Table) ReadAll(ctx context.Context, h engine.Handle) (engine.Response, error) {
	return t.invokeTagged(ctx, "read_all", t.readAll, uint64(h))
}

// Write stores doc, replacing any document with the same id.
func (t *Table) Write(ctx context.Context, h engine.Handle, doc []byte) (engine.Response, error) {
	ptr, length, err := t.copyIn(ctx, "write", doc)
	if err != nil {
		return engine.Response{}, err
	}
	if ptr != 0 {
		defer t.releaseBuffer(ctx, ptr)
	}
	return t.invokeTagged(ctx, "write", t.write, uint64(h), uint64(ptr), uint64(length))
}

// Delete removes one document by key.
func (t *Table) Delete(ctx context.Context, h engine.Handle, key string) (engine.Response, error) {
	ptr, length, err := t.copyIn(ctx, "delete", []byte(key))
	if err != nil {
		return engine.Response{}, err
	}
	if ptr != 0 {
		defer t.releaseBuffer(ctx, ptr)
	}
	return t.invokeTagged(ctx, "delete", t.del, uint64(h), uint64(ptr), uint64(length))
}

// Clear removes every document in the database.
func (t *Table) Clear(ctx context.Context, h engine.Handle) (engine.Response, error) {
	return t.invokeTagged(ctx, "clear", t.clear, uint64(h))
}

// Close releases the native side of the handle.
func (t *Table) Close(ctx context.Context, h engine.Handle) (engine.Response, error) {
	return t.invokeTagged(ctx, "close", t.closeDB, uint64(h))
}

// Ping confirms the handle still responds. A null answer counts as a
// failed ping.
func (t *Table) Ping(ctx context.Context, h engine.Handle) (string, error) {
	if t.ping == nil {
		return "", engine.NewBindingError("engine build does not export "+entryPing, nil).WithOp("ping")
	}

	results, err := t.callEntry(ctx, "ping", t.ping, uint64(h))
	if err != nil {
		return "", err
	}
	if len(results) == 0 || results[0] == 0 {
		return "", engine.NewDatabaseError("engine did not answer the ping", nil).WithOp("ping")
	}

	raw, err := t.copyOut(ctx, "ping", results[0])
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Generation returns the engine's current epoch counter.
func (t *Table) Generation(ctx context.Context) (uint64, error) {
	if t.generation == nil {
		return 0, engine.NewBindingError("engine build does not export "+entryGeneration, nil).WithOp("generation")
	}

	results, err := t.callEntry(ctx, "generation", t.generation)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, engine.NewSerializationError("engine returned no result", nil).WithOp("generation")
	}
	return results[0], nil
}

// IsOpen is the legacy boolean liveness check. Known to both over- and
// under-report; callers treat the answer as advisory.
func (t *Table) IsOpen(ctx context.Context, h engine.Handle) (bool, error) {
	if t.isOpen == nil {
		return false, engine.NewBindingError("engine build does not export "+entryIsOpen, nil).WithOp("is_open")
	}

	results, err := t.callEntry(ctx, "is_open", t.isOpen, uint64(h))
	if err != nil {
		return false, err
	}
	if len(results) == 0 {
		return false, engine.NewSerializationError("engine returned no result", nil).WithOp("is_open")
	}
	return results[0] != 0, nil
}

// callEntry invokes one bound entry under the per-call timeout.
func (t *Table) callEntry(ctx context.Context, op string, fn api.Function, params ...uint64) ([]uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, engine.NewDatabaseError("engine call failed", err).WithOp(op)
	}
	return results, nil
}

// invokeTagged runs one request/response entry and decodes the tagged reply.
func (t *Table) invokeTagged(ctx context.Context, op string, fn api.Function, params ...uint64) (engine.Response, error) {
	results, err := t.callEntry(ctx, op, fn, params...)
	if err != nil {
		return engine.Response{}, err
	}
	if len(results) == 0 {
		return engine.Response{}, engine.NewSerializationError("engine returned no result", nil).WithOp(op)
	}

	raw, err := t.copyOut(ctx, op, results[0])
	if err != nil {
		return engine.Response{}, err
	}
	if raw == nil {
		return engine.Response{}, engine.NewSerializationError("engine returned an empty response", nil).WithOp(op)
	}

	resp, err := engine.DecodeResponse(raw)
	if err != nil {
		var hostErr *engine.HostError
		if errors.As(err, &hostErr) {
			hostErr.WithOp(op)
		}
		return engine.Response{}, err
	}
	return resp, nil
}

// copyIn places data into guest memory through the engine's allocator.
// The caller releases the returned pointer after the entry call returns.
func (t *Table) copyIn(ctx context.Context, op string, data []byte) (uint32, uint32, error) {
	if len(data) == 0 {
		return 0, 0, nil
	}

	results, err := t.callEntry(ctx, op, t.alloc, uint64(len(data)))
	if err != nil {
		return 0, 0, err
	}
	if len(results) == 0 || uint32(results[0]) == 0 {
		return 0, 0, engine.NewDatabaseError("engine allocator returned a null pointer", nil).WithOp(op)
	}

	ptr := uint32(results[0])
	if !t.memory.Write(ptr, data) {
		t.releaseBuffer(ctx, ptr)
		return 0, 0, engine.NewDatabaseError("failed to write into engine memory", nil).WithOp(op)
	}
	return ptr, uint32(len(data)), nil
}

// copyOut copies a packed ptr<<32|len result out of guest memory and
// releases the guest buffer exactly once, readable or not.
func (t *Table) copyOut(ctx context.Context, op string, packed uint64) ([]byte, error) {
	ptr := uint32(packed >> 32)
	length := uint32(packed & 0xFFFFFFFF)
	if ptr == 0 || length == 0 {
		return nil, nil
	}

	view, ok := t.memory.Read(ptr, length)
	if !ok {
		t.releaseBuffer(ctx, ptr)
		return nil, engine.NewSerializationError("engine returned an unreadable buffer", nil).WithOp(op)
	}

	out := make([]byte, length)
	copy(out, view)
	t.releaseBuffer(ctx, ptr)
	return out, nil
}

// releaseBuffer returns one guest buffer to the engine's allocator.
func (t *Table) releaseBuffer(ctx context.Context, ptr uint32) {
	if _, err := t.release.Call(ctx, uint64(ptr)); err != nil {
		t.logger.Warn().Err(err).Uint32("ptr", ptr).Msg("Failed to release engine buffer")
	}
}
