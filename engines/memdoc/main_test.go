package main

import (
	"bytes"
	"testing"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// decode runs a raw reply through the host's own codec, so these tests
// prove wire compatibility, not just internal consistency.
func decode(t *testing.T, raw []byte) engine.Response {
	t.Helper()
	resp, err := engine.DecodeResponse(raw)
	if err != nil {
		t.Fatalf("reply failed to decode: %v", err)
	}
	return resp
}

func TestCreateAssignsDistinctHandles(t *testing.T) {
	e := newEngineState()

	h1 := e.create("/data/users.db")
	h2 := e.create("/data/orders.db")

	if h1 == 0 || h2 == 0 {
		t.Fatalf("expected non-zero handles, got %d and %d", h1, h2)
	}
	if h1 == h2 {
		t.Errorf("expected distinct handles, both were %d", h1)
	}
}

func TestCreateRejectsEmptyPath(t *testing.T) {
	e := newEngineState()

	if h := e.create(""); h != 0 {
		t.Errorf("expected a zero handle for an empty path, got %d", h)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	doc := []byte(`{"id": "u-1", "name": "Ada"}`)
	resp := decode(t, e.write(h, doc))
	if resp.Kind != engine.KindOk {
		t.Fatalf("expected Ok, got %s (%s)", resp.Kind, resp.Message)
	}

	resp = decode(t, e.readByID(h, "u-1"))
	if resp.Kind != engine.KindOk {
		t.Fatalf("expected Ok, got %s (%s)", resp.Kind, resp.Message)
	}
	if !bytes.Equal(resp.Payload, doc) {
		t.Errorf("expected %s, got %s", doc, resp.Payload)
	}
}

func TestWriteReplacesExisting(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	decode(t, e.write(h, []byte(`{"id": "u-1", "v": 1}`)))
	decode(t, e.write(h, []byte(`{"id": "u-1", "v": 2}`)))

	resp := decode(t, e.readByID(h, "u-1"))
	if !bytes.Equal(resp.Payload, []byte(`{"id": "u-1", "v": 2}`)) {
		t.Errorf("expected the second write to win, got %s", resp.Payload)
	}

	resp = decode(t, e.readAll(h))
	var count int
	for _, b := range resp.Payload {
		if b == '{' {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one stored document, payload: %s", resp.Payload)
	}
}

func TestWriteRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  []byte
		want engine.Kind
	}{
		{"not json", []byte("not json"), engine.KindSerializationError},
		{"json array", []byte(`[1, 2]`), engine.KindSerializationError},
		{"json null", []byte(`null`), engine.KindSerializationError},
		{"missing id", []byte(`{"name": "Ada"}`), engine.KindValidationError},
		{"empty id", []byte(`{"id": ""}`), engine.KindValidationError},
		{"numeric id", []byte(`{"id": 7}`), engine.KindValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngineState()
			h := e.create("/data/users.db")

			resp := decode(t, e.write(h, tt.doc))
			if resp.Kind != tt.want {
				t.Errorf("expected %s, got %s (%s)", tt.want, resp.Kind, resp.Message)
			}
			if resp.Message == "" {
				t.Error("expected the error to carry a message")
			}
		})
	}
}

func TestReadMissingKey(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	resp := decode(t, e.readByID(h, "absent"))
	if resp.Kind != engine.KindNotFound {
		t.Errorf("expected NotFound, got %s", resp.Kind)
	}
}

func TestDelete(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	decode(t, e.write(h, []byte(`{"id": "u-1"}`)))

	resp := decode(t, e.remove(h, "u-1"))
	if resp.Kind != engine.KindOk {
		t.Fatalf("expected Ok, got %s", resp.Kind)
	}
	resp = decode(t, e.readByID(h, "u-1"))
	if resp.Kind != engine.KindNotFound {
		t.Errorf("expected the document to be gone, got %s", resp.Kind)
	}

	resp = decode(t, e.remove(h, "u-1"))
	if resp.Kind != engine.KindNotFound {
		t.Errorf("expected NotFound for a second delete, got %s", resp.Kind)
	}
}

func TestReadAllSortedByID(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	for _, doc := range []string{`{"id":"c"}`, `{"id":"a"}`, `{"id":"b"}`} {
		decode(t, e.write(h, []byte(doc)))
	}

	resp := decode(t, e.readAll(h))
	want := `[{"id":"a"},{"id":"b"},{"id":"c"}]`
	if string(resp.Payload) != want {
		t.Errorf("expected %s, got %s", want, resp.Payload)
	}
}

func TestClear(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	decode(t, e.write(h, []byte(`{"id": "u-1"}`)))
	resp := decode(t, e.clear(h))
	if resp.Kind != engine.KindOk {
		t.Fatalf("expected Ok, got %s", resp.Kind)
	}

	resp = decode(t, e.readAll(h))
	if string(resp.Payload) != "[]" {
		t.Errorf("expected an empty array after clear, got %s", resp.Payload)
	}
}

func TestCloseReleasesHandle(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	resp := decode(t, e.closeHandle(h))
	if resp.Kind != engine.KindOk {
		t.Fatalf("expected Ok, got %s", resp.Kind)
	}
	if e.isOpen(h) {
		t.Error("expected the handle to be closed")
	}

	resp = decode(t, e.readByID(h, "u-1"))
	if resp.Kind != engine.KindDatabaseError {
		t.Errorf("expected DatabaseError on a closed handle, got %s", resp.Kind)
	}
	resp = decode(t, e.closeHandle(h))
	if resp.Kind != engine.KindDatabaseError {
		t.Errorf("expected DatabaseError on a double close, got %s", resp.Kind)
	}
}

func TestReopenSeesPersistedDocuments(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	doc := []byte(`{"id": "u-1"}`)
	decode(t, e.write(h, doc))
	decode(t, e.closeHandle(h))

	h2 := e.create("/data/users.db")
	resp := decode(t, e.readByID(h2, "u-1"))
	if resp.Kind != engine.KindOk {
		t.Fatalf("expected the reopened database to keep its documents, got %s", resp.Kind)
	}
	if !bytes.Equal(resp.Payload, doc) {
		t.Errorf("expected %s, got %s", doc, resp.Payload)
	}
}

func TestResetKillsHandlesKeepsDocuments(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")
	decode(t, e.write(h, []byte(`{"id": "u-1"}`)))

	before := e.gen()
	e.reset()

	if got := e.gen(); got != before+1 {
		t.Errorf("expected the epoch to advance from %d, got %d", before, got)
	}
	if e.ping(h) != "" {
		t.Error("expected the old handle to stop answering pings")
	}
	resp := decode(t, e.readByID(h, "u-1"))
	if resp.Kind != engine.KindDatabaseError {
		t.Errorf("expected DatabaseError through a dead handle, got %s", resp.Kind)
	}

	// The database itself survives; only the handle died.
	h2 := e.create("/data/users.db")
	resp = decode(t, e.readByID(h2, "u-1"))
	if resp.Kind != engine.KindOk {
		t.Errorf("expected documents to survive the reset, got %s", resp.Kind)
	}
}

func TestPing(t *testing.T) {
	e := newEngineState()
	h := e.create("/data/users.db")

	if got := e.ping(h); got != "pong" {
		t.Errorf("expected pong, got %q", got)
	}
	if got := e.ping(h + 100); got != "" {
		t.Errorf("expected an empty answer for an unknown handle, got %q", got)
	}
}

func TestWireEncoding(t *testing.T) {
	resp := decode(t, okResponse([]byte(`{"id": "x"}`)))
	if resp.Kind != engine.KindOk || string(resp.Payload) != `{"id": "x"}` {
		t.Errorf("Ok encoding did not round-trip: %+v", resp)
	}

	resp = decode(t, notFoundResponse())
	if resp.Kind != engine.KindNotFound {
		t.Errorf("expected NotFound, got %s", resp.Kind)
	}

	resp = decode(t, errorResponse(kindValidationError, "bad request"))
	if resp.Kind != engine.KindValidationError || resp.Message != "bad request" {
		t.Errorf("error encoding did not round-trip: %+v", resp)
	}
}
