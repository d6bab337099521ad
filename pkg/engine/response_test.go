package engine

import (
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    Kind
		wantPayload string
		wantMessage string
	}{
		{
			name:        "ok with document",
			raw:         `{"Ok": {"id": "abc", "total": 12}}`,
			wantKind:    KindOk,
			wantPayload: `{"id": "abc", "total": 12}`,
		},
		{
			name:        "ok with array",
			raw:         `{"Ok": [{"id": "a"}, {"id": "b"}]}`,
			wantKind:    KindOk,
			wantPayload: `[{"id": "a"}, {"id": "b"}]`,
		},
		{
			name:        "ok with null",
			raw:         `{"Ok": null}`,
			wantKind:    KindOk,
			wantPayload: `null`,
		},
		{
			name:     "not found",
			raw:      `{"NotFound": null}`,
			wantKind: KindNotFound,
		},
		{
			name:        "database error",
			raw:         `{"DatabaseError": "disk I/O error"}`,
			wantKind:    KindDatabaseError,
			wantMessage: "disk I/O error",
		},
		{
			name:        "serialization error",
			raw:         `{"SerializationError": "invalid utf-8"}`,
			wantKind:    KindSerializationError,
			wantMessage: "invalid utf-8",
		},
		{
			name:        "validation error",
			raw:         `{"ValidationError": "document has no id"}`,
			wantKind:    KindValidationError,
			wantMessage: "document has no id",
		},
		{
			name:        "bad request",
			raw:         `{"BadRequest": "handle is null"}`,
			wantKind:    KindBadRequest,
			wantMessage: "handle is null",
		},
		{
			name:        "structured error message kept as raw text",
			raw:         `{"DatabaseError": {"code": 5, "detail": "busy"}}`,
			wantKind:    KindDatabaseError,
			wantMessage: `{"code": 5, "detail": "busy"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := DecodeResponse([]byte(tt.raw))
			if err != nil {
				t.Fatalf("DecodeResponse() error = %v, want nil", err)
			}
			if resp.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", resp.Kind, tt.wantKind)
			}
			if string(resp.Payload) != tt.wantPayload {
				t.Errorf("Payload = %q, want %q", resp.Payload, tt.wantPayload)
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestDecodeResponseProtocolViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ""},
		{"not json", "definitely not json"},
		{"json scalar", `42`},
		{"json array", `[1, 2]`},
		{"empty object", `{}`},
		{"unknown tag", `{"Shrug": null}`},
		{"two tags", `{"Ok": null, "NotFound": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse([]byte(tt.raw))
			if err == nil {
				t.Fatalf("DecodeResponse() error = nil, want serialization error")
			}
			if !IsSerializationFailure(err) {
				t.Errorf("IsSerializationFailure() = false, got error %v", err)
			}
		})
	}
}

func TestResponseHelpers(t *testing.T) {
	ok := Response{Kind: KindOk, Payload: []byte(`{}`)}
	if !ok.Ok() {
		t.Errorf("Ok() = false for KindOk, want true")
	}
	if ok.NotFound() {
		t.Errorf("NotFound() = true for KindOk, want false")
	}

	missing := Response{Kind: KindNotFound}
	if missing.Ok() {
		t.Errorf("Ok() = true for KindNotFound, want false")
	}
	if !missing.NotFound() {
		t.Errorf("NotFound() = false for KindNotFound, want true")
	}
}

func TestResponseErr(t *testing.T) {
	tests := []struct {
		name    string
		resp    Response
		wantNil bool
		pred    func(error) bool
	}{
		{"ok maps to nil", Response{Kind: KindOk}, true, nil},
		{"not found maps to nil", Response{Kind: KindNotFound}, true, nil},
		{"database error", Response{Kind: KindDatabaseError, Message: "m"}, false, IsDatabaseFailure},
		{"serialization error", Response{Kind: KindSerializationError, Message: "m"}, false, IsSerializationFailure},
		{"validation error", Response{Kind: KindValidationError, Message: "m"}, false, IsValidationFailure},
		{"bad request maps to validation", Response{Kind: KindBadRequest, Message: "m"}, false, IsValidationFailure},
		{"unknown kind maps to serialization", Response{Kind: Kind("Mystery")}, false, IsSerializationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resp.Err()
			if tt.wantNil {
				if err != nil {
					t.Fatalf("Err() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Err() = nil, want an error")
			}
			if !tt.pred(err) {
				t.Errorf("classification predicate = false for %v", err)
			}
		})
	}
}
