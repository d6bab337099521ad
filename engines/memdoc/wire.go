package main

import (
	"encoding/json"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// Wire tags, taken from the host's response codec so encoder and
// decoder cannot drift.
var (
	kindOk                 = string(engine.KindOk)
	kindNotFound           = string(engine.KindNotFound)
	kindDatabaseError      = string(engine.KindDatabaseError)
	kindSerializationError = string(engine.KindSerializationError)
	kindValidationError    = string(engine.KindValidationError)
)

var okPrefix = []byte(`{"` + kindOk + `":`)

// okResponse wraps an already-encoded payload in the Ok tag. The
// payload is spliced verbatim so stored documents come back
// byte-for-byte, not re-encoded.
func okResponse(payload []byte) []byte {
	out := make([]byte, 0, len(okPrefix)+len(payload)+1)
	out = append(out, okPrefix...)
	out = append(out, payload...)
	return append(out, '}')
}

func notFoundResponse() []byte {
	out, _ := json.Marshal(map[string]any{kindNotFound: nil})
	return out
}

func errorResponse(kind, message string) []byte {
	out, err := json.Marshal(map[string]string{kind: message})
	if err != nil {
		return []byte(`{"` + kindDatabaseError + `": "failed to encode error"}`)
	}
	return out
}
