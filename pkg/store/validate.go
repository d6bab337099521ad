package store

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/cofferdb/coffer-go/pkg/engine"
)

// maxKeyBytes bounds document keys, in bytes rather than runes.
const maxKeyBytes = 255

var validate = validator.New()

// documentProbe is the envelope every stored document must satisfy: a
// JSON object carrying a non-empty string id.
type documentProbe struct {
	ID string `json:"id" validate:"required"`
}

// probeDocument checks a payload before it is allowed anywhere near the
// boundary and returns its id.
func probeDocument(doc []byte) (string, error) {
	if len(doc) == 0 {
		return "", engine.NewValidationError("document is empty", nil)
	}

	var probe documentProbe
	if err := json.Unmarshal(doc, &probe); err != nil {
		return "", engine.NewValidationError("document must be a JSON object with a string id", err)
	}
	if err := validate.Struct(probe); err != nil {
		return "", engine.NewValidationError("document id must be a non-empty string", err)
	}
	if len(probe.ID) > maxKeyBytes {
		return "", engine.NewValidationError("document id exceeds 255 bytes", nil)
	}
	return probe.ID, nil
}

// validateKey checks a lookup key against the same rules as document ids.
func validateKey(key string) error {
	if key == "" {
		return engine.NewValidationError("key must not be empty", nil)
	}
	if len(key) > maxKeyBytes {
		return engine.NewValidationError("key exceeds 255 bytes", nil)
	}
	return nil
}
