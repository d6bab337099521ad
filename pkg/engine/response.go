package engine

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates the closed set of tagged-response outcomes. The engine
// never emits anything outside this set; a payload that does is a protocol
// violation and decodes to an error instead of a Response.
type Kind string

const (
	// KindOk carries the operation payload (a document, an array, or null).
	KindOk Kind = "Ok"

	// KindNotFound reports an absent key.
	KindNotFound Kind = "NotFound"

	// KindDatabaseError reports an engine-internal failure.
	KindDatabaseError Kind = "DatabaseError"

	// KindSerializationError reports a payload the engine could not decode.
	KindSerializationError Kind = "SerializationError"

	// KindValidationError reports a request the engine rejected as malformed.
	KindValidationError Kind = "ValidationError"

	// KindBadRequest reports a structurally broken request envelope.
	KindBadRequest Kind = "BadRequest"
)

// knownKinds is the closed tag set, in the order the boundary documents them.
var knownKinds = [...]Kind{
	KindOk,
	KindNotFound,
	KindDatabaseError,
	KindSerializationError,
	KindValidationError,
	KindBadRequest,
}

// Response is one decoded tagged response from the engine.
//
// Exactly one of Payload or Message is meaningful: KindOk carries Payload,
// KindNotFound carries neither, and the error kinds carry Message.
type Response struct {
	// Kind is the outcome tag.
	Kind Kind `json:"kind"`

	// Payload is the raw JSON payload for KindOk responses.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Message is the engine-supplied text for error-kind responses.
	Message string `json:"message,omitempty"`
}

// Ok reports whether the response carries a successful payload.
func (r Response) Ok() bool {
	return r.Kind == KindOk
}

// NotFound reports whether the engine answered "no such key".
func (r Response) NotFound() bool {
	return r.Kind == KindNotFound
}

// Err converts an error-kind response into the matching classified error.
// KindOk and KindNotFound return nil; the caller decides what absence means
// for its operation.
func (r Response) Err() error {
	switch r.Kind {
	case KindOk, Kind(""):
		return nil
	case KindNotFound:
		return nil
	case KindDatabaseError:
		return NewDatabaseError(r.Message, nil)
	case KindSerializationError:
		return NewSerializationError(r.Message, nil)
	case KindValidationError:
		return NewValidationError(r.Message, nil)
	case KindBadRequest:
		return NewValidationError(r.Message, nil)
	default:
		return NewSerializationError(fmt.Sprintf("unknown response tag %q", r.Kind), nil)
	}
}

// DecodeResponse parses the single-key tagged object the engine returns.
// Anything other than exactly one known key is a protocol violation and
// yields a serialization-classed error.
func DecodeResponse(raw []byte) (Response, error) {
	if len(raw) == 0 {
		return Response{}, NewSerializationError("empty response from engine", nil)
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return Response{}, NewSerializationError("response is not a JSON object", err)
	}

	if len(tagged) != 1 {
		return Response{}, NewSerializationError(
			fmt.Sprintf("response must carry exactly one tag, got %d", len(tagged)), nil)
	}

	for _, kind := range knownKinds {
		value, present := tagged[string(kind)]
		if !present {
			continue
		}

		resp := Response{Kind: kind}
		switch kind {
		case KindOk:
			resp.Payload = value
		case KindNotFound:
			// Carries no payload; the tag is the whole answer.
		default:
			var msg string
			if err := json.Unmarshal(value, &msg); err != nil {
				// Some engine builds wrap the message in an object; keep
				// the raw text rather than losing the diagnostic.
				msg = string(value)
			}
			resp.Message = msg
		}
		return resp, nil
	}

	for key := range tagged {
		return Response{}, NewSerializationError(fmt.Sprintf("unknown response tag %q", key), nil)
	}
	return Response{}, NewSerializationError("empty response object", nil)
}
