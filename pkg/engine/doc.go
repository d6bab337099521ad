// Package engine defines the language-neutral contract between the Go host
// and the CofferDB storage engine.
//
// # Overview
//
// CofferDB is an externally-compiled, stateful document-store engine. The
// host reaches it through a foreign-function boundary: the engine hands out
// one opaque handle per open database, and every subsequent operation takes
// that handle back across the boundary. This package owns the vocabulary of
// that boundary; it contains no wasm, pooling, or lifecycle machinery.
//
// # Core Types
//
//   - Handle: an opaque native database reference (zero means "no handle")
//   - Engine: the typed surface of one loaded engine instance
//   - Response: the tagged result every data operation returns
//   - HostError: the classified error used everywhere in the host
//
// # Tagged Responses
//
// The engine answers data operations with a single-key JSON object whose key
// names the outcome:
//
//	{"Ok": <payload>}
//	{"NotFound": null}
//	{"DatabaseError": "<message>"}
//
// The key set is closed (see Kind). DecodeResponse rejects anything that is
// not exactly one known key, so callers can switch over Kind exhaustively
// instead of sniffing strings.
//
// # Error Classification
//
// Errors are classified so the lifecycle layer can decide what is retryable
// during recovery and what must surface to the caller:
//
//   - ClassLoad: engine binary not found or not loadable
//   - ClassBinding: a required export is missing (host/engine version skew)
//   - ClassConnection: validation and recreation both failed
//   - ClassValidation: malformed request, never crossed the boundary
//   - ClassSerialization: a payload violated the response protocol
//   - ClassDatabase: engine-internal failure, propagated with context
//   - ClassNotFound: the engine reports an absent key
//
// Use the predicate helpers to inspect errors:
//
//	if engine.IsConnectionInvalid(err) {
//	    // advise a process restart
//	}
//
// # Optional Entries
//
// Older engine builds predate the liveness ping and the generation counter.
// Engine implementations report what they actually bound through Supports,
// and callers must degrade gracefully when a Feature is absent.
package engine
