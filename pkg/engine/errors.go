package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of a boundary error for recovery
// and reporting logic.
type ErrorClass string

const (
	// ClassLoad indicates the engine binary could not be located or
	// instantiated. Scoped to the call that observed it; a later call may
	// find the binary in place.
	ClassLoad ErrorClass = "load"

	// ClassBinding indicates a required native entry is missing from the
	// loaded engine. Almost always a host/engine version mismatch.
	ClassBinding ErrorClass = "binding"

	// ClassConnection indicates handle validation and recreation both
	// failed within the recovery budget. Callers should retry later or
	// prompt for a restart.
	ClassConnection ErrorClass = "connection"

	// ClassValidation indicates a malformed request that never crossed
	// the boundary.
	ClassValidation ErrorClass = "validation"

	// ClassSerialization indicates a payload that violated the response
	// protocol in either direction.
	ClassSerialization ErrorClass = "serialization"

	// ClassDatabase indicates an engine-internal failure, propagated with
	// context.
	ClassDatabase ErrorClass = "database"

	// ClassNotFound indicates the engine reported an absent key. The store
	// facade converts this into an absent-value success for reads and
	// deletes; it surfaces as an error only from lower layers.
	ClassNotFound ErrorClass = "not_found"
)

// HostError represents a classified error raised on the host side of the
// engine boundary.
type HostError struct {
	// Class is the error classification for recovery logic.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Database is the logical database name involved, if applicable.
	Database string `json:"database,omitempty"`

	// Op is the operation being performed when the error occurred.
	Op string `json:"op,omitempty"`

	// Attempts is how many recreation attempts were spent before the error
	// surfaced. Only set on connection errors.
	Attempts int `json:"attempts,omitempty"`

	// Attempted lists every binary name the loader tried. Only set on load
	// errors raised after all strategies were exhausted.
	Attempted []string `json:"attempted,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *HostError) Error() string {
	var context string
	switch {
	case e.Database != "" && e.Op != "":
		context = fmt.Sprintf(" (database=%s, op=%s)", e.Database, e.Op)
	case e.Database != "":
		context = fmt.Sprintf(" (database=%s)", e.Database)
	case e.Op != "":
		context = fmt.Sprintf(" (op=%s)", e.Op)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s%s: %s", e.Class, e.Message, context, e.Err.Error())
	}
	return fmt.Sprintf("[%s] %s%s", e.Class, e.Message, context)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *HostError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is. Two host errors are
// equal when they share a class; message and context are diagnostics.
func (e *HostError) Is(target error) bool {
	t, ok := target.(*HostError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// NewLoadError creates a new load-classed error.
func NewLoadError(message string, err error) *HostError {
	return &HostError{
		Class:   ClassLoad,
		Message: message,
		Err:     err,
	}
}

// NewBindingError creates a new binding-classed error.
func NewBindingError(message string, err error) *HostError {
	return &HostError{
		Class:   ClassBinding,
		Message: message,
		Err:     err,
	}
}

// NewConnectionError creates a new connection-classed error.
func NewConnectionError(message string, err error) *HostError {
	return &HostError{
		Class:   ClassConnection,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a new validation-classed error.
func NewValidationError(message string, err error) *HostError {
	return &HostError{
		Class:   ClassValidation,
		Message: message,
		Err:     err,
	}
}

// NewSerializationError creates a new serialization-classed error.
func NewSerializationError(message string, err error) *HostError {
	return &HostError{
		Class:   ClassSerialization,
		Message: message,
		Err:     err,
	}
}

// NewDatabaseError creates a new database-classed error.
func NewDatabaseError(message string, err error) *HostError {
	return &HostError{
		Class:   ClassDatabase,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not-found-classed error.
func NewNotFoundError(message string, err error) *HostError {
	return &HostError{
		Class:   ClassNotFound,
		Message: message,
		Err:     err,
	}
}

// WithDatabase adds the logical database name to an error.
func (e *HostError) WithDatabase(name string) *HostError {
	e.Database = name
	return e
}

// WithOp adds operation context to an error.
func (e *HostError) WithOp(op string) *HostError {
	e.Op = op
	return e
}

// WithAttempts records how many recreation attempts preceded the error.
func (e *HostError) WithAttempts(attempts int) *HostError {
	e.Attempts = attempts
	return e
}

// WithAttempted records the binary names the loader tried before giving up.
func (e *HostError) WithAttempted(names []string) *HostError {
	e.Attempted = names
	return e
}

// IsLoadFailure returns true if the error is classified as a load failure.
func IsLoadFailure(err error) bool {
	var e *HostError
	if errors.As(err, &e) {
		return e.Class == ClassLoad
	}
	return false
}

// IsBindingFailure returns true if the error is classified as a binding
// failure.
func IsBindingFailure(err error) bool {
	var e *HostError
	if errors.As(err, &e) {
		return e.Class == ClassBinding
	}
	return false
}

// IsConnectionInvalid returns true if the error is classified as a
// connection failure.
func IsConnectionInvalid(err error) bool {
	var e *HostError
	if errors.As(err, &e) {
		return e.Class == ClassConnection
	}
	return false
}

// IsValidationFailure returns true if the error is classified as a
// validation failure.
func IsValidationFailure(err error) bool {
	var e *HostError
	if errors.As(err, &e) {
		return e.Class == ClassValidation
	}
	return false
}

// IsSerializationFailure returns true if the error is classified as a
// serialization failure.
func IsSerializationFailure(err error) bool {
	var e *HostError
	if errors.As(err, &e) {
		return e.Class == ClassSerialization
	}
	return false
}

// IsDatabaseFailure returns true if the error is classified as a database
// failure.
func IsDatabaseFailure(err error) bool {
	var e *HostError
	if errors.As(err, &e) {
		return e.Class == ClassDatabase
	}
	return false
}

// IsNotFound returns true if the error is classified as not-found.
func IsNotFound(err error) bool {
	var e *HostError
	if errors.As(err, &e) {
		return e.Class == ClassNotFound
	}
	return false
}

// IsRetryable returns true if a later identical call may succeed without
// operator action. Load failures are scoped to the call that observed them,
// and connection failures can clear once the environment stabilizes.
func IsRetryable(err error) bool {
	return IsLoadFailure(err) || IsConnectionInvalid(err)
}
