package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an error for the caller's retry and recovery logic.
type ErrorClass string

const (
	// ErrorClassTransient indicates a temporary failure that may succeed on
	// retry. Snapshot fetch timeouts fall in this class; the core itself
	// never produces transient errors.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassPermanent indicates a non-recoverable failure such as a
	// malformed graph or an unknown filter. Retrying the same input cannot
	// succeed.
	ErrorClassPermanent ErrorClass = "permanent"
)

// EngineError is a classified error with resource and operation context.
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Code is the machine-readable error code.
	Code string `json:"code,omitempty"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Resource is the resource ID that caused the error, if applicable.
	Resource string `json:"resource,omitempty"`

	// Operation is the operation in progress when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Resource != "" {
		msg += fmt.Sprintf(" (resource=%s)", e.Resource)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two engine errors match when
// their class and code match.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// WithResource adds resource context to the error.
func (e *EngineError) WithResource(id string) *EngineError {
	e.Resource = id
	return e
}

// WithOperation adds operation context to the error.
func (e *EngineError) WithOperation(op string) *EngineError {
	e.Operation = op
	return e
}

// Error codes produced by the engine and its consumers.
const (
	// ErrCodeMalformedGraph marks a graph that failed validation: duplicate
	// resource ID, dangling edge endpoint, self loop, or dependency cycle.
	ErrCodeMalformedGraph = "MALFORMED_GRAPH"

	// ErrCodeAmbiguousLock marks a lock resource that does not have exactly
	// one dependency edge, so its protected target cannot be determined.
	ErrCodeAmbiguousLock = "AMBIGUOUS_LOCK"

	// ErrCodeUnknownFilter marks an evaluation request naming a filter that
	// is not registered.
	ErrCodeUnknownFilter = "UNKNOWN_FILTER"

	// ErrCodeUnknownResource marks a gate request for a resource absent from
	// the graph the index was derived from.
	ErrCodeUnknownResource = "UNKNOWN_RESOURCE"

	// ErrCodeValidation marks a generic input validation failure.
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeProviderFailed marks a snapshot provider failure.
	ErrCodeProviderFailed = "PROVIDER_FAILED"

	// ErrCodeInternal marks an invariant violation inside the engine.
	ErrCodeInternal = "INTERNAL_ERROR"
)

// NewMalformedGraphError creates a permanent error for an invalid graph.
func NewMalformedGraphError(message string) *EngineError {
	return &EngineError{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeMalformedGraph,
		Message: message,
	}
}

// NewAmbiguousLockError creates a permanent error for a lock whose protected
// target cannot be determined.
func NewAmbiguousLockError(lockID string, edges int) *EngineError {
	return &EngineError{
		Class:    ErrorClassPermanent,
		Code:     ErrCodeAmbiguousLock,
		Message:  fmt.Sprintf("lock must have exactly one dependency edge, found %d", edges),
		Resource: lockID,
	}
}

// NewUnknownFilterError creates a permanent error for an unregistered filter.
func NewUnknownFilterError(name string) *EngineError {
	return &EngineError{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeUnknownFilter,
		Message: fmt.Sprintf("unknown filter: %s", name),
	}
}

// NewUnknownResourceError creates a permanent error for a resource ID absent
// from the graph.
func NewUnknownResourceError(id string) *EngineError {
	return &EngineError{
		Class:    ErrorClassPermanent,
		Code:     ErrCodeUnknownResource,
		Message:  "resource not present in evaluated graph",
		Resource: id,
	}
}

// NewPermanentError creates a generic permanent error wrapping err.
func NewPermanentError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassPermanent,
		Message: message,
		Err:     err,
	}
}

// WithCode adds an error code to the error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// hasCode reports whether err is an EngineError carrying the given code.
func hasCode(err error, code string) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsMalformedGraph reports whether err is a malformed-graph error.
func IsMalformedGraph(err error) bool { return hasCode(err, ErrCodeMalformedGraph) }

// IsAmbiguousLock reports whether err is an ambiguous-lock error.
func IsAmbiguousLock(err error) bool { return hasCode(err, ErrCodeAmbiguousLock) }

// IsUnknownFilter reports whether err is an unknown-filter error.
func IsUnknownFilter(err error) bool { return hasCode(err, ErrCodeUnknownFilter) }

// IsUnknownResource reports whether err is an unknown-resource error.
func IsUnknownResource(err error) bool { return hasCode(err, ErrCodeUnknownResource) }
