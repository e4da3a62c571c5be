// Package errors defines the typed error taxonomy shared across the tree
// builder, dataflow graph and executor packages: a code-tagged AppError that
// wraps its cause, plus one constructor per failure class.
package errors

import (
	"errors"
	"fmt"
)

// Error codes, one per failure class surfaced by the public API.
const (
	CodeUnknown = "UNKNOWN_ERROR"

	// CodeInvalidArgument marks a malformed caller-supplied argument (e.g. a
	// negative top-N, an unknown enum string).
	CodeInvalidArgument = "INVALID_ARGUMENT"
	// CodeIOFailure marks a failure reading a sample or library-map file.
	CodeIOFailure = "IO_FAILURE"
	// CodeResolutionMissing marks an OffsetResolver failure. This is not fatal:
	// the caller synthesizes an unknown frame and continues.
	CodeResolutionMissing = "RESOLUTION_MISSING"
	// CodeCycle marks a cycle detected while topologically sorting a graph.
	CodeCycle = "CYCLE_ERROR"
	// CodeGraphSchema marks a structural problem with a dataflow graph: an
	// unconnected required input, a duplicate edge, a missing port.
	CodeGraphSchema = "GRAPH_SCHEMA_ERROR"
	// CodeNodeExecution wraps a failure raised while executing a dataflow
	// node; Err holds the underlying cause and Message names the node.
	CodeNodeExecution = "NODE_EXECUTION_ERROR"
	// CodeInvariantViolation marks an internal consistency check failing
	// (e.g. inclusive < self). Debug builds should treat this as fatal.
	CodeInvariantViolation = "INVARIANT_VIOLATION"
)

// AppError is a code-tagged error with an optional wrapped cause. Two
// AppErrors compare equal under errors.Is when their codes match, so callers
// branch on the class of failure, not the message text.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an AppError with no underlying cause.
func New(code string, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError around an underlying cause.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewInvalidArgument reports a malformed caller-supplied argument.
func NewInvalidArgument(message string) *AppError {
	return New(CodeInvalidArgument, message)
}

// NewIOFailure wraps an I/O error encountered reading sample/library-map data.
func NewIOFailure(message string, err error) *AppError {
	return Wrap(CodeIOFailure, message, err)
}

// NewResolutionMissing reports an address an OffsetResolver could not map.
func NewResolutionMissing(message string) *AppError {
	return New(CodeResolutionMissing, message)
}

// NewCycleError reports a cycle found while topologically sorting a graph.
// cyclePath names the nodes on (or feeding) the detected cycle.
func NewCycleError(cyclePath []string) *AppError {
	return &AppError{
		Code:    CodeCycle,
		Message: "cycle detected: " + joinNames(cyclePath),
	}
}

// NewGraphSchemaError reports a structural problem with a dataflow graph.
func NewGraphSchemaError(message string) *AppError {
	return New(CodeGraphSchema, message)
}

// NewNodeExecutionError wraps a failure raised while executing a named node.
func NewNodeExecutionError(nodeName string, err error) *AppError {
	return Wrap(CodeNodeExecution, "node \""+nodeName+"\" failed", err)
}

// NewInvariantViolation reports an internal consistency check failing.
func NewInvariantViolation(message string) *AppError {
	return New(CodeInvariantViolation, message)
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += " -> "
		}
		out += n
	}
	return out
}

// GetErrorCode extracts the code from any error, CodeUnknown if it carries none.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the message from any error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
