// Package errors provides centralized error definitions and error handling
// utilities for Consortium. It defines the sentinel errors of the engine
// pipeline, the domain error types that carry engine and depth context, and
// classification helpers.
//
// # Error Types
//
//   - EngineError: a failure talking to one supervised engine process
//   - BarrierError: a depth-synchronized row that could not be assembled
//   - ValidationError: invalid operator input or configuration
//
// # Usage
//
//	err := errors.NewEngineError("handshake", errors.ErrHandshakeTimeout).
//	    WithEngine("stockfish").WithCommand("uci")
//
//	if errors.Is(err, errors.ErrHandshakeTimeout) { ... }
//
//	var barrierErr *errors.BarrierError
//	if errors.As(err, &barrierErr) { ... }
//
// # Error Classification
//
// Errors carry a Severity, read with GetSeverity. Handshake timeouts and
// write failures are warnings: the engine keeps running in a degraded
// state. Barrier violations are errors because they point to an upstream
// protocol or depth-accounting defect. Spawn failures are critical and end
// the session.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are expected control flow.
	SeverityDebug Severity = iota
	// SeverityWarning is for errors that degrade but do not stop a session.
	SeverityWarning
	// SeverityError is for errors that abort the current operation.
	SeverityError
	// SeverityCritical is for errors that end the session.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Engine-related sentinel errors
var (
	// ErrHandshakeTimeout indicates an engine did not acknowledge a handshake step in time.
	ErrHandshakeTimeout = New("handshake timed out")
	// ErrExpectationPending indicates a second expectation was armed on an engine
	// that is already waiting for a response.
	ErrExpectationPending = New("expectation already pending")
	// ErrEngineExited indicates the engine process is no longer running.
	ErrEngineExited = New("engine exited")
	// ErrEngineNotStarted indicates an operation needs a started engine.
	ErrEngineNotStarted = New("engine not started")
	// ErrSpawnFailed indicates the engine executable could not be started.
	ErrSpawnFailed = New("engine failed to start")
)

// Pipeline-related sentinel errors
var (
	// ErrMissingDepthReport indicates that an active engine has no report at
	// the depth the barrier is about to print.
	ErrMissingDepthReport = New("no report at target depth")
	// ErrStreamClosed indicates the shared event stream has been closed.
	ErrStreamClosed = New("stream closed")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// EngineError represents a failure communicating with one engine process.
//
// Example:
//
//	err := errors.NewEngineError("awaiting readyok", errors.ErrHandshakeTimeout)
//	err = err.WithEngine("komodo").WithCommand("isready")
//	fmt.Println(err) // "engine error [engine=komodo, command=isready]: awaiting readyok: handshake timed out"
type EngineError struct {
	baseError
	Engine  string
	Command string
}

// NewEngineError creates a new EngineError. Timeouts default to warning
// severity; everything else is an error.
func NewEngineError(message string, cause error) *EngineError {
	severity := SeverityError
	if errors.Is(cause, ErrHandshakeTimeout) || errors.Is(cause, ErrTimeout) {
		severity = SeverityWarning
	}
	return &EngineError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: severity,
		},
	}
}

// WithEngine adds the engine name to the error context.
func (e *EngineError) WithEngine(name string) *EngineError {
	e.Engine = name
	return e
}

// WithCommand adds the command being sent to the error context.
func (e *EngineError) WithCommand(command string) *EngineError {
	e.Command = command
	return e
}

// WithSeverity sets the error severity.
func (e *EngineError) WithSeverity(s Severity) *EngineError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *EngineError) Error() string {
	var parts []string
	if e.Engine != "" {
		parts = append(parts, fmt.Sprintf("engine=%s", e.Engine))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%s", e.Command))
	}
	return e.format("engine error", parts)
}

// BarrierError reports that the depth barrier fired for Depth while Engine
// had no qualifying report at exactly that depth. The row for that depth is
// abandoned.
type BarrierError struct {
	baseError
	Engine string
	Depth  int
}

// NewBarrierError creates a new BarrierError wrapping ErrMissingDepthReport.
func NewBarrierError(engine string, depth int) *BarrierError {
	return &BarrierError{
		baseError: baseError{
			message:  "cannot assemble synchronized row",
			cause:    ErrMissingDepthReport,
			severity: SeverityError,
		},
		Engine: engine,
		Depth:  depth,
	}
}

// Error returns the formatted error message.
func (e *BarrierError) Error() string {
	return e.format("barrier error", []string{
		fmt.Sprintf("engine=%s", e.Engine),
		fmt.Sprintf("depth=%d", e.Depth),
	})
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("engine name must be unique").WithField("engines[1].name")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			cause:    ErrInvalidInput,
			severity: SeverityWarning,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// severer is implemented by every error type in this package.
type severer interface {
	Severity() Severity
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't carry one.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var s severer
	if As(err, &s) {
		return s.Severity()
	}
	return SeverityError
}
