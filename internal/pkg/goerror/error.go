package goerror

import (
	"errors"
	"fmt"
)

// ErrMissingField indicates that a response lacked a field the flow depends on.
var ErrMissingField = errors.New("required field missing")

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeStep represents a step whose response reported failure.
	TypeStep Type = iota
	// TypeTransport represents network level failures (refused, timeout, cancelled).
	TypeTransport
	// TypeParse represents a response body that could not be decoded.
	TypeParse
	// TypeConfig represents invalid configuration or generated test data.
	TypeConfig
)

// String returns the string representation of the error type.
func (t Type) String() string {
	switch t {
	case TypeStep:
		return "ERROR_TYPE_STEP"
	case TypeTransport:
		return "ERROR_TYPE_TRANSPORT"
	case TypeParse:
		return "ERROR_TYPE_PARSE"
	case TypeConfig:
		return "ERROR_TYPE_CONFIG"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

const (
	// ExitOK is returned when every step succeeded.
	ExitOK = 0
	// ExitFailure is returned when a step failed for any reason.
	ExitFailure = 1
	// ExitConfig is returned when the run could not start.
	ExitConfig = 2
)

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, and the name of the step that produced it.
type Error struct {
	err     error
	msg     string
	errType Type
	step    string
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.msg
	if msg == "" {
		msg = e.defaultMsg()
	}

	if e.step != "" {
		msg = e.step + ": " + msg
	}

	if e.err != nil {
		return msg + ": " + e.err.Error()
	}

	return msg
}

func (e *Error) defaultMsg() string {
	switch e.errType {
	case TypeStep:
		return "step reported failure"
	case TypeTransport:
		return "request failed"
	case TypeParse:
		return "invalid response body"
	case TypeConfig:
		return "invalid configuration"
	default:
		return "unknown error"
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Step: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.step,
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Step returns the step name the error belongs to, if any.
func (e *Error) Step() string {
	return e.step
}

// Fields returns validation errors (field to message map), if any.
func (e *Error) Fields() map[string]string {
	return e.fields
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// ExitCode maps the error type to a process exit status.
func (e *Error) ExitCode() int {
	if e.errType == TypeConfig {
		return ExitConfig
	}
	return ExitFailure
}

func new(err error, msg string, et Type, step string) *Error {
	return &Error{err: err, msg: msg, errType: et, step: step}
}

// NewStep creates a step failure for a response whose success flag is not truthy.
func NewStep(step, msg string) error {
	return new(nil, msg, TypeStep, step)
}

// NewMissingField creates a step failure for a response missing a required field.
func NewMissingField(step, field string) error {
	return new(fmt.Errorf("%w: %s", ErrMissingField, field), "unexpected response", TypeStep, step)
}

// NewTransport creates a transport failure wrapping the client error.
func NewTransport(step string, err error) error {
	return new(err, "", TypeTransport, step)
}

// NewParse creates a parse failure wrapping the decoder error.
func NewParse(step string, err error) error {
	return new(err, "", TypeParse, step)
}

// NewConfig creates a configuration error. Validation errors exposing a
// Values() map have their fields attached.
func NewConfig(err error, msg string) error {
	e := new(err, msg, TypeConfig, "")

	var fielder interface{ Values() map[string]string }
	if errors.As(err, &fielder) {
		e.fields = fielder.Values()
	}

	return e
}

// ExitCode returns the exit status for any error: ExitOK for nil, the mapped
// code for *Error, and ExitFailure otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge.ExitCode()
	}

	return ExitFailure
}
