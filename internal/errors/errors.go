package apperrors

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindExecutableNotFound Kind = "ExecutableNotFound" // restic binary missing
	KindCommandFailed      Kind = "CommandFailed"      // engine exited non-zero
	KindCancelled          Kind = "Cancelled"          // stopped by user request
	KindPathResolution     Kind = "PathResolution"     // no volume derivable from selection
	KindParse              Kind = "Parse"              // structured engine output undecodable
	KindConfig             Kind = "Config"             // invalid flags, missing required params
	KindConnection         Kind = "Connection"         // network issue reaching a target
	KindInternal           Kind = "Internal"           // unexpected internal failure
)

// AppError is a rich error type that categorizes failures and carries hints for users.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
	Hint    string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(k Kind, msg string, hint string) *AppError {
	return &AppError{
		Kind:    k,
		Message: msg,
		Hint:    hint,
	}
}

// Wrap wraps an existing error into an AppError
func Wrap(err error, k Kind, msg string, hint string) *AppError {
	return &AppError{
		Kind:    k,
		Message: msg,
		Err:     err,
		Hint:    hint,
	}
}

// IsKind reports whether err is (or wraps) an AppError of the given kind.
func IsKind(err error, k Kind) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind == k
	}
	return false
}
