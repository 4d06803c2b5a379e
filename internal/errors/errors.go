// Package errors provides error classification and exit code mapping for color-ssh.
package errors

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"syscall"
)

// ErrorType represents the classification of errors
type ErrorType int

const (
	// UnknownErrorType represents unclassified errors
	UnknownErrorType ErrorType = iota

	// ArgumentErrorType represents malformed command line input, host tokens or color names
	ArgumentErrorType

	// ResourceErrorType represents unreadable files and processes that could not be spawned
	ResourceErrorType

	// SetupFailureType represents a setup command that exited non-zero
	SetupFailureType

	// BrokenPipeType represents a consumer that went away
	BrokenPipeType

	// InterruptType represents a keyboard interrupt or termination signal
	InterruptType
)

// Exit codes shared by both binaries.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitInterrupt = 130
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ArgumentErrorType:
		return "ArgumentError"
	case ResourceErrorType:
		return "ResourceError"
	case SetupFailureType:
		return "SetupFailure"
	case BrokenPipeType:
		return "BrokenPipe"
	case InterruptType:
		return "Interrupt"
	default:
		return "Error"
	}
}

// ClassifiedError wraps an error with classification information
type ClassifiedError struct {
	Type     ErrorType
	Original error
	Message  string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	switch {
	case ce.Message != "" && ce.Original != nil:
		return ce.Message + ": " + ce.Original.Error()
	case ce.Message != "":
		return ce.Message
	case ce.Original != nil:
		return ce.Original.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the original error for error unwrapping
func (ce *ClassifiedError) Unwrap() error {
	return ce.Original
}

// ClassifyError analyzes an error and returns its classification
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	var (
		pathErr *fs.PathError
		execErr *exec.Error
	)
	switch {
	case errors.Is(err, syscall.EPIPE):
		return &ClassifiedError{Type: BrokenPipeType, Original: err}
	case errors.Is(err, context.Canceled):
		return &ClassifiedError{Type: InterruptType, Original: err}
	case errors.As(err, &pathErr), errors.As(err, &execErr), errors.Is(err, fs.ErrNotExist):
		return &ClassifiedError{Type: ResourceErrorType, Original: err}
	}

	return &ClassifiedError{Type: UnknownErrorType, Original: err}
}

// Kind returns the display name of the error's classification
func Kind(err error) string {
	if err == nil {
		return ""
	}
	return ClassifyError(err).Type.String()
}

// Format renders err as "<ErrorKind>: <message>"
func Format(err error) string {
	return Kind(err) + ": " + err.Error()
}

// ExitCode maps an error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	switch ClassifyError(err).Type {
	case BrokenPipeType:
		return ExitOK
	case ArgumentErrorType:
		return ExitUsage
	case InterruptType:
		return ExitInterrupt
	default:
		return ExitFailure
	}
}

// NewArgumentError creates a new argument error
func NewArgumentError(message string, original error) *ClassifiedError {
	return &ClassifiedError{
		Type:     ArgumentErrorType,
		Original: original,
		Message:  message,
	}
}

// NewResourceError creates a new resource error
func NewResourceError(message string, original error) *ClassifiedError {
	return &ClassifiedError{
		Type:     ResourceErrorType,
		Original: original,
		Message:  message,
	}
}

// NewSetupFailure creates a new setup failure
func NewSetupFailure(message string, original error) *ClassifiedError {
	return &ClassifiedError{
		Type:     SetupFailureType,
		Original: original,
		Message:  message,
	}
}

// IsArgumentError reports whether err is classified as an argument error
func IsArgumentError(err error) bool {
	return err != nil && ClassifyError(err).Type == ArgumentErrorType
}
