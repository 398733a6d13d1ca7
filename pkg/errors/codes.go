package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique identifier for specific error conditions in healthbeacon.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001
	ErrCodeTreeInvalid   ErrorCode = 1002

	// FIFO channel
	ErrCodeFIFOOpen  ErrorCode = 2001
	ErrCodeFIFOWrite ErrorCode = 2002
	ErrCodeFIFOClose ErrorCode = 2003

	// UDP channel
	ErrCodeUDPResolve ErrorCode = 3001
	ErrCodeUDPSocket  ErrorCode = 3002
	ErrCodeUDPSend    ErrorCode = 3003

	// Shutdown
	ErrCodeStopFailed    ErrorCode = 4001
	ErrCodeDestroyFailed ErrorCode = 4002

	// Receiver
	ErrCodePayloadInvalid ErrorCode = 5001
)

// BeaconError is a custom error type that provides structured error information,
// including an error code, the operation being performed, and the underlying cause.
type BeaconError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *BeaconError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *BeaconError) Unwrap() error {
	return e.Err
}

// New creates a new BeaconError with the specified code, operation, message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &BeaconError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

// Is reports whether any error in err's chain is a BeaconError carrying code.
func Is(err error, code ErrorCode) bool {
	var be *BeaconError
	if stderrors.As(err, &be) {
		return be.Code == code
	}
	return false
}
