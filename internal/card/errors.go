package card

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType categorizes card failures.
type ErrorType string

const (
	// ErrTypeValidation means the card was asked to do something its input
	// does not allow. No state changes.
	ErrTypeValidation ErrorType = "validation"

	// ErrTypeTransfer covers network and service failures while analyzing.
	ErrTypeTransfer ErrorType = "transfer"

	// ErrTypeTimeout means the analysis provider exceeded its bound.
	ErrTypeTimeout ErrorType = "timeout"
)

// Error is a categorized card error.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var (
	ErrNoInput          = &Error{Type: ErrTypeValidation, Message: "no file selected"}
	ErrEmptyText        = &Error{Type: ErrTypeValidation, Message: "text is empty"}
	ErrUploadPending    = &Error{Type: ErrTypeValidation, Message: "upload still in progress"}
	ErrBusy             = &Error{Type: ErrTypeValidation, Message: "analysis already running"}
	ErrUnsupportedInput = &Error{Type: ErrTypeValidation, Message: "input not accepted by this card"}
	ErrNoFile           = &Error{Type: ErrTypeValidation, Message: "file is missing"}
)

// ErrClosed is returned by every operation on a closed controller.
var ErrClosed = errors.New("card: controller closed")

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return typeOf(err) == ErrTypeValidation
}

// IsTimeout reports whether err is a timeout error.
func IsTimeout(err error) bool {
	return typeOf(err) == ErrTypeTimeout
}

// IsTransfer reports whether err is a transfer error.
func IsTransfer(err error) bool {
	return typeOf(err) == ErrTypeTransfer
}

func typeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// classify turns a provider error into a categorized card error.
func classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Type: ErrTypeTimeout, Message: "analysis timed out", Cause: err}
	}
	return &Error{Type: ErrTypeTransfer, Message: "analysis failed", Cause: err}
}
