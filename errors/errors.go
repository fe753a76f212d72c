// Package errors provides classified error handling for WikiGraph.
//
// Errors are classified into three classes that drive behavior elsewhere:
// invalid errors map to client-fault HTTP responses, transient errors are
// retried by the loader, and fatal errors stop the process. Helpers wrap
// errors with "component.method: action failed" context in one consistent
// shape.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass is the handling classification of an error.
type ErrorClass int

const (
	// ErrorTransient marks temporary failures that may be retried.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid marks failures caused by invalid input or requests.
	ErrorInvalid
	// ErrorFatal marks unrecoverable failures that should stop processing.
	ErrorFatal
)

// String returns the string representation of ErrorClass.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions.
var (
	// Query protocol errors
	ErrMissingQuery      = errors.New("you should set the 'query' parameter")
	ErrMultipleQueries   = errors.New("multiple query parameters provided")
	ErrNoContentType     = errors.New("no Content-Type given")
	ErrUnsupportedMedia  = errors.New("unsupported Content-Type")
	ErrUnknownMimeType   = errors.New("unknown mime type")
	ErrNotAcceptable     = errors.New("no acceptable response format")
	ErrMalformedQuery    = errors.New("malformed query")
	ErrMalformedGraphURI = errors.New("malformed graph URI")

	// Store errors
	ErrStoreClosed     = errors.New("store closed")
	ErrStoreCorrupted  = errors.New("store data corrupted")
	ErrCursorNotFound  = errors.New("sync cursor not found")
	ErrBatchConflict   = errors.New("store batch conflict")
	ErrStoreUnreadable = errors.New("store read failed")

	// Loader errors
	ErrInitialLoadFailed = errors.New("initial load failed")
	ErrUpstreamGone      = errors.New("upstream wiki unavailable")
	ErrRateLimited       = errors.New("rate limited by upstream")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ClassifiedError wraps an error with its classification and origin.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Wrap creates a standardized error with context following the pattern
// "component.method: action failed: %w".
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context.
func WrapTransient(err error, component, method, action string) error {
	return classify(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps an error as invalid with context.
func WrapInvalid(err error, component, method, action string) error {
	return classify(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps an error as fatal with context.
func WrapFatal(err error, component, method, action string) error {
	return classify(ErrorFatal, err, component, method, action)
}

func classify(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       Wrap(err, component, method, action),
		Component: component,
		Operation: method,
	}
}

// Invalid marks err as a client-input fault without adding call context.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: ErrorInvalid, Err: err}
}

// Invalidf builds a formatted client-input fault.
func Invalidf(format string, args ...any) error {
	return &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf(format, args...)}
}

// IsInvalid checks whether an error is a client-input fault.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}
	return errors.Is(err, ErrMissingQuery) ||
		errors.Is(err, ErrMultipleQueries) ||
		errors.Is(err, ErrNoContentType) ||
		errors.Is(err, ErrUnsupportedMedia) ||
		errors.Is(err, ErrMalformedQuery) ||
		errors.Is(err, ErrMalformedGraphURI)
}

// IsTransient checks whether an error is temporary and may be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}
	return errors.Is(err, ErrUpstreamGone) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrBatchConflict)
}

// IsFatal checks whether an error is unrecoverable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}
	return errors.Is(err, ErrStoreCorrupted) ||
		errors.Is(err, ErrStoreClosed) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) ||
		errors.Is(err, ErrInitialLoadFailed)
}

// Classify returns the error class for an error. Unknown errors default to
// transient so callers lean toward retrying rather than dying.
func Classify(err error) ErrorClass {
	switch {
	case IsInvalid(err):
		return ErrorInvalid
	case IsFatal(err):
		return ErrorFatal
	default:
		return ErrorTransient
	}
}
