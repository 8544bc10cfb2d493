package grn

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow and API failures
type ErrorKind int

const (
	// KindValidation is missing or empty user input; no request was made.
	KindValidation ErrorKind = iota
	// KindPrecondition is an action attempted without the state it needs.
	KindPrecondition
	// KindTransport is a network failure or a non-success HTTP status.
	KindTransport
	// KindDomain is a success status whose payload reports failure.
	KindDomain
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindTransport:
		return "transport"
	case KindDomain:
		return "domain"
	}
	return "unknown"
}

// Error is returned by the API client and the workflow
type Error struct {
	Kind       ErrorKind
	Op         string // endpoint path or workflow action
	Message    string // user-facing text
	StatusCode int    // HTTP status for transport errors, 0 otherwise
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

func preconditionError(op, msg string) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Message: msg}
}

// KindOf reports the kind of err, treating unclassified errors as transport
// failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// IsLocal reports whether err was raised before any request was issued.
func IsLocal(err error) bool {
	k := KindOf(err)
	return k == KindValidation || k == KindPrecondition
}

// withFallback replaces an empty domain message with fallback.
func withFallback(err error, fallback string) error {
	var e *Error
	if errors.As(err, &e) && e.Message == "" {
		e.Message = fallback
	}
	return err
}

func wrapTransport(op string, err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Op:      op,
		Message: fmt.Sprintf("request failed: %v", err),
		Err:     err,
	}
}
