package services

import (
	"errors"
	"fmt"
)

// Kind classifies service errors for callers at the transport boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindPreconditionFailed
	KindInsufficientFunds
	KindForbidden
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }

var (
	ErrNotFound           = &kindError{kind: KindNotFound, msg: "not found"}
	ErrConflict           = &kindError{kind: KindConflict, msg: "conflict"}
	ErrAlreadyBooked      = &kindError{kind: KindConflict, msg: "slot already booked"}
	ErrAlreadyProcessed   = &kindError{kind: KindConflict, msg: "withdrawal already processed"}
	ErrPreconditionFailed = &kindError{kind: KindPreconditionFailed, msg: "precondition failed"}
	ErrInsufficientFunds  = &kindError{kind: KindInsufficientFunds, msg: "insufficient funds"}
	ErrForbidden          = &kindError{kind: KindForbidden, msg: "forbidden"}
	ErrInvalidInput       = &kindError{kind: KindValidation, msg: "invalid input"}
)

// KindOf returns the kind of the first classified error in err's chain.
// Anything unclassified is internal.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindInternal
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

func precondition(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPreconditionFailed}, args...)...)
}
