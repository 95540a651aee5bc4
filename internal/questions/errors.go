package questions

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

var (
	// ErrValidation matches every rejected submission or malformed command.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches every operation that referenced an unknown question.
	ErrNotFound = errors.New("question not found")
)

// Reasons attached to validation failures.
const (
	ReasonEmpty     = "empty"
	ReasonTooLong   = "too_long"
	ReasonMalformed = "malformed"
)

// Error describes a failed store operation. It matches ErrValidation or
// ErrNotFound through errors.Is.
type Error struct {
	Kind    error
	Reason  string
	Message string
	ID      string
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%v: %s (id=%s)", e.Kind, e.Message, e.ID)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func validationError(reason, msg string) error {
	return xerrors.WithStackTrace(&Error{Kind: ErrValidation, Reason: reason, Message: msg}, 1)
}

func notFoundError(id string) error {
	return xerrors.WithStackTrace(&Error{Kind: ErrNotFound, Message: "no question with this id", ID: id}, 1)
}

// Reason returns the validation reason carried by err, or "" when err is
// not a validation failure.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrValidation {
		return e.Reason
	}
	return ""
}
