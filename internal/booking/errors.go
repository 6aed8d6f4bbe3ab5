package booking

import (
	"errors"
	"fmt"
)

// Business-rule rejection kinds. Every admission failure maps onto exactly one
// of these; handlers translate them to user-facing responses. Wrap with
// fmt.Errorf("%w: ...") to attach detail without losing the kind.
var (
	ErrPageNotFound   = errors.New("booking page not found")
	ErrInvalid        = errors.New("invalid booking request")
	ErrPolicy         = errors.New("booking policy violation")
	ErrNoAvailability = errors.New("no availability for the requested day")
	ErrOutsideHours   = errors.New("requested time is outside available hours")
	ErrDateBlocked    = errors.New("the requested date is unavailable")
	ErrTimeBlocked    = errors.New("the requested time is unavailable")
	ErrSlotTaken      = errors.New("the requested time is no longer available")
)

// TransientError marks database/network failures unrelated to business rules.
// Callers may safely retry these; business rejections must never be retried
// blindly.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient booking failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func transient(err error) error {
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsBusinessRejection reports whether err is one of the typed admission
// rejection kinds (as opposed to a transient or programming failure).
func IsBusinessRejection(err error) bool {
	for _, kind := range []error{
		ErrInvalid, ErrPolicy, ErrNoAvailability, ErrOutsideHours,
		ErrDateBlocked, ErrTimeBlocked, ErrSlotTaken,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
