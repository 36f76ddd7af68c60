package donation

import (
	"errors"
	"fmt"

	"food-rescue-api-server/internal/models"
)

var (
	// ErrValidation is returned before any store mutation when an attribute is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a donation or actor id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a transition does not match the donation's current status.
	ErrConflict = errors.New("conflict")

	// ErrStoreFailure wraps record store errors. Callers may retry.
	ErrStoreFailure = errors.New("record store unavailable")

	// ErrForbidden is returned when the caller does not own the donation.
	ErrForbidden = errors.New("forbidden")

	// ErrStatusMismatch is what a Store reports when a conditional update finds a different status.
	ErrStatusMismatch = errors.New("status mismatch")

	// ErrDuplicateEmail is returned by an ActorRegistry when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrPhotosDisabled is returned when no photo store is configured.
	ErrPhotosDisabled = errors.New("photo storage is not configured")
)

// TransitionError reports a rejected transition together with the state the donation is actually in,
// so a stale client can reconcile.
type TransitionError struct {
	DonationID string
	Event      Event
	Current    models.DonationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s donation %s: current status is %s", e.Event, e.DonationID, e.Current)
}

func (e *TransitionError) Unwrap() error { return ErrConflict }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func storeFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreFailure, op, err)
}
