package models

import "errors"

// Sentinel errors returned by the engine. Callers match them with errors.Is
// to tell caller mistakes, concurrency conflicts and business-rule failures
// apart.
var (
	// ErrNotFound means the booking or subscription id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDuration means the requested session duration is not one of
	// the allowed values.
	ErrInvalidDuration = errors.New("unsupported session duration")

	// ErrInvalidArgument means a required identifier or field is missing or
	// malformed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSlotConflict means the slot overlaps an existing booking by more
	// than the tolerance. Expected under concurrency; the caller should
	// re-query slots.
	ErrSlotConflict = errors.New("slot no longer available")

	// ErrInvalidTransition means the booking status does not allow the
	// requested transition (e.g. completing a completed booking, resolving
	// a cancellation that is no longer pending).
	ErrInvalidTransition = errors.New("status transition not allowed")

	// ErrNoActiveSubscription means no active, paid subscription with
	// remaining credit exists for the client-trainer pair.
	ErrNoActiveSubscription = errors.New("no active subscription")

	// ErrNoSessionsLeft means the subscription balance is exhausted.
	ErrNoSessionsLeft = errors.New("no sessions left on subscription")

	// ErrSubscriptionExists means another active subscription already exists
	// for the client-trainer pair.
	ErrSubscriptionExists = errors.New("active subscription already exists")

	// ErrSubscriptionClosed means the subscription was cancelled and can no
	// longer be debited, credited or renewed.
	ErrSubscriptionClosed = errors.New("subscription cancelled")
)
