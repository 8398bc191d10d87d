package models

import (
	"fmt"
	"time"
)

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingConfirmed             BookingStatus = "confirmed"
	BookingCancellationRequested BookingStatus = "cancellation_requested"
	BookingCancelled             BookingStatus = "cancelled"
	BookingCompleted             BookingStatus = "completed"
)

// ConflictToleranceMinutes is the overlap window between two bookings that is
// still treated as non-conflicting. Accommodates clock/boundary rounding.
const ConflictToleranceMinutes = 5

// bookingTransitions lists the allowed status transitions. Anything not
// listed here is rejected.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingConfirmed:             {BookingCancellationRequested, BookingCancelled, BookingCompleted},
	BookingCancellationRequested: {BookingCancelled, BookingConfirmed},
	BookingCancelled:             {},
	BookingCompleted:             {},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Booking is a scheduled training session on a trainer's calendar.
type Booking struct {
	ID        string        `json:"id"`
	TrainerID string        `json:"trainer_id"`
	ClientID  string        `json:"client_id"`
	Date      time.Time     `json:"date"`       // calendar day, midnight trainer-local
	StartTime time.Time     `json:"start_time"` // date + wall clock
	EndTime   time.Time     `json:"end_time"`
	Duration  int           `json:"duration"` // minutes
	Status    BookingStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`

	CancellationRequestedBy string     `json:"cancellation_requested_by,omitempty"`
	CancellationRequestedAt *time.Time `json:"cancellation_requested_at,omitempty"`

	// SubscriptionID links the booking to the subscription it drew its
	// credit from. Set at completion, not at creation.
	SubscriptionID  string `json:"subscription_id,omitempty"`
	SessionDeducted bool   `json:"session_deducted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBooking validates the inputs and builds a confirmed booking. The end
// time is derived, never supplied.
func NewBooking(id, trainerID, clientID string, date, start time.Time, duration int, notes string) (*Booking, error) {
	if trainerID == "" || clientID == "" {
		return nil, fmt.Errorf("%w: trainer and client ids are required", ErrInvalidArgument)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, duration)
	}
	now := time.Now()
	return &Booking{
		ID:        id,
		TrainerID: trainerID,
		ClientID:  clientID,
		Date:      date,
		StartTime: start,
		EndTime:   start.Add(time.Duration(duration) * time.Minute),
		Duration:  duration,
		Status:    BookingConfirmed,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition moves the booking to a new status or fails with
// ErrInvalidTransition.
func (b *Booking) Transition(to BookingStatus) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	return nil
}

// IsTerminal reports whether no further transitions are possible.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCancelled || b.Status == BookingCompleted
}

// OverlapMinutes returns how many minutes this booking overlaps the interval
// [start, end). Zero means no overlap.
func (b *Booking) OverlapMinutes(start, end time.Time) int {
	return OverlapMinutes(b.StartTime, b.EndTime, start, end)
}

// ConflictsWith reports whether the interval [start, end) overlaps this
// booking by more than the tolerance. Cancelled bookings never conflict.
func (b *Booking) ConflictsWith(start, end time.Time) bool {
	if b.Status == BookingCancelled {
		return false
	}
	return b.OverlapMinutes(start, end) > ConflictToleranceMinutes
}

// OverlapMinutes returns the overlap of [aStart, aEnd) and [bStart, bEnd) in
// whole minutes, zero when they don't touch.
func OverlapMinutes(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}
