package models

import (
	"errors"
	"testing"
	"time"
)

func mustBooking(t *testing.T, start string, duration int) *Booking {
	t.Helper()
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	startMin, err := ParseClock(start)
	if err != nil {
		t.Fatalf("parse %s: %v", start, err)
	}
	b, err := NewBooking("b1", "tr1", "cl1", date, date.Add(time.Duration(startMin)*time.Minute), duration, "")
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	return b
}

func TestNewBookingDerivesEndTime(t *testing.T) {
	b := mustBooking(t, "10:00", 60)
	if got := b.EndTime.Sub(b.StartTime); got != time.Hour {
		t.Errorf("end-start = %v, want 1h", got)
	}
	if b.Status != BookingConfirmed {
		t.Errorf("status = %s, want confirmed", b.Status)
	}
}

func TestNewBookingValidation(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if _, err := NewBooking("b1", "", "cl1", date, date, 60, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing trainer: got %v", err)
	}
	if _, err := NewBooking("b1", "tr1", "cl1", date, date, 0, ""); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("zero duration: got %v", err)
	}
}

func TestBookingTransitions(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingConfirmed, BookingCancellationRequested, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingCompleted, true},
		{BookingCancellationRequested, BookingCancelled, true},
		{BookingCancellationRequested, BookingConfirmed, true},
		{BookingCancellationRequested, BookingCompleted, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingCompleted, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCompleted, BookingConfirmed, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.allowed {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestBookingTransitionRejectsUnlisted(t *testing.T) {
	b := mustBooking(t, "09:00", 60)
	if err := b.Transition(BookingCompleted); err != nil {
		t.Fatalf("confirmed -> completed: %v", err)
	}
	err := b.Transition(BookingCancelled)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completed -> cancelled: got %v, want ErrInvalidTransition", err)
	}
}

func TestConflictsWithTolerance(t *testing.T) {
	existing := mustBooking(t, "10:00", 60) // 10:00-11:00
	date := existing.Date

	at := func(clock string, duration int) (time.Time, time.Time) {
		min, err := ParseClock(clock)
		if err != nil {
			t.Fatalf("parse %s: %v", clock, err)
		}
		start := date.Add(time.Duration(min) * time.Minute)
		return start, start.Add(time.Duration(duration) * time.Minute)
	}

	tests := []struct {
		name     string
		clock    string
		conflict bool
	}{
		{"no overlap before", "09:00", false},
		{"no overlap after", "11:00", false},
		{"3 minute overlap tolerated", "10:57", false},
		{"5 minute overlap tolerated", "10:55", false},
		{"6 minute overlap conflicts", "10:54", true},
		{"full overlap conflicts", "10:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := at(tt.clock, 60)
			if got := existing.ConflictsWith(start, end); got != tt.conflict {
				t.Errorf("ConflictsWith(%s) = %v, want %v", tt.clock, got, tt.conflict)
			}
		})
	}
}

func TestCancelledBookingNeverConflicts(t *testing.T) {
	existing := mustBooking(t, "10:00", 60)
	existing.Status = BookingCancelled
	if existing.ConflictsWith(existing.StartTime, existing.EndTime) {
		t.Error("cancelled booking should not conflict")
	}
}

func TestOverlapMinutes(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	min := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	if got := OverlapMinutes(min(0), min(60), min(60), min(120)); got != 0 {
		t.Errorf("touching intervals overlap = %d, want 0", got)
	}
	if got := OverlapMinutes(min(0), min(60), min(30), min(90)); got != 30 {
		t.Errorf("half overlap = %d, want 30", got)
	}
	if got := OverlapMinutes(min(0), min(60), min(-30), min(6)); got != 6 {
		t.Errorf("leading overlap = %d, want 6", got)
	}
}
