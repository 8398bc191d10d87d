package calendar

import (
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fitsched/internal/events"
)

func TestEventID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"550e8400-e29b-41d4-a716-446655440000", "550e8400e29b41d4a716446655440000"},
		{"ABCDEF", "abcdef"},
		{"no-dashes-here", "nodasheshere"},
	}
	for _, tc := range cases {
		if got := eventID(tc.in); got != tc.want {
			t.Errorf("eventID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAttachQueuesWithoutBlocking(t *testing.T) {
	logger := zerolog.New(io.Discard)
	s := &Service{logger: &logger, queue: make(chan events.Event, 1)}

	bus := events.NewBus()
	s.Attach(bus)

	publish := func(recipient string) {
		bus.Publish(events.Event{
			Type:        events.TypeBookingCreated,
			RecipientID: recipient,
			TrainerID:   "tr1",
			ClientID:    "cl1",
			BookingID:   "b1",
		})
	}

	// Both recipient copies arrive; only the trainer copy is mirrored.
	publish("tr1")
	publish("cl1")
	if got := len(s.queue); got != 1 {
		t.Fatalf("queued %d events, want 1", got)
	}

	// A full queue drops the event instead of stalling the publisher.
	done := make(chan struct{})
	go func() {
		publish("tr1")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full mirror queue")
	}
	if got := len(s.queue); got != 1 {
		t.Fatalf("queued %d events after drop, want 1", got)
	}
}
