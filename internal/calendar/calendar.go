// Package calendar mirrors bookings into a Google Calendar. Sync is best
// effort: the engine's state is authoritative and calendar failures are only
// logged.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"fitsched/internal/events"
	"fitsched/internal/models"
)

// BookingSource loads bookings for event handlers.
type BookingSource interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
}

const queueSize = 64

// Service mirrors the booking ledger into one Google Calendar.
type Service struct {
	svc        *gcal.Service
	calendarID string
	source     BookingSource
	logger     *zerolog.Logger
	queue      chan events.Event
}

// NewService builds a calendar service from a credentials file.
func NewService(ctx context.Context, credentialsFile, calendarID string, source BookingSource, logger *zerolog.Logger) (*Service, error) {
	svc, err := gcal.NewService(ctx, option.WithCredentialsFile(credentialsFile), option.WithScopes(gcal.CalendarScope))
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}
	return &Service{
		svc:        svc,
		calendarID: calendarID,
		source:     source,
		logger:     logger,
		queue:      make(chan events.Event, queueSize),
	}, nil
}

// Attach subscribes the mirror to booking lifecycle events. Handlers only
// enqueue; the Run worker performs the API calls, so publishing never waits
// on Google.
func (s *Service) Attach(bus *events.Bus) {
	bus.Subscribe(events.TypeBookingCreated, s.enqueue)
	bus.Subscribe(events.TypeBookingCancelled, s.enqueue)
	bus.Subscribe(events.TypeCancellationApproved, s.enqueue)
}

func (s *Service) enqueue(e events.Event) {
	// Each event arrives once per recipient; mirror only the trainer copy.
	if e.RecipientID != e.TrainerID {
		return
	}
	select {
	case s.queue <- e:
	default:
		s.logger.Warn().Str("booking_id", e.BookingID).Msg("calendar sync: queue full, event dropped")
	}
}

// Run drains the queue until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.queue:
			s.sync(ctx, e)
		}
	}
}

func (s *Service) sync(ctx context.Context, e events.Event) {
	if e.Type == events.TypeBookingCreated {
		booking, err := s.source.GetBooking(ctx, e.BookingID)
		if err != nil {
			s.logger.Error().Err(err).Str("booking_id", e.BookingID).Msg("calendar sync: load booking")
			return
		}
		if err := s.UpsertBooking(ctx, booking); err != nil {
			s.logger.Error().Err(err).Str("booking_id", e.BookingID).Msg("calendar sync: upsert event")
		}
		return
	}
	if err := s.RemoveBooking(ctx, e.BookingID); err != nil {
		s.logger.Error().Err(err).Str("booking_id", e.BookingID).Msg("calendar sync: remove event")
	}
}

// UpsertBooking creates or updates the calendar event for a booking.
func (s *Service) UpsertBooking(ctx context.Context, b *models.Booking) error {
	event := &gcal.Event{
		Id:      eventID(b.ID),
		Summary: fmt.Sprintf("Training session with %s", b.ClientID),
		Start:   &gcal.EventDateTime{DateTime: b.StartTime.Format("2006-01-02T15:04:05-07:00")},
		End:     &gcal.EventDateTime{DateTime: b.EndTime.Format("2006-01-02T15:04:05-07:00")},
	}
	if b.Notes != "" {
		event.Description = b.Notes
	}

	_, err := s.svc.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if isConflict(err) {
		_, err = s.svc.Events.Update(s.calendarID, event.Id, event).Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("calendar upsert %s: %w", b.ID, err)
	}
	return nil
}

// RemoveBooking deletes the mirrored event. A missing event is not an error.
func (s *Service) RemoveBooking(ctx context.Context, bookingID string) error {
	err := s.svc.Events.Delete(s.calendarID, eventID(bookingID)).Context(ctx).Do()
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("calendar delete %s: %w", bookingID, err)
	}
	return nil
}

// eventID derives a stable calendar event id from the booking id. Calendar
// ids only allow base32hex characters, so the uuid dashes go.
func eventID(bookingID string) string {
	return strings.ReplaceAll(strings.ToLower(bookingID), "-", "")
}

func isConflict(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 409
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == 404 || gerr.Code == 410)
}
