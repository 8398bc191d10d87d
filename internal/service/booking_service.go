// Package service implements the scheduling engine's use cases on top of the
// database ledger: slot queries, the booking lifecycle and the subscription
// ledger. Services validate input, run the ledger operation and publish
// events after the state change committed.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitsched/internal/database"
	"fitsched/internal/events"
	"fitsched/internal/metrics"
	"fitsched/internal/models"
	"fitsched/internal/slots"
)

// BookingService drives slot generation and the booking state machine.
type BookingService struct {
	db               *database.DB
	bus              *events.Bus
	logger           *zerolog.Logger
	allowedDurations []int
	defaultTimezone  string
}

// NewBookingService wires a booking service. defaultTimezone applies to
// trainers that never stored settings.
func NewBookingService(db *database.DB, bus *events.Bus, logger *zerolog.Logger, allowedDurations []int, defaultTimezone string) *BookingService {
	if len(allowedDurations) == 0 {
		allowedDurations = []int{45, 60}
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &BookingService{
		db:               db,
		bus:              bus,
		logger:           logger,
		allowedDurations: allowedDurations,
		defaultTimezone:  defaultTimezone,
	}
}

// CreateBookingRequest carries the client-facing booking parameters. Date and
// start time are wall-clock values in the trainer's timezone.
type CreateBookingRequest struct {
	TrainerID string
	ClientID  string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	Duration  int    // minutes
	Notes     string
}

// CompletionResult reports the outcome of completing a session.
type CompletionResult struct {
	Booking            *models.Booking           `json:"booking"`
	SubscriptionID     string                    `json:"subscription_id"`
	RemainingSessions  int                       `json:"remaining_sessions"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
}

// GetAvailableSlots computes the open start times for a trainer on a date.
// An unknown or disabled weekday template yields an empty list, not an error.
func (s *BookingService) GetAvailableSlots(ctx context.Context, trainerID, dateStr string, duration int) ([]string, error) {
	// An explicit duration is validated before touching any state.
	if duration != 0 {
		if err := s.checkDuration(duration); err != nil {
			return nil, err
		}
	}

	loc, err := s.trainerLocation(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(dateStr, loc)
	if err != nil {
		return nil, err
	}

	tmpl, err := s.db.GetTemplate(ctx, trainerID, date.Weekday())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	if duration == 0 {
		duration = tmpl.SessionDuration
		if err := s.checkDuration(duration); err != nil {
			return nil, err
		}
	}

	existing, err := s.db.ListBookingsForDay(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	var now *time.Time
	local := time.Now().In(loc)
	if sameDay(local, date) {
		now = &local
	}

	return slots.Generate(tmpl, date, existing, duration, now)
}

// CreateBooking validates the request, inserts the booking under the conflict
// guard and notifies both parties.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.checkDuration(req.Duration); err != nil {
		return nil, err
	}

	loc, err := s.trainerLocation(ctx, req.TrainerID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date, loc)
	if err != nil {
		return nil, err
	}
	startMinute, err := models.ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	start := date.Add(time.Duration(startMinute) * time.Minute)

	booking, err := models.NewBooking(uuid.New().String(), req.TrainerID, req.ClientID, date, start, req.Duration, req.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.db.CreateBookingGuarded(ctx, booking); err != nil {
		if errors.Is(err, models.ErrSlotConflict) {
			metrics.IncBookingConflict()
		}
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("trainer_id", booking.TrainerID).
		Str("client_id", booking.ClientID).
		Time("start", booking.StartTime).
		Msg("booking created")

	s.publishBooking(events.TypeBookingCreated, booking,
		fmt.Sprintf("New booking on %s", booking.StartTime.Format("2006-01-02 at 15:04")),
		booking.TrainerID, booking.ClientID)
	return booking, nil
}

// GetBooking returns a booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.db.GetBooking(ctx, id)
}

// ListTrainerDay returns a trainer's non-cancelled bookings for a date.
func (s *BookingService) ListTrainerDay(ctx context.Context, trainerID, dateStr string) ([]models.Booking, error) {
	loc, err := s.trainerLocation(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(dateStr, loc)
	if err != nil {
		return nil, err
	}
	return s.db.ListBookingsForDay(ctx, trainerID, date)
}

// ListClientBookings returns a client's bookings with a trainer.
func (s *BookingService) ListClientBookings(ctx context.Context, clientID, trainerID string) ([]models.Booking, error) {
	return s.db.ListClientBookings(ctx, clientID, trainerID)
}

// RequestCancellation files a cancellation request for a confirmed booking.
func (s *BookingService) RequestCancellation(ctx context.Context, bookingID, requestedBy string) (*models.Booking, error) {
	booking, err := s.db.RequestCancellation(ctx, bookingID, requestedBy)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("booking_id", bookingID).Str("requested_by", requestedBy).Msg("cancellation requested")
	s.publishBooking(events.TypeCancellationRequested, booking,
		fmt.Sprintf("Cancellation requested for the session on %s", booking.StartTime.Format("2006-01-02 at 15:04")),
		booking.TrainerID, booking.ClientID)
	return booking, nil
}

// ApproveCancellation cancels the booking and refunds the session credit.
func (s *BookingService) ApproveCancellation(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, refunded, err := s.db.ApproveCancellation(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.IncCancellationDecision("approved")
	if refunded != nil {
		metrics.IncSessionCredit("refund")
	}
	s.logger.Info().Str("booking_id", bookingID).Bool("refunded", refunded != nil).Msg("cancellation approved")
	s.publishBooking(events.TypeCancellationApproved, booking,
		fmt.Sprintf("Cancellation approved for the session on %s", booking.StartTime.Format("2006-01-02 at 15:04")),
		booking.TrainerID, booking.ClientID)
	return booking, nil
}

// RejectCancellation restores the booking to confirmed.
func (s *BookingService) RejectCancellation(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.db.RejectCancellation(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.IncCancellationDecision("rejected")
	s.logger.Info().Str("booking_id", bookingID).Msg("cancellation rejected")
	// Only the client hears about a rejection; the trainer made the call.
	s.publishBooking(events.TypeCancellationRejected, booking,
		fmt.Sprintf("Cancellation rejected; the session on %s stands", booking.StartTime.Format("2006-01-02 at 15:04")),
		booking.ClientID)
	return booking, nil
}

// CancelBooking cancels a booking directly, refunding any deducted credit.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, refunded, err := s.db.CancelBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if refunded != nil {
		metrics.IncSessionCredit("refund")
	}
	s.logger.Info().Str("booking_id", bookingID).Bool("refunded", refunded != nil).Msg("booking cancelled")
	s.publishBooking(events.TypeBookingCancelled, booking,
		fmt.Sprintf("Booking on %s was cancelled", booking.StartTime.Format("2006-01-02 at 15:04")),
		booking.TrainerID, booking.ClientID)
	return booking, nil
}

// CompleteSession marks the session held and debits one credit.
func (s *BookingService) CompleteSession(ctx context.Context, bookingID string) (*CompletionResult, error) {
	booking, sub, err := s.db.CompleteSession(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	metrics.IncBookingCompleted()
	metrics.IncSessionCredit("debit")
	s.logger.Info().
		Str("booking_id", bookingID).
		Str("subscription_id", sub.ID).
		Int("remaining", sub.RemainingSessions).
		Msg("session completed")

	// The trainer performed the completion, so only the client is notified.
	s.publishBooking(events.TypeSessionCompleted, booking,
		fmt.Sprintf("Session on %s completed, %d credits left", booking.StartTime.Format("2006-01-02 at 15:04"), sub.RemainingSessions),
		booking.ClientID)
	return &CompletionResult{
		Booking:            booking,
		SubscriptionID:     sub.ID,
		RemainingSessions:  sub.RemainingSessions,
		SubscriptionStatus: sub.Status,
	}, nil
}

// UpsertTemplate stores a trainer's weekly availability template.
func (s *BookingService) UpsertTemplate(ctx context.Context, tmpl *models.AvailabilityTemplate) error {
	return s.db.UpsertTemplate(ctx, tmpl)
}

// GetTemplate returns one weekday's template.
func (s *BookingService) GetTemplate(ctx context.Context, trainerID string, day time.Weekday) (*models.AvailabilityTemplate, error) {
	return s.db.GetTemplate(ctx, trainerID, day)
}

// ListTemplates returns a trainer's full weekly schedule.
func (s *BookingService) ListTemplates(ctx context.Context, trainerID string) ([]models.AvailabilityTemplate, error) {
	return s.db.ListTemplates(ctx, trainerID)
}

// GetTrainerSettings returns a trainer's settings. Trainers that never stored
// any get the engine's default timezone.
func (s *BookingService) GetTrainerSettings(ctx context.Context, trainerID string) (*models.TrainerSettings, error) {
	settings, err := s.db.GetTrainerSettings(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if settings.Timezone == "" {
		settings.Timezone = s.defaultTimezone
	}
	return settings, nil
}

// UpsertTrainerSettings stores a trainer's settings.
func (s *BookingService) UpsertTrainerSettings(ctx context.Context, settings *models.TrainerSettings) error {
	return s.db.UpsertTrainerSettings(ctx, settings)
}

func (s *BookingService) checkDuration(minutes int) error {
	for _, d := range s.allowedDurations {
		if d == minutes {
			return nil
		}
	}
	return fmt.Errorf("%w: %d minutes, allowed %v", models.ErrInvalidDuration, minutes, s.allowedDurations)
}

func (s *BookingService) trainerLocation(ctx context.Context, trainerID string) (*time.Location, error) {
	settings, err := s.GetTrainerSettings(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return settings.Location(), nil
}

// publishBooking emits one event per recipient.
func (s *BookingService) publishBooking(eventType string, b *models.Booking, message string, recipients ...string) {
	for _, recipient := range recipients {
		s.bus.Publish(events.Event{
			Type:        eventType,
			RecipientID: recipient,
			TrainerID:   b.TrainerID,
			ClientID:    b.ClientID,
			BookingID:   b.ID,
			Message:     message,
		})
	}
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", models.ErrInvalidArgument, s)
	}
	return date, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
