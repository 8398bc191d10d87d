package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitsched/internal/database"
	"fitsched/internal/events"
	"fitsched/internal/models"
)

// SubscriptionService manages the session-credit ledger: plan purchase,
// trainer approval, renewal and cancellation.
type SubscriptionService struct {
	db     *database.DB
	bus    *events.Bus
	logger *zerolog.Logger
}

// NewSubscriptionService wires a subscription service.
func NewSubscriptionService(db *database.DB, bus *events.Bus, logger *zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{db: db, bus: bus, logger: logger}
}

// CreateSubscriptionRequest carries the purchase parameters.
type CreateSubscriptionRequest struct {
	ClientID         string
	TrainerID        string
	PlanID           string
	BillingMonths    int
	SessionsPerMonth int
	Amount           float64
	Currency         string
	PaymentMethod    string
}

// Create records a pending subscription awaiting trainer approval.
func (s *SubscriptionService) Create(ctx context.Context, req CreateSubscriptionRequest) (*models.Subscription, error) {
	sub, err := models.NewSubscription(uuid.New().String(), req.ClientID, req.TrainerID, req.PlanID,
		req.BillingMonths, req.SessionsPerMonth, req.Amount, req.Currency, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	if err := s.db.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("subscription_id", sub.ID).
		Str("client_id", sub.ClientID).
		Str("trainer_id", sub.TrainerID).
		Str("plan_id", sub.PlanID).
		Msg("subscription created")

	s.publish(events.TypeSubscriptionCreated, sub,
		fmt.Sprintf("New subscription request for plan %s", sub.PlanID))
	return sub, nil
}

// Approve activates a pending subscription and opens its billing period.
func (s *SubscriptionService) Approve(ctx context.Context, id string) (*models.Subscription, error) {
	sub, err := s.db.ApproveSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("subscription_id", sub.ID).
		Int("sessions", sub.RemainingSessions).
		Time("period_end", sub.CurrentPeriodEnd).
		Msg("subscription approved")

	s.publish(events.TypeSubscriptionApproved, sub,
		fmt.Sprintf("Subscription approved, %d sessions until %s",
			sub.RemainingSessions, sub.CurrentPeriodEnd.Format("2006-01-02")))
	return sub, nil
}

// Renew resets the balance and rolls the billing period forward.
func (s *SubscriptionService) Renew(ctx context.Context, id string, payment models.PaymentStatus) (*models.Subscription, error) {
	sub, err := s.db.RenewSubscription(ctx, id, payment)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("subscription_id", sub.ID).
		Time("period_end", sub.CurrentPeriodEnd).
		Msg("subscription renewed")

	s.publish(events.TypeSubscriptionRenewed, sub,
		fmt.Sprintf("Subscription renewed, %d sessions until %s",
			sub.RemainingSessions, sub.CurrentPeriodEnd.Format("2006-01-02")))
	return sub, nil
}

// Cancel terminates a subscription.
func (s *SubscriptionService) Cancel(ctx context.Context, id string) (*models.Subscription, error) {
	sub, err := s.db.CancelSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("subscription_id", sub.ID).Msg("subscription cancelled")
	s.publish(events.TypeSubscriptionCancelled, sub, "Subscription cancelled")
	return sub, nil
}

// Get returns a subscription by id.
func (s *SubscriptionService) Get(ctx context.Context, id string) (*models.Subscription, error) {
	return s.db.GetSubscription(ctx, id)
}

// ListForPair returns a client's subscriptions with a trainer, newest first.
func (s *SubscriptionService) ListForPair(ctx context.Context, clientID, trainerID string) ([]models.Subscription, error) {
	return s.db.ListSubscriptionsForPair(ctx, clientID, trainerID)
}

func (s *SubscriptionService) publish(eventType string, sub *models.Subscription, message string) {
	for _, recipient := range []string{sub.TrainerID, sub.ClientID} {
		s.bus.Publish(events.Event{
			Type:           eventType,
			RecipientID:    recipient,
			TrainerID:      sub.TrainerID,
			ClientID:       sub.ClientID,
			SubscriptionID: sub.ID,
			Message:        message,
		})
	}
}
