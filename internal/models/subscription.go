package models

import (
	"fmt"
	"time"
)

// SubscriptionStatus represents the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// PaymentStatus represents the payment state of the current billing period.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Subscription is one billing-period instance of a client's plan with a
// trainer. It owns the session credit balance.
type Subscription struct {
	ID               string `json:"id"`
	ClientID         string `json:"client_id"`
	TrainerID        string `json:"trainer_id"`
	PlanID           string `json:"plan_id"`
	BillingMonths    int    `json:"billing_months"`
	SessionsPerMonth int    `json:"sessions_per_month"`

	RemainingSessions  int       `json:"remaining_sessions"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`

	Status        SubscriptionStatus `json:"status"`
	PaymentStatus PaymentStatus      `json:"payment_status"`

	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubscription validates inputs and builds a pending, unpaid subscription.
// It becomes usable only after trainer approval.
func NewSubscription(id, clientID, trainerID, planID string, billingMonths, sessionsPerMonth int, amount float64, currency, paymentMethod string) (*Subscription, error) {
	if clientID == "" || trainerID == "" || planID == "" {
		return nil, fmt.Errorf("%w: client, trainer and plan ids are required", ErrInvalidArgument)
	}
	if billingMonths <= 0 {
		return nil, fmt.Errorf("%w: billing_months must be positive", ErrInvalidArgument)
	}
	if sessionsPerMonth <= 0 {
		return nil, fmt.Errorf("%w: sessions_per_month must be positive", ErrInvalidArgument)
	}
	now := time.Now()
	return &Subscription{
		ID:               id,
		ClientID:         clientID,
		TrainerID:        trainerID,
		PlanID:           planID,
		BillingMonths:    billingMonths,
		SessionsPerMonth: sessionsPerMonth,
		Status:           SubscriptionPending,
		PaymentStatus:    PaymentPending,
		Amount:           amount,
		Currency:         currency,
		PaymentMethod:    paymentMethod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// IsActiveAt reports whether the subscription can back a completed session at
// the given time: active, paid, and the billing period has not ended.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	if s.Status != SubscriptionActive || s.PaymentStatus != PaymentPaid {
		return false
	}
	if !s.CurrentPeriodEnd.IsZero() && s.CurrentPeriodEnd.Before(t) {
		return false
	}
	return true
}

// Approve activates a pending subscription and stamps its billing period.
func (s *Subscription) Approve(now time.Time) error {
	if s.Status == SubscriptionCancelled {
		return ErrSubscriptionClosed
	}
	if s.Status != SubscriptionPending {
		return fmt.Errorf("%w: subscription is %s", ErrInvalidTransition, s.Status)
	}
	s.Status = SubscriptionActive
	s.PaymentStatus = PaymentPaid
	s.RemainingSessions = s.SessionsPerMonth
	s.CurrentPeriodStart = now
	s.CurrentPeriodEnd = now.AddDate(0, s.BillingMonths, 0)
	s.UpdatedAt = now
	return nil
}

// Debit consumes one session credit. The balance never goes negative; an
// exhausted subscription flips to expired at zero.
func (s *Subscription) Debit() error {
	if s.Status == SubscriptionCancelled {
		return ErrSubscriptionClosed
	}
	if s.RemainingSessions <= 0 {
		return ErrNoSessionsLeft
	}
	s.RemainingSessions--
	if s.RemainingSessions == 0 {
		s.Status = SubscriptionExpired
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Refund returns one session credit. A subscription that expired solely by
// reaching zero balance is reactivated; a cancelled one stays cancelled.
func (s *Subscription) Refund() error {
	if s.Status == SubscriptionCancelled {
		return ErrSubscriptionClosed
	}
	s.RemainingSessions++
	if s.Status == SubscriptionExpired {
		s.Status = SubscriptionActive
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Renew resets the balance and rolls the billing period forward.
func (s *Subscription) Renew(now time.Time, payment PaymentStatus) error {
	if s.Status == SubscriptionCancelled {
		return ErrSubscriptionClosed
	}
	start := s.CurrentPeriodEnd
	if start.IsZero() || start.Before(now) {
		start = now
	}
	s.RemainingSessions = s.SessionsPerMonth
	s.CurrentPeriodStart = start
	s.CurrentPeriodEnd = start.AddDate(0, s.BillingMonths, 0)
	s.Status = SubscriptionActive
	if payment != "" {
		s.PaymentStatus = payment
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Cancel terminates the subscription. Terminal; no further debits or credits.
func (s *Subscription) Cancel() error {
	if s.Status == SubscriptionCancelled {
		return ErrSubscriptionClosed
	}
	s.Status = SubscriptionCancelled
	s.UpdatedAt = time.Now()
	return nil
}
