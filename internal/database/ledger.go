package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitsched/internal/models"
)

// This file holds the cross-entity workflows. Each runs as a single
// transaction: the reads, the status checks and the writes commit together
// or not at all, so concurrent attempts are serialized by the store.

// CreateBookingGuarded re-validates slot availability inside the insert
// transaction, closing the race window between slot query and booking write.
// Returns models.ErrSlotConflict when the slot is taken.
func (db *DB) CreateBookingGuarded(ctx context.Context, b *models.Booking) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := listBookingsForDay(ctx, tx, b.TrainerID, b.Date)
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		for i := range existing {
			if existing[i].ConflictsWith(b.StartTime, b.EndTime) {
				return fmt.Errorf("%w: %s overlaps booking %s",
					models.ErrSlotConflict, b.StartTime.Format("15:04"), existing[i].ID)
			}
		}
		return insertBooking(ctx, tx, b)
	})
}

// RequestCancellation moves a confirmed booking to cancellation_requested and
// stamps the requester.
func (db *DB) RequestCancellation(ctx context.Context, bookingID, requestedBy string) (*models.Booking, error) {
	var booking *models.Booking
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := b.Transition(models.BookingCancellationRequested); err != nil {
			return err
		}
		now := time.Now()
		b.CancellationRequestedBy = requestedBy
		b.CancellationRequestedAt = &now
		booking = b
		return updateBooking(ctx, tx, b)
	})
	return booking, err
}

// ApproveCancellation resolves a pending cancellation request as cancelled
// and refunds one session credit to the client's subscription. The refund
// goes to the subscription the booking drew from when linked, otherwise to
// whichever subscription is currently active for the pair; if neither
// qualifies the cancellation still goes through without a refund.
func (db *DB) ApproveCancellation(ctx context.Context, bookingID string) (*models.Booking, *models.Subscription, error) {
	var booking *models.Booking
	var sub *models.Subscription
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != models.BookingCancellationRequested {
			return fmt.Errorf("%w: no pending cancellation request", models.ErrInvalidTransition)
		}
		if err := b.Transition(models.BookingCancelled); err != nil {
			return err
		}

		s, err := db.refundSubscription(ctx, tx, b)
		if err != nil {
			return err
		}
		sub = s

		booking = b
		return updateBooking(ctx, tx, b)
	})
	return booking, sub, err
}

// RejectCancellation resolves a pending cancellation request by restoring the
// booking to confirmed and clearing the request stamp.
func (db *DB) RejectCancellation(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking *models.Booking
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != models.BookingCancellationRequested {
			return fmt.Errorf("%w: no pending cancellation request", models.ErrInvalidTransition)
		}
		if err := b.Transition(models.BookingConfirmed); err != nil {
			return err
		}
		b.CancellationRequestedBy = ""
		b.CancellationRequestedAt = nil
		booking = b
		return updateBooking(ctx, tx, b)
	})
	return booking, err
}

// CancelBooking cancels a booking directly, without the approval step. A
// deducted session credit is refunded to the linked subscription,
// reactivating it if it had expired.
func (db *DB) CancelBooking(ctx context.Context, bookingID string) (*models.Booking, *models.Subscription, error) {
	var booking *models.Booking
	var sub *models.Subscription
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := b.Transition(models.BookingCancelled); err != nil {
			return err
		}

		if b.SessionDeducted {
			s, err := db.refundSubscription(ctx, tx, b)
			if err != nil {
				return err
			}
			sub = s
		}

		booking = b
		return updateBooking(ctx, tx, b)
	})
	return booking, sub, err
}

// refundSubscription credits one session back for a cancelled booking,
// preferring the subscription the booking is linked to. Missing or cancelled
// subscriptions skip the refund rather than blocking the cancellation.
func (db *DB) refundSubscription(ctx context.Context, tx *sql.Tx, b *models.Booking) (*models.Subscription, error) {
	var s *models.Subscription
	var err error
	if b.SubscriptionID != "" {
		s, err = getSubscription(ctx, tx, b.SubscriptionID)
	} else {
		s, err = findActiveSubscription(ctx, tx, b.ClientID, b.TrainerID, time.Now())
	}
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrNoActiveSubscription) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.Refund(); err != nil {
		if errors.Is(err, models.ErrSubscriptionClosed) {
			return nil, nil
		}
		return nil, err
	}
	b.SessionDeducted = false
	if err := updateSubscription(ctx, tx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CompleteSession marks a confirmed booking as completed and debits one
// session credit from the client's active subscription. Fails with
// models.ErrNoActiveSubscription when no qualifying subscription exists or
// its balance is exhausted; the booking is left untouched in that case.
func (db *DB) CompleteSession(ctx context.Context, bookingID string) (*models.Booking, *models.Subscription, error) {
	var booking *models.Booking
	var sub *models.Subscription
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		b, err := getBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := b.Transition(models.BookingCompleted); err != nil {
			return err
		}

		s, err := findActiveSubscription(ctx, tx, b.ClientID, b.TrainerID, time.Now())
		if err != nil {
			return err
		}
		if err := s.Debit(); err != nil {
			// An exhausted balance means there is nothing to charge
			// against; same failure as having no subscription at all.
			if errors.Is(err, models.ErrNoSessionsLeft) {
				return fmt.Errorf("%w: balance exhausted", models.ErrNoActiveSubscription)
			}
			return err
		}

		b.SubscriptionID = s.ID
		b.SessionDeducted = true

		if err := updateSubscription(ctx, tx, s); err != nil {
			return err
		}
		booking = b
		sub = s
		return updateBooking(ctx, tx, b)
	})
	return booking, sub, err
}

// ApproveSubscription activates a pending subscription. Enforces the
// at-most-one-active invariant for the client-trainer pair.
func (db *DB) ApproveSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	var sub *models.Subscription
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		s, err := getSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		now := time.Now()
		active, err := countOtherActive(ctx, tx, s.ClientID, s.TrainerID, s.ID, now)
		if err != nil {
			return err
		}
		if active > 0 {
			return models.ErrSubscriptionExists
		}
		if err := s.Approve(now); err != nil {
			return err
		}
		sub = s
		return updateSubscription(ctx, tx, s)
	})
	return sub, err
}

// RenewSubscription resets the balance and rolls the billing period forward.
func (db *DB) RenewSubscription(ctx context.Context, id string, payment models.PaymentStatus) (*models.Subscription, error) {
	var sub *models.Subscription
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		s, err := getSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		now := time.Now()
		active, err := countOtherActive(ctx, tx, s.ClientID, s.TrainerID, s.ID, now)
		if err != nil {
			return err
		}
		if active > 0 {
			return models.ErrSubscriptionExists
		}
		if err := s.Renew(now, payment); err != nil {
			return err
		}
		sub = s
		return updateSubscription(ctx, tx, s)
	})
	return sub, err
}

// CancelSubscription terminates a subscription.
func (db *DB) CancelSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	var sub *models.Subscription
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		s, err := getSubscription(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.Cancel(); err != nil {
			return err
		}
		sub = s
		return updateSubscription(ctx, tx, s)
	})
	return sub, err
}
