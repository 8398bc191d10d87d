package database

import (
	"context"
	"database/sql"
	"time"

	"fitsched/internal/models"
)

const subscriptionColumns = `id, client_id, trainer_id, plan_id, billing_months,
	sessions_per_month, remaining_sessions, current_period_start, current_period_end,
	status, payment_status, amount, currency, payment_method, created_at, updated_at`

// CreateSubscription inserts a new subscription record.
func (db *DB) CreateSubscription(ctx context.Context, s *models.Subscription) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO subscriptions (
			id, client_id, trainer_id, plan_id, billing_months, sessions_per_month,
			remaining_sessions, current_period_start, current_period_end,
			status, payment_status, amount, currency, payment_method, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ClientID, s.TrainerID, s.PlanID, s.BillingMonths, s.SessionsPerMonth,
		s.RemainingSessions, nullableTime(s.CurrentPeriodStart), nullableTime(s.CurrentPeriodEnd),
		string(s.Status), string(s.PaymentStatus), s.Amount, s.Currency, s.PaymentMethod,
		s.CreatedAt, s.UpdatedAt,
	)
	return err
}

// GetSubscription returns a subscription by id or models.ErrNotFound.
func (db *DB) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	return getSubscription(ctx, db.DB, id)
}

func getSubscription(ctx context.Context, q querier, id string) (*models.Subscription, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	s, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return s, err
}

// ListSubscriptionsForPair returns all subscriptions for a client-trainer
// pair, newest first.
func (db *DB) ListSubscriptionsForPair(ctx context.Context, clientID, trainerID string) ([]models.Subscription, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE client_id = ? AND trainer_id = ?
		ORDER BY created_at DESC`,
		clientID, trainerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// findActiveSubscription returns the active, paid subscription for the pair
// whose period has not ended, or models.ErrNoActiveSubscription. The product
// guarantees at most one such row; the write path enforces it.
func findActiveSubscription(ctx context.Context, q querier, clientID, trainerID string, now time.Time) (*models.Subscription, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE client_id = ? AND trainer_id = ? AND status = ? AND payment_status = ?
		  AND (current_period_end IS NULL OR current_period_end >= ?)
		ORDER BY created_at DESC
		LIMIT 1`,
		clientID, trainerID, string(models.SubscriptionActive), string(models.PaymentPaid), now,
	)
	s, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNoActiveSubscription
	}
	return s, err
}

// countOtherActive counts active subscriptions for the pair excluding one id.
// Used to enforce the at-most-one-active invariant on approval and renewal.
func countOtherActive(ctx context.Context, q querier, clientID, trainerID, excludeID string, now time.Time) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM subscriptions
		WHERE client_id = ? AND trainer_id = ? AND id != ? AND status = ?
		  AND (current_period_end IS NULL OR current_period_end >= ?)`,
		clientID, trainerID, excludeID, string(models.SubscriptionActive), now,
	).Scan(&count)
	return count, err
}

func updateSubscription(ctx context.Context, q querier, s *models.Subscription) error {
	_, err := q.ExecContext(ctx, `
		UPDATE subscriptions SET
			remaining_sessions = ?,
			current_period_start = ?,
			current_period_end = ?,
			status = ?,
			payment_status = ?,
			updated_at = ?
		WHERE id = ?`,
		s.RemainingSessions, nullableTime(s.CurrentPeriodStart), nullableTime(s.CurrentPeriodEnd),
		string(s.Status), string(s.PaymentStatus), s.UpdatedAt, s.ID,
	)
	return err
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var s models.Subscription
	var status, payment string
	var periodStart, periodEnd sql.NullTime
	err := row.Scan(
		&s.ID, &s.ClientID, &s.TrainerID, &s.PlanID, &s.BillingMonths,
		&s.SessionsPerMonth, &s.RemainingSessions, &periodStart, &periodEnd,
		&status, &payment, &s.Amount, &s.Currency, &s.PaymentMethod,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = models.SubscriptionStatus(status)
	s.PaymentStatus = models.PaymentStatus(payment)
	if periodStart.Valid {
		s.CurrentPeriodStart = periodStart.Time
	}
	if periodEnd.Valid {
		s.CurrentPeriodEnd = periodEnd.Time
	}
	return &s, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
