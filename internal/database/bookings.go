package database

import (
	"context"
	"database/sql"
	"time"

	"fitsched/internal/models"
)

const bookingColumns = `id, trainer_id, client_id, date, start_time, end_time,
	duration, status, notes, cancellation_requested_by, cancellation_requested_at,
	subscription_id, session_deducted, created_at, updated_at`

// GetBooking returns a booking by id or models.ErrNotFound.
func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return getBooking(ctx, db.DB, id)
}

func getBooking(ctx context.Context, q querier, id string) (*models.Booking, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return b, err
}

// ListBookingsForDay returns a trainer's non-cancelled bookings for a date.
func (db *DB) ListBookingsForDay(ctx context.Context, trainerID string, date time.Time) ([]models.Booking, error) {
	return listBookingsForDay(ctx, db.DB, trainerID, date)
}

func listBookingsForDay(ctx context.Context, q querier, trainerID string, date time.Time) ([]models.Booking, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE trainer_id = ? AND date(date) = date(?) AND status != ?
		ORDER BY start_time`,
		trainerID, date, string(models.BookingCancelled),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBookingsBetween returns a trainer's bookings with a start time inside
// [from, to), any status. Feeds calendar sync and reports.
func (db *DB) ListBookingsBetween(ctx context.Context, trainerID string, from, to time.Time) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE trainer_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time`,
		trainerID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListClientBookings returns a client's bookings with a trainer, newest first.
func (db *DB) ListClientBookings(ctx context.Context, clientID, trainerID string) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE client_id = ? AND trainer_id = ?
		ORDER BY start_time DESC`,
		clientID, trainerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func insertBooking(ctx context.Context, q querier, b *models.Booking) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO bookings (
			id, trainer_id, client_id, date, start_time, end_time, duration,
			status, notes, cancellation_requested_by, cancellation_requested_at,
			subscription_id, session_deducted, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.TrainerID, b.ClientID, b.Date, b.StartTime, b.EndTime, b.Duration,
		string(b.Status), b.Notes, b.CancellationRequestedBy, b.CancellationRequestedAt,
		b.SubscriptionID, b.SessionDeducted, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

func updateBooking(ctx context.Context, q querier, b *models.Booking) error {
	_, err := q.ExecContext(ctx, `
		UPDATE bookings SET
			status = ?,
			notes = ?,
			cancellation_requested_by = ?,
			cancellation_requested_at = ?,
			subscription_id = ?,
			session_deducted = ?,
			updated_at = ?
		WHERE id = ?`,
		string(b.Status), b.Notes, b.CancellationRequestedBy, b.CancellationRequestedAt,
		b.SubscriptionID, b.SessionDeducted, b.UpdatedAt, b.ID,
	)
	return err
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var status, requestedBy string
	var requestedAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.TrainerID, &b.ClientID, &b.Date, &b.StartTime, &b.EndTime,
		&b.Duration, &status, &b.Notes, &requestedBy, &requestedAt,
		&b.SubscriptionID, &b.SessionDeducted, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	b.CancellationRequestedBy = requestedBy
	if requestedAt.Valid {
		t := requestedAt.Time
		b.CancellationRequestedAt = &t
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
