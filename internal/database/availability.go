package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fitsched/internal/models"
)

// GetTemplate returns the availability template for a trainer and weekday, or
// models.ErrNotFound when none is configured.
func (db *DB) GetTemplate(ctx context.Context, trainerID string, day time.Weekday) (*models.AvailabilityTemplate, error) {
	return getTemplate(ctx, db.DB, trainerID, day)
}

func getTemplate(ctx context.Context, q querier, trainerID string, day time.Weekday) (*models.AvailabilityTemplate, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, trainer_id, day_of_week, enabled, time_ranges, breaks,
		       session_duration, created_at, updated_at
		FROM availability_templates
		WHERE trainer_id = ? AND day_of_week = ?`,
		trainerID, int(day),
	)
	return scanTemplate(row)
}

// ListTemplates returns all weekday templates for a trainer, ordered by day.
func (db *DB) ListTemplates(ctx context.Context, trainerID string) ([]models.AvailabilityTemplate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, trainer_id, day_of_week, enabled, time_ranges, breaks,
		       session_duration, created_at, updated_at
		FROM availability_templates
		WHERE trainer_id = ?
		ORDER BY day_of_week`,
		trainerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.AvailabilityTemplate
	for rows.Next() {
		t, err := scanTemplateRows(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// UpsertTemplate creates or replaces the template for a trainer and weekday.
func (db *DB) UpsertTemplate(ctx context.Context, t *models.AvailabilityTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}

	ranges, err := json.Marshal(t.TimeRanges)
	if err != nil {
		return fmt.Errorf("marshal time ranges: %w", err)
	}
	breaks, err := json.Marshal(t.Breaks)
	if err != nil {
		return fmt.Errorf("marshal breaks: %w", err)
	}

	now := time.Now()
	_, err = db.ExecContext(ctx, `
		INSERT INTO availability_templates (
			trainer_id, day_of_week, enabled, time_ranges, breaks,
			session_duration, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trainer_id, day_of_week) DO UPDATE SET
			enabled = excluded.enabled,
			time_ranges = excluded.time_ranges,
			breaks = excluded.breaks,
			session_duration = excluded.session_duration,
			updated_at = excluded.updated_at`,
		t.TrainerID, int(t.DayOfWeek), t.Enabled, string(ranges), string(breaks),
		t.SessionDuration, now, now,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row *sql.Row) (*models.AvailabilityTemplate, error) {
	t, err := scanTemplateRows(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	return t, err
}

func scanTemplateRows(row rowScanner) (*models.AvailabilityTemplate, error) {
	var t models.AvailabilityTemplate
	var day int
	var ranges, breaks string
	err := row.Scan(&t.ID, &t.TrainerID, &day, &t.Enabled, &ranges, &breaks,
		&t.SessionDuration, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.DayOfWeek = time.Weekday(day)
	if err := json.Unmarshal([]byte(ranges), &t.TimeRanges); err != nil {
		return nil, fmt.Errorf("unmarshal time ranges: %w", err)
	}
	if breaks != "" {
		if err := json.Unmarshal([]byte(breaks), &t.Breaks); err != nil {
			return nil, fmt.Errorf("unmarshal breaks: %w", err)
		}
	}
	return &t, nil
}

// GetTrainerSettings returns settings for a trainer. An unknown trainer gets
// a zero-value row; the service layer fills in the configured defaults.
func (db *DB) GetTrainerSettings(ctx context.Context, trainerID string) (*models.TrainerSettings, error) {
	row := db.QueryRowContext(ctx, `
		SELECT trainer_id, timezone, telegram_chat_id, created_at, updated_at
		FROM trainer_settings
		WHERE trainer_id = ?`, trainerID)

	var s models.TrainerSettings
	err := row.Scan(&s.TrainerID, &s.Timezone, &s.TelegramChatID, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.TrainerSettings{TrainerID: trainerID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertTrainerSettings creates or updates settings for a trainer.
func (db *DB) UpsertTrainerSettings(ctx context.Context, s *models.TrainerSettings) error {
	if s.TrainerID == "" {
		return fmt.Errorf("%w: trainer id is required", models.ErrInvalidArgument)
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", models.ErrInvalidArgument, s.Timezone)
		}
	}

	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO trainer_settings (trainer_id, timezone, telegram_chat_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(trainer_id) DO UPDATE SET
			timezone = excluded.timezone,
			telegram_chat_id = excluded.telegram_chat_id,
			updated_at = excluded.updated_at`,
		s.TrainerID, s.Timezone, s.TelegramChatID, now, now,
	)
	return err
}
