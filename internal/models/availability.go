package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeRange is a wall-clock interval within a day, "HH:MM" inclusive start,
// exclusive end.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Minutes parses the range into minutes-from-midnight.
func (r TimeRange) Minutes() (start, end int, err error) {
	start, err = ParseClock(r.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = ParseClock(r.End)
	if err != nil {
		return 0, 0, err
	}
	if end <= start {
		return 0, 0, fmt.Errorf("%w: range %s-%s", ErrInvalidArgument, r.Start, r.End)
	}
	return start, end, nil
}

// ParseClock parses "HH:MM" into minutes from midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: invalid time %q", ErrInvalidArgument, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidArgument, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrInvalidArgument, s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AvailabilityTemplate is a trainer's recurring open-hours definition for one
// weekday. Ranges need not be contiguous; breaks may fall inside or outside
// ranges.
type AvailabilityTemplate struct {
	ID              int64        `json:"id"`
	TrainerID       string       `json:"trainer_id"`
	DayOfWeek       time.Weekday `json:"day_of_week"` // 0 = Sunday
	Enabled         bool         `json:"enabled"`
	TimeRanges      []TimeRange  `json:"time_ranges"`
	Breaks          []TimeRange  `json:"breaks,omitempty"`
	SessionDuration int          `json:"session_duration"` // default minutes
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// Validate checks the template is well-formed.
func (t *AvailabilityTemplate) Validate() error {
	if t.TrainerID == "" {
		return fmt.Errorf("%w: trainer id is required", ErrInvalidArgument)
	}
	if t.DayOfWeek < time.Sunday || t.DayOfWeek > time.Saturday {
		return fmt.Errorf("%w: day_of_week %d", ErrInvalidArgument, t.DayOfWeek)
	}
	if t.Enabled && len(t.TimeRanges) == 0 {
		return fmt.Errorf("%w: enabled template needs at least one time range", ErrInvalidArgument)
	}
	for _, r := range t.TimeRanges {
		if _, _, err := r.Minutes(); err != nil {
			return err
		}
	}
	for _, r := range t.Breaks {
		if _, _, err := r.Minutes(); err != nil {
			return err
		}
	}
	if t.SessionDuration < 0 {
		return fmt.Errorf("%w: session_duration %d", ErrInvalidArgument, t.SessionDuration)
	}
	return nil
}

// TrainerSettings holds per-trainer engine settings. Timezone drives the
// "today" cutoff when generating slots.
type TrainerSettings struct {
	TrainerID      string    `json:"trainer_id"`
	Timezone       string    `json:"timezone"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Location resolves the configured timezone, falling back to UTC.
func (s *TrainerSettings) Location() *time.Location {
	if s == nil || s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
