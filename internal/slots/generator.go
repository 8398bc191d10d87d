// Package slots derives bookable start times from a trainer's availability
// template. Slots are computed fresh on every query, never stored, so the
// generator is a pure function of current state.
package slots

import (
	"fmt"
	"sort"
	"time"

	"fitsched/internal/models"
)

// Generate returns the ascending list of valid "HH:MM" start times for the
// given date. existing must contain the trainer's bookings for that date;
// cancelled ones are ignored. now, when non-nil, marks the date as "today"
// and slots starting before it are discarded.
func Generate(tmpl *models.AvailabilityTemplate, date time.Time, existing []models.Booking, duration int, now *time.Time) ([]string, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", models.ErrInvalidDuration, duration)
	}
	if tmpl == nil || !tmpl.Enabled {
		return []string{}, nil
	}

	breaks := make([][2]int, 0, len(tmpl.Breaks))
	for _, b := range tmpl.Breaks {
		start, end, err := b.Minutes()
		if err != nil {
			return nil, fmt.Errorf("break %s-%s: %w", b.Start, b.End, err)
		}
		breaks = append(breaks, [2]int{start, end})
	}

	var nowMinute int
	if now != nil {
		local := *now
		nowMinute = local.Hour()*60 + local.Minute()
	}

	seen := make(map[int]bool)
	var starts []int

	for _, r := range tmpl.TimeRanges {
		rangeStart, rangeEnd, err := r.Minutes()
		if err != nil {
			return nil, fmt.Errorf("range %s-%s: %w", r.Start, r.End, err)
		}

		for cursor := rangeStart; cursor+duration <= rangeEnd; cursor += duration {
			if seen[cursor] {
				continue
			}
			if now != nil && cursor < nowMinute {
				continue
			}
			if overlapsBreak(cursor, cursor+duration, breaks) {
				continue
			}
			if conflictsBooking(date, cursor, duration, existing) {
				continue
			}
			seen[cursor] = true
			starts = append(starts, cursor)
		}
	}

	sort.Ints(starts)
	result := make([]string, len(starts))
	for i, m := range starts {
		result[i] = models.FormatClock(m)
	}
	return result, nil
}

// overlapsBreak reports whether [start, end) touches any break at all. Any
// overlap disqualifies, no tolerance.
func overlapsBreak(start, end int, breaks [][2]int) bool {
	for _, b := range breaks {
		if start < b[1] && b[0] < end {
			return true
		}
	}
	return false
}

// conflictsBooking reports whether the candidate slot overlaps a non-cancelled
// booking by more than the tolerance.
func conflictsBooking(date time.Time, startMinute, duration int, existing []models.Booking) bool {
	slotStart := date.Add(time.Duration(startMinute) * time.Minute)
	slotEnd := slotStart.Add(time.Duration(duration) * time.Minute)
	for i := range existing {
		if existing[i].ConflictsWith(slotStart, slotEnd) {
			return true
		}
	}
	return false
}
