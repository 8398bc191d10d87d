package slots

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"fitsched/internal/models"
)

var testDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday

func mondayTemplate(ranges []models.TimeRange, breaks []models.TimeRange) *models.AvailabilityTemplate {
	return &models.AvailabilityTemplate{
		TrainerID:       "tr1",
		DayOfWeek:       time.Monday,
		Enabled:         true,
		TimeRanges:      ranges,
		Breaks:          breaks,
		SessionDuration: 60,
	}
}

func bookingAt(t *testing.T, clock string, duration int, status models.BookingStatus) models.Booking {
	t.Helper()
	min, err := models.ParseClock(clock)
	if err != nil {
		t.Fatalf("parse %s: %v", clock, err)
	}
	start := testDate.Add(time.Duration(min) * time.Minute)
	return models.Booking{
		ID:        "b-" + clock,
		TrainerID: "tr1",
		ClientID:  "cl1",
		Date:      testDate,
		StartTime: start,
		EndTime:   start.Add(time.Duration(duration) * time.Minute),
		Duration:  duration,
		Status:    status,
	}
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name     string
		template *models.AvailabilityTemplate
		bookings []models.Booking
		duration int
		want     []string
	}{
		{
			name:     "morning range no bookings",
			template: mondayTemplate([]models.TimeRange{{Start: "09:00", End: "12:00"}}, nil),
			duration: 60,
			want:     []string{"09:00", "10:00", "11:00"},
		},
		{
			name:     "existing booking removes its slot",
			template: mondayTemplate([]models.TimeRange{{Start: "09:00", End: "12:00"}}, nil),
			duration: 60,
			want:     []string{"09:00", "11:00"},
		},
		{
			name: "break disqualifies on any touch",
			template: mondayTemplate(
				[]models.TimeRange{{Start: "09:00", End: "14:00"}},
				[]models.TimeRange{{Start: "12:30", End: "13:00"}},
			),
			duration: 60,
			// The 12:00 slot overlaps the 12:30-13:00 break; 13:00 only
			// shares a boundary with it and stays bookable.
			want: []string{"09:00", "10:00", "11:00", "13:00"},
		},
		{
			name: "non contiguous ranges concatenated and sorted",
			template: mondayTemplate(
				[]models.TimeRange{{Start: "16:00", End: "18:00"}, {Start: "08:00", End: "10:00"}},
				nil,
			),
			duration: 60,
			want:     []string{"08:00", "09:00", "16:00", "17:00"},
		},
		{
			name:     "45 minute stepping",
			template: mondayTemplate([]models.TimeRange{{Start: "09:00", End: "12:00"}}, nil),
			duration: 45,
			want:     []string{"09:00", "09:45", "10:30", "11:15"},
		},
		{
			name:     "slot must fit inside range",
			template: mondayTemplate([]models.TimeRange{{Start: "09:00", End: "10:30"}}, nil),
			duration: 60,
			want:     []string{"09:00"},
		},
		{
			name:     "disabled day yields nothing",
			template: &models.AvailabilityTemplate{TrainerID: "tr1", DayOfWeek: time.Monday, Enabled: false},
			duration: 60,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := tt.bookings
			if tt.name == "existing booking removes its slot" {
				bookings = []models.Booking{bookingAt(t, "10:00", 60, models.BookingConfirmed)}
			}
			got, err := Generate(tt.template, testDate, bookings, tt.duration, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateNilTemplate(t *testing.T) {
	got, err := Generate(nil, testDate, nil, 60, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestGenerateInvalidDuration(t *testing.T) {
	tmpl := mondayTemplate([]models.TimeRange{{Start: "09:00", End: "12:00"}}, nil)
	_, err := Generate(tmpl, testDate, nil, 0, nil)
	if !errors.Is(err, models.ErrInvalidDuration) {
		t.Errorf("got %v, want ErrInvalidDuration", err)
	}
}

func TestGenerateOverlapTolerance(t *testing.T) {
	tmpl := mondayTemplate([]models.TimeRange{{Start: "09:00", End: "12:00"}}, nil)

	// A booking overlapping the 10:00 slot by exactly 5 minutes is tolerated.
	tolerated := []models.Booking{bookingAt(t, "09:05", 60, models.BookingConfirmed)} // ends 10:05
	got, err := Generate(tmpl, testDate, tolerated, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"10:00", "11:00"}) {
		t.Errorf("5 minute overlap: got %v", got)
	}

	// A 6-minute overlap conflicts.
	conflicting := []models.Booking{bookingAt(t, "09:06", 60, models.BookingConfirmed)} // ends 10:06
	got, err = Generate(tmpl, testDate, conflicting, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"11:00"}) {
		t.Errorf("6 minute overlap: got %v", got)
	}
}

func TestGenerateCancelledBookingsIgnored(t *testing.T) {
	tmpl := mondayTemplate([]models.TimeRange{{Start: "09:00", End: "12:00"}}, nil)
	bookings := []models.Booking{bookingAt(t, "10:00", 60, models.BookingCancelled)}
	got, err := Generate(tmpl, testDate, bookings, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"09:00", "10:00", "11:00"}) {
		t.Errorf("got %v", got)
	}
}

func TestGenerateTodayCutoff(t *testing.T) {
	tmpl := mondayTemplate([]models.TimeRange{{Start: "09:00", End: "12:00"}}, nil)
	now := testDate.Add(10*time.Hour + 15*time.Minute) // 10:15

	got, err := Generate(tmpl, testDate, nil, 60, &now)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"11:00"}) {
		t.Errorf("got %v, want [11:00]", got)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	tmpl := mondayTemplate(
		[]models.TimeRange{{Start: "09:00", End: "13:00"}},
		[]models.TimeRange{{Start: "11:00", End: "11:30"}},
	)
	bookings := []models.Booking{bookingAt(t, "09:00", 60, models.BookingConfirmed)}

	first, err := Generate(tmpl, testDate, bookings, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Generate(tmpl, testDate, bookings, 60, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("not idempotent: %v vs %v", first, second)
	}
}
