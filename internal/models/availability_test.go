package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9", 0, true},
		{"ab:cd", 0, true},
		{"10:60", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(570); got != "09:30" {
		t.Errorf("FormatClock(570) = %s", got)
	}
	if got := FormatClock(0); got != "00:00" {
		t.Errorf("FormatClock(0) = %s", got)
	}
}

func TestTimeRangeMinutes(t *testing.T) {
	if _, _, err := (TimeRange{Start: "12:00", End: "09:00"}).Minutes(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("inverted range: got %v", err)
	}
	start, end, err := (TimeRange{Start: "09:00", End: "12:00"}).Minutes()
	if err != nil || start != 540 || end != 720 {
		t.Errorf("got %d-%d (%v)", start, end, err)
	}
}

func TestTemplateValidate(t *testing.T) {
	tmpl := &AvailabilityTemplate{
		TrainerID:       "tr1",
		DayOfWeek:       time.Monday,
		Enabled:         true,
		TimeRanges:      []TimeRange{{Start: "09:00", End: "12:00"}},
		SessionDuration: 60,
	}
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("valid template: %v", err)
	}

	tmpl.TimeRanges = nil
	if err := tmpl.Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("enabled without ranges: got %v", err)
	}

	tmpl.Enabled = false
	if err := tmpl.Validate(); err != nil {
		t.Errorf("disabled without ranges: %v", err)
	}
}

func TestTrainerSettingsLocation(t *testing.T) {
	var s *TrainerSettings
	if s.Location() != time.UTC {
		t.Error("nil settings should resolve to UTC")
	}
	s = &TrainerSettings{Timezone: "definitely/nowhere"}
	if s.Location() != time.UTC {
		t.Error("bad timezone should fall back to UTC")
	}
	s = &TrainerSettings{Timezone: "Europe/Berlin"}
	if s.Location().String() != "Europe/Berlin" {
		t.Errorf("got %s", s.Location())
	}
}
