package api

import (
	"fmt"
	"net/http"
	"time"

	"fitsched/internal/metrics"
	"fitsched/internal/models"
)

// handleTrainers serves trainer schedule, settings, bookings and reports.
// GET /api/trainers/{id}/schedule
// PUT /api/trainers/{id}/schedule
// GET /api/trainers/{id}/settings
// PUT /api/trainers/{id}/settings
// GET /api/trainers/{id}/bookings?date=YYYY-MM-DD
// GET /api/trainers/{id}/report?year=2025&month=6
func (s *HTTPServer) handleTrainers(w http.ResponseWriter, r *http.Request) {
	trainerID, action := splitIDAction(r.URL.Path, "/api/trainers/")
	if trainerID == "" {
		writeError(w, http.StatusBadRequest, "trainer id is required")
		return
	}

	switch action {
	case "schedule":
		s.handleTrainerSchedule(w, r, trainerID)
	case "settings":
		s.handleTrainerSettings(w, r, trainerID)
	case "bookings":
		s.handleTrainerBookings(w, r, trainerID)
	case "report":
		s.handleTrainerReport(w, r, trainerID)
	default:
		writeError(w, http.StatusNotFound, "unknown resource")
	}
}

func (s *HTTPServer) handleTrainerSchedule(w http.ResponseWriter, r *http.Request, trainerID string) {
	metrics.IncHTTP("trainer_schedule")
	switch r.Method {
	case http.MethodGet:
		templates, err := s.bookings.ListTemplates(r.Context(), trainerID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"templates": templates})

	case http.MethodPut:
		var tmpl models.AvailabilityTemplate
		if err := decodeBody(r, &tmpl); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		tmpl.TrainerID = trainerID
		if err := s.bookings.UpsertTemplate(r.Context(), &tmpl); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		stored, err := s.bookings.GetTemplate(r.Context(), trainerID, tmpl.DayOfWeek)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stored)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleTrainerSettings(w http.ResponseWriter, r *http.Request, trainerID string) {
	metrics.IncHTTP("trainer_settings")
	switch r.Method {
	case http.MethodGet:
		settings, err := s.bookings.GetTrainerSettings(r.Context(), trainerID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var settings models.TrainerSettings
		if err := decodeBody(r, &settings); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		settings.TrainerID = trainerID
		if err := s.bookings.UpsertTrainerSettings(r.Context(), &settings); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		stored, err := s.bookings.GetTrainerSettings(r.Context(), trainerID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stored)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleTrainerBookings(w http.ResponseWriter, r *http.Request, trainerID string) {
	metrics.IncHTTP("trainer_bookings")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	bookings, err := s.bookings.ListTrainerDay(r.Context(), trainerID, date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleTrainerReport(w http.ResponseWriter, r *http.Request, trainerID string) {
	metrics.IncHTTP("trainer_report")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, err := queryInt(r, "year")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if year == 0 || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "year and month (1-12) are required")
		return
	}

	settings, err := s.bookings.GetTrainerSettings(r.Context(), trainerID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	filename := fmt.Sprintf("report_%s_%04d-%02d.xlsx", trainerID, year, month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := s.reports.MonthReport(r.Context(), trainerID, year, time.Month(month), settings.Location(), w); err != nil {
		s.log.Error().Err(err).Str("trainer_id", trainerID).Msg("report generation failed")
	}
}

// handleClients serves client booking history.
// GET /api/clients/{id}/bookings?trainer_id=...
func (s *HTTPServer) handleClients(w http.ResponseWriter, r *http.Request) {
	clientID, action := splitIDAction(r.URL.Path, "/api/clients/")
	if clientID == "" || action != "bookings" {
		writeError(w, http.StatusNotFound, "unknown resource")
		return
	}
	metrics.IncHTTP("client_bookings")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	trainerID := r.URL.Query().Get("trainer_id")
	if trainerID == "" {
		writeError(w, http.StatusBadRequest, "trainer_id is required")
		return
	}
	bookings, err := s.bookings.ListClientBookings(r.Context(), clientID, trainerID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}
