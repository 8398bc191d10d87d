package api

import (
	"net/http"
	"strings"

	"fitsched/internal/metrics"
	"fitsched/internal/service"
)

// SlotsResponse is the response for GET /api/slots.
type SlotsResponse struct {
	TrainerID string   `json:"trainer_id"`
	Date      string   `json:"date"`
	Duration  int      `json:"duration"`
	Slots     []string `json:"slots"`
}

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	TrainerID string `json:"trainer_id"`
	ClientID  string `json:"client_id"`
	Date      string `json:"date"`       // Format: YYYY-MM-DD
	StartTime string `json:"start_time"` // Format: HH:MM
	Duration  int    `json:"duration"`   // minutes
	Notes     string `json:"notes,omitempty"`
}

// CancelRequestBody is the request body for cancellation requests.
type CancelRequestBody struct {
	RequestedBy string `json:"requested_by"`
}

// handleSlots returns open start times for a trainer and date.
// GET /api/slots?trainer_id=...&date=YYYY-MM-DD&duration=60
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	trainerID := r.URL.Query().Get("trainer_id")
	date := r.URL.Query().Get("date")
	if trainerID == "" || date == "" {
		writeError(w, http.StatusBadRequest, "trainer_id and date are required")
		return
	}
	duration, err := queryInt(r, "duration")
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	slots, err := s.bookings.GetAvailableSlots(r.Context(), trainerID, date, duration)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SlotsResponse{
		TrainerID: trainerID,
		Date:      date,
		Duration:  duration,
		Slots:     slots,
	})
}

// handleBookings creates bookings.
// POST /api/bookings
func (s *HTTPServer) handleBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req CreateBookingRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if req.TrainerID == "" || req.ClientID == "" || req.Date == "" || req.StartTime == "" {
		writeError(w, http.StatusBadRequest, "trainer_id, client_id, date and start_time are required")
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		TrainerID: req.TrainerID,
		ClientID:  req.ClientID,
		Date:      req.Date,
		StartTime: req.StartTime,
		Duration:  req.Duration,
		Notes:     req.Notes,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// handleBookingByID serves one booking and its lifecycle actions.
// GET  /api/bookings/{id}
// POST /api/bookings/{id}/cancel-request
// POST /api/bookings/{id}/cancel-approve
// POST /api/bookings/{id}/cancel-reject
// POST /api/bookings/{id}/cancel
// POST /api/bookings/{id}/complete
func (s *HTTPServer) handleBookingByID(w http.ResponseWriter, r *http.Request) {
	id, action := splitIDAction(r.URL.Path, "/api/bookings/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "booking id is required")
		return
	}

	if action == "" {
		metrics.IncHTTP("booking_get")
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		booking, err := s.bookings.GetBooking(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "cancel-request":
		metrics.IncHTTP("booking_cancel_request")
		var body CancelRequestBody
		if err := decodeBody(r, &body); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		if body.RequestedBy == "" {
			writeError(w, http.StatusBadRequest, "requested_by is required")
			return
		}
		booking, err := s.bookings.RequestCancellation(r.Context(), id, body.RequestedBy)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case "cancel-approve":
		metrics.IncHTTP("booking_cancel_approve")
		booking, err := s.bookings.ApproveCancellation(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case "cancel-reject":
		metrics.IncHTTP("booking_cancel_reject")
		booking, err := s.bookings.RejectCancellation(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case "cancel":
		metrics.IncHTTP("booking_cancel")
		booking, err := s.bookings.CancelBooking(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)

	case "complete":
		metrics.IncHTTP("booking_complete")
		result, err := s.bookings.CompleteSession(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

// splitIDAction extracts "{id}" and an optional "{action}" from a path under
// prefix.
func splitIDAction(path, prefix string) (id, action string) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == path {
		return "", ""
	}
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action
}
