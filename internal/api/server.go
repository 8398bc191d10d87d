// Package api exposes the scheduling engine over HTTP/JSON.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"fitsched/internal/models"
	"fitsched/internal/reports"
	"fitsched/internal/service"
)

// HTTPServer serves the engine's JSON API.
type HTTPServer struct {
	bookings *service.BookingService
	subs     *service.SubscriptionService
	reports  *reports.Generator
	log      *zerolog.Logger
	apiKey   string
	server   *http.Server
}

// NewHTTPServer wires the API server. An empty apiKey disables auth.
func NewHTTPServer(bookings *service.BookingService, subs *service.SubscriptionService, rep *reports.Generator, log *zerolog.Logger, apiKey string) *HTTPServer {
	return &HTTPServer{
		bookings: bookings,
		subs:     subs,
		reports:  rep,
		log:      log,
		apiKey:   apiKey,
	}
}

// Handler builds the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/slots", s.handleSlots)
	mux.HandleFunc("/api/bookings", s.handleBookings)
	mux.HandleFunc("/api/bookings/", s.handleBookingByID)
	mux.HandleFunc("/api/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("/api/subscriptions/", s.handleSubscriptionByID)
	mux.HandleFunc("/api/trainers/", s.handleTrainers)
	mux.HandleFunc("/api/clients/", s.handleClients)
	return s.withAuth(mux)
}

// Start runs the server until Shutdown.
func (s *HTTPServer) Start(port int) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("API server starting")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

func (s *HTTPServer) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeDomainError maps sentinel errors onto HTTP statuses.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrSlotConflict), errors.Is(err, models.ErrSubscriptionExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrNoActiveSubscription),
		errors.Is(err, models.ErrNoSessionsLeft),
		errors.Is(err, models.ErrSubscriptionClosed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrInvalidDuration):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", models.ErrInvalidArgument)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidArgument, key)
	}
	return n, nil
}
