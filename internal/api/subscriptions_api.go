package api

import (
	"net/http"

	"fitsched/internal/metrics"
	"fitsched/internal/models"
	"fitsched/internal/service"
)

// CreateSubscriptionRequest is the request body for POST /api/subscriptions.
type CreateSubscriptionRequest struct {
	ClientID         string  `json:"client_id"`
	TrainerID        string  `json:"trainer_id"`
	PlanID           string  `json:"plan_id"`
	BillingMonths    int     `json:"billing_months"`
	SessionsPerMonth int     `json:"sessions_per_month"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency,omitempty"`
	PaymentMethod    string  `json:"payment_method,omitempty"`
}

// RenewSubscriptionRequest is the request body for the renew action.
type RenewSubscriptionRequest struct {
	PaymentStatus string `json:"payment_status,omitempty"` // "paid" or "pending"
}

// handleSubscriptions creates and lists subscriptions.
// POST /api/subscriptions
// GET  /api/subscriptions?client_id=...&trainer_id=...
func (s *HTTPServer) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("subscriptions")
	switch r.Method {
	case http.MethodPost:
		var req CreateSubscriptionRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		sub, err := s.subs.Create(r.Context(), service.CreateSubscriptionRequest{
			ClientID:         req.ClientID,
			TrainerID:        req.TrainerID,
			PlanID:           req.PlanID,
			BillingMonths:    req.BillingMonths,
			SessionsPerMonth: req.SessionsPerMonth,
			Amount:           req.Amount,
			Currency:         req.Currency,
			PaymentMethod:    req.PaymentMethod,
		})
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, sub)

	case http.MethodGet:
		clientID := r.URL.Query().Get("client_id")
		trainerID := r.URL.Query().Get("trainer_id")
		if clientID == "" || trainerID == "" {
			writeError(w, http.StatusBadRequest, "client_id and trainer_id are required")
			return
		}
		subs, err := s.subs.ListForPair(r.Context(), clientID, trainerID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSubscriptionByID serves one subscription and its lifecycle actions.
// GET  /api/subscriptions/{id}
// POST /api/subscriptions/{id}/approve
// POST /api/subscriptions/{id}/renew
// POST /api/subscriptions/{id}/cancel
func (s *HTTPServer) handleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	id, action := splitIDAction(r.URL.Path, "/api/subscriptions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "subscription id is required")
		return
	}

	if action == "" {
		metrics.IncHTTP("subscription_get")
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sub, err := s.subs.Get(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "approve":
		metrics.IncHTTP("subscription_approve")
		sub, err := s.subs.Approve(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)

	case "renew":
		metrics.IncHTTP("subscription_renew")
		payment := models.PaymentPaid
		if r.ContentLength > 0 {
			var body RenewSubscriptionRequest
			if err := decodeBody(r, &body); err != nil {
				s.writeDomainError(w, r, err)
				return
			}
			if body.PaymentStatus != "" {
				payment = models.PaymentStatus(body.PaymentStatus)
			}
		}
		sub, err := s.subs.Renew(r.Context(), id, payment)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)

	case "cancel":
		metrics.IncHTTP("subscription_cancel")
		sub, err := s.subs.Cancel(r.Context(), id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)

	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}
