package models

import (
	"errors"
	"testing"
	"time"
)

func newActiveSub(t *testing.T, sessions int) *Subscription {
	t.Helper()
	s, err := NewSubscription("s1", "cl1", "tr1", "plan1", 1, sessions, 150, "USD", "card")
	if err != nil {
		t.Fatalf("new subscription: %v", err)
	}
	if err := s.Approve(time.Now()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	return s
}

func TestNewSubscriptionValidation(t *testing.T) {
	if _, err := NewSubscription("s1", "", "tr1", "p1", 1, 8, 0, "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("missing client: got %v", err)
	}
	if _, err := NewSubscription("s1", "cl1", "tr1", "p1", 0, 8, 0, "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero billing months: got %v", err)
	}
	if _, err := NewSubscription("s1", "cl1", "tr1", "p1", 1, 0, 0, "", ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero sessions: got %v", err)
	}
}

func TestApproveActivatesAndStampsPeriod(t *testing.T) {
	s, _ := NewSubscription("s1", "cl1", "tr1", "p1", 3, 8, 450, "USD", "offline")
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if s.IsActiveAt(now) {
		t.Error("pending subscription should not be active")
	}
	if err := s.Approve(now); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if s.Status != SubscriptionActive || s.PaymentStatus != PaymentPaid {
		t.Errorf("got %s/%s, want active/paid", s.Status, s.PaymentStatus)
	}
	if s.RemainingSessions != 8 {
		t.Errorf("remaining = %d, want 8", s.RemainingSessions)
	}
	if want := now.AddDate(0, 3, 0); !s.CurrentPeriodEnd.Equal(want) {
		t.Errorf("period end = %v, want %v", s.CurrentPeriodEnd, want)
	}
	if !s.IsActiveAt(now) {
		t.Error("approved subscription should be active")
	}

	// Double approval is rejected.
	if err := s.Approve(now); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second approve: got %v", err)
	}
}

func TestDebitNeverGoesNegative(t *testing.T) {
	s := newActiveSub(t, 2)

	if err := s.Debit(); err != nil {
		t.Fatalf("first debit: %v", err)
	}
	if s.RemainingSessions != 1 || s.Status != SubscriptionActive {
		t.Errorf("after first debit: %d/%s", s.RemainingSessions, s.Status)
	}

	if err := s.Debit(); err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if s.RemainingSessions != 0 || s.Status != SubscriptionExpired {
		t.Errorf("after exhausting: %d/%s, want 0/expired", s.RemainingSessions, s.Status)
	}

	if err := s.Debit(); !errors.Is(err, ErrNoSessionsLeft) {
		t.Errorf("debit on empty: got %v", err)
	}
	if s.RemainingSessions != 0 {
		t.Errorf("balance went negative: %d", s.RemainingSessions)
	}
}

func TestRefundReactivatesExpired(t *testing.T) {
	s := newActiveSub(t, 1)
	if err := s.Debit(); err != nil {
		t.Fatal(err)
	}
	if s.Status != SubscriptionExpired {
		t.Fatalf("status = %s, want expired", s.Status)
	}

	if err := s.Refund(); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if s.RemainingSessions != 1 || s.Status != SubscriptionActive {
		t.Errorf("after refund: %d/%s, want 1/active", s.RemainingSessions, s.Status)
	}
}

func TestRefundDoesNotResurrectCancelled(t *testing.T) {
	s := newActiveSub(t, 1)
	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}
	if err := s.Refund(); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("refund on cancelled: got %v", err)
	}
	if err := s.Debit(); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("debit on cancelled: got %v", err)
	}
	if err := s.Renew(time.Now(), PaymentPaid); !errors.Is(err, ErrSubscriptionClosed) {
		t.Errorf("renew on cancelled: got %v", err)
	}
}

func TestRenewRollsPeriodForward(t *testing.T) {
	s := newActiveSub(t, 4)
	for i := 0; i < 4; i++ {
		if err := s.Debit(); err != nil {
			t.Fatal(err)
		}
	}
	prevEnd := s.CurrentPeriodEnd

	if err := s.Renew(time.Now(), PaymentPaid); err != nil {
		t.Fatalf("renew: %v", err)
	}
	if s.RemainingSessions != 4 {
		t.Errorf("remaining = %d, want 4", s.RemainingSessions)
	}
	if s.Status != SubscriptionActive {
		t.Errorf("status = %s, want active", s.Status)
	}
	if !s.CurrentPeriodStart.Equal(prevEnd) {
		t.Errorf("period start = %v, want previous end %v", s.CurrentPeriodStart, prevEnd)
	}
	if want := prevEnd.AddDate(0, 1, 0); !s.CurrentPeriodEnd.Equal(want) {
		t.Errorf("period end = %v, want %v", s.CurrentPeriodEnd, want)
	}
}

func TestIsActiveAtRespectsPeriodEnd(t *testing.T) {
	s := newActiveSub(t, 8)
	after := s.CurrentPeriodEnd.Add(time.Hour)
	if s.IsActiveAt(after) {
		t.Error("subscription active past period end")
	}
}
