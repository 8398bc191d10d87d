package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsched/internal/events"
	"fitsched/internal/models"
)

func TestSubscriptionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.subs.Create(ctx, CreateSubscriptionRequest{
		ClientID: "cl1", TrainerID: "tr1", PlanID: "monthly-8",
		BillingMonths: 1, SessionsPerMonth: 8,
		Amount: 200, Currency: "USD", PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionPending, sub.Status)
	assert.Equal(t, models.PaymentPending, sub.PaymentStatus)
	assert.Zero(t, sub.RemainingSessions)
	assert.Len(t, f.recorder.ofType(events.TypeSubscriptionCreated), 2)

	approved, err := f.subs.Approve(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, approved.Status)
	assert.Equal(t, models.PaymentPaid, approved.PaymentStatus)
	assert.Equal(t, 8, approved.RemainingSessions)
	assert.False(t, approved.CurrentPeriodEnd.IsZero())
	assert.True(t, approved.CurrentPeriodEnd.After(approved.CurrentPeriodStart))
	assert.Len(t, f.recorder.ofType(events.TypeSubscriptionApproved), 2)

	t.Run("second approval fails", func(t *testing.T) {
		_, err := f.subs.Approve(ctx, sub.ID)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("second active subscription blocked", func(t *testing.T) {
		other, err := f.subs.Create(ctx, CreateSubscriptionRequest{
			ClientID: "cl1", TrainerID: "tr1", PlanID: "monthly-4",
			BillingMonths: 1, SessionsPerMonth: 4,
			Amount: 120, Currency: "USD", PaymentMethod: "card",
		})
		require.NoError(t, err)
		_, err = f.subs.Approve(ctx, other.ID)
		assert.ErrorIs(t, err, models.ErrSubscriptionExists)
	})

	renewed, err := f.subs.Renew(ctx, sub.ID, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, 8, renewed.RemainingSessions)
	assert.True(t, renewed.CurrentPeriodEnd.After(approved.CurrentPeriodEnd))
	assert.Len(t, f.recorder.ofType(events.TypeSubscriptionRenewed), 2)

	cancelled, err := f.subs.Cancel(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCancelled, cancelled.Status)
	assert.Len(t, f.recorder.ofType(events.TypeSubscriptionCancelled), 2)

	t.Run("cancelled subscription stays closed", func(t *testing.T) {
		_, err := f.subs.Renew(ctx, sub.ID, models.PaymentPaid)
		assert.ErrorIs(t, err, models.ErrSubscriptionClosed)
		_, err = f.subs.Cancel(ctx, sub.ID)
		assert.ErrorIs(t, err, models.ErrSubscriptionClosed)
	})
}

func TestSubscriptionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  CreateSubscriptionRequest
	}{
		{"missing client", CreateSubscriptionRequest{TrainerID: "tr1", PlanID: "p", BillingMonths: 1, SessionsPerMonth: 8}},
		{"missing plan", CreateSubscriptionRequest{ClientID: "cl1", TrainerID: "tr1", BillingMonths: 1, SessionsPerMonth: 8}},
		{"zero months", CreateSubscriptionRequest{ClientID: "cl1", TrainerID: "tr1", PlanID: "p", SessionsPerMonth: 8}},
		{"zero sessions", CreateSubscriptionRequest{ClientID: "cl1", TrainerID: "tr1", PlanID: "p", BillingMonths: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.subs.Create(ctx, tc.req)
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
		})
	}
}

func TestSubscriptionQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.subs.Create(ctx, CreateSubscriptionRequest{
		ClientID: "cl1", TrainerID: "tr1", PlanID: "monthly-8",
		BillingMonths: 1, SessionsPerMonth: 8,
	})
	require.NoError(t, err)

	got, err := f.subs.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = f.subs.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	time.Sleep(10 * time.Millisecond)
	_, err = f.subs.Create(ctx, CreateSubscriptionRequest{
		ClientID: "cl1", TrainerID: "tr1", PlanID: "monthly-4",
		BillingMonths: 1, SessionsPerMonth: 4,
	})
	require.NoError(t, err)

	subs, err := f.subs.ListForPair(ctx, "cl1", "tr1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "monthly-4", subs[0].PlanID, "newest first")
}
