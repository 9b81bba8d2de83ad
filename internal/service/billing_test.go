package service

import (
	"context"
	"testing"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlan_AdminOnly(t *testing.T) {
	t.Parallel()
	repo := &fakeBilling{}
	svc := NewBillingService(repo, signedIn(t, model.User{ID: "u1", Role: model.RoleUser}), nil)

	_, err := svc.CreatePlan(context.Background(), PlanInput{Name: "Pro", Price: 99, CasesIncluded: 30})
	require.ErrorIs(t, err, errs.ErrForbidden)
	assert.Nil(t, repo.createdPlan, "refused locally")
}

func TestCreatePlan(t *testing.T) {
	t.Parallel()
	repo := &fakeBilling{}
	svc := NewBillingService(repo, signedIn(t, model.User{ID: "a1", Role: model.RoleAdmin}), nil)

	_, err := svc.CreatePlan(context.Background(), PlanInput{Name: "P", CasesIncluded: 0, Interval: "weekly"})
	fe := fieldErrs(t, err)
	assert.Equal(t, "Name must be at least 2 characters", fe["name"])
	assert.Equal(t, "Cases included must be at least 1", fe["casesIncluded"])
	assert.Contains(t, fe, "interval")

	p, err := svc.CreatePlan(context.Background(), PlanInput{Name: " Pro ", Price: 99, Currency: "USD", CasesIncluded: 30, Interval: "month"})
	require.NoError(t, err)
	assert.Equal(t, "p-new", p.ID)
	require.NotNil(t, repo.createdPlan)
	assert.Equal(t, "Pro", repo.createdPlan.Name)
	assert.Equal(t, "usd", repo.createdPlan.Currency)
}

func TestCheckout(t *testing.T) {
	t.Parallel()
	repo := &fakeBilling{plans: []model.Plan{{ID: "p1"}}}
	svc := NewBillingService(repo, signedIn(t, model.User{ID: "u1"}), nil)

	plans, err := svc.Plans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	_, err = svc.Checkout(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrValidation)

	ps, err := svc.Checkout(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_1", ps.URL)
	assert.Equal(t, "p1", repo.checkoutFor)

	_, err = svc.Checkout(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}
