package repository

import (
	"context"

	"github.com/and161185/appealkit/internal/model"
)

// BillingRepository provides plans and hosted checkout.
type BillingRepository interface {
	// ListPlans returns the purchasable plans.
	ListPlans(ctx context.Context) ([]model.Plan, error)
	// CreatePlan adds a plan (admin only).
	CreatePlan(ctx context.Context, p model.Plan) (model.Plan, error)
	// CreateCheckout opens a payment session for planID.
	CreateCheckout(ctx context.Context, planID string) (model.PaymentSession, error)
}
