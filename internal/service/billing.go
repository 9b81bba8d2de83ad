package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/loading"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/repository"
	"github.com/and161185/appealkit/internal/session"
	"github.com/and161185/appealkit/internal/validate"
)

// BillingService defines plan and checkout operations.
type BillingService interface {
	// Plans lists purchasable plans.
	Plans(ctx context.Context) ([]model.Plan, error)
	// CreatePlan adds a plan; admins only.
	CreatePlan(ctx context.Context, in PlanInput) (model.Plan, error)
	// Checkout opens a hosted payment session for planID.
	Checkout(ctx context.Context, planID string) (model.PaymentSession, error)
}

// PlanInput is the admin's new-plan form.
type PlanInput struct {
	Name          string  `json:"name" validate:"required,min=2" label:"Name"`
	Price         float64 `json:"price" validate:"gte=0" label:"Price"`
	Currency      string  `json:"currency" validate:"omitempty,len=3" label:"Currency"`
	CasesIncluded int     `json:"casesIncluded" validate:"min=1" label:"Cases included"`
	Interval      string  `json:"interval" validate:"omitempty,oneof=once month year" label:"Interval"`
	Description   string  `json:"description"`
}

type BillingServiceImpl struct {
	repo  repository.BillingRepository
	sess  *session.Store
	flags *loading.Flags
}

// NewBillingService constructs BillingService.
func NewBillingService(repo repository.BillingRepository, sess *session.Store, flags *loading.Flags) *BillingServiceImpl {
	if flags == nil {
		flags = &loading.Flags{}
	}
	return &BillingServiceImpl{repo: repo, sess: sess, flags: flags}
}

// Plans lists plans.
func (s *BillingServiceImpl) Plans(ctx context.Context) ([]model.Plan, error) {
	return s.repo.ListPlans(ctx)
}

// CreatePlan checks the admin role locally before calling; the server
// still has the final say.
func (s *BillingServiceImpl) CreatePlan(ctx context.Context, in PlanInput) (model.Plan, error) {
	u, ok := s.sess.User()
	if !ok {
		return model.Plan{}, errs.ErrUnauthorized
	}
	if !u.IsAdmin() {
		return model.Plan{}, fmt.Errorf("%w: admin role required", errs.ErrForbidden)
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToLower(strings.TrimSpace(in.Currency))
	if err := validate.Struct(in); err != nil {
		return model.Plan{}, err
	}
	var out model.Plan
	err := s.flags.Run(loading.OpCreatePlan, func() error {
		p, err := s.repo.CreatePlan(ctx, model.Plan{
			Name:          in.Name,
			Price:         in.Price,
			Currency:      in.Currency,
			CasesIncluded: in.CasesIncluded,
			Interval:      in.Interval,
			Description:   in.Description,
		})
		out = p
		return err
	})
	return out, err
}

// Checkout returns the hosted payment URL for planID.
func (s *BillingServiceImpl) Checkout(ctx context.Context, planID string) (model.PaymentSession, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return model.PaymentSession{}, validate.FieldErrors{"planId": "Plan is required"}
	}
	var out model.PaymentSession
	err := s.flags.Run(loading.OpCheckout, func() error {
		ps, err := s.repo.CreateCheckout(ctx, planID)
		out = ps
		return err
	})
	return out, err
}
