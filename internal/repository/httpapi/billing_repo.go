package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/and161185/appealkit/internal/apiclient"
	"github.com/and161185/appealkit/internal/convert"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/repository"
)

// BillingRepo implements BillingRepository over /plans and /payments.
type BillingRepo struct{ api Sender }

var _ repository.BillingRepository = (*BillingRepo)(nil)

// NewBillingRepo constructs a billing repository.
func NewBillingRepo(api Sender) *BillingRepo { return &BillingRepo{api: api} }

// ListPlans fetches all plans.
func (r *BillingRepo) ListPlans(ctx context.Context) ([]model.Plan, error) {
	return apiclient.Decode(r.api.Send(ctx, PathPlans, http.MethodGet, nil), convert.Plans)
}

// CreatePlan posts a new plan.
func (r *BillingRepo) CreatePlan(ctx context.Context, p model.Plan) (model.Plan, error) {
	return apiclient.Decode(r.api.Send(ctx, PathPlans, http.MethodPost, p), convert.Plan)
}

func decodeSession(raw json.RawMessage) (model.PaymentSession, error) {
	var w struct {
		SessionID string `json:"sessionId"`
		ID        string `json:"id"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.PaymentSession{}, err
	}
	if w.URL == "" {
		return model.PaymentSession{}, errors.New("checkout response without url")
	}
	id := w.SessionID
	if id == "" {
		id = w.ID
	}
	return model.PaymentSession{SessionID: id, URL: w.URL}, nil
}

// CreateCheckout posts {planId} and returns the hosted checkout session.
func (r *BillingRepo) CreateCheckout(ctx context.Context, planID string) (model.PaymentSession, error) {
	res := r.api.Send(ctx, PathCheckout, http.MethodPost, map[string]string{"planId": planID})
	return apiclient.Decode(res, decodeSession)
}
