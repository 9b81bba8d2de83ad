package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/intake"
	"github.com/and161185/appealkit/internal/loading"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/repository"
	"github.com/and161185/appealkit/internal/session"
	"github.com/and161185/appealkit/internal/validate"
	"go.uber.org/zap"
)

// Default paging for List.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// CaseService defines the case intake and retrieval operations.
type CaseService interface {
	// CanSubmit reports errs.ErrNoCasesRemaining when the allowance is used up.
	CanSubmit() error
	// Submit validates the form and sends it as one request.
	Submit(ctx context.Context, form *intake.Form) (model.CaseResult, error)
	// List returns a page of the user's cases.
	List(ctx context.Context, page, limit int) (model.Page[model.Case], error)
	// Get returns one case with its analysis.
	Get(ctx context.Context, caseID string) (model.CaseResult, error)
}

type CaseServiceImpl struct {
	repo  repository.CaseRepository
	sess  *session.Store
	flags *loading.Flags
	log   *zap.Logger
}

// NewCaseService constructs CaseService.
func NewCaseService(repo repository.CaseRepository, sess *session.Store, flags *loading.Flags, log *zap.Logger) *CaseServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	if flags == nil {
		flags = &loading.Flags{}
	}
	return &CaseServiceImpl{repo: repo, sess: sess, flags: flags, log: log}
}

// CanSubmit checks the signed-in user's remaining allowance.
func (s *CaseServiceImpl) CanSubmit() error {
	u, ok := s.sess.User()
	if !ok {
		return errs.ErrUnauthorized
	}
	if u.CasesRemaining <= 0 {
		return errs.ErrNoCasesRemaining
	}
	return nil
}

// Submit sends form. The form is never modified, so a failed submit can be
// retried as is.
func (s *CaseServiceImpl) Submit(ctx context.Context, form *intake.Form) (model.CaseResult, error) {
	if err := s.CanSubmit(); err != nil {
		return model.CaseResult{}, err
	}
	sub, err := form.Submission()
	if err != nil {
		return model.CaseResult{}, err
	}
	var res model.CaseResult
	err = s.flags.Run(loading.OpSubmitCase, func() error {
		r, err := s.repo.Create(ctx, sub)
		res = r
		return err
	})
	if err != nil {
		return model.CaseResult{}, err
	}
	s.log.Info("case submitted",
		zap.String("case_id", res.Case.ID),
		zap.String("mode", string(sub.Mode)),
		zap.Int("files", len(sub.DenialFiles)+len(sub.EncounterFiles)),
	)
	// The allowance is server-side; pick up the new count.
	if _, err := s.sess.Refresh(ctx); err != nil {
		s.log.Debug("refresh user after submit", zap.Error(err))
	}
	return res, nil
}

// List fetches a page; non-positive arguments fall back to the defaults.
func (s *CaseServiceImpl) List(ctx context.Context, page, limit int) (model.Page[model.Case], error) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		return model.Page[model.Case]{}, fmt.Errorf("%w: limit %d exceeds %d", errs.ErrValidation, limit, MaxLimit)
	}
	var out model.Page[model.Case]
	err := s.flags.Run(loading.OpListCases, func() error {
		p, err := s.repo.List(ctx, page, limit)
		out = p
		return err
	})
	return out, err
}

// Get fetches caseID.
func (s *CaseServiceImpl) Get(ctx context.Context, caseID string) (model.CaseResult, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return model.CaseResult{}, validate.FieldErrors{"caseId": "Case ID is required"}
	}
	return s.repo.Get(ctx, caseID)
}
