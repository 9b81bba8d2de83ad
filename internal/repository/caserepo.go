package repository

import (
	"context"

	"github.com/and161185/appealkit/internal/model"
)

// CaseRepository provides access to the user's cases and their analyses.
type CaseRepository interface {
	// Create submits an intake and returns the stored case with its analysis.
	Create(ctx context.Context, sub model.CaseSubmission) (model.CaseResult, error)

	// List returns one page of the caller's cases, newest first.
	List(ctx context.Context, page, limit int) (model.Page[model.Case], error)

	// Get returns a single case with its analysis.
	Get(ctx context.Context, caseID string) (model.CaseResult, error)

	// Like toggles the caller's like on an analysis.
	Like(ctx context.Context, analysisID string) (model.Reactions, error)

	// Dislike toggles the caller's dislike on an analysis.
	Dislike(ctx context.Context, analysisID string) (model.Reactions, error)
}
