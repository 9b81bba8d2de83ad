package service

import (
	"context"
	"strings"
	"sync"

	"github.com/and161185/appealkit/internal/loading"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/repository"
	"github.com/and161185/appealkit/internal/session"
	"github.com/and161185/appealkit/internal/validate"
)

// Reaction is a like or a dislike.
type Reaction int

// Reactions.
const (
	Like Reaction = iota
	Dislike
)

// ReactionService toggles likes and dislikes on analyses.
type ReactionService interface {
	// Track seeds the local state of a from its reaction lists.
	Track(a model.Analysis) model.Reactions
	// State returns the local state of analysisID.
	State(analysisID string) (model.Reactions, bool)
	// Toggle flips r on analysisID and returns the resulting state.
	Toggle(ctx context.Context, analysisID string, r Reaction) (model.Reactions, error)
}

// ReactionServiceImpl keeps one local reaction state per analysis. A toggle
// is applied locally first and replaced by the server's answer; on failure
// the previous state comes back. Like and dislike have separate loading
// gates.
type ReactionServiceImpl struct {
	repo  repository.CaseRepository
	sess  *session.Store
	flags *loading.Flags

	mu    sync.Mutex
	state map[string]model.Reactions
}

// NewReactionService constructs ReactionService.
func NewReactionService(repo repository.CaseRepository, sess *session.Store, flags *loading.Flags) *ReactionServiceImpl {
	if flags == nil {
		flags = &loading.Flags{}
	}
	return &ReactionServiceImpl{repo: repo, sess: sess, flags: flags, state: map[string]model.Reactions{}}
}

// Track records the reactions of a as seen by the current user.
func (s *ReactionServiceImpl) Track(a model.Analysis) model.Reactions {
	var uid string
	if u, ok := s.sess.User(); ok {
		uid = u.ID
	}
	r := a.Reactions(uid)
	s.mu.Lock()
	s.state[a.ID] = r
	s.mu.Unlock()
	return r
}

// State returns the tracked reactions of analysisID.
func (s *ReactionServiceImpl) State(analysisID string) (model.Reactions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state[analysisID]
	return r, ok
}

// Toggle flips r. Engaging one reaction clears the other.
func (s *ReactionServiceImpl) Toggle(ctx context.Context, analysisID string, r Reaction) (model.Reactions, error) {
	analysisID = strings.TrimSpace(analysisID)
	if analysisID == "" {
		return model.Reactions{}, validate.FieldErrors{"analysisId": "Analysis ID is required"}
	}
	op, call := loading.OpLike, s.repo.Like
	if r == Dislike {
		op, call = loading.OpDislike, s.repo.Dislike
	}
	op = op.For(analysisID)
	if err := s.flags.TryStart(op); err != nil {
		cur, _ := s.State(analysisID)
		return cur, err
	}
	defer s.flags.Done(op)

	s.mu.Lock()
	prev := s.state[analysisID]
	next := apply(prev, r)
	s.state[analysisID] = next
	s.mu.Unlock()

	got, err := call(ctx, analysisID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Only roll back if nothing else changed the state meanwhile.
		if s.state[analysisID] == next {
			s.state[analysisID] = prev
		}
		return s.state[analysisID], err
	}
	s.state[analysisID] = got
	return got, nil
}

// apply is the local prediction of a toggle.
func apply(cur model.Reactions, r Reaction) model.Reactions {
	next := cur
	switch r {
	case Like:
		if cur.HasLiked {
			next.HasLiked = false
			next.Likes--
			break
		}
		next.HasLiked = true
		next.Likes++
		if cur.HasDisliked {
			next.HasDisliked = false
			next.Dislikes--
		}
	case Dislike:
		if cur.HasDisliked {
			next.HasDisliked = false
			next.Dislikes--
			break
		}
		next.HasDisliked = true
		next.Dislikes++
		if cur.HasLiked {
			next.HasLiked = false
			next.Likes--
		}
	}
	if next.Likes < 0 {
		next.Likes = 0
	}
	if next.Dislikes < 0 {
		next.Dislikes = 0
	}
	return next
}
