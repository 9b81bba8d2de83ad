// Package session holds the current user and bearer token.
//
// The user and the token are always set together and cleared together, so
// IsAuthenticated is never true for half a session.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/model"
	"go.uber.org/zap"
)

// Authenticator is the subset of auth operations the store funnels through.
type Authenticator interface {
	// Login exchanges credentials for a token and the user record.
	Login(ctx context.Context, creds model.Credentials) (token string, user model.User, err error)
	// CurrentUser fetches the user owning token.
	CurrentUser(ctx context.Context, token string) (model.User, error)
}

// Store is the process-wide session.
type Store struct {
	mu    sync.RWMutex
	user  *model.User
	token string

	auth   Authenticator
	tokens TokenStore
	log    *zap.Logger

	once  sync.Once
	ready chan struct{}
}

// NewStore constructs an empty store. Call Bootstrap once at startup.
func NewStore(auth Authenticator, tokens TokenStore, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{auth: auth, tokens: tokens, log: log, ready: make(chan struct{})}
}

// Bootstrap restores the session from the durable token, if any. It runs at
// most once; every later call returns immediately. Ready is closed when the
// first call completes, whatever the outcome.
func (s *Store) Bootstrap(ctx context.Context) {
	s.once.Do(func() {
		defer close(s.ready)

		tok, err := s.tokens.Load()
		if err != nil {
			if !errors.Is(err, errs.ErrNoToken) {
				s.log.Warn("load stored token", zap.Error(err))
			}
			return
		}
		user, err := s.auth.CurrentUser(ctx, tok)

		s.mu.Lock()
		// A login that finished while /auth/me was in flight wins.
		superseded := s.token != ""
		if err == nil && !superseded {
			u := user
			s.token, s.user = tok, &u
		}
		s.mu.Unlock()

		switch {
		case superseded:
			s.log.Debug("stored session superseded by a newer login")
		case err != nil:
			s.log.Info("stored token rejected; starting signed out", zap.Error(err))
			s.clearStored(tok)
		default:
			s.log.Debug("session restored", zap.String("user_id", user.ID))
		}
	})
}

// clearStored removes the durable token only if it is still stale.
func (s *Store) clearStored(stale string) {
	if cur, err := s.tokens.Load(); err != nil || cur != stale {
		return
	}
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("purge stored token", zap.Error(err))
	}
}

// Ready is closed once Bootstrap has resolved.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Resolved reports whether Bootstrap has completed.
func (s *Store) Resolved() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Login authenticates and, on success, persists the token and sets the user.
// On failure the session is left untouched and the server error is returned.
func (s *Store) Login(ctx context.Context, creds model.Credentials) (model.User, error) {
	tok, user, err := s.auth.Login(ctx, creds)
	if err != nil {
		return model.User{}, err
	}
	if tok == "" {
		return model.User{}, errs.ErrTransport
	}
	s.Establish(tok, user)
	return user, nil
}

// Establish installs a token and user obtained elsewhere, persisting the token.
// A failed durable write is logged; the in-memory session still stands.
func (s *Store) Establish(token string, user model.User) {
	if err := s.tokens.Save(token); err != nil {
		s.log.Warn("persist token", zap.Error(err))
	}
	s.set(token, user)
}

// Refresh re-fetches the current user. A rejected token logs the session out
// silently and returns errs.ErrUnauthorized.
func (s *Store) Refresh(ctx context.Context) (model.User, error) {
	tok := s.Token()
	if tok == "" {
		return model.User{}, errs.ErrNoToken
	}
	user, err := s.auth.CurrentUser(ctx, tok)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			s.Logout()
			return model.User{}, errs.ErrUnauthorized
		}
		return model.User{}, err
	}
	s.mu.Lock()
	// A concurrent logout wins over a late refresh.
	if s.token == tok {
		u := user
		s.user = &u
	}
	s.mu.Unlock()
	return user, nil
}

// Logout clears the session and the durable token. It cannot fail.
func (s *Store) Logout() {
	s.purge()
}

// IsAuthenticated reports whether both user and token are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// User returns a copy of the current user.
func (s *Store) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token or "". Store satisfies apiclient.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) set(token string, user model.User) {
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
}

func (s *Store) purge() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	if err := s.tokens.Clear(); err != nil {
		s.log.Warn("purge stored token", zap.Error(err))
	}
}
