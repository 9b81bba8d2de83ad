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

// UserRepo implements AuthRepository over the /auth endpoints.
type UserRepo struct{ api Sender }

var _ repository.AuthRepository = (*UserRepo)(nil)

// NewUserRepo constructs a user repository.
func NewUserRepo(api Sender) *UserRepo { return &UserRepo{api: api} }

type loginReply struct {
	token string
	user  model.User
}

func decodeLogin(raw json.RawMessage) (loginReply, error) {
	var env struct {
		Token       string          `json:"token"`
		AccessToken string          `json:"accessToken"`
		User        json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return loginReply{}, err
	}
	tok := env.Token
	if tok == "" {
		tok = env.AccessToken
	}
	if tok == "" {
		return loginReply{}, errors.New("login response without token")
	}
	u, err := convert.User(env.User)
	if err != nil {
		return loginReply{}, err
	}
	return loginReply{token: tok, user: u}, nil
}

// Login posts {email, password} and expects {token, user}.
func (r *UserRepo) Login(ctx context.Context, creds model.Credentials) (string, model.User, error) {
	res := r.api.Send(ctx, PathLogin, http.MethodPost, creds)
	lr, err := apiclient.Decode(res, decodeLogin)
	if err != nil {
		return "", model.User{}, err
	}
	return lr.token, lr.user, nil
}

// CurrentUser fetches /auth/me with token, regardless of the client's token source.
func (r *UserRepo) CurrentUser(ctx context.Context, token string) (model.User, error) {
	res := r.api.Send(apiclient.WithBearer(ctx, token), PathMe, http.MethodGet, nil)
	return apiclient.Decode(res, convert.UserEnvelope)
}

// Register posts the sign-up form.
func (r *UserRepo) Register(ctx context.Context, reg model.Registration) (model.RegistrationResult, error) {
	res := r.api.Send(ctx, PathRegister, http.MethodPost, reg)
	return apiclient.Decode(res, func(raw json.RawMessage) (model.RegistrationResult, error) {
		var env struct {
			User              json.RawMessage `json:"user"`
			NeedsVerification bool            `json:"needsVerification"`
			Message           string          `json:"message"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return model.RegistrationResult{}, err
		}
		out := model.RegistrationResult{NeedsVerification: env.NeedsVerification, Message: env.Message}
		if len(env.User) > 0 && string(env.User) != "null" {
			u, err := convert.User(env.User)
			if err != nil {
				return model.RegistrationResult{}, err
			}
			out.User = u
		}
		return out, nil
	})
}

// VerifyEmail posts {email, otp}.
func (r *UserRepo) VerifyEmail(ctx context.Context, email, otp string) error {
	return r.api.Send(ctx, PathVerifyEmail, http.MethodPost, map[string]string{"email": email, "otp": otp}).Err()
}

// ForgotPassword posts {email}.
func (r *UserRepo) ForgotPassword(ctx context.Context, email string) error {
	return r.api.Send(ctx, PathForgotPassword, http.MethodPost, map[string]string{"email": email}).Err()
}

// ResetPassword puts {email, passwordResetToken, password}.
func (r *UserRepo) ResetPassword(ctx context.Context, email, code, password string) error {
	body := map[string]string{"email": email, "passwordResetToken": code, "password": password}
	return r.api.Send(ctx, PathResetPassword, http.MethodPut, body).Err()
}
