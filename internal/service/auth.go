// Package service contains the client flows for accounts, cases, reactions and billing.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/guard"
	"github.com/and161185/appealkit/internal/limiter"
	"github.com/and161185/appealkit/internal/loading"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/repository"
	"github.com/and161185/appealkit/internal/session"
	"github.com/and161185/appealkit/internal/validate"
	"go.uber.org/zap"
)

// AuthService defines the account flows.
type AuthService interface {
	// Login validates the form and signs in through the session store.
	Login(ctx context.Context, in LoginInput) (model.User, error)
	// Register creates an account; usually the result is a pending email verification.
	Register(ctx context.Context, in RegisterInput) (Registered, error)
	// Verify confirms the emailed code and signs in with the captured credentials.
	Verify(ctx context.Context, p *Pending, otp string) (Verified, error)
	// VerifyEmail confirms a code outside a pending registration; it does not sign in.
	VerifyEmail(ctx context.Context, email, otp string) error
	// Resend mints a new verification code, subject to the cooldown.
	Resend(ctx context.Context, p *Pending) error
	// ForgotPassword asks the backend to mail a reset code.
	ForgotPassword(ctx context.Context, email string) error
	// NewResetWizard starts a password reset at the email step.
	NewResetWizard() *ResetWizard
	// Logout ends the session.
	Logout()
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,emailshape" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// RegisterInput is the sign-up form. Plan is an optional pre-selected plan.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2" label:"Name"`
	Email    string `json:"email" validate:"required,emailshape" label:"Email"`
	Password string `json:"password" validate:"required,min=6" label:"Password"`
	Terms    bool   `json:"terms" validate:"required" label:"Terms and conditions"`
	Plan     string `json:"plan,omitempty"`
}

func (in RegisterInput) registration() model.Registration {
	return model.Registration{Name: in.Name, Email: in.Email, Password: in.Password, Plan: in.Plan}
}

type emailInput struct {
	Email string `json:"email" validate:"required,emailshape" label:"Email"`
}

type verifyInput struct {
	Email string `json:"email" validate:"required,emailshape" label:"Email"`
	OTP   string `json:"otp" validate:"required,otp" label:"Verification code"`
}

// Pending is a registration awaiting email verification. It lives in memory
// only and carries the submitted form so a new code can be requested
// without asking again.
type Pending struct {
	Email   string
	Form    RegisterInput
	Message string

	cooldown *limiter.Cooldown
}

// Plan returns the plan selected at sign-up, if any.
func (p *Pending) Plan() string { return p.Form.Plan }

// ResendIn returns the seconds until Resend is allowed again.
func (p *Pending) ResendIn() int { return p.cooldown.Remaining() }

// Cooldown exposes the resend countdown.
func (p *Pending) Cooldown() *limiter.Cooldown { return p.cooldown }

// Discard stops the countdown. Call it when the user leaves the verify step.
func (p *Pending) Discard() { p.cooldown.Stop() }

// Registered is the outcome of Register. Exactly one of Pending or User is meaningful:
// Pending when verification is required, otherwise the signed-in User and
// the Destination to land on.
type Registered struct {
	Pending     *Pending
	User        model.User
	Destination string
}

// Verified is the outcome of Verify.
type Verified struct {
	User        model.User
	Destination string
	Plan        string
}

// FieldError is a server rejection attributed to one form field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// serverFieldError attributes a server message to the email or password
// field by keyword. Anything else stays a general error.
func serverFieldError(err error) error {
	if err == nil || errors.Is(err, errs.ErrTransport) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "email"):
		return &FieldError{Field: "email", Err: err}
	case strings.Contains(msg, "password"), strings.Contains(msg, "credentials"):
		return &FieldError{Field: "password", Err: err}
	}
	return err
}

type AuthServiceImpl struct {
	users       repository.AuthRepository
	sess        *session.Store
	flags       *loading.Flags
	newCooldown func() *limiter.Cooldown
	log         *zap.Logger
}

// AuthOption customizes AuthServiceImpl.
type AuthOption func(*AuthServiceImpl)

// WithCooldown replaces the resend cooldown factory.
func WithCooldown(f func() *limiter.Cooldown) AuthOption {
	return func(s *AuthServiceImpl) { s.newCooldown = f }
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.AuthRepository, sess *session.Store, flags *loading.Flags, log *zap.Logger, opts ...AuthOption) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	if flags == nil {
		flags = &loading.Flags{}
	}
	s := &AuthServiceImpl{
		users:       users,
		sess:        sess,
		flags:       flags,
		newCooldown: func() *limiter.Cooldown { return limiter.NewCooldown(limiter.DefaultResendCooldown) },
		log:         log,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login checks the form locally, then signs in. Invalid input never reaches the network.
func (s *AuthServiceImpl) Login(ctx context.Context, in LoginInput) (model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return model.User{}, err
	}
	var user model.User
	err := s.flags.Run(loading.OpLogin, func() error {
		u, err := s.sess.Login(ctx, model.Credentials{Email: in.Email, Password: in.Password})
		user = u
		return err
	})
	if err != nil {
		return model.User{}, serverFieldError(err)
	}
	s.log.Info("signed in", zap.String("user_id", user.ID))
	return user, nil
}

// Register validates and submits the sign-up form. When the backend asks
// for verification the resend cooldown starts immediately, since a code has
// just been sent.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (Registered, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return Registered{}, err
	}
	var res model.RegistrationResult
	err := s.flags.Run(loading.OpRegister, func() error {
		r, err := s.users.Register(ctx, in.registration())
		res = r
		return err
	})
	if err != nil {
		return Registered{}, serverFieldError(err)
	}

	if !res.NeedsVerification {
		user, err := s.sess.Login(ctx, model.Credentials{Email: in.Email, Password: in.Password})
		if err != nil {
			return Registered{}, fmt.Errorf("sign in after registration: %w", err)
		}
		return Registered{User: user, Destination: guard.HomeFor(user)}, nil
	}

	p := &Pending{Email: in.Email, Form: in, Message: res.Message, cooldown: s.newCooldown()}
	p.cooldown.Success()
	s.log.Info("registration pending verification", zap.String("user_id", res.User.ID))
	return Registered{Pending: p}, nil
}

// Verify confirms otp for p and then signs in with the credentials captured
// at registration.
func (s *AuthServiceImpl) Verify(ctx context.Context, p *Pending, otp string) (Verified, error) {
	if p == nil {
		return Verified{}, fmt.Errorf("%w: no pending registration", errs.ErrInvalidStep)
	}
	in := verifyInput{Email: p.Email, OTP: strings.TrimSpace(otp)}
	if err := validate.Struct(in); err != nil {
		return Verified{}, err
	}
	var user model.User
	err := s.flags.Run(loading.OpVerify, func() error {
		if err := s.users.VerifyEmail(ctx, in.Email, in.OTP); err != nil {
			return err
		}
		u, err := s.sess.Login(ctx, model.Credentials{Email: p.Form.Email, Password: p.Form.Password})
		if err != nil {
			return fmt.Errorf("email verified; sign in failed: %w", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return Verified{}, err
	}
	p.Discard()
	return Verified{User: user, Destination: guard.HomeFor(user), Plan: p.Plan()}, nil
}

// VerifyEmail validates email and otp, then confirms them with the backend.
func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, email, otp string) error {
	in := verifyInput{Email: strings.TrimSpace(email), OTP: strings.TrimSpace(otp)}
	if err := validate.Struct(in); err != nil {
		return err
	}
	return s.flags.Run(loading.OpVerify, func() error {
		return s.users.VerifyEmail(ctx, in.Email, in.OTP)
	})
}

// Resend re-submits the captured registration to mint a new code. It returns
// errs.ErrCooldown while the previous send is less than the cooldown old.
func (s *AuthServiceImpl) Resend(ctx context.Context, p *Pending) error {
	if p == nil {
		return fmt.Errorf("%w: no pending registration", errs.ErrInvalidStep)
	}
	if ok, wait := p.cooldown.Allow(); !ok {
		return fmt.Errorf("%w: try again in %ds", errs.ErrCooldown, int(wait.Seconds()))
	}
	err := s.flags.Run(loading.OpResend, func() error {
		_, err := s.users.Register(ctx, p.Form.registration())
		return err
	})
	if err != nil {
		return err
	}
	p.cooldown.Success()
	return nil
}

// ForgotPassword validates email and asks the backend to mail a reset code.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	in := emailInput{Email: strings.TrimSpace(email)}
	if err := validate.Struct(in); err != nil {
		return err
	}
	return s.flags.Run(loading.OpForgotPassword, func() error {
		return s.users.ForgotPassword(ctx, in.Email)
	})
}

// NewResetWizard starts a password reset.
func (s *AuthServiceImpl) NewResetWizard() *ResetWizard {
	return &ResetWizard{svc: s, step: EmailStep{}}
}

// Logout ends the session and purges the stored token.
func (s *AuthServiceImpl) Logout() { s.sess.Logout() }
