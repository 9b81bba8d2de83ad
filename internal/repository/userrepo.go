// Package repository defines the remote-API interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/appealkit/internal/model"
)

// AuthRepository provides the account endpoints.
type AuthRepository interface {
	// Login exchanges credentials for a bearer token and the user.
	Login(ctx context.Context, creds model.Credentials) (token string, user model.User, err error)
	// CurrentUser loads the user that owns token.
	CurrentUser(ctx context.Context, token string) (model.User, error)
	// Register creates an account; the backend mails an OTP when verification is needed.
	Register(ctx context.Context, reg model.Registration) (model.RegistrationResult, error)
	// VerifyEmail confirms the emailed OTP.
	VerifyEmail(ctx context.Context, email, otp string) error
	// ForgotPassword asks the backend to mail a reset OTP.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword sets a new password using the emailed OTP.
	ResetPassword(ctx context.Context, email, code, password string) error
}
