// Package httpapi contains REST implementations of repository interfaces.
package httpapi

import (
	"context"

	"github.com/and161185/appealkit/internal/apiclient"
)

// Endpoint paths of the remote API.
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathVerifyEmail    = "/auth/verifyEmail"
	PathForgotPassword = "/auth/forgotPassword"
	PathResetPassword  = "/auth/resetPassword"
	PathMe             = "/auth/me"

	PathCases    = "/cases"
	PathAnalysis = "/analysis"
	PathPlans    = "/plans"
	PathCheckout = "/payments/checkout"
)

// Sender is the part of *apiclient.Client used by the repositories.
// It is implemented by *apiclient.Client and by test doubles.
type Sender interface {
	// Send issues a JSON request.
	Send(ctx context.Context, endpoint, method string, body any) apiclient.Result
	// SendMultipart issues a multipart/form-data POST.
	SendMultipart(ctx context.Context, endpoint string, form *apiclient.Form) apiclient.Result
}

var _ Sender = (*apiclient.Client)(nil)
