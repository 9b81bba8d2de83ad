package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/loading"
	"github.com/and161185/appealkit/internal/validate"
)

// ResetStep is one state of the password reset wizard.
type ResetStep interface{ resetStep() string }

// EmailStep asks for the account email.
type EmailStep struct{}

// OTPStep asks for the emailed code.
type OTPStep struct{ Email string }

// NewPasswordStep asks for the new password. Code has only been checked
// for shape; the server judges it when the password is submitted.
type NewPasswordStep struct {
	Email string
	Code  string
}

// ResetDone means the password was changed.
type ResetDone struct{ Email string }

func (EmailStep) resetStep() string       { return "email" }
func (OTPStep) resetStep() string         { return "otp" }
func (NewPasswordStep) resetStep() string { return "new-password" }
func (ResetDone) resetStep() string       { return "done" }

// StepName names s for display.
func StepName(s ResetStep) string { return s.resetStep() }

type otpInput struct {
	OTP string `json:"otp" validate:"required,otp" label:"Verification code"`
}

type newPasswordInput struct {
	Password string `json:"password" validate:"required,min=6" label:"Password"`
	Confirm  string `json:"confirmPassword" validate:"required,eqfield=Password" label:"Confirm password"`
}

// ResetWizard walks email → code → new password. Each action applies only
// to its own step and returns errs.ErrInvalidStep otherwise.
type ResetWizard struct {
	mu   sync.Mutex
	svc  *AuthServiceImpl
	step ResetStep
}

// Step returns the current step.
func (w *ResetWizard) Step() ResetStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// advance moves from want to next unless another action got there first.
func (w *ResetWizard) advance(want, next ResetStep) {
	w.mu.Lock()
	if w.step == want {
		w.step = next
	}
	w.mu.Unlock()
}

func wrongStep(action string, s ResetStep) error {
	return fmt.Errorf("%w: %s during %s step", errs.ErrInvalidStep, action, s.resetStep())
}

// RequestCode sends the reset code to email.
func (w *ResetWizard) RequestCode(ctx context.Context, email string) error {
	cur := w.Step()
	if _, ok := cur.(EmailStep); !ok {
		return wrongStep("request code", cur)
	}
	email = strings.TrimSpace(email)
	if err := w.svc.ForgotPassword(ctx, email); err != nil {
		return err
	}
	w.advance(cur, OTPStep{Email: email})
	return nil
}

// EnterCode accepts a complete 6-digit code. Nothing is sent to the server.
func (w *ResetWizard) EnterCode(code string) error {
	cur := w.Step()
	st, ok := cur.(OTPStep)
	if !ok {
		return wrongStep("enter code", cur)
	}
	in := otpInput{OTP: strings.TrimSpace(code)}
	if err := validate.Struct(in); err != nil {
		return err
	}
	w.advance(cur, NewPasswordStep{Email: st.Email, Code: in.OTP})
	return nil
}

// SetPassword submits email, code and the new password. A rejected code
// keeps the wizard on this step so the user can go Back or ResendCode.
func (w *ResetWizard) SetPassword(ctx context.Context, password, confirm string) error {
	cur := w.Step()
	st, ok := cur.(NewPasswordStep)
	if !ok {
		return wrongStep("set password", cur)
	}
	in := newPasswordInput{Password: password, Confirm: confirm}
	if err := validate.Struct(in); err != nil {
		return err
	}
	err := w.svc.flags.Run(loading.OpResetPassword, func() error {
		return w.svc.users.ResetPassword(ctx, st.Email, st.Code, in.Password)
	})
	if err != nil {
		return err
	}
	w.advance(cur, ResetDone{Email: st.Email})
	return nil
}

// ResendCode mails a fresh code and returns to the code step.
func (w *ResetWizard) ResendCode(ctx context.Context) error {
	cur := w.Step()
	var email string
	switch st := cur.(type) {
	case OTPStep:
		email = st.Email
	case NewPasswordStep:
		email = st.Email
	default:
		return wrongStep("resend code", cur)
	}
	if err := w.svc.ForgotPassword(ctx, email); err != nil {
		return err
	}
	w.advance(cur, OTPStep{Email: email})
	return nil
}

// Back returns to the previous step. It is a no-op at the first and last steps.
func (w *ResetWizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch st := w.step.(type) {
	case OTPStep:
		w.step = EmailStep{}
	case NewPasswordStep:
		w.step = OTPStep{Email: st.Email}
	}
}
