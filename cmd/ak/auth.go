package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/guard"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/service"
	"github.com/spf13/cobra"
)

// interactiveLogin signs in, asking for whatever was not given.
func (a *app) interactiveLogin(ctx context.Context, email, password string) (model.User, error) {
	email, err := a.in.askDefault("Email", email)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: login required (run ak login)", errs.ErrUnauthorized)
	}
	password, err = a.in.askDefault("Password", password)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: login required (run ak login)", errs.ErrUnauthorized)
	}
	return a.auth.Login(ctx, service.LoginInput{Email: email, Password: password})
}

func loginCmd(h *holder) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := h.a
			<-a.sess.Ready()
			u, err := a.interactiveLogin(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			next := guard.AfterLogin(nil)
			return a.emit(u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Signed in as %s <%s>. Next: %s\n", displayName(u), u.Email, hint(next.Path))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

func logoutCmd(h *holder) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := h.a
			<-a.sess.Ready()
			a.auth.Logout()
			fmt.Fprintf(a.out, "Signed out. Removed %s\n", a.tokens.Path())
			return nil
		},
	}
}

func whoamiCmd(h *holder) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			u, err := a.sess.Refresh(ctx)
			if err != nil {
				return err
			}
			return a.emit(u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s <%s>\nrole: %s\nverified: %t\ncases remaining: %d\n",
					displayName(u), u.Email, u.Role, u.EmailVerified, u.CasesRemaining)
				if err == nil && u.PlanType != "" {
					_, err = fmt.Fprintf(w, "plan: %s\n", u.PlanType)
				}
				return err
			})
		}),
	}
}

func registerCmd(h *holder) *cobra.Command {
	var in service.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and verify the email address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := h.a, cmd.Context()
			<-a.sess.Ready()
			var err error
			if in.Name, err = a.in.askDefault("Name", in.Name); err != nil {
				return err
			}
			if in.Email, err = a.in.askDefault("Email", in.Email); err != nil {
				return err
			}
			if in.Password, err = a.in.askDefault("Password", in.Password); err != nil {
				return err
			}
			if !in.Terms {
				in.Terms = a.in.yes("Accept the terms and conditions?")
			}

			reg, err := a.auth.Register(ctx, in)
			if err != nil {
				return err
			}
			if reg.Pending == nil {
				a.in.say("Account created. Next: %s", hint(reg.Destination))
				return nil
			}
			return a.verifyPending(ctx, reg.Pending)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().BoolVar(&in.Terms, "accept-terms", false, "accept the terms and conditions")
	cmd.Flags().StringVar(&in.Plan, "plan", "", "plan to buy after signing up")
	return cmd
}

// verifyPending runs the verify step: enter the code, or "r" to get a new one.
func (a *app) verifyPending(ctx context.Context, p *service.Pending) error {
	defer p.Discard()
	a.in.say("We sent a 6-digit code to %s.", p.Email)
	for {
		code, err := a.in.ask("Code (r to resend)")
		if err != nil {
			return fmt.Errorf("verification pending; run ak verify --email %s: %w", p.Email, err)
		}
		if code == "r" {
			switch err := a.auth.Resend(ctx, p); {
			case errors.Is(err, errs.ErrCooldown):
				a.in.say("You can resend in %ds.", p.ResendIn())
			case err != nil:
				printErr(a.in.w, err)
			default:
				a.in.say("A new code is on its way.")
			}
			continue
		}
		v, err := a.auth.Verify(ctx, p, code)
		if err != nil {
			// A rejected code can be retried or resent; the registration is kept.
			if ctx.Err() == nil && (errors.Is(err, errs.ErrValidation) || errors.Is(err, errs.ErrRemote)) {
				printErr(a.in.w, err)
				continue
			}
			return err
		}
		a.in.say("Email verified. Signed in as %s.", displayName(v.User))
		if v.Plan != "" {
			a.in.say("To buy the %s plan: ak checkout %s", v.Plan, v.Plan)
		}
		fmt.Fprintf(a.out, "Next: %s\n", hint(v.Destination))
		return nil
	}
}

func verifyCmd(h *holder) *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm an email address with the emailed code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := h.a
			<-a.sess.Ready()
			var err error
			if email, err = a.in.askDefault("Email", email); err != nil {
				return err
			}
			if code, err = a.in.askDefault("Code", code); err != nil {
				return err
			}
			if err := a.auth.VerifyEmail(cmd.Context(), email, code); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Email verified. Next: ak login")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&code, "code", "", "6-digit code")
	return cmd
}

func forgotPasswordCmd(h *holder) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := h.a
			<-a.sess.Ready()
			var err error
			if email, err = a.in.askDefault("Email", email); err != nil {
				return err
			}
			if err := a.auth.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "If the account exists, a reset code was sent. Next: ak reset-password")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func resetPasswordCmd(h *holder) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset the password: email, then code, then new password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, ctx := h.a, cmd.Context()
			<-a.sess.Ready()
			w := a.auth.NewResetWizard()
			for {
				switch st := w.Step().(type) {
				case service.EmailStep:
					e, err := a.in.askDefault("Email", email)
					if err != nil {
						return err
					}
					email = ""
					if err := w.RequestCode(ctx, e); err != nil {
						if !errors.Is(err, errs.ErrValidation) {
							return err
						}
						printErr(a.in.w, err)
					}
				case service.OTPStep:
					a.in.say("Enter the code sent to %s (b to go back).", st.Email)
					code, err := a.in.ask("Code")
					if err != nil {
						return err
					}
					if code == "b" {
						w.Back()
						continue
					}
					if err := w.EnterCode(code); err != nil {
						printErr(a.in.w, err)
					}
				case service.NewPasswordStep:
					pw, err := a.in.ask("New password")
					if err != nil {
						return err
					}
					confirm, err := a.in.ask("Confirm password")
					if err != nil {
						return err
					}
					err = w.SetPassword(ctx, pw, confirm)
					switch {
					case err == nil:
					case errors.Is(err, errs.ErrValidation):
						printErr(a.in.w, err)
					default:
						printErr(a.in.w, err)
						if a.in.yes("Send a new code?") {
							if err := w.ResendCode(ctx); err != nil {
								return err
							}
						} else {
							w.Back()
						}
					}
				case service.ResetDone:
					fmt.Fprintf(a.out, "Password changed for %s. Next: ak login\n", st.Email)
					return nil
				}
			}
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func displayName(u model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
