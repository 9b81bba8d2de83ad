// Command ak is the command-line client for the claim-denial appeal assistant.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/and161185/appealkit/internal/analysis"
	"github.com/and161185/appealkit/internal/apiclient"
	"github.com/and161185/appealkit/internal/config"
	"github.com/and161185/appealkit/internal/guard"
	"github.com/and161185/appealkit/internal/loading"
	"github.com/and161185/appealkit/internal/logging"
	"github.com/and161185/appealkit/internal/repository/httpapi"
	"github.com/and161185/appealkit/internal/service"
	"github.com/and161185/appealkit/internal/session"
	"github.com/and161185/appealkit/internal/validate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		printErr(os.Stderr, err)
		os.Exit(1)
	}
}

// ---- wiring ----

// app holds everything a command needs. It is built once per invocation
// after flags are parsed.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	format analysis.Format

	sess   *session.Store
	guard  *guard.Guard
	flags  *loading.Flags
	tokens *session.FileTokenStore

	auth      *service.AuthServiceImpl
	cases     *service.CaseServiceImpl
	reactions *service.ReactionServiceImpl
	billing   *service.BillingServiceImpl

	in  *prompter
	out io.Writer
}

func newApp(cfg config.Config, in io.Reader, out, errOut io.Writer) (*app, error) {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := analysis.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	api := apiclient.New(cfg.BaseURL, apiclient.WithTimeout(cfg.Timeout), apiclient.WithLogger(log))
	users := httpapi.NewUserRepo(api)
	caseRepo := httpapi.NewCaseRepo(api)
	tokens := session.NewFileTokenStore(cfg.Dir)
	sess := session.NewStore(users, tokens, log)
	api.SetTokenSource(sess)
	flags := &loading.Flags{}

	return &app{
		cfg:       cfg,
		log:       log,
		format:    format,
		sess:      sess,
		guard:     guard.New(sess),
		flags:     flags,
		tokens:    tokens,
		auth:      service.NewAuthService(users, sess, flags, log),
		cases:     service.NewCaseService(caseRepo, sess, flags, log),
		reactions: service.NewReactionService(caseRepo, sess, flags),
		billing:   service.NewBillingService(httpapi.NewBillingRepo(api), sess, flags),
		in:        newPrompter(in, errOut),
		out:       out,
	}, nil
}

// holder lets subcommands reach the app built in PersistentPreRunE.
type holder struct{ a *app }

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	h := &holder{}

	root := &cobra.Command{
		Use:           "ak",
		Short:         "Claim denial appeal assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			a, err := newApp(cfg, in, out, errOut)
			if err != nil {
				return err
			}
			h.a = a
			// Restore the stored session while the command gets going; the
			// guard waits for it before deciding.
			go a.sess.Bootstrap(cmd.Context())
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if h.a != nil {
				_ = h.a.log.Sync()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	config.Flags(root.PersistentFlags())

	root.AddCommand(
		versionCmd(),
		loginCmd(h), logoutCmd(h), whoamiCmd(h),
		registerCmd(h), verifyCmd(h),
		forgotPasswordCmd(h), resetPasswordCmd(h),
		casesCmd(h), analysisCmd(h),
		plansCmd(h), checkoutCmd(h),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ak %s (%s)\n", version, buildDate)
		},
	}
}

// ---- guard ----

// destination names the view a command stands for, e.g. /cases/show.
func destination(cmd *cobra.Command, args []string) guard.Destination {
	parts := strings.Fields(cmd.CommandPath())
	d := guard.Destination{Path: "/" + strings.Join(parts[1:], "/")}
	if len(args) > 0 {
		d.State = map[string]string{"args": strings.Join(args, " ")}
	}
	return d
}

// protected wraps run so it only executes with a session. Without one the
// user is asked to sign in, and the original command then carries on with
// its original arguments.
func protected(h *holder, run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, ctx := h.a, cmd.Context()
		d, err := a.guard.Resolve(ctx, destination(cmd, args))
		if err != nil {
			return err
		}
		if !d.Allowed {
			a.in.say("Sign in to continue to %s", d.From.Path)
			if _, err := a.interactiveLogin(ctx, "", ""); err != nil {
				return err
			}
			back := guard.AfterLogin(&d.From)
			a.log.Debug("resuming after login", zap.String("path", back.Path))
		}
		return run(ctx, a, cmd, args)
	}
}

// ---- output ----

// emit writes v as json/yaml, or calls text for the text format.
func (a *app) emit(v any, text func(w io.Writer) error) error {
	if a.format == analysis.FormatText {
		return text(a.out)
	}
	return analysis.Encode(a.out, a.format, v)
}

// hints maps view paths to the command that shows them.
var hints = map[string]string{
	guard.PathCaseIntake: "ak cases new",
	guard.PathDashboard:  "ak cases list",
	guard.PathAdmin:      "ak plans create",
	guard.PathPricing:    "ak plans list",
}

func hint(path string) string {
	if h, ok := hints[path]; ok {
		return h
	}
	return "ak " + strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", " ")
}

// printErr prints err for a terminal: one line per invalid field.
func printErr(w io.Writer, err error) {
	var fe validate.FieldErrors
	var sf *service.FieldError
	switch {
	case errors.As(err, &fe):
		keys := make([]string, 0, len(fe))
		for k := range fe {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, fe[k])
		}
	case errors.As(err, &sf):
		fmt.Fprintf(w, "%s: %s\n", sf.Field, sf.Err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
