package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/and161185/appealkit/internal/analysis"
	"github.com/and161185/appealkit/internal/errs"
	"github.com/and161185/appealkit/internal/guard"
	"github.com/and161185/appealkit/internal/intake"
	"github.com/and161185/appealkit/internal/model"
	"github.com/and161185/appealkit/internal/service"
	"github.com/spf13/cobra"
)

func casesCmd(h *holder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "Submit and browse denial cases",
	}
	cmd.AddCommand(casesNewCmd(h), casesListCmd(h), casesShowCmd(h))
	return cmd
}

func casesNewCmd(h *holder) *cobra.Command {
	var (
		form           intake.Form
		mode           string
		denialFiles    []string
		encounterFiles []string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Submit a denied claim for analysis",
		Example: `  ak cases new --claim CLM-1 --dos 2024-01-02 --cpt 99213 \
      --denial-file eob.png --encounter-file note.jpg
  ak cases new --mode paste --claim CLM-1 --dos 2024-01-02 --cpt 99213 \
      --denial-text "CO-50 ..." --encounter-text "Patient seen for ..."`,
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			if err := a.cases.CanSubmit(); err != nil {
				if errors.Is(err, errs.ErrNoCasesRemaining) {
					return fmt.Errorf("%w; see plans: %s", err, hint(guard.PathPricing))
				}
				return err
			}

			form.Mode = model.SubmissionMode(mode)
			for _, p := range denialFiles {
				if err := attach(a, &form, intake.Denial, p); err != nil {
					return err
				}
			}
			for _, p := range encounterFiles {
				if err := attach(a, &form, intake.Encounter, p); err != nil {
					return err
				}
			}

			res, err := a.cases.Submit(ctx, &form)
			if err != nil {
				return err
			}
			return a.showResult(res)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", string(model.ModeUpload), "evidence mode: upload or paste")
	f.StringVar(&form.CurrentClaim, "claim", "", "current claim number")
	f.StringVar(&form.PrevClaimDOS, "dos", "", "previous claim date of service")
	f.StringVar(&form.PrevClaimCPT, "cpt", "", "previous claim CPT code")
	f.StringVar(&form.PayerName, "payer", "", "payer name")
	f.StringVar(&form.DenialText, "denial-text", "", "denial text (paste mode)")
	f.StringVar(&form.EncounterText, "encounter-text", "", "encounter text (paste mode)")
	f.StringArrayVar(&denialFiles, "denial-file", nil, "denial document image (upload mode, repeatable)")
	f.StringArrayVar(&encounterFiles, "encounter-file", nil, "encounter document image (upload mode, repeatable)")
	return cmd
}

func attach(a *app, form *intake.Form, g intake.Group, path string) error {
	added, err := form.AddPath(g, path)
	if err != nil {
		return err
	}
	if !added {
		a.in.say("Skipping %s: already attached as %s document.", path, g)
	}
	return nil
}

// showResult tracks the analysis reactions and prints the case.
func (a *app) showResult(res model.CaseResult) error {
	a.reactions.Track(res.Analysis)
	var uid string
	if u, ok := a.sess.User(); ok {
		uid = u.ID
	}
	v, err := analysis.NewView(res, uid)
	if err != nil {
		return err
	}
	return analysis.Render(a.out, a.format, v)
}

func casesListCmd(h *holder) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your cases",
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			p, err := a.cases.List(ctx, page, limit)
			if err != nil {
				return err
			}
			return a.emit(p, func(w io.Writer) error {
				if len(p.Items) == 0 {
					_, err := fmt.Fprintf(w, "No cases yet. Next: %s\n", hint(guard.PathCaseIntake))
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCLAIM\tDOS\tCPT\tPAYER\tCREATED")
				for _, c := range p.Items {
					created := ""
					if !c.CreatedAt.IsZero() {
						created = c.CreatedAt.Format("2006-01-02")
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.CurrentClaim, c.PrevClaimDOS, c.PrevClaimCPT, c.PayerName, created)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if p.TotalPages > 1 {
					_, err := fmt.Fprintf(w, "page %d of %d (%d cases)\n", p.Page, p.TotalPages, p.Total)
					return err
				}
				return nil
			})
		}),
	}
	cmd.Flags().IntVar(&page, "page", service.DefaultPage, "page number")
	cmd.Flags().IntVar(&limit, "limit", service.DefaultLimit, "cases per page")
	return cmd
}

func casesShowCmd(h *holder) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a case and its analysis",
		Args:  cobra.ExactArgs(1),
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			res, err := a.cases.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.showResult(res)
		}),
	}
}

func analysisCmd(h *holder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Rate an analysis",
	}
	cmd.AddCommand(
		reactCmd(h, "like", "Toggle a like on an analysis", service.Like),
		reactCmd(h, "dislike", "Toggle a dislike on an analysis", service.Dislike),
	)
	return cmd
}

func reactCmd(h *holder, use, short string, r service.Reaction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <analysis-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			got, err := a.reactions.Toggle(ctx, args[0], r)
			if err != nil {
				return err
			}
			return a.emit(got, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "likes %d (you: %t)   dislikes %d (you: %t)\n",
					got.Likes, got.HasLiked, got.Dislikes, got.HasDisliked)
				return err
			})
		}),
	}
}
