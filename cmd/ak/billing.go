package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/and161185/appealkit/internal/service"
	"github.com/spf13/cobra"
)

func plansCmd(h *holder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Browse and manage case plans",
	}
	cmd.AddCommand(plansListCmd(h), plansCreateCmd(h))
	return cmd
}

func plansListCmd(h *holder) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List purchasable plans",
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			plans, err := a.billing.Plans(ctx)
			if err != nil {
				return err
			}
			return a.emit(plans, func(w io.Writer) error {
				if len(plans) == 0 {
					_, err := fmt.Fprintln(w, "No plans available.")
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCASES\tINTERVAL")
				for _, p := range plans {
					fmt.Fprintf(tw, "%s\t%s\t%.2f %s\t%d\t%s\n",
						p.ID, p.Name, p.Price, strings.ToUpper(p.Currency), p.CasesIncluded, p.Interval)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(w, "Buy one with: ak checkout <plan-id>")
				return err
			})
		}),
	}
}

func plansCreateCmd(h *holder) *cobra.Command {
	var in service.PlanInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan (admin)",
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			p, err := a.billing.CreatePlan(ctx, in)
			if err != nil {
				return err
			}
			return a.emit(p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created plan %s (%s).\n", p.Name, p.ID)
				return err
			})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "plan name")
	f.Float64Var(&in.Price, "price", 0, "price")
	f.StringVar(&in.Currency, "currency", "usd", "ISO currency code")
	f.IntVar(&in.CasesIncluded, "cases", 0, "cases included")
	f.StringVar(&in.Interval, "interval", "", "billing interval: once, month or year")
	f.StringVar(&in.Description, "description", "", "description")
	return cmd
}

func checkoutCmd(h *holder) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <plan-id>",
		Short: "Open a payment session for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: protected(h, func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			ps, err := a.billing.Checkout(ctx, args[0])
			if err != nil {
				return err
			}
			return a.emit(ps, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Complete the payment at:\n%s\n", ps.URL)
				return err
			})
		}),
	}
}
