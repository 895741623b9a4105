package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"contentpay_backend/internal/auth"
	"contentpay_backend/internal/database"
	"contentpay_backend/internal/services/settlement"

	"github.com/spf13/cobra"
)

func migrateCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every payment table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.AutoMigrate(env.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}
}

func settleCmd(env *environment) *cobra.Command {
	var month, sellerID string

	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Aggregate unsettled purchases into seller settlements",
		Long: `Aggregate unsettled purchases of one calendar month into PENDING settlements.

Purchases already attached to a settlement are never counted again, so the
command is safe to re-run.

Examples:
  paymentctl settle                      # previous month, all sellers
  paymentctl settle --month 2025-01
  paymentctl settle --month 2025-01 --seller 7f3c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			period := settlement.PreviousMonth(time.Now())
			if month != "" {
				parsed, err := settlement.ParseMonth(month)
				if err != nil {
					return err
				}
				period = parsed
			}

			ctx := cmd.Context()
			engine := env.services.SettlementEngine
			if sellerID != "" {
				result, err := engine.Aggregate(ctx, env.db, sellerID, period)
				if err != nil {
					return err
				}
				if result == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "nothing to settle for %s in %s\n", sellerID, period)
					return nil
				}
				return printJSON(cmd.OutOrStdout(), result)
			}

			report, err := engine.AggregatePeriod(ctx, env.db, period)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "period %s: %d sellers, %d settlements, %d items, %d failed\n",
				period, report.Sellers, len(report.Settlements), report.Items, report.Failed)
			if report.Failed > 0 {
				return fmt.Errorf("%d sellers failed to settle", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to settle, YYYY-MM (default previous month)")
	cmd.Flags().StringVar(&sellerID, "seller", "", "settle a single seller")
	return cmd
}

func approveSettlementCmd(env *environment) *cobra.Command {
	var adminID string

	cmd := &cobra.Command{
		Use:   "approve-settlement [settlement-id]",
		Short: "Approve a settlement and request the seller payout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := env.services.SettlementEngine.Approve(cmd.Context(), env.db, args[0], adminID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&adminID, "admin", "", "id of the approving administrator")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}

func reconcileCmd(env *environment) *cobra.Command {
	var (
		olderThan   time.Duration
		limit       int
		merchantUid string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Resolve PENDING orders against the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reconciler := env.services.Reconciler

			if merchantUid != "" {
				outcome, err := reconciler.ReconcileOrder(ctx, env.db, merchantUid, false)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", merchantUid, outcome)
				return nil
			}

			if olderThan <= 0 {
				olderThan = env.cfg.PendingTimeout()
			}
			report, err := reconciler.ReconcileStale(ctx, env.db, olderThan, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "only orders pending longer than this (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum orders to check")
	cmd.Flags().StringVar(&merchantUid, "order", "", "reconcile a single merchant uid")
	return cmd
}

func renewCmd(env *environment) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "renew",
		Short: "Charge subscriptions whose billing date has passed",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := env.services.SubscriptionService.ChargeDue(cmd.Context(), env.db, time.Now().UTC(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum subscriptions to charge")
	return cmd
}

func tokenCmd(env *environment) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:         "token [user-id]",
		Short:       "Issue an API token, e.g. for an administrator",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := env.tokens.GenerateToken(args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "token role: admin, member or guest")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
