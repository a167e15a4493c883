package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payrecon/internal/http/admin"
	"github.com/MrJamesThe3rd/payrecon/internal/http/records"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

func (c *cli) recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"record", "rec"},
		Short:   "Inspect and repair payable records",
	}

	cmd.AddCommand(c.recordsListCmd())
	cmd.AddCommand(c.recordsGetCmd())
	cmd.AddCommand(c.recordsLedgerCmd())
	cmd.AddCommand(c.recordsAuditCmd())
	cmd.AddCommand(c.recordsForceCmd())
	cmd.AddCommand(c.recordsReactivateCmd())
	cmd.AddCommand(c.recordsPurgeCmd())

	return cmd
}

func recordRows(recs []records.RecordResponse) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		paymentID := "-"
		if r.ProviderPaymentID != nil {
			paymentID = *r.ProviderPaymentID
		}

		rows[i] = []string{
			r.ID.String(),
			string(r.Kind),
			r.ExternalReference,
			string(r.Status),
			r.Amount + " " + r.Currency,
			paymentID,
			strconv.Itoa(r.BillingCycle),
			formatTime(r.NextBillingAt),
			formatTime(r.LastEventAt),
		}
	}

	return rows
}

var recordHeaders = []string{"ID", "KIND", "REFERENCE", "STATUS", "AMOUNT", "PAYMENT ID", "CYCLE", "NEXT BILLING", "LAST EVENT"}

func (c *cli) recordsListCmd() *cobra.Command {
	var kind, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			recs, err := client.Records(ctx, payable.Kind(kind), payable.Status(status))
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), recs, recordHeaders, recordRows(recs))
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "order or subscription")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")

	return cmd
}

func (c *cli) recordsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [record-id]",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.recordArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			rec, err := client.Record(ctx, id)
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), rec, recordHeaders, recordRows([]records.RecordResponse{*rec}))
		},
	}
}

func (c *cli) recordsLedgerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ledger [record-id]",
		Short: "Show the money movements recorded for a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.recordArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			entries, err := client.Ledger(ctx, id)
			if err != nil {
				return err
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					formatTime(&e.OccurredAt),
					string(e.Provider),
					e.ProviderEventID,
					orDash(e.ProviderPaymentID),
					string(e.Outcome),
					e.Amount + " " + e.Currency,
				}
			}

			return c.print(cmd.OutOrStdout(), entries,
				[]string{"OCCURRED", "PROVIDER", "EVENT", "PAYMENT ID", "OUTCOME", "AMOUNT"}, rows)
		},
	}
}

func (c *cli) recordsAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit [record-id]",
		Short: "Show administrative changes to a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.recordArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			entries, err := client.Audit(ctx, id)
			if err != nil {
				return err
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					formatTime(&e.CreatedAt),
					e.Actor,
					string(e.Action),
					string(e.FromStatus) + " -> " + orDash(string(e.ToStatus)),
					e.Reason,
				}
			}

			return c.print(cmd.OutOrStdout(), entries, []string{"WHEN", "ACTOR", "ACTION", "CHANGE", "REASON"}, rows)
		},
	}
}

func (c *cli) recordsForceCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "force [record-id] [status]",
		Short: "Move a record to a status, audited and checked by the transition rules",
		Long: `Force a record into a status on your authority.

The move goes through the same rules as provider events: orders can be
completed, marked processing or cancelled (a completed order is refunded),
subscriptions can be activated or cancelled. Moves that take money are
written to the ledger. Every override is audited with your token's identity.

Examples:
  payreconctl records force 6f1c... completed --reason "paid by bank transfer"
  payreconctl records force 6f1c... cancelled --reason "customer refund #123"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.recordArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			res, err := client.ForceTransition(ctx, id, payable.Status(args[1]), reason)
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), res, append([]string{"RESULT"}, recordHeaders...),
				[][]string{append([]string{res.Status}, recordRows([]records.RecordResponse{res.Record})[0]...)})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the override is needed (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func (c *cli) recordsReactivateCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reactivate [record-id]",
		Short: "Restart a cancelled subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.recordArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			res, err := client.Reactivate(ctx, id, reason)
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), res, recordHeaders, recordRows([]records.RecordResponse{res.Record}))
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the subscription is restarted (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func (c *cli) recordsPurgeCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "purge [record-id]",
		Short: "Delete an erroneous duplicate that never moved money",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.recordArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			if err := client.Purge(ctx, id, reason); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", id)

			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the record is removed (required)")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func (c *cli) recordArgs(args []string) (uuid.UUID, *admin.Client, error) {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid record id %q: %w", args[0], err)
	}

	client, err := c.client()
	if err != nil {
		return uuid.Nil, nil, err
	}

	return id, client, nil
}
