package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payrecon/internal/http/admin"
)

func (c *cli) deadLettersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deadletters",
		Aliases: []string{"dl", "dead-letters"},
		Short:   "Review events that could not be applied",
	}

	cmd.AddCommand(c.deadLettersListCmd())
	cmd.AddCommand(c.deadLettersShowCmd())
	cmd.AddCommand(c.deadLettersRetryCmd())

	return cmd
}

var letterHeaders = []string{"ID", "PROVIDER", "EVENT", "REASON", "RETRYABLE", "ATTEMPTS", "NEXT ATTEMPT", "RESOLVED", "LAST ERROR"}

func letterRows(letters []admin.LetterResponse) [][]string {
	rows := make([][]string, len(letters))
	for i, l := range letters {
		rows[i] = []string{
			l.ID.String(),
			string(l.Provider),
			l.ProviderEventID,
			string(l.Reason),
			strconv.FormatBool(l.Retryable),
			strconv.Itoa(l.Attempts),
			formatTime(l.NextAttemptAt),
			formatTime(l.ResolvedAt),
			orDash(l.LastError),
		}
	}

	return rows
}

func (c *cli) deadLettersListCmd() *cobra.Command {
	var (
		reason string
		all    bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open dead letters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			letters, err := client.DeadLetters(ctx, reason, all, limit)
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), letters, letterHeaders, letterRows(letters))
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "unresolved, ambiguous or unknown_status")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include resolved letters")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum letters")

	return cmd
}

func (c *cli) deadLettersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [letter-id]",
		Short: "Show a dead letter with its raw payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.letterArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			l, err := client.DeadLetter(ctx, id)
			if err != nil {
				return err
			}

			if err := c.print(cmd.OutOrStdout(), l, letterHeaders, letterRows([]admin.LetterResponse{*l})); err != nil {
				return err
			}

			if !c.asJSON && len(l.Payload) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\npayload:\n%s\n", l.Payload)
			}

			return nil
		},
	}
}

func (c *cli) deadLettersRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry [letter-id]",
		Short: "Re-run reconciliation for one dead letter now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, client, err := c.letterArgs(args)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			l, err := client.RetryDeadLetter(ctx, id)
			if err != nil {
				return err
			}

			return c.print(cmd.OutOrStdout(), l, letterHeaders, letterRows([]admin.LetterResponse{*l}))
		},
	}
}

func (c *cli) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Retry every due dead letter once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			n, err := client.Sweep(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "retried %d dead letters\n", n)

			return nil
		},
	}
}

func (c *cli) letterArgs(args []string) (uuid.UUID, *admin.Client, error) {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid letter id %q: %w", args[0], err)
	}

	client, err := c.client()
	if err != nil {
		return uuid.Nil, nil, err
	}

	return id, client, nil
}
