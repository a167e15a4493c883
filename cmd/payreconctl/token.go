package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payrecon/internal/http/auth"
)

func (c *cli) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API bearer tokens",
	}

	var (
		email string
		role  string
		ttl   time.Duration
	)

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token with $ADMIN_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := auth.NewAuthenticator(c.cfg.Admin.JWTSecret).Issue(email, role, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)

			return nil
		},
	}

	issue.Flags().StringVar(&email, "email", "", "identity recorded in audit rows (required)")
	issue.Flags().StringVar(&role, "role", auth.RoleAdmin, "admin, or any other role for records-only access")
	issue.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = issue.MarkFlagRequired("email")

	cmd.AddCommand(issue)

	return cmd
}
