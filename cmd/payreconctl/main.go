package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/payrecon/internal/config"
	"github.com/MrJamesThe3rd/payrecon/internal/http/admin"
)

var Version = "dev"

type cli struct {
	cfg     *config.Config
	apiURL  string
	token   string
	asJSON  bool
	timeout time.Duration
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:     "payreconctl",
		Short:   "Operate the payment reconciler: inspect records, override states, drain dead letters",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			c.cfg = cfg

			if c.apiURL == "" {
				c.apiURL = cfg.Admin.APIURL
			}

			if c.token == "" {
				c.token = cfg.Admin.Token
			}

			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.apiURL, "api", "", "API base URL (default $ADMIN_API_URL)")
	rootCmd.PersistentFlags().StringVar(&c.token, "token", "", "admin bearer token (default $ADMIN_TOKEN)")
	rootCmd.PersistentFlags().BoolVarP(&c.asJSON, "json", "j", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "request timeout")

	rootCmd.AddCommand(c.recordsCmd())
	rootCmd.AddCommand(c.deadLettersCmd())
	rootCmd.AddCommand(c.sweepCmd())
	rootCmd.AddCommand(c.tokenCmd())

	return rootCmd
}

func (c *cli) client() (*admin.Client, error) {
	if c.token == "" {
		return nil, fmt.Errorf("no admin token: set ADMIN_TOKEN or pass --token (see `payreconctl token issue`)")
	}

	return admin.NewClient(c.apiURL, c.token), nil
}
