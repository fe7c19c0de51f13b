package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/project-management-api/internal/config"
	"github.com/yukikurage/project-management-api/internal/identity"
)

var (
	tokenEmail string
	tokenName  string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Issue a development token (TOKEN_MODE=hmac only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if cfg.TokenMode != config.TokenModeHMAC {
			return fmt.Errorf("token requires TOKEN_MODE=%s", config.TokenModeHMAC)
		}

		token, err := identity.NewHMACVerifier(cfg.HMACSecret, cfg.HMACIssuer).Issue(args[0], tokenEmail, tokenName, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
}
