package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	config "github.com/maheshrc27/autopost-api/configs"
	"github.com/maheshrc27/autopost-api/pkg/utils"
)

const defaultTokenTTL = 30 * 24 * time.Hour

func loadSecret() (string, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Failed to load environment variables", "error", err)
	}
	cfg := config.LoadConfig()
	if cfg.SecretKey == "" {
		return "", errors.New("SECRET_KEY is not set")
	}
	return cfg.SecretKey, nil
}

func newRootCommand(secret func() (string, error)) *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:           "token",
		Short:         "Mint a signed API token for a user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive, got %s", ttl)
			}
			key, err := secret()
			if err != nil {
				return err
			}
			token, err := utils.GenerateToken(key, userID, ttl)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id to issue the token for")
	cmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
