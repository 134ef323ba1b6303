package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/fraudshield/screening/internal/app/bootstrap"
	"github.com/fraudshield/screening/internal/ports"
)

type tokenIssuer interface {
	Issue(subject string, claims map[string]any, ttl time.Duration) (string, error)
	Verify(raw string) (ports.TokenIdentity, error)
}

func tokenCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue or inspect identity tokens with the configured JWT_SECRET",
	}
	cmd.AddCommand(tokenIssueCmd(configPath))
	cmd.AddCommand(tokenVerifyCmd(configPath))
	return cmd
}

func loadTokens(configPath string) (tokenIssuer, bootstrap.Config, error) {
	cfg, err := bootstrap.LoadConfig(configPath)
	if err != nil {
		return nil, bootstrap.Config{}, err
	}
	if cfg.JWTSecret == "" {
		return nil, bootstrap.Config{}, fmt.Errorf("JWT_SECRET is required; an ephemeral secret would produce unverifiable tokens")
	}
	tokens, err := bootstrap.NewTokenService(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return nil, bootstrap.Config{}, err
	}
	return tokens, cfg, nil
}

func tokenIssueCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue [subject]",
		Short: "Mint a token for a subject, e.g. a service account or test user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, cfg, err := loadTokens(*configPath)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}
			var claims map[string]any
			if email != "" {
				claims = map[string]any{"email": email}
			}
			raw, err := tokens.Issue(args[0], claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().StringP("email", "e", "", "Email claim to embed")
	cmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to TOKEN_EXPIRY_MINUTES)")
	return cmd
}

func tokenVerifyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [token]",
		Short: "Verify a token and print its identity as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, _, err := loadTokens(*configPath)
			if err != nil {
				return err
			}
			identity, err := tokens.Verify(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"subject":   identity.Subject,
				"email":     identity.Email,
				"issuedAt":  identity.IssuedAt.UTC(),
				"expiresAt": identity.ExpiresAt.UTC(),
			})
		},
	}
}
