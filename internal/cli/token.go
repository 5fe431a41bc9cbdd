package cli

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/setu007/play-scraper-render/internal/auth"
)

func newTokenCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Create password hashes and bearer tokens",
		Long: `Helpers for the optional API authentication.

Examples:
  # Hash the admin password for auth.admin_password_hash
  playscout token hash 's3cret-pass'

  # Sign a token locally with the configured secret
  playscout token issue --subject ci --ttl 12h

  # Ask a running server for a token and store it for "watch"
  playscout token request --api http://localhost:3000 --password 's3cret-pass'
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newTokenHashCmd(), newTokenIssueCmd(g), newTokenRequestCmd())
	return cmd
}

func newTokenHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [password]",
		Short: "Print the bcrypt hash of a password (reads stdin without an argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if len(password) < 8 || len(password) > 72 {
				return errors.New("password must be 8-72 chars")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newTokenIssueCmd(g *globals) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token with the configured JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			d := cfg.Auth.JWTDuration
			if ttl > 0 {
				d = ttl
			}

			tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, d)
			tok, exp, err := tokens.Sign(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			color.New(color.Faint).Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default from config)")
	return cmd
}

func newTokenRequestCmd() *cobra.Command {
	var (
		apiURL    string
		password  string
		tokenPath string
	)
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Exchange the admin password for a token at a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			client := &http.Client{Timeout: 15 * time.Second}
			var resp tokenData
			endpoint := strings.TrimRight(apiURL, "/") + "/auth/token"
			if err := doJSON(cmd.Context(), client, http.MethodPost, endpoint, "", map[string]string{"password": password}, &resp); err != nil {
				return err
			}
			if err := saveToken(tokenPath, resp); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "token saved to %s (expires %s)\n", tokenPath, resp.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", defaultAPIURL, "API base URL")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.Flags().StringVar(&tokenPath, "token-file", defaultTokenPath(), "Where to store the token")
	return cmd
}
