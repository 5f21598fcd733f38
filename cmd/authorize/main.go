// Package main provides the operator CLI that obtains the YouTube credential
// the showcase server uses.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/yt-showcase/internal/browser"
	"github.com/yt-showcase/internal/config"
	"github.com/yt-showcase/internal/credentials"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd creates the root command; running it without a subcommand starts the consent flow
func newRootCmd() *cobra.Command {
	var (
		port      int
		timeout   time.Duration
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "authorize",
		Short: "Authorize read-only access to the showcase channel",
		Long: "Run the interactive OAuth consent flow against Google and store the resulting " +
			"credential in the cache the showcase server reads.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.CallbackPort = port
			}
			if cmd.Flags().Changed("timeout") {
				cfg.ConsentTimeout = timeout
			}

			oauthCfg, err := credentials.LoadClientConfig(cfg.ClientSecretFile, cfg.Scopes)
			if err != nil {
				return err
			}

			opener := credentials.Opener(browser.Open)
			if noBrowser {
				opener = nil
			}

			flow := &credentials.ConsentFlow{
				OAuth:   oauthCfg,
				Store:   credentials.NewFileStore(cfg.TokenFile, cfg.TokenPassphrase),
				Port:    cfg.CallbackPort,
				Timeout: cfg.ConsentTimeout,
				Open:    opener,
				Out:     cmd.OutOrStdout(),
				Logger:  slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel})),
			}

			cred, err := flow.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully authorized!\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Credential saved to: %s (expires %s)\n", cfg.TokenFile, cred.Expiry.Format(time.RFC3339))
			if !cred.CanRefresh() {
				fmt.Fprintf(cmd.OutOrStdout(), "Warning: no refresh token was issued; authorization will be needed again after expiry\n")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port for the OAuth callback listener (0 picks a free port)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for consent")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")

	cmd.AddCommand(newStatusCmd())
	return cmd
}

// newStatusCmd creates the status subcommand
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of the cached credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Credential cache: %s\n", cfg.TokenFile)

			cred, err := credentials.NewFileStore(cfg.TokenFile, cfg.TokenPassphrase).Load()
			switch {
			case errors.Is(err, credentials.ErrNotFound):
				fmt.Fprintf(out, "Status: not authorized (run 'authorize')\n")
				return nil
			case err != nil:
				return fmt.Errorf("failed to read credential cache: %w", err)
			}

			status := "valid"
			switch {
			case !cred.Covers(cfg.Scopes):
				status = "missing required scopes"
			case cred.Valid():
			case cred.CanRefresh():
				status = "expired (will refresh on next request)"
			default:
				status = "expired (authorization required)"
			}

			fmt.Fprintf(out, "Status: %s\n", status)
			if !cred.Expiry.IsZero() {
				fmt.Fprintf(out, "Expiry: %s\n", cred.Expiry.Format(time.RFC3339))
			}
			fmt.Fprintf(out, "Refresh token: %t\n", cred.CanRefresh())
			fmt.Fprintf(out, "Sealed: %t\n", cfg.Sealed())
			return nil
		},
	}
}
