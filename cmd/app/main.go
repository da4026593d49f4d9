package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/papersearch/internal/infra/config"
	httpiface "github.com/yanqian/papersearch/internal/interface/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "papersearch",
		Short: "Exam paper question search and marking scheme locator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when enabled, the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build the question index once and print ingestion stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initializeApp()
			if err != nil {
				return fmt.Errorf("wire application: %w", err)
			}
			stats, err := app.BuildIndex(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}

	var (
		subject string
		ttl     time.Duration
	)
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the rebuild endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := httpiface.SignAdminToken(cfg.Admin.JWTSecret, cfg.Admin.Issuer, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&subject, "subject", "ops", "Token subject recorded in rebuild logs")
	tokenCmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	rootCmd.AddCommand(serveCmd, indexCmd, tokenCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	app, err := initializeApp()
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("application stopped with error: %w", err)
	}
	return nil
}
