package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"whistlebox/internal/applog"
	"whistlebox/internal/config"
	"whistlebox/internal/database"
	"whistlebox/internal/http/middleware"
	"whistlebox/internal/ids"
	"whistlebox/internal/service"
	"whistlebox/internal/storage"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is one opened store plus the services on top of it. The caller must
// defer close().
type app struct {
	cfg     *config.AppConfig
	backend *database.Backend
	svc     *service.Services
}

func (a *app) close() { _ = a.backend.Close() }

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	backend, err := database.Open(ctx, cfg.Database, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("opening entity store: %w", err)
	}

	var objStore storage.Storage = storage.Noop{}
	if cfg.MinIO.Endpoint != "" {
		objStore, err = storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("opening content storage: %w", err)
		}
	}

	svc := service.New(service.Options{
		Store:            backend.Store,
		Storage:          objStore,
		ReceiptSalt:      cfg.Tips.ReceiptSalt,
		DefaultTipTTL:    cfg.Tips.DefaultTTL,
		WhistleblowerTTL: cfg.Tips.WhistleblowerTTL,
		Tiers:            cfg.Tips.ReceiverTiers,
		Logger:           applog.New("tipctl", cfg.Location),
	})
	return &app{cfg: cfg, backend: backend, svc: svc}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:          "tipctl",
	Short:        "Operate the whistlebox tip store",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the schema to the configured database",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Open applies pending migrations.
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		fmt.Println("schema is up to date")
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire inactive whistleblower tips and overdue submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.svc.Lifecycle.Sweep(cmd.Context(), ids.RealClock{}.Now())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		return printJSON(report)
	},
}

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Destroy stored content queued for secure deletion",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		batch, _ := cmd.Flags().GetInt("batch")
		report, err := a.svc.SecureDeletes.Drain(cmd.Context(), batch)
		if err != nil {
			return fmt.Errorf("drain: %w", err)
		}
		return printJSON(report)
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show the number of rows per entity kind",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		counts, err := a.svc.Lifecycle.Counts(cmd.Context())
		if err != nil {
			return fmt.Errorf("counts: %w", err)
		}
		return printJSON(counts)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <internaltip-id>",
	Short: "Delete a submission and everything attached to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		report, err := a.svc.Lifecycle.Delete(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("delete %s: %w", args[0], err)
		}
		return printJSON(report)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		auth, err := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		tok, err := auth.Issue(subject, role, ttl)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	drainCmd.Flags().IntP("batch", "b", service.DefaultDrainBatch, "Maximum records to process")

	tokenCmd.Flags().StringP("subject", "s", "", "Receiver id or operator name")
	tokenCmd.Flags().StringP("role", "r", middleware.RoleAdmin, "receiver, admin or system")
	tokenCmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(drainCmd)
	rootCmd.AddCommand(countsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tokenCmd)
}
