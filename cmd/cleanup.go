package cmd

import (
	"context"
	"fmt"

	"instrument-images/core/config"
	"instrument-images/core/database"
	"instrument-images/core/logger"
	"instrument-images/core/storage"
	"instrument-images/feature/catalog"
	"instrument-images/feature/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	redundantFile string
	orphansFile   string
	dryRunCleanup bool
)

// cleanupCmd deletes blobs listed in reviewed plan artifacts.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete blobs from a reviewed redundant/orphan list",
	Long: `Cleanup is the only deleting step of the pipeline. It takes the redundant.txt
and/or orphans.txt files written by validate or reconcile, after an operator
has reviewed them, and removes the listed blobs from storage. Lines starting
with # are treated as operator annotations and skipped.

Examples:
  # See what would be deleted
  cleanup --redundant reports/plan-20260830-120000/redundant.txt --dry-run

  # Delete both lists non-interactively
  cleanup --redundant redundant.txt --orphans orphans.txt --yes`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&redundantFile, "redundant", "", "Path to a reviewed redundant.txt")
	cleanupCmd.Flags().StringVar(&orphansFile, "orphans", "", "Path to a reviewed orphans.txt")
	cleanupCmd.Flags().BoolVar(&dryRunCleanup, "dry-run", false, "Force dry-run (no deletions even with --yes)")
	cleanupCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if redundantFile == "" && orphansFile == "" {
		return fmt.Errorf("nothing to do: pass --redundant and/or --orphans")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	var names []string
	if redundantFile != "" {
		lines, err := reconcile.ReadLines(redundantFile)
		if err != nil {
			return err
		}
		l.Info("Loaded redundant list", zap.String("file", redundantFile), zap.Int("blobs", len(lines)))
		names = append(names, lines...)
	}
	if orphansFile != "" {
		lines, err := reconcile.ReadLines(orphansFile)
		if err != nil {
			return err
		}
		l.Info("Loaded orphan list", zap.String("file", orphansFile), zap.Int("blobs", len(lines)))
		names = append(names, lines...)
	}

	if len(names) == 0 {
		l.Info("Lists are empty, nothing to delete.")
		return nil
	}

	if !dryRunCleanup {
		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	executor := reconcile.NewExecutor(store, catalog.NewClient(db), cfg.Storage.Bucket, l)
	outcome := executor.ApplyCleanup(ctx, names, dryRunCleanup)

	l.Info("Cleanup finished",
		zap.Int("deleted", outcome.Deleted),
		zap.Int("failed", outcome.Failed),
		zap.Bool("dry_run", dryRunCleanup),
	)

	if outcome.Failed > 0 {
		return fmt.Errorf("cleanup completed with %d failures", outcome.Failed)
	}
	return nil
}
