package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

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
	reconcilePrefix      string
	reconcileCleanPrefix string
	reconcileRename      bool
	reconcileOut         string
	reconcileConcurrency int
	applyPlan            bool
	dryRunReconcile      bool
	resumeReconcile      bool
	yesConfirm           bool
)

// reconcileCmd plans and optionally applies the image reconciliation.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile crawled images into the clean namespace (plan + optionally apply)",
	Long: `Reconcile computes the plan over the raw crawl namespace and, with --apply,
copies each product's canonical blob into the clean namespace and points the
catalog at it. Sources are never deleted; use the cleanup command with the
written redundant/orphan lists for that.

Examples:
  # Plan only (same as validate)
  reconcile

  # Apply with interactive confirmation
  reconcile --apply

  # Apply non-interactively, resuming a previous partial run
  reconcile --apply --yes --resume

  # Show what apply would do
  reconcile --apply --dry-run`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcilePrefix, "prefix", "", "Raw crawl prefix to reconcile (default from config)")
	reconcileCmd.Flags().StringVar(&reconcileCleanPrefix, "clean-prefix", "", "Clean namespace prefix (default from config)")
	reconcileCmd.Flags().BoolVar(&reconcileRename, "rename-in-clean", false, "Re-timestamp non-conforming names in the clean namespace")
	reconcileCmd.Flags().StringVar(&reconcileOut, "out", "", "Directory for plan artifacts (default from config)")
	reconcileCmd.Flags().IntVar(&reconcileConcurrency, "concurrency", 0, "Parallel copies during apply (default from config)")
	reconcileCmd.Flags().BoolVar(&applyPlan, "apply", false, "Apply the plan (copy blobs and update the catalog)")
	reconcileCmd.Flags().BoolVar(&dryRunReconcile, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	reconcileCmd.Flags().BoolVar(&resumeReconcile, "resume", false, "Skip copies whose destination already exists")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

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

	cat := catalog.NewClient(db)
	opts := planOptions(cfg, reconcilePrefix, reconcileCleanPrefix, reconcileRename)
	outDir := cfg.Pipeline.OutDir
	if reconcileOut != "" {
		outDir = reconcileOut
	}

	// Step 1: Plan (always runs)
	l.Info("Building snapshot",
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("prefix", opts.SourcePrefix))

	snap, err := reconcile.BuildSnapshot(ctx, store, cat, cfg.Storage.Bucket, opts.SourcePrefix)
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}

	plan := reconcile.PlanReconciliation(snap, opts)
	printPlanSummary(l, plan)

	dir, err := reconcile.WritePlanArtifacts(outDir, plan, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write plan artifacts: %w", err)
	}
	l.Info("Plan artifacts written", zap.String("dir", dir))

	// Step 2: Apply (if requested)
	if !applyPlan {
		l.Info("No actions requested. Use --apply to copy blobs and update the catalog.")
		return nil
	}

	applyOpts := reconcile.ApplyOptions{
		Resume:      resumeReconcile,
		Concurrency: cfg.Pipeline.Concurrency,
		DryRun:      dryRunReconcile,
	}
	if reconcileConcurrency > 0 {
		applyOpts.Concurrency = reconcileConcurrency
	}

	if !dryRunReconcile {
		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	l.Info("Applying plan",
		zap.Int("concurrency", applyOpts.Concurrency),
		zap.Bool("resume", applyOpts.Resume),
		zap.Bool("dry_run", applyOpts.DryRun))

	executor := reconcile.NewExecutor(store, cat, cfg.Storage.Bucket, l)
	outcome := executor.Apply(ctx, plan, applyOpts)

	l.Info("Apply finished",
		zap.Int("copied", outcome.Copied),
		zap.Int("skipped", outcome.Skipped),
		zap.Int("failed", outcome.Failed),
		zap.Int("db_updated", outcome.DBUpdated),
		zap.Int("db_failed", outcome.DBFailed),
	)

	if outcome.Failed > 0 || outcome.DBFailed > 0 {
		return fmt.Errorf("apply completed with %d copy and %d catalog failures; rerun with --resume",
			outcome.Failed, outcome.DBFailed)
	}
	return nil
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
