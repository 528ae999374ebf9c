package cmd

import (
	"context"
	"fmt"
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
	validatePrefix      string
	validateCleanPrefix string
	validateRename      bool
	validateOut         string
)

// validateCmd computes a reconciliation plan without touching anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compute a reconciliation plan and write the plan artifacts",
	Long: `Validate lists the raw crawl namespace, loads the catalog, and computes the
full reconciliation plan: one action per product plus the redundant and orphan
blob lists. Nothing is copied, updated, or deleted.

Artifacts land under a fresh timestamped directory:
  actions.jsonl   one JSON action per line
  redundant.txt   non-canonical candidates, one blob per line
  orphans.txt     blobs with no catalog product, one blob per line`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validatePrefix, "prefix", "", "Raw crawl prefix to reconcile (default from config)")
	validateCmd.Flags().StringVar(&validateCleanPrefix, "clean-prefix", "", "Clean namespace prefix (default from config)")
	validateCmd.Flags().BoolVar(&validateRename, "rename-in-clean", false, "Re-timestamp non-conforming names in the clean namespace")
	validateCmd.Flags().StringVar(&validateOut, "out", "", "Directory for plan artifacts (default from config)")

	RootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
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

	opts := planOptions(cfg, validatePrefix, validateCleanPrefix, validateRename)
	outDir := cfg.Pipeline.OutDir
	if validateOut != "" {
		outDir = validateOut
	}

	l.Info("Building snapshot",
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("prefix", opts.SourcePrefix))

	snap, err := reconcile.BuildSnapshot(ctx, store, catalog.NewClient(db), cfg.Storage.Bucket, opts.SourcePrefix)
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

	return nil
}

// planOptions merges config defaults with command flags.
func planOptions(cfg *config.Config, prefix, cleanPrefix string, rename bool) reconcile.Options {
	opts := reconcile.Options{
		SourcePrefix:  cfg.Pipeline.SourcePrefix,
		CleanPrefix:   cfg.Pipeline.CleanPrefix,
		RenameInClean: cfg.Pipeline.RenameInClean || rename,
		Bucket:        cfg.Storage.Bucket,
	}
	if prefix != "" {
		opts.SourcePrefix = prefix
	}
	if cleanPrefix != "" {
		opts.CleanPrefix = cleanPrefix
	}
	return opts
}

// printPlanSummary prints a formatted plan report using logger.
func printPlanSummary(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Reconciliation plan",
		zap.Int("total_products", s.TotalProducts),
		zap.Int("promote", s.Promote),
		zap.Int("associate_newest", s.AssociateNewest),
		zap.Int("no_candidate", s.NoCandidate),
		zap.Int("redundant_blobs", s.RedundantBlobs),
		zap.Int("orphan_blobs", s.OrphanBlobs),
	)

	// Show a sample of actions (max 5 for logger)
	maxShow := 5
	if len(plan.Actions) < maxShow {
		maxShow = len(plan.Actions)
	}
	for i := 0; i < maxShow; i++ {
		action := plan.Actions[i]
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.Int64("product_id", action.ProductID),
			zap.String("source", action.SourceBlob),
			zap.String("dest", action.DestBlob),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}
}
