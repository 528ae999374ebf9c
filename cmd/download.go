package cmd

import (
	"context"
	"fmt"

	"instrument-images/core/config"
	"instrument-images/core/database"
	"instrument-images/core/logger"
	"instrument-images/core/storage"
	"instrument-images/feature/catalog"
	"instrument-images/feature/crawl"
	"instrument-images/feature/lock"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	downloadConcurrency int
	downloadLimit       int
	downloadIDs         []int64
)

// downloadCmd runs one crawl pass over products that still lack an image.
var downloadCmd = &cobra.Command{
	Use:   "download-missing",
	Short: "Fetch images for products without one (single pass)",
	Long: `Download-missing queries the catalog for products whose image reference is
still empty, then fetches and uploads an image for each under the raw crawl
prefix. Products are locked through the database lock table, so multiple
replicas of this command can run against the same catalog without fetching
anything twice.

The catalog itself is not updated here; run reconcile afterwards to promote
the crawled blobs and point the catalog at them.`,
	RunE: runDownloadMissing,
}

func init() {
	downloadCmd.Flags().IntVar(&downloadConcurrency, "concurrency", 0, "Number of crawl workers (default from config)")
	downloadCmd.Flags().IntVar(&downloadLimit, "limit", 0, "Maximum products to process this pass (default from config)")
	downloadCmd.Flags().Int64SliceVar(&downloadIDs, "id", nil, "Restrict the pass to these product IDs (repeatable)")

	RootCmd.AddCommand(downloadCmd)
}

func runDownloadMissing(cmd *cobra.Command, args []string) error {
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

	crawlCfg := cfg.Crawl
	if downloadConcurrency > 0 {
		crawlCfg.Concurrency = downloadConcurrency
	}
	limit := crawlCfg.BatchLimit
	if downloadLimit > 0 {
		limit = downloadLimit
	}

	locker := lock.NewLocker(db, uuid.NewString())
	if err := locker.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate lock table: %w", err)
	}

	cat := catalog.NewClient(db)
	pending, err := cat.FetchPending(ctx, downloadIDs, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch pending products: %w", err)
	}
	if len(pending) == 0 {
		l.Info("No products pending download.")
		return nil
	}

	l.Info("Starting download pass",
		zap.Int("pending", len(pending)),
		zap.Int("concurrency", crawlCfg.Concurrency),
		zap.String("owner_id", locker.OwnerID()))

	source := crawl.NewHTTPImageSource(crawlCfg.FetchTimeout(), crawlCfg.UserAgent)
	pool := crawl.NewPool(store, cat, locker, source, cfg.Storage.Bucket, cfg.Pipeline.SourcePrefix, crawlCfg, l)
	stats := pool.Run(ctx, pending)

	l.Info("Download pass finished",
		zap.Int64("fetched", stats.Fetched),
		zap.Int64("skipped", stats.Skipped),
		zap.Int64("lock_busy", stats.LockBusy),
		zap.Int64("failed", stats.Failed),
	)

	if stats.Failed > 0 {
		return fmt.Errorf("download pass completed with %d failures", stats.Failed)
	}
	return nil
}
