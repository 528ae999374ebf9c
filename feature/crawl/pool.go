package crawl

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"instrument-images/core/blobname"
	"instrument-images/core/storage"
	"instrument-images/feature/catalog"

	"go.uber.org/zap"
)

// Locker is the distributed-lock surface the pool needs.
type Locker interface {
	TryAcquire(ctx context.Context, productID int64, ttl time.Duration) (bool, error)
	Release(ctx context.Context, productID int64) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// Catalog is the catalog surface the pool needs.
type Catalog interface {
	FetchPending(ctx context.Context, ids []int64, limit int) ([]catalog.PendingProduct, error)
	HasImage(ctx context.Context, productID int64) (bool, error)
}

// Stats holds the pool's running counters. Safe for concurrent use.
type Stats struct {
	Fetched  atomic.Int64
	Skipped  atomic.Int64
	LockBusy atomic.Int64
	Failed   atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the counters for reporting.
type StatsSnapshot struct {
	Fetched  int64 `json:"fetched"`
	Skipped  int64 `json:"skipped"`
	LockBusy int64 `json:"lock_busy"`
	Failed   int64 `json:"failed"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Fetched:  s.Fetched.Load(),
		Skipped:  s.Skipped.Load(),
		LockBusy: s.LockBusy.Load(),
		Failed:   s.Failed.Load(),
	}
}

// Pool is the bounded-concurrency crawl worker pool. Multiple replicas can run
// the same pool against the same catalog; the lock table is what prevents
// duplicate downloads from the rate-limited external source.
type Pool struct {
	store   storage.Client
	catalog Catalog
	locker  Locker
	source  ImageSource
	bucket  string
	prefix  string
	cfg     Config
	log     *zap.Logger

	stats Stats
}

// NewPool wires a pool from explicit collaborators.
func NewPool(store storage.Client, cat Catalog, locker Locker, source ImageSource, bucket, prefix string, cfg Config, log *zap.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pool{
		store:   store,
		catalog: cat,
		locker:  locker,
		source:  source,
		bucket:  bucket,
		prefix:  prefix,
		cfg:     cfg,
		log:     log,
	}
}

// Stats exposes the pool's counters for the status endpoint.
func (p *Pool) Stats() StatsSnapshot {
	return p.stats.Snapshot()
}

// Run processes one batch of pending products and returns the pass counters.
// Cancelling the context stops dispatching; in-flight items finish naturally.
func (p *Pool) Run(ctx context.Context, products []catalog.PendingProduct) StatsSnapshot {
	if n, err := p.locker.CleanupExpired(ctx); err != nil {
		p.log.Warn("lock cleanup failed", zap.Error(err))
	} else if n > 0 {
		p.log.Info("cleaned up expired locks", zap.Int64("count", n))
	}

	queue := make(chan catalog.PendingProduct)
	var wg sync.WaitGroup

	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for product := range queue {
				p.processProduct(ctx, product)
			}
		}()
	}

	for _, product := range products {
		select {
		case <-ctx.Done():
			// Stop dispatching; workers drain what they already hold.
			close(queue)
			wg.Wait()
			return p.stats.Snapshot()
		case queue <- product:
		}
	}
	close(queue)
	wg.Wait()

	return p.stats.Snapshot()
}

// RunLoop polls the catalog on an interval and runs a pass per tick, until the
// context is cancelled. This is the daemon mode behind the start command.
func (p *Pool) RunLoop(ctx context.Context) {
	p.log.Info("crawl loop started",
		zap.Int("concurrency", p.cfg.Concurrency),
		zap.Duration("poll_interval", p.cfg.PollInterval()))

	ticker := time.NewTicker(p.cfg.PollInterval())
	defer ticker.Stop()

	for {
		pending, err := p.catalog.FetchPending(ctx, nil, p.cfg.BatchLimit)
		if err != nil {
			p.log.Error("failed to fetch pending products", zap.Error(err))
		} else if len(pending) > 0 {
			p.log.Info("processing pending products", zap.Int("count", len(pending)))
			p.Run(ctx, pending)
		}

		select {
		case <-ctx.Done():
			p.log.Info("crawl loop shutting down")
			return
		case <-ticker.C:
		}
	}
}

// processProduct handles a single product end to end: lock, re-check, fetch,
// upload, unlock. Any failure is logged and counted; the lock is always
// released on the way out.
func (p *Pool) processProduct(ctx context.Context, product catalog.PendingProduct) {
	acquired, err := p.locker.TryAcquire(ctx, product.ID, p.cfg.LockTTL())
	if err != nil {
		p.log.Error("lock acquire failed", zap.Int64("product_id", product.ID), zap.Error(err))
		p.stats.Failed.Add(1)
		return
	}
	if !acquired {
		// Another replica holds this product. Expected, not an error.
		p.log.Debug("product locked elsewhere, skipping", zap.Int64("product_id", product.ID))
		p.stats.LockBusy.Add(1)
		return
	}
	defer func() {
		if err := p.locker.Release(ctx, product.ID); err != nil {
			p.log.Warn("lock release failed", zap.Int64("product_id", product.ID), zap.Error(err))
		}
	}()

	// Re-check against current state, not the snapshot the queue was built
	// from: another replica may have finished this product since.
	hasImage, err := p.catalog.HasImage(ctx, product.ID)
	if err != nil {
		p.log.Error("image re-check failed", zap.Int64("product_id", product.ID), zap.Error(err))
		p.stats.Failed.Add(1)
		return
	}
	if hasImage {
		p.stats.Skipped.Add(1)
		return
	}

	// A crawled blob awaiting reconciliation also counts as done.
	existing, err := p.store.List(ctx, p.bucket, fmt.Sprintf("%s%d_", p.prefix, product.ID))
	if err != nil {
		p.log.Error("store re-check failed", zap.Int64("product_id", product.ID), zap.Error(err))
		p.stats.Failed.Add(1)
		return
	}
	if len(existing) > 0 {
		p.stats.Skipped.Add(1)
		return
	}

	img, err := p.source.FetchImage(ctx, product)
	if err != nil {
		p.log.Error("image fetch failed",
			zap.Int64("product_id", product.ID),
			zap.String("sku", product.SKU),
			zap.Error(err))
		p.stats.Failed.Add(1)
		return
	}

	name := blobname.Format(p.prefix, product.ID, time.Time{}, img.Ext)
	if err := p.store.Put(ctx, p.bucket, name, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		p.log.Error("image upload failed",
			zap.Int64("product_id", product.ID),
			zap.String("blob", name),
			zap.Error(err))
		p.stats.Failed.Add(1)
		return
	}

	p.log.Info("image stored",
		zap.Int64("product_id", product.ID),
		zap.String("blob", name),
		zap.Int("bytes", len(img.Data)))
	p.stats.Fetched.Add(1)
}
