package reconcile

import (
	"context"
	"sort"
	"sync"

	"instrument-images/core/storage"

	"go.uber.org/zap"
)

// CatalogUpdater is the catalog surface the executor needs.
type CatalogUpdater interface {
	UpdateImageURL(ctx context.Context, productID int64, newURL string) error
}

// ApplyOptions controls plan execution.
type ApplyOptions struct {
	// Resume skips the copy when the destination blob already exists, treating
	// prior partial runs as valid progress. Existence implies done; content is
	// not re-verified.
	Resume bool

	// Concurrency bounds the number of copies in flight.
	Concurrency int

	// DryRun logs planned work without touching storage or the catalog.
	DryRun bool
}

// Outcome aggregates per-item results of one Apply run. Per-item failures never
// propagate past the item; they end up here for the operator.
type Outcome struct {
	Copied    int
	Skipped   int
	Failed    int
	DBUpdated int
	DBFailed  int

	// FailedActions lists the actions whose copy failed. These products were
	// excluded from the catalog-update pass.
	FailedActions []Action
}

// Executor applies reconciliation plans against storage and the catalog.
type Executor struct {
	store   storage.Client
	catalog CatalogUpdater
	bucket  string
	log     *zap.Logger
}

// NewExecutor creates an executor over explicit collaborators.
func NewExecutor(store storage.Client, cat CatalogUpdater, bucket string, log *zap.Logger) *Executor {
	return &Executor{store: store, catalog: cat, bucket: bucket, log: log}
}

// Apply runs the plan's promote/associate copies with bounded concurrency, then
// updates the catalog for every action whose copy succeeded (or was validly
// skipped under Resume). Sources are never deleted here; cleanup is a separate,
// operator-gated step.
func (e *Executor) Apply(ctx context.Context, plan *Plan, opts ApplyOptions) Outcome {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		outcome   Outcome
		succeeded []Action
	)
	sem := make(chan struct{}, opts.Concurrency)

	for _, action := range plan.Actions {
		if action.Type == ActionNoCandidate {
			continue
		}

		if opts.DryRun {
			e.log.Info("dry-run: would copy",
				zap.Int64("product_id", action.ProductID),
				zap.String("source", action.SourceBlob),
				zap.String("dest", action.DestBlob))
			outcome.Skipped++
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(a Action) {
			defer wg.Done()
			defer func() { <-sem }()

			copied, skipped, err := e.applyCopy(ctx, a, opts.Resume)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.log.Error("copy failed",
					zap.Int64("product_id", a.ProductID),
					zap.String("source", a.SourceBlob),
					zap.String("dest", a.DestBlob),
					zap.Error(err))
				outcome.Failed++
				outcome.FailedActions = append(outcome.FailedActions, a)
				return
			}
			if copied {
				outcome.Copied++
			}
			if skipped {
				outcome.Skipped++
			}
			succeeded = append(succeeded, a)
		}(action)
	}
	wg.Wait()

	if opts.DryRun {
		return outcome
	}

	// Catalog updates run in one pass over the successful set. A row failure is
	// logged and counted; the batch continues.
	sort.Slice(succeeded, func(i, j int) bool { return succeeded[i].ProductID < succeeded[j].ProductID })
	for _, a := range succeeded {
		if err := e.catalog.UpdateImageURL(ctx, a.ProductID, a.DestBlob); err != nil {
			e.log.Error("catalog update failed",
				zap.Int64("product_id", a.ProductID),
				zap.String("url", a.DestBlob),
				zap.Error(err))
			outcome.DBFailed++
			continue
		}
		outcome.DBUpdated++
	}

	sort.Slice(outcome.FailedActions, func(i, j int) bool {
		return outcome.FailedActions[i].ProductID < outcome.FailedActions[j].ProductID
	})

	return outcome
}

// applyCopy performs one action's storage work. Returns whether a copy actually
// happened and whether it was skipped as already done.
func (e *Executor) applyCopy(ctx context.Context, a Action, resume bool) (copied, skipped bool, err error) {
	if resume {
		exists, err := e.store.Exists(ctx, e.bucket, a.DestBlob)
		if err != nil {
			return false, false, err
		}
		if exists {
			// Prior run got this far; the catalog update below still runs so a
			// crash between copy and update heals on the next pass.
			return false, true, nil
		}
	}

	if err := e.store.Copy(ctx, e.bucket, a.SourceBlob, a.DestBlob); err != nil {
		return false, false, err
	}
	return true, false, nil
}

// CleanupOutcome aggregates results of one deletion pass.
type CleanupOutcome struct {
	Deleted int
	Failed  int
}

// ApplyCleanup deletes the given blob names (a plan's redundant or orphan list,
// reviewed by an operator). Each failure is logged and counted; the pass never
// aborts early.
func (e *Executor) ApplyCleanup(ctx context.Context, names []string, dryRun bool) CleanupOutcome {
	var outcome CleanupOutcome
	for _, name := range names {
		if dryRun {
			e.log.Info("dry-run: would delete", zap.String("blob", name))
			continue
		}
		if err := e.store.Remove(ctx, e.bucket, name); err != nil {
			e.log.Error("delete failed", zap.String("blob", name), zap.Error(err))
			outcome.Failed++
			continue
		}
		outcome.Deleted++
	}
	return outcome
}
