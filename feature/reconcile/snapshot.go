package reconcile

import (
	"context"

	"instrument-images/core/storage"
	"instrument-images/feature/catalog"

	"golang.org/x/sync/errgroup"
)

// CatalogReader is the catalog surface the planner's snapshot needs.
type CatalogReader interface {
	FetchAll(ctx context.Context) ([]catalog.ImageRef, error)
}

// Snapshot is the planner's complete input: the full source-prefix blob listing
// and the full catalog image state, captured close together in time.
type Snapshot struct {
	// Blobs is every object under the source prefix.
	Blobs []storage.BlobRecord

	// Catalog is every product's current image pointer.
	Catalog []catalog.ImageRef
}

// BuildSnapshot loads the blob listing and the catalog scan concurrently.
// This is the only I/O on the planning path; Plan itself is pure.
func BuildSnapshot(ctx context.Context, store storage.Client, cat CatalogReader, bucket, sourcePrefix string) (*Snapshot, error) {
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		blobs, err := store.List(gctx, bucket, sourcePrefix)
		if err != nil {
			return err
		}
		snap.Blobs = blobs
		return nil
	})

	g.Go(func() error {
		refs, err := cat.FetchAll(gctx)
		if err != nil {
			return err
		}
		snap.Catalog = refs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return snap, nil
}
