// Package crawl implements the image crawl worker pool.
//
// Workers pull products that still lack an image off a queue, take the
// database-backed distributed lock for the product, re-check current state,
// fetch the image from the retailer, and upload it under the raw crawl prefix
// using the shared naming convention. A failed lock acquire means another
// replica owns the product; the item is skipped for the pass rather than
// retried, which is what keeps duplicate downloads away from the rate-limited
// external source. Worker failures never stop the pool, and the lock is
// released on every exit path.
package crawl
