// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the image
// pipeline's operations: full listings under a prefix, existence checks, streamed
// downloads, uploads, server-side copies, and deletes. The abstraction supports
// both AWS S3 and self-hosted MinIO instances.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (as seen in core/storage/mocks).
// Per-object failures surface as errors on the individual call; callers in the
// reconcile and crawl features treat them as per-item failures, never as batch
// aborts.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	blobs, err := client.List(ctx, "product-images", "thomann/")
package storage
