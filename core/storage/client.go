package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobRecord is one object in the store as seen by the pipeline.
type BlobRecord struct {
	// Name is the full object path, e.g. "thomann/1234_20250101_120000.jpg".
	Name string
	// SizeBytes is the object size reported by the store.
	SizeBytes int64
	// LastModified is the store-side modification timestamp.
	LastModified time.Time
}

// Client defines the interface for storage operations.
type Client interface {
	// List enumerates every object under a prefix. The listing is complete;
	// pagination is handled by the underlying SDK.
	List(ctx context.Context, bucket, prefix string) ([]BlobRecord, error)
	// Exists checks whether an object is present.
	Exists(ctx context.Context, bucket, name string) (bool, error)
	// Get downloads an object as a stream.
	Get(ctx context.Context, bucket, name string) (io.ReadCloser, error)
	// Put uploads an object, overwriting any existing one.
	Put(ctx context.Context, bucket, name string, reader io.Reader, size int64, contentType string) error
	// Copy copies src to dest server-side, overwriting dest if present.
	Copy(ctx context.Context, bucket, src, dest string) error
	// Remove deletes an object.
	Remove(ctx context.Context, bucket, name string) error
}

// NewClient creates a new Minio client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Strict transport timeouts so a stalled store never hangs a batch.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &minioClientWrapper{client: minioClient}, nil
}

type minioClientWrapper struct {
	client *minio.Client
}

func (c *minioClientWrapper) List(ctx context.Context, bucket, prefix string) ([]BlobRecord, error) {
	var records []BlobRecord

	for obj := range c.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, obj.Err)
		}
		records = append(records, BlobRecord{
			Name:         obj.Key,
			SizeBytes:    obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return records, nil
}

func (c *minioClientWrapper) Exists(ctx context.Context, bucket, name string) (bool, error) {
	_, err := c.client.StatObject(ctx, bucket, name, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %q: %w", name, err)
	}
	return true, nil
}

func (c *minioClientWrapper) Get(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	return c.client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
}

func (c *minioClientWrapper) Put(ctx context.Context, bucket, name string, reader io.Reader, size int64, contentType string) error {
	_, err := c.client.PutObject(ctx, bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put %q: %w", name, err)
	}
	return nil
}

func (c *minioClientWrapper) Copy(ctx context.Context, bucket, src, dest string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: bucket, Object: dest},
		minio.CopySrcOptions{Bucket: bucket, Object: src},
	)
	if err != nil {
		return fmt.Errorf("failed to copy %q to %q: %w", src, dest, err)
	}
	return nil
}

func (c *minioClientWrapper) Remove(ctx context.Context, bucket, name string) error {
	if err := c.client.RemoveObject(ctx, bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %q: %w", name, err)
	}
	return nil
}
