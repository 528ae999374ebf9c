package mocks

import (
	"context"
	"io"

	"instrument-images/core/storage"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of storage.Client
type Client struct {
	mock.Mock
}

func (m *Client) List(ctx context.Context, bucket, prefix string) ([]storage.BlobRecord, error) {
	args := m.Called(ctx, bucket, prefix)
	if recs, ok := args.Get(0).([]storage.BlobRecord); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Exists(ctx context.Context, bucket, name string) (bool, error) {
	args := m.Called(ctx, bucket, name)
	return args.Bool(0), args.Error(1)
}

func (m *Client) Get(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, name)
	if obj, ok := args.Get(0).(io.ReadCloser); ok {
		return obj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Put(ctx context.Context, bucket, name string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, bucket, name, reader, size, contentType)
	return args.Error(0)
}

func (m *Client) Copy(ctx context.Context, bucket, src, dest string) error {
	args := m.Called(ctx, bucket, src, dest)
	return args.Error(0)
}

func (m *Client) Remove(ctx context.Context, bucket, name string) error {
	args := m.Called(ctx, bucket, name)
	return args.Error(0)
}
