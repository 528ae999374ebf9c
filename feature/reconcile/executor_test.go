package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"instrument-images/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// fakeCatalog records UpdateImageURL calls and simulates stored state.
type fakeCatalog struct {
	mu      sync.Mutex
	urls    map[int64]string
	failIDs map[int64]bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{urls: make(map[int64]string), failIDs: make(map[int64]bool)}
}

func (f *fakeCatalog) UpdateImageURL(ctx context.Context, productID int64, newURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIDs[productID] {
		return errors.New("connection reset")
	}
	f.urls[productID] = newURL
	return nil
}

func testPlan() *Plan {
	return &Plan{
		Actions: []Action{
			{
				Type:       ActionAssociateNewest,
				ProductID:  42,
				SourceBlob: "thomann/42_20240105_093000.jpg",
				DestBlob:   "images/42_20240105_093000.jpg",
				RedundantBlobs: []string{
					"thomann/42_20240101_100000.jpg",
				},
			},
			{
				Type:       ActionPromote,
				ProductID:  7,
				SourceBlob: "thomann/7_20240101_100000.jpg",
				DestBlob:   "images/7_20240101_100000.jpg",
			},
			{Type: ActionNoCandidate, ProductID: 3},
		},
	}
}

func TestApply(t *testing.T) {
	t.Run("CopiesAndUpdatesCatalog", func(t *testing.T) {
		store := new(mocks.Client)
		cat := newFakeCatalog()
		exec := NewExecutor(store, cat, "test-bucket", zap.NewNop())

		store.On("Copy", mock.Anything, "test-bucket", "thomann/42_20240105_093000.jpg", "images/42_20240105_093000.jpg").Return(nil)
		store.On("Copy", mock.Anything, "test-bucket", "thomann/7_20240101_100000.jpg", "images/7_20240101_100000.jpg").Return(nil)

		outcome := exec.Apply(context.Background(), testPlan(), ApplyOptions{Concurrency: 2})

		assert.Equal(t, 2, outcome.Copied)
		assert.Equal(t, 0, outcome.Failed)
		assert.Equal(t, 2, outcome.DBUpdated)
		assert.Equal(t, "images/42_20240105_093000.jpg", cat.urls[42])
		assert.Equal(t, "images/7_20240101_100000.jpg", cat.urls[7])
		// NoCandidate leaves no trace.
		_, touched := cat.urls[3]
		assert.False(t, touched)
		store.AssertExpectations(t)
	})

	t.Run("FailedCopyExcludedFromCatalogUpdates", func(t *testing.T) {
		store := new(mocks.Client)
		cat := newFakeCatalog()
		exec := NewExecutor(store, cat, "test-bucket", zap.NewNop())

		store.On("Copy", mock.Anything, "test-bucket", "thomann/42_20240105_093000.jpg", "images/42_20240105_093000.jpg").
			Return(errors.New("network timeout"))
		store.On("Copy", mock.Anything, "test-bucket", "thomann/7_20240101_100000.jpg", "images/7_20240101_100000.jpg").Return(nil)

		outcome := exec.Apply(context.Background(), testPlan(), ApplyOptions{Concurrency: 2})

		assert.Equal(t, 1, outcome.Copied)
		assert.Equal(t, 1, outcome.Failed)
		assert.Equal(t, 1, outcome.DBUpdated)
		// Product 42 must not be marked fixed.
		_, touched := cat.urls[42]
		assert.False(t, touched)
		assert.Len(t, outcome.FailedActions, 1)
		assert.Equal(t, int64(42), outcome.FailedActions[0].ProductID)
	})

	t.Run("ResumeSkipsExistingDestinations", func(t *testing.T) {
		store := new(mocks.Client)
		cat := newFakeCatalog()
		exec := NewExecutor(store, cat, "test-bucket", zap.NewNop())

		store.On("Exists", mock.Anything, "test-bucket", "images/42_20240105_093000.jpg").Return(true, nil)
		store.On("Exists", mock.Anything, "test-bucket", "images/7_20240101_100000.jpg").Return(false, nil)
		store.On("Copy", mock.Anything, "test-bucket", "thomann/7_20240101_100000.jpg", "images/7_20240101_100000.jpg").Return(nil)

		outcome := exec.Apply(context.Background(), testPlan(), ApplyOptions{Resume: true, Concurrency: 2})

		assert.Equal(t, 1, outcome.Copied)
		assert.Equal(t, 1, outcome.Skipped)
		// The skipped destination still gets its catalog update.
		assert.Equal(t, 2, outcome.DBUpdated)
		assert.Equal(t, "images/42_20240105_093000.jpg", cat.urls[42])
	})

	t.Run("ResumeIdempotence", func(t *testing.T) {
		// Second resumed run performs zero copies and lands on the same state.
		store := new(mocks.Client)
		cat := newFakeCatalog()
		exec := NewExecutor(store, cat, "test-bucket", zap.NewNop())

		store.On("Exists", mock.Anything, "test-bucket", mock.Anything).Return(true, nil)

		outcome := exec.Apply(context.Background(), testPlan(), ApplyOptions{Resume: true, Concurrency: 2})
		first := map[int64]string{42: cat.urls[42], 7: cat.urls[7]}

		outcome2 := exec.Apply(context.Background(), testPlan(), ApplyOptions{Resume: true, Concurrency: 2})

		assert.Equal(t, 0, outcome.Copied)
		assert.Equal(t, 0, outcome2.Copied)
		assert.Equal(t, 2, outcome2.Skipped)
		assert.Equal(t, first[42], cat.urls[42])
		assert.Equal(t, first[7], cat.urls[7])
		store.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("DryRunTouchesNothing", func(t *testing.T) {
		store := new(mocks.Client)
		cat := newFakeCatalog()
		exec := NewExecutor(store, cat, "test-bucket", zap.NewNop())

		outcome := exec.Apply(context.Background(), testPlan(), ApplyOptions{DryRun: true, Concurrency: 2})

		assert.Equal(t, 0, outcome.Copied)
		assert.Equal(t, 2, outcome.Skipped)
		assert.Equal(t, 0, outcome.DBUpdated)
		assert.Empty(t, cat.urls)
		store.AssertNotCalled(t, "Copy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CatalogRowFailureDoesNotBlockOthers", func(t *testing.T) {
		store := new(mocks.Client)
		cat := newFakeCatalog()
		cat.failIDs[7] = true
		exec := NewExecutor(store, cat, "test-bucket", zap.NewNop())

		store.On("Copy", mock.Anything, "test-bucket", mock.Anything, mock.Anything).Return(nil)

		outcome := exec.Apply(context.Background(), testPlan(), ApplyOptions{Concurrency: 1})

		assert.Equal(t, 1, outcome.DBFailed)
		assert.Equal(t, 1, outcome.DBUpdated)
		assert.Equal(t, "images/42_20240105_093000.jpg", cat.urls[42])
	})
}

func TestApplyCleanup(t *testing.T) {
	t.Run("DeletesEachName", func(t *testing.T) {
		store := new(mocks.Client)
		exec := NewExecutor(store, newFakeCatalog(), "test-bucket", zap.NewNop())

		store.On("Remove", mock.Anything, "test-bucket", "thomann/old1.jpg").Return(nil)
		store.On("Remove", mock.Anything, "test-bucket", "thomann/old2.jpg").Return(errors.New("forbidden"))
		store.On("Remove", mock.Anything, "test-bucket", "thomann/old3.jpg").Return(nil)

		outcome := exec.ApplyCleanup(context.Background(), []string{
			"thomann/old1.jpg", "thomann/old2.jpg", "thomann/old3.jpg",
		}, false)

		// One failure never aborts the rest.
		assert.Equal(t, 2, outcome.Deleted)
		assert.Equal(t, 1, outcome.Failed)
		store.AssertExpectations(t)
	})

	t.Run("DryRun", func(t *testing.T) {
		store := new(mocks.Client)
		exec := NewExecutor(store, newFakeCatalog(), "test-bucket", zap.NewNop())

		outcome := exec.ApplyCleanup(context.Background(), []string{"thomann/old1.jpg"}, true)

		assert.Equal(t, 0, outcome.Deleted)
		store.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
	})
}
