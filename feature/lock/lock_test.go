package lock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestTryAcquire(t *testing.T) {
	t.Run("FreshLock", func(t *testing.T) {
		db, mock := setupMockDB(t)
		locker := NewLocker(db, "worker-a")

		mock.ExpectExec(`INSERT INTO processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := locker.TryAcquire(context.Background(), 42, 5*time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("HeldByOther", func(t *testing.T) {
		db, mock := setupMockDB(t)
		locker := NewLocker(db, "worker-b")

		// Insert conflicts, and the conditional takeover finds no expired row.
		mock.ExpectExec(`INSERT INTO processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := locker.TryAcquire(context.Background(), 42, 5*time.Minute)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ExpiredTakeover", func(t *testing.T) {
		db, mock := setupMockDB(t)
		locker := NewLocker(db, "worker-b")

		mock.ExpectExec(`INSERT INTO processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := locker.TryAcquire(context.Background(), 42, 5*time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MutualExclusion", func(t *testing.T) {
		// Two owners racing for the same unheld product: the database admits one
		// insert, the loser's insert conflicts and its takeover is rejected.
		dbA, mockA := setupMockDB(t)
		dbB, mockB := setupMockDB(t)
		lockerA := NewLocker(dbA, "worker-a")
		lockerB := NewLocker(dbB, "worker-b")

		mockA.ExpectExec(`INSERT INTO processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockB.ExpectExec(`INSERT INTO processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mockB.ExpectExec(`UPDATE processing_locks`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		okA, errA := lockerA.TryAcquire(context.Background(), 7, time.Minute)
		okB, errB := lockerB.TryAcquire(context.Background(), 7, time.Minute)
		assert.NoError(t, errA)
		assert.NoError(t, errB)
		assert.True(t, okA)
		assert.False(t, okB)
	})
}

func TestRelease(t *testing.T) {
	db, mock := setupMockDB(t)
	locker := NewLocker(db, "worker-a")

	mock.ExpectExec(`DELETE FROM processing_locks WHERE product_id = \$1 AND owner_id = \$2`).
		WithArgs(int64(42), "worker-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := locker.Release(context.Background(), 42)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseAfterTakeoverIsNoOp(t *testing.T) {
	db, mock := setupMockDB(t)
	locker := NewLocker(db, "worker-a")

	// Another owner took the lock over; the owner-guarded delete matches nothing
	// and must not report an error.
	mock.ExpectExec(`DELETE FROM processing_locks WHERE product_id = \$1 AND owner_id = \$2`).
		WithArgs(int64(42), "worker-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := locker.Release(context.Background(), 42)
	assert.NoError(t, err)
}

func TestCleanupExpired(t *testing.T) {
	db, mock := setupMockDB(t)
	locker := NewLocker(db, "worker-a")

	mock.ExpectExec(`DELETE FROM processing_locks WHERE expires_at < \$1`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := locker.CleanupExpired(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
