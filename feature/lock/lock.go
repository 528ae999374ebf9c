package lock

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ProcessingLock is one row of the processing_locks mutual-exclusion table.
// At most one non-expired row exists per product at any time; a row past
// ExpiresAt may be taken over by another owner.
type ProcessingLock struct {
	ProductID int64     `gorm:"primaryKey;column:product_id"`
	OwnerID   string    `gorm:"column:owner_id"`
	LockedAt  time.Time `gorm:"column:locked_at"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
}

// TableName sets the table name for the ProcessingLock model.
func (ProcessingLock) TableName() string {
	return "processing_locks"
}

// Locker is a table-backed mutual-exclusion primitive keyed by product id.
// It is the only mutation-ordering primitive for per-product state; no
// in-process lock is trusted across replicas.
type Locker struct {
	db      *gorm.DB
	ownerID string
}

// NewLocker creates a locker for one worker/replica identity.
func NewLocker(db *gorm.DB, ownerID string) *Locker {
	return &Locker{db: db, ownerID: ownerID}
}

// OwnerID returns the identity this locker acquires locks under.
func (l *Locker) OwnerID() string {
	return l.ownerID
}

// Migrate creates the processing_locks table if it does not exist.
func (l *Locker) Migrate() error {
	return l.db.AutoMigrate(&ProcessingLock{})
}

// TryAcquire attempts to take the lock for a product. It inserts a fresh row,
// and on conflict attempts a conditional takeover of an expired lock. Returns
// true only if the insert or the takeover affected a row. A false return is the
// expected "being handled elsewhere" outcome, not an error.
func (l *Locker) TryAcquire(ctx context.Context, productID int64, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()

	res := l.db.WithContext(ctx).Exec(`
		INSERT INTO processing_locks (product_id, owner_id, locked_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (product_id) DO NOTHING`,
		productID, l.ownerID, now, now.Add(ttl))
	if res.Error != nil {
		return false, fmt.Errorf("failed to acquire lock for product %d: %w", productID, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Row exists. Steal it only if expired; the WHERE guard means two stealers
	// cannot both see an affected row.
	res = l.db.WithContext(ctx).Exec(`
		UPDATE processing_locks
		SET owner_id = ?, locked_at = ?, expires_at = ?
		WHERE product_id = ? AND expires_at < ?`,
		l.ownerID, now, now.Add(ttl), productID, now)
	if res.Error != nil {
		return false, fmt.Errorf("failed to take over lock for product %d: %w", productID, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Release drops the lock for a product, but only if this locker still owns it.
// After an expiry takeover the delete matches no row, which keeps the new
// owner's lock intact.
func (l *Locker) Release(ctx context.Context, productID int64) error {
	res := l.db.WithContext(ctx).Exec(`
		DELETE FROM processing_locks WHERE product_id = ? AND owner_id = ?`,
		productID, l.ownerID)
	if res.Error != nil {
		return fmt.Errorf("failed to release lock for product %d: %w", productID, res.Error)
	}
	return nil
}

// CleanupExpired bulk-deletes rows past expiry. Run opportunistically at worker
// pool startup.
func (l *Locker) CleanupExpired(ctx context.Context) (int64, error) {
	res := l.db.WithContext(ctx).Exec(`
		DELETE FROM processing_locks WHERE expires_at < ?`, time.Now().UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired locks: %w", res.Error)
	}
	return res.RowsAffected, nil
}
