package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

// Client is the catalog boundary for the image pipeline. All database side
// effects on product rows are confined here; the planner never talks to the
// database directly.
type Client struct {
	db *gorm.DB
}

// NewClient creates a catalog client over an established connection.
func NewClient(db *gorm.DB) *Client {
	return &Client{db: db}
}

// FetchAll returns the id and current main-image pointer for every product.
// Used once per planning run.
func (c *Client) FetchAll(ctx context.Context) ([]ImageRef, error) {
	var refs []ImageRef
	err := c.db.WithContext(ctx).
		Raw(`SELECT id, COALESCE(images #>> '{main,url}', '') AS image_url FROM products ORDER BY id`).
		Scan(&refs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog snapshot: %w", err)
	}
	return refs, nil
}

// FetchPending returns products that still lack a main image, with the retailer
// link the crawl path needs. An empty ids slice means "any product"; limit <= 0
// means no limit.
func (c *Client) FetchPending(ctx context.Context, ids []int64, limit int) ([]PendingProduct, error) {
	q := c.db.WithContext(ctx).
		Table("products").
		Select("id, sku, name, thomann_url").
		Where("images IS NULL OR images #>> '{main,url}' IS NULL").
		Order("id")

	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []PendingProduct
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch pending products: %w", err)
	}
	return rows, nil
}

// HasImage re-reads a single product's image pointer. The crawl worker calls
// this after acquiring the lock so the decision is based on current state, not
// the snapshot the work queue was built from.
func (c *Client) HasImage(ctx context.Context, productID int64) (bool, error) {
	var url sql.NullString
	err := c.db.WithContext(ctx).
		Raw(`SELECT images #>> '{main,url}' FROM products WHERE id = ?`, productID).
		Scan(&url).Error
	if err != nil {
		return false, fmt.Errorf("failed to check image for product %d: %w", productID, err)
	}
	return url.Valid && url.String != "", nil
}

// UpdateImageURL points a product's main image at newURL. The nested jsonb_set
// handles rows where images is NULL or has no "main" object yet. Re-applying the
// same URL is a no-op on the stored value, so the call is idempotent.
func (c *Client) UpdateImageURL(ctx context.Context, productID int64, newURL string) error {
	res := c.db.WithContext(ctx).Exec(`
		UPDATE products
		SET images = jsonb_set(
			jsonb_set(COALESCE(images, '{}'::jsonb), '{main}', COALESCE(images -> 'main', '{}'::jsonb), true),
			'{main,url}', to_jsonb(?::text), true),
		    updated_at = NOW()
		WHERE id = ?`, newURL, productID)
	if res.Error != nil {
		return fmt.Errorf("failed to update image url for product %d: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %d not found", productID)
	}
	return nil
}
