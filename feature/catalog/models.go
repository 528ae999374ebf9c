package catalog

import "time"

// Product mirrors the catalog's products table. Only the columns the pipeline
// touches are mapped; the web application owns the rest of the row.
type Product struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	SKU        string    `gorm:"column:sku"`
	Name       string    `gorm:"column:name"`
	ThomannURL string    `gorm:"column:thomann_url"`
	Images     *string   `gorm:"column:images;type:jsonb"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

// TableName sets the table name for the Product model.
func (Product) TableName() string {
	return "products"
}

// ImageRef is one product's association to its main image, as read by the
// reconciliation planner.
type ImageRef struct {
	// ProductID is the catalog product id.
	ProductID int64 `gorm:"column:id"`

	// ImageURL is the stored main image pointer, empty when the product has no
	// image assigned yet.
	ImageURL string `gorm:"column:image_url"`
}

// PendingProduct is a product that still lacks a main image, as consumed by the
// crawl worker pool.
type PendingProduct struct {
	ID         int64  `gorm:"column:id"`
	SKU        string `gorm:"column:sku"`
	Name       string `gorm:"column:name"`
	ThomannURL string `gorm:"column:thomann_url"`
}
