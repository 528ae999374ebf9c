// Package database manages the PostgreSQL connection for the product catalog and
// the processing-lock table. Connection pooling, timeouts, and the startup ping
// live here so callers only ever see a ready *gorm.DB.
package database
