// Package config provides configuration management for the image pipeline.
//
// It utilizes Viper for loading configuration from environment variables with a
// godotenv overlay for local development.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: status HTTP server settings for the crawl daemon
//   - Database: PostgreSQL catalog connection details
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Crawl: worker pool sizing, lock TTL, fetch timeouts
//   - Pipeline: source/clean prefixes and reconciliation defaults
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Bucket)
package config
