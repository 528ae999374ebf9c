package crawl

import "time"

// Config holds configuration for the image crawl worker pool.
type Config struct {
	// Concurrency is the number of workers pulling products off the queue.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// LockTTLSeconds is how long a product lock lives before another replica
	// may take it over. This is the safety net for crashed workers.
	LockTTLSeconds int `mapstructure:"lock_ttl_seconds" default:"300"`
	// FetchTimeoutSeconds bounds each external image download.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds" default:"20"`
	// UserAgent identifies the crawler to the external source.
	UserAgent string `mapstructure:"user_agent" default:"instrument-images-crawler/1.0"`
	// PollIntervalSeconds is the daemon's catalog polling interval.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" default:"60"`
	// BatchLimit caps how many pending products one pass picks up.
	BatchLimit int `mapstructure:"batch_limit" default:"100"`
}

// LockTTL returns the lock time-to-live as a duration.
func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// FetchTimeout returns the per-download timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// PollInterval returns the daemon polling interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
