// Package logger provides the zap logger factory shared by the CLI commands and
// the crawl daemon. CLI runs use console encoding; the daemon defaults to JSON.
package logger
