// Package server holds configuration for the crawl daemon's internal HTTP
// surface (health and status endpoints). There is no public API.
package server
