// Package blobname implements the blob naming convention shared by the crawl and
// reconciliation pipelines: {prefix}{productID}_{YYYYMMDD_HHMMSS}.{ext}.
//
// Parse and Format are pure inverses for every valid (productID, timestamp, ext)
// triple, which is what makes the planner's grouping logic unit-testable without
// touching storage.
package blobname
