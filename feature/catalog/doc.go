// Package catalog reads and writes the product catalog's image associations.
//
// The catalog owns the currentImageUrl pointer (stored at images.main.url in the
// products jsonb column). Blob deletion is never treated as authoritative over
// catalog state; the executor always updates the catalog explicitly as part of
// the same logical action.
package catalog
