package blobname

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the fixed-width capture timestamp embedded in blob names.
const TimestampLayout = "20060102_150405"

// namePattern matches the canonical convention: {productID}_{YYYYMMDD}_{HHMMSS}.{ext}
// The prefix is stripped before matching, so the pattern only covers the basename.
var namePattern = regexp.MustCompile(`^(\d+)_(\d{8}_\d{6})\.([A-Za-z0-9]+)$`)

// Parsed holds the identity extracted from a conforming blob name.
type Parsed struct {
	// ProductID is the catalog product the blob belongs to.
	ProductID int64

	// CapturedAt is the capture timestamp embedded in the name (UTC).
	CapturedAt time.Time

	// Ext is the file extension without the leading dot.
	Ext string
}

// Parse extracts the product id and capture timestamp from a blob name under the
// given prefix. It returns ok=false for names outside the prefix, names that do not
// follow the convention, or names with an invalid embedded timestamp. Callers treat
// non-parsing blobs as orphan candidates.
func Parse(name, prefix string) (Parsed, bool) {
	if !strings.HasPrefix(name, prefix) {
		return Parsed{}, false
	}
	base := strings.TrimPrefix(name, prefix)

	m := namePattern.FindStringSubmatch(base)
	if m == nil {
		return Parsed{}, false
	}

	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Parsed{}, false
	}

	capturedAt, err := time.Parse(TimestampLayout, m[2])
	if err != nil {
		// Matches the shape but encodes an impossible date (e.g. month 13).
		return Parsed{}, false
	}

	return Parsed{
		ProductID:  id,
		CapturedAt: capturedAt.UTC(),
		Ext:        m[3],
	}, true
}

// Format builds the canonical blob name for a product capture. A zero capturedAt
// means "now", which is what the crawl path uses for fresh downloads.
func Format(prefix string, productID int64, capturedAt time.Time, ext string) string {
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s%d_%s.%s", prefix, productID, capturedAt.UTC().Format(TimestampLayout), ext)
}
