package blobname_test

import (
	"testing"
	"time"

	"instrument-images/core/blobname"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("CanonicalName", func(t *testing.T) {
		p, ok := blobname.Parse("thomann/1234_20250101_120000.jpg", "thomann/")
		assert.True(t, ok)
		assert.Equal(t, int64(1234), p.ProductID)
		assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), p.CapturedAt)
		assert.Equal(t, "jpg", p.Ext)
	})

	t.Run("WrongPrefix", func(t *testing.T) {
		_, ok := blobname.Parse("images/1234_20250101_120000.jpg", "thomann/")
		assert.False(t, ok)
	})

	t.Run("NonConformingNames", func(t *testing.T) {
		cases := []string{
			"thomann/legacy-image.jpg",
			"thomann/1234.jpg",
			"thomann/1234_20250101.jpg",
			"thomann/abc_20250101_120000.jpg",
			"thomann/1234_20250101_120000",
			"thomann/",
		}
		for _, name := range cases {
			_, ok := blobname.Parse(name, "thomann/")
			assert.False(t, ok, "expected %q to not parse", name)
		}
	})

	t.Run("InvalidTimestamp", func(t *testing.T) {
		// Right shape, impossible date.
		_, ok := blobname.Parse("thomann/1234_20251301_120000.jpg", "thomann/")
		assert.False(t, ok)

		_, ok = blobname.Parse("thomann/1234_20250101_250000.jpg", "thomann/")
		assert.False(t, ok)
	})

	t.Run("NestedPathAfterPrefix", func(t *testing.T) {
		// Extra path segments under the prefix are not part of the convention.
		_, ok := blobname.Parse("thomann/sub/1234_20250101_120000.jpg", "thomann/")
		assert.False(t, ok)
	})
}

func TestFormat(t *testing.T) {
	t.Run("Explicit", func(t *testing.T) {
		ts := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
		name := blobname.Format("images/", 42, ts, "jpg")
		assert.Equal(t, "images/42_20240105_093000.jpg", name)
	})

	t.Run("DotPrefixedExt", func(t *testing.T) {
		ts := time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
		name := blobname.Format("images/", 42, ts, ".png")
		assert.Equal(t, "images/42_20240105_093000.png", name)
	})

	t.Run("ZeroTimeDefaultsToNow", func(t *testing.T) {
		before := time.Now().UTC().Truncate(time.Second)
		name := blobname.Format("thomann/", 7, time.Time{}, "jpg")
		p, ok := blobname.Parse(name, "thomann/")
		assert.True(t, ok)
		assert.False(t, p.CapturedAt.Before(before))
	})
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		id  int64
		ts  time.Time
		ext string
	}{
		{1, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC), "jpg"},
		{999999, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), "png"},
		{42, time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC), "webp"},
	}

	for _, tc := range cases {
		name := blobname.Format("thomann/", tc.id, tc.ts, tc.ext)
		p, ok := blobname.Parse(name, "thomann/")
		assert.True(t, ok)
		assert.Equal(t, tc.id, p.ProductID)
		assert.Equal(t, tc.ts, p.CapturedAt)
		assert.Equal(t, tc.ext, p.Ext)
	}
}
