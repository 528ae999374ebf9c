package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"instrument-images/feature/catalog"
)

// maxImageBytes caps a single download; anything larger is not a product image.
const maxImageBytes = 20 << 20

// Image is one fetched product image ready for upload.
type Image struct {
	Data        []byte
	Ext         string
	ContentType string
}

// ImageSource fetches product image bytes from the external retailer.
type ImageSource interface {
	FetchImage(ctx context.Context, p catalog.PendingProduct) (Image, error)
}

// HTTPImageSource downloads images over plain HTTP from the product's stored
// retailer link.
type HTTPImageSource struct {
	client    *http.Client
	userAgent string
}

// NewHTTPImageSource creates a source with an explicit per-request timeout.
func NewHTTPImageSource(timeout time.Duration, userAgent string) *HTTPImageSource {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPImageSource{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// FetchImage downloads the product's image. A timeout or non-2xx response is a
// per-product failure for the pool, never fatal to the pass.
func (s *HTTPImageSource) FetchImage(ctx context.Context, p catalog.PendingProduct) (Image, error) {
	if p.ThomannURL == "" {
		return Image{}, fmt.Errorf("product %d has no source url", p.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ThomannURL, nil)
	if err != nil {
		return Image{}, fmt.Errorf("failed to build request for product %d: %w", p.ID, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("failed to fetch image for product %d: %w", p.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("unexpected status %d fetching image for product %d", resp.StatusCode, p.ID)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image for product %d: %w", p.ID, err)
	}
	if len(data) > maxImageBytes {
		return Image{}, fmt.Errorf("image for product %d exceeds %d bytes", p.ID, maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	ext := extFromContentType(contentType)
	if ext == "" {
		ext = extFromURL(p.ThomannURL)
	}
	if ext == "" {
		ext = "jpg"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return Image{Data: data, Ext: ext, ContentType: contentType}, nil
}

func extFromContentType(ct string) string {
	switch strings.TrimSpace(strings.Split(ct, ";")[0]) {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return ""
	}
}

func extFromURL(raw string) string {
	ext := strings.TrimPrefix(path.Ext(raw), ".")
	// Strip query noise like "7.jpg?quality=80".
	if i := strings.IndexByte(ext, '?'); i >= 0 {
		ext = ext[:i]
	}
	switch strings.ToLower(ext) {
	case "jpg", "jpeg":
		return "jpg"
	case "png", "webp", "gif":
		return strings.ToLower(ext)
	default:
		return ""
	}
}
