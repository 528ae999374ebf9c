package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"instrument-images/feature/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPImageSource(t *testing.T) {
	t.Run("FetchesImage", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		}))
		defer srv.Close()

		source := NewHTTPImageSource(5*time.Second, "test-crawler/1.0")
		img, err := source.FetchImage(context.Background(), catalog.PendingProduct{
			ID:         7,
			ThomannURL: srv.URL + "/p/7",
		})

		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), img.Data)
		assert.Equal(t, "png", img.Ext)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, "test-crawler/1.0", gotUA)
	})

	t.Run("ExtFromURLWhenNoContentType", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("data"))
		}))
		defer srv.Close()

		source := NewHTTPImageSource(5*time.Second, "test-crawler/1.0")
		img, err := source.FetchImage(context.Background(), catalog.PendingProduct{
			ID:         7,
			ThomannURL: srv.URL + "/p/7.jpeg",
		})

		require.NoError(t, err)
		assert.Equal(t, "jpg", img.Ext)
	})

	t.Run("NonOKStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		source := NewHTTPImageSource(5*time.Second, "test-crawler/1.0")
		_, err := source.FetchImage(context.Background(), catalog.PendingProduct{
			ID:         7,
			ThomannURL: srv.URL,
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("MissingURL", func(t *testing.T) {
		source := NewHTTPImageSource(5*time.Second, "test-crawler/1.0")
		_, err := source.FetchImage(context.Background(), catalog.PendingProduct{ID: 7})
		assert.Error(t, err)
	})
}

func TestExtHelpers(t *testing.T) {
	assert.Equal(t, "jpg", extFromContentType("image/jpeg"))
	assert.Equal(t, "jpg", extFromContentType("image/jpeg; charset=binary"))
	assert.Equal(t, "webp", extFromContentType("image/webp"))
	assert.Equal(t, "", extFromContentType("text/html"))

	assert.Equal(t, "jpg", extFromURL("https://x.example/a/7.JPG"))
	assert.Equal(t, "png", extFromURL("https://x.example/a/7.png?quality=80"))
	assert.Equal(t, "", extFromURL("https://x.example/a/7"))
}
