package middleware

import (
	"bytes"
	"log"
	"net/http"

	"postboard/internal/cache"
)

// pageRecorder captures the response so a successful render can be stored.
type pageRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rec *pageRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *pageRecorder) Write(b []byte) (int, error) {
	rec.body.Write(b)
	return rec.ResponseWriter.Write(b)
}

// PageCache serves GET responses from the cache, keyed by the request URL.
// Only 200 responses are stored. Entries expire on their own; writes do
// not invalidate, so a fresh post can stay invisible on a cached page
// until the TTL runs out.
func PageCache(pages cache.PageCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := r.URL.RequestURI()

			if page, found, err := pages.Get(r.Context(), key); err != nil {
				log.Printf("[PageCache] lookup failed for %s: %v", key, err)
			} else if found {
				w.Header().Set("Content-Type", page.ContentType)
				w.WriteHeader(page.Status)
				w.Write(page.Body)
				return
			}

			rec := &pageRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK {
				return
			}

			stored := &cache.CachedPage{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := pages.Set(r.Context(), key, stored); err != nil {
				log.Printf("[PageCache] store failed for %s: %v", key, err)
			}
		})
	}
}
