package assets

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ServeHTTP answers from the cache, falling back to the origin. An origin
// failure gets a 502; there is no offline page.
func (c *Cache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		if a, ok := c.storage.match(c.version, key); ok {
			write(w, r, a, "hit")
			return
		}
	}

	a, err := c.origin.Fetch(r.Context(), key)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		c.log.Warn("network request failed and no cache match", zap.String("path", key), zap.Error(err))
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	write(w, r, a, "miss")
}

func write(w http.ResponseWriter, r *http.Request, a Asset, cacheStatus string) {
	if a.ContentType != "" {
		w.Header().Set("Content-Type", a.ContentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Body)))
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(a.Body)
	}
}
