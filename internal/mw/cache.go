package mw

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status  int
	headers http.Header
	body    []byte
}

type bodyCacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyCacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyCacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// generation counts successful writes. A GET only stores its response if
// no write completed while it was being served.
type generation struct {
	mu sync.Mutex
	n  uint64
}

func (g *generation) current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Cache is a middleware for in-memory caching of GET responses. A
// successful request with any other method flushes every cached entry, and
// a GET that overlapped such a write is not cached.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	gen := &generation{}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			if isSuccess(c.Writer.Status()) {
				gen.mu.Lock()
				gen.n++
				store.Flush()
				gen.mu.Unlock()
			}
			return
		}

		key := c.Request.RequestURI
		if resp, found := store.Get(key); found {
			cached := resp.(cachedResponse)
			for k, v := range cached.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(cached.status)
			c.Writer.Write(cached.body) //nolint:errcheck
			c.Abort()
			return
		}

		started := gen.current()
		blw := &bodyCacheWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// Only cache successful responses
		if isSuccess(blw.Status()) {
			response := cachedResponse{
				status: blw.Status(),
				// Make a copy of the header map.
				headers: blw.Header().Clone(),
				body:    bytes.Clone(blw.body.Bytes()),
			}
			gen.mu.Lock()
			if gen.n == started {
				store.Set(key, response, duration)
			}
			gen.mu.Unlock()
		}
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
