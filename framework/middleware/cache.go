package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/km-arc/armature/framework/dispatch"
)

// cachedResponse is one stored reply.
type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// cache replays recent responses for identical GET requests. Entries are
// keyed on method, path and query, stored only for 2xx replies, and
// expire after ttl. Other methods pass through untouched.
func (b *Builder) cache(ttl time.Duration) dispatch.Middleware {
	if ttl <= 0 {
		ttl = b.cacheTTL
	}
	store := expirable.NewLRU[string, cachedResponse](b.cacheSize, nil, ttl)

	return func(c *dispatch.Context, next dispatch.Next) error {
		if c.Method() != http.MethodGet {
			return next()
		}

		key := c.Method() + " " + c.Path()
		if q := c.Raw().URL.RawQuery; q != "" {
			key += "?" + q
		}

		if hit, ok := store.Get(key); ok {
			return c.Blob(hit.status, hit.contentType, hit.body)
		}

		buf := new(bytes.Buffer)
		c.TeeBody(buf)
		if err := next(); err != nil {
			return err
		}

		if status := c.Status(); c.Wrote() && status >= 200 && status < 300 {
			store.Add(key, cachedResponse{
				status:      status,
				contentType: c.Response().Raw().Header().Get("Content-Type"),
				body:        buf.Bytes(),
			})
		}
		return nil
	}
}
