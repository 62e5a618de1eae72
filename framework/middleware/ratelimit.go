package middleware

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/km-arc/armature/framework/dispatch"
)

// limiterPool keeps one token bucket per client key.
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(p.rate, p.burst)
		p.limiters[key] = l
	}
	return l
}

// rateLimit enforces a per-client token bucket. Authenticated requests
// are keyed by principal subject, anonymous ones by client address, so
// an auth middleware earlier in the chain sharpens the key.
func rateLimit(rps float64, burst int) dispatch.Middleware {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = max(int(rps), 1)
	}
	pool := &limiterPool{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}

	return func(c *dispatch.Context, next dispatch.Next) error {
		if !pool.get(clientKey(c)).Allow() {
			return dispatch.ErrTooManyRequests("")
		}
		return next()
	}
}

func clientKey(c *dispatch.Context) string {
	if p := c.Principal(); p != nil && p.Subject != "" {
		return p.Subject
	}
	return c.Request().IP()
}
