package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
)

// RequestLimiter tracks per-IP request timestamps over a rolling window, with
// a separate budget per scope. Webhook callbacks arrive in provider retry
// bursts and must not be throttled by (or compete with) the authenticated API
// budget, so the two scopes never share a counter.
type RequestLimiter struct {
	mu     sync.Mutex
	seen   map[string][]time.Time
	limits map[string]int
	window time.Duration
}

const (
	scopeAPI     = "api"
	scopeWebhook = "webhook"
)

func NewRequestLimiter(cfg *config.RateLimitConfig) *RequestLimiter {
	return &RequestLimiter{
		seen: make(map[string][]time.Time),
		limits: map[string]int{
			scopeAPI:     cfg.APIRequests,
			scopeWebhook: cfg.WebhookRequests,
		},
		window: cfg.Window,
	}
}

// allow records a hit for scope+ip unless the scope's budget for that IP is
// exhausted; when it is, the second return value says how long until the
// oldest hit falls out of the window.
func (l *RequestLimiter) allow(scope, ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := scope + "|" + ip
	now := time.Now()
	cutoff := now.Add(-l.window)

	hits := l.seen[key][:0]
	for _, t := range l.seen[key] {
		if t.After(cutoff) {
			hits = append(hits, t)
		}
	}
	if len(hits) >= l.limits[scope] {
		l.seen[key] = hits
		return false, hits[0].Sub(cutoff)
	}
	l.seen[key] = append(hits, now)

	// Stale keys accumulate from one-off clients; prune opportunistically
	// instead of running a background goroutine.
	if len(l.seen) > 4096 {
		for k, ts := range l.seen {
			if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
				delete(l.seen, k)
			}
		}
	}
	return true, 0
}

func limitScope(l *RequestLimiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := l.allow(scope, c.ClientIP())
		if !ok {
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// LimitAPI throttles the authenticated API surface by client IP.
func LimitAPI(l *RequestLimiter) gin.HandlerFunc {
	return limitScope(l, scopeAPI)
}

// LimitWebhooks throttles the gateway callback endpoints by client IP.
func LimitWebhooks(l *RequestLimiter) gin.HandlerFunc {
	return limitScope(l, scopeWebhook)
}
