package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
)

func testLimiter(api, webhook int, window time.Duration) *RequestLimiter {
	return NewRequestLimiter(&config.RateLimitConfig{
		APIRequests:     api,
		WebhookRequests: webhook,
		Window:          window,
	})
}

func TestLimiterAllowsUpToScopeBudget(t *testing.T) {
	l := testLimiter(3, 10, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := l.allow(scopeAPI, "1.2.3.4")
		assert.True(t, ok, "request %d", i)
	}
	ok, retryAfter := l.allow(scopeAPI, "1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestLimiterScopesAreIndependent(t *testing.T) {
	l := testLimiter(1, 2, time.Minute)

	ok, _ := l.allow(scopeAPI, "1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow(scopeAPI, "1.2.3.4")
	assert.False(t, ok)

	// The same IP still has its full webhook budget.
	ok, _ = l.allow(scopeWebhook, "1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow(scopeWebhook, "1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow(scopeWebhook, "1.2.3.4")
	assert.False(t, ok)
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := testLimiter(1, 1, time.Minute)

	ok, _ := l.allow(scopeAPI, "1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow(scopeAPI, "1.2.3.4")
	assert.False(t, ok)
	ok, _ = l.allow(scopeAPI, "5.6.7.8")
	assert.True(t, ok)
}

func TestLimiterWindowExpiry(t *testing.T) {
	l := testLimiter(1, 1, 30*time.Millisecond)

	ok, _ := l.allow(scopeAPI, "1.2.3.4")
	assert.True(t, ok)
	ok, _ = l.allow(scopeAPI, "1.2.3.4")
	assert.False(t, ok)
	time.Sleep(50 * time.Millisecond)
	ok, _ = l.allow(scopeAPI, "1.2.3.4")
	assert.True(t, ok)
}

func TestLimitMiddlewareRespondsTooManyRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := testLimiter(1, 1, time.Minute)
	r := gin.New()
	r.GET("/ping", LimitAPI(l), func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
