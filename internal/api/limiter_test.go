package api

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"bookhook/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiterDisabled(t *testing.T) {
	l := newClientLimiter(config.RateLimitConfig{}, false)
	assert.Nil(t, l)
	assert.True(t, l.Allow(httptest.NewRequest("POST", "/webhook", nil)))
}

func TestClientLimiterPerClient(t *testing.T) {
	l := newClientLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1}, false)

	a := httptest.NewRequest("POST", "/webhook", nil)
	a.RemoteAddr = "10.0.0.1:1234"
	b := httptest.NewRequest("POST", "/webhook", nil)
	b.RemoteAddr = "10.0.0.2:1234"

	assert.True(t, l.Allow(a))
	assert.False(t, l.Allow(a))
	assert.True(t, l.Allow(b))
}

func TestClientLimiterIgnoresForwardedForByDefault(t *testing.T) {
	l := newClientLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1}, false)

	allowed := 0
	for i := 0; i < 100; i++ {
		r := httptest.NewRequest("POST", "/webhook", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		if l.Allow(r) {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)

	buckets := 0
	l.limiters.Range(func(_, _ any) bool { buckets++; return true })
	assert.Equal(t, 1, buckets)
}

func TestClientLimiterTrustedProxy(t *testing.T) {
	l := newClientLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 1}, true)

	a := httptest.NewRequest("POST", "/webhook", nil)
	a.RemoteAddr = "10.0.0.1:1234"
	a.Header.Set("X-Forwarded-For", "203.0.113.1")
	b := httptest.NewRequest("POST", "/webhook", nil)
	b.RemoteAddr = "10.0.0.1:1234"
	b.Header.Set("X-Forwarded-For", "203.0.113.2")

	assert.True(t, l.Allow(a))
	assert.False(t, l.Allow(a))
	assert.True(t, l.Allow(b))
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhook", nil)
	r.RemoteAddr = "192.168.1.5:5555"
	assert.Equal(t, "192.168.1.5", clientKey(r, false))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "192.168.1.5", clientKey(r, false))
	assert.Equal(t, "203.0.113.9", clientKey(r, true))

	r = httptest.NewRequest("POST", "/webhook", nil)
	r.RemoteAddr = "garbage"
	assert.Equal(t, "unknown", clientKey(r, false))
}
