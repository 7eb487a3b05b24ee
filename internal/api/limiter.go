package api

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"bookhook/internal/config"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per caller address.
type clientLimiter struct {
	limiters   sync.Map // map[string]*rate.Limiter
	cfg        config.RateLimitConfig
	trustProxy bool
}

// newClientLimiter returns nil when rate limiting is disabled. X-Forwarded-For is
// only used as the key when trustProxy is set.
func newClientLimiter(cfg config.RateLimitConfig, trustProxy bool) *clientLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	return &clientLimiter{cfg: cfg, trustProxy: trustProxy}
}

func (l *clientLimiter) Allow(r *http.Request) bool {
	if l == nil {
		return true
	}
	return l.getLimiter(clientKey(r, l.trustProxy)).Allow()
}

func (l *clientLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

// clientKey is the peer host. With trustProxy the first X-Forwarded-For hop wins;
// that header is caller-controlled, so it is only honoured behind a known proxy.
func clientKey(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}
