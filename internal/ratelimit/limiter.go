// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	urlutil "github.com/law-makers/scavenger/internal/utils/url"
)

// RateLimiter throttles requests per host.
type RateLimiter interface {
	// Wait blocks until a request for the given URL can proceed.
	// If the context is cancelled first, its error is returned.
	Wait(ctx context.Context, urlStr string) error

	// Allow reports whether a request for the given URL can proceed now.
	Allow(urlStr string) bool
}

// HostLimiter keeps one token bucket per host.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	perHost  rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing requestsPerSecond per host.
// A zero rate disables limiting.
func NewHostLimiter(requestsPerSecond float64, burst int) *HostLimiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  limit,
		burst:    burst,
	}
}

// Wait blocks until the host of urlStr has a token available.
func (l *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	host := urlutil.Host(urlStr)
	if host == "" {
		return nil
	}
	start := time.Now()
	if err := l.limiter(host).Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		log.Debug().Str("host", host).Dur("delay", waited).Msg("Rate limited")
	}
	return nil
}

// Allow reports whether a request can proceed immediately.
func (l *HostLimiter) Allow(urlStr string) bool {
	host := urlutil.Host(urlStr)
	if host == "" {
		return true
	}
	return l.limiter(host).Allow()
}

// SetLimit overrides the rate for one host.
func (l *HostLimiter) SetLimit(host string, requestsPerSecond float64, burst int) {
	lim := l.limiter(host)
	lim.SetLimit(rate.Limit(requestsPerSecond))
	lim.SetBurst(burst)
}

func (l *HostLimiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.perHost, l.burst)
		l.limiters[host] = lim
	}
	return lim
}
