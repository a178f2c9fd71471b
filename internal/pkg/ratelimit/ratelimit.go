// Package ratelimit implements a per-domain token bucket that refills at
// 30 requests per minute with a burst of 30, a safety net beneath the
// orchestrators' own random-delay pacing. It is not a strict sliding
// window: a domain with a full bucket can make up to about 60 requests in
// its first minute.
package ratelimit

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// RequestsPerMinute is the default cap (spec §5).
const RequestsPerMinute = 30

// Limiter hands out a per-domain token-bucket limiter, creating one lazily
// on first use for each host.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	newLimiter func() *rate.Limiter
}

// New builds a Limiter enforcing RequestsPerMinute per distinct domain.
func New() *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		newLimiter: func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(float64(RequestsPerMinute)/60.0), RequestsPerMinute)
		},
	}
}

// Wait blocks until rawURL's domain has an available slot, or ctx is done.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain := hostOf(rawURL)
	return l.forDomain(domain).Wait(ctx)
}

func (l *Limiter) forDomain(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[domain]
	if !ok {
		lim = l.newLimiter()
		l.limiters[domain] = lim
	}
	return lim
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
