package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitIdleTimeout     = 10 * time.Minute
)

// RateLimiter implements a token bucket rate limiter per client IP address.
type RateLimiter struct {
	mu         sync.RWMutex
	limiters   map[string]*bucket
	rate       int // tokens per second
	burst      int
	trustProxy bool

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a rate limiter allowing rate requests per second
// with bursts of up to burst. Proxy headers are only honored when trustProxy
// is set. Call Stop to release the cleanup goroutine.
func NewRateLimiter(rate, burst int, trustProxy bool) *RateLimiter {
	if burst < rate {
		burst = rate
	}
	rl := &RateLimiter{
		limiters:   make(map[string]*bucket),
		rate:       rate,
		burst:      burst,
		trustProxy: trustProxy,
		stop:       make(chan struct{}),
	}

	go rl.cleanupInactiveLimiters()

	return rl
}

// Allow reports whether a request from ip may proceed and consumes a token
// if so.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.RLock()
	b, exists := rl.limiters[ip]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		// Another request may have created it in the meantime.
		if b, exists = rl.limiters[ip]; !exists {
			b = &bucket{tokens: float64(rl.burst), lastUpdate: time.Now()}
			rl.limiters[ip] = b
		}
		rl.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastUpdate).Seconds() * float64(rl.rate)
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupInactiveLimiters() {
	ticker := time.NewTicker(rateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.evictIdle(now)
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.limiters {
		b.mu.Lock()
		if now.Sub(b.lastUpdate) > rateLimitIdleTimeout {
			delete(rl.limiters, ip)
		}
		b.mu.Unlock()
	}
}

// Middleware rejects requests over the limit with 429. A nil limiter
// passes everything through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r, rl.trustProxy)) {
			w.Header().Set("Retry-After", "1")
			writeMessage(w, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address. X-Forwarded-For and X-Real-IP are
// only trusted behind a known proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
