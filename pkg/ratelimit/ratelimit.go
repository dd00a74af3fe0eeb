package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a simple fixed-window counter keyed by client IP
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket // per-IP buckets
	max     int                // tokens per window
	per     time.Duration      // window size
}

type bucket struct {
	ts     time.Time // window start
	tokens int       // remaining tokens
}

// New creates a new IP-based limiter allowing max requests per window
func New(max int, per time.Duration) *Limiter {
	return &Limiter{buckets: map[string]*bucket{}, max: max, per: per}
}

// Middleware enforces the rate limit before calling the next handler
func (r *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, _ := net.SplitHostPort(req.RemoteAddr)

		r.mu.Lock()
		b := r.buckets[ip]
		if b == nil || time.Since(b.ts) > r.per {
			// Start a new window
			b = &bucket{ts: time.Now(), tokens: r.max}
			r.buckets[ip] = b
		}

		if b.tokens <= 0 {
			r.mu.Unlock()
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}

		b.tokens--
		r.mu.Unlock()

		next.ServeHTTP(w, req)
	})
}

// Bucket is a token bucket for per-connection message limiting
type Bucket struct {
	mu     sync.Mutex
	rate   float64 // tokens added per second
	burst  float64 // bucket capacity
	tokens float64
	last   time.Time
}

// NewBucket creates a bucket refilling at rate tokens/sec, holding up to burst
func NewBucket(rate, burst int) *Bucket {
	return &Bucket{
		rate:   float64(rate),
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
	}
}

// Allow consumes one token, reporting whether one was available
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.last).Seconds() * b.rate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
