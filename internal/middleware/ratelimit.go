package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"

	"smartclassroom/internal/models"
	"smartclassroom/internal/utils"
)

// RateLimiter throttles requests per client address with a token bucket.
type RateLimiter struct {
	bucket *limiter.TokenBucket
}

// NewRateLimiter allows perMinute requests per client per minute, with
// bursts of up to burst requests.
func NewRateLimiter(perMinute, burst int) (*RateLimiter, error) {
	if perMinute <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", perMinute)
	}
	if burst <= 0 {
		burst = 1
	}
	bucket, err := limiter.NewTokenBucket(
		limiter.Config{
			Rate:     int64(perMinute),
			Duration: time.Minute,
			Burst:    int64(burst),
		},
		store.NewMemoryStore(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating rate limiter: %w", err)
	}
	return &RateLimiter{bucket: bucket}, nil
}

// Allow reports whether key may make another request now.
func (l *RateLimiter) Allow(key string) bool {
	return l.bucket.Allow(key)
}

// Limit rejects requests over the limit with 429.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "60")
			utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeRateLimited, "too many requests, slow down", nil, http.StatusTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
