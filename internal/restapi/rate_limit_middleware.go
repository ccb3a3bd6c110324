package restapi

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"railplanner.org/internal/app"
	"railplanner.org/internal/clock"
	"railplanner.org/internal/models"
)

const (
	anonymousKey     = "__no_key__"
	limiterIdleLimit = 10 * time.Minute
	cleanupInterval  = 5 * time.Minute
)

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// RateLimitMiddleware applies a token bucket per API key. Idle buckets are
// evicted in the background until Stop is called.
type RateLimitMiddleware struct {
	mu         sync.RWMutex
	limiters   map[string]*rateLimitClient
	limit      rate.Limit
	burst      int
	exemptKeys map[string]bool
	clock      clock.Clock

	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimitMiddleware allows requests requests per interval for each key.
// Zero blocks every request; a negative value disables limiting.
func NewRateLimitMiddleware(requests int, interval time.Duration, exemptKeys []string, c clock.Clock) *RateLimitMiddleware {
	if c == nil {
		c = clock.RealClock{}
	}

	var limit rate.Limit
	switch {
	case requests < 0:
		limit = rate.Inf
	case requests == 0:
		limit = 0
	default:
		limit = rate.Every(interval / time.Duration(requests))
	}

	exempt := make(map[string]bool)
	for _, key := range exemptKeys {
		if key = strings.TrimSpace(key); key != "" {
			exempt[key] = true
		}
	}

	rl := &RateLimitMiddleware{
		limiters:   make(map[string]*rateLimitClient),
		limit:      limit,
		burst:      requests,
		exemptKeys: exempt,
		clock:      c,
		ticker:     time.NewTicker(cleanupInterval),
		stop:       make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimitMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := app.PartnerKey(r)
			if key == "" {
				key = anonymousKey
			}
			if rl.exemptKeys[key] || rl.getLimiter(key).Allow() {
				next.ServeHTTP(w, r)
				return
			}
			rl.sendRateLimitExceeded(w)
		})
	}
}

func (rl *RateLimitMiddleware) getLimiter(key string) *rate.Limiter {
	now := rl.clock.Now().UnixNano()

	rl.mu.RLock()
	client, ok := rl.limiters[key]
	rl.mu.RUnlock()
	if ok {
		client.lastSeen.Store(now)
		return client.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if client, ok := rl.limiters[key]; ok {
		client.lastSeen.Store(now)
		return client.limiter
	}

	client = &rateLimitClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
	client.lastSeen.Store(now)
	rl.limiters[key] = client
	return client.limiter
}

func (rl *RateLimitMiddleware) retryAfter() time.Duration {
	switch rl.limit {
	case 0:
		return time.Hour
	case rate.Inf:
		return time.Second
	default:
		return time.Duration(math.Ceil(float64(time.Second) / float64(rl.limit)))
	}
}

func (rl *RateLimitMiddleware) sendRateLimitExceeded(w http.ResponseWriter) {
	retry := int(math.Ceil(rl.retryAfter().Seconds()))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.WriteHeader(http.StatusTooManyRequests)

	response := models.NewErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", rl.clock)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("failed to encode rate limit response", "error", err)
	}
}

// cleanupOnce evicts buckets idle for longer than limiterIdleLimit.
func (rl *RateLimitMiddleware) cleanupOnce() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for key, client := range rl.limiters {
		lastSeen := client.lastSeen.Load()
		if lastSeen == 0 {
			continue
		}
		if now.Sub(time.Unix(0, lastSeen)) > limiterIdleLimit {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimitMiddleware) cleanup() {
	for {
		select {
		case <-rl.ticker.C:
			rl.cleanupOnce()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
		rl.ticker.Stop()
	})
}
