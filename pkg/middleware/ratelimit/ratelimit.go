package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/response"
)

// KeyFunc derives the bucket key for a request.
type KeyFunc func(c *gin.Context) string

// Options configures the limiter.
type Options struct {
	Enabled    bool
	RPS        float64
	Burst      int
	StaleAfter time.Duration
	Key        KeyFunc
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Store maps client keys to token buckets.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
}

// NewStore builds a limiter store.
func NewStore(rps float64, burst int, staleAfter time.Duration) *Store {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 20
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &Store{
		entries:    make(map[string]*entry),
		limit:      rate.Limit(rps),
		burst:      burst,
		staleAfter: staleAfter,
	}
}

// Allow consumes a token for key.
func (s *Store) Allow(key string, now time.Time) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	s.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops entries not seen since staleAfter.
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.staleAfter)
	removed := 0
	for k, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Middleware applies per-client token bucket limiting. Entries are pruned lazily on requests.
func Middleware(opts Options) gin.HandlerFunc {
	if !opts.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	store := NewStore(opts.RPS, opts.Burst, opts.StaleAfter)
	keyFn := opts.Key
	if keyFn == nil {
		keyFn = func(c *gin.Context) string { return "ip:" + c.ClientIP() }
	}

	var (
		cleanupMu   sync.Mutex
		lastCleanup = time.Now()
	)

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		now := time.Now()

		cleanupMu.Lock()
		if now.Sub(lastCleanup) > time.Minute {
			lastCleanup = now
			cleanupMu.Unlock()
			store.Cleanup(now)
		} else {
			cleanupMu.Unlock()
		}

		if !store.Allow(keyFn(c), now) {
			c.Header("Retry-After", "1")
			response.Error(c, appErrors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
