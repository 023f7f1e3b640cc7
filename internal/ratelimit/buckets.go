package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// idle buckets are swept at most this often.
const sweepInterval = time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Buckets keeps one token bucket per key (usually the client IP).
type Buckets struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	clock   Clock

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewBuckets allows burst requests at once and then one every interval per key.
func NewBuckets(interval time.Duration, burst int) *Buckets {
	return &Buckets{
		limit:   rate.Every(interval),
		burst:   burst,
		idleTTL: 30 * time.Minute,
		clock:   realClock{},
		buckets: make(map[string]*bucket),
	}
}

// Reserve takes a token for key. When none is available it returns the wait
// until the next one without consuming it.
func (b *Buckets) Reserve(key string) Result {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	bk := b.buckets[key]
	if bk == nil {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.buckets[key] = bk
	}
	bk.lastSeen = now
	if now.Sub(b.lastSweep) >= sweepInterval {
		b.evictIdle(now)
		b.lastSweep = now
	}

	r := bk.limiter.ReserveN(now, 1)
	if !r.OK() {
		return deny("rate_limited", time.Duration(math.MaxInt64))
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return deny("rate_limited", wait)
	}
	return allow()
}

func (b *Buckets) evictIdle(now time.Time) {
	for key, bk := range b.buckets {
		if now.Sub(bk.lastSeen) > b.idleTTL {
			delete(b.buckets, key)
		}
	}
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (b *Buckets) Middleware(trustProxy bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r, trustProxy)
		result := b.Reserve(ip)
		if !result.Allowed {
			log.Ctx(r.Context()).Warn().
				Str("event", "rate_limit_exceeded").
				Str("ip", ip).
				Str("path", r.URL.Path).
				Msg("Request throttled")
			w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds(result.RetryAfter)))
			http.Error(w, "Too many requests, slow down", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RetryAfterSeconds rounds up to whole seconds, at least one.
func RetryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
