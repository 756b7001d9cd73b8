package hook

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateRule is a token bucket: a sustained rate in deliveries per second and
// the burst allowed on top of it.
type RateRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Rate  float64 // deliveries per second
	Burst int     // max burst
	// Routes replaces Rate and Burst for individual routes. Deliveries to an
	// overridden route draw from buckets of their own.
	Routes          RouteOverrides[RateRule]
	KeyFunc         func(r *http.Request) string                 // default: KeyByRoute
	OnLimit         func(w http.ResponseWriter, r *http.Request) // default: empty 429 response
	CleanupInterval time.Duration                                // how often to prune idle buckets (default: 1m)
	MaxIdle         time.Duration                                // remove buckets idle longer than this (default: 5m)
}

// KeyByRoute gives every route its own budget, whoever sends to it, so a
// flood on one trigger leaves the others alone. Requests that match no route
// are keyed by sender instead.
func KeyByRoute(r *http.Request) string {
	if rt, ok := MatchedRoute(r); ok {
		return "route:" + routeKey(rt.Pattern)
	}
	return "remote:" + KeyByRemoteAddr(r)
}

// KeyByRemoteAddr keys deliveries by the sender's host.
func KeyByRemoteAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit returns middleware that applies per-key rate limiting in front of
// the dispatcher. Webhook senders retry on 429, so a limited delivery is not
// lost, only deferred. Retry-After tells the sender how long one token takes
// to refill under the rule that limited it.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByRoute
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = 5 * time.Minute
	}

	l := &rateLimiter{
		cfg:     cfg,
		routes:  cfg.Routes.folded(),
		buckets: make(map[string]*bucket),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := l.bucketFor(r)
			if !b.limiter.Allow() {
				if b.rule.Rate > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(1, math.Ceil(1/b.rule.Rate)))))
				}
				l.cfg.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type rateLimiter struct {
	cfg    RateLimitConfig
	routes map[string]RateRule

	mu          sync.Mutex
	buckets     map[string]*bucket
	lastCleanup time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	rule     RateRule
	lastSeen time.Time
}

// bucketFor returns the bucket the delivery draws from, creating it on first
// use. Overridden routes are scoped apart from the default rule.
func (l *rateLimiter) bucketFor(r *http.Request) *bucket {
	rule := RateRule{Rate: l.cfg.Rate, Burst: l.cfg.Burst}
	key := l.cfg.KeyFunc(r)
	if scope, override, ok := overrideFor(l.routes, r); ok {
		rule = override
		key = scope + "\x00" + key
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastCleanup) >= l.cfg.CleanupInterval {
		l.prune(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(rule.Rate), rule.Burst), rule: rule}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// prune drops idle buckets. Callers hold mu.
func (l *rateLimiter) prune(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.MaxIdle {
			delete(l.buckets, k)
		}
	}
	l.lastCleanup = now
}
