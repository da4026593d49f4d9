package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yanqian/papersearch/internal/infra/config"
)

const defaultBudget = "*"

type budget struct {
	limit rate.Limit
	burst int
}

func newBudget(perMinute, burst int) budget {
	return budget{limit: rate.Limit(float64(perMinute) / 60), burst: burst}
}

type clientKey struct {
	budget string
	ip     string
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per (budget, client IP). Routes without their own
// budget share the default one.
type rateLimiter struct {
	mu      sync.Mutex
	budgets map[string]budget
	clients map[clientKey]*client
	idleTTL time.Duration
	now     func() time.Time
	logger  *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// newRateLimiter returns nil when limiting is disabled.
func newRateLimiter(cfg config.RateLimitConfig, logger *slog.Logger) *rateLimiter {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return nil
	}
	budgets := map[string]budget{defaultBudget: newBudget(cfg.RequestsPerMinute, cfg.Burst)}
	for route, b := range cfg.Routes {
		budgets[route] = newBudget(b.RequestsPerMinute, b.Burst)
	}
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &rateLimiter{
		budgets: budgets,
		clients: make(map[clientKey]*client),
		idleTTL: idle,
		now:     time.Now,
		logger:  logger.With("component", "http.ratelimit"),
		done:    make(chan struct{}),
	}
}

// middleware rejects requests over budget with 429 and a Retry-After hint in seconds.
func (l *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		ok, wait := l.reserve(c.FullPath(), ip)
		if ok {
			c.Next()
			return
		}
		l.logger.Warn("rate limit exceeded", "ip", ip, "route", c.FullPath(), "retry_after_ms", wait.Milliseconds())
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(wait)))
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

// reserve takes a token for ip on the budget serving route. When none is available it
// reports how long until one is.
func (l *rateLimiter) reserve(route, ip string) (bool, time.Duration) {
	name := route
	b, ok := l.budgets[name]
	if !ok {
		name = defaultBudget
		b = l.budgets[name]
	}

	now := l.now()
	l.mu.Lock()
	key := clientKey{budget: name, ip: ip}
	cl, ok := l.clients[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(b.limit, b.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()

	r := cl.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// evictIdle drops clients unseen for idleTTL, once per idleTTL, until stop is called.
func (l *rateLimiter) evictIdle() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			if n := l.sweep(l.now()); n > 0 {
				l.logger.Debug("evicted idle clients", "count", n)
			}
		}
	}
}

func (l *rateLimiter) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	for key, cl := range l.clients {
		if now.Sub(cl.lastSeen) > l.idleTTL {
			delete(l.clients, key)
			evicted++
		}
	}
	return evicted
}

func (l *rateLimiter) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func retryAfterSeconds(wait time.Duration) int {
	return max(1, int(math.Ceil(wait.Seconds())))
}
