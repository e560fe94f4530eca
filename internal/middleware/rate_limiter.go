package middleware

import (
	"net/http"
	"sync"
	"time"

	"nexogym/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ── Per-IP token buckets ──────────────────────────────────────────────────────

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*ipLimiter
	rps     rate.Limit
	burst   int
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		clients: make(map[string]*ipLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Allow consumes one token for ip.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.clients[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()
	return entry.limiter.Allow()
}

// Purge drops buckets idle for longer than idle and returns how many.
func (l *IPRateLimiter) Purge(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	purged := 0
	for ip, entry := range l.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
			purged++
		}
	}
	return purged
}

// Middleware answers 429 once the caller's bucket is empty.
func (l *IPRateLimiter) Middleware(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(apierror.CodeRateLimited, msg))
			return
		}
		c.Next()
	}
}

// RateLimiter is the general API limiter.
func RateLimiter(l *IPRateLimiter) gin.HandlerFunc {
	return l.Middleware("Demasiadas solicitudes. Intente nuevamente en un momento.")
}

// LoginRateLimiter wraps a limiter built by NewLoginLimiter.
func LoginRateLimiter(l *IPRateLimiter) gin.HandlerFunc {
	return l.Middleware("Demasiados intentos de login. Intente en 1 minuto.")
}

// NewLoginLimiter allows 20 login attempts per minute per IP.
func NewLoginLimiter() *IPRateLimiter {
	return NewIPRateLimiter(20.0/60.0, 20)
}

// ── Purge goroutine ───────────────────────────────────────────────────────────

const purgeInterval = 5 * time.Minute

// StartPurge removes idle buckets every five minutes until stop is closed.
func StartPurge(stop <-chan struct{}, limiters ...*IPRateLimiter) {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for _, l := range limiters {
					if n := l.Purge(purgeInterval); n > 0 {
						log.Debug().Int("entries_purged", n).Msg("rate limiter purged")
					}
				}
			}
		}
	}()
}
