package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/anytimesk/stock-ml-front-end/internal/utils"
)

// idleLimiterTTL is how long an unused client limiter is kept.
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client
type RateLimiter struct {
	limit     rate.Limit
	burstSize int
	clients   map[string]*clientLimiter
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	if burstSize < 1 {
		burstSize = 1
	}
	return &RateLimiter{
		limit:     rate.Limit(float64(requestsPerMinute) / 60.0),
		burstSize: burstSize,
		clients:   make(map[string]*clientLimiter),
		now:       time.Now,
	}
}

// Allow checks if a request is allowed based on rate limits
func (r *RateLimiter) Allow(clientIP string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > idleLimiterTTL {
		for ip, cl := range r.clients {
			if now.Sub(cl.lastSeen) > idleLimiterTTL {
				delete(r.clients, ip)
			}
		}
		r.lastSweep = now
	}

	cl, exists := r.clients[clientIP]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burstSize)}
		r.clients[clientIP] = cl
	}
	cl.lastSeen = now

	return cl.limiter.AllowN(now, 1)
}

// Clients returns the number of tracked clients.
func (r *RateLimiter) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// RateLimit creates middleware limiting POST requests per client. When
// ipHeader is set and present on the request it identifies the client.
func RateLimit(limiter *RateLimiter, ipHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if ipHeader != "" {
			if v := c.GetHeader(ipHeader); v != "" {
				clientIP = v
			}
		}

		if !limiter.Allow(clientIP) {
			utils.SendErrorResponse(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}
