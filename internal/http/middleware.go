package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mrlokans/lendingdesk/internal/audit"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const contextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an ID, reusing a well-formed
// inbound X-Request-ID. The ID and client IP are attached to the request
// context so audit events can be traced back to the request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(contextKeyRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(audit.WithRequest(c.Request.Context(), audit.RequestInfo{
			ID:        id,
			IPAddress: c.ClientIP(),
		}))
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestIDMiddleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is a token bucket per client IP. Idle buckets are dropped
// after staleAfter.
type IPRateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	staleAfter time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewIPRateLimiter allows rps requests per second per IP with the given
// burst. Call Stop to end the cleanup goroutine.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &IPRateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(rps),
		burst:      burst,
		staleAfter: 3 * time.Minute,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow consumes one token from ip's bucket.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	return v.limiter.AllowN(v.lastSeen, 1)
}

// Middleware rejects requests over the limit with 429.
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

// Stop ends the cleanup goroutine. It is safe to call twice.
func (l *IPRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *IPRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.staleAfter {
			delete(l.visitors, ip)
		}
	}
}
