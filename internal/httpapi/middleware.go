package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"shopnex/internal/metrics"
)

const (
	headerRequestID = "X-Request-Id"
	ctxKeyRequestID = "request_id"
)

// RequestIDFromContext returns the id assigned by WithRequestID.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}

// WithRequestID propagates the caller's X-Request-Id or assigns a new one.
func WithRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, reqID)
		c.Header(headerRequestID, reqID)
		c.Next()
	}
}

// WithLogging writes one structured line per request.
func WithLogging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		lat := time.Since(start)
		logger.Info("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"latency_ms", float64(lat.Microseconds())/1000.0,
			"request_id", RequestIDFromContext(c),
		)
	}
}

// WithMetrics records request counts and latencies by route template.
func WithMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}

// WithCORS allows the configured origins; "*" or an empty list allows all.
func WithCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

const limiterIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	visitors map[string]*visitor
	now      func() time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		if len(l.visitors) >= 1024 {
			l.sweep(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *ipLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(l.visitors, ip)
		}
	}
}

// WithRateLimit rejects clients exceeding rps requests per second with 429.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := newIPLimiter(rps, burst)
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			WriteJSONError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
