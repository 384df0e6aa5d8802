package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ayamekni/AfriOffres/internal/metrics"
	"github.com/ayamekni/AfriOffres/internal/security"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	uidKey          = "uid"
	emailKey        = "email"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func AccessLog(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", ClientIP(c)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			lg.Error("http request", fields...)
			return
		}
		lg.Info("http request", fields...)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.InFlight.Inc()
		start := time.Now()
		defer metrics.InFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// CORS allows the listed origins; "*" or an empty list allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// AuthJWT requires a valid bearer token and stores the user id (as an
// ObjectID) and email on the context.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
			errorJSON(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := security.ParseAccess(secret, strings.TrimSpace(h[7:]))
		if err != nil {
			errorJSON(c, http.StatusUnauthorized, "invalid token")
			return
		}
		uid, err := primitive.ObjectIDFromHex(claims.UID)
		if err != nil {
			errorJSON(c, http.StatusUnauthorized, "invalid token subject")
			return
		}
		c.Set(uidKey, uid)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(ip); err == nil && host != "" {
		return host
	}
	return ip
}

// Limiter decides whether another hit on key fits in the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type bucket struct {
	hits    int
	started time.Time
}

// MemoryLimiter is a per-process fixed-window limiter, used when Redis is
// not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*bucket), now: time.Now}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.started) >= window {
		rl.buckets[key] = &bucket{hits: 1, started: now}
		rl.sweep(now, window)
		return true, nil
	}
	if b.hits < limit {
		b.hits++
		return true, nil
	}
	return false, nil
}

// sweep drops expired buckets once the map grows.
func (rl *MemoryLimiter) sweep(now time.Time, window time.Duration) {
	if len(rl.buckets) < 4096 {
		return
	}
	for k, b := range rl.buckets {
		if now.Sub(b.started) >= window {
			delete(rl.buckets, k)
		}
	}
}

// RateLimit caps requests per client IP and route at perMin per minute.
// perMin <= 0 disables it. Limiter errors let the request through.
func RateLimit(l Limiter, perMin int, lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || perMin <= 0 {
			c.Next()
			return
		}
		key := c.FullPath() + ":" + ClientIP(c)
		ok, err := l.Allow(c.Request.Context(), key, perMin, time.Minute)
		if err != nil {
			lg.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()
			errorJSON(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
