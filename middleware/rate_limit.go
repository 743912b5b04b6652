package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/winterarc/config"
	"github.com/cppla/winterarc/utils"
)

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// limiterSet holds one token bucket per client key.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
}

func newLimiterSet(perMinute int) *limiterSet {
	perMinute = maxInt(perMinute, 1)
	return &limiterSet{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    maxInt(perMinute/2, 1),
	}
}

// RateLimitMiddleware applies an IP based token bucket sized by RateLimitPerMinute.
func RateLimitMiddleware() gin.HandlerFunc {
	set := newLimiterSet(config.Get().RateLimitPerMinute)
	return func(ctx *gin.Context) {
		if !set.allow("ip:" + ctx.ClientIP()) {
			utils.Abort(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}

// UserRateLimit limits an authenticated user's requests per minute. It must run after AuthRequired.
func UserRateLimit(perMinute int) gin.HandlerFunc {
	set := newLimiterSet(perMinute)
	return func(ctx *gin.Context) {
		key := "ip:" + ctx.ClientIP()
		if uid, ok := CurrentUserID(ctx); ok {
			key = "user:" + strconv.FormatUint(uint64(uid), 10)
		}
		if !set.allow(key) {
			utils.Abort(ctx, http.StatusTooManyRequests, 42902, "too many progress updates")
			return
		}
		ctx.Next()
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, l := range s.limiters {
		if now.After(l.expires) {
			delete(s.limiters, k)
		}
	}

	l, ok := s.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = l
	}
	l.expires = now.Add(5 * time.Minute)
	return l.limiter.Allow()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
