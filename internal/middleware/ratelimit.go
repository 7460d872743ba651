package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP. Only the most recent
// clients are remembered.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   *lru.Cache[string, *rate.Limiter]
	limit      rate.Limit
	burst      int
	retryAfter string // seconds until the next token
}

func NewRateLimiter(limit rate.Limit, burst, maxClients int) *RateLimiter {
	cache, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		panic(err)
	}
	retryAfter := 60
	if limit > 0 && !math.IsInf(float64(limit), 1) {
		// rounded to whole milliseconds first so rate.Every(49*time.Second) gives 49, not 50
		millis := math.Round(1000 / float64(limit))
		retryAfter = int(math.Max(1, math.Ceil(millis/1000)))
	}
	return &RateLimiter{limiters: cache, limit: limit, burst: burst, retryAfter: strconv.Itoa(retryAfter)}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters.Add(key, l)
	return l
}

// Allow reports whether key may make another request now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Middleware answers 429 once a client IP runs out of tokens. API and JSON
// clients get a JSON body, browsers the error page.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", rl.retryAfter)
			if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.Contains(c.GetHeader("Accept"), "application/json") {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"status": "error",
					"error":  "Too many requests",
				})
				return
			}
			c.HTML(http.StatusTooManyRequests, "error.html", gin.H{
				"Error":       "Too many attempts, please try again in " + rl.retryAfter + " seconds.",
				"Code":        http.StatusTooManyRequests,
				"CurrentPath": c.Request.URL.Path,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
