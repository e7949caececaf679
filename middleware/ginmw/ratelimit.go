package ginmw

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	goSession "github.com/MrEthical07/goSession"
)

// KeyFunc resolves the identity a login attempt is throttled under. Return
// "" to skip limiting for that request.
type KeyFunc func(c *gin.Context) string

// LoginRateLimit returns middleware for login routes. Each request through
// it consumes one attempt for the resolved identity, before the handler
// runs, so failed and successful logins weigh the same. Over-budget
// requests get 429 with a Retry-After of the full window.
//
// A nil key falls back to the client IP. Store errors deny with 503: when
// the limiter cannot count, the attempt is not provably within budget.
func LoginRateLimit(guard *goSession.Guard, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if guard == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
			return
		}

		identity := ""
		if key != nil {
			identity = key(c)
		} else {
			identity = c.ClientIP()
		}
		if identity == "" {
			c.Next()
			return
		}

		ctx := goSession.WithClientIP(c.Request.Context(), c.ClientIP())
		ok, err := guard.AllowLogin(ctx, identity)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
			return
		}
		if !ok {
			retryAfter := int(math.Ceil(guard.LoginWindow().Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too_many_attempts"})
			return
		}

		c.Next()
	}
}
