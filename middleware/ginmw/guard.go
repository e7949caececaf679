package ginmw

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

const sessionKey = "gosession.session"

// SessionFromContext returns the session injected by [RequireSession].
func SessionFromContext(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// RequireSession is the gin flavor of middleware.RequireSession. Same status
// mapping, JSON bodies, and the session lands in the gin context under
// [SessionFromContext].
func RequireSession(guard *goSession.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if guard == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, err := c.Cookie(guard.CookieName())
		if err != nil || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := goSession.WithClientIP(c.Request.Context(), c.ClientIP())
		sess, err := guard.GetSession(ctx, id)
		if err != nil {
			switch {
			case errors.Is(err, goSession.ErrSessionExpired):
				clearSessionCookie(c, guard.CookieName())
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
			case errors.Is(err, goSession.ErrRedisUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			}
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func clearSessionCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", false, true)
}
