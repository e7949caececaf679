package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session injected by [RequireSession].
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// RequireSession returns middleware that rejects requests without a live
// session. The session id is read from the guard's configured cookie.
//
// A valid session is injected into the request context for
// [SessionFromContext]. A missing or unknown id gets 401. A session past its
// absolute lifetime also gets 401, but with the cookie cleared so the client
// stops replaying an id the server already destroyed. A store outage maps to
// 503 so clients know to retry rather than re-authenticate.
func RequireSession(guard *goSession.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if guard == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cookie, err := r.Cookie(guard.CookieName())
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := requestContext(r)
			sess, err := guard.GetSession(ctx, cookie.Value)
			if err != nil {
				switch {
				case errors.Is(err, goSession.ErrSessionExpired):
					ClearSessionCookie(w, guard.CookieName())
					http.Error(w, "session expired", http.StatusUnauthorized)
				case errors.Is(err, goSession.ErrRedisUnavailable):
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				default:
					http.Error(w, "unauthorized", http.StatusUnauthorized)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionContextKey{}, sess)))
		})
	}
}

// ClearSessionCookie overwrites the named cookie with an expired one.
// Logout handlers use it after DestroySession.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requestContext threads the caller's address and request id into the
// context so audit events raised further down carry them.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		ctx = goSession.WithClientIP(ctx, host)
	}
	if reqID := r.Header.Get("X-Request-Id"); reqID != "" {
		ctx = goSession.WithRequestID(ctx, reqID)
	}
	return ctx
}
