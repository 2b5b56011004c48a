package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/server/auth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
	"github.com/labstack/echo/v4"
)

const sessionContextKey = "session"

// setSessionCookie writes the signed token as an HTTP-only cookie that lives
// as long as the token.
func (s *Server) setSessionCookie(c echo.Context, sess *services.Session) {
	c.SetCookie(&http.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   s.config.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(sessionContextKey, sess.Snapshot)
}

func (s *Server) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentSession returns the snapshot injected by the session middleware.
func currentSession(c echo.Context) (auth.Snapshot, bool) {
	snap, ok := c.Get(sessionContextKey).(auth.Snapshot)
	return snap, ok
}
