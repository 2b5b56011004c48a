package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	oauthSessionName = "habitkeeper_oauth"
	oauthStateTTL    = 10 * time.Minute
	oauthErrorCode   = "OAuthSignin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login is the password path of the session issuer. Every credential problem
// yields the same 401 so callers cannot tell which accounts exist.
func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperr.Validation("Email and password are required", nil)
	}

	sess, err := s.services.Sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return apperr.Unauthenticated("Invalid email or password")
		}
		return err
	}

	s.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, map[string]any{"user": sess.Snapshot})
}

func (s *Server) register(c echo.Context) error {
	var req services.RegisterInput
	if err := bind(c, &req); err != nil {
		return err
	}

	u, err := s.services.Accounts.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    newUserView(u),
	})
}

// refreshSession re-issues the cookie from the identity record.
func (s *Server) refreshSession(c echo.Context) error {
	prev, _ := currentSession(c)

	sess, err := s.services.Sessions.Refresh(c.Request().Context(), prev)
	if err != nil {
		return err
	}

	s.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, map[string]any{"user": sess.Snapshot})
}

func (s *Server) logout(c echo.Context) error {
	s.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) googleLogin(c echo.Context) error {
	if s.services.OAuth == nil {
		return apperr.NotFound("Google sign-in is not configured")
	}

	sess, err := session.Get(oauthSessionName, c)
	if sess == nil {
		return err
	}
	if err != nil {
		// a cookie signed with an old secret; start over with a new one
		s.logger.Debug(c.Request().Context(), "discarding oauth session", "error", err)
	}
	state := uuid.NewString()
	sess.Values["state"] = state
	sess.Values["next"] = safeCallback(c.QueryParam("callbackUrl"))
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, s.services.OAuth.AuthCodeURL(state))
}

// googleCallback finishes the OAuth path. Any failure sends the browser back
// to the login page with a generic error code; the cause is only logged.
func (s *Server) googleCallback(c echo.Context) error {
	ctx := c.Request().Context()
	if s.services.OAuth == nil {
		return apperr.NotFound("Google sign-in is not configured")
	}

	fail := func(reason string, err error) error {
		s.logger.Warn(ctx, "oauth sign-in failed", "reason", reason, "error", err)
		return c.Redirect(http.StatusFound, s.config.LoginPath+"?error="+oauthErrorCode)
	}

	sess, err := session.Get(oauthSessionName, c)
	if err != nil {
		return fail("state cookie", err)
	}
	want, _ := sess.Values["state"].(string)
	next, _ := sess.Values["next"].(string)

	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		s.logger.Warn(ctx, "oauth state not cleared", "error", err)
	}

	if msg := c.QueryParam("error"); msg != "" {
		return fail("provider error", errors.New(msg))
	}
	if want == "" || c.QueryParam("state") != want {
		return fail("state mismatch", nil)
	}

	id, err := s.services.OAuth.Identify(ctx, c.QueryParam("code"))
	if err != nil {
		return fail("identify", err)
	}

	issued, err := s.services.Sessions.LoginOAuth(ctx, id)
	if err != nil {
		return fail("issue", err)
	}

	s.setSessionCookie(c, issued)
	if next == "" {
		next = s.config.AppPath
	}
	return c.Redirect(http.StatusFound, next)
}

// safeCallback keeps only same-site absolute paths.
func safeCallback(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return raw
}
