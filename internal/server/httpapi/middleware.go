package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/access"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		HandleError:  true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogMethod:    true,
		LogURIPath:   true,
		LogRoutePath: true,
		LogRequestID: true,
		LogStatus:    true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"remote_ip", v.RemoteIP,
				"method", v.Method,
				"path", v.URIPath,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Warn(c.Request().Context(), "request", append(args, "error", v.Error)...)
				return nil
			}
			logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}

// loadSession decodes the session cookie, when present and valid, and puts
// its snapshot into the request context. Invalid and expired tokens are
// treated as no session at all.
func (s *Server) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(s.config.SessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		claims, err := s.services.Sessions.Verify(cookie.Value)
		if err != nil {
			s.logger.Debug(c.Request().Context(), "ignoring session cookie", "error", err)
			return next(c)
		}
		c.Set(sessionContextKey, claims.Snapshot)
		return next(c)
	}
}

// requireSession rejects API calls without a session with 401.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := currentSession(c); !ok {
			return apperr.Unauthenticated("Unauthorized")
		}
		return next(c)
	}
}

// endInactiveSession turns a deactivated identity into 401 and drops the
// cookie, so a token issued before deactivation stops working on first use.
func (s *Server) endInactiveSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if errors.Is(err, common.ErrorInactiveUser) {
			s.logger.Info(c.Request().Context(), "session of inactive user ended", "user_id", mustSession(c).UserID)
			s.clearSessionCookie(c)
			return apperr.Unauthenticated("Unauthorized")
		}
		return err
	}
}

// recordID answers 404 when the :id path parameter is not a UUID.
func recordID(notFound string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if uuid.Validate(c.Param("id")) != nil {
				return apperr.NotFound(notFound)
			}
			return next(c)
		}
	}
}

// guardPage runs the access router on page navigations. Anything but
// Continue becomes a redirect; the router never produces an error body.
func (s *Server) guardPage(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap, ok := currentSession(c)
		state := access.State{Authenticated: ok, OnboardingComplete: ok && snap.IsOnboardingComplete}

		outcome, location := s.router.Route(state, c.Request().URL.Path)
		if outcome == access.Continue {
			return next(c)
		}
		s.logger.Debug(c.Request().Context(), "page redirected",
			"path", c.Request().URL.Path, "outcome", outcome.String(), "location", location)
		return c.Redirect(http.StatusFound, location)
	}
}

func (s *Server) page(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"page": c.Request().URL.Path})
}
