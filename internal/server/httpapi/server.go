// Package httpapi is the JSON/HTTP surface of habitkeeper: auth and user
// endpoints, the domain record API under /api and page navigation guarded
// by the access router.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/access"
	"github.com/dmitrijs2005/habitkeeper/internal/server/config"
	"github.com/dmitrijs2005/habitkeeper/internal/server/validate"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	e        *echo.Echo
	address  string
	config   *config.Config
	services Services
	router   *access.Router
	limiter  middleware.RateLimiterStore
	logger   logging.Logger
}

// NewServer wires middleware and routes. limiter may be nil, in which case an
// in-memory store sized from the config is used.
func NewServer(cfg *config.Config, svc Services, limiter middleware.RateLimiterStore, logger logging.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		e:        e,
		address:  cfg.EndpointAddrHTTP,
		config:   cfg,
		services: svc,
		router: &access.Router{
			Routes: access.RouteTable{
				Auth:       cfg.AuthRoutes,
				Onboarding: cfg.OnboardingRoutes,
				Protected:  cfg.ProtectedRoutes,
			},
			Targets: access.Targets{
				Login:      cfg.LoginPath,
				Onboarding: cfg.OnboardingPath,
				App:        cfg.AppPath,
			},
		},
		limiter: limiter,
		logger:  logger.With("module", "http_server"),
	}
	if s.limiter == nil {
		s.limiter = NewMemoryLimiterStore(cfg.LoginRateLimit, cfg.LoginRateBurst)
	}

	e.Validator = &echoValidator{v: validate.New()}
	e.HTTPErrorHandler = errorHandler(s.logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(s.logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	store := sessions.NewCookieStore([]byte(cfg.OAuthStateSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	e.Use(s.loadSession)

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.e

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	limited := s.rateLimit()
	a := e.Group("/auth")
	a.POST("/login", s.login, limited)
	a.POST("/register", s.register, limited)
	a.POST("/session", s.refreshSession, s.requireSession, s.endInactiveSession)
	a.POST("/logout", s.logout)
	a.GET("/google/login", s.googleLogin)
	a.GET("/google/callback", s.googleCallback)

	u := e.Group("/user", s.requireSession, s.endInactiveSession)
	u.GET("/onboarding-status", s.onboardingStatus)
	u.POST("/onboarding", s.completeOnboarding)
	u.PUT("/onboarding", s.updateOnboarding)
	u.POST("/preferences", s.savePreferences)
	u.GET("/profile", s.getProfile)
	u.PUT("/profile", s.updateProfile)
	u.DELETE("/profile", s.deleteProfile)
	u.POST("/change-password", s.changePassword)
	u.POST("/avatar", s.uploadAvatar)

	api := e.Group("/api", s.requireSession)
	api.GET("/tags", s.listTags)
	api.POST("/tags", s.createTag)
	api.PUT("/tags/:id", s.updateTag, recordID("Tag not found"))
	api.DELETE("/tags/:id", s.deleteTag, recordID("Tag not found"))

	api.GET("/metrics", s.listMetrics)
	api.POST("/metrics", s.createMetric)
	api.PUT("/metrics/:id", s.updateMetric, recordID("Metric not found"))
	api.DELETE("/metrics/:id", s.deleteMetric, recordID("Metric not found"))

	api.POST("/actions", s.logAction)
	api.GET("/actions", s.listActions)
	api.GET("/actions/daily-counts", s.dailyActionCounts)
	api.DELETE("/actions/:id", s.deleteAction, recordID("Action not found"))

	api.GET("/ratings", s.listRatings)
	api.GET("/ratings/averages", s.ratingAverages)
	api.PUT("/ratings/:date", s.saveRating)

	api.GET("/journal", s.listJournal)
	api.POST("/journal", s.createJournal)
	api.GET("/journal/:id", s.getJournal, recordID("Journal entry not found"))
	api.PUT("/journal/:id", s.updateJournal, recordID("Journal entry not found"))
	api.DELETE("/journal/:id", s.deleteJournal, recordID("Journal entry not found"))

	api.GET("/insights", s.listInsights)
	api.GET("/insights/unread-count", s.unreadInsights)
	api.POST("/insights/:id/read", s.markInsightRead, recordID("Insight not found"))
	api.POST("/insights/:id/dismiss", s.dismissInsight, recordID("Insight not found"))
	api.POST("/insights/:id/feedback", s.insightFeedback, recordID("Insight not found"))

	e.GET("/*", s.page, s.guardPage)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := s.e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.e.Shutdown(shutdownCtx)
}
