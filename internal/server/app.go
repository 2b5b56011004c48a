// Package server initializes and runs the habitkeeper backend. It opens the
// database, applies migrations, wires the services and runs the HTTP API and
// the gRPC health endpoint until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/config"
	"github.com/dmitrijs2005/habitkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/habitkeeper/internal/server/oauth"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/habitkeeper/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	services httpapi.Services
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Config{
		Backend:     c.LogBackend,
		Level:       c.LogLevel,
		Format:      c.LogFormat,
		Output:      c.LogOutput,
		FilePath:    c.LogFilePath,
		Development: c.LogDevelopment,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	app.services = httpapi.Services{
		Sessions:   services.NewSessionService(db, m, c, logger),
		Accounts:   services.NewAccountService(db, m, c, logger),
		Onboarding: services.NewOnboardingService(db, m, logger),
		Tags:       services.NewTagService(db, m),
		Metrics:    services.NewMetricService(db, m),
		Actions:    services.NewActionService(db, m),
		Ratings:    services.NewRatingService(db, m),
		Journals:   services.NewJournalService(db, m),
		Insights:   services.NewInsightService(db, m),
	}
	if c.GoogleClientID != "" {
		app.services.OAuth = oauth.NewGoogle(oauth.Config{
			ClientID:     c.GoogleClientID,
			ClientSecret: c.GoogleClientSecret,
			RedirectURL:  c.GoogleRedirectURL,
		})
	} else {
		logger.Info(context.Background(), "Google sign-in disabled, no client id configured")
	}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// limiter returns the Redis backed login limiter, or nil for the in-memory one.
func (app *App) limiter(ctx context.Context) middleware.RateLimiterStore {
	if app.redis == nil {
		return nil
	}
	store := httpapi.NewRedisLimiterStore(app.redis, app.config.LoginRateLimit, app.config.LoginRateBurst)
	store.OnError(func(err error) {
		app.logger.Warn(ctx, "rate limiter falling back to memory", "error", err)
	})
	return store
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config, app.services, app.limiter(ctx), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
