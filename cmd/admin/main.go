package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/habitkeeper/internal/admin"
	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"github.com/dmitrijs2005/habitkeeper/internal/server/config"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadEnvConfig()
	root := admin.NewRootCommand(cfg.DatabaseDSN, func(ctx context.Context, dsn string) (*admin.Backend, error) {
		return open(ctx, cfg, dsn)
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func open(ctx context.Context, cfg *config.Config, dsn string) (*admin.Backend, error) {
	logger, err := logging.New(logging.Config{Backend: cfg.LogBackend, Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db unreachable: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	return &admin.Backend{
		Migrate: func(ctx context.Context) error {
			return m.RunMigrations(ctx, db)
		},
		Accounts:   services.NewAccountService(db, m, cfg, logger),
		Onboarding: services.NewOnboardingService(db, m, logger),
		Close:      db.Close,
	}, nil
}
