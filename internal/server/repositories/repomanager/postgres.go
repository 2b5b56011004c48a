// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/actionlogs"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/insights"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/journals"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/metrics"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/ratings"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/tags"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Metrics(db dbx.DBTX) metrics.Repository {
	return metrics.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) ActionLogs(db dbx.DBTX) actionlogs.Repository {
	return actionlogs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Ratings(db dbx.DBTX) ratings.Repository {
	return ratings.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Journals(db dbx.DBTX) journals.Repository {
	return journals.NewPostgresRepository(db)
}

// Insights returns the read side of the insights table.
func (m *PostgresRepositoryManager) Insights(db dbx.DBTX) insights.Repository {
	return insights.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
