// Package memory keeps every repository in process memory. It backs service
// and HTTP tests with the same contracts the PostgreSQL repositories honour:
// ids are UUIDs, lookups are scoped to the owning user and identity writes
// only match active records.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/actionlogs"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/insights"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/journals"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/metrics"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/ratings"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/tags"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
)

// Store is the shared state behind the repositories. Err, when set, fails
// the user repository and the main tag, metric, action and rating calls. The
// Fail fields break one operation each.
type Store struct {
	mu sync.Mutex

	Err                    error
	FailCompleteOnboarding error
	FailTagUpsert          error

	Users    map[string]*models.User
	Tags     map[string]*models.Tag
	Metrics  map[string]*models.Metric
	Actions  map[string]*models.ActionLog
	Ratings  map[string]*models.DailyRating
	Journals map[string]*models.JournalEntry
	Insights map[string]*models.Insight
}

func NewStore() *Store {
	return &Store{
		Users:    map[string]*models.User{},
		Tags:     map[string]*models.Tag{},
		Metrics:  map[string]*models.Metric{},
		Actions:  map[string]*models.ActionLog{},
		Ratings:  map[string]*models.DailyRating{},
		Journals: map[string]*models.JournalEntry{},
		Insights: map[string]*models.Insight{},
	}
}

// Manager satisfies repomanager.RepositoryManager. The DBTX argument is
// ignored; transactions are not modelled.
type Manager struct {
	Store         *Store
	MigrationsErr error
}

func NewManager(s *Store) *Manager {
	return &Manager{Store: s}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return m.MigrationsErr }

func (m *Manager) Users(dbx.DBTX) users.Repository           { return &userRepo{m.Store} }
func (m *Manager) Tags(dbx.DBTX) tags.Repository             { return &tagRepo{m.Store} }
func (m *Manager) Metrics(dbx.DBTX) metrics.Repository       { return &metricRepo{m.Store} }
func (m *Manager) ActionLogs(dbx.DBTX) actionlogs.Repository { return &actionRepo{m.Store} }
func (m *Manager) Ratings(dbx.DBTX) ratings.Repository       { return &ratingRepo{m.Store} }
func (m *Manager) Journals(dbx.DBTX) journals.Repository     { return &journalRepo{m.Store} }
func (m *Manager) Insights(dbx.DBTX) insights.Repository     { return &insightRepo{m.Store} }

func newID() string {
	return uuid.NewString()
}
