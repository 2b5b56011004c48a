package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/actionlogs"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/insights"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/journals"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/metrics"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/ratings"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/tags"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tags(db dbx.DBTX) tags.Repository
	Metrics(db dbx.DBTX) metrics.Repository
	ActionLogs(db dbx.DBTX) actionlogs.Repository
	Ratings(db dbx.DBTX) ratings.Repository
	Journals(db dbx.DBTX) journals.Repository
	Insights(db dbx.DBTX) insights.Repository
}
