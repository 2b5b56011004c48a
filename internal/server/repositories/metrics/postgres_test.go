package metrics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "user_id", "name", "description", "min_value", "max_value", "scale_labels",
	"color", "sort_order", "is_active", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestGet_DecodesScaleLabels(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM\s+metrics\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+id\s*=\s*\$2`).
		WithArgs("u-1", "m-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m-1", "u-1", "Mood", "", 1, 5, []byte(`{"1":"Awful","5":"Great"}`), "#10B981", 0, true, now, now))

	got, err := repo.Get(context.Background(), "u-1", "m-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "Awful", "5": "Great"}, got.ScaleLabels)
	assert.Equal(t, 5, got.MaxValue)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+metrics`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u-1", "m-x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate_EncodesEmptyLabels(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT\s+INTO\s+metrics`).
		WithArgs("u-1", "Focus", "", 0, 10, []byte(`{}`), "#10B981", 2, true).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m-2", "u-1", "Focus", "", 0, 10, []byte(`{}`), "#10B981", 2, true, now, now))

	got, err := repo.Create(context.Background(), &models.Metric{
		UserID: "u-1", Name: "Focus", MinValue: 0, MaxValue: 10, Color: "#10B981", SortOrder: 2, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "m-2", got.ID)
	assert.Empty(t, got.ScaleLabels)
}

func TestUpsert_UsesDefaultScale(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+metrics.*ON\s+CONFLICT\s+\(user_id,\s*name\)`).
		WithArgs("u-1", "Mood", 1, 5, models.DefaultMetricColor, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m-1", "u-1", "Mood", "", 1, 5, []byte(`{}`), "#10B981", 0, true, now, now))

	got, err := repo.Upsert(context.Background(), "u-1", "Mood", 0)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+metrics`).
		WithArgs("u-1", "m-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1", "m-1"), common.ErrorNotFound)
}

func TestCountActive(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+metrics`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountActive(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
