package journals

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "user_id", "content", "entry_date", "sentiment", "ai_processing_status", "extracted_tags",
	"categories", "is_private", "word_count", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate_CountsWordsAndDefaultsStatus(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT\s+INTO\s+journal_entries`).
		WithArgs("u-1", "went for a long run", "2026-03-01", "pending", []byte(`[]`), true, 5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("j-1", "u-1", "went for a long run", "2026-03-01", nil, "pending", []byte(`[]`), []byte(`[]`), true, 5, now, now))

	got, err := repo.Create(context.Background(), &models.JournalEntry{
		UserID: "u-1", Content: "went for a long run", EntryDate: "2026-03-01", IsPrivate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingPending, got.AIProcessingStatus)
	assert.Equal(t, 5, got.WordCount)
	assert.Empty(t, got.Sentiment)
	assert.NotNil(t, got.ExtractedTags)
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM\s+journal_entries\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+id\s*=\s*\$2`).
		WithArgs("u-1", "j-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("j-1", "u-1", "ok", "2026-03-01", "positive", "completed", []byte(`["Exercise"]`), []byte(`["health"]`), false, 1, now, now))

	got, err := repo.Get(context.Background(), "u-1", "j-1")
	require.NoError(t, err)
	assert.Equal(t, "positive", got.Sentiment)
	assert.Equal(t, []string{"Exercise"}, got.ExtractedTags)
	assert.Equal(t, []string{"health"}, got.Categories)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+journal_entries`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "u-1", "j-x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate_RequeuesChangedContent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)UPDATE\s+journal_entries.*CASE\s+WHEN\s+content\s+<>\s+\$3\s+THEN\s+'pending'`).
		WithArgs("u-1", "j-1", "new text", "2026-03-02", []byte(`[]`), false, 2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("j-1", "u-1", "new text", "2026-03-02", nil, "pending", []byte(`[]`), []byte(`[]`), false, 2, now, now))

	got, err := repo.Update(context.Background(), &models.JournalEntry{
		ID: "j-1", UserID: "u-1", Content: "new text", EntryDate: "2026-03-02",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.WordCount)
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+journal_entries.*LIMIT\s+\$4`).
		WithArgs("u-1", "2026-03-01", "2026-03-31", 20).
		WillReturnError(errors.New("boom"))

	_, err := repo.List(context.Background(), "u-1", "2026-03-01", "2026-03-31", 20)
	assert.ErrorContains(t, err, "failed to select journal entries")
}

func TestDeleteAndCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+journal_entries`).
		WithArgs("u-1", "j-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+journal_entries`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	require.NoError(t, repo.Delete(context.Background(), "u-1", "j-1"))
	n, err := repo.Count(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGet_MalformedID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+journal_entries`).
		WithArgs("u-1", "not-a-uuid").
		WillReturnError(&pgconn.PgError{Code: "22P02"})

	_, err := repo.Get(context.Background(), "u-1", "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
