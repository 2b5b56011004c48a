package journals

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

const entryColumns = `id, user_id, content, entry_date::text, sentiment, ai_processing_status, extracted_tags,
	categories, is_private, word_count, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	categories, err := marshalList(e.Categories)
	if err != nil {
		return nil, err
	}

	status := e.AIProcessingStatus
	if status == "" {
		status = models.ProcessingPending
	}

	query :=
		`INSERT INTO journal_entries (user_id, content, entry_date, ai_processing_status, categories, is_private, word_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING ` + entryColumns
	return scanEntry(r.db.QueryRowContext(ctx, query,
		e.UserID, e.Content, e.EntryDate, string(status), categories, e.IsPrivate, models.WordCount(e.Content)))
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE user_id = $1 AND id = $2`
	return scanEntry(r.db.QueryRowContext(ctx, query, userID, id))
}

// Update rewrites the user-editable fields. Changed content is queued for
// analysis again.
func (r *PostgresRepository) Update(ctx context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	categories, err := marshalList(e.Categories)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE journal_entries
		 SET ai_processing_status = CASE WHEN content <> $3 THEN 'pending' ELSE ai_processing_status END,
		     content = $3, entry_date = $4, categories = $5, is_private = $6, word_count = $7, updated_at = now()
		 WHERE user_id = $1 AND id = $2
		 RETURNING ` + entryColumns
	return scanEntry(r.db.QueryRowContext(ctx, query,
		e.UserID, e.ID, e.Content, e.EntryDate, categories, e.IsPrivate, models.WordCount(e.Content)))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if dbx.InvalidText(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID, from, to string, limit int) ([]*models.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries
		WHERE user_id = $1 AND entry_date BETWEEN $2 AND $3
		ORDER BY entry_date DESC, created_at DESC
		LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select journal entries: %w", err)
	}
	defer rows.Close()

	var result []*models.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.JournalEntry, error) {
	e := &models.JournalEntry{}
	var sentiment sql.NullString
	var status string
	var tags []byte
	var categories []byte

	err := row.Scan(&e.ID, &e.UserID, &e.Content, &e.EntryDate, &sentiment, &status, &tags,
		&categories, &e.IsPrivate, &e.WordCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.InvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	e.Sentiment = sentiment.String
	e.AIProcessingStatus = models.ProcessingStatus(status)
	if e.ExtractedTags, err = unmarshalList(tags); err != nil {
		return nil, err
	}
	if e.Categories, err = unmarshalList(categories); err != nil {
		return nil, err
	}
	return e, nil
}

func marshalList(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode list: %w", err)
	}
	return b, nil
}

func unmarshalList(b []byte) ([]string, error) {
	out := []string{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return out, nil
}
