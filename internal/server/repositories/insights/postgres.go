package insights

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

const insightColumns = `id, user_id, tag_id, metric_id, correlation_type, correlation_strength, p_value, title, content,
	statistical_data, status, is_read, read_at, user_rating, user_feedback, priority, categories, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string, status models.InsightStatus, limit int) ([]*models.Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights
		WHERE user_id = $1 AND status = $2
		ORDER BY priority DESC, created_at DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select insights: %w", err)
	}
	defer rows.Close()

	var result []*models.Insight
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Insight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights WHERE user_id = $1 AND id = $2`
	return scanInsight(r.db.QueryRowContext(ctx, query, userID, id))
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM insights WHERE user_id = $1 AND status = 'active' AND NOT is_read`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// MarkRead keeps the first read time.
func (r *PostgresRepository) MarkRead(ctx context.Context, userID, id string) error {
	query :=
		`UPDATE insights SET is_read = TRUE, read_at = COALESCE(read_at, now()), updated_at = now()
		 WHERE user_id = $1 AND id = $2`
	return r.execOne(ctx, query, userID, id)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, userID, id string, status models.InsightStatus) error {
	query := `UPDATE insights SET status = $3, updated_at = now() WHERE user_id = $1 AND id = $2`
	return r.execOne(ctx, query, userID, id, string(status))
}

func (r *PostgresRepository) Feedback(ctx context.Context, userID, id string, rating int, feedback string) error {
	query :=
		`UPDATE insights SET user_rating = $3, user_feedback = $4, updated_at = now()
		 WHERE user_id = $1 AND id = $2`
	return r.execOne(ctx, query, userID, id, rating, feedback)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.InvalidText(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInsight(row rowScanner) (*models.Insight, error) {
	in := &models.Insight{}
	var correlationType string
	var strength decimal.Decimal
	var pValue decimal.NullDecimal
	var stats []byte
	var status string
	var readAt sql.NullTime
	var rating sql.NullInt64
	var categories []byte

	err := row.Scan(&in.ID, &in.UserID, &in.TagID, &in.MetricID, &correlationType, &strength, &pValue,
		&in.Title, &in.Content, &stats, &status, &in.IsRead, &readAt, &rating, &in.UserFeedback,
		&in.Priority, &categories, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.InvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	in.CorrelationType = models.CorrelationType(correlationType)
	in.CorrelationStrength = strength.InexactFloat64()
	if pValue.Valid {
		p := pValue.Decimal.InexactFloat64()
		in.PValue = &p
	}
	in.Status = models.InsightStatus(status)
	if readAt.Valid {
		t := readAt.Time
		in.ReadAt = &t
	}
	if rating.Valid {
		v := int(rating.Int64)
		in.UserRating = &v
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &in.StatisticalData); err != nil {
			return nil, fmt.Errorf("failed to decode statistical data: %w", err)
		}
	}
	in.Categories = []string{}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &in.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
	}
	return in, nil
}
