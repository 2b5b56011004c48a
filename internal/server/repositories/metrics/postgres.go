package metrics

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

const metricColumns = `id, user_id, name, description, min_value, max_value, scale_labels, color, sort_order, is_active, created_at, updated_at`

const (
	defaultMinValue = 1
	defaultMaxValue = 5
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string, includeInactive bool) ([]*models.Metric, error) {
	query := `SELECT ` + metricColumns + ` FROM metrics
		WHERE user_id = $1 AND (is_active OR $2)
		ORDER BY sort_order, name`

	rows, err := r.db.QueryContext(ctx, query, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to select metrics: %w", err)
	}
	defer rows.Close()

	var result []*models.Metric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Metric, error) {
	query := `SELECT ` + metricColumns + ` FROM metrics WHERE user_id = $1 AND id = $2`
	return scanMetric(r.db.QueryRowContext(ctx, query, userID, id))
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Metric) (*models.Metric, error) {
	labels, err := marshalLabels(m.ScaleLabels)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO metrics (user_id, name, description, min_value, max_value, scale_labels, color, sort_order, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING ` + metricColumns
	return scanMetric(r.db.QueryRowContext(ctx, query,
		m.UserID, m.Name, m.Description, m.MinValue, m.MaxValue, labels, m.Color, m.SortOrder, m.IsActive))
}

func (r *PostgresRepository) Update(ctx context.Context, m *models.Metric) (*models.Metric, error) {
	labels, err := marshalLabels(m.ScaleLabels)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE metrics SET name = $3, description = $4, min_value = $5, max_value = $6, scale_labels = $7,
		        color = $8, sort_order = $9, is_active = $10, updated_at = now()
		 WHERE user_id = $1 AND id = $2
		 RETURNING ` + metricColumns
	return scanMetric(r.db.QueryRowContext(ctx, query,
		m.UserID, m.ID, m.Name, m.Description, m.MinValue, m.MaxValue, labels, m.Color, m.SortOrder, m.IsActive))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM metrics WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if dbx.InvalidText(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("failed to delete metric: %w", err)
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

func (r *PostgresRepository) DeactivateAll(ctx context.Context, userID string) error {
	query := `UPDATE metrics SET is_active = FALSE, updated_at = now() WHERE user_id = $1 AND is_active`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Upsert creates the named metric on the default 1..5 scale or reactivates
// an existing one, keeping its scale and history.
func (r *PostgresRepository) Upsert(ctx context.Context, userID, name string, sortOrder int) (*models.Metric, error) {
	query :=
		`INSERT INTO metrics (user_id, name, min_value, max_value, color, sort_order, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 ON CONFLICT (user_id, name)
		 DO UPDATE SET is_active = TRUE, sort_order = EXCLUDED.sort_order, updated_at = now()
		 RETURNING ` + metricColumns
	return scanMetric(r.db.QueryRowContext(ctx, query,
		userID, name, defaultMinValue, defaultMaxValue, models.DefaultMetricColor, sortOrder))
}

func (r *PostgresRepository) CountActive(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metrics WHERE user_id = $1 AND is_active`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetric(row rowScanner) (*models.Metric, error) {
	m := &models.Metric{}
	var labels []byte

	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Description, &m.MinValue, &m.MaxValue, &labels,
		&m.Color, &m.SortOrder, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.InvalidText(err) {
			return nil, common.ErrorNotFound
		}
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	m.ScaleLabels = map[string]string{}
	if len(labels) > 0 {
		if err := json.Unmarshal(labels, &m.ScaleLabels); err != nil {
			return nil, fmt.Errorf("failed to decode scale labels: %w", err)
		}
	}
	return m, nil
}

func marshalLabels(labels map[string]string) ([]byte, error) {
	if labels == nil {
		labels = map[string]string{}
	}
	b, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scale labels: %w", err)
	}
	return b, nil
}
