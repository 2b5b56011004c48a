package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

const tagColumns = `id, user_id, name, description, color, sort_order, is_active, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID string, includeInactive bool) ([]*models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags
		WHERE user_id = $1 AND (is_active OR $2)
		ORDER BY sort_order, name`

	rows, err := r.db.QueryContext(ctx, query, userID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to select tags: %w", err)
	}
	defer rows.Close()

	var result []*models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE user_id = $1 AND id = $2`
	return scanTag(r.db.QueryRowContext(ctx, query, userID, id))
}

func (r *PostgresRepository) Create(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	query :=
		`INSERT INTO tags (user_id, name, description, color, sort_order, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + tagColumns
	return scanTag(r.db.QueryRowContext(ctx, query,
		tag.UserID, tag.Name, tag.Description, tag.Color, tag.SortOrder, tag.IsActive))
}

func (r *PostgresRepository) Update(ctx context.Context, tag *models.Tag) (*models.Tag, error) {
	query :=
		`UPDATE tags SET name = $3, description = $4, color = $5, sort_order = $6, is_active = $7, updated_at = now()
		 WHERE user_id = $1 AND id = $2
		 RETURNING ` + tagColumns
	return scanTag(r.db.QueryRowContext(ctx, query,
		tag.UserID, tag.ID, tag.Name, tag.Description, tag.Color, tag.SortOrder, tag.IsActive))
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if dbx.InvalidText(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("failed to delete tag: %w", err)
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
	query := `UPDATE tags SET is_active = FALSE, updated_at = now() WHERE user_id = $1 AND is_active`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Upsert creates the named tag or reactivates the existing one, so applying
// the same set twice leaves exactly one row per name.
func (r *PostgresRepository) Upsert(ctx context.Context, userID, name string, sortOrder int) (*models.Tag, error) {
	query :=
		`INSERT INTO tags (user_id, name, color, sort_order, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (user_id, name)
		 DO UPDATE SET is_active = TRUE, sort_order = EXCLUDED.sort_order, updated_at = now()
		 RETURNING ` + tagColumns
	return scanTag(r.db.QueryRowContext(ctx, query, userID, name, models.DefaultTagColor, sortOrder))
}

func (r *PostgresRepository) CountActive(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE user_id = $1 AND is_active`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTag(row rowScanner) (*models.Tag, error) {
	t := &models.Tag{}
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Color, &t.SortOrder, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.InvalidText(err) {
			return nil, common.ErrorNotFound
		}
		if _, ok := dbx.UniqueViolation(err); ok {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
