package actionlogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/dbx"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

const logColumns = `id, user_id, tag_id, logged_at, log_date::text, source, notes, intensity, duration_minutes,
	context, journal_entry_id, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.ActionLog) (*models.ActionLog, error) {
	query :=
		`INSERT INTO action_logs (user_id, tag_id, logged_at, log_date, source, notes, intensity, duration_minutes, context, journal_entry_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING ` + logColumns

	row := r.db.QueryRowContext(ctx, query,
		l.UserID, l.TagID, l.LoggedAt, l.Date, string(l.Source), l.Notes,
		nullInt(l.Intensity), nullInt(l.DurationMinutes), l.Context, nullString(l.JournalEntryID))
	return scanLog(row)
}

func (r *PostgresRepository) List(ctx context.Context, userID, from, to string) ([]*models.ActionLog, error) {
	query := `SELECT ` + logColumns + ` FROM action_logs
		WHERE user_id = $1 AND log_date BETWEEN $2 AND $3
		ORDER BY logged_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to select action logs: %w", err)
	}
	defer rows.Close()

	var result []*models.ActionLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM action_logs WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if dbx.InvalidText(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("failed to delete action log: %w", err)
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

func (r *PostgresRepository) DailyCounts(ctx context.Context, userID, from, to string) ([]models.DailyActionCount, error) {
	query :=
		`SELECT log_date::text, COUNT(*) FROM action_logs
		 WHERE user_id = $1 AND log_date BETWEEN $2 AND $3
		 GROUP BY log_date
		 ORDER BY log_date`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count action logs: %w", err)
	}
	defer rows.Close()

	var result []models.DailyActionCount
	for rows.Next() {
		var c models.DailyActionCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM action_logs WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (*models.ActionLog, error) {
	l := &models.ActionLog{}
	var source string
	var intensity sql.NullInt64
	var duration sql.NullInt64
	var journalID sql.NullString

	err := row.Scan(&l.ID, &l.UserID, &l.TagID, &l.LoggedAt, &l.Date, &source, &l.Notes,
		&intensity, &duration, &l.Context, &journalID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.InvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	l.Source = models.ActionSource(source)
	l.JournalEntryID = journalID.String
	if intensity.Valid {
		v := int(intensity.Int64)
		l.Intensity = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		l.DurationMinutes = &v
	}
	return l, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
