package ratings

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

const ratingColumns = `id, user_id, rating_date::text, ratings, day_notes, overall_mood, overall_energy,
	sleep_quality, sleep_hours, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes the rating for (user, date), replacing an earlier one for the
// same day.
func (r *PostgresRepository) Upsert(ctx context.Context, dr *models.DailyRating) (*models.DailyRating, error) {
	if dr.Ratings == nil {
		dr.Ratings = map[models.MetricID]models.MetricRating{}
	}
	ratings, err := json.Marshal(dr.Ratings)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ratings: %w", err)
	}

	query :=
		`INSERT INTO daily_ratings (user_id, rating_date, ratings, day_notes, overall_mood, overall_energy, sleep_quality, sleep_hours)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, rating_date)
		 DO UPDATE SET ratings = EXCLUDED.ratings, day_notes = EXCLUDED.day_notes,
		               overall_mood = EXCLUDED.overall_mood, overall_energy = EXCLUDED.overall_energy,
		               sleep_quality = EXCLUDED.sleep_quality, sleep_hours = EXCLUDED.sleep_hours,
		               updated_at = now()
		 RETURNING ` + ratingColumns

	row := r.db.QueryRowContext(ctx, query,
		dr.UserID, dr.Date, ratings, dr.DayNotes,
		nullInt(dr.OverallMood), nullInt(dr.OverallEnergy), nullInt(dr.SleepQuality), nullDecimal(dr.SleepHours))
	return scanRating(row)
}

func (r *PostgresRepository) Get(ctx context.Context, userID, date string) (*models.DailyRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM daily_ratings WHERE user_id = $1 AND rating_date = $2`
	return scanRating(r.db.QueryRowContext(ctx, query, userID, date))
}

func (r *PostgresRepository) List(ctx context.Context, userID, from, to string) ([]*models.DailyRating, error) {
	query := `SELECT ` + ratingColumns + ` FROM daily_ratings
		WHERE user_id = $1 AND rating_date BETWEEN $2 AND $3
		ORDER BY rating_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to select ratings: %w", err)
	}
	defer rows.Close()

	var result []*models.DailyRating
	for rows.Next() {
		dr, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, dr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Averages aggregates every metric that appears in the ratings JSON between
// from and to.
func (r *PostgresRepository) Averages(ctx context.Context, userID, from, to string) ([]models.MetricAverage, error) {
	query :=
		`SELECT e.key, AVG((e.value->>'value')::numeric), COUNT(*),
		        MIN((e.value->>'value')::int), MAX((e.value->>'value')::int)
		 FROM daily_ratings d, jsonb_each(d.ratings) e
		 WHERE d.user_id = $1 AND d.rating_date BETWEEN $2 AND $3
		 GROUP BY e.key
		 ORDER BY e.key`

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer rows.Close()

	var result []models.MetricAverage
	for rows.Next() {
		var a models.MetricAverage
		var key string
		var avg decimal.Decimal
		if err := rows.Scan(&key, &avg, &a.Count, &a.Min, &a.Max); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		a.MetricID = models.MetricID(key)
		a.Average = avg.Round(2).InexactFloat64()
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_ratings WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRating(row rowScanner) (*models.DailyRating, error) {
	dr := &models.DailyRating{}
	var ratings []byte
	var mood sql.NullInt64
	var energy sql.NullInt64
	var sleepQuality sql.NullInt64
	var sleepHours decimal.NullDecimal

	err := row.Scan(&dr.ID, &dr.UserID, &dr.Date, &ratings, &dr.DayNotes,
		&mood, &energy, &sleepQuality, &sleepHours, &dr.CreatedAt, &dr.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.InvalidText(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	dr.Ratings = map[models.MetricID]models.MetricRating{}
	if len(ratings) > 0 {
		if err := json.Unmarshal(ratings, &dr.Ratings); err != nil {
			return nil, fmt.Errorf("failed to decode ratings: %w", err)
		}
	}
	dr.OverallMood = intPtr(mood)
	dr.OverallEnergy = intPtr(energy)
	dr.SleepQuality = intPtr(sleepQuality)
	if sleepHours.Valid {
		h := sleepHours.Decimal.InexactFloat64()
		dr.SleepHours = &h
	}
	return dr, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}
