package ratings

import (
	"context"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, rating *models.DailyRating) (*models.DailyRating, error)
	Get(ctx context.Context, userID, date string) (*models.DailyRating, error)
	List(ctx context.Context, userID, from, to string) ([]*models.DailyRating, error)
	Averages(ctx context.Context, userID, from, to string) ([]models.MetricAverage, error)
	Count(ctx context.Context, userID string) (int, error)
}
