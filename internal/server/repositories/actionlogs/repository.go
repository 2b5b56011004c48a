package actionlogs

import (
	"context"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

// Repository stores action logs. Date ranges are inclusive calendar days in
// YYYY-MM-DD form.
type Repository interface {
	Create(ctx context.Context, log *models.ActionLog) (*models.ActionLog, error)
	List(ctx context.Context, userID, from, to string) ([]*models.ActionLog, error)
	Delete(ctx context.Context, userID, id string) error
	DailyCounts(ctx context.Context, userID, from, to string) ([]models.DailyActionCount, error)
	Count(ctx context.Context, userID string) (int, error)
}
