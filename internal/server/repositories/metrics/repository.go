package metrics

import (
	"context"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string, includeInactive bool) ([]*models.Metric, error)
	Get(ctx context.Context, userID, id string) (*models.Metric, error)
	Create(ctx context.Context, metric *models.Metric) (*models.Metric, error)
	Update(ctx context.Context, metric *models.Metric) (*models.Metric, error)
	Delete(ctx context.Context, userID, id string) error
	DeactivateAll(ctx context.Context, userID string) error
	Upsert(ctx context.Context, userID, name string, sortOrder int) (*models.Metric, error)
	CountActive(ctx context.Context, userID string) (int, error)
}
