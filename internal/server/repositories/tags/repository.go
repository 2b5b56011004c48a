package tags

import (
	"context"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, userID string, includeInactive bool) ([]*models.Tag, error)
	Get(ctx context.Context, userID, id string) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	Delete(ctx context.Context, userID, id string) error
	DeactivateAll(ctx context.Context, userID string) error
	Upsert(ctx context.Context, userID, name string, sortOrder int) (*models.Tag, error)
	CountActive(ctx context.Context, userID string) (int, error)
}
