package journals

import (
	"context"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error)
	Get(ctx context.Context, userID, id string) (*models.JournalEntry, error)
	Update(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID, from, to string, limit int) ([]*models.JournalEntry, error)
	Count(ctx context.Context, userID string) (int, error)
}
