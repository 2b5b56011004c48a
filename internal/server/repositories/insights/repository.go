package insights

import (
	"context"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

// Repository reads insights produced by the analysis job and records the
// user's reaction to them.
type Repository interface {
	List(ctx context.Context, userID string, status models.InsightStatus, limit int) ([]*models.Insight, error)
	Get(ctx context.Context, userID, id string) (*models.Insight, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	SetStatus(ctx context.Context, userID, id string, status models.InsightStatus) error
	Feedback(ctx context.Context, userID, id string, rating int, feedback string) error
}
