package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
)

const defaultInsightLimit = 20

// InsightView is an insight with its derived presentation fields.
type InsightView struct {
	*models.Insight
	StrengthLabel string `json:"strengthLabel"`
	Impact        string `json:"impact"`
}

type FeedbackInput struct {
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
	Feedback string `json:"feedback" validate:"max=500"`
}

// InsightService exposes the externally computed insights. Users can read,
// rate and dismiss them but never create or recompute them.
type InsightService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewInsightService(db *sql.DB, m repomanager.RepositoryManager) *InsightService {
	return &InsightService{db: db, repomanager: m}
}

func (s *InsightService) List(ctx context.Context, userID string, status models.InsightStatus, limit int) ([]InsightView, error) {
	switch status {
	case "":
		status = models.InsightActive
	case models.InsightActive, models.InsightDismissed, models.InsightArchived:
	default:
		return nil, apperr.Validation("status must be one of: active dismissed archived",
			map[string]string{"status": "invalid status"})
	}
	if limit <= 0 || limit > 100 {
		limit = defaultInsightLimit
	}

	items, err := s.repomanager.Insights(s.db).List(ctx, userID, status, limit)
	if err != nil {
		return nil, storageErr(err)
	}

	out := make([]InsightView, 0, len(items))
	for _, in := range items {
		out = append(out, InsightView{
			Insight:       in,
			StrengthLabel: models.StrengthLabel(in.CorrelationStrength),
			Impact:        models.ImpactDescription(in),
		})
	}
	return out, nil
}

func (s *InsightService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.repomanager.Insights(s.db).UnreadCount(ctx, userID)
	if err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func (s *InsightService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Insights(s.db).MarkRead(ctx, userID, id); err != nil {
		return recordErr(err, "Insight not found", "")
	}
	return nil
}

func (s *InsightService) Dismiss(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Insights(s.db).SetStatus(ctx, userID, id, models.InsightDismissed); err != nil {
		return recordErr(err, "Insight not found", "")
	}
	return nil
}

func (s *InsightService) Feedback(ctx context.Context, userID, id string, in FeedbackInput) error {
	if err := requestValidator.Struct(in); err != nil {
		return err
	}
	if err := s.repomanager.Insights(s.db).Feedback(ctx, userID, id, in.Rating, in.Feedback); err != nil {
		return recordErr(err, "Insight not found", "")
	}
	return nil
}
