package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
)

type TagInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=200"`
	Color       string `json:"color" validate:"omitempty,hexcolor,len=7"`
	SortOrder   int    `json:"sortOrder" validate:"gte=0"`
	IsActive    *bool  `json:"isActive"`
}

type TagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTagService(db *sql.DB, m repomanager.RepositoryManager) *TagService {
	return &TagService{db: db, repomanager: m}
}

func (s *TagService) List(ctx context.Context, userID string, includeInactive bool) ([]*models.Tag, error) {
	tags, err := s.repomanager.Tags(s.db).List(ctx, userID, includeInactive)
	if err != nil {
		return nil, storageErr(err)
	}
	if tags == nil {
		tags = []*models.Tag{}
	}
	return tags, nil
}

func (s *TagService) Create(ctx context.Context, userID string, in TagInput) (*models.Tag, error) {
	tag, err := tagFromInput(in)
	if err != nil {
		return nil, err
	}
	tag.UserID = userID

	created, err := s.repomanager.Tags(s.db).Create(ctx, tag)
	if err != nil {
		return nil, recordErr(err, "Tag not found", "A tag with this name already exists")
	}
	return created, nil
}

func (s *TagService) Update(ctx context.Context, userID, id string, in TagInput) (*models.Tag, error) {
	tag, err := tagFromInput(in)
	if err != nil {
		return nil, err
	}
	tag.UserID = userID
	tag.ID = id

	updated, err := s.repomanager.Tags(s.db).Update(ctx, tag)
	if err != nil {
		return nil, recordErr(err, "Tag not found", "A tag with this name already exists")
	}
	return updated, nil
}

func (s *TagService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Tags(s.db).Delete(ctx, userID, id); err != nil {
		return recordErr(err, "Tag not found", "")
	}
	return nil
}

func tagFromInput(in TagInput) (*models.Tag, error) {
	in.Name = models.NormalizeName(in.Name)
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}

	tag := &models.Tag{
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		SortOrder:   in.SortOrder,
		IsActive:    true,
	}
	if tag.Color == "" {
		tag.Color = models.DefaultTagColor
	}
	if in.IsActive != nil {
		tag.IsActive = *in.IsActive
	}
	return tag, nil
}

type MetricInput struct {
	Name        string            `json:"name" validate:"required,max=50"`
	Description string            `json:"description" validate:"max=200"`
	MinValue    *int              `json:"minValue" validate:"omitempty,gte=0"`
	MaxValue    *int              `json:"maxValue" validate:"omitempty,lte=100"`
	ScaleLabels map[string]string `json:"scaleLabels" validate:"max=101,dive,max=50"`
	Color       string            `json:"color" validate:"omitempty,hexcolor,len=7"`
	SortOrder   int               `json:"sortOrder" validate:"gte=0"`
	IsActive    *bool             `json:"isActive"`
}

type MetricService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMetricService(db *sql.DB, m repomanager.RepositoryManager) *MetricService {
	return &MetricService{db: db, repomanager: m}
}

func (s *MetricService) List(ctx context.Context, userID string, includeInactive bool) ([]*models.Metric, error) {
	metrics, err := s.repomanager.Metrics(s.db).List(ctx, userID, includeInactive)
	if err != nil {
		return nil, storageErr(err)
	}
	if metrics == nil {
		metrics = []*models.Metric{}
	}
	return metrics, nil
}

func (s *MetricService) Create(ctx context.Context, userID string, in MetricInput) (*models.Metric, error) {
	m, err := metricFromInput(in)
	if err != nil {
		return nil, err
	}
	m.UserID = userID

	created, err := s.repomanager.Metrics(s.db).Create(ctx, m)
	if err != nil {
		return nil, recordErr(err, "Metric not found", "A metric with this name already exists")
	}
	return created, nil
}

func (s *MetricService) Update(ctx context.Context, userID, id string, in MetricInput) (*models.Metric, error) {
	m, err := metricFromInput(in)
	if err != nil {
		return nil, err
	}
	m.UserID = userID
	m.ID = id

	updated, err := s.repomanager.Metrics(s.db).Update(ctx, m)
	if err != nil {
		return nil, recordErr(err, "Metric not found", "A metric with this name already exists")
	}
	return updated, nil
}

func (s *MetricService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Metrics(s.db).Delete(ctx, userID, id); err != nil {
		return recordErr(err, "Metric not found", "")
	}
	return nil
}

func metricFromInput(in MetricInput) (*models.Metric, error) {
	in.Name = models.NormalizeName(in.Name)
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}

	m := &models.Metric{
		Name:        in.Name,
		Description: in.Description,
		MinValue:    1,
		MaxValue:    5,
		ScaleLabels: in.ScaleLabels,
		Color:       in.Color,
		SortOrder:   in.SortOrder,
		IsActive:    true,
	}
	if in.MinValue != nil {
		m.MinValue = *in.MinValue
	}
	if in.MaxValue != nil {
		m.MaxValue = *in.MaxValue
	}
	if m.MaxValue <= m.MinValue {
		msg := "Maximum value must be greater than minimum value"
		return nil, apperr.Validation(msg, map[string]string{"maxValue": msg})
	}
	if m.Color == "" {
		m.Color = models.DefaultMetricColor
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	return m, nil
}
