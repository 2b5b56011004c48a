package models

import "time"

const (
	DefaultTagColor    = "#3B82F6"
	DefaultMetricColor = "#10B981"
)

// Tag is a trackable activity category owned by one user.
type Tag struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	SortOrder   int       `json:"sortOrder"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Metric is a quantitative self-reported scale, e.g. Mood from 1 to 5.
type Metric struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	MinValue    int               `json:"minValue"`
	MaxValue    int               `json:"maxValue"`
	ScaleLabels map[string]string `json:"scaleLabels"`
	Color       string            `json:"color"`
	SortOrder   int               `json:"sortOrder"`
	IsActive    bool              `json:"isActive"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// DefaultMetricNames are created for every user that finishes onboarding
// without choosing metrics.
var DefaultMetricNames = []string{"Mood", "Energy"}
