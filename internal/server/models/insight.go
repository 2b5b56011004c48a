package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CorrelationType string

const (
	CorrelationPositive CorrelationType = "positive"
	CorrelationNegative CorrelationType = "negative"
	CorrelationNeutral  CorrelationType = "neutral"
)

type InsightStatus string

const (
	InsightActive    InsightStatus = "active"
	InsightDismissed InsightStatus = "dismissed"
	InsightArchived  InsightStatus = "archived"
)

// StatisticalData is computed outside this service and stored as is.
type StatisticalData struct {
	AvgWithTag        float64 `json:"avgWithTag"`
	AvgWithoutTag     float64 `json:"avgWithoutTag"`
	DaysWithTag       int     `json:"daysWithTag"`
	DaysWithoutTag    int     `json:"daysWithoutTag"`
	AnalysisStartDate string  `json:"analysisStartDate"`
	AnalysisEndDate   string  `json:"analysisEndDate"`
}

// Insight is a read model: rows are written by an external analysis job,
// users can only read, rate and dismiss them.
type Insight struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"userId"`
	TagID               string          `json:"tagId"`
	MetricID            string          `json:"metricId"`
	CorrelationType     CorrelationType `json:"correlationType"`
	CorrelationStrength float64         `json:"correlationStrength"`
	PValue              *float64        `json:"pValue,omitempty"`
	Title               string          `json:"title"`
	Content             string          `json:"content"`
	StatisticalData     StatisticalData `json:"statisticalData"`
	Status              InsightStatus   `json:"status"`
	IsRead              bool            `json:"isRead"`
	ReadAt              *time.Time      `json:"readAt,omitempty"`
	UserRating          *int            `json:"userRating,omitempty"`
	UserFeedback        string          `json:"userFeedback,omitempty"`
	Priority            int             `json:"priority"`
	Categories          []string        `json:"categories"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// StrengthLabel buckets a correlation strength in [0, 1].
func StrengthLabel(strength float64) string {
	switch {
	case strength >= 0.7:
		return "Strong"
	case strength >= 0.5:
		return "Moderate"
	case strength >= 0.3:
		return "Weak"
	default:
		return "Very Weak"
	}
}

// ImpactDescription states how much higher or lower the metric is on days
// with the tag, relative to days without it, with one decimal place.
func ImpactDescription(in *Insight) string {
	if in.CorrelationType == CorrelationNeutral {
		return "No significant difference"
	}

	without := decimal.NewFromFloat(in.StatisticalData.AvgWithoutTag)
	if without.IsZero() {
		return "No significant difference"
	}
	diff := decimal.NewFromFloat(in.StatisticalData.AvgWithTag).Sub(without).Abs()
	pct := diff.Div(without.Abs()).Mul(decimal.NewFromInt(100)).StringFixed(1)

	if in.CorrelationType == CorrelationPositive {
		return pct + "% higher on average"
	}
	return pct + "% lower on average"
}
