package models

import "time"

// MetricID identifies a Metric inside a DailyRating.
type MetricID string

// MetricRating is one metric's value for a day.
type MetricRating struct {
	Value int    `json:"value"`
	Notes string `json:"notes,omitempty"`
}

// DailyRating holds a user's ratings for one calendar day. There is at most
// one per user and date.
type DailyRating struct {
	ID            string                    `json:"id"`
	UserID        string                    `json:"userId"`
	Date          string                    `json:"date"`
	Ratings       map[MetricID]MetricRating `json:"ratings"`
	DayNotes      string                    `json:"dayNotes"`
	OverallMood   *int                      `json:"overallMood,omitempty"`
	OverallEnergy *int                      `json:"overallEnergy,omitempty"`
	SleepQuality  *int                      `json:"sleepQuality,omitempty"`
	SleepHours    *float64                  `json:"sleepHours,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

// MetricAverage aggregates one metric over a window of days.
type MetricAverage struct {
	MetricID MetricID `json:"metricId"`
	Average  float64  `json:"average"`
	Count    int      `json:"count"`
	Min      int      `json:"min"`
	Max      int      `json:"max"`
}
