package models

import "time"

type ActionSource string

const (
	SourceManual  ActionSource = "manual"
	SourceJournal ActionSource = "journal"
	SourceAPI     ActionSource = "api"
)

// ActionLog records that a user did a tagged activity at a point in time.
// Date is the calendar day of LoggedAt in the user's timezone.
type ActionLog struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	TagID           string       `json:"tagId"`
	LoggedAt        time.Time    `json:"loggedAt"`
	Date            string       `json:"date"`
	Source          ActionSource `json:"source"`
	Notes           string       `json:"notes"`
	Intensity       *int         `json:"intensity,omitempty"`
	DurationMinutes *int         `json:"duration,omitempty"`
	Context         string       `json:"context"`
	JournalEntryID  string       `json:"journalEntryId,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// DailyActionCount is the number of actions logged on one day.
type DailyActionCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
