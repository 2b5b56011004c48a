package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

const summaryLength = 100

type JournalEntry struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"userId"`
	Content            string           `json:"content"`
	EntryDate          string           `json:"entryDate"`
	Sentiment          string           `json:"sentiment,omitempty"`
	AIProcessingStatus ProcessingStatus `json:"aiProcessingStatus"`
	ExtractedTags      []string         `json:"extractedTags"`
	Categories         []string         `json:"categories"`
	IsPrivate          bool             `json:"isPrivate"`
	WordCount          int              `json:"wordCount"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// WordCount counts whitespace separated words.
func WordCount(content string) int {
	return len(strings.Fields(content))
}

// Summary returns the first 100 characters of the content followed by
// "..." when it was cut.
func Summary(content string) string {
	if utf8.RuneCountInString(content) <= summaryLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:summaryLength]) + "..."
}
