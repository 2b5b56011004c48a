package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/apperr"
	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/habitkeeper/internal/timex"
)

const (
	defaultWindowDays = 30
	maxWindowDays     = 366
	maxJournalPage    = 100
)

// Range is an inclusive window of calendar days. Empty bounds default to the
// last 30 days in the user's timezone.
type Range struct {
	From string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (r Range) resolve(timezone string) (string, string, error) {
	if err := requestValidator.Struct(r); err != nil {
		return "", "", err
	}
	from, to := timex.DayRange(time.Now(), timezone, defaultWindowDays)
	if r.From != "" {
		from = r.From
	}
	if r.To != "" {
		to = r.To
	}
	if from > to {
		return "", "", apperr.Validation("from must not be after to", map[string]string{"from": "from must not be after to"})
	}
	return from, to, nil
}

func windowDays(days int) int {
	if days <= 0 {
		return defaultWindowDays
	}
	if days > maxWindowDays {
		return maxWindowDays
	}
	return days
}

type ActionInput struct {
	TagID           string              `json:"tagId" validate:"required,uuid"`
	LoggedAt        *time.Time          `json:"loggedAt"`
	Source          models.ActionSource `json:"source" validate:"omitempty,oneof=manual journal api"`
	Notes           string              `json:"notes" validate:"max=500"`
	Intensity       *int                `json:"intensity" validate:"omitempty,gte=1,lte=5"`
	DurationMinutes *int                `json:"duration" validate:"omitempty,gte=0"`
	Context         string              `json:"context" validate:"max=100"`
	JournalEntryID  string              `json:"journalEntryId" validate:"omitempty,uuid"`
}

type ActionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewActionService(db *sql.DB, m repomanager.RepositoryManager) *ActionService {
	return &ActionService{db: db, repomanager: m}
}

// Log records an action for one of the user's tags. The calendar day is taken
// in the user's timezone. A linked journal entry must be the user's own.
func (s *ActionService) Log(ctx context.Context, userID, timezone string, in ActionInput) (*models.ActionLog, error) {
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Tags(s.db).Get(ctx, userID, in.TagID); err != nil {
		return nil, recordErr(err, "Tag not found", "")
	}
	if in.JournalEntryID != "" {
		if _, err := s.repomanager.Journals(s.db).Get(ctx, userID, in.JournalEntryID); err != nil {
			return nil, recordErr(err, "Journal entry not found", "")
		}
	}

	loggedAt := time.Now()
	if in.LoggedAt != nil {
		loggedAt = *in.LoggedAt
	}
	source := in.Source
	if source == "" {
		source = models.SourceManual
	}

	l, err := s.repomanager.ActionLogs(s.db).Create(ctx, &models.ActionLog{
		UserID:          userID,
		TagID:           in.TagID,
		LoggedAt:        loggedAt,
		Date:            timex.LocalDay(loggedAt, timezone),
		Source:          source,
		Notes:           in.Notes,
		Intensity:       in.Intensity,
		DurationMinutes: in.DurationMinutes,
		Context:         in.Context,
		JournalEntryID:  in.JournalEntryID,
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return l, nil
}

func (s *ActionService) List(ctx context.Context, userID, timezone string, r Range) ([]*models.ActionLog, error) {
	from, to, err := r.resolve(timezone)
	if err != nil {
		return nil, err
	}
	logs, err := s.repomanager.ActionLogs(s.db).List(ctx, userID, from, to)
	if err != nil {
		return nil, storageErr(err)
	}
	if logs == nil {
		logs = []*models.ActionLog{}
	}
	return logs, nil
}

func (s *ActionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.ActionLogs(s.db).Delete(ctx, userID, id); err != nil {
		return recordErr(err, "Action not found", "")
	}
	return nil
}

// DailyCounts returns one entry per day of the window, zero-filled.
func (s *ActionService) DailyCounts(ctx context.Context, userID, timezone string, days int) ([]models.DailyActionCount, error) {
	days = windowDays(days)
	from, to := timex.DayRange(time.Now(), timezone, days)

	counts, err := s.repomanager.ActionLogs(s.db).DailyCounts(ctx, userID, from, to)
	if err != nil {
		return nil, storageErr(err)
	}

	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[c.Date] = c.Count
	}

	start, _ := timex.ParseDay(from)
	out := make([]models.DailyActionCount, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i).Format(common.DateLayout)
		out = append(out, models.DailyActionCount{Date: d, Count: byDay[d]})
	}
	return out, nil
}

type RatingInput struct {
	Ratings       map[models.MetricID]models.MetricRating `json:"ratings" validate:"max=50"`
	DayNotes      string                                  `json:"dayNotes" validate:"max=1000"`
	OverallMood   *int                                    `json:"overallMood" validate:"omitempty,gte=1,lte=5"`
	OverallEnergy *int                                    `json:"overallEnergy" validate:"omitempty,gte=1,lte=5"`
	SleepQuality  *int                                    `json:"sleepQuality" validate:"omitempty,gte=1,lte=5"`
	SleepHours    *float64                                `json:"sleepHours" validate:"omitempty,gte=0,lte=24"`
}

type RatingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRatingService(db *sql.DB, m repomanager.RepositoryManager) *RatingService {
	return &RatingService{db: db, repomanager: m}
}

// Save writes the day's ratings, replacing earlier ones for the same date.
// Every rated metric must belong to the user and the value must be within the
// metric's scale.
func (s *RatingService) Save(ctx context.Context, userID, date string, in RatingInput) (*models.DailyRating, error) {
	if _, err := timex.ParseDay(date); err != nil {
		return nil, apperr.Validation("date must be a date in YYYY-MM-DD format", map[string]string{"date": "invalid date"})
	}
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}

	metrics, err := s.repomanager.Metrics(s.db).List(ctx, userID, true)
	if err != nil {
		return nil, storageErr(err)
	}
	byID := make(map[models.MetricID]*models.Metric, len(metrics))
	for _, m := range metrics {
		byID[models.MetricID(m.ID)] = m
	}

	fields := map[string]string{}
	for id, r := range in.Ratings {
		m, ok := byID[id]
		key := "ratings." + string(id)
		switch {
		case !ok:
			fields[key] = "Unknown metric"
		case r.Value < m.MinValue || r.Value > m.MaxValue:
			fields[key] = "Rating is outside the metric's scale"
		case len(r.Notes) > 200:
			fields[key] = "Notes cannot exceed 200 characters"
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Invalid ratings", fields)
	}

	saved, err := s.repomanager.Ratings(s.db).Upsert(ctx, &models.DailyRating{
		UserID:        userID,
		Date:          date,
		Ratings:       in.Ratings,
		DayNotes:      in.DayNotes,
		OverallMood:   in.OverallMood,
		OverallEnergy: in.OverallEnergy,
		SleepQuality:  in.SleepQuality,
		SleepHours:    in.SleepHours,
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return saved, nil
}

func (s *RatingService) List(ctx context.Context, userID, timezone string, r Range) ([]*models.DailyRating, error) {
	from, to, err := r.resolve(timezone)
	if err != nil {
		return nil, err
	}
	ratings, err := s.repomanager.Ratings(s.db).List(ctx, userID, from, to)
	if err != nil {
		return nil, storageErr(err)
	}
	if ratings == nil {
		ratings = []*models.DailyRating{}
	}
	return ratings, nil
}

func (s *RatingService) Averages(ctx context.Context, userID, timezone string, days int) ([]models.MetricAverage, error) {
	from, to := timex.DayRange(time.Now(), timezone, windowDays(days))
	avgs, err := s.repomanager.Ratings(s.db).Averages(ctx, userID, from, to)
	if err != nil {
		return nil, storageErr(err)
	}
	if avgs == nil {
		avgs = []models.MetricAverage{}
	}
	return avgs, nil
}

type JournalInput struct {
	Content    string   `json:"content" validate:"required,max=5000"`
	EntryDate  string   `json:"entryDate" validate:"omitempty,datetime=2006-01-02"`
	Categories []string `json:"categories" validate:"max=20,dive,max=50"`
	IsPrivate  *bool    `json:"isPrivate"`
}

type JournalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewJournalService(db *sql.DB, m repomanager.RepositoryManager) *JournalService {
	return &JournalService{db: db, repomanager: m}
}

func journalFromInput(in JournalInput, timezone string) (*models.JournalEntry, error) {
	if err := requestValidator.Struct(in); err != nil {
		return nil, err
	}
	e := &models.JournalEntry{
		Content:    in.Content,
		EntryDate:  in.EntryDate,
		Categories: models.UniqueNames(in.Categories),
		IsPrivate:  true,
	}
	if e.EntryDate == "" {
		e.EntryDate = timex.LocalDay(time.Now(), timezone)
	}
	if in.IsPrivate != nil {
		e.IsPrivate = *in.IsPrivate
	}
	return e, nil
}

// Create stores a journal entry. Analysis of the text happens elsewhere, the
// entry stays pending here.
func (s *JournalService) Create(ctx context.Context, userID, timezone string, in JournalInput) (*models.JournalEntry, error) {
	e, err := journalFromInput(in, timezone)
	if err != nil {
		return nil, err
	}
	e.UserID = userID
	e.AIProcessingStatus = models.ProcessingPending

	created, err := s.repomanager.Journals(s.db).Create(ctx, e)
	if err != nil {
		return nil, storageErr(err)
	}
	return created, nil
}

func (s *JournalService) Get(ctx context.Context, userID, id string) (*models.JournalEntry, error) {
	e, err := s.repomanager.Journals(s.db).Get(ctx, userID, id)
	if err != nil {
		return nil, recordErr(err, "Journal entry not found", "")
	}
	return e, nil
}

func (s *JournalService) Update(ctx context.Context, userID, timezone, id string, in JournalInput) (*models.JournalEntry, error) {
	e, err := journalFromInput(in, timezone)
	if err != nil {
		return nil, err
	}
	e.UserID = userID
	e.ID = id

	updated, err := s.repomanager.Journals(s.db).Update(ctx, e)
	if err != nil {
		return nil, recordErr(err, "Journal entry not found", "")
	}
	return updated, nil
}

func (s *JournalService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Journals(s.db).Delete(ctx, userID, id); err != nil {
		return recordErr(err, "Journal entry not found", "")
	}
	return nil
}

func (s *JournalService) List(ctx context.Context, userID, timezone string, r Range, limit int) ([]*models.JournalEntry, error) {
	from, to, err := r.resolve(timezone)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxJournalPage {
		limit = maxJournalPage
	}
	entries, err := s.repomanager.Journals(s.db).List(ctx, userID, from, to, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	if entries == nil {
		entries = []*models.JournalEntry{}
	}
	return entries, nil
}
