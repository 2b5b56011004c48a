package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

type tagRepo struct{ s *Store }

func (r *tagRepo) List(_ context.Context, userID string, includeInactive bool) ([]*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []*models.Tag
	for _, t := range r.s.Tags {
		if t.UserID == userID && (t.IsActive || includeInactive) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *tagRepo) Get(_ context.Context, userID, id string) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	t, ok := r.s.Tags[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *tagRepo) byName(userID, name string) *models.Tag {
	for _, t := range r.s.Tags {
		if t.UserID == userID && t.Name == name {
			return t
		}
	}
	return nil
}

func (r *tagRepo) Create(_ context.Context, tag *models.Tag) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if r.byName(tag.UserID, tag.Name) != nil {
		return nil, common.ErrorAlreadyExists
	}
	c := *tag
	c.ID = newID()
	r.s.Tags[c.ID] = &c
	out := c
	return &out, nil
}

func (r *tagRepo) Update(_ context.Context, tag *models.Tag) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.Tags[tag.ID]
	if !ok || t.UserID != tag.UserID {
		return nil, common.ErrorNotFound
	}
	if other := r.byName(tag.UserID, tag.Name); other != nil && other.ID != tag.ID {
		return nil, common.ErrorAlreadyExists
	}
	*t = *tag
	c := *t
	return &c, nil
}

func (r *tagRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.Tags[id]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.Tags, id)
	return nil
}

func (r *tagRepo) DeactivateAll(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.Tags {
		if t.UserID == userID {
			t.IsActive = false
		}
	}
	return nil
}

func (r *tagRepo) Upsert(_ context.Context, userID, name string, sortOrder int) (*models.Tag, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailTagUpsert != nil {
		return nil, r.s.FailTagUpsert
	}
	t := r.byName(userID, name)
	if t == nil {
		t = &models.Tag{ID: newID(), UserID: userID, Name: name, Color: models.DefaultTagColor}
		r.s.Tags[t.ID] = t
	}
	t.IsActive = true
	t.SortOrder = sortOrder
	c := *t
	return &c, nil
}

func (r *tagRepo) CountActive(_ context.Context, userID string) (int, error) {
	list, err := r.List(context.Background(), userID, false)
	return len(list), err
}

type metricRepo struct{ s *Store }

func (r *metricRepo) List(_ context.Context, userID string, includeInactive bool) ([]*models.Metric, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []*models.Metric
	for _, m := range r.s.Metrics {
		if m.UserID == userID && (m.IsActive || includeInactive) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *metricRepo) Get(_ context.Context, userID, id string) (*models.Metric, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.Metrics[id]
	if !ok || m.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *m
	return &c, nil
}

func (r *metricRepo) byName(userID, name string) *models.Metric {
	for _, m := range r.s.Metrics {
		if m.UserID == userID && m.Name == name {
			return m
		}
	}
	return nil
}

func (r *metricRepo) Create(_ context.Context, m *models.Metric) (*models.Metric, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.byName(m.UserID, m.Name) != nil {
		return nil, common.ErrorAlreadyExists
	}
	c := *m
	c.ID = newID()
	r.s.Metrics[c.ID] = &c
	out := c
	return &out, nil
}

func (r *metricRepo) Update(_ context.Context, m *models.Metric) (*models.Metric, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.Metrics[m.ID]
	if !ok || e.UserID != m.UserID {
		return nil, common.ErrorNotFound
	}
	*e = *m
	c := *e
	return &c, nil
}

func (r *metricRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.Metrics[id]
	if !ok || m.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.Metrics, id)
	return nil
}

func (r *metricRepo) DeactivateAll(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.Metrics {
		if m.UserID == userID {
			m.IsActive = false
		}
	}
	return nil
}

func (r *metricRepo) Upsert(_ context.Context, userID, name string, sortOrder int) (*models.Metric, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m := r.byName(userID, name)
	if m == nil {
		m = &models.Metric{ID: newID(), UserID: userID, Name: name, MinValue: 1, MaxValue: 5,
			ScaleLabels: map[string]string{}, Color: models.DefaultMetricColor}
		r.s.Metrics[m.ID] = m
	}
	m.IsActive = true
	m.SortOrder = sortOrder
	c := *m
	return &c, nil
}

func (r *metricRepo) CountActive(_ context.Context, userID string) (int, error) {
	list, err := r.List(context.Background(), userID, false)
	return len(list), err
}

type actionRepo struct{ s *Store }

func (r *actionRepo) Create(_ context.Context, l *models.ActionLog) (*models.ActionLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	c := *l
	c.ID = newID()
	c.CreatedAt = time.Now()
	r.s.Actions[c.ID] = &c
	out := c
	return &out, nil
}

func (r *actionRepo) List(_ context.Context, userID, from, to string) ([]*models.ActionLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []*models.ActionLog
	for _, l := range r.s.Actions {
		if l.UserID == userID && l.Date >= from && l.Date <= to {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *actionRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.Actions[id]
	if !ok || l.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.Actions, id)
	return nil
}

func (r *actionRepo) DailyCounts(ctx context.Context, userID, from, to string) ([]models.DailyActionCount, error) {
	logs, err := r.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	byDay := map[string]int{}
	for _, l := range logs {
		byDay[l.Date]++
	}
	var out []models.DailyActionCount
	for d, n := range byDay {
		out = append(out, models.DailyActionCount{Date: d, Count: n})
	}
	return out, nil
}

func (r *actionRepo) Count(ctx context.Context, userID string) (int, error) {
	logs, err := r.List(ctx, userID, "0000-00-00", "9999-99-99")
	return len(logs), err
}

type ratingRepo struct{ s *Store }

func (r *ratingRepo) Upsert(_ context.Context, dr *models.DailyRating) (*models.DailyRating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	key := dr.UserID + "|" + dr.Date
	c := *dr
	if prev, ok := r.s.Ratings[key]; ok {
		c.ID = prev.ID
	} else {
		c.ID = newID()
	}
	r.s.Ratings[key] = &c
	out := c
	return &out, nil
}

func (r *ratingRepo) Get(_ context.Context, userID, date string) (*models.DailyRating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dr, ok := r.s.Ratings[userID+"|"+date]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *dr
	return &c, nil
}

func (r *ratingRepo) List(_ context.Context, userID, from, to string) ([]*models.DailyRating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.DailyRating
	for _, dr := range r.s.Ratings {
		if dr.UserID == userID && dr.Date >= from && dr.Date <= to {
			c := *dr
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *ratingRepo) Averages(ctx context.Context, userID, from, to string) ([]models.MetricAverage, error) {
	list, err := r.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	acc := map[models.MetricID]*models.MetricAverage{}
	for _, dr := range list {
		for id, v := range dr.Ratings {
			a, ok := acc[id]
			if !ok {
				a = &models.MetricAverage{MetricID: id, Min: v.Value, Max: v.Value}
				acc[id] = a
			}
			a.Average += float64(v.Value)
			a.Count++
			a.Min = min(a.Min, v.Value)
			a.Max = max(a.Max, v.Value)
		}
	}
	var out []models.MetricAverage
	for _, a := range acc {
		a.Average /= float64(a.Count)
		out = append(out, *a)
	}
	return out, nil
}

func (r *ratingRepo) Count(ctx context.Context, userID string) (int, error) {
	list, err := r.List(ctx, userID, "0000-00-00", "9999-99-99")
	return len(list), err
}

type journalRepo struct{ s *Store }

func (r *journalRepo) Create(_ context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *e
	c.ID = newID()
	c.WordCount = models.WordCount(c.Content)
	r.s.Journals[c.ID] = &c
	out := c
	return &out, nil
}

func (r *journalRepo) Get(_ context.Context, userID, id string) (*models.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.Journals[id]
	if !ok || e.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *e
	return &c, nil
}

func (r *journalRepo) Update(_ context.Context, e *models.JournalEntry) (*models.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.Journals[e.ID]
	if !ok || prev.UserID != e.UserID {
		return nil, common.ErrorNotFound
	}
	status := prev.AIProcessingStatus
	if prev.Content != e.Content {
		status = models.ProcessingPending
	}
	c := *e
	c.AIProcessingStatus = status
	c.WordCount = models.WordCount(c.Content)
	r.s.Journals[e.ID] = &c
	out := c
	return &out, nil
}

func (r *journalRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.Journals[id]
	if !ok || e.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.s.Journals, id)
	return nil
}

func (r *journalRepo) List(_ context.Context, userID, from, to string, limit int) ([]*models.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.JournalEntry
	for _, e := range r.s.Journals {
		if e.UserID == userID && e.EntryDate >= from && e.EntryDate <= to && len(out) < limit {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *journalRepo) Count(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.Journals {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

type insightRepo struct{ s *Store }

func (r *insightRepo) List(_ context.Context, userID string, status models.InsightStatus, limit int) ([]*models.Insight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Insight
	for _, in := range r.s.Insights {
		if in.UserID == userID && in.Status == status {
			c := *in
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *insightRepo) Get(_ context.Context, userID, id string) (*models.Insight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	in, ok := r.s.Insights[id]
	if !ok || in.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *in
	return &c, nil
}

func (r *insightRepo) UnreadCount(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, in := range r.s.Insights {
		if in.UserID == userID && in.Status == models.InsightActive && !in.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *insightRepo) update(userID, id string, fn func(in *models.Insight)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	in, ok := r.s.Insights[id]
	if !ok || in.UserID != userID {
		return common.ErrorNotFound
	}
	fn(in)
	return nil
}

func (r *insightRepo) MarkRead(_ context.Context, userID, id string) error {
	return r.update(userID, id, func(in *models.Insight) {
		in.IsRead = true
		if in.ReadAt == nil {
			now := time.Now()
			in.ReadAt = &now
		}
	})
}

func (r *insightRepo) SetStatus(_ context.Context, userID, id string, status models.InsightStatus) error {
	return r.update(userID, id, func(in *models.Insight) { in.Status = status })
}

func (r *insightRepo) Feedback(_ context.Context, userID, id string, rating int, feedback string) error {
	return r.update(userID, id, func(in *models.Insight) {
		in.UserRating = &rating
		in.UserFeedback = feedback
	})
}
