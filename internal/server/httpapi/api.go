package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
	"github.com/labstack/echo/v4"
)

type windowQuery struct {
	Days int `query:"days" validate:"omitempty,gte=1,lte=366"`
}

type listQuery struct {
	IncludeInactive bool `query:"includeInactive"`
}

type journalQuery struct {
	services.Range
	Limit int `query:"limit" validate:"omitempty,gte=1,lte=100"`
}

type insightQuery struct {
	Status models.InsightStatus `query:"status"`
	Limit  int                  `query:"limit"`
}

// bindQuery decodes query parameters into dst and validates it.
func bindQuery(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// --- tags ---

func (s *Server) listTags(c echo.Context) error {
	var q listQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	tags, err := s.services.Tags.List(c.Request().Context(), mustSession(c).UserID, q.IncludeInactive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (s *Server) createTag(c echo.Context) error {
	var req services.TagInput
	if err := bind(c, &req); err != nil {
		return err
	}
	tag, err := s.services.Tags.Create(c.Request().Context(), mustSession(c).UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tag)
}

func (s *Server) updateTag(c echo.Context) error {
	var req services.TagInput
	if err := bind(c, &req); err != nil {
		return err
	}
	tag, err := s.services.Tags.Update(c.Request().Context(), mustSession(c).UserID, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}

func (s *Server) deleteTag(c echo.Context) error {
	if err := s.services.Tags.Delete(c.Request().Context(), mustSession(c).UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- metrics ---

func (s *Server) listMetrics(c echo.Context) error {
	var q listQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	metrics, err := s.services.Metrics.List(c.Request().Context(), mustSession(c).UserID, q.IncludeInactive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, metrics)
}

func (s *Server) createMetric(c echo.Context) error {
	var req services.MetricInput
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := s.services.Metrics.Create(c.Request().Context(), mustSession(c).UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) updateMetric(c echo.Context) error {
	var req services.MetricInput
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := s.services.Metrics.Update(c.Request().Context(), mustSession(c).UserID, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) deleteMetric(c echo.Context) error {
	if err := s.services.Metrics.Delete(c.Request().Context(), mustSession(c).UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- actions ---

func (s *Server) logAction(c echo.Context) error {
	var req services.ActionInput
	if err := bind(c, &req); err != nil {
		return err
	}
	snap := mustSession(c)
	l, err := s.services.Actions.Log(c.Request().Context(), snap.UserID, snap.Timezone, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

func (s *Server) listActions(c echo.Context) error {
	var r services.Range
	if err := bindQuery(c, &r); err != nil {
		return err
	}
	snap := mustSession(c)
	logs, err := s.services.Actions.List(c.Request().Context(), snap.UserID, snap.Timezone, r)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

func (s *Server) dailyActionCounts(c echo.Context) error {
	var q windowQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	snap := mustSession(c)
	counts, err := s.services.Actions.DailyCounts(c.Request().Context(), snap.UserID, snap.Timezone, q.Days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

func (s *Server) deleteAction(c echo.Context) error {
	if err := s.services.Actions.Delete(c.Request().Context(), mustSession(c).UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- ratings ---

func (s *Server) saveRating(c echo.Context) error {
	var req services.RatingInput
	if err := bind(c, &req); err != nil {
		return err
	}
	r, err := s.services.Ratings.Save(c.Request().Context(), mustSession(c).UserID, c.Param("date"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (s *Server) listRatings(c echo.Context) error {
	var r services.Range
	if err := bindQuery(c, &r); err != nil {
		return err
	}
	snap := mustSession(c)
	ratings, err := s.services.Ratings.List(c.Request().Context(), snap.UserID, snap.Timezone, r)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ratings)
}

func (s *Server) ratingAverages(c echo.Context) error {
	var q windowQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	snap := mustSession(c)
	avgs, err := s.services.Ratings.Averages(c.Request().Context(), snap.UserID, snap.Timezone, q.Days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, avgs)
}

// --- journal ---

func (s *Server) createJournal(c echo.Context) error {
	var req services.JournalInput
	if err := bind(c, &req); err != nil {
		return err
	}
	snap := mustSession(c)
	e, err := s.services.Journals.Create(c.Request().Context(), snap.UserID, snap.Timezone, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, e)
}

func (s *Server) listJournal(c echo.Context) error {
	var q journalQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	snap := mustSession(c)
	entries, err := s.services.Journals.List(c.Request().Context(), snap.UserID, snap.Timezone, q.Range, q.Limit)
	if err != nil {
		return err
	}

	items := make([]journalListItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, journalListItem{JournalEntry: e, Summary: models.Summary(e.Content)})
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) getJournal(c echo.Context) error {
	e, err := s.services.Journals.Get(c.Request().Context(), mustSession(c).UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) updateJournal(c echo.Context) error {
	var req services.JournalInput
	if err := bind(c, &req); err != nil {
		return err
	}
	snap := mustSession(c)
	e, err := s.services.Journals.Update(c.Request().Context(), snap.UserID, snap.Timezone, c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

func (s *Server) deleteJournal(c echo.Context) error {
	if err := s.services.Journals.Delete(c.Request().Context(), mustSession(c).UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- insights ---

func (s *Server) listInsights(c echo.Context) error {
	var q insightQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	items, err := s.services.Insights.List(c.Request().Context(), mustSession(c).UserID, q.Status, q.Limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) unreadInsights(c echo.Context) error {
	n, err := s.services.Insights.UnreadCount(c.Request().Context(), mustSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"count": n})
}

func (s *Server) markInsightRead(c echo.Context) error {
	if err := s.services.Insights.MarkRead(c.Request().Context(), mustSession(c).UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) dismissInsight(c echo.Context) error {
	if err := s.services.Insights.Dismiss(c.Request().Context(), mustSession(c).UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) insightFeedback(c echo.Context) error {
	var req services.FeedbackInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.services.Insights.Feedback(c.Request().Context(), mustSession(c).UserID, c.Param("id"), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
