package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"studypath-backend/internal/analytics"
	"studypath-backend/internal/middleware"
	"studypath-backend/internal/models"
	"studypath-backend/internal/repository"
)

const summaryCacheTTL = 5 * time.Minute

// sessionLister is the slice of the session store the dashboard reads from.
type sessionLister interface {
	ListByRange(ctx context.Context, userID string, rng *models.DateRange) ([]models.StudySession, error)
}

// AnalyticsHandler serves the dashboard. Reads are best-effort: a failing
// store query is logged and degraded to an empty data set so the dashboard
// still renders.
type AnalyticsHandler struct {
	sessionRepo  sessionLister
	progressRepo *repository.ProgressRepo
	insights     analytics.InsightGenerator
	patterns     analytics.PatternDetector
	cache        *redis.Client
}

func NewAnalyticsHandler(
	sessionRepo sessionLister,
	progressRepo *repository.ProgressRepo,
	insights analytics.InsightGenerator,
	patterns analytics.PatternDetector,
	cache *redis.Client,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		sessionRepo:  sessionRepo,
		progressRepo: progressRepo,
		insights:     insights,
		patterns:     patterns,
		cache:        cache,
	}
}

// Summary composes the headline numbers for the dashboard. The result is
// cached per user for a few minutes; analytics tolerate slight staleness.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()
	ctx := r.Context()

	cacheKey := "analytics:summary:" + userID
	if cached, err := h.cache.Get(ctx, cacheKey).Result(); err == nil {
		var summary models.AnalyticsSummary
		if json.Unmarshal([]byte(cached), &summary) == nil {
			writeJSON(w, http.StatusOK, summary)
			return
		}
	}

	sessions, err := h.sessionRepo.ListByRange(ctx, userID, nil)
	if err != nil {
		log.Printf("analytics: list sessions for %s: %v", userID, err)
	}
	courseRows, err := h.progressRepo.ListCourseProgress(ctx, userID)
	if err != nil {
		log.Printf("analytics: list course progress for %s: %v", userID, err)
	}
	courses := analytics.CourseAnalyticsList(courseRows)

	insightList, err := h.insights.Insights(ctx, userID)
	if err != nil {
		log.Printf("analytics: insights for %s: %v", userID, err)
	}

	summary := models.AnalyticsSummary{
		TotalStudyTime:  analytics.TotalStudyTime(sessions),
		AverageProgress: analytics.AverageProgress(courses),
		CompletionRates: analytics.CompletionRates(courses),
		StudyStreak:     analytics.Streak(sessions),
		Insights:        insightList,
	}

	if data, err := json.Marshal(summary); err == nil {
		h.cache.Set(ctx, cacheKey, data, summaryCacheTTL)
	}

	writeJSON(w, http.StatusOK, summary)
}

// StudyTime returns daily study totals for a named window (week, month, all).
func (h *AnalyticsHandler) StudyTime(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()

	window := r.URL.Query().Get("range")
	rng := analytics.RangeForWindow(window, time.Now())

	sessions, err := h.sessionRepo.ListByRange(r.Context(), userID, &rng)
	if err != nil {
		log.Printf("analytics: study time for %s: %v", userID, err)
		sessions = nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"study_time": analytics.DailyStudyTime(sessions),
	})
}

// ChapterProgress returns the (chapter label, percentage) chart data.
func (h *AnalyticsHandler) ChapterProgress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()

	rows, err := h.progressRepo.ListChapterProgress(r.Context(), userID)
	if err != nil {
		log.Printf("analytics: chapter progress for %s: %v", userID, err)
		rows = nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"progress": analytics.ChapterProgressChart(rows),
	})
}

// CourseProgress returns per-course analytics plus the metric cards.
func (h *AnalyticsHandler) CourseProgress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()

	rows, err := h.progressRepo.ListCourseProgress(r.Context(), userID)
	if err != nil {
		log.Printf("analytics: course progress for %s: %v", userID, err)
		rows = nil
	}
	courses := analytics.CourseAnalyticsList(rows)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"metrics": analytics.PerformanceMetrics(courses),
	})
}

// Distribution returns pie-chart slices of chapters completed per course.
func (h *AnalyticsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()

	rows, err := h.progressRepo.ListCourseProgress(r.Context(), userID)
	if err != nil {
		log.Printf("analytics: distribution for %s: %v", userID, err)
		rows = nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"distribution": analytics.CourseDistribution(analytics.CourseAnalyticsList(rows)),
	})
}

// Sessions lists raw sessions, optionally filtered to an inclusive
// [start, end] window on the session start date.
func (h *AnalyticsHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()

	start, hasStart, err := parseDateParam(r, "start")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid start date. Use YYYY-MM-DD", r))
		return
	}
	end, hasEnd, err := parseDateParam(r, "end")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid end date. Use YYYY-MM-DD", r))
		return
	}

	var rng *models.DateRange
	if hasStart && hasEnd {
		rng = inclusiveDateRange(start, end)
	} else if hasStart != hasEnd {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "start and end must be supplied together", r))
		return
	}

	sessions, err := h.sessionRepo.ListByRange(r.Context(), userID, rng)
	if err != nil {
		log.Printf("analytics: sessions for %s: %v", userID, err)
		sessions = nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// inclusiveDateRange widens two date-only bounds into a [start, end] window
// that covers the end date through its last second, so a session started at
// any time on the end date still falls inside the window.
func inclusiveDateRange(start, end time.Time) *models.DateRange {
	return &models.DateRange{
		Start: start,
		End:   end.Add(24*time.Hour - time.Second),
	}
}

// Insights returns qualitative learning insights.
func (h *AnalyticsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()

	list, err := h.insights.Insights(r.Context(), userID)
	if err != nil {
		log.Printf("analytics: insights for %s: %v", userID, err)
		list = nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": list})
}

// Patterns returns study-habit observations.
func (h *AnalyticsHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context()).String()

	list, err := h.patterns.Patterns(r.Context(), userID)
	if err != nil {
		log.Printf("analytics: patterns for %s: %v", userID, err)
		list = nil
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"patterns": list})
}
