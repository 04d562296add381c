package models

import (
	"time"
)

// StudySession is one continuous observation interval of a user engaging with
// a course chapter. A session with a nil EndTime is still open. Once EndTime
// is set, Duration equals EndTime - StartTime in whole seconds.
type StudySession struct {
	SessionID    int64      `json:"session_id"`
	UserID       string     `json:"user_id"`
	CourseRowID  int64      `json:"course_row_id"`
	ChapterRowID int64      `json:"chapter_row_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Duration     *int       `json:"duration,omitempty"`
	SessionType  *string    `json:"session_type,omitempty"`
}

// ChapterProgress is the per (user, course row, chapter row) completion state.
type ChapterProgress struct {
	ProgressID         int64      `json:"progress_id"`
	UserID             string     `json:"user_id"`
	CourseRowID        int64      `json:"course_row_id"`
	ChapterRowID       int64      `json:"chapter_row_id"`
	IsCompleted        bool       `json:"is_completed"`
	TimeSpent          *int       `json:"time_spent,omitempty"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
}

// CourseProgress is the per (user, course row) rollup.
type CourseProgress struct {
	ProgressID           int64      `json:"progress_id"`
	UserID               string     `json:"user_id"`
	CourseRowID          int64      `json:"course_row_id"`
	TotalTimeSpent       *int       `json:"total_time_spent,omitempty"`
	CompletionPercentage int        `json:"completion_percentage"`
	ChaptersCompleted    int        `json:"chapters_completed"`
	LastAccessedDate     *time.Time `json:"last_accessed_date,omitempty"`
	IsCompleted          bool       `json:"is_completed"`
}

// ChapterProgressUpdate carries a partial update. A nil field is absent and
// leaves the column untouched.
type ChapterProgressUpdate struct {
	IsCompleted        *bool      `json:"is_completed,omitempty"`
	TimeSpent          *int       `json:"time_spent,omitempty"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	ProgressPercentage *int       `json:"progress_percentage,omitempty"`
}

// CourseProgressUpdate carries a partial update. A nil field is absent and
// leaves the column untouched.
type CourseProgressUpdate struct {
	TotalTimeSpent       *int       `json:"total_time_spent,omitempty"`
	CompletionPercentage *int       `json:"completion_percentage,omitempty"`
	ChaptersCompleted    *int       `json:"chapters_completed,omitempty"`
	LastAccessedDate     *time.Time `json:"last_accessed_date,omitempty"`
	IsCompleted          *bool      `json:"is_completed,omitempty"`
}

// DateRange is an inclusive [Start, End] window used to filter sessions by
// their start time.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Chart-ready shapes produced by the aggregation helpers.

type StudyTimePoint struct {
	Date     string `json:"date"` // YYYY-MM-DD, UTC
	Duration int    `json:"duration"`
}

type ProgressPoint struct {
	Chapter  string `json:"chapter"`
	Progress int    `json:"progress"`
}

type DistributionPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type PerformanceMetric struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type CourseAnalytics struct {
	CourseRowID          int64 `json:"course_row_id"`
	TotalTimeSpent       int   `json:"total_time_spent"`
	CompletionPercentage int   `json:"completion_percentage"`
	ChaptersCompleted    int   `json:"chapters_completed"`
}

type CompletionRate struct {
	CourseRowID int64 `json:"course_row_id"`
	Rate        int   `json:"rate"`
}

type StudyStreak struct {
	StreakLength   int    `json:"streak_length"`
	LastActiveDate string `json:"last_active_date"` // YYYY-MM-DD, "" when no sessions
}

type LearningInsight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"` // "strength" | "opportunity" | "trend"
}

type AnalyticsSummary struct {
	TotalStudyTime  int               `json:"total_study_time"`
	AverageProgress float64           `json:"average_progress"`
	CompletionRates []CompletionRate  `json:"completion_rates"`
	StudyStreak     StudyStreak       `json:"study_streak"`
	Insights        []LearningInsight `json:"insights"`
}

// EpochToTime converts an epoch-seconds column value to UTC time.
func EpochToTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

// TimeToEpoch converts a time to the epoch-seconds representation the
// analytics tables persist.
func TimeToEpoch(t time.Time) int64 {
	return t.Unix()
}
