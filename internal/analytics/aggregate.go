// Package analytics holds the pure aggregation helpers that turn raw
// analytics rows into chart-ready shapes. Nothing in here touches the store;
// callers query first and aggregate in-process.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"studypath-backend/internal/models"
)

const dateLayout = "2006-01-02"

// DailyStudyTime groups sessions by the UTC calendar date of their start time
// and sums duration per date. Points come back sorted by date ascending.
func DailyStudyTime(sessions []models.StudySession) []models.StudyTimePoint {
	grouped := make(map[string]int)
	for _, s := range sessions {
		date := s.StartTime.UTC().Format(dateLayout)
		if s.Duration != nil {
			grouped[date] += *s.Duration
		} else {
			grouped[date] += 0
		}
	}

	points := make([]models.StudyTimePoint, 0, len(grouped))
	for date, duration := range grouped {
		points = append(points, models.StudyTimePoint{Date: date, Duration: duration})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// ChapterProgressChart maps each chapter progress row to a (label, percentage)
// pair for the progress bar chart.
func ChapterProgressChart(rows []models.ChapterProgress) []models.ProgressPoint {
	points := make([]models.ProgressPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, models.ProgressPoint{
			Chapter:  fmt.Sprintf("Chapter %d", row.ChapterRowID),
			Progress: row.ProgressPercentage,
		})
	}
	return points
}

// CourseAnalyticsList maps course rollup rows to the per-course analytics
// shape consumed by the dashboard.
func CourseAnalyticsList(rows []models.CourseProgress) []models.CourseAnalytics {
	list := make([]models.CourseAnalytics, 0, len(rows))
	for _, row := range rows {
		totalTime := 0
		if row.TotalTimeSpent != nil {
			totalTime = *row.TotalTimeSpent
		}
		list = append(list, models.CourseAnalytics{
			CourseRowID:          row.CourseRowID,
			TotalTimeSpent:       totalTime,
			CompletionPercentage: row.CompletionPercentage,
			ChaptersCompleted:    row.ChaptersCompleted,
		})
	}
	return list
}

// TotalStudyTime sums session durations. Sessions without a recorded duration
// contribute zero.
func TotalStudyTime(sessions []models.StudySession) int {
	total := 0
	for _, s := range sessions {
		if s.Duration != nil {
			total += *s.Duration
		}
	}
	return total
}

// AverageProgress is the mean completion percentage across courses, 0 for an
// empty set.
func AverageProgress(courses []models.CourseAnalytics) float64 {
	if len(courses) == 0 {
		return 0
	}
	sum := 0
	for _, c := range courses {
		sum += c.CompletionPercentage
	}
	return float64(sum) / float64(len(courses))
}

// CompletionRates returns the per-course (row id, percentage) pairs.
func CompletionRates(courses []models.CourseAnalytics) []models.CompletionRate {
	rates := make([]models.CompletionRate, 0, len(courses))
	for _, c := range courses {
		rates = append(rates, models.CompletionRate{CourseRowID: c.CourseRowID, Rate: c.CompletionPercentage})
	}
	return rates
}

// CourseDistribution prepares pie-chart slices: one slice per course, weighted
// by chapters completed.
func CourseDistribution(courses []models.CourseAnalytics) []models.DistributionPoint {
	points := make([]models.DistributionPoint, 0, len(courses))
	for _, c := range courses {
		points = append(points, models.DistributionPoint{
			Name:  fmt.Sprintf("Course %d", c.CourseRowID),
			Value: c.ChaptersCompleted,
		})
	}
	return points
}

// PerformanceMetrics prepares the dashboard metric cards.
func PerformanceMetrics(courses []models.CourseAnalytics) []models.PerformanceMetric {
	totalTime := 0
	chaptersDone := 0
	for _, c := range courses {
		totalTime += c.TotalTimeSpent
		chaptersDone += c.ChaptersCompleted
	}
	return []models.PerformanceMetric{
		{Label: "Total Study Time", Value: float64(totalTime)},
		{Label: "Avg. Progress", Value: AverageProgress(courses)},
		{Label: "Courses", Value: float64(len(courses))},
		{Label: "Chapters Completed", Value: float64(chaptersDone)},
	}
}

// Streak counts the consecutive-day run of study activity ending at the most
// recent session date. Any gap other than exactly one calendar day breaks the
// run, so the result is at least 1 whenever any session exists and {0, ""}
// otherwise.
func Streak(sessions []models.StudySession) models.StudyStreak {
	seen := make(map[string]bool)
	var dates []string
	for _, s := range sessions {
		date := s.StartTime.UTC().Format(dateLayout)
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return models.StudyStreak{StreakLength: 0, LastActiveDate: ""}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	streak := 1
	for i := 0; i < len(dates)-1; i++ {
		curr, _ := time.Parse(dateLayout, dates[i])
		prev, _ := time.Parse(dateLayout, dates[i+1])
		if curr.Sub(prev) == 24*time.Hour {
			streak++
		} else {
			break
		}
	}

	return models.StudyStreak{StreakLength: streak, LastActiveDate: dates[0]}
}

// RangeForWindow resolves a named dashboard window to a concrete date range
// ending at now. "week" covers the last 7 days, "month" the current calendar
// month; anything else means all time.
func RangeForWindow(window string, now time.Time) models.DateRange {
	var start time.Time
	switch window {
	case "week":
		start = time.Date(now.Year(), now.Month(), now.Day()-6, 0, 0, 0, 0, now.Location())
	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		start = time.Date(2000, time.January, 1, 0, 0, 0, 0, now.Location())
	}
	return models.DateRange{Start: start, End: now}
}
