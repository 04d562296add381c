package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"studypath-backend/internal/models"
)

func TestStudySessionStart_RequiresChapterRow(t *testing.T) {
	// The guard runs before any query, so no pool is needed.
	repo := NewStudySessionRepo(nil)

	err := repo.Start(context.Background(), &models.StudySession{
		UserID:      "user-1",
		CourseRowID: 7,
	})

	if !errors.Is(err, ErrChapterRowRequired) {
		t.Errorf("Expected ErrChapterRowRequired, got %v", err)
	}
}

func TestFinalDuration(t *testing.T) {
	tests := []struct {
		name      string
		startTime int64
		endTime   int64
		expected  int64
	}{
		{"exact difference", 1_700_000_000, 1_700_000_090, 90},
		{"immediate end", 1_700_000_000, 1_700_000_000, 0},
		{"hour-long session", 1_700_000_000, 1_700_003_600, 3600},
		{"clock went backwards", 1_700_000_090, 1_700_000_000, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := finalDuration(tc.startTime, tc.endTime); got != tc.expected {
				t.Errorf("finalDuration(%d, %d) = %d, want %d", tc.startTime, tc.endTime, got, tc.expected)
			}
		})
	}
}

func TestFinalDuration_WholeSeconds(t *testing.T) {
	// Timestamps pass through the epoch-seconds column representation, so
	// sub-second clock offsets never leak into the stored duration.
	start := time.Date(2025, 9, 1, 10, 0, 0, 500_000_000, time.UTC)
	end := start.Add(90*time.Second + 400*time.Millisecond)

	got := finalDuration(models.TimeToEpoch(start), models.TimeToEpoch(end))
	if got != 90 {
		t.Errorf("Expected duration 90, got %d", got)
	}
}
