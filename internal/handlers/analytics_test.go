package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studypath-backend/internal/models"
)

// fakeSessionStore filters like the database does: start_time BETWEEN the
// range bounds, both ends inclusive, compared as epoch seconds.
type fakeSessionStore struct {
	sessions []models.StudySession
}

func (f *fakeSessionStore) ListByRange(ctx context.Context, userID string, rng *models.DateRange) ([]models.StudySession, error) {
	var out []models.StudySession
	for _, s := range f.sessions {
		if rng != nil {
			ts := models.TimeToEpoch(s.StartTime)
			if ts < models.TimeToEpoch(rng.Start) || ts > models.TimeToEpoch(rng.End) {
				continue
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func sessionAt(t *testing.T, value string) models.StudySession {
	t.Helper()
	start, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", value, err)
	}
	return models.StudySession{UserID: "user-1", StartTime: start.UTC()}
}

func TestInclusiveDateRange(t *testing.T) {
	start := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC)

	rng := inclusiveDateRange(start, end)

	if !rng.Start.Equal(start) {
		t.Errorf("Expected range start %v, got %v", start, rng.Start)
	}
	expectedEnd := time.Date(2025, 9, 4, 23, 59, 59, 0, time.UTC)
	if !rng.End.Equal(expectedEnd) {
		t.Errorf("Expected range end %v, got %v", expectedEnd, rng.End)
	}
}

func TestAnalyticsSessions_InclusiveWindow(t *testing.T) {
	// One session per day, Sep 1 through Sep 5. The Sep 4 session starts in
	// the evening, so it only survives if the end bound covers the full day.
	store := &fakeSessionStore{sessions: []models.StudySession{
		sessionAt(t, "2025-09-01 23:59:59"),
		sessionAt(t, "2025-09-02 00:00:00"),
		sessionAt(t, "2025-09-03 12:00:00"),
		sessionAt(t, "2025-09-04 18:30:00"),
		sessionAt(t, "2025-09-05 00:00:00"),
	}}
	h := &AnalyticsHandler{sessionRepo: store}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/sessions?start=2025-09-02&end=2025-09-04", nil))
	rr := httptest.NewRecorder()
	h.Sessions(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var result struct {
		Sessions []models.StudySession `json:"sessions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Sessions) != 3 {
		t.Fatalf("Expected 3 sessions in the window, got %d", len(result.Sessions))
	}
	for _, s := range result.Sessions {
		day := s.StartTime.UTC().Format("2006-01-02")
		if day < "2025-09-02" || day > "2025-09-04" {
			t.Errorf("Session on %s is outside the requested window", day)
		}
	}
}

func TestAnalyticsSessions_NoRangeReturnsAll(t *testing.T) {
	store := &fakeSessionStore{sessions: []models.StudySession{
		sessionAt(t, "2025-09-01 10:00:00"),
		sessionAt(t, "2025-09-05 10:00:00"),
	}}
	h := &AnalyticsHandler{sessionRepo: store}

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/sessions", nil))
	rr := httptest.NewRecorder()
	h.Sessions(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var result struct {
		Sessions []models.StudySession `json:"sessions"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Sessions) != 2 {
		t.Errorf("Expected all 2 sessions without a range, got %d", len(result.Sessions))
	}
}
