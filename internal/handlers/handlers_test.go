package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studypath-backend/internal/middleware"
	"studypath-backend/internal/models"
	"studypath-backend/internal/services"
)

// ─── Response Helper Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "Created"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["message"] != "Created" {
		t.Errorf("Expected message 'Created', got %q", result["message"])
	}
}

func TestErrorResp_CarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary", nil)
	req.Header.Set("X-Request-ID", "req-123")

	resp := errorResp("NOT_FOUND", "Course not found", req)

	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected code NOT_FOUND, got %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("Expected request id 'req-123', got %q", resp.Error.RequestID)
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		code     string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "Email already registered"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "User not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid credentials"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "Not yours"}, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.expected {
				t.Errorf("Expected status %d, got %d", tc.expected, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Error.Code != tc.code {
				t.Errorf("Expected code %q, got %q", tc.code, resp.Error.Code)
			}
		})
	}
}

// ─── Query Param Tests ───

func TestParseDateParam(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		found   bool
		wantErr bool
	}{
		{"valid date", "/api/v1/analytics/sessions?start=2026-08-29", true, false},
		{"missing param", "/api/v1/analytics/sessions", false, false},
		{"malformed date", "/api/v1/analytics/sessions?start=29/08/2026", false, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)

			parsed, found, err := parseDateParam(req, "start")
			if tc.wantErr {
				if err == nil {
					t.Error("Expected a parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if found != tc.found {
				t.Errorf("Expected found=%v, got %v", tc.found, found)
			}
			if found && parsed.Format("2006-01-02") != "2026-08-29" {
				t.Errorf("Expected 2026-08-29, got %s", parsed.Format("2006-01-02"))
			}
		})
	}
}

// ─── Auth Handler Tests ───

func TestAuthHandler_InvalidBody(t *testing.T) {
	h := NewAuthHandler(nil)

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
		path    string
	}{
		{"register", h.Register, "/api/v1/auth/register"},
		{"login", h.Login, "/api/v1/auth/login"},
		{"refresh", h.Refresh, "/api/v1/auth/refresh"},
		{"logout", h.Logout, "/api/v1/auth/logout"},
	}

	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, ep.path, bytes.NewReader([]byte("{not json")))
			rr := httptest.NewRecorder()

			ep.handler(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rr.Code)
			}
		})
	}
}

// ─── Analytics Handler Tests ───

func withUser(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, uuid.New())
	return req.WithContext(ctx)
}

func TestAnalyticsSessions_InvalidDateParams(t *testing.T) {
	h := &AnalyticsHandler{}

	tests := []struct {
		name string
		url  string
	}{
		{"malformed start", "/api/v1/analytics/sessions?start=bad&end=2026-08-29"},
		{"malformed end", "/api/v1/analytics/sessions?start=2026-08-01&end=bad"},
		{"start without end", "/api/v1/analytics/sessions?start=2026-08-01"},
		{"end without start", "/api/v1/analytics/sessions?end=2026-08-29"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodGet, tc.url, nil))
			rr := httptest.NewRecorder()

			h.Sessions(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rr.Code)
			}
		})
	}
}

// ─── Job Handler Tests ───

func TestJobHandler_InvalidJobID(t *testing.T) {
	h := NewJobHandler(nil)

	r := chi.NewRouter()
	r.Get("/jobs/{jobID}", h.Get)

	req := withUser(httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil))
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected code VALIDATION_ERROR, got %q", resp.Error.Code)
	}
}

// ─── Course Handler Tests ───

func TestCourseCreate_Validation(t *testing.T) {
	h := NewCourseHandler(nil, nil, nil, nil, nil)

	tests := []struct {
		name string
		body models.CreateCourseRequest
	}{
		{"missing name", models.CreateCourseRequest{Category: "Programming", Level: "Beginner", TotalChapters: 5}},
		{"missing category", models.CreateCourseRequest{Name: "Go Basics", Level: "Beginner", TotalChapters: 5}},
		{"zero chapters", models.CreateCourseRequest{Name: "Go Basics", Category: "Programming", Level: "Beginner", TotalChapters: 0}},
		{"too many chapters", models.CreateCourseRequest{Name: "Go Basics", Category: "Programming", Level: "Beginner", TotalChapters: 50}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tc.body)
			req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/courses", bytes.NewReader(jsonBody)))
			rr := httptest.NewRecorder()

			h.Create(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestCompleteChapter_MalformedBody(t *testing.T) {
	// The body check runs before any store access, so nil repos are safe.
	h := NewCourseHandler(nil, nil, nil, nil, nil)
	r := chi.NewRouter()
	r.Post("/courses/{courseID}/chapters/{chapterNum}/complete", h.CompleteChapter)

	req := withUser(httptest.NewRequest(http.MethodPost,
		"/courses/course-1/chapters/3/complete", bytes.NewBufferString(`{not json`)))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed body, got %d", rr.Code)
	}
}
