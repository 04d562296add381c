package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"studypath-backend/internal/middleware"
	"studypath-backend/internal/models"
	"studypath-backend/internal/repository"
)

type StudySessionHandler struct {
	sessionRepo *repository.StudySessionRepo
	courseRepo  *repository.CourseRepo
}

func NewStudySessionHandler(sessionRepo *repository.StudySessionRepo, courseRepo *repository.CourseRepo) *StudySessionHandler {
	return &StudySessionHandler{sessionRepo: sessionRepo, courseRepo: courseRepo}
}

// Start opens a session for a (course, chapter) viewing context. The chapter
// is mandatory here: sessions cannot exist without a chapter row.
func (h *StudySessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		CourseID    string  `json:"course_id"`
		ChapterID   int     `json:"chapter_id"`
		SessionType *string `json:"session_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	courseRowID, err := h.courseRepo.FindCourseRowID(r.Context(), req.CourseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to resolve course", r))
		return
	}
	if courseRowID == 0 {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}

	var chapterRowID int64
	if req.ChapterID > 0 {
		chapterRowID, err = h.courseRepo.FindChapterRowID(r.Context(), req.CourseID, req.ChapterID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to resolve chapter", r))
			return
		}
	}

	session := &models.StudySession{
		UserID:       userID.String(),
		CourseRowID:  courseRowID,
		ChapterRowID: chapterRowID,
		SessionType:  req.SessionType,
	}
	if err := h.sessionRepo.Start(r.Context(), session); err != nil {
		if errors.Is(err, repository.ErrChapterRowRequired) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "A resolvable chapter_id is required to start a session", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start study session", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"session": session})
}

// UpdateDuration overwrites the session's duration with the client-computed
// elapsed seconds. Used by clients that run their own periodic tick.
func (h *StudySessionHandler) UpdateDuration(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Duration int `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Duration < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "duration must be a non-negative integer", r))
		return
	}

	if err := h.sessionRepo.UpdateDuration(r.Context(), session.SessionID, req.Duration); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update study session", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Duration recorded"})
}

// Stop finalizes the session. The final duration is recomputed server-side
// from the stored start time.
func (h *StudySessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	if err := h.sessionRepo.End(r.Context(), session.SessionID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to stop study session", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Study session stopped"})
}

// Active returns the most recently started session for a viewing context.
func (h *StudySessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	courseID := r.URL.Query().Get("course_id")
	chapterNum, _ := strconv.Atoi(r.URL.Query().Get("chapter_id"))
	if courseID == "" || chapterNum < 1 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "course_id and chapter_id are required", r))
		return
	}

	courseRowID, err := h.courseRepo.FindCourseRowID(r.Context(), courseID)
	if err != nil || courseRowID == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": nil})
		return
	}
	chapterRowID, err := h.courseRepo.FindChapterRowID(r.Context(), courseID, chapterNum)
	if err != nil || chapterRowID == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"session": nil})
		return
	}

	session, err := h.sessionRepo.GetActive(r.Context(), userID.String(), courseRowID, chapterRowID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// ownedSession loads the URL's session and checks it belongs to the caller.
func (h *StudySessionHandler) ownedSession(w http.ResponseWriter, r *http.Request) (*models.StudySession, bool) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return nil, false
	}

	session, err := h.sessionRepo.GetByID(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return nil, false
	}
	if session == nil || session.UserID != userID.String() {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return nil, false
	}
	return session, true
}

// parseDateParam reads an optional YYYY-MM-DD query parameter.
func parseDateParam(r *http.Request, key string) (time.Time, bool, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
