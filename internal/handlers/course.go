package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studypath-backend/internal/middleware"
	"studypath-backend/internal/models"
	"studypath-backend/internal/repository"
	"studypath-backend/internal/services"
)

const courseGenQueue = "queue:course-generation"

type CourseHandler struct {
	courseRepo   *repository.CourseRepo
	progressRepo *repository.ProgressRepo
	jobRepo      *repository.JobRepo
	video        *services.VideoService
	redis        *redis.Client
}

func NewCourseHandler(
	courseRepo *repository.CourseRepo,
	progressRepo *repository.ProgressRepo,
	jobRepo *repository.JobRepo,
	video *services.VideoService,
	redisClient *redis.Client,
) *CourseHandler {
	return &CourseHandler{
		courseRepo:   courseRepo,
		progressRepo: progressRepo,
		jobRepo:      jobRepo,
		video:        video,
		redis:        redisClient,
	}
}

// Create inserts the course shell and queues generation of its content.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "name and category are required", r))
		return
	}
	if req.TotalChapters < 1 || req.TotalChapters > 20 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "total_chapters must be between 1 and 20", r))
		return
	}

	isVideo := "No"
	if req.IncludeVideo {
		isVideo = "Yes"
	}

	course := &models.Course{
		CourseID:     uuid.NewString(),
		Name:         req.Name,
		Category:     req.Category,
		Level:        req.Level,
		CourseOutput: json.RawMessage("{}"),
		IsVideo:      isVideo,
		CreatedBy:    userID.String(),
	}
	if err := h.courseRepo.Create(r.Context(), course); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create course", r))
		return
	}

	job := &models.GenerationJob{
		UserID:      userID,
		CourseRowID: course.RowID,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create generation job", r))
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"job_id":    job.ID,
		"course_id": course.CourseID,
		"request":   req,
	})
	if err := h.redis.LPush(r.Context(), courseGenQueue, string(payload)).Err(); err != nil {
		log.Printf("course: enqueue generation job %s: %v", job.ID, err)
		h.jobRepo.MarkFailed(r.Context(), job.ID, "failed to enqueue generation")
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"course": course,
		"job_id": job.ID,
	})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	course, err := h.courseRepo.GetByCourseID(r.Context(), courseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load course", r))
		return
	}
	if course == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}

	chapters, err := h.courseRepo.ListChapters(r.Context(), courseID)
	if err != nil {
		log.Printf("course: list chapters for %q: %v", courseID, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"course":   course,
		"chapters": chapters,
	})
}

func (h *CourseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	courses, err := h.courseRepo.ListByCreator(r.Context(), userID.String())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load courses", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

func (h *CourseHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID := chi.URLParam(r, "courseID")

	course, err := h.courseRepo.GetByCourseID(r.Context(), courseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load course", r))
		return
	}
	if course == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}
	if course.CreatedBy != userID.String() {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Only the course creator can publish it", r))
		return
	}

	if err := h.courseRepo.SetPublished(r.Context(), courseID, true); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to publish course", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Course published"})
}

func (h *CourseHandler) GetChapter(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	chapterNum, err := strconv.Atoi(chi.URLParam(r, "chapterNum"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chapter number", r))
		return
	}

	chapter, err := h.courseRepo.GetChapter(r.Context(), courseID, chapterNum)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chapter", r))
		return
	}
	if chapter == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chapter not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chapter": chapter})
}

// CompleteChapter marks a chapter done for the caller and refreshes the
// course rollup row from the chapter rows.
func (h *CourseHandler) CompleteChapter(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID := chi.URLParam(r, "courseID")
	chapterNum, err := strconv.Atoi(chi.URLParam(r, "chapterNum"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chapter number", r))
		return
	}

	var req struct {
		TimeSpent int `json:"time_spent"`
	}
	// The body is optional, but a present body must be valid JSON.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	courseRowID, err := h.courseRepo.FindCourseRowID(r.Context(), courseID)
	if err != nil || courseRowID == 0 {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}
	chapterRowID, err := h.courseRepo.FindChapterRowID(r.Context(), courseID, chapterNum)
	if err != nil || chapterRowID == 0 {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chapter not found", r))
		return
	}

	now := time.Now()
	completed := true
	hundred := 100
	upd := models.ChapterProgressUpdate{
		IsCompleted:        &completed,
		CompletionDate:     &now,
		ProgressPercentage: &hundred,
	}
	if req.TimeSpent > 0 {
		upd.TimeSpent = &req.TimeSpent
	}
	if err := h.progressRepo.UpsertChapterProgress(r.Context(), userID.String(), courseRowID, chapterRowID, upd); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record completion", r))
		return
	}

	if err := h.refreshCourseRollup(r, userID.String(), courseID, courseRowID); err != nil {
		log.Printf("course: refresh rollup for %q: %v", courseID, err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chapter completed"})
}

// refreshCourseRollup recomputes the course_progress row from the user's
// chapter rows for this course.
func (h *CourseHandler) refreshCourseRollup(r *http.Request, userID, courseID string, courseRowID int64) error {
	ctx := r.Context()

	chapters, err := h.courseRepo.ListChapters(ctx, courseID)
	if err != nil {
		return err
	}
	progress, err := h.progressRepo.ListChapterProgress(ctx, userID)
	if err != nil {
		return err
	}

	completedCount := 0
	totalTime := 0
	for _, p := range progress {
		if p.CourseRowID != courseRowID {
			continue
		}
		if p.IsCompleted {
			completedCount++
		}
		if p.TimeSpent != nil {
			totalTime += *p.TimeSpent
		}
	}

	pct := 0
	if len(chapters) > 0 {
		pct = completedCount * 100 / len(chapters)
	}
	allDone := len(chapters) > 0 && completedCount >= len(chapters)
	now := time.Now()

	return h.progressRepo.UpsertCourseProgress(ctx, userID, courseRowID, models.CourseProgressUpdate{
		TotalTimeSpent:       &totalTime,
		CompletionPercentage: &pct,
		ChaptersCompleted:    &completedCount,
		LastAccessedDate:     &now,
		IsCompleted:          &allDone,
	})
}

// ValidateVideo checks a YouTube reference before it is attached to a chapter.
func (h *CourseHandler) ValidateVideo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	videoID, err := h.video.ExtractVideoID(req.URL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid YouTube URL", r))
		return
	}

	meta, err := h.video.Lookup(r.Context(), videoID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Video is not available", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"metadata": meta,
	})
}
