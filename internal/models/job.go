package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationJob tracks one course-generation run through the worker pool.
type GenerationJob struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	CourseRowID  int64      `json:"course_row_id"`
	Status       string     `json:"status"` // "pending" | "processing" | "completed" | "failed"
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}
