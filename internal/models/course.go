package models

import (
	"encoding/json"
)

// Course is a row in course_list. The serial row id is internal; callers
// outside the store address courses by the external CourseID string.
type Course struct {
	RowID        int64           `json:"id"`
	CourseID     string          `json:"course_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Level        string          `json:"level"`
	CourseOutput json.RawMessage `json:"course_output"`
	IsVideo      string          `json:"is_video"`
	CreatedBy    string          `json:"created_by"`
	CourseBanner *string         `json:"course_banner"`
	IsPublished  bool            `json:"is_published"`
}

// Chapter is a row in course_chapters. ChapterNum is the chapter's position
// within its course; RowID is the internal key referenced by analytics rows.
type Chapter struct {
	RowID      int64           `json:"id"`
	CourseID   string          `json:"course_id"`
	ChapterNum int             `json:"chapter_id"`
	Content    json.RawMessage `json:"content"`
	VideoID    string          `json:"video_id"`
}

type CreateCourseRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	Level         string `json:"level"`
	Description   string `json:"description"`
	TotalChapters int    `json:"total_chapters"`
	IncludeVideo  bool   `json:"include_video"`
}

// CourseOutline is the shape the generation service produces for course_output.
type CourseOutline struct {
	Topic       string           `json:"topic"`
	Category    string           `json:"category"`
	Level       string           `json:"level"`
	Description string           `json:"description"`
	Duration    string           `json:"duration"`
	Chapters    []OutlineChapter `json:"chapters"`
}

type OutlineChapter struct {
	ChapterName string `json:"chapter_name"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}
