package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studypath-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// GetChapterProgress returns the progress row for the triple, or nil.
func (r *ProgressRepo) GetChapterProgress(ctx context.Context, userID string, courseRowID, chapterRowID int64) (*models.ChapterProgress, error) {
	var (
		p              models.ChapterProgress
		completionDate *int64
	)
	query := `
		SELECT progress_id, user_id, course_row_id, chapter_row_id, is_completed, time_spent, completion_date, progress_percentage
		FROM chapter_progress
		WHERE user_id = $1 AND course_row_id = $2 AND chapter_row_id = $3
	`
	err := r.pool.QueryRow(ctx, query, userID, courseRowID, chapterRowID).Scan(
		&p.ProgressID, &p.UserID, &p.CourseRowID, &p.ChapterRowID,
		&p.IsCompleted, &p.TimeSpent, &completionDate, &p.ProgressPercentage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if completionDate != nil {
		t := models.EpochToTime(*completionDate)
		p.CompletionDate = &t
	}
	return &p, nil
}

// UpdateChapterProgress writes only the fields present in upd. An update with
// no fields set is a no-op.
func (r *ProgressRepo) UpdateChapterProgress(ctx context.Context, userID string, courseRowID, chapterRowID int64, upd models.ChapterProgressUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.IsCompleted != nil {
		add("is_completed", *upd.IsCompleted)
	}
	if upd.TimeSpent != nil {
		add("time_spent", *upd.TimeSpent)
	}
	if upd.CompletionDate != nil {
		add("completion_date", models.TimeToEpoch(*upd.CompletionDate))
	}
	if upd.ProgressPercentage != nil {
		add("progress_percentage", *upd.ProgressPercentage)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID, courseRowID, chapterRowID)
	query := fmt.Sprintf(
		"UPDATE chapter_progress SET %s WHERE user_id = $%d AND course_row_id = $%d AND chapter_row_id = $%d",
		strings.Join(sets, ", "), len(args)-2, len(args)-1, len(args),
	)

	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

// UpsertChapterProgress creates the row if it does not exist, otherwise
// applies the same partial-update semantics as UpdateChapterProgress.
func (r *ProgressRepo) UpsertChapterProgress(ctx context.Context, userID string, courseRowID, chapterRowID int64, upd models.ChapterProgressUpdate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chapter_progress (user_id, course_row_id, chapter_row_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_row_id, chapter_row_id) DO NOTHING
	`, userID, courseRowID, chapterRowID)
	if err != nil {
		return err
	}
	return r.UpdateChapterProgress(ctx, userID, courseRowID, chapterRowID, upd)
}

// ListChapterProgress returns all chapter progress rows for a user.
func (r *ProgressRepo) ListChapterProgress(ctx context.Context, userID string) ([]models.ChapterProgress, error) {
	query := `
		SELECT progress_id, user_id, course_row_id, chapter_row_id, is_completed, time_spent, completion_date, progress_percentage
		FROM chapter_progress WHERE user_id = $1 ORDER BY course_row_id, chapter_row_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ChapterProgress
	for rows.Next() {
		var (
			p              models.ChapterProgress
			completionDate *int64
		)
		if err := rows.Scan(
			&p.ProgressID, &p.UserID, &p.CourseRowID, &p.ChapterRowID,
			&p.IsCompleted, &p.TimeSpent, &completionDate, &p.ProgressPercentage,
		); err != nil {
			return nil, err
		}
		if completionDate != nil {
			t := models.EpochToTime(*completionDate)
			p.CompletionDate = &t
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetCourseProgress returns the rollup row for (user, course row), or nil.
func (r *ProgressRepo) GetCourseProgress(ctx context.Context, userID string, courseRowID int64) (*models.CourseProgress, error) {
	var (
		p            models.CourseProgress
		lastAccessed *int64
	)
	query := `
		SELECT progress_id, user_id, course_row_id, total_time_spent, completion_percentage, chapters_completed, last_accessed_date, is_completed
		FROM course_progress
		WHERE user_id = $1 AND course_row_id = $2
	`
	err := r.pool.QueryRow(ctx, query, userID, courseRowID).Scan(
		&p.ProgressID, &p.UserID, &p.CourseRowID, &p.TotalTimeSpent,
		&p.CompletionPercentage, &p.ChaptersCompleted, &lastAccessed, &p.IsCompleted,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastAccessed != nil {
		t := models.EpochToTime(*lastAccessed)
		p.LastAccessedDate = &t
	}
	return &p, nil
}

// UpdateCourseProgress writes only the fields present in upd.
func (r *ProgressRepo) UpdateCourseProgress(ctx context.Context, userID string, courseRowID int64, upd models.CourseProgressUpdate) error {
	var (
		sets []string
		args []interface{}
	)
	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.TotalTimeSpent != nil {
		add("total_time_spent", *upd.TotalTimeSpent)
	}
	if upd.CompletionPercentage != nil {
		add("completion_percentage", *upd.CompletionPercentage)
	}
	if upd.ChaptersCompleted != nil {
		add("chapters_completed", *upd.ChaptersCompleted)
	}
	if upd.LastAccessedDate != nil {
		add("last_accessed_date", models.TimeToEpoch(*upd.LastAccessedDate))
	}
	if upd.IsCompleted != nil {
		add("is_completed", *upd.IsCompleted)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID, courseRowID)
	query := fmt.Sprintf(
		"UPDATE course_progress SET %s WHERE user_id = $%d AND course_row_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	_, err := r.pool.Exec(ctx, query, args...)
	return err
}

// UpsertCourseProgress creates the rollup row if missing, then applies upd.
func (r *ProgressRepo) UpsertCourseProgress(ctx context.Context, userID string, courseRowID int64, upd models.CourseProgressUpdate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO course_progress (user_id, course_row_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, course_row_id) DO NOTHING
	`, userID, courseRowID)
	if err != nil {
		return err
	}
	return r.UpdateCourseProgress(ctx, userID, courseRowID, upd)
}

// ListCourseProgress returns all course rollup rows for a user.
func (r *ProgressRepo) ListCourseProgress(ctx context.Context, userID string) ([]models.CourseProgress, error) {
	query := `
		SELECT progress_id, user_id, course_row_id, total_time_spent, completion_percentage, chapters_completed, last_accessed_date, is_completed
		FROM course_progress WHERE user_id = $1 ORDER BY course_row_id
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.CourseProgress
	for rows.Next() {
		var (
			p            models.CourseProgress
			lastAccessed *int64
		)
		if err := rows.Scan(
			&p.ProgressID, &p.UserID, &p.CourseRowID, &p.TotalTimeSpent,
			&p.CompletionPercentage, &p.ChaptersCompleted, &lastAccessed, &p.IsCompleted,
		); err != nil {
			return nil, err
		}
		if lastAccessed != nil {
			t := models.EpochToTime(*lastAccessed)
			p.LastAccessedDate = &t
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
