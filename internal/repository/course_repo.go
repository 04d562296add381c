package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studypath-backend/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

// FindCourseRowID resolves an external course identifier to its internal row
// id. A miss returns (0, nil); only store failures return an error.
func (r *CourseRepo) FindCourseRowID(ctx context.Context, courseID string) (int64, error) {
	var rowID int64
	err := r.pool.QueryRow(ctx,
		"SELECT id FROM course_list WHERE course_id = $1", courseID,
	).Scan(&rowID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rowID, nil
}

// FindChapterRowID resolves (external course id, chapter number) to the
// chapter's internal row id. A miss returns (0, nil).
func (r *CourseRepo) FindChapterRowID(ctx context.Context, courseID string, chapterNum int) (int64, error) {
	var rowID int64
	err := r.pool.QueryRow(ctx,
		"SELECT id FROM course_chapters WHERE course_id = $1 AND chapter_id = $2",
		courseID, chapterNum,
	).Scan(&rowID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rowID, nil
}

func (r *CourseRepo) Create(ctx context.Context, c *models.Course) error {
	query := `
		INSERT INTO course_list (course_id, name, category, level, course_output, is_video, created_by, course_banner, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.pool.QueryRow(ctx, query,
		c.CourseID, c.Name, c.Category, c.Level, c.CourseOutput,
		c.IsVideo, c.CreatedBy, c.CourseBanner, c.IsPublished,
	).Scan(&c.RowID)
}

// GetByCourseID returns the course with the given external id, or nil.
func (r *CourseRepo) GetByCourseID(ctx context.Context, courseID string) (*models.Course, error) {
	c := &models.Course{}
	query := `
		SELECT id, course_id, name, category, level, course_output, is_video, created_by, course_banner, is_published
		FROM course_list WHERE course_id = $1
	`
	err := r.pool.QueryRow(ctx, query, courseID).Scan(
		&c.RowID, &c.CourseID, &c.Name, &c.Category, &c.Level,
		&c.CourseOutput, &c.IsVideo, &c.CreatedBy, &c.CourseBanner, &c.IsPublished,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CourseRepo) ListByCreator(ctx context.Context, createdBy string) ([]models.Course, error) {
	query := `
		SELECT id, course_id, name, category, level, course_output, is_video, created_by, course_banner, is_published
		FROM course_list WHERE created_by = $1 ORDER BY id DESC
	`
	rows, err := r.pool.Query(ctx, query, createdBy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(
			&c.RowID, &c.CourseID, &c.Name, &c.Category, &c.Level,
			&c.CourseOutput, &c.IsVideo, &c.CreatedBy, &c.CourseBanner, &c.IsPublished,
		); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *CourseRepo) SetPublished(ctx context.Context, courseID string, published bool) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE course_list SET is_published = $1 WHERE course_id = $2",
		published, courseID,
	)
	return err
}

// UpdateOutput replaces the generated course content blob.
func (r *CourseRepo) UpdateOutput(ctx context.Context, rowID int64, output []byte) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE course_list SET course_output = $1 WHERE id = $2",
		output, rowID,
	)
	return err
}

func (r *CourseRepo) CreateChapter(ctx context.Context, ch *models.Chapter) error {
	query := `
		INSERT INTO course_chapters (course_id, chapter_id, content, video_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.pool.QueryRow(ctx, query,
		ch.CourseID, ch.ChapterNum, ch.Content, ch.VideoID,
	).Scan(&ch.RowID)
}

// GetChapter returns a chapter by (external course id, chapter number), or nil.
func (r *CourseRepo) GetChapter(ctx context.Context, courseID string, chapterNum int) (*models.Chapter, error) {
	ch := &models.Chapter{}
	query := `
		SELECT id, course_id, chapter_id, content, video_id
		FROM course_chapters WHERE course_id = $1 AND chapter_id = $2
	`
	err := r.pool.QueryRow(ctx, query, courseID, chapterNum).Scan(
		&ch.RowID, &ch.CourseID, &ch.ChapterNum, &ch.Content, &ch.VideoID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *CourseRepo) ListChapters(ctx context.Context, courseID string) ([]models.Chapter, error) {
	query := `
		SELECT id, course_id, chapter_id, content, video_id
		FROM course_chapters WHERE course_id = $1 ORDER BY chapter_id
	`
	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var ch models.Chapter
		if err := rows.Scan(&ch.RowID, &ch.CourseID, &ch.ChapterNum, &ch.Content, &ch.VideoID); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}
