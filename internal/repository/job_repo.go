package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studypath-backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, job *models.GenerationJob) error {
	job.ID = uuid.New()
	job.Status = "pending"

	query := `
		INSERT INTO generation_jobs (id, user_id, course_row_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		job.ID, job.UserID, job.CourseRowID, job.Status,
	).Scan(&job.CreatedAt)
}

// GetByID returns the job, or nil when it does not exist.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GenerationJob, error) {
	job := &models.GenerationJob{}
	query := `SELECT id, user_id, course_row_id, status, error_message, created_at, completed_at
		FROM generation_jobs WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.CourseRowID, &job.Status,
		&job.ErrorMessage, &job.CreatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE generation_jobs SET status = $1 WHERE id = $2", status, id)
	return err
}

func (r *JobRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE generation_jobs SET status = 'completed', completed_at = $1 WHERE id = $2",
		time.Now(), id)
	return err
}

func (r *JobRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE generation_jobs SET status = 'failed', error_message = $1, completed_at = $2 WHERE id = $3",
		errMsg, time.Now(), id)
	return err
}
