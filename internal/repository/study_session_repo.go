package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studypath-backend/internal/models"
)

// ErrChapterRowRequired is returned by Start when no chapter row id was
// resolved. The schema mandates the column, so this is the one store failure
// that is surfaced hard instead of degraded to a miss.
var ErrChapterRowRequired = errors.New("chapter row id is required to start a study session")

type StudySessionRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool, now: time.Now}
}

// Start inserts a new open session with start_time = now and fills in the
// generated session id and start time on s.
func (r *StudySessionRepo) Start(ctx context.Context, s *models.StudySession) error {
	if s.ChapterRowID == 0 {
		return ErrChapterRowRequired
	}

	startTime := models.TimeToEpoch(r.now())
	query := `
		INSERT INTO user_study_sessions (user_id, course_row_id, chapter_row_id, start_time, session_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING session_id
	`

	err := r.pool.QueryRow(ctx, query,
		s.UserID, s.CourseRowID, s.ChapterRowID, startTime, s.SessionType,
	).Scan(&s.SessionID)
	if err != nil {
		return err
	}

	s.StartTime = models.EpochToTime(startTime)
	return nil
}

// End finalizes a session: end_time = now, duration = end_time - start_time.
// Ending a session that does not exist is a no-op. Ending always recomputes
// duration from the stored start time, so a racing periodic duration update
// cannot leave a stale final value.
func (r *StudySessionRepo) End(ctx context.Context, sessionID int64) error {
	var startTime int64
	err := r.pool.QueryRow(ctx,
		"SELECT start_time FROM user_study_sessions WHERE session_id = $1", sessionID,
	).Scan(&startTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	endTime := models.TimeToEpoch(r.now())
	duration := finalDuration(startTime, endTime)

	_, err = r.pool.Exec(ctx,
		"UPDATE user_study_sessions SET end_time = $1, duration = $2 WHERE session_id = $3",
		endTime, duration, sessionID,
	)
	return err
}

// finalDuration is the stored duration for a session ending at endTime:
// the whole-second difference from the start, never negative. Clock skew
// between the insert and the update can otherwise produce a negative value.
func finalDuration(startTime, endTime int64) int64 {
	d := endTime - startTime
	if d < 0 {
		return 0
	}
	return d
}

// UpdateDuration overwrites the duration column with a caller-supplied value.
// Used by the periodic tracker tick; it does not recompute from start_time.
func (r *StudySessionRepo) UpdateDuration(ctx context.Context, sessionID int64, seconds int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE user_study_sessions SET duration = $1 WHERE session_id = $2",
		seconds, sessionID,
	)
	return err
}

// GetActive returns the most recently started session for the
// (user, course row, chapter row) triple, or nil when none exists.
func (r *StudySessionRepo) GetActive(ctx context.Context, userID string, courseRowID, chapterRowID int64) (*models.StudySession, error) {
	query := `
		SELECT session_id, user_id, course_row_id, chapter_row_id, start_time, end_time, duration, session_type
		FROM user_study_sessions
		WHERE user_id = $1 AND course_row_id = $2 AND chapter_row_id = $3
		ORDER BY start_time DESC
		LIMIT 1
	`

	s, err := scanSession(r.pool.QueryRow(ctx, query, userID, courseRowID, chapterRowID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID returns a session by its id, or nil when it does not exist.
func (r *StudySessionRepo) GetByID(ctx context.Context, sessionID int64) (*models.StudySession, error) {
	query := `
		SELECT session_id, user_id, course_row_id, chapter_row_id, start_time, end_time, duration, session_type
		FROM user_study_sessions
		WHERE session_id = $1
	`

	s, err := scanSession(r.pool.QueryRow(ctx, query, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByRange returns a user's sessions newest-first. A non-nil range keeps
// only sessions whose start time falls inside the inclusive [Start, End]
// window.
func (r *StudySessionRepo) ListByRange(ctx context.Context, userID string, rng *models.DateRange) ([]models.StudySession, error) {
	query := `
		SELECT session_id, user_id, course_row_id, chapter_row_id, start_time, end_time, duration, session_type
		FROM user_study_sessions
		WHERE user_id = $1
	`
	args := []interface{}{userID}

	if rng != nil {
		query += " AND start_time BETWEEN $2 AND $3"
		args = append(args, models.TimeToEpoch(rng.Start), models.TimeToEpoch(rng.End))
	}
	query += " ORDER BY start_time DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*models.StudySession, error) {
	var (
		s         models.StudySession
		startTime int64
		endTime   *int64
	)
	err := row.Scan(
		&s.SessionID, &s.UserID, &s.CourseRowID, &s.ChapterRowID,
		&startTime, &endTime, &s.Duration, &s.SessionType,
	)
	if err != nil {
		return nil, err
	}

	s.StartTime = models.EpochToTime(startTime)
	if endTime != nil {
		t := models.EpochToTime(*endTime)
		s.EndTime = &t
	}
	return &s, nil
}
