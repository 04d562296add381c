package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studypath-backend/internal/models"
	"studypath-backend/internal/repository"
	"studypath-backend/internal/services"
)

const courseGenQueue = "queue:course-generation"

const maxAttempts = 3

// genTask is the queue payload for one course-generation job.
type genTask struct {
	JobID    uuid.UUID                  `json:"job_id"`
	CourseID string                     `json:"course_id"`
	Request  models.CreateCourseRequest `json:"request"`
	Retry    int                        `json:"retry,omitempty"`
}

// Pool runs the course-generation workers. Each worker blocks on the Redis
// queue, takes a per-job lock so a task popped twice is only processed once,
// and walks a job through outline then chapter generation.
type Pool struct {
	redis       *redis.Client
	coursegen   *services.CourseGenService
	jobRepo     *repository.JobRepo
	courseRepo  *repository.CourseRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	coursegen *services.CourseGenService,
	jobRepo *repository.JobRepo,
	courseRepo *repository.CourseRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		coursegen:   coursegen,
		jobRepo:     jobRepo,
		courseRepo:  courseRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, courseGenQueue).Result()
		if err != nil {
			continue // timeout or transient error, retry
		}
		if len(result) < 2 {
			continue
		}

		var task genTask
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			log.Printf("Worker %d: failed to parse task: %v", id, err)
			continue
		}

		lockKey := "job_lock:" + task.JobID.String()
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // another worker has this job
		}

		log.Printf("Worker %d: generating course %s (job %s)", id, task.CourseID, task.JobID)
		if err := p.jobRepo.SetStatus(ctx, task.JobID, "processing"); err != nil {
			log.Printf("Worker %d: failed to mark job %s processing: %v", id, task.JobID, err)
		}

		if err := p.generate(ctx, &task); err != nil {
			p.handleFailure(ctx, &task, err)
		} else {
			if err := p.jobRepo.MarkCompleted(ctx, task.JobID); err != nil {
				log.Printf("Worker %d: failed to mark job %s completed: %v", id, task.JobID, err)
			}
			log.Printf("Worker %d: course %s generated", id, task.CourseID)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) generate(ctx context.Context, task *genTask) error {
	course, err := p.courseRepo.GetByCourseID(ctx, task.CourseID)
	if err != nil {
		return fmt.Errorf("failed to load course: %w", err)
	}
	if course == nil {
		return fmt.Errorf("course %s no longer exists", task.CourseID)
	}

	outline, err := p.coursegen.GenerateOutline(ctx, task.Request)
	if err != nil {
		return fmt.Errorf("outline generation failed: %w", err)
	}

	outlineJSON, err := json.Marshal(outline)
	if err != nil {
		return fmt.Errorf("failed to encode outline: %w", err)
	}
	if err := p.courseRepo.UpdateOutput(ctx, course.RowID, outlineJSON); err != nil {
		return fmt.Errorf("failed to save outline: %w", err)
	}

	for i, ch := range outline.Chapters {
		content, err := p.coursegen.GenerateChapterContent(ctx, outline.Topic, ch)
		if err != nil {
			return fmt.Errorf("chapter %d generation failed: %w", i+1, err)
		}

		chapter := &models.Chapter{
			CourseID:   course.CourseID,
			ChapterNum: i + 1,
			Content:    content,
		}
		if err := p.courseRepo.CreateChapter(ctx, chapter); err != nil {
			return fmt.Errorf("failed to save chapter %d: %w", i+1, err)
		}
	}

	return p.courseRepo.SetPublished(ctx, course.CourseID, true)
}

func (p *Pool) handleFailure(ctx context.Context, task *genTask, err error) {
	task.Retry++
	errMsg := err.Error()

	if task.Retry < maxAttempts {
		log.Printf("Job %s failed (attempt %d): %s - retrying", task.JobID, task.Retry, errMsg)
		if err := p.jobRepo.SetStatus(ctx, task.JobID, "pending"); err != nil {
			log.Printf("Job %s: failed to mark pending for retry: %v", task.JobID, err)
		}

		taskBytes, _ := json.Marshal(task)
		backoff := time.Duration(1<<uint(task.Retry)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), courseGenQueue, string(taskBytes))
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", task.JobID, errMsg)
	if err := p.jobRepo.MarkFailed(ctx, task.JobID, errMsg); err != nil {
		log.Printf("Job %s: failed to record permanent failure: %v", task.JobID, err)
	}
}
