package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"studypath-backend/internal/models"
)

// CourseGenService produces the generated course content blobs: the course
// outline stored in course_output and the per-chapter content sections.
type CourseGenService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewCourseGenService(apiKey string, concurrentReqs int) (*CourseGenService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &CourseGenService{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *CourseGenService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *CourseGenService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *CourseGenService) releaseRate() {
	s.rateChan <- struct{}{}
}

// GenerateOutline asks the model for a chapter-by-chapter course plan.
func (s *CourseGenService) GenerateOutline(ctx context.Context, req models.CreateCourseRequest) (*models.CourseOutline, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`Generate a course outline as JSON with fields:
topic, category, level, description, duration, and chapters (an array of
{chapter_name, description, duration}).

Course name: %s
Category: %s
Level: %s
Description: %s
Number of chapters: %d

Respond with JSON only, no markdown fences.`,
		req.Name, req.Category, req.Level, req.Description, req.TotalChapters)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}

	raw := stripFences(extractText(resp))

	var outline models.CourseOutline
	if err := json.Unmarshal([]byte(raw), &outline); err != nil {
		// Models occasionally wrap the object in prose; retry on the
		// outermost braces before giving up.
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to parse outline JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &outline); err != nil {
			return nil, fmt.Errorf("failed to parse outline JSON: %w", err)
		}
	}

	if len(outline.Chapters) == 0 {
		return nil, fmt.Errorf("outline has no chapters")
	}
	return &outline, nil
}

// GenerateChapterContent produces the content blob for one chapter of an
// outline: an array of {title, explanation, code_examples} sections.
func (s *CourseGenService) GenerateChapterContent(ctx context.Context, topic string, chapter models.OutlineChapter) (json.RawMessage, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`Write learning content for one chapter of a course on %q.
Chapter: %s
Chapter description: %s

Respond with a JSON array of sections, each {title, explanation,
code_examples} where code_examples is an optional array of {code: [lines]}.
JSON only, no markdown fences.`,
		topic, chapter.ChapterName, chapter.Description)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("chapter generation failed: %w", err)
	}

	raw := stripFences(extractText(resp))

	// Validate before persisting: the blob lands in a jsonb column.
	var sections []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		start := strings.Index(raw, "[")
		end := strings.LastIndex(raw, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to parse chapter JSON: %w", err)
		}
		raw = raw[start : end+1]
		if err := json.Unmarshal([]byte(raw), &sections); err != nil {
			return nil, fmt.Errorf("failed to parse chapter JSON: %w", err)
		}
	}

	return json.RawMessage(raw), nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
