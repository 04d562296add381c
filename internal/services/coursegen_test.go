package services

import (
	"encoding/json"
	"strings"
	"testing"

	"studypath-backend/internal/models"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json fence", "```json\n{\"topic\":\"Go\"}\n```", `{"topic":"Go"}`},
		{"bare fence", "```\n[1,2]\n```", "[1,2]"},
		{"no fence", `{"topic":"Go"}`, `{"topic":"Go"}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripFences(tc.input); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestOutlineParsing_BraceFallback(t *testing.T) {
	// Mirrors the recovery path in GenerateOutline: prose around the object.
	raw := `Here is your course outline: {"topic":"Go","chapters":[{"chapter_name":"Basics"}]} Hope it helps!`

	var outline models.CourseOutline
	if err := json.Unmarshal([]byte(raw), &outline); err == nil {
		t.Fatal("Expected direct unmarshal to fail for prose-wrapped JSON")
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if err := json.Unmarshal([]byte(raw[start:end+1]), &outline); err != nil {
		t.Fatalf("Fallback unmarshal failed: %v", err)
	}

	if outline.Topic != "Go" {
		t.Errorf("Expected topic 'Go', got %q", outline.Topic)
	}
	if len(outline.Chapters) != 1 || outline.Chapters[0].ChapterName != "Basics" {
		t.Errorf("Unexpected chapters: %+v", outline.Chapters)
	}
}
