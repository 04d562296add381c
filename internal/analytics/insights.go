package analytics

import (
	"context"

	"studypath-backend/internal/models"
)

// InsightGenerator produces qualitative learning insights for a user. No real
// algorithm is defined yet; implementations plug in here when one is.
type InsightGenerator interface {
	Insights(ctx context.Context, userID string) ([]models.LearningInsight, error)
}

// PatternDetector surfaces study-habit observations for a user.
type PatternDetector interface {
	Patterns(ctx context.Context, userID string) ([]string, error)
}

// StaticInsights returns fixed encouragement text regardless of the user.
type StaticInsights struct{}

func (StaticInsights) Insights(ctx context.Context, userID string) ([]models.LearningInsight, error) {
	return []models.LearningInsight{
		{Title: "Consistent Study", Description: "You have a strong study streak!", Type: "strength"},
		{Title: "Opportunity", Description: "Try to complete more chapters for higher progress.", Type: "opportunity"},
	}, nil
}

func (StaticInsights) Patterns(ctx context.Context, userID string) ([]string, error) {
	return []string{
		"You study most on weekends.",
		"Your average session duration is increasing.",
	}, nil
}
