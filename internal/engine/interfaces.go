package engine

import (
	"context"

	"github.com/ldelgado/gastobot/internal/learning"
	"github.com/ldelgado/gastobot/internal/matcher"
	"github.com/ldelgado/gastobot/internal/model"
)

// Classifier defines the contract for the external AI classification
// capability. Implementations are assumed unreliable and must be called
// with a timeout; the engine absorbs their failures.
type Classifier interface {
	Classify(ctx context.Context, description string, amount *float64, categories []model.Category) (slug string, confidence float64, reasoning string, err error)
}

// LearningStore defines the per-user tier the engine consults first.
type LearningStore interface {
	FindBestMatch(ctx context.Context, userID, description string) (*learning.Match, error)
	LearnFromChoice(ctx context.Context, userID, description string, categoryID int) error
}

// CategoryMatcher defines the global keyword/amount matching tier.
type CategoryMatcher interface {
	MatchByKeywords(ctx context.Context, description string, amount *float64) (*matcher.Match, error)
}
