// Package engine orchestrates category inference: a tiered cascade from
// per-user learning through catalog matching to an external AI
// classifier, plus suggestion building for the confirmation UI.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/ldelgado/gastobot/internal/catalog"
	"github.com/ldelgado/gastobot/internal/model"
	"github.com/ldelgado/gastobot/internal/service"
)

// Config holds the cascade thresholds and suggestion tuning. All values
// are product-tuned defaults, overridable through configuration.
type Config struct {
	LearningThreshold   float64
	MatcherThreshold    float64
	HighConfidence      float64
	AITimeout           time.Duration
	SuggestionWindow    time.Duration
	MaxExtraSuggestions int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		LearningThreshold:   0.85,
		MatcherThreshold:    0.75,
		HighConfidence:      0.9,
		AITimeout:           15 * time.Second,
		SuggestionWindow:    30 * 24 * time.Hour,
		MaxExtraSuggestions: 3,
	}
}

// Engine is the inference orchestrator and the module's public surface:
// the surrounding bot calls InferCategory, BuildSuggestions and
// LearnFromChoice; everything else is internal plumbing.
type Engine struct {
	learning   LearningStore
	matcher    CategoryMatcher
	classifier Classifier
	catalog    *catalog.Cache
	storage    service.Storage
	config     Config
}

// New creates an inference engine with default configuration.
func New(store LearningStore, match CategoryMatcher, classifier Classifier, cache *catalog.Cache, storage service.Storage) *Engine {
	return NewWithConfig(store, match, classifier, cache, storage, DefaultConfig())
}

// NewWithConfig creates an inference engine with custom configuration.
func NewWithConfig(store LearningStore, match CategoryMatcher, classifier Classifier, cache *catalog.Cache, storage service.Storage, config Config) *Engine {
	return &Engine{
		learning:   store,
		matcher:    match,
		classifier: classifier,
		catalog:    cache,
		storage:    storage,
		config:     config,
	}
}

// InferCategory runs the cascade and always produces a usable result:
// tier failures degrade to the next tier, and an unreachable AI
// classifier degrades to the uncategorized fallback with zero confidence.
// Classification never blocks the expense-recording pipeline.
func (e *Engine) InferCategory(ctx context.Context, userID, description string, amount *float64) (*model.InferenceResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Tier 1: the user's own learned associations.
	if match, err := e.learning.FindBestMatch(ctx, userID, description); err != nil {
		slog.Warn("learning store lookup failed, falling through",
			"user_id", userID,
			"error", err)
	} else if match != nil && match.Confidence >= e.config.LearningThreshold {
		slog.Info("classified from user learning",
			"user_id", userID,
			"category_id", match.CategoryID,
			"confidence", match.Confidence)
		return &model.InferenceResult{
			CategoryID:      match.CategoryID,
			Confidence:      match.Confidence,
			Method:          model.MethodUserLearning,
			MatchedKeywords: match.MatchedKeywords,
		}, nil
	}

	// Tier 2: global keyword and amount matching.
	if match, err := e.matcher.MatchByKeywords(ctx, description, amount); err != nil {
		slog.Warn("keyword matching failed, falling through", "error", err)
	} else if match != nil && match.Confidence >= e.config.MatcherThreshold {
		slog.Info("classified from keyword matching",
			"category_id", match.CategoryID,
			"confidence", match.Confidence)
		return &model.InferenceResult{
			CategoryID: match.CategoryID,
			Confidence: match.Confidence,
			Method:     model.MethodKeywordMatching,
		}, nil
	}

	// Tier 3: the AI classifier, time-bounded, failure-defaulted.
	return e.classifyWithAI(ctx, userID, description, amount), nil
}

// classifyWithAI delegates to the external classifier. Any failure —
// timeout, network, unknown slug — yields the uncategorized default with
// zero confidence rather than an error.
func (e *Engine) classifyWithAI(ctx context.Context, userID, description string, amount *float64) *model.InferenceResult {
	aiCtx, cancel := context.WithTimeout(ctx, e.config.AITimeout)
	defer cancel()

	categories, err := e.catalog.Categories(aiCtx)
	if err != nil {
		slog.Warn("failed to load catalog for AI classification", "error", err)
		return e.uncategorizedResult(ctx)
	}

	slug, confidence, reasoning, err := e.classifier.Classify(aiCtx, description, amount, categories)
	if err != nil {
		slog.Warn("AI classification failed, using fallback",
			"user_id", userID,
			"error", err)
		return e.uncategorizedResult(ctx)
	}

	category, err := e.catalog.BySlug(ctx, slug)
	if err != nil || category == nil {
		slog.Warn("AI returned unknown category slug, using fallback",
			"slug", slug)
		return e.uncategorizedResult(ctx)
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	slog.Info("classified by AI",
		"user_id", userID,
		"category_id", category.ID,
		"confidence", confidence)

	return &model.InferenceResult{
		CategoryID: category.ID,
		Confidence: confidence,
		Method:     model.MethodAIInference,
		Reasoning:  reasoning,
	}
}

// uncategorizedResult is the safe default when every tier has failed.
func (e *Engine) uncategorizedResult(ctx context.Context) *model.InferenceResult {
	result := &model.InferenceResult{
		Confidence: 0.0,
		Method:     model.MethodAIInference,
	}

	if fallback, err := e.catalog.BySlug(ctx, model.UncategorizedSlug); err == nil && fallback != nil {
		result.CategoryID = fallback.ID
	}

	return result
}

// BuildSuggestions builds the ranked category list for the confirmation
// UI: the primary pick first, then — when confidence is below the high
// mark — up to MaxExtraSuggestions of the user's most-confirmed recent
// categories, then the uncategorized fallback. Exactly one entry is
// primary and no category appears twice.
func (e *Engine) BuildSuggestions(ctx context.Context, userID, description string, categoryID int, confidence float64) ([]model.Suggestion, error) {
	primary, err := e.catalog.ByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		primary, err = e.catalog.BySlug(ctx, model.UncategorizedSlug)
		if err != nil {
			return nil, err
		}
		if primary == nil {
			// Catalog is empty; degrade to nothing rather than erroring.
			slog.Warn("no categories available for suggestions", "user_id", userID)
			return nil, nil
		}
	}

	suggestions := []model.Suggestion{{
		Category:   *primary,
		Confidence: confidence,
		IsPrimary:  true,
	}}
	seen := map[int]struct{}{primary.ID: {}}

	if confidence < e.config.HighConfidence {
		since := time.Now().Add(-e.config.SuggestionWindow)
		usage, usageErr := e.storage.GetCategoryUsage(ctx, userID, since, e.config.MaxExtraSuggestions+1)
		if usageErr != nil {
			slog.Warn("failed to load category usage for suggestions",
				"user_id", userID,
				"error", usageErr)
		}

		added := 0
		for _, u := range usage {
			if added >= e.config.MaxExtraSuggestions {
				break
			}
			if _, dup := seen[u.CategoryID]; dup {
				continue
			}

			cat, catErr := e.catalog.ByID(ctx, u.CategoryID)
			if catErr != nil || cat == nil {
				continue
			}

			suggestions = append(suggestions, model.Suggestion{Category: *cat})
			seen[cat.ID] = struct{}{}
			added++
		}

		if fallback, fbErr := e.catalog.BySlug(ctx, model.UncategorizedSlug); fbErr == nil && fallback != nil {
			if _, dup := seen[fallback.ID]; !dup {
				suggestions = append(suggestions, model.Suggestion{Category: *fallback})
			}
		}
	}

	slog.Debug("built suggestions",
		"user_id", userID,
		"description", description,
		"count", len(suggestions))

	return suggestions, nil
}

// LearnFromChoice records a confirmed expense and reinforces the user's
// learned associations toward the chosen category.
func (e *Engine) LearnFromChoice(ctx context.Context, userID, description string, amount *float64, categoryID int) error {
	expense := &model.Expense{
		UserID:      userID,
		Description: description,
		CategoryID:  categoryID,
	}
	if amount != nil {
		expense.Amount = *amount
	}

	if err := e.storage.SaveExpense(ctx, expense); err != nil {
		return err
	}

	return e.learning.LearnFromChoice(ctx, userID, description, categoryID)
}
