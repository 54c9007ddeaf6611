// Package learning implements the per-user learning store: weighted
// keyword-to-category associations built from confirmed classifications.
package learning

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ldelgado/gastobot/internal/model"
	"github.com/ldelgado/gastobot/internal/service"
	"github.com/ldelgado/gastobot/internal/textnorm"
)

// Config holds the tuning constants of the learning store. The defaults
// are product-tuned values; change them through configuration, not here.
type Config struct {
	KeywordBaseWeight  float64
	KeywordStep        float64
	MerchantBaseWeight float64
	MerchantStep       float64
	WeightCap          float64
	CoverageBlend      float64
	StrengthBlend      float64
	StrengthCap        float64
	DecayFactor        float64
	DecayFloor         float64
	EntriesPerKeyword  int
	DecayAgeDays       int
}

// DefaultConfig returns the default learning configuration.
func DefaultConfig() Config {
	return Config{
		KeywordBaseWeight:  1.0,
		KeywordStep:        0.1,
		MerchantBaseWeight: 1.5,
		MerchantStep:       0.2,
		WeightCap:          2.0,
		CoverageBlend:      0.6,
		StrengthBlend:      0.4,
		StrengthCap:        2.0,
		DecayFactor:        0.9,
		DecayFloor:         0.5,
		EntriesPerKeyword:  5,
		DecayAgeDays:       90,
	}
}

// Match is the outcome of a learning-store lookup.
type Match struct {
	MatchedKeywords []string
	CategoryID      int
	Confidence      float64
}

// Store provides lookup, reinforcement, decay and stats over a user's
// learned associations.
type Store struct {
	storage service.Storage
	config  Config
}

// NewStore creates a learning store with the given configuration.
func NewStore(storage service.Storage, config Config) *Store {
	return &Store{
		storage: storage,
		config:  config,
	}
}

// FindBestMatch scores the description's keywords against the user's
// learned associations and returns the strongest category, or nil when
// extraction yields nothing or no entry matches. Confidence blends
// keyword coverage with average keyword strength, capped before
// normalizing so one heavy keyword cannot dominate.
func (s *Store) FindBestMatch(ctx context.Context, userID, description string) (*Match, error) {
	keywords := textnorm.ExtractKeywords(description)
	if len(keywords) == 0 {
		return nil, nil
	}

	type aggregate struct {
		matched     map[string]struct{}
		totalWeight float64
	}
	byCategory := make(map[int]*aggregate)

	for _, keyword := range keywords {
		entries, err := s.storage.GetMatchingEntries(ctx, userID, keyword, s.config.EntriesPerKeyword)
		if err != nil {
			return nil, fmt.Errorf("failed to look up keyword %q: %w", keyword, err)
		}

		for _, entry := range entries {
			agg := byCategory[entry.CategoryID]
			if agg == nil {
				agg = &aggregate{matched: make(map[string]struct{})}
				byCategory[entry.CategoryID] = agg
			}
			agg.totalWeight += entry.Weight
			agg.matched[keyword] = struct{}{}
		}
	}

	if len(byCategory) == 0 {
		return nil, nil
	}

	var best *Match
	for categoryID, agg := range byCategory {
		keywordCount := len(agg.matched)
		coverage := float64(keywordCount) / float64(len(keywords))

		strength := agg.totalWeight / float64(keywordCount)
		if strength > s.config.StrengthCap {
			strength = s.config.StrengthCap
		}
		strength /= s.config.StrengthCap

		confidence := s.config.CoverageBlend*coverage + s.config.StrengthBlend*strength
		if confidence > 1.0 {
			confidence = 1.0
		}

		if best == nil || confidence > best.Confidence ||
			(confidence == best.Confidence && categoryID < best.CategoryID) {
			matched := make([]string, 0, keywordCount)
			for kw := range agg.matched {
				matched = append(matched, kw)
			}
			sort.Strings(matched)

			best = &Match{
				CategoryID:      categoryID,
				Confidence:      confidence,
				MatchedKeywords: matched,
			}
		}
	}

	slog.Debug("learning store match",
		"user_id", userID,
		"category_id", best.CategoryID,
		"confidence", best.Confidence,
		"matched_keywords", len(best.MatchedKeywords),
		"extracted_keywords", len(keywords))

	return best, nil
}

// LearnFromChoice reinforces every extracted keyword toward the confirmed
// category, and the merchant name when one can be extracted. Merchant
// associations start heavier and grow faster because an exact merchant is
// a stronger signal than a generic keyword.
func (s *Store) LearnFromChoice(ctx context.Context, userID, description string, categoryID int) error {
	keywords := textnorm.ExtractKeywords(description)

	keywordParams := service.ReinforcementParams{
		BaseWeight: s.config.KeywordBaseWeight,
		Step:       s.config.KeywordStep,
		Cap:        s.config.WeightCap,
	}
	for _, keyword := range keywords {
		if err := s.storage.UpsertLearningEntry(ctx, userID, keyword, categoryID, keywordParams); err != nil {
			return fmt.Errorf("failed to reinforce keyword %q: %w", keyword, err)
		}
	}

	learned := len(keywords)
	if merchant := textnorm.ExtractMerchant(description); merchant != "" {
		merchantParams := service.ReinforcementParams{
			BaseWeight: s.config.MerchantBaseWeight,
			Step:       s.config.MerchantStep,
			Cap:        s.config.WeightCap,
		}
		merchantKey := model.MerchantKeywordPrefix + strings.ToLower(merchant)
		if err := s.storage.UpsertLearningEntry(ctx, userID, merchantKey, categoryID, merchantParams); err != nil {
			return fmt.Errorf("failed to reinforce merchant %q: %w", merchant, err)
		}
		learned++
	}

	slog.Debug("reinforced learning entries",
		"user_id", userID,
		"category_id", categoryID,
		"entries", learned)

	return nil
}

// DecayUser ages one user's stale associations. Returns the number of
// entries touched.
func (s *Store) DecayUser(ctx context.Context, userID string, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		olderThanDays = s.config.DecayAgeDays
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	return s.storage.DecayLearningEntries(ctx, userID, cutoff, s.config.DecayFactor, s.config.DecayFloor)
}

// Decay ages stale associations for every user in the store. Idempotent
// and safe to re-run; entries at or below the floor are skipped.
func (s *Store) Decay(ctx context.Context, olderThanDays int) (int64, error) {
	users, err := s.storage.ListLearningUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	var total int64
	for _, user := range users {
		affected, err := s.DecayUser(ctx, user, olderThanDays)
		if err != nil {
			return total, fmt.Errorf("failed to decay entries for user %s: %w", user, err)
		}
		total += affected
	}

	slog.Info("decayed learning entries",
		"users", len(users),
		"entries", total,
		"older_than_days", olderThanDays)

	return total, nil
}

// Stats returns aggregate diagnostics for a user's learning store.
func (s *Store) Stats(ctx context.Context, userID string) (*model.LearningStats, error) {
	return s.storage.GetLearningStats(ctx, userID)
}

// Users lists every user with learned associations.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	return s.storage.ListLearningUsers(ctx)
}
