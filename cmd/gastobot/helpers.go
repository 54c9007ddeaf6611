package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ldelgado/gastobot/internal/catalog"
	"github.com/ldelgado/gastobot/internal/config"
	"github.com/ldelgado/gastobot/internal/engine"
	"github.com/ldelgado/gastobot/internal/learning"
	"github.com/ldelgado/gastobot/internal/llm"
	"github.com/ldelgado/gastobot/internal/matcher"
	"github.com/ldelgado/gastobot/internal/model"
	"github.com/ldelgado/gastobot/internal/storage"
	"github.com/spf13/viper"
)

// setConfigDefaults registers every tunable with its default so config
// files only need to override what they change.
func setConfigDefaults() {
	viper.SetDefault("database.path", "$HOME/.local/share/gastobot/gastobot.db")

	viper.SetDefault("catalog.cache_ttl", "1h")

	defaults := learning.DefaultConfig()
	viper.SetDefault("learning.keyword_base_weight", defaults.KeywordBaseWeight)
	viper.SetDefault("learning.keyword_step", defaults.KeywordStep)
	viper.SetDefault("learning.merchant_base_weight", defaults.MerchantBaseWeight)
	viper.SetDefault("learning.merchant_step", defaults.MerchantStep)
	viper.SetDefault("learning.weight_cap", defaults.WeightCap)
	viper.SetDefault("learning.coverage_blend", defaults.CoverageBlend)
	viper.SetDefault("learning.strength_blend", defaults.StrengthBlend)
	viper.SetDefault("learning.strength_cap", defaults.StrengthCap)
	viper.SetDefault("learning.decay_factor", defaults.DecayFactor)
	viper.SetDefault("learning.decay_floor", defaults.DecayFloor)
	viper.SetDefault("learning.entries_per_keyword", defaults.EntriesPerKeyword)
	viper.SetDefault("learning.decay_age_days", defaults.DecayAgeDays)

	matcherDefaults := matcher.DefaultConfig()
	viper.SetDefault("matcher.whole_word_score", matcherDefaults.WholeWordScore)
	viper.SetDefault("matcher.substring_score", matcherDefaults.SubstringScore)
	viper.SetDefault("matcher.merchant_bonus", matcherDefaults.MerchantBonus)
	viper.SetDefault("matcher.amount_bonus", matcherDefaults.AmountBonus)
	viper.SetDefault("matcher.parent_keyword_score", matcherDefaults.ParentKeywordScore)
	viper.SetDefault("matcher.max_confidence", matcherDefaults.MaxConfidence)

	engineDefaults := engine.DefaultConfig()
	viper.SetDefault("inference.learning_threshold", engineDefaults.LearningThreshold)
	viper.SetDefault("inference.matcher_threshold", engineDefaults.MatcherThreshold)
	viper.SetDefault("inference.high_confidence", engineDefaults.HighConfidence)
	viper.SetDefault("inference.ai_timeout", engineDefaults.AITimeout.String())
	viper.SetDefault("inference.suggestion_window_days", 30)
	viper.SetDefault("inference.max_extra_suggestions", engineDefaults.MaxExtraSuggestions)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.rate_limit", 60)
}

// openStorage opens the configured SQLite database and applies pending
// migrations.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	db, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func learningConfigFromViper() learning.Config {
	return learning.Config{
		KeywordBaseWeight:  viper.GetFloat64("learning.keyword_base_weight"),
		KeywordStep:        viper.GetFloat64("learning.keyword_step"),
		MerchantBaseWeight: viper.GetFloat64("learning.merchant_base_weight"),
		MerchantStep:       viper.GetFloat64("learning.merchant_step"),
		WeightCap:          viper.GetFloat64("learning.weight_cap"),
		CoverageBlend:      viper.GetFloat64("learning.coverage_blend"),
		StrengthBlend:      viper.GetFloat64("learning.strength_blend"),
		StrengthCap:        viper.GetFloat64("learning.strength_cap"),
		DecayFactor:        viper.GetFloat64("learning.decay_factor"),
		DecayFloor:         viper.GetFloat64("learning.decay_floor"),
		EntriesPerKeyword:  viper.GetInt("learning.entries_per_keyword"),
		DecayAgeDays:       viper.GetInt("learning.decay_age_days"),
	}
}

func matcherConfigFromViper() matcher.Config {
	cfg := matcher.DefaultConfig()
	cfg.WholeWordScore = viper.GetFloat64("matcher.whole_word_score")
	cfg.SubstringScore = viper.GetFloat64("matcher.substring_score")
	cfg.MerchantBonus = viper.GetFloat64("matcher.merchant_bonus")
	cfg.AmountBonus = viper.GetFloat64("matcher.amount_bonus")
	cfg.ParentKeywordScore = viper.GetFloat64("matcher.parent_keyword_score")
	cfg.MaxConfidence = viper.GetFloat64("matcher.max_confidence")
	return cfg
}

// amountBandsFromViper loads the band table, falling back to the built-in
// MXN defaults when none is configured.
func amountBandsFromViper() catalog.AmountBands {
	raw := map[string][]float64{}
	if err := viper.UnmarshalKey("matcher.amount_bands", &raw); err != nil || len(raw) == 0 {
		return catalog.DefaultAmountBands()
	}

	bands := make(catalog.AmountBands, len(raw))
	for slug, band := range raw {
		if len(band) != 2 {
			continue
		}
		bands[slug] = catalog.AmountBand{Min: band[0], Max: band[1]}
	}
	if len(bands) == 0 {
		return catalog.DefaultAmountBands()
	}
	return bands
}

func engineConfigFromViper() engine.Config {
	return engine.Config{
		LearningThreshold:   viper.GetFloat64("inference.learning_threshold"),
		MatcherThreshold:    viper.GetFloat64("inference.matcher_threshold"),
		HighConfidence:      viper.GetFloat64("inference.high_confidence"),
		AITimeout:           viper.GetDuration("inference.ai_timeout"),
		SuggestionWindow:    time.Duration(viper.GetInt("inference.suggestion_window_days")) * 24 * time.Hour,
		MaxExtraSuggestions: viper.GetInt("inference.max_extra_suggestions"),
	}
}

// unavailableClassifier stands in when no LLM credentials are
// configured; the engine degrades to the uncategorized fallback.
type unavailableClassifier struct{}

func (unavailableClassifier) Classify(_ context.Context, _ string, _ *float64, _ []model.Category) (string, float64, string, error) {
	return "", 0, "", fmt.Errorf("no LLM provider configured")
}

// buildEngine wires storage, catalog cache, learning store, matcher and
// classifier into an inference engine. The returned cleanup closes any
// background resources.
func buildEngine(db *storage.SQLiteStorage) (*engine.Engine, func(), error) {
	cache := catalog.NewCache(db, viper.GetDuration("catalog.cache_ttl"))
	store := learning.NewStore(db, learningConfigFromViper())
	match := matcher.New(cache, amountBandsFromViper(), matcherConfigFromViper())

	cleanup := func() {}
	var classifier engine.Classifier = unavailableClassifier{}

	if apiKey := viper.GetString("llm.api_key"); apiKey != "" {
		llmClassifier, err := llm.NewClassifier(llm.Config{
			Provider:  viper.GetString("llm.provider"),
			APIKey:    apiKey,
			Model:     viper.GetString("llm.model"),
			RateLimit: viper.GetInt("llm.rate_limit"),
		}, slog.Default())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create LLM classifier: %w", err)
		}
		classifier = llmClassifier
		cleanup = func() { _ = llmClassifier.Close() }
	} else {
		slog.Debug("no LLM API key configured, AI tier disabled")
	}

	eng := engine.NewWithConfig(store, match, classifier, cache, db, engineConfigFromViper())
	return eng, cleanup, nil
}
