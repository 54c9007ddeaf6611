package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ldelgado/gastobot/internal/common"
	"github.com/ldelgado/gastobot/internal/model"
	"github.com/ldelgado/gastobot/internal/service"
)

// Config holds configuration for the LLM classifier.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// Classifier wraps an LLM client with caching, rate limiting and retry.
// It is the production implementation of the engine's AI tier.
type Classifier struct {
	client      Client
	cache       *responseCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewClassifier creates a new LLM-based classifier.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		client, err = newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Classifier{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// NewClassifierWithClient builds a classifier around an existing client.
// Used by tests to substitute a fake transport.
func NewClassifierWithClient(client Client, logger *slog.Logger) *Classifier {
	return &Classifier{
		client:      client,
		cache:       newResponseCache(time.Minute),
		logger:      logger,
		retryOpts:   service.RetryOptions{MaxAttempts: 1},
		rateLimiter: newRateLimiter(0),
	}
}

// Classify asks the LLM for a category slug and confidence for one
// description. Results are cached by description and amount.
func (c *Classifier) Classify(ctx context.Context, description string, amount *float64, categories []model.Category) (string, float64, string, error) {
	key := cacheKey(description, amount)
	if cached, found := c.cache.get(key); found {
		c.logger.Debug("cache hit for description", "description", description)
		return cached.CategorySlug, cached.Confidence, cached.Reasoning, nil
	}

	if err := c.rateLimiter.wait(ctx); err != nil {
		return "", 0, "", fmt.Errorf("rate limit error: %w", err)
	}

	prompt := buildPrompt(description, amount, categories)

	var response ClassificationResponse
	err := common.WithRetry(ctx, func() error {
		resp, classifyErr := c.client.Classify(ctx, prompt)
		if classifyErr != nil {
			c.logger.Warn("LLM classification attempt failed",
				"error", classifyErr,
				"description", description)
			return &common.RetryableError{Err: classifyErr, Retryable: true}
		}
		response = resp
		return nil
	}, c.retryOpts)

	if err != nil {
		return "", 0, "", fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	c.cache.set(key, response)

	c.logger.Info("description classified by AI",
		"category", response.CategorySlug,
		"confidence", response.Confidence)

	return response.CategorySlug, response.Confidence, response.Reasoning, nil
}

// Close stops background goroutines and cleans up resources.
func (c *Classifier) Close() error {
	if c.cache != nil {
		c.cache.Close()
	}
	return nil
}

// buildPrompt creates the classification prompt.
func buildPrompt(description string, amount *float64, categories []model.Category) string {
	var categoryList strings.Builder
	for _, cat := range categories {
		categoryList.WriteString(fmt.Sprintf("- %s: %s\n", cat.Slug, cat.Name))
	}

	details := fmt.Sprintf("Description: %s", description)
	if amount != nil {
		details += fmt.Sprintf("\nAmount: $%.2f MXN", *amount)
	}

	return fmt.Sprintf(`Classify this expense into the most appropriate category based solely on its description and amount. Descriptions may mix Spanish and English.

Available categories (slug: name):
%s
Expense:
%s

Respond with a JSON object:
{"category_slug": "<slug from the list>", "confidence": <0.0-1.0>, "reasoning": "<one short sentence>"}

Use "uncategorized" with a low confidence if nothing fits.`,
		categoryList.String(),
		details)
}

func cacheKey(description string, amount *float64) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(description))))
	if amount != nil {
		fmt.Fprintf(h, "|%.2f", *amount)
	}
	return hex.EncodeToString(h.Sum(nil))
}
