// Package llm implements the external AI classification capability used
// as the cascade's tier of last resort.
package llm

import "context"

// ClassificationResponse is the parsed answer from the AI collaborator.
type ClassificationResponse struct {
	CategorySlug string  `json:"category_slug"`
	Reasoning    string  `json:"reasoning"`
	Confidence   float64 `json:"confidence"`
}

// Client defines the contract for LLM API clients.
type Client interface {
	Classify(ctx context.Context, prompt string) (ClassificationResponse, error)
}
