// Package model defines the core domain models used throughout the engine.
package model

// InferenceMethod indicates which tier of the cascade produced a result.
type InferenceMethod string

// Inference method constants.
const (
	MethodUserLearning    InferenceMethod = "user_learning"
	MethodKeywordMatching InferenceMethod = "keyword_matching"
	MethodAIInference     InferenceMethod = "ai_inference"
)

// InferenceResult is the outcome of categorizing one description. It is
// ephemeral; only the learning store persists state.
type InferenceResult struct {
	Method          InferenceMethod
	Reasoning       string
	MatchedKeywords []string
	CategoryID      int
	Confidence      float64
}

// Suggestion is one entry of the ranked list shown to the user for
// confirmation. Exactly one suggestion in a list is primary.
type Suggestion struct {
	Category   Category
	Confidence float64
	IsPrimary  bool
}
