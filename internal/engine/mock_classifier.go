package engine

import (
	"context"
	"sync"

	"github.com/ldelgado/gastobot/internal/model"
)

// MockClassifier is a configurable Classifier implementation for tests.
type MockClassifier struct {
	Err        error
	Slug       string
	Reasoning  string
	Confidence float64
	calls      int
	mu         sync.Mutex
}

// Classify returns the configured response or error.
func (m *MockClassifier) Classify(_ context.Context, _ string, _ *float64, _ []model.Category) (string, float64, string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return "", 0, "", m.Err
	}
	return m.Slug, m.Confidence, m.Reasoning, nil
}

// Calls returns how many times Classify was invoked.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
