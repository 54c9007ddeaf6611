// Package service defines the interfaces for the engine's collaborators.
package service

import (
	"context"
	"time"

	"github.com/ldelgado/gastobot/internal/model"
)

// ReinforcementParams controls how an upsert adjusts a learning entry.
// New entries start at BaseWeight; existing entries gain Step, clamped at
// Cap. The upsert is atomic against the (user, keyword, category) unique
// constraint.
type ReinforcementParams struct {
	BaseWeight float64
	Step       float64
	Cap        float64
}

// Storage defines the contract for the engine's persistence layer.
type Storage interface {
	// Learning entry operations
	UpsertLearningEntry(ctx context.Context, userID, keyword string, categoryID int, params ReinforcementParams) error
	GetMatchingEntries(ctx context.Context, userID, keyword string, limit int) ([]model.LearningEntry, error)
	DecayLearningEntries(ctx context.Context, userID string, olderThan time.Time, factor, floor float64) (int64, error)
	ListLearningUsers(ctx context.Context) ([]string, error)
	GetLearningStats(ctx context.Context, userID string) (*model.LearningStats, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error

	// Confirmed expense operations
	SaveExpense(ctx context.Context, expense *model.Expense) error
	GetCategoryUsage(ctx context.Context, userID string, since time.Time, limit int) ([]model.CategoryUsage, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// CategorySource supplies the catalog to the read-through cache.
type CategorySource interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
