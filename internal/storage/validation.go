// Package storage provides the data persistence layer for the inference engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ldelgado/gastobot/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidExpense  = errors.New("invalid expense")
	ErrInvalidParams   = errors.New("invalid reinforcement parameters")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCategory validates a category before persisting it.
func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(category.Slug) == "" {
		return fmt.Errorf("%w: missing slug", ErrInvalidCategory)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	return nil
}

// validateExpense validates a confirmed expense record.
func validateExpense(expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if strings.TrimSpace(expense.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidExpense)
	}
	if expense.CategoryID <= 0 {
		return fmt.Errorf("%w: missing category", ErrInvalidExpense)
	}
	return nil
}
