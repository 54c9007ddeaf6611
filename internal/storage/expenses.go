package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ldelgado/gastobot/internal/model"
)

// SaveExpense records a confirmed expense and fills in the generated id.
func (s *SQLiteStorage) SaveExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, description, amount, category_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, expense.UserID, expense.Description, expense.Amount, expense.CategoryID, expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get expense id: %w", err)
	}
	expense.ID = id

	return nil
}

// GetCategoryUsage returns a user's most-confirmed categories since the
// given time, most used first.
func (s *SQLiteStorage) GetCategoryUsage(ctx context.Context, userID string, since time.Time, limit int) ([]model.CategoryUsage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 3
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, COUNT(*) AS uses
		FROM expenses
		WHERE user_id = ? AND created_at >= ?
		GROUP BY category_id
		ORDER BY uses DESC, category_id
		LIMIT ?
	`, userID, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query category usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var usage []model.CategoryUsage
	for rows.Next() {
		var u model.CategoryUsage
		if err := rows.Scan(&u.CategoryID, &u.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category usage: %w", err)
		}
		usage = append(usage, u)
	}

	return usage, rows.Err()
}
