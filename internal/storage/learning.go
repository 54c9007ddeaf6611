package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ldelgado/gastobot/internal/model"
	"github.com/ldelgado/gastobot/internal/service"
)

// UpsertLearningEntry reinforces the (user, keyword, category) triple. The
// whole operation is a single atomic statement against the unique
// constraint, so concurrent confirmations of the same triple never create
// duplicate rows or lose an increment.
func (s *SQLiteStorage) UpsertLearningEntry(ctx context.Context, userID, keyword string, categoryID int, params service.ReinforcementParams) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return err
	}
	if categoryID <= 0 {
		return fmt.Errorf("%w: categoryID", ErrNilParameter)
	}
	if params.BaseWeight <= 0 || params.Cap <= 0 {
		return fmt.Errorf("%w: base weight and cap must be positive", ErrInvalidParams)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_entries (user_id, keyword, category_id, weight, use_count, last_used_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(user_id, keyword, category_id) DO UPDATE SET
			weight = MIN(learning_entries.weight + ?, ?),
			use_count = learning_entries.use_count + 1,
			last_used_at = excluded.last_used_at
	`, userID, keyword, categoryID, params.BaseWeight, time.Now().UTC(), params.Step, params.Cap)

	if err != nil {
		return fmt.Errorf("failed to upsert learning entry: %w", err)
	}

	return nil
}

// GetMatchingEntries returns the user's strongest entries whose keyword
// contains or is contained by the given token, ordered by weight then use
// count.
func (s *SQLiteStorage) GetMatchingEntries(ctx context.Context, userID, keyword string, limit int) ([]model.LearningEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(keyword, "keyword"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, keyword, category_id, weight, use_count, last_used_at
		FROM learning_entries
		WHERE user_id = ?
		  AND (instr(keyword, ?) > 0 OR instr(?, keyword) > 0)
		ORDER BY weight DESC, use_count DESC
		LIMIT ?
	`, userID, keyword, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LearningEntry
	for rows.Next() {
		var entry model.LearningEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Keyword,
			&entry.CategoryID,
			&entry.Weight,
			&entry.UseCount,
			&entry.LastUsedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan learning entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// DecayLearningEntries multiplies the weight of a user's stale entries by
// factor. Entries at or below the floor are skipped, so repeated runs are
// safe and weights only approach the floor asymptotically. Returns the
// number of entries touched.
func (s *SQLiteStorage) DecayLearningEntries(ctx context.Context, userID string, olderThan time.Time, factor, floor float64) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}
	if factor <= 0 || factor >= 1 {
		return 0, fmt.Errorf("%w: decay factor must be in (0, 1)", ErrInvalidParams)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE learning_entries
		SET weight = weight * ?
		WHERE user_id = ? AND last_used_at < ? AND weight > ?
	`, factor, userID, olderThan.UTC(), floor)
	if err != nil {
		return 0, fmt.Errorf("failed to decay learning entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

// ListLearningUsers returns every user id present in the learning store.
func (s *SQLiteStorage) ListLearningUsers(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM learning_entries ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []string
	for rows.Next() {
		var user string
		if err := rows.Scan(&user); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// GetLearningStats returns aggregate counts for a user's learning store.
func (s *SQLiteStorage) GetLearningStats(ctx context.Context, userID string) (*model.LearningStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	var stats model.LearningStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT keyword),
			COUNT(DISTINCT category_id),
			COALESCE(SUM(use_count), 0),
			COALESCE(AVG(weight), 0)
		FROM learning_entries
		WHERE user_id = ?
	`, userID).Scan(
		&stats.UniqueKeywords,
		&stats.CategoriesLearned,
		&stats.TotalUsage,
		&stats.AverageWeight,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning stats: %w", err)
	}

	return &stats, nil
}
