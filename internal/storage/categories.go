package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ldelgado/gastobot/internal/model"
)

const categoryColumns = `c.id, c.slug, c.name, c.parent_id, c.is_active, c.created_at`

// GetCategories returns all active categories with their keyword lists.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		WHERE c.is_active = 1
		ORDER BY c.slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	for i := range categories {
		keywords, kwErr := s.getCategoryKeywords(ctx, categories[i].ID)
		if kwErr != nil {
			return nil, kwErr
		}
		categories[i].Keywords = keywords
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryBySlug returns an active category by its slug, or nil if not
// found.
func (s *SQLiteStorage) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(slug, "slug"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		WHERE c.slug = ? AND c.is_active = 1
	`, slug)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cat.Keywords, err = s.getCategoryKeywords(ctx, cat.ID)
	if err != nil {
		return nil, err
	}

	return cat, nil
}

// GetCategoryByID returns a category by id, or nil if not found.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id int) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: id", ErrNilParameter)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories c
		WHERE c.id = ?
	`, id)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cat.Keywords, err = s.getCategoryKeywords(ctx, cat.ID)
	if err != nil {
		return nil, err
	}

	return cat, nil
}

// CreateCategory inserts a new category with its keywords and fills in the
// generated id.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var parentID any
	if category.ParentID != nil {
		parentID = *category.ParentID
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO categories (slug, name, parent_id, is_active)
		VALUES (?, ?, ?, ?)
	`, category.Slug, category.Name, parentID, category.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category id: %w", err)
	}
	category.ID = int(id)

	for pos, keyword := range category.Keywords {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_keywords (category_id, keyword, position)
			VALUES (?, ?, ?)
		`, id, keyword, pos); err != nil {
			return fmt.Errorf("failed to save category keyword: %w", err)
		}
	}

	return tx.Commit()
}

// getCategoryKeywords loads the ordered keyword list for one category.
func (s *SQLiteStorage) getCategoryKeywords(ctx context.Context, categoryID int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword
		FROM category_keywords
		WHERE category_id = ?
		ORDER BY position
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}

	return keywords, rows.Err()
}

// scannable lets scanCategory work for both sql.Row and sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanCategory(row scannable) (*model.Category, error) {
	var cat model.Category
	var parentID sql.NullInt64

	err := row.Scan(&cat.ID, &cat.Slug, &cat.Name, &parentID, &cat.IsActive, &cat.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	if parentID.Valid {
		id := int(parentID.Int64)
		cat.ParentID = &id
	}

	return &cat, nil
}
