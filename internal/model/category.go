package model

import "time"

// UncategorizedSlug is the reserved slug for the fallback category. It is
// seeded by migration and always present, so inference can degrade to it
// when every tier fails.
const UncategorizedSlug = "uncategorized"

// Category represents a spending category. Categories form a two-level
// tree: a nil ParentID marks a top-level group, otherwise the category is
// a subcategory of its parent.
type Category struct {
	CreatedAt time.Time
	Slug      string
	Name      string
	Keywords  []string
	ParentID  *int
	ID        int
	IsActive  bool
}

// IsParent reports whether the category is a top-level group.
func (c *Category) IsParent() bool {
	return c.ParentID == nil
}
