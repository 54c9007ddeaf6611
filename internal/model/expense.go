package model

import "time"

// Expense is a confirmed expense record. The engine keeps these so
// suggestion building can rank a user's most-used categories over a
// trailing window.
type Expense struct {
	CreatedAt   time.Time
	UserID      string
	Description string
	Amount      float64
	CategoryID  int
	ID          int64
}

// CategoryUsage pairs a category with how often a user confirmed it.
type CategoryUsage struct {
	CategoryID int
	Count      int
}
