package model

import (
	"strings"
	"time"
)

// MerchantKeywordPrefix marks learning entries keyed on an extracted
// merchant name rather than a description keyword.
const MerchantKeywordPrefix = "merchant:"

// LearningEntry is a weighted association between a user's keyword and a
// category, built up from confirmed classifications. The triple
// (UserID, Keyword, CategoryID) is unique; reinforcement updates the row
// in place.
type LearningEntry struct {
	LastUsedAt time.Time
	UserID     string
	Keyword    string
	Weight     float64
	CategoryID int
	UseCount   int
	ID         int64
}

// IsMerchant reports whether the entry is a merchant association.
func (e *LearningEntry) IsMerchant() bool {
	return strings.HasPrefix(e.Keyword, MerchantKeywordPrefix)
}

// LearningStats summarizes a user's learning store for diagnostics.
type LearningStats struct {
	UniqueKeywords    int
	CategoriesLearned int
	TotalUsage        int
	AverageWeight     float64
}
