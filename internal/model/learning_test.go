package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLearningEntryIsMerchant(t *testing.T) {
	merchant := LearningEntry{Keyword: "merchant:starbucks"}
	assert.True(t, merchant.IsMerchant())

	keyword := LearningEntry{Keyword: "starbucks"}
	assert.False(t, keyword.IsMerchant())
}

func TestCategoryIsParent(t *testing.T) {
	parent := Category{Slug: "food_drink"}
	assert.True(t, parent.IsParent())

	parentID := 1
	child := Category{Slug: "coffee_shops", ParentID: &parentID}
	assert.False(t, child.IsParent())
}
