package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/ldelgado/gastobot/internal/catalog"
	"github.com/ldelgado/gastobot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	categories []model.Category
}

func (s *staticSource) GetCategories(_ context.Context) ([]model.Category, error) {
	return s.categories, nil
}

func newTestMatcher(categories []model.Category, bands catalog.AmountBands) *Matcher {
	cache := catalog.NewCache(&staticSource{categories: categories}, time.Hour)
	return New(cache, bands, DefaultConfig())
}

func testCatalog() []model.Category {
	foodID, transportID := 1, 4
	return []model.Category{
		{ID: 1, Slug: "food_drink", Name: "Comida y bebida", Keywords: []string{"comida"}, IsActive: true},
		{ID: 2, Slug: "coffee_shops", Name: "Cafeterías", Keywords: []string{"café", "oxxo"}, ParentID: &foodID, IsActive: true},
		{ID: 3, Slug: "restaurants", Name: "Restaurantes", Keywords: []string{"restaurante", "cena"}, ParentID: &foodID, IsActive: true},
		{ID: 4, Slug: "transport", Name: "Transporte", Keywords: []string{"transporte"}, IsActive: true},
		{ID: 5, Slug: "rideshare", Name: "Viajes app", Keywords: []string{"uber", "didi"}, ParentID: &transportID, IsActive: true},
	}
}

func TestMatchByKeywordsCoffeeWithAmount(t *testing.T) {
	m := newTestMatcher(testCatalog(), catalog.DefaultAmountBands())

	amount := 35.0
	match, err := m.MatchByKeywords(context.Background(), "compré café en el oxxo", &amount)
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, 2, match.CategoryID)
	assert.Greater(t, match.Confidence, 0.0)
	assert.LessOrEqual(t, match.Confidence, 0.95)
}

func TestMatchByKeywordsCapsConfidence(t *testing.T) {
	m := newTestMatcher(testCatalog(), catalog.DefaultAmountBands())

	// Two keyword hits, the merchant bonus and a band hit together push
	// the raw score past the cap.
	amount := 35.0
	match, err := m.MatchByKeywords(context.Background(), "café en el oxxo", &amount)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.InDelta(t, 0.95, match.Confidence, 1e-9)
}

func TestMatchByKeywordsAccentedWholeWord(t *testing.T) {
	m := newTestMatcher(testCatalog(), nil)

	// "café" standing alone is a whole-word hit even though regexp's \b
	// would not see a boundary after the é.
	standalone, err := m.MatchByKeywords(context.Background(), "un café por favor", nil)
	require.NoError(t, err)
	require.NotNil(t, standalone)
	assert.Equal(t, 2, standalone.CategoryID)
	assert.InDelta(t, 0.3+0.05+0.4, standalone.Confidence, 1e-9)

	// Embedded in "cafés" it only earns the substring score.
	embedded, err := m.MatchByKeywords(context.Background(), "dos cafés grandes", nil)
	require.NoError(t, err)
	require.NotNil(t, embedded)
	assert.Equal(t, 2, embedded.CategoryID)
	assert.InDelta(t, 0.15+0.05+0.4, embedded.Confidence, 1e-9)

	assert.Greater(t, standalone.Confidence, embedded.Confidence)
}

func TestMatchByKeywordsWholeWordBeatsSubstring(t *testing.T) {
	m := newTestMatcher(testCatalog(), nil)

	match, err := m.MatchByKeywords(context.Background(), "viaje en uber", nil)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 5, match.CategoryID)
	// Whole-word hit plus specificity plus the merchant bonus.
	assert.InDelta(t, 0.3+0.04+0.4, match.Confidence, 1e-9)
}

func TestMatchByKeywordsSubstringHit(t *testing.T) {
	m := newTestMatcher(testCatalog(), nil)

	// "ubereats" only contains "uber"; no whole-word boundary.
	match, err := m.MatchByKeywords(context.Background(), "pedido ubereats", nil)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 5, match.CategoryID)
	assert.InDelta(t, 0.15+0.04+0.4, match.Confidence, 1e-9)
}

func TestMatchByKeywordsParentKeywordSignal(t *testing.T) {
	m := newTestMatcher(testCatalog(), nil)

	withParent, err := m.MatchByKeywords(context.Background(), "cena comida corrida", nil)
	require.NoError(t, err)
	require.NotNil(t, withParent)
	assert.Equal(t, 3, withParent.CategoryID)

	without, err := m.MatchByKeywords(context.Background(), "cena ligera", nil)
	require.NoError(t, err)
	require.NotNil(t, without)
	assert.Equal(t, 3, without.CategoryID)

	assert.InDelta(t, 0.1, withParent.Confidence-without.Confidence, 1e-9)
}

func TestMatchByKeywordsNoSignal(t *testing.T) {
	m := newTestMatcher(testCatalog(), nil)

	match, err := m.MatchByKeywords(context.Background(), "zzz qqq", nil)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatchByKeywordsEmptyCatalog(t *testing.T) {
	m := newTestMatcher(nil, nil)

	match, err := m.MatchByKeywords(context.Background(), "café en el oxxo", nil)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatchByKeywordsTieBreaksBySlug(t *testing.T) {
	categories := []model.Category{
		{ID: 7, Slug: "zeta", Name: "Zeta", Keywords: []string{"libro"}, IsActive: true},
		{ID: 8, Slug: "alfa", Name: "Alfa", Keywords: []string{"libro"}, IsActive: true},
	}
	m := newTestMatcher(categories, nil)

	match, err := m.MatchByKeywords(context.Background(), "compré un libro", nil)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 8, match.CategoryID)
}

func TestMatchByKeywordsAmountBandAlone(t *testing.T) {
	m := newTestMatcher(testCatalog(), catalog.DefaultAmountBands())

	// An amount inside a band is weak corroboration, not a match by
	// itself at any useful confidence.
	amount := 35.0
	match, err := m.MatchByKeywords(context.Background(), "zzz qqq", &amount)
	require.NoError(t, err)
	if match != nil {
		assert.LessOrEqual(t, match.Confidence, 0.2)
	}
}
