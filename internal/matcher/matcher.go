// Package matcher scores descriptions against the category catalog using
// keyword overlap and amount plausibility. It is global knowledge, not
// personalized; the learning store handles per-user signal.
package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/ldelgado/gastobot/internal/catalog"
	"github.com/ldelgado/gastobot/internal/model"
)

// Config holds the scoring constants. Product-tuned; override through
// configuration rather than re-deriving.
type Config struct {
	WholeWordScore     float64
	SubstringScore     float64
	SpecificityDivisor float64
	MerchantBonus      float64
	AmountBonus        float64
	ParentKeywordScore float64
	MaxConfidence      float64
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() Config {
	return Config{
		WholeWordScore:     0.3,
		SubstringScore:     0.15,
		SpecificityDivisor: 100,
		MerchantBonus:      0.4,
		AmountBonus:        0.2,
		ParentKeywordScore: 0.1,
		MaxConfidence:      0.95,
	}
}

// Match is the outcome of a catalog match.
type Match struct {
	CategoryID int
	Confidence float64
}

// Matcher scores descriptions against the cached catalog.
type Matcher struct {
	catalog   *catalog.Cache
	bands     catalog.AmountBands
	wordRegex map[string]*regexp.Regexp
	config    Config
	mu        sync.RWMutex
}

// New creates a matcher over the given catalog cache and amount bands.
func New(cache *catalog.Cache, bands catalog.AmountBands, config Config) *Matcher {
	return &Matcher{
		catalog:   cache,
		bands:     bands,
		config:    config,
		wordRegex: make(map[string]*regexp.Regexp),
	}
}

// MatchByKeywords scores the description (and optional amount) against
// every active category and returns the best, or nil when nothing scores
// above zero or the catalog is empty.
func (m *Matcher) MatchByKeywords(ctx context.Context, description string, amount *float64) (*Match, error) {
	categories, err := m.catalog.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	byID := make(map[int]*model.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}

	desc := strings.ToLower(description)

	var best *Match
	var bestSlug string
	for i := range categories {
		cat := &categories[i]
		score := m.scoreCategory(desc, cat, byID, amount)
		if score <= 0 {
			continue
		}

		if best == nil || score > best.Confidence ||
			(score == best.Confidence && cat.Slug < bestSlug) {
			best = &Match{CategoryID: cat.ID, Confidence: score}
			bestSlug = cat.Slug
		}
	}

	if best == nil {
		return nil, nil
	}

	if best.Confidence > m.config.MaxConfidence {
		// Heuristic matching never claims full certainty.
		best.Confidence = m.config.MaxConfidence
	}

	slog.Debug("keyword match",
		"category_id", best.CategoryID,
		"confidence", best.Confidence)

	return best, nil
}

func (m *Matcher) scoreCategory(desc string, cat *model.Category, byID map[int]*model.Category, amount *float64) float64 {
	var score float64
	merchantFound := false

	for _, keyword := range cat.Keywords {
		kw := strings.ToLower(keyword)

		switch {
		case m.matchesWholeWord(desc, kw):
			score += m.config.WholeWordScore + float64(len(kw))/m.config.SpecificityDivisor
		case strings.Contains(desc, kw):
			score += m.config.SubstringScore + float64(len(kw))/m.config.SpecificityDivisor
		default:
			continue
		}

		// First keyword present in the description also counts as a
		// merchant hit; further keywords don't stack the bonus.
		if !merchantFound {
			score += m.config.MerchantBonus
			merchantFound = true
		}
	}

	if amount != nil && m.bands.Contains(cat.Slug, *amount) {
		score += m.config.AmountBonus
	}

	// Diluted signal from the parent's keywords.
	if cat.ParentID != nil {
		if parent := byID[*cat.ParentID]; parent != nil {
			for _, keyword := range parent.Keywords {
				if strings.Contains(desc, strings.ToLower(keyword)) {
					score += m.config.ParentKeywordScore
				}
			}
		}
	}

	return score
}

// matchesWholeWord reports whether kw appears in desc bounded by
// non-word characters. regexp's \b only understands ASCII word
// characters, which misfires on café, camión and the rest of the
// accented vocabulary, so the boundary is spelled out with Unicode
// classes instead. Falls back to false (and thus substring scoring)
// when the keyword cannot be compiled into a pattern.
func (m *Matcher) matchesWholeWord(desc, kw string) bool {
	m.mu.RLock()
	re, ok := m.wordRegex[kw]
	m.mu.RUnlock()

	if !ok {
		pattern := `(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(kw) + `(?:[^\p{L}\p{N}_]|$)`
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			compiled = nil
		}

		m.mu.Lock()
		m.wordRegex[kw] = compiled
		m.mu.Unlock()
		re = compiled
	}

	if re == nil {
		return false
	}
	return re.MatchString(desc)
}
