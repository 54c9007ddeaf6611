package learning

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/ldelgado/gastobot/internal/storage"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStore struct {
	*Store
	db     *storage.SQLiteStorage
	dbPath string
}

func newTestStore(t *testing.T) testStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(context.Background()))

	return testStore{Store: NewStore(db, DefaultConfig()), db: db, dbPath: dbPath}
}

// backdateEntries rewrites every last_used_at so decay tests can treat
// freshly inserted entries as stale.
func backdateEntries(t *testing.T, dbPath string, to time.Time) {
	t.Helper()
	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer func() { _ = raw.Close() }()

	_, err = raw.Exec(`UPDATE learning_entries SET last_used_at = ?`, to)
	require.NoError(t, err)
}

func TestFindBestMatchNoKeywords(t *testing.T) {
	ts := newTestStore(t)

	match, err := ts.FindBestMatch(context.Background(), "user1", "en el de la")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestFindBestMatchNothingLearned(t *testing.T) {
	ts := newTestStore(t)

	match, err := ts.FindBestMatch(context.Background(), "user1", "tacos pastor")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestFindBestMatchAfterLearning(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "coffee at Starbucks", 2))

	match, err := ts.FindBestMatch(ctx, "user1", "coffee at starbucks today")
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, 2, match.CategoryID)
	assert.Equal(t, []string{"coffee", "starbucks"}, match.MatchedKeywords)
	// Full coverage plus a merchant entry pushes confidence well past the
	// learning-tier threshold.
	assert.Greater(t, match.Confidence, 0.85)
	assert.LessOrEqual(t, match.Confidence, 1.0)
}

func TestFindBestMatchPartialCoverage(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "netflix", 3))

	match, err := ts.FindBestMatch(ctx, "user1", "netflix y cena con palomitas")
	require.NoError(t, err)
	require.NotNil(t, match)

	assert.Equal(t, 3, match.CategoryID)
	assert.Equal(t, []string{"netflix"}, match.MatchedKeywords)
	// One of three keywords matched: 0.6*(1/3) + 0.4*(1.0/2.0) = 0.4.
	assert.InDelta(t, 0.4, match.Confidence, 1e-9)
}

func TestFindBestMatchPrefersStrongerCategory(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	// "pemex gasolina" confirmed as fuel, a lone "pemex" mention once as
	// shopping. Full coverage should win for the fuel category.
	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "pemex gasolina", 5))
	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "pemex", 6))

	match, err := ts.FindBestMatch(ctx, "user1", "pemex gasolina")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 5, match.CategoryID)
}

func TestFindBestMatchIsolatedPerUser(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "gasolina pemex", 4))

	match, err := ts.FindBestMatch(ctx, "user2", "gasolina pemex")
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestLearnFromChoiceCreatesMerchantEntry(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "despensa en La Comer", 6))

	// The merchant entry outweighs the plain "comer" unigram that also
	// matches by substring.
	entries, err := ts.db.GetMatchingEntries(ctx, "user1", "merchant:la comer", 5)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "merchant:la comer", entries[0].Keyword)
	assert.True(t, entries[0].IsMerchant())
	assert.InDelta(t, 1.5, entries[0].Weight, 1e-9)
}

func TestLearnFromChoiceReinforcement(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "gasolina", 4))
	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "gasolina", 4))

	entries, err := ts.db.GetMatchingEntries(ctx, "user1", "gasolina", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].UseCount)
	assert.InDelta(t, 1.1, entries[0].Weight, 1e-9)
}

func TestLearnFromChoiceEmptyDescription(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	// Nothing to learn from, but not an error.
	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "de la el", 2))

	stats, err := ts.db.GetLearningStats(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.UniqueKeywords)
}

func TestDecay(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "gimnasio", 7))
	require.NoError(t, ts.LearnFromChoice(ctx, "user2", "farmacia", 8))

	// A fresh store has nothing stale.
	decayed, err := ts.Decay(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(0), decayed)

	backdateEntries(t, ts.dbPath, time.Now().UTC().Add(-120*24*time.Hour))

	decayed, err = ts.Decay(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(2), decayed)

	entries, err := ts.db.GetMatchingEntries(ctx, "user1", "gimnasio", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.InDelta(t, 0.9, entries[0].Weight, 1e-9)
}

func TestDecayUserDefaultsAge(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "cine", 9))
	backdateEntries(t, ts.dbPath, time.Now().UTC().Add(-120*24*time.Hour))

	decayed, err := ts.DecayUser(ctx, "user1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), decayed)
}

func TestStatsAndUsers(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ts.LearnFromChoice(ctx, "user1", "tortas chilaquiles", 2))

	stats, err := ts.Stats(ctx, "user1")
	require.NoError(t, err)
	assert.Greater(t, stats.UniqueKeywords, 0)

	users, err := ts.Users(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user1"}, users)
}
