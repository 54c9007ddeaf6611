package storage

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ldelgado/gastobot/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func keywordParams() service.ReinforcementParams {
	return service.ReinforcementParams{BaseWeight: 1.0, Step: 0.1, Cap: 2.0}
}

func merchantParams() service.ReinforcementParams {
	return service.ReinforcementParams{BaseWeight: 1.5, Step: 0.2, Cap: 2.0}
}

func TestUpsertLearningEntryReinforcement(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.UpsertLearningEntry(ctx, "user1", "starbucks", 1, keywordParams()); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	entries, err := store.GetMatchingEntries(ctx, "user1", "starbucks", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected a single row after repeated upserts, got %d", len(entries))
	}

	entry := entries[0]
	if entry.UseCount != 3 {
		t.Errorf("Expected use count 3, got %d", entry.UseCount)
	}
	// 1.0 on insert, +0.1 for each of the two reinforcements.
	if math.Abs(entry.Weight-1.2) > 1e-9 {
		t.Errorf("Expected weight 1.2, got %f", entry.Weight)
	}
	if entry.LastUsedAt.IsZero() {
		t.Error("Expected last_used_at to be set")
	}
}

func TestUpsertLearningEntryWeightCap(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		if err := store.UpsertLearningEntry(ctx, "user1", "merchant:starbucks", 1, merchantParams()); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	entries, err := store.GetMatchingEntries(ctx, "user1", "merchant:starbucks", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected one row, got %d", len(entries))
	}
	if math.Abs(entries[0].Weight-2.0) > 1e-9 {
		t.Errorf("Expected weight capped at 2.0, got %f", entries[0].Weight)
	}
	if entries[0].UseCount != 6 {
		t.Errorf("Expected use count to keep counting past the cap, got %d", entries[0].UseCount)
	}
}

func TestUpsertLearningEntryConcurrent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.UpsertLearningEntry(ctx, "user1", "uber", 2, keywordParams())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Concurrent upsert failed: %v", err)
		}
	}

	entries, err := store.GetMatchingEntries(ctx, "user1", "uber", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected one row after concurrent upserts, got %d", len(entries))
	}
	if entries[0].UseCount != workers {
		t.Errorf("Expected use count %d, lost increments left %d", workers, entries[0].UseCount)
	}
}

func TestUpsertLearningEntryValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.UpsertLearningEntry(ctx, "", "kw", 1, keywordParams()); err == nil {
		t.Error("Expected error for empty user ID")
	}
	if err := store.UpsertLearningEntry(ctx, "user1", "", 1, keywordParams()); err == nil {
		t.Error("Expected error for empty keyword")
	}
	if err := store.UpsertLearningEntry(ctx, "user1", "kw", 0, keywordParams()); err == nil {
		t.Error("Expected error for invalid category ID")
	}
	if err := store.UpsertLearningEntry(ctx, "user1", "kw", 1, service.ReinforcementParams{}); err == nil {
		t.Error("Expected error for zero reinforcement params")
	}
}

func TestGetMatchingEntriesSubstringBothDirections(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.UpsertLearningEntry(ctx, "user1", "starbucks", 1, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	// Stored keyword contained in the query token.
	entries, err := store.GetMatchingEntries(ctx, "user1", "starbucks-reforma", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected stored keyword to match longer token, got %d entries", len(entries))
	}

	// Query token contained in the stored keyword.
	entries, err = store.GetMatchingEntries(ctx, "user1", "bucks", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected shorter token to match stored keyword, got %d entries", len(entries))
	}
}

func TestGetMatchingEntriesOrderAndLimit(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	// Reinforce "taco" under category 2 twice so it outweighs category 1.
	if err := store.UpsertLearningEntry(ctx, "user1", "taco", 1, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.UpsertLearningEntry(ctx, "user1", "taco", 2, keywordParams()); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	entries, err := store.GetMatchingEntries(ctx, "user1", "taco", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].CategoryID != 2 {
		t.Errorf("Expected strongest entry first, got category %d", entries[0].CategoryID)
	}

	entries, err = store.GetMatchingEntries(ctx, "user1", "taco", 1)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected limit to apply, got %d entries", len(entries))
	}
}

func TestGetMatchingEntriesScopedToUser(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.UpsertLearningEntry(ctx, "user1", "netflix", 1, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	entries, err := store.GetMatchingEntries(ctx, "user2", "netflix", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no cross-user matches, got %d", len(entries))
	}
}

func TestDecayLearningEntries(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.UpsertLearningEntry(ctx, "user1", "gimnasio", 1, merchantParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	// Backdate the entry so it qualifies as stale.
	if _, err := store.db.ExecContext(ctx,
		`UPDATE learning_entries SET last_used_at = ? WHERE user_id = ?`,
		time.Now().UTC().Add(-120*24*time.Hour), "user1"); err != nil {
		t.Fatalf("Failed to backdate entry: %v", err)
	}

	cutoff := time.Now().UTC().Add(-90 * 24 * time.Hour)

	decayed, err := store.DecayLearningEntries(ctx, "user1", cutoff, 0.9, 0.5)
	if err != nil {
		t.Fatalf("Failed to decay: %v", err)
	}
	if decayed != 1 {
		t.Errorf("Expected 1 decayed entry, got %d", decayed)
	}

	if _, err := store.DecayLearningEntries(ctx, "user1", cutoff, 0.9, 0.5); err != nil {
		t.Fatalf("Failed to decay twice: %v", err)
	}

	entries, err := store.GetMatchingEntries(ctx, "user1", "gimnasio", 5)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	want := 1.5 * 0.9 * 0.9
	if math.Abs(entries[0].Weight-want) > 1e-9 {
		t.Errorf("Expected weight %f after two decay passes, got %f", want, entries[0].Weight)
	}
}

func TestDecayLearningEntriesSkipsFloor(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.UpsertLearningEntry(ctx, "user1", "farmacia", 1, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if _, err := store.db.ExecContext(ctx,
		`UPDATE learning_entries SET weight = 0.5, last_used_at = ? WHERE user_id = ?`,
		time.Now().UTC().Add(-120*24*time.Hour), "user1"); err != nil {
		t.Fatalf("Failed to set up entry: %v", err)
	}

	decayed, err := store.DecayLearningEntries(ctx, "user1", time.Now().UTC().Add(-90*24*time.Hour), 0.9, 0.5)
	if err != nil {
		t.Fatalf("Failed to decay: %v", err)
	}
	if decayed != 0 {
		t.Errorf("Expected entries at the floor to be skipped, decayed %d", decayed)
	}
}

func TestDecayLearningEntriesSkipsRecent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.UpsertLearningEntry(ctx, "user1", "cine", 1, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	decayed, err := store.DecayLearningEntries(ctx, "user1", time.Now().UTC().Add(-90*24*time.Hour), 0.9, 0.5)
	if err != nil {
		t.Fatalf("Failed to decay: %v", err)
	}
	if decayed != 0 {
		t.Errorf("Expected recently used entries untouched, decayed %d", decayed)
	}
}

func TestDecayLearningEntriesInvalidFactor(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.DecayLearningEntries(ctx, "user1", time.Now(), 1.5, 0.5); err == nil {
		t.Error("Expected error for factor outside (0, 1)")
	}
}

func TestListLearningUsers(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	users, err := store.ListLearningUsers(ctx)
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Expected no users initially, got %d", len(users))
	}

	for _, u := range []string{"user2", "user1", "user2"} {
		if err := store.UpsertLearningEntry(ctx, u, "super", 1, keywordParams()); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	users, err = store.ListLearningUsers(ctx)
	if err != nil {
		t.Fatalf("Failed to list users: %v", err)
	}
	if len(users) != 2 || users[0] != "user1" || users[1] != "user2" {
		t.Errorf("Expected sorted distinct users [user1 user2], got %v", users)
	}
}

func TestGetLearningStats(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	stats, err := store.GetLearningStats(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.UniqueKeywords != 0 || stats.TotalUsage != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	if err := store.UpsertLearningEntry(ctx, "user1", "café", 1, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := store.UpsertLearningEntry(ctx, "user1", "café", 1, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := store.UpsertLearningEntry(ctx, "user1", "uber", 2, keywordParams()); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	stats, err = store.GetLearningStats(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.UniqueKeywords != 2 {
		t.Errorf("Expected 2 unique keywords, got %d", stats.UniqueKeywords)
	}
	if stats.CategoriesLearned != 2 {
		t.Errorf("Expected 2 categories, got %d", stats.CategoriesLearned)
	}
	if stats.TotalUsage != 3 {
		t.Errorf("Expected total usage 3, got %d", stats.TotalUsage)
	}
	// (1.1 + 1.0) / 2
	if math.Abs(stats.AverageWeight-1.05) > 1e-9 {
		t.Errorf("Expected average weight 1.05, got %f", stats.AverageWeight)
	}
}
