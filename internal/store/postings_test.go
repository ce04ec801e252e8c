package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db
}

func testPosting(sourceID string) domain.Posting {
	return domain.Posting{
		SourceID:      sourceID,
		Title:         "Data Engineer",
		Company:       "Acme",
		Location:      "Bogotá",
		URL:           "https://jobs.example.com/123",
		DateExtracted: time.Now().UTC(),
	}
}

func TestInsertPostingIgnore_FirstInsertReportsAdded(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	added, err := InsertPostingIgnore(ctx, db.Pool, testPosting("phenom_123"))
	require.NoError(t, err)
	assert.True(t, added)

	n, err := CountPostings(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertPostingIgnore_DuplicateIsSilent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := InsertPostingIgnore(ctx, db.Pool, testPosting("phenom_123"))
	require.NoError(t, err)

	added, err := InsertPostingIgnore(ctx, db.Pool, testPosting("phenom_123"))
	require.NoError(t, err)
	assert.False(t, added, "second insert of same source_id must report not-added")

	n, err := CountPostings(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertPostingIgnore_FirstWriteWins(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := testPosting("workday_9")
	first.Title = "Original Title"
	_, err := InsertPostingIgnore(ctx, db.Pool, first)
	require.NoError(t, err)

	second := testPosting("workday_9")
	second.Title = "Changed Title"
	added, err := InsertPostingIgnore(ctx, db.Pool, second)
	require.NoError(t, err)
	require.False(t, added)

	got, err := GetPosting(ctx, db.Pool, "workday_9")
	require.NoError(t, err)
	assert.Equal(t, "Original Title", got.Title, "existing row must never be touched")
}

func TestInsertPostingIgnore_MissingSourceID(t *testing.T) {
	db := openTestDB(t)

	p := testPosting("")
	_, err := InsertPostingIgnore(context.Background(), db.Pool, p)
	assert.ErrorIs(t, err, ErrMissingSourceID)
}

func TestInsertPostingIgnore_RacingWritersInsertExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan bool, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := InsertPostingIgnore(ctx, db.Pool, testPosting("static_race"))
			require.NoError(t, err)
			results <- added
		}()
	}
	wg.Wait()
	close(results)

	addedCount := 0
	for added := range results {
		if added {
			addedCount++
		}
	}
	assert.Equal(t, 1, addedCount, "exactly one racing writer wins")

	n, err := CountPostings(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListPostings_WindowAndOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := testPosting("phenom_old")
	old.DateExtracted = time.Now().UTC().Add(-30 * 24 * time.Hour)
	_, err := InsertPostingIgnore(ctx, db.Pool, old)
	require.NoError(t, err)

	recent := testPosting("phenom_new")
	_, err = InsertPostingIgnore(ctx, db.Pool, recent)
	require.NoError(t, err)

	got, err := ListPostings(ctx, db.Pool, ListPostingsOpts{Window: "24h"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "phenom_new", got[0].SourceID)

	all, err := ListPostings(ctx, db.Pool, ListPostingsOpts{Window: "all"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "phenom_new", all[0].SourceID, "newest first")
}

func TestGetPosting_RoundTripsNullableFields(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	desc := "remote friendly"
	p := testPosting("static_77")
	p.Description = &desc

	_, err := InsertPostingIgnore(ctx, db.Pool, p)
	require.NoError(t, err)

	got, err := GetPosting(ctx, db.Pool, "static_77")
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	assert.Equal(t, "remote friendly", *got.Description)
	assert.Nil(t, got.Salary)
	assert.Nil(t, got.DatePosted)
}
