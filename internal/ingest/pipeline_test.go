package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
	"github.com/CDMonsalveA/JobSearchTools/internal/store"
)

// fakeAdapter replays a fixed batch of records, or fails mid-stream.
type fakeAdapter struct {
	name    string
	records []types.Raw
	failAt  int // fail after emitting this many records; 0 = never
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Produce(ctx context.Context, emit func(types.Raw) error) error {
	for i, r := range f.records {
		if f.failAt > 0 && i == f.failAt {
			return errors.New("site changed its markup")
		}
		if err := emit(r); err != nil {
			return err
		}
	}
	return nil
}

func openIngestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db.Pool))
	return db
}

func TestPipelineRun_StampsIdentityAndExtractionTime(t *testing.T) {
	db := openIngestDB(t)
	p := &Pipeline{DB: db.Pool}

	a := &fakeAdapter{name: "phenom", records: []types.Raw{
		{SourceIDHint: "42", Title: "Analyst", Company: "Acme", URL: "https://x.co/42"},
	}}

	out, err := p.Run(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, out.NewPostings, 1)
	assert.Equal(t, "phenom_42", out.NewPostings[0].SourceID)
	assert.False(t, out.NewPostings[0].DateExtracted.IsZero())
}

func TestPipelineRun_URLHashFallbackIsStable(t *testing.T) {
	db := openIngestDB(t)
	p := &Pipeline{DB: db.Pool}

	// Same page reached through cosmetically different URLs.
	first := &fakeAdapter{name: "static", records: []types.Raw{
		{Title: "Engineer", URL: "https://Example.com/jobs/7?utm_source=mail"},
	}}
	second := &fakeAdapter{name: "static", records: []types.Raw{
		{Title: "Engineer", URL: "https://example.com/jobs/7"},
	}}

	out, err := p.Run(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, out.NewPostings, 1)

	out, err = p.Run(context.Background(), second)
	require.NoError(t, err)
	assert.Empty(t, out.NewPostings, "canonicalized URL must hash to the same identity")
}

func TestPipelineRun_OnlyNovelRecordsAccumulate(t *testing.T) {
	db := openIngestDB(t)
	p := &Pipeline{DB: db.Pool}

	a := &fakeAdapter{name: "workday", records: []types.Raw{
		{SourceIDHint: "1", Title: "A", URL: "https://x.co/1"},
		{SourceIDHint: "2", Title: "B", URL: "https://x.co/2"},
	}}

	out, err := p.Run(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 2, out.ItemsScraped)
	assert.Len(t, out.NewPostings, 2)

	// Second pass over the same board: everything is a duplicate.
	out, err = p.Run(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 2, out.ItemsScraped)
	assert.Empty(t, out.NewPostings)
}

func TestPipelineRun_MalformedRecordSkippedNotFatal(t *testing.T) {
	db := openIngestDB(t)
	p := &Pipeline{DB: db.Pool}

	a := &fakeAdapter{name: "email-alerts", records: []types.Raw{
		{Title: "no id and no url"},
		{SourceIDHint: "9", Title: "fine", URL: "https://x.co/9"},
	}}

	out, err := p.Run(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 2, out.ItemsScraped)
	assert.Equal(t, 1, out.Skipped)
	require.Len(t, out.NewPostings, 1)
	assert.Equal(t, "email-alerts_9", out.NewPostings[0].SourceID)
}

func TestPipelineRun_PartialInsertsSurviveAdapterFailure(t *testing.T) {
	db := openIngestDB(t)
	p := &Pipeline{DB: db.Pool}

	failing := &fakeAdapter{
		name: "phenom",
		records: []types.Raw{
			{SourceIDHint: "1", Title: "A", URL: "https://x.co/1"},
			{SourceIDHint: "2", Title: "B", URL: "https://x.co/2"},
		},
		failAt: 1,
	}

	out, err := p.Run(context.Background(), failing)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStorage)
	assert.Len(t, out.NewPostings, 1, "records inserted before the failure stay inserted")

	// Retry with the adapter healthy: the surviving row re-observes as a dup.
	healthy := &fakeAdapter{name: "phenom", records: failing.records}
	out, err = p.Run(context.Background(), healthy)
	require.NoError(t, err)
	require.Len(t, out.NewPostings, 1)
	assert.Equal(t, "phenom_2", out.NewPostings[0].SourceID)
}

func TestPipelineRun_StorageErrorClassified(t *testing.T) {
	db := openIngestDB(t)
	p := &Pipeline{DB: db.Pool}
	require.NoError(t, db.Close())

	a := &fakeAdapter{name: "phenom", records: []types.Raw{
		{SourceIDHint: "1", Title: "A", URL: "https://x.co/1"},
	}}

	_, err := p.Run(context.Background(), a)
	assert.ErrorIs(t, err, ErrStorage)
}

func TestBuildPosting_IdentityRules(t *testing.T) {
	p, ok := buildPosting("phenom", types.Raw{SourceIDHint: "abc", URL: "https://x.co/1"})
	require.True(t, ok)
	assert.Equal(t, "phenom_abc", p.SourceID)

	p, ok = buildPosting("static", types.Raw{URL: "https://x.co/1"})
	require.True(t, ok)
	assert.Contains(t, p.SourceID, "static_")

	_, ok = buildPosting("static", types.Raw{Title: "nothing to key on"})
	assert.False(t, ok)
}
