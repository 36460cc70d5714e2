package memorydb

import (
	"context"
	"testing"
	"time"

	"github.com/mnemo-run/mnemo/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open("", DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertGetDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	entry := Entry{
		ID:      NewEntryID(),
		Content: "The deploy requires running migrations first",
		Summary: "Deploy prerequisites",
		Tags:    []string{"deploy", "ops"},
		Source:  "text",
	}
	require.NoError(t, db.Insert(ctx, entry))

	got, err := db.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Content, got.Content)
	assert.Equal(t, got.CharCount, len(entry.Content))

	content, err := db.GetContent(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Content, content)

	require.NoError(t, db.Delete(ctx, entry.ID))
	_, err = db.Get(ctx, entry.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	// Deleting an absent id is a no-op.
	require.NoError(t, db.Delete(ctx, entry.ID))
}

func TestInsertDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	entry := Entry{ID: NewEntryID(), Content: "hello world", Summary: "s", Source: "text"}
	require.NoError(t, db.Insert(ctx, entry))

	err := db.Insert(ctx, entry)
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestInsertEmptyContentRejected(t *testing.T) {
	db := openTestDB(t)
	err := db.Insert(context.Background(), Entry{ID: NewEntryID(), Source: "text"})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvalidArgument, errs.KindOf(err))
}

func TestSearchFindsByToken(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	entry := Entry{
		ID:      NewEntryID(),
		Content: "The deploy requires running migrations first",
		Summary: "Deploy prerequisites",
		Tags:    []string{"deploy", "ops"},
		Source:  "text",
	}
	require.NoError(t, db.Insert(ctx, entry))

	hits, err := db.Search(ctx, "migrations deploy", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, entry.ID, hits[0].Entry.ID)
}

func TestSearchStemming(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	entry := Entry{ID: NewEntryID(), Content: "authentication flow for new users", Summary: "auth", Source: "text"}
	require.NoError(t, db.Insert(ctx, entry))

	hits, err := db.Search(ctx, "authenticate", nil, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestTagExactMatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	e1 := Entry{ID: NewEntryID(), Content: "mcp server notes", Summary: "s1", Tags: []string{"mcp"}, Source: "text"}
	e2 := Entry{ID: NewEntryID(), Content: "mcp-server notes too", Summary: "s2", Tags: []string{"mcp-server"}, Source: "text"}
	require.NoError(t, db.Insert(ctx, e1))
	require.NoError(t, db.Insert(ctx, e2))

	entries, err := db.List(ctx, []string{"mcp"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e1.ID, entries[0].ID)
}

func TestListChronological(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	e1 := Entry{ID: NewEntryID(), Content: "first", Summary: "s1", Source: "text", CreatedAt: time.Now().Add(-time.Hour)}
	e2 := Entry{ID: NewEntryID(), Content: "second", Summary: "s2", Source: "text", CreatedAt: time.Now()}
	require.NoError(t, db.Insert(ctx, e1))
	require.NoError(t, db.Insert(ctx, e2))

	entries, err := db.List(ctx, nil, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, e2.ID, entries[0].ID)
	assert.Equal(t, e1.ID, entries[1].ID)
}

func TestTagHistogram(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Insert(ctx, Entry{ID: NewEntryID(), Content: "a", Summary: "s", Tags: []string{"x", "y"}, Source: "text"}))
	require.NoError(t, db.Insert(ctx, Entry{ID: NewEntryID(), Content: "b", Summary: "s", Tags: []string{"x"}, Source: "text"}))

	hist, err := db.TagHistogram(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, hist["x"])
	assert.Equal(t, 1, hist["y"])
}

func TestConsistencyAfterInsertDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = NewEntryID()
		require.NoError(t, db.Insert(ctx, Entry{ID: ids[i], Content: "content here", Summary: "s", Source: "text"}))
	}
	for _, id := range ids[:2] {
		require.NoError(t, db.Delete(ctx, id))
	}
	require.NoError(t, db.CheckConsistency(ctx))

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBM25MonotonicityOnDuplicateInsert(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	target := Entry{ID: NewEntryID(), Content: "kubernetes deployment rollout strategy", Summary: "k8s rollout", Source: "text"}
	unrelated := Entry{ID: NewEntryID(), Content: "baking sourdough bread recipe", Summary: "bread", Source: "text"}
	require.NoError(t, db.Insert(ctx, target))
	require.NoError(t, db.Insert(ctx, unrelated))

	hits, err := db.Search(ctx, "kubernetes deployment", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	firstRank := hits[0].Rank

	dup := Entry{ID: NewEntryID(), Content: target.Content, Summary: target.Summary, Source: "text"}
	require.NoError(t, db.Insert(ctx, dup))

	hits, err = db.Search(ctx, "kubernetes deployment", nil, 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.LessOrEqual(t, hits[0].Rank, firstRank)
}
