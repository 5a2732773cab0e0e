package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

func seededDirectory(t *testing.T, titles ...string) *Directory {
	t.Helper()
	dir := NewDirectory(filepath.Join(t.TempDir(), "webpages"))
	w, err := dir.OpenWriter(WriterConfig{Analyser: StandardAnalyser(), KeyField: DefaultKeyField}, false)
	require.NoError(t, err)
	for i, title := range titles {
		require.NoError(t, w.AddDocument(NewDocument().
			Set(DefaultKeyField, string(rune('1'+i))).
			Set("title", title)))
	}
	require.NoError(t, w.Close())
	return dir
}

func TestSearcher_Match(t *testing.T) {
	dir := seededDirectory(t, "Opening hours", "Delivery times", "Returns")
	s := NewSearcher(8)

	res, err := s.Match(context.Background(), dir, "delivery", 10)

	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Total)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Delivery times", res.Hits[0].Document.Get("title"))
	assert.Equal(t, "2", res.Documents()[0].Get(DefaultKeyField))
}

func TestSearcher_MatchBlankQuery(t *testing.T) {
	s := NewSearcher(8)

	res, err := s.Match(context.Background(), NewDirectory(t.TempDir()), "   ", 10)

	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Equal(t, 0, s.Cached())
}

func TestSearcher_Lookup(t *testing.T) {
	dir := seededDirectory(t, "a", "b")
	s := NewSearcher(8)

	res, err := s.Lookup(context.Background(), dir, TermKey{Field: DefaultKeyField, Value: "2"})

	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "b", res.Hits[0].Document.Get("title"))
}

func TestSearcher_MemoisesResults(t *testing.T) {
	// Given: a cached result
	dir := seededDirectory(t, "alpha")
	s := NewSearcher(8)
	first, err := s.Match(context.Background(), dir, "alpha", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Cached())

	// When: the index changes behind the searcher's back
	w, err := dir.OpenWriter(WriterConfig{KeyField: DefaultKeyField}, false)
	require.NoError(t, err)
	require.NoError(t, w.AddDocument(NewDocument().Set(DefaultKeyField, "9").Set("title", "alpha")))
	require.NoError(t, w.Close())

	// Then: the memoised answer is returned until a fresh searcher is used
	again, err := s.Match(context.Background(), dir, "alpha", 0)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, again.Hits, 1)

	fresh, err := NewSearcher(8).Match(context.Background(), dir, "alpha", 0)
	require.NoError(t, err)
	assert.Len(t, fresh.Hits, 2)
}

func TestSearcher_AbsentIndex(t *testing.T) {
	s := NewSearcher(8)

	_, err := s.Match(context.Background(), NewDirectory(filepath.Join(t.TempDir(), "missing")), "x", 10)

	assert.Equal(t, sierrors.ErrCodeIndexAbsent, sierrors.GetCode(err))
}

func TestSearcher_ResultsAreCopies(t *testing.T) {
	// Given: a memoised lookup
	dir := seededDirectory(t, "alpha")
	s := NewSearcher(8)
	key := TermKey{Field: DefaultKeyField, Value: "1"}
	first, err := s.Lookup(context.Background(), dir, key)
	require.NoError(t, err)
	require.Len(t, first.Hits, 1)

	// When: the caller edits the hit it was given
	first.Hits[0].Document.Set("title", "changed")
	first.Hits[0].Score = -1

	// Then: the next read still sees the stored values
	again, err := s.Lookup(context.Background(), dir, key)
	require.NoError(t, err)
	require.Len(t, again.Hits, 1)
	assert.Equal(t, "alpha", again.Hits[0].Document.Get("title"))
	assert.NotEqual(t, -1.0, again.Hits[0].Score)
}

func TestSearcher_LockedIndex(t *testing.T) {
	// Given: a write session holding the index
	dir := seededDirectory(t, "alpha")
	dir.openTimeout = 50 * time.Millisecond
	w, err := dir.OpenWriter(WriterConfig{KeyField: DefaultKeyField}, false)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// When: a read view is needed
	_, err = NewSearcher(8).Match(context.Background(), dir, "alpha", 10)

	// Then: the contention is reported as a retryable lock error
	assert.Equal(t, sierrors.ErrCodeIndexLocked, sierrors.GetCode(err))
	assert.True(t, sierrors.IsRetryable(err))
}
