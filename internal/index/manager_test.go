package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/siteindex/internal/content"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

var testSite = content.Site{ID: 1, Name: "Main"}

// memSource serves entities from memory without filtering and records the
// site filter it was asked for.
type memSource[T content.Entity] struct {
	items []T
	err   error
	sites []*content.Site
}

func (s *memSource[T]) ListLive(_ context.Context, site *content.Site) ([]T, error) {
	s.sites = append(s.sites, site)
	return s.items, s.err
}

func pageDefinition(opts ...DefinitionOption) *BaseDefinition[*content.Webpage] {
	return NewBaseDefinition("Webpages", "webpages", func(w *content.Webpage) Document {
		return NewDocument().Set("title", w.Title).Set("body", w.BodyContent)
	}, opts...)
}

type fixture struct {
	provider *FSDirectoryProvider
	def      *BaseDefinition[*content.Webpage]
	source   *memSource[*content.Webpage]
	manager  *Manager[*content.Webpage]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		provider: NewFSDirectoryProvider(t.TempDir()),
		def:      pageDefinition(),
		source:   &memSource[*content.Webpage]{},
	}
	f.manager = NewManager(f.provider, testSite, Definition[*content.Webpage](f.def), Source[*content.Webpage](f.source), WithBatchSize(2))
	return f
}

func page(id int64, title string) *content.Webpage {
	return &content.Webpage{ID: id, SiteID: testSite.ID, Title: title}
}

func docCount(t *testing.T, m *Manager[*content.Webpage]) int {
	t.Helper()
	n, ok := m.NumberOfDocs()
	require.True(t, ok, "index should exist")
	return n
}

func TestManager_StatsWhenAbsent(t *testing.T) {
	// Given: a manager whose index was never written
	f := newFixture(t)

	// Then: stats report absence instead of failing
	assert.False(t, f.manager.IndexExists())
	_, ok := f.manager.NumberOfDocs()
	assert.False(t, ok)
	_, ok = f.manager.LastModified()
	assert.False(t, ok)
}

func TestManager_CreateIndex(t *testing.T) {
	// Given: no index on disk
	f := newFixture(t)

	// When: creating it twice
	first, err := f.manager.CreateIndex()
	require.NoError(t, err)
	second, err := f.manager.CreateIndex()
	require.NoError(t, err)

	// Then: the first call creates an empty index and the second leaves it
	assert.Equal(t, CreationSuccess, first)
	assert.Equal(t, CreationAlreadyExists, second)
	assert.Equal(t, 0, docCount(t, f.manager))

	modified, ok := f.manager.LastModified()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), modified, time.Minute)
}

func TestManager_CreateIndex_KeepsContent(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(1, "Home")).Success)

	status, err := f.manager.CreateIndex()

	require.NoError(t, err)
	assert.Equal(t, CreationAlreadyExists, status)
	assert.Equal(t, 1, docCount(t, f.manager))
}

func TestManager_CreateIndex_Failure(t *testing.T) {
	// Given: an index root that is a regular file
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))
	m := NewManager(NewFSDirectoryProvider(root), testSite, Definition[*content.Webpage](pageDefinition()), Source[*content.Webpage](&memSource[*content.Webpage]{}))

	// When: creating the index
	status, err := m.CreateIndex()

	// Then: creation fails with an error
	assert.Equal(t, CreationFailure, status)
	require.Error(t, err)
	assert.Equal(t, sierrors.ErrCodeWriteFailed, sierrors.GetCode(err))
}

func TestManager_Insert_CreatesMissingIndex(t *testing.T) {
	f := newFixture(t)

	r := f.manager.Insert(page(1, "Home"))

	require.True(t, r.Success, r.String())
	assert.True(t, f.manager.IndexExists())
	assert.Equal(t, 1, docCount(t, f.manager))
}

func TestManager_Insert_AppendsDuplicates(t *testing.T) {
	// Given: an indexed page
	f := newFixture(t)
	p := page(1, "Home")
	require.True(t, f.manager.Insert(p).Success)

	// When: inserting the same page again
	r := f.manager.Insert(p)

	// Then: the index holds two documents for it
	require.True(t, r.Success)
	assert.Equal(t, 2, docCount(t, f.manager))
	docs, err := f.manager.Lookup(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestManager_InsertAll_FlushesInBatches(t *testing.T) {
	f := newFixture(t)
	pages := []*content.Webpage{page(1, "a"), page(2, "b"), page(3, "c"), page(4, "d"), page(5, "e")}

	r := f.manager.InsertAll(pages)

	require.True(t, r.Success)
	assert.Equal(t, 5, docCount(t, f.manager))
}

func TestManager_Update_ReplacesDocument(t *testing.T) {
	// Given: a page indexed twice
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(1, "Old")).Success)
	require.True(t, f.manager.Insert(page(1, "Old")).Success)
	require.True(t, f.manager.Insert(page(2, "Other")).Success)

	// When: updating it
	r := f.manager.Update(page(1, "New"))

	// Then: one document remains, carrying the new content
	require.True(t, r.Success)
	assert.Equal(t, 2, docCount(t, f.manager))
	docs, err := f.manager.Lookup(context.Background(), page(1, ""))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "New", docs[0].Get("title"))
}

func TestManager_Update_NoOpWhenNotIndexed(t *testing.T) {
	// Given: an index without the page
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(2, "Other")).Success)

	// When: updating a page that was never inserted
	r := f.manager.Update(page(1, "Ghost"))

	// Then: the call succeeds and adds nothing
	require.True(t, r.Success)
	assert.Equal(t, 1, docCount(t, f.manager))
}

func TestManager_Update_NoOpWhenIndexAbsent(t *testing.T) {
	f := newFixture(t)

	r := f.manager.Update(page(1, "Ghost"))

	require.True(t, r.Success)
	assert.False(t, f.manager.IndexExists())
}

func TestManager_UpdateAll_AddsMissing(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(1, "Old")).Success)

	r := f.manager.UpdateAll([]*content.Webpage{page(1, "New"), page(2, "Added")})

	require.True(t, r.Success)
	assert.Equal(t, 2, docCount(t, f.manager))
	docs, err := f.manager.Lookup(context.Background(), page(1, ""))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "New", docs[0].Get("title"))
}

func TestManager_Delete_Idempotent(t *testing.T) {
	// Given: a page indexed twice and another page
	f := newFixture(t)
	require.True(t, f.manager.InsertAll([]*content.Webpage{page(1, "a"), page(1, "a"), page(2, "b")}).Success)

	// When: deleting it twice
	first := f.manager.Delete(page(1, ""))
	second := f.manager.Delete(page(1, ""))

	// Then: both calls succeed and only the other page remains
	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Equal(t, 1, docCount(t, f.manager))
}

func TestManager_DeleteAll(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.manager.InsertAll([]*content.Webpage{page(1, "a"), page(2, "b"), page(3, "c")}).Success)

	r := f.manager.DeleteAll([]*content.Webpage{page(1, ""), page(3, ""), page(9, "")})

	require.True(t, r.Success)
	assert.Equal(t, 1, docCount(t, f.manager))
}

func TestManager_ReIndex_RebuildsFromLiveEntities(t *testing.T) {
	// Given: a stale index and a source with deleted and foreign rows
	f := newFixture(t)
	require.True(t, f.manager.InsertAll([]*content.Webpage{page(1, "stale"), page(1, "stale"), page(99, "gone")}).Success)

	deleted := page(3, "deleted")
	deleted.IsDeleted = true
	foreign := page(4, "foreign")
	foreign.SiteID = 2
	f.source.items = []*content.Webpage{page(1, "fresh"), page(2, "fresh"), deleted, foreign}

	// When: rebuilding
	r := f.manager.ReIndex(context.Background())

	// Then: exactly the live rows of this site are indexed
	require.True(t, r.Success, r.String())
	assert.Equal(t, 2, docCount(t, f.manager))
	for _, id := range []int64{3, 4, 99} {
		docs, err := f.manager.Lookup(context.Background(), page(id, ""))
		require.NoError(t, err)
		assert.Empty(t, docs, "id %d", id)
	}

	// And: the source was asked for this site only
	require.Len(t, f.source.sites, 1)
	require.NotNil(t, f.source.sites[0])
	assert.Equal(t, testSite.ID, f.source.sites[0].ID)
}

func TestManager_ReIndex_EmptySourceLeavesEmptyIndex(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(1, "a")).Success)

	r := f.manager.ReIndex(context.Background())

	require.True(t, r.Success)
	assert.Equal(t, 0, docCount(t, f.manager))
}

func TestManager_ReIndex_SourceFailure(t *testing.T) {
	// Given: an indexed page and a failing store
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(1, "a")).Success)
	f.source.err = errors.New("database is locked")

	// When: rebuilding
	r := f.manager.ReIndex(context.Background())

	// Then: the failure is reported and the index is untouched
	require.False(t, r.Success)
	assert.Equal(t, sierrors.ErrCodeStoreFailed, sierrors.GetCode(r.Err))
	assert.Equal(t, 1, docCount(t, f.manager))
}

func TestManager_ReIndex_GlobalEntitiesAreNotSiteFiltered(t *testing.T) {
	// Given: a user index
	src := &memSource[*content.User]{items: []*content.User{{ID: 1, Email: "a@example.com"}, {ID: 2, Email: "b@example.com"}}}
	def := NewBaseDefinition("Users", "users", func(u *content.User) Document {
		return NewDocument().Set("email", u.Email)
	})
	m := NewManager(NewFSDirectoryProvider(t.TempDir()), testSite, Definition[*content.User](def), Source[*content.User](src))

	// When: rebuilding
	require.True(t, m.ReIndex(context.Background()).Success)

	// Then: every user is indexed and the source saw no site filter
	n, ok := m.NumberOfDocs()
	require.True(t, ok)
	assert.Equal(t, 2, n)
	require.Len(t, src.sites, 1)
	assert.Nil(t, src.sites[0])
}

func TestManager_Optimise(t *testing.T) {
	f := newFixture(t)
	for i := range int64(5) {
		require.True(t, f.manager.Insert(page(i+1, "p")).Success)
	}

	r := f.manager.Optimise()

	require.True(t, r.Success, r.String())
	assert.Equal(t, 5, docCount(t, f.manager))
}

func TestManager_TypeMismatch(t *testing.T) {
	// Given: a webpage manager
	f := newFixture(t)
	user := &content.User{ID: 1}

	// When: passing it a user through the untyped API
	results := []Result{f.manager.InsertAny(user), f.manager.UpdateAny(user), f.manager.DeleteAny(user)}
	_, docErr := f.manager.GetDocumentAny(user)

	// Then: every call fails without touching storage
	for _, r := range results {
		require.False(t, r.Success)
		assert.Equal(t, sierrors.ErrCodeTypeMismatch, sierrors.GetCode(r.Err))
	}
	assert.Equal(t, sierrors.ErrCodeTypeMismatch, sierrors.GetCode(docErr))
	assert.False(t, f.manager.IndexExists())
}

func TestManager_AnyAcceptsMatchingType(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.manager.InsertAny(page(1, "a")).Success)
	doc, err := f.manager.GetDocumentAny(page(1, "a"))

	require.NoError(t, err)
	assert.Equal(t, "1", doc.Get(DefaultKeyField))
	assert.Equal(t, 1, docCount(t, f.manager))
}

func TestManager_PanicBecomesFailure(t *testing.T) {
	// Given: a definition whose conversion panics once
	panicky := true
	def := NewBaseDefinition("Webpages", "webpages", func(w *content.Webpage) Document {
		if panicky {
			panic("bad markup")
		}
		return NewDocument().Set("title", w.Title)
	})
	m := NewManager(NewFSDirectoryProvider(t.TempDir()), testSite, Definition[*content.Webpage](def), Source[*content.Webpage](&memSource[*content.Webpage]{}))

	// When: inserting
	r := m.Insert(page(1, "a"))

	// Then: the panic is reported as an internal failure
	require.False(t, r.Success)
	assert.Equal(t, sierrors.ErrCodeInternal, sierrors.GetCode(r.Err))

	// And: the index lock was released
	panicky = false
	r = m.Insert(page(1, "a"))
	require.True(t, r.Success, r.String())
}

func TestManager_LockedIndex(t *testing.T) {
	// Given: a write session held elsewhere
	f := newFixture(t)
	w, err := f.manager.Directory().OpenWriter(WriterConfig{KeyField: DefaultKeyField}, false)
	require.NoError(t, err)

	// When: writing through the manager
	r := f.manager.Insert(page(1, "a"))

	// Then: the write fails fast as locked and retryable
	require.False(t, r.Success)
	assert.Equal(t, sierrors.ErrCodeIndexLocked, sierrors.GetCode(r.Err))
	assert.True(t, sierrors.IsRetryable(r.Err))

	// And: succeeds once the session closes
	require.NoError(t, w.Close())
	assert.True(t, f.manager.Insert(page(1, "a")).Success)
}

func TestManager_ReadsDuringWriteSession(t *testing.T) {
	// Given: an index with one document and a write session holding it
	provider := NewFSDirectoryProvider(t.TempDir(), WithOpenTimeout(50*time.Millisecond))
	m := NewManager(provider, testSite, Definition[*content.Webpage](pageDefinition()), Source[*content.Webpage](&memSource[*content.Webpage]{}))
	require.True(t, m.Insert(page(1, "a")).Success)
	w, err := m.Directory().OpenWriter(WriterConfig{KeyField: DefaultKeyField}, false)
	require.NoError(t, err)

	// When: counting
	_, ok := m.NumberOfDocs()
	_, countErr := m.CountDocs()

	// Then: the index still exists and the count is reported as locked, not absent
	assert.True(t, m.IndexExists())
	assert.False(t, ok)
	assert.Equal(t, sierrors.ErrCodeIndexLocked, sierrors.GetCode(countErr))

	// When: updating, which reads before it writes
	r := m.Update(page(1, "b"))

	// Then: the update fails as locked and retryable
	require.False(t, r.Success)
	assert.Equal(t, sierrors.ErrCodeIndexLocked, sierrors.GetCode(r.Err))
	assert.True(t, sierrors.IsRetryable(r.Err))

	// And: both work once the session closes
	require.NoError(t, w.Close())
	n, err := m.CountDocs()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, m.Update(page(1, "b")).Success)
}

func TestManager_CountDocsWhenAbsent(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CountDocs()

	assert.Equal(t, sierrors.ErrCodeIndexAbsent, sierrors.GetCode(err))
}

func TestManager_ResetsSearcherAfterWrite(t *testing.T) {
	// Given: a cached search result
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(1, "alpha")).Success)
	before, err := f.manager.Search(context.Background(), "alpha beta", 10)
	require.NoError(t, err)
	require.Len(t, before.Hits, 1)
	searcher := f.def.Searcher()

	// When: writing
	require.True(t, f.manager.Insert(page(2, "beta")).Success)

	// Then: the searcher is replaced and reads see the write
	assert.NotSame(t, searcher, f.def.Searcher())
	after, err := f.manager.Search(context.Background(), "alpha beta", 10)
	require.NoError(t, err)
	assert.Len(t, after.Hits, 2)
}

func TestManager_ResetsSearcherAfterFailedWrite(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.manager.Insert(page(1, "a")).Success)
	searcher := f.def.Searcher()

	w, err := f.manager.Directory().OpenWriter(WriterConfig{KeyField: DefaultKeyField}, false)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	// A failed lock never opens a session, so the searcher survives.
	require.False(t, f.manager.Insert(page(2, "b")).Success)
	assert.Same(t, searcher, f.def.Searcher())

	f.manager.ResetSearcher()
	assert.NotSame(t, searcher, f.def.Searcher())
}

func TestManager_Identity(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "Webpages", f.manager.IndexName())
	assert.Equal(t, "webpages", f.manager.IndexFolderName())
	assert.Equal(t, DefinitionKey[*BaseDefinition[*content.Webpage]](), f.manager.DefinitionKey())
	assert.Equal(t, "*content.Webpage", f.manager.EntityType().String())
	assert.Equal(t, filepath.Join(f.provider.Root(), "1", "webpages"), f.manager.Directory().Path())
	assert.Equal(t, testSite, f.manager.Site())
}
