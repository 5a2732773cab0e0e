package index

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/Aman-CERP/siteindex/internal/content"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

// Source lists the live entities of one type from the entity store.
type Source[T content.Entity] interface {
	// ListLive returns every entity that is not soft-deleted, in no particular
	// order. A non-nil site restricts the result to entities of that site.
	ListLive(ctx context.Context, site *content.Site) ([]T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T content.Entity] func(ctx context.Context, site *content.Site) ([]T, error)

// ListLive implements Source.
func (f SourceFunc[T]) ListLive(ctx context.Context, site *content.Site) ([]T, error) {
	return f(ctx, site)
}

// Manager keeps the index of one entity type at one site in sync with the
// entity store. Every mutation runs in its own write session and resets the
// definition's cached Searcher before returning.
//
// A Manager is meant to be used from one goroutine at a time; concurrent
// writers against the same index fail with ERR_207_INDEX_LOCKED.
type Manager[T content.Entity] struct {
	site       content.Site
	definition Definition[T]
	source     Source[T]
	provider   DirectoryProvider
	logger     *slog.Logger
	batchSize  int
	siteScoped bool

	dirOnce sync.Once
	dir     *Directory
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	logger    *slog.Logger
	batchSize int
}

// WithLogger sets the logger used for failures and lifecycle events.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(o *managerOptions) {
		o.logger = l
	}
}

// WithBatchSize sets how many documents a write session buffers.
func WithBatchSize(n int) ManagerOption {
	return func(o *managerOptions) {
		o.batchSize = n
	}
}

// NewManager creates the Manager for definition at site.
func NewManager[T content.Entity](provider DirectoryProvider, site content.Site, definition Definition[T], source Source[T], opts ...ManagerOption) *Manager[T] {
	o := managerOptions{
		logger:    slog.Default(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	return &Manager[T]{
		site:       site,
		definition: definition,
		source:     source,
		provider:   provider,
		logger:     o.logger.With(slog.String("index", definition.IndexName()), slog.Int64("site_id", site.ID)),
		batchSize:  o.batchSize,
		siteScoped: content.IsSiteScoped(zero),
	}
}

// Definition returns the bound definition.
func (m *Manager[T]) Definition() Definition[T] { return m.definition }

// Site returns the site the Manager is scoped to.
func (m *Manager[T]) Site() content.Site { return m.site }

// IndexName returns the definition's index name.
func (m *Manager[T]) IndexName() string { return m.definition.IndexName() }

// IndexFolderName returns the definition's folder name.
func (m *Manager[T]) IndexFolderName() string { return m.definition.IndexFolderName() }

// DefinitionKey identifies the definition type within a Service.
func (m *Manager[T]) DefinitionKey() string {
	return typeKey(reflect.TypeOf(m.definition))
}

// EntityType returns the entity type the Manager accepts.
func (m *Manager[T]) EntityType() reflect.Type {
	return reflect.TypeFor[T]()
}

// Directory returns the resolved storage handle, resolving it on first use.
func (m *Manager[T]) Directory() *Directory {
	m.dirOnce.Do(func() {
		m.dir = m.provider.Get(m.site, m.definition.IndexFolderName())
	})
	return m.dir
}

// IndexExists reports whether a valid index is present on disk.
func (m *Manager[T]) IndexExists() bool {
	return m.Directory().Exists()
}

// LastModified returns when the index last changed; ok is false when there is no index.
func (m *Manager[T]) LastModified() (t time.Time, ok bool) {
	if !m.IndexExists() {
		return time.Time{}, false
	}
	t, err := m.Directory().LastModified()
	if err != nil {
		m.logger.Warn("index_stat_failed", slog.String("error", err.Error()))
		return time.Time{}, false
	}
	return t, true
}

// NumberOfDocs counts the indexed documents; ok is false when there is no
// index or while a write session keeps the count unavailable.
// The count comes from a short-lived read view that is closed before returning.
func (m *Manager[T]) NumberOfDocs() (n int, ok bool) {
	n, err := m.CountDocs()
	switch {
	case err == nil:
		return n, true
	case sierrors.GetCode(err) == sierrors.ErrCodeIndexAbsent:
	case sierrors.GetCode(err) == sierrors.ErrCodeIndexLocked:
		m.logger.Info("index_count_locked", slog.String("path", m.Directory().Path()))
	default:
		m.logger.Warn("index_count_failed", slog.String("error", err.Error()))
	}
	return 0, false
}

// CountDocs is NumberOfDocs with the reason for a missing count: it fails
// with ERR_209_INDEX_ABSENT when there is no index and ERR_207_INDEX_LOCKED
// while a write session holds it.
func (m *Manager[T]) CountDocs() (int, error) {
	dir := m.Directory()
	if !dir.Exists() {
		return 0, sierrors.New(sierrors.ErrCodeIndexAbsent, "index does not exist", nil).
			WithDetail("path", dir.Path())
	}
	idx, err := dir.OpenReader()
	if err != nil {
		return 0, err
	}
	defer func() { _ = idx.Close() }()

	count, err := idx.DocCount()
	if err != nil {
		return 0, sierrors.New(sierrors.ErrCodeSearchFailed, "failed to count documents", err)
	}
	return int(count), nil
}

// CreateIndex creates an empty index unless one already exists.
// The error is non-nil only with CreationFailure.
func (m *Manager[T]) CreateIndex() (CreationStatus, error) {
	if m.IndexExists() {
		return CreationAlreadyExists, nil
	}
	r := m.mutate("create", func() error {
		return m.write(true, func(*Writer) error { return nil })
	})
	if !r.Success {
		return CreationFailure, r.Err
	}
	return CreationSuccess, nil
}

// Insert appends entity's document without checking for an existing one.
func (m *Manager[T]) Insert(entity T) Result {
	return m.mutate("insert", func() error {
		return m.write(false, func(w *Writer) error {
			return w.AddDocument(m.definition.Convert(entity))
		})
	})
}

// InsertAll appends a document for every entity in one write session.
func (m *Manager[T]) InsertAll(entities []T) Result {
	return m.mutate("insert", func() error {
		return m.write(false, func(w *Writer) error {
			for doc := range m.definition.ConvertAll(entities) {
				if err := w.AddDocument(doc); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// Update replaces entity's document in place.
// When no document carries entity's term key the call does nothing: it is
// not an upsert, callers adding a new entity must use Insert.
func (m *Manager[T]) Update(entity T) Result {
	return m.mutate("update", func() error {
		key := m.definition.GetTermKey(entity)
		found, err := m.hasDocument(key)
		if err != nil {
			return err
		}
		if !found {
			m.logger.Debug("index_update_skipped", slog.String("key", key.String()))
			return nil
		}
		return m.write(false, func(w *Writer) error {
			return w.UpdateDocument(key, m.definition.Convert(entity))
		})
	})
}

// UpdateAll replaces the document of every entity in one write session.
// Entities without a document are added.
func (m *Manager[T]) UpdateAll(entities []T) Result {
	return m.mutate("update", func() error {
		return m.write(false, func(w *Writer) error {
			for _, e := range entities {
				if err := w.UpdateDocument(m.definition.GetTermKey(e), m.definition.Convert(e)); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// Delete removes every document carrying entity's term key.
// Deleting an entity that is not indexed succeeds.
func (m *Manager[T]) Delete(entity T) Result {
	return m.mutate("delete", func() error {
		return m.write(false, func(w *Writer) error {
			return w.DeleteDocuments(m.definition.GetTermKey(entity))
		})
	})
}

// DeleteAll removes the documents of every entity in one write session.
func (m *Manager[T]) DeleteAll(entities []T) Result {
	return m.mutate("delete", func() error {
		return m.write(false, func(w *Writer) error {
			for _, e := range entities {
				if err := w.DeleteDocuments(m.definition.GetTermKey(e)); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// ReIndex rebuilds the index from the live entities in the store.
// The rebuild recreates an empty index in one session and populates and
// compacts it in a second, so an interruption leaves an empty index.
// ctx only bounds loading from the store.
func (m *Manager[T]) ReIndex(ctx context.Context) Result {
	start := time.Now()
	var count int

	r := m.mutate("reindex", func() error {
		entities, err := m.liveEntities(ctx)
		if err != nil {
			return err
		}
		count = len(entities)

		if err := m.write(true, func(*Writer) error { return nil }); err != nil {
			return err
		}
		return m.write(false, func(w *Writer) error {
			for doc := range m.definition.ConvertAll(entities) {
				if err := w.AddDocument(doc); err != nil {
					return err
				}
			}
			return w.Optimize()
		})
	})

	if r.Success {
		m.logger.Info("index_rebuilt",
			slog.Int("documents", count),
			slog.Duration("duration", time.Since(start)))
	}
	return r
}

// Optimise compacts the index without changing its content.
func (m *Manager[T]) Optimise() Result {
	return m.mutate("optimise", func() error {
		return m.write(false, func(w *Writer) error { return w.Optimize() })
	})
}

// GetDocument converts entity without touching the index.
func (m *Manager[T]) GetDocument(entity T) Document {
	return m.definition.Convert(entity)
}

// ResetSearcher invalidates the definition's cached read view.
func (m *Manager[T]) ResetSearcher() {
	m.definition.ResetSearcher()
}

// Lookup returns the stored documents addressed by entity's term key.
// It reads through the cached Searcher and may be stale until the next reset.
func (m *Manager[T]) Lookup(ctx context.Context, entity T) ([]Document, error) {
	res, err := m.definition.Searcher().Lookup(ctx, m.Directory(), m.definition.GetTermKey(entity))
	if err != nil {
		return nil, err
	}
	return res.Documents(), nil
}

// Search runs a match query through the cached Searcher.
func (m *Manager[T]) Search(ctx context.Context, text string, limit int) (*SearchResult, error) {
	return m.definition.Searcher().Match(ctx, m.Directory(), text, limit)
}

// InsertAny is Insert for callers holding an untyped entity.
func (m *Manager[T]) InsertAny(entity any) Result {
	e, err := m.cast(entity)
	if err != nil {
		return Failed(err)
	}
	return m.Insert(e)
}

// UpdateAny is Update for callers holding an untyped entity.
func (m *Manager[T]) UpdateAny(entity any) Result {
	e, err := m.cast(entity)
	if err != nil {
		return Failed(err)
	}
	return m.Update(e)
}

// DeleteAny is Delete for callers holding an untyped entity.
func (m *Manager[T]) DeleteAny(entity any) Result {
	e, err := m.cast(entity)
	if err != nil {
		return Failed(err)
	}
	return m.Delete(e)
}

// GetDocumentAny is GetDocument for callers holding an untyped entity.
func (m *Manager[T]) GetDocumentAny(entity any) (Document, error) {
	e, err := m.cast(entity)
	if err != nil {
		return nil, err
	}
	return m.GetDocument(e), nil
}

func (m *Manager[T]) cast(entity any) (T, error) {
	e, ok := entity.(T)
	if !ok {
		var zero T
		return zero, sierrors.TypeMismatchError(entity, m.IndexName())
	}
	return e, nil
}

// liveEntities loads the rebuild set. Rows the store should have filtered
// out are dropped here too.
func (m *Manager[T]) liveEntities(ctx context.Context) ([]T, error) {
	var site *content.Site
	if m.siteScoped {
		s := m.site
		site = &s
	}

	entities, err := m.source.ListLive(ctx, site)
	if err != nil {
		return nil, sierrors.New(sierrors.ErrCodeStoreFailed, "failed to load entities", err).
			WithDetail("index", m.IndexName())
	}

	live := make([]T, 0, len(entities))
	for _, e := range entities {
		if e.SoftDeleted() {
			continue
		}
		if se, ok := any(e).(content.SiteEntity); ok && m.siteScoped && se.OwnerSiteID() != m.site.ID {
			continue
		}
		live = append(live, e)
	}
	return live, nil
}

// hasDocument looks key up in a fresh read view.
func (m *Manager[T]) hasDocument(key TermKey) (bool, error) {
	dir := m.Directory()
	if !dir.Exists() {
		return false, nil
	}
	idx, err := dir.OpenReader()
	if err != nil {
		return false, err
	}
	defer func() { _ = idx.Close() }()

	ids, err := matchingIDs(idx, key)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// write runs fn inside one write session. The session is closed and the
// cached Searcher reset on every exit path, including a panic in fn.
func (m *Manager[T]) write(recreate bool, fn func(*Writer) error) (err error) {
	if !recreate && !m.IndexExists() {
		m.logger.Info("index_created_on_write", slog.String("path", m.Directory().Path()))
	}
	w, err := m.Directory().OpenWriter(WriterConfig{
		Analyser:  m.definition.GetAnalyser(),
		KeyField:  m.definition.KeyField(),
		BatchSize: m.batchSize,
	}, recreate)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.definition.ResetSearcher()
	}()

	return fn(w)
}

// mutate turns fn's outcome into a Result, tagging bare errors as write
// failures and logging every failure.
func (m *Manager[T]) mutate(op string, fn func() error) Result {
	r := resultOf(fn)
	if r.Success {
		return r
	}

	if sierrors.GetCode(r.Err) == "" {
		r.Err = sierrors.WriteError(fmt.Sprintf("%s failed", op), r.Err)
	}
	attrs := append([]slog.Attr{slog.String("op", op)}, sierrors.LogAttrs(r.Err)...)
	m.logger.LogAttrs(context.Background(), slog.LevelError, "index_operation_failed", attrs...)
	return r
}
