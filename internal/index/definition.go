package index

import (
	"iter"
	"strconv"
	"sync"

	"github.com/Aman-CERP/siteindex/internal/content"
)

// DefaultKeyField is the document field holding the term key value.
const DefaultKeyField = "id"

// Definition is the per-entity-type capability a Manager delegates to.
// One Definition is shared by every site's Manager for its entity type,
// so it owns the cached Searcher rather than the Manager.
type Definition[T content.Entity] interface {
	// IndexName is the human-readable index name.
	IndexName() string
	// IndexFolderName is the stable folder name used for on-disk storage.
	IndexFolderName() string
	// KeyField is the document field carrying the term key.
	KeyField() string
	// Convert projects one entity into a document.
	Convert(entity T) Document
	// ConvertAll lazily projects entities. Each range over the result restarts.
	ConvertAll(entities []T) iter.Seq[Document]
	// GetTermKey returns the key addressing entity's document.
	GetTermKey(entity T) TermKey
	// GetAnalyser returns the analysis configuration for new indexes.
	GetAnalyser() Analyser
	// Searcher returns the cached read view, creating it if needed.
	Searcher() *Searcher
	// ResetSearcher invalidates the cached read view.
	ResetSearcher()
}

// BaseDefinition implements Definition for a conversion function.
// Concrete definitions embed it and supply Convert through NewBaseDefinition.
type BaseDefinition[T content.Entity] struct {
	name      string
	folder    string
	keyField  string
	analyser  Analyser
	convert   func(T) Document
	cacheSize int

	mu       sync.Mutex
	searcher *Searcher
}

// DefinitionOption configures a BaseDefinition.
type DefinitionOption func(*definitionOptions)

type definitionOptions struct {
	keyField  string
	analyser  Analyser
	cacheSize int
}

// WithKeyField overrides the term key field.
func WithKeyField(field string) DefinitionOption {
	return func(o *definitionOptions) {
		o.keyField = field
	}
}

// WithAnalyser overrides the analysis configuration.
func WithAnalyser(a Analyser) DefinitionOption {
	return func(o *definitionOptions) {
		o.analyser = a
	}
}

// WithSearcherCacheSize sets how many results the cached Searcher memoises.
func WithSearcherCacheSize(n int) DefinitionOption {
	return func(o *definitionOptions) {
		o.cacheSize = n
	}
}

// NewBaseDefinition creates a definition named name, stored under folder.
// convert must set the key field; Convert enforces it either way.
func NewBaseDefinition[T content.Entity](name, folder string, convert func(T) Document, opts ...DefinitionOption) *BaseDefinition[T] {
	o := definitionOptions{
		keyField:  DefaultKeyField,
		analyser:  StandardAnalyser(),
		cacheSize: DefaultSearcherCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &BaseDefinition[T]{
		name:      name,
		folder:    folder,
		keyField:  o.keyField,
		analyser:  o.analyser,
		convert:   convert,
		cacheSize: o.cacheSize,
	}
}

func (d *BaseDefinition[T]) IndexName() string       { return d.name }
func (d *BaseDefinition[T]) IndexFolderName() string { return d.folder }
func (d *BaseDefinition[T]) KeyField() string        { return d.keyField }
func (d *BaseDefinition[T]) GetAnalyser() Analyser   { return d.analyser }

// Convert projects entity into a document carrying its term key.
func (d *BaseDefinition[T]) Convert(entity T) Document {
	doc := d.convert(entity)
	if doc == nil {
		doc = NewDocument()
	}
	key := d.GetTermKey(entity)
	doc[key.Field] = key.Value
	return doc
}

// ConvertAll implements Definition.
func (d *BaseDefinition[T]) ConvertAll(entities []T) iter.Seq[Document] {
	return func(yield func(Document) bool) {
		for _, e := range entities {
			if !yield(d.Convert(e)) {
				return
			}
		}
	}
}

// GetTermKey keys documents by the decimal entity ID.
func (d *BaseDefinition[T]) GetTermKey(entity T) TermKey {
	return TermKey{Field: d.keyField, Value: strconv.FormatInt(entity.EntityID(), 10)}
}

// Searcher implements Definition.
func (d *BaseDefinition[T]) Searcher() *Searcher {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.searcher == nil {
		d.searcher = NewSearcher(d.cacheSize)
	}
	return d.searcher
}

// ResetSearcher drops the cached Searcher; the next read creates a fresh one.
func (d *BaseDefinition[T]) ResetSearcher() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.searcher = nil
}
