package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/index/scorch/mergeplan"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// DefaultBatchSize is the number of pending documents a writer buffers before flushing.
const DefaultBatchSize = 500

var errWriterClosed = errors.New("index writer is closed")

// WriterConfig carries what a write session needs from the definition.
type WriterConfig struct {
	Analyser  Analyser
	KeyField  string
	BatchSize int
}

// Writer is the exclusive write session on one index.
// It holds the index lock until Close, which flushes pending documents
// and must be called on every exit path.
type Writer struct {
	idx       bleve.Index
	lock      *flock.Flock
	batch     *bleve.Batch
	batchSize int
	closed    bool
}

func newWriter(idx bleve.Index, lock *flock.Flock, cfg WriterConfig) *Writer {
	size := cfg.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Writer{
		idx:       idx,
		lock:      lock,
		batch:     idx.NewBatch(),
		batchSize: size,
	}
}

// AddDocument appends doc under a fresh internal id.
// It never replaces an existing document, even one with the same term key.
func (w *Writer) AddDocument(doc Document) error {
	if w.closed {
		return errWriterClosed
	}
	if err := w.batch.Index(uuid.NewString(), map[string]any(doc)); err != nil {
		return fmt.Errorf("failed to add document: %w", err)
	}
	if w.batch.Size() >= w.batchSize {
		return w.flush()
	}
	return nil
}

// UpdateDocument replaces every document matching key with doc.
// When nothing matches, doc is added.
func (w *Writer) UpdateDocument(key TermKey, doc Document) error {
	if err := w.DeleteDocuments(key); err != nil {
		return err
	}
	return w.AddDocument(doc)
}

// DeleteDocuments removes every document matching key.
// Deleting an absent key is a no-op.
func (w *Writer) DeleteDocuments(key TermKey) error {
	if w.closed {
		return errWriterClosed
	}
	if err := w.flush(); err != nil {
		return err
	}

	ids, err := matchingIDs(w.idx, key)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	for _, id := range ids {
		w.batch.Delete(id)
	}
	return w.flush()
}

// DocCount returns the number of documents visible to the writer.
func (w *Writer) DocCount() (uint64, error) {
	if w.closed {
		return 0, errWriterClosed
	}
	if err := w.flush(); err != nil {
		return 0, err
	}
	return w.idx.DocCount()
}

// forceMerger is implemented by the scorch index engine.
type forceMerger interface {
	ForceMerge(ctx context.Context, mo *mergeplan.MergePlanOptions) error
}

// Optimize merges the index into a single segment.
// Engines without force-merge support are left as they are.
func (w *Writer) Optimize() error {
	if w.closed {
		return errWriterClosed
	}
	if err := w.flush(); err != nil {
		return err
	}

	internal, err := w.idx.Advanced()
	if err != nil {
		return fmt.Errorf("failed to access index engine: %w", err)
	}
	merger, ok := internal.(forceMerger)
	if !ok {
		return nil
	}
	if err := merger.ForceMerge(context.Background(), &mergeplan.SingleSegmentMergePlanOptions); err != nil {
		return fmt.Errorf("failed to merge index segments: %w", err)
	}
	return nil
}

// Close flushes pending documents, closes the index and releases the lock.
// All three steps run even when an earlier one fails.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	errs := []error{w.flush()}
	w.closed = true

	if err := w.idx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close index: %w", err))
	}
	if err := w.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release index lock: %w", err))
	}
	return errors.Join(errs...)
}

func (w *Writer) flush() error {
	if w.batch.Size() == 0 {
		return nil
	}
	if err := w.idx.Batch(w.batch); err != nil {
		w.batch.Reset()
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	w.batch.Reset()
	return nil
}

// matchingIDs returns the internal ids of every document carrying key.
func matchingIDs(idx bleve.Index, key TermKey) ([]string, error) {
	count, err := idx.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	q := bleve.NewTermQuery(key.Value)
	q.SetField(key.Field)
	req := bleve.NewSearchRequest(q)
	req.Size = int(count)

	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents for %s: %w", key, err)
	}

	ids := make([]string, len(res.Hits))
	for i, hit := range res.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}
