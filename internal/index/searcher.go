package index

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	lru "github.com/hashicorp/golang-lru/v2"

	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

// DefaultSearcherCacheSize is the number of query results a Searcher memoises.
const DefaultSearcherCacheSize = 256

// Hit is one document returned by a search.
type Hit struct {
	ID       string
	Score    float64
	Document Document
}

// SearchResult is a point-in-time answer from a Searcher.
type SearchResult struct {
	Total uint64
	Hits  []Hit
}

// Documents returns the documents of every hit.
func (r *SearchResult) Documents() []Document {
	docs := make([]Document, len(r.Hits))
	for i, h := range r.Hits {
		docs[i] = h.Document
	}
	return docs
}

// clone copies r down to its documents so callers cannot alter a memoised result.
func (r *SearchResult) clone() *SearchResult {
	out := &SearchResult{Total: r.Total, Hits: make([]Hit, len(r.Hits))}
	for i, h := range r.Hits {
		h.Document = h.Document.Clone()
		out.Hits[i] = h
	}
	return out
}

// Searcher is the cached read view of a definition's indexes.
// Results are memoised until the owning definition resets it, so reads
// between a write and the next reset may be stale. Every cache miss opens
// a short-lived read-only view and closes it before returning.
type Searcher struct {
	cache *lru.Cache[string, *SearchResult]
}

// NewSearcher creates a Searcher memoising up to size results.
func NewSearcher(size int) *Searcher {
	if size <= 0 {
		size = DefaultSearcherCacheSize
	}
	cache, _ := lru.New[string, *SearchResult](size)
	return &Searcher{cache: cache}
}

// Lookup returns every stored document addressed by key.
func (s *Searcher) Lookup(ctx context.Context, dir *Directory, key TermKey) (*SearchResult, error) {
	q := bleve.NewTermQuery(key.Value)
	q.SetField(key.Field)
	return s.run(ctx, dir, "term|"+key.String(), q, 0)
}

// Match runs an analysed match query over all fields.
// limit <= 0 returns every match.
func (s *Searcher) Match(ctx context.Context, dir *Directory, text string, limit int) (*SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return &SearchResult{}, nil
	}
	return s.run(ctx, dir, "match|"+text, bleve.NewMatchQuery(text), limit)
}

// Cached reports how many results are memoised.
func (s *Searcher) Cached() int {
	return s.cache.Len()
}

func (s *Searcher) run(ctx context.Context, dir *Directory, key string, q query.Query, limit int) (*SearchResult, error) {
	cacheKey := dir.Path() + "\x00" + key + "\x00" + strconv.Itoa(limit)
	if res, ok := s.cache.Get(cacheKey); ok {
		return res.clone(), nil
	}

	if !dir.Exists() {
		return nil, sierrors.New(sierrors.ErrCodeIndexAbsent, "index does not exist", nil).
			WithDetail("path", dir.Path())
	}

	idx, err := dir.OpenReader()
	if err != nil {
		if sierrors.GetCode(err) == sierrors.ErrCodeIndexLocked {
			return nil, err
		}
		return nil, sierrors.New(sierrors.ErrCodeSearchFailed, "failed to open read view", err)
	}
	defer func() { _ = idx.Close() }()

	size := limit
	if size <= 0 {
		count, err := idx.DocCount()
		if err != nil {
			return nil, sierrors.New(sierrors.ErrCodeSearchFailed, "failed to count documents", err)
		}
		size = int(count)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = size
	req.Fields = []string{"*"}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, sierrors.New(sierrors.ErrCodeSearchFailed, fmt.Sprintf("search failed: %v", err), err)
	}

	result := &SearchResult{
		Total: res.Total,
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		result.Hits = append(result.Hits, Hit{
			ID:       h.ID,
			Score:    h.Score,
			Document: Document(h.Fields),
		})
	}

	s.cache.Add(cacheKey, result)
	return result.clone(), nil
}
