package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/gofrs/flock"
	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/siteindex/internal/content"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

const (
	// DefaultDirectoryCacheSize is the number of directory handles a provider keeps.
	DefaultDirectoryCacheSize = 64

	// DefaultOpenTimeout bounds how long opening an index waits on the storage lock.
	DefaultOpenTimeout = time.Second
)

// DirectoryProvider resolves the storage location of an index.
// Repeated calls with the same arguments return handles for the same storage.
type DirectoryProvider interface {
	Get(site content.Site, folderName string) *Directory
}

// Directory is a handle on the physical storage of one index at one site.
type Directory struct {
	siteID      int64
	folder      string
	path        string
	lockPath    string
	openTimeout time.Duration
}

// NewDirectory returns a handle for the index stored at path.
func NewDirectory(path string) *Directory {
	return &Directory{
		folder:      filepath.Base(path),
		path:        path,
		lockPath:    path + ".lock",
		openTimeout: DefaultOpenTimeout,
	}
}

// Path returns the index directory path.
func (d *Directory) Path() string {
	return d.path
}

// Exists reports whether a valid index is present.
func (d *Directory) Exists() bool {
	return validateIndexIntegrity(d.path) == nil
}

// LastModified returns the newest modification time of any index file.
func (d *Directory) LastModified() (time.Time, error) {
	var latest time.Time
	err := filepath.WalkDir(d.path, func(_ string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat index %s: %w", d.path, err)
	}
	return latest, nil
}

// OpenReader opens a read-only view of the index.
// The caller must close it before the end of the operation.
// While a write session holds the index it fails with ERR_207_INDEX_LOCKED
// once the open timeout passes.
func (d *Directory) OpenReader() (bleve.Index, error) {
	idx, err := bleve.OpenUsing(d.path, map[string]any{
		"read_only":    true,
		"bolt_timeout": d.openTimeout.String(),
	})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, sierrors.LockedError(d.path)
		}
		return nil, fmt.Errorf("failed to open index %s for reading: %w", d.path, err)
	}
	return idx, nil
}

// OpenWriter starts the single write session for this index.
// With recreate set, any existing index content is discarded first.
// A writer already held elsewhere fails fast with ERR_207_INDEX_LOCKED.
func (d *Directory) OpenWriter(cfg WriterConfig, recreate bool) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return nil, sierrors.WriteError("failed to create index parent directory", err).
			WithDetail("path", d.path)
	}

	lock := flock.New(d.lockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, sierrors.WriteError("failed to acquire index lock", err).
			WithDetail("path", d.lockPath)
	}
	if !acquired {
		return nil, sierrors.LockedError(d.path)
	}

	idx, err := d.openForWrite(cfg, recreate)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return newWriter(idx, lock, cfg), nil
}

func (d *Directory) openForWrite(cfg WriterConfig, recreate bool) (bleve.Index, error) {
	if recreate {
		if err := os.RemoveAll(d.path); err != nil {
			return nil, sierrors.WriteError("failed to clear index", err).WithDetail("path", d.path)
		}
		return d.create(cfg)
	}

	if err := validateIndexIntegrity(d.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return d.create(cfg)
		}
		return nil, sierrors.New(sierrors.ErrCodeCorruptIndex, "index is corrupted", err).
			WithDetail("path", d.path).
			WithSuggestion("Rebuild the index with 'siteindex reindex'")
	}

	idx, err := bleve.OpenUsing(d.path, map[string]any{
		"bolt_timeout": d.openTimeout.String(),
	})
	if err != nil {
		return nil, sierrors.WriteError("failed to open index for writing", err).WithDetail("path", d.path)
	}
	return idx, nil
}

func (d *Directory) create(cfg WriterConfig) (bleve.Index, error) {
	m, err := NewIndexMapping(cfg.Analyser, cfg.KeyField)
	if err != nil {
		return nil, sierrors.New(sierrors.ErrCodeIndexFailed, "failed to build index mapping", err)
	}
	idx, err := bleve.New(d.path, m)
	if err != nil {
		return nil, sierrors.WriteError("failed to create index", err).WithDetail("path", d.path)
	}
	return idx, nil
}

type directoryKey struct {
	siteID int64
	folder string
}

// FSDirectoryProvider lays indexes out as <root>/<site id>/<folder name>.
type FSDirectoryProvider struct {
	root        string
	openTimeout time.Duration
	cache       *lru.Cache[directoryKey, *Directory]
}

// ProviderOption configures an FSDirectoryProvider.
type ProviderOption func(*providerOptions)

type providerOptions struct {
	cacheSize   int
	openTimeout time.Duration
}

// WithDirectoryCacheSize sets how many handles the provider keeps.
func WithDirectoryCacheSize(n int) ProviderOption {
	return func(o *providerOptions) {
		o.cacheSize = n
	}
}

// WithOpenTimeout sets how long opening an index waits on the storage lock.
func WithOpenTimeout(d time.Duration) ProviderOption {
	return func(o *providerOptions) {
		o.openTimeout = d
	}
}

// NewFSDirectoryProvider creates a provider rooted at root.
func NewFSDirectoryProvider(root string, opts ...ProviderOption) *FSDirectoryProvider {
	o := providerOptions{
		cacheSize:   DefaultDirectoryCacheSize,
		openTimeout: DefaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultDirectoryCacheSize
	}

	cache, _ := lru.New[directoryKey, *Directory](o.cacheSize)
	return &FSDirectoryProvider{
		root:        root,
		openTimeout: o.openTimeout,
		cache:       cache,
	}
}

// Root returns the directory all indexes live under.
func (p *FSDirectoryProvider) Root() string {
	return p.root
}

// Get returns the handle for a site's index folder.
// An evicted handle is rebuilt pointing at the same path.
func (p *FSDirectoryProvider) Get(site content.Site, folderName string) *Directory {
	key := directoryKey{siteID: site.ID, folder: folderName}
	if dir, ok := p.cache.Get(key); ok {
		return dir
	}

	path := filepath.Join(p.root, strconv.FormatInt(site.ID, 10), folderName)
	dir := &Directory{
		siteID:      site.ID,
		folder:      folderName,
		path:        path,
		lockPath:    path + ".lock",
		openTimeout: p.openTimeout,
	}
	p.cache.Add(key, dir)
	return dir
}

var _ DirectoryProvider = (*FSDirectoryProvider)(nil)
