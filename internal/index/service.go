package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/siteindex/internal/content"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
)

// ManagerBase is the type-erased view of a Manager held by a Service.
type ManagerBase interface {
	IndexName() string
	IndexFolderName() string
	DefinitionKey() string
	EntityType() reflect.Type
	Directory() *Directory

	IndexExists() bool
	LastModified() (time.Time, bool)
	NumberOfDocs() (int, bool)
	CountDocs() (int, error)

	CreateIndex() (CreationStatus, error)
	InsertAny(entity any) Result
	UpdateAny(entity any) Result
	DeleteAny(entity any) Result
	GetDocumentAny(entity any) (Document, error)
	ReIndex(ctx context.Context) Result
	Optimise() Result
	ResetSearcher()

	Search(ctx context.Context, text string, limit int) (*SearchResult, error)
}

var _ ManagerBase = (*Manager[*content.Webpage])(nil)

// IndexInfo summarises one registered index.
type IndexInfo struct {
	Name          string     `json:"name"`
	FolderName    string     `json:"folder_name"`
	DefinitionKey string     `json:"definition_key"`
	Path          string     `json:"path"`
	Exists        bool       `json:"exists"`
	Locked        bool       `json:"locked,omitempty"`
	NumberOfDocs  *int       `json:"number_of_docs,omitempty"`
	LastModified  *time.Time `json:"last_modified,omitempty"`
}

// Service is the registry of every index Manager for one site.
type Service struct {
	site        content.Site
	provider    DirectoryProvider
	logger      *slog.Logger
	managerOpts []ManagerOption

	mu       sync.RWMutex
	managers map[string]ManagerBase
	order    []string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for the Service and its Managers.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithManagerOptions applies opts to every Manager registered afterwards.
func WithManagerOptions(opts ...ManagerOption) ServiceOption {
	return func(s *Service) {
		s.managerOpts = append(s.managerOpts, opts...)
	}
}

// NewService creates an empty registry for site.
func NewService(site content.Site, provider DirectoryProvider, opts ...ServiceOption) *Service {
	s := &Service{
		site:     site,
		provider: provider,
		logger:   slog.Default(),
		managers: make(map[string]ManagerBase),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Site returns the site the Service manages.
func (s *Service) Site() content.Site {
	return s.site
}

// Register creates the Manager for definition and adds it to s.
// Registering the same definition type twice replaces the earlier Manager.
func Register[T content.Entity](s *Service, definition Definition[T], source Source[T], opts ...ManagerOption) *Manager[T] {
	all := append([]ManagerOption{WithLogger(s.logger)}, s.managerOpts...)
	m := NewManager(s.provider, s.site, definition, source, append(all, opts...)...)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.DefinitionKey()
	if _, exists := s.managers[key]; exists {
		s.logger.Warn("index_definition_replaced", slog.String("definition", key))
	} else {
		s.order = append(s.order, key)
	}
	s.managers[key] = m
	return m
}

// DefinitionKey returns the registry key of definition type D.
func DefinitionKey[D any]() string {
	return typeKey(reflect.TypeFor[D]())
}

// typeKey names t by import path so same-named types of different packages
// stay distinct. Pointer types are keyed by their element type.
func typeKey(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// GetIndexManagerBase returns the Manager registered for a definition key.
func (s *Service) GetIndexManagerBase(key string) (ManagerBase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.managers[key]
	if !ok {
		return nil, sierrors.New(sierrors.ErrCodeUnknownDefinition,
			fmt.Sprintf("no index registered for definition %s", key), nil)
	}
	return m, nil
}

// Find returns the Manager whose definition key or index name equals name.
func (s *Service) Find(name string) (ManagerBase, error) {
	if m, err := s.GetIndexManagerBase(name); err == nil {
		return m, nil
	}
	for _, m := range s.Managers() {
		if m.IndexName() == name || m.IndexFolderName() == name {
			return m, nil
		}
	}
	return nil, sierrors.New(sierrors.ErrCodeUnknownDefinition,
		fmt.Sprintf("no index named %s", name), nil)
}

// Managers returns every registered Manager in registration order.
func (s *Service) Managers() []ManagerBase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ManagerBase, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.managers[key])
	}
	return out
}

// Reindex rebuilds the index of the definition registered under key.
func (s *Service) Reindex(ctx context.Context, key string) Result {
	m, err := s.GetIndexManagerBase(key)
	if err != nil {
		return Failed(err)
	}
	return m.ReIndex(ctx)
}

// Optimise compacts the index of the definition registered under key.
func (s *Service) Optimise(key string) Result {
	m, err := s.GetIndexManagerBase(key)
	if err != nil {
		return Failed(err)
	}
	return m.Optimise()
}

// EnsureIndexExists rebuilds the index registered under key when it is
// missing. An existing index is left alone.
func (s *Service) EnsureIndexExists(ctx context.Context, key string) Result {
	m, err := s.GetIndexManagerBase(key)
	if err != nil {
		return Failed(err)
	}
	if m.IndexExists() {
		return Succeeded()
	}
	s.logger.Info("index_bootstrap", slog.String("definition", key), slog.Int64("site_id", s.site.ID))
	return s.Reindex(ctx, key)
}

// EnsureIndexExists is the typed form of Service.EnsureIndexExists for
// definition type D over entity type T.
func EnsureIndexExists[T content.Entity, D Definition[T]](ctx context.Context, s *Service) Result {
	return s.EnsureIndexExists(ctx, DefinitionKey[D]())
}

// GetIndexes describes every registered index.
func (s *Service) GetIndexes() []IndexInfo {
	managers := s.Managers()
	infos := make([]IndexInfo, 0, len(managers))
	for _, m := range managers {
		info := IndexInfo{
			Name:          m.IndexName(),
			FolderName:    m.IndexFolderName(),
			DefinitionKey: m.DefinitionKey(),
			Path:          m.Directory().Path(),
			Exists:        m.IndexExists(),
		}
		if info.Exists {
			n, err := m.CountDocs()
			switch {
			case err == nil:
				info.NumberOfDocs = &n
			case sierrors.GetCode(err) == sierrors.ErrCodeIndexLocked:
				info.Locked = true
			default:
				s.logger.Warn("index_count_failed", slog.String("index", m.IndexName()), slog.String("error", err.Error()))
			}
		}
		if t, ok := m.LastModified(); ok {
			info.LastModified = &t
		}
		infos = append(infos, info)
	}
	return infos
}

// ProvisionStep reports how ProvisionSite handled one index.
type ProvisionStep struct {
	Manager ManagerBase
	// Built is false when the index already existed and was left alone.
	Built    bool
	Result   Result
	Duration time.Duration
}

// ProvisionOption configures ProvisionSite.
type ProvisionOption func(*provisionOptions)

type provisionOptions struct {
	progress func(ProvisionStep)
}

// WithProvisionProgress calls fn once per registered index as it is handled.
// Indexes are provisioned concurrently, so fn must be safe for concurrent use.
func WithProvisionProgress(fn func(ProvisionStep)) ProvisionOption {
	return func(o *provisionOptions) {
		o.progress = fn
	}
}

// ProvisionSite makes sure every registered index exists, rebuilding the
// missing ones. Distinct indexes are independent and are built concurrently.
func (s *Service) ProvisionSite(ctx context.Context, opts ...ProvisionOption) error {
	o := provisionOptions{progress: func(ProvisionStep) {}}
	for _, opt := range opts {
		opt(&o)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	var failures []error

	for _, m := range s.Managers() {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if m.IndexExists() {
				o.progress(ProvisionStep{Manager: m, Result: Succeeded()})
				return nil
			}

			start := time.Now()
			r := m.ReIndex(gctx)
			o.progress(ProvisionStep{Manager: m, Built: true, Result: r, Duration: time.Since(start)})
			if !r.Success {
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", m.IndexName(), r.Err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return errors.Join(failures...)
}
