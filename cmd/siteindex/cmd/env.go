package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aman-CERP/siteindex/internal/content"
	"github.com/Aman-CERP/siteindex/internal/definitions"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/preflight"
	"github.com/Aman-CERP/siteindex/internal/store"
)

// env wires the store, the definitions and one Service per site.
type env struct {
	app      *app
	store    *store.Store
	provider *index.FSDirectoryProvider
	defs     *definitions.Set
}

// openEnv opens the entity store and builds the shared index components.
func (a *app) openEnv() (*env, error) {
	st, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return nil, sierrors.New(sierrors.ErrCodeStoreFailed, "failed to open entity store", err).
			WithDetail("path", a.cfg.Store.Path)
	}

	return &env{
		app:   a,
		store: st,
		provider: index.NewFSDirectoryProvider(a.cfg.Index.Root,
			index.WithDirectoryCacheSize(a.cfg.Index.DirectoryCacheSize),
			index.WithOpenTimeout(a.cfg.Index.LockTimeout)),
		defs: definitions.NewSet(index.WithSearcherCacheSize(a.cfg.Index.SearcherCacheSize)),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// site loads the site selected with --site.
func (e *env) site(ctx context.Context) (content.Site, error) {
	s, err := e.store.GetSite(ctx, e.app.siteID)
	if errors.Is(err, store.ErrNotFound) {
		return content.Site{}, sierrors.New(sierrors.ErrCodeInvalidInput,
			fmt.Sprintf("site %d does not exist", e.app.siteID), err).
			WithSuggestion("Run 'siteindex seed' to create a site with sample content")
	}
	if err != nil {
		return content.Site{}, err
	}
	return *s, nil
}

// service returns the index Service for site with every definition registered.
func (e *env) service(site content.Site) *index.Service {
	svc := index.NewService(site, e.provider,
		index.WithServiceLogger(e.app.logger),
		index.WithManagerOptions(index.WithBatchSize(e.app.cfg.Index.BatchSize)))
	e.defs.Register(svc, e.store)
	return svc
}

// selectManagers resolves index names, or every index when names is empty.
func selectManagers(svc *index.Service, names []string) ([]index.ManagerBase, error) {
	if len(names) == 0 {
		return svc.Managers(), nil
	}

	var managers []index.ManagerBase
	for _, name := range names {
		m, err := svc.Find(name)
		if err != nil {
			return nil, sierrors.New(sierrors.ErrCodeUnknownDefinition,
				fmt.Sprintf("unknown index %q", name), err).
				WithSuggestion("Known indexes: " + strings.Join(indexNames(svc), ", "))
		}
		managers = append(managers, m)
	}
	return managers, nil
}

func indexNames(svc *index.Service) []string {
	var names []string
	for _, m := range svc.Managers() {
		names = append(names, m.IndexFolderName())
	}
	return names
}

// preflight refuses a rebuild when the index root cannot take one.
func (e *env) preflight(ctx context.Context) error {
	for _, r := range preflight.New().RunIndexChecks(ctx, e.provider.Root()) {
		if !r.IsCritical() {
			continue
		}
		code := sierrors.ErrCodeWriteFailed
		if r.Name == "disk_space" {
			code = sierrors.ErrCodeDiskFull
		}
		return sierrors.New(code, fmt.Sprintf("preflight check %s failed: %s", r.Name, r.Message), nil).
			WithDetail("path", e.provider.Root()).
			WithSuggestion("Run 'siteindex doctor' for details")
	}
	return nil
}
