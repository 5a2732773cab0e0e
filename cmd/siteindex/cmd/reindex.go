package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/content"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/ui"
)

func newReindexCmd(a *app) *cobra.Command {
	var (
		allSites bool
		retries  int
		noTUI    bool
	)

	cmd := &cobra.Command{
		Use:   "reindex [index...]",
		Short: "Rebuild indexes from the entity store",
		Long: `Rebuild each named index, or every index of the site when none are named,
from the live entities in the store. Soft-deleted entities are left out.

A rebuild that finds the index locked by another writer is retried with
backoff up to --retries times.

On a terminal progress is drawn interactively. Pipes, CI and --no-tui get
one plain line per index.`,
		Example: `  siteindex reindex
  siteindex reindex webpages products
  siteindex reindex --all-sites
  siteindex reindex --no-tui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			sites, err := e.targetSites(cmd.Context(), allSites)
			if err != nil {
				return err
			}
			if err := e.preflight(cmd.Context()); err != nil {
				return err
			}

			plan := make([][]index.ManagerBase, len(sites))
			total := 0
			for i, site := range sites {
				managers, err := selectManagers(e.service(site), args)
				if err != nil {
					return err
				}
				plan[i] = managers
				total += len(managers)
			}

			retry := sierrors.DefaultRetryConfig()
			retry.MaxRetries = retries

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithForcePlain(noTUI),
				ui.WithTitle("Rebuilding indexes")))
			if err := renderer.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = renderer.Stop() }()

			begin := time.Now()
			done, documents := 0, 0
			var errs []error
			for i, site := range sites {
				for _, m := range plan[i] {
					label := fmt.Sprintf("%s (site %d)", m.IndexName(), site.ID)
					event := ui.ProgressEvent{Stage: ui.StageRebuilding, Current: done, Total: total, Index: label}
					renderer.UpdateProgress(event)

					start := time.Now()
					err := reindexWithRetry(cmd.Context(), retry, m)
					done++
					event.Current = done
					if err != nil {
						renderer.AddError(ui.ErrorEvent{Index: label, Err: err})
						event.Message = label + ": failed"
						renderer.UpdateProgress(event)
						errs = append(errs, fmt.Errorf("%s: %w", label, err))
						continue
					}
					docs, _ := m.NumberOfDocs()
					documents += docs
					event.Message = fmt.Sprintf("%s: %d documents in %s",
						label, docs, time.Since(start).Round(time.Millisecond))
					renderer.UpdateProgress(event)
				}
			}

			renderer.Complete(ui.CompletionStats{
				Indexes:   total,
				Documents: documents,
				Duration:  time.Since(begin),
				Errors:    len(errs),
			})
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&allSites, "all-sites", false, "Rebuild the indexes of every site")
	cmd.Flags().IntVar(&retries, "retries", 3, "Retries when the index is locked")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print plain progress lines instead of the interactive view")
	return cmd
}

// reindexWithRetry rebuilds m, retrying failures the error marks retryable.
func reindexWithRetry(ctx context.Context, cfg sierrors.RetryConfig, m index.ManagerBase) error {
	return sierrors.Retry(ctx, cfg, func() error {
		return m.ReIndex(ctx).Err
	})
}

// targetSites returns every site when all is set, otherwise the --site site.
func (e *env) targetSites(ctx context.Context, all bool) ([]content.Site, error) {
	if !all {
		site, err := e.site(ctx)
		if err != nil {
			return nil, err
		}
		return []content.Site{site}, nil
	}

	sites, err := e.store.ListSites(ctx)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("no sites in store %s", e.store.Path())
	}
	return sites, nil
}
