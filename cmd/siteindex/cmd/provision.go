package cmd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/ui"
)

func newProvisionCmd(a *app) *cobra.Command {
	var (
		allSites bool
		noTUI    bool
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Build every missing index of a site",
		Long: `Build every index of the site that does not exist yet from the entity
store. Existing indexes are not touched. Run this after deploying a new site
or after deleting index directories.`,
		Example: `  siteindex provision
  siteindex provision --all-sites --no-tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			services := make([]*index.Service, len(sites))
			total := 0
			for i, site := range sites {
				services[i] = e.service(site)
				total += len(services[i].Managers())
			}

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithForcePlain(noTUI),
				ui.WithTitle("Provisioning indexes")))
			if err := renderer.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = renderer.Stop() }()

			// Steps of one site arrive from several goroutines.
			var mu sync.Mutex
			begin := time.Now()
			done, documents, failed := 0, 0, 0

			var errs []error
			for i, site := range sites {
				report := func(step index.ProvisionStep) {
					label := fmt.Sprintf("%s (site %d)", step.Manager.IndexName(), site.ID)
					event := ui.ProgressEvent{Stage: ui.StageProvisioning, Total: total, Index: label}

					switch {
					case !step.Result.Success:
						renderer.AddError(ui.ErrorEvent{Index: label, Err: step.Result.Err})
						event.Message = label + ": failed"
					case step.Built:
						docs, _ := step.Manager.NumberOfDocs()
						event.Message = fmt.Sprintf("%s: built, %d documents in %s",
							label, docs, step.Duration.Round(time.Millisecond))
						mu.Lock()
						documents += docs
						mu.Unlock()
					default:
						event.Message = label + ": already present"
					}

					mu.Lock()
					done++
					event.Current = done
					if !step.Result.Success {
						failed++
					}
					renderer.UpdateProgress(event)
					mu.Unlock()
				}

				if err := services[i].ProvisionSite(cmd.Context(), index.WithProvisionProgress(report)); err != nil {
					errs = append(errs, fmt.Errorf("site %d (%s): %w", site.ID, site.Name, err))
				}
			}

			renderer.Complete(ui.CompletionStats{
				Indexes:   total,
				Documents: documents,
				Duration:  time.Since(begin),
				Errors:    failed,
			})
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&allSites, "all-sites", false, "Provision every site in the store")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print plain progress lines instead of the interactive view")
	return cmd
}
