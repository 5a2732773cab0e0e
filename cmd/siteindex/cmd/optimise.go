package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/output"
)

func newOptimiseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "optimise [index...]",
		Aliases: []string{"optimize", "compact"},
		Short:   "Compact index storage without changing content",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			site, err := e.site(cmd.Context())
			if err != nil {
				return err
			}
			managers, err := selectManagers(e.service(site), args)
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			var errs []error
			for _, m := range managers {
				if !m.IndexExists() {
					out.Warningf("%s: no index, skipped", m.IndexName())
					continue
				}
				if r := m.Optimise(); !r.Success {
					out.Errorf("%s: %v", m.IndexName(), r.Err)
					errs = append(errs, r.Err)
					continue
				}
				out.Successf("%s: optimised", m.IndexName())
			}
			return errors.Join(errs...)
		},
	}
}
