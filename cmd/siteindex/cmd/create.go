package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/output"
)

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create [index...]",
		Short: "Create empty indexes that do not exist yet",
		Long: `Create an empty index for each named index, or for every index of the
site when none are named. Existing indexes are left untouched.`,
		Example: `  siteindex create
  siteindex create products --site 2`,
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
				status, err := m.CreateIndex()
				switch status {
				case index.CreationSuccess:
					out.Successf("%s: created", m.IndexName())
				case index.CreationAlreadyExists:
					out.Statusf("•", "%s: already exists", m.IndexName())
				default:
					out.Errorf("%s: %v", m.IndexName(), err)
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
}
