package cmd

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/output"
)

func newStatusCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List the site's indexes with document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			site, err := e.site(cmd.Context())
			if err != nil {
				return err
			}
			infos := e.service(site).GetIndexes()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			out := output.New(cmd.OutOrStdout())
			out.Header(site.Name)
			out.KeyValue("Site ID", strconv.FormatInt(site.ID, 10))
			out.KeyValue("Index root", e.provider.Root())
			out.Newline()
			out.Table([]string{"INDEX", "FOLDER", "EXISTS", "DOCS", "LAST MODIFIED"}, statusRows(infos))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func statusRows(infos []index.IndexInfo) [][]string {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		docs, modified := "-", "-"
		switch {
		case info.NumberOfDocs != nil:
			docs = strconv.Itoa(*info.NumberOfDocs)
		case info.Locked:
			docs = "locked"
		}
		if info.LastModified != nil {
			modified = info.LastModified.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			info.Name,
			info.FolderName,
			strconv.FormatBool(info.Exists),
			docs,
			modified,
		})
	}
	return rows
}
