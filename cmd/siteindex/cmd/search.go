package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/definitions"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/internal/output"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <index> <query>",
		Short: "Run a full-text query against one index",
		Example: `  siteindex search webpages "opening hours"
  siteindex search products sku-1001 --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return sierrors.ValidationError("--limit must be positive", nil)
			}

			e, err := a.openEnv()
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			site, err := e.site(cmd.Context())
			if err != nil {
				return err
			}
			managers, err := selectManagers(e.service(site), args[:1])
			if err != nil {
				return err
			}
			m := managers[0]

			text := strings.Join(args[1:], " ")
			res, err := m.Search(cmd.Context(), text, limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			out := output.New(cmd.OutOrStdout())
			if len(res.Hits) == 0 {
				out.Statusf("•", "No matches for %q in %s", text, m.IndexName())
				return nil
			}
			out.Statusf("•", "%d of %d matches in %s", len(res.Hits), res.Total, m.IndexName())
			out.Newline()
			out.Table([]string{"ID", "SCORE", "LABEL"}, hitRows(res.Hits))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of hits")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func hitRows(hits []index.Hit) [][]string {
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{
			h.Document.Get(index.DefaultKeyField),
			fmt.Sprintf("%.3f", h.Score),
			hitLabel(h.Document),
		})
	}
	return rows
}

// hitLabel picks the most descriptive field the document carries.
func hitLabel(doc index.Document) string {
	for _, field := range []string{definitions.FieldTitle, definitions.FieldName, definitions.FieldEmail} {
		if v := doc.Get(field); v != "" {
			return v
		}
	}
	return ""
}
