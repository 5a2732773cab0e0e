package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/logging"
)

func newLogsCmd(a *app) *cobra.Command {
	var (
		lines   int
		level   string
		filter  string
		noColor bool
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Show the last entries of the siteindex log file.

Logs are written to a file when --debug or --log-file is used, or when
logging.file is set in the configuration.`,
		Example: `  siteindex logs
  siteindex logs -n 200 --level warn
  siteindex logs --grep index_event_failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if logFile == "" && a.cfg != nil {
				logFile = a.cfg.Logging.File
			}
			path, err := logging.FindLogFile(logFile)
			if err != nil {
				return err
			}

			var pattern *regexp.Regexp
			if filter != "" {
				pattern, err = regexp.Compile(filter)
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: pattern,
				NoColor: noColor,
			}, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n---\n", path)
			viewer.Print(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "grep", "", "Only entries matching this pattern (regex)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&logFile, "file", "", "Path to log file")
	return cmd
}
