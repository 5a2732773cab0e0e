// Package cmd provides the CLI commands for siteindex.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/siteindex/internal/config"
	sierrors "github.com/Aman-CERP/siteindex/internal/errors"
	"github.com/Aman-CERP/siteindex/internal/logging"
	"github.com/Aman-CERP/siteindex/internal/profiling"
	"github.com/Aman-CERP/siteindex/pkg/version"
)

// app is the state shared by every command of one invocation.
type app struct {
	dir      string
	siteID   int64
	logLevel string
	logFile  string
	debug    bool
	profile  profiling.Config

	cfg      *config.Config
	logger   *slog.Logger
	cleanup  func()
	profiler *profiling.Profiler
}

// NewRootCmd creates the root command for the siteindex CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "siteindex",
		Short: "Per-site full-text index manager for CMS content",
		Long: `siteindex keeps one full-text index per content type and site in sync
with the CMS entity store.

Indexes can be created, rebuilt from the store, compacted and searched.
Only one process may write to an index at a time.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.start,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.stop()
		},
	}
	cmd.SetVersionTemplate("siteindex version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.dir, "dir", "C", ".", "Directory holding .siteindex.yaml and .env")
	flags.Int64Var(&a.siteID, "site", 1, "Site ID to operate on")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFile, "log-file", "", "Also write logs to this file")
	flags.BoolVar(&a.debug, "debug", false, fmt.Sprintf("Debug logging to %s", logging.DefaultLogPath()))
	flags.StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	flags.StringVar(&a.profile.Mem, "profile-mem", "", "Write memory profile to file")
	flags.StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(
		newStatusCmd(a),
		newCreateCmd(a),
		newReindexCmd(a),
		newOptimiseCmd(a),
		newSearchCmd(a),
		newSeedCmd(a),
		newRemoveCmd(a),
		newProvisionCmd(a),
		newDoctorCmd(a),
		newConfigCmd(a),
		newLogsCmd(a),
		newVersionCmd(),
	)

	return cmd
}

// start loads configuration, sets up logging and starts profiling.
func (a *app) start(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.dir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.File,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: true,
	}
	if a.logLevel != "" {
		logCfg.Level = a.logLevel
	}
	if a.logFile != "" {
		logCfg.FilePath = a.logFile
	}
	if a.debug {
		logCfg.Level = "debug"
		if logCfg.FilePath == "" {
			logCfg.FilePath = logging.DefaultLogPath()
		}
		logCfg.WriteToStderr = false
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	a.logger = logger
	a.cleanup = cleanup
	slog.SetDefault(logger)

	if a.profile.Enabled() {
		p, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.profiler = p
	}

	logger.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Short()),
		slog.Int64("site_id", a.siteID))
	return nil
}

func (a *app) stop() error {
	var err error
	if a.profiler != nil {
		err = a.profiler.Stop()
		a.profiler = nil
	}
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
	return err
}

// Execute runs the root command and prints failures in CLI form.
func Execute() error {
	cmd := NewRootCmd()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, sierrors.FormatForCLI(err))
		return err
	}
	return nil
}
