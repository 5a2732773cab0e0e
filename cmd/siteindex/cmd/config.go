package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/siteindex/configs"
	"github.com/Aman-CERP/siteindex/internal/config"
	"github.com/Aman-CERP/siteindex/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/siteindex/config.yaml)
  3. Project config (.siteindex.yaml in --dir)
  4. .env file in --dir
  5. Environment variables (SITEINDEX_*)`,
	}

	cmd.AddCommand(
		newConfigInitCmd(),
		newConfigShowCmd(a),
		newConfigPathCmd(),
		newConfigRestoreCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the user configuration file from the template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			path := config.GetUserConfigPath()

			if config.UserConfigExists() {
				if !force {
					out.Warning("User configuration already exists")
					out.Statusf("•", "Location: %s", path)
					out.Status("•", "Use --force to replace it (the current file is backed up)")
					return nil
				}
				backup, err := config.BackupUserConfig()
				if err != nil {
					return err
				}
				out.Statusf("•", "Backup: %s", backup)
			}

			if err := os.MkdirAll(config.GetUserConfigDir(), 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(configs.UserConfigTemplate), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			out.Success("Created user configuration")
			out.Statusf("•", "Location: %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing configuration")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a.cfg)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the user config from a backup",
		Long: `Restore the user configuration from a backup made by 'config init --force'.
Without an argument the newest backup is restored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return err
			}
			if list {
				for _, b := range backups {
					fmt.Fprintln(cmd.OutOrStdout(), b)
				}
				return nil
			}

			var backup string
			switch {
			case len(args) == 1:
				backup = args[0]
			case len(backups) > 0:
				backup = backups[0]
			default:
				return fmt.Errorf("no backups of %s", config.GetUserConfigPath())
			}

			if err := config.RestoreUserConfig(backup); err != nil {
				return err
			}
			out.Successf("Restored %s", backup)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List backups, newest first")
	return cmd
}
