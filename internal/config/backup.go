package config

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const (
	// MaxBackups is the number of user config backups kept.
	MaxBackups = 3

	// BackupSuffix separates the config name from the backup timestamp.
	BackupSuffix = ".bak"
)

// BackupUserConfig copies the user config to a timestamped sibling file
// and prunes backups beyond MaxBackups. It returns "" when there is no
// user config to back up.
func BackupUserConfig() (string, error) {
	configPath := GetUserConfigPath()
	if !UserConfigExists() {
		return "", nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backupPath := fmt.Sprintf("%s%s.%s", configPath, BackupSuffix, time.Now().Format("20060102-150405.000"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	pruneBackups()
	return backupPath, nil
}

// ListUserConfigBackups returns the user config backups, newest first.
func ListUserConfigBackups() ([]string, error) {
	configPath := GetUserConfigPath()
	entries, err := os.ReadDir(filepath.Dir(configPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	type backup struct {
		path string
		mod  time.Time
	}
	var backups []backup
	prefix := filepath.Base(configPath) + BackupSuffix + "."
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{
			path: filepath.Join(filepath.Dir(configPath), entry.Name()),
			mod:  info.ModTime(),
		})
	}

	slices.SortFunc(backups, func(a, b backup) int {
		if c := b.mod.Compare(a.mod); c != 0 {
			return c
		}
		return cmp.Compare(b.path, a.path)
	})

	paths := make([]string, len(backups))
	for i, b := range backups {
		paths[i] = b.path
	}
	return paths, nil
}

// pruneBackups removes backups beyond MaxBackups. Failures are logged only.
func pruneBackups() {
	backups, err := ListUserConfigBackups()
	if err != nil || len(backups) <= MaxBackups {
		return
	}
	for _, path := range backups[MaxBackups:] {
		if err := os.Remove(path); err != nil {
			slog.Warn("config_backup_prune_failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
}

// RestoreUserConfig replaces the user config with a backup, backing up the
// current config first.
func RestoreUserConfig(backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	if _, err := BackupUserConfig(); err != nil {
		return fmt.Errorf("failed to backup current config before restore: %w", err)
	}

	if err := os.MkdirAll(GetUserConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(GetUserConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write restored config: %w", err)
	}
	return nil
}
