package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig_NoConfig(t *testing.T) {
	isolate(t)

	path, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupUserConfig_CopiesAndPrunes(t *testing.T) {
	isolate(t)

	// Given: an existing user config
	writeFile(t, GetUserConfigPath(), "index:\n  batch_size: 7\n")

	// When: backing up more than MaxBackups times
	var last string
	for range MaxBackups + 2 {
		p, err := BackupUserConfig()
		require.NoError(t, err)
		last = p
		time.Sleep(5 * time.Millisecond)
	}

	// Then: the newest backup holds the content and old ones are pruned
	data, err := os.ReadFile(last)
	require.NoError(t, err)
	assert.Equal(t, "index:\n  batch_size: 7\n", string(data))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, last, backups[0])
}

func TestRestoreUserConfig(t *testing.T) {
	isolate(t)

	// Given: a backup of an older config and a newer current config
	writeFile(t, GetUserConfigPath(), "index:\n  batch_size: 1\n")
	backup, err := BackupUserConfig()
	require.NoError(t, err)
	writeFile(t, GetUserConfigPath(), "index:\n  batch_size: 2\n")

	// When: restoring
	require.NoError(t, RestoreUserConfig(backup))

	// Then: the old content is back
	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Index.BatchSize)
}

func TestRestoreUserConfig_MissingBackup(t *testing.T) {
	isolate(t)

	err := RestoreUserConfig("/nonexistent/config.yaml.bak.1")
	require.Error(t, err)
}
