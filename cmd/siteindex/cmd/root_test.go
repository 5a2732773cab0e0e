package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/siteindex/internal/config"
	"github.com/Aman-CERP/siteindex/internal/index"
	"github.com/Aman-CERP/siteindex/pkg/version"
)

// workspace points configuration at a fresh temporary store and index root.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv(config.EnvPrefix+"INDEX_ROOT", filepath.Join(dir, "indexes"))
	t.Setenv(config.EnvPrefix+"STORE_PATH", filepath.Join(dir, "content.db"))
	t.Setenv(config.EnvPrefix+"LOG_LEVEL", "error")
	for _, name := range []string{"BATCH_SIZE", "DIRECTORY_CACHE_SIZE", "SEARCHER_CACHE_SIZE", "LOCK_TIMEOUT", "LOG_FILE"} {
		t.Setenv(config.EnvPrefix+name, "")
	}
	return dir
}

// run executes the root command with args against dir.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"-C", dir}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func statusOf(t *testing.T, dir string, args ...string) map[string]index.IndexInfo {
	t.Helper()
	out, err := run(t, dir, append([]string{"status", "--json"}, args...)...)
	require.NoError(t, err)

	var infos []index.IndexInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	byFolder := make(map[string]index.IndexInfo, len(infos))
	for _, info := range infos {
		byFolder[info.FolderName] = info
	}
	return byFolder
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: the root command
	root := NewRootCmd()

	// Then: every subcommand is registered
	for _, name := range []string{"status", "create", "reindex", "optimise", "search", "seed", "remove", "provision", "doctor", "config", "logs", "version"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRootCmd_UnknownSite(t *testing.T) {
	// Given: an empty store
	dir := workspace(t)

	// When: asking for status of a site that does not exist
	_, err := run(t, dir, "status", "--site", "42")

	// Then: the error names the site
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site 42 does not exist")
}

func TestSeed_IndexesNewContent(t *testing.T) {
	// Given: an empty workspace
	dir := workspace(t)

	// When: seeding the default site
	out, err := run(t, dir, "seed", "--pages", "4", "--products", "2", "--users", "3")

	// Then: every entity lands in its index
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded site 1")

	status := statusOf(t, dir)
	require.Len(t, status, 3)
	for folder, want := range map[string]int{"webpages": 4, "products": 2, "users": 3} {
		info := status[folder]
		assert.True(t, info.Exists, folder)
		require.NotNil(t, info.NumberOfDocs, folder)
		assert.Equal(t, want, *info.NumberOfDocs, folder)
	}
}

func TestStatus_TableBeforeIndexesExist(t *testing.T) {
	// Given: a site without indexes
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "0", "--products", "0", "--users", "0")
	require.NoError(t, err)

	// When: showing status
	out, err := run(t, dir, "status")

	// Then: indexes are listed as absent with unknown counts
	require.NoError(t, err)
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "Webpages")
	assert.Contains(t, out, "false")
}

func TestCreate_ThreeWay(t *testing.T) {
	// Given: a site without indexes
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "0", "--products", "0", "--users", "0")
	require.NoError(t, err)

	// When: creating twice
	first, err := run(t, dir, "create", "webpages")
	require.NoError(t, err)
	second, err := run(t, dir, "create", "webpages")
	require.NoError(t, err)

	// Then: the first creates and the second leaves the index alone
	assert.Contains(t, first, "Webpages: created")
	assert.Contains(t, second, "Webpages: already exists")

	info := statusOf(t, dir)["webpages"]
	require.NotNil(t, info.NumberOfDocs)
	assert.Equal(t, 0, *info.NumberOfDocs)
}

func TestCreate_UnknownIndex(t *testing.T) {
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "0", "--products", "0", "--users", "0")
	require.NoError(t, err)

	_, err = run(t, dir, "create", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown index "nope"`)
}

func TestSearch_FindsSeededPage(t *testing.T) {
	// Given: seeded pages
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "5", "--products", "0", "--users", "0")
	require.NoError(t, err)

	// When: searching for a page title word
	out, err := run(t, dir, "search", "webpages", "delivery")

	// Then: the matching page is listed
	require.NoError(t, err)
	assert.Contains(t, out, "Delivery 3")
}

func TestSearch_RejectsBadLimit(t *testing.T) {
	dir := workspace(t)

	_, err := run(t, dir, "search", "webpages", "x", "--limit", "0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}

func TestRemove_DropsDocument(t *testing.T) {
	// Given: two seeded pages
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "2", "--products", "0", "--users", "0")
	require.NoError(t, err)

	// When: removing the first page
	out, err := run(t, dir, "remove", "webpage", "1")

	// Then: it is gone from the index
	require.NoError(t, err)
	assert.Contains(t, out, "Removed webpage 1")
	info := statusOf(t, dir)["webpages"]
	require.NotNil(t, info.NumberOfDocs)
	assert.Equal(t, 1, *info.NumberOfDocs)

	// And: removing it again is a no-op
	_, err = run(t, dir, "remove", "webpage", "1")
	require.NoError(t, err)
	info = statusOf(t, dir)["webpages"]
	require.NotNil(t, info.NumberOfDocs)
	assert.Equal(t, 1, *info.NumberOfDocs)

	// And: unknown ids are rejected
	_, err = run(t, dir, "remove", "webpage", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webpage 99 does not exist")
}

func TestRemove_InvalidArgs(t *testing.T) {
	dir := workspace(t)

	_, err := run(t, dir, "remove", "webpage", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid id "abc"`)
}

func TestReindex_RebuildsFromStore(t *testing.T) {
	// Given: seeded content with one page removed
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "3", "--products", "1", "--users", "0")
	require.NoError(t, err)
	_, err = run(t, dir, "remove", "webpage", "2")
	require.NoError(t, err)

	// When: rebuilding every index of every site
	out, err := run(t, dir, "reindex", "--all-sites")

	// Then: only live pages are indexed
	require.NoError(t, err)
	assert.Contains(t, out, "Webpages (site 1): 2 documents")
	assert.Contains(t, out, "Products (site 1): 1 documents")
}

func TestReindex_PlainProgress(t *testing.T) {
	// Given: seeded content
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "2", "--products", "0", "--users", "0")
	require.NoError(t, err)

	// When: rebuilding one index with the interactive view turned off
	out, err := run(t, dir, "reindex", "webpages", "--no-tui")

	// Then: one progress line and a summary are printed
	require.NoError(t, err)
	assert.Contains(t, out, "[REBUILD] 1/1 - Webpages (site 1): 2 documents in ")
	assert.Contains(t, out, "Complete: 1 indexes, 2 documents in ")
}

func TestProvision_BuildsMissingIndexes(t *testing.T) {
	// Given: a site whose only index is webpages
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "1", "--products", "0", "--users", "0")
	require.NoError(t, err)
	before := statusOf(t, dir)
	require.True(t, before["webpages"].Exists)
	require.False(t, before["products"].Exists)

	// When: provisioning
	out, err := run(t, dir, "provision")
	require.NoError(t, err)

	// Then: every index exists and each one is reported
	assert.Contains(t, out, "Webpages (site 1): already present")
	assert.Contains(t, out, "Products (site 1): built, 0 documents in ")
	assert.Contains(t, out, "[PROVISION]")
	for folder, info := range statusOf(t, dir) {
		assert.True(t, info.Exists, folder)
	}
}

func TestOptimise_SkipsMissing(t *testing.T) {
	dir := workspace(t)
	_, err := run(t, dir, "seed", "--pages", "1", "--products", "0", "--users", "0")
	require.NoError(t, err)

	out, err := run(t, dir, "optimise")

	require.NoError(t, err)
	assert.Contains(t, out, "Webpages: optimised")
	assert.Contains(t, out, "Products: no index, skipped")
}

func TestVersionCmd(t *testing.T) {
	dir := workspace(t)

	out, err := run(t, dir, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(out))

	out, err = run(t, dir, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info["version"])
}

func TestConfigCmd_InitShowRestore(t *testing.T) {
	// Given: no user config
	dir := workspace(t)

	// When: initialising it
	out, err := run(t, dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user configuration")
	assert.FileExists(t, config.GetUserConfigPath())

	// And: initialising again with --force
	out, err = run(t, dir, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")

	// Then: a backup is listed and can be restored
	out, err = run(t, dir, "config", "restore", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, ".bak.")

	_, err = run(t, dir, "config", "restore")
	require.NoError(t, err)

	// And: show reflects the environment overrides
	out, err = run(t, dir, "config", "show", "--json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, filepath.Join(dir, "indexes"), cfg.Index.Root)
}

func TestLogsCmd_ReadsConfiguredFile(t *testing.T) {
	// Given: a log file written by a previous command
	dir := workspace(t)
	logPath := filepath.Join(dir, "siteindex.log")
	_, err := run(t, dir, "--log-file", logPath, "--log-level", "debug", "version")
	require.NoError(t, err)

	// When: viewing it
	out, err := run(t, dir, "logs", "--file", logPath, "--no-color")

	// Then: the command start entry is shown
	require.NoError(t, err)
	assert.Contains(t, out, "command_started")
}

func TestDoctorCmd(t *testing.T) {
	dir := workspace(t)

	out, err := run(t, dir, "doctor", "--json")

	require.NoError(t, err)
	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 4)
	assert.Equal(t, "disk_space", results[0]["name"])
	assert.Equal(t, "store_writable", results[3]["name"])
}
