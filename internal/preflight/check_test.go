package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_IsCritical(t *testing.T) {
	assert.False(t, CheckResult{Status: StatusPass, Required: true}.IsCritical())
	assert.True(t, CheckResult{Status: StatusFail, Required: true}.IsCritical())
	assert.False(t, CheckResult{Status: StatusFail}.IsCritical())
	assert.False(t, CheckResult{Status: StatusWarn, Required: true}.IsCritical())
}

func TestCheckResult_JSON(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "disk_space", Status: StatusFail, Required: true})

	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"FAIL"`)
}

func TestCheckWritePermissions_MissingPathUsesAncestor(t *testing.T) {
	// Given: an index root that does not exist yet
	root := t.TempDir()
	path := filepath.Join(root, "indexes", "1")

	// When: checking it
	r := New().CheckWritePermissions(path)

	// Then: the closest existing parent is checked and left clean
	assert.Equal(t, StatusPass, r.Status)
	assert.Contains(t, r.Details, root)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoDirExists(t, filepath.Join(root, "indexes"))
}

func TestCheckWritePermissions_FileInTheWay(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	r := New().CheckWritePermissions(filepath.Join(file, "indexes"))

	assert.Equal(t, StatusFail, r.Status)
	assert.True(t, r.IsCritical())
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	ok := New(WithMinDiskSpace(1)).CheckDiskSpace(filepath.Join(dir, "missing"))
	assert.Equal(t, StatusPass, ok.Status)
	assert.Contains(t, ok.Message, "free")

	tooMuch := New(WithMinDiskSpace(1 << 62)).CheckDiskSpace(dir)
	assert.Equal(t, StatusFail, tooMuch.Status)
}

func TestCheckFileDescriptors(t *testing.T) {
	r := New().CheckFileDescriptors()

	assert.False(t, r.Required)
	assert.NotEqual(t, StatusFail, r.Status)
	assert.NotEmpty(t, r.Message)
}

func TestRunAll(t *testing.T) {
	// Given: a writable workspace
	dir := t.TempDir()
	c := New(WithMinDiskSpace(1))

	// When: running every check
	results := c.RunAll(context.Background(), filepath.Join(dir, "indexes"), filepath.Join(dir, "content.db"))

	// Then: every check is reported and none is critical
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"disk_space", "write_permissions", "file_descriptors", "store_writable"}, names)
	assert.False(t, c.HasCriticalFailures(results))

	// And: an in-memory store is not checked
	assert.Len(t, c.RunAll(context.Background(), dir, ""), 3)
}

func TestSummaryStatus(t *testing.T) {
	c := New()

	assert.Equal(t, "ready", c.SummaryStatus([]CheckResult{{Status: StatusPass, Required: true}}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{{Status: StatusWarn}}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{{Status: StatusFail}}))
	assert.Equal(t, "failed", c.SummaryStatus([]CheckResult{{Status: StatusFail, Required: true}, {Status: StatusWarn}}))
}

func TestPrintResults(t *testing.T) {
	buf := &bytes.Buffer{}
	c := New(WithOutput(buf), WithVerbose(true))

	c.PrintResults([]CheckResult{
		{Name: "disk_space", Status: StatusPass, Message: "10 GiB free", Required: true},
		{Name: "file_descriptors", Status: StatusWarn, Message: "256 (minimum: 1024)", Details: "Run 'ulimit -n 10240'"},
	})

	out := buf.String()
	assert.Contains(t, out, "[PASS] disk_space: 10 GiB free")
	assert.Contains(t, out, "[WARN] file_descriptors")
	assert.Contains(t, out, "ulimit")
	assert.Contains(t, out, "Status: READY_WITH_WARNINGS")
}
