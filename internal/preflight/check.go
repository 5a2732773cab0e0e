package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical problem.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status by name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single preflight check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight checks.
type Checker struct {
	verbose      bool
	output       io.Writer
	minDiskSpace uint64
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints check details.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithMinDiskSpace sets the free space the disk check requires.
func WithMinDiskSpace(bytes uint64) Option {
	return func(c *Checker) {
		c.minDiskSpace = bytes
	}
}

// New creates a Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		output:       os.Stdout,
		minDiskSpace: MinDiskSpaceBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check for an index root and an entity store path.
// An empty store path means an in-memory store and skips its check.
func (c *Checker) RunAll(ctx context.Context, indexRoot, storePath string) []CheckResult {
	results := c.RunIndexChecks(ctx, indexRoot)
	if storePath != "" {
		r := c.CheckWritePermissions(filepath.Dir(storePath))
		r.Name = "store_writable"
		results = append(results, r)
	}
	return results
}

// RunIndexChecks runs the checks a rebuild under indexRoot depends on.
func (c *Checker) RunIndexChecks(_ context.Context, indexRoot string) []CheckResult {
	return []CheckResult{
		c.CheckDiskSpace(indexRoot),
		c.CheckWritePermissions(indexRoot),
		c.CheckFileDescriptors(),
	}
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns a summary status string for the results.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	hasWarnings := false
	hasCriticalFailure := false

	for _, r := range results {
		if r.IsCritical() {
			hasCriticalFailure = true
		}
		if r.Status == StatusWarn || (r.Status == StatusFail && !r.Required) {
			hasWarnings = true
		}
	}

	switch {
	case hasCriticalFailure:
		return "failed"
	case hasWarnings:
		return "ready_with_warnings"
	default:
		return "ready"
	}
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "siteindex system check")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))
}

// CheckWritePermissions checks that files can be created under path.
// A missing path is checked at its nearest existing ancestor, since
// writers create index directories on demand.
func (c *Checker) CheckWritePermissions(path string) CheckResult {
	result := CheckResult{
		Name:     "write_permissions",
		Required: true,
	}

	dir, err := existingAncestor(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	f, err := os.CreateTemp(dir, ".siteindex-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "OK"
	if dir != filepath.Clean(path) {
		result.Details = fmt.Sprintf("%s does not exist yet; checked %s", path, dir)
	}
	return result
}

// existingAncestor returns path or its closest parent that exists.
func existingAncestor(path string) (string, error) {
	dir := filepath.Clean(path)
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing parent for %s", path)
		}
		dir = parent
	}
}
