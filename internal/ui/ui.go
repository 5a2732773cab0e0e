// Package ui renders progress while indexes are rebuilt or provisioned.
//
// Interactive terminals get a bubbletea view with a spinner and progress bar;
// pipes, CI runs and --no-tui get one plain line per finished index.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage is the phase a command is in.
type Stage int

const (
	// StageRebuilding is a full rebuild of existing or missing indexes.
	StageRebuilding Stage = iota
	// StageProvisioning builds only the indexes a site is missing.
	StageProvisioning
	// StageComplete indicates every index was handled.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageRebuilding:
		return "Rebuilding"
	case StageProvisioning:
		return "Provisioning"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageRebuilding:
		return "REBUILD"
	case StageProvisioning:
		return "PROVISION"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent reports progress over all indexes a command handles.
// An event with an empty Message announces the index now being worked on;
// one with a Message reports a finished index.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	Index   string
	Message string
}

// ErrorEvent reports an index that could not be built.
type ErrorEvent struct {
	Index string
	Err   error
}

// CompletionStats summarises a finished command.
type CompletionStats struct {
	Indexes   int
	Documents int
	Duration  time.Duration
	Errors    int
}

// Renderer displays progress.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	Title      string
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithTitle sets the header shown above the progress bar.
func WithTitle(title string) ConfigOption {
	return func(c *Config) {
		c.Title = title
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output: output,
		Title:  "siteindex",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// text renderer for CI, pipes, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
