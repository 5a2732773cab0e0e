package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer writes one line per finished index (for CI and pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(context.Context) error {
	return nil
}

// UpdateProgress implements Renderer. Announcements without a message are
// not printed.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	if event.Message == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Total > 0 {
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, event.Message)
		return
	}
	_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)
	if event.Index != "" {
		_, _ = fmt.Fprintf(r.out, "ERROR: %s: %v\n", event.Index, event.Err)
		return
	}
	_, _ = fmt.Fprintf(r.out, "ERROR: %v\n", event.Err)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d indexes, %d documents in %s",
		stats.Indexes, stats.Documents, stats.Duration.Round(time.Millisecond))
	if stats.Errors > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors)", stats.Errors)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
