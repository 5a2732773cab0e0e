package ui

import (
	"sync"
	"time"
)

// recentLimit is how many finished indexes the tracker remembers for display.
const recentLimit = 5

// ProgressTracker holds progress state shared by renderers.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	stage      Stage
	current    int
	total      int
	index      string
	startTime  time.Time
	stageStart time.Time
	recent     []string
	errors     []ErrorEvent

	// previous ETA, for smoothing
	lastETA time.Duration
}

// ProgressStats contains a snapshot of current progress.
type ProgressStats struct {
	Stage      Stage
	Current    int
	Total      int
	Progress   float64
	ETA        time.Duration
	Index      string
	ErrorCount int
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		stage:      StageRebuilding,
		startTime:  now,
		stageStart: now,
	}
}

// SetStage transitions to a new stage.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.total = total
	p.current = 0
	p.index = ""
	p.stageStart = time.Now()
	p.lastETA = 0
}

// Apply records event.
func (p *ProgressTracker) Apply(event ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.Total > 0 {
		p.total = event.Total
	}
	if event.Current > p.current {
		p.current = event.Current
	}
	if event.Message == "" {
		p.index = event.Index
		return
	}
	p.recent = append(p.recent, event.Message)
	if len(p.recent) > recentLimit {
		p.recent = p.recent[len(p.recent)-recentLimit:]
	}
}

// AddError records a failed index.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errors = append(p.errors, event)
}

// Progress returns current progress percentage (0.0-1.0).
func (p *ProgressTracker) Progress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.progress()
}

// Elapsed returns time since tracker creation.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return time.Since(p.startTime)
}

// Stats returns current statistics snapshot.
// Uses write lock because calculateETA updates the smoothing state.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressStats{
		Stage:      p.stage,
		Current:    p.current,
		Total:      p.total,
		Progress:   p.progress(),
		ETA:        p.calculateETA(),
		Index:      p.index,
		ErrorCount: len(p.errors),
	}
}

// Recent returns the latest finished-index messages, oldest first.
func (p *ProgressTracker) Recent() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, len(p.recent))
	copy(out, p.recent)
	return out
}

// Errors returns the list of recorded errors.
func (p *ProgressTracker) Errors() []ErrorEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ErrorEvent, len(p.errors))
	copy(out, p.errors)
	return out
}

func (p *ProgressTracker) progress() float64 {
	if p.total == 0 {
		return 0
	}
	return min(float64(p.current)/float64(p.total), 1)
}

// etaSmoothingFactor is the weight of a new ETA sample.
const etaSmoothingFactor = 0.3

// calculateETA must be called with the lock held. Index rebuild times vary
// widely, so samples are smoothed exponentially.
func (p *ProgressTracker) calculateETA() time.Duration {
	progress := p.progress()
	if progress <= 0 || progress >= 1 {
		return 0
	}

	elapsed := time.Since(p.stageStart)
	remaining := time.Duration(float64(elapsed)/progress) - elapsed
	if remaining < 0 {
		return 0
	}

	if p.lastETA == 0 {
		p.lastETA = remaining
		return remaining
	}
	smoothed := time.Duration(etaSmoothingFactor*float64(remaining) + (1-etaSmoothingFactor)*float64(p.lastETA))
	p.lastETA = smoothed
	return smoothed
}
