package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/siteindex/internal/output"
)

// stopTimeout bounds how long Stop waits for the program to exit.
const stopTimeout = 2 * time.Second

// TUIRenderer shows rebuild progress with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *rebuildModel
	tracker *ProgressTracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. It fails when the output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, errors.New("output is not a TTY")
	}

	tracker := NewProgressTracker()
	model := newRebuildModel(tracker, cfg.Title)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:     cfg,
		tracker: tracker,
		model:   model,
		done:    make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.tracker.Stats().Stage {
		r.tracker.SetStage(event.Stage, event.Total)
	}
	r.tracker.Apply(event)
	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.AddError(event)
	if r.program != nil {
		r.program.Send(errorMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil
	}

	// A completed program quits by itself; wait for it to print its summary.
	select {
	case <-r.done:
	case <-time.After(stopTimeout):
		r.program.Quit()
		r.cancel()
		<-r.done
	}
	r.cancel()
	return nil
}

var _ Renderer = (*TUIRenderer)(nil)

type (
	progressUpdateMsg ProgressEvent
	errorMsg          ErrorEvent
	completeMsg       CompletionStats
	tickMsg           time.Time
)

// rebuildModel is the bubbletea model for index rebuild progress.
type rebuildModel struct {
	tracker  *ProgressTracker
	title    string
	width    int
	quitting bool
	complete bool
	stats    CompletionStats
	spinner  spinner.Model
	bar      progress.Model
	styles   Styles
}

func newRebuildModel(tracker *ProgressTracker, title string) *rebuildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(output.ColorLime))

	return &rebuildModel{
		tracker: tracker,
		title:   title,
		width:   80,
		spinner: s,
		bar: progress.New(
			progress.WithSolidFill(output.ColorLime),
			progress.WithWidth(50),
			progress.WithoutPercentage(),
		),
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *rebuildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *rebuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-20, 20)

	case progressUpdateMsg, errorMsg:
		// state lives in the tracker
		return m, nil

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *rebuildModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	width := max(m.width-4, 40)
	sections := []string{
		m.styles.Header.Render(m.title),
		m.renderProgress(),
		m.renderDivider(width),
	}
	for _, line := range m.tracker.Recent() {
		sections = append(sections, m.styles.Success.Render("✓ ")+line)
	}
	if stats := m.tracker.Stats(); stats.Index != "" {
		sections = append(sections, fmt.Sprintf("%s %s %s", m.spinner.View(), stats.Stage, stats.Index))
	}
	sections = append(sections, m.renderStatusBar())
	return strings.Join(sections, "\n") + "\n"
}

func (m *rebuildModel) renderProgress() string {
	stats := m.tracker.Stats()
	if stats.Total == 0 {
		return fmt.Sprintf("%s %s...", m.spinner.View(), stats.Stage)
	}

	bar := m.bar.ViewAs(stats.Progress)
	pct := m.styles.Active.Render(fmt.Sprintf("%3.0f%%", stats.Progress*100))
	count := m.styles.Label.Render(fmt.Sprintf("%d / %d indexes", stats.Current, stats.Total))
	if stats.ETA > 0 {
		count += m.styles.Dim.Render("  •  ") + m.styles.Label.Render("ETA: "+formatDuration(stats.ETA))
	}
	return fmt.Sprintf("%s  %s\n%s", bar, pct, count)
}

func (m *rebuildModel) renderDivider(width int) string {
	return m.styles.Border.Render(strings.Repeat("─", width))
}

func (m *rebuildModel) renderStatusBar() string {
	if n := m.tracker.Stats().ErrorCount; n > 0 {
		return m.styles.Error.Render(fmt.Sprintf("✗ %d errors", n)) + m.styles.Dim.Render("  │  q to quit")
	}
	return m.styles.Dim.Render("q to quit")
}

func (m *rebuildModel) renderComplete() string {
	lines := []string{m.styles.Success.Render("✓ " + m.title + " complete"), ""}
	lines = append(lines, m.tracker.Recent()...)
	lines = append(lines, "",
		fmt.Sprintf("%s   %s", m.styles.Label.Render("Indexes:"), m.styles.Active.Render(fmt.Sprint(m.stats.Indexes))),
		fmt.Sprintf("%s %s", m.styles.Label.Render("Documents:"), m.styles.Active.Render(fmt.Sprint(m.stats.Documents))),
		fmt.Sprintf("%s  %s", m.styles.Label.Render("Duration:"), m.styles.Active.Render(formatDuration(m.stats.Duration))),
	)
	for _, e := range m.tracker.Errors() {
		lines = append(lines, m.styles.Error.Render(fmt.Sprintf("✗ %s: %v", e.Index, e.Err)))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(output.ColorLime)).
		Padding(1, 2).
		Width(max(m.width-4, 40))
	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
