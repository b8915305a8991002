// Package tui renders a single detector card in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/factchecker/realitycheck/internal/card"
	"github.com/factchecker/realitycheck/internal/models"
)

// refreshInterval is how often the view re-reads the card state.
const refreshInterval = 50 * time.Millisecond

type refreshMsg time.Time

// Model is a Bubble Tea model driving one card controller. Selecting input
// happens before the program starts; the model starts the analysis as soon as
// the card is ready and quits once a result or failure is shown.
type Model struct {
	detector models.Detector
	ctrl     *card.Controller
	notices  <-chan models.Notice

	snap      card.Snapshot
	requested bool
	lastErr   error
	toasts    []models.Notice
	quitting  bool

	progress progress.Model
	spinner  spinner.Model
}

// NewModel creates a card model. notices may be nil.
func NewModel(detector models.Detector, ctrl *card.Controller, notices <-chan models.Notice) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 50

	return Model{
		detector: detector,
		ctrl:     ctrl,
		notices:  notices,
		snap:     ctrl.State(),
		progress: p,
		spinner:  s,
	}
}

// Init starts the refresh loop and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(refresh(), m.spinner.Tick)
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Update handles key presses and state refreshes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.ctrl.Reset()
			m.quitting = true
			return m, tea.Quit
		}

	case refreshMsg:
		m.snap = m.ctrl.State()

		if !m.requested && m.ready() {
			m.requested = true
			m.lastErr = m.ctrl.Analyze()
			m.snap = m.ctrl.State()
		}
		m.drainNotices()

		if m.snap.Phase == card.PhaseResulted || m.snap.Phase == card.PhaseFailed || m.lastErr != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// ready reports whether the analysis should be requested now. Text is set
// before the program starts, so a text card goes straight to Analyze and
// blank text is rejected there.
func (m Model) ready() bool {
	switch m.snap.Phase {
	case card.PhaseUploadComplete, card.PhaseInputReady:
		return true
	case card.PhaseIdle:
		return m.detector.Kind == models.KindText
	}
	return false
}

func (m *Model) drainNotices() {
	if m.notices == nil {
		return
	}
	for {
		select {
		case n := <-m.notices:
			m.toasts = append(m.toasts, n)
		default:
			return
		}
	}
}

// Snapshot returns the last observed card state.
func (m Model) Snapshot() card.Snapshot {
	return m.snap
}

// Err returns the error from the last analyze request, if any.
func (m Model) Err() error {
	return m.lastErr
}

// View renders the card.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.detector.Title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(m.detector.Description))
	b.WriteString("\n\n")

	switch {
	case m.snap.Input.Variant == models.InputFile:
		f := m.snap.Input.File
		fmt.Fprintf(&b, "%s  %s\n", f.Name, mutedStyle.Render(humanize.Bytes(uint64(f.Size))))
	case m.snap.Input.Variant == models.InputText && !m.snap.Input.IsEmpty():
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render(preview(m.snap.Input.Text, 60)))
	case m.detector.Kind == models.KindText:
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render("Paste or type the text to analyze"))
	default:
		fmt.Fprintf(&b, "%s\n", mutedStyle.Render("Drop your "+string(m.detector.Kind)+" file here • "+m.detector.AcceptedTypes))
	}
	b.WriteString("\n")

	if m.snap.Upload.Status == card.UploadUploading {
		fmt.Fprintf(&b, "Uploading... %d%%\n", m.snap.Upload.Progress)
		b.WriteString(m.progress.ViewAs(float64(m.snap.Upload.Progress) / 100))
		b.WriteString("\n")
	}

	switch m.snap.Analysis.Status {
	case card.AnalysisRunning:
		fmt.Fprintf(&b, "%s Analyzing...\n", m.spinner.View())
	case card.AnalysisDone:
		b.WriteString(RenderResult(*m.snap.Analysis.Result))
		b.WriteString("\n")
	case card.AnalysisFailed:
		b.WriteString(errorStyle.Render("Analysis failed: " + m.snap.Analysis.Reason))
		b.WriteString("\n")
	}

	for _, n := range m.toasts {
		line := n.Title + ": " + n.Description
		if n.Variant == models.NoticeDestructive {
			line = errorStyle.Render(line)
		}
		b.WriteString("\n" + line)
	}

	if !m.quitting {
		b.WriteString("\n" + mutedStyle.Render("q: quit"))
	}

	return cardStyle.Render(b.String()) + "\n"
}

// RenderResult draws the verdict box.
func RenderResult(r models.AnalysisResult) string {
	style := authenticStyle
	if r.Verdict == models.VerdictSynthetic {
		style = syntheticStyle
	}
	return style.Render(fmt.Sprintf("%s   %s\nConfidence: %s", r.Verdict.Label(), r.Percent(0), r.Percent(1)))
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= limit {
		return s
	}
	return string([]rune(s)[:limit-1]) + "…"
}
