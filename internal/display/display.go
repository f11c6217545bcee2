// Package display renders the terminal UI with Bubble Tea: a scrolling
// transcript pane, an advisory line, a persistent capability banner,
// and a status bar with the single talk toggle.
package display

import (
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/softspoken/parley/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8")).
			Bold(true)

	// User turns — muted zinc.
	userLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa")).
			Bold(true)
	userTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	// Assistant turns — soft sky blue.
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7dd3fc")).
				Bold(true)
	assistantTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#bae6fd"))

	// Advisory — soft coral.
	advisoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	// Capability banner — coral on dark, full width.
	capabilityStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#450a0a")).
			Foreground(lipgloss.Color("#fca5a5"))

	// Status bar.
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#27272a")).
			Foreground(lipgloss.Color("#a1a1aa"))

	idleDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))
	busyDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#86efac"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b")).
			Italic(true)
)

// capabilityBanner is shown for the whole session when speech capture
// is missing.
const capabilityBanner = "Speech capture is unavailable. Install whisper-cli and a GGML model: https://github.com/ggml-org/whisper.cpp"

// ringFrames animate the pulse shown while the assistant is busy.
var ringFrames = spinner.Spinner{
	Frames: []string{"◜", "◠", "◝", "◞", "◡", "◟"},
	FPS:    time.Second / 8,
}

// Controller is the slice of the assistant the view drives.
type Controller interface {
	Toggle()
	Snapshot() domain.Snapshot
	Updates() <-chan struct{}
}

// UI owns the Bubble Tea program. Construct with NewUI, then Run
// (blocking). Quit may be called from another goroutine.
type UI struct {
	ctrl Controller

	mu      sync.Mutex
	program *tea.Program
}

// NewUI creates the display around the given controller.
func NewUI(ctrl Controller) *UI {
	return &UI{ctrl: ctrl}
}

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	pulse := spinner.New()
	pulse.Spinner = ringFrames
	pulse.Style = busyDotStyle

	m := uiModel{
		ctrl:  u.ctrl,
		pulse: pulse,
		vp:    viewport.New(80, 20),
		snap:  u.ctrl.Snapshot(),
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	u.mu.Lock()
	u.program = program
	u.mu.Unlock()

	_, err := program.Run()
	return err
}

// Quit tells Bubble Tea to exit. A no-op before Run has started the
// program.
func (u *UI) Quit() {
	u.mu.Lock()
	program := u.program
	u.mu.Unlock()
	if program != nil {
		program.Quit()
	}
}

// ── Bubble Tea model ─────────────────────────────────────────────

type uiModel struct {
	ctrl   Controller
	snap   domain.Snapshot
	vp     viewport.Model
	pulse  spinner.Model
	width  int
	height int
}

// refreshMsg means the session state changed.
type refreshMsg struct{}

func waitUpdate(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		<-ctrl.Updates()
		return refreshMsg{}
	}
}

func (m uiModel) Init() tea.Cmd {
	return tea.Batch(m.pulse.Tick, waitUpdate(m.ctrl))
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "enter":
			m.ctrl.Toggle()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case refreshMsg:
		m.snap = m.ctrl.Snapshot()
		m.layout()
		m.vp.GotoBottom()
		return m, waitUpdate(m.ctrl)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.pulse, cmd = m.pulse.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// layout resizes the viewport and refills it with the transcript.
func (m *uiModel) layout() {
	w := m.width
	if w <= 0 {
		w = 80
	}
	chrome := 2 // title + status bar
	if m.snap.SpeechUnavailable {
		chrome++
	}
	if m.snap.Advisory != "" {
		chrome++
	}
	h := m.height - chrome
	if h < 3 {
		h = 3
	}

	m.vp.Width = w
	m.vp.Height = h
	m.vp.SetContent(renderTranscript(m.snap, w))
}

func (m uiModel) View() string {
	w := m.width
	if w <= 0 {
		w = 80
	}

	var b strings.Builder

	if m.snap.SpeechUnavailable {
		b.WriteString(capabilityStyle.Width(w).Render(" " + capabilityBanner))
		b.WriteByte('\n')
	}

	b.WriteString(titleStyle.Render(" parley"))
	b.WriteByte('\n')

	b.WriteString(m.vp.View())
	b.WriteByte('\n')

	if m.snap.Advisory != "" {
		b.WriteString(advisoryStyle.Render(" " + m.snap.Advisory))
		b.WriteByte('\n')
	}

	b.WriteString(m.renderStatusBar(w))
	return b.String()
}

func (m uiModel) renderStatusBar(w int) string {
	var indicator, label string
	switch m.snap.Phase {
	case domain.PhaseIdle:
		indicator = idleDotStyle.Render("○")
		label = "idle"
	case domain.PhaseListening:
		indicator = busyDotStyle.Render("◉")
		label = "listening"
	case domain.PhaseThinking:
		indicator = m.pulse.View()
		label = "thinking"
	case domain.PhaseSpeaking:
		indicator = m.pulse.View()
		label = "speaking"
	}

	hints := "space: talk · q: quit"
	if m.snap.SpeechUnavailable {
		hints = "q: quit"
	}

	content := " " + indicator + " " + label +
		strings.Repeat(" ", 3) + hintStyle.Render(hints) + " "
	return statusBarStyle.Width(w).Render(content)
}

// renderTranscript formats the turn history for the viewport.
func renderTranscript(snap domain.Snapshot, width int) string {
	if len(snap.Turns) == 0 {
		return "\n" + emptyStyle.Render("  Press space and ask a question.")
	}

	textWidth := width - 4
	if textWidth < 20 {
		textWidth = 20
	}

	var b strings.Builder
	for i, turn := range snap.Turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch turn.Role {
		case domain.RoleUser:
			b.WriteString(userLabelStyle.Render("  you"))
			b.WriteByte('\n')
			b.WriteString(userTextStyle.Width(textWidth).PaddingLeft(2).Render(turn.Text))
		case domain.RoleAssistant:
			b.WriteString(assistantLabelStyle.Render("  parley"))
			b.WriteByte('\n')
			b.WriteString(assistantTextStyle.Width(textWidth).PaddingLeft(2).Render(turn.Text))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
