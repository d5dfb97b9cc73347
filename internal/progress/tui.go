package progress

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lakshaymaurya-felt/reclaim/internal/logging"
	"github.com/lakshaymaurya-felt/reclaim/internal/reclaim"
	"github.com/lakshaymaurya-felt/reclaim/internal/ui"
)

const refreshInterval = 100 * time.Millisecond

// ─── Messages ────────────────────────────────────────────────────────────────

type tickMsg time.Time

type stepMsg struct{ label string }

type doneMsg struct{}

// ─── Model ───────────────────────────────────────────────────────────────────

// Model is the bubbletea model for the live run view. It polls counters on
// a fixed cadence instead of receiving every engine event.
type Model struct {
	title    string
	steps    int
	step     int
	label    string
	stats    reclaim.Snapshot
	last     reclaim.Event
	hasLast  bool
	width    int
	started  time.Time
	stopping bool
	done     bool

	snapshot  func() reclaim.Snapshot
	latest    func() (reclaim.Event, bool)
	interrupt func()

	spinner spinner.Model
	bar     progress.Model
}

// NewModel creates a Model. snapshot and latest are polled on every tick;
// interrupt runs once when the user asks to stop.
func NewModel(title string, steps int, snapshot func() reclaim.Snapshot, latest func() (reclaim.Event, bool), interrupt func()) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(ui.ColorPrimary)

	return Model{
		title:     title,
		steps:     max(steps, 1),
		width:     80,
		started:   time.Now(),
		snapshot:  snapshot,
		latest:    latest,
		interrupt: interrupt,
		spinner:   sp,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m Model) doTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refresh() {
	if m.snapshot != nil {
		m.stats = m.snapshot()
	}
	if m.latest != nil {
		m.last, m.hasLast = m.latest()
	}
}

// ─── tea.Model interface ─────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.doTick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.stopping {
				m.stopping = true
				if m.interrupt != nil {
					m.interrupt()
				}
			}
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.doTick()

	case stepMsg:
		m.step = min(m.step+1, m.steps)
		m.label = msg.label
		m.refresh()
		return m, nil

	case doneMsg:
		m.refresh()
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	w := max(m.width, 40)

	var s strings.Builder
	s.WriteString(ui.TitleStyle().Render(m.title))
	s.WriteString("\n")
	s.WriteString(ui.Rule(min(w, 80)))
	s.WriteString("\n")

	label := m.label
	if label == "" {
		label = "starting"
	}
	fmt.Fprintf(&s, "%s STEP %d/%d: %s\n", m.spinner.View(), max(m.step, 1), m.steps, label)
	fmt.Fprintf(&s, "  %s\n\n", m.bar.ViewAs(float64(m.step)/float64(m.steps)))

	fmt.Fprintf(&s, "  %s  %s  %s  %s\n",
		ui.SuccessStyle().Render(fmt.Sprintf("%s %d deleted", ui.IconSuccess, m.stats.Deleted)),
		ui.WarningStyle().Render(fmt.Sprintf("%s %d protected", ui.IconShield, m.stats.Protected)),
		ui.ErrorStyle().Render(fmt.Sprintf("%s %d failed", ui.IconError, m.stats.Failed)),
		ui.MutedStyle().Render(ui.FormatSize(m.stats.BytesFreed)+" freed"),
	)

	if m.hasLast {
		fmt.Fprintf(&s, "  %s %s %s\n", ui.MutedStyle().Render(ui.IconArrow), m.last.Outcome, truncate(m.last.Path, w-16))
	} else {
		s.WriteString("\n")
	}

	s.WriteString("\n")
	hint := fmt.Sprintf("elapsed %s · ctrl+c to stop", time.Since(m.started).Truncate(time.Second))
	if m.stopping {
		hint = "stopping after in-flight deletions…"
	}
	s.WriteString(ui.HintBarStyle().Render(hint))
	return s.String()
}

// truncate shortens path from the left so its tail stays visible.
func truncate(path string, width int) string {
	r := []rune(path)
	if width < 4 || len(r) <= width {
		return path
	}
	return "…" + string(r[len(r)-width+1:])
}

// ─── Reporter ────────────────────────────────────────────────────────────────

// TUI hosts Model in a bubbletea program for the life of a run. While it is
// running the logger's console output is printed above the live view.
type TUI struct {
	title     string
	counters  *reclaim.Counters
	log       *logging.Logger
	interrupt func()
	opts      []tea.ProgramOption

	latest  atomic.Pointer[reclaim.Event]
	program *tea.Program
	done    chan struct{}
	restore func()
}

// NewTUI creates a live reporter. interrupt is called when the user presses
// ctrl+c and should cancel the run's context.
func NewTUI(title string, counters *reclaim.Counters, log *logging.Logger, interrupt func(), opts ...tea.ProgramOption) *TUI {
	return &TUI{
		title:     title,
		counters:  counters,
		log:       log,
		interrupt: interrupt,
		opts:      opts,
	}
}

func (t *TUI) Begin(steps int) {
	model := NewModel(t.title, steps, t.counters.Snapshot, t.last, t.interrupt)
	t.program = tea.NewProgram(model, t.opts...)
	t.done = make(chan struct{})

	t.restore = sync.OnceFunc(t.log.SetConsole(printer{t.program}, false))

	go func() {
		defer close(t.done)
		if _, err := t.program.Run(); err != nil {
			t.restore()
			t.log.Warnf("live view stopped: %v", err)
		}
	}()
}

func (t *TUI) last() (reclaim.Event, bool) {
	ev := t.latest.Load()
	if ev == nil {
		return reclaim.Event{}, false
	}
	return *ev, true
}

func (t *TUI) Advance(label string) {
	t.program.Send(stepMsg{label: label})
}

func (t *TUI) Observe(ev reclaim.Event) {
	t.latest.Store(&ev)
}

func (t *TUI) End() {
	t.program.Send(doneMsg{})
	<-t.done
	t.restore()
}

// printer forwards log lines to the program so they print above the view.
type printer struct{ p *tea.Program }

func (w printer) Write(b []byte) (int, error) {
	w.p.Println(strings.TrimRight(string(b), "\n"))
	return len(b), nil
}
