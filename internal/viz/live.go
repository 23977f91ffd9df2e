package viz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravfield/internal/dynamo"
	"github.com/san-kum/gravfield/internal/metrics"
	"github.com/san-kum/gravfield/internal/transfer"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 120
)

type TickMsg time.Time

// FrameMsg carries a copy of one frame's records into Update.
type FrameMsg struct {
	Step    int
	Records []transfer.Record
}

type frameErrMsg struct{ err error }

type Options struct {
	Title      string
	HalfExtent float32
	FPS        int
	Theme      string
}

// Model consumes frames from a handoff. At most one fetch is in flight; it
// fills the spare buffer, and Update swaps it with the displayed one.
type Model struct {
	ctx     context.Context
	handoff *transfer.Handoff

	title      string
	halfExtent float32
	zoom       float32
	interval   time.Duration
	theme      Theme

	canvas   *Canvas
	recs     []transfer.Record
	spare    []transfer.Record
	fetching bool
	running  bool
	showHelp bool

	step       int
	frames     int
	started    time.Time
	maxSpeed   float32
	mean       *metrics.MeanSpeed
	spread     *metrics.Spread
	nonFinite  *metrics.NonFinite
	speedHist  []float64
	spreadHist []float64
	err        error
}

func NewModel(ctx context.Context, h *transfer.Handoff, opts Options) Model {
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}
	extent := opts.HalfExtent
	if extent <= 0 {
		extent = 8
	}
	return Model{
		ctx:        ctx,
		handoff:    h,
		title:      opts.Title,
		halfExtent: extent,
		zoom:       1,
		interval:   time.Second / time.Duration(fps),
		theme:      GetTheme(opts.Theme),
		canvas:     NewCanvas(width, height),
		running:    true,
		started:    time.Now(),
		mean:       metrics.NewMeanSpeed(),
		spread:     metrics.NewSpread(),
		nonFinite:  metrics.NewNonFinite(),
		speedHist:  make([]float64, 0, historyCapacity),
		spreadHist: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// fetch blocks until the producer has published a frame. The records are
// copied into buf before the frame's lease is released.
func (m Model) fetch(buf []transfer.Record) tea.Cmd {
	ctx, h := m.ctx, m.handoff
	return func() tea.Msg {
		recs, step, err := h.Take(ctx, buf)
		if err != nil {
			return frameErrMsg{err}
		}
		return FrameMsg{Step: step, Records: recs}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.zoom *= 1.25
		case "-", "_":
			m.zoom /= 1.25
		case "t":
			m.theme = nextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
		return m, nil

	case TickMsg:
		if !m.running || m.fetching {
			return m, m.tick()
		}
		m.fetching = true
		return m, tea.Batch(m.tick(), m.fetch(m.spare))

	case FrameMsg:
		m.fetching = false
		m.spare = m.recs
		m.recs = msg.Records
		m.step = msg.Step
		m.frames++
		m.observe()
		return m, nil

	case frameErrMsg:
		m.fetching = false
		if errors.Is(msg.err, dynamo.ErrClosed) || errors.Is(msg.err, context.Canceled) {
			return m, tea.Quit
		}
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) observe() {
	m.mean.Observe(m.recs, 0)
	m.spread.Observe(m.recs, 0)
	m.nonFinite.Observe(m.recs, 0)

	m.maxSpeed = 0
	for _, r := range m.recs {
		if r.Speed > m.maxSpeed {
			m.maxSpeed = r.Speed
		}
	}

	m.speedHist = appendCapped(m.speedHist, m.mean.Value())
	m.spreadHist = appendCapped(m.spreadHist, m.spread.Value())

	m.canvas.Clear()
	m.canvas.Plot(m.recs, m.halfExtent/m.zoom)
}

func appendCapped(hist []float64, v float64) []float64 {
	if len(hist) == historyCapacity {
		copy(hist, hist[1:])
		hist = hist[:len(hist)-1]
	}
	return append(hist, v)
}

// Err is the error that stopped the model, if any.
func (m Model) Err() error { return m.err }

func (m Model) View() string {
	canvasView := canvasStyle.Render(m.canvas.Render(m.maxSpeed))

	var s strings.Builder
	title := m.title
	if title == "" {
		title = "gravfield"
	}
	s.WriteString(m.theme.header().Render(strings.ToUpper(title)) + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(m.theme.status(m.running).Render(status) + "\n\n")

	if len(m.speedHist) > 1 {
		chart := asciigraph.Plot(m.speedHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("mean speed"))
		s.WriteString(graphStyle.Foreground(m.theme.Primary).Render(chart) + "\n\n")
	}

	elapsed := time.Since(m.started).Seconds()
	fps := 0.0
	if elapsed > 0 {
		fps = float64(m.frames) / elapsed
	}

	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", m.step)) + "\n")
	s.WriteString(labelStyle.Render("Particles") + valueStyle.Render(fmt.Sprintf("%d", len(m.recs))) + "\n")
	s.WriteString(labelStyle.Render("FPS") + valueStyle.Render(fmt.Sprintf("%.1f", fps)) + "\n")
	s.WriteString(labelStyle.Render("Max speed") + valueStyle.Render(fmt.Sprintf("%.3f", m.maxSpeed)) + "\n")
	s.WriteString(labelStyle.Render("Spread") + valueStyle.Render(fmt.Sprintf("%.3f", m.spread.Value())) + "\n")
	s.WriteString(labelStyle.Render("Zoom") + valueStyle.Render(fmt.Sprintf("%.2fx", m.zoom)) + "\n")
	if n := m.nonFinite.Value(); n > 0 {
		s.WriteString(labelStyle.Render("Non-finite") + SparkLow.Render(fmt.Sprintf("%.0f", n)) + "\n")
	}
	s.WriteString("\n" + SparklineChart(m.spreadHist, 30) + "\n")

	s.WriteString(helpStyle.Foreground(m.theme.Muted).Render("\n─────────────────────\nSP:Pause +/-:Zoom Q:Quit\nT:Theme ?:Help"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)

	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  + / -    - Zoom in / out            ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Live runs the terminal consumer until the user quits, ctx is cancelled or
// the handoff is closed. The handoff is closed on return so the producer
// stops waiting.
func Live(ctx context.Context, h *transfer.Handoff, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer h.Close()

	p := tea.NewProgram(NewModel(ctx, h, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
