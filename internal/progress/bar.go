package progress

import (
	"fmt"
	"io"
	"log/slog"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	barPadding  = 2
	barMaxWidth = 60
)

var titleStyle = lipgloss.NewStyle().Bold(true)

var startProgram = func(m tea.Model, out io.Writer) *tea.Program {
	return tea.NewProgram(m, tea.WithOutput(out), tea.WithInput(nil))
}

type advanceMsg int

type finishMsg struct{}

type barModel struct {
	title string
	bar   bubblesprogress.Model
	done  int
	total int
}

func newBarModel(title string, total int) barModel {
	return barModel{
		title: title,
		bar:   bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(40)),
		total: total,
	}
}

func (m barModel) Init() tea.Cmd {
	return nil
}

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case advanceMsg:
		m.done = int(msg)
		return m, nil
	case finishMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-barPadding*2-10, barMaxWidth)
		if m.bar.Width < 10 {
			m.bar.Width = 10
		}
		return m, nil
	}
	return m, nil
}

func (m barModel) percent() float64 {
	if m.total <= 0 {
		return 1
	}
	return float64(m.done) / float64(m.total)
}

func (m barModel) View() string {
	return fmt.Sprintf("%s\n%s %d/%d\n", titleStyle.Render(m.title), m.bar.ViewAs(m.percent()), m.done, m.total)
}

// Bar renders an animated terminal progress bar.
type Bar struct {
	title   string
	out     io.Writer
	counter Counter
	program *tea.Program
	exited  chan struct{}
	logs    io.Writer
}

// NewBar creates a bar that draws on out.
func NewBar(title string, out io.Writer) *Bar {
	return &Bar{title: title, out: out}
}

func (b *Bar) Start(total int) {
	b.counter.Reset(total)
	b.program = startProgram(newBarModel(b.title, total), b.out)
	b.exited = make(chan struct{})
	b.logs = Logs.Swap(programWriter{program: b.program})

	go func() {
		defer close(b.exited)
		if _, err := b.program.Run(); err != nil {
			slog.Debug("Progress bar stopped", "error", err)
		}
	}()
}

func (b *Bar) Advance() {
	done := b.counter.Inc()
	if b.program != nil {
		b.program.Send(advanceMsg(done))
	}
}

func (b *Bar) Finish() {
	if b.program == nil {
		return
	}
	Logs.Swap(b.logs)
	b.program.Send(finishMsg{})
	<-b.exited
}

// Done returns the number of items reported so far.
func (b *Bar) Done() int {
	return b.counter.Done()
}
