// Package console renders run progress in the terminal: a progress bar for
// the walk-forward loop plus a scrolling log of status messages. It wraps
// the fire-and-forget progress sink, so the run itself never blocks on the
// terminal.
package console

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles.
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	lineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// fractionRe picks "k/n" counters out of status messages to drive the bar.
var fractionRe = regexp.MustCompile(`(\d+)/(\d+)`)

const maxLines = 200

// Messages.
type lineMsg string
type doneMsg struct{ err error }

type model struct {
	title    string
	bar      progress.Model
	view     viewport.Model
	lines    []string
	pct      float64
	finished bool
	err      error
}

func newModel(title string) model {
	bar := progress.New(progress.WithDefaultGradient())
	vp := viewport.New(80, 12)
	return model{title: title, bar: bar, view: vp}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = msg.Height - 4
		m.bar.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd

	case lineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxLines {
			m.lines = m.lines[len(m.lines)-maxLines:]
		}
		if frac := fractionRe.FindStringSubmatch(string(msg)); frac != nil {
			k, _ := strconv.Atoi(frac[1])
			n, _ := strconv.Atoi(frac[2])
			if n > 0 {
				m.pct = float64(k) / float64(n)
			}
		}
		m.view.SetContent(lineStyle.Render(strings.Join(m.lines, "\n")))
		m.view.GotoBottom()
		return m, nil

	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.pct))
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	if m.finished {
		if m.err != nil {
			b.WriteString(failStyle.Render(fmt.Sprintf("run failed: %v", m.err)))
		} else {
			b.WriteString(doneStyle.Render("run complete"))
		}
	}
	return b.String()
}

// Run executes work under the TUI. The function receives a progress sink;
// every message it sends appears in the scrolling log. Run returns the
// work's error after the interface shuts down.
func Run(title string, work func(send func(string)) error) error {
	p := tea.NewProgram(newModel(title))

	errc := make(chan error, 1)
	go func() {
		err := work(func(line string) {
			p.Send(lineMsg(line))
		})
		errc <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return <-errc
}
