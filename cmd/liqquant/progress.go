package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/liqbridge/bridge"
)

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type fileDoneMsg fileStat

type batchDoneMsg struct {
	err   error
	stats []fileStat
}

const recentLines = 6

type progressModel struct {
	err    error
	bar    progress.Model
	recent []string
	stats  []fileStat
	total  int
	done   int
	failed int
}

func newProgressModel(total int) *progressModel {
	return &progressModel{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		total: total,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return nil
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}

	case fileDoneMsg:
		st := fileStat(msg)
		m.done++
		if st.err != nil {
			m.failed++
		}
		m.recent = append(m.recent, formatStat(st))
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}

	case batchDoneMsg:
		m.stats = msg.stats
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("liqquant"))
	fmt.Fprintf(&b, " %d/%d", m.done, m.total)
	if m.failed > 0 {
		b.WriteString(" ")
		b.WriteString(errorStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	b.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	for _, line := range m.recent {
		if strings.HasPrefix(line, "FAIL") {
			b.WriteString(errorStyle.Render(line))
		} else {
			b.WriteString(lipgloss.NewStyle().Faint(true).Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// compressWithProgress runs compressAll under a progress bar.
func compressWithProgress(ctx context.Context, b *bridge.Bridge, paths []string, opts options) ([]fileStat, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newProgressModel(len(paths))
	p := tea.NewProgram(m)

	go func() {
		stats, err := compressAll(ctx, b, paths, opts, func(st fileStat) {
			p.Send(fileDoneMsg(st))
		})
		p.Send(batchDoneMsg{stats: stats, err: err})
	}()

	if _, err := p.Run(); err != nil {
		return nil, err
	}
	return m.stats, m.err
}
