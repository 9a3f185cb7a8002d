package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/liqbridge"
	"github.com/wippyai/liqbridge/bridge"
	"github.com/wippyai/liqbridge/pixel"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	arenaSize  = 1 << 20
	arenaLimit = 256 << 20
	scratchLen = 256 * 4
)

// region is a named allocation in the explorer's arena.
type region struct {
	name string
	ptr  uint32
	size uint32
}

type explorerModel struct {
	err      error
	bridge   *bridge.Bridge
	arena    *bridge.Arena
	image    string
	result   string
	funcs    []bridge.Function
	regions  []region
	history  []string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newExplorerModel(b *bridge.Bridge, imagePath string) *explorerModel {
	return &explorerModel{
		bridge: b,
		arena:  bridge.NewArena(arenaSize, arenaLimit),
		image:  imagePath,
		funcs:  b.Functions(),
		state:  stateSelectFunc,
	}
}

type loadedMsg struct {
	err     error
	regions []region
}

type callResultMsg struct {
	err    error
	result string
}

func (m *explorerModel) Init() tea.Cmd {
	return m.loadImage
}

// loadImage packs the optional image into the arena and reserves scratch
// buffers for remapped indices and palette bytes.
func (m *explorerModel) loadImage() tea.Msg {
	var regions []region
	alloc := func(name string, size uint32, data []byte) error {
		ptr, err := m.arena.Alloc(size, 8)
		if err != nil {
			return err
		}
		if data != nil {
			if err := m.arena.Write(ptr, data); err != nil {
				return err
			}
		}
		regions = append(regions, region{name: name, ptr: ptr, size: size})
		return nil
	}

	indices := uint32(scratchLen)
	if m.image != "" {
		img, err := loadImage(m.image, 0)
		if err != nil {
			return loadedMsg{err: err}
		}
		b := img.Bounds()
		raw := pixel.Pack(img, pixel.LayoutABGR)
		if err := alloc(fmt.Sprintf("pixels %dx%d abgr", b.Dx(), b.Dy()), uint32(len(raw)), raw); err != nil {
			return loadedMsg{err: err}
		}
		indices = uint32(b.Dx() * b.Dy())
	}
	if err := alloc("indices", indices, nil); err != nil {
		return loadedMsg{err: err}
	}
	if err := alloc("palette", scratchLen, nil); err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{regions: regions}
}

func (m *explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs
				return m, nil

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.regions = msg.regions

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		if msg.err == nil {
			f := m.funcs[m.selected]
			m.history = append(m.history, f.Name+" -> "+msg.result)
		}
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *explorerModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.Params))
	for i, p := range f.Params {
		ti := textinput.New()
		ti.Placeholder = p.String()
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *explorerModel) callFunction() tea.Msg {
	f := m.funcs[m.selected]
	args := make([]uint64, len(m.inputs))
	for i, input := range m.inputs {
		v, err := parseArg(strings.TrimSpace(input.Value()), f.Params[i])
		if err != nil {
			return callResultMsg{err: fmt.Errorf("arg%d: %w", i, err)}
		}
		args[i] = v
	}

	out, err := m.bridge.Invoke(context.Background(), m.arena, f.Name, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	if len(out) == 0 {
		return callResultMsg{result: "(no result)"}
	}
	return callResultMsg{result: formatResult(out[0], f.Results[0])}
}

// parseArg converts user input into a stack value. Integers accept any base
// prefix strconv understands.
func parseArg(s string, t liqbridge.ValueType) (uint64, error) {
	switch t {
	case liqbridge.ValueI32:
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			u, uerr := strconv.ParseUint(s, 0, 32)
			if uerr != nil {
				return 0, err
			}
			return api.EncodeU32(uint32(u)), nil
		}
		return api.EncodeI32(int32(v)), nil
	case liqbridge.ValueI64:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(s, 0, 64)
			if uerr != nil {
				return 0, err
			}
			return u, nil
		}
		return api.EncodeI64(v), nil
	case liqbridge.ValueF32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(v)), nil
	case liqbridge.ValueF64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(v), nil
	}
	return 0, fmt.Errorf("unknown value type %v", t)
}

func formatResult(v uint64, t liqbridge.ValueType) string {
	switch t {
	case liqbridge.ValueI32:
		return strconv.Itoa(int(api.DecodeI32(v)))
	case liqbridge.ValueI64:
		return fmt.Sprintf("%d (0x%016x)", int64(v), v)
	case liqbridge.ValueF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case liqbridge.ValueF64:
		f := api.DecodeF64(v)
		if math.IsNaN(f) {
			return "NaN"
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatUint(v, 10)
}

func (m *explorerModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("liq bridge explorer"))
	if m.image != "" {
		b.WriteString(" ")
		b.WriteString(m.image)
	}
	b.WriteString("\n\n")

	for _, r := range m.regions {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  %-24s ptr=%d len=%d", r.name, r.ptr, r.size)))
		b.WriteString("\n")
	}
	if len(m.regions) > 0 {
		b.WriteString("\n")
	}

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + formatFunc(f)))
			} else {
				b.WriteString(cursor + formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s  %s\n\n", funcStyle.Render(f.Name), helpStyle.Render(f.Doc)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.Params[i].String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	if n := len(m.history); n > 0 {
		b.WriteString("\n\n")
		for _, h := range m.history[max(0, n-5):] {
			b.WriteString(helpStyle.Render("  " + h))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func formatFunc(f bridge.Function) string {
	var params []string
	for _, p := range f.Params {
		params = append(params, typeStyle.Render(p.String()))
	}
	result := ""
	if len(f.Results) > 0 {
		result = " -> " + typeStyle.Render(f.Results[0].String())
	}
	return funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

func runExplorer(b *bridge.Bridge, imagePath string) error {
	p := tea.NewProgram(newExplorerModel(b, imagePath), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
