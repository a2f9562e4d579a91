package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/quadkit/quadhost/bridge"
	"github.com/quadkit/quadhost/event"
	"github.com/quadkit/quadhost/gl"
	"github.com/quadkit/quadhost/shader"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err       error
	ctx       *bridge.Context
	filename  string
	cfg       bridge.Config
	input     textinput.Model
	forwarded int
	state     modelState
}

type modelState int

const (
	stateRunning modelState = iota
	stateInputText
)

func newInteractiveModel(filename string, cfg bridge.Config) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		cfg:      cfg,
		state:    stateRunning,
	}
}

type loadedMsg struct {
	err error
	ctx *bridge.Context
}

type tickMsg time.Time

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadGuest
}

func (m *interactiveModel) loadGuest() tea.Msg {
	ctx := context.Background()

	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}

	// The TUI owns the terminal, so host diagnostics stay quiet here.
	c, err := bridge.New(ctx, m.cfg, gl.NewNullBackend(shader.Dialect300), nil, zap.NewNop())
	if err != nil {
		return loadedMsg{err: err}
	}

	if err := c.Load(ctx, data); err != nil {
		c.Close(ctx)
		return loadedMsg{err: err}
	}

	return loadedMsg{ctx: c}
}

func (m *interactiveModel) tickCmd() tea.Cmd {
	fps := m.cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	return tea.Tick(time.Duration(float64(time.Second)/fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.ctx != nil {
				m.ctx.Close(context.Background())
			}
			return m, tea.Quit

		case "ctrl+t":
			if m.state == stateRunning && m.ctx != nil {
				m.input = textinput.New()
				m.input.Placeholder = "text to paste into the guest"
				m.input.Width = 48
				m.input.Focus()
				m.state = stateInputText
				return m, nil
			}

		case "enter":
			if m.state == stateInputText {
				if text := m.input.Value(); text != "" {
					m.ctx.Push(event.Event{Type: event.TypeClipboardPaste, Text: text})
					m.forwarded++
				}
				m.state = stateRunning
				return m, nil
			}

		case "esc":
			if m.state == stateInputText {
				m.state = stateRunning
				return m, nil
			}
		}

		if m.state == stateRunning && m.ctx != nil {
			m.forwardKey(msg)
			return m, nil
		}

	case tea.WindowSizeMsg:
		if m.ctx != nil {
			m.ctx.Push(event.Event{
				Type: event.TypeResize,
				X:    float32(msg.Width),
				Y:    float32(msg.Height),
			})
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.ctx = msg.ctx
		return m, m.tickCmd()

	case tickMsg:
		if m.ctx == nil {
			return m, nil
		}
		if m.ctx.Loop().Stopped() {
			m.ctx.Close(context.Background())
			return m, tea.Quit
		}
		m.ctx.Step(nil)
		return m, m.tickCmd()
	}

	if m.state == stateInputText {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

// forwardKey translates one terminal keystroke into a guest key press.
// Terminals report no key releases, so the release follows immediately.
func (m *interactiveModel) forwardKey(msg tea.KeyMsg) {
	name, mods, ch := guestKey(msg)
	if name == "" {
		return
	}
	code := event.NormalizeKey(name)
	m.ctx.Push(event.Event{Type: event.TypeKeyDown, Key: code, Mods: mods})
	if ch != 0 {
		m.ctx.Push(event.Event{Type: event.TypeChar, Char: ch, Mods: mods})
	}
	m.ctx.Push(event.Event{Type: event.TypeKeyUp, Key: code, Mods: mods})
	m.forwarded++
}

var termKeyNames = map[string]string{
	"up":        "ArrowUp",
	"down":      "ArrowDown",
	"left":      "ArrowLeft",
	"right":     "ArrowRight",
	"enter":     "Enter",
	"tab":       "Tab",
	"backspace": "Backspace",
	"delete":    "Delete",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"pgup":      "PageUp",
	"pgdown":    "PageDown",
	"esc":       "Escape",
	" ":         "Space",
}

// guestKey maps a terminal key name onto the physical key naming the
// guest expects, along with modifier flags and the printable rune when
// one applies.
func guestKey(msg tea.KeyMsg) (string, uint32, rune) {
	name := msg.String()
	var mods uint32
	if strings.HasPrefix(name, "alt+") {
		mods |= event.ModAlt
		name = strings.TrimPrefix(name, "alt+")
	}
	if strings.HasPrefix(name, "ctrl+") {
		mods |= event.ModCtrl
		name = strings.TrimPrefix(name, "ctrl+")
	}
	if mapped, ok := termKeyNames[name]; ok {
		return mapped, mods, 0
	}
	if len(name) > 1 && len(name) <= 3 && name[0] == 'f' && name[1] >= '1' && name[1] <= '9' {
		return "F" + name[1:], mods, 0
	}
	if len(name) != 1 {
		return "", 0, 0
	}
	r := rune(name[0])
	switch {
	case r >= 'a' && r <= 'z':
		return "Key" + string(r-'a'+'A'), mods, r
	case r >= 'A' && r <= 'Z':
		return "Key" + string(r), mods | event.ModShift, r
	case r >= '0' && r <= '9':
		return "Digit" + string(r), mods, r
	default:
		// Punctuation carries no physical key name the guest knows.
		return "", 0, 0
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}
	if m.ctx == nil {
		return "Loading guest..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("quadhost"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	row := func(label string, value any) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", label)))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%v", value)))
		b.WriteString("\n")
	}
	row("frames", m.ctx.Loop().Frames())
	row("handles", m.ctx.Handles())
	row("playbacks", m.ctx.Engine().LivePlaybacks())
	row("keys forwarded", m.forwarded)

	b.WriteString("\n")
	if m.state == stateInputText {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter paste into guest • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("keys forward to guest • ctrl+t paste text • ctrl+c quit"))
	}

	return b.String()
}

func runInteractive(filename string, cfg bridge.Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newInteractiveModel(filename, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
