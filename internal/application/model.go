// Package application is the terminal front end: a menu-driven bubbletea
// program for encoding and decoding text and files.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/beb64/internal/codec"
	"github.com/JonMunkholm/beb64/internal/core"
	"github.com/JonMunkholm/beb64/internal/transcode"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateMenu state = iota
	statePrompt
	stateRunning
	stateResult
)

type action int

const (
	actionEncodeText action = iota
	actionDecodeText
	actionEncodeFile
	actionDecodeFile
)

func (a action) isFile() bool {
	return a == actionEncodeFile || a == actionDecodeFile
}

func (a action) title() string {
	switch a {
	case actionEncodeText:
		return "Encode text"
	case actionDecodeText:
		return "Decode text"
	case actionEncodeFile:
		return "Encode file"
	default:
		return "Decode file"
	}
}

// validity is the live indicator shown while typing Base64.
type validity struct {
	checked bool
	base64  bool
	text    bool
}

// Model is the bubbletea model. All transitions happen in Update; busy state
// is the stateRunning phase, never a separate flag.
type Model struct {
	theme  Theme
	styles styles
	mode   transcode.Mode
	log    *slog.Logger

	state  state
	menu   *Menu
	cursor int
	action action

	input    textinput.Model
	progress progress.Model
	spinner  spinner.Model
	valid    validity

	job     *fileJob
	percent float64
	output  string

	status    string
	statusErr bool
	statusSeq int
}

// New returns a model showing the main menu.
func New(theme Theme, mode transcode.Mode, log *slog.Logger) *Model {
	if log == nil {
		log = slog.Default()
	}

	m := &Model{
		mode:    mode,
		log:     log,
		input:   textinput.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.applyTheme(theme)
	m.menu = buildMenuTree(m)
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetTheme is the only way the theme changes.
func (m *Model) SetTheme(t Theme) tea.Cmd {
	m.applyTheme(t)
	return m.setStatus("Theme: "+t.String(), false)
}

func (m *Model) applyTheme(t Theme) {
	width := 40
	if m.progress.Width > 0 {
		width = m.progress.Width
	}
	p := palettes[t]
	m.theme = t
	m.styles = newStyles(t)
	m.progress = progress.New(progress.WithGradient(p.gradientA, p.gradientB), progress.WithWidth(width))
}

func (m *Model) setMode(mode transcode.Mode) tea.Cmd {
	m.mode = mode
	return m.setStatus("Decode mode: "+mode.String(), false)
}

func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.status = msg
	m.statusErr = isErr
	return clearStatusAfter(m.statusSeq)
}

func (m *Model) prompt(a action) tea.Cmd {
	m.state = statePrompt
	m.action = a
	m.output = ""
	m.valid = validity{}
	m.input.Reset()
	switch a {
	case actionEncodeText:
		m.input.Placeholder = "text to encode"
	case actionDecodeText:
		m.input.Placeholder = "Base64 to decode"
	default:
		m.input.Placeholder = "path to file"
	}
	return m.input.Focus()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.job != nil {
				m.job.cancel()
			}
			return m, tea.Quit
		}
		return m, m.handleKey(msg)

	case textResultMsg:
		m.state = stateResult
		m.output = msg.output
		m.input.Blur()
		return m, m.setStatus(msg.status, false)

	case progressMsg:
		if m.job == nil {
			return m, nil
		}
		m.percent = float64(msg)
		return m, m.job.listen()

	case fileDoneMsg:
		return m, m.finishFile(msg)

	case ErrMsg:
		return m, m.setStatus(errorText(msg.Err), true)

	case DoneMsg:
		return m, m.setStatus(string(msg), false)

	case clearStatusMsg:
		if int(msg) == m.statusSeq {
			m.status = ""
			m.statusErr = false
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == statePrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)

	case statePrompt:
		switch msg.String() {
		case "esc":
			m.state = stateMenu
			m.input.Blur()
			return nil
		case "enter":
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.refreshValidity()
		return cmd

	case stateRunning:
		switch msg.String() {
		case "esc", "c":
			m.job.cancel()
			return m.setStatus("Cancelling...", false)
		}

	case stateResult:
		switch msg.String() {
		case "esc", "enter", "q":
			m.state = stateMenu
		}
	}
	return nil
}

func (m *Model) menuKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}
	case "t":
		return m.SetTheme(m.theme.Toggle())
	case "q":
		return tea.Quit
	case "enter":
		item := m.menu.Items[m.cursor]
		if item.Submenu != nil {
			m.menu = item.Submenu
			m.cursor = 0
			return nil
		}
		if item.Action != nil {
			return item.Action()
		}
	}
	return nil
}

// refreshValidity updates the live indicator for Base64 input.
func (m *Model) refreshValidity() {
	if m.action != actionDecodeText {
		return
	}
	v := m.input.Value()
	if strings.TrimSpace(v) == "" {
		m.valid = validity{}
		return
	}
	m.valid = validity{checked: true, base64: codec.IsValidBase64(v)}
	if m.valid.base64 {
		m.valid.text, _, _ = codec.TryDecodeText(v)
	}
}

func (m *Model) submit() tea.Cmd {
	value := m.input.Value()

	switch m.action {
	case actionEncodeText:
		return encodeTextCmd(value)
	case actionDecodeText:
		return decodeTextCmd(value, m.mode, m.log)
	}

	path := strings.TrimSpace(value)
	if path == "" {
		return m.setStatus("Enter a file path", true)
	}

	job, err := startFileJob(m.action == actionEncodeFile, path, m.mode, m.log)
	if err != nil {
		return m.setStatus(err.Error(), true)
	}

	m.job = job
	m.percent = 0
	m.state = stateRunning
	m.input.Blur()
	return tea.Batch(job.listen(), m.spinner.Tick)
}

func (m *Model) finishFile(msg fileDoneMsg) tea.Cmd {
	m.job = nil
	m.state = stateMenu

	switch {
	case msg.err == nil:
		m.percent = 100
		return m.setStatus(fmt.Sprintf("Wrote %s (%d bytes)", msg.outPath, msg.stats.BytesWritten), false)
	case errors.Is(msg.err, transcode.ErrCancelled) && !errors.Is(msg.err, context.DeadlineExceeded):
		return m.setStatus("Cancelled", false)
	default:
		m.log.Warn("file transcode failed", "error", msg.err)
		return m.setStatus(errorText(msg.err), true)
	}
}

// errorText prefers the user-facing message and falls back to the raw error.
func errorText(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
