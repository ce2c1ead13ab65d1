package application

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/beb64/internal/sniff"
)

func (m *Model) View() string {
	var b strings.Builder

	switch m.state {
	case stateMenu:
		m.viewMenu(&b)
	case statePrompt:
		m.viewPrompt(&b)
	case stateRunning:
		m.viewRunning(&b)
	case stateResult:
		m.viewResult(&b)
	}

	b.WriteString("\n")
	if m.status != "" {
		style := m.styles.ok
		if m.statusErr {
			style = m.styles.bad
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) viewMenu(b *strings.Builder) {
	b.WriteString(m.styles.title.Render(m.menu.Title))
	b.WriteString("\n")
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(m.styles.selected.Render("> " + item.Label))
		} else {
			b.WriteString(m.styles.item.Render("  " + item.Label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render(fmt.Sprintf(
		"↑/↓ move · enter select · esc back · t theme (%s) · q quit · mode: %s", m.theme, m.mode)))
}

func (m *Model) viewPrompt(b *strings.Builder) {
	b.WriteString(m.styles.title.Render(m.action.title()))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.action == actionDecodeText && m.valid.checked {
		switch {
		case !m.valid.base64:
			b.WriteString(m.styles.bad.Render("✗ not valid Base64"))
		case m.valid.text:
			b.WriteString(m.styles.ok.Render("✓ valid Base64 text"))
		default:
			b.WriteString(m.styles.bad.Render("✓ valid Base64, but not UTF-8 text"))
		}
		b.WriteString("\n")
	}

	if m.action.isFile() {
		if path := strings.TrimSpace(m.input.Value()); path != "" {
			b.WriteString(m.styles.help.Render(sniff.FriendlyType(path)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("enter run · esc back"))
}

func (m *Model) viewRunning(b *strings.Builder) {
	b.WriteString(m.styles.title.Render(m.action.title()))
	b.WriteString("\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.progress.ViewAs(m.percent / 100))
	b.WriteString("\n\n")
	b.WriteString(m.styles.help.Render("c cancel"))
}

func (m *Model) viewResult(b *strings.Builder) {
	b.WriteString(m.styles.title.Render(m.action.title()))
	b.WriteString("\n")
	out := m.output
	if m.action == actionEncodeText {
		out = sniff.Preview(out)
	}
	b.WriteString(m.styles.output.Render(out))
	b.WriteString("\n\n")
	b.WriteString(m.styles.help.Render("enter back"))
}
