package framelog

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hdlclink/packet"
)

// maxLines bounds the history kept regardless of window height.
const maxLines = 500

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

type line struct {
	text string
	err  bool
}

// Model is the scrolling log of frames and frame errors.
type Model struct {
	width  int
	height int
	lines  []line // newest first
}

// New creates a new frame log model
func New() Model {
	return Model{
		width:  80,
		height: 10,
		lines:  make([]line, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case *packet.Packet:
		m.lines = append([]line{format(msg)}, m.lines...)
		if len(m.lines) > maxLines {
			m.lines = m.lines[:maxLines]
		}
	}
	return m, nil
}

// format renders one packet, e.g.
// 12:04:05 frame  5B 68656c6c6f |hello|
func format(p *packet.Packet) line {
	ts := p.Received.Format("15:04:05")
	if p.OK() {
		return line{text: fmt.Sprintf("%s frame %3dB %s |%s|", ts, len(p.Payload), p.Hex(), Printable(p.Payload))}
	}
	return line{text: fmt.Sprintf("%s error %v %s", ts, p.Err, p.Hex()), err: true}
}

// Printable replaces non-printable bytes with '.'.
func Printable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c < 0x7F {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// Len reports how many lines are kept.
func (m Model) Len() int {
	return len(m.lines)
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).   // -2 for border
		Height(m.height - 2). // -2 for border
		Padding(0, 1)

	contentWidth := m.width - 2 - 2 // -border, -padding
	if contentWidth < 0 {
		contentWidth = 0
	}
	rows := m.height - 2
	if rows < 0 {
		rows = 0
	}

	// Oldest visible line at the top, newest at the bottom.
	visible := m.lines
	if len(visible) > rows {
		visible = visible[:rows]
	}

	var b strings.Builder
	for i := len(visible) - 1; i >= 0; i-- {
		l := visible[i]
		text := l.text
		if len(text) > contentWidth {
			text = text[:contentWidth]
		}
		if l.err {
			text = errorStyle.Render(text)
		}
		b.WriteString(text)
		if i > 0 {
			b.WriteRune('\n')
		}
	}

	return style.Render(b.String())
}
