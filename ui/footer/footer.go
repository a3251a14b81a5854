package footer

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hdlclink/packet"
)

// Model shows the last event and the key hints.
type Model struct {
	width int
	last  string
}

func New() Model {
	return Model{width: 80, last: "waiting for frames"}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case *packet.Packet:
		if msg.OK() {
			m.last = fmt.Sprintf("last frame %s (%d bytes)", msg.Received.Format("15:04:05"), len(msg.Payload))
		} else {
			m.last = fmt.Sprintf("last error %s: %v", msg.Received.Format("15:04:05"), msg.Err)
		}
	}
	return m, nil
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Width(m.width)

	return style.Render(fmt.Sprintf("%s  |  q: quit", m.last))
}
