package header

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the header's state
type Model struct {
	width  int
	device string
}

// New creates a new header model for the named device
func New(device string) Model {
	return Model{
		width:  80, // Default width, will be updated
		device: device,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m Model) View() string {
	title := "hdlclink"
	if m.device != "" {
		title += " - " + m.device
	}

	style := lipgloss.NewStyle().
		Bold(true).
		Background(lipgloss.Color("63")).  // Purple background
		Foreground(lipgloss.Color("255")). // White text
		Width(m.width).
		Align(lipgloss.Center)

	return style.Render(title)
}
