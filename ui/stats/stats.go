package stats

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hdlclink/device/link"
	"hdlclink/hdlc"
	"hdlclink/packet"
)

// Counters tallies link results by class.
type Counters struct {
	Frames    int
	Bytes     int
	Checksum  int
	Framing   int
	Oversize  int
	Transport int
	Other     int
}

// Add counts one packet.
func (c *Counters) Add(p *packet.Packet) {
	if p.OK() {
		c.Frames++
		c.Bytes += len(p.Payload)
		return
	}
	switch {
	case errors.Is(p.Err, hdlc.ErrChecksum):
		c.Checksum++
	case errors.Is(p.Err, hdlc.ErrFraming):
		c.Framing++
	case errors.Is(p.Err, hdlc.ErrOversize):
		c.Oversize++
	case errors.Is(p.Err, link.ErrTransport):
		c.Transport++
	default:
		c.Other++
	}
}

// Errors is the total of all error classes.
func (c Counters) Errors() int {
	return c.Checksum + c.Framing + c.Oversize + c.Transport + c.Other
}

// Model holds the stats panel state
type Model struct {
	width    int
	height   int
	counters Counters
}

// New creates a new stats model
func New() Model {
	return Model{
		width:  24, // Default
		height: 12, // Default
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Counters() Counters {
	return m.counters
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case *packet.Packet:
		m.counters.Add(msg)
	}
	return m, nil
}

func (m Model) View() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(m.width - 2).   // -2 for border
		Height(m.height - 2). // -2 for border
		Padding(0, 1)

	header := lipgloss.NewStyle().
		Bold(true).
		Underline(true).
		Width(m.width - 2 - 2). // -2 border, -2 padding
		Render("Link Stats")

	c := m.counters
	rows := []string{
		fmt.Sprintf("frames    %d", c.Frames),
		fmt.Sprintf("bytes     %d", c.Bytes),
		fmt.Sprintf("errors    %d", c.Errors()),
		fmt.Sprintf(" crc      %d", c.Checksum),
		fmt.Sprintf(" framing  %d", c.Framing),
		fmt.Sprintf(" oversize %d", c.Oversize),
		fmt.Sprintf(" link     %d", c.Transport),
	}

	contentHeight := (m.height - 2) - 1
	if contentHeight < 0 {
		contentHeight = 0
	}
	if len(rows) > contentHeight {
		rows = rows[:contentHeight]
	}

	var b strings.Builder
	b.WriteString(header)
	if len(rows) > 0 {
		b.WriteRune('\n')
		b.WriteString(strings.Join(rows, "\n"))
	}
	return style.Render(b.String())
}
