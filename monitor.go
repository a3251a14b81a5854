package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hdlclink/device/link"
	"hdlclink/logging"
	"hdlclink/packet"
	"hdlclink/ui/footer"
	"hdlclink/ui/framelog"
	"hdlclink/ui/header"
	"hdlclink/ui/stats"
)

// --- Constants for Layout ---
const (
	statsWidth   = 24
	headerHeight = 1
	footerHeight = 1
)

// model holds the monitor's state
type model struct {
	width  int
	height int

	headerModel   header.Model
	framelogModel framelog.Model
	statsModel    stats.Model
	footerModel   footer.Model

	packetChan <-chan *packet.Packet

	err error
}

func initialModel(device string, pChan <-chan *packet.Packet) model {
	return model{
		width:         80,
		height:        24,
		headerModel:   header.New(device),
		framelogModel: framelog.New(),
		statsModel:    stats.New(),
		footerModel:   footer.New(),
		packetChan:    pChan,
	}
}

// listenForPackets is a tea.Cmd that waits for the next packet
func (m model) listenForPackets() tea.Cmd {
	return func() tea.Msg {
		return <-m.packetChan
	}
}

func (m model) Init() tea.Cmd {
	return m.listenForPackets()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
		return m, nil
	}

	var (
		headerCmd   tea.Cmd
		framelogCmd tea.Cmd
		statsCmd    tea.Cmd
		footerCmd   tea.Cmd
		cmds        []tea.Cmd
	)

	switch msg := msg.(type) {
	case *packet.Packet:
		m.framelogModel, framelogCmd = m.framelogModel.Update(msg)
		m.statsModel, statsCmd = m.statsModel.Update(msg)
		m.footerModel, footerCmd = m.footerModel.Update(msg)
		cmds = append(cmds, framelogCmd, statsCmd, footerCmd)

		// The reader stops consuming after a transport failure.
		if link.IsTransportError(msg.Err) {
			m.err = msg.Err
			return m, tea.Batch(cmds...)
		}
		cmds = append(cmds, m.listenForPackets())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		mainHeight := m.height - headerHeight - footerHeight
		if mainHeight < 1 {
			mainHeight = 1
		}
		logWidth := m.width - statsWidth
		if logWidth < 1 {
			logWidth = 1
		}

		m.headerModel, headerCmd = m.headerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: headerHeight})
		m.statsModel, statsCmd = m.statsModel.Update(tea.WindowSizeMsg{Width: statsWidth, Height: mainHeight})
		m.framelogModel, framelogCmd = m.framelogModel.Update(tea.WindowSizeMsg{Width: logWidth, Height: mainHeight})
		m.footerModel, footerCmd = m.footerModel.Update(tea.WindowSizeMsg{Width: m.width, Height: footerHeight})

		cmds = append(cmds, headerCmd, statsCmd, framelogCmd, footerCmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Border(lipgloss.DoubleBorder(), true).
			BorderForeground(lipgloss.Color("9")).
			Padding(1).
			Align(lipgloss.Center, lipgloss.Center)
		return errorStyle.Render(
			"Link error:\n\n" + m.err.Error() +
				"\n\nPress any key to quit.",
		)
	}

	middle := lipgloss.JoinHorizontal(lipgloss.Top,
		m.statsModel.View(),
		m.framelogModel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerModel.View(),
		middle,
		m.footerModel.View(),
	)
}

func newMonitorCmd(a *app) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Show received frames and errors live",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal, so logs go to a file or nowhere.
			logger := logging.Nop()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logger = logging.InitWriter(f, appName, a.conf.Log.Level, false)
			}
			return monitor(a, logger)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the monitor runs")
	return cmd
}

func monitor(a *app, logger zerolog.Logger) error {
	l, err := a.open(logger)
	if err != nil {
		return err
	}
	// Close also stops the reader, even one blocked on a packet the
	// program will never take.
	defer l.Close()

	packetChan := make(chan *packet.Packet)
	if err := l.StartReader(packetChan); err != nil {
		return err
	}

	p := tea.NewProgram(initialModel(a.conf.Link.Device, packetChan), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
