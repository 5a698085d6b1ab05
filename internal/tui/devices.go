// Package tui implements the interactive device browser used by the
// list command, mainly for diagnosing which endpoint the loopback
// resolver will pick.
package tui

import (
	"fmt"
	"strings"

	"spectra/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	apiStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Bold(true)

	loopbackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EE6FF8"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// deviceRow is one selectable line: a capture device with its API.
type deviceRow struct {
	api string
	dev *audio.Device
}

// BrowserModel is the Bubble Tea model for browsing capture devices.
type BrowserModel struct {
	provider audio.Provider
	resolved *audio.Device // what the resolver would pick, nil if none

	apis          []audio.HostAPI
	rows          []deviceRow
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
}

// NewBrowser creates a browser model backed by the given provider.
func NewBrowser(provider audio.Provider) BrowserModel {
	return BrowserModel{provider: provider}
}

type apisMsg struct {
	apis     []audio.HostAPI
	resolved *audio.Device
}

type errMsg struct {
	err error
}

// Init kicks off device enumeration.
func (m BrowserModel) Init() tea.Cmd {
	return m.fetch
}

func (m BrowserModel) fetch() tea.Msg {
	apis, err := m.provider.HostAPIs()
	if err != nil {
		return errMsg{err}
	}
	resolved, err := audio.Resolve(m.provider)
	if err != nil {
		return errMsg{err}
	}
	return apisMsg{apis: apis, resolved: resolved}
}

// Update handles input and refreshes the view content.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
			if len(m.rows) > 0 {
				m.viewport.SetContent(m.renderDevices())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case apisMsg:
		m.apis = msg.apis
		m.resolved = msg.resolved
		m.rows = m.rows[:0]
		for _, api := range m.apis {
			for _, dev := range api.Devices {
				m.rows = append(m.rows, deviceRow{api: api.Name, dev: dev})
			}
		}
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"))):
			return m, tea.Quit
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if m.selectedIndex > 0 {
				m.selectedIndex--
				m.viewport.SetContent(m.renderDevices())
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if m.selectedIndex < len(m.rows)-1 {
				m.selectedIndex++
				m.viewport.SetContent(m.renderDevices())
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the title, the device list, and a key hint footer.
func (m BrowserModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error enumerating devices: %v\n\nPress q to quit.\n", m.err)
	}
	if !m.ready {
		return "Scanning audio devices...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Capture Devices"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ move · q quit"))
	return b.String()
}

func (m BrowserModel) renderDevices() string {
	var b strings.Builder
	row := 0
	for _, api := range m.apis {
		b.WriteString(apiStyle.Render(api.Name))
		if api.DefaultOutput != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  (default output: %s)", api.DefaultOutput.Name)))
		}
		b.WriteString("\n")

		for _, dev := range api.Devices {
			cursor := "  "
			if row == m.selectedIndex {
				cursor = "> "
			}

			line := fmt.Sprintf("%s[%d] %s", cursor, dev.ID, dev.Name)
			switch {
			case m.resolved != nil && dev.ID == m.resolved.ID:
				line = loopbackStyle.Render(line + "  ← resolver pick")
			case dev.Loopback:
				line = loopbackStyle.Render(line + "  [loopback]")
			case row == m.selectedIndex:
				line = selectedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(fmt.Sprintf("      channels: %d, rate: %.0f Hz",
				dev.Channels, dev.SampleRate)))
			b.WriteString("\n")
			row++
		}
		b.WriteString("\n")
	}

	if row == 0 {
		b.WriteString(dimStyle.Render("No input-capable devices found.\n"))
	}
	return b.String()
}

// Browse runs the interactive device browser until the user quits.
func Browse(provider audio.Provider) error {
	program := tea.NewProgram(NewBrowser(provider), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
