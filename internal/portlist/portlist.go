// Package portlist shows the present serial devices and lets the user pick
// the target port and baud rate.
package portlist

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/keymap"
	"github.com/mahlburgc/serialmon/internal/serialport"
	"github.com/mahlburgc/serialmon/internal/styles"
)

const zonePrefix = "port-"

type Model struct {
	Vp     viewport.Model
	ports  []string
	target string
	index  int
	bauds  []string
	baud   string
}

// New creates a port list with the configured target port and baud rates.
func New(target string, bauds []string, baud string) (m Model) {
	m.Vp = viewport.New(30, 5)
	m.target = target
	m.bauds = bauds
	m.baud = baud
	m.index = m.indexOf(target)
	m.refresh()
	return m
}

// Entries is the sorted union of present ports and the target port. It holds
// the placeholder when there is nothing to show.
func (m Model) Entries() []string {
	entries := slices.Clone(m.ports)
	if m.target != "" && !slices.Contains(entries, m.target) {
		entries = append(entries, m.target)
	}
	if len(entries) == 0 {
		return []string{serialport.Placeholder}
	}
	slices.Sort(entries)
	return entries
}

// Highlighted returns the entry under the cursor.
func (m Model) Highlighted() string {
	entries := m.Entries()
	return entries[min(m.index, len(entries)-1)]
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case events.PortsChangedMsg:
		current := m.Highlighted()
		m.ports = msg.Ports
		m.index = m.indexOf(current)

	case events.ConnectionStatusMsg:
		m.target = msg.Port
		m.baud = msg.BaudRate

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keymap.Default.PortUpKey):
			if m.index > 0 {
				m.index--
			}

		case key.Matches(msg, keymap.Default.PortDownKey):
			if m.index < len(m.Entries())-1 {
				m.index++
			}

		case key.Matches(msg, keymap.Default.SelectPortKey):
			return m, m.selectCmd(m.Highlighted())

		case key.Matches(msg, keymap.Default.NextBaudKey):
			return m, m.nextBaudCmd()

		default:
			return m, nil
		}

	case tea.MouseMsg:
		if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionRelease {
			return m, nil
		}
		for i, port := range m.Entries() {
			if zone.Get(zonePrefix + strconv.Itoa(i)).InBounds(msg) {
				m.index = i
				m.refresh()
				return m, m.selectCmd(port)
			}
		}
		return m, nil

	default:
		return m, nil
	}

	m.refresh()
	return m, nil
}

func (m Model) View() string {
	return styles.AddBorder(m.Vp, "Ports", m.baud+" baud", false)
}

func (m *Model) SetSize(width, height int) {
	borderWidth, borderHeight := styles.BorderStyle.GetFrameSize()
	m.Vp.Width = width - borderWidth
	m.Vp.Height = height - borderHeight
	m.refresh()
}

func (m Model) indexOf(port string) int {
	if i := slices.Index(m.Entries(), port); i >= 0 {
		return i
	}
	return 0
}

func (m Model) selectCmd(port string) tea.Cmd {
	if port == serialport.Placeholder {
		return nil
	}
	return func() tea.Msg {
		return events.PortSelectedMsg(port)
	}
}

// nextBaudCmd selects the baud rate following the current one.
func (m Model) nextBaudCmd() tea.Cmd {
	if len(m.bauds) == 0 {
		return nil
	}
	next := m.bauds[0]
	if i := slices.Index(m.bauds, m.baud); i >= 0 {
		next = m.bauds[(i+1)%len(m.bauds)]
	}
	return func() tea.Msg {
		return events.BaudSelectedMsg(next)
	}
}

func (m *Model) refresh() {
	entries := m.Entries()
	m.index = min(m.index, len(entries)-1)

	lines := make([]string, len(entries))
	for i, port := range entries {
		line := port
		switch {
		case port == m.target && !slices.Contains(m.ports, port):
			line = styles.MissingPortStyle.Render(port + " (disconnected)")
		case port == m.target:
			line = styles.TargetPortStyle.Render(port)
		}
		if i == m.index {
			line = styles.SelectedPortStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		lines[i] = zone.Mark(zonePrefix+strconv.Itoa(i), line)
	}

	m.Vp.SetContent(lipgloss.NewStyle().Render(strings.Join(lines, "\n")))

	// keep the cursor in view
	if m.index < m.Vp.YOffset {
		m.Vp.SetYOffset(m.index)
	} else if m.Vp.Height > 0 && m.index >= m.Vp.YOffset+m.Vp.Height {
		m.Vp.SetYOffset(m.index - m.Vp.Height + 1)
	}
}
