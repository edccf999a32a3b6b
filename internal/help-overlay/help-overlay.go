package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mahlburgc/serialmon/internal/keymap"
	"github.com/mahlburgc/serialmon/internal/styles"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

type Model struct {
	width  int
	height int
	help   help.Model
}

func New() (m Model) {
	m.help = help.New()
	m.help.ShowAll = true
	m.help.Styles.FullKey = styles.HelpKey
	m.help.Styles.FullDesc = styles.HelpDesc
	m.help.Styles.FullSeparator = styles.HelpSep
	return m
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m Model) View() string {
	boldStyle := lipgloss.NewStyle().Bold(true)
	title := boldStyle.Render("serialmon keybindings\n")
	m.help.Width = m.width
	layout := lipgloss.JoinVertical(lipgloss.Left, title, m.help.View(keymap.Default))

	return styles.HelpOverlayBorderStyle.Render(layout)
}

// Render draws the help centered on top of background.
func (m Model) Render(background string) string {
	return overlay.New(static(m.View()), static(background), overlay.Center, overlay.Center, 0, 0).View()
}

// static adapts an already rendered view to tea.Model.
type static string

func (s static) Init() tea.Cmd                       { return nil }
func (s static) Update(tea.Msg) (tea.Model, tea.Cmd) { return s, nil }
func (s static) View() string                        { return string(s) }
