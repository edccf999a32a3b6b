package footer

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mahlburgc/serialmon/internal/styles"
)

const helpText = " | ctrl+o: help · ctrl+x: open/close · ctrl+p: use port · ctrl+b: baud · tab/enter: filter"

type Model struct {
	width int
}

func New() Model {
	return Model{}
}

func (m *Model) SetWidth(w int) {
	m.width = w
}

// View renders the connection status followed by the key hints.
func (m Model) View(status string) string {
	return lipgloss.NewStyle().MaxWidth(m.width).Render(" " + status + styles.FooterStyle.Render(helpText))
}
