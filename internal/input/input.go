// Package input holds the filter text fields: live include, live exclude and
// history search.
package input

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/keymap"
	"github.com/mahlburgc/serialmon/internal/styles"
)

const (
	Include = iota
	Exclude
	History
	fieldCount
)

type Model struct {
	fields [fieldCount]textinput.Model
	focus  int
}

// New creates the filter fields with their initial texts.
func New(include, exclude, history string) (m Model) {
	m.fields[Include] = newField("show: ", "a;b shows lines with a or b", include)
	m.fields[Exclude] = newField("hide: ", "c;d hides lines with c or d", exclude)
	m.fields[History] = newField("search: ", "search all received lines", history)
	m.fields[History].PromptStyle = styles.FocusedSearchPromtStyle
	m.fields[Include].Focus()
	return m
}

func newField(prompt, placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Cursor.Style = styles.CursorStyle
	ti.PromptStyle = styles.FocusedPromtStyle
	ti.PlaceholderStyle = styles.FocusedPlaceholderStyle
	ti.SetValue(value)

	// Free the bindings used for log navigation and actions.
	ti.KeyMap.CharacterBackward = key.NewBinding(key.WithKeys("left"))
	ti.KeyMap.WordForward = key.NewBinding(key.WithKeys("alt+right", "alt+f"))
	ti.KeyMap.WordBackward = key.NewBinding(key.WithKeys("alt+left", "alt+b"))
	ti.KeyMap.LineStart.SetEnabled(false)
	ti.KeyMap.LineEnd.SetEnabled(false)
	ti.KeyMap.DeleteAfterCursor.SetEnabled(false)
	ti.KeyMap.NextSuggestion.SetEnabled(false)
	ti.KeyMap.PrevSuggestion.SetEnabled(false)
	return ti
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keymap.Default.NextInputKey):
			return m, m.focusField((m.focus + 1) % fieldCount)

		case key.Matches(msg, keymap.Default.ApplyFilterKey):
			return m, m.applyCmd()

		case key.Matches(msg, keymap.Default.LogUpKey, keymap.Default.LogDownKey,
			keymap.Default.LogLeftKey, keymap.Default.LogRightKey):
			// alt bindings would otherwise be typed as text
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	views := make([]string, fieldCount)
	for i, f := range m.fields {
		style := styles.BlurredBorderStyle
		if i == m.focus {
			style = styles.FocusedBorderStyle
		}
		views[i] = style.Render(f.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// SetWidth splits the available width evenly between the fields.
func (m *Model) SetWidth(width int) {
	frame := styles.FocusedBorderStyle.GetHorizontalFrameSize()
	each := width / fieldCount
	for i := range m.fields {
		w := each
		if i == fieldCount-1 {
			w = width - each*(fieldCount-1)
		}
		// textinput.Width excludes the prompt and needs one cell for the cursor
		m.fields[i].Width = max(1, w-frame-lipgloss.Width(m.fields[i].Prompt)-1)
	}
}

// Height returns the rendered height of the fields.
func (m Model) Height() int {
	return 1 + styles.FocusedBorderStyle.GetVerticalFrameSize()
}

func (m Model) Value(field int) string {
	return m.fields[field].Value()
}

func (m Model) Focused() int {
	return m.focus
}

func (m *Model) focusField(i int) tea.Cmd {
	m.fields[m.focus].Blur()
	m.fields[m.focus].PromptStyle = styles.BlurredPromtStyle
	m.focus = i
	if i == History {
		m.fields[i].PromptStyle = styles.FocusedSearchPromtStyle
	} else {
		m.fields[i].PromptStyle = styles.FocusedPromtStyle
	}
	return m.fields[i].Focus()
}

// applyCmd publishes the filter of the focused field.
func (m Model) applyCmd() tea.Cmd {
	if m.focus == History {
		history := m.fields[History].Value()
		return func() tea.Msg {
			return events.HistoryFilterMsg(history)
		}
	}
	include, exclude := m.fields[Include].Value(), m.fields[Exclude].Value()
	return func() tea.Msg {
		return events.LiveFilterMsg{Include: include, Exclude: exclude}
	}
}
