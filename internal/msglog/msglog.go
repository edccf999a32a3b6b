package msglog

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	"github.com/icza/gox/stringsx"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/config"
	"github.com/mahlburgc/serialmon/internal/keymap"
	"github.com/mahlburgc/serialmon/internal/record"
	"github.com/mahlburgc/serialmon/internal/styles"
)

type Model struct {
	Vp            viewport.Model
	errStyle      lipgloss.Style
	infoStyle     lipgloss.Style
	store         record.Store
	filter        record.Filter
	history       string
	display       []string
	showTimestamp bool
	showEscapes   bool
	errPrefix     string
	infoPrefix    string
	saveDir       string
	saveFormat    string
	scrollIndex   int
	needsUpdate   bool
}

// This message is sent when the editor is closed.
type EditorFinishedMsg struct {
	err error
}

// New creates a new model with default settings.
func New(showTimestamp bool, showEscapes bool, saveDir string, saveFormat string) (m Model) {
	// Serial viewport contains all displayed messages.
	// We will create a viewport without border and later manually
	// add the border to inject a title into the border.
	m.Vp = viewport.New(30, 5)
	m.Vp.SetContent(`Welcome to serialmon!`)
	m.Vp.Style = lipgloss.NewStyle()
	// Disable the viewport's default up/down key handling so it doesn't scroll
	// when we are navigating through the port list.
	m.Vp.KeyMap.Up.SetEnabled(false)
	m.Vp.KeyMap.Down.SetEnabled(false)
	m.Vp.KeyMap.PageUp.SetEnabled(false)
	m.Vp.KeyMap.PageDown.SetEnabled(false)

	m.display = []string{}
	m.errPrefix = "--- [error] "
	m.infoPrefix = "--- [system] "
	m.showTimestamp = showTimestamp
	m.showEscapes = showEscapes
	m.saveDir = saveDir
	m.saveFormat = saveFormat

	m.errStyle = styles.ErrMsgStyle
	m.infoStyle = styles.InfoMsgStyle

	return m
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	// viewport will be managed completely manually,
	// so viewports update function will not be called.
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case events.SerialRxMsg:
		m.addRecord(msg.Line)

	case events.LiveFilterMsg:
		m.filter = record.ParseFilter(msg.Include, msg.Exclude)
		log.Printf("live filter: include %q exclude %q", m.filter.Include, m.filter.Exclude)
		m.addBanner(m.filter.String(), m.infoPrefix, m.infoStyle)

	case events.HistoryFilterMsg:
		m.RenderHistory(strings.TrimSpace(string(msg)))

	case events.ErrMsg:
		if msg.Err != nil {
			m.addBanner(msg.Error(), m.errPrefix, m.errStyle)
		}

	case events.InfoMsg:
		m.addBanner(string(msg), m.infoPrefix, m.infoStyle)

	case EditorFinishedMsg:
		if msg.err != nil {
			m.addBanner(msg.err.Error(), m.errPrefix, m.errStyle)
		}

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollUp(1)

		case tea.MouseButtonWheelDown:
			m.scrollDown(1)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keymap.Default.LogLeftKey):
			m.Vp.ScrollLeft(3)

		case key.Matches(msg, keymap.Default.LogRightKey):
			m.Vp.ScrollRight(3)

		case key.Matches(msg, keymap.Default.LogUpKey):
			m.scrollUp(1)

		case key.Matches(msg, keymap.Default.LogDownKey):
			m.scrollDown(1)

		case key.Matches(msg, keymap.Default.LogUpFastKey):
			m.scrollUp(10)

		case key.Matches(msg, keymap.Default.LogDownFastKey):
			m.scrollDown(10)

		case key.Matches(msg, keymap.Default.LogTopKey):
			m.scrollToTop()

		case key.Matches(msg, keymap.Default.LogBottomKey):
			m.scrollToBottom()

		case key.Matches(msg, keymap.Default.OpenEditorKey):
			cmd = openEditorCmd(m.Visible())

		case key.Matches(msg, keymap.Default.SaveVisibleKey):
			cmd = m.saveCmd(true)

		case key.Matches(msg, keymap.Default.SaveAllKey):
			cmd = m.saveCmd(false)

		case key.Matches(msg, keymap.Default.CopyKey):
			cmd = copyCmd(m.Visible())

		case key.Matches(msg, keymap.Default.ClearLogKey):
			m.Clear()
		}

	default:
		return m, nil
	}

	if m.needsUpdate {
		m.needsUpdate = false
		m.UpdateVp()
	}

	return m, cmd
}

func (m Model) View() string {
	// mark scroll percentage if we are not at bottom
	// also, if we are not at bottom but at 100 percent scroll
	// map 100 percent to 99 percent for better user experience
	borderStyle := lipgloss.NewStyle().Foreground(styles.AdaptiveBorderColor)
	var percentRenderStyle lipgloss.Style
	scrollPercentage := m.GetScrollPercent()
	if m.atBottom() {
		percentRenderStyle = borderStyle
	} else {
		percentRenderStyle = styles.PercentRenderStyle
	}

	scrollPercentageString := percentRenderStyle.Render(fmt.Sprintf("%3d%%", int(scrollPercentage)))

	footer := borderStyle.Render(fmt.Sprintf("%d/%d ", len(m.display), m.store.Len())) + scrollPercentageString

	title := "Messages"
	if m.history != "" {
		title += " [history: " + m.history + "]"
	}
	return styles.AddBorder(m.Vp, title, footer, true)
}

func (m *Model) SetSize(width, height int) {
	borderWidth, borderHeight := styles.BorderStyle.GetFrameSize()

	m.Vp.Width = width - borderWidth
	m.Vp.Height = height - borderHeight

	m.scrollIndex = 0

	m.needsUpdate = true
	m.UpdateVp()
}

// Store gives read access to the record store.
func (m *Model) Store() *record.Store {
	return &m.store
}

// Filter returns the live filter in effect.
func (m Model) Filter() record.Filter {
	return m.filter
}

// Visible returns the displayed lines without styling.
func (m Model) Visible() []string {
	lines := make([]string, len(m.display))
	for i, l := range m.display {
		lines[i] = stripansi.Strip(l)
	}
	return lines
}

// Clear drops all records and the display.
func (m *Model) Clear() {
	m.store.Clear()
	m.display = nil
	m.scrollIndex = 0
	m.Vp.SetContent("")
	m.needsUpdate = true
	log.Println("all data cleared by user")
}

// addRecord stores a received line and shows it if it passes the live filter
// and the applied history filter.
func (m *Model) addRecord(line string) {
	r := m.store.Append(line)

	if !m.filter.Match(r.Text) {
		return
	}
	if m.history != "" && !strings.Contains(r.Text, m.history) {
		return
	}

	atBottom := m.atBottom()
	m.display = append(m.display, m.highlight(m.formatRecord(r)))
	m.needsUpdate = true

	// keep the view still if we scrolled up in the message history
	if !atBottom {
		m.scrollUp(1)
	}
}

// RenderHistory replaces the display with all stored records containing
// substr. The store and the live filter are left untouched.
func (m *Model) RenderHistory(substr string) {
	m.history = substr
	log.Printf("history filter: %q", substr)

	records := m.store.Render(substr)
	m.display = make([]string, 0, len(records))
	for _, r := range records {
		m.display = append(m.display, m.highlight(m.formatRecord(r)))
	}
	m.scrollIndex = 0
	m.needsUpdate = true
}

func (m *Model) addBanner(text string, prefix string, style lipgloss.Style) {
	var line strings.Builder
	if m.showTimestamp {
		line.WriteString(fmt.Sprintf("[%s] ", time.Now().Format("15:04:05.000")))
	}
	line.WriteString(prefix)
	line.WriteString(text)
	line.WriteString(" ---")

	m.display = append(m.display, style.Render(line.String()))
	// always reset vp to bottom on info or error messages
	m.needsUpdate = true
	m.scrollToBottom()
}

func (m *Model) formatRecord(r record.Record) string {
	var line strings.Builder
	if m.showTimestamp {
		line.WriteString(fmt.Sprintf("[%s] ", r.Time.Format("15:04:05.000")))
	}
	if m.showEscapes {
		// also print escape characters
		line.WriteString(fmt.Sprintf("%q", r.Text))
	} else {
		line.WriteString(stringsx.Clean(r.Text))
	}
	return line.String()
}

func (m *Model) highlight(line string) string {
	if m.history == "" {
		return line
	}
	return strings.ReplaceAll(line, m.history, styles.SearchHighlightStyle.Render(m.history))
}

func (m *Model) scrollUp(n int) {
	if m.atTop() {
		return
	}

	if m.maxScrollIndex()-m.scrollIndex > n {
		m.scrollIndex = m.scrollIndex + n
	} else {
		m.scrollIndex = m.maxScrollIndex()
	}

	m.needsUpdate = true
}

func (m *Model) maxScrollIndex() int {
	return len(m.display) - m.Vp.Height
}

func (m *Model) scrollToTop() {
	if m.atTop() {
		return
	}

	m.scrollIndex = m.maxScrollIndex()

	m.needsUpdate = true
}

func (m *Model) scrollToBottom() {
	if m.atBottom() {
		return
	}

	m.scrollIndex = 0

	m.needsUpdate = true
}

func (m *Model) scrollDown(n int) {
	if m.atBottom() {
		return
	}

	if m.scrollIndex-n > 0 {
		m.scrollIndex = m.scrollIndex - n
	} else {
		m.scrollIndex = 0
	}

	m.needsUpdate = true
}

func (m *Model) atTop() bool {
	if len(m.display) > m.Vp.Height {
		return m.scrollIndex == m.maxScrollIndex()
	}
	return true
}

func (m *Model) atBottom() bool {
	if len(m.display) > m.Vp.Height {
		return m.scrollIndex == 0
	}
	return true
}

func (m *Model) UpdateVp() {
	if m.Vp.Height <= 0 {
		return
	}

	startIndex := m.getFirstViewableElementIndex()
	stopIndex := m.getLastViewableElementIndex()
	content := strings.Join(m.display[startIndex:stopIndex], "\n")
	m.Vp.SetContent(content)
}

func (m *Model) contentFitsInVp() bool {
	return len(m.display) <= m.Vp.Height
}

func (m *Model) getFirstViewableElementIndex() int {
	if m.contentFitsInVp() {
		return 0
	}
	return m.maxScrollIndex() - m.scrollIndex
}

func (m *Model) getLastViewableElementIndex() int {
	if m.contentFitsInVp() {
		return len(m.display)
	}
	return len(m.display) - m.scrollIndex
}

func (m Model) GetScrollPercent() float64 {
	if m.atBottom() {
		return 100
	}

	return 100 - (float64(m.scrollIndex) * 100 / float64(m.maxScrollIndex()))
}

// saveCmd writes either the visible lines or all records to a timestamped
// file in the save directory.
func (m Model) saveCmd(visible bool) tea.Cmd {
	prefix := "all_"
	var content []byte
	var err error
	var n int

	if visible {
		prefix = "visible_"
		lines := m.Visible()
		n = len(lines)
		content, err = encodeLines(lines, m.saveFormat)
	} else {
		records := m.store.Render("")
		n = len(records)
		content, err = encodeRecords(records, m.saveFormat)
	}

	dir, format := m.saveDir, m.saveFormat
	return func() tea.Msg {
		if n == 0 {
			return events.InfoMsg("no data to save")
		}
		if err != nil {
			return events.ErrMsg{Err: err}
		}
		path, err := writeExport(dir, prefix, format, content, time.Now())
		if err != nil {
			log.Printf("save failed: %v", err)
			return events.ErrMsg{Err: fmt.Errorf("save failed: %w", err)}
		}
		log.Printf("saved %d lines to %s", n, path)
		return events.InfoMsg(fmt.Sprintf("saved %d lines to %s", n, path))
	}
}

func encodeLines(lines []string, format string) ([]byte, error) {
	if format == config.FormatJSON {
		return json.MarshalIndent(lines, "", "  ")
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

func encodeRecords(records []record.Record, format string) ([]byte, error) {
	if format == config.FormatJSON {
		return json.MarshalIndent(records, "", "  ")
	}
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

func writeExport(dir, prefix, format string, content []byte, now time.Time) (string, error) {
	ext := ".txt"
	if format == config.FormatJSON {
		ext = ".json"
	}
	name := "serial_data_" + prefix + now.Format("20060102_150405") + ext
	path := filepath.Join(dir, name)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func copyCmd(lines []string) tea.Cmd {
	return func() tea.Msg {
		if len(lines) == 0 {
			return events.InfoMsg("nothing to copy")
		}
		if err := clipboard.WriteAll(strings.Join(lines, "\n")); err != nil {
			return events.ErrMsg{Err: fmt.Errorf("copy to clipboard: %w", err)}
		}
		return events.InfoMsg(fmt.Sprintf("copied %d lines to clipboard", len(lines)))
	}
}

// openEditorCmd creates a tea.Cmd that runs the editor.
func openEditorCmd(content []string) tea.Cmd {
	// Get the editor from the environment variable. Default to vi.
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	// Create a temporary file to store the content.
	tmpFile, err := os.CreateTemp("", "serialmon-edit-*.txt")
	if err != nil {
		return func() tea.Msg {
			return EditorFinishedMsg{err: err}
		}
	}

	if err := writeTempLines(tmpFile, content); err != nil {
		return func() tea.Msg {
			return EditorFinishedMsg{err: err}
		}
	}

	c := exec.Command(editor, tmpFile.Name())

	// tea.ExecProcess suspends the program while the editor runs.
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return EditorFinishedMsg{err: err}
		}

		// Clean up the temporary file.
		err = os.Remove(tmpFile.Name())

		return EditorFinishedMsg{err: err}
	})
}

// writeTempLines writes lines to f and closes it so the editor can access it.
// On failure f is closed and removed.
func writeTempLines(f *os.File, lines []string) error {
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			f.Close()
			os.Remove(f.Name())
			return err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
