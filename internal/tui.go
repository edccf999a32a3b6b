package internal

import (
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/config"
	"github.com/mahlburgc/serialmon/internal/footer"
	help "github.com/mahlburgc/serialmon/internal/help-overlay"
	"github.com/mahlburgc/serialmon/internal/input"
	"github.com/mahlburgc/serialmon/internal/keymap"
	"github.com/mahlburgc/serialmon/internal/msglog"
	"github.com/mahlburgc/serialmon/internal/portlist"
	"github.com/mahlburgc/serialmon/internal/scanner"
	"github.com/mahlburgc/serialmon/internal/serialport"
	"github.com/mahlburgc/serialmon/internal/session"
)

// Device access used by the program. The mock is set only in mock mode.
type Device struct {
	List serialport.Lister
	Open serialport.Opener
	Mock *serialport.MockDevice
}

type model struct {
	cfg      *config.Config
	scanner  *scanner.Scanner
	session  session.Model
	msglog   msglog.Model
	portlist portlist.Model
	input    input.Model
	footer   footer.Model
	help     help.Model
	mock     *serialport.MockDevice
	showHelp bool
	startCmd tea.Cmd
	width    int
	height   int
}

func initialModel(cfg *config.Config, flags Flags, dev Device, sc *scanner.Scanner) model {
	m := model{
		cfg:      cfg,
		scanner:  sc,
		session:  session.New(dev.Open, cfg.Port, cfg.BaudRate, cfg.Beep),
		msglog:   msglog.New(flags.Timestamp || cfg.ShowTimestamp, flags.Escapes, cfg.SaveDir, cfg.SaveFormat),
		portlist: portlist.New(cfg.Port, cfg.AvailableBaudRates, cfg.BaudRate),
		input:    input.New(cfg.IncludeFilter, cfg.ExcludeFilter, cfg.HistoryFilter),
		footer:   footer.New(),
		help:     help.New(),
		mock:     dev.Mock,
	}

	if flags.Open {
		m.startCmd = m.session.Toggle()
	}
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.scanner.WaitForUpdate(), m.startCmd}

	// apply the filters restored from the config
	if m.cfg.IncludeFilter != "" || m.cfg.ExcludeFilter != "" {
		live := events.LiveFilterMsg{Include: m.cfg.IncludeFilter, Exclude: m.cfg.ExcludeFilter}
		cmds = append(cmds, func() tea.Msg { return live })
	}
	if m.cfg.HistoryFilter != "" {
		history := events.HistoryFilterMsg(m.cfg.HistoryFilter)
		cmds = append(cmds, func() tea.Msg { return history })
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	LogMsgType(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		m.help, _ = m.help.Update(msg)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keymap.Default.QuitKey):
			m.storeConfig()
			return m, tea.Quit

		case key.Matches(msg, keymap.Default.HelpKey):
			m.showHelp = !m.showHelp
			return m, nil

		case m.showHelp:
			if key.Matches(msg, keymap.Default.CloseKey) {
				m.showHelp = false
			}
			return m, nil

		case m.mock != nil && msg.String() == "alt+m":
			return m, m.toggleMockDevice()
		}

	case events.PortsChangedMsg:
		cmds = append(cmds, m.scanner.WaitForUpdate())

	case events.ConnectionStatusMsg:
		if msg.Port != m.cfg.Port || msg.BaudRate != m.cfg.BaudRate {
			m.cfg.Set(func(c *config.Config) {
				c.Port = msg.Port
				c.BaudRate = msg.BaudRate
			})
		}

	case events.LiveFilterMsg:
		m.cfg.Set(func(c *config.Config) {
			c.IncludeFilter = msg.Include
			c.ExcludeFilter = msg.Exclude
		})

	case events.HistoryFilterMsg:
		m.cfg.Set(func(c *config.Config) {
			c.HistoryFilter = string(msg)
		})

	case msglog.EditorFinishedMsg:
		// mouse reporting is lost while the editor runs
		cmds = append(cmds, tea.EnableMouseCellMotion)
	}

	m.session, cmd = m.session.Update(msg)
	cmds = append(cmds, cmd)
	m.portlist, cmd = m.portlist.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.msglog, cmd = m.msglog.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	top := lipgloss.JoinHorizontal(lipgloss.Top, m.msglog.View(), m.portlist.View())

	screen := lipgloss.JoinVertical(
		lipgloss.Left,
		top,
		m.input.View(),
		m.footer.View(m.session.View()),
	)

	if m.showHelp {
		screen = m.help.Render(screen)
	}

	return zone.Scan(lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		screen))
}

func (m *model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	const footerHeight = 1
	topHeight := max(0, m.height-m.input.Height()-footerHeight)
	logWidth := m.width / 4 * 3

	m.msglog.SetSize(logWidth, topHeight)
	m.portlist.SetSize(m.width-logWidth, topHeight)
	m.input.SetWidth(m.width)
	m.footer.SetWidth(m.width)
}

// toggleMockDevice plugs or unplugs the simulated device.
func (m model) toggleMockDevice() tea.Cmd {
	if m.mock == nil {
		return nil
	}
	present := !m.mock.Present()
	m.mock.SetPresent(present)

	state := "unplugged"
	if present {
		state = "plugged in"
	}
	info := fmt.Sprintf("mock device %s", state)
	log.Println(info)
	return func() tea.Msg { return events.InfoMsg(info) }
}

func (m model) storeConfig() {
	m.cfg.Set(func(c *config.Config) {
		c.IncludeFilter = m.input.Value(input.Include)
		c.ExcludeFilter = m.input.Value(input.Exclude)
		c.HistoryFilter = m.input.Value(input.History)
	})
}

// RunTui runs the program until the user quits, then stops the scanner and
// releases the port.
func RunTui(cfg *config.Config, flags Flags, dev Device) {
	zone.NewGlobal()

	sc := scanner.New(dev.List, scanner.DefaultInterval)
	sc.Start()

	p := tea.NewProgram(
		initialModel(cfg, flags, dev, sc),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()
	if err != nil {
		fmt.Println("Error running program:", err)
	}

	if err := sc.Stop(); err != nil {
		log.Printf("device scanner: %v", err)
	}
	if m, ok := final.(model); ok {
		m.session.Shutdown()
	}

	if err != nil {
		os.Exit(1)
	}
}
