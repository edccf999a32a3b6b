package session

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/keymap"
	"github.com/mahlburgc/serialmon/internal/reader"
	"github.com/mahlburgc/serialmon/internal/scanner"
	"github.com/mahlburgc/serialmon/internal/serialport"
	"github.com/mahlburgc/serialmon/internal/styles"
)

// CloseTimeout bounds how long a closing connection waits for its read
// worker before the handle is released anyway.
const CloseTimeout = 2 * time.Second

// Intent is what the user asked for, independent of the actual state.
type Intent struct {
	Wanted   bool
	Port     string
	BaudRate int
}

type (
	openResultMsg struct {
		conn int
		port serialport.Port
		err  error
	}
	closeTimeoutMsg struct {
		conn int
	}
)

// Model is the connection manager. It owns the device handle and lends it to
// exactly one read worker while the connection is open.
type Model struct {
	state    events.ConnState
	intent   Intent
	baudText string
	present  scanner.DeviceSet
	open     serialport.Opener
	handle   serialport.Port
	worker   *reader.Worker
	conn     int // generation of the current connection
	sp       spinner.Model
	beep     bool
}

func New(open serialport.Opener, port string, baudRate string, beep bool) (m Model) {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		state:    events.Closed,
		intent:   Intent{Port: port},
		baudText: baudRate,
		present:  scanner.NewDeviceSet(),
		open:     open,
		sp:       sp,
		beep:     beep,
	}
}

func (m Model) State() events.ConnState { return m.state }
func (m Model) Intent() Intent          { return m.intent }
func (m Model) Port() string            { return m.intent.Port }
func (m Model) BaudRate() string        { return m.baudText }

// Spinner runs while a transition is in flight.
func (m Model) Spinner() spinner.Model { return m.sp }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.KeyMsg:
		if key.Matches(msg, keymap.Default.ToggleSessionKey) {
			return m, m.toggle()
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft &&
			zone.Get("session").InBounds(msg) {
			return m, m.toggle()
		}

	case events.PortsChangedMsg:
		return m, m.handlePortsChanged(msg.Ports)

	case events.PortSelectedMsg:
		return m, m.selectPort(string(msg))

	case events.BaudSelectedMsg:
		return m, m.selectBaud(string(msg))

	case openResultMsg:
		return m, m.handleOpenResult(msg)

	case events.SerialRxMsg:
		if msg.Conn == m.conn && m.worker != nil {
			return m, m.worker.Listen()
		}

	case events.ReadErrMsg:
		return m, m.handleReadErr(msg)

	case events.WorkerStoppedMsg:
		if msg.Conn == m.conn && (m.state == events.Open || m.state == events.Closing) {
			return m, m.finishClose()
		}

	case closeTimeoutMsg:
		if msg.conn == m.conn && m.state == events.Closing {
			log.Printf("port %s: worker did not stop: %v", m.intent.Port, serialport.ErrShutdownTimeout)
			return m, m.finishClose()
		}

	case spinner.TickMsg:
		if m.busy() {
			m.sp, cmd = m.sp.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m Model) View() string {
	var status string

	switch m.state {
	case events.Open:
		status = fmt.Sprintf(" %s ", styles.ConnectSymbolStyle.Render("●"))

	case events.Closed:
		if m.intent.Wanted {
			status = fmt.Sprintf(" %s ", styles.WaitingSymbolStyle.Render("●"))
		} else {
			status = fmt.Sprintf(" %s ", styles.DisconnectedSymbolStyle.Render("●"))
		}

	default:
		status = fmt.Sprintf(" %s", m.sp.View())
	}

	port := m.intent.Port
	if port == "" {
		port = "no port"
	}
	status += styles.FooterStyle.Render(fmt.Sprintf("%s @ %s (%s)", port, m.baudText, m.stateText()))

	return zone.Mark("session", status)
}

func (m Model) stateText() string {
	if m.state == events.Closed && m.intent.Wanted {
		return "waiting for device"
	}
	return m.state.String()
}

func (m Model) busy() bool {
	return m.state == events.Opening || m.state == events.Closing
}

// Validate checks a port and baud rate selection before an open attempt.
func Validate(port string, baudRate string) (int, error) {
	if strings.TrimSpace(port) == "" || port == serialport.Placeholder {
		return 0, fmt.Errorf("%w: no port selected", serialport.ErrInvalidSelection)
	}
	baud, err := strconv.Atoi(strings.TrimSpace(baudRate))
	if err != nil || baud <= 0 {
		return 0, fmt.Errorf("%w: %q", serialport.ErrInvalidBaudRate, baudRate)
	}
	return baud, nil
}

// Toggle requests an open when closed and a close otherwise, like the
// toggle key does.
func (m *Model) Toggle() tea.Cmd {
	return m.toggle()
}

// toggle handles the user's open/close request.
func (m *Model) toggle() tea.Cmd {
	switch m.state {
	case events.Closed:
		if m.intent.Wanted {
			// user gives up waiting for the device
			m.intent.Wanted = false
			log.Printf("user stopped waiting for port %s", m.intent.Port)
			return m.statusCmd()
		}
		baud, err := Validate(m.intent.Port, m.baudText)
		if err != nil {
			log.Println(err)
			return errCmd(err)
		}
		m.intent.Wanted = true
		m.intent.BaudRate = baud
		return m.beginOpen()

	case events.Opening:
		if !m.intent.Wanted {
			// the user takes back an earlier cancel
			m.intent.Wanted = true
			log.Printf("user resumed opening port %s", m.intent.Port)
			return m.statusCmd()
		}
		m.intent.Wanted = false
		log.Printf("user cancelled opening port %s", m.intent.Port)
		return m.statusCmd()

	case events.Open:
		m.intent.Wanted = false
		log.Printf("user requested close of port %s", m.intent.Port)
		return m.beginClose()

	default:
		log.Printf("port %s is closing, toggle ignored", m.intent.Port)
		return nil
	}
}

func (m *Model) beginOpen() tea.Cmd {
	m.conn++
	m.state = events.Opening

	conn, open, name, baud := m.conn, m.open, m.intent.Port, m.intent.BaudRate
	log.Printf("opening port %s at %d baud", name, baud)

	openCmd := func() tea.Msg {
		port, err := open(name, baud)
		return openResultMsg{conn: conn, port: port, err: err}
	}
	return tea.Batch(openCmd, m.statusCmd(), m.sp.Tick)
}

func (m *Model) handleOpenResult(msg openResultMsg) tea.Cmd {
	if msg.conn != m.conn || m.state != events.Opening {
		serialport.Close(msg.port)
		return nil
	}

	if msg.err != nil {
		m.state = events.Closed
		err := fmt.Errorf("%w %s: %w", serialport.ErrOpenFailure, m.intent.Port, msg.err)
		log.Println(err)
		return tea.Batch(errCmd(err), m.statusCmd())
	}

	if !m.intent.Wanted {
		serialport.Close(msg.port)
		m.state = events.Closed
		return m.statusCmd()
	}

	log.Printf("port %s open", m.intent.Port)
	m.handle = msg.port
	m.worker = reader.New(m.conn, m.handle)
	m.worker.Start()
	m.state = events.Open
	m.playConnected()

	return tea.Batch(m.worker.Listen(), m.statusCmd())
}

func (m *Model) handleReadErr(msg events.ReadErrMsg) tea.Cmd {
	if msg.Conn != m.conn || m.worker == nil {
		return nil
	}

	// keep listening so the worker's stop is observed
	listen := m.worker.Listen()

	if m.state != events.Open {
		return listen
	}

	err := fmt.Errorf("port %s: %w", m.intent.Port, msg.Err)
	m.playDisconnected()
	return tea.Batch(errCmd(err), m.beginClose(), listen)
}

func (m *Model) beginClose() tea.Cmd {
	m.state = events.Closing
	m.worker.Stop()

	conn := m.conn
	timeout := tea.Tick(CloseTimeout, func(time.Time) tea.Msg {
		return closeTimeoutMsg{conn: conn}
	})
	return tea.Batch(timeout, m.statusCmd(), m.sp.Tick)
}

// finishClose releases the handle. Reconnecting is left to the next scanner
// update.
func (m *Model) finishClose() tea.Cmd {
	if m.worker != nil {
		m.worker.Stop()
	}
	serialport.Close(m.handle)
	m.handle = nil
	m.worker = nil
	m.state = events.Closed
	log.Printf("port %s closed", m.intent.Port)
	return m.statusCmd()
}

func (m *Model) handlePortsChanged(ports []string) tea.Cmd {
	m.present = scanner.NewDeviceSet(ports...)

	// While Closing the update is dropped; the next change of the device set
	// triggers the reconnect.
	if m.state != events.Closed || !m.intent.Wanted || !m.present.Contains(m.intent.Port) {
		return nil
	}

	// the baud rate may have changed during the reconnect gap
	baud, err := Validate(m.intent.Port, m.baudText)
	if err != nil {
		log.Println(err)
		return errCmd(err)
	}
	m.intent.BaudRate = baud

	info := fmt.Sprintf("port %s is back, reconnecting", m.intent.Port)
	log.Println(info)
	return tea.Batch(infoCmd(info), m.beginOpen())
}

func (m *Model) selectPort(port string) tea.Cmd {
	if port == m.intent.Port {
		return nil
	}
	if m.state != events.Closed {
		return errCmd(fmt.Errorf("close port %s before selecting %s", m.intent.Port, port))
	}
	if port == "" || port == serialport.Placeholder {
		return errCmd(fmt.Errorf("%w: %q", serialport.ErrInvalidSelection, port))
	}
	log.Printf("selected port %s", port)
	m.intent.Port = port
	return m.statusCmd()
}

func (m *Model) selectBaud(baud string) tea.Cmd {
	if m.state != events.Closed {
		return errCmd(fmt.Errorf("close port %s before changing the baud rate", m.intent.Port))
	}
	m.baudText = baud
	return m.statusCmd()
}

// Shutdown stops the worker and releases the handle. Used when the program
// exits; the wait is bounded by CloseTimeout.
func (m *Model) Shutdown() {
	if m.worker != nil {
		m.worker.Stop()
		if err := m.worker.Wait(CloseTimeout); err != nil {
			log.Printf("port %s: %v", m.intent.Port, err)
		}
	}
	serialport.Close(m.handle)
	m.handle = nil
	m.worker = nil
	m.state = events.Closed
}

func (m Model) statusCmd() tea.Cmd {
	status := events.ConnectionStatusMsg{
		State:    m.state,
		Port:     m.intent.Port,
		BaudRate: m.baudText,
		Wanted:   m.intent.Wanted,
	}
	return func() tea.Msg { return status }
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg { return events.ErrMsg{Err: err} }
}

func infoCmd(info string) tea.Cmd {
	return func() tea.Msg { return events.InfoMsg(info) }
}
