package serialport

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// MockName is the device name the mock lister reports.
const MockName = "mock"

var mockLevels = []string{"INFO", "DEBUG", "INFO", "WARN", "INFO", "ERROR"}

// MockPort simulates a serial port for development and tests.
type MockPort struct {
	// Channel to send data to the reading process
	rxChan chan []byte
	// Context to handle closing the port
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timeout time.Duration
	failErr error
	closed  int
}

// NewMockPort creates an idle mock port. Feed it with Inject.
func NewMockPort() *MockPort {
	// A context is used to gracefully shut down the port.
	ctx, cancel := context.WithCancel(context.Background())

	return &MockPort{
		rxChan:  make(chan []byte, 16),
		ctx:     ctx,
		cancel:  cancel,
		timeout: -1,
	}
}

// StartTicker lets the mock port emit a numbered line every interval until
// it is closed.
func (m *MockPort) StartTicker(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		count := 0
		for {
			select {
			case <-ticker.C:
				level := mockLevels[count%len(mockLevels)]
				msg := []byte(fmt.Sprintf("%s mock sensor reading %d\r\n", level, count))
				select {
				case m.rxChan <- msg:
				case <-m.ctx.Done():
					return
				}
				count++
			case <-m.ctx.Done():
				// If the context is cancelled (by Close()), exit the goroutine.
				return
			}
		}
	}()
}

// Inject queues raw bytes for the next Read.
func (m *MockPort) Inject(data []byte) {
	select {
	case m.rxChan <- data:
	case <-m.ctx.Done():
	}
}

// Fail makes every following Read return err, as an unplugged device would.
func (m *MockPort) Fail(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

// Read blocks until data is available, the read timeout elapses or the port
// is closed. A timeout returns 0, nil like go.bug.st/serial does.
func (m *MockPort) Read(p []byte) (n int, err error) {
	m.mu.Lock()
	timeout := m.timeout
	failErr := m.failErr
	m.mu.Unlock()

	if failErr != nil {
		return 0, failErr
	}

	var expire <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expire = timer.C
	}

	select {
	case data := <-m.rxChan:
		// We have data, copy it to the buffer p.
		return copy(p, data), nil
	case <-expire:
		return 0, nil
	case <-m.ctx.Done():
		// The port was closed, return EOF.
		return 0, io.EOF
	}
}

func (m *MockPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	m.timeout = t
	m.mu.Unlock()
	return nil
}

// Close stops the mock port.
func (m *MockPort) Close() error {
	log.Println("MOCK PORT: Closing")
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	m.cancel() // This will trigger the ctx.Done() in Read.
	return nil
}

// Closed reports how often Close was called.
func (m *MockPort) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockDevice pairs a fake lister and opener around one mock device that can
// be plugged and unplugged at runtime.
type MockDevice struct {
	mu      sync.Mutex
	present bool
	ticker  time.Duration
	last    *MockPort
}

// NewMockDevice returns a plugged mock device whose ports emit a line every
// interval. An interval of zero leaves the port silent.
func NewMockDevice(interval time.Duration) *MockDevice {
	return &MockDevice{present: true, ticker: interval}
}

// SetPresent plugs or unplugs the device. Unplugging fails the open port.
func (d *MockDevice) SetPresent(present bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.present = present
	if !present && d.last != nil {
		d.last.Fail(io.ErrUnexpectedEOF)
	}
}

func (d *MockDevice) Present() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.present
}

func (d *MockDevice) List() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.present {
		return nil, nil
	}
	return []string{MockName}, nil
}

func (d *MockDevice) Open(name string, baudRate int) (Port, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name != MockName || !d.present {
		return nil, fmt.Errorf("no such device: %s", name)
	}
	p := NewMockPort()
	if d.ticker > 0 {
		p.StartTicker(d.ticker)
	}
	d.last = p
	return p, nil
}

// Last returns the most recently opened port.
func (d *MockDevice) Last() *MockPort {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
