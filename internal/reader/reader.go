// Package reader runs the blocking read loop of one open serial connection.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/serialport"
	"golang.org/x/text/encoding/unicode"
)

const (
	ReadTimeout = 500 * time.Millisecond
	readBufSize = 4096
	queueSize   = 64
)

// Worker reads from a port it borrows from the connection manager. It never
// closes the port.
type Worker struct {
	conn   int
	port   serialport.Port
	msgs   chan tea.Msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New creates a worker for connection conn. Call Run in its own goroutine.
func New(conn int, port serialport.Port) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		conn:   conn,
		port:   port,
		msgs:   make(chan tea.Msg, queueSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start runs the worker in a new goroutine.
func (w *Worker) Start() {
	go w.Run()
}

// Run loops until Stop is called or a read fails.
func (w *Worker) Run() {
	defer close(w.done)
	defer close(w.msgs)

	if err := w.port.SetReadTimeout(ReadTimeout); err != nil {
		w.fail(err)
		return
	}

	buf := make([]byte, readBufSize)
	var pending []byte

	for w.ctx.Err() == nil {
		n, err := w.port.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = w.forwardLines(pending)
		}
		if err != nil {
			if w.ctx.Err() != nil {
				// port released during shutdown
				break
			}
			w.fail(err)
			return
		}
	}

	if line := strings.TrimSpace(Decode(pending)); line != "" {
		select {
		case w.msgs <- events.SerialRxMsg{Conn: w.conn, Line: line}:
		default:
		}
	}
	log.Printf("reader %d: stopped", w.conn)
}

// forwardLines sends every complete line in data and returns the remainder.
func (w *Worker) forwardLines(data []byte) []byte {
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return data
		}
		line := strings.TrimSpace(Decode(data[:i]))
		data = data[i+1:]
		if !w.send(events.SerialRxMsg{Conn: w.conn, Line: line}) {
			return nil
		}
	}
}

// fail emits the single fatal error of this worker.
func (w *Worker) fail(err error) {
	log.Printf("reader %d: %v", w.conn, err)
	w.send(events.ReadErrMsg{
		Conn: w.conn,
		Err:  fmt.Errorf("%w: %w", serialport.ErrIOFailure, err),
	})
}

func (w *Worker) send(msg tea.Msg) bool {
	select {
	case w.msgs <- msg:
		return true
	case <-w.ctx.Done():
		return false
	}
}

// Stop requests the loop to end. It does not interrupt a read in flight; the
// read timeout bounds how long the request stays unobserved.
func (w *Worker) Stop() {
	w.once.Do(w.cancel)
}

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until Run has returned or the timeout elapsed.
func (w *Worker) Wait(timeout time.Duration) error {
	select {
	case <-w.done:
		return nil
	case <-time.After(timeout):
		return serialport.ErrShutdownTimeout
	}
}

// Listen returns a Tea command that delivers the next worker message. Re-issue
// it after every SerialRxMsg. After the worker ends it yields WorkerStoppedMsg.
func (w *Worker) Listen() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.msgs
		if !ok {
			return events.WorkerStoppedMsg{Conn: w.conn}
		}
		return msg
	}
}

// Decode converts raw bytes to UTF-8 text, replacing invalid sequences.
func Decode(b []byte) string {
	s, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(s)
}
