package reader

import (
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/serialport"
)

func next(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatalf("no worker message within 3s")
		return nil
	}
}

func TestWorkerSplitsLines(t *testing.T) {
	port := serialport.NewMockPort()
	w := New(7, port)
	w.Start()
	defer func() {
		w.Stop()
		port.Close()
	}()

	port.Inject([]byte("boot ok\r\nerror: ti"))
	port.Inject([]byte("meout\n\nboot done\n"))

	want := []string{"boot ok", "error: timeout", "", "boot done"}
	for _, line := range want {
		msg, ok := next(t, w.Listen()).(events.SerialRxMsg)
		if !ok {
			t.Fatalf("expected SerialRxMsg, got %T", msg)
		}
		if msg.Conn != 7 || msg.Line != line {
			t.Fatalf("got %+v, want line %q", msg, line)
		}
	}
}

func TestWorkerReplacesInvalidUTF8(t *testing.T) {
	port := serialport.NewMockPort()
	w := New(1, port)
	w.Start()
	defer w.Stop()

	port.Inject([]byte("temp \xff25\n"))

	msg := next(t, w.Listen()).(events.SerialRxMsg)
	if msg.Line != "temp �25" {
		t.Fatalf("got %q", msg.Line)
	}
}

func TestWorkerReportsIOFailureOnce(t *testing.T) {
	port := serialport.NewMockPort()
	port.Fail(io.ErrUnexpectedEOF)
	w := New(3, port)
	w.Start()

	msg, ok := next(t, w.Listen()).(events.ReadErrMsg)
	if !ok {
		t.Fatalf("expected ReadErrMsg, got %T", msg)
	}
	if !errors.Is(msg.Err, serialport.ErrIOFailure) || !errors.Is(msg.Err, io.ErrUnexpectedEOF) {
		t.Fatalf("error does not wrap IOFailure and cause: %v", msg.Err)
	}

	if stopped, ok := next(t, w.Listen()).(events.WorkerStoppedMsg); !ok || stopped.Conn != 3 {
		t.Fatalf("expected WorkerStoppedMsg after error, got %+v", stopped)
	}
	if err := w.Wait(time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestWorkerStopIsBoundedByReadTimeout(t *testing.T) {
	port := serialport.NewMockPort()
	w := New(1, port)
	w.Start()

	start := time.Now()
	w.Stop()
	w.Stop()
	if err := w.Wait(2 * time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > ReadTimeout+time.Second {
		t.Fatalf("stop took %v", elapsed)
	}
	if port.Closed() != 0 {
		t.Fatalf("worker must not close the borrowed port")
	}
	if _, ok := next(t, w.Listen()).(events.WorkerStoppedMsg); !ok {
		t.Fatalf("expected WorkerStoppedMsg")
	}
}

func TestWorkerFlushesPartialLineOnStop(t *testing.T) {
	port := serialport.NewMockPort()
	w := New(1, port)
	w.Start()

	port.Inject([]byte("no newline"))
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	if err := w.Wait(2 * time.Second); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	msg, ok := next(t, w.Listen()).(events.SerialRxMsg)
	if !ok || msg.Line != "no newline" {
		t.Fatalf("got %+v", msg)
	}
}

func TestDecode(t *testing.T) {
	if got := Decode([]byte("grüße")); got != "grüße" {
		t.Fatalf("Decode = %q", got)
	}
}
