// Package scanner polls the OS for present serial devices and reports
// changes of the device set.
package scanner

import (
	"context"
	"log"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/serialport"
)

const (
	DefaultInterval = 1 * time.Second
	StopTimeout     = 1500 * time.Millisecond
)

// DeviceSet is a set of device names compared by value.
type DeviceSet map[string]struct{}

func NewDeviceSet(names ...string) DeviceSet {
	s := make(DeviceSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s DeviceSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

func (s DeviceSet) Equal(o DeviceSet) bool {
	if len(s) != len(o) {
		return false
	}
	for n := range s {
		if !o.Contains(n) {
			return false
		}
	}
	return true
}

// Sorted returns the names in lexicographic order.
func (s DeviceSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

type Scanner struct {
	list     serialport.Lister
	interval time.Duration
	updates  chan DeviceSet
	last     DeviceSet
	emitted  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(list serialport.Lister, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scanner{
		list:     list,
		interval: interval,
		updates:  make(chan DeviceSet, 1),
	}
}

// Start the polling loop. The first poll runs immediately.
func (s *Scanner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx)
}

func (s *Scanner) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if set, changed := s.poll(); changed {
			select {
			case s.updates <- set:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// poll enumerates once and reports whether the set differs from the one
// emitted last. Enumeration errors count as an empty set.
func (s *Scanner) poll() (DeviceSet, bool) {
	names, err := s.list()
	if err != nil {
		log.Printf("scanner: enumerate ports: %v", err)
		names = nil
	}
	return s.observe(NewDeviceSet(names...))
}

func (s *Scanner) observe(set DeviceSet) (DeviceSet, bool) {
	if s.emitted && set.Equal(s.last) {
		return nil, false
	}
	s.last = set
	s.emitted = true
	return set, true
}

// Stop the polling loop and wait up to StopTimeout for it to exit.
// Stop is safe to call more than once and on a scanner never started.
func (s *Scanner) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-time.After(StopTimeout):
		log.Printf("scanner: %v", serialport.ErrShutdownTimeout)
		return serialport.ErrShutdownTimeout
	}
}

// WaitForUpdate returns a Tea command that blocks until the device set
// changes. Re-issue it after every PortsChangedMsg.
func (s *Scanner) WaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		set, ok := <-s.updates
		if !ok {
			return nil
		}
		return events.PortsChangedMsg{Ports: set.Sorted()}
	}
}
