package scanner

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/serialport"
)

func TestDeviceSetEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b DeviceSet
		want bool
	}{
		{"both empty", NewDeviceSet(), NewDeviceSet(), true},
		{"same order", NewDeviceSet("A", "B"), NewDeviceSet("A", "B"), true},
		{"other order", NewDeviceSet("B", "A"), NewDeviceSet("A", "B"), true},
		{"subset", NewDeviceSet("A"), NewDeviceSet("A", "B"), false},
		{"disjoint", NewDeviceSet("A"), NewDeviceSet("B"), false},
		{"nil and empty", nil, NewDeviceSet(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Fatalf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeviceSetSorted(t *testing.T) {
	got := NewDeviceSet("/dev/ttyUSB1", "/dev/ttyACM0", "COM3").Sorted()
	want := []string{"/dev/ttyACM0", "/dev/ttyUSB1", "COM3"}
	if !slices.Equal(got, want) {
		t.Fatalf("Sorted = %v, want %v", got, want)
	}
}

// fakeLister returns the queued results one poll at a time.
type fakeLister struct {
	results [][]string
	errs    []error
	calls   int
}

func (f *fakeLister) list() ([]string, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.results[i], err
}

func TestPollEmitsOnlyOnChange(t *testing.T) {
	f := &fakeLister{results: [][]string{
		{"A", "B"},
		{"B", "A"},
		{"A", "B"},
		{"A"},
		{"A"},
		{},
		{},
		{"A"},
	}}
	s := New(f.list, time.Second)

	var emitted [][]string
	for range f.results {
		if set, changed := s.poll(); changed {
			emitted = append(emitted, set.Sorted())
		}
	}

	want := [][]string{{"A", "B"}, {"A"}, {}, {"A"}}
	if len(emitted) != len(want) {
		t.Fatalf("emitted %v, want %v", emitted, want)
	}
	for i := range want {
		if !slices.Equal(emitted[i], want[i]) {
			t.Fatalf("emission %d = %v, want %v", i, emitted[i], want[i])
		}
	}
}

func TestPollFirstEmptyIsEmitted(t *testing.T) {
	s := New((&fakeLister{results: [][]string{{}}}).list, time.Second)
	if _, changed := s.poll(); !changed {
		t.Fatalf("first poll must always emit")
	}
	if _, changed := s.poll(); changed {
		t.Fatalf("second empty poll must not emit")
	}
}

func TestPollErrorCountsAsEmpty(t *testing.T) {
	f := &fakeLister{
		results: [][]string{{"A"}, {"A"}, {"A"}},
		errs:    []error{nil, errors.New("boom"), nil},
	}
	s := New(f.list, time.Second)

	s.poll()
	set, changed := s.poll()
	if !changed || len(set) != 0 {
		t.Fatalf("enumeration error must be observed as empty set, got %v changed=%v", set, changed)
	}
	set, changed = s.poll()
	if !changed || !set.Contains("A") {
		t.Fatalf("recovery after error must emit, got %v changed=%v", set, changed)
	}
}

func TestRunDeliversUpdatesAndStops(t *testing.T) {
	f := &fakeLister{results: [][]string{{"A", "B"}, {"A", "B"}, {"A"}}}
	s := New(f.list, 10*time.Millisecond)
	s.Start()

	cmd := s.WaitForUpdate()
	first, ok := cmd().(events.PortsChangedMsg)
	if !ok || !slices.Equal(first.Ports, []string{"A", "B"}) {
		t.Fatalf("first update = %v", first)
	}
	second, ok := cmd().(events.PortsChangedMsg)
	if !ok || !slices.Equal(second.Ports, []string{"A"}) {
		t.Fatalf("second update = %v", second)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestStopNeverStarted(t *testing.T) {
	s := New((&fakeLister{results: [][]string{{}}}).list, time.Second)
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStopTimesOutOnBlockedLister(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	s := New(func() ([]string, error) {
		once.Do(func() { close(entered) })
		<-release
		return nil, nil
	}, time.Second)
	s.Start()
	t.Cleanup(func() { close(release) })
	<-entered

	start := time.Now()
	err := s.Stop()
	if !errors.Is(err, serialport.ErrShutdownTimeout) {
		t.Fatalf("Stop = %v, want %v", err, serialport.ErrShutdownTimeout)
	}
	if elapsed := time.Since(start); elapsed < StopTimeout || elapsed > StopTimeout+time.Second {
		t.Fatalf("Stop returned after %v", elapsed)
	}
}
