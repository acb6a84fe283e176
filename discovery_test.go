package sa430

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMatchesID(t *testing.T) {
	tests := []struct {
		s    string
		id   uint16
		want bool
	}{
		{"2047", 0x2047, true},
		{"0x2047", 0x2047, true},
		{"2047", 0x2048, false},
		{"0005", 0x0005, true},
		{"5", 0x0005, true},
		{"", 0x0005, false},
		{"zz", 0x0005, false},
	}
	for _, tc := range tests {
		if got := matchesID(tc.s, tc.id); got != tc.want {
			t.Errorf("matchesID(%q, 0x%04X) = %v, want %v", tc.s, tc.id, got, tc.want)
		}
	}
}

func TestDiffPorts(t *testing.T) {
	a := Port{Name: "/dev/ttyACM0", SerialNumber: "A"}
	b := Port{Name: "/dev/ttyACM1", SerialNumber: "B"}
	c := Port{Name: "/dev/ttyACM2", SerialNumber: "C"}
	got := diffPorts([]Port{a, b}, []Port{b, c})
	want := []Event{
		{Type: Connected, Port: c},
		{Type: Disconnected, Port: a},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diffPorts(nil, nil) != nil {
		t.Error("no change should produce no events")
	}
}

func TestScannerScanSorts(t *testing.T) {
	s := &USBScanner{list: func() ([]Port, error) {
		return []Port{{Name: "/dev/ttyACM1"}, {Name: "/dev/ttyACM0"}}, nil
	}}
	ports, err := s.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if len(ports) != 2 || ports[0].Name != "/dev/ttyACM0" {
		t.Errorf("ports = %+v", ports)
	}
}

func TestScannerScanError(t *testing.T) {
	boom := errors.New("enumeration failed")
	s := &USBScanner{list: func() ([]Port, error) { return nil, boom }}
	if _, err := s.Scan(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestScannerWatch(t *testing.T) {
	var mu sync.Mutex
	present := []Port{}
	s := &USBScanner{
		Interval: time.Millisecond,
		list: func() ([]Port, error) {
			mu.Lock()
			defer mu.Unlock()
			return append([]Port(nil), present...), nil
		},
	}

	events := make(chan Event, 16)
	w, err := s.Watch(func(e Event) { events <- e })
	if err != nil {
		t.Fatal(err)
	}

	dev := Port{Name: "/dev/ttyACM0", SerialNumber: "S1"}
	mu.Lock()
	present = []Port{dev}
	mu.Unlock()
	select {
	case e := <-events:
		if e.Type != Connected || e.Port != dev {
			t.Fatalf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no connect event")
	}

	mu.Lock()
	present = nil
	mu.Unlock()
	select {
	case e := <-events:
		if e.Type != Disconnected || e.Port != dev {
			t.Fatalf("event = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no disconnect event")
	}

	// After Close returns, no further callbacks may fire.
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	present = []Port{dev}
	mu.Unlock()
	select {
	case e := <-events:
		t.Fatalf("event after close: %+v", e)
	case <-time.After(20 * time.Millisecond):
	}
}
