package sa430

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial/enumerator"
)

// USB identity of the analyzer.
const (
	USBVendorID  = 0x2047
	USBProductID = 0x0005
)

// Port identifies one attached analyzer well enough to open a transport
// for it.
type Port struct {
	// Name is the host serial device, e.g. /dev/ttyACM0.
	Name string
	// SerialNumber is the USB descriptor serial string, empty when the
	// descriptor carries none.
	SerialNumber string
}

// EventType tags a watch event.
type EventType int

const (
	Connected EventType = iota
	Disconnected
)

func (t EventType) String() string {
	if t == Connected {
		return "connected"
	}
	return "disconnected"
}

// Event is one device arrival or departure.
type Event struct {
	Type EventType
	Port Port
}

// Scanner enumerates and watches analyzers on the host. Watch callbacks
// stop firing once the returned closer's Close returns.
type Scanner interface {
	Scan() ([]Port, error)
	Watch(callback func(Event)) (io.Closer, error)
}

// USBScanner finds analyzers by their USB VID/PID among the host's serial
// ports. Watching is a periodic rescan-and-diff; the analyzer is a
// plug-in-and-measure instrument, so a sub-second poll is plenty.
type USBScanner struct {
	// Interval between rescans while watching. Zero means 500ms.
	Interval time.Duration

	// list stands in for the host enumerator in tests.
	list func() ([]Port, error)
}

func (s *USBScanner) ports() ([]Port, error) {
	if s.list != nil {
		return s.list()
	}
	return usbPorts()
}

func usbPorts() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	var ports []Port
	for _, p := range details {
		if !p.IsUSB {
			continue
		}
		if !matchesID(p.VID, USBVendorID) || !matchesID(p.PID, USBProductID) {
			continue
		}
		ports = append(ports, Port{Name: p.Name, SerialNumber: p.SerialNumber})
	}
	return ports, nil
}

// matchesID compares the enumerator's hex ID string against a numeric ID.
func matchesID(s string, id uint16) bool {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return false
	}
	return uint16(v) == id
}

// Scan returns the analyzers currently attached, sorted by port name.
func (s *USBScanner) Scan() ([]Port, error) {
	ports, err := s.ports()
	if err != nil {
		return nil, err
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

// Watch reports connect and disconnect events until the returned closer is
// closed. The callback runs on the watcher goroutine; no callback fires
// after Close returns.
func (s *USBScanner) Watch(callback func(Event)) (io.Closer, error) {
	known, err := s.Scan()
	if err != nil {
		return nil, err
	}
	interval := s.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	w := &watcher{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
			}
			current, err := s.Scan()
			if err != nil {
				continue
			}
			for _, e := range diffPorts(known, current) {
				select {
				case <-w.stop:
					return
				default:
				}
				callback(e)
			}
			known = current
		}
	}()
	return w, nil
}

type watcher struct {
	stop chan struct{}
	done chan struct{}
}

// Close stops the watcher and waits for the callback goroutine to finish,
// so no event is delivered after it returns.
func (w *watcher) Close() error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	<-w.done
	return nil
}

// diffPorts turns two scan snapshots into connect/disconnect events, keyed
// by port name.
func diffPorts(prev, current []Port) []Event {
	var events []Event
	seen := make(map[string]Port, len(prev))
	for _, p := range prev {
		seen[p.Name] = p
	}
	now := make(map[string]Port, len(current))
	for _, p := range current {
		now[p.Name] = p
		if _, ok := seen[p.Name]; !ok {
			events = append(events, Event{Type: Connected, Port: p})
		}
	}
	for _, p := range prev {
		if _, ok := now[p.Name]; !ok {
			events = append(events, Event{Type: Disconnected, Port: p})
		}
	}
	return events
}
