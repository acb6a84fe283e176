package sa430

import (
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/daedaluz/sa430/serial"
)

// Serial parameters of the analyzer's CDC port. Flow control is configured
// per the interface description even though the device never asserts it.
const (
	BaudRate = 926100
)

type serialTransport struct {
	port    *serial.Port
	timeout time.Duration
}

// OpenPort opens the named serial device and configures it for the
// analyzer: 926100 baud (termios2/BOTHER), 8 data bits, 1 stop bit, no
// parity, RTS/CTS enabled.
func OpenPort(name string) (Transport, error) {
	port, err := serial.Open(name, nil)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}
	attrs, err := port.GetAttr2()
	if err != nil {
		port.Close()
		return nil, &TransportError{Op: "configure", Err: err}
	}
	attrs.MakeRaw()
	attrs.SetCustomSpeed(BaudRate)
	attrs.Cflag &= ^(serial.CSTOPB | serial.PARENB)
	attrs.Cflag |= serial.CREAD | serial.CLOCAL | serial.CRTSCTS
	attrs.Cc[serial.VMIN] = 0
	attrs.Cc[serial.VTIME] = 0
	if err := port.SetAttr2(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, &TransportError{Op: "configure", Err: err}
	}
	if err := port.Flush(serial.TCIOFLUSH); err != nil {
		port.Close()
		return nil, &TransportError{Op: "flush", Err: err}
	}
	return &serialTransport{port: port, timeout: DefaultTimeout}, nil
}

// NewSerialTransport wraps an already configured port, for callers that
// tune the port themselves (or tests running over a pty pair).
func NewSerialTransport(port *serial.Port) Transport {
	return &serialTransport{port: port, timeout: DefaultTimeout}
}

func (t *serialTransport) Write(p []byte) (int, error) {
	n, err := t.port.Write(p)
	if err != nil {
		return n, &TransportError{Op: "write", Err: err}
	}
	if n < len(p) {
		return n, &TransportError{Op: "write", Err: io.ErrShortWrite}
	}
	return n, nil
}

func (t *serialTransport) Read(p []byte) (int, error) {
	n, err := t.port.ReadTimeout(p, t.timeout)
	if err != nil {
		if errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, syscall.EAGAIN) ||
			errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, ErrTimeout
		}
		return 0, &TransportError{Op: "read", Err: err}
	}
	if n == 0 {
		// A readable fd delivering zero bytes means the device is gone.
		return 0, &TransportError{Op: "read", Err: io.EOF}
	}
	return n, nil
}

func (t *serialTransport) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	t.timeout = d
}

func (t *serialTransport) Flush() error {
	if err := t.port.Flush(serial.TCIFLUSH); err != nil {
		return &TransportError{Op: "flush", Err: err}
	}
	return nil
}

func (t *serialTransport) Close() error {
	return t.port.Close()
}
