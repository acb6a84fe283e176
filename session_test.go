package sa430

import (
	"errors"
	"testing"
	"time"
)

// scriptTransport replays canned response bytes and records writes.
type scriptTransport struct {
	rx      []byte
	written [][]byte
	flushed int
}

func (s *scriptTransport) Write(p []byte) (int, error) {
	s.written = append(s.written, append([]byte(nil), p...))
	return len(p), nil
}

func (s *scriptTransport) Read(p []byte) (int, error) {
	if len(s.rx) == 0 {
		return 0, ErrTimeout
	}
	n := copy(p, s.rx)
	s.rx = s.rx[n:]
	return n, nil
}

func (s *scriptTransport) SetTimeout(time.Duration) {}

func (s *scriptTransport) Flush() error {
	s.flushed++
	s.rx = nil
	return nil
}

func (s *scriptTransport) Close() error { return nil }

func script(t *testing.T, frames ...Frame) *scriptTransport {
	t.Helper()
	st := &scriptTransport{}
	for _, f := range frames {
		p, err := f.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		st.rx = append(st.rx, p...)
	}
	return st
}

func TestSessionAck(t *testing.T) {
	st := script(t, Frame{Cmd: CmdBlinkLED})
	s := session{t: st}
	req, _ := NewFrame(CmdBlinkLED, nil)
	if _, err := s.roundTrip(req, false); err != nil {
		t.Fatal(err)
	}
	if len(st.written) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(st.written))
	}
}

func TestSessionNack(t *testing.T) {
	st := script(t, Frame{Cmd: CmdGetLastError, Data: []byte{0x03, 0x29}})
	s := session{t: st}
	req, _ := NewFrame(CmdSetGain, []byte{0x80})
	_, err := s.roundTrip(req, false)
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ProtocolError", err)
	}
	if pe.Code != ErrWrongCrcLowByte {
		t.Errorf("code = %v, want ERR_WRONG_CRC_LOW_BYTE", pe.Code)
	}
}

func TestSessionUnexpectedFrame(t *testing.T) {
	st := script(t, Frame{Cmd: CmdGetIdn})
	s := session{t: st}
	req, _ := NewFrame(CmdBlinkLED, nil)
	_, err := s.roundTrip(req, false)
	var fe *FrameError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FrameError", err)
	}
}

func TestSessionTimeoutFlushes(t *testing.T) {
	st := &scriptTransport{}
	s := session{t: st}
	req, _ := NewFrame(CmdBlinkLED, nil)
	if _, err := s.roundTrip(req, false); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if st.flushed != 1 {
		t.Errorf("flushed %d times, want 1", st.flushed)
	}
	if s.p.state != waitMagic {
		t.Error("parser not reset after timeout")
	}
}

func TestSessionDataResponse(t *testing.T) {
	st := script(t,
		Frame{Cmd: CmdGetCoreVer},
		Frame{Cmd: CmdGetCoreVer, Data: []byte{0x02, 0x09}},
	)
	s := session{t: st}
	req, _ := NewFrame(CmdGetCoreVer, nil)
	f, err := s.roundTrip(req, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Data) != 2 || f.Data[0] != 0x02 || f.Data[1] != 0x09 {
		t.Errorf("payload = % X", f.Data)
	}
}

func TestSessionSplitReads(t *testing.T) {
	// Frames arriving one byte per read must still assemble.
	full := script(t, Frame{Cmd: CmdBlinkLED})
	st := &oneByteTransport{inner: full}
	s := session{t: st}
	req, _ := NewFrame(CmdBlinkLED, nil)
	if _, err := s.roundTrip(req, false); err != nil {
		t.Fatal(err)
	}
}

type oneByteTransport struct {
	inner *scriptTransport
}

func (o *oneByteTransport) Write(p []byte) (int, error) { return o.inner.Write(p) }

func (o *oneByteTransport) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return o.inner.Read(p)
}

func (o *oneByteTransport) SetTimeout(d time.Duration) {}
func (o *oneByteTransport) Flush() error               { return o.inner.Flush() }
func (o *oneByteTransport) Close() error               { return nil }
