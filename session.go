package sa430

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// session runs request transactions over one transport. It owns the receive
// state machine and a small read buffer; neither is safe for concurrent
// use. One transaction is in flight at a time.
type session struct {
	t   Transport
	p   parser
	buf [256]byte
	// pending holds bytes already read into buf but not yet fed to p.
	pending []byte
	log     LogPrintf
}

// send resets the receive machine and writes one request frame.
func (s *session) send(req Frame) error {
	p, err := req.MarshalBinary()
	if err != nil {
		return err
	}
	s.p.reset()
	s.pending = nil
	if s.log != nil {
		s.log("-> %v % X", req.Cmd, req.Data)
	}
	_, err = s.t.Write(p)
	return err
}

// next drives the state machine from transport reads until a frame or an
// error event is produced. A timeout aborts the transaction: inbound bytes
// are flushed and the machine reset so the next request starts clean.
// Bytes read past the end of the returned frame stay pending for the next
// call.
func (s *session) next() (*Frame, error) {
	for {
		if len(s.pending) == 0 {
			n, err := s.t.Read(s.buf[:])
			if err != nil {
				if errors.Is(err, ErrTimeout) {
					s.t.Flush()
					s.p.reset()
				}
				return nil, err
			}
			s.pending = s.buf[:n]
		}
		for len(s.pending) > 0 {
			b := s.pending[0]
			s.pending = s.pending[1:]
			f, ferr := s.p.feed(b)
			if ferr != nil {
				return nil, ferr
			}
			if f != nil {
				if s.log != nil {
					s.log("<- %v % X", f.Cmd, f.Data)
				}
				return f, nil
			}
		}
	}
}

// roundTrip executes one transaction. The first frame back classifies it:
// an empty frame echoing the request command is the ACK, a GET_LAST_ERROR
// frame with a two-byte payload is the NACK. When wantData is set, the
// payload arrives in a follow-up frame carrying the request command.
func (s *session) roundTrip(req Frame, wantData bool) (*Frame, error) {
	if err := s.send(req); err != nil {
		return nil, err
	}
	f, err := s.next()
	if err != nil {
		return nil, err
	}
	if code, ok := nackCode(req.Cmd, f); ok {
		return nil, &ProtocolError{Cmd: req.Cmd, Code: code}
	}
	if f.Cmd != req.Cmd || len(f.Data) != 0 {
		return nil, &FrameError{Reason: fmt.Sprintf("expected ack for %v, got %v with %d data bytes",
			req.Cmd, f.Cmd, len(f.Data))}
	}
	if !wantData {
		return nil, nil
	}
	f, err = s.next()
	if err != nil {
		return nil, err
	}
	if code, ok := nackCode(req.Cmd, f); ok {
		return nil, &ProtocolError{Cmd: req.Cmd, Code: code}
	}
	if f.Cmd != req.Cmd || len(f.Data) == 0 {
		return nil, &FrameError{Reason: fmt.Sprintf("expected %v payload, got %v with %d data bytes",
			req.Cmd, f.Cmd, len(f.Data))}
	}
	return f, nil
}

// nackCode recognizes a NACK frame. A GET_LAST_ERROR request legitimately
// receives a GET_LAST_ERROR payload, so it is exempt.
func nackCode(reqCmd Command, f *Frame) (ErrorCode, bool) {
	if reqCmd != CmdGetLastError && f.Cmd == CmdGetLastError && len(f.Data) == 2 {
		return ErrorCode(binary.BigEndian.Uint16(f.Data)), true
	}
	return 0, false
}
