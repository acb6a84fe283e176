package sa430

import (
	"encoding/binary"
	"time"
)

// Simulator speaks the analyzer's side of the protocol in process. It
// implements Transport, so a Device can run against it unchanged; tests
// and demos use it in place of hardware.
//
// The zero value is not usable; construct with NewSimulator.
type Simulator struct {
	// Identity served to the init sequence.
	IDN       string
	HWSerial  uint32
	CoreVer   uint16
	SpecVer   uint16
	LastError ErrorCode

	// Flash is the memory image served by FLASH_READ, addressed from
	// FlashBase.
	Flash     []byte
	FlashBase uint16

	// Samples is the raw byte stream one sweep delivers. SweepStatus is
	// the code the terminating status frame carries.
	Samples     []byte
	SweepStatus ErrorCode
	// SweepChunk bounds the payload of each sample frame.
	SweepChunk int

	// NackCode, when non-zero, makes the simulator reject every request.
	NackCode ErrorCode
	// CorruptCRC makes the simulator damage the CRC of its next response
	// frame, then clears itself.
	CorruptCRC bool

	// Reqs records every request frame received, in order.
	Reqs []Frame

	p   parser
	out []byte
}

// NewSimulator returns a simulator with a plausible device identity and an
// empty sweep.
func NewSimulator() *Simulator {
	return &Simulator{
		IDN:        "SA430 Spectrum Analyzer",
		HWSerial:   0x00010203,
		CoreVer:    0x0209,
		SpecVer:    0x0204,
		FlashBase:  calImageAddr,
		SweepChunk: 60,
	}
}

// Write consumes request bytes. Complete frames are handled immediately
// and their responses queued for Read.
func (s *Simulator) Write(p []byte) (int, error) {
	for _, b := range p {
		f, err := s.p.feed(b)
		if err != nil {
			s.respondStatus(ErrWrongCrcLowByte)
			continue
		}
		if f != nil {
			s.handle(*f)
		}
	}
	return len(p), nil
}

// Read drains queued response bytes. An empty queue reads as an expired
// deadline, which is what a silent device looks like to the session.
func (s *Simulator) Read(p []byte) (int, error) {
	if len(s.out) == 0 {
		return 0, ErrTimeout
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *Simulator) SetTimeout(time.Duration) {}

// Flush drops undelivered response bytes, as a port flush would.
func (s *Simulator) Flush() error {
	s.out = nil
	return nil
}

func (s *Simulator) Close() error { return nil }

func (s *Simulator) push(f Frame) {
	p, err := f.MarshalBinary()
	if err != nil {
		return
	}
	if s.CorruptCRC {
		p[len(p)-1] ^= 0xFF
		s.CorruptCRC = false
	}
	s.out = append(s.out, p...)
}

func (s *Simulator) ack(cmd Command) {
	s.push(Frame{Cmd: cmd})
}

func (s *Simulator) data(cmd Command, payload []byte) {
	s.push(Frame{Cmd: cmd, Data: payload})
}

func (s *Simulator) respondStatus(code ErrorCode) {
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], uint16(code))
	s.data(CmdGetLastError, p[:])
}

func (s *Simulator) handle(req Frame) {
	s.Reqs = append(s.Reqs, req)
	if s.NackCode != 0 {
		s.respondStatus(s.NackCode)
		return
	}
	switch req.Cmd {
	case CmdGetIdn:
		s.ack(req.Cmd)
		s.data(req.Cmd, append([]byte(s.IDN), 0))
	case CmdGetHWSerial:
		var p [4]byte
		binary.BigEndian.PutUint32(p[:], s.HWSerial)
		s.ack(req.Cmd)
		s.data(req.Cmd, p[:])
	case CmdGetCoreVer, CmdGetSpecVer:
		v := s.CoreVer
		if req.Cmd == CmdGetSpecVer {
			v = s.SpecVer
		}
		var p [2]byte
		binary.BigEndian.PutUint16(p[:], v)
		s.ack(req.Cmd)
		s.data(req.Cmd, p[:])
	case CmdGetLastError:
		s.ack(req.Cmd)
		s.respondStatus(s.LastError)
	case CmdFlashRead:
		if len(req.Data) != 4 {
			s.respondStatus(ErrCmdInvalidParameter)
			return
		}
		addr := binary.BigEndian.Uint16(req.Data[0:])
		size := int(binary.BigEndian.Uint16(req.Data[2:]))
		off := int(addr) - int(s.FlashBase)
		if off < 0 || off+size > len(s.Flash) {
			s.respondStatus(ErrFlashAddress)
			return
		}
		s.ack(req.Cmd)
		s.data(req.Cmd, s.Flash[off:off+size])
	case CmdGetSpecNoInit:
		s.ack(req.Cmd)
		chunk := s.SweepChunk
		if chunk <= 0 || chunk > maxPayload {
			chunk = maxPayload
		}
		for rest := s.Samples; len(rest) > 0; {
			n := chunk
			if n > len(rest) {
				n = len(rest)
			}
			s.data(req.Cmd, rest[:n])
			rest = rest[n:]
		}
		s.respondStatus(s.SweepStatus)
	case CmdBlinkLED, CmdHWReset, CmdInitParameter,
		CmdSetFStart, CmdSetFStop, CmdSetFStep,
		CmdSetRBW, CmdSetIF, CmdSetGain,
		CmdSetFrq, CmdSetDAC, CmdSync:
		s.ack(req.Cmd)
	default:
		s.respondStatus(ErrCmdUnknown)
	}
}
