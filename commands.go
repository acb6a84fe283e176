package sa430

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ack runs a transaction for a command that answers with a bare ACK.
func (d *Device) ack(cmd Command, payload []byte) error {
	req, err := NewFrame(cmd, payload)
	if err != nil {
		return err
	}
	_, err = d.s.roundTrip(req, false)
	return err
}

// query runs a transaction for a command that answers with one payload
// frame.
func (d *Device) query(cmd Command, payload []byte) ([]byte, error) {
	req, err := NewFrame(cmd, payload)
	if err != nil {
		return nil, err
	}
	f, err := d.s.roundTrip(req, true)
	if err != nil {
		return nil, err
	}
	return f.Data, nil
}

// Identify reads the analyzer's identification string.
func (d *Device) Identify() (string, error) {
	data, err := d.query(CmdGetIdn, nil)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data), nil
}

// HardwareSerial reads the hardware serial number.
func (d *Device) HardwareSerial() (uint32, error) {
	data, err := d.query(CmdGetHWSerial, nil)
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, &FrameError{Reason: fmt.Sprintf("hardware serial payload is %d bytes, want 4", len(data))}
	}
	return binary.BigEndian.Uint32(data), nil
}

// CoreVersion reads the firmware core version.
func (d *Device) CoreVersion() (uint16, error) {
	return d.queryU16(CmdGetCoreVer)
}

// SpecVersion reads the spectrum measurement engine version.
func (d *Device) SpecVersion() (uint16, error) {
	return d.queryU16(CmdGetSpecVer)
}

func (d *Device) queryU16(cmd Command) (uint16, error) {
	data, err := d.query(cmd, nil)
	if err != nil {
		return 0, err
	}
	if len(data) != 2 {
		return 0, &FrameError{Reason: fmt.Sprintf("%v payload is %d bytes, want 2", cmd, len(data))}
	}
	return binary.BigEndian.Uint16(data), nil
}

// LastError reads the device's last error register.
func (d *Device) LastError() (ErrorCode, error) {
	data, err := d.query(CmdGetLastError, nil)
	if err != nil {
		return 0, err
	}
	if len(data) != 2 {
		return 0, &FrameError{Reason: fmt.Sprintf("error register payload is %d bytes, want 2", len(data))}
	}
	return ErrorCode(binary.BigEndian.Uint16(data)), nil
}

// BlinkLED makes the analyzer blink its LED, to pick one device out of
// several.
func (d *Device) BlinkLED() error {
	return d.ack(CmdBlinkLED, nil)
}

// HWReset restarts the analyzer firmware.
func (d *Device) HWReset() error {
	return d.ack(CmdHWReset, nil)
}

// flashReadChunk is the largest FLASH_READ slice a single frame can carry.
const flashReadChunk = 255

// FlashRead reads size bytes of device flash starting at addr. Reads larger
// than one frame payload are split into sequential sub-transactions and the
// results concatenated; any failing sub-read aborts the whole read.
func (d *Device) FlashRead(addr uint16, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: flash read of %d bytes", ErrInvalidArgument, size)
	}
	out := make([]byte, 0, size)
	for size > 0 {
		n := size
		if n > flashReadChunk {
			n = flashReadChunk
		}
		var req [4]byte
		binary.BigEndian.PutUint16(req[0:], addr)
		binary.BigEndian.PutUint16(req[2:], uint16(n))
		data, err := d.query(CmdFlashRead, req[:])
		if err != nil {
			return nil, err
		}
		if len(data) != n {
			return nil, &FrameError{Reason: fmt.Sprintf("flash read returned %d bytes, want %d", len(data), n)}
		}
		out = append(out, data...)
		addr += uint16(n)
		size -= n
	}
	return out, nil
}

// RawCommand sends a command whose payload the library does not interpret
// (SET_FRQ, SET_DAC, FLASH_WRITE, FLASH_ERASE, SYNC, GET_CHIP_TLV and
// friends). With wantData the reply payload is returned verbatim.
func (d *Device) RawCommand(cmd Command, payload []byte, wantData bool) ([]byte, error) {
	if !wantData {
		return nil, d.ack(cmd, payload)
	}
	return d.query(cmd, payload)
}

// Frequency register setters. Values are the crystal-compensated register
// words, masked to the width the wire format carries.

func (d *Device) setFStart(reg uint32) error {
	var p [3]byte
	p[0] = byte(reg >> 16)
	p[1] = byte(reg >> 8)
	p[2] = byte(reg)
	return d.ack(CmdSetFStart, p[:])
}

func (d *Device) setFStop(reg uint32) error {
	var p [3]byte
	p[0] = byte(reg >> 16)
	p[1] = byte(reg >> 8)
	p[2] = byte(reg)
	return d.ack(CmdSetFStop, p[:])
}

func (d *Device) setFStep(reg uint32) error {
	var p [2]byte
	binary.BigEndian.PutUint16(p[:], uint16(reg))
	return d.ack(CmdSetFStep, p[:])
}

func (d *Device) setRBW(reg byte) error {
	return d.ack(CmdSetRBW, []byte{reg})
}

func (d *Device) setIF(reg byte) error {
	return d.ack(CmdSetIF, []byte{reg})
}

func (d *Device) setGain(reg byte) error {
	return d.ack(CmdSetGain, []byte{reg})
}

// initParameter resets the measurement engine for a new sweep setup.
func (d *Device) initParameter() error {
	return d.ack(CmdInitParameter, nil)
}
