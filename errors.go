package sa430

import (
	"errors"
	"fmt"
)

// ErrorCode is a device status code carried by GET_LAST_ERROR replies.
type ErrorCode uint16

const (
	ErrNoError ErrorCode = 0x0000

	ErrCmdUnknown          ErrorCode = 0x0101
	ErrCmdInvalidParameter ErrorCode = 0x0102
	ErrCmdBufferOverflow   ErrorCode = 0x0103

	ErrFlashAddress ErrorCode = 0x0201
	ErrFlashLocked  ErrorCode = 0x0202
	ErrFlashVerify  ErrorCode = 0x0203

	ErrRxBufferOverflow ErrorCode = 0x0321
	ErrWrongFrameLength ErrorCode = 0x0325
	ErrWrongCrcHighByte ErrorCode = 0x0328
	ErrWrongCrcLowByte  ErrorCode = 0x0329

	ErrSpecNotInitialized ErrorCode = 0x0401
	ErrSpecOutOfRange     ErrorCode = 0x0402
)

func (e ErrorCode) String() string {
	switch e {
	case ErrNoError:
		return "ERR_NO_ERROR"
	case ErrCmdUnknown:
		return "ERR_CMD_UNKNOWN"
	case ErrCmdInvalidParameter:
		return "ERR_CMD_INVALID_PARAMETER"
	case ErrCmdBufferOverflow:
		return "ERR_CMD_BUFFER_OVERFLOW"
	case ErrFlashAddress:
		return "ERR_FLASH_ADDRESS"
	case ErrFlashLocked:
		return "ERR_FLASH_LOCKED"
	case ErrFlashVerify:
		return "ERR_FLASH_VERIFY"
	case ErrRxBufferOverflow:
		return "ERR_RX_BUFFER_OVERFLOW"
	case ErrWrongFrameLength:
		return "ERR_WRONG_FRAME_LENGTH"
	case ErrWrongCrcHighByte:
		return "ERR_WRONG_CRC_HIGH_BYTE"
	case ErrWrongCrcLowByte:
		return "ERR_WRONG_CRC_LOW_BYTE"
	case ErrSpecNotInitialized:
		return "ERR_SPEC_NOT_INITIALIZED"
	case ErrSpecOutOfRange:
		return "ERR_SPEC_OUT_OF_RANGE"
	}
	return fmt.Sprintf("ERR_%04X", uint16(e))
}

// ErrTimeout reports an expired transaction deadline. The underlying
// transport wait error, if any, has already been flushed away with the
// inbound buffer.
var ErrTimeout = errors.New("sa430: timeout")

// ErrInvalidArgument reports an out-of-band frequency, an oversized payload
// or a similar caller mistake, detected before anything is written to the
// device.
var ErrInvalidArgument = errors.New("sa430: invalid argument")

// TransportError wraps an I/O failure of the underlying byte stream. It is
// distinct from protocol NACKs so callers can tell a dead cable from an
// unhappy device.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "sa430: transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FrameError reports malformed framing or a CRC mismatch observed while
// receiving.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return "sa430: frame: " + e.Reason
}

// ProtocolError is a device NACK: the analyzer answered a request with
// GET_LAST_ERROR carrying a status code.
type ProtocolError struct {
	Cmd  Command
	Code ErrorCode
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("sa430: %v rejected: %v", e.Cmd, e.Code)
}

// UnsupportedDeviceError reports a device that failed the version or
// identity checks during initialization.
type UnsupportedDeviceError struct {
	Reason string
}

func (e *UnsupportedDeviceError) Error() string {
	return "sa430: unsupported device: " + e.Reason
}

// CalibrationError reports a flash calibration image that did not validate.
type CalibrationError struct {
	Reason string
}

func (e *CalibrationError) Error() string {
	return "sa430: calibration: " + e.Reason
}

// MeasurementError reports a sweep that terminated with a non-zero status,
// or one whose sample stream did not cover the configured grid.
type MeasurementError struct {
	Code   ErrorCode
	Reason string
}

func (e *MeasurementError) Error() string {
	if e.Reason != "" {
		return "sa430: measurement: " + e.Reason
	}
	return fmt.Sprintf("sa430: measurement failed: %v", e.Code)
}
