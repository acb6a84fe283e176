package sa430

import (
	"fmt"
	"time"
)

// LogPrintf receives wire-level trace output when set. The library is
// silent without it.
type LogPrintf func(format string, v ...interface{})

// Minimum firmware revisions the measurement pipeline is known to work
// with. 0xFFFF is blank flash.
const (
	minCoreVersion = 0x0209
	minSpecVersion = 0x0204
	blankVersion   = 0xFFFF
)

// Config carries optional Device settings.
type Config struct {
	// Timeout bounds each intra-transaction wait. Zero means
	// DefaultTimeout.
	Timeout time.Duration
	// Log, when set, receives a trace of every frame exchanged.
	Log LogPrintf
}

// Device is one attached analyzer. It exclusively owns its transport and
// session state; methods must not be called concurrently. Callers that
// need parallel sweeps use one Device per port.
type Device struct {
	t Transport
	s session

	idn      string
	hwSerial uint32
	coreVer  uint16
	specVer  uint16

	cal      *Calibration
	settings RfSettings
	beta     betaCache
}

// NewDevice wraps a transport. Call Init before measuring.
func NewDevice(t Transport, cfg *Config) *Device {
	d := &Device{t: t, s: session{t: t}}
	if cfg != nil {
		if cfg.Timeout > 0 {
			t.SetTimeout(cfg.Timeout)
		}
		d.s.log = cfg.Log
	}
	return d
}

// Open opens the named serial port and wraps it in a Device.
func Open(portName string, cfg *Config) (*Device, error) {
	t, err := OpenPort(portName)
	if err != nil {
		return nil, err
	}
	return NewDevice(t, cfg), nil
}

// Init identifies the analyzer, checks that the firmware is recent enough,
// and loads the calibration image. It must succeed before the RF setters
// and Sweep are used. Version and identity failures are fatal to the
// session.
func (d *Device) Init() error {
	var err error
	if d.coreVer, err = d.CoreVersion(); err != nil {
		return err
	}
	if d.coreVer < minCoreVersion || d.coreVer == blankVersion {
		return &UnsupportedDeviceError{Reason: fmt.Sprintf("core version 0x%04X, need at least 0x%04X", d.coreVer, minCoreVersion)}
	}
	if d.hwSerial, err = d.HardwareSerial(); err != nil {
		return err
	}
	if d.hwSerial == 0 {
		return &UnsupportedDeviceError{Reason: "empty hardware serial number"}
	}
	if d.idn, err = d.Identify(); err != nil {
		return err
	}
	if d.idn == "" {
		return &UnsupportedDeviceError{Reason: "empty identification string"}
	}
	if err = d.initParameter(); err != nil {
		return err
	}
	if d.specVer, err = d.SpecVersion(); err != nil {
		return err
	}
	if d.specVer < minSpecVersion || d.specVer == blankVersion {
		return &UnsupportedDeviceError{Reason: fmt.Sprintf("spectrum version 0x%04X, need at least 0x%04X", d.specVer, minSpecVersion)}
	}
	img, err := d.FlashRead(calImageAddr, calImageSize)
	if err != nil {
		return err
	}
	if d.cal, err = parseCalibration(img); err != nil {
		return err
	}
	return nil
}

// IDN returns the identification string read during Init.
func (d *Device) IDN() string { return d.idn }

// Serial returns the hardware serial number read during Init.
func (d *Device) Serial() uint32 { return d.hwSerial }

// Versions returns the core and spectrum firmware versions read during
// Init.
func (d *Device) Versions() (core, spec uint16) { return d.coreVer, d.specVer }

// Calibration returns the loaded calibration image, nil before Init.
func (d *Device) Calibration() *Calibration { return d.cal }

// Settings returns a copy of the active RF settings.
func (d *Device) Settings() RfSettings { return d.settings }

// Close releases the underlying transport.
func (d *Device) Close() error {
	return d.t.Close()
}

func (d *Device) xtalMHz() float64 {
	if d.cal == nil {
		return defaultXtalMHz
	}
	return d.cal.XtalFreqMHz()
}

// SetStartStop programs an explicit sweep grid. The span must fit one of
// the three bands and respect its bandwidth limits.
func (d *Device) SetStartStop(startHz, stopHz, stepHz float64) error {
	rangeIdx, err := rangeForStartStop(startHz, stopHz)
	if err != nil {
		return err
	}
	if err := validateSpan(rangeIdx, startHz, stopHz, stepHz); err != nil {
		return err
	}
	xtal := d.xtalMHz()
	if err := d.setFStart(compensate(startHz/1e6, xtal)); err != nil {
		return err
	}
	if err := d.setFStop(compensate(stopHz/1e6, xtal)); err != nil {
		return err
	}
	if err := d.setFStep(compensate(stepHz/1e6, xtal)); err != nil {
		return err
	}
	d.settings.Range = rangeIdx
	d.settings.FStartHz = startHz
	d.settings.FStopHz = stopHz
	d.settings.FStepHz = stepHz
	d.settings.version++
	return nil
}

// SetCenterSpan programs a sweep grid given center frequency and span.
func (d *Device) SetCenterSpan(centerHz, spanHz, stepHz float64) error {
	return d.SetStartStop(centerHz-spanHz/2, centerHz+spanHz/2, stepHz)
}

// SetEasyRF resolves a requested step width against the resolution
// bandwidth table, programs the filter, and returns the adjusted pairing.
// The returned step width is what SetStartStop should be called with.
func (d *Device) SetEasyRF(fswMHz float64) (EasyRF, error) {
	rf, err := resolveEasyRF(fswMHz)
	if err != nil {
		return EasyRF{}, err
	}
	e := rbwTable[rf.RBWIndex]
	if err := d.setRBW(e.Reg); err != nil {
		return EasyRF{}, err
	}
	if err := d.setIF(e.RegIF); err != nil {
		return EasyRF{}, err
	}
	d.settings.RBWIndex = rf.RBWIndex
	d.settings.version++
	return rf, nil
}

// SetRefLevel programs the input gain for a reference level index and
// records the index for sample correction.
func (d *Device) SetRefLevel(index int) error {
	if index < 0 || index >= len(refLevelGain) {
		return fmt.Errorf("%w: reference level index %d", ErrInvalidArgument, index)
	}
	if err := d.setGain(refLevelGain[index].Gain); err != nil {
		return err
	}
	d.settings.RefLevel = index
	d.settings.version++
	return nil
}
