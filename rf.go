package sa430

import (
	"fmt"
	"math"
)

// The analyzer front end covers three Sub-1 GHz bands. Frequencies are
// carried as Hz in float64; register values are derived at transmit time.
type band struct {
	fStartHz float64
	fStopHz  float64
	bwMinHz  float64
	bwMaxHz  float64
}

var bands = [3]band{
	{300e6, 348e6, 0.1e6, 48e6},
	{389e6, 464e6, 0.1e6, 75e6},
	{779e6, 928e6, 0.1e6, 74.5e6},
}

// defaultXtalMHz is the crystal used for frequency compensation when no
// calibration image is loaded.
const defaultXtalMHz = 26.0

// compensate converts a target frequency to the register value the
// synthesizer needs, scaled by the calibrated crystal frequency.
func compensate(freqMHz, xtalMHz float64) uint32 {
	if xtalMHz <= 0 {
		xtalMHz = defaultXtalMHz
	}
	return uint32(math.Floor(freqMHz*65536/xtalMHz)) & 0x00FFFFFF
}

// rbwEntry pairs a resolution bandwidth with the channel-filter and IF
// register bytes that select it.
type rbwEntry struct {
	KHz   float64
	Reg   byte
	RegIF byte
}

// rbwTable is ordered narrowest first; the Easy-RF resolver scans it in
// order. Register bytes follow the radio's exponent/mantissa encoding for
// a 26 MHz reference.
var rbwTable = [16]rbwEntry{
	{58.0, 0xF0, 0x06},
	{67.7, 0xE0, 0x06},
	{81.3, 0xD0, 0x06},
	{101.6, 0xC0, 0x06},
	{116.1, 0xB0, 0x08},
	{135.4, 0xA0, 0x08},
	{162.5, 0x90, 0x08},
	{203.1, 0x80, 0x08},
	{232.1, 0x70, 0x0C},
	{270.8, 0x60, 0x0C},
	{325.0, 0x50, 0x0C},
	{406.3, 0x40, 0x0C},
	{464.3, 0x30, 0x10},
	{541.7, 0x20, 0x10},
	{650.0, 0x10, 0x10},
	{812.5, 0x00, 0x10},
}

// Easy-RF searches for a resolution bandwidth of at least minRBWStep times
// the requested step width, then caps the step at maxRBWStep times that
// bandwidth so adjacent bins overlap enough for a gap-free sweep. No lower
// bound is placed on the step.
const (
	minRBWStep = 0.1
	maxRBWStep = 0.5
)

// EasyRF is a resolved step-width/resolution-bandwidth pairing.
type EasyRF struct {
	FSWMHz   float64
	RBWKHz   float64
	RBWIndex int
}

// resolveEasyRF picks the narrowest bandwidth compatible with the requested
// step width, clamping the step when it would undersample the filter.
func resolveEasyRF(fswMHz float64) (EasyRF, error) {
	if fswMHz <= 0 {
		return EasyRF{}, fmt.Errorf("%w: frequency step %g MHz", ErrInvalidArgument, fswMHz)
	}
	target := fswMHz * minRBWStep
	idx := len(rbwTable) - 1
	for i, e := range rbwTable {
		if e.KHz/1000 >= target {
			idx = i
			break
		}
	}
	rbwMHz := rbwTable[idx].KHz / 1000
	if fswMHz > rbwMHz*maxRBWStep {
		fswMHz = rbwMHz * maxRBWStep
	}
	return EasyRF{FSWMHz: fswMHz, RBWKHz: rbwTable[idx].KHz, RBWIndex: idx}, nil
}

// refLevelGain maps a reference level in dBm to the gain register byte.
// The register values are not monotonic; the table is literal.
var refLevelGain = [8]struct {
	DBm  int8
	Gain byte
}{
	{-35, 128},
	{-40, 144},
	{-45, 145},
	{-50, 74},
	{-55, 12},
	{-60, 179},
	{-65, 44},
	{-70, 61},
}

// RefLevelDBm returns the reference level in dBm for a table index.
func RefLevelDBm(index int) (int8, error) {
	if index < 0 || index >= len(refLevelGain) {
		return 0, fmt.Errorf("%w: reference level index %d", ErrInvalidArgument, index)
	}
	return refLevelGain[index].DBm, nil
}

// RfSettings is the active sweep configuration. It is mutated only through
// the Device setters, which also bump the version used to key the
// correction cache.
type RfSettings struct {
	Range    int
	FStartHz float64
	FStopHz  float64
	FStepHz  float64
	RBWIndex int
	RefLevel int

	version uint64
}

// Points returns the number of samples the configured grid produces.
func (s RfSettings) Points() int {
	if s.FStepHz <= 0 || s.FStopHz <= s.FStartHz {
		return 0
	}
	return int(math.Floor((s.FStopHz-s.FStartHz)/s.FStepHz)) + 1
}

func rangeForStartStop(startHz, stopHz float64) (int, error) {
	for i, b := range bands {
		if startHz >= b.fStartHz && stopHz <= b.fStopHz {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %g..%g Hz outside all frequency ranges", ErrInvalidArgument, startHz, stopHz)
}

func validateSpan(rangeIdx int, startHz, stopHz, stepHz float64) error {
	if startHz >= stopHz {
		return fmt.Errorf("%w: start %g Hz not below stop %g Hz", ErrInvalidArgument, startHz, stopHz)
	}
	b := bands[rangeIdx]
	bw := stopHz - startHz
	if bw < b.bwMinHz || bw > b.bwMaxHz {
		return fmt.Errorf("%w: bandwidth %g Hz outside %g..%g Hz", ErrInvalidArgument, bw, b.bwMinHz, b.bwMaxHz)
	}
	if stepHz <= 0 || stepHz > bw {
		return fmt.Errorf("%w: frequency step %g Hz", ErrInvalidArgument, stepHz)
	}
	return nil
}
