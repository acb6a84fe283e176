package sa430

import (
	"encoding/binary"
	"fmt"
)

// Point is one calibrated spectrum sample.
type Point struct {
	FrequencyHz float64
	PowerDBm    float64
}

// betaCache holds the correction polynomial evaluated over the sweep grid.
// It is keyed by the settings version, so any RF setter invalidates it.
type betaCache struct {
	version uint64
	valid   bool
	values  []float64
}

func (c *betaCache) invalidateIfStale(version uint64) {
	if c.version != version {
		c.valid = false
		c.values = nil
		c.version = version
	}
}

// horner evaluates Σ coeffs[i]·x^i.
func horner(coeffs [8]float64, x float64) float64 {
	v := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

// betaTable returns the per-bin correction values for the current settings,
// regenerating on a version miss.
func (d *Device) betaTable() ([]float64, error) {
	d.beta.invalidateIfStale(d.settings.version)
	if d.beta.valid {
		return d.beta.values, nil
	}
	gain, err := d.cal.FrequencyGainFor(d.settings.Range, d.settings.RefLevel)
	if err != nil {
		return nil, err
	}
	n := d.settings.Points()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		fMHz := (d.settings.FStartHz + float64(i)*d.settings.FStepHz) / 1e6
		values[i] = horner(gain.Coeffs, fMHz)
	}
	d.beta.values = values
	d.beta.valid = true
	return values, nil
}

// Sweep runs one measurement cycle. It streams sample frames until the
// device reports its final status, then corrects the raw samples into
// dBm-vs-Hz points over the configured grid.
func (d *Device) Sweep() ([]Point, error) {
	if d.cal == nil {
		return nil, &MeasurementError{Reason: "device not initialized"}
	}
	n := d.settings.Points()
	if n == 0 {
		return nil, fmt.Errorf("%w: sweep grid not configured", ErrInvalidArgument)
	}
	beta, err := d.betaTable()
	if err != nil {
		return nil, err
	}

	req, err := NewFrame(CmdGetSpecNoInit, nil)
	if err != nil {
		return nil, err
	}
	if err := d.s.send(req); err != nil {
		return nil, err
	}
	f, err := d.s.next()
	if err != nil {
		return nil, err
	}
	if f.Cmd != CmdGetSpecNoInit || len(f.Data) != 0 {
		if code, ok := nackCode(CmdGetSpecNoInit, f); ok {
			return nil, &ProtocolError{Cmd: CmdGetSpecNoInit, Code: code}
		}
		return nil, &FrameError{Reason: fmt.Sprintf("expected sweep ack, got %v with %d data bytes", f.Cmd, len(f.Data))}
	}

	// Sample frames arrive in order until the status frame terminates the
	// sweep.
	var samples []byte
	for {
		f, err := d.s.next()
		if err != nil {
			return nil, err
		}
		switch {
		case f.Cmd == CmdGetSpecNoInit && len(f.Data) > 0:
			samples = append(samples, f.Data...)
		case f.Cmd == CmdGetLastError && len(f.Data) == 2:
			code := ErrorCode(binary.BigEndian.Uint16(f.Data))
			if code != ErrNoError {
				return nil, &MeasurementError{Code: code}
			}
			return d.correct(samples, beta, n)
		default:
			return nil, &FrameError{Reason: fmt.Sprintf("unexpected %v frame with %d data bytes during sweep", f.Cmd, len(f.Data))}
		}
	}
}

func (d *Device) correct(samples []byte, beta []float64, n int) ([]Point, error) {
	if len(samples) < n {
		return nil, &MeasurementError{Reason: fmt.Sprintf("sweep delivered %d samples, want %d", len(samples), n)}
	}
	points := make([]Point, n)
	for i := 0; i < n; i++ {
		points[i] = Point{
			FrequencyHz: d.settings.FStartHz + float64(i)*d.settings.FStepHz,
			PowerDBm:    float64(samples[i])/2 - beta[i],
		}
	}
	return points, nil
}
