package device

import (
	"math"
	"math/cmplx"
)

// signal is the time and frequency behaviour shared by independent sources.
// Without a waveform the source holds its DC value at every time point.
type signal struct {
	wave    Waveform
	acMag   float64
	acPhase float64 // degrees
}

func (s *signal) SetWaveform(w Waveform) { s.wave = w }

func (s *signal) Waveform() Waveform { return s.wave }

func (s *signal) HasWaveform() bool { return s.wave != nil }

func (s *signal) SetAC(mag, phase float64) {
	s.acMag = mag
	s.acPhase = phase
}

// Phasor returns the AC excitation as mag*exp(j*phase).
func (s *signal) Phasor() complex128 {
	return cmplx.Rect(s.acMag, s.acPhase*math.Pi/180.0)
}

func (s *signal) valueAt(dc, t float64) float64 {
	if s.wave == nil {
		return dc
	}
	return s.wave.Value(t)
}
