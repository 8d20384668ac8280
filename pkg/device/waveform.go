package device

import (
	"fmt"
	"math"
)

// Waveform is a time-dependent source value.
type Waveform interface {
	Value(t float64) float64
}

// Sin is offset + amplitude*exp(-damping*(t-delay))*sin(2*pi*freq*(t-delay) + phase).
// Phase is in degrees.
type Sin struct {
	Offset    float64
	Amplitude float64
	Freq      float64
	Delay     float64
	Damping   float64
	Phase     float64
}

func (s Sin) Value(t float64) float64 {
	phaseRad := s.Phase * math.Pi / 180.0
	if t < s.Delay {
		return s.Offset + s.Amplitude*math.Sin(phaseRad)
	}
	t -= s.Delay
	return s.Offset + s.Amplitude*math.Exp(-s.Damping*t)*math.Sin(2.0*math.Pi*s.Freq*t+phaseRad)
}

type Pulse struct {
	V1     float64
	V2     float64
	Delay  float64
	Rise   float64
	Fall   float64
	Width  float64
	Period float64
}

func (p Pulse) Value(t float64) float64 {
	if t < p.Delay {
		return p.V1
	}

	t = t - p.Delay
	if p.Period > 0 {
		t = math.Mod(t, p.Period)
	}

	if t < p.Rise {
		return p.V1 + (p.V2-p.V1)*t/p.Rise
	}

	if t < p.Rise+p.Width {
		return p.V2
	}

	fallStart := p.Rise + p.Width
	if t < fallStart+p.Fall {
		return p.V2 - (p.V2-p.V1)*(t-fallStart)/p.Fall
	}

	return p.V1
}

// PWL interpolates linearly between (time, value) points and holds the end values.
type PWL struct {
	Times  []float64
	Values []float64
}

func NewPWL(times, values []float64) (PWL, error) {
	if len(times) == 0 || len(times) != len(values) {
		return PWL{}, fmt.Errorf("%w: pwl needs matching time/value pairs", ErrInvalidValue)
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return PWL{}, fmt.Errorf("%w: pwl times must increase (%g after %g)", ErrInvalidValue, times[i], times[i-1])
		}
	}
	return PWL{Times: times, Values: values}, nil
}

func (p PWL) Value(t float64) float64 {
	if t <= p.Times[0] {
		return p.Values[0]
	}

	lastIdx := len(p.Times) - 1
	if t >= p.Times[lastIdx] {
		return p.Values[lastIdx]
	}

	for i := 1; i < len(p.Times); i++ {
		if t <= p.Times[i] {
			t1, t2 := p.Times[i-1], p.Times[i]
			v1, v2 := p.Values[i-1], p.Values[i]
			return v1 + (v2-v1)*(t-t1)/(t2-t1)
		}
	}

	return p.Values[lastIdx]
}

// Exp rises from V1 towards V2 after Delay1 with Tau1, then decays back after
// Delay2 with Tau2.
type Exp struct {
	V1     float64
	V2     float64
	Delay1 float64
	Tau1   float64
	Delay2 float64
	Tau2   float64
}

func (e Exp) Value(t float64) float64 {
	v := e.V1
	if t > e.Delay1 && e.Tau1 > 0 {
		v += (e.V2 - e.V1) * (1 - math.Exp(-(t-e.Delay1)/e.Tau1))
	}
	if t > e.Delay2 && e.Tau2 > 0 {
		v += (e.V1 - e.V2) * (1 - math.Exp(-(t-e.Delay2)/e.Tau2))
	}
	return v
}
