package device

import (
	"github.com/edp1096/mnaspice/pkg/matrix"
)

// CurrentSource drives its current from the positive node through the
// source to the negative node.
type CurrentSource struct {
	BaseDevice
	signal
}

var _ Source = (*CurrentSource)(nil)

func NewCurrentSource(name string, nodeNames []string, value float64) (*CurrentSource, error) {
	base, err := newBaseDevice(name, value, nodeNames, 2)
	if err != nil {
		return nil, err
	}
	return &CurrentSource{BaseDevice: base}, nil
}

func NewWaveformCurrentSource(name string, nodeNames []string, w Waveform) (*CurrentSource, error) {
	i, err := NewCurrentSource(name, nodeNames, w.Value(0))
	if err != nil {
		return nil, err
	}
	i.SetWaveform(w)
	return i, nil
}

func (i *CurrentSource) GetType() string { return "I" }
func (i *CurrentSource) Kind() Kind      { return KindCurrentSource }

func (i *CurrentSource) SetValue(value float64) { i.Value = value }

func (i *CurrentSource) TimeValue(t float64) float64 { return i.valueAt(i.Value, t) }

func (i *CurrentSource) Stamp(matrix matrix.DeviceMatrix) error {
	i.StampValue(matrix, i.Value)

	n1, n2 := i.Nodes[0], i.Nodes[1]
	ac := i.Phasor()
	matrix.AddComplexRHS(n1, -real(ac), -imag(ac))
	matrix.AddComplexRHS(n2, real(ac), imag(ac))
	return nil
}

func (i *CurrentSource) StampValue(matrix matrix.DeviceMatrix, value float64) {
	n1, n2 := i.Nodes[0], i.Nodes[1]
	matrix.AddRHS(n1, -value)
	matrix.AddRHS(n2, value)
}
