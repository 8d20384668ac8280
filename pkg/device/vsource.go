package device

import (
	"fmt"

	"github.com/edp1096/mnaspice/pkg/matrix"
)

type VoltageSource struct {
	BaseDevice
	signal
	branchIdx int
}

var (
	_ VoltageDefined = (*VoltageSource)(nil)
	_ Source         = (*VoltageSource)(nil)
)

func NewVoltageSource(name string, nodeNames []string, value float64) (*VoltageSource, error) {
	base, err := newBaseDevice(name, value, nodeNames, 2)
	if err != nil {
		return nil, err
	}
	return &VoltageSource{BaseDevice: base}, nil
}

// NewWaveformVoltageSource takes its DC value from the waveform at t=0.
func NewWaveformVoltageSource(name string, nodeNames []string, w Waveform) (*VoltageSource, error) {
	v, err := NewVoltageSource(name, nodeNames, w.Value(0))
	if err != nil {
		return nil, err
	}
	v.SetWaveform(w)
	return v, nil
}

func (v *VoltageSource) GetType() string { return "V" }
func (v *VoltageSource) Kind() Kind      { return KindVoltageSource }

func (v *VoltageSource) SetValue(value float64) { v.Value = value }

func (v *VoltageSource) TimeValue(t float64) float64 { return v.valueAt(v.Value, t) }

func (v *VoltageSource) Stamp(matrix matrix.DeviceMatrix) error {
	n1, n2 := v.Nodes[0], v.Nodes[1]
	bIdx := v.branchIdx
	if bIdx <= 0 {
		return fmt.Errorf("voltage source %s: branch index not assigned", v.Name)
	}

	// v1 - v2 = V, branch current enters the source at n1
	stampBranch(matrix, n1, n2, bIdx)

	v.StampValue(matrix, v.Value)

	ac := v.Phasor()
	matrix.AddComplexRHS(bIdx, real(ac), imag(ac))
	return nil
}

func (v *VoltageSource) StampValue(matrix matrix.DeviceMatrix, value float64) {
	matrix.AddRHS(v.branchIdx, value)
}

func (v *VoltageSource) BranchIndex() int {
	return v.branchIdx
}

func (v *VoltageSource) SetBranchIndex(idx int) {
	v.branchIdx = idx
}
