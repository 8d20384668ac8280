package device

import (
	"fmt"

	"github.com/edp1096/mnaspice/pkg/matrix"
)

// VCCS drives gain*(v(cp)-v(cn)) from n+ to n-.
type VCCS struct {
	BaseDevice
}

func NewVCCS(name string, nodeNames []string, gain float64) (*VCCS, error) {
	base, err := newBaseDevice(name, gain, nodeNames, 4)
	if err != nil {
		return nil, err
	}
	return &VCCS{BaseDevice: base}, nil
}

func (g *VCCS) GetType() string { return "G" }
func (g *VCCS) Kind() Kind      { return KindVCCS }

func (g *VCCS) Stamp(matrix matrix.DeviceMatrix) error {
	np, nn, cp, cn := g.Nodes[0], g.Nodes[1], g.Nodes[2], g.Nodes[3]

	matrix.AddElement(np, cp, g.Value)
	matrix.AddElement(np, cn, -g.Value)
	matrix.AddElement(nn, cp, -g.Value)
	matrix.AddElement(nn, cn, g.Value)
	return nil
}

// VCVS holds v(n+)-v(n-) = gain*(v(cp)-v(cn)).
type VCVS struct {
	BaseDevice
	branchIdx int
}

var _ VoltageDefined = (*VCVS)(nil)

func NewVCVS(name string, nodeNames []string, gain float64) (*VCVS, error) {
	base, err := newBaseDevice(name, gain, nodeNames, 4)
	if err != nil {
		return nil, err
	}
	return &VCVS{BaseDevice: base}, nil
}

func (e *VCVS) GetType() string { return "E" }
func (e *VCVS) Kind() Kind      { return KindVCVS }

func (e *VCVS) Stamp(matrix matrix.DeviceMatrix) error {
	np, nn, cp, cn := e.Nodes[0], e.Nodes[1], e.Nodes[2], e.Nodes[3]
	bIdx := e.branchIdx
	if bIdx <= 0 {
		return fmt.Errorf("vcvs %s: branch index not assigned", e.Name)
	}

	stampBranch(matrix, np, nn, bIdx)
	matrix.AddElement(bIdx, cp, -e.Value)
	matrix.AddElement(bIdx, cn, e.Value)
	return nil
}

func (e *VCVS) BranchIndex() int       { return e.branchIdx }
func (e *VCVS) SetBranchIndex(idx int) { e.branchIdx = idx }

// CCVS holds v(n+)-v(n-) = r*i(control), where control names a voltage-defined element.
type CCVS struct {
	BaseDevice
	control    string
	controlIdx int
	branchIdx  int
}

var (
	_ VoltageDefined    = (*CCVS)(nil)
	_ CurrentControlled = (*CCVS)(nil)
)

func NewCCVS(name string, nodeNames []string, control string, r float64) (*CCVS, error) {
	base, err := newBaseDevice(name, r, nodeNames, 2)
	if err != nil {
		return nil, err
	}
	if control == "" {
		return nil, fmt.Errorf("%w: ccvs %s needs a controlling element", ErrInvalidValue, name)
	}
	return &CCVS{BaseDevice: base, control: control}, nil
}

func (h *CCVS) GetType() string { return "H" }
func (h *CCVS) Kind() Kind      { return KindCCVS }

func (h *CCVS) Stamp(matrix matrix.DeviceMatrix) error {
	np, nn := h.Nodes[0], h.Nodes[1]
	bIdx := h.branchIdx
	if bIdx <= 0 || h.controlIdx <= 0 {
		return fmt.Errorf("ccvs %s: branch indices not assigned", h.Name)
	}

	stampBranch(matrix, np, nn, bIdx)
	matrix.AddElement(bIdx, h.controlIdx, -h.Value)
	return nil
}

func (h *CCVS) BranchIndex() int         { return h.branchIdx }
func (h *CCVS) SetBranchIndex(idx int)   { h.branchIdx = idx }
func (h *CCVS) ControlName() string      { return h.control }
func (h *CCVS) SetControlBranch(idx int) { h.controlIdx = idx }

// CCCS drives gain*i(control) from n+ to n-.
type CCCS struct {
	BaseDevice
	control    string
	controlIdx int
}

var _ CurrentControlled = (*CCCS)(nil)

func NewCCCS(name string, nodeNames []string, control string, gain float64) (*CCCS, error) {
	base, err := newBaseDevice(name, gain, nodeNames, 2)
	if err != nil {
		return nil, err
	}
	if control == "" {
		return nil, fmt.Errorf("%w: cccs %s needs a controlling element", ErrInvalidValue, name)
	}
	return &CCCS{BaseDevice: base, control: control}, nil
}

func (f *CCCS) GetType() string { return "F" }
func (f *CCCS) Kind() Kind      { return KindCCCS }

func (f *CCCS) Stamp(matrix matrix.DeviceMatrix) error {
	np, nn := f.Nodes[0], f.Nodes[1]
	if f.controlIdx <= 0 {
		return fmt.Errorf("cccs %s: controlling branch not assigned", f.Name)
	}

	matrix.AddElement(np, f.controlIdx, f.Value)
	matrix.AddElement(nn, f.controlIdx, -f.Value)
	return nil
}

func (f *CCCS) ControlName() string      { return f.control }
func (f *CCCS) SetControlBranch(idx int) { f.controlIdx = idx }

// stampBranch writes the KCL coupling of a branch current and the
// v(np)-v(nn) part of its KVL row.
func stampBranch(matrix matrix.DeviceMatrix, np, nn, bIdx int) {
	matrix.AddElement(np, bIdx, 1)
	matrix.AddElement(nn, bIdx, -1)
	matrix.AddElement(bIdx, np, 1)
	matrix.AddElement(bIdx, nn, -1)
}
