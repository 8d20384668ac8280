package device

import (
	"fmt"

	"github.com/edp1096/mnaspice/pkg/matrix"
)

type Inductor struct {
	BaseDevice
	branchIdx int
}

var _ VoltageDefined = (*Inductor)(nil)

func NewInductor(name string, nodeNames []string, value float64) (*Inductor, error) {
	if value == 0 {
		return nil, fmt.Errorf("%w: inductor %s has zero inductance", ErrInvalidValue, name)
	}
	base, err := newBaseDevice(name, value, nodeNames, 2)
	if err != nil {
		return nil, err
	}
	return &Inductor{BaseDevice: base}, nil
}

func (l *Inductor) GetType() string { return "L" }
func (l *Inductor) Kind() Kind      { return KindInductor }

// Stamp writes v1 - v2 - L di/dt = 0 on the branch row.
func (l *Inductor) Stamp(matrix matrix.DeviceMatrix) error {
	n1, n2 := l.Nodes[0], l.Nodes[1]
	bIdx := l.branchIdx
	if bIdx <= 0 {
		return fmt.Errorf("inductor %s: branch index not assigned", l.Name)
	}

	stampBranch(matrix, n1, n2, bIdx)
	matrix.AddDynamic(bIdx, bIdx, -l.Value)

	return nil
}

func (l *Inductor) BranchIndex() int {
	return l.branchIdx
}

func (l *Inductor) SetBranchIndex(idx int) {
	l.branchIdx = idx
}
