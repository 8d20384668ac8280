package device

import (
	"fmt"
	"math"

	"github.com/edp1096/mnaspice/pkg/matrix"
)

// Mutual couples two inductors with M = k*sqrt(L1*L2).
type Mutual struct {
	BaseDevice
	names       [2]string
	inductors   [2]*Inductor
	coefficient float64
}

func NewMutual(name string, ind1, ind2 string, k float64) (*Mutual, error) {
	if k == 0 || k < -1 || k > 1 {
		return nil, fmt.Errorf("%w: coupling %s coefficient must be in [-1, 1] and non-zero: %g", ErrInvalidValue, name, k)
	}
	if ind1 == ind2 {
		return nil, fmt.Errorf("%w: coupling %s couples %s to itself", ErrInvalidValue, name, ind1)
	}

	return &Mutual{
		BaseDevice:  BaseDevice{Name: name, Value: k},
		names:       [2]string{ind1, ind2},
		coefficient: k,
	}, nil
}

func (m *Mutual) GetType() string { return "K" }
func (m *Mutual) Kind() Kind      { return KindMutual }

func (m *Mutual) GetInductorNames() [2]string { return m.names }

func (m *Mutual) SetInductors(l1, l2 *Inductor) {
	m.inductors = [2]*Inductor{l1, l2}
}

func (m *Mutual) GetCoefficient() float64 { return m.coefficient }

func (m *Mutual) Inductance() float64 {
	if m.inductors[0] == nil || m.inductors[1] == nil {
		return 0
	}
	return m.coefficient * math.Sqrt(m.inductors[0].Value*m.inductors[1].Value)
}

// Stamp adds -M between the two branch rows of D, matching the -L diagonal
// written by each inductor.
func (m *Mutual) Stamp(matrix matrix.DeviceMatrix) error {
	if m.inductors[0] == nil || m.inductors[1] == nil {
		return fmt.Errorf("mutual coupling %s: inductors not resolved", m.Name)
	}

	b1 := m.inductors[0].BranchIndex()
	b2 := m.inductors[1].BranchIndex()
	mij := m.Inductance()

	matrix.AddDynamic(b1, b2, -mij)
	matrix.AddDynamic(b2, b1, -mij)

	return nil
}
