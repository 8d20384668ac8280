package device

import (
	"fmt"

	"github.com/edp1096/mnaspice/pkg/matrix"
)

type Capacitor struct {
	BaseDevice
}

func NewCapacitor(name string, nodeNames []string, value float64) (*Capacitor, error) {
	if value == 0 {
		return nil, fmt.Errorf("%w: capacitor %s has zero capacitance", ErrInvalidValue, name)
	}
	base, err := newBaseDevice(name, value, nodeNames, 2)
	if err != nil {
		return nil, err
	}
	return &Capacitor{BaseDevice: base}, nil
}

func (c *Capacitor) GetType() string { return "C" }
func (c *Capacitor) Kind() Kind      { return KindCapacitor }

// Stamp only touches D: a capacitor is open at DC and i = C d(v1-v2)/dt.
func (c *Capacitor) Stamp(matrix matrix.DeviceMatrix) error {
	n1, n2 := c.Nodes[0], c.Nodes[1]

	matrix.AddDynamic(n1, n1, c.Value)
	matrix.AddDynamic(n1, n2, -c.Value)
	matrix.AddDynamic(n2, n1, -c.Value)
	matrix.AddDynamic(n2, n2, c.Value)

	return nil
}
