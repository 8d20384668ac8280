package device

import (
	"fmt"

	"github.com/edp1096/mnaspice/internal/consts"
	"github.com/edp1096/mnaspice/pkg/matrix"
)

type Resistor struct {
	BaseDevice
	Tc1  float64
	Tc2  float64
	Tnom float64
	temp float64
}

func NewResistor(name string, nodeNames []string, value float64) (*Resistor, error) {
	if value == 0 {
		return nil, fmt.Errorf("%w: resistor %s has zero resistance", ErrInvalidValue, name)
	}
	base, err := newBaseDevice(name, value, nodeNames, 2)
	if err != nil {
		return nil, err
	}

	return &Resistor{
		BaseDevice: base,
		Tnom:       consts.REFTEMP,
		temp:       consts.REFTEMP,
	}, nil
}

func (r *Resistor) GetType() string { return "R" }
func (r *Resistor) Kind() Kind      { return KindResistor }

func (r *Resistor) SetTemperature(temp float64) { r.temp = temp }

// Conductance is G = 1/R at the current temperature.
func (r *Resistor) Conductance() float64 {
	return 1.0 / r.temperatureAdjustedValue(r.temp)
}

func (r *Resistor) Stamp(matrix matrix.DeviceMatrix) error {
	n1, n2 := r.Nodes[0], r.Nodes[1]
	g := r.Conductance()

	matrix.AddElement(n1, n1, g)
	matrix.AddElement(n1, n2, -g)
	matrix.AddElement(n2, n1, -g)
	matrix.AddElement(n2, n2, g)

	return nil
}

func (r *Resistor) temperatureAdjustedValue(temp float64) float64 {
	dt := temp - r.Tnom
	factor := 1.0 + r.Tc1*dt + r.Tc2*dt*dt
	return r.Value * factor
}
