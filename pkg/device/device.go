package device

import (
	"errors"
	"fmt"

	"github.com/edp1096/mnaspice/pkg/matrix"
)

var (
	ErrInvalidValue = errors.New("device: invalid value")
	ErrNodes        = errors.New("device: wrong number of nodes")
)

type Kind int

const (
	KindResistor Kind = iota
	KindCapacitor
	KindInductor
	KindMutual
	KindVCCS
	KindVCVS
	KindCCVS
	KindCCCS
	KindVoltageSource
	KindCurrentSource
	KindDiode
)

var kindNames = [...]string{"R", "C", "L", "K", "G", "E", "H", "F", "V", "I", "D"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Device is one circuit primitive. Node indices are 1-based with 0 as ground.
type Device interface {
	GetName() string
	GetType() string
	Kind() Kind
	GetNodeNames() []string
	GetNodes() []int
	SetNodes(nodes []int)
	IsNonLinear() bool
	// Stamp writes the linear contribution into M, D, Z_dc and Z_ac.
	Stamp(matrix matrix.DeviceMatrix) error
}

// VoltageDefined devices own one branch-current unknown.
type VoltageDefined interface {
	Device
	BranchIndex() int
	SetBranchIndex(idx int)
}

// CurrentControlled devices read the branch current of another device.
type CurrentControlled interface {
	Device
	ControlName() string
	SetControlBranch(idx int)
}

// Port is a terminal pair across which a nonlinear device is driven.
type Port struct {
	Pos, Neg int
}

// NonLinear devices contribute N(x) and its Jacobian. GStamp returns dI_p/dV_q
// over the ports, IStamp the port currents flowing from Pos to Neg.
type NonLinear interface {
	Device
	Ports() []Port
	GStamp(v []float64) [][]float64
	IStamp(v []float64) []float64
}

// SmallSignal devices add charge storage around an operating point for AC.
// v holds the port voltages at that point.
type SmallSignal interface {
	NonLinear
	StampAC(matrix matrix.DeviceMatrix, v []float64)
}

// ChargeStorage devices hold a voltage-dependent charge. Transient analysis
// stamps the incremental capacitance at the last accepted point into D for
// the next step; v holds the port voltages at that point.
type ChargeStorage interface {
	NonLinear
	StampCharge(matrix matrix.DeviceMatrix, v []float64)
}

// Source is an independent source whose DC value can be reassigned.
// StampValue writes only the excitation for the given value.
type Source interface {
	Device
	GetValue() float64
	SetValue(value float64)
	TimeValue(t float64) float64
	HasWaveform() bool
	StampValue(matrix matrix.DeviceMatrix, value float64)
}

// Thermal devices depend on the circuit temperature.
type Thermal interface {
	SetTemperature(temp float64)
}

type BaseDevice struct {
	Name      string
	Nodes     []int
	Value     float64
	NodeNames []string
}

type ModelParam struct {
	Type   string
	Name   string
	Params map[string]float64
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetNodes() []int {
	return d.Nodes
}

func (d *BaseDevice) GetNodeNames() []string {
	return d.NodeNames
}

func (d *BaseDevice) GetValue() float64 {
	return d.Value
}

func (d *BaseDevice) SetNodes(nodes []int) {
	d.Nodes = nodes
}

func (d *BaseDevice) IsNonLinear() bool { return false }

func newBaseDevice(name string, value float64, nodeNames []string, count int) (BaseDevice, error) {
	if len(nodeNames) != count {
		return BaseDevice{}, fmt.Errorf("%w: %s needs %d nodes, got %d", ErrNodes, name, count, len(nodeNames))
	}
	return BaseDevice{
		Name:      name,
		Value:     value,
		NodeNames: nodeNames,
		Nodes:     make([]int, len(nodeNames)),
	}, nil
}
