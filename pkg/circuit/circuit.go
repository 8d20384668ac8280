package circuit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edp1096/mnaspice/internal/consts"
	"github.com/edp1096/mnaspice/pkg/device"
	"github.com/edp1096/mnaspice/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyCircuit   = errors.New("circuit: no elements")
	ErrDuplicateName  = errors.New("circuit: duplicate element name")
	ErrUnknownElement = errors.New("circuit: unknown element")
	ErrNotInductor    = errors.New("circuit: coupled element is not an inductor")
)

// IsGround reports whether a node label names the reference node.
func IsGround(label string) bool {
	return label == "0" || strings.EqualFold(label, "gnd")
}

// Circuit owns the node table and the ordered element list. Node ids are
// created on first reference and never removed; 0 is ground.
type Circuit struct {
	name      string
	nodeMap   map[string]int
	nodeNames []string // by id, [0] is ground
	devices   []device.Device
	byName    map[string]device.Device
	temp      float64
}

func New(name string) *Circuit {
	return &Circuit{
		name:      name,
		nodeMap:   make(map[string]int),
		nodeNames: []string{"0"},
		byName:    make(map[string]device.Device),
		temp:      consts.REFTEMP,
	}
}

func (c *Circuit) Name() string { return c.name }

// Add appends an element, mapping its node labels to ids.
func (c *Circuit) Add(dev device.Device) error {
	key := strings.ToUpper(dev.GetName())
	if _, exists := c.byName[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, dev.GetName())
	}

	labels := dev.GetNodeNames()
	nodeIndices := make([]int, len(labels))
	for i, label := range labels {
		nodeIndices[i] = c.node(label)
	}
	dev.SetNodes(nodeIndices)

	if th, ok := dev.(device.Thermal); ok {
		th.SetTemperature(c.temp)
	}

	c.devices = append(c.devices, dev)
	c.byName[key] = dev
	return nil
}

// Couple adds a mutual inductance between two inductors by name. The
// inductors may be added later; they are resolved on Assemble.
func (c *Circuit) Couple(name string, k float64, l1, l2 string) error {
	m, err := device.NewMutual(name, l1, l2, k)
	if err != nil {
		return err
	}
	return c.Add(m)
}

func (c *Circuit) node(label string) int {
	if IsGround(label) {
		return 0
	}
	if idx, ok := c.nodeMap[label]; ok {
		return idx
	}
	idx := len(c.nodeNames)
	c.nodeMap[label] = idx
	c.nodeNames = append(c.nodeNames, label)
	return idx
}

// NumNodes counts distinct nodes including ground.
func (c *Circuit) NumNodes() int { return len(c.nodeNames) }

// NumVoltages is the number of node-voltage unknowns.
func (c *Circuit) NumVoltages() int { return len(c.nodeNames) - 1 }

func (c *Circuit) NumBranches() int {
	n := 0
	for _, dev := range c.devices {
		if _, ok := dev.(device.VoltageDefined); ok {
			n++
		}
	}
	return n
}

// Size is the number of unknowns of the reduced system.
func (c *Circuit) Size() int { return c.NumVoltages() + c.NumBranches() }

func (c *Circuit) IsNonLinear() bool {
	for _, dev := range c.devices {
		if dev.IsNonLinear() {
			return true
		}
	}
	return false
}

func (c *Circuit) Devices() []device.Device { return c.devices }

func (c *Circuit) Device(name string) (device.Device, bool) {
	dev, ok := c.byName[strings.ToUpper(name)]
	return dev, ok
}

// NodeIndex returns the id of a node label, 0 for ground.
func (c *Circuit) NodeIndex(label string) (int, bool) {
	if IsGround(label) {
		return 0, true
	}
	idx, ok := c.nodeMap[label]
	return idx, ok
}

func (c *Circuit) NodeNames() []string { return c.nodeNames }

func (c *Circuit) NonLinear() []device.NonLinear {
	var out []device.NonLinear
	for _, dev := range c.devices {
		if nl, ok := dev.(device.NonLinear); ok && dev.IsNonLinear() {
			out = append(out, nl)
		}
	}
	return out
}

func (c *Circuit) Sources() []device.Source {
	var out []device.Source
	for _, dev := range c.devices {
		if src, ok := dev.(device.Source); ok {
			out = append(out, src)
		}
	}
	return out
}

func (c *Circuit) Temperature() float64 { return c.temp }

// SetTemperature updates every temperature-dependent element.
func (c *Circuit) SetTemperature(temp float64) {
	c.temp = temp
	for _, dev := range c.devices {
		if th, ok := dev.(device.Thermal); ok {
			th.SetTemperature(temp)
		}
	}
}

// UnknownNames labels the reduced solution vector: V(node) then I(element).
func (c *Circuit) UnknownNames() []string {
	names := make([]string, 0, c.Size())
	for _, label := range c.nodeNames[1:] {
		names = append(names, fmt.Sprintf("V(%s)", label))
	}
	for _, dev := range c.devices {
		if _, ok := dev.(device.VoltageDefined); ok {
			names = append(names, fmt.Sprintf("I(%s)", dev.GetName()))
		}
	}
	return names
}

// Prepare assigns branch indices in element order and resolves references
// between elements. Assemble calls it.
func (c *Circuit) Prepare() error {
	if len(c.devices) == 0 {
		return ErrEmptyCircuit
	}

	branch := c.NumNodes()
	for _, dev := range c.devices {
		if vd, ok := dev.(device.VoltageDefined); ok {
			vd.SetBranchIndex(branch)
			branch++
		}
	}

	for _, dev := range c.devices {
		switch d := dev.(type) {
		case device.CurrentControlled:
			ctl, ok := c.Device(d.ControlName())
			if !ok {
				return fmt.Errorf("%w: %s controls %s", ErrUnknownElement, d.ControlName(), d.GetName())
			}
			vd, ok := ctl.(device.VoltageDefined)
			if !ok {
				return fmt.Errorf("%w: %s has no branch current to control %s", ErrUnknownElement, d.ControlName(), d.GetName())
			}
			d.SetControlBranch(vd.BranchIndex())
		case *device.Mutual:
			names := d.GetInductorNames()
			var inds [2]*device.Inductor
			for i, name := range names {
				ref, ok := c.Device(name)
				if !ok {
					return fmt.Errorf("%w: %s coupled by %s", ErrUnknownElement, name, d.GetName())
				}
				l, ok := ref.(*device.Inductor)
				if !ok {
					return fmt.Errorf("%w: %s coupled by %s", ErrNotInductor, name, d.GetName())
				}
				inds[i] = l
			}
			d.SetInductors(inds[0], inds[1])
		}
	}
	return nil
}

// BranchIndex returns the reduced 0-based index of a voltage-defined
// element's current. Valid after Prepare.
func (c *Circuit) BranchIndex(name string) (int, bool) {
	dev, ok := c.Device(name)
	if !ok {
		return 0, false
	}
	vd, ok := dev.(device.VoltageDefined)
	if !ok || vd.BranchIndex() <= 0 {
		return 0, false
	}
	return vd.BranchIndex() - 1, true
}

// Assemble builds M, D, Z_dc and Z_ac. Current-defined elements are
// stamped before voltage-defined ones.
func (c *Circuit) Assemble() (*matrix.System, error) {
	if err := c.Prepare(); err != nil {
		return nil, err
	}

	sys, err := matrix.NewSystem(c.NumVoltages(), c.NumBranches())
	if err != nil {
		return nil, err
	}

	var voltageDefined []device.Device
	for _, dev := range c.devices {
		if _, ok := dev.(device.VoltageDefined); ok {
			voltageDefined = append(voltageDefined, dev)
			continue
		}
		if err := dev.Stamp(sys); err != nil {
			return nil, fmt.Errorf("stamping device %s: %w", dev.GetName(), err)
		}
	}
	for _, dev := range voltageDefined {
		if err := dev.Stamp(sys); err != nil {
			return nil, fmt.Errorf("stamping device %s: %w", dev.GetName(), err)
		}
	}

	return sys, nil
}

// SourceVector returns Z_t(t), the deviation of every waveform source from
// its DC value. Valid after Prepare.
func (c *Circuit) SourceVector(t float64) *mat.VecDense {
	rhs := matrix.NewRHS(c.Size())
	for _, src := range c.Sources() {
		if !src.HasWaveform() {
			continue
		}
		src.StampValue(rhs, src.TimeValue(t)-src.GetValue())
	}
	return rhs.Vec
}

func (c *Circuit) HasWaveforms() bool {
	for _, src := range c.Sources() {
		if src.HasWaveform() {
			return true
		}
	}
	return false
}
