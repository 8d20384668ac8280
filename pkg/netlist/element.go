package netlist

import (
	"fmt"
	"strings"

	"github.com/edp1096/mnaspice/pkg/device"
)

// parseElement builds the device named by the first letter of fields[0] and
// adds it to the circuit.
func (nl *Netlist) parseElement(fields []string) error {
	name := fields[0]
	kind := strings.ToUpper(name[:1])

	switch kind {
	case "R", "C", "L":
		return nl.parsePassive(kind, fields)
	case "K":
		return nl.parseCoupling(fields)
	case "G", "E":
		return nl.parseVoltageControlled(kind, fields)
	case "H", "F":
		return nl.parseCurrentControlled(kind, fields)
	case "V", "I":
		return nl.parseSource(kind, fields)
	case "D":
		return nl.parseDiode(fields)
	default:
		return syntaxError("unsupported element %s", name)
	}
}

func need(fields []string, n int, what string) error {
	if len(fields) < n {
		return syntaxError("%s %s needs %d fields, got %d", what, fields[0], n, len(fields))
	}
	return nil
}

// R1 n1 n2 value [tc1=..] [tc2=..]
func (nl *Netlist) parsePassive(kind string, fields []string) error {
	if err := need(fields, 4, "element"); err != nil {
		return err
	}
	name, nodes := fields[0], fields[1:3]
	value, err := ParseValue(fields[3])
	if err != nil {
		return err
	}

	var dev device.Device
	switch kind {
	case "R":
		r, err := device.NewResistor(name, nodes, value)
		if err != nil {
			return err
		}
		for _, f := range fields[4:] {
			key, raw, ok := keyValue(f)
			if !ok {
				return syntaxError("unexpected resistor parameter %q", f)
			}
			v, err := ParseValue(raw)
			if err != nil {
				return err
			}
			switch key {
			case "tc1":
				r.Tc1 = v
			case "tc2":
				r.Tc2 = v
			default:
				return syntaxError("unknown resistor parameter %q", key)
			}
		}
		dev = r
	case "C":
		dev, err = device.NewCapacitor(name, nodes, value)
	case "L":
		dev, err = device.NewInductor(name, nodes, value)
	}
	if err != nil {
		return err
	}
	return nl.Circuit.Add(dev)
}

// K1 L1 L2 k
func (nl *Netlist) parseCoupling(fields []string) error {
	if len(fields) != 4 {
		return syntaxError("coupling %s needs two inductors and a coefficient", fields[0])
	}
	k, err := ParseValue(fields[3])
	if err != nil {
		return fmt.Errorf("invalid coupling coefficient: %w", err)
	}
	return nl.Circuit.Couple(fields[0], k, fields[1], fields[2])
}

// G1 n+ n- nc+ nc- gain, E1 n+ n- nc+ nc- gain
func (nl *Netlist) parseVoltageControlled(kind string, fields []string) error {
	if len(fields) != 6 {
		return syntaxError("%s needs four nodes and a gain", fields[0])
	}
	gain, err := ParseValue(fields[5])
	if err != nil {
		return err
	}

	var dev device.Device
	if kind == "G" {
		dev, err = device.NewVCCS(fields[0], fields[1:5], gain)
	} else {
		dev, err = device.NewVCVS(fields[0], fields[1:5], gain)
	}
	if err != nil {
		return err
	}
	return nl.Circuit.Add(dev)
}

// H1 n+ n- Vctl r, F1 n+ n- Vctl gain
func (nl *Netlist) parseCurrentControlled(kind string, fields []string) error {
	if len(fields) != 5 {
		return syntaxError("%s needs two nodes, a controlling source and a gain", fields[0])
	}
	gain, err := ParseValue(fields[4])
	if err != nil {
		return err
	}

	var dev device.Device
	if kind == "H" {
		dev, err = device.NewCCVS(fields[0], fields[1:3], fields[3], gain)
	} else {
		dev, err = device.NewCCCS(fields[0], fields[1:3], fields[3], gain)
	}
	if err != nil {
		return err
	}
	return nl.Circuit.Add(dev)
}

// D1 anode cathode [model]
func (nl *Netlist) parseDiode(fields []string) error {
	if len(fields) < 3 || len(fields) > 4 {
		return syntaxError("diode %s needs two nodes and an optional model", fields[0])
	}
	d, err := device.NewDiode(fields[0], fields[1:3])
	if err != nil {
		return err
	}
	if len(fields) == 4 {
		model, ok := nl.Models[strings.ToLower(fields[3])]
		if !ok {
			return syntaxError("undefined model %s", fields[3])
		}
		if model.Type != "D" {
			return syntaxError("model %s is a %s model, not a diode", model.Name, model.Type)
		}
		if err := d.SetModelParameters(model.Params); err != nil {
			return err
		}
	}
	return nl.Circuit.Add(d)
}
