package netlist

import (
	"strconv"
	"strings"

	"github.com/edp1096/mnaspice/internal/consts"
	"github.com/edp1096/mnaspice/pkg/analysis"
	"github.com/edp1096/mnaspice/pkg/device"
)

// Parse .op, .dc, .tran, .ac
func (nl *Netlist) parseControl(fields []string) error {
	switch strings.ToLower(fields[0]) {
	case ".op":
		nl.Analyses = append(nl.Analyses, analysis.NewOP())
		return nil
	case ".dc":
		return nl.parseDC(fields[1:])
	case ".tran":
		return nl.parseTran(fields[1:])
	case ".ac":
		return nl.parseAC(fields[1:])
	default:
		return syntaxError("unsupported control card %s", fields[0])
	}
}

// .dc src start stop step [src2 start2 stop2 step2]
func (nl *Netlist) parseDC(fields []string) error {
	if len(fields) != 4 && len(fields) != 8 {
		return syntaxError(".dc needs source, start, stop and step for one or two sources")
	}

	var sweeps []analysis.Sweep
	for i := 0; i < len(fields); i += 4 {
		values, err := parseValues(fields[i+1 : i+4])
		if err != nil {
			return err
		}
		sweeps = append(sweeps, analysis.Sweep{
			Source: fields[i],
			Start:  values[0],
			Stop:   values[1],
			Step:   values[2],
		})
	}
	nl.Analyses = append(nl.Analyses, analysis.NewDCSweep(nl.OnFailure, sweeps...))
	return nil
}

// .tran tstep tstop [tstart [tmax]] [uic] [method=name]
// The step is fixed, so tmax is accepted and ignored.
func (nl *Netlist) parseTran(fields []string) error {
	var (
		positional []float64
		uic        bool
		method     string
	)
	for _, f := range fields {
		if strings.EqualFold(f, "uic") {
			uic = true
			continue
		}
		if key, value, ok := keyValue(f); ok {
			if key != "method" {
				return syntaxError("unknown .tran parameter %q", key)
			}
			method = strings.ToLower(value)
			continue
		}
		v, err := ParseValue(f)
		if err != nil {
			return err
		}
		positional = append(positional, v)
	}
	if len(positional) < 2 || len(positional) > 4 {
		return syntaxError(".tran needs tstep and tstop")
	}

	var tStart float64
	if len(positional) > 2 {
		tStart = positional[2]
	}
	tr := analysis.NewTransient(tStart, positional[1], positional[0], uic)
	tr.Method = method
	nl.Analyses = append(nl.Analyses, tr)
	return nil
}

// .ac dec|oct|lin points fstart fstop
func (nl *Netlist) parseAC(fields []string) error {
	if len(fields) != 4 {
		return syntaxError(".ac needs sweep type, points, fstart and fstop")
	}

	sweep := strings.ToUpper(fields[0])
	switch sweep {
	case "DEC", "OCT", "LIN":
	default:
		return syntaxError("invalid sweep type: %s", fields[0])
	}
	points, err := strconv.Atoi(fields[1])
	if err != nil {
		return syntaxError("invalid points number %q", fields[1])
	}
	values, err := parseValues(fields[2:4])
	if err != nil {
		return err
	}
	nl.Analyses = append(nl.Analyses, analysis.NewAC(values[0], values[1], points, sweep))
	return nil
}

// .model name D(is=.. n=..) or .model name D is=.. n=..
func (nl *Netlist) parseModel(fields []string) error {
	if len(fields) < 2 {
		return syntaxError("insufficient model parameters")
	}
	name := fields[0]

	rest := strings.Join(fields[1:], " ")
	rest = strings.ReplaceAll(rest, "(", " ")
	rest = strings.ReplaceAll(rest, ")", " ")
	rest = strings.ReplaceAll(rest, " = ", "=")
	words := strings.Fields(rest)
	if len(words) == 0 {
		return syntaxError("model %s has no type", name)
	}

	modelType := strings.ToUpper(words[0])
	if modelType != "D" {
		return syntaxError("unsupported model type: %s", words[0])
	}

	params := make(map[string]float64)
	for _, pair := range words[1:] {
		key, raw, ok := keyValue(pair)
		if !ok {
			return syntaxError("invalid model parameter %q", pair)
		}
		value, err := ParseValue(raw)
		if err != nil {
			return err
		}
		params[key] = value
	}

	nl.Models[strings.ToLower(name)] = device.ModelParam{
		Type:   modelType,
		Name:   name,
		Params: params,
	}
	return nil
}

// .options maps SPICE option names onto the solver configuration.
func (nl *Netlist) parseOptions(fields []string) error {
	cfg := &nl.Config
	for _, f := range fields {
		key, raw, ok := keyValue(f)
		if !ok {
			switch strings.ToLower(f) {
			case "damping":
				cfg.Damping = true
			case "dampfirst":
				cfg.DampFirstIters = true
			case "nostandard":
				cfg.UseStandard = false
			case "nogminstep":
				cfg.UseGminStepping = false
			case "nosrcstep":
				cfg.UseSourceStepping = false
			default:
				return syntaxError("unknown option %q", f)
			}
			continue
		}

		switch key {
		case "method":
			cfg.Integration = strings.ToLower(raw)
			continue
		case "solver":
			cfg.Solver = strings.ToLower(raw)
			continue
		case "sweepfail":
			switch strings.ToLower(raw) {
			case "skip":
				nl.OnFailure = analysis.Skip
			case "abort":
				nl.OnFailure = analysis.Abort
			default:
				return syntaxError("sweepfail must be skip or abort")
			}
			continue
		}

		value, err := ParseValue(raw)
		if err != nil {
			return err
		}
		switch key {
		case "gmin":
			cfg.Gmin = value
		case "reltol":
			cfg.VoltRel, cfg.CurrRel = value, value
		case "vntol":
			cfg.VoltAbs = value
		case "abstol":
			cfg.CurrAbs = value
		case "itl1", "maxit":
			cfg.MaxIter = int(value)
		case "gminsteps":
			cfg.GminSteps = int(value)
		case "srcsteps":
			cfg.SourceSteps = int(value)
		case "lockfactor":
			cfg.LockFactor = value
		case "temp":
			cfg.Temperature = value + consts.KELVIN
		default:
			return syntaxError("unknown option %q", key)
		}
	}
	return nil
}

// .temp in degrees Celsius
func (nl *Netlist) parseTemp(fields []string) error {
	if len(fields) != 1 {
		return syntaxError(".temp takes one value")
	}
	value, err := ParseValue(fields[0])
	if err != nil {
		return err
	}
	nl.Config.Temperature = value + consts.KELVIN
	return nil
}
