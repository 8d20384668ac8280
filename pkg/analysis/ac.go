package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/edp1096/mnaspice/pkg/circuit"
	"github.com/edp1096/mnaspice/pkg/device"
	"github.com/edp1096/mnaspice/pkg/matrix"
	"github.com/edp1096/mnaspice/pkg/solver"
	"gonum.org/v1/gonum/mat"
)

type ACAnalysis struct {
	BaseAnalysis
	startFreq   float64
	stopFreq    float64
	numPoints   int
	pointsType  string // "DEC", "OCT", "LIN"
	frequencies []float64
}

// NewAC sweeps nPoints per decade or octave, or nPoints in total for LIN.
func NewAC(fStart, fStop float64, nPoints int, pType string) *ACAnalysis {
	return &ACAnalysis{
		BaseAnalysis: *NewBaseAnalysis(),
		startFreq:    fStart,
		stopFreq:     fStop,
		numPoints:    nPoints,
		pointsType:   upper(pType),
	}
}

func (ac *ACAnalysis) Name() string { return "ac" }

func (ac *ACAnalysis) Frequencies() []float64 { return ac.frequencies }

func (ac *ACAnalysis) Setup(ckt *circuit.Circuit) error {
	if err := ac.setup(ckt); err != nil {
		return err
	}

	switch {
	case ac.numPoints < 1:
		return fmt.Errorf("%w: ac needs at least one point", ErrBadRequest)
	case ac.stopFreq < ac.startFreq:
		return fmt.Errorf("%w: ac stop frequency %g below start %g", ErrBadRequest, ac.stopFreq, ac.startFreq)
	case ac.pointsType != "LIN" && ac.startFreq <= 0:
		return fmt.Errorf("%w: %s sweep needs a positive start frequency", ErrBadRequest, ac.pointsType)
	case ac.startFreq < 0:
		return fmt.Errorf("%w: negative frequency %g", ErrBadRequest, ac.startFreq)
	case math.IsNaN(ac.startFreq) || math.IsInf(ac.stopFreq, 0) || math.IsNaN(ac.stopFreq):
		return fmt.Errorf("%w: non-finite frequency range", ErrBadRequest)
	}

	var count float64
	switch ac.pointsType {
	case "DEC":
		count = math.Log10(ac.stopFreq/ac.startFreq) * float64(ac.numPoints)
	case "OCT":
		count = math.Log2(ac.stopFreq/ac.startFreq) * float64(ac.numPoints)
	case "LIN":
		count = float64(ac.numPoints)
	default:
		return fmt.Errorf("%w: unknown ac sweep %q", ErrBadRequest, ac.pointsType)
	}
	if count > MaxPoints {
		return fmt.Errorf("%w: ac sweep gives more than %d points", ErrBadRequest, MaxPoints)
	}

	ac.generateFrequencyPoints()
	return nil
}

func (ac *ACAnalysis) Execute() error {
	if ac.Circuit == nil {
		return ErrNotSetUp
	}

	sys, err := ac.Circuit.Assemble()
	if err != nil {
		return err
	}

	var jac *mat.Dense
	if ac.Circuit.IsNonLinear() {
		p := ac.problem(sys, nil, nil, nil)
		op := ac.operatingPoint(p, nil)
		if op == nil {
			ac.logger.Printf("ac: no operating point to linearise around")
			return nil
		}
		jac = p.Jacobian(op.x)
		for _, dev := range p.Devices {
			if ss, ok := dev.(device.SmallSignal); ok {
				ss.StampAC(sys, solver.PortVoltages(dev, op.x))
			}
		}
	}

	names := ac.Circuit.UnknownNames()
	result := &Result{Analysis: ac.Name(), Names: []string{"FREQ"}}
	for _, name := range names {
		result.Names = append(result.Names, name+"_MAG", name+"_PHASE")
	}

	for _, freq := range ac.frequencies {
		omega := 2 * math.Pi * freq
		x, err := matrix.SolveComplex(ac.linear, sys.AC(omega, jac), sys.Zac)
		if err != nil {
			ac.logger.Printf("ac: solve failed at f=%g, sweep aborted: %v", freq, err)
			return nil
		}

		row := make([]float64, 0, 1+2*len(x))
		row = append(row, freq)
		for _, v := range x {
			row = append(row, cmplx.Abs(v), cmplx.Phase(v)*180.0/math.Pi)
		}
		result.Rows = append(result.Rows, row)
		result.Complex = append(result.Complex, x)
	}

	ac.result = result
	return nil
}

func (ac *ACAnalysis) generateFrequencyPoints() {
	switch ac.pointsType {
	case "DEC": // Decade
		ac.frequencies = logPoints(ac.startFreq, ac.stopFreq, ac.numPoints, 10)

	case "OCT": // Octave
		ac.frequencies = logPoints(ac.startFreq, ac.stopFreq, ac.numPoints, 2)

	case "LIN": // Linear
		ac.frequencies = make([]float64, ac.numPoints)
		if ac.numPoints == 1 {
			ac.frequencies[0] = ac.startFreq
			return
		}
		step := (ac.stopFreq - ac.startFreq) / float64(ac.numPoints-1)
		for i := range ac.numPoints {
			ac.frequencies[i] = ac.startFreq + float64(i)*step
		}
	}
}

// logPoints spaces perInterval points per factor of base from start up to stop.
func logPoints(start, stop float64, perInterval int, base float64) []float64 {
	intervals := math.Log(stop/start) / math.Log(base)
	n := int(math.Floor(intervals*float64(perInterval)+1e-9)) + 1

	freqs := make([]float64, n)
	for i := range n {
		freqs[i] = start * math.Pow(base, float64(i)/float64(perInterval))
	}
	return freqs
}
