package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/mnaspice/pkg/circuit"
	"github.com/edp1096/mnaspice/pkg/device"
	"gonum.org/v1/gonum/mat"
)

type FailurePolicy int

const (
	// Skip records the failed point and continues with the next one.
	Skip FailurePolicy = iota
	// Abort drops the whole sweep.
	Abort
)

func (p FailurePolicy) String() string {
	if p == Abort {
		return "abort"
	}
	return "skip"
}

// Sweep steps one independent source from Start to Stop by Step.
type Sweep struct {
	Source string
	Start  float64
	Stop   float64
	Step   float64
}

// Values returns the sweep points, Stop included when it lies on the grid.
// An invalid sweep has none.
func (s Sweep) Values() []float64 {
	if s.validate() != nil {
		return nil
	}
	n := int(s.count())
	values := make([]float64, n)
	for k := range n {
		values[k] = s.Start + float64(k)*s.Step
	}
	return values
}

// count is the number of sweep points, before any bound check.
func (s Sweep) count() float64 {
	return math.Floor((s.Stop-s.Start)/s.Step+1e-9) + 1
}

func (s Sweep) validate() error {
	switch {
	case math.IsNaN(s.Start) || math.IsNaN(s.Stop) || math.IsNaN(s.Step) ||
		math.IsInf(s.Start, 0) || math.IsInf(s.Stop, 0) || math.IsInf(s.Step, 0):
		return fmt.Errorf("%w: %s has non-finite bounds", ErrBadSweep, s.Source)
	case s.Step <= 0:
		return fmt.Errorf("%w: %s step must be positive, got %g", ErrBadSweep, s.Source, s.Step)
	case s.Start > s.Stop:
		return fmt.Errorf("%w: %s start %g is above stop %g", ErrBadSweep, s.Source, s.Start, s.Stop)
	case s.count() > MaxPoints:
		return fmt.Errorf("%w: %s step %g gives more than %d points", ErrBadSweep, s.Source, s.Step, MaxPoints)
	}
	return nil
}

// DCSweep repeats the operating point over one source, or two nested ones
// with the first as the outer loop.
type DCSweep struct {
	BaseAnalysis
	Sweeps    []Sweep
	OnFailure FailurePolicy

	sources []device.Source
}

func NewDCSweep(policy FailurePolicy, sweeps ...Sweep) *DCSweep {
	return &DCSweep{
		BaseAnalysis: *NewBaseAnalysis(),
		Sweeps:       sweeps,
		OnFailure:    policy,
	}
}

func (dc *DCSweep) Name() string { return "dc" }

// Setup resolves and validates the swept sources before anything is solved.
func (dc *DCSweep) Setup(ckt *circuit.Circuit) error {
	if err := dc.setup(ckt); err != nil {
		return err
	}
	if len(dc.Sweeps) == 0 || len(dc.Sweeps) > 2 {
		return fmt.Errorf("%w: %d sweep sources, want 1 or 2", ErrBadSweep, len(dc.Sweeps))
	}

	dc.sources = dc.sources[:0]
	for _, sw := range dc.Sweeps {
		dev, ok := ckt.Device(sw.Source)
		if !ok {
			return fmt.Errorf("%w: source %s not found", ErrBadSweep, sw.Source)
		}
		src, ok := dev.(device.Source)
		if !ok {
			return fmt.Errorf("%w: %s is a %s, not an independent source", ErrBadSweep, sw.Source, dev.Kind())
		}
		if err := sw.validate(); err != nil {
			return err
		}
		dc.sources = append(dc.sources, src)
	}
	if len(dc.sources) == 2 {
		if dc.sources[0] == dc.sources[1] {
			return fmt.Errorf("%w: %s swept twice", ErrBadSweep, dc.Sweeps[0].Source)
		}
		if dc.Sweeps[0].count()*dc.Sweeps[1].count() > MaxPoints {
			return fmt.Errorf("%w: nested sweep gives more than %d points", ErrBadSweep, MaxPoints)
		}
	}
	return nil
}

func (dc *DCSweep) Execute() error {
	if dc.Circuit == nil || len(dc.sources) != len(dc.Sweeps) {
		return ErrNotSetUp
	}

	original := make([]float64, len(dc.sources))
	for i, src := range dc.sources {
		original[i] = src.GetValue()
	}
	defer func() {
		for i, src := range dc.sources {
			src.SetValue(original[i])
		}
	}()

	result := &Result{Analysis: dc.Name()}
	for _, sw := range dc.Sweeps {
		result.Names = append(result.Names, sw.Source)
	}
	result.Names = append(result.Names, dc.Circuit.UnknownNames()...)

	var guess *mat.VecDense
	for _, point := range dc.points() {
		for i, src := range dc.sources {
			src.SetValue(point[i])
		}

		sys, err := dc.Circuit.Assemble()
		if err != nil {
			return err
		}

		op := dc.operatingPoint(dc.problem(sys, nil, nil, nil), guess)
		if op == nil {
			if dc.OnFailure == Abort {
				dc.logger.Printf("dc sweep aborted at %v", point)
				return nil
			}
			dc.logger.Printf("dc sweep skipped %v", point)
			result.Skipped = append(result.Skipped, point)
			continue
		}

		guess = op.x
		result.Iterations += op.iterations
		result.GminDependent = result.GminDependent || op.gminDependent
		result.appendRow(point, op.x.RawVector().Data)
	}

	dc.result = result
	return nil
}

// points enumerates the sweep grid, outer source first.
func (dc *DCSweep) points() [][]float64 {
	outer := dc.Sweeps[0].Values()
	if len(dc.Sweeps) == 1 {
		points := make([][]float64, len(outer))
		for i, v := range outer {
			points[i] = []float64{v}
		}
		return points
	}

	inner := dc.Sweeps[1].Values()
	points := make([][]float64, 0, len(outer)*len(inner))
	for _, v1 := range outer {
		for _, v2 := range inner {
			points = append(points, []float64{v1, v2})
		}
	}
	return points
}
