package analysis

import (
	"fmt"
	"slices"

	"github.com/edp1096/mnaspice/pkg/circuit"
	"gonum.org/v1/gonum/mat"
)

type OperatingPoint struct {
	BaseAnalysis
	// InitialGuess seeds the first Newton solve; nil starts from zero.
	InitialGuess *mat.VecDense
}

func NewOP() *OperatingPoint {
	return &OperatingPoint{BaseAnalysis: *NewBaseAnalysis()}
}

func (op *OperatingPoint) Name() string { return "op" }

func (op *OperatingPoint) Setup(ckt *circuit.Circuit) error {
	return op.setup(ckt)
}

func (op *OperatingPoint) Execute() error {
	if op.Circuit == nil {
		return ErrNotSetUp
	}

	sys, err := op.Circuit.Assemble()
	if err != nil {
		return err
	}
	if op.InitialGuess != nil && op.InitialGuess.Len() != sys.Size {
		return fmt.Errorf("%w: initial guess has %d values for %d unknowns", ErrBadRequest, op.InitialGuess.Len(), sys.Size)
	}

	point := op.operatingPoint(op.problem(sys, nil, nil, nil), op.InitialGuess)
	if point == nil {
		return nil
	}

	op.result = &Result{
		Analysis:      op.Name(),
		Names:         op.Circuit.UnknownNames(),
		GminDependent: point.gminDependent,
		Iterations:    point.iterations,
	}
	op.result.appendRow(nil, point.x.RawVector().Data)
	return nil
}

// Solution returns the raw unknown vector of the last run, nil without one.
func (op *OperatingPoint) Solution() *mat.VecDense {
	if op.result == nil {
		return nil
	}
	return mat.NewVecDense(len(op.result.Rows[0]), slices.Clone(op.result.Rows[0]))
}
