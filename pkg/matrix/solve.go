package matrix

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingular = errors.New("matrix: singular matrix")
	ErrSize     = errors.New("matrix: dimension mismatch")
)

// Solver factorizes a and solves a*x = b.
type Solver interface {
	Solve(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error)
}

func NewSolver(name string) (Solver, error) {
	switch strings.ToLower(name) {
	case "", "sparse":
		return NewSparseSolver(), nil
	case "dense":
		return DenseSolver{}, nil
	default:
		return nil, fmt.Errorf("unknown linear solver %q", name)
	}
}

func checkDims(a *mat.Dense, b *mat.VecDense) (int, error) {
	r, c := a.Dims()
	if r != c || b.Len() != r {
		return 0, fmt.Errorf("%w: a is %dx%d, b has %d rows", ErrSize, r, c, b.Len())
	}
	return r, nil
}

// SparseSolver builds a fresh Sparse 1.3 matrix per call so that every
// solve gets its own Markowitz ordering.
type SparseSolver struct {
	config sparse.Configuration
}

func NewSparseSolver() *SparseSolver {
	return &SparseSolver{
		config: sparse.Configuration{
			Real:                    true,
			Complex:                 false,
			SeparatedComplexVectors: false,
			Expandable:              true,
			Translate:               false,
			ModifiedNodal:           true,
			TiesMultiplier:          5,
			PrinterWidth:            140,
			Annotate:                0,
		},
	}
}

func (s *SparseSolver) Solve(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	size, err := checkDims(a, b)
	if err != nil {
		return nil, err
	}

	config := s.config
	m, err := sparse.Create(int64(size), &config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}
	defer m.Destroy()

	// Same full element structure the circuit matrix always had; zero
	// entries are never picked as pivots.
	for i := 1; i <= size; i++ {
		for j := 1; j <= size; j++ {
			m.GetElement(int64(i), int64(j)).Real = a.At(i-1, j-1)
		}
	}

	rhs := make([]float64, size+1) // 1-based indexing
	for i := 1; i <= size; i++ {
		rhs[i] = b.AtVec(i - 1)
	}

	if err := m.Factor(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	solution, err := m.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %v", err)
	}

	x := mat.NewVecDense(size, nil)
	for i := 1; i <= size; i++ {
		x.SetVec(i-1, solution[i])
	}
	if !finite(x) {
		return nil, fmt.Errorf("%w: non-finite solution", ErrSingular)
	}
	return x, nil
}

// DenseSolver uses gonum's partial-pivoting LU.
type DenseSolver struct{}

func (DenseSolver) Solve(a *mat.Dense, b *mat.VecDense) (*mat.VecDense, error) {
	size, err := checkDims(a, b)
	if err != nil {
		return nil, err
	}

	var lu mat.LU
	lu.Factorize(a)

	x := mat.NewVecDense(size, nil)
	if err := lu.SolveVecTo(x, false, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		// ill-conditioned but solved
	}
	if !finite(x) {
		return nil, fmt.Errorf("%w: non-finite solution", ErrSingular)
	}
	return x, nil
}

func finite(x *mat.VecDense) bool {
	for i := range x.Len() {
		v := x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
