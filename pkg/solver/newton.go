package solver

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/edp1096/mnaspice/pkg/config"
	"github.com/edp1096/mnaspice/pkg/matrix"
	"github.com/edp1096/mnaspice/pkg/util"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingular      = matrix.ErrSingular
	ErrOverflow      = errors.New("solver: non-finite newton step")
	ErrNoConvergence = errors.New("solver: iteration limit reached")
)

// IterationError records the Newton iteration at which a solve failed.
type IterationError struct {
	Iteration int
	Err       error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("newton iteration %d: %v", e.Iteration, e.Err)
}

func (e *IterationError) Unwrap() error {
	return e.Err
}

type Newton struct {
	Linear  matrix.Solver
	Tol     Tolerances
	MaxIter int
	Damping Damping
	Logger  *log.Logger
}

func NewNewton(cfg config.SolverConfig, linear matrix.Solver, logger *log.Logger) *Newton {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Newton{
		Linear:  linear,
		Tol:     TolerancesFrom(cfg),
		MaxIter: cfg.MaxIter,
		Damping: DampingFrom(cfg),
		Logger:  logger,
	}
}

// Solve runs Newton-Raphson from x0 (zeros when nil) and returns the
// solution with the number of iterations used. Linear problems take
// exactly one undamped iteration.
func (n *Newton) Solve(p *Problem, x0 *mat.VecDense, aid Aid) (*mat.VecDense, int, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}

	size := p.Size()
	x := mat.NewVecDense(size, nil)
	if x0 != nil {
		x.CopyVec(x0)
	}

	a, b := p.linear(aid)
	f := mat.NewVecDense(size, nil)
	jac := mat.NewDense(size, size, nil)
	dx := mat.NewVecDense(size, nil)

	for iter := 1; iter <= n.MaxIter; iter++ {
		f.MulVec(a, x)
		f.SubVec(f, b)
		jac.Copy(a)

		if p.IsNonLinear() {
			j, nx := p.Nonlinear(x)
			f.AddVec(f, nx)
			jac.Add(jac, j)
		}

		var rhs mat.VecDense
		rhs.ScaleVec(-1, f)
		step, err := n.Linear.Solve(jac, &rhs)
		if err != nil {
			return nil, iter, &IterationError{Iteration: iter, Err: err}
		}
		dx.CopyVec(step)

		if !p.IsNonLinear() {
			x.AddVec(x, dx)
			return x, 1, nil
		}

		td := n.Damping.Factor(iter, p, dx)
		x.AddScaledVec(x, td, dx)
		if !util.IsFinite(x.RawVector().Data) {
			return nil, iter, &IterationError{Iteration: iter, Err: ErrOverflow}
		}

		if td == 1 && n.Tol.Converged(x.RawVector().Data, dx.RawVector().Data, f.RawVector().Data, p.NumVoltages) {
			return x, iter, nil
		}
	}

	return nil, n.MaxIter, &IterationError{Iteration: n.MaxIter, Err: ErrNoConvergence}
}
