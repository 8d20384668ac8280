package integrator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var ErrUnknownMethod = errors.New("integrator: unknown integration method")

// Scheme turns ẋ at the new time point into C1·x + C0 from the history.
type Scheme interface {
	Name() string
	// Depth is the number of history points the scheme reads.
	Depth() int
	// Ready reports whether the history can feed the scheme.
	Ready(hist *History) bool
	Coefficients(h float64, hist *History) (float64, *mat.VecDense)
}

// New returns the scheme for a method name: be, trap, gear1..gear6,
// bdf1..bdf6 or am.
func New(name string) (Scheme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "be", "euler":
		return BackwardEuler{}, nil
	case "trap", "trapezoidal":
		return Trapezoidal{}, nil
	case "am", "am3", "adams":
		return AdamsMoulton{}, nil
	}

	for _, prefix := range []string{"gear", "bdf"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			order, err := strconv.Atoi(rest)
			if err != nil || order < 1 || order > len(bdfCoefficients) {
				break
			}
			return Gear{Order: order}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Select falls back to Backward Euler until the history can feed s.
func Select(s Scheme, hist *History) Scheme {
	if s.Ready(hist) {
		return s
	}
	return BackwardEuler{}
}

type BackwardEuler struct{}

func (BackwardEuler) Name() string { return "be" }
func (BackwardEuler) Depth() int   { return 1 }

func (BackwardEuler) Ready(hist *History) bool { return hist.Len() >= 1 }

// ẋ = (x - x_n)/h
func (BackwardEuler) Coefficients(h float64, hist *History) (float64, *mat.VecDense) {
	c1 := 1.0 / h
	var c0 mat.VecDense
	c0.ScaleVec(-c1, hist.At(0).X)
	return c1, &c0
}

type Trapezoidal struct{}

func (Trapezoidal) Name() string { return "trap" }
func (Trapezoidal) Depth() int   { return 1 }

func (Trapezoidal) Ready(hist *History) bool { return hist.hasDerivatives(1) }

// ẋ = 2(x - x_n)/h - ẋ_n
func (Trapezoidal) Coefficients(h float64, hist *History) (float64, *mat.VecDense) {
	c1 := 2.0 / h
	last := hist.At(0)
	var c0 mat.VecDense
	c0.ScaleVec(-c1, last.X)
	c0.SubVec(&c0, last.Dx)
	return c1, &c0
}

// AdamsMoulton is the third-order, two-step implicit Adams formula
// x = x_n + h/12 (5ẋ + 8ẋ_n - ẋ_{n-1}).
type AdamsMoulton struct{}

func (AdamsMoulton) Name() string { return "am" }
func (AdamsMoulton) Depth() int   { return 2 }

func (AdamsMoulton) Ready(hist *History) bool { return hist.hasDerivatives(2) }

func (AdamsMoulton) Coefficients(h float64, hist *History) (float64, *mat.VecDense) {
	c1 := 12.0 / (5.0 * h)
	n, prev := hist.At(0), hist.At(1)

	var c0, d mat.VecDense
	c0.ScaleVec(-c1, n.X)
	d.ScaleVec(8.0/5.0, n.Dx)
	d.AddScaledVec(&d, -1.0/5.0, prev.Dx)
	c0.SubVec(&c0, &d)
	return c1, &c0
}
