package solver

import (
	"fmt"

	"github.com/edp1096/mnaspice/pkg/device"
	"gonum.org/v1/gonum/mat"
)

// Problem is A·x + N(x) = scale·Sources + Offset over the reduced unknowns.
// Offset is left unscaled by source stepping and carries integration history.
type Problem struct {
	A           *mat.Dense
	Sources     *mat.VecDense
	Offset      *mat.VecDense
	NumVoltages int
	Devices     []device.NonLinear
}

// Aid is the homotopy modification applied to one Newton solve.
type Aid struct {
	Gmin        float64
	SourceScale float64
}

var NoAid = Aid{SourceScale: 1}

func (p *Problem) Size() int {
	n, _ := p.A.Dims()
	return n
}

func (p *Problem) Validate() error {
	r, c := p.A.Dims()
	if r != c {
		return fmt.Errorf("problem matrix is %dx%d", r, c)
	}
	if p.Sources == nil || p.Sources.Len() != r {
		return fmt.Errorf("source vector does not match %d unknowns", r)
	}
	if p.Offset != nil && p.Offset.Len() != r {
		return fmt.Errorf("offset vector does not match %d unknowns", r)
	}
	if p.NumVoltages < 0 || p.NumVoltages > r {
		return fmt.Errorf("voltage split %d outside [0, %d]", p.NumVoltages, r)
	}
	return nil
}

func (p *Problem) IsNonLinear() bool { return len(p.Devices) > 0 }

func at(x *mat.VecDense, node int) float64 {
	if node <= 0 {
		return 0
	}
	return x.AtVec(node - 1)
}

// PortVoltages returns v(Pos)-v(Neg) for every port of dev.
func PortVoltages(dev device.NonLinear, x *mat.VecDense) []float64 {
	ports := dev.Ports()
	v := make([]float64, len(ports))
	for k, port := range ports {
		v[k] = at(x, port.Pos) - at(x, port.Neg)
	}
	return v
}

func addAt(m *mat.Dense, i, j int, value float64) {
	if i <= 0 || j <= 0 {
		return
	}
	m.Set(i-1, j-1, m.At(i-1, j-1)+value)
}

func addVecAt(v *mat.VecDense, i int, value float64) {
	if i <= 0 {
		return
	}
	v.SetVec(i-1, v.AtVec(i-1)+value)
}

// Nonlinear evaluates N(x) and its Jacobian J at x.
func (p *Problem) Nonlinear(x *mat.VecDense) (*mat.Dense, *mat.VecDense) {
	n := p.Size()
	jac := mat.NewDense(n, n, nil)
	nx := mat.NewVecDense(n, nil)

	for _, dev := range p.Devices {
		ports := dev.Ports()
		v := PortVoltages(dev, x)
		g := dev.GStamp(v)
		cur := dev.IStamp(v)

		for a, pa := range ports {
			addVecAt(nx, pa.Pos, cur[a])
			addVecAt(nx, pa.Neg, -cur[a])
			for b, pb := range ports {
				addAt(jac, pa.Pos, pb.Pos, g[a][b])
				addAt(jac, pa.Pos, pb.Neg, -g[a][b])
				addAt(jac, pa.Neg, pb.Pos, -g[a][b])
				addAt(jac, pa.Neg, pb.Neg, g[a][b])
			}
		}
	}
	return jac, nx
}

// Jacobian returns dN/dx at x, used by AC for the small-signal model.
func (p *Problem) Jacobian(x *mat.VecDense) *mat.Dense {
	jac, _ := p.Nonlinear(x)
	return jac
}

// linear returns A plus gmin on every voltage diagonal, and the scaled
// right-hand side.
func (p *Problem) linear(aid Aid) (*mat.Dense, *mat.VecDense) {
	a := mat.DenseCopyOf(p.A)
	if aid.Gmin != 0 {
		for i := 0; i < p.NumVoltages; i++ {
			a.Set(i, i, a.At(i, i)+aid.Gmin)
		}
	}

	b := mat.NewVecDense(p.Size(), nil)
	b.ScaleVec(aid.SourceScale, p.Sources)
	if p.Offset != nil {
		b.AddVec(b, p.Offset)
	}
	return a, b
}

// Residual returns A·x + N(x) - b under the given aid.
func (p *Problem) Residual(x *mat.VecDense, aid Aid) *mat.VecDense {
	a, b := p.linear(aid)
	f := mat.NewVecDense(p.Size(), nil)
	f.MulVec(a, x)
	if p.IsNonLinear() {
		_, nx := p.Nonlinear(x)
		f.AddVec(f, nx)
	}
	f.SubVec(f, b)
	return f
}
