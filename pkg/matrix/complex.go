package matrix

import (
	"gonum.org/v1/gonum/mat"
)

// ComplexToReal maps the n x n complex system a*x = b onto a 2n x 2n real one.
// Entry r+ji becomes the block [[r,-i],[i,r]]; unknown k maps to rows 2k
// (real part) and 2k+1 (imaginary part).
func ComplexToReal(a *mat.CDense, b []complex128) (*mat.Dense, *mat.VecDense) {
	n, _ := a.Dims()
	ar := mat.NewDense(2*n, 2*n, nil)
	br := mat.NewVecDense(2*n, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			if v == 0 {
				continue
			}
			re, im := real(v), imag(v)
			ar.Set(2*i, 2*j, re)
			ar.Set(2*i, 2*j+1, -im)
			ar.Set(2*i+1, 2*j, im)
			ar.Set(2*i+1, 2*j+1, re)
		}
		br.SetVec(2*i, real(b[i]))
		br.SetVec(2*i+1, imag(b[i]))
	}

	return ar, br
}

func RealToComplex(x *mat.VecDense) []complex128 {
	n := x.Len() / 2
	out := make([]complex128, n)
	for k := range n {
		out[k] = complex(x.AtVec(2*k), x.AtVec(2*k+1))
	}
	return out
}

// SolveComplex solves a complex system through its real equivalent.
func SolveComplex(s Solver, a *mat.CDense, b []complex128) ([]complex128, error) {
	ar, br := ComplexToReal(a, b)
	x, err := s.Solve(ar, br)
	if err != nil {
		return nil, err
	}
	return RealToComplex(x), nil
}
