package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DeviceMatrix is what elements stamp into. Indices are 1-based, 0 is ground
// and is silently dropped.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)      // M
	AddDynamic(i, j int, value float64)      // D
	AddRHS(i int, value float64)             // Z_dc
	AddComplexRHS(i int, real, imag float64) // Z_ac
	AddSmallSignal(i, j int, g, c float64)   // AC only: g + jwc
}

// System holds the assembled MNA matrices of a circuit in reduced form
// (ground row and column removed). Unknowns [0, NumVoltages) are node
// voltages, the rest are branch currents in stamping order.
type System struct {
	Size        int
	NumVoltages int

	M   *mat.Dense
	D   *mat.Dense
	Zdc *mat.VecDense
	Zac []complex128

	// small-signal terms kept apart from M and D; real part is a conductance,
	// imaginary part a capacitance scaled by w at evaluation
	yac map[[2]int]complex128
}

var _ DeviceMatrix = (*System)(nil)

func NewSystem(numVoltages, numBranches int) (*System, error) {
	size := numVoltages + numBranches
	if size <= 0 {
		return nil, fmt.Errorf("empty system: %d voltages, %d branches", numVoltages, numBranches)
	}

	return &System{
		Size:        size,
		NumVoltages: numVoltages,
		M:           mat.NewDense(size, size, nil),
		D:           mat.NewDense(size, size, nil),
		Zdc:         mat.NewVecDense(size, nil),
		Zac:         make([]complex128, size),
		yac:         make(map[[2]int]complex128),
	}, nil
}

func (s *System) inRange(i int) bool { return i > 0 && i <= s.Size }

func (s *System) AddElement(i, j int, value float64) {
	if !s.inRange(i) || !s.inRange(j) {
		return
	}
	s.M.Set(i-1, j-1, s.M.At(i-1, j-1)+value)
}

func (s *System) AddDynamic(i, j int, value float64) {
	if !s.inRange(i) || !s.inRange(j) {
		return
	}
	s.D.Set(i-1, j-1, s.D.At(i-1, j-1)+value)
}

func (s *System) AddRHS(i int, value float64) {
	if !s.inRange(i) {
		return
	}
	s.Zdc.SetVec(i-1, s.Zdc.AtVec(i-1)+value)
}

func (s *System) AddComplexRHS(i int, real, imag float64) {
	if !s.inRange(i) {
		return
	}
	s.Zac[i-1] += complex(real, imag)
}

func (s *System) AddSmallSignal(i, j int, g, c float64) {
	if !s.inRange(i) || !s.inRange(j) {
		return
	}
	s.yac[[2]int{i - 1, j - 1}] += complex(g, c)
}

// AddConductance stamps g between nodes a and b into M.
func (s *System) AddConductance(a, b int, g float64) {
	s.AddElement(a, a, g)
	s.AddElement(a, b, -g)
	s.AddElement(b, a, -g)
	s.AddElement(b, b, g)
}

// AddCapacitance stamps c between nodes a and b into D.
func (s *System) AddCapacitance(a, b int, c float64) {
	s.AddDynamic(a, a, c)
	s.AddDynamic(a, b, -c)
	s.AddDynamic(b, a, -c)
	s.AddDynamic(b, b, c)
}

// AC builds M + J + jwD plus the small-signal terms. j may be nil.
func (s *System) AC(omega float64, j *mat.Dense) *mat.CDense {
	a := mat.NewCDense(s.Size, s.Size, nil)
	for r := 0; r < s.Size; r++ {
		for c := 0; c < s.Size; c++ {
			re := s.M.At(r, c)
			if j != nil {
				re += j.At(r, c)
			}
			a.Set(r, c, complex(re, omega*s.D.At(r, c)))
		}
	}
	for idx, y := range s.yac {
		a.Set(idx[0], idx[1], a.At(idx[0], idx[1])+complex(real(y), omega*imag(y)))
	}
	return a
}

// Companion returns M + c1*D.
func (s *System) Companion(c1 float64) *mat.Dense {
	return s.CompanionWith(s.D, c1)
}

// CompanionWith returns M + c1*d for a dynamic matrix that differs from D,
// such as one carrying linearised device charge.
func (s *System) CompanionWith(d *mat.Dense, c1 float64) *mat.Dense {
	var a mat.Dense
	a.Scale(c1, d)
	a.Add(&a, s.M)
	return &a
}

// RHS collects right-hand-side contributions only. Matrix entries are ignored.
// It is used to evaluate time-varying source vectors without re-stamping M and D.
type RHS struct {
	Vec *mat.VecDense
}

var _ DeviceMatrix = (*RHS)(nil)

func NewRHS(size int) *RHS {
	return &RHS{Vec: mat.NewVecDense(size, nil)}
}

func (r *RHS) AddRHS(i int, value float64) {
	if i <= 0 || i > r.Vec.Len() {
		return
	}
	r.Vec.SetVec(i-1, r.Vec.AtVec(i-1)+value)
}

func (r *RHS) AddElement(i, j int, value float64)      {}
func (r *RHS) AddDynamic(i, j int, value float64)      {}
func (r *RHS) AddComplexRHS(i int, real, imag float64) {}
func (r *RHS) AddSmallSignal(i, j int, g, c float64)   {}

// Dynamic collects D contributions only, on top of a copy of a base matrix.
type Dynamic struct {
	D *mat.Dense
}

var _ DeviceMatrix = (*Dynamic)(nil)

func NewDynamic(base *mat.Dense) *Dynamic {
	return &Dynamic{D: mat.DenseCopyOf(base)}
}

func (d *Dynamic) AddDynamic(i, j int, value float64) {
	r, _ := d.D.Dims()
	if i <= 0 || j <= 0 || i > r || j > r {
		return
	}
	d.D.Set(i-1, j-1, d.D.At(i-1, j-1)+value)
}

func (d *Dynamic) AddElement(i, j int, value float64)      {}
func (d *Dynamic) AddRHS(i int, value float64)             {}
func (d *Dynamic) AddComplexRHS(i int, real, imag float64) {}
func (d *Dynamic) AddSmallSignal(i, j int, g, c float64)   {}
