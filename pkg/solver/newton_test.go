package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/edp1096/mnaspice/internal/consts"
	"github.com/edp1096/mnaspice/pkg/circuit"
	"github.com/edp1096/mnaspice/pkg/config"
	"github.com/edp1096/mnaspice/pkg/device"
	"github.com/edp1096/mnaspice/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// fataler is satisfied by *testing.T and GinkgoT().
type fataler interface {
	Helper()
	Fatal(args ...any)
}

func problemOf(t fataler, c *circuit.Circuit) *Problem {
	t.Helper()
	sys, err := c.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	return &Problem{
		A:           sys.M,
		Sources:     sys.Zdc,
		NumVoltages: sys.NumVoltages,
		Devices:     c.NonLinear(),
	}
}

func must[T device.Device](t fataler, c *circuit.Circuit, dev T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Add(dev); err != nil {
		t.Fatal(err)
	}
	return dev
}

func dividerCircuit(t fataler) *circuit.Circuit {
	c := circuit.New("divider")
	v, err := device.NewVoltageSource("V1", []string{"1", "0"}, 10)
	must(t, c, v, err)
	r1, err := device.NewResistor("R1", []string{"1", "2"}, 1e3)
	must(t, c, r1, err)
	r2, err := device.NewResistor("R2", []string{"2", "0"}, 1e3)
	must(t, c, r2, err)
	return c
}

func diodeCircuit(t fataler) (*circuit.Circuit, *device.Diode) {
	c := circuit.New("diode")
	v, err := device.NewVoltageSource("V1", []string{"1", "0"}, 5)
	must(t, c, v, err)
	r, err := device.NewResistor("R1", []string{"1", "2"}, 1e3)
	must(t, c, r, err)
	d, err := device.NewDiode("D1", []string{"2", "0"})
	d = must(t, c, d, err)
	return c, d
}

func newton(t fataler, cfg config.SolverConfig) *Newton {
	t.Helper()
	linear, err := matrix.NewSolver(cfg.Solver)
	if err != nil {
		t.Fatal(err)
	}
	return NewNewton(cfg, linear, nil)
}

func TestLinearConvergesInOneIteration(t *testing.T) {
	p := problemOf(t, dividerCircuit(t))

	for _, damping := range []bool{false, true} {
		cfg := config.Default()
		cfg.Damping = damping
		cfg.DampFirstIters = damping

		x, iters, err := newton(t, cfg).Solve(p, nil, NoAid)
		if err != nil {
			t.Fatalf("damping=%v: %v", damping, err)
		}
		if iters != 1 {
			t.Errorf("damping=%v: %d iterations, want 1", damping, iters)
		}
		if math.Abs(x.AtVec(1)-5) > cfg.VoltAbs {
			t.Errorf("damping=%v: V(2) = %g, want 5", damping, x.AtVec(1))
		}
	}
}

func TestDiodeNewton(t *testing.T) {
	c, d := diodeCircuit(t)
	p := problemOf(t, c)
	cfg := config.Default()

	x, iters, err := newton(t, cfg).Solve(p, nil, NoAid)
	if err != nil {
		t.Fatal(err)
	}
	if iters < 2 {
		t.Errorf("nonlinear solve took %d iterations", iters)
	}

	vd := x.AtVec(1)
	id := (x.AtVec(0) - vd) / 1e3
	shockley := d.Is * (math.Exp(vd/consts.ThermalVoltage(consts.REFTEMP)) - 1)
	if math.Abs(id-shockley) > cfg.CurrAbs {
		t.Errorf("resistor current %g differs from diode current %g", id, shockley)
	}
	if vd < 0.5 || vd > 0.8 {
		t.Errorf("diode voltage %g outside the forward range", vd)
	}
}

func TestDampedDiodeNewton(t *testing.T) {
	c, _ := diodeCircuit(t)
	p := problemOf(t, c)

	plain, _, err := newton(t, config.Default()).Solve(p, nil, NoAid)
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Damping = true
	cfg.DampFirstIters = true
	damped, iters, err := newton(t, cfg).Solve(p, nil, NoAid)
	if err != nil {
		t.Fatal(err)
	}
	if iters < config.DampedIters {
		t.Errorf("converged at iteration %d, inside the damped span of %d", iters, config.DampedIters)
	}
	if math.Abs(plain.AtVec(1)-damped.AtVec(1)) > 10*cfg.VoltAbs {
		t.Errorf("damped %g vs undamped %g", damped.AtVec(1), plain.AtVec(1))
	}
}

func TestNewtonIterationLimit(t *testing.T) {
	c, _ := diodeCircuit(t)
	cfg := config.Default()
	cfg.MaxIter = 1

	_, _, err := newton(t, cfg).Solve(problemOf(t, c), nil, NoAid)
	if !errors.Is(err, ErrNoConvergence) {
		t.Fatalf("expected ErrNoConvergence, got %v", err)
	}
	var iterErr *IterationError
	if !errors.As(err, &iterErr) || iterErr.Iteration != 1 {
		t.Errorf("expected IterationError at iteration 1, got %v", err)
	}
}

func TestNewtonSingular(t *testing.T) {
	p := &Problem{
		A:           mat.NewDense(2, 2, nil),
		Sources:     mat.NewVecDense(2, []float64{1, 0}),
		NumVoltages: 2,
	}

	for _, name := range []string{"sparse", "dense"} {
		cfg := config.Default()
		cfg.Solver = name
		if _, _, err := newton(t, cfg).Solve(p, nil, NoAid); !errors.Is(err, ErrSingular) {
			t.Errorf("%s: expected ErrSingular, got %v", name, err)
		}
	}
}

func TestGminMakesFloatingNodeSolvable(t *testing.T) {
	// node 2 hangs off a capacitor only, so M alone is singular
	c := circuit.New("floating")
	v, err := device.NewVoltageSource("V1", []string{"1", "0"}, 1)
	must(t, c, v, err)
	r, err := device.NewResistor("R1", []string{"1", "0"}, 1e3)
	must(t, c, r, err)
	c1, err := device.NewCapacitor("C1", []string{"1", "2"}, 1e-6)
	must(t, c, c1, err)

	p := problemOf(t, c)
	n := newton(t, config.Default())
	if _, _, err := n.Solve(p, nil, NoAid); !errors.Is(err, ErrSingular) {
		t.Fatalf("expected singular without gmin, got %v", err)
	}
	x, _, err := n.Solve(p, nil, Aid{Gmin: 1e-12, SourceScale: 1})
	if err != nil {
		t.Fatal(err)
	}
	if x.AtVec(1) != 0 {
		t.Errorf("floating node = %g, want 0", x.AtVec(1))
	}
}

func TestSourceScaleAndOffset(t *testing.T) {
	p := problemOf(t, dividerCircuit(t))
	p.Offset = mat.NewVecDense(p.Size(), []float64{0, 1e-3, 0})

	x, _, err := newton(t, config.Default()).Solve(p, nil, Aid{SourceScale: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	// 5V source into the divider plus 1mA injected at node 2: 2.5 + 0.5
	if math.Abs(x.AtVec(1)-3.0) > 1e-9 {
		t.Errorf("V(2) = %g, want 3", x.AtVec(1))
	}
}

func TestResidualAtSolution(t *testing.T) {
	c, _ := diodeCircuit(t)
	p := problemOf(t, c)
	x, _, err := newton(t, config.Default()).Solve(p, nil, NoAid)
	if err != nil {
		t.Fatal(err)
	}
	f := p.Residual(x, NoAid)
	for i := range f.Len() {
		if math.Abs(f.AtVec(i)) > 1e-9 {
			t.Errorf("residual[%d] = %g", i, f.AtVec(i))
		}
	}
}

func TestDampingFactor(t *testing.T) {
	c, _ := diodeCircuit(t)
	p := problemOf(t, c)
	vt := consts.ThermalVoltage(consts.REFTEMP)

	dx := mat.NewVecDense(p.Size(), []float64{0, 1, 0})

	d := Damping{}
	if got := d.Factor(1, p, dx); got != 1 {
		t.Errorf("zero damping = %g, want 1", got)
	}

	d = Damping{FirstIters: true}
	if got := d.Factor(3, p, dx); got != 0.01 {
		t.Errorf("iteration 3 = %g, want 0.01", got)
	}
	if got := d.Factor(15, p, dx); got != 0.1 {
		t.Errorf("iteration 15 = %g, want 0.1", got)
	}
	if got := d.Factor(25, p, dx); got != 1 {
		t.Errorf("iteration 25 = %g, want 1", got)
	}

	d = Damping{VoltLock: true, LockFactor: 4, Vt: vt}
	if got := d.Factor(1, p, dx); math.Abs(got-4*vt) > 1e-15 {
		t.Errorf("locked step = %g, want %g", got, 4*vt)
	}
	small := mat.NewVecDense(p.Size(), []float64{0, vt, 0})
	if got := d.Factor(1, p, small); got != 1 {
		t.Errorf("step within lock = %g, want 1", got)
	}
}
