package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/mnaspice/pkg/circuit"
	"github.com/edp1096/mnaspice/pkg/device"
	"github.com/edp1096/mnaspice/pkg/integrator"
	"github.com/edp1096/mnaspice/pkg/matrix"
	"github.com/edp1096/mnaspice/pkg/solver"
	"gonum.org/v1/gonum/mat"
)

// Transient integrates the circuit with a fixed step from t=0 to stopTime.
// Rows are emitted from startTime on. A failed step discards the whole run.
type Transient struct {
	BaseAnalysis
	startTime float64
	stopTime  float64
	timeStep  float64
	useUIC    bool
	// Method overrides the configured integration method when set.
	Method string

	scheme integrator.Scheme
}

func NewTransient(tStart, tStop, tStep float64, uic bool) *Transient {
	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(),
		startTime:    tStart,
		stopTime:     tStop,
		timeStep:     tStep,
		useUIC:       uic,
	}
}

func (tr *Transient) Name() string { return "tran" }

func (tr *Transient) Setup(ckt *circuit.Circuit) error {
	if err := tr.setup(ckt); err != nil {
		return err
	}

	switch {
	case tr.timeStep <= 0 || math.IsNaN(tr.timeStep):
		return fmt.Errorf("%w: time step must be positive, got %g", ErrBadRequest, tr.timeStep)
	case tr.stopTime <= 0 || math.IsInf(tr.stopTime, 0) || math.IsNaN(tr.stopTime):
		return fmt.Errorf("%w: stop time must be positive, got %g", ErrBadRequest, tr.stopTime)
	case tr.startTime < 0 || tr.startTime > tr.stopTime:
		return fmt.Errorf("%w: start time %g outside [0, %g]", ErrBadRequest, tr.startTime, tr.stopTime)
	case tr.stopTime/tr.timeStep > MaxPoints:
		return fmt.Errorf("%w: step %g gives more than %d points up to %g", ErrBadRequest, tr.timeStep, MaxPoints, tr.stopTime)
	}

	method := tr.Method
	if method == "" {
		method = tr.cfg.Integration
	}
	scheme, err := integrator.New(method)
	if err != nil {
		return err
	}
	tr.scheme = scheme
	return nil
}

func (tr *Transient) Execute() error {
	if tr.Circuit == nil || tr.scheme == nil {
		return ErrNotSetUp
	}

	sys, err := tr.Circuit.Assemble()
	if err != nil {
		return err
	}

	result := &Result{Analysis: tr.Name(), Names: append([]string{"TIME"}, tr.Circuit.UnknownNames()...)}

	x := mat.NewVecDense(sys.Size, nil)
	if !tr.useUIC {
		op := tr.operatingPoint(tr.problem(sys, nil, tr.sourcesAt(sys.Zdc, 0), nil), nil)
		if op == nil {
			tr.logger.Printf("transient: no initial operating point")
			return nil
		}
		x = op.x
		result.Iterations += op.iterations
		result.GminDependent = op.gminDependent
	}

	if tr.startTime == 0 {
		result.appendRow([]float64{0}, x.RawVector().Data)
	}

	hist := integrator.NewHistory(tr.scheme.Depth())
	hist.Push(integrator.Point{T: 0, X: x})

	steps := tr.steps()
	t := 0.0
	for k := 1; k <= steps; k++ {
		next := math.Min(float64(k)*tr.timeStep, tr.stopTime)
		h := next - t

		scheme := integrator.Select(tr.scheme, hist)
		if math.Abs(h-tr.timeStep) > 1e-9*tr.timeStep && scheme.Depth() > 1 {
			// multistep formulas assume the nominal step
			scheme = integrator.BackwardEuler{}
		}
		c1, c0 := scheme.Coefficients(h, hist)
		d := tr.dynamicAt(sys, x)

		var offset mat.VecDense
		offset.MulVec(d, c0)
		offset.ScaleVec(-1, &offset)

		p := tr.problem(sys, sys.CompanionWith(d, c1), tr.sourcesAt(sys.Zdc, next), &offset)
		op := tr.operatingPoint(p, x)
		if op == nil {
			tr.logger.Printf("transient: step to t=%g failed, run discarded", next)
			return nil
		}

		x = op.x
		result.Iterations += op.iterations
		result.GminDependent = result.GminDependent || op.gminDependent

		var dx mat.VecDense
		dx.ScaleVec(c1, x)
		dx.AddVec(&dx, c0)
		hist.Push(integrator.Point{T: next, X: x, Dx: &dx})

		t = next
		if t >= tr.startTime {
			result.appendRow([]float64{t}, x.RawVector().Data)
		}
	}

	tr.result = result
	return nil
}

// steps is the number of fixed steps up to stopTime, the last one clamped.
func (tr *Transient) steps() int {
	return int(math.Ceil(tr.stopTime/tr.timeStep - 1e-9))
}

// dynamicAt is D plus the charge of voltage-dependent elements linearised
// at x.
func (tr *Transient) dynamicAt(sys *matrix.System, x *mat.VecDense) *mat.Dense {
	var dyn *matrix.Dynamic
	for _, dev := range tr.Circuit.NonLinear() {
		cs, ok := dev.(device.ChargeStorage)
		if !ok {
			continue
		}
		if dyn == nil {
			dyn = matrix.NewDynamic(sys.D)
		}
		cs.StampCharge(dyn, solver.PortVoltages(dev, x))
	}
	if dyn == nil {
		return sys.D
	}
	return dyn.D
}

// sourcesAt is Z_dc + Z_t(t).
func (tr *Transient) sourcesAt(zdc *mat.VecDense, t float64) *mat.VecDense {
	if !tr.Circuit.HasWaveforms() {
		return zdc
	}
	var z mat.VecDense
	z.AddVec(zdc, tr.Circuit.SourceVector(t))
	return &z
}
