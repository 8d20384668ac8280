package analysis

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/edp1096/mnaspice/pkg/circuit"
	"github.com/edp1096/mnaspice/pkg/config"
	"github.com/edp1096/mnaspice/pkg/matrix"
	"github.com/edp1096/mnaspice/pkg/solver"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrBadSweep   = errors.New("analysis: invalid sweep parameters")
	ErrBadRequest = errors.New("analysis: invalid analysis parameters")
	ErrNotSetUp   = errors.New("analysis: circuit not set")
)

// MaxPoints bounds the rows a single sweep or transient run may produce.
const MaxPoints = 10_000_000

// Analysis is one simulation request. Execute returns an error only for
// structural or configuration problems; a numerical failure leaves Result nil.
type Analysis interface {
	Name() string
	Configure(cfg config.SolverConfig, logger *log.Logger) error
	Setup(ckt *circuit.Circuit) error
	Execute() error
	Result() *Result
}

type BaseAnalysis struct {
	Circuit *circuit.Circuit

	cfg        config.SolverConfig
	logger     *log.Logger
	linear     matrix.Solver
	newton     *solver.Newton
	controller *solver.Controller
	result     *Result
}

// NewBaseAnalysis configures defaults; Configure replaces them.
func NewBaseAnalysis() *BaseAnalysis {
	cfg := config.Default()
	logger := log.Default()
	linear := matrix.NewSparseSolver()
	newton := solver.NewNewton(cfg, linear, logger)
	return &BaseAnalysis{
		cfg:        cfg,
		logger:     logger,
		linear:     linear,
		newton:     newton,
		controller: solver.NewController(cfg, newton, logger),
	}
}

func (a *BaseAnalysis) Configure(cfg config.SolverConfig, logger *log.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logger == nil {
		logger = log.Default()
	}
	linear, err := matrix.NewSolver(cfg.Solver)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.linear = linear
	a.newton = solver.NewNewton(cfg, linear, logger)
	a.controller = solver.NewController(cfg, a.newton, logger)
	return nil
}

func (a *BaseAnalysis) Config() config.SolverConfig { return a.cfg }

func (a *BaseAnalysis) setup(ckt *circuit.Circuit) error {
	if ckt == nil {
		return ErrNotSetUp
	}
	a.Circuit = ckt
	a.result = nil
	ckt.SetTemperature(a.cfg.Temperature)
	return nil
}

func (a *BaseAnalysis) Result() *Result { return a.result }

// problem wraps an assembled system for the nonlinear solver.
func (a *BaseAnalysis) problem(sys *matrix.System, lhs *mat.Dense, sources, offset *mat.VecDense) *solver.Problem {
	if lhs == nil {
		lhs = sys.M
	}
	if sources == nil {
		sources = sys.Zdc
	}
	return &solver.Problem{
		A:           lhs,
		Sources:     sources,
		Offset:      offset,
		NumVoltages: sys.NumVoltages,
		Devices:     a.Circuit.NonLinear(),
	}
}

// opPoint is an operating point with the way it was found.
type opPoint struct {
	x             *mat.VecDense
	gminDependent bool
	iterations    int
	phase         solver.Phase
}

// operatingPoint runs the two-phase policy: a continuation solve with the
// configured gmin, then plain Newton without gmin from that solution. It
// returns nil when no operating point is found.
func (a *BaseAnalysis) operatingPoint(p *solver.Problem, guess *mat.VecDense) *opPoint {
	out := a.controller.Solve(p, guess, a.cfg.Gmin)
	if !out.Found() {
		a.logger.Printf("%s: no operating point found", a.Circuit.Name())
		return nil
	}

	op := &opPoint{x: out.X, iterations: out.Iterations, phase: out.Phase}
	if a.cfg.Gmin == 0 {
		return op
	}

	x, iters, err := a.newton.Solve(p, out.X, solver.NoAid)
	op.iterations += iters
	if err != nil {
		a.logger.Printf("%s: operating point depends on gmin=%g: %v", a.Circuit.Name(), a.cfg.Gmin, err)
		op.gminDependent = true
		return op
	}
	op.x = x
	return op
}

// Run configures, sets up and executes an analysis, then writes its result
// to sink when one was produced. The sink is closed in every case and its
// Close error is returned along with any other.
func Run(a Analysis, ckt *circuit.Circuit, cfg config.SolverConfig, logger *log.Logger, sink Sink) (result *Result, err error) {
	if sink != nil {
		defer func() {
			if cerr := sink.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("%s output: %w", a.Name(), cerr))
			}
		}()
	}

	if err := a.Configure(cfg, logger); err != nil {
		return nil, err
	}
	if err := a.Setup(ckt); err != nil {
		return nil, fmt.Errorf("%s setup: %w", a.Name(), err)
	}
	if err := a.Execute(); err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name(), err)
	}

	result = a.Result()
	if result == nil || sink == nil {
		return result, nil
	}
	if err := result.WriteTo(sink); err != nil {
		return result, fmt.Errorf("%s output: %w", a.Name(), err)
	}
	return result, nil
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
