package solver

import (
	"errors"
	"io"
	"log"

	"github.com/edp1096/mnaspice/pkg/config"
	"gonum.org/v1/gonum/mat"
)

// Outcome of a continuation run. X is nil when every enabled phase failed.
type Outcome struct {
	X          *mat.VecDense
	Phase      Phase // phase that produced X
	Iterations int
	Stages     int
}

func (o Outcome) Found() bool { return o.X != nil }

type Controller struct {
	Newton *Newton
	cfg    config.SolverConfig
	logger *log.Logger
}

func NewController(cfg config.SolverConfig, newton *Newton, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Controller{Newton: newton, cfg: cfg, logger: logger}
}

// Solve runs the continuation machine towards the problem with the given
// final gmin. Newton failures mark a stage failed and are never returned.
func (c *Controller) Solve(p *Problem, x0 *mat.VecDense, gmin float64) Outcome {
	plan := NewPlan(c.cfg, gmin)
	state := plan.Start()

	var out Outcome
	guess := x0
	var last Phase

	for !state.Terminal() {
		aid := plan.Aid(state)
		x, iters, err := c.Newton.Solve(p, guess, aid)
		out.Iterations += iters
		out.Stages++

		converged := err == nil
		if !converged {
			c.logStageFailure(state, aid, err)
		}

		last = state.Phase
		next := Next(plan, state, converged)
		switch {
		case converged:
			guess = x
		case next.Phase != state.Phase:
			guess = x0
		}
		state = next
	}

	if state.Phase == Succeeded {
		out.X = guess
		out.Phase = last
	}
	return out
}

func (c *Controller) logStageFailure(s State, aid Aid, err error) {
	switch {
	case errors.Is(err, ErrNoConvergence):
		c.logger.Printf("%s stage %d (gmin=%g, scale=%g): no convergence", s.Phase, s.Stage, aid.Gmin, aid.SourceScale)
	default:
		c.logger.Printf("%s stage %d (gmin=%g, scale=%g): %v", s.Phase, s.Stage, aid.Gmin, aid.SourceScale, err)
	}
}
