package solver

import (
	"math"

	"github.com/edp1096/mnaspice/pkg/config"
)

type Phase int

const (
	Standard Phase = iota
	GminStepping
	SourceStepping
	Succeeded
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Standard:
		return "standard"
	case GminStepping:
		return "gmin-stepping"
	case SourceStepping:
		return "source-stepping"
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// State is the position of a continuation run: a phase and, for the
// stepping phases, the index of the current stage.
type State struct {
	Phase Phase
	Stage int
}

func (s State) Terminal() bool {
	return s.Phase == Succeeded || s.Phase == Exhausted
}

// Plan is the immutable stepping policy of one nonlinear solve.
type Plan struct {
	Standard      bool
	Gmin          bool
	Source        bool
	GminSchedule  []float64
	SourceFactors []float64
	TargetGmin    float64
}

// NewPlan builds the stepping policy for a solve whose final gmin is gmin.
func NewPlan(cfg config.SolverConfig, gmin float64) Plan {
	return Plan{
		Standard:      cfg.UseStandard,
		Gmin:          cfg.UseGminStepping && cfg.GminSteps > 0,
		Source:        cfg.UseSourceStepping && cfg.SourceSteps > 0,
		GminSchedule:  GminSchedule(math.Max(gmin, cfg.Gmin), gmin, cfg.GminSteps),
		SourceFactors: SourceFactors(cfg.SourceSteps),
		TargetGmin:    gmin,
	}
}

// GminSchedule returns base*10^s for s = steps..0, followed by target when
// it is below base. The values strictly decrease and end at target.
func GminSchedule(base, target float64, steps int) []float64 {
	if base <= 0 {
		base = config.DefaultGmin
	}
	schedule := make([]float64, 0, steps+2)
	for s := steps; s >= 0; s-- {
		schedule = append(schedule, base*math.Pow(10, float64(s)))
	}
	if target < base {
		schedule = append(schedule, target)
	}
	return schedule
}

// SourceFactors returns k/steps for k = 1..steps.
func SourceFactors(steps int) []float64 {
	factors := make([]float64, 0, steps)
	for k := 1; k <= steps; k++ {
		factors = append(factors, float64(k)/float64(steps))
	}
	return factors
}

func (p Plan) enabled(phase Phase) bool {
	switch phase {
	case Standard:
		return p.Standard
	case GminStepping:
		return p.Gmin && len(p.GminSchedule) > 0
	case SourceStepping:
		return p.Source && len(p.SourceFactors) > 0
	}
	return false
}

func (p Plan) stages(phase Phase) int {
	switch phase {
	case GminStepping:
		return len(p.GminSchedule)
	case SourceStepping:
		return len(p.SourceFactors)
	}
	return 1
}

// after returns the first enabled phase following phase.
func (p Plan) after(phase Phase) State {
	for next := phase + 1; next <= SourceStepping; next++ {
		if p.enabled(next) {
			return State{Phase: next}
		}
	}
	return State{Phase: Exhausted}
}

// Start is the first enabled phase.
func (p Plan) Start() State {
	return p.after(Standard - 1)
}

// Next is the transition function of the continuation machine. A converged
// stage either finishes the run or advances to the next stage of the same
// phase; a failed stage abandons its phase.
func Next(plan Plan, s State, converged bool) State {
	if s.Terminal() {
		return s
	}
	if !converged {
		return plan.after(s.Phase)
	}
	if s.Stage+1 >= plan.stages(s.Phase) {
		return State{Phase: Succeeded}
	}
	return State{Phase: s.Phase, Stage: s.Stage + 1}
}

// Aid returns the homotopy applied while in state s.
func (p Plan) Aid(s State) Aid {
	switch s.Phase {
	case GminStepping:
		return Aid{Gmin: p.GminSchedule[s.Stage], SourceScale: 1}
	case SourceStepping:
		return Aid{Gmin: p.TargetGmin, SourceScale: p.SourceFactors[s.Stage]}
	default:
		return Aid{Gmin: p.TargetGmin, SourceScale: 1}
	}
}
