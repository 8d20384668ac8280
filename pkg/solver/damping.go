package solver

import (
	"math"

	"github.com/edp1096/mnaspice/internal/consts"
	"github.com/edp1096/mnaspice/pkg/config"
	"github.com/edp1096/mnaspice/pkg/util"
	"gonum.org/v1/gonum/mat"
)

// minDamping keeps a locked step from collapsing to nothing.
const minDamping = 1e-3

// Damping scales Newton steps of nonlinear problems. The zero value applies
// full steps.
type Damping struct {
	FirstIters bool
	VoltLock   bool
	LockFactor float64
	Vt         float64
}

func DampingFrom(cfg config.SolverConfig) Damping {
	return Damping{
		FirstIters: cfg.DampFirstIters,
		VoltLock:   cfg.Damping,
		LockFactor: cfg.LockFactor,
		Vt:         consts.ThermalVoltage(cfg.Temperature),
	}
}

// Factor returns td in (0, 1] for iteration iter (1-based).
func (d Damping) Factor(iter int, p *Problem, dx *mat.VecDense) float64 {
	td := 1.0

	if d.FirstIters {
		switch {
		case iter < config.DampedIters/2:
			td = 0.01
		case iter < config.DampedIters:
			td = 0.1
		}
	}

	if d.VoltLock && d.LockFactor > 0 {
		limit := d.LockFactor * d.Vt
		maxChange := 0.0
		for _, dev := range p.Devices {
			for _, dv := range PortVoltages(dev, dx) {
				maxChange = math.Max(maxChange, math.Abs(dv))
			}
		}
		if maxChange > limit {
			td = math.Min(td, limit/maxChange)
		}
	}

	return util.Clamp(td, minDamping, 1.0)
}
