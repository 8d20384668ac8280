package solver

import (
	"math"

	"github.com/edp1096/mnaspice/pkg/config"
)

// Tolerances are the absolute and relative bounds used to accept an iterate.
type Tolerances struct {
	VoltAbs float64
	VoltRel float64
	CurrAbs float64
	CurrRel float64
}

func TolerancesFrom(cfg config.SolverConfig) Tolerances {
	return Tolerances{
		VoltAbs: cfg.VoltAbs,
		VoltRel: cfg.VoltRel,
		CurrAbs: cfg.CurrAbs,
		CurrRel: cfg.CurrRel,
	}
}

// Converged reports whether an iterate is accepted. Unknowns [0, nv) are
// node voltages whose residual rows are KCL equations (amperes); the rest
// are branch currents whose rows are KVL equations (volts). Each residual is
// therefore bounded by the other kind's absolute tolerance.
func (tol Tolerances) Converged(x, dx, residual []float64, nv int) bool {
	for i := range x {
		if i < nv {
			if math.Abs(dx[i]) >= tol.VoltRel*math.Abs(x[i])+tol.VoltAbs {
				return false
			}
			if math.Abs(residual[i]) >= tol.CurrAbs {
				return false
			}
			continue
		}

		if math.Abs(dx[i]) >= tol.CurrRel*math.Abs(x[i])+tol.CurrAbs {
			return false
		}
		if math.Abs(residual[i]) >= tol.VoltAbs {
			return false
		}
	}
	return true
}
