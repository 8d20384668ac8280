package integrator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type backwardDifferentialFormula struct {
	coefficients []float64
	beta         float64
}

// x_{n+1} = sum a_i x_{n+1-i} + beta h ẋ_{n+1}
var bdfCoefficients = [6]backwardDifferentialFormula{
	{[]float64{1.0}, 1.0},
	{[]float64{4.0 / 3.0, -1.0 / 3.0}, 2.0 / 3.0},
	{[]float64{18.0 / 11.0, -9.0 / 11.0, 2.0 / 11.0}, 6.0 / 11.0},
	{[]float64{48.0 / 25.0, -36.0 / 25.0, 16.0 / 25.0, -3.0 / 25.0}, 12.0 / 25.0},
	{[]float64{300.0 / 137.0, -300.0 / 137.0, 200.0 / 137.0, -75.0 / 137.0, 12.0 / 137.0}, 60.0 / 137.0},
	{[]float64{360.0 / 147.0, -450.0 / 147.0, 400.0 / 147.0, -225.0 / 147.0, 72.0 / 147.0, -10.0 / 147.0}, 60.0 / 147.0},
}

// Gear is the fixed-step backward differentiation formula of the given order.
type Gear struct {
	Order int
}

func (g Gear) Name() string { return fmt.Sprintf("gear%d", g.Order) }
func (g Gear) Depth() int   { return g.Order }

func (g Gear) Ready(hist *History) bool { return hist.Len() >= g.Order }

func (g Gear) Coefficients(h float64, hist *History) (float64, *mat.VecDense) {
	bdf := bdfCoefficients[g.Order-1]
	c1 := 1.0 / (bdf.beta * h)

	var c0 mat.VecDense
	c0.ScaleVec(-c1*bdf.coefficients[0], hist.At(0).X)
	for i := 1; i < g.Order; i++ {
		c0.AddScaledVec(&c0, -c1*bdf.coefficients[i], hist.At(i).X)
	}
	return c1, &c0
}
