package integrator

import "gonum.org/v1/gonum/mat"

// Point is one accepted time point. Dx is nil when the derivative is unknown,
// as for the initial condition.
type Point struct {
	T  float64
	X  *mat.VecDense
	Dx *mat.VecDense
}

// History is a fixed-capacity FIFO of accepted points.
type History struct {
	capacity int
	points   []Point
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity, points: make([]Point, 0, capacity)}
}

// Push appends p and drops the oldest point beyond capacity.
func (h *History) Push(p Point) {
	if len(h.points) == h.capacity {
		copy(h.points, h.points[1:])
		h.points = h.points[:h.capacity-1]
	}
	h.points = append(h.points, p)
}

func (h *History) Len() int { return len(h.points) }

func (h *History) Capacity() int { return h.capacity }

// At returns the k-th most recent point, At(0) being the newest.
func (h *History) At(k int) Point {
	return h.points[len(h.points)-1-k]
}

// hasDerivatives reports whether the newest n points carry derivatives.
func (h *History) hasDerivatives(n int) bool {
	if h.Len() < n {
		return false
	}
	for k := range n {
		if h.At(k).Dx == nil {
			return false
		}
	}
	return true
}
