package analysis

import "slices"

// Sink receives the rows of an analysis. The core never formats output itself.
type Sink interface {
	WriteHeader(names []string) error
	WriteRow(values []float64) error
	Close() error
}

// Result holds the rows of a completed analysis. The first column is the
// independent variable except for an operating point.
type Result struct {
	Analysis string
	Names    []string
	Rows     [][]float64

	// AC solutions by frequency, in unknown order.
	Complex [][]complex128
	// Sweep values of points dropped by a skip policy.
	Skipped [][]float64
	// Operating point found only with gmin in place.
	GminDependent bool
	Iterations    int
}

func (r *Result) index(name string) int {
	return slices.IndexFunc(r.Names, func(n string) bool { return upper(n) == upper(name) })
}

// Column returns every value of the named column.
func (r *Result) Column(name string) ([]float64, bool) {
	idx := r.index(name)
	if idx < 0 {
		return nil, false
	}
	col := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		col[i] = row[idx]
	}
	return col, true
}

// Last returns the final value of the named column.
func (r *Result) Last(name string) (float64, bool) {
	idx := r.index(name)
	if idx < 0 || len(r.Rows) == 0 {
		return 0, false
	}
	return r.Rows[len(r.Rows)-1][idx], true
}

func (r *Result) WriteTo(sink Sink) error {
	if err := sink.WriteHeader(r.Names); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := sink.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func (r *Result) appendRow(lead []float64, x []float64) {
	row := make([]float64, 0, len(lead)+len(x))
	row = append(row, lead...)
	row = append(row, x...)
	r.Rows = append(r.Rows, row)
}
