// Package output holds the sinks analysis rows are written to.
package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/edp1096/mnaspice/pkg/analysis"
)

var (
	ErrClosed   = errors.New("output: sink closed")
	ErrRowWidth = errors.New("output: row width does not match header")
)

var (
	_ analysis.Sink = (*Memory)(nil)
	_ analysis.Sink = (*CSV)(nil)
	_ analysis.Sink = (*Plot)(nil)
	_ analysis.Sink = (*ASCII)(nil)
)

func rowWidthError(got, want int) error {
	return fmt.Errorf("%w: %d values for %d columns", ErrRowWidth, got, want)
}

// Tee fans every call out to all sinks. Close reaches every sink even when
// an earlier one fails; the first error is returned.
type Tee []analysis.Sink

func (t Tee) WriteHeader(names []string) error {
	for _, s := range t {
		if err := s.WriteHeader(names); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) WriteRow(values []float64) error {
	for _, s := range t {
		if err := s.WriteRow(values); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

// table buffers rows for sinks that only render once everything arrived.
type table struct {
	names  []string
	rows   [][]float64
	closed bool
}

func (t *table) header(names []string) error {
	if t.closed {
		return ErrClosed
	}
	t.names = append([]string(nil), names...)
	return nil
}

func (t *table) row(values []float64) error {
	if t.closed {
		return ErrClosed
	}
	if len(values) != len(t.names) {
		return rowWidthError(len(values), len(t.names))
	}
	t.rows = append(t.rows, append([]float64(nil), values...))
	return nil
}

func (t *table) column(idx int) []float64 {
	col := make([]float64, len(t.rows))
	for i, row := range t.rows {
		col[i] = row[idx]
	}
	return col
}

// series lists the columns that get plotted against the first one. AC phase
// columns are left out; the magnitudes carry the response.
func (t *table) series() []int {
	var idx []int
	for i := 1; i < len(t.names); i++ {
		if strings.HasSuffix(strings.ToUpper(t.names[i]), "_PHASE") {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// closeWriter closes w when the sink owns it.
func closeWriter(w io.Writer) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
