package output

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"
)

// ASCII draws the table as a terminal chart on Close. Columns are
// resampled by asciigraph to fit Width.
type ASCII struct {
	table
	w       io.Writer
	Width   int
	Height  int
	Caption string
}

func NewASCII(w io.Writer, caption string) *ASCII {
	return &ASCII{w: w, Width: 72, Height: 16, Caption: caption}
}

func (a *ASCII) WriteHeader(names []string) error { return a.header(names) }

func (a *ASCII) WriteRow(values []float64) error { return a.row(values) }

func (a *ASCII) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	if len(a.rows) < 2 {
		return nil
	}

	var data [][]float64
	var legends []string
	for _, idx := range a.series() {
		data = append(data, a.column(idx))
		legends = append(legends, a.names[idx])
	}
	if len(data) == 0 {
		return nil
	}

	x := a.column(0)
	caption := fmt.Sprintf("%s: %s from %g to %g", a.Caption, a.names[0], x[0], x[len(x)-1])
	chart := asciigraph.PlotMany(data,
		asciigraph.Height(a.Height),
		asciigraph.Width(a.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(palette(len(data))...),
		asciigraph.SeriesLegends(legends...),
	)
	_, err := fmt.Fprintln(a.w, chart)
	return err
}

func palette(n int) []asciigraph.AnsiColor {
	colors := []asciigraph.AnsiColor{
		asciigraph.Default, asciigraph.Red, asciigraph.Green,
		asciigraph.Blue, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Cyan,
	}
	out := make([]asciigraph.AnsiColor, n)
	for i := range out {
		out[i] = colors[i%len(colors)]
	}
	return out
}
