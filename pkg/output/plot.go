package output

import (
	"fmt"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Plot renders every column against the first one when closed. The image
// format follows the file extension (png, svg, pdf, ...).
type Plot struct {
	table
	path   string
	Title  string
	Width  vg.Length
	Height vg.Length
	// LogX draws the first column on a log scale, as for a DEC or OCT sweep.
	LogX bool
}

func NewPlot(path, title string) *Plot {
	return &Plot{
		path:   path,
		Title:  title,
		Width:  8 * vg.Inch,
		Height: 5 * vg.Inch,
	}
}

func (p *Plot) WriteHeader(names []string) error { return p.header(names) }

func (p *Plot) WriteRow(values []float64) error { return p.row(values) }

// Close renders the image. A table with fewer than two rows has nothing to
// draw a line through and writes no file.
func (p *Plot) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if len(p.rows) < 2 || len(p.names) < 2 {
		return nil
	}

	pl, err := p.build()
	if err != nil {
		return err
	}
	if err := pl.Save(p.Width, p.Height, p.path); err != nil {
		return fmt.Errorf("saving plot %s: %w", p.path, err)
	}
	return nil
}

func (p *Plot) build() (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = p.names[0]
	pl.Add(plotter.NewGrid())

	logX := p.LogX || strings.EqualFold(p.names[0], "FREQ")
	if logX {
		pl.X.Scale = plot.LogScale{}
		pl.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	x := p.column(0)
	var lines []any
	for _, idx := range p.series() {
		y := p.column(idx)
		xys := make(plotter.XYs, 0, len(x))
		for i := range x {
			if logX && x[i] <= 0 {
				continue
			}
			xys = append(xys, plotter.XY{X: x[i], Y: y[i]})
		}
		lines = append(lines, p.names[idx], xys)
	}
	if err := plotutil.AddLines(pl, lines...); err != nil {
		return nil, fmt.Errorf("building plot: %w", err)
	}
	return pl, nil
}
