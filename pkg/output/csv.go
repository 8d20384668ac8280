package output

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strconv"
)

// CSV streams rows to a comma separated file as they arrive.
type CSV struct {
	w      *csv.Writer
	dst    io.Writer
	width  int
	closed bool
	// Prec is the strconv precision; -1 keeps the shortest exact form.
	Prec int
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w), dst: w, Prec: -1}
}

// CreateCSV opens path for writing. The file is closed with the sink.
func CreateCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewCSV(f), nil
}

func (c *CSV) WriteHeader(names []string) error {
	if c.closed {
		return ErrClosed
	}
	c.width = len(names)
	return c.w.Write(names)
}

func (c *CSV) WriteRow(values []float64) error {
	if c.closed {
		return ErrClosed
	}
	if len(values) != c.width {
		return rowWidthError(len(values), c.width)
	}
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = strconv.FormatFloat(v, 'g', c.Prec, 64)
	}
	return c.w.Write(record)
}

func (c *CSV) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.w.Flush()
	return errors.Join(c.w.Error(), closeWriter(c.dst))
}
