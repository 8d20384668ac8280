package output

import "slices"

// Memory keeps every row it receives. It is the sink used when a caller
// wants the table back without going through a file.
type Memory struct {
	Names  []string
	Rows   [][]float64
	closed bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) WriteHeader(names []string) error {
	if m.closed {
		return ErrClosed
	}
	m.Names = slices.Clone(names)
	return nil
}

func (m *Memory) WriteRow(values []float64) error {
	if m.closed {
		return ErrClosed
	}
	if len(values) != len(m.Names) {
		return rowWidthError(len(values), len(m.Names))
	}
	m.Rows = append(m.Rows, slices.Clone(values))
	return nil
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}

func (m *Memory) Closed() bool { return m.closed }
