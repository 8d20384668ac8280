package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/edp1096/mnaspice/pkg/analysis"
	"github.com/edp1096/mnaspice/pkg/util"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00")).Bold(true)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
)

func printResult(w io.Writer, name string, res *analysis.Result) {
	heading := fmt.Sprintf("%s analysis (%d points)", strings.ToUpper(name), len(res.Rows))
	if res.GminDependent {
		heading += warnStyle.Render("  gmin dependent")
	}
	fmt.Fprintln(w, titleStyle.Render(heading))
	if len(res.Skipped) > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d sweep points skipped", len(res.Skipped))))
	}

	if name == "op" {
		fmt.Fprintln(w, operatingPointTable(res).Render())
		return
	}
	fmt.Fprintln(w, sweepTable(res).Render())
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Operating point: one line per unknown.
func operatingPointTable(res *analysis.Result) *table.Table {
	t := newTable().Headers("Unknown", "Value")
	if len(res.Rows) == 0 {
		return t
	}
	for i, n := range res.Names {
		t.Row(n, formatCell(n, res.Rows[0][i]))
	}
	return t
}

func sweepTable(res *analysis.Result) *table.Table {
	t := newTable().Headers(res.Names...)
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(res.Names[i], v)
		}
		t.Row(cells...)
	}
	return t
}

// formatCell picks the unit from the column name.
func formatCell(name string, v float64) string {
	upper := strings.ToUpper(name)
	switch {
	case upper == "FREQ":
		return util.FormatFrequency(v)
	case strings.HasSuffix(upper, "_PHASE"):
		return util.FormatPhase(v)
	case strings.HasSuffix(upper, "_MAG"):
		return util.FormatMagnitude(v)
	case upper == "TIME":
		return util.FormatValueFactor(v, "s")
	case strings.HasPrefix(upper, "I("), strings.HasPrefix(upper, "I") && !strings.Contains(upper, "("):
		return util.FormatValueFactor(v, "A")
	default:
		return util.FormatValueFactor(v, "V")
	}
}
