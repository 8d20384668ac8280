// Package netlist reads SPICE-style netlists into a circuit and the
// analyses requested by its control cards.
package netlist

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/edp1096/mnaspice/pkg/analysis"
	"github.com/edp1096/mnaspice/pkg/circuit"
	"github.com/edp1096/mnaspice/pkg/config"
	"github.com/edp1096/mnaspice/pkg/device"
)

var ErrSyntax = errors.New("netlist: syntax error")

// LineError ties a parse failure to the netlist line it came from.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v (%s)", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

func syntaxError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

// Netlist is a parsed circuit with its model table, requested analyses and
// the solver configuration after .options and .temp.
type Netlist struct {
	Title    string
	Circuit  *circuit.Circuit
	Models   map[string]device.ModelParam
	Analyses []analysis.Analysis
	Config   config.SolverConfig
	// OnFailure is the policy of every .dc card.
	OnFailure analysis.FailurePolicy
}

// statement is one logical line after continuation lines were joined.
type statement struct {
	line   int
	text   string
	fields []string
}

func (s statement) wrap(err error) error {
	if err == nil {
		return nil
	}
	return &LineError{Line: s.line, Text: s.text, Err: err}
}

var spaces = regexp.MustCompile(`\s+`)

func ParseFile(path string, cfg config.SolverConfig) (*Netlist, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), cfg)
}

// Parse reads netlist text. Options found in the netlist are applied on top
// of cfg. A netlist without an analysis card gets an operating point.
func Parse(input string, cfg config.SolverConfig) (*Netlist, error) {
	title, stmts, err := scan(input)
	if err != nil {
		return nil, err
	}

	nl := &Netlist{
		Title:   title,
		Circuit: circuit.New(title),
		Models:  make(map[string]device.ModelParam),
		Config:  cfg,
	}

	// Models and options first so element order in the file does not matter.
	var elements, controls []statement
	for _, st := range stmts {
		switch strings.ToLower(st.fields[0]) {
		case ".model":
			err = nl.parseModel(st.fields[1:])
		case ".options", ".option", ".opt":
			err = nl.parseOptions(st.fields[1:])
		case ".temp":
			err = nl.parseTemp(st.fields[1:])
		default:
			if strings.HasPrefix(st.fields[0], ".") {
				controls = append(controls, st)
			} else {
				elements = append(elements, st)
			}
		}
		if err != nil {
			return nil, st.wrap(err)
		}
	}
	if err := nl.Config.Validate(); err != nil {
		return nil, err
	}

	for _, st := range elements {
		if err := nl.parseElement(st.fields); err != nil {
			return nil, st.wrap(err)
		}
	}
	for _, st := range controls {
		if err := nl.parseControl(st.fields); err != nil {
			return nil, st.wrap(err)
		}
	}

	if len(nl.Analyses) == 0 {
		nl.Analyses = append(nl.Analyses, analysis.NewOP())
	}
	return nl, nil
}

// scan splits the input into statements. The first line is the title, '*'
// starts a comment, ';' ends the useful part of a line and '+' continues the
// previous statement. Reading stops at .end.
func scan(input string) (string, []statement, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))

	var title string
	if scanner.Scan() {
		title = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "*"))
	}

	var stmts []statement
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexAny(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)

		if len(line) == 0 || strings.HasPrefix(line, "*") {
			continue
		}
		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		if strings.HasPrefix(line, "+") {
			if len(stmts) == 0 {
				return "", nil, &LineError{Line: lineNo, Text: line, Err: syntaxError("continuation without a statement")}
			}
			last := &stmts[len(stmts)-1]
			last.text += " " + strings.TrimSpace(line[1:])
			continue
		}

		if strings.EqualFold(strings.Fields(line)[0], ".end") {
			break
		}
		stmts = append(stmts, statement{line: lineNo, text: line})
	}
	if err := scanner.Err(); err != nil {
		return "", nil, err
	}

	for i := range stmts {
		stmts[i].text = spaces.ReplaceAllString(stmts[i].text, " ")
		stmts[i].fields = strings.Fields(stmts[i].text)
	}
	return title, stmts, nil
}
