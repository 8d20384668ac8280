package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultVoltAbs     = 1e-6
	DefaultVoltRel     = 1e-3
	DefaultCurrAbs     = 1e-9
	DefaultCurrRel     = 1e-3
	DefaultGmin        = 1e-12
	DefaultMaxIter     = 1000
	DefaultGminSteps   = 10
	DefaultSourceSteps = 10
	DefaultLockFactor  = 4.0
	DefaultTemperature = 300.15 // 27degC
	DefaultIntegration = "trap"
	DefaultSolver      = "sparse"
)

// DampedIters is the number of leading Newton iterations that
// DampFirstIters scales down; no step before it can converge.
const DampedIters = 20

var ErrInvalidConfig = errors.New("config: invalid solver configuration")

// SolverConfig carries every tolerance, cap and switch of an analysis run.
// It is passed by value and never mutated by the solver.
type SolverConfig struct {
	VoltAbs float64 `yaml:"vea"`
	VoltRel float64 `yaml:"ver"`
	CurrAbs float64 `yaml:"iea"`
	CurrRel float64 `yaml:"ier"`

	Gmin    float64 `yaml:"gmin"`
	MaxIter int     `yaml:"maxit"`

	UseStandard       bool `yaml:"use_standard"`
	UseGminStepping   bool `yaml:"use_gmin_stepping"`
	UseSourceStepping bool `yaml:"use_source_stepping"`
	GminSteps         int  `yaml:"gmin_steps"`
	SourceSteps       int  `yaml:"source_steps"`

	Damping        bool    `yaml:"damping"`          // voltage-lock damping
	DampFirstIters bool    `yaml:"damp_first_iters"` // reduce td for the first iterations
	LockFactor     float64 `yaml:"lock_factor"`      // multiple of Vt

	Temperature float64 `yaml:"temp"`
	Integration string  `yaml:"method"`
	Solver      string  `yaml:"solver"`
}

func Default() SolverConfig {
	return SolverConfig{
		VoltAbs:           DefaultVoltAbs,
		VoltRel:           DefaultVoltRel,
		CurrAbs:           DefaultCurrAbs,
		CurrRel:           DefaultCurrRel,
		Gmin:              DefaultGmin,
		MaxIter:           DefaultMaxIter,
		UseStandard:       true,
		UseGminStepping:   true,
		UseSourceStepping: true,
		GminSteps:         DefaultGminSteps,
		SourceSteps:       DefaultSourceSteps,
		LockFactor:        DefaultLockFactor,
		Temperature:       DefaultTemperature,
		Integration:       DefaultIntegration,
		Solver:            DefaultSolver,
	}
}

func (c SolverConfig) Validate() error {
	switch {
	case c.VoltAbs <= 0 || c.CurrAbs <= 0:
		return fmt.Errorf("%w: absolute tolerances must be positive", ErrInvalidConfig)
	case c.VoltRel < 0 || c.CurrRel < 0:
		return fmt.Errorf("%w: relative tolerances must not be negative", ErrInvalidConfig)
	case c.Gmin < 0:
		return fmt.Errorf("%w: gmin must not be negative", ErrInvalidConfig)
	case c.MaxIter < 1:
		return fmt.Errorf("%w: maxit must be at least 1", ErrInvalidConfig)
	case !c.UseStandard && !c.UseGminStepping && !c.UseSourceStepping:
		return fmt.Errorf("%w: no solve method enabled", ErrInvalidConfig)
	case c.UseGminStepping && c.GminSteps < 1:
		return fmt.Errorf("%w: gmin_steps must be at least 1", ErrInvalidConfig)
	case c.UseSourceStepping && c.SourceSteps < 1:
		return fmt.Errorf("%w: source_steps must be at least 1", ErrInvalidConfig)
	case c.DampFirstIters && c.MaxIter < DampedIters:
		return fmt.Errorf("%w: damp_first_iters needs maxit of at least %d, got %d", ErrInvalidConfig, DampedIters, c.MaxIter)
	case c.Damping && c.LockFactor <= 0:
		return fmt.Errorf("%w: lock_factor must be positive", ErrInvalidConfig)
	case c.Temperature <= 0:
		return fmt.Errorf("%w: temperature must be positive (K)", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Solver) {
	case "sparse", "dense":
	default:
		return fmt.Errorf("%w: unknown solver %q", ErrInvalidConfig, c.Solver)
	}
	return nil
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (SolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SolverConfig{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (SolverConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SolverConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return SolverConfig{}, err
	}
	return cfg, nil
}

func Save(path string, cfg SolverConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Write(w io.Writer, cfg SolverConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Logger returns the logger analyses write their diagnostics to.
func Logger(w io.Writer) *log.Logger {
	if w == nil {
		w = io.Discard
	}
	return log.New(w, "spice: ", log.LstdFlags)
}
