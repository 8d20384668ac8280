package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.MaxIter != DefaultMaxIter {
		t.Errorf("expected maxit %d, got %d", DefaultMaxIter, cfg.MaxIter)
	}
	if cfg.Damping {
		t.Error("damping should be off by default")
	}
	if !cfg.UseStandard || !cfg.UseGminStepping || !cfg.UseSourceStepping {
		t.Error("all solve methods should be enabled by default")
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("maxit: 50\ngmin: 1e-9\nuse_source_stepping: false\nmethod: gear2\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.MaxIter != 50 {
		t.Errorf("expected maxit 50, got %d", cfg.MaxIter)
	}
	if cfg.Gmin != 1e-9 {
		t.Errorf("expected gmin 1e-9, got %g", cfg.Gmin)
	}
	if cfg.UseSourceStepping {
		t.Error("source stepping should be disabled")
	}
	if cfg.Integration != "gear2" {
		t.Errorf("expected method gear2, got %s", cfg.Integration)
	}
	if cfg.VoltAbs != DefaultVoltAbs {
		t.Errorf("untouched keys keep defaults, got vea=%g", cfg.VoltAbs)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SolverConfig)
	}{
		{"zero maxit", func(c *SolverConfig) { c.MaxIter = 0 }},
		{"negative gmin", func(c *SolverConfig) { c.Gmin = -1 }},
		{"no methods", func(c *SolverConfig) {
			c.UseStandard, c.UseGminStepping, c.UseSourceStepping = false, false, false
		}},
		{"zero vea", func(c *SolverConfig) { c.VoltAbs = 0 }},
		{"bad solver", func(c *SolverConfig) { c.Solver = "magic" }},
		{"zero gmin steps", func(c *SolverConfig) { c.GminSteps = 0 }},
		{"damping without factor", func(c *SolverConfig) { c.Damping, c.LockFactor = true, 0 }},
		{"damped iterations exceed maxit", func(c *SolverConfig) { c.DampFirstIters, c.MaxIter = true, DampedIters - 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solver.yaml")

	cfg := Default()
	cfg.MaxIter = 77
	cfg.Damping = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded config differs: %+v vs %+v", loaded, cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestWriteEmitsKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Default()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("maxit: 1000")) {
		t.Errorf("expected maxit key in output:\n%s", buf.String())
	}
}
