package device

import (
	"errors"
	"math"
	"testing"

	"github.com/edp1096/mnaspice/internal/consts"
	"github.com/edp1096/mnaspice/pkg/matrix"
)

func newSystem(t *testing.T, voltages, branches int) *matrix.System {
	t.Helper()
	sys, err := matrix.NewSystem(voltages, branches)
	if err != nil {
		t.Fatal(err)
	}
	return sys
}

func TestZeroValuedPassivesRejected(t *testing.T) {
	nodes := []string{"1", "0"}
	if _, err := NewResistor("R1", nodes, 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("resistor: expected ErrInvalidValue, got %v", err)
	}
	if _, err := NewCapacitor("C1", nodes, 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("capacitor: expected ErrInvalidValue, got %v", err)
	}
	if _, err := NewInductor("L1", nodes, 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("inductor: expected ErrInvalidValue, got %v", err)
	}
}

func TestWrongNodeCount(t *testing.T) {
	if _, err := NewResistor("R1", []string{"1"}, 1e3); !errors.Is(err, ErrNodes) {
		t.Errorf("expected ErrNodes, got %v", err)
	}
	if _, err := NewVCCS("G1", []string{"1", "0"}, 1e-3); !errors.Is(err, ErrNodes) {
		t.Errorf("expected ErrNodes, got %v", err)
	}
}

func TestMutualCoefficientRange(t *testing.T) {
	for _, k := range []float64{0, 1.5, -2} {
		if _, err := NewMutual("K1", "L1", "L2", k); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("k=%g: expected ErrInvalidValue, got %v", k, err)
		}
	}
	if _, err := NewMutual("K1", "L1", "L1", 0.5); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("self coupling: expected ErrInvalidValue, got %v", err)
	}
}

func TestPassiveStampsAreConservative(t *testing.T) {
	r, _ := NewResistor("R1", []string{"1", "2"}, 2e3)
	r.SetNodes([]int{1, 2})
	c, _ := NewCapacitor("C1", []string{"1", "2"}, 1e-6)
	c.SetNodes([]int{1, 2})

	sys := newSystem(t, 2, 0)
	if err := r.Stamp(sys); err != nil {
		t.Fatal(err)
	}
	if err := c.Stamp(sys); err != nil {
		t.Fatal(err)
	}

	for i := range 2 {
		var mSum, dSum float64
		for j := range 2 {
			mSum += sys.M.At(i, j)
			dSum += sys.D.At(i, j)
		}
		if mSum != 0 || dSum != 0 {
			t.Errorf("row %d not conservative: M sum %g, D sum %g", i, mSum, dSum)
		}
	}
	if sys.M.At(0, 0) != 0.5e-3 {
		t.Errorf("G = %g, want 5e-4", sys.M.At(0, 0))
	}
}

func TestVoltageSourceStamp(t *testing.T) {
	v, _ := NewVoltageSource("V1", []string{"1", "0"}, 5)
	v.SetNodes([]int{1, 0})
	v.SetBranchIndex(2)
	v.SetAC(1, 90)

	sys := newSystem(t, 1, 1)
	if err := v.Stamp(sys); err != nil {
		t.Fatal(err)
	}

	if sys.M.At(0, 1) != 1 || sys.M.At(1, 0) != 1 {
		t.Errorf("branch coupling = (%g, %g), want (1, 1)", sys.M.At(0, 1), sys.M.At(1, 0))
	}
	if sys.Zdc.AtVec(1) != 5 {
		t.Errorf("Z_dc = %g, want 5", sys.Zdc.AtVec(1))
	}
	if math.Abs(real(sys.Zac[1])) > 1e-15 || math.Abs(imag(sys.Zac[1])-1) > 1e-15 {
		t.Errorf("Z_ac = %v, want j", sys.Zac[1])
	}
}

func TestVoltageSourceWithoutBranch(t *testing.T) {
	v, _ := NewVoltageSource("V1", []string{"1", "0"}, 5)
	v.SetNodes([]int{1, 0})
	if err := v.Stamp(newSystem(t, 1, 1)); err == nil {
		t.Error("expected error for unassigned branch")
	}
}

func TestCurrentSourceDirection(t *testing.T) {
	i, _ := NewCurrentSource("I1", []string{"1", "2"}, 1e-3)
	i.SetNodes([]int{1, 2})

	sys := newSystem(t, 2, 0)
	if err := i.Stamp(sys); err != nil {
		t.Fatal(err)
	}
	if sys.Zdc.AtVec(0) != -1e-3 || sys.Zdc.AtVec(1) != 1e-3 {
		t.Errorf("Z = (%g, %g), want (-1e-3, 1e-3)", sys.Zdc.AtVec(0), sys.Zdc.AtVec(1))
	}
}

func TestSourceWaveforms(t *testing.T) {
	pulse := Pulse{V1: 0, V2: 1, Delay: 1e-3, Rise: 1e-3, Fall: 1e-3, Width: 2e-3, Period: 10e-3}
	tests := []struct {
		name string
		w    Waveform
		t    float64
		want float64
	}{
		{"pulse before delay", pulse, 0.5e-3, 0},
		{"pulse mid rise", pulse, 1.5e-3, 0.5},
		{"pulse high", pulse, 3e-3, 1},
		{"pulse mid fall", pulse, 4.5e-3, 0.5},
		{"pulse next period", pulse, 13e-3, 1},
		{"sin quarter", Sin{Offset: 1, Amplitude: 2, Freq: 1}, 0.25, 3},
		{"sin before delay", Sin{Offset: 1, Amplitude: 2, Freq: 1, Delay: 1}, 0.5, 1},
		{"pwl interpolate", PWL{Times: []float64{0, 1, 2}, Values: []float64{0, 10, 0}}, 1.5, 5},
		{"pwl hold", PWL{Times: []float64{0, 1}, Values: []float64{0, 10}}, 5, 10},
		{"exp start", Exp{V1: 0, V2: 1, Delay1: 1, Tau1: 1, Delay2: 10, Tau2: 1}, 0.5, 0},
		{"exp one tau", Exp{V1: 0, V2: 1, Delay1: 0, Tau1: 1, Delay2: 10, Tau2: 1}, 1, 1 - math.Exp(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Value(tt.t); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Value(%g) = %g, want %g", tt.t, got, tt.want)
			}
		})
	}
}

func TestPWLValidation(t *testing.T) {
	if _, err := NewPWL([]float64{0, 0}, []float64{1, 2}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	if _, err := NewPWL([]float64{0}, nil); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestWaveformSourceDCValue(t *testing.T) {
	v, err := NewWaveformVoltageSource("V1", []string{"1", "0"}, Pulse{V1: 0.5, V2: 1, Rise: 1, Width: 1})
	if err != nil {
		t.Fatal(err)
	}
	if v.GetValue() != 0.5 {
		t.Errorf("dc value = %g, want 0.5", v.GetValue())
	}
	if !v.HasWaveform() {
		t.Error("expected waveform")
	}
	v.SetValue(3)
	if v.TimeValue(1.5) != 1 {
		t.Errorf("waveform should drive the time value, got %g", v.TimeValue(1.5))
	}
}

func TestControlledSourceStamps(t *testing.T) {
	h, _ := NewCCVS("H1", []string{"2", "0"}, "V1", 10)
	h.SetNodes([]int{2, 0})
	h.SetBranchIndex(4)
	h.SetControlBranch(3)

	f, _ := NewCCCS("F1", []string{"1", "2"}, "V1", 2)
	f.SetNodes([]int{1, 2})
	f.SetControlBranch(3)

	sys := newSystem(t, 2, 2)
	if err := h.Stamp(sys); err != nil {
		t.Fatal(err)
	}
	if err := f.Stamp(sys); err != nil {
		t.Fatal(err)
	}

	if sys.M.At(3, 2) != -10 {
		t.Errorf("CCVS transresistance = %g, want -10", sys.M.At(3, 2))
	}
	if sys.M.At(0, 2) != 2 || sys.M.At(1, 2) != -2 {
		t.Errorf("CCCS gain = (%g, %g), want (2, -2)", sys.M.At(0, 2), sys.M.At(1, 2))
	}
}

func TestMutualStamp(t *testing.T) {
	l1, _ := NewInductor("L1", []string{"1", "0"}, 1e-3)
	l1.SetNodes([]int{1, 0})
	l1.SetBranchIndex(3)
	l2, _ := NewInductor("L2", []string{"2", "0"}, 4e-3)
	l2.SetNodes([]int{2, 0})
	l2.SetBranchIndex(4)

	k, _ := NewMutual("K1", "L1", "L2", 0.5)
	k.SetInductors(l1, l2)

	sys := newSystem(t, 2, 2)
	for _, d := range []Device{l1, l2, k} {
		if err := d.Stamp(sys); err != nil {
			t.Fatal(err)
		}
	}

	if got := sys.D.At(2, 3); math.Abs(got+1e-3) > 1e-15 {
		t.Errorf("D[L1][L2] = %g, want -1e-3", got)
	}
	if sys.D.At(2, 3) != sys.D.At(3, 2) {
		t.Error("mutual stamp must be symmetric")
	}
	if sys.D.At(2, 2) != -1e-3 {
		t.Errorf("D[L1][L1] = %g, want -1e-3", sys.D.At(2, 2))
	}
}

func TestDiodeShockley(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	vt := consts.ThermalVoltage(consts.REFTEMP)

	for _, v := range []float64{-1, 0, 0.3, 0.6, 0.7} {
		want := d.Is * (math.Exp(v/vt) - 1)
		if got := d.Current(v); math.Abs(got-want) > 1e-12*math.Abs(want)+1e-30 {
			t.Errorf("I(%g) = %g, want %g", v, got, want)
		}
	}
	if d.Current(0) != 0 {
		t.Errorf("I(0) = %g, want 0", d.Current(0))
	}
}

func TestDiodeLinearisedExponent(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	nvt := consts.ThermalVoltage(consts.REFTEMP)
	vmax := maxExpArg * nvt

	if math.IsInf(d.Current(100), 0) || math.IsInf(d.Conductance(100), 0) {
		t.Fatal("current and conductance must stay finite")
	}
	// slope of the linear extension equals the conductance at the knee
	dv := 0.1
	slope := (d.Current(vmax+2*dv) - d.Current(vmax+dv)) / dv
	if math.Abs(slope-d.Conductance(vmax))/slope > 1e-9 {
		t.Errorf("slope %g, conductance %g", slope, d.Conductance(vmax))
	}
	if d.Conductance(vmax+1) != d.Conductance(vmax+2) {
		t.Error("conductance must be constant beyond the knee")
	}
}

func TestDiodeConductanceMatchesDerivative(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	v, h := 0.65, 1e-7
	numeric := (d.Current(v+h) - d.Current(v-h)) / (2 * h)
	if math.Abs(numeric-d.Conductance(v))/numeric > 1e-5 {
		t.Errorf("numeric %g, analytic %g", numeric, d.Conductance(v))
	}
}

func TestDiodeTemperatureInvalidatesCache(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	before := d.Current(0.6)
	if len(d.cache) != 1 {
		t.Fatalf("expected one cached entry, got %d", len(d.cache))
	}

	d.SetTemperature(350)
	if len(d.cache) != 0 {
		t.Errorf("cache not cleared on temperature change: %d entries", len(d.cache))
	}
	if after := d.Current(0.6); after == before {
		t.Error("current should change with temperature")
	}
}

func TestDiodeCacheBounded(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	for i := range 3 * maxCacheEntries {
		d.Current(float64(i) * 1e-3)
	}
	if len(d.cache) > maxCacheEntries {
		t.Errorf("cache grew to %d entries", len(d.cache))
	}
}

func TestDiodeTemperatureAtNominal(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	if got := d.temperatureAdjustedIs(d.Tnom); got != d.Is {
		t.Errorf("Is at Tnom = %g, want %g", got, d.Is)
	}
	if d.temperatureAdjustedIs(d.Tnom+50) <= d.Is {
		t.Error("Is should grow with temperature")
	}
}

func TestDiodeModelValidation(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	if err := d.SetModelParameters(map[string]float64{"is": 0}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for is=0, got %v", err)
	}

	d, _ = NewDiode("D2", []string{"1", "0"})
	if err := d.SetModelParameters(map[string]float64{"is": 2e-14, "n": 1.5, "cjo": 1e-12}); err != nil {
		t.Fatal(err)
	}
	if d.Is != 2e-14 || d.N != 1.5 || d.Cj0 != 1e-12 {
		t.Errorf("parameters not applied: %+v", d)
	}
}

func TestDiodeStampAC(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "0"})
	d.SetNodes([]int{1, 0})
	if err := d.SetModelParameters(map[string]float64{"cj0": 2e-12}); err != nil {
		t.Fatal(err)
	}

	sys := newSystem(t, 1, 0)
	d.StampAC(sys, []float64{0})

	y := sys.AC(1, nil).At(0, 0)
	if real(y) != 0 || math.Abs(imag(y)-2e-12) > 1e-24 {
		t.Errorf("AC admittance = %v, want j*2e-12", y)
	}
}

func TestKindString(t *testing.T) {
	if KindDiode.String() != "D" || KindCCCS.String() != "F" {
		t.Errorf("unexpected kind names %s %s", KindDiode, KindCCCS)
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("out-of-range kind = %s", Kind(99))
	}
}

func TestDiodeStampCharge(t *testing.T) {
	d, _ := NewDiode("D1", []string{"1", "2"})
	d.SetNodes([]int{1, 2})
	if err := d.SetModelParameters(map[string]float64{"cj0": 2e-12, "tt": 1e-9}); err != nil {
		t.Fatal(err)
	}

	sys := newSystem(t, 2, 0)
	d.StampCharge(sys, []float64{-1})

	want := d.JunctionCapacitance(-1) + 1e-9*d.Conductance(-1)
	if math.Abs(want-d.Capacitance(-1)) > 1e-30 {
		t.Fatalf("capacitance = %g, want %g", d.Capacitance(-1), want)
	}
	if want >= 2e-12 {
		t.Errorf("reverse bias capacitance %g not below cj0", want)
	}
	if got := sys.D.At(0, 0); math.Abs(got-want) > 1e-27 {
		t.Errorf("D(1,1) = %g, want %g", got, want)
	}
	if got := sys.D.At(0, 1); math.Abs(got+want) > 1e-27 {
		t.Errorf("D(1,2) = %g, want %g", got, -want)
	}
	if sys.M.At(0, 0) != 0 {
		t.Errorf("charge leaked into M")
	}

	plain, _ := NewDiode("D2", []string{"1", "0"})
	plain.SetNodes([]int{1, 0})
	empty := newSystem(t, 1, 0)
	plain.StampCharge(empty, []float64{0.7})
	if empty.D.At(0, 0) != 0 {
		t.Errorf("diode without cj0 or tt stamped %g", empty.D.At(0, 0))
	}
}
