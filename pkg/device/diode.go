package device

import (
	"fmt"
	"math"

	"github.com/edp1096/mnaspice/internal/consts"
	"github.com/edp1096/mnaspice/pkg/matrix"
)

// maxExpArg is where the junction exponential turns into its tangent line.
const maxExpArg = 40.0

// maxCacheEntries bounds the per-instance evaluation cache. A full cache is
// cleared rather than evicted piecemeal.
const maxCacheEntries = 256

type diodeKey struct {
	v    float64
	temp float64
}

type diodePoint struct {
	i float64
	g float64
}

type Diode struct {
	BaseDevice
	// Model parameters
	Is  float64 // Saturation current
	N   float64 // Emission coefficient
	Cj0 float64 // Zero-bias junction capacitance
	M   float64 // Grading coefficient
	Vj  float64 // Built-in potential
	Fc  float64 // Forward-bias depletion capacitance coefficient
	Tt  float64 // Transit time

	// Temperature parameters
	Eg   float64 // Energy gap (eV)
	Xti  float64 // Saturation current temperature exponent
	Tnom float64 // Parameter measurement temperature (K)

	temp  float64
	cache map[diodeKey]diodePoint
}

var (
	_ NonLinear     = (*Diode)(nil)
	_ SmallSignal   = (*Diode)(nil)
	_ ChargeStorage = (*Diode)(nil)
	_ Thermal       = (*Diode)(nil)
)

func NewDiode(name string, nodeNames []string) (*Diode, error) {
	base, err := newBaseDevice(name, 0, nodeNames, 2)
	if err != nil {
		return nil, err
	}

	d := &Diode{BaseDevice: base}
	d.setDefaultParameters()
	return d, nil
}

func (d *Diode) GetType() string   { return "D" }
func (d *Diode) Kind() Kind        { return KindDiode }
func (d *Diode) IsNonLinear() bool { return true }

func (d *Diode) setDefaultParameters() {
	d.Is = 1e-14
	d.N = 1.0
	d.Cj0 = 0.0
	d.M = 0.5
	d.Vj = 1.0
	d.Fc = 0.5
	d.Tt = 0.0

	d.Eg = 1.11 // Silicon bandgap
	d.Xti = 3.0
	d.Tnom = consts.REFTEMP

	d.temp = consts.REFTEMP
	d.cache = make(map[diodeKey]diodePoint)
}

// SetModelParameters applies .model values by lower-case name. Unknown keys
// are ignored.
func (d *Diode) SetModelParameters(params map[string]float64) error {
	targets := map[string]*float64{
		"is":   &d.Is,
		"n":    &d.N,
		"cj0":  &d.Cj0,
		"cjo":  &d.Cj0,
		"m":    &d.M,
		"vj":   &d.Vj,
		"fc":   &d.Fc,
		"tt":   &d.Tt,
		"eg":   &d.Eg,
		"xti":  &d.Xti,
		"tnom": &d.Tnom,
	}
	for key, value := range params {
		if p, ok := targets[key]; ok {
			*p = value
		}
	}

	switch {
	case d.Is <= 0:
		return fmt.Errorf("%w: diode %s saturation current must be positive", ErrInvalidValue, d.Name)
	case d.N <= 0:
		return fmt.Errorf("%w: diode %s emission coefficient must be positive", ErrInvalidValue, d.Name)
	case d.Vj <= 0:
		return fmt.Errorf("%w: diode %s junction potential must be positive", ErrInvalidValue, d.Name)
	case d.Fc < 0 || d.Fc >= 1:
		return fmt.Errorf("%w: diode %s fc must be in [0, 1)", ErrInvalidValue, d.Name)
	}

	d.invalidate()
	return nil
}

// SetTemperature invalidates every cached evaluation.
func (d *Diode) SetTemperature(temp float64) {
	if temp == d.temp {
		return
	}
	d.temp = temp
	d.invalidate()
}

func (d *Diode) Temperature() float64 { return d.temp }

func (d *Diode) invalidate() {
	clear(d.cache)
}

func (d *Diode) Ports() []Port {
	return []Port{{Pos: d.Nodes[0], Neg: d.Nodes[1]}}
}

// Stamp has no linear part.
func (d *Diode) Stamp(matrix matrix.DeviceMatrix) error {
	return nil
}

func (d *Diode) GStamp(v []float64) [][]float64 {
	return [][]float64{{d.evaluate(v[0]).g}}
}

func (d *Diode) IStamp(v []float64) []float64 {
	return []float64{d.evaluate(v[0]).i}
}

// Current returns the junction current at vd.
func (d *Diode) Current(vd float64) float64 {
	return d.evaluate(vd).i
}

// Conductance returns dI/dV at vd.
func (d *Diode) Conductance(vd float64) float64 {
	return d.evaluate(vd).g
}

func (d *Diode) evaluate(vd float64) diodePoint {
	key := diodeKey{v: vd, temp: d.temp}
	if p, ok := d.cache[key]; ok {
		return p
	}

	if len(d.cache) >= maxCacheEntries {
		d.invalidate()
	}
	p := d.shockley(vd)
	d.cache[key] = p
	return p
}

func (d *Diode) shockley(vd float64) diodePoint {
	nvt := d.N * consts.ThermalVoltage(d.temp)
	is := d.temperatureAdjustedIs(d.temp)

	arg := vd / nvt
	if arg > maxExpArg {
		// tangent of the exponential at maxExpArg
		e := math.Exp(maxExpArg)
		return diodePoint{
			i: is * (e*(1+arg-maxExpArg) - 1),
			g: is * e / nvt,
		}
	}

	e := math.Exp(arg)
	return diodePoint{
		i: is * (e - 1),
		g: is * e / nvt,
	}
}

// is(T) = is(Tnom) * (T/Tnom)^(XTI/N) * exp(Eg/(N*Vt) * (T/Tnom - 1))
func (d *Diode) temperatureAdjustedIs(temp float64) float64 {
	if temp == d.Tnom {
		return d.Is
	}
	ratio := temp / d.Tnom
	nvt := d.N * consts.ThermalVoltage(temp)
	return d.Is * math.Pow(ratio, d.Xti/d.N) * math.Exp(d.Eg/nvt*(ratio-1))
}

// JunctionCapacitance is the depletion capacitance, linear beyond Fc*Vj.
func (d *Diode) JunctionCapacitance(vd float64) float64 {
	if d.Cj0 == 0 {
		return 0
	}

	if vd < d.Fc*d.Vj {
		return d.Cj0 / math.Pow(1-vd/d.Vj, d.M)
	}

	f1 := math.Pow(1-d.Fc, 1+d.M)
	return d.Cj0 / f1 * (1 - d.Fc*(1+d.M) + d.M*vd/d.Vj)
}

// Capacitance is junction plus diffusion capacitance at vd.
func (d *Diode) Capacitance(vd float64) float64 {
	return d.JunctionCapacitance(vd) + d.Tt*d.Conductance(vd)
}

// StampAC adds the capacitance at the operating point. The small-signal
// conductance comes from GStamp.
func (d *Diode) StampAC(matrix matrix.DeviceMatrix, v []float64) {
	c := d.Capacitance(v[0])
	if c == 0 {
		return
	}

	n1, n2 := d.Nodes[0], d.Nodes[1]
	matrix.AddSmallSignal(n1, n1, 0, c)
	matrix.AddSmallSignal(n1, n2, 0, -c)
	matrix.AddSmallSignal(n2, n1, 0, -c)
	matrix.AddSmallSignal(n2, n2, 0, c)
}

func (d *Diode) StampCharge(matrix matrix.DeviceMatrix, v []float64) {
	c := d.Capacitance(v[0])
	if c == 0 {
		return
	}

	n1, n2 := d.Nodes[0], d.Nodes[1]
	matrix.AddDynamic(n1, n1, c)
	matrix.AddDynamic(n1, n2, -c)
	matrix.AddDynamic(n2, n1, -c)
	matrix.AddDynamic(n2, n2, c)
}
