package netlist

import (
	"fmt"
	"strings"

	"github.com/edp1096/mnaspice/pkg/device"
)

// sourceCard is the right-hand side of a V or I card.
type sourceCard struct {
	dc      float64
	hasDC   bool
	acMag   float64
	acPhase float64
	wave    device.Waveform
}

// V1 n+ n- [DC] v [AC mag [phase]] [SIN(..)|PULSE(..)|PWL(..)|EXP(..)]
func (nl *Netlist) parseSource(kind string, fields []string) error {
	if err := need(fields, 4, "source"); err != nil {
		return err
	}
	card, err := parseSourceCard(fields[3:])
	if err != nil {
		return fmt.Errorf("source %s: %w", fields[0], err)
	}

	name, nodes := fields[0], fields[1:3]
	var (
		dev device.Device
		sig interface {
			SetWaveform(device.Waveform)
			SetAC(mag, phase float64)
		}
	)
	switch {
	case kind == "V" && card.wave != nil && !card.hasDC:
		v, e := device.NewWaveformVoltageSource(name, nodes, card.wave)
		dev, sig, err = v, v, e
	case kind == "V":
		v, e := device.NewVoltageSource(name, nodes, card.dc)
		dev, sig, err = v, v, e
	case card.wave != nil && !card.hasDC:
		i, e := device.NewWaveformCurrentSource(name, nodes, card.wave)
		dev, sig, err = i, i, e
	default:
		i, e := device.NewCurrentSource(name, nodes, card.dc)
		dev, sig, err = i, i, e
	}
	if err != nil {
		return err
	}

	if card.wave != nil {
		sig.SetWaveform(card.wave)
	}
	sig.SetAC(card.acMag, card.acPhase)
	return nl.Circuit.Add(dev)
}

func parseSourceCard(fields []string) (sourceCard, error) {
	var card sourceCard

	// Append whitespace around parentheses
	remaining := strings.Join(fields, " ")
	remaining = strings.ReplaceAll(remaining, "(", " ( ")
	remaining = strings.ReplaceAll(remaining, ")", " ) ")
	remaining = strings.ReplaceAll(remaining, ",", " ")
	words := strings.Fields(remaining)

	for i := 0; i < len(words); {
		word := strings.ToUpper(words[i])
		switch word {
		case "DC":
			if i+1 >= len(words) {
				return card, syntaxError("missing DC value")
			}
			v, err := ParseValue(words[i+1])
			if err != nil {
				return card, err
			}
			card.dc, card.hasDC = v, true
			i += 2

		case "AC":
			if i+1 >= len(words) {
				return card, syntaxError("missing AC magnitude")
			}
			mag, err := ParseValue(words[i+1])
			if err != nil {
				return card, fmt.Errorf("invalid AC magnitude: %w", err)
			}
			card.acMag = mag
			i += 2
			if i < len(words) {
				if phase, err := ParseValue(words[i]); err == nil {
					card.acPhase = phase
					i++
				}
			}

		case "SIN", "PULSE", "PWL", "EXP":
			if card.wave != nil {
				return card, syntaxError("more than one waveform")
			}
			args, next, err := parenthesised(words, i+1)
			if err != nil {
				return card, fmt.Errorf("%s: %w", word, err)
			}
			values, err := parseValues(args)
			if err != nil {
				return card, fmt.Errorf("%s: %w", word, err)
			}
			if card.wave, err = waveform(word, values); err != nil {
				return card, err
			}
			i = next

		default:
			if i != 0 {
				return card, syntaxError("unexpected %q", words[i])
			}
			v, err := ParseValue(words[i])
			if err != nil {
				return card, err
			}
			card.dc, card.hasDC = v, true
			i++
		}
	}
	return card, nil
}

// parenthesised returns the words between "(" at start and the matching
// ")" plus the index after it. Parentheses are optional.
func parenthesised(words []string, start int) ([]string, int, error) {
	if start >= len(words) || words[start] != "(" {
		end := start
		for end < len(words) && !isKeyword(words[end]) {
			end++
		}
		return words[start:end], end, nil
	}
	for end := start + 1; end < len(words); end++ {
		if words[end] == ")" {
			return words[start+1 : end], end + 1, nil
		}
	}
	return nil, 0, syntaxError("missing )")
}

func isKeyword(word string) bool {
	switch strings.ToUpper(word) {
	case "DC", "AC", "SIN", "PULSE", "PWL", "EXP":
		return true
	}
	return false
}

// pad fills optional trailing arguments with zero.
func pad(values []float64, lo, hi int, name string) ([]float64, error) {
	if len(values) < lo || len(values) > hi {
		return nil, syntaxError("%s takes %d to %d values, got %d", name, lo, hi, len(values))
	}
	out := make([]float64, hi)
	copy(out, values)
	return out, nil
}

func waveform(name string, values []float64) (device.Waveform, error) {
	switch name {
	case "SIN":
		// VO VA FREQ [TD [THETA [PHASE]]]
		v, err := pad(values, 3, 6, name)
		if err != nil {
			return nil, err
		}
		return device.Sin{Offset: v[0], Amplitude: v[1], Freq: v[2], Delay: v[3], Damping: v[4], Phase: v[5]}, nil

	case "PULSE":
		// V1 V2 TD TR TF PW PER
		v, err := pad(values, 7, 7, name)
		if err != nil {
			return nil, err
		}
		return device.Pulse{V1: v[0], V2: v[1], Delay: v[2], Rise: v[3], Fall: v[4], Width: v[5], Period: v[6]}, nil

	case "PWL":
		if len(values) < 2 || len(values)%2 != 0 {
			return nil, syntaxError("PWL needs time-value pairs")
		}
		times := make([]float64, 0, len(values)/2)
		levels := make([]float64, 0, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			times = append(times, values[i])
			levels = append(levels, values[i+1])
		}
		return device.NewPWL(times, levels)

	case "EXP":
		// V1 V2 [TD1 [TAU1 [TD2 [TAU2]]]]
		v, err := pad(values, 2, 6, name)
		if err != nil {
			return nil, err
		}
		return device.Exp{V1: v[0], V2: v[1], Delay1: v[2], Tau1: v[3], Delay2: v[4], Tau2: v[5]}, nil
	}
	return nil, syntaxError("unsupported waveform %s", name)
}
