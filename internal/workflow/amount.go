package workflow

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names shared by the flows
const (
	FieldAmount       = "amount"
	FieldAmountMode   = "amount_mode"
	FieldPreset       = "preset"
	FieldCustomAmount = "custom_amount"
	FieldFrequency    = "frequency"

	AmountModePreset = "preset"
	AmountModeCustom = "custom"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)

	validate = validator.New()
)

// ParseFloatPrefix reads the leading decimal number of raw, ignoring any
// trailing text. Input without a leading number yields 0.
func ParseFloatPrefix(raw string) float64 {
	m := floatPrefix.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseIntPrefix reads the leading integer of raw; "12.7" gives 12
func ParseIntPrefix(raw string) float64 {
	m := intPrefix.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return float64(v)
}

// Amount resolves the effective amount of a run. Preset and custom input
// are exclusive; the amount mode decides which one counts.
func Amount(def *Definition, f Fields) float64 {
	if f[FieldAmountMode] == AmountModeCustom {
		if def.Coerce == nil {
			return 0
		}
		return def.Coerce(f[FieldCustomAmount])
	}
	v, err := strconv.ParseFloat(f[FieldPreset], 64)
	if err != nil {
		return 0
	}
	return v
}

func isPreset(def *Definition, raw string) bool {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false
	}
	for _, p := range def.Presets {
		if p == v {
			return true
		}
	}
	return false
}

// PositiveAmount blocks until the resolved amount is above zero
func PositiveAmount(def *Definition) Guard {
	return func(f Fields) Problems {
		if Amount(def, f) <= 0 {
			return Problems{FieldAmount: "must be greater than zero"}
		}
		return nil
	}
}

// Required blocks while any of the named fields is blank
func Required(names ...string) Guard {
	return func(f Fields) Problems {
		problems := Problems{}
		for _, n := range names {
			if strings.TrimSpace(f[n]) == "" {
				problems[n] = "is required"
			}
		}
		return problems
	}
}

// Email blocks when the field is present but not an address
func Email(name string) Guard {
	return func(f Fields) Problems {
		v := strings.TrimSpace(f[name])
		if v == "" {
			return nil
		}
		if err := validate.Var(v, "email"); err != nil {
			return Problems{name: "is not a valid email address"}
		}
		return nil
	}
}

// All merges the problems of every guard, first message per field wins
func All(guards ...Guard) Guard {
	return func(f Fields) Problems {
		problems := Problems{}
		for _, g := range guards {
			for k, v := range g(f) {
				if _, seen := problems[k]; !seen {
					problems[k] = v
				}
			}
		}
		return problems
	}
}
