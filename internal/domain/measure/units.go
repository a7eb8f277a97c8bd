// Package measure normalizes user-supplied quantities into canonical base units.
// All quantity arithmetic in the analysis pipelines runs on base units; display
// units only come back into play at presentation time.
package measure

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Dimension is the physical kind a unit measures.
type Dimension string

const (
	DimensionMass   Dimension = "mass"
	DimensionVolume Dimension = "volume"
	DimensionCount  Dimension = "count"
)

// BaseUnit returns the canonical unit symbol for the dimension.
func (d Dimension) BaseUnit() string {
	switch d {
	case DimensionMass:
		return "g"
	case DimensionVolume:
		return "ml"
	case DimensionCount:
		return "count"
	default:
		return ""
	}
}

// ErrUnknownUnit is matched by every *UnknownUnitError.
var ErrUnknownUnit = errors.New("unknown unit")

// UnknownUnitError reports a unit the normalizer has no conversion for.
type UnknownUnitError struct {
	Unit string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q", e.Unit)
}

// Is lets errors.Is(err, ErrUnknownUnit) match.
func (e *UnknownUnitError) Is(target error) bool {
	return target == ErrUnknownUnit
}

// Unit describes a display unit and its linear factor to the base unit.
type Unit struct {
	Symbol    string
	Dimension Dimension
	Factor    float64
	// Precision is the number of decimals used by Format.
	Precision int
}

var units = map[string]Unit{
	// mass, base g
	"mg": {Symbol: "mg", Dimension: DimensionMass, Factor: 0.001, Precision: 0},
	"g":  {Symbol: "g", Dimension: DimensionMass, Factor: 1, Precision: 1},
	"kg": {Symbol: "kg", Dimension: DimensionMass, Factor: 1000, Precision: 2},
	"oz": {Symbol: "oz", Dimension: DimensionMass, Factor: 28.349523125, Precision: 1},
	"lb": {Symbol: "lb", Dimension: DimensionMass, Factor: 453.59237, Precision: 2},

	// volume, base ml
	"ml":    {Symbol: "ml", Dimension: DimensionVolume, Factor: 1, Precision: 1},
	"l":     {Symbol: "l", Dimension: DimensionVolume, Factor: 1000, Precision: 2},
	"tsp":   {Symbol: "tsp", Dimension: DimensionVolume, Factor: 4.92892159375, Precision: 1},
	"tbsp":  {Symbol: "tbsp", Dimension: DimensionVolume, Factor: 14.78676478125, Precision: 1},
	"cup":   {Symbol: "cup", Dimension: DimensionVolume, Factor: 236.5882365, Precision: 1},
	"fl_oz": {Symbol: "fl_oz", Dimension: DimensionVolume, Factor: 29.5735295625, Precision: 1},
	"pint":  {Symbol: "pint", Dimension: DimensionVolume, Factor: 473.176473, Precision: 1},
	"quart": {Symbol: "quart", Dimension: DimensionVolume, Factor: 946.352946, Precision: 1},
	"gal":   {Symbol: "gal", Dimension: DimensionVolume, Factor: 3785.411784, Precision: 2},

	// count, base count
	"count": {Symbol: "count", Dimension: DimensionCount, Factor: 1, Precision: 1},
	"dozen": {Symbol: "dozen", Dimension: DimensionCount, Factor: 12, Precision: 1},
}

var aliases = map[string]string{
	"milligram": "mg", "milligrams": "mg",
	"gram": "g", "grams": "g", "gr": "g",
	"kilogram": "kg", "kilograms": "kg", "kilo": "kg", "kilos": "kg", "kgs": "kg",
	"ounce": "oz", "ounces": "oz",
	"pound": "lb", "pounds": "lb", "lbs": "lb",

	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"liter": "l", "liters": "l", "litre": "l", "litres": "l", "ltr": "l",
	"teaspoon": "tsp", "teaspoons": "tsp",
	"tablespoon": "tbsp", "tablespoons": "tbsp",
	"cups": "cup",
	"floz": "fl_oz", "fl oz": "fl_oz", "fluid ounce": "fl_oz", "fluid ounces": "fl_oz",
	"pints":  "pint",
	"quarts": "quart", "qt": "quart",
	"gallon": "gal", "gallons": "gal",

	"piece": "count", "pieces": "count", "pc": "count", "pcs": "count",
	"item": "count", "items": "count", "unit": "count", "units": "count",
	"each": "count", "ea": "count", "x": "count",
	"pack": "count", "packs": "count", "can": "count", "cans": "count",
	"bottle": "count", "bottles": "count", "box": "count", "boxes": "count",
	"loaf": "count", "loaves": "count", "bunch": "count", "bunches": "count",
	"dozens": "dozen",
}

// Lookup resolves a unit string, case-insensitively and through aliases.
func Lookup(unit string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	u, ok := units[key]
	if !ok {
		return Unit{}, &UnknownUnitError{Unit: unit}
	}
	return u, nil
}

// ToBase converts quantity in unit into the dimension's base unit.
func ToBase(quantity float64, unit string) (float64, Dimension, error) {
	u, err := Lookup(unit)
	if err != nil {
		return 0, "", err
	}
	return quantity * u.Factor, u.Dimension, nil
}

// FromBase converts a base-unit quantity back into unit.
func FromBase(baseQuantity float64, unit string) (float64, error) {
	u, err := Lookup(unit)
	if err != nil {
		return 0, err
	}
	return baseQuantity / u.Factor, nil
}

// AreCompatible reports whether two units measure the same dimension.
// Unknown units are never compatible with anything.
func AreCompatible(unitA, unitB string) bool {
	a, err := Lookup(unitA)
	if err != nil {
		return false
	}
	b, err := Lookup(unitB)
	if err != nil {
		return false
	}
	return a.Dimension == b.Dimension
}

// Convert converts quantity between two units of the same dimension.
func Convert(quantity float64, from, to string) (float64, error) {
	src, err := Lookup(from)
	if err != nil {
		return 0, err
	}
	dst, err := Lookup(to)
	if err != nil {
		return 0, err
	}
	if src.Dimension != dst.Dimension {
		return 0, fmt.Errorf("cannot convert %s (%s) to %s (%s)", from, src.Dimension, to, dst.Dimension)
	}
	return quantity * src.Factor / dst.Factor, nil
}

// Format renders a display-unit quantity with the unit's precision.
func Format(quantity float64, unit string) (string, error) {
	u, err := Lookup(unit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.*f %s", u.Precision, quantity, u.Symbol), nil
}

// Round rounds to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
