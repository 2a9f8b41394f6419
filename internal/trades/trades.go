// Package trades is the fixed catalog of trade-specific quantity formulas:
// roofing, siding, fascia/soffit, and guttering. Each formula is a pure
// function over the flat variable table, used when a template item carries
// no authored formula of its own. A second registry of computations derives
// variables straight from the raw provider payload, for multi-field
// derivations a single lookup path cannot express.
package trades

import (
	"math"

	"github.com/bidstack/takeoff/internal/expr"
	"github.com/bidstack/takeoff/internal/measure"
)

// Formula is a named, code-defined quantity formula over the variable
// table. The result is a raw quantity; the applicator owns rounding.
type Formula func(vars expr.VarTable) float64

// Formulas returns the closed registry of named trade formulas. The table
// is rebuilt per call so callers can never mutate shared state.
func Formulas() map[string]Formula {
	reg := make(map[string]Formula)
	registerRoofing(reg)
	registerSiding(reg)
	registerExterior(reg)
	return reg
}

// Computations returns the closed registry of raw-data derivations
// available to computed field mappings.
func Computations() map[string]measure.Computation {
	reg := make(map[string]measure.Computation)
	registerRoofComputations(reg)
	registerWallComputations(reg)
	return reg
}

// wasteFactor reads the reserved waste multiplier from the table. The
// applicator exposes it as (wastePercent+100)/100; a table without it (e.g.
// a formula exercised directly from a computed mapping) gets no overage.
func wasteFactor(vars expr.VarTable) float64 {
	if f := vars.Lookup("waste"); f > 0 {
		return f
	}
	return 1
}

// squares converts an area in square feet to roofing/siding squares.
func squares(areaSqFt float64) float64 {
	return areaSqFt / 100
}

// perLength converts a linear run into pieces of a given stock length.
func perLength(runLF, stockLF float64) float64 {
	if stockLF <= 0 {
		return 0
	}
	return runLF / stockLF
}

// nonNegative floors a computed quantity at zero; measurements never yield
// negative material.
func nonNegative(v float64) float64 {
	return math.Max(v, 0)
}
