package expr

import (
	"fmt"
	"math"
)

// FunctionRegistry holds the closed set of functions formulas may call.
// Keeping this a static table keyed by name, rather than an open plugin
// mechanism, is what keeps formula evaluation free of arbitrary code
// execution.
type FunctionRegistry struct {
	functions map[string]Function
}

// Function is a pure numeric function over evaluated arguments.
type Function func(args []float64) (float64, error)

// NewFunctionRegistry creates a registry with the built-in functions.
func NewFunctionRegistry() *FunctionRegistry {
	fr := &FunctionRegistry{
		functions: make(map[string]Function),
	}

	// ROUNDUP(x) - smallest integer >= x
	fr.functions["ROUNDUP"] = func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("ROUNDUP() requires exactly 1 argument")
		}
		return math.Ceil(args[0]), nil
	}

	// SUM(x, y, ...) - arithmetic sum of all arguments
	fr.functions["SUM"] = func(args []float64) (float64, error) {
		var total float64
		for _, arg := range args {
			total += arg
		}
		return total, nil
	}

	return fr
}

// Has reports whether name is a registered function.
func (fr *FunctionRegistry) Has(name string) bool {
	_, ok := fr.functions[name]
	return ok
}

// Call invokes a function with the given arguments.
func (fr *FunctionRegistry) Call(name string, args []float64) (float64, error) {
	fn, ok := fr.functions[name]
	if !ok {
		return 0, fmt.Errorf("unknown function: %s", name)
	}
	return fn(args)
}
