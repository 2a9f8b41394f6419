package measure

import (
	"github.com/rs/zerolog/log"
	"github.com/stoewer/go-strcase"

	"github.com/bidstack/takeoff/internal/diag"
	"github.com/bidstack/takeoff/internal/expr"
)

// Kind selects how a field mapping derives its variable. Exactly one kind is
// active per mapping.
type Kind string

const (
	// KindDirect tries each lookup path against the raw data in order;
	// the first present, numeric-coercible value wins.
	KindDirect Kind = "direct"

	// KindComputed invokes a named built-in computation over the raw
	// data, for derivations a single lookup path cannot express.
	KindComputed Kind = "computed"

	// KindDerived evaluates a formula over variables mapped so far.
	KindDerived Kind = "derived"

	// KindManual always uses the default value; no lookup is attempted.
	KindManual Kind = "manual"
)

// FieldMapping describes how one named variable is derived from external
// measurement data. Mappings are configuration, edited outside the engine
// and consumed read-only at call time.
type FieldMapping struct {
	Name    string   `yaml:"name" json:"name"`
	Unit    string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Kind    Kind     `yaml:"kind" json:"kind"`
	Paths   []string `yaml:"paths,omitempty" json:"paths,omitempty"`
	Compute string   `yaml:"compute,omitempty" json:"compute,omitempty"`
	Formula string   `yaml:"formula,omitempty" json:"formula,omitempty"`
	Default float64  `yaml:"default,omitempty" json:"default,omitempty"`
}

// Computation is a built-in derivation over the raw data, registered by
// name. It may consult variables already extracted.
type Computation func(raw interface{}, vars expr.VarTable) (float64, bool)

// Extractor applies field mappings to raw measurement data.
type Extractor struct {
	eval         *expr.Evaluator
	computations map[string]Computation
}

// NewExtractor creates an extractor. computations is the fixed registry of
// named built-ins available to KindComputed mappings; nil means none.
func NewExtractor(computations map[string]Computation) *Extractor {
	return &Extractor{
		eval:         expr.NewEvaluator(),
		computations: computations,
	}
}

// Extract produces a fresh variable table from raw data. Mappings are
// processed in the order given; the caller is expected to order derived
// mappings after the variables they reference. Failures never abort the
// pass: the affected variable falls back to its default and a warning is
// collected.
func (ex *Extractor) Extract(raw interface{}, mappings []FieldMapping) (expr.VarTable, diag.Warnings) {
	vars := make(expr.VarTable, len(mappings))
	var warnings diag.Warnings

	for _, m := range mappings {
		name := VarName(m.Name)
		value, ok := ex.resolve(raw, vars, m, &warnings)
		if !ok {
			value = m.Default
		}
		vars[name] = value
	}

	return vars, warnings
}

func (ex *Extractor) resolve(raw interface{}, vars expr.VarTable, m FieldMapping, warnings *diag.Warnings) (float64, bool) {
	switch m.Kind {
	case KindDirect:
		for _, path := range m.Paths {
			if v, ok := Lookup(raw, path); ok {
				return v, true
			}
		}
		log.Debug().Str("variable", m.Name).Strs("paths", m.Paths).Msg("no lookup path resolved, using default")
		return 0, false

	case KindComputed:
		fn, ok := ex.computations[m.Compute]
		if !ok {
			warnings.Add(diag.KindConfig, m.Name, "unknown computation %q", m.Compute)
			return 0, false
		}
		return fn(raw, vars)

	case KindDerived:
		expanded, unresolved := expr.ExpandTokens(m.Formula, func(ref expr.TokenRef) (float64, bool) {
			if ref.Scope != "" {
				return 0, false
			}
			v, ok := vars[VarName(ref.Name)]
			return v, ok
		})
		for _, ref := range unresolved {
			warnings.Add(diag.KindUnresolvedRef, m.Name, "formula references undefined variable {%s}", ref)
		}

		value, err := ex.eval.EvaluateStrict(expanded, vars)
		if err != nil {
			warnings.Add(diag.KindSyntax, m.Name, "formula %q: %v", m.Formula, err)
			return 0, false
		}
		return value, true

	case KindManual:
		return m.Default, true

	default:
		warnings.Add(diag.KindConfig, m.Name, "unknown mapping kind %q", m.Kind)
		return 0, false
	}
}

// VarName normalizes an authored variable name to snake_case so mapping
// files and formulas agree on spelling regardless of how the provider or
// the author cased it.
func VarName(name string) string {
	return strcase.SnakeCase(name)
}
