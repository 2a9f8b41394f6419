package catalog

import (
	"fmt"
	"strings"

	"github.com/bidstack/takeoff/internal/expr"
	"github.com/bidstack/takeoff/internal/measure"
	"github.com/bidstack/takeoff/internal/takeoff"
	"github.com/bidstack/takeoff/internal/trades"
)

// Issue is one validation finding for a specific template item or mapping.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i *Issue) Error() string {
	return fmt.Sprintf("field '%s': %s", i.Field, i.Message)
}

// Result holds the findings of a validation pass. Unlike the engine's
// lenient apply path, validation reports failures outright: nothing
// downstream depends on its result yet, and the author is still editing.
type Result struct {
	Valid  bool     `json:"valid"`
	Issues []*Issue `json:"issues,omitempty"`
}

// AddIssue records a finding and marks the result invalid.
func (r *Result) AddIssue(field, format string, args ...interface{}) {
	r.Valid = false
	r.Issues = append(r.Issues, &Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateTemplate checks a template's items: unique IDs, known sections,
// resolvable dependencies, and well-formed formulas in either authoring
// dialect.
func ValidateTemplate(t *Template) *Result {
	result := &Result{Valid: true}
	eval := expr.NewEvaluator()
	formulas := trades.Formulas()

	ids := make(map[string]bool, len(t.Items))
	for _, item := range t.Items {
		if item.ID == "" {
			result.AddIssue("items", "item %q has no id", item.Description)
			continue
		}
		if ids[item.ID] {
			result.AddIssue(item.ID, "duplicate item id")
		}
		ids[item.ID] = true
	}

	for _, item := range t.Items {
		switch item.Section {
		case takeoff.SectionMaterials, takeoff.SectionLabor:
		default:
			result.AddIssue(item.ID, "unknown section %q", item.Section)
		}

		if item.DependsOn != "" && !ids[item.DependsOn] {
			result.AddIssue(item.ID, "depends on unknown item %q", item.DependsOn)
		}

		if item.Formula != "" {
			if _, err := eval.ValidateAuthored(item.Formula); err != nil {
				result.AddIssue(item.ID, "formula %q: %v", item.Formula, err)
			}
		}

		if item.Compute != "" {
			if item.Formula != "" {
				result.AddIssue(item.ID, "formula and compute are mutually exclusive")
			}
			if _, ok := formulas[item.Compute]; !ok {
				result.AddIssue(item.ID, "unknown trade formula %q", item.Compute)
			}
		}
	}

	return result
}

// ValidateMappings checks a mapping set: unique names, exactly one active
// extraction kind per mapping, well-formed derived formulas, and no derived
// mapping referencing itself directly or transitively.
func ValidateMappings(m *MappingSet) *Result {
	result := &Result{Valid: true}
	eval := expr.NewEvaluator()
	computations := trades.Computations()

	names := make(map[string]bool, len(m.Mappings))
	for _, fm := range m.Mappings {
		if fm.Name == "" {
			result.AddIssue("mappings", "mapping has no name")
			continue
		}
		name := measure.VarName(fm.Name)
		if names[name] {
			result.AddIssue(fm.Name, "duplicate variable name")
		}
		names[name] = true
	}

	deps := make(map[string][]string, len(m.Mappings))
	for _, fm := range m.Mappings {
		validateMappingKind(result, fm, computations)

		if fm.Kind != measure.KindDerived || fm.Formula == "" {
			continue
		}

		refs, err := eval.ValidateAuthored(fm.Formula)
		if err != nil {
			result.AddIssue(fm.Name, "formula %q: %v", fm.Formula, err)
			continue
		}
		for _, ref := range refs {
			if strings.Contains(ref, ":") {
				result.AddIssue(fm.Name, "mapping formulas cannot use %q tokens", ref)
				continue
			}
			deps[measure.VarName(fm.Name)] = append(deps[measure.VarName(fm.Name)], measure.VarName(ref))
		}
	}

	// Reject self-references, direct or transitive, among derived
	// mappings. Validated here rather than merely hoped for: the lenient
	// extractor would silently zero the cycle at apply time.
	for name := range deps {
		if path := findCycle(name, deps, map[string]bool{}, []string{name}); path != nil {
			result.AddIssue(name, "derived formula cycle: %s", strings.Join(path, " -> "))
		}
	}

	return result
}

func validateMappingKind(result *Result, fm measure.FieldMapping, computations map[string]measure.Computation) {
	switch fm.Kind {
	case measure.KindDirect:
		if len(fm.Paths) == 0 {
			result.AddIssue(fm.Name, "direct mapping needs at least one lookup path")
		}
		if fm.Formula != "" || fm.Compute != "" {
			result.AddIssue(fm.Name, "direct mapping cannot carry a formula or computation")
		}
	case measure.KindComputed:
		if fm.Compute == "" {
			result.AddIssue(fm.Name, "computed mapping needs a computation name")
		} else if _, ok := computations[fm.Compute]; !ok {
			result.AddIssue(fm.Name, "unknown computation %q", fm.Compute)
		}
		if len(fm.Paths) > 0 || fm.Formula != "" {
			result.AddIssue(fm.Name, "computed mapping cannot carry paths or a formula")
		}
	case measure.KindDerived:
		if fm.Formula == "" {
			result.AddIssue(fm.Name, "derived mapping needs a formula")
		}
		if len(fm.Paths) > 0 || fm.Compute != "" {
			result.AddIssue(fm.Name, "derived mapping cannot carry paths or a computation")
		}
	case measure.KindManual:
		if len(fm.Paths) > 0 || fm.Formula != "" || fm.Compute != "" {
			result.AddIssue(fm.Name, "manual mapping cannot carry paths, a formula, or a computation")
		}
	default:
		result.AddIssue(fm.Name, "unknown mapping kind %q", fm.Kind)
	}
}

// findCycle walks the derived-mapping reference graph from start and
// returns the first path that revisits start, or nil.
func findCycle(start string, deps map[string][]string, seen map[string]bool, path []string) []string {
	for _, dep := range deps[path[len(path)-1]] {
		if dep == start {
			return append(path, dep)
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		if found := findCycle(start, deps, seen, append(path, dep)); found != nil {
			return found
		}
	}
	return nil
}
