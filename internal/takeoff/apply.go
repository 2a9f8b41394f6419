package takeoff

import (
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/bidstack/takeoff/internal/diag"
	"github.com/bidstack/takeoff/internal/expr"
	"github.com/bidstack/takeoff/internal/trades"
)

// Reserved variable names exposed to every item formula alongside the
// measurement table.
const (
	varWaste     = "waste"      // (wastePercent + 100) / 100
	varWastePct  = "waste_pct"  // raw waste percent
	varMargin    = "margin"     // (marginPercent + 100) / 100
	varMarginPct = "margin_pct" // raw margin percent
)

// Options configure one template application.
type Options struct {
	WastePercent    float64
	MarginPercent   float64
	MaterialVariant string

	// Overrides supplies caller-provided quantities by item ID, taking
	// precedence over formulas and fixed fallbacks.
	Overrides map[string]float64
}

// Applicator resolves template items against a variable table. It holds no
// per-invocation state, so a single Applicator is safe to share across
// concurrent recalculations.
type Applicator struct {
	eval     *expr.Evaluator
	formulas map[string]trades.Formula
}

// NewApplicator creates an applicator backed by the trade formula library.
func NewApplicator() *Applicator {
	return &Applicator{
		eval:     expr.NewEvaluator(),
		formulas: trades.Formulas(),
	}
}

// Apply resolves every template item and returns the line items with all
// materials preceding labor, each section in configured order. Broken
// formulas, dangling references, and dependency cycles surface as warnings
// next to the result, never as a failure: a configuration mistake must not
// block quantity calculation for the rest of the template.
//
// Applying the same template to the same table twice yields identical
// output.
func (a *Applicator) Apply(items []TemplateItem, vars expr.VarTable, opts Options) ([]ResolvedLineItem, diag.Warnings) {
	var warnings diag.Warnings

	// Evaluation table: the measurement variables plus the reserved names.
	// Copied so the caller's table stays untouched.
	evalVars := make(expr.VarTable, len(vars)+4)
	for name, value := range vars {
		evalVars[name] = value
	}
	evalVars[varWaste] = (opts.WastePercent + 100) / 100
	evalVars[varWastePct] = opts.WastePercent
	evalVars[varMargin] = (opts.MarginPercent + 100) / 100
	evalVars[varMarginPct] = opts.MarginPercent

	run := &applyRun{
		applicator: a,
		vars:       evalVars,
		opts:       opts,
		byID:       make(map[string]int, len(items)),
		state:      make(map[string]visitState, len(items)),
		resolved:   make(map[string]float64),
		warnings:   &warnings,
	}

	// Visit in configured display order so resolution order is
	// deterministic for identical input.
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return items[order[x]].SortOrder < items[order[y]].SortOrder
	})

	for _, idx := range order {
		run.byID[items[idx].ID] = idx
	}

	results := make([]ResolvedLineItem, 0, len(items))
	for _, idx := range order {
		run.visit(items, idx, &results)
	}

	// Materials first, then labor, each section keeping its configured
	// order.
	sort.SliceStable(results, func(x, y int) bool {
		if results[x].Section.rank() != results[y].Section.rank() {
			return results[x].Section.rank() < results[y].Section.rank()
		}
		return results[x].SortOrder < results[y].SortOrder
	})

	return results, warnings
}

type visitState int

const (
	stateUnvisited visitState = iota
	stateVisiting
	stateDone
)

type applyRun struct {
	applicator *Applicator
	vars       expr.VarTable
	opts       Options
	byID       map[string]int
	state      map[string]visitState
	resolved   map[string]float64 // by item description, for {item:...} tokens
	warnings   *diag.Warnings
}

// visit resolves item's dependency before the item itself. Revisiting an
// item already in progress means the configuration has a cycle; that edge
// is dropped with a warning naming both items, and resolution continues.
func (r *applyRun) visit(items []TemplateItem, idx int, results *[]ResolvedLineItem) {
	item := items[idx]

	switch r.state[item.ID] {
	case stateDone:
		return
	case stateVisiting:
		return
	}
	r.state[item.ID] = stateVisiting

	if item.DependsOn != "" {
		depIdx, ok := r.byID[item.DependsOn]
		if !ok {
			r.warnings.Add(diag.KindUnresolvedRef, item.ID, "depends on unknown item %q", item.DependsOn)
		} else if r.state[items[depIdx].ID] == stateVisiting {
			r.warnings.Add(diag.KindCycle, item.ID,
				"dependency on %q dropped to break a cycle", item.DependsOn)
			log.Warn().
				Str("item", item.ID).
				Str("depends_on", item.DependsOn).
				Msg("template dependency cycle broken")
		} else {
			r.visit(items, depIdx, results)
		}
	}

	resolved := r.resolve(item)
	r.resolved[item.Description] = resolved.Quantity
	r.state[item.ID] = stateDone
	*results = append(*results, resolved)
}

func (r *applyRun) resolve(item TemplateItem) ResolvedLineItem {
	out := ResolvedLineItem{
		ItemID:      item.ID,
		Section:     item.Section,
		Description: item.Description,
		Unit:        item.Unit,
		Price:       item.Price,
		SortOrder:   item.SortOrder,
	}

	if qty, ok := r.opts.Overrides[item.ID]; ok {
		out.Quantity = qty
		out.Source = SourceExternal
		return out
	}

	switch {
	case item.Formula != "":
		out.Quantity = r.evalFormula(item)
		out.Source = SourceFormula
		out.Formula = item.Formula

	case item.Compute != "":
		out.Quantity = r.evalCompute(item)
		out.Source = SourceFormula
		out.Formula = item.Compute

	case item.Quantity != nil:
		out.Quantity = *item.Quantity
		out.Source = SourceFixed

	default:
		out.Quantity = 0
		out.Source = SourceFixed
	}

	return out
}

// evalFormula evaluates an authored formula in the item's context and
// rounds the result up to the next whole unit, floored at zero.
func (r *applyRun) evalFormula(item TemplateItem) float64 {
	expanded, unresolved := expr.ExpandTokens(item.Formula, func(ref expr.TokenRef) (float64, bool) {
		switch ref.Scope {
		case "item":
			qty, ok := r.resolved[ref.Name]
			return qty, ok
		case "self":
			if ref.Name == r.opts.MaterialVariant {
				return 1, true
			}
			return 0, true
		default:
			v, ok := r.vars[ref.Name]
			return v, ok
		}
	})
	for _, ref := range unresolved {
		r.warnings.Add(diag.KindUnresolvedRef, item.ID, "formula references unresolved {%s}", ref)
	}

	value, err := r.applicator.eval.EvaluateStrict(expanded, r.vars)
	if err != nil {
		r.warnings.Add(diag.KindSyntax, item.ID, "formula %q: %v", item.Formula, err)
		return 0
	}
	return roundQuantity(value)
}

func (r *applyRun) evalCompute(item TemplateItem) float64 {
	fn, ok := r.applicator.formulas[item.Compute]
	if !ok {
		r.warnings.Add(diag.KindConfig, item.ID, "unknown trade formula %q", item.Compute)
		return 0
	}
	return roundQuantity(fn(r.vars))
}

func roundQuantity(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Ceil(v)
}
