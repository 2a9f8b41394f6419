package expr

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Authored formulas come in two historical dialects: brace-delimited tokens
// ({area}, {waste}, {item:Shingles}, {self:metal}) substituted by text
// replacement before arithmetic parsing, and bare identifiers handled by the
// parser directly. Both remain authorable; this file normalizes the brace
// dialect at the boundary so a single parser serves both.

var tokenPattern = regexp.MustCompile(`\{\s*(?:(item|self)\s*:\s*([^{}]+?)|([A-Za-z_][A-Za-z0-9_]*))\s*\}`)

// TokenRef is one brace token found in an authored formula. Scope is empty
// for a plain variable token, or "item"/"self" for cross-item and
// material-variant tokens.
type TokenRef struct {
	Scope string
	Name  string
}

func (r TokenRef) String() string {
	if r.Scope == "" {
		return r.Name
	}
	return r.Scope + ":" + r.Name
}

// ExpandTokens replaces every brace token in input with the literal number
// returned by resolve, leaving the rest of the text for the arithmetic
// parser. Tokens resolve cannot satisfy substitute zero and are returned so
// the caller can report them out-of-band.
func ExpandTokens(input string, resolve func(ref TokenRef) (float64, bool)) (string, []TokenRef) {
	var unresolved []TokenRef

	expanded := tokenPattern.ReplaceAllStringFunc(input, func(match string) string {
		ref := parseToken(match)

		val, ok := resolve(ref)
		if !ok {
			unresolved = append(unresolved, ref)
			val = 0
		}
		return formatOperand(val)
	})

	return expanded, unresolved
}

// TokenRefs returns the brace tokens referenced by input, in order of
// appearance.
func TokenRefs(input string) []TokenRef {
	matches := tokenPattern.FindAllString(input, -1)
	refs := make([]TokenRef, 0, len(matches))
	for _, match := range matches {
		refs = append(refs, parseToken(match))
	}
	return refs
}

func parseToken(match string) TokenRef {
	groups := tokenPattern.FindStringSubmatch(match)
	if groups[1] != "" {
		return TokenRef{Scope: groups[1], Name: strings.TrimSpace(groups[2])}
	}
	return TokenRef{Name: groups[3]}
}

// formatOperand renders a number as a literal the parser reads back exactly.
// Negative values are parenthesized so substitution next to an operator
// stays well formed ("2*(-1)" rather than "2*-1").
func formatOperand(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}

// EvaluateAuthored evaluates a formula in either dialect against vars: brace
// tokens are substituted from the table first, then the result is parsed and
// evaluated leniently. Tokens missing from the table substitute zero; they
// represent a measurement that has not been taken yet.
func (e *Evaluator) EvaluateAuthored(input string, vars VarTable) float64 {
	expanded, _ := ExpandTokens(input, func(ref TokenRef) (float64, bool) {
		if ref.Scope != "" {
			return 0, false
		}
		v, ok := vars[ref.Name]
		return v, ok
	})
	return e.Evaluate(expanded, vars)
}

// ValidateAuthored checks an authored formula in either dialect and returns
// the sorted set of references it makes: brace tokens in scope:name form and
// bare identifiers by name. Syntax failures are reported, not defaulted;
// this is the strict pre-save path.
func (e *Evaluator) ValidateAuthored(input string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, ref := range TokenRefs(input) {
		seen[ref.String()] = struct{}{}
	}

	// Substitute a dummy value for every token so syntax can be checked
	// without a live variable table.
	expanded, _ := ExpandTokens(input, func(TokenRef) (float64, bool) { return 1, true })

	bare, err := e.Validate(expanded)
	if err != nil {
		return nil, err
	}
	for _, name := range bare {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
