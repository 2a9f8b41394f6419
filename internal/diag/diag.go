// Package diag carries structured, non-fatal diagnostics produced while
// resolving quantities. A broken formula or a bad mapping must never abort a
// bid, so failures are collected here and surfaced alongside the result.
package diag

import "fmt"

// Kind classifies a warning.
type Kind string

const (
	// KindSyntax marks a malformed expression (unbalanced parentheses,
	// unexpected token, empty formula).
	KindSyntax Kind = "syntax"

	// KindUnresolvedRef marks a variable or item token that does not exist
	// in the current evaluation context.
	KindUnresolvedRef Kind = "unresolved_ref"

	// KindCycle marks a dependency edge between template items that was
	// dropped to break a cycle.
	KindCycle Kind = "cycle"

	// KindConfig marks a mapping or template item whose configuration is
	// inconsistent with its declared kind.
	KindConfig Kind = "config"
)

// Warning is a single recoverable failure. Source names the mapping variable
// or template item the failure belongs to.
type Warning struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Source string `json:"source" yaml:"source"`
	Detail string `json:"detail" yaml:"detail"`
}

func (w Warning) String() string {
	if w.Source == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Source, w.Detail)
}

// Warnings is an ordered collection of warnings.
type Warnings []Warning

// Add appends a warning.
func (ws *Warnings) Add(kind Kind, source, format string, args ...interface{}) {
	*ws = append(*ws, Warning{Kind: kind, Source: source, Detail: fmt.Sprintf(format, args...)})
}
