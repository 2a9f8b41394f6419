// Package measure turns heterogeneous raw measurement data from an external
// provider into the flat variable table the formula engine evaluates
// against. The provider's payload has no fixed schema; all access goes
// through configured lookup paths.
package measure

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Lookup path segments are dot-delimited keys into the raw nested data. Two
// wildcard segments mirror the provider's habit of nesting per-trade
// sections inside sequences:
//
//	*  first element of a sequence
//	+  sum of the remaining path across every element of a sequence
const (
	segmentFirst = "*"
	segmentSum   = "+"
)

// Lookup resolves a dot-delimited path against raw decoded data and coerces
// the leaf to a number. The second return is false whenever any step of the
// path is absent or the leaf is not numeric-coercible; lookups never fail
// harder than that.
func Lookup(raw interface{}, path string) (float64, bool) {
	return walk(raw, strings.Split(path, "."))
}

func walk(current interface{}, segments []string) (float64, bool) {
	if len(segments) == 0 {
		return Coerce(current)
	}

	segment := segments[0]
	rest := segments[1:]

	switch val := current.(type) {
	case map[string]interface{}:
		next, ok := val[segment]
		if !ok {
			return 0, false
		}
		return walk(next, rest)

	case []interface{}:
		switch segment {
		case segmentFirst:
			if len(val) == 0 {
				return 0, false
			}
			return walk(val[0], rest)
		case segmentSum:
			var total float64
			found := false
			for _, element := range val {
				if v, ok := walk(element, rest); ok {
					total += v
					found = true
				}
			}
			return total, found
		default:
			// A keyed segment against a sequence is a configuration
			// mismatch; treat it as absent.
			return 0, false
		}

	default:
		// Scalar reached with path segments remaining.
		return 0, false
	}
}

// Coerce converts a raw leaf value to a number. Strings are accepted when
// they parse cleanly; anything else (nested structures, unparseable text,
// null) is treated as absent rather than an error, so one malformed field
// can never abort a whole extraction.
func Coerce(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
