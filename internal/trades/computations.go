package trades

import (
	"strconv"
	"strings"

	"github.com/bidstack/takeoff/internal/expr"
	"github.com/bidstack/takeoff/internal/measure"
)

// Raw-data computations. These reach into the provider payload directly,
// for derivations that span several nested lists and therefore cannot be a
// single lookup path in a direct mapping.

func registerRoofComputations(reg map[string]measure.Computation) {
	// roof_facet_area: sum of every facet's area across the report. Some
	// providers only report per-facet geometry and no roof total.
	reg["roof_facet_area"] = func(raw interface{}, vars expr.VarTable) (float64, bool) {
		return measure.Lookup(raw, "roof.facets.+.area")
	}

	// steep_roof_area: area on facets pitched 8/12 or steeper, the usual
	// threshold for a steep charge on labor line items.
	reg["steep_roof_area"] = func(raw interface{}, vars expr.VarTable) (float64, bool) {
		facets, ok := sequenceAt(raw, "roof", "facets")
		if !ok {
			return 0, false
		}

		var total float64
		found := false
		for _, facet := range facets {
			m, ok := facet.(map[string]interface{})
			if !ok {
				continue
			}
			pitch, ok := parsePitch(m["pitch"])
			if !ok || pitch < 8 {
				continue
			}
			if area, ok := measure.Coerce(m["area"]); ok {
				total += area
				found = true
			}
		}
		return total, found
	}

	// predominant_pitch: the rise of the largest facet.
	reg["predominant_pitch"] = func(raw interface{}, vars expr.VarTable) (float64, bool) {
		facets, ok := sequenceAt(raw, "roof", "facets")
		if !ok {
			return 0, false
		}

		var bestArea, bestPitch float64
		found := false
		for _, facet := range facets {
			m, ok := facet.(map[string]interface{})
			if !ok {
				continue
			}
			area, okArea := measure.Coerce(m["area"])
			pitch, okPitch := parsePitch(m["pitch"])
			if okArea && okPitch && area > bestArea {
				bestArea, bestPitch = area, pitch
				found = true
			}
		}
		return bestPitch, found
	}
}

func registerWallComputations(reg map[string]measure.Computation) {
	// wall_elevation_area: sum of every elevation's wall area.
	reg["wall_elevation_area"] = func(raw interface{}, vars expr.VarTable) (float64, bool) {
		return measure.Lookup(raw, "walls.elevations.+.area")
	}

	// wall_openings_area: total window/door area across all elevations;
	// two levels of nesting, hence a computation rather than a path.
	reg["wall_openings_area"] = func(raw interface{}, vars expr.VarTable) (float64, bool) {
		elevations, ok := sequenceAt(raw, "walls", "elevations")
		if !ok {
			return 0, false
		}

		var total float64
		found := false
		for _, elevation := range elevations {
			m, ok := elevation.(map[string]interface{})
			if !ok {
				continue
			}
			if v, ok := measure.Lookup(m, "openings.+.area"); ok {
				total += v
				found = true
			}
		}
		return total, found
	}

	// wall_opening_count: number of openings across all elevations.
	reg["wall_opening_count"] = func(raw interface{}, vars expr.VarTable) (float64, bool) {
		elevations, ok := sequenceAt(raw, "walls", "elevations")
		if !ok {
			return 0, false
		}

		var count float64
		found := false
		for _, elevation := range elevations {
			m, ok := elevation.(map[string]interface{})
			if !ok {
				continue
			}
			openings, ok := m["openings"].([]interface{})
			if !ok {
				continue
			}
			count += float64(len(openings))
			found = true
		}
		return count, found
	}
}

// sequenceAt descends two map keys and returns the sequence found there.
func sequenceAt(raw interface{}, outer, inner string) ([]interface{}, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, false
	}
	section, ok := m[outer].(map[string]interface{})
	if !ok {
		return nil, false
	}
	seq, ok := section[inner].([]interface{})
	return seq, ok
}

// parsePitch accepts a pitch as a bare number (8), a numeric string ("8"),
// or rise-over-run text ("8/12") and returns the rise.
func parsePitch(v interface{}) (float64, bool) {
	if f, ok := measure.Coerce(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	rise, _, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(rise), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
