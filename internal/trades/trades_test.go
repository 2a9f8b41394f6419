package trades

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidstack/takeoff/internal/expr"
)

func TestFormulas_Roofing(t *testing.T) {
	reg := Formulas()
	vars := expr.VarTable{
		"area":   2500,
		"eaves":  160,
		"rakes":  120,
		"ridges": 45,
		"hips":   30,
		"waste":  1.10,
	}

	testCases := []struct {
		name     string
		formula  string
		expected float64
	}{
		{name: "shingle squares with waste", formula: "shingle_squares", expected: 27.5},
		{name: "drip edge sticks", formula: "drip_edge_sticks", expected: 32.2},
		{name: "ridge cap bundles", formula: "ridge_cap_bundles", expected: 3.3},
		{name: "starter rolls", formula: "starter_rolls", expected: 2.8},
		{name: "felt rolls", formula: "felt_rolls", expected: 6.875},
		{name: "tearoff squares ignores waste", formula: "tearoff_squares", expected: 25},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn, ok := reg[tc.formula]
			require.True(t, ok, "formula %s not registered", tc.formula)
			assert.InDelta(t, tc.expected, fn(vars), 1e-9)
		})
	}
}

func TestFormulas_MissingVariablesYieldZero(t *testing.T) {
	reg := Formulas()
	empty := expr.VarTable{}

	for name, fn := range reg {
		assert.GreaterOrEqual(t, fn(empty), 0.0, "formula %s must not go negative on an empty table", name)
	}
}

func TestFormulas_NoWasteVariableMeansNoOverage(t *testing.T) {
	reg := Formulas()

	// Without the reserved waste variable the factor defaults to 1.
	assert.InDelta(t, 25.0, reg["shingle_squares"](expr.VarTable{"area": 2500}), 1e-9)
}

func TestFormulas_Guttering(t *testing.T) {
	reg := Formulas()

	t.Run("downspouts from provider count", func(t *testing.T) {
		vars := expr.VarTable{"eaves": 200, "downspout_count": 6}
		assert.InDelta(t, 6.0, reg["downspouts"](vars), 1e-9)
	})

	t.Run("downspouts derived from gutter run", func(t *testing.T) {
		vars := expr.VarTable{"eaves": 130}
		assert.InDelta(t, 4.0, reg["downspouts"](vars), 1e-9)
	})

	t.Run("downspout minimum of two", func(t *testing.T) {
		vars := expr.VarTable{"eaves": 30}
		assert.InDelta(t, 2.0, reg["downspouts"](vars), 1e-9)
	})

	t.Run("downspout feet scales with storeys", func(t *testing.T) {
		vars := expr.VarTable{"eaves": 200, "downspout_count": 4, "stories": 2}
		assert.InDelta(t, 80.0, reg["downspout_feet"](vars), 1e-9)
	})
}

func TestFormulas_Siding(t *testing.T) {
	reg := Formulas()
	vars := expr.VarTable{
		"wall_area":     3200,
		"openings_area": 400,
		"waste":         1.10,
	}

	// (3200-400)/100 * 1.10 = 30.8
	assert.InDelta(t, 30.8, reg["siding_squares"](vars), 1e-9)

	// Openings larger than the wall cannot go negative.
	weird := expr.VarTable{"wall_area": 100, "openings_area": 500}
	assert.Zero(t, reg["siding_squares"](weird))
}

func TestComputations(t *testing.T) {
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"roof": {
			"facets": [
				{"area": 1200, "pitch": "8/12"},
				{"area": 900, "pitch": "4/12"},
				{"area": 700, "pitch": 10}
			]
		},
		"walls": {
			"elevations": [
				{"name": "front", "area": 800, "openings": [{"area": 20}, {"area": 15}]},
				{"name": "rear", "area": 750, "openings": [{"area": 40}]},
				{"name": "left", "area": 500}
			]
		}
	}`), &raw))

	reg := Computations()
	vars := expr.VarTable{}

	testCases := []struct {
		name        string
		computation string
		expected    float64
	}{
		{name: "roof facet area", computation: "roof_facet_area", expected: 2800},
		{name: "steep roof area", computation: "steep_roof_area", expected: 1900},
		{name: "predominant pitch", computation: "predominant_pitch", expected: 8},
		{name: "wall elevation area", computation: "wall_elevation_area", expected: 2050},
		{name: "wall openings area", computation: "wall_openings_area", expected: 75},
		{name: "wall opening count", computation: "wall_opening_count", expected: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn, ok := reg[tc.computation]
			require.True(t, ok, "computation %s not registered", tc.computation)

			value, found := fn(raw, vars)
			require.True(t, found)
			assert.InDelta(t, tc.expected, value, 1e-9)
		})
	}

	t.Run("absent section reports not found", func(t *testing.T) {
		_, found := reg["roof_facet_area"](map[string]interface{}{}, vars)
		assert.False(t, found)
	})
}

func TestParsePitch(t *testing.T) {
	testCases := []struct {
		name     string
		value    interface{}
		expected float64
		ok       bool
	}{
		{name: "bare number", value: 8.0, expected: 8, ok: true},
		{name: "numeric string", value: "6", expected: 6, ok: true},
		{name: "rise over run", value: "8/12", expected: 8, ok: true},
		{name: "rise over run with spaces", value: " 10 / 12 ", expected: 10, ok: true},
		{name: "garbage", value: "steep", ok: false},
		{name: "nil", value: nil, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, ok := parsePitch(tc.value)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.expected, value, 1e-9)
			}
		})
	}
}
