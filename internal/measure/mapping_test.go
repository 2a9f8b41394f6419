package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bidstack/takeoff/internal/diag"
	"github.com/bidstack/takeoff/internal/expr"
)

func TestExtract_DirectFallbackChain(t *testing.T) {
	extractor := NewExtractor(nil)
	raw := map[string]interface{}{
		"a": map[string]interface{}{"c": 7.0},
	}

	t.Run("second path wins when first absent", func(t *testing.T) {
		vars, warnings := extractor.Extract(raw, []FieldMapping{
			{Name: "x", Kind: KindDirect, Paths: []string{"a.b", "a.c"}, Default: 5},
		})
		assert.Empty(t, warnings)
		assert.InDelta(t, 7.0, vars["x"], 1e-9)
	})

	t.Run("default when every path absent", func(t *testing.T) {
		vars, _ := extractor.Extract(raw, []FieldMapping{
			{Name: "x", Kind: KindDirect, Paths: []string{"a.b", "a.z"}, Default: 5},
		})
		assert.InDelta(t, 5.0, vars["x"], 1e-9)
	})

	t.Run("non coercible value falls through", func(t *testing.T) {
		dirty := map[string]interface{}{
			"a": map[string]interface{}{"b": "n/a", "c": "9"},
		}
		vars, _ := extractor.Extract(dirty, []FieldMapping{
			{Name: "x", Kind: KindDirect, Paths: []string{"a.b", "a.c"}, Default: 5},
		})
		assert.InDelta(t, 9.0, vars["x"], 1e-9)
	})
}

func TestExtract_Computed(t *testing.T) {
	computations := map[string]Computation{
		"double_area": func(raw interface{}, vars expr.VarTable) (float64, bool) {
			v, ok := Lookup(raw, "area")
			return v * 2, ok
		},
	}
	extractor := NewExtractor(computations)
	raw := map[string]interface{}{"area": 500.0}

	t.Run("invokes named computation", func(t *testing.T) {
		vars, warnings := extractor.Extract(raw, []FieldMapping{
			{Name: "doubled", Kind: KindComputed, Compute: "double_area"},
		})
		assert.Empty(t, warnings)
		assert.InDelta(t, 1000.0, vars["doubled"], 1e-9)
	})

	t.Run("unknown computation warns and defaults", func(t *testing.T) {
		vars, warnings := extractor.Extract(raw, []FieldMapping{
			{Name: "mystery", Kind: KindComputed, Compute: "nope", Default: 3},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, diag.KindConfig, warnings[0].Kind)
		assert.InDelta(t, 3.0, vars["mystery"], 1e-9)
	})
}

func TestExtract_Derived(t *testing.T) {
	extractor := NewExtractor(nil)
	raw := map[string]interface{}{
		"roof": map[string]interface{}{"eave": 150.0, "rake": 120.0},
	}

	mappings := []FieldMapping{
		{Name: "eaves", Kind: KindDirect, Paths: []string{"roof.eave"}},
		{Name: "rakes", Kind: KindDirect, Paths: []string{"roof.rake"}},
		{Name: "perimeter", Kind: KindDerived, Formula: "{eaves} + {rakes}"},
		{Name: "perimeter_bare", Kind: KindDerived, Formula: "eaves + rakes"},
	}

	vars, warnings := extractor.Extract(raw, mappings)
	assert.Empty(t, warnings)
	assert.InDelta(t, 270.0, vars["perimeter"], 1e-9)
	assert.InDelta(t, 270.0, vars["perimeter_bare"], 1e-9)
}

func TestExtract_DerivedFailures(t *testing.T) {
	extractor := NewExtractor(nil)

	t.Run("undefined brace token warns and substitutes zero", func(t *testing.T) {
		vars, warnings := extractor.Extract(map[string]interface{}{}, []FieldMapping{
			{Name: "d", Kind: KindDerived, Formula: "{ghost} + 2"},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, diag.KindUnresolvedRef, warnings[0].Kind)
		assert.InDelta(t, 2.0, vars["d"], 1e-9)
	})

	t.Run("syntax error warns and uses default", func(t *testing.T) {
		vars, warnings := extractor.Extract(map[string]interface{}{}, []FieldMapping{
			{Name: "d", Kind: KindDerived, Formula: "(1 +", Default: 4},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, diag.KindSyntax, warnings[0].Kind)
		assert.InDelta(t, 4.0, vars["d"], 1e-9)
	})
}

func TestExtract_Manual(t *testing.T) {
	extractor := NewExtractor(nil)

	vars, warnings := extractor.Extract(nil, []FieldMapping{
		{Name: "crew_size", Kind: KindManual, Default: 4},
	})
	assert.Empty(t, warnings)
	assert.InDelta(t, 4.0, vars["crew_size"], 1e-9)
}

func TestExtract_NamesNormalized(t *testing.T) {
	extractor := NewExtractor(nil)

	vars, _ := extractor.Extract(nil, []FieldMapping{
		{Name: "RoofArea", Kind: KindManual, Default: 100},
	})
	assert.InDelta(t, 100.0, vars["roof_area"], 1e-9)
}

func TestVarName(t *testing.T) {
	assert.Equal(t, "roof_area", VarName("RoofArea"))
	assert.Equal(t, "roof_area", VarName("roof_area"))
	assert.Equal(t, "drip_edge_lf", VarName("dripEdgeLF"))
}
