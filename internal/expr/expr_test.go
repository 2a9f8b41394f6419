package expr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_Arithmetic(t *testing.T) {
	evaluator := NewEvaluator()
	vars := VarTable{
		"area":  1000,
		"rakes": 120,
		"eaves": 150,
		"waste": 1.10,
	}

	testCases := []struct {
		name       string
		expression string
		expected   float64
	}{
		{
			name:       "addition",
			expression: "2 + 3",
			expected:   5,
		},
		{
			name:       "subtraction",
			expression: "10 - 4",
			expected:   6,
		},
		{
			name:       "multiplication",
			expression: "6 * 7",
			expected:   42,
		},
		{
			name:       "division",
			expression: "15 / 4",
			expected:   3.75,
		},
		{
			name:       "precedence multiplicative over additive",
			expression: "2 + 3 * 4",
			expected:   14,
		},
		{
			name:       "parentheses override precedence",
			expression: "(2 + 3) * 4",
			expected:   20,
		},
		{
			name:       "unary negation",
			expression: "-5 + 8",
			expected:   3,
		},
		{
			name:       "double negation",
			expression: "--5",
			expected:   5,
		},
		{
			name:       "decimal literals",
			expression: "1.5 * 2.5",
			expected:   3.75,
		},
		{
			name:       "variable reference",
			expression: "area / 100",
			expected:   10,
		},
		{
			name:       "missing variable defaults to zero",
			expression: "unknown + 1",
			expected:   1,
		},
		{
			name:       "division by zero saturates to zero",
			expression: "5 / 0",
			expected:   0,
		},
		{
			name:       "division by expression evaluating to zero",
			expression: "10 / (3 - 3)",
			expected:   0,
		},
		{
			name:       "end to end shingles",
			expression: "(area/100)*waste",
			expected:   11,
		},
		{
			name:       "end to end drip edge",
			expression: "(rakes+eaves)*1.15/10",
			expected:   31.05,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := evaluator.Evaluate(tc.expression, vars)
			assert.InDelta(t, tc.expected, result, 1e-9)
		})
	}
}

func TestEvaluator_Determinism(t *testing.T) {
	evaluator := NewEvaluator()
	vars := VarTable{"area": 2350, "pitch": 8}

	expression := "ROUNDUP(area / 100) * pitch - SUM(1, 2, 3)"
	first := evaluator.Evaluate(expression, vars)
	second := evaluator.Evaluate(expression, vars)

	assert.Equal(t, first, second)
}

func TestEvaluator_ParseFailuresDefaultToZero(t *testing.T) {
	evaluator := NewEvaluator()

	testCases := []struct {
		name       string
		expression string
	}{
		{name: "empty expression", expression: ""},
		{name: "whitespace only", expression: "   "},
		{name: "unbalanced parentheses", expression: "(1 + 2"},
		{name: "trailing operator", expression: "3 +"},
		{name: "dangling close paren", expression: "1 + 2)"},
		{name: "unknown function", expression: "CEIL(2.5)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Zero(t, evaluator.Evaluate(tc.expression, VarTable{}))
		})
	}
}

func TestEvaluator_LenientTokenizer(t *testing.T) {
	evaluator := NewEvaluator()

	// Stray characters are skipped, not fatal.
	assert.InDelta(t, 5.0, evaluator.Evaluate("2 $ + 3", VarTable{}), 1e-9)
	assert.InDelta(t, 7.0, evaluator.Evaluate("7;", VarTable{}), 1e-9)
}

func TestEvaluator_DeepNestingBounded(t *testing.T) {
	evaluator := NewEvaluator()

	// Far past maxDepth; must not blow the stack, just default to zero.
	deep := strings.Repeat("(", 5000) + "1" + strings.Repeat(")", 5000)
	assert.Zero(t, evaluator.Evaluate(deep, VarTable{}))
}

func TestEvaluator_Validate(t *testing.T) {
	evaluator := NewEvaluator()

	t.Run("returns referenced variables sorted", func(t *testing.T) {
		vars, err := evaluator.Validate("rakes + eaves * SUM(area, pitch)")
		require.NoError(t, err)
		assert.Equal(t, []string{"area", "eaves", "pitch", "rakes"}, vars)
	})

	t.Run("function names are not variables", func(t *testing.T) {
		vars, err := evaluator.Validate("ROUNDUP(area)")
		require.NoError(t, err)
		assert.Equal(t, []string{"area"}, vars)
	})

	t.Run("reports syntax failure", func(t *testing.T) {
		_, err := evaluator.Validate("(1 +")
		assert.Error(t, err)
	})

	t.Run("reports empty expression", func(t *testing.T) {
		_, err := evaluator.Validate("")
		assert.Error(t, err)
	})
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("ROUNDUP(x_1 + 2.5, y)")

	types := make([]TokenType, 0, len(tokens))
	for _, token := range tokens {
		types = append(types, token.Type)
	}

	assert.Equal(t, []TokenType{
		TokenIdent, TokenLParen, TokenIdent, TokenPlus, TokenNumber,
		TokenComma, TokenIdent, TokenRParen, TokenEOF,
	}, types)
	assert.Equal(t, "x_1", tokens[2].Value)
	assert.Equal(t, "2.5", tokens[4].Value)
}
