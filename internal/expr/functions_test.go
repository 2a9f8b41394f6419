package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionRegistry_ROUNDUP(t *testing.T) {
	fr := NewFunctionRegistry()

	testCases := []struct {
		name     string
		arg      float64
		expected float64
	}{
		{name: "rounds fraction up", arg: 2.1, expected: 3},
		{name: "whole number unchanged", arg: 2.0, expected: 2},
		{name: "just below whole", arg: 10.999, expected: 11},
		{name: "negative rounds toward zero", arg: -2.5, expected: -2},
		{name: "zero", arg: 0, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := fr.Call("ROUNDUP", []float64{tc.arg})
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}

	t.Run("wrong arity", func(t *testing.T) {
		_, err := fr.Call("ROUNDUP", []float64{1, 2})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "exactly 1 argument")
	})
}

func TestFunctionRegistry_SUM(t *testing.T) {
	fr := NewFunctionRegistry()

	t.Run("sums all arguments", func(t *testing.T) {
		result, err := fr.Call("SUM", []float64{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, 6.0, result)
	})

	t.Run("single argument", func(t *testing.T) {
		result, err := fr.Call("SUM", []float64{4.5})
		require.NoError(t, err)
		assert.Equal(t, 4.5, result)
	})

	t.Run("no arguments sums to zero", func(t *testing.T) {
		result, err := fr.Call("SUM", nil)
		require.NoError(t, err)
		assert.Zero(t, result)
	})
}

func TestFunctionRegistry_Closed(t *testing.T) {
	fr := NewFunctionRegistry()

	assert.True(t, fr.Has("ROUNDUP"))
	assert.True(t, fr.Has("SUM"))
	assert.False(t, fr.Has("EVAL"))

	_, err := fr.Call("EVAL", []float64{1})
	assert.Error(t, err)
}

func TestFunctionsInExpressions(t *testing.T) {
	evaluator := NewEvaluator()

	testCases := []struct {
		name       string
		expression string
		expected   float64
	}{
		{name: "roundup of expression", expression: "ROUNDUP(31.05)", expected: 32},
		{name: "sum of expressions", expression: "SUM(1 + 1, 2 * 2, 3)", expected: 9},
		{name: "nested calls", expression: "SUM(ROUNDUP(1.2), ROUNDUP(2.2))", expected: 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, evaluator.Evaluate(tc.expression, VarTable{}), 1e-9)
		})
	}
}
