package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopState_Tick(t *testing.T) {
	l := NewLoopState(3, 0, nil)
	assert.Equal(t, -1, l.Index)
	assert.Equal(t, 3, l.Remaining)

	l.Tick()
	assert.Equal(t, 1, l.Iteration)
	assert.Equal(t, 0, l.Index)
	assert.Equal(t, 2, l.Remaining)
	assert.True(t, l.First)
	assert.False(t, l.Last)

	l.Tick()
	l.Tick()
	assert.Equal(t, 3, l.Iteration)
	assert.Equal(t, 0, l.Remaining)
	assert.False(t, l.First)
	assert.True(t, l.Last)
}

func TestLoopState_Property(t *testing.T) {
	parent := NewLoopState(2, 0, nil)
	child := NewLoopState(1, 1, parent)
	child.Tick()

	tests := []struct {
		prop     string
		expected any
	}{
		{LoopPropIteration, 1},
		{LoopPropIndex, 0},
		{LoopPropRemaining, 0},
		{LoopPropCount, 1},
		{LoopPropFirst, true},
		{LoopPropLast, true},
		{LoopPropDepth, 1},
		{LoopPropParent, parent},
	}
	for _, tt := range tests {
		t.Run(tt.prop, func(t *testing.T) {
			v, ok := child.Property(tt.prop)
			require.True(t, ok)
			assert.Equal(t, tt.expected, v)
		})
	}

	v, ok := parent.Property(LoopPropParent)
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = child.Property("unknown")
	assert.False(t, ok)
}

func TestEachItem(t *testing.T) {
	collect := func(v any) ([]any, []any) {
		var keys, values []any
		err := EachItem(v, func(k, item any) (bool, error) {
			keys = append(keys, k)
			values = append(values, item)
			return true, nil
		})
		require.NoError(t, err)
		return keys, values
	}

	keys, values := collect([]any{"a", "b"})
	assert.Equal(t, []any{0, 1}, keys)
	assert.Equal(t, []any{"a", "b"}, values)

	keys, values = collect(map[string]any{"z": 1, "a": 2})
	assert.Equal(t, []any{"a", "z"}, keys)
	assert.Equal(t, []any{2, 1}, values)

	keys, values = collect(map[int]string{2: "b", 1: "a"})
	assert.Equal(t, []any{1, 2}, keys)
	assert.Equal(t, []any{"a", "b"}, values)

	keys, _ = collect(nil)
	assert.Empty(t, keys)

	_, values = collect([2]int{7, 8})
	assert.Equal(t, []any{7, 8}, values)
}

func TestEachItem_StopsEarly(t *testing.T) {
	seen := 0
	err := EachItem([]string{"a", "b", "c"}, func(_, _ any) (bool, error) {
		seen++
		return seen < 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestEachItem_NotIterable(t *testing.T) {
	err := EachItem(42, func(_, _ any) (bool, error) { return true, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgExecNotIterable)
}

func TestLoopFuncs(t *testing.T) {
	r := NewBuiltinFuncRegistry()

	outer, err := r.Call(FuncNameLoop, []any{[]any{1, 2}})
	require.NoError(t, err)
	outerState := outer.(*LoopState)
	assert.Equal(t, 2, outerState.Count)
	assert.Equal(t, 0, outerState.Depth)

	inner, err := r.Call(FuncNameLoop, []any{[]any{1}, 1, outerState})
	require.NoError(t, err)
	assert.Same(t, outerState, inner.(*LoopState).Parent)

	_, err = r.Call(FuncNameTick, []any{outerState})
	require.NoError(t, err)
	assert.Equal(t, 1, outerState.Iteration)

	_, err = r.Call(FuncNameTick, []any{"nope"})
	assert.Error(t, err)

	_, err = r.Call(FuncNameLoop, []any{[]any{}, 0, "nope"})
	assert.Error(t, err)
}
