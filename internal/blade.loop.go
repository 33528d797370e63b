package internal

import (
	"fmt"
	"reflect"
	"sort"
)

// LoopState is the per-foreach iteration record exposed to templates.
type LoopState struct {
	Iteration int
	Index     int
	Remaining int
	Count     int
	First     bool
	Last      bool
	Depth     int
	Parent    *LoopState
}

// NewLoopState creates the state for a loop over count items. Nothing has
// been iterated yet.
func NewLoopState(count, depth int, parent *LoopState) *LoopState {
	return &LoopState{
		Index:     -1,
		Remaining: count,
		Count:     count,
		Depth:     depth,
		Parent:    parent,
	}
}

// Tick advances the state to the next iteration.
func (l *LoopState) Tick() {
	l.Iteration++
	l.Index = l.Iteration - 1
	l.Remaining = l.Count - l.Iteration
	l.First = l.Iteration == 1
	l.Last = l.Iteration == l.Count
}

// Property implements PropertyAccessor. A missing parent reads as nil.
func (l *LoopState) Property(name string) (any, bool) {
	switch name {
	case LoopPropIteration:
		return l.Iteration, true
	case LoopPropIndex:
		return l.Index, true
	case LoopPropRemaining:
		return l.Remaining, true
	case LoopPropCount:
		return l.Count, true
	case LoopPropFirst:
		return l.First, true
	case LoopPropLast:
		return l.Last, true
	case LoopPropDepth:
		return l.Depth, true
	case LoopPropParent:
		if l.Parent == nil {
			return nil, true
		}
		return l.Parent, true
	}
	return nil, false
}

// EachItem calls fn for every key/value of v until fn returns false. Maps
// iterate in sorted key order; nil iterates as empty.
func EachItem(v any, fn func(key, value any) (bool, error)) error {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case []any:
		for i, item := range val {
			if cont, err := fn(i, item); err != nil || !cont {
				return err
			}
		}
		return nil
	case []string:
		for i, item := range val {
			if cont, err := fn(i, item); err != nil || !cont {
				return err
			}
		}
		return nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if cont, err := fn(k, val[k]); err != nil || !cont {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if cont, err := fn(i, rv.Index(i).Interface()); err != nil || !cont {
				return err
			}
		}
		return nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			if cont, err := fn(k.Interface(), rv.MapIndex(k).Interface()); err != nil || !cont {
				return err
			}
		}
		return nil
	}

	return NewExecError(ErrMsgExecNotIterable, fmt.Sprintf("%T", v), nil)
}

// registerLoopFuncs registers the loop bookkeeping functions emitted by
// foreach compilation.
func registerLoopFuncs(r *FuncRegistry) {
	// loop(items any, depth int, parent *LoopState) *LoopState
	r.MustRegister(&Func{
		Name:    FuncNameLoop,
		MinArgs: 1,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			count, err := getLength(args[ArgIndexFirst], FuncNameLoop, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			depth := 0
			if len(args) > ArgIndexSecond {
				if depth, err = anyToInt(args[ArgIndexSecond], FuncNameLoop, ArgIndexSecond); err != nil {
					return nil, err
				}
			}
			var parent *LoopState
			if len(args) > ArgIndexThird && args[ArgIndexThird] != nil {
				p, ok := args[ArgIndexThird].(*LoopState)
				if !ok {
					return nil, NewFuncTypeError(ErrMsgFuncExpectedLoop, FuncNameLoop, ArgIndexThird)
				}
				parent = p
			}
			return NewLoopState(count, depth, parent), nil
		},
	})

	// tick(loop *LoopState) nil
	r.MustRegister(&Func{
		Name:    FuncNameTick,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			l, ok := args[ArgIndexFirst].(*LoopState)
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedLoop, FuncNameTick, ArgIndexFirst)
			}
			l.Tick()
			return nil, nil
		},
	})
}
