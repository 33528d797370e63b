package internal

import (
	"reflect"
	"sort"
)

// registerCollectionFuncs registers collection manipulation functions
func registerCollectionFuncs(r *FuncRegistry) {
	length := func(name string) *Func {
		return &Func{
			Name:    name,
			MinArgs: 1,
			MaxArgs: 1,
			Fn: func(args []any) (any, error) {
				return getLength(args[ArgIndexFirst], name, ArgIndexFirst)
			},
		}
	}
	r.MustRegister(length(FuncNameLen))
	r.MustRegister(length(FuncNameCount))

	// first(list) any
	r.MustRegister(&Func{
		Name:    FuncNameFirst,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], FuncNameFirst, ArgIndexFirst)
			if err != nil || len(items) == 0 {
				return nil, err
			}
			return items[0], nil
		},
	})

	// last(list) any
	r.MustRegister(&Func{
		Name:    FuncNameLast,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			items, err := toSlice(args[ArgIndexFirst], FuncNameLast, ArgIndexFirst)
			if err != nil || len(items) == 0 {
				return nil, err
			}
			return items[len(items)-1], nil
		},
	})

	// keys(map) []string, sorted
	r.MustRegister(&Func{
		Name:    FuncNameKeys,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			m, ok := args[ArgIndexFirst].(map[string]any)
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedMap, FuncNameKeys, ArgIndexFirst)
			}
			return sortedKeys(m), nil
		},
	})

	// values(map) []any, in key order
	r.MustRegister(&Func{
		Name:    FuncNameValues,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			m, ok := args[ArgIndexFirst].(map[string]any)
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedMap, FuncNameValues, ArgIndexFirst)
			}
			keys := sortedKeys(m)
			values := make([]any, len(keys))
			for i, k := range keys {
				values[i] = m[k]
			}
			return values, nil
		},
	})

	// has(map, key) bool
	r.MustRegister(&Func{
		Name:    FuncNameHas,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			m, ok := args[ArgIndexFirst].(map[string]any)
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedMap, FuncNameHas, ArgIndexFirst)
			}
			key, ok := toString(args[ArgIndexSecond])
			if !ok {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedStringKey, FuncNameHas, ArgIndexSecond)
			}
			_, exists := m[key]
			return exists, nil
		},
	})

	// range(start, end[, step]) []any, end inclusive
	r.MustRegister(&Func{
		Name:    FuncNameRange,
		MinArgs: 2,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			start, err := anyToInt(args[ArgIndexFirst], FuncNameRange, ArgIndexFirst)
			if err != nil {
				return nil, err
			}
			end, err := anyToInt(args[ArgIndexSecond], FuncNameRange, ArgIndexSecond)
			if err != nil {
				return nil, err
			}
			step := 1
			if len(args) > ArgIndexThird {
				if step, err = anyToInt(args[ArgIndexThird], FuncNameRange, ArgIndexThird); err != nil {
					return nil, err
				}
			}
			return intRange(start, end, step)
		},
	})
}

func intRange(start, end, step int) ([]any, error) {
	if step == 0 {
		return nil, NewFuncError(ErrMsgFuncInvalidStep, FuncNameRange)
	}
	if step < 0 {
		step = -step
	}
	if start > end {
		step = -step
	}
	n := (end-start)/step + 1
	if n > MaxRangeSize {
		return nil, NewFuncError(ErrMsgFuncRangeTooLarge, FuncNameRange)
	}
	out := make([]any, 0, n)
	for i, v := 0, start; i < n; i, v = i+1, v+step {
		out = append(out, v)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// getLength returns the length of strings, lists and maps
func getLength(v any, funcName string, argIndex int) (int, error) {
	if v == nil {
		return 0, nil
	}

	switch val := v.(type) {
	case string:
		return len(val), nil
	case []any:
		return len(val), nil
	case []string:
		return len(val), nil
	case map[string]any:
		return len(val), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), nil
	default:
		return 0, NewFuncTypeError(ErrMsgFuncExpectedSlice, funcName, argIndex)
	}
}

// toSlice converts list values to []any
func toSlice(v any, funcName string, argIndex int) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if val, ok := v.([]any); ok {
		return val, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, NewFuncTypeError(ErrMsgFuncExpectedSlice, funcName, argIndex)
	}
	result := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		result[i] = rv.Index(i).Interface()
	}
	return result, nil
}
