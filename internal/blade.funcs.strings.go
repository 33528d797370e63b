package internal

import (
	"strings"
)

// stringArg converts args[i] to a string. Scalars are formatted; maps and
// slices are rejected.
func stringArg(args []any, i int, funcName string) (string, error) {
	if s, ok := toString(args[i]); ok {
		return s, nil
	}
	if isScalar(args[i]) {
		return anyToString(args[i]), nil
	}
	return "", NewFuncTypeError(ErrMsgFuncExpectedString, funcName, i)
}

// unaryStringFunc builds a one-argument string function.
func unaryStringFunc(name string, fn func(s string) any) *Func {
	return &Func{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			s, err := stringArg(args, ArgIndexFirst, name)
			if err != nil {
				return nil, err
			}
			return fn(s), nil
		},
	}
}

// binaryStringFunc builds a two-argument string function.
func binaryStringFunc(name string, fn func(a, b string) any) *Func {
	return &Func{
		Name:    name,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			a, err := stringArg(args, ArgIndexFirst, name)
			if err != nil {
				return nil, err
			}
			b, err := stringArg(args, ArgIndexSecond, name)
			if err != nil {
				return nil, err
			}
			return fn(a, b), nil
		},
	}
}

// registerStringFuncs registers string manipulation functions
func registerStringFuncs(r *FuncRegistry) {
	r.MustRegister(unaryStringFunc(FuncNameUpper, func(s string) any { return strings.ToUpper(s) }))
	r.MustRegister(unaryStringFunc(FuncNameLower, func(s string) any { return strings.ToLower(s) }))
	r.MustRegister(unaryStringFunc(FuncNameTrim, func(s string) any { return strings.TrimSpace(s) }))

	r.MustRegister(binaryStringFunc(FuncNameTrimPrefix, func(s, p string) any { return strings.TrimPrefix(s, p) }))
	r.MustRegister(binaryStringFunc(FuncNameTrimSuffix, func(s, p string) any { return strings.TrimSuffix(s, p) }))
	r.MustRegister(binaryStringFunc(FuncNameHasPrefix, func(s, p string) any { return strings.HasPrefix(s, p) }))
	r.MustRegister(binaryStringFunc(FuncNameHasSuffix, func(s, p string) any { return strings.HasSuffix(s, p) }))
	r.MustRegister(binaryStringFunc(FuncNameSplit, func(s, sep string) any { return strings.Split(s, sep) }))

	// contains(haystack, needle) - substring test on strings, membership on lists
	r.MustRegister(&Func{
		Name:    FuncNameContains,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			if s, ok := args[ArgIndexFirst].(string); ok {
				substr, err := stringArg(args, ArgIndexSecond, FuncNameContains)
				if err != nil {
					return nil, err
				}
				return strings.Contains(s, substr), nil
			}
			found := false
			err := EachItem(args[ArgIndexFirst], func(_, item any) (bool, error) {
				found = LooseEqual(item, args[ArgIndexSecond])
				return !found, nil
			})
			if err != nil {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedSlice, FuncNameContains, ArgIndexFirst)
			}
			return found, nil
		},
	})

	// replace(s, old, new string) string
	r.MustRegister(&Func{
		Name:    FuncNameReplace,
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(args []any) (any, error) {
			parts := make([]string, 3)
			for i := range parts {
				s, err := stringArg(args, i, FuncNameReplace)
				if err != nil {
					return nil, err
				}
				parts[i] = s
			}
			return strings.ReplaceAll(parts[0], parts[1], parts[2]), nil
		},
	})

	// join(items, sep string) string
	r.MustRegister(&Func{
		Name:    FuncNameJoin,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			sep, err := stringArg(args, ArgIndexSecond, FuncNameJoin)
			if err != nil {
				return nil, err
			}
			var parts []string
			err = EachItem(args[ArgIndexFirst], func(_, item any) (bool, error) {
				parts = append(parts, anyToString(item))
				return true, nil
			})
			if err != nil {
				return nil, NewFuncTypeError(ErrMsgFuncExpectedSlice, FuncNameJoin, ArgIndexFirst)
			}
			return strings.Join(parts, sep), nil
		},
	})
}
