package internal

import (
	"fmt"
	"reflect"
	"strconv"
)

// registerTypeFuncs registers type conversion and inspection functions
func registerTypeFuncs(r *FuncRegistry) {
	r.MustRegister(&Func{
		Name:    FuncNameToString,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToString(args[ArgIndexFirst]), nil
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameToInt,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToInt(args[ArgIndexFirst], FuncNameToInt, ArgIndexFirst)
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameToFloat,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return anyToFloat(args[ArgIndexFirst], FuncNameToFloat, ArgIndexFirst)
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameToBool,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return isTruthy(args[ArgIndexFirst]), nil
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameTypeOf,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			if args[ArgIndexFirst] == nil {
				return StringValueNil, nil
			}
			return reflect.TypeOf(args[ArgIndexFirst]).String(), nil
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameIsNil,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return args[ArgIndexFirst] == nil, nil
		},
	})

	r.MustRegister(&Func{
		Name:    FuncNameIsEmpty,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return isEmpty(args[ArgIndexFirst]), nil
		},
	})
}

// toString returns v when it is a string or a Stringer
func toString(v any) (string, bool) {
	if v == nil {
		return "", true
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}

// isScalar reports numbers and booleans
func isScalar(v any) bool {
	switch v.(type) {
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// anyToString converts any value to its output representation
func anyToString(v any) string {
	if v == nil {
		return StringValueEmpty
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return StringValueTrue
		}
		return StringValueFalse
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, IntBase10)
	case float64:
		return strconv.FormatFloat(val, FloatFormatFlag, FloatPrecisionAll, FloatBitSize64)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// anyToInt converts any value to an integer
func anyToInt(v any, funcName string, argIndex int) (int, error) {
	if v == nil {
		return 0, nil
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			f, ferr := strconv.ParseFloat(val, FloatBitSize64)
			if ferr != nil {
				return 0, NewFuncTypeError(ErrMsgFuncConversionFailed, funcName, argIndex)
			}
			return int(f), nil
		}
		return n, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	case reflect.Float32:
		return int(rv.Float()), nil
	}
	return 0, NewFuncTypeError(ErrMsgFuncConversionFailed, funcName, argIndex)
}

// anyToFloat converts any value to a float64
func anyToFloat(v any, funcName string, argIndex int) (float64, error) {
	if v == nil {
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(val, FloatBitSize64)
		if err != nil {
			return 0, NewFuncTypeError(ErrMsgFuncConversionFailed, funcName, argIndex)
		}
		return f, nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32:
		return rv.Float(), nil
	}
	return 0, NewFuncTypeError(ErrMsgFuncConversionFailed, funcName, argIndex)
}

// isTruthy determines the truthiness of a value:
// nil, false, "", 0 and empty lists or maps are false.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return len(val) > 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// isEmpty checks if a value is nil or has zero length
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() == 0
	default:
		return false
	}
}

// Stringify returns the output form of v, as an echo would print it.
func Stringify(v any) string {
	return anyToString(v)
}
