package blade

import (
	"github.com/itsatony/go-blade/internal"
)

// Runtime argument reasons
const (
	ReasonParamsNotMap = "params must be a map"
)

// runtimeFuncs binds the functions compiled view code calls to this
// renderer. They shadow builtins of the same name.
func (r *Renderer) runtimeFuncs() *internal.FuncRegistry {
	reg := internal.NewFuncRegistry()
	add := func(name string, minArgs, maxArgs int, fn func(args []any) (any, error)) {
		reg.MustRegister(&internal.Func{Name: name, MinArgs: minArgs, MaxArgs: maxArgs, Fn: fn})
	}

	add(FuncExtends, 1, 1, func(args []any) (any, error) {
		r.Extend(argString(args, 0))
		return nil, nil
	})
	add(FuncExtendsString, 2, 2, func(args []any) (any, error) {
		r.ExtendString(argString(args, 0), argString(args, 1))
		return nil, nil
	})
	add(FuncContent, 0, 0, func(_ []any) (any, error) {
		return r.Content(), nil
	})

	add(FuncSection, 1, 2, func(args []any) (any, error) {
		if len(args) > 1 {
			return nil, r.SectionContent(argString(args, 0), argString(args, 1))
		}
		return nil, r.Section(argString(args, 0))
	})
	add(FuncEndSection, 0, 0, func(_ []any) (any, error) {
		return nil, r.EndSection()
	})
	add(FuncShow, 0, 0, func(_ []any) (any, error) {
		return r.Show()
	})
	add(FuncParent, 0, 0, func(_ []any) (any, error) {
		return r.Parent(), nil
	})
	add(FuncYield, 1, 2, func(args []any) (any, error) {
		return r.Yield(argString(args, 0), argString(args, 1)), nil
	})

	add(FuncPush, 1, 2, func(args []any) (any, error) {
		if len(args) > 1 {
			return nil, r.PushContent(argString(args, 0), argString(args, 1))
		}
		return nil, r.Push(argString(args, 0))
	})
	add(FuncEndPush, 0, 0, func(_ []any) (any, error) {
		return nil, r.EndPush()
	})
	add(FuncStack, 1, 2, func(args []any) (any, error) {
		return r.Stack(argString(args, 0), argString(args, 1)), nil
	})

	named := func(name string, fn func(string, map[string]any) (string, error)) {
		add(name, 1, 2, func(args []any) (any, error) {
			params, err := argParams(name, args, 1)
			if err != nil {
				return nil, err
			}
			return fn(argString(args, 0), params)
		})
	}
	named(FuncRender, r.Render)
	named(FuncRenderIfExists, r.RenderIfExists)
	named(FuncPartial, r.Partial)
	named(FuncPartialIfExists, r.PartialIfExists)

	inline := func(name string, fn func(string, string, map[string]any) (string, error)) {
		add(name, 2, 3, func(args []any) (any, error) {
			params, err := argParams(name, args, 2)
			if err != nil {
				return nil, err
			}
			return fn(argString(args, 0), argString(args, 1), params)
		})
	}
	inline(FuncRenderString, r.RenderString)
	inline(FuncRenderStringIfExists, r.RenderStringIfExists)
	inline(FuncPartialString, r.PartialString)
	inline(FuncPartialStringIfExists, r.PartialStringIfExists)

	// each(name, values, params, valueKey, emptyName)
	each := func(name string, fn func(string, any, EachOptions) (string, error)) {
		add(name, 2, 5, func(args []any) (any, error) {
			params, err := argParams(name, args, 2)
			if err != nil {
				return nil, err
			}
			return fn(argString(args, 0), args[1], EachOptions{
				Params:    params,
				ValueKey:  argString(args, 3),
				EmptyName: argString(args, 4),
			})
		})
	}
	each(FuncEach, r.Each)
	each(FuncEachIfExists, r.EachIfExists)

	// eachString(id, content, values, params, valueKey, emptyId, emptyContent)
	eachString := func(name string, fn func(string, string, any, EachOptions) (string, error)) {
		add(name, 3, 7, func(args []any) (any, error) {
			params, err := argParams(name, args, 3)
			if err != nil {
				return nil, err
			}
			return fn(argString(args, 0), argString(args, 1), args[2], EachOptions{
				Params:       params,
				ValueKey:     argString(args, 4),
				EmptyName:    argString(args, 5),
				EmptyContent: argString(args, 6),
			})
		})
	}
	eachString(FuncEachString, r.EachString)
	eachString(FuncEachStringIfExists, r.EachStringIfExists)

	add(FuncFormat, 1, -1, func(args []any) (any, error) {
		return r.Format(argString(args, 0), args[1:]...)
	})

	return reg
}

// argString returns args[i] as output text, or "" when absent or nil.
func argString(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	return internal.Stringify(args[i])
}

// argParams returns args[i] as a parameter map. Absent, nil and empty
// array arguments mean no parameters.
func argParams(funcName string, args []any, i int) (map[string]any, error) {
	if i >= len(args) || args[i] == nil {
		return nil, nil
	}
	switch v := args[i].(type) {
	case map[string]any:
		return v, nil
	case []any:
		if len(v) == 0 {
			return nil, nil
		}
	}
	return nil, NewInvalidArgumentError(funcName, ReasonParamsNotMap)
}
