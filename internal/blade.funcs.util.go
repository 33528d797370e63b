package internal

// registerUtilFuncs registers fallback and presence helpers
func registerUtilFuncs(r *FuncRegistry) {
	// default(x, fallback) - fallback when x is nil or empty
	r.MustRegister(&Func{
		Name:    FuncNameDefault,
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(args []any) (any, error) {
			if isEmpty(args[ArgIndexFirst]) {
				return args[ArgIndexSecond], nil
			}
			return args[ArgIndexFirst], nil
		},
	})

	// coalesce(args...) - first non-nil, non-empty value
	r.MustRegister(&Func{
		Name:    FuncNameCoalesce,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(args []any) (any, error) {
			for _, arg := range args {
				if !isEmpty(arg) {
					return arg, nil
				}
			}
			return nil, nil
		},
	})

	// isset(args...) - true when every argument is non-nil
	r.MustRegister(&Func{
		Name:    FuncNameIsset,
		MinArgs: 1,
		MaxArgs: -1,
		Fn: func(args []any) (any, error) {
			for _, arg := range args {
				if arg == nil {
					return false, nil
				}
			}
			return true, nil
		},
	})
}
