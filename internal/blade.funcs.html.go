package internal

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer policies are safe for concurrent use once built.
var (
	policiesOnce sync.Once
	ugcPolicy    *bluemonday.Policy
	strictPolicy *bluemonday.Policy
)

func sanitizers() (*bluemonday.Policy, *bluemonday.Policy) {
	policiesOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		strictPolicy = bluemonday.StrictPolicy()
	})
	return ugcPolicy, strictPolicy
}

// EscapeHTML escapes the output form of v for HTML text and attributes.
func EscapeHTML(v any) string {
	return html.EscapeString(anyToString(v))
}

// registerHTMLFuncs registers escaping and sanitizing functions
func registerHTMLFuncs(r *FuncRegistry) {
	// e(x) string - escaped echo
	r.MustRegister(&Func{
		Name:    FuncNameEscape,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return EscapeHTML(args[ArgIndexFirst]), nil
		},
	})

	// clean(x) string - keeps safe user markup
	r.MustRegister(&Func{
		Name:    FuncNameClean,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			ugc, _ := sanitizers()
			return ugc.Sanitize(anyToString(args[ArgIndexFirst])), nil
		},
	})

	// stripTags(x) string - removes all markup
	r.MustRegister(&Func{
		Name:    FuncNameStripTags,
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			_, strict := sanitizers()
			return strict.Sanitize(anyToString(args[ArgIndexFirst])), nil
		},
	})
}
