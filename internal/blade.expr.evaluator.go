package internal

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// PropertyAccessor exposes named properties to member access.
type PropertyAccessor interface {
	Property(name string) (any, bool)
}

// DefaultExprCacheSize bounds the parsed-expression cache of one evaluator.
const DefaultExprCacheSize = 4096

// ExprEvaluator is the default Evaluator. Parsed expressions are cached, so
// one evaluator may serve many renders concurrently.
type ExprEvaluator struct {
	funcs *FuncRegistry
	mu    sync.RWMutex
	cache map[string]ExprNode
}

// NewExprEvaluator creates a new expression evaluator. A nil registry gets
// the builtins.
func NewExprEvaluator(funcs *FuncRegistry) *ExprEvaluator {
	if funcs == nil {
		funcs = NewBuiltinFuncRegistry()
	}
	return &ExprEvaluator{
		funcs: funcs,
		cache: make(map[string]ExprNode),
	}
}

// Funcs returns the builtin function registry
func (e *ExprEvaluator) Funcs() *FuncRegistry {
	return e.funcs
}

// Eval implements Evaluator.
func (e *ExprEvaluator) Eval(expr string, scope Scope) (any, error) {
	node, err := e.parse(expr)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(node, scope)
}

func (e *ExprEvaluator) parse(expr string) (ExprNode, error) {
	e.mu.RLock()
	node, ok := e.cache[expr]
	e.mu.RUnlock()
	if ok {
		return node, nil
	}

	node, err := ParseExpression(expr)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.cache) >= DefaultExprCacheSize {
		e.cache = make(map[string]ExprNode)
	}
	e.cache[expr] = node
	e.mu.Unlock()
	return node, nil
}

// Evaluate evaluates a parsed expression against scope
func (e *ExprEvaluator) Evaluate(node ExprNode, scope Scope) (any, error) {
	r := &exprRun{funcs: e.funcs, scope: scope}
	return r.eval(node)
}

// exprRun evaluates nodes against one scope
type exprRun struct {
	funcs *FuncRegistry
	scope Scope
}

func (r *exprRun) eval(node ExprNode) (any, error) {
	if node == nil {
		return nil, NewExprEvalError(ErrMsgExprNilNode, "")
	}

	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil
	case *IdentifierNode:
		return r.lookup(n.Name)
	case *UnaryNode:
		return r.evalUnary(n)
	case *BinaryNode:
		return r.evalBinary(n)
	case *CallNode:
		return r.evalCall(n)
	case *MemberNode:
		obj, err := r.eval(n.Object)
		if err != nil {
			return nil, err
		}
		return memberOf(obj, n.Name), nil
	case *IndexNode:
		return r.evalIndex(n)
	case *ArrayNode:
		out := make([]any, len(n.Elements))
		for i, el := range n.Elements {
			v, err := r.eval(el)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *MapNode:
		out := make(map[string]any, len(n.Entries))
		for _, entry := range n.Entries {
			k, err := r.eval(entry.Key)
			if err != nil {
				return nil, err
			}
			v, err := r.eval(entry.Value)
			if err != nil {
				return nil, err
			}
			out[anyToString(k)] = v
		}
		return out, nil
	case *TernaryNode:
		return r.evalTernary(n)
	case *AssignNode:
		return r.evalAssign(n)
	case *UpdateNode:
		return r.evalUpdate(n)
	}
	return nil, NewExprEvalError(ErrMsgExprUnknownNodeType, fmt.Sprintf("%T", node))
}

// lookup reads a variable. Missing variables are nil, not an error.
func (r *exprRun) lookup(name string) (any, error) {
	if r.scope == nil {
		return nil, NewExprEvalError(ErrMsgExprNoContext, name)
	}
	val, _ := r.scope.Get(name)
	return val, nil
}

func (r *exprRun) evalUnary(n *UnaryNode) (any, error) {
	right, err := r.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ExprTokenTypeNot:
		return !isTruthy(right), nil
	case ExprTokenTypeMinus:
		return arithmetic(ExprTokenTypeMinus, 0, right)
	}
	return nil, NewExprEvalError(ErrMsgExprUnknownOperator, string(n.Op))
}

func (r *exprRun) evalBinary(n *BinaryNode) (any, error) {
	left, err := r.eval(n.Left)
	if err != nil {
		return nil, err
	}

	// Short-circuit operators
	switch n.Op {
	case ExprTokenTypeAnd:
		if !isTruthy(left) {
			return false, nil
		}
		right, err := r.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return isTruthy(right), nil
	case ExprTokenTypeOr:
		if isTruthy(left) {
			return true, nil
		}
		right, err := r.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return isTruthy(right), nil
	case ExprTokenTypeCoalesce:
		if left != nil {
			return left, nil
		}
		return r.eval(n.Right)
	}

	right, err := r.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ExprTokenTypeEq:
		return LooseEqual(left, right), nil
	case ExprTokenTypeNeq:
		return !LooseEqual(left, right), nil
	case ExprTokenTypeIdentical:
		return StrictEqual(left, right), nil
	case ExprTokenTypeNotIdentical:
		return !StrictEqual(left, right), nil
	case ExprTokenTypeLt:
		return compareLess(left, right)
	case ExprTokenTypeGt:
		return compareLess(right, left)
	case ExprTokenTypeLte:
		greater, err := compareLess(right, left)
		if err != nil {
			return nil, err
		}
		return !greater, nil
	case ExprTokenTypeGte:
		less, err := compareLess(left, right)
		if err != nil {
			return nil, err
		}
		return !less, nil
	case ExprTokenTypePlus, ExprTokenTypeMinus, ExprTokenTypeStar, ExprTokenTypeSlash, ExprTokenTypePercent:
		return arithmetic(n.Op, left, right)
	}
	return nil, NewExprEvalError(ErrMsgExprUnknownOperator, string(n.Op))
}

// evalCall resolves per-render functions before builtins.
func (r *exprRun) evalCall(n *CallNode) (any, error) {
	args := make([]any, len(n.Args))
	for i, argNode := range n.Args {
		val, err := r.eval(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	if r.scope != nil {
		if f, ok := r.scope.Func(n.Name); ok {
			return f.Call(args)
		}
	}
	if r.funcs == nil {
		return nil, NewExprEvalError(ErrMsgExprNoFuncRegistry, n.Name)
	}
	return r.funcs.Call(n.Name, args)
}

func (r *exprRun) evalIndex(n *IndexNode) (any, error) {
	obj, err := r.eval(n.Object)
	if err != nil {
		return nil, err
	}
	idx, err := r.eval(n.Index)
	if err != nil {
		return nil, err
	}
	return indexOf(obj, idx), nil
}

func (r *exprRun) evalTernary(n *TernaryNode) (any, error) {
	cond, err := r.eval(n.Cond)
	if err != nil {
		return nil, err
	}
	if isTruthy(cond) {
		if n.Then == nil {
			return cond, nil
		}
		return r.eval(n.Then)
	}
	return r.eval(n.Else)
}

func (r *exprRun) evalAssign(n *AssignNode) (any, error) {
	if r.scope == nil {
		return nil, NewExprEvalError(ErrMsgExprNoContext, n.Name)
	}
	value, err := r.eval(n.Value)
	if err != nil {
		return nil, err
	}

	if n.Op != ExprTokenTypeAssign {
		current, _ := r.scope.Get(n.Name)
		switch n.Op {
		case ExprTokenTypePlusAssign:
			value, err = arithmetic(ExprTokenTypePlus, current, value)
		case ExprTokenTypeMinusAssign:
			value, err = arithmetic(ExprTokenTypeMinus, current, value)
		case ExprTokenTypeConcatAssign:
			value = anyToString(current) + anyToString(value)
		}
		if err != nil {
			return nil, err
		}
	}

	r.scope.Set(n.Name, value)
	return value, nil
}

func (r *exprRun) evalUpdate(n *UpdateNode) (any, error) {
	if r.scope == nil {
		return nil, NewExprEvalError(ErrMsgExprNoContext, n.Name)
	}
	current, _ := r.scope.Get(n.Name)
	if current == nil {
		current = 0
	}

	op := ExprTokenTypePlus
	if n.Op == ExprTokenTypeDecrement {
		op = ExprTokenTypeMinus
	}
	next, err := arithmetic(op, current, 1)
	if err != nil {
		return nil, err
	}
	r.scope.Set(n.Name, next)

	if n.Prefix {
		return next, nil
	}
	return current, nil
}

// arithmetic applies +, -, *, / or %. + concatenates when either side is a
// string. Integer operands stay integers unless division is inexact.
func arithmetic(op ExprTokenType, a, b any) (any, error) {
	if op == ExprTokenTypePlus {
		_, aStr := a.(string)
		_, bStr := b.(string)
		if aStr || bStr {
			return anyToString(a) + anyToString(b), nil
		}
	}

	ai, aInt := toInteger(a)
	bi, bInt := toInteger(b)
	if aInt && bInt {
		switch op {
		case ExprTokenTypePlus:
			return ai + bi, nil
		case ExprTokenTypeMinus:
			return ai - bi, nil
		case ExprTokenTypeStar:
			return ai * bi, nil
		case ExprTokenTypeSlash:
			if bi == 0 {
				return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
			}
			if ai%bi == 0 {
				return ai / bi, nil
			}
			return float64(ai) / float64(bi), nil
		case ExprTokenTypePercent:
			if bi == 0 {
				return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
			}
			return ai % bi, nil
		}
	}

	af, aNum := toNumber(a)
	bf, bNum := toNumber(b)
	if !aNum || !bNum {
		return nil, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot apply %s to %T and %T", op, a, b))
	}
	switch op {
	case ExprTokenTypePlus:
		return af + bf, nil
	case ExprTokenTypeMinus:
		return af - bf, nil
	case ExprTokenTypeStar:
		return af * bf, nil
	case ExprTokenTypeSlash:
		if bf == 0 {
			return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
		}
		return af / bf, nil
	case ExprTokenTypePercent:
		if bf == 0 {
			return nil, NewExprEvalError(ErrMsgExprDivisionByZero, "")
		}
		return math.Mod(af, bf), nil
	}
	return nil, NewExprEvalError(ErrMsgExprUnknownOperator, string(op))
}

// memberOf reads a named property from maps, PropertyAccessors and structs.
// Missing properties are nil.
func memberOf(obj any, name string) any {
	if obj == nil {
		return nil
	}
	switch o := obj.(type) {
	case map[string]any:
		return o[name]
	case PropertyAccessor:
		v, _ := o.Property(name)
		return v
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	case reflect.Struct:
		field := rv.FieldByName(name)
		if !field.IsValid() {
			field = rv.FieldByName(exportedName(name))
		}
		if !field.IsValid() || !field.CanInterface() {
			return nil
		}
		return field.Interface()
	}
	return nil
}

func exportedName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

// indexOf reads list elements by position and map entries by key.
func indexOf(obj, idx any) any {
	if obj == nil {
		return nil
	}

	switch o := obj.(type) {
	case map[string]any:
		return o[anyToString(idx)]
	case string:
		i, ok := toInteger(idx)
		if !ok || i < 0 || i >= len(o) {
			return nil
		}
		return o[i : i+1]
	}

	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, ok := toInteger(idx)
		if !ok || i < 0 || i >= rv.Len() {
			return nil
		}
		return rv.Index(i).Interface()
	case reflect.Map:
		return memberOf(obj, anyToString(idx))
	}
	return memberOf(obj, anyToString(idx))
}

// LooseEqual compares values the way == does: numbers by value, numeric
// strings against numbers by value, everything else by type and value.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		other := a
		if other == nil {
			other = b
		}
		return !isTruthy(other)
	}

	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}

	aStr, aIsStr := toString(a)
	bStr, bIsStr := toString(b)
	if aIsStr && bIsStr {
		return aStr == bStr
	}
	if aIsNum && bIsStr {
		if f, err := anyToFloat(bStr, "", 0); err == nil {
			return aNum == f
		}
		return false
	}
	if aIsStr && bIsNum {
		if f, err := anyToFloat(aStr, "", 0); err == nil {
			return f == bNum
		}
		return false
	}

	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool || bIsBool {
		if aIsBool && bIsBool {
			return aBool == bBool
		}
		return isTruthy(a) == isTruthy(b)
	}

	return reflect.DeepEqual(a, b)
}

// StrictEqual compares values the way === does: same kind and value.
// Integer widths are normalized; ints and floats are never identical.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ai, ok := toInteger(a); ok {
		bi, ok := toInteger(b)
		return ok && ai == bi
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compareLess checks if a < b
func compareLess(a, b any) (bool, error) {
	aNum, aIsNum := toNumber(a)
	bNum, bIsNum := toNumber(b)
	if aIsNum && bIsNum {
		return aNum < bNum, nil
	}

	aStr, aIsStr := toString(a)
	bStr, bIsStr := toString(b)
	if aIsStr && bIsStr {
		return strings.Compare(aStr, bStr) < 0, nil
	}

	return false, NewExprEvalError(ErrMsgExprTypeMismatch, fmt.Sprintf("cannot compare %T and %T", a, b))
}

// toInteger reports integer-kinded values
func toInteger(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case int32:
		return int(val), true
	case int16:
		return int(val), true
	case int8:
		return int(val), true
	case uint:
		return int(val), true
	case uint64:
		return int(val), true
	case uint32:
		return int(val), true
	case uint16:
		return int(val), true
	case uint8:
		return int(val), true
	}
	return 0, false
}

// toFloat reports float-kinded values
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	}
	return 0, false
}

// toNumber converts integer and float values to float64
func toNumber(v any) (float64, bool) {
	if i, ok := toInteger(v); ok {
		return float64(i), true
	}
	return toFloat(v)
}

// ExprEvalError represents an expression evaluation error
type ExprEvalError struct {
	Message string
	Detail  string
}

// NewExprEvalError creates a new expression evaluation error
func NewExprEvalError(message, detail string) *ExprEvalError {
	return &ExprEvalError{
		Message: message,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprEvalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf(ErrFmtWithName, e.Message, e.Detail)
	}
	return e.Message
}

// Expression evaluator error messages
const (
	ErrMsgExprNilNode         = "nil expression node"
	ErrMsgExprUnknownNodeType = "unknown expression node type"
	ErrMsgExprNoContext       = "no scope available for variable lookup"
	ErrMsgExprUnknownOperator = "unknown operator"
	ErrMsgExprNoFuncRegistry  = "no function registry available"
	ErrMsgExprTypeMismatch    = "type mismatch"
	ErrMsgExprDivisionByZero  = "division by zero"
)

// EvaluateExpression parses and evaluates an expression string with the
// builtin functions
func EvaluateExpression(expr string, scope Scope) (any, error) {
	return NewExprEvaluator(nil).Eval(expr, scope)
}
