// Package eval implements M42PL's embedded expression language: the
// backtick-quoted snippets used by field resolution and by the `eval`
// command to compute a value from an event's data.
package eval

import "fmt"

// Expr is a compiled expression, safe to evaluate repeatedly and
// concurrently (evaluation never mutates the tree).
type Expr struct {
	root node
	src  string
}

// Compile parses src once into a reusable Expr.
func Compile(src string) (*Expr, error) {
	root, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("compiling expression %q: %w", src, err)
	}
	return &Expr{root: root, src: src}, nil
}

// Eval runs the compiled expression against data, returning Undefined{}
// (never an error) for an unresolved dotted path, and an error for any
// other runtime failure: unknown function, divide-by-zero, or a function
// argument outside its accepted type set.
func (e *Expr) Eval(data map[string]any) (any, error) {
	if data == nil {
		data = map[string]any{}
	}
	return e.root.eval(data)
}

// String returns the original source the Expr was compiled from.
func (e *Expr) String() string { return e.src }

func (n *numberLit) eval(map[string]any) (any, error) {
	if n.isFloat {
		return n.f, nil
	}
	return n.i, nil
}

func (s stringLit) eval(map[string]any) (any, error) { return string(s), nil }

func (b boolLit) eval(map[string]any) (any, error) { return bool(b), nil }

func (f *fieldRef) eval(data map[string]any) (any, error) {
	var cur any = data
	for _, seg := range f.path {
		m, ok := cur.(map[string]any)
		if !ok {
			return Undefined{}, nil
		}
		v, ok := m[seg]
		if !ok {
			return Undefined{}, nil
		}
		cur = v
	}
	return cur, nil
}

func (c *callExpr) eval(data map[string]any) (any, error) {
	fn, ok := functionTable[c.name]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", c.name)
	}
	args := make([]any, len(c.args))
	for i, a := range c.args {
		v, err := a.eval(data)
		if err != nil {
			return nil, fmt.Errorf("evaluating argument %d of %q: %w", i, c.name, err)
		}
		args[i] = v
	}
	v, err := fn(data, args)
	if err != nil {
		return nil, fmt.Errorf("calling %q: %w", c.name, err)
	}
	return v, nil
}

func (u *unaryExpr) eval(data map[string]any) (any, error) {
	v, err := u.operand.eval(data)
	if err != nil {
		return nil, err
	}
	switch u.op {
	case "!":
		return !truthy(v), nil
	case "-":
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		case Undefined:
			return int64(0), nil
		default:
			return nil, fmt.Errorf("unary '-' on non-numeric value %v", v)
		}
	}
	return nil, fmt.Errorf("unknown unary operator %q", u.op)
}

func (b *binaryExpr) eval(data map[string]any) (any, error) {
	// Short-circuit before evaluating the right operand.
	if b.op == "||" || b.op == "&&" {
		left, err := b.left.eval(data)
		if err != nil {
			return nil, err
		}
		lt := truthy(left)
		if b.op == "||" && lt {
			return true, nil
		}
		if b.op == "&&" && !lt {
			return false, nil
		}
		right, err := b.right.eval(data)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}

	left, err := b.left.eval(data)
	if err != nil {
		return nil, err
	}
	right, err := b.right.eval(data)
	if err != nil {
		return nil, err
	}
	left = coerceUndefinedLike(left, right)
	right = coerceUndefinedLike(right, left)

	switch b.op {
	case "==":
		return equalValues(left, right), nil
	case "!=":
		return !equalValues(left, right), nil
	case "<", "<=", ">", ">=":
		return compareValues(b.op, left, right)
	default:
		return arithmetic(b.op, left, right)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case Undefined:
		return false
	case nil:
		return false
	case string:
		return t != ""
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func equalValues(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareValues(op string, a, b any) (any, error) {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, fmt.Errorf("operator %q requires numeric operands, got %T and %T", op, a, b)
	}
	switch op {
	case "<":
		return af < bf, nil
	case "<=":
		return af <= bf, nil
	case ">":
		return af > bf, nil
	case ">=":
		return af >= bf, nil
	}
	return nil, fmt.Errorf("unknown comparison operator %q", op)
}

func arithmetic(op string, a, b any) (any, error) {
	if op == "+" {
		as, aok := a.(string)
		bs, bok := b.(string)
		if aok || bok {
			if !aok || !bok {
				return nil, fmt.Errorf("operator '+' requires both operands to be strings when either is a string, got %T and %T", a, b)
			}
			return as + bs, nil
		}
	}
	ai, aIsInt := a.(int64)
	bi, bIsInt := b.(int64)
	if aIsInt && bIsInt {
		switch op {
		case "+":
			return ai + bi, nil
		case "-":
			return ai - bi, nil
		case "*":
			return ai * bi, nil
		case "/":
			if bi == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return ai / bi, nil
		case "%":
			if bi == 0 {
				return nil, fmt.Errorf("modulo by zero")
			}
			return ai % bi, nil
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, fmt.Errorf("operator %q requires numeric operands, got %T and %T", op, a, b)
	}
	switch op {
	case "+":
		return af + bf, nil
	case "-":
		return af - bf, nil
	case "*":
		return af * bf, nil
	case "/":
		if bf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return af / bf, nil
	case "%":
		return nil, fmt.Errorf("modulo requires integer operands, got %T and %T", a, b)
	}
	return nil, fmt.Errorf("unknown arithmetic operator %q", op)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
