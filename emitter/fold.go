package emitter

import (
	"math"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// Fold evaluates x at compile time when it is built only from literals.
func Fold(x ast.Expr) (hhbc.TypedValue, bool) {
	switch n := x.(type) {
	case *ast.Null:
		return hhbc.NullValue(), true
	case *ast.Bool:
		return hhbc.BoolValue(n.Value), true
	case *ast.Int:
		return hhbc.IntValue(n.Value), true
	case *ast.Float:
		return hhbc.DoubleValue(n.Value), true
	case *ast.String:
		return hhbc.StringValue(n.Value), true
	case *ast.Vec:
		elems, ok := foldAll(n.Elements)
		if !ok {
			return hhbc.TypedValue{}, false
		}
		return hhbc.VecValue(elems...), true
	case *ast.Keyset:
		elems, ok := foldAll(n.Elements)
		if !ok {
			return hhbc.TypedValue{}, false
		}
		for _, el := range elems {
			if el.Kind != hhbc.KindInt && el.Kind != hhbc.KindString {
				return hhbc.TypedValue{}, false
			}
		}
		return hhbc.KeysetValue(dedupe(elems)...), true
	case *ast.Dict:
		fields := make([]hhbc.DictEntry, 0, len(n.Fields))
		for _, f := range n.Fields {
			k, ok := Fold(f.Key)
			if !ok || (k.Kind != hhbc.KindInt && k.Kind != hhbc.KindString) {
				return hhbc.TypedValue{}, false
			}
			v, ok := Fold(f.Value)
			if !ok {
				return hhbc.TypedValue{}, false
			}
			fields = setField(fields, k, v)
		}
		return hhbc.DictValue(fields...), true
	case *ast.Unop:
		v, ok := Fold(n.Operand)
		if !ok {
			return hhbc.TypedValue{}, false
		}
		switch {
		case n.Op == "-" && v.Kind == hhbc.KindInt:
			if v.Int == math.MinInt64 {
				return hhbc.TypedValue{}, false
			}
			return hhbc.IntValue(-v.Int), true
		case n.Op == "-" && v.Kind == hhbc.KindDouble:
			return hhbc.DoubleValue(-v.Double), true
		case n.Op == "+" && (v.Kind == hhbc.KindInt || v.Kind == hhbc.KindDouble):
			return v, true
		case n.Op == "!" && v.Kind == hhbc.KindBool:
			return hhbc.BoolValue(!v.Bool), true
		}
	case *ast.Binop:
		l, ok := Fold(n.Left)
		if !ok {
			return hhbc.TypedValue{}, false
		}
		r, ok := Fold(n.Right)
		if !ok {
			return hhbc.TypedValue{}, false
		}
		return foldBinop(n.Op, l, r)
	}
	return hhbc.TypedValue{}, false
}

func foldBinop(op string, l, r hhbc.TypedValue) (hhbc.TypedValue, bool) {
	if op == "." && l.Kind == hhbc.KindString && r.Kind == hhbc.KindString {
		return hhbc.StringValue(l.Str + r.Str), true
	}
	if l.Kind != hhbc.KindInt || r.Kind != hhbc.KindInt {
		return hhbc.TypedValue{}, false
	}
	var v int64
	var ok bool
	switch op {
	case "+":
		v, ok = addInt(l.Int, r.Int)
	case "-":
		v, ok = subInt(l.Int, r.Int)
	case "*":
		v, ok = mulInt(l.Int, r.Int)
	}
	if !ok {
		return hhbc.TypedValue{}, false
	}
	return hhbc.IntValue(v), true
}

// Integer results that leave the int64 range are left to the runtime, which
// promotes them to float.

func addInt(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func subInt(a, b int64) (int64, bool) {
	c := a - b
	if (c < a) != (b > 0) {
		return 0, false
	}
	return c, true
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

func foldAll(xs []ast.Expr) ([]hhbc.TypedValue, bool) {
	out := make([]hhbc.TypedValue, 0, len(xs))
	for _, x := range xs {
		v, ok := Fold(x)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func sameKey(a, b hhbc.TypedValue) bool {
	return a.Kind == b.Kind && a.Int == b.Int && a.Str == b.Str
}

func dedupe(elems []hhbc.TypedValue) []hhbc.TypedValue {
	var out []hhbc.TypedValue
	for _, el := range elems {
		dup := false
		for _, seen := range out {
			if sameKey(seen, el) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, el)
		}
	}
	return out
}

// setField overwrites an existing key in place, keeping first-insertion
// order.
func setField(fields []hhbc.DictEntry, k, v hhbc.TypedValue) []hhbc.DictEntry {
	for i := range fields {
		if sameKey(fields[i].Key, k) {
			fields[i].Value = v
			return fields
		}
	}
	return append(fields, hhbc.DictEntry{Key: k, Value: v})
}
