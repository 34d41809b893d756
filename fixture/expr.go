package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/hackemit/ast"
)

// Expressions are plain YAML values. Scalars are literals, except strings
// starting with `$`, which are local variables. Sequences are vec
// literals. Single-key mappings name everything else:
//
//	{string: "$not_a_local"}
//	{keyset: [1, 2]}
//	{dict: [[k, v], ...]}
//	{call: f} or {call: {func: f, args: [...]}}
//	{const: NAME}
//	{class_const: "C::NAME"}
//	{unop: {op: "-", operand: 1}}
//	{binop: {op: ".", left: "a", right: "b"}}

type callExpr struct {
	Func string      `yaml:"func"`
	Args []yaml.Node `yaml:"args,omitempty"`
}

type unopExpr struct {
	Op      string    `yaml:"op"`
	Operand yaml.Node `yaml:"operand"`
}

type binopExpr struct {
	Op    string    `yaml:"op"`
	Left  yaml.Node `yaml:"left"`
	Right yaml.Node `yaml:"right"`
}

func nodeErrorf(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

// Expr converts a YAML value to an expression. An absent node is nil.
func Expr(n *yaml.Node) (ast.Expr, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return scalar(n)
	case yaml.SequenceNode:
		elems, err := exprs(n.Content)
		if err != nil {
			return nil, err
		}
		return &ast.Vec{Elements: elems}, nil
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, nodeErrorf(n, "expression mapping must have exactly one key")
		}
		return tagged(n.Content[0].Value, n.Content[1])
	}
	return nil, nodeErrorf(n, "unsupported expression node")
}

func exprs(ns []*yaml.Node) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(ns))
	for _, n := range ns {
		x, err := Expr(n)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func nodeExprs(ns []yaml.Node) ([]ast.Expr, error) {
	ptrs := make([]*yaml.Node, len(ns))
	for i := range ns {
		ptrs[i] = &ns[i]
	}
	return exprs(ptrs)
}

func scalar(n *yaml.Node) (ast.Expr, error) {
	switch n.ShortTag() {
	case "!!null":
		return &ast.Null{}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeErrorf(n, "%v", err)
		}
		return &ast.Bool{Value: b}, nil
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, nodeErrorf(n, "%v", err)
		}
		return &ast.Int{Value: v}, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, nodeErrorf(n, "%v", err)
		}
		return &ast.Float{Value: f}, nil
	}
	if strings.HasPrefix(n.Value, "$") {
		return &ast.Lvar{Name: n.Value}, nil
	}
	return &ast.String{Value: n.Value}, nil
}

func tagged(key string, v *yaml.Node) (ast.Expr, error) {
	switch key {
	case "string":
		return &ast.String{Value: v.Value}, nil
	case "vec", "keyset":
		if v.Kind != yaml.SequenceNode {
			return nil, nodeErrorf(v, "%s takes a sequence", key)
		}
		elems, err := exprs(v.Content)
		if err != nil {
			return nil, err
		}
		if key == "keyset" {
			return &ast.Keyset{Elements: elems}, nil
		}
		return &ast.Vec{Elements: elems}, nil
	case "dict":
		if v.Kind != yaml.SequenceNode {
			return nil, nodeErrorf(v, "dict takes a sequence of [key, value] pairs")
		}
		d := &ast.Dict{}
		for _, pair := range v.Content {
			if pair.Kind != yaml.SequenceNode || len(pair.Content) != 2 {
				return nil, nodeErrorf(pair, "dict entry must be [key, value]")
			}
			kv, err := exprs(pair.Content)
			if err != nil {
				return nil, err
			}
			d.Fields = append(d.Fields, ast.Field{Key: kv[0], Value: kv[1]})
		}
		return d, nil
	case "call":
		var c callExpr
		if v.Kind == yaml.ScalarNode {
			c.Func = v.Value
		} else if err := v.Decode(&c); err != nil {
			return nil, nodeErrorf(v, "%v", err)
		}
		args, err := nodeExprs(c.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Func: ast.Id{Name: c.Func}, Args: args}, nil
	case "const":
		return &ast.Const{Name: ast.Id{Name: v.Value}}, nil
	case "class_const":
		cls, name, ok := strings.Cut(v.Value, "::")
		if !ok {
			return nil, nodeErrorf(v, "class_const must be C::NAME")
		}
		return &ast.ClassConst{Class: ast.Id{Name: cls}, Name: ast.Id{Name: name}}, nil
	case "unop":
		var u unopExpr
		if err := v.Decode(&u); err != nil {
			return nil, nodeErrorf(v, "%v", err)
		}
		operand, err := Expr(&u.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.Unop{Op: u.Op, Operand: operand}, nil
	case "binop":
		var b binopExpr
		if err := v.Decode(&b); err != nil {
			return nil, nodeErrorf(v, "%v", err)
		}
		l, err := Expr(&b.Left)
		if err != nil {
			return nil, err
		}
		r, err := Expr(&b.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Binop{Op: b.Op, Left: l, Right: r}, nil
	}
	return nil, nodeErrorf(v, "unknown expression kind %q", key)
}

// Stmts converts a body. Each statement is {return: expr} or {expr: expr};
// `return: ~` returns no value.
func Stmts(body []yaml.Node) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for i := range body {
		n := &body[i]
		if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
			return nil, nodeErrorf(n, "statement must be a single-key mapping")
		}
		key, v := n.Content[0].Value, n.Content[1]
		switch key {
		case "return":
			if v.ShortTag() == "!!null" {
				out = append(out, &ast.Return{})
				continue
			}
			x, err := Expr(v)
			if err != nil {
				return nil, err
			}
			out = append(out, &ast.Return{Value: x})
		case "expr":
			x, err := Expr(v)
			if err != nil {
				return nil, err
			}
			out = append(out, &ast.ExprStmt{Expr: x})
		default:
			return nil, nodeErrorf(n, "unknown statement %q", key)
		}
	}
	return out, nil
}
