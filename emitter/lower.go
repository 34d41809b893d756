package emitter

import (
	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// Lowerer lowers general expressions and statements. The class and
// memoize lowering in this package only ever asks it for initializer
// expressions and method bodies.
type Lowerer interface {
	LowerExpr(e *Emitter, env *Env, x ast.Expr) (hhbc.InstrSeq, error)
	LowerStmts(e *Emitter, env *Env, body []ast.Stmt) (hhbc.InstrSeq, error)
}

// BasicLowerer handles the expression subset that appears in declaration
// initializers: literals, collections, locals, operators, calls and
// constant references.
type BasicLowerer struct{}

var binops = map[string]hhbc.Opcode{
	".":   hhbc.OpConcat,
	"+":   hhbc.OpAdd,
	"-":   hhbc.OpSub,
	"*":   hhbc.OpMul,
	"/":   hhbc.OpDiv,
	"%":   hhbc.OpMod,
	"===": hhbc.OpSame,
	"!==": hhbc.OpNSame,
	"==":  hhbc.OpEq,
	"!=":  hhbc.OpNeq,
	"<":   hhbc.OpLt,
	"<=":  hhbc.OpLte,
	">":   hhbc.OpGt,
	">=":  hhbc.OpGte,
}

// LowerExpr implements Lowerer.
func (l BasicLowerer) LowerExpr(e *Emitter, env *Env, x ast.Expr) (hhbc.InstrSeq, error) {
	if v, ok := Fold(x); ok {
		return literal(v), nil
	}
	switch n := x.(type) {
	case *ast.Lvar:
		return hhbc.CGetL(hhbc.Named(n.Name)), nil
	case *ast.Vec:
		elems, err := l.lowerAll(e, env, n.Elements)
		if err != nil {
			return nil, err
		}
		return hhbc.Gather(elems, hhbc.NewVec(len(n.Elements))), nil
	case *ast.Keyset:
		elems, err := l.lowerAll(e, env, n.Elements)
		if err != nil {
			return nil, err
		}
		return hhbc.Gather(elems, hhbc.NewKeyset(len(n.Elements))), nil
	case *ast.Dict:
		seq := hhbc.NewDict(len(n.Fields))
		for _, f := range n.Fields {
			k, err := l.LowerExpr(e, env, f.Key)
			if err != nil {
				return nil, err
			}
			v, err := l.LowerExpr(e, env, f.Value)
			if err != nil {
				return nil, err
			}
			seq = hhbc.Gather(seq, k, v, hhbc.AddElemC())
		}
		return seq, nil
	case *ast.Unop:
		operand, err := l.LowerExpr(e, env, n.Operand)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "!":
			return hhbc.Gather(operand, hhbc.Not()), nil
		case "-":
			return hhbc.Gather(hhbc.Int(0), operand, hhbc.BinOp(hhbc.OpSub)), nil
		case "+":
			return operand, nil
		}
		return nil, internalErrorf(n.SpanVal, "unsupported unary operator %q", n.Op)
	case *ast.Binop:
		op, ok := binops[n.Op]
		if !ok {
			return nil, internalErrorf(n.SpanVal, "unsupported binary operator %q", n.Op)
		}
		left, err := l.LowerExpr(e, env, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := l.LowerExpr(e, env, n.Right)
		if err != nil {
			return nil, err
		}
		return hhbc.Gather(left, right, hhbc.BinOp(op)), nil
	case *ast.Call:
		args, err := l.lowerAll(e, env, n.Args)
		if err != nil {
			return nil, err
		}
		name := stripGlobalNS(n.Func.Name)
		e.AddSymbol(hhbc.SymFunction, name)
		return hhbc.Gather(
			hhbc.NullUninit(),
			hhbc.NullUninit(),
			args,
			hhbc.FCallFuncD(hhbc.FCallArgs{NumArgs: len(n.Args), NumRets: 1}, name),
		), nil
	case *ast.ClassConst:
		class := stripGlobalNS(n.Class.Name)
		e.AddSymbol(hhbc.SymClass, class)
		return hhbc.ClsCnsD(n.Name.Name, class), nil
	case *ast.Const:
		name := stripGlobalNS(n.Name.Name)
		e.AddSymbol(hhbc.SymConstant, name)
		return hhbc.CnsE(name), nil
	}
	return nil, internalErrorf(x.Span(), "cannot lower %T", x)
}

func (l BasicLowerer) lowerAll(e *Emitter, env *Env, xs []ast.Expr) (hhbc.InstrSeq, error) {
	var seq hhbc.InstrSeq
	for _, x := range xs {
		s, err := l.LowerExpr(e, env, x)
		if err != nil {
			return nil, err
		}
		seq = hhbc.Gather(seq, s)
	}
	return seq, nil
}

// LowerStmts implements Lowerer.
func (l BasicLowerer) LowerStmts(e *Emitter, env *Env, body []ast.Stmt) (hhbc.InstrSeq, error) {
	var seq hhbc.InstrSeq
	for _, s := range body {
		switch n := s.(type) {
		case *ast.ExprStmt:
			x, err := l.LowerExpr(e, env, n.Expr)
			if err != nil {
				return nil, err
			}
			seq = hhbc.Gather(seq, hhbc.Pos(srcLoc(n.SpanVal)), x, hhbc.PopC())
		case *ast.Return:
			value := hhbc.Null()
			if n.Value != nil {
				x, err := l.LowerExpr(e, env, n.Value)
				if err != nil {
					return nil, err
				}
				value = x
			}
			seq = hhbc.Gather(seq, hhbc.Pos(srcLoc(n.SpanVal)), value, hhbc.RetC())
		default:
			return nil, internalErrorf(s.Span(), "cannot lower %T", s)
		}
	}
	return seq, nil
}

// literal pushes a folded value with the cheapest instruction.
func literal(v hhbc.TypedValue) hhbc.InstrSeq {
	switch v.Kind {
	case hhbc.KindNull:
		return hhbc.Null()
	case hhbc.KindUninit:
		return hhbc.NullUninit()
	case hhbc.KindBool:
		if v.Bool {
			return hhbc.True()
		}
		return hhbc.False()
	case hhbc.KindInt:
		return hhbc.Int(v.Int)
	case hhbc.KindDouble:
		return hhbc.Double(v.Double)
	case hhbc.KindString:
		return hhbc.String(v.Str)
	}
	return hhbc.TypedValueC(v)
}

// endsWithReturn reports whether control cannot fall off the end of body.
func endsWithReturn(body []ast.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	_, ok := body[len(body)-1].(*ast.Return)
	return ok
}

func srcLoc(s ast.Span) hhbc.SrcLoc {
	return hhbc.SrcLoc{Line1: s.Start.Line, Col1: s.Start.Column, Line2: s.End.Line, Col2: s.End.Column}
}

func span(s ast.Span) hhbc.Span {
	return hhbc.Span{Line1: s.Start.Line, Line2: s.End.Line}
}
