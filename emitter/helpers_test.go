package emitter

import (
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

func assertGolden(t *testing.T, name, got string) {
	t.Helper()
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, []byte(got))
}

func id(name string) ast.Id { return ast.Id{Name: name} }

func attr(name string, params ...ast.Expr) ast.UserAttribute {
	return ast.UserAttribute{Name: id(name), Params: params}
}

func tparam(name string, k ast.ReifyKind) ast.TParam {
	return ast.TParam{Name: id(name), Reified: k}
}

func prim(p ast.Prim) *ast.HPrim { return &ast.HPrim{Prim: p} }

func intLit(v int64) *ast.Int { return &ast.Int{Value: v} }

func str(v string) *ast.String { return &ast.String{Value: v} }

func call(fn string, args ...ast.Expr) *ast.Call { return &ast.Call{Func: id(fn), Args: args} }

func binop(op string, l, r ast.Expr) *ast.Binop { return &ast.Binop{Op: op, Left: l, Right: r} }

func ret(x ast.Expr) *ast.Return { return &ast.Return{Value: x} }

func lvar(name string) *ast.Lvar { return &ast.Lvar{Name: name} }

func method(name string, body ...ast.Stmt) *ast.Method {
	return &ast.Method{Name: id(name), Body: body}
}

func class(name string, kind ast.ClassKind) *ast.Class {
	return &ast.Class{Name: id(name), Kind: kind}
}

func requireFatal(t *testing.T, err error, op hhbc.FatalOp, msg string) {
	t.Helper()
	var fe *FatalError
	require.True(t, errors.As(err, &fe), "want *FatalError, got %v", err)
	require.Equal(t, op, fe.Op)
	require.Equal(t, msg, fe.Message)
}

func countOp(seq hhbc.InstrSeq, op hhbc.Opcode) int {
	return seq.Count(func(i hhbc.Instr) bool { return i.Op == op })
}
