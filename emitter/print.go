package emitter

import (
	"strconv"
	"strings"

	"github.com/chazu/hackemit/ast"
)

// exprString renders an expression in source syntax, for parameter
// default-value records.
func exprString(x ast.Expr) string {
	var sb strings.Builder
	writeExpr(&sb, x)
	return sb.String()
}

func writeExpr(sb *strings.Builder, x ast.Expr) {
	switch n := x.(type) {
	case *ast.Null:
		sb.WriteString("null")
	case *ast.Bool:
		sb.WriteString(strconv.FormatBool(n.Value))
	case *ast.Int:
		sb.WriteString(strconv.FormatInt(n.Value, 10))
	case *ast.Float:
		sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case *ast.String:
		sb.WriteString(strconv.Quote(n.Value))
	case *ast.Vec:
		writeList(sb, "vec[", n.Elements, "]")
	case *ast.Keyset:
		writeList(sb, "keyset[", n.Elements, "]")
	case *ast.Dict:
		sb.WriteString("dict[")
		for i, f := range n.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, f.Key)
			sb.WriteString(" => ")
			writeExpr(sb, f.Value)
		}
		sb.WriteString("]")
	case *ast.Lvar:
		sb.WriteString(n.Name)
	case *ast.Unop:
		sb.WriteString(n.Op)
		writeExpr(sb, n.Operand)
	case *ast.Binop:
		writeExpr(sb, n.Left)
		sb.WriteString(" " + n.Op + " ")
		writeExpr(sb, n.Right)
	case *ast.Call:
		sb.WriteString(stripGlobalNS(n.Func.Name))
		writeList(sb, "(", n.Args, ")")
	case *ast.ClassConst:
		sb.WriteString(stripGlobalNS(n.Class.Name) + "::" + n.Name.Name)
	case *ast.Const:
		sb.WriteString(stripGlobalNS(n.Name.Name))
	}
}

func writeList(sb *strings.Builder, open string, xs []ast.Expr, close string) {
	sb.WriteString(open)
	for i, x := range xs {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, x)
	}
	sb.WriteString(close)
}
