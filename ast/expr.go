package ast

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Null is the `null` literal.
type Null struct{ SpanVal Span }

// Bool is `true` or `false`.
type Bool struct {
	SpanVal Span
	Value   bool
}

// Int is an integer literal.
type Int struct {
	SpanVal Span
	Value   int64
}

// Float is a floating-point literal.
type Float struct {
	SpanVal Span
	Value   float64
}

// String is a string literal.
type String struct {
	SpanVal Span
	Value   string
}

// Vec is `vec[...]`.
type Vec struct {
	SpanVal  Span
	Elements []Expr
}

// Keyset is `keyset[...]`.
type Keyset struct {
	SpanVal  Span
	Elements []Expr
}

// Field is one key/value pair of a dict literal.
type Field struct {
	Key   Expr
	Value Expr
}

// Dict is `dict[...]`.
type Dict struct {
	SpanVal Span
	Fields  []Field
}

// Lvar is a local variable reference, including the leading `$`.
type Lvar struct {
	SpanVal Span
	Name    string
}

// Unop is a unary operator application.
type Unop struct {
	SpanVal Span
	Op      string
	Operand Expr
}

// Binop is a binary operator application.
type Binop struct {
	SpanVal Span
	Op      string
	Left    Expr
	Right   Expr
}

// Call is a call to a named function.
type Call struct {
	SpanVal Span
	Func    Id
	Args    []Expr
}

// ClassConst is `C::NAME`.
type ClassConst struct {
	SpanVal Span
	Class   Id
	Name    Id
}

// Const is a reference to a global constant.
type Const struct {
	SpanVal Span
	Name    Id
}

func (n *Null) Span() Span       { return n.SpanVal }
func (n *Bool) Span() Span       { return n.SpanVal }
func (n *Int) Span() Span        { return n.SpanVal }
func (n *Float) Span() Span      { return n.SpanVal }
func (n *String) Span() Span     { return n.SpanVal }
func (n *Vec) Span() Span        { return n.SpanVal }
func (n *Keyset) Span() Span     { return n.SpanVal }
func (n *Dict) Span() Span       { return n.SpanVal }
func (n *Lvar) Span() Span       { return n.SpanVal }
func (n *Unop) Span() Span       { return n.SpanVal }
func (n *Binop) Span() Span      { return n.SpanVal }
func (n *Call) Span() Span       { return n.SpanVal }
func (n *ClassConst) Span() Span { return n.SpanVal }
func (n *Const) Span() Span      { return n.SpanVal }

func (n *Null) node()       {}
func (n *Bool) node()       {}
func (n *Int) node()        {}
func (n *Float) node()      {}
func (n *String) node()     {}
func (n *Vec) node()        {}
func (n *Keyset) node()     {}
func (n *Dict) node()       {}
func (n *Lvar) node()       {}
func (n *Unop) node()       {}
func (n *Binop) node()      {}
func (n *Call) node()       {}
func (n *ClassConst) node() {}
func (n *Const) node()      {}

func (n *Null) expr()       {}
func (n *Bool) expr()       {}
func (n *Int) expr()        {}
func (n *Float) expr()      {}
func (n *String) expr()     {}
func (n *Vec) expr()        {}
func (n *Keyset) expr()     {}
func (n *Dict) expr()       {}
func (n *Lvar) expr()       {}
func (n *Unop) expr()       {}
func (n *Binop) expr()      {}
func (n *Call) expr()       {}
func (n *ClassConst) expr() {}
func (n *Const) expr()      {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	SpanVal Span
	Expr    Expr
}

// Return is `return expr;`; Value may be nil.
type Return struct {
	SpanVal Span
	Value   Expr
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *Return) Span() Span   { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *Return) node()        {}
func (n *ExprStmt) stmt()      {}
func (n *Return) stmt()        {}
