package ast

// ---------------------------------------------------------------------------
// Type hints
// ---------------------------------------------------------------------------

// Hint is a closed union of type-hint shapes. Every consumer switches over
// the concrete types below; the marker method keeps the set closed to this
// package.
type Hint interface {
	Node
	hint() // marker method
}

// Wildcard is the name an erased type argument is rewritten to.
const Wildcard = "_"

// Prim enumerates primitive hints.
type Prim int

const (
	PrimNull Prim = iota
	PrimVoid
	PrimInt
	PrimBool
	PrimFloat
	PrimString
	PrimResource
	PrimNum
	PrimArraykey
	PrimNoreturn
)

var primNames = [...]string{
	PrimNull:     "null",
	PrimVoid:     "void",
	PrimInt:      "int",
	PrimBool:     "bool",
	PrimFloat:    "float",
	PrimString:   "string",
	PrimResource: "resource",
	PrimNum:      "num",
	PrimArraykey: "arraykey",
	PrimNoreturn: "noreturn",
}

// String returns the source spelling of the primitive.
func (p Prim) String() string {
	if int(p) < len(primNames) {
		return primNames[p]
	}
	return "unknown"
}

// HApply is an applied (possibly generic) named type: `C<T1, T2>`. Type
// parameter references are also HApply nodes with no arguments.
type HApply struct {
	SpanVal Span
	Name    Id
	Args    []Hint
}

// HOption is `?T`.
type HOption struct {
	SpanVal Span
	Inner   Hint
}

// HSoft is `@T`.
type HSoft struct {
	SpanVal Span
	Inner   Hint
}

// HLike is `~T`.
type HLike struct {
	SpanVal Span
	Inner   Hint
}

// HPrim is a primitive type.
type HPrim struct {
	SpanVal Span
	Prim    Prim
}

// HMixed is `mixed`.
type HMixed struct{ SpanVal Span }

// HNonnull is `nonnull`.
type HNonnull struct{ SpanVal Span }

// HThis is `this`.
type HThis struct{ SpanVal Span }

// HNothing is `nothing`.
type HNothing struct{ SpanVal Span }

// HDynamic is `dynamic`.
type HDynamic struct{ SpanVal Span }

// HVecOrDict is `vec_or_dict<K, V>`; Key may be nil.
type HVecOrDict struct {
	SpanVal Span
	Key     Hint
	Value   Hint
}

// HTuple is `(T1, T2, ...)`.
type HTuple struct {
	SpanVal Span
	Elems   []Hint
}

// HUnion is a union of hints.
type HUnion struct {
	SpanVal Span
	Elems   []Hint
}

// HIntersection is an intersection of hints.
type HIntersection struct {
	SpanVal Span
	Elems   []Hint
}

// ShapeField is one field of a shape hint.
type ShapeField struct {
	Name     string
	Optional bool
	Hint     Hint
}

// HShape is `shape(...)`.
type HShape struct {
	SpanVal             Span
	AllowsUnknownFields bool
	Fields              []ShapeField
}

// HFun is a function type `(function(T1): R)`.
type HFun struct {
	SpanVal Span
	Params  []Hint
	Return  Hint
}

// HAccess is a type-constant access `C::T1::T2`.
type HAccess struct {
	SpanVal Span
	Root    Hint
	Names   []Id
}

// HFunContext is a context hint `ctx $f`.
type HFunContext struct {
	SpanVal Span
	Param   string
}

// HVar is a capability/context variable hint.
type HVar struct {
	SpanVal Span
	Name    string
}

// HErr marks a hint naming already rejected.
type HErr struct{ SpanVal Span }

// HAny is the type checker's internal "any" placeholder.
type HAny struct{ SpanVal Span }

// HAbstr is an abstract placeholder type produced by later typing phases.
type HAbstr struct {
	SpanVal Span
	Name    string
	Args    []Hint
}

func (n *HApply) Span() Span        { return n.SpanVal }
func (n *HOption) Span() Span       { return n.SpanVal }
func (n *HSoft) Span() Span         { return n.SpanVal }
func (n *HLike) Span() Span         { return n.SpanVal }
func (n *HPrim) Span() Span         { return n.SpanVal }
func (n *HMixed) Span() Span        { return n.SpanVal }
func (n *HNonnull) Span() Span      { return n.SpanVal }
func (n *HThis) Span() Span         { return n.SpanVal }
func (n *HNothing) Span() Span      { return n.SpanVal }
func (n *HDynamic) Span() Span      { return n.SpanVal }
func (n *HVecOrDict) Span() Span    { return n.SpanVal }
func (n *HTuple) Span() Span        { return n.SpanVal }
func (n *HUnion) Span() Span        { return n.SpanVal }
func (n *HIntersection) Span() Span { return n.SpanVal }
func (n *HShape) Span() Span        { return n.SpanVal }
func (n *HFun) Span() Span          { return n.SpanVal }
func (n *HAccess) Span() Span       { return n.SpanVal }
func (n *HFunContext) Span() Span   { return n.SpanVal }
func (n *HVar) Span() Span          { return n.SpanVal }
func (n *HErr) Span() Span          { return n.SpanVal }
func (n *HAny) Span() Span          { return n.SpanVal }
func (n *HAbstr) Span() Span        { return n.SpanVal }

func (n *HApply) node()        {}
func (n *HOption) node()       {}
func (n *HSoft) node()         {}
func (n *HLike) node()         {}
func (n *HPrim) node()         {}
func (n *HMixed) node()        {}
func (n *HNonnull) node()      {}
func (n *HThis) node()         {}
func (n *HNothing) node()      {}
func (n *HDynamic) node()      {}
func (n *HVecOrDict) node()    {}
func (n *HTuple) node()        {}
func (n *HUnion) node()        {}
func (n *HIntersection) node() {}
func (n *HShape) node()        {}
func (n *HFun) node()          {}
func (n *HAccess) node()       {}
func (n *HFunContext) node()   {}
func (n *HVar) node()          {}
func (n *HErr) node()          {}
func (n *HAny) node()          {}
func (n *HAbstr) node()        {}

func (n *HApply) hint()        {}
func (n *HOption) hint()       {}
func (n *HSoft) hint()         {}
func (n *HLike) hint()         {}
func (n *HPrim) hint()         {}
func (n *HMixed) hint()        {}
func (n *HNonnull) hint()      {}
func (n *HThis) hint()         {}
func (n *HNothing) hint()      {}
func (n *HDynamic) hint()      {}
func (n *HVecOrDict) hint()    {}
func (n *HTuple) hint()        {}
func (n *HUnion) hint()        {}
func (n *HIntersection) hint() {}
func (n *HShape) hint()        {}
func (n *HFun) hint()          {}
func (n *HAccess) hint()       {}
func (n *HFunContext) hint()   {}
func (n *HVar) hint()          {}
func (n *HErr) hint()          {}
func (n *HAny) hint()          {}
func (n *HAbstr) hint()        {}

// Apply builds an applied hint with no position, for synthesized hints and
// tests.
func Apply(name string, args ...Hint) *HApply {
	return &HApply{Name: Id{Name: name}, Args: args}
}

// AsApply returns the hint as an applied hint, if it is one.
func AsApply(h Hint) (*HApply, bool) {
	a, ok := h.(*HApply)
	return a, ok
}
