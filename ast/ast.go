// Package ast defines the type-checked, name-resolved declaration tree
// consumed by the emitter.
package ast

import "strings"

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code.
type Span struct {
	File  string
	Start Position
	End   Position
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool {
	return s.File == "" && s.Start == (Position{}) && s.End == (Position{})
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// Id is a positioned identifier.
type Id struct {
	Pos  Span
	Name string
}

// ---------------------------------------------------------------------------
// Namespaces
// ---------------------------------------------------------------------------

// Namespace describes the namespace a declaration was written in.
// An empty Name is the global namespace.
type Namespace struct {
	Name string
}

// IsGlobal reports whether this is the global namespace.
func (ns Namespace) IsGlobal() bool { return ns.Name == "" }

// IsHH reports whether this is the builtin HH namespace.
func (ns Namespace) IsHH() bool { return strings.EqualFold(ns.Name, "HH") }

// ---------------------------------------------------------------------------
// Type parameters and attributes
// ---------------------------------------------------------------------------

// ReifyKind describes whether a type parameter survives to runtime.
type ReifyKind int

const (
	Erased ReifyKind = iota
	SoftReified
	Reified
)

// IsReified reports whether the parameter carries a runtime witness.
func (k ReifyKind) IsReified() bool { return k != Erased }

// ConstraintKind is the relation of a type parameter constraint.
type ConstraintKind int

const (
	ConstraintAs ConstraintKind = iota
	ConstraintEq
	ConstraintSuper
)

// Constraint bounds a type parameter.
type Constraint struct {
	Kind ConstraintKind
	Hint Hint
}

// TParam is a declared generic type parameter.
type TParam struct {
	Name           Id
	Reified        ReifyKind
	Constraints    []Constraint
	UserAttributes []UserAttribute
}

// UserAttribute is a `<<__Name(args)>>` annotation.
type UserAttribute struct {
	Name   Id
	Params []Expr
}

// HasAttribute reports whether attrs contains the named attribute.
func HasAttribute(attrs []UserAttribute, name string) bool {
	return FindAttribute(attrs, name) != nil
}

// FindAttribute returns the named attribute or nil.
func FindAttribute(attrs []UserAttribute, name string) *UserAttribute {
	for i := range attrs {
		if attrs[i].Name.Name == name {
			return &attrs[i]
		}
	}
	return nil
}

// Well-known user attribute names.
const (
	AttrConst                    = "__Const"
	AttrSealed                   = "__Sealed"
	AttrEnumClass                = "__EnumClass"
	AttrIsFoldable               = "__IsFoldable"
	AttrDynamicallyConstructible = "__DynamicallyConstructible"
	AttrDynamicallyCallable      = "__DynamicallyCallable"
	AttrMemoize                  = "__Memoize"
	AttrMemoizeLSB               = "__MemoizeLSB"
	AttrPolicyShardedMemoize     = "__PolicyShardedMemoize"
	AttrPolicyShardedMemoizeLSB  = "__PolicyShardedMemoizeLSB"
	AttrDeprecated               = "__Deprecated"
	AttrLSB                      = "__LSB"
	AttrLateInit                 = "__LateInit"
	AttrNoInjection              = "__NoInjection"
	AttrReified                  = "__Reified"
	AttrHasReifiedParent         = "__HasReifiedParent"
	AttrSoft                     = "__Soft"
	AttrWarn                     = "__Warn"
	AttrProvenanceSkipFrame      = "__ProvenanceSkipFrame"
)

// IsMemoize reports whether attrs mark a declaration for memoization.
func IsMemoize(attrs []UserAttribute) bool {
	return HasAttribute(attrs, AttrMemoize) || HasAttribute(attrs, AttrMemoizeLSB) ||
		HasAttribute(attrs, AttrPolicyShardedMemoize) || HasAttribute(attrs, AttrPolicyShardedMemoizeLSB)
}

// IsMemoizeLSB reports whether attrs request late-static-bound memoization.
func IsMemoizeLSB(attrs []UserAttribute) bool {
	return HasAttribute(attrs, AttrMemoizeLSB) || HasAttribute(attrs, AttrPolicyShardedMemoizeLSB)
}

// IsPolicySharded reports whether the memoize cache is sharded by the
// ambient implicit context.
func IsPolicySharded(attrs []UserAttribute) bool {
	return HasAttribute(attrs, AttrPolicyShardedMemoize) || HasAttribute(attrs, AttrPolicyShardedMemoizeLSB)
}
