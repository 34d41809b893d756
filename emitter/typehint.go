package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// ---------------------------------------------------------------------------
// User-visible type spelling
// ---------------------------------------------------------------------------

// fmtHint renders a hint the way it appears in emitted type info.
// Primitive and builtin names are qualified with HH\.
func fmtHint(h ast.Hint) string {
	var sb strings.Builder
	writeHint(&sb, h)
	return sb.String()
}

func writeHints(sb *strings.Builder, hs []ast.Hint) {
	for i, h := range hs {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeHint(sb, h)
	}
}

func writeHint(sb *strings.Builder, h ast.Hint) {
	switch n := h.(type) {
	case *ast.HApply:
		sb.WriteString(stripGlobalNS(n.Name.Name))
		if len(n.Args) > 0 {
			sb.WriteString("<")
			writeHints(sb, n.Args)
			sb.WriteString(">")
		}
	case *ast.HOption:
		sb.WriteString("?")
		writeHint(sb, n.Inner)
	case *ast.HSoft:
		sb.WriteString("@")
		writeHint(sb, n.Inner)
	case *ast.HLike:
		sb.WriteString("~")
		writeHint(sb, n.Inner)
	case *ast.HPrim:
		sb.WriteString("HH\\" + n.Prim.String())
	case *ast.HMixed:
		sb.WriteString("HH\\mixed")
	case *ast.HNonnull:
		sb.WriteString("HH\\nonnull")
	case *ast.HThis:
		sb.WriteString("HH\\this")
	case *ast.HNothing:
		sb.WriteString("HH\\nothing")
	case *ast.HDynamic:
		sb.WriteString("HH\\dynamic")
	case *ast.HVecOrDict:
		sb.WriteString("HH\\vec_or_dict<")
		if n.Key != nil {
			writeHint(sb, n.Key)
			sb.WriteString(", ")
		}
		writeHint(sb, n.Value)
		sb.WriteString(">")
	case *ast.HTuple:
		sb.WriteString("(")
		writeHints(sb, n.Elems)
		sb.WriteString(")")
	case *ast.HUnion:
		sb.WriteString("(")
		for i, el := range n.Elems {
			if i > 0 {
				sb.WriteString(" | ")
			}
			writeHint(sb, el)
		}
		sb.WriteString(")")
	case *ast.HIntersection:
		sb.WriteString("(")
		for i, el := range n.Elems {
			if i > 0 {
				sb.WriteString(" & ")
			}
			writeHint(sb, el)
		}
		sb.WriteString(")")
	case *ast.HShape:
		sb.WriteString("HH\\shape(")
		for i, f := range n.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			if f.Optional {
				sb.WriteString("?")
			}
			sb.WriteString("'" + f.Name + "' => ")
			writeHint(sb, f.Hint)
		}
		if n.AllowsUnknownFields {
			if len(n.Fields) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteString(")")
	case *ast.HFun:
		sb.WriteString("(function(")
		writeHints(sb, n.Params)
		sb.WriteString("): ")
		writeHint(sb, n.Return)
		sb.WriteString(")")
	case *ast.HAccess:
		writeHint(sb, n.Root)
		for _, id := range n.Names {
			sb.WriteString("::" + id.Name)
		}
	case *ast.HFunContext:
		sb.WriteString("ctx " + n.Param)
	case *ast.HVar:
		sb.WriteString(n.Name)
	case *ast.HAbstr:
		sb.WriteString(n.Name)
	default:
		sb.WriteString("_")
	}
}

// hintToClass names the class a hint refers to, for base, implements,
// uses and requirement lists.
func hintToClass(h ast.Hint) string {
	if a, ok := ast.AsApply(h); ok {
		return stripGlobalNS(a.Name.Name)
	}
	return "__type_hint_class"
}

// ---------------------------------------------------------------------------
// Runtime constraints
// ---------------------------------------------------------------------------

// hintConstraint computes the part of a hint the runtime enforces.
// Generic parameters are not enforced and become type variables.
func hintConstraint(env *Env, h ast.Hint) hhbc.Constraint {
	switch n := h.(type) {
	case *ast.HApply:
		name := stripGlobalNS(n.Name.Name)
		if name == ast.Wildcard || env.isTParam(name) {
			return hhbc.Constraint{Flags: hhbc.TCTypeVar | hhbc.TCExtendedHint}
		}
		return hhbc.Constraint{Name: name}
	case *ast.HOption:
		c := hintConstraint(env, n.Inner)
		c.Flags |= hhbc.TCNullable | hhbc.TCDisplayNullable | hhbc.TCExtendedHint
		return c
	case *ast.HSoft:
		c := hintConstraint(env, n.Inner)
		c.Flags |= hhbc.TCSoft | hhbc.TCExtendedHint
		return c
	case *ast.HPrim:
		switch n.Prim {
		case ast.PrimVoid, ast.PrimNoreturn:
			return hhbc.Constraint{}
		}
		return hhbc.Constraint{Name: "HH\\" + n.Prim.String()}
	case *ast.HNonnull:
		return hhbc.Constraint{Name: "HH\\nonnull"}
	case *ast.HThis:
		return hhbc.Constraint{Name: "HH\\this", Flags: hhbc.TCExtendedHint}
	case *ast.HTuple:
		return hhbc.Constraint{Name: "HH\\vec", Flags: hhbc.TCExtendedHint}
	case *ast.HShape:
		return hhbc.Constraint{Name: "HH\\dict", Flags: hhbc.TCExtendedHint}
	case *ast.HVecOrDict:
		return hhbc.Constraint{Name: "HH\\vec_or_dict", Flags: hhbc.TCExtendedHint}
	case *ast.HAccess:
		return hhbc.Constraint{Name: fmtHint(n), Flags: hhbc.TCTypeConstant | hhbc.TCExtendedHint}
	}
	// mixed, dynamic, nothing, like types, unions, intersections and
	// function types are not enforced.
	return hhbc.Constraint{}
}

// typeInfo pairs the user spelling of h with its runtime constraint. A
// nil hint has no type info.
func typeInfo(env *Env, h ast.Hint) *hhbc.TypeInfo {
	if h == nil {
		return nil
	}
	return &hhbc.TypeInfo{UserType: fmtHint(h), Constraint: hintConstraint(env, h)}
}

// returnTypeInfo is typeInfo for a return hint; async bodies are checked
// against the awaited type.
func returnTypeInfo(env *Env, h ast.Hint) *hhbc.TypeInfo {
	if h == nil {
		return nil
	}
	return &hhbc.TypeInfo{
		UserType:   fmtHint(h),
		Constraint: hintConstraint(env, env.StripAsyncResult(h)),
	}
}

// isNullable reports whether a property of type h may start out null.
func isNullable(h ast.Hint) bool {
	switch n := h.(type) {
	case nil:
		return true
	case *ast.HOption, *ast.HMixed, *ast.HDynamic:
		return true
	case *ast.HPrim:
		return n.Prim == ast.PrimNull
	case *ast.HSoft:
		return isNullable(n.Inner)
	case *ast.HLike:
		return isNullable(n.Inner)
	}
	return false
}

// upperBounds collects the `as` constraints of type parameters.
func upperBounds(env *Env, tparams []ast.TParam) []hhbc.UpperBound {
	var out []hhbc.UpperBound
	for _, tp := range tparams {
		var bounds []hhbc.TypeInfo
		for _, c := range tp.Constraints {
			if c.Kind != ast.ConstraintAs {
				continue
			}
			ti := typeInfo(env, c.Hint)
			ti.Constraint.Flags |= hhbc.TCUpperBound
			bounds = append(bounds, *ti)
		}
		if len(bounds) > 0 {
			out = append(out, hhbc.UpperBound{Name: tp.Name.Name, Bounds: bounds})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Type structures
// ---------------------------------------------------------------------------

// Type structure kinds understood by the runtime.
const (
	tsVoid        = 0
	tsInt         = 1
	tsBool        = 2
	tsFloat       = 3
	tsString      = 4
	tsResource    = 5
	tsNum         = 6
	tsArraykey    = 7
	tsNoreturn    = 8
	tsMixed       = 9
	tsTuple       = 10
	tsFun         = 11
	tsTypevar     = 13
	tsShape       = 14
	tsVecOrDict   = 22
	tsNonnull     = 23
	tsNull        = 28
	tsNothing     = 29
	tsDynamic     = 30
	tsUnresolved  = 101
	tsTypeaccess  = 102
	tsReifiedType = 104
)

var primKinds = map[ast.Prim]int64{
	ast.PrimNull:     tsNull,
	ast.PrimVoid:     tsVoid,
	ast.PrimInt:      tsInt,
	ast.PrimBool:     tsBool,
	ast.PrimFloat:    tsFloat,
	ast.PrimString:   tsString,
	ast.PrimResource: tsResource,
	ast.PrimNum:      tsNum,
	ast.PrimArraykey: tsArraykey,
	ast.PrimNoreturn: tsNoreturn,
}

// typeStructure encodes a hint as a runtime type-structure dict. witness
// maps a reified type parameter name to its index among the witnesses
// pushed before the structure; it may be nil.
func typeStructure(h ast.Hint, witness func(string) (int, bool)) (hhbc.TypedValue, error) {
	kind := func(k int64, rest ...hhbc.DictEntry) hhbc.TypedValue {
		return hhbc.DictValue(append([]hhbc.DictEntry{hhbc.Entry("kind", hhbc.IntValue(k))}, rest...)...)
	}
	list := func(hs []ast.Hint) (hhbc.TypedValue, error) {
		elems := make([]hhbc.TypedValue, 0, len(hs))
		for _, el := range hs {
			ts, err := typeStructure(el, witness)
			if err != nil {
				return hhbc.TypedValue{}, err
			}
			elems = append(elems, ts)
		}
		return hhbc.VecValue(elems...), nil
	}
	flagged := func(inner ast.Hint, flag string) (hhbc.TypedValue, error) {
		ts, err := typeStructure(inner, witness)
		if err != nil {
			return hhbc.TypedValue{}, err
		}
		ts.Fields = append(append([]hhbc.DictEntry(nil), ts.Fields...), hhbc.Entry(flag, hhbc.BoolValue(true)))
		return ts, nil
	}

	switch n := h.(type) {
	case *ast.HApply:
		name := stripGlobalNS(n.Name.Name)
		if name == ast.Wildcard {
			return kind(tsTypevar, hhbc.Entry("name", hhbc.StringValue(ast.Wildcard))), nil
		}
		if witness != nil && len(n.Args) == 0 {
			if i, ok := witness(name); ok {
				return kind(tsReifiedType, hhbc.Entry("index", hhbc.IntValue(int64(i)))), nil
			}
		}
		fields := []hhbc.DictEntry{hhbc.Entry("classname", hhbc.StringValue(name))}
		if len(n.Args) > 0 {
			args, err := list(n.Args)
			if err != nil {
				return hhbc.TypedValue{}, err
			}
			fields = append(fields, hhbc.Entry("generic_types", args))
		}
		return kind(tsUnresolved, fields...), nil
	case *ast.HOption:
		return flagged(n.Inner, "nullable")
	case *ast.HSoft:
		return flagged(n.Inner, "soft")
	case *ast.HLike:
		return flagged(n.Inner, "like")
	case *ast.HPrim:
		return kind(primKinds[n.Prim]), nil
	case *ast.HMixed, *ast.HUnion, *ast.HIntersection:
		return kind(tsMixed), nil
	case *ast.HNonnull:
		return kind(tsNonnull), nil
	case *ast.HNothing:
		return kind(tsNothing), nil
	case *ast.HDynamic:
		return kind(tsDynamic), nil
	case *ast.HThis:
		return kind(tsUnresolved, hhbc.Entry("classname", hhbc.StringValue("HH\\this"))), nil
	case *ast.HVecOrDict:
		args := []ast.Hint{n.Value}
		if n.Key != nil {
			args = []ast.Hint{n.Key, n.Value}
		}
		generics, err := list(args)
		if err != nil {
			return hhbc.TypedValue{}, err
		}
		return kind(tsVecOrDict, hhbc.Entry("generic_types", generics)), nil
	case *ast.HTuple:
		elems, err := list(n.Elems)
		if err != nil {
			return hhbc.TypedValue{}, err
		}
		return kind(tsTuple, hhbc.Entry("elem_types", elems)), nil
	case *ast.HShape:
		fields := make([]hhbc.DictEntry, 0, len(n.Fields))
		for _, f := range n.Fields {
			ts, err := typeStructure(f.Hint, witness)
			if err != nil {
				return hhbc.TypedValue{}, err
			}
			entry := []hhbc.DictEntry{hhbc.Entry("value", ts)}
			if f.Optional {
				entry = append(entry, hhbc.Entry("optional_shape_field", hhbc.BoolValue(true)))
			}
			fields = append(fields, hhbc.Entry(f.Name, hhbc.DictValue(entry...)))
		}
		rest := []hhbc.DictEntry{hhbc.Entry("fields", hhbc.DictValue(fields...))}
		if n.AllowsUnknownFields {
			rest = append(rest, hhbc.Entry("allows_unknown_fields", hhbc.BoolValue(true)))
		}
		return kind(tsShape, rest...), nil
	case *ast.HFun:
		params, err := list(n.Params)
		if err != nil {
			return hhbc.TypedValue{}, err
		}
		ret, err := typeStructure(n.Return, witness)
		if err != nil {
			return hhbc.TypedValue{}, err
		}
		return kind(tsFun, hhbc.Entry("param_types", params), hhbc.Entry("return_type", ret)), nil
	case *ast.HAccess:
		access := make([]hhbc.TypedValue, len(n.Names))
		for i, id := range n.Names {
			access[i] = hhbc.StringValue(id.Name)
		}
		return kind(tsTypeaccess,
			hhbc.Entry("root_name", hhbc.StringValue(fmtHint(n.Root))),
			hhbc.Entry("access_list", hhbc.VecValue(access...)),
		), nil
	}
	return hhbc.TypedValue{}, internalErrorf(h.Span(), "no type structure for %T", h)
}
