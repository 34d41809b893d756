package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

const (
	xhpCategoryMethod  = "__xhpCategoryDeclaration"
	xhpChildrenMethod  = "__xhpChildrenDeclaration"
	xhpAttributeMethod = "__xhpAttributeDeclaration"
	xhpAttributeCache  = "__xhpAttributeDeclarationCache"
)

// XHP attribute type codes.
const (
	xhpTypeString = 1
	xhpTypeBool   = 2
	xhpTypeInt    = 3
	xhpTypeArray  = 4
	xhpTypeObject = 5
	xhpTypeVar    = 6
	xhpTypeEnum   = 7
	xhpTypeFloat  = 8
)

func (e *Emitter) xhpMethod(c *ast.Class, name string, body hhbc.InstrSeq) *hhbc.Method {
	return e.make86method(name, nil, true, hhbc.VisProtected, false, span(c.SpanVal), hhbc.DefaultCoeffects(), body)
}

// xhpCategoryDeclaration returns the set of declared categories.
func (e *Emitter) xhpCategoryDeclaration(c *ast.Class) *hhbc.Method {
	fields := make([]hhbc.DictEntry, len(c.XhpCategory.Names))
	for i, n := range c.XhpCategory.Names {
		fields[i] = hhbc.Entry(strings.TrimPrefix(n, "%"), hhbc.IntValue(1))
	}
	return e.xhpMethod(c, xhpCategoryMethod, hhbc.Gather(hhbc.TypedValueC(hhbc.DictValue(fields...)), hhbc.RetC()))
}

// xhpChildrenDeclaration returns 0 for `children empty`, 1 for
// `children any`, and otherwise the encoded pattern.
func (e *Emitter) xhpChildrenDeclaration(c *ast.Class) (*hhbc.Method, error) {
	ch := c.XhpChildren
	var value hhbc.InstrSeq
	switch {
	case ch.Empty:
		value = hhbc.Int(0)
	case ch.Any:
		value = hhbc.Int(1)
	case ch.Pattern != nil:
		v, err := xhpChildValue(ch.SpanVal, ch.Pattern)
		if err != nil {
			return nil, err
		}
		value = hhbc.TypedValueC(v)
	default:
		return nil, internalErrorf(ch.SpanVal, "children declaration of %s has no pattern", c.Name.Name)
	}
	return e.xhpMethod(c, xhpChildrenMethod, hhbc.Gather(value, hhbc.RetC())), nil
}

// xhpChildValue encodes a pattern node as vec[tag, operands...].
func xhpChildValue(pos ast.Span, n *ast.XhpChild) (hhbc.TypedValue, error) {
	children := func(tag string) (hhbc.TypedValue, error) {
		elems := []hhbc.TypedValue{hhbc.StringValue(tag)}
		for i := range n.Children {
			v, err := xhpChildValue(pos, &n.Children[i])
			if err != nil {
				return hhbc.TypedValue{}, err
			}
			elems = append(elems, v)
		}
		return hhbc.VecValue(elems...), nil
	}
	switch n.Kind {
	case ast.XhpChildName:
		return hhbc.VecValue(hhbc.StringValue("name"), hhbc.StringValue(n.Name)), nil
	case ast.XhpChildList:
		return children("list")
	case ast.XhpChildAlternative:
		return children("alt")
	case ast.XhpChildUnary:
		if len(n.Children) != 1 {
			return hhbc.TypedValue{}, internalErrorf(pos, "unary children pattern %q has %d operands", n.Op, len(n.Children))
		}
		return children(n.Op)
	}
	return hhbc.TypedValue{}, internalErrorf(pos, "unknown children pattern kind %d", n.Kind)
}

// xhpAttributeDeclaration merges inherited attribute declarations with
// the class's own and caches the result in a static property.
func (e *Emitter) xhpAttributeDeclaration(c *ast.Class) (*hhbc.Method, error) {
	own, err := xhpOwnAttributes(c.XhpAttrs)
	if err != nil {
		return nil, err
	}
	var values []hhbc.InstrSeq
	for _, u := range c.XhpAttrUses {
		cls := hintToClass(u)
		e.AddSymbol(hhbc.SymClass, cls)
		values = append(values, hhbc.Gather(
			hhbc.NullUninit(), hhbc.NullUninit(),
			hhbc.FCallClsMethodD(hhbc.FCallArgs{NumRets: 1}, xhpAttributeMethod, cls),
		))
	}
	values = append(values, hhbc.TypedValueC(own))

	merged := values[0]
	if len(values) > 1 {
		e.AddSymbol(hhbc.SymFunction, "array_merge")
		merged = hhbc.Gather(
			hhbc.NullUninit(), hhbc.NullUninit(),
			hhbc.Gather(values...),
			hhbc.FCallFuncD(hhbc.FCallArgs{NumArgs: len(values), NumRets: 1}, "array_merge"),
		)
	}
	miss := e.labels.Next()
	body := hhbc.Gather(
		hhbc.CGetS(hhbc.ClsRefSelf, xhpAttributeCache),
		hhbc.IsTypeC(hhbc.IsTypeNull),
		hhbc.JmpNZ(miss),
		hhbc.CGetS(hhbc.ClsRefSelf, xhpAttributeCache),
		hhbc.RetC(),
		hhbc.Mark(miss),
		merged,
		hhbc.SetS(hhbc.ClsRefSelf, xhpAttributeCache),
		hhbc.RetC(),
	)
	return e.xhpMethod(c, xhpAttributeMethod, body), nil
}

// xhpOwnAttributes encodes each attribute as
// name => vec[type code, class or enum values, default, tag].
func xhpOwnAttributes(attrs []ast.XhpAttr) (hhbc.TypedValue, error) {
	fields := make([]hhbc.DictEntry, 0, len(attrs))
	for _, a := range attrs {
		code, extra, err := xhpAttrType(a)
		if err != nil {
			return hhbc.TypedValue{}, err
		}
		dflt := hhbc.NullValue()
		if a.Var.Expr != nil {
			v, ok := Fold(a.Var.Expr)
			if !ok {
				return hhbc.TypedValue{}, parseFatal(a.Var.SpanVal, "XHP attribute defaults must be constant expressions")
			}
			dflt = v
		}
		name := strings.TrimPrefix(a.Var.Id.Name, "$")
		fields = append(fields, hhbc.Entry(name, hhbc.VecValue(
			hhbc.IntValue(code), extra, dflt, hhbc.IntValue(int64(a.Tag)),
		)))
	}
	return hhbc.DictValue(fields...), nil
}

func xhpAttrType(a ast.XhpAttr) (int64, hhbc.TypedValue, error) {
	if a.Enum != nil {
		vals := make([]hhbc.TypedValue, 0, len(a.Enum))
		for _, x := range a.Enum {
			v, ok := Fold(x)
			if !ok {
				return 0, hhbc.TypedValue{}, parseFatal(x.Span(), "XHP enum values must be literals")
			}
			vals = append(vals, v)
		}
		return xhpTypeEnum, hhbc.VecValue(vals...), nil
	}
	switch n := unwrapNullable(a.Type).(type) {
	case *ast.HPrim:
		switch n.Prim {
		case ast.PrimString:
			return xhpTypeString, hhbc.NullValue(), nil
		case ast.PrimBool:
			return xhpTypeBool, hhbc.NullValue(), nil
		case ast.PrimInt:
			return xhpTypeInt, hhbc.NullValue(), nil
		case ast.PrimFloat:
			return xhpTypeFloat, hhbc.NullValue(), nil
		}
	case *ast.HVecOrDict, *ast.HTuple, *ast.HShape:
		return xhpTypeArray, hhbc.NullValue(), nil
	case *ast.HApply:
		name := stripGlobalNS(n.Name.Name)
		switch strings.ToLower(stripNS(name)) {
		case "vec", "dict", "keyset", "varray", "darray", "varray_or_darray":
			return xhpTypeArray, hhbc.NullValue(), nil
		}
		return xhpTypeObject, hhbc.StringValue(name), nil
	}
	return xhpTypeVar, hhbc.NullValue(), nil
}

// unwrapNullable strips option, like and soft wrappers.
func unwrapNullable(h ast.Hint) ast.Hint {
	for {
		switch n := h.(type) {
		case *ast.HOption:
			h = n.Inner
		case *ast.HLike:
			h = n.Inner
		case *ast.HSoft:
			h = n.Inner
		default:
			return h
		}
	}
}

// xhpCacheProperty holds the merged attribute declaration.
func xhpCacheProperty() *hhbc.Property {
	null := hhbc.NullValue()
	return &hhbc.Property{
		Name:         xhpAttributeCache,
		Attrs:        hhbc.AttrPrivate | hhbc.AttrStatic,
		Visibility:   hhbc.VisPrivate,
		InitialValue: &null,
	}
}
