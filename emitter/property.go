package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

func visibility(v ast.Visibility) hhbc.Visibility {
	switch v {
	case ast.Protected:
		return hhbc.VisProtected
	case ast.Private:
		return hhbc.VisPrivate
	case ast.Internal:
		return hhbc.VisInternal
	}
	return hhbc.VisPublic
}

// emitProperty lowers one property declaration. Foldable initial values
// are stored on the record; anything else becomes initializer code run by
// 86pinit, 86sinit or 86linit.
func (e *Emitter) emitProperty(env *Env, c *ast.Class, cv *ast.ClassVar, classIsConst, isClosure bool) (*hhbc.Property, error) {
	if c.Kind == ast.KindInterface && !isClosure {
		return nil, parseFatal(cv.SpanVal, "Interfaces may not include properties")
	}
	attributes, err := emitAttributes(cv.UserAttributes)
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(cv.Id.Name, "$")
	hint := cv.Type
	if cv.IsPromotedVariadic {
		hint = nil
	}

	p := &hhbc.Property{
		Name:       name,
		Attributes: attributes,
		Visibility: visibility(cv.Visibility),
		DocComment: cv.DocComment,
	}
	if ti := typeInfo(env, hint); ti != nil {
		p.TypeInfo = *ti
	}

	isLateInit := ast.HasAttribute(cv.UserAttributes, ast.AttrLateInit)
	attrs := p.Visibility.Attr()
	attrs.Set(hhbc.AttrStatic, cv.Static)
	attrs.Set(hhbc.AttrAbstract, cv.Abstract)
	attrs.Set(hhbc.AttrLSB, ast.HasAttribute(cv.UserAttributes, ast.AttrLSB))
	attrs.Set(hhbc.AttrLateInit, isLateInit)
	attrs.Set(hhbc.AttrIsReadonly, cv.Readonly)
	attrs.Set(hhbc.AttrIsConst, (!cv.Static && classIsConst) || ast.HasAttribute(cv.UserAttributes, ast.AttrConst))

	switch {
	case cv.Expr == nil && isLateInit:
		v := hhbc.Uninit()
		p.InitialValue = &v
	case cv.Expr == nil && isNullable(hint):
		v := hhbc.NullValue()
		p.InitialValue = &v
		attrs.Set(hhbc.AttrSystemInitialValue, true)
	case cv.Expr == nil:
		v := hhbc.Uninit()
		p.InitialValue = &v
	default:
		if v, ok := Fold(cv.Expr); ok {
			p.InitialValue = &v
			break
		}
		init, err := e.propertyInitializer(env, c, cv, name)
		if err != nil {
			return nil, err
		}
		p.Initializer = init
	}
	p.Attrs = attrs
	return p, nil
}

// propertyInitializer evaluates a non-constant default. Public and
// protected instance properties may already be set by a subclass
// initializer, so they check first.
func (e *Emitter) propertyInitializer(env *Env, c *ast.Class, cv *ast.ClassVar, name string) (hhbc.InstrSeq, error) {
	value, err := e.lower.LowerExpr(e, env, cv.Expr)
	if err != nil {
		return nil, err
	}
	pos := hhbc.Pos(srcLoc(c.SpanVal))
	switch {
	case cv.Static:
		return hhbc.Gather(value, pos, hhbc.InitProp(name, hhbc.InitPropStatic)), nil
	case cv.Visibility == ast.Private:
		return hhbc.Gather(value, pos, hhbc.InitProp(name, hhbc.InitPropNonStatic)), nil
	}
	done := e.labels.Next()
	return hhbc.Gather(
		pos, hhbc.CheckProp(name), hhbc.JmpNZ(done),
		value,
		pos, hhbc.InitProp(name, hhbc.InitPropNonStatic), hhbc.Mark(done),
	), nil
}
