package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// funBody is the source of an explicit function or method body.
type funBody struct {
	params  []ast.FunParam
	tparams []ast.TParam
	ret     ast.Hint
	stmts   []ast.Stmt
	attrs   []ast.UserAttribute
	doc     string
}

// emitBody lowers an explicit body: entry label for default-value
// setters, parameter prolog, deprecation warning, statements, an implicit
// `return null` and finally the setters.
func (e *Emitter) emitBody(env *Env, b funBody) (hhbc.Body, error) {
	e.startBody()
	info, err := e.emitParams(env, b.params)
	if err != nil {
		return hhbc.Body{}, err
	}
	prolog, err := e.emitProlog(env, b.params, info.params)
	if err != nil {
		return hhbc.Body{}, err
	}
	deprecation, err := e.emitDeprecation(env, b.attrs)
	if err != nil {
		return hhbc.Body{}, err
	}
	stmts, err := e.lower.LowerStmts(e, env, b.stmts)
	if err != nil {
		return hhbc.Body{}, err
	}
	var tail hhbc.InstrSeq
	if !endsWithReturn(b.stmts) {
		tail = hhbc.Gather(hhbc.Null(), hhbc.RetC())
	}
	return e.makeBody(bodyArgs{
		instrs:       hhbc.Gather(info.begin, prolog, deprecation, stmts, tail, info.setters),
		params:       info.params,
		reified:      hasReifiedTParam(b.tparams),
		upperBounds:  upperBounds(env, b.tparams),
		shadowed:     shadowedTParams(env, b.tparams),
		returnType:   returnTypeInfo(env, b.ret),
		docComment:   b.doc,
		scanDeclVars: true,
	}), nil
}

// emitAbstractBody is the body of a method that has no implementation:
// calling it is a fatal error.
func (e *Emitter) emitAbstractBody(env *Env, m *ast.Method) (hhbc.Body, error) {
	e.startBody()
	info, err := e.emitParams(env, m.Params)
	if err != nil {
		return hhbc.Body{}, err
	}
	msg := "Cannot call abstract method " + env.ClassName + "::" + m.Name.Name + "()"
	return e.makeBody(bodyArgs{
		instrs:      hhbc.Gather(info.begin, hhbc.String(msg), hhbc.Fatal(hhbc.FatalRuntimeOmitFrame), info.setters),
		params:      info.params,
		reified:     hasReifiedTParam(m.TParams),
		upperBounds: upperBounds(env, m.TParams),
		shadowed:    shadowedTParams(env, m.TParams),
		returnType:  returnTypeInfo(env, m.Ret),
		docComment:  m.DocComment,
	}), nil
}

func methodFlags(kind ast.FunKind, closureBody bool) hhbc.MethodFlags {
	var f hhbc.MethodFlags
	switch kind {
	case ast.FAsync:
		f |= hhbc.MethodIsAsync
	case ast.FGenerator:
		f |= hhbc.MethodIsGenerator
	case ast.FAsyncGenerator:
		f |= hhbc.MethodIsAsync | hhbc.MethodIsGenerator
	}
	if closureBody {
		f |= hhbc.MethodIsClosureBody
	}
	return f
}

func isClosureClass(name string) bool { return strings.HasPrefix(name, "Closure$") }

// methodAttrs computes the VM attributes of an explicit method.
func (e *Emitter) methodAttrs(c *ast.Class, m *ast.Method) hhbc.Attr {
	attrs := visibility(m.Visibility).Attr()
	attrs.Set(hhbc.AttrStatic, m.Static)
	attrs.Set(hhbc.AttrFinal, m.Final)
	attrs.Set(hhbc.AttrAbstract, m.Abstract || c.Kind == ast.KindInterface)
	attrs.Set(hhbc.AttrBuiltin, e.Systemlib())
	attrs.Set(hhbc.AttrInterceptable, e.opts.Interceptable())
	attrs.Set(hhbc.AttrNoInjection, ast.HasAttribute(m.UserAttributes, ast.AttrNoInjection))
	attrs.Set(hhbc.AttrIsFoldable, ast.HasAttribute(m.UserAttributes, ast.AttrIsFoldable))
	attrs.Set(hhbc.AttrDynamicallyCallable, ast.HasAttribute(m.UserAttributes, ast.AttrDynamicallyCallable))
	attrs.Set(hhbc.AttrProvenanceSkipFrame, ast.HasAttribute(m.UserAttributes, ast.AttrProvenanceSkipFrame))
	attrs.Set(hhbc.AttrReadonlyReturn, m.ReadonlyRet)
	return attrs
}

// withoutMemoize drops the memoize attributes, which belong to the
// wrapper rather than the renamed implementation.
func withoutMemoize(attrs []ast.UserAttribute) []ast.UserAttribute {
	out := make([]ast.UserAttribute, 0, len(attrs))
	for _, a := range attrs {
		switch a.Name.Name {
		case ast.AttrMemoize, ast.AttrMemoizeLSB, ast.AttrPolicyShardedMemoize, ast.AttrPolicyShardedMemoizeLSB:
			continue
		}
		out = append(out, a)
	}
	return out
}

// emitMethod lowers an explicit method. A memoized method becomes its
// private implementation `<name>$memoize_impl`; its wrapper is emitted
// separately.
func (e *Emitter) emitMethod(cenv *Env, c *ast.Class, m *ast.Method) (*hhbc.Method, error) {
	env := cenv.withMethod(m)
	memoized := ast.IsMemoize(m.UserAttributes)
	name := m.Name.Name
	vis := visibility(m.Visibility)
	userAttrs := m.UserAttributes
	deprecation := m.UserAttributes
	if memoized {
		if err := checkMemoizableMethod(c, m); err != nil {
			return nil, err
		}
		name += MemoizeSuffix
		vis = hhbc.VisPrivate
		userAttrs = withoutMemoize(userAttrs)
		deprecation = nil
	}
	attributes, err := emitAttributes(userAttrs)
	if err != nil {
		return nil, err
	}
	if a, ok := reifiedAttribute(m.TParams); ok {
		attributes = append(attributes, a)
	}

	var body hhbc.Body
	if m.Abstract || c.Kind == ast.KindInterface {
		body, err = e.emitAbstractBody(env, m)
	} else {
		body, err = e.emitBody(env, funBody{
			params:  m.Params,
			tparams: m.TParams,
			ret:     m.Ret,
			stmts:   m.Body,
			attrs:   deprecation,
			doc:     m.DocComment,
		})
	}
	if err != nil {
		return nil, err
	}

	attrs := e.methodAttrs(c, m)
	if memoized {
		attrs.Set(hhbc.AttrPublic|hhbc.AttrProtected, false)
		attrs.Set(hhbc.AttrPrivate, true)
	}
	closureBody := isClosureClass(cenv.ClassName) && m.Name.Name == "__invoke"
	return &hhbc.Method{
		Attributes: attributes,
		Visibility: vis,
		Name:       name,
		Body:       body,
		Span:       span(m.SpanVal),
		Coeffects:  coeffects(m.Contexts),
		Flags:      methodFlags(m.FunKind, closureBody),
		Attrs:      attrs,
	}, nil
}
