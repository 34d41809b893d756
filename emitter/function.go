package emitter

import (
	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// functionAttrs computes the VM attributes of a top-level function. The
// renamed implementation of a memoized function is never dynamically
// callable.
func (e *Emitter) functionAttrs(fd *ast.FunDef, memoImpl bool) hhbc.Attr {
	systemlib := e.Systemlib()
	var attrs hhbc.Attr
	attrs.Set(hhbc.AttrBuiltin|hhbc.AttrPersistent|hhbc.AttrUnique, systemlib)
	attrs.Set(hhbc.AttrDynamicallyCallable,
		systemlib || ast.HasAttribute(fd.UserAttributes, ast.AttrDynamicallyCallable) && !memoImpl)
	attrs.Set(hhbc.AttrInterceptable, e.opts.Interceptable())
	attrs.Set(hhbc.AttrIsFoldable, ast.HasAttribute(fd.UserAttributes, ast.AttrIsFoldable))
	attrs.Set(hhbc.AttrNoInjection, ast.HasAttribute(fd.UserAttributes, ast.AttrNoInjection))
	attrs.Set(hhbc.AttrProvenanceSkipFrame, ast.HasAttribute(fd.UserAttributes, ast.AttrProvenanceSkipFrame))
	attrs.Set(hhbc.AttrReadonlyReturn, fd.ReadonlyRet)
	return attrs
}

// EmitFunction lowers a top-level function and adds the result to u. A
// memoized function yields its renamed implementation followed by the
// wrapper that keeps the original name.
func (e *Emitter) EmitFunction(u *hhbc.Unit, fd *ast.FunDef) ([]*hhbc.Function, error) {
	e.unit = u
	env := funEnv(fd)
	memoized := ast.IsMemoize(fd.UserAttributes)
	if memoized {
		if err := checkMemoizable(fd.SpanVal, fd.Params, false); err != nil {
			return nil, err
		}
	}

	name := env.FunName
	userAttrs := fd.UserAttributes
	deprecation := fd.UserAttributes
	if memoized {
		name += MemoizeSuffix
		userAttrs = withoutMemoize(userAttrs)
		deprecation = nil // warned by the wrapper
	}
	attributes, err := emitAttributes(userAttrs)
	if err != nil {
		return nil, err
	}
	if a, ok := reifiedAttribute(fd.TParams); ok {
		attributes = append(attributes, a)
	}
	body, err := e.emitBody(env, funBody{
		params:  fd.Params,
		tparams: fd.TParams,
		ret:     fd.Ret,
		stmts:   fd.Body,
		attrs:   deprecation,
		doc:     fd.DocComment,
	})
	if err != nil {
		return nil, err
	}
	impl := &hhbc.Function{
		Attributes: attributes,
		Name:       name,
		Body:       body,
		Span:       span(fd.SpanVal),
		Coeffects:  coeffects(fd.Contexts),
		Flags:      methodFlags(fd.FunKind, false),
		Attrs:      e.functionAttrs(fd, memoized),
	}
	if !memoized {
		log.Debugf("function %s", name)
		if u != nil {
			u.AddFunctions(impl)
		}
		return []*hhbc.Function{impl}, nil
	}

	wrapper, err := e.EmitMemoizeFunction(fd, name)
	if err != nil {
		return nil, err
	}
	e.AddSymbol(hhbc.SymFunction, name)
	out := []*hhbc.Function{impl, wrapper}
	if u != nil {
		u.AddFunctions(out...)
	}
	return out, nil
}
