package emitter

import (
	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// MemoizeSuffix is appended to the name of a memoized implementation.
const MemoizeSuffix = "$memoize_impl"

// implicitContextKeyFunc computes the memo key contribution of the
// ambient implicit context.
const implicitContextKeyFunc = "HH\\ImplicitContext\\_Private\\get_implicit_context_memo_key"

// memoCallKind selects how a wrapper invokes its implementation.
type memoCallKind uint8

const (
	memoCallFunc memoCallKind = iota
	memoCallStatic
	memoCallInstance
)

// memoWrapper describes one memoize wrapper body.
type memoWrapper struct {
	env      *Env
	pos      ast.Span
	params   []ast.FunParam
	attrs    []ast.UserAttribute
	impl     string
	call     memoCallKind
	lsb      bool
	isAsync  bool
	reified  bool
	implicit bool
}

// checkMemoizable rejects declarations a cache cannot key.
func checkMemoizable(pos ast.Span, params []ast.FunParam, isMethod bool) error {
	for i := range params {
		if params[i].IsVariadic {
			return runtimeFatal(pos, "<<__Memoize>> cannot be used on functions with variable arguments")
		}
	}
	if isMethod {
		return nil
	}
	for i := range params {
		if params[i].IsInout {
			return runtimeFatal(pos, "<<__Memoize>> cannot be used on functions with inout parameters")
		}
	}
	return nil
}

// shouldFoldImplicitContext reports whether the implicit context is part
// of the cache key.
func (e *Emitter) shouldFoldImplicitContext(attrs []ast.UserAttribute) bool {
	return e.opts.HHVM.ImplicitContext && ast.IsPolicySharded(attrs)
}

// callImpl pushes the receiver slots, forwards the arguments and calls
// the implementation.
func (e *Emitter) callImpl(w *memoWrapper, args hhbc.FCallArgs, forward hhbc.InstrSeq) hhbc.InstrSeq {
	switch w.call {
	case memoCallInstance:
		return hhbc.Gather(hhbc.This(), hhbc.NullUninit(), forward, hhbc.FCallObjMethodD(args, w.impl))
	case memoCallStatic:
		ref := hhbc.ClsRefSelf
		if w.lsb {
			ref = hhbc.ClsRefStatic
		}
		return hhbc.Gather(hhbc.NullUninit(), hhbc.NullUninit(), forward, hhbc.FCallClsMethodSD(args, ref, w.impl))
	}
	return hhbc.Gather(hhbc.NullUninit(), hhbc.NullUninit(), forward, hhbc.FCallFuncD(args, w.impl))
}

// memoizeBody builds the caching state machine. Every path through the
// body calls the implementation at most once: a hit returns the cached
// value, a miss calls once and stores the result.
func (e *Emitter) memoizeBody(w *memoWrapper, info paramInfo) (hhbc.InstrSeq, error) {
	var (
		seq hhbc.InstrSeq
		err error
	)
	if len(w.params) == 0 && !w.reified && !w.implicit {
		seq, err = e.memoizeNoParams(w)
	} else {
		seq, err = e.memoizeWithParams(w, info)
	}
	if err != nil {
		return nil, err
	}
	return hhbc.Gather(hhbc.Pos(srcLoc(w.pos)), seq), nil
}

func (e *Emitter) checkThis(w *memoWrapper) hhbc.InstrSeq {
	if w.call == memoCallInstance {
		return hhbc.CheckThis()
	}
	return nil
}

func (e *Emitter) memoizeNoParams(w *memoWrapper) (hhbc.InstrSeq, error) {
	notFound := e.labels.Next()
	suspended := e.labels.Next()
	eager := e.labels.Next()
	deprecation, err := e.emitDeprecation(w.env, w.attrs)
	if err != nil {
		return nil, err
	}
	args := hhbc.FCallArgs{NumRets: 1}
	if w.isAsync {
		args.AsyncEager = eager
	}
	return hhbc.Gather(
		deprecation,
		e.checkThis(w),
		memoGet(w.isAsync, notFound, suspended, nil),
		hhbc.Mark(notFound),
		e.callImpl(w, args, nil),
		hhbc.MemoSet(nil),
		memoReturn(w.isAsync, eager, nil),
	), nil
}

func (e *Emitter) memoizeWithParams(w *memoWrapper, info paramInfo) (hhbc.InstrSeq, error) {
	notFound := e.labels.Next()
	suspended := e.labels.Next()
	eager := e.labels.Next()

	paramCount := len(w.params)
	reified := boolCount(w.reified)
	implicit := boolCount(w.implicit)
	first := uint32(paramCount + reified)
	key := &hhbc.LocalRange{Start: first, Count: paramCount + reified + implicit}

	prolog, err := e.emitProlog(w.env, w.params, info.params)
	if err != nil {
		return nil, err
	}
	deprecation, err := e.emitDeprecation(w.env, w.attrs)
	if err != nil {
		return nil, err
	}

	e.locals.ResetFrom(first)
	var keySets, forward hhbc.InstrSeq
	for i := range w.params {
		p := hhbc.Named(w.params[i].Name)
		get := hhbc.GetMemoKeyL(p)
		if w.params[i].MemoizeKey == ast.MemoKeyIdentity {
			get = hhbc.CGetL(p)
		}
		keySets = hhbc.Gather(keySets, get, hhbc.SetL(e.locals.Next()), hhbc.PopC())
		forward = hhbc.Gather(forward, hhbc.CGetL(p))
	}
	if w.reified {
		generics := hhbc.Named(ReifiedGenericsLocal)
		keySets = hhbc.Gather(keySets,
			hhbc.GetMemoKeyL(generics), hhbc.SetL(e.locals.Next()), hhbc.PopC())
		forward = hhbc.Gather(forward, hhbc.CGetL(generics))
	}
	if w.implicit {
		e.AddSymbol(hhbc.SymFunction, implicitContextKeyFunc)
		keySets = hhbc.Gather(keySets,
			hhbc.NullUninit(), hhbc.NullUninit(),
			hhbc.FCallFuncD(hhbc.FCallArgs{NumRets: 1}, implicitContextKeyFunc),
			hhbc.SetL(e.locals.Next()), hhbc.PopC())
	}

	args := hhbc.FCallArgs{NumArgs: paramCount, NumRets: 1}
	if w.reified {
		args.Flags |= hhbc.FCallHasGenerics
	}
	if w.isAsync {
		args.AsyncEager = eager
	}
	return hhbc.Gather(
		info.begin,
		prolog,
		deprecation,
		e.checkThis(w),
		keySets,
		memoGet(w.isAsync, notFound, suspended, key),
		hhbc.Mark(notFound),
		e.callImpl(w, args, forward),
		hhbc.MemoSet(key),
		memoReturn(w.isAsync, eager, key),
		info.setters,
	), nil
}

// memoGet looks up the cache. Async lookups may find a pending result and
// return it suspended.
func memoGet(isAsync bool, notFound, suspended hhbc.Label, key *hhbc.LocalRange) hhbc.InstrSeq {
	if !isAsync {
		return hhbc.Gather(hhbc.MemoGet(notFound, key), hhbc.RetC())
	}
	return hhbc.Gather(
		hhbc.MemoGetEager(notFound, suspended, key), hhbc.RetC(),
		hhbc.Mark(suspended), hhbc.RetCSuspended(),
	)
}

// memoReturn returns the freshly stored value. An async call that
// finished eagerly resumes at the eager label and stores the plain value.
func memoReturn(isAsync bool, eager hhbc.Label, key *hhbc.LocalRange) hhbc.InstrSeq {
	if !isAsync {
		return hhbc.RetC()
	}
	return hhbc.Gather(hhbc.RetCSuspended(), hhbc.Mark(eager), hhbc.MemoSetEager(key), hhbc.RetC())
}

func boolCount(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Wrappers
// ---------------------------------------------------------------------------

// EmitMemoizeFunction builds the wrapper of a memoized top-level function
// whose implementation was renamed to impl.
func (e *Emitter) EmitMemoizeFunction(fd *ast.FunDef, impl string) (*hhbc.Function, error) {
	if err := checkMemoizable(fd.SpanVal, fd.Params, false); err != nil {
		return nil, err
	}
	env := funEnv(fd)
	e.startBody()
	info, err := e.emitParams(env, fd.Params)
	if err != nil {
		return nil, err
	}
	attributes, err := emitAttributes(fd.UserAttributes)
	if err != nil {
		return nil, err
	}
	if a, ok := reifiedAttribute(fd.TParams); ok {
		attributes = append(attributes, a)
	}
	w := &memoWrapper{
		env:      env,
		pos:      fd.SpanVal,
		params:   fd.Params,
		attrs:    fd.UserAttributes,
		impl:     impl,
		isAsync:  fd.FunKind.IsAsync(),
		reified:  hasReifiedTParam(fd.TParams),
		implicit: e.shouldFoldImplicitContext(fd.UserAttributes),
	}
	log.Debugf("memoize wrapper %s -> %s (params=%d reified=%t implicit=%t)",
		env.FunName, impl, len(fd.Params), w.reified, w.implicit)
	instrs, err := e.memoizeBody(w, info)
	if err != nil {
		return nil, err
	}
	var flags hhbc.MethodFlags
	if w.isAsync {
		flags |= hhbc.MethodIsAsync
	}
	return &hhbc.Function{
		Attributes: attributes,
		Name:       env.FunName,
		Span:       span(fd.SpanVal),
		Coeffects:  coeffects(fd.Contexts),
		Flags:      flags,
		Attrs:      e.functionAttrs(fd, false),
		Body: e.makeBody(bodyArgs{
			instrs:      instrs,
			params:      info.params,
			reified:     w.reified,
			memoWrapper: true,
			returnType:  returnTypeInfo(env, fd.Ret),
		}),
	}, nil
}

// checkMemoizableMethod adds the method-only restrictions.
func checkMemoizableMethod(c *ast.Class, m *ast.Method) error {
	if c.Kind == ast.KindInterface {
		return runtimeFatal(m.SpanVal, "<<__Memoize>> cannot be used in interfaces")
	}
	if m.Abstract {
		return runtimeFatal(m.SpanVal, "Abstract method %s::%s cannot be memoized",
			stripGlobalNS(c.Name.Name), m.Name.Name)
	}
	return checkMemoizable(m.SpanVal, m.Params, true)
}

// emitMemoizeMethod builds the wrapper of a memoized method. The wrapper
// keeps the method's name and visibility; the implementation it calls is
// private.
func (e *Emitter) emitMemoizeMethod(cenv *Env, c *ast.Class, m *ast.Method) (*hhbc.Method, error) {
	env := cenv.withMethod(m)
	e.startBody()
	info, err := e.emitParams(env, m.Params)
	if err != nil {
		return nil, err
	}
	attributes, err := emitAttributes(m.UserAttributes)
	if err != nil {
		return nil, err
	}
	lsb := ast.IsMemoizeLSB(m.UserAttributes)
	w := &memoWrapper{
		env:      env,
		pos:      m.SpanVal,
		params:   m.Params,
		attrs:    m.UserAttributes,
		impl:     m.Name.Name + MemoizeSuffix,
		call:     memoCallInstance,
		lsb:      lsb,
		isAsync:  m.FunKind.IsAsync(),
		reified:  hasReifiedTParam(m.TParams),
		implicit: e.shouldFoldImplicitContext(m.UserAttributes),
	}
	if m.Static {
		w.call = memoCallStatic
	}
	log.Debugf("memoize wrapper %s::%s (params=%d static=%t lsb=%t)",
		env.ClassName, m.Name.Name, len(m.Params), m.Static, lsb)
	instrs, err := e.memoizeBody(w, info)
	if err != nil {
		return nil, err
	}
	attrs := e.methodAttrs(c, m)
	attrs.Set(hhbc.AttrAbstract, false)
	var flags hhbc.MethodFlags
	if w.isAsync {
		flags |= hhbc.MethodIsAsync
	}
	return &hhbc.Method{
		Attributes: attributes,
		Visibility: visibility(m.Visibility),
		Name:       m.Name.Name,
		Span:       span(m.SpanVal),
		Coeffects:  coeffects(m.Contexts),
		Flags:      flags,
		Attrs:      attrs,
		Body: e.makeBody(bodyArgs{
			instrs:      instrs,
			params:      info.params,
			reified:     w.reified,
			memoWrapper: true,
			memoLSB:     lsb,
			returnType:  returnTypeInfo(env, m.Ret),
		}),
	}, nil
}
