package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// ReificationLevel says whether a hint needs its type arguments at
// runtime.
type ReificationLevel uint8

const (
	// Definitely: the hint names a reified type parameter in scope.
	Definitely ReificationLevel = iota
	// Maybe: the hint applies type arguments that may be inferred
	// reified ones.
	Maybe
	Not
	Unconstrained
)

func (l ReificationLevel) String() string {
	switch l {
	case Definitely:
		return "definitely"
	case Maybe:
		return "maybe"
	case Not:
		return "not"
	default:
		return "unconstrained"
	}
}

// Combine joins two levels. Definitely absorbs everything and Maybe
// absorbs the rest.
func Combine(a, b ReificationLevel) ReificationLevel {
	switch {
	case a == Definitely || b == Definitely:
		return Definitely
	case a == Maybe || b == Maybe:
		return Maybe
	}
	return Not
}

// ReifiedGenericsLocal holds the witnesses of a function's reified type
// parameters.
const ReifiedGenericsLocal = "$0ReifiedGenerics"

// reifiedProp is the instance property holding a class's witnesses.
const reifiedProp = "86reified_prop"

// Classify computes the reification level of h in this scope.
func (env *Env) Classify(h ast.Hint) (ReificationLevel, error) {
	switch n := h.(type) {
	case *ast.HApply:
		name := n.Name.Name
		if _, ok := env.reifiedTParam(true, name); ok {
			return Definitely, nil
		}
		if _, ok := env.reifiedTParam(false, name); ok {
			return Definitely, nil
		}
		if len(n.Args) == 0 || env.allErased(n.Args) {
			return Not, nil
		}
		level := Maybe
		for i := len(n.Args) - 1; i >= 0; i-- {
			inner, err := env.Classify(n.Args[i])
			if err != nil {
				return 0, err
			}
			level = Combine(level, inner)
		}
		return level, nil
	case *ast.HOption:
		return env.Classify(n.Inner)
	case *ast.HSoft:
		return env.Classify(n.Inner)
	case *ast.HLike:
		return env.Classify(n.Inner)
	case *ast.HPrim, *ast.HMixed, *ast.HNonnull, *ast.HVecOrDict, *ast.HThis,
		*ast.HNothing, *ast.HDynamic, *ast.HTuple, *ast.HUnion, *ast.HIntersection,
		*ast.HShape, *ast.HFun, *ast.HAccess, *ast.HFunContext:
		return Not, nil
	case nil:
		return Not, nil
	}
	return 0, internalErrorf(h.Span(), "unexpected %T hint after naming", h)
}

// allErased reports whether every hint is the wildcard or a bare erased
// type parameter.
func (env *Env) allErased(hs []ast.Hint) bool {
	for _, h := range hs {
		a, ok := ast.AsApply(h)
		if !ok || len(a.Args) > 0 {
			return false
		}
		if a.Name.Name != ast.Wildcard && !env.isErased(a.Name.Name) {
			return false
		}
	}
	return true
}

// Erase rewrites references to erased type parameters to the wildcard.
// Function and access hints are left alone. Erase is idempotent.
func (env *Env) Erase(h ast.Hint) ast.Hint {
	eraseAll := func(hs []ast.Hint) []ast.Hint {
		if hs == nil {
			return nil
		}
		out := make([]ast.Hint, len(hs))
		for i, el := range hs {
			out[i] = env.Erase(el)
		}
		return out
	}
	switch n := h.(type) {
	case *ast.HApply:
		name := n.Name
		if env.isErased(name.Name) {
			name.Name = ast.Wildcard
		}
		return &ast.HApply{SpanVal: n.SpanVal, Name: name, Args: eraseAll(n.Args)}
	case *ast.HOption:
		return &ast.HOption{SpanVal: n.SpanVal, Inner: env.Erase(n.Inner)}
	case *ast.HSoft:
		return &ast.HSoft{SpanVal: n.SpanVal, Inner: env.Erase(n.Inner)}
	case *ast.HLike:
		return &ast.HLike{SpanVal: n.SpanVal, Inner: env.Erase(n.Inner)}
	case *ast.HTuple:
		return &ast.HTuple{SpanVal: n.SpanVal, Elems: eraseAll(n.Elems)}
	case *ast.HUnion:
		return &ast.HUnion{SpanVal: n.SpanVal, Elems: eraseAll(n.Elems)}
	case *ast.HIntersection:
		return &ast.HIntersection{SpanVal: n.SpanVal, Elems: eraseAll(n.Elems)}
	case *ast.HShape:
		fields := make([]ast.ShapeField, len(n.Fields))
		for i, f := range n.Fields {
			f.Hint = env.Erase(f.Hint)
			fields[i] = f
		}
		return &ast.HShape{SpanVal: n.SpanVal, AllowsUnknownFields: n.AllowsUnknownFields, Fields: fields}
	}
	return h
}

// StripAsyncResult unwraps Awaitable<T> to T in async scopes. Soft and
// like wrappers move onto the inner type; an option wrapper is dropped.
func (env *Env) StripAsyncResult(h ast.Hint) ast.Hint {
	if !env.IsAsync {
		return h
	}
	return stripAwaitable(h)
}

func stripAwaitable(h ast.Hint) ast.Hint {
	switch n := h.(type) {
	case *ast.HApply:
		name := stripGlobalNS(n.Name.Name)
		if len(n.Args) == 1 && (strings.EqualFold(name, "HH\\Awaitable") || strings.EqualFold(name, "Awaitable")) {
			return n.Args[0]
		}
	case *ast.HSoft:
		return &ast.HSoft{SpanVal: n.SpanVal, Inner: stripAwaitable(n.Inner)}
	case *ast.HLike:
		return &ast.HLike{SpanVal: n.SpanVal, Inner: stripAwaitable(n.Inner)}
	case *ast.HOption:
		return stripAwaitable(n.Inner)
	}
	return h
}

// ---------------------------------------------------------------------------
// Witness emission
// ---------------------------------------------------------------------------

// witnessRef is a reified type parameter whose witness is pushed before a
// combined type structure.
type witnessRef struct {
	name string
	fun  bool
	idx  int
}

func (e *Emitter) tparamWitness(ref witnessRef) hhbc.InstrSeq {
	if ref.fun {
		return hhbc.Gather(hhbc.BaseL(hhbc.Named(ReifiedGenericsLocal)), hhbc.QueryMEI(ref.idx))
	}
	return hhbc.Gather(hhbc.CheckThis(), hhbc.BaseH(), hhbc.DimPT(reifiedProp), hhbc.QueryMEI(ref.idx))
}

// lookupWitness resolves a bare name to a reified type parameter,
// function parameters shadowing class ones.
func (env *Env) lookupWitness(name string) (witnessRef, bool) {
	if i, ok := env.reifiedTParam(true, name); ok {
		return witnessRef{name: name, fun: true, idx: i}, true
	}
	if i, ok := env.reifiedTParam(false, name); ok {
		return witnessRef{name: name, idx: i}, true
	}
	return witnessRef{}, false
}

// collectWitnesses lists the reified type parameters referenced by h in
// first-appearance order, walking the positions a type structure encodes.
func (env *Env) collectWitnesses(h ast.Hint, refs []witnessRef) []witnessRef {
	walk := func(hs []ast.Hint) {
		for _, el := range hs {
			refs = env.collectWitnesses(el, refs)
		}
	}
	switch n := h.(type) {
	case *ast.HApply:
		if len(n.Args) == 0 {
			if ref, ok := env.lookupWitness(n.Name.Name); ok {
				for _, seen := range refs {
					if seen.name == ref.name {
						return refs
					}
				}
				return append(refs, ref)
			}
		}
		walk(n.Args)
	case *ast.HOption:
		refs = env.collectWitnesses(n.Inner, refs)
	case *ast.HSoft:
		refs = env.collectWitnesses(n.Inner, refs)
	case *ast.HLike:
		refs = env.collectWitnesses(n.Inner, refs)
	case *ast.HVecOrDict:
		if n.Key != nil {
			refs = env.collectWitnesses(n.Key, refs)
		}
		refs = env.collectWitnesses(n.Value, refs)
	case *ast.HTuple:
		walk(n.Elems)
	case *ast.HShape:
		for _, f := range n.Fields {
			refs = env.collectWitnesses(f.Hint, refs)
		}
	case *ast.HFun:
		walk(n.Params)
		refs = env.collectWitnesses(n.Return, refs)
	}
	return refs
}

// emitReifiedArg pushes the runtime type-structure witness of h. A bare
// reified type parameter reads its stored witness; anything else pushes
// the witnesses it references and combines them with the erased
// structure.
func (e *Emitter) emitReifiedArg(env *Env, h ast.Hint) (hhbc.InstrSeq, error) {
	if a, ok := ast.AsApply(h); ok && len(a.Args) == 0 {
		if ref, ok := env.lookupWitness(a.Name.Name); ok {
			return e.tparamWitness(ref), nil
		}
	}
	erased := env.Erase(h)
	refs := env.collectWitnesses(erased, nil)
	index := func(name string) (int, bool) {
		for i, r := range refs {
			if r.name == name {
				return i, true
			}
		}
		return 0, false
	}
	ts, err := typeStructure(erased, index)
	if err != nil {
		return nil, err
	}
	seq := hhbc.Empty()
	for _, r := range refs {
		seq = hhbc.Gather(seq, e.tparamWitness(r))
	}
	return hhbc.Gather(seq, hhbc.TypedValueC(ts), hhbc.CombineAndResolveTypeStruct(len(refs)+1)), nil
}

// EmitRuntimeCheck verifies a value against a reified hint. For an option
// hint, check runs first and skips the verification when the value is
// null.
func (e *Emitter) EmitRuntimeCheck(env *Env, h ast.Hint, check, verify hhbc.InstrSeq) (hhbc.InstrSeq, error) {
	if opt, ok := h.(*ast.HOption); ok {
		done := e.labels.Next()
		ts, err := e.emitReifiedArg(env, opt.Inner)
		if err != nil {
			return nil, err
		}
		return hhbc.Gather(check, hhbc.JmpNZ(done), ts, verify, hhbc.Mark(done)), nil
	}
	ts, err := e.emitReifiedArg(env, h)
	if err != nil {
		return nil, err
	}
	return hhbc.Gather(ts, verify), nil
}

// DeclHasNoReifiedGenerics reports whether h names a class whose
// declaration has only erased type parameters. A failed lookup counts as
// not reified. Hints other than applied class names report false.
func (e *Emitter) DeclHasNoReifiedGenerics(h ast.Hint) bool {
	a, ok := ast.AsApply(h)
	if !ok {
		return false
	}
	c, err := e.decls.Class(stripGlobalNS(a.Name.Name))
	if err != nil {
		log.Debugf("no declaration for %s, treating as erased: %v", a.Name.Name, err)
		return true
	}
	return !c.HasReifiedGenerics()
}
