package emitter

import (
	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// Synthesized method names.
const (
	pinitName       = "86pinit"
	sinitName       = "86sinit"
	linitName       = "86linit"
	cinitName       = "86cinit"
	reifiedInitName = "86reifiedinit"

	constNameParam   = "$constName"
	typeStructsParam = "$__typestructures"
)

// make86method builds a compiler-generated method. These never use
// iterators, declare no locals beyond their params and are not
// injectable.
func (e *Emitter) make86method(name string, params []hhbc.Param, static bool, vis hhbc.Visibility,
	abstract bool, sp hhbc.Span, co hhbc.Coeffects, instrs hhbc.InstrSeq) *hhbc.Method {
	e.iters.Reset()
	attrs := hhbc.AttrNoInjection | vis.Attr()
	attrs.Set(hhbc.AttrAbstract, abstract)
	attrs.Set(hhbc.AttrStatic, static)
	return &hhbc.Method{
		Name:       name,
		Visibility: vis,
		Attrs:      attrs,
		Span:       sp,
		Coeffects:  co,
		Body:       e.makeBody(bodyArgs{instrs: instrs, params: params}),
	}
}

// initMethod concatenates the initializers of the properties selected by
// keep. No selected property with an initializer means no method.
func (e *Emitter) initMethod(name string, props []*hhbc.Property, keep func(*hhbc.Property) bool, sp hhbc.Span) *hhbc.Method {
	var body hhbc.InstrSeq
	found := false
	for _, p := range props {
		if !keep(p) || p.Initializer == nil {
			continue
		}
		found = true
		body = hhbc.Gather(body, p.Initializer.Clone())
	}
	if !found {
		return nil
	}
	body = hhbc.Gather(body, hhbc.Null(), hhbc.RetC())
	return e.make86method(name, nil, true, hhbc.VisPrivate, false, sp, hhbc.PureCoeffects(), body)
}

func isInstanceProp(p *hhbc.Property) bool { return !p.IsStatic() }
func isStaticProp(p *hhbc.Property) bool   { return p.IsStatic() && !p.IsLSB() }
func isLSBProp(p *hhbc.Property) bool      { return p.IsStatic() && p.IsLSB() }

// cinitCase is a constant whose value 86cinit computes.
type cinitCase struct {
	name  string
	label hhbc.Label
	init  hhbc.InstrSeq
}

// cinitMethod dispatches on $constName to each initialized constant and
// fatals for any other name. Case labels must be minted before the
// default label.
func (e *Emitter) cinitMethod(c *ast.Class, cases []cinitCase, dflt hhbc.Label) *hhbc.Method {
	pos := hhbc.Pos(srcLoc(c.SpanVal))
	arms := make([]hhbc.SwitchCase, 0, len(cases)+1)
	for _, k := range cases {
		arms = append(arms, hhbc.SwitchCase{Name: k.name, Target: k.label})
	}
	arms = append(arms, hhbc.SwitchCase{Name: hhbc.DefaultCase, Target: dflt})

	body := hhbc.Gather(
		pos,
		hhbc.CGetL(hhbc.Named(constNameParam)),
		hhbc.SSwitch(arms),
		cinitChain(cases, dflt, pos),
	)
	params := []hhbc.Param{{Name: constNameParam}}
	return e.make86method(cinitName, params, true, hhbc.VisPrivate, c.Kind == ast.KindInterface,
		span(c.SpanVal), hhbc.DefaultCoeffects(), body)
}

func cinitChain(cases []cinitCase, dflt hhbc.Label, pos hhbc.InstrSeq) hhbc.InstrSeq {
	if len(cases) == 0 {
		return hhbc.Gather(
			hhbc.Mark(dflt),
			pos,
			hhbc.String("Could not find initializer for "),
			hhbc.CGetL(hhbc.Named(constNameParam)),
			hhbc.String(" in 86cinit"),
			hhbc.ConcatN(3),
			hhbc.Fatal(hhbc.FatalRuntime),
		)
	}
	k := cases[0]
	return hhbc.Gather(hhbc.Mark(k.label), k.init.Clone(), pos, hhbc.RetC(), cinitChain(cases[1:], dflt, pos))
}

// needsReifiedInit reports whether a class must record reified type
// arguments on construction: it has its own reified parameters or passes
// type arguments to its parent.
func needsReifiedInit(c *ast.Class) bool {
	if hasReifiedTParam(c.TParams) {
		return true
	}
	if len(c.Extends) > 0 {
		if a, ok := ast.AsApply(c.Extends[0]); ok && len(a.Args) > 0 {
			return true
		}
	}
	return false
}

// reifiedInitMethod stores the class's own witnesses in 86reified_prop
// and forwards the parent's type arguments to the parent's 86reifiedinit.
func (e *Emitter) reifiedInitMethod(env *Env, c *ast.Class) (*hhbc.Method, error) {
	param := hhbc.Named(typeStructsParam)
	var setProp hhbc.InstrSeq
	if hasReifiedTParam(c.TParams) {
		setProp = hhbc.Gather(
			hhbc.CGetL(param), hhbc.CheckReifiedGenericMismatch(),
			hhbc.CheckThis(),
			hhbc.CGetL(param), hhbc.BaseH(), hhbc.SetMPT(reifiedProp), hhbc.PopC(),
		)
	}
	var callParent hhbc.InstrSeq
	if len(c.Extends) > 0 {
		witnesses, err := e.parentWitnesses(env, c.Extends[0])
		if err != nil {
			return nil, err
		}
		callParent = hhbc.Gather(
			hhbc.NullUninit(), hhbc.NullUninit(),
			witnesses,
			hhbc.FCallClsMethodSD(hhbc.FCallArgs{NumArgs: 1, NumRets: 1}, hhbc.ClsRefParent, reifiedInitName),
			hhbc.PopC(),
		)
	}
	body := hhbc.Gather(hhbc.Pos(srcLoc(c.SpanVal)), setProp, callParent, hhbc.Null(), hhbc.RetC())

	varray := "HH\\varray"
	params := []hhbc.Param{{
		Name:     typeStructsParam,
		TypeInfo: &hhbc.TypeInfo{UserType: varray, Constraint: hhbc.Constraint{Name: varray}},
	}}
	return e.make86method(reifiedInitName, params, false, hhbc.VisProtected, false,
		span(c.SpanVal), hhbc.PureCoeffects(), body), nil
}

// parentWitnesses builds the vec of type-structure witnesses for the
// parent's type arguments, or an empty vec when it has none.
func (e *Emitter) parentWitnesses(env *Env, base ast.Hint) (hhbc.InstrSeq, error) {
	a, ok := ast.AsApply(base)
	if !ok || len(a.Args) == 0 {
		return hhbc.TypedValueC(hhbc.VecValue()), nil
	}
	var seq hhbc.InstrSeq
	for _, arg := range a.Args {
		w, err := e.emitReifiedArg(env, arg)
		if err != nil {
			return nil, err
		}
		seq = hhbc.Gather(seq, w)
	}
	return hhbc.Gather(seq, hhbc.NewVec(len(a.Args)), hhbc.RecordReifiedGeneric()), nil
}
