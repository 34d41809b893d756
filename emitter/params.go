package emitter

import (
	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// paramInfo is a lowered parameter list together with the default-value
// setters that bind omitted arguments.
type paramInfo struct {
	params  []hhbc.Param
	begin   hhbc.InstrSeq // entry label the setters jump back to
	setters hhbc.InstrSeq
}

// emitParams lowers parameters. Each parameter with a default gets a
// setter block `Label; <default>; SetL $p; PopC`; the blocks run in
// order and end by jumping to the body entry.
func (e *Emitter) emitParams(env *Env, params []ast.FunParam) (paramInfo, error) {
	var info paramInfo
	var setters hhbc.InstrSeq
	for i := range params {
		p := &params[i]
		attrs, err := emitAttributes(p.UserAttributes)
		if err != nil {
			return paramInfo{}, err
		}
		hp := hhbc.Param{
			Name:           p.Name,
			IsVariadic:     p.IsVariadic,
			IsInout:        p.IsInout,
			IsReadonly:     p.IsReadonly,
			UserAttributes: attrs,
			TypeInfo:       typeInfo(env, p.Hint),
		}
		if p.Default != nil {
			l := e.labels.Next()
			value, err := e.lower.LowerExpr(e, env, p.Default)
			if err != nil {
				return paramInfo{}, err
			}
			hp.DefaultValue = &hhbc.DefaultValue{Label: l, Expr: exprString(p.Default)}
			setters = hhbc.Gather(setters, hhbc.Mark(l), value, hhbc.SetL(hhbc.Named(p.Name)), hhbc.PopC())
		}
		info.params = append(info.params, hp)
	}
	if setters != nil {
		begin := e.labels.Next()
		info.begin = hhbc.Mark(begin)
		info.setters = hhbc.Gather(setters, hhbc.JmpNS(begin))
	}
	return info, nil
}

// emitProlog verifies parameter types on entry. Hints that may depend on
// reified generics are checked against a runtime type structure; null
// skips the check for nullable hints.
func (e *Emitter) emitProlog(env *Env, params []ast.FunParam, lowered []hhbc.Param) (hhbc.InstrSeq, error) {
	var seq hhbc.InstrSeq
	for i := range params {
		p := &params[i]
		if p.Hint == nil || p.IsVariadic {
			continue
		}
		local := hhbc.Named(p.Name)
		level, err := env.Classify(p.Hint)
		if err != nil {
			return nil, err
		}
		switch {
		case level == Unconstrained:
			continue
		case level == Not || level == Maybe && e.DeclHasNoReifiedGenerics(p.Hint):
			if ti := lowered[i].TypeInfo; ti != nil && ti.Constraint.Name != "" {
				seq = hhbc.Gather(seq, hhbc.VerifyParamType(local))
			}
		default:
			check, err := e.EmitRuntimeCheck(env, p.Hint, hhbc.IsTypeL(local, hhbc.IsTypeNull), hhbc.VerifyParamTypeTS(local))
			if err != nil {
				return nil, err
			}
			seq = hhbc.Gather(seq, check)
		}
	}
	return seq, nil
}

// Error codes passed to trigger_sampled_error.
const (
	errDeprecated     = 8192
	errUserDeprecated = 16384
)

// emitDeprecation raises a sampled deprecation warning when the function
// carries __Deprecated(message[, rate]). A rate of zero or less disables
// it.
func (e *Emitter) emitDeprecation(env *Env, attrs []ast.UserAttribute) (hhbc.InstrSeq, error) {
	a := ast.FindAttribute(attrs, ast.AttrDeprecated)
	if a == nil {
		return nil, nil
	}
	message := "deprecated function"
	rate := int64(1)
	if len(a.Params) > 0 {
		v, ok := Fold(a.Params[0])
		if !ok || v.Kind != hhbc.KindString {
			return nil, parseFatal(a.Name.Pos, "Deprecated message must be a string")
		}
		message = v.Str
	}
	if len(a.Params) > 1 {
		v, ok := Fold(a.Params[1])
		if !ok || v.Kind != hhbc.KindInt {
			return nil, parseFatal(a.Name.Pos, "Deprecated sampling rate must be an int")
		}
		rate = v.Int
	}
	if rate <= 0 {
		return nil, nil
	}
	name := env.FunName
	if env.InClass() {
		name = env.ClassName + "::" + name
	}
	code := int64(errUserDeprecated)
	if e.Systemlib() {
		code = errDeprecated
	}
	e.AddSymbol(hhbc.SymFunction, "trigger_sampled_error")
	return hhbc.Gather(
		hhbc.NullUninit(), hhbc.NullUninit(),
		hhbc.String(name+": "+message),
		hhbc.Int(rate),
		hhbc.Int(code),
		hhbc.FCallFuncD(hhbc.FCallArgs{NumArgs: 3, NumRets: 1}, "trigger_sampled_error"),
		hhbc.PopC(),
	), nil
}

// bodyArgs are the parts of a body that vary between explicit methods,
// memoize wrappers and synthesized methods.
type bodyArgs struct {
	instrs       hhbc.InstrSeq
	params       []hhbc.Param
	reified      bool
	memoWrapper  bool
	memoLSB      bool
	upperBounds  []hhbc.UpperBound
	shadowed     []string
	returnType   *hhbc.TypeInfo
	docComment   string
	scanDeclVars bool
}

// makeBody assembles a body and sizes its local frame. Decl vars are the
// generics local followed by every other named local in order of first
// use; unnamed locals are numbered after params and decl vars.
func (e *Emitter) makeBody(a bodyArgs) hhbc.Body {
	var declVars []string
	if a.reified {
		declVars = append(declVars, ReifiedGenericsLocal)
	}
	if a.scanDeclVars {
		declVars = appendDeclVars(declVars, a.instrs, a.params)
	}
	return hhbc.Body{
		Instrs:              a.instrs,
		DeclVars:            declVars,
		NumIters:            e.iters.Count(),
		NumUnnamedLocals:    unnamedLocals(a.instrs, len(a.params)+len(declVars)),
		IsMemoizeWrapper:    a.memoWrapper,
		IsMemoizeWrapperLSB: a.memoLSB,
		UpperBounds:         a.upperBounds,
		ShadowedTParams:     a.shadowed,
		Params:              a.params,
		ReturnType:          a.returnType,
		DocComment:          a.docComment,
	}
}

func appendDeclVars(declVars []string, instrs hhbc.InstrSeq, params []hhbc.Param) []string {
	seen := make(map[string]bool, len(params)+len(declVars)+1)
	seen["$this"] = true
	for _, p := range params {
		seen[p.Name] = true
	}
	for _, d := range declVars {
		seen[d] = true
	}
	for _, in := range instrs {
		if in.Local == nil || in.Local.Kind != hhbc.LocalNamed || seen[in.Local.Name] {
			continue
		}
		seen[in.Local.Name] = true
		declVars = append(declVars, in.Local.Name)
	}
	return declVars
}

// unnamedLocals counts the unnamed slots past the named ones, covering
// both single-local operands and memo key ranges.
func unnamedLocals(instrs hhbc.InstrSeq, named int) int {
	top := 0
	for _, in := range instrs {
		if in.Local != nil && in.Local.Kind == hhbc.LocalUnnamed && int(in.Local.ID)+1 > top {
			top = int(in.Local.ID) + 1
		}
		if in.Range != nil && in.Range.Count > 0 && int(in.Range.Start)+in.Range.Count > top {
			top = int(in.Range.Start) + in.Range.Count
		}
	}
	if n := top - named; n > 0 {
		return n
	}
	return 0
}

// shadowedTParams lists method type parameters that hide a class type
// parameter of the same name.
func shadowedTParams(env *Env, tparams []ast.TParam) []string {
	var out []string
	for _, tp := range tparams {
		for _, ctp := range env.ClassTParams {
			if ctp.Name.Name == tp.Name.Name {
				out = append(out, tp.Name.Name)
				break
			}
		}
	}
	return out
}
