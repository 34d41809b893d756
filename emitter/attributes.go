package emitter

import (
	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// emitAttributes folds user attribute arguments to constants.
func emitAttributes(attrs []ast.UserAttribute) ([]hhbc.Attribute, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make([]hhbc.Attribute, 0, len(attrs))
	for _, a := range attrs {
		args := make([]hhbc.TypedValue, 0, len(a.Params))
		for _, p := range a.Params {
			v, ok := Fold(p)
			if !ok {
				return nil, parseFatal(p.Span(), "Attribute arguments must be literals or constant expressions")
			}
			args = append(args, v)
		}
		out = append(out, hhbc.Attribute{Name: stripGlobalNS(a.Name.Name), Args: args})
	}
	return out, nil
}

func hasAttribute(attrs []hhbc.Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// reifiedAttribute describes the class's reified type parameters: the
// total parameter count, then (position, soft, warn) per reified one.
func reifiedAttribute(tparams []ast.TParam) (hhbc.Attribute, bool) {
	args := []hhbc.TypedValue{hhbc.IntValue(int64(len(tparams)))}
	for i, tp := range tparams {
		if !tp.Reified.IsReified() {
			continue
		}
		args = append(args,
			hhbc.IntValue(int64(i)),
			boolInt(ast.HasAttribute(tp.UserAttributes, ast.AttrSoft)),
			boolInt(ast.HasAttribute(tp.UserAttributes, ast.AttrWarn)),
		)
	}
	if len(args) == 1 {
		return hhbc.Attribute{}, false
	}
	return hhbc.Attribute{Name: ast.AttrReified, Args: args}, true
}

// reifiedParentAttribute marks classes whose parent may receive reified
// type arguments.
func reifiedParentAttribute(env *Env, extends []ast.Hint) (hhbc.Attribute, bool, error) {
	if len(extends) == 0 {
		return hhbc.Attribute{}, false, nil
	}
	a, ok := ast.AsApply(extends[0])
	if !ok {
		return hhbc.Attribute{}, false, nil
	}
	for _, arg := range a.Args {
		level, err := env.Classify(arg)
		if err != nil {
			return hhbc.Attribute{}, false, err
		}
		if level != Not {
			return hhbc.Attribute{Name: ast.AttrHasReifiedParent}, true, nil
		}
	}
	return hhbc.Attribute{}, false, nil
}

func boolInt(b bool) hhbc.TypedValue {
	if b {
		return hhbc.IntValue(1)
	}
	return hhbc.IntValue(0)
}
