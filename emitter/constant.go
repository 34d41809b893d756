package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// emitConstant lowers a class constant to either a folded value or an
// initializer for 86cinit. Abstract constants keep neither; a default
// they carry is only used by subclasses that inherit it.
func (e *Emitter) emitConstant(env *Env, cd *ast.ConstDecl) (*hhbc.Constant, error) {
	k := &hhbc.Constant{Name: cd.Id.Name, IsAbstract: cd.Abstract}
	if cd.Abstract || cd.Expr == nil {
		return k, nil
	}
	if v, ok := Fold(cd.Expr); ok {
		k.Value = &v
		return k, nil
	}
	init, err := e.lower.LowerExpr(e, env, cd.Expr)
	if err != nil {
		return nil, err
	}
	k.Initializer = init
	return k, nil
}

// emitTypeConstant lowers a type constant. Abstract type constants with
// a default keep the default's structure as their initializer.
func emitTypeConstant(tc *ast.TypeConstDecl) (*hhbc.TypeConstant, error) {
	k := &hhbc.TypeConstant{Name: tc.Name.Name, IsAbstract: tc.Abstract}
	if tc.Type == nil {
		return k, nil
	}
	ts, err := typeStructure(tc.Type, nil)
	if err != nil {
		return nil, err
	}
	k.Initializer = &ts
	return k, nil
}

// Capabilities the runtime enforces. Other context names are recorded as
// unrecognized.
var knownCapabilities = map[string]bool{
	"defaults":          true,
	"pure":              true,
	"write_props":       true,
	"write_this_props":  true,
	"read_globals":      true,
	"globals":           true,
	"leak_safe":         true,
	"leak_safe_local":   true,
	"leak_safe_shallow": true,
	"zoned":             true,
	"zoned_local":       true,
	"zoned_shallow":     true,
	"zoned_with":        true,
	"rx":                true,
	"rx_local":          true,
	"rx_shallow":        true,
	"policied":          true,
	"policied_of":       true,
	"policied_local":    true,
	"policied_shallow":  true,
	"controlled":        true,
}

func splitCapabilities(ctxs []string) (recognized, unrecognized []string) {
	for _, c := range ctxs {
		name := strings.ToLower(stripNS(c))
		if knownCapabilities[name] {
			recognized = append(recognized, name)
		} else {
			unrecognized = append(unrecognized, c)
		}
	}
	return recognized, unrecognized
}

func emitCtxConstant(tc *ast.TypeConstDecl) *hhbc.CtxConstant {
	recognized, unrecognized := splitCapabilities(tc.Contexts)
	return &hhbc.CtxConstant{
		Name:         tc.Name.Name,
		Recognized:   recognized,
		Unrecognized: unrecognized,
		IsAbstract:   tc.Abstract,
	}
}

// coeffects computes the capability set of a function or method. Nil
// contexts mean the default set and an empty list means pure.
func coeffects(ctxs []string) hhbc.Coeffects {
	switch {
	case ctxs == nil:
		return hhbc.DefaultCoeffects()
	case len(ctxs) == 0:
		return hhbc.PureCoeffects()
	}
	recognized, unrecognized := splitCapabilities(ctxs)
	return hhbc.Coeffects{Static: recognized, Unenforced: unrecognized}
}
