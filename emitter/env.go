package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
)

// Env is the lexical scope a body is lowered in: the enclosing class (if
// any) and function, with their type parameters.
type Env struct {
	Namespace ast.Namespace

	ClassName    string
	ClassKind    ast.ClassKind
	ClassTParams []ast.TParam

	FunName    string
	FunTParams []ast.TParam
	IsAsync    bool
	IsStatic   bool
}

// classEnv is the scope of class-level code (initializers, 86 methods).
func classEnv(c *ast.Class) *Env {
	return &Env{
		Namespace:    c.Namespace,
		ClassName:    stripGlobalNS(c.Name.Name),
		ClassKind:    c.Kind,
		ClassTParams: c.TParams,
	}
}

// InClass reports whether the scope is inside a class.
func (env *Env) InClass() bool { return env.ClassName != "" }

// withMethod returns the scope of a method body.
func (env *Env) withMethod(m *ast.Method) *Env {
	next := *env
	next.FunName = m.Name.Name
	next.FunTParams = m.TParams
	next.IsAsync = m.FunKind.IsAsync()
	next.IsStatic = m.Static
	return &next
}

// funEnv is the scope of a top-level function body.
func funEnv(fd *ast.FunDef) *Env {
	return &Env{
		Namespace:  fd.Namespace,
		FunName:    stripGlobalNS(fd.Name.Name),
		FunTParams: fd.TParams,
		IsAsync:    fd.FunKind.IsAsync(),
	}
}

// reifiedTParam finds a reified or soft-reified type parameter of the
// function (fun=true) or the class by name, returning its position.
func (env *Env) reifiedTParam(fun bool, name string) (int, bool) {
	tparams := env.ClassTParams
	if fun {
		tparams = env.FunTParams
	}
	for i, tp := range tparams {
		if tp.Name.Name == name && tp.Reified.IsReified() {
			return i, true
		}
	}
	return 0, false
}

// isErased reports whether name is a type parameter in scope that is not
// fully reified. Soft-reified parameters count as erased here.
func (env *Env) isErased(name string) bool {
	for _, tps := range [][]ast.TParam{env.FunTParams, env.ClassTParams} {
		for _, tp := range tps {
			if tp.Name.Name == name && tp.Reified != ast.Reified {
				return true
			}
		}
	}
	return false
}

// isTParam reports whether name is any type parameter in scope.
func (env *Env) isTParam(name string) bool {
	for _, tps := range [][]ast.TParam{env.FunTParams, env.ClassTParams} {
		for _, tp := range tps {
			if tp.Name.Name == name {
				return true
			}
		}
	}
	return false
}

func stripGlobalNS(name string) string { return strings.TrimPrefix(name, "\\") }

// stripNS drops every namespace qualifier.
func stripNS(name string) string {
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func hasReifiedTParam(tparams []ast.TParam) bool {
	for _, tp := range tparams {
		if tp.Reified.IsReified() {
			return true
		}
	}
	return false
}
