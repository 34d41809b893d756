package fixture

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/decls"
)

var reifyKinds = map[string]ast.ReifyKind{
	"":        ast.Erased,
	"erased":  ast.Erased,
	"soft":    ast.SoftReified,
	"reified": ast.Reified,
}

var classKinds = map[string]ast.ClassKind{
	"":           ast.KindClass,
	"class":      ast.KindClass,
	"interface":  ast.KindInterface,
	"trait":      ast.KindTrait,
	"enum":       ast.KindEnum,
	"enum_class": ast.KindEnumClass,
}

var funKinds = map[string]ast.FunKind{
	"":                ast.FSync,
	"sync":            ast.FSync,
	"async":           ast.FAsync,
	"generator":       ast.FGenerator,
	"async_generator": ast.FAsyncGenerator,
}

var visibilities = map[string]ast.Visibility{
	"":          ast.Public,
	"public":    ast.Public,
	"protected": ast.Protected,
	"private":   ast.Private,
	"internal":  ast.Internal,
}

func lookup[K comparable, V any](m map[K]V, what string, k K) (V, error) {
	v, ok := m[k]
	if !ok {
		return v, fmt.Errorf("unknown %s %v", what, k)
	}
	return v, nil
}

// Declarations returns the outside class declarations of the fixture.
func (f *File) Declarations() ([]*decls.Class, error) {
	out := make([]*decls.Class, 0, len(f.Decls))
	for _, d := range f.Decls {
		c := &decls.Class{Name: d.Name}
		for _, tp := range d.TParams {
			k, err := lookup(reifyKinds, "reify kind", tp.Reified)
			if err != nil {
				return nil, fmt.Errorf("decl %s: %w", d.Name, err)
			}
			c.TParams = append(c.TParams, decls.TParam{Name: tp.Name, Reified: k})
		}
		out = append(out, c)
	}
	return out, nil
}

// Program converts the fixture's classes and functions to a declaration
// tree.
func (f *File) Program() (*ast.Program, error) {
	prog := &ast.Program{}
	for i := range f.Classes {
		c, err := f.Classes[i].convert(f.Unit)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", f.Classes[i].Name, err)
		}
		prog.Classes = append(prog.Classes, c)
	}
	for i := range f.Functions {
		fd, err := f.Functions[i].convert(f.Unit)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", f.Functions[i].Name, err)
		}
		prog.Functions = append(prog.Functions, fd)
	}
	return prog, nil
}

func hints(srcs []string) ([]ast.Hint, error) {
	var out []ast.Hint
	for _, s := range srcs {
		h, err := ParseHint(s)
		if err != nil {
			return nil, err
		}
		if h != nil {
			out = append(out, h)
		}
	}
	return out, nil
}

func tparams(tps []TParam) ([]ast.TParam, error) {
	var out []ast.TParam
	for _, tp := range tps {
		k, err := lookup(reifyKinds, "reify kind", tp.Reified)
		if err != nil {
			return nil, err
		}
		p := ast.TParam{Name: ast.Id{Name: tp.Name}, Reified: k}
		if tp.As != "" {
			h, err := ParseHint(tp.As)
			if err != nil {
				return nil, err
			}
			p.Constraints = []ast.Constraint{{Kind: ast.ConstraintAs, Hint: h}}
		}
		out = append(out, p)
	}
	return out, nil
}

func attributes(attrs []Attribute) ([]ast.UserAttribute, error) {
	var out []ast.UserAttribute
	for _, a := range attrs {
		args, err := nodeExprs(a.Args)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		out = append(out, ast.UserAttribute{Name: ast.Id{Name: a.Name}, Params: args})
	}
	return out, nil
}

func params(ps []Param) ([]ast.FunParam, error) {
	var out []ast.FunParam
	for i := range ps {
		p := &ps[i]
		h, err := ParseHint(p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		dflt, err := Expr(&p.Default)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		attrs, err := attributes(p.Attributes)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", p.Name, err)
		}
		fp := ast.FunParam{
			Name:           p.Name,
			Hint:           h,
			Default:        dflt,
			IsVariadic:     p.Variadic,
			IsInout:        p.Inout,
			IsReadonly:     p.Readonly,
			UserAttributes: attrs,
		}
		if p.IdentityKey {
			fp.MemoizeKey = ast.MemoKeyIdentity
		}
		out = append(out, fp)
	}
	return out, nil
}

// signature is the part shared by functions and methods.
type signature struct {
	kind    ast.FunKind
	tparams []ast.TParam
	params  []ast.FunParam
	ret     ast.Hint
	body    []ast.Stmt
	attrs   []ast.UserAttribute
}

func convertSignature(kind string, tps []TParam, ps []Param, ret string, body []yaml.Node, attrs []Attribute) (signature, error) {
	var s signature
	var err error
	if s.kind, err = lookup(funKinds, "function kind", kind); err != nil {
		return s, err
	}
	if s.tparams, err = tparams(tps); err != nil {
		return s, err
	}
	if s.params, err = params(ps); err != nil {
		return s, err
	}
	if s.ret, err = ParseHint(ret); err != nil {
		return s, err
	}
	if s.body, err = Stmts(body); err != nil {
		return s, err
	}
	if s.attrs, err = attributes(attrs); err != nil {
		return s, err
	}
	return s, nil
}

func (fn *Function) convert(unit string) (*ast.FunDef, error) {
	s, err := convertSignature(fn.Kind, fn.TParams, fn.Params, fn.Ret, fn.Body, fn.Attributes)
	if err != nil {
		return nil, err
	}
	return &ast.FunDef{
		SpanVal:        ast.Span{File: unit},
		Name:           ast.Id{Name: fn.Name},
		Namespace:      ast.Namespace{Name: fn.Namespace},
		TParams:        s.tparams,
		Params:         s.params,
		Ret:            s.ret,
		FunKind:        s.kind,
		Body:           s.body,
		Contexts:       fn.Contexts,
		UserAttributes: s.attrs,
		DocComment:     fn.Doc,
	}, nil
}

func (m *Method) convert(unit string) (*ast.Method, error) {
	s, err := convertSignature(m.Kind, m.TParams, m.Params, m.Ret, m.Body, m.Attributes)
	if err != nil {
		return nil, err
	}
	vis, err := lookup(visibilities, "visibility", m.Visibility)
	if err != nil {
		return nil, err
	}
	return &ast.Method{
		SpanVal:        ast.Span{File: unit},
		Name:           ast.Id{Name: m.Name},
		Visibility:     vis,
		Static:         m.Static,
		Abstract:       m.Abstract,
		Final:          m.Final,
		TParams:        s.tparams,
		Params:         s.params,
		Ret:            s.ret,
		FunKind:        s.kind,
		Body:           s.body,
		Contexts:       m.Contexts,
		UserAttributes: s.attrs,
		DocComment:     m.Doc,
	}, nil
}

func (p *Property) convert(unit string) (ast.ClassVar, error) {
	vis, err := lookup(visibilities, "visibility", p.Visibility)
	if err != nil {
		return ast.ClassVar{}, err
	}
	h, err := ParseHint(p.Type)
	if err != nil {
		return ast.ClassVar{}, err
	}
	x, err := Expr(&p.Value)
	if err != nil {
		return ast.ClassVar{}, err
	}
	attrs, err := attributes(p.Attributes)
	if err != nil {
		return ast.ClassVar{}, err
	}
	return ast.ClassVar{
		SpanVal:        ast.Span{File: unit},
		Id:             ast.Id{Name: p.Name},
		Visibility:     vis,
		Static:         p.Static,
		Abstract:       p.Abstract,
		Readonly:       p.Readonly,
		Type:           h,
		Expr:           x,
		UserAttributes: attrs,
		DocComment:     p.Doc,
	}, nil
}

func (c *Class) convert(unit string) (*ast.Class, error) {
	kind, err := lookup(classKinds, "class kind", c.Kind)
	if err != nil {
		return nil, err
	}
	out := &ast.Class{
		SpanVal:    ast.Span{File: unit},
		Name:       ast.Id{Name: c.Name},
		Namespace:  ast.Namespace{Name: c.Namespace},
		Kind:       kind,
		Abstract:   c.Abstract,
		Final:      c.Final,
		DocComment: c.Doc,
	}
	if out.TParams, err = tparams(c.TParams); err != nil {
		return nil, err
	}
	if out.Extends, err = hints(c.Extends); err != nil {
		return nil, err
	}
	if out.Implements, err = hints(c.Implements); err != nil {
		return nil, err
	}
	if out.Uses, err = hints(c.Uses); err != nil {
		return nil, err
	}
	if out.UserAttributes, err = attributes(c.Attributes); err != nil {
		return nil, err
	}

	for _, r := range c.Requires {
		req := ast.Requirement{Kind: ast.RequireExtends}
		src := r.Extends
		if r.Implements != "" {
			req.Kind, src = ast.RequireImplements, r.Implements
		}
		if req.Hint, err = ParseHint(src); err != nil {
			return nil, err
		}
		if req.Hint == nil {
			return nil, fmt.Errorf("requirement names no type")
		}
		out.Reqs = append(out.Reqs, req)
	}

	for i := range c.Properties {
		cv, err := c.Properties[i].convert(unit)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", c.Properties[i].Name, err)
		}
		out.Vars = append(out.Vars, cv)
	}
	for i := range c.Consts {
		k := &c.Consts[i]
		x, err := Expr(&k.Value)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", k.Name, err)
		}
		out.Consts = append(out.Consts, ast.ConstDecl{
			SpanVal:  ast.Span{File: unit},
			Id:       ast.Id{Name: k.Name},
			Abstract: k.Abstract,
			Expr:     x,
		})
	}
	for _, tc := range c.TypeConsts {
		h, err := ParseHint(tc.Type)
		if err != nil {
			return nil, fmt.Errorf("type constant %s: %w", tc.Name, err)
		}
		out.TypeConsts = append(out.TypeConsts, ast.TypeConstDecl{
			SpanVal:  ast.Span{File: unit},
			Name:     ast.Id{Name: tc.Name},
			Abstract: tc.Abstract,
			Type:     h,
			IsCtx:    tc.Ctx,
			Contexts: tc.Contexts,
		})
	}
	for i := range c.Methods {
		m, err := c.Methods[i].convert(unit)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", c.Methods[i].Name, err)
		}
		out.Methods = append(out.Methods, m)
	}

	if c.Enum != nil {
		e := &ast.Enum{}
		if e.Base, err = ParseHint(c.Enum.Base); err != nil {
			return nil, err
		}
		if e.Constraint, err = ParseHint(c.Enum.Constraint); err != nil {
			return nil, err
		}
		if e.Includes, err = hints(c.Enum.Includes); err != nil {
			return nil, err
		}
		out.Enum = e
	}
	if c.XhpCategory != nil {
		out.XhpCategory = &ast.XhpCategory{Names: c.XhpCategory}
	}
	return out, nil
}
