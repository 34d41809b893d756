package fixture

import (
	"fmt"
	"strings"

	"github.com/chazu/hackemit/ast"
)

var primHints = map[string]ast.Prim{
	"null":     ast.PrimNull,
	"void":     ast.PrimVoid,
	"int":      ast.PrimInt,
	"bool":     ast.PrimBool,
	"float":    ast.PrimFloat,
	"string":   ast.PrimString,
	"resource": ast.PrimResource,
	"num":      ast.PrimNum,
	"arraykey": ast.PrimArraykey,
	"noreturn": ast.PrimNoreturn,
}

// ParseHint reads a type hint written in source syntax: `?T`, `@T`, `~T`,
// tuples `(A, B)`, applied names `C<A, B>`, type-constant access `C::T`
// and the builtin primitive and special names. The empty string is no
// hint.
func ParseHint(src string) (ast.Hint, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	p := &hintParser{src: src}
	h, err := p.hint()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return h, nil
}

type hintParser struct {
	src string
	pos int
}

func (p *hintParser) errorf(format string, args ...any) error {
	return fmt.Errorf("hint %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *hintParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *hintParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '\\' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (p *hintParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *hintParser) hint() (ast.Hint, error) {
	switch {
	case p.accept("?"):
		inner, err := p.hint()
		if err != nil {
			return nil, err
		}
		return &ast.HOption{Inner: inner}, nil
	case p.accept("@"):
		inner, err := p.hint()
		if err != nil {
			return nil, err
		}
		return &ast.HSoft{Inner: inner}, nil
	case p.accept("~"):
		inner, err := p.hint()
		if err != nil {
			return nil, err
		}
		return &ast.HLike{Inner: inner}, nil
	case p.accept("("):
		elems, err := p.list(")")
		if err != nil {
			return nil, err
		}
		return &ast.HTuple{Elems: elems}, nil
	}

	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected a type")
	}
	var args []ast.Hint
	if p.accept("<") {
		var err error
		if args, err = p.list(">"); err != nil {
			return nil, err
		}
	}
	h, err := p.named(name, args)
	if err != nil {
		return nil, err
	}

	var names []ast.Id
	for p.accept("::") {
		n := p.ident()
		if n == "" {
			return nil, p.errorf("expected a type constant name")
		}
		names = append(names, ast.Id{Name: n})
	}
	if names != nil {
		return &ast.HAccess{Root: h, Names: names}, nil
	}
	return h, nil
}

func (p *hintParser) list(closer string) ([]ast.Hint, error) {
	var hs []ast.Hint
	if p.accept(closer) {
		return hs, nil
	}
	for {
		h, err := p.hint()
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
		if p.accept(",") {
			continue
		}
		if p.accept(closer) {
			return hs, nil
		}
		return nil, p.errorf("expected %q", closer)
	}
}

func (p *hintParser) named(name string, args []ast.Hint) (ast.Hint, error) {
	lower := strings.ToLower(name)
	if prim, ok := primHints[lower]; ok && args == nil {
		return &ast.HPrim{Prim: prim}, nil
	}
	if args == nil {
		switch lower {
		case "mixed":
			return &ast.HMixed{}, nil
		case "nonnull":
			return &ast.HNonnull{}, nil
		case "this":
			return &ast.HThis{}, nil
		case "nothing":
			return &ast.HNothing{}, nil
		case "dynamic":
			return &ast.HDynamic{}, nil
		}
	}
	if lower == "vec_or_dict" {
		switch len(args) {
		case 1:
			return &ast.HVecOrDict{Value: args[0]}, nil
		case 2:
			return &ast.HVecOrDict{Key: args[0], Value: args[1]}, nil
		}
		return nil, p.errorf("vec_or_dict takes one or two type arguments")
	}
	return &ast.HApply{Name: ast.Id{Name: name}, Args: args}, nil
}
