// Package emitter lowers class and function declarations to bytecode
// records: explicit and synthesized methods, property and constant
// initializers, memoize wrappers and reified-generics bootstrap code.
package emitter

import (
	"github.com/tliron/commonlog"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/config"
	"github.com/chazu/hackemit/decls"
	"github.com/chazu/hackemit/hhbc"
)

var log = commonlog.GetLogger("hackemit.emitter")

// ---------------------------------------------------------------------------
// Emitter: per-unit emission context
// ---------------------------------------------------------------------------

// Emitter carries the options, collaborators and counters for lowering one
// compilation unit. It is not safe for concurrent use; lower independent
// units with independent emitters.
type Emitter struct {
	opts  *config.Options
	decls decls.Provider
	lower Lowerer

	// Per-body counters
	labels LabelGen
	locals LocalGen
	iters  IterGen

	unit *hhbc.Unit // receives symbol references while lowering
}

// New creates an emitter. A nil provider knows no declarations and a nil
// lowerer defaults to BasicLowerer.
func New(opts *config.Options, provider decls.Provider, lower Lowerer) *Emitter {
	if opts == nil {
		opts = config.Default()
	}
	if provider == nil {
		provider = decls.None{}
	}
	if lower == nil {
		lower = BasicLowerer{}
	}
	return &Emitter{opts: opts, decls: provider, lower: lower}
}

// Options returns the compilation options.
func (e *Emitter) Options() *config.Options { return e.opts }

// Systemlib reports whether the builtin library is being compiled.
func (e *Emitter) Systemlib() bool { return e.opts.Compiler.Systemlib }

// Labels returns the label generator of the body being emitted.
func (e *Emitter) Labels() *LabelGen { return &e.labels }

// Locals returns the unnamed-local generator of the body being emitted.
func (e *Emitter) Locals() *LocalGen { return &e.locals }

// Iters returns the iterator generator of the body being emitted.
func (e *Emitter) Iters() *IterGen { return &e.iters }

// AddSymbol records a symbol reference on the current unit.
func (e *Emitter) AddSymbol(kind hhbc.SymbolKind, name string) {
	if e.unit != nil {
		e.unit.SymbolRefs.Add(kind, name)
	}
}

// startBody resets the per-body counters.
func (e *Emitter) startBody() {
	e.labels.Reset()
	e.locals.Reset()
	e.iters.Reset()
}

// EmitProgram lowers every declaration of a file into a new unit.
func (e *Emitter) EmitProgram(path string, prog *ast.Program) (*hhbc.Unit, error) {
	u := hhbc.NewUnit(path)
	for _, c := range prog.Classes {
		if _, err := e.EmitClass(u, c); err != nil {
			return nil, err
		}
	}
	for _, fd := range prog.Functions {
		if _, err := e.EmitFunction(u, fd); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// ---------------------------------------------------------------------------
// Counters
// ---------------------------------------------------------------------------

// LabelGen mints labels that are unique within one body. The first label
// is L1.
type LabelGen struct {
	next hhbc.Label
}

// Next returns a fresh label.
func (g *LabelGen) Next() hhbc.Label {
	g.next++
	return g.next
}

// Reset restarts numbering for a fresh body.
func (g *LabelGen) Reset() { g.next = 0 }

// LocalGen mints compiler-generated local slots.
type LocalGen struct {
	next uint32
}

// ResetFrom restarts numbering at base, the first slot after named locals.
func (g *LocalGen) ResetFrom(base uint32) { g.next = base }

// Reset restarts numbering at zero.
func (g *LocalGen) Reset() { g.next = 0 }

// Next returns a fresh unnamed local.
func (g *LocalGen) Next() hhbc.Local {
	l := hhbc.Unnamed(g.next)
	g.next++
	return l
}

// IterGen counts iterator slots used by a body.
type IterGen struct {
	next int
}

// Next returns a fresh iterator id.
func (g *IterGen) Next() int {
	id := g.next
	g.next++
	return id
}

// Count is the number of iterators handed out since the last reset.
func (g *IterGen) Count() int { return g.next }

// Reset restarts numbering.
func (g *IterGen) Reset() { g.next = 0 }
