package hhbc

import "sort"

// SymbolKind classifies a referenced symbol.
type SymbolKind uint8

const (
	SymClass SymbolKind = iota
	SymFunction
	SymConstant
)

// SymbolRefs collects the names a unit refers to, so the loader can
// autoload them. Each set keeps its names unique.
type SymbolRefs struct {
	classes   map[string]struct{}
	functions map[string]struct{}
	constants map[string]struct{}
}

// Add records a reference.
func (s *SymbolRefs) Add(kind SymbolKind, name string) {
	if name == "" {
		return
	}
	var m *map[string]struct{}
	switch kind {
	case SymFunction:
		m = &s.functions
	case SymConstant:
		m = &s.constants
	default:
		m = &s.classes
	}
	if *m == nil {
		*m = make(map[string]struct{})
	}
	(*m)[name] = struct{}{}
}

// Has reports whether the name was recorded under kind.
func (s *SymbolRefs) Has(kind SymbolKind, name string) bool {
	var m map[string]struct{}
	switch kind {
	case SymFunction:
		m = s.functions
	case SymConstant:
		m = s.constants
	default:
		m = s.classes
	}
	_, ok := m[name]
	return ok
}

// Classes returns the referenced class names, sorted.
func (s *SymbolRefs) Classes() []string { return sorted(s.classes) }

// Functions returns the referenced function names, sorted.
func (s *SymbolRefs) Functions() []string { return sorted(s.functions) }

// Constants returns the referenced constant names, sorted.
func (s *SymbolRefs) Constants() []string { return sorted(s.constants) }

func sorted(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Unit owns every record emitted for one source file. Records are
// appended while lowering and released together with the unit.
type Unit struct {
	Path       string
	Classes    []*Class
	Functions  []*Function
	SymbolRefs SymbolRefs
}

// NewUnit creates an empty unit for the file at path.
func NewUnit(path string) *Unit { return &Unit{Path: path} }

// AddClass appends a lowered class.
func (u *Unit) AddClass(c *Class) { u.Classes = append(u.Classes, c) }

// AddFunctions appends lowered functions.
func (u *Unit) AddFunctions(fs ...*Function) { u.Functions = append(u.Functions, fs...) }

// Class returns the class with the given name, or nil.
func (u *Unit) Class(name string) *Class {
	for _, c := range u.Classes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Function returns the function with the given name, or nil.
func (u *Unit) Function(name string) *Function {
	for _, f := range u.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
