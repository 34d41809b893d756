// Package decls answers declaration queries about classes that live
// outside the unit being lowered.
package decls

import (
	"errors"
	"strings"

	"github.com/chazu/hackemit/ast"
)

// ErrNotFound is returned when no declaration exists for a name.
var ErrNotFound = errors.New("declaration not found")

// TParam is the declared shape of a class type parameter.
type TParam struct {
	Name    string        `yaml:"name"`
	Reified ast.ReifyKind `yaml:"reified"`
}

// Class is the shallow declaration of a class.
type Class struct {
	Name    string   `yaml:"name"`
	TParams []TParam `yaml:"tparams"`
}

// HasReifiedGenerics reports whether any type parameter is reified.
func (c *Class) HasReifiedGenerics() bool {
	for _, tp := range c.TParams {
		if tp.Reified != ast.Erased {
			return true
		}
	}
	return false
}

// Provider looks up class declarations by fully-qualified name. Lookups
// are case-insensitive and must not mutate caller state.
type Provider interface {
	Class(name string) (*Class, error)
}

// Key normalizes a class name for lookup.
func Key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "\\"))
}

// Memory is an in-memory Provider.
type Memory struct {
	classes map[string]*Class
}

// NewMemory builds a provider over the given declarations.
func NewMemory(classes ...*Class) *Memory {
	m := &Memory{classes: make(map[string]*Class, len(classes))}
	for _, c := range classes {
		m.Add(c)
	}
	return m
}

// Add registers or replaces a declaration.
func (m *Memory) Add(c *Class) { m.classes[Key(c.Name)] = c }

// Class implements Provider.
func (m *Memory) Class(name string) (*Class, error) {
	if c, ok := m.classes[Key(name)]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

// None is a Provider that knows no declarations.
type None struct{}

// Class implements Provider.
func (None) Class(string) (*Class, error) { return nil, ErrNotFound }

// Chain consults each provider in order and returns the first
// declaration found.
type Chain []Provider

// Class implements Provider.
func (c Chain) Class(name string) (*Class, error) {
	for _, p := range c {
		d, err := p.Class(name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return d, err
	}
	return nil, ErrNotFound
}
