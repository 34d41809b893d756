// Package fixture reads YAML descriptions of already type-checked units:
// the classes and functions to lower plus the outside declarations they
// refer to.
package fixture

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is one fixture document.
type File struct {
	// Unit is the source path recorded on the lowered unit.
	Unit string `yaml:"unit"`

	// Decls are declarations of classes defined elsewhere, consulted for
	// reified-generics probes.
	Decls []Decl `yaml:"decls,omitempty"`

	Classes   []Class    `yaml:"classes,omitempty"`
	Functions []Function `yaml:"functions,omitempty"`
}

// Decl is the shallow declaration of an outside class.
type Decl struct {
	Name    string   `yaml:"name"`
	TParams []TParam `yaml:"tparams,omitempty"`
}

// TParam is a generic type parameter. Reified is one of "", "erased",
// "soft" or "reified".
type TParam struct {
	Name    string `yaml:"name"`
	Reified string `yaml:"reified,omitempty"`
	As      string `yaml:"as,omitempty"`
}

// Attribute is a user attribute; Args are expressions.
type Attribute struct {
	Name string      `yaml:"name"`
	Args []yaml.Node `yaml:"args,omitempty"`
}

// Param is a function or method parameter.
type Param struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type,omitempty"`
	Default     yaml.Node   `yaml:"default,omitempty"`
	Variadic    bool        `yaml:"variadic,omitempty"`
	Inout       bool        `yaml:"inout,omitempty"`
	Readonly    bool        `yaml:"readonly,omitempty"`
	IdentityKey bool        `yaml:"identity_key,omitempty"`
	Attributes  []Attribute `yaml:"attributes,omitempty"`
}

// Function is a top-level function. Kind is one of "", "sync", "async",
// "generator" or "async_generator".
type Function struct {
	Name       string      `yaml:"name"`
	Namespace  string      `yaml:"namespace,omitempty"`
	Kind       string      `yaml:"kind,omitempty"`
	TParams    []TParam    `yaml:"tparams,omitempty"`
	Params     []Param     `yaml:"params,omitempty"`
	Ret        string      `yaml:"ret,omitempty"`
	Body       []yaml.Node `yaml:"body,omitempty"`
	Contexts   []string    `yaml:"contexts,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Doc        string      `yaml:"doc,omitempty"`
}

// Method is an explicit method.
type Method struct {
	Name       string      `yaml:"name"`
	Visibility string      `yaml:"visibility,omitempty"`
	Static     bool        `yaml:"static,omitempty"`
	Abstract   bool        `yaml:"abstract,omitempty"`
	Final      bool        `yaml:"final,omitempty"`
	Kind       string      `yaml:"kind,omitempty"`
	TParams    []TParam    `yaml:"tparams,omitempty"`
	Params     []Param     `yaml:"params,omitempty"`
	Ret        string      `yaml:"ret,omitempty"`
	Body       []yaml.Node `yaml:"body,omitempty"`
	Contexts   []string    `yaml:"contexts,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Doc        string      `yaml:"doc,omitempty"`
}

// Property is a property declaration.
type Property struct {
	Name       string      `yaml:"name"`
	Visibility string      `yaml:"visibility,omitempty"`
	Static     bool        `yaml:"static,omitempty"`
	Abstract   bool        `yaml:"abstract,omitempty"`
	Readonly   bool        `yaml:"readonly,omitempty"`
	Type       string      `yaml:"type,omitempty"`
	Value      yaml.Node   `yaml:"value,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
	Doc        string      `yaml:"doc,omitempty"`
}

// Const is a class constant.
type Const struct {
	Name     string    `yaml:"name"`
	Abstract bool      `yaml:"abstract,omitempty"`
	Value    yaml.Node `yaml:"value,omitempty"`
}

// TypeConst is a type constant, or a context constant when Ctx is set.
type TypeConst struct {
	Name     string   `yaml:"name"`
	Abstract bool     `yaml:"abstract,omitempty"`
	Type     string   `yaml:"type,omitempty"`
	Ctx      bool     `yaml:"ctx,omitempty"`
	Contexts []string `yaml:"contexts,omitempty"`
}

// Require is a trait or interface requirement; exactly one field is set.
type Require struct {
	Extends    string `yaml:"extends,omitempty"`
	Implements string `yaml:"implements,omitempty"`
}

// Enum holds the enum-specific parts of a class.
type Enum struct {
	Base       string   `yaml:"base"`
	Constraint string   `yaml:"constraint,omitempty"`
	Includes   []string `yaml:"includes,omitempty"`
}

// Class is a class-like declaration. Kind is one of "", "class",
// "interface", "trait", "enum" or "enum_class".
type Class struct {
	Name        string      `yaml:"name"`
	Namespace   string      `yaml:"namespace,omitempty"`
	Kind        string      `yaml:"kind,omitempty"`
	Abstract    bool        `yaml:"abstract,omitempty"`
	Final       bool        `yaml:"final,omitempty"`
	TParams     []TParam    `yaml:"tparams,omitempty"`
	Extends     []string    `yaml:"extends,omitempty"`
	Implements  []string    `yaml:"implements,omitempty"`
	Uses        []string    `yaml:"uses,omitempty"`
	Requires    []Require   `yaml:"requires,omitempty"`
	Properties  []Property  `yaml:"properties,omitempty"`
	Consts      []Const     `yaml:"consts,omitempty"`
	TypeConsts  []TypeConst `yaml:"type_consts,omitempty"`
	Methods     []Method    `yaml:"methods,omitempty"`
	Attributes  []Attribute `yaml:"attributes,omitempty"`
	Enum        *Enum       `yaml:"enum,omitempty"`
	XhpCategory []string    `yaml:"xhp_category,omitempty"`
	Doc         string      `yaml:"doc,omitempty"`
}

// Load reads and parses a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes fixture text, rejecting unknown fields. name becomes the
// unit path when the document does not set one.
func Parse(name string, data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if f.Unit == "" {
		f.Unit = name
	}
	return &f, nil
}
