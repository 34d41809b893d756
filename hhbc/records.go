package hhbc

// ---------------------------------------------------------------------------
// Emitted records
// ---------------------------------------------------------------------------

// Span is the line range of a declaration.
type Span struct {
	Line1 int `cbor:"l1"`
	Line2 int `cbor:"l2"`
}

// Visibility of a method or property.
type Visibility uint8

const (
	VisPublic Visibility = iota
	VisProtected
	VisPrivate
	VisInternal
)

// Attr returns the attribute bit for the visibility.
func (v Visibility) Attr() Attr {
	switch v {
	case VisProtected:
		return AttrProtected
	case VisPrivate:
		return AttrPrivate
	default:
		return AttrPublic
	}
}

// TypeConstraintFlags refine a type constraint.
type TypeConstraintFlags uint16

const (
	TCNullable TypeConstraintFlags = 1 << iota
	TCExtendedHint
	TCTypeVar
	TCSoft
	TCTypeConstant
	TCDisplayNullable
	TCUpperBound
)

// Constraint is the runtime-checked part of a type annotation. An empty
// Name means "no runtime check".
type Constraint struct {
	Name  string              `cbor:"n,omitempty"`
	Flags TypeConstraintFlags `cbor:"f,omitempty"`
}

// TypeInfo pairs the user-visible spelling with its runtime constraint.
type TypeInfo struct {
	UserType   string     `cbor:"u,omitempty"`
	Constraint Constraint `cbor:"c"`
}

// Attribute is an emitted user attribute with folded arguments.
type Attribute struct {
	Name string       `cbor:"n"`
	Args []TypedValue `cbor:"a,omitempty"`
}

// DefaultValue records where a parameter's default-value setter starts.
type DefaultValue struct {
	Label Label  `cbor:"l"`
	Expr  string `cbor:"e"`
}

// Param is an emitted parameter.
type Param struct {
	Name           string        `cbor:"n"`
	IsVariadic     bool          `cbor:"v,omitempty"`
	IsInout        bool          `cbor:"io,omitempty"`
	IsReadonly     bool          `cbor:"ro,omitempty"`
	UserAttributes []Attribute   `cbor:"ua,omitempty"`
	TypeInfo       *TypeInfo     `cbor:"t,omitempty"`
	DefaultValue   *DefaultValue `cbor:"d,omitempty"`
}

// Coeffects is the capability set required to call a function.
type Coeffects struct {
	Static     []string `cbor:"s,omitempty"`
	Unenforced []string `cbor:"u,omitempty"`
}

// PureCoeffects is the empty capability set.
func PureCoeffects() Coeffects { return Coeffects{Static: []string{"pure"}} }

// DefaultCoeffects is the capability set of unannotated code.
func DefaultCoeffects() Coeffects { return Coeffects{Static: []string{"defaults"}} }

// UpperBound lists the constraints of one type parameter.
type UpperBound struct {
	Name   string     `cbor:"n"`
	Bounds []TypeInfo `cbor:"b"`
}

// Body is a lowered function or method body.
type Body struct {
	Instrs              InstrSeq     `cbor:"i"`
	DeclVars            []string     `cbor:"dv,omitempty"`
	NumIters            int          `cbor:"it,omitempty"`
	NumClosures         int          `cbor:"cl,omitempty"`
	NumUnnamedLocals    int          `cbor:"ul,omitempty"` // generated locals past params and DeclVars
	IsMemoizeWrapper    bool         `cbor:"mw,omitempty"`
	IsMemoizeWrapperLSB bool         `cbor:"ml,omitempty"`
	UpperBounds         []UpperBound `cbor:"ub,omitempty"`
	ShadowedTParams     []string     `cbor:"st,omitempty"`
	Params              []Param      `cbor:"p,omitempty"`
	ReturnType          *TypeInfo    `cbor:"r,omitempty"`
	DocComment          string       `cbor:"doc,omitempty"`
}

// MethodFlags describe the kind of body.
type MethodFlags uint8

const (
	MethodIsAsync MethodFlags = 1 << iota
	MethodIsGenerator
	MethodIsPairGenerator
	MethodIsClosureBody
)

// Method is a lowered method.
type Method struct {
	Attributes []Attribute `cbor:"ua,omitempty"`
	Visibility Visibility  `cbor:"vis"`
	Name       string      `cbor:"n"`
	Body       Body        `cbor:"b"`
	Span       Span        `cbor:"sp"`
	Coeffects  Coeffects   `cbor:"co"`
	Flags      MethodFlags `cbor:"f,omitempty"`
	Attrs      Attr        `cbor:"a"`
}

// Function is a lowered top-level function.
type Function struct {
	Attributes []Attribute `cbor:"ua,omitempty"`
	Name       string      `cbor:"n"`
	Body       Body        `cbor:"b"`
	Span       Span        `cbor:"sp"`
	Coeffects  Coeffects   `cbor:"co"`
	Flags      MethodFlags `cbor:"f,omitempty"`
	Attrs      Attr        `cbor:"a"`
}

// Property is a lowered property. At most one of InitialValue and
// Initializer is set; a nil Initializer means there is none.
type Property struct {
	Name         string      `cbor:"n"`
	Attrs        Attr        `cbor:"a"`
	Attributes   []Attribute `cbor:"ua,omitempty"`
	Visibility   Visibility  `cbor:"vis"`
	InitialValue *TypedValue `cbor:"v,omitempty"`
	Initializer  InstrSeq    `cbor:"i,omitempty"`
	TypeInfo     TypeInfo    `cbor:"t"`
	DocComment   string      `cbor:"doc,omitempty"`
}

// IsStatic reports whether the property is static.
func (p *Property) IsStatic() bool { return p.Attrs.Has(AttrStatic) }

// IsLSB reports whether the property is late-static-bound.
func (p *Property) IsLSB() bool { return p.Attrs.Has(AttrLSB) }

// Constant is a lowered class constant. Same exclusivity as Property;
// abstract constants carry neither a value nor an initializer.
type Constant struct {
	Name        string      `cbor:"n"`
	Value       *TypedValue `cbor:"v,omitempty"`
	Initializer InstrSeq    `cbor:"i,omitempty"`
	IsAbstract  bool        `cbor:"ab,omitempty"`
}

// TypeConstant is a lowered type constant.
type TypeConstant struct {
	Name        string      `cbor:"n"`
	Initializer *TypedValue `cbor:"i,omitempty"`
	IsAbstract  bool        `cbor:"ab,omitempty"`
}

// CtxConstant is a lowered context constant.
type CtxConstant struct {
	Name         string   `cbor:"n"`
	Recognized   []string `cbor:"r,omitempty"`
	Unrecognized []string `cbor:"u,omitempty"`
	IsAbstract   bool     `cbor:"ab,omitempty"`
}

// TraitReqKind distinguishes trait requirements.
type TraitReqKind uint8

const (
	MustExtend TraitReqKind = iota
	MustImplement
)

// Requirement is a `require extends`/`require implements` edge.
type Requirement struct {
	Name string       `cbor:"n"`
	Kind TraitReqKind `cbor:"k"`
}

// UseAlias is a trait method alias; empty Trait or Alias mean absent.
type UseAlias struct {
	Trait  string `cbor:"t,omitempty"`
	Method string `cbor:"m"`
	Alias  string `cbor:"a,omitempty"`
	Attrs  Attr   `cbor:"at,omitempty"`
}

// UsePrecedence is a trait `insteadof` edge.
type UsePrecedence struct {
	Trait    string   `cbor:"t"`
	Method   string   `cbor:"m"`
	Excluded []string `cbor:"x"`
}

// Class is a lowered class, interface, trait or enum.
type Class struct {
	Attributes     []Attribute     `cbor:"ua,omitempty"`
	Base           string          `cbor:"base,omitempty"` // empty when there is no base class
	Implements     []string        `cbor:"impl,omitempty"`
	EnumIncludes   []string        `cbor:"einc,omitempty"`
	Name           string          `cbor:"n"`
	Span           Span            `cbor:"sp"`
	Uses           []string        `cbor:"uses,omitempty"`
	UseAliases     []UseAlias      `cbor:"ual,omitempty"`
	UsePrecedences []UsePrecedence `cbor:"upr,omitempty"`
	EnumType       *TypeInfo       `cbor:"et,omitempty"`
	Methods        []*Method       `cbor:"m,omitempty"`
	Properties     []*Property     `cbor:"p,omitempty"`
	Constants      []*Constant     `cbor:"c,omitempty"`
	TypeConstants  []*TypeConstant `cbor:"tc,omitempty"`
	CtxConstants   []*CtxConstant  `cbor:"cc,omitempty"`
	Requirements   []Requirement   `cbor:"req,omitempty"`
	UpperBounds    []UpperBound    `cbor:"ub,omitempty"`
	DocComment     string          `cbor:"doc,omitempty"`
	Flags          Attr            `cbor:"a"`
}

// Method returns the method with the given name, or nil.
func (c *Class) Method(name string) *Method {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// MethodNames lists the method names in emission order.
func (c *Class) MethodNames() []string {
	names := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		names[i] = m.Name
	}
	return names
}

// Property returns the property with the given name, or nil.
func (c *Class) Property(name string) *Property {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}
