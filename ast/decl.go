package ast

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// ClassKind classifies a class-like declaration.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
	KindEnumClass
)

// IsEnumLike reports whether the kind is an enum or enum class.
func (k ClassKind) IsEnumLike() bool { return k == KindEnum || k == KindEnumClass }

// Visibility of a member.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
	Internal
)

// FunKind distinguishes synchronous, asynchronous and generator bodies.
type FunKind int

const (
	FSync FunKind = iota
	FAsync
	FGenerator
	FAsyncGenerator
)

// IsAsync reports whether the body is an async function (not a generator).
func (k FunKind) IsAsync() bool { return k == FAsync }

// MemoKeyCoercion controls how a memoized parameter becomes a cache key.
type MemoKeyCoercion int

const (
	// MemoKeyAuto runs the parameter through the VM's memo-key conversion.
	MemoKeyAuto MemoKeyCoercion = iota
	// MemoKeyIdentity uses the parameter value as-is; only valid for
	// parameters already restricted to int or string.
	MemoKeyIdentity
)

// FunParam is a declared function or method parameter.
type FunParam struct {
	SpanVal        Span
	Name           string
	Hint           Hint
	Default        Expr
	IsVariadic     bool
	IsInout        bool
	IsReadonly     bool
	UserAttributes []UserAttribute
	MemoizeKey     MemoKeyCoercion
}

func (n *FunParam) Span() Span { return n.SpanVal }
func (n *FunParam) node()      {}

// Method is an explicit method declaration.
type Method struct {
	SpanVal        Span
	Name           Id
	Visibility     Visibility
	Static         bool
	Abstract       bool
	Final          bool
	TParams        []TParam
	Params         []FunParam
	Ret            Hint
	FunKind        FunKind
	Body           []Stmt
	Contexts       []string // nil means the default capability set
	UserAttributes []UserAttribute
	DocComment     string
	ReadonlyRet    bool
}

func (n *Method) Span() Span { return n.SpanVal }
func (n *Method) node()      {}

// FunDef is a top-level function declaration.
type FunDef struct {
	SpanVal        Span
	Name           Id
	Namespace      Namespace
	TParams        []TParam
	Params         []FunParam
	Ret            Hint
	FunKind        FunKind
	Body           []Stmt
	Contexts       []string
	UserAttributes []UserAttribute
	DocComment     string
	ReadonlyRet    bool
}

func (n *FunDef) Span() Span { return n.SpanVal }
func (n *FunDef) node()      {}

// ClassVar is a property declaration.
type ClassVar struct {
	SpanVal            Span
	Id                 Id
	Visibility         Visibility
	Static             bool
	Abstract           bool
	Readonly           bool
	Type               Hint
	Expr               Expr
	UserAttributes     []UserAttribute
	DocComment         string
	IsPromotedVariadic bool
}

// ConstDecl is a class constant declaration. Abstract constants may carry a
// default that is ignored by lowering.
type ConstDecl struct {
	SpanVal  Span
	Id       Id
	Abstract bool
	Expr     Expr
}

// TypeConstDecl is a type constant or, when IsCtx is set, a context
// constant.
type TypeConstDecl struct {
	SpanVal  Span
	Name     Id
	Abstract bool
	Type     Hint // nil for abstract constants without a default
	IsCtx    bool
	Contexts []string // for ctx constants; nil when abstract without default
}

// UseModifier adjusts a trait method imported through an alias.
type UseModifier int

const (
	UsePublic UseModifier = iota
	UseProtected
	UsePrivate
	UseFinal
)

// UseAsAlias is `use T { T::m as [visibility] n; }`.
type UseAsAlias struct {
	Trait     *Id
	Method    Id
	Alias     *Id
	Modifiers []UseModifier
}

// InsteadofAlias is `use T { T::m insteadof U, V; }`.
type InsteadofAlias struct {
	Trait    Id
	Method   Id
	Excluded []Id
}

// RequireKind distinguishes trait requirements.
type RequireKind int

const (
	RequireExtends RequireKind = iota
	RequireImplements
)

// Requirement is `require extends C;` or `require implements I;`.
type Requirement struct {
	Hint Hint
	Kind RequireKind
}

// Enum carries the enum-specific parts of a class declaration.
type Enum struct {
	Base       Hint
	Constraint Hint
	Includes   []Hint
}

// ---------------------------------------------------------------------------
// XHP
// ---------------------------------------------------------------------------

// XhpAttrTag marks an XHP attribute as required or late-initialized.
type XhpAttrTag int

const (
	XhpAttrNone XhpAttrTag = iota
	XhpAttrRequired
	XhpAttrLateInit
)

// XhpAttr is one `attribute T name = default @required;` entry.
type XhpAttr struct {
	Type Hint
	Var  ClassVar
	Tag  XhpAttrTag
	Enum []Expr // enum { ... } values, nil when not an enum attribute
}

// XhpChildKind classifies an XHP children pattern node.
type XhpChildKind int

const (
	XhpChildName XhpChildKind = iota
	XhpChildList
	XhpChildAlternative
	XhpChildUnary
)

// XhpChild is a node of a children declaration pattern.
type XhpChild struct {
	Kind     XhpChildKind
	Name     string
	Op       string // "*", "+" or "?" for unary nodes
	Children []XhpChild
}

// XhpChildren is a `children ...;` declaration.
type XhpChildren struct {
	SpanVal Span
	Empty   bool
	Any     bool
	Pattern *XhpChild
}

// XhpCategory is a `category %a, %b;` declaration.
type XhpCategory struct {
	SpanVal Span
	Names   []string
}

// Class is a class-like declaration.
type Class struct {
	SpanVal          Span
	Name             Id
	Namespace        Namespace
	Kind             ClassKind
	Abstract         bool
	Final            bool
	TParams          []TParam
	Extends          []Hint
	Implements       []Hint
	Uses             []Hint
	UseAsAliases     []UseAsAlias
	InsteadofAliases []InsteadofAlias
	Reqs             []Requirement
	Vars             []ClassVar
	Consts           []ConstDecl
	TypeConsts       []TypeConstDecl
	Methods          []*Method
	UserAttributes   []UserAttribute
	Enum             *Enum
	XhpAttrs         []XhpAttr
	XhpAttrUses      []Hint
	XhpCategory      *XhpCategory
	XhpChildren      *XhpChildren
	DocComment       string
}

func (n *Class) Span() Span { return n.SpanVal }
func (n *Class) node()      {}

// Program is the ordered list of top-level declarations of one file.
type Program struct {
	Classes   []*Class
	Functions []*FunDef
}
