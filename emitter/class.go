package emitter

import (
	"strings"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// Names no class may take, in any namespace.
var reservedGlobalNames = map[string]bool{
	"array":    true,
	"callable": true,
	"self":     true,
	"parent":   true,
	"static":   true,
}

// Names reserved for builtin types, checked in the global and HH
// namespaces only.
var reservedHHNames = map[string]bool{
	"void":     true,
	"noreturn": true,
	"int":      true,
	"bool":     true,
	"float":    true,
	"num":      true,
	"string":   true,
	"resource": true,
	"mixed":    true,
	"arraykey": true,
	"dynamic":  true,
	"_":        true,
	"null":     true,
	"nonnull":  true,
	"nothing":  true,
	"this":     true,
}

func validateClassName(c *ast.Class) error {
	full := c.Name.Name
	if strings.Contains(full, "$") {
		return nil
	}
	name := stripNS(full)
	lower := strings.ToLower(name)
	if reservedGlobalNames[lower] {
		return parseFatal(c.Name.Pos, "Cannot use '%s' as class name as it is reserved", name)
	}
	checkHH := c.Namespace.IsGlobal() || c.Namespace.IsHH()
	if checkHH && reservedHHNames[lower] {
		return parseFatal(c.Name.Pos, "Cannot use '%s' as class name as it is reserved", stripGlobalNS(full))
	}
	return nil
}

// baseClass picks the parent class. Enums extend a builtin base;
// interfaces have none.
func baseClass(c *ast.Class, hasEnumType bool) string {
	switch {
	case c.Kind == ast.KindInterface:
		return ""
	case hasEnumType && c.Kind == ast.KindEnumClass && c.Abstract:
		return "HH\\BuiltinAbstractEnumClass"
	case hasEnumType && c.Kind == ast.KindEnumClass:
		return "HH\\BuiltinEnumClass"
	case hasEnumType:
		return "HH\\BuiltinEnum"
	case len(c.Extends) > 0:
		return hintToClass(c.Extends[0])
	}
	return ""
}

func hintsToClasses(hs []ast.Hint) []string {
	if len(hs) == 0 {
		return nil
	}
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = hintToClass(h)
	}
	return out
}

// traitUses lists used traits once each, in first-occurrence order.
func traitUses(c *ast.Class) ([]string, error) {
	var uses []string
	seen := make(map[string]bool)
	for _, h := range c.Uses {
		a, ok := ast.AsApply(h)
		if !ok {
			continue
		}
		if c.Kind == ast.KindInterface {
			return nil, parseFatal(h.Span(), "Interfaces cannot use traits")
		}
		name := stripGlobalNS(a.Name.Name)
		if !seen[name] {
			seen[name] = true
			uses = append(uses, name)
		}
	}
	return uses, nil
}

var useModifierAttrs = map[ast.UseModifier]hhbc.Attr{
	ast.UsePublic:    hhbc.AttrPublic,
	ast.UseProtected: hhbc.AttrProtected,
	ast.UsePrivate:   hhbc.AttrPrivate,
	ast.UseFinal:     hhbc.AttrFinal,
}

func useAliases(c *ast.Class) []hhbc.UseAlias {
	var out []hhbc.UseAlias
	for _, ua := range c.UseAsAliases {
		alias := hhbc.UseAlias{Method: ua.Method.Name}
		if ua.Trait != nil {
			alias.Trait = stripGlobalNS(ua.Trait.Name)
		}
		if ua.Alias != nil {
			alias.Alias = ua.Alias.Name
		}
		for _, mod := range ua.Modifiers {
			alias.Attrs |= useModifierAttrs[mod]
		}
		out = append(out, alias)
	}
	return out
}

func usePrecedences(c *ast.Class) []hhbc.UsePrecedence {
	var out []hhbc.UsePrecedence
	for _, ia := range c.InsteadofAliases {
		excluded := make([]string, len(ia.Excluded))
		for i, id := range ia.Excluded {
			excluded[i] = stripGlobalNS(id.Name)
		}
		out = append(out, hhbc.UsePrecedence{
			Trait:    stripGlobalNS(ia.Trait.Name),
			Method:   ia.Method.Name,
			Excluded: excluded,
		})
	}
	return out
}

func requirements(c *ast.Class) []hhbc.Requirement {
	var out []hhbc.Requirement
	for _, r := range c.Reqs {
		kind := hhbc.MustExtend
		if r.Kind == ast.RequireImplements {
			kind = hhbc.MustImplement
		}
		out = append(out, hhbc.Requirement{Name: hintToClass(r.Hint), Kind: kind})
	}
	return out
}

func enumType(c *ast.Class) *hhbc.TypeInfo {
	if !c.Kind.IsEnumLike() || c.Enum == nil {
		return nil
	}
	return &hhbc.TypeInfo{
		UserType:   fmtHint(c.Enum.Base),
		Constraint: hhbc.Constraint{Flags: hhbc.TCExtendedHint},
	}
}

// EmitClass lowers a class-like declaration and adds it to u.
func (e *Emitter) EmitClass(u *hhbc.Unit, c *ast.Class) (*hhbc.Class, error) {
	e.unit = u
	if err := validateClassName(c); err != nil {
		return nil, err
	}
	env := classEnv(c)
	name := env.ClassName
	isClosure := isClosureClass(name)
	isInterface := c.Kind == ast.KindInterface
	isTrait := c.Kind == ast.KindTrait
	log.Debugf("lowering class %s", name)

	attributes, err := emitAttributes(c.UserAttributes)
	if err != nil {
		return nil, err
	}
	if !isClosure {
		if a, ok := reifiedAttribute(c.TParams); ok {
			attributes = append(attributes, a)
		}
		a, ok, err := reifiedParentAttribute(env, c.Extends)
		if err != nil {
			return nil, err
		}
		if ok {
			attributes = append(attributes, a)
		}
	}
	isConst := hasAttribute(attributes, ast.AttrConst)

	uses, err := traitUses(c)
	if err != nil {
		return nil, err
	}
	et := enumType(c)
	base := baseClass(c, et != nil)
	if !isClosure && strings.EqualFold(base, "Closure") {
		return nil, runtimeFatal(c.Name.Pos, "Class cannot extend Closure")
	}
	implements := hintsToClasses(c.Implements)
	if isInterface {
		implements = hintsToClasses(c.Extends)
	}
	var enumIncludes []string
	if c.Kind.IsEnumLike() && c.Enum != nil {
		enumIncludes = hintsToClasses(c.Enum.Includes)
	}
	sp := span(c.SpanVal)

	var additional []*hhbc.Method
	if c.XhpCategory != nil {
		additional = append(additional, e.xhpCategoryDeclaration(c))
	}
	if c.XhpChildren != nil {
		m, err := e.xhpChildrenDeclaration(c)
		if err != nil {
			return nil, err
		}
		additional = append(additional, m)
	}
	hasXhpAttrs := len(c.XhpAttrs) > 0 || len(c.XhpAttrUses) > 0
	if hasXhpAttrs {
		m, err := e.xhpAttributeDeclaration(c)
		if err != nil {
			return nil, err
		}
		additional = append(additional, m)
	}

	// Initializer labels are numbered across the whole class.
	e.labels.Reset()
	var props []*hhbc.Property
	for i := range c.Vars {
		p, err := e.emitProperty(env, c, &c.Vars[i], isConst, isClosure)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	var consts []*hhbc.Constant
	for i := range c.Consts {
		k, err := e.emitConstant(env, &c.Consts[i])
		if err != nil {
			return nil, err
		}
		consts = append(consts, k)
	}
	reqs := requirements(c)

	pinit := e.initMethod(pinitName, props, isInstanceProp, sp)
	sinit := e.initMethod(sinitName, props, isStaticProp, sp)
	linit := e.initMethod(linitName, props, isLSBProp, sp)

	var cinit *hhbc.Method
	var cases []cinitCase
	for _, k := range consts {
		if k.Initializer != nil {
			cases = append(cases, cinitCase{name: k.Name, label: e.labels.Next(), init: k.Initializer})
		}
	}
	if len(cases) > 0 {
		cinit = e.cinitMethod(c, cases, e.labels.Next())
	}

	var reifiedInit *hhbc.Method
	if !(e.Systemlib() || isClosure || isInterface || isTrait) && needsReifiedInit(c) {
		if reifiedInit, err = e.reifiedInitMethod(env, c); err != nil {
			return nil, err
		}
	}
	noReifiedInit := reifiedInit != nil && len(c.Extends) == 0
	for _, m := range []*hhbc.Method{reifiedInit, pinit, sinit, linit, cinit} {
		if m != nil {
			additional = append(additional, m)
		}
	}

	var methods []*hhbc.Method
	for _, m := range c.Methods {
		hm, err := e.emitMethod(env, c, m)
		if err != nil {
			return nil, err
		}
		methods = append(methods, hm)
	}
	methods = append(methods, additional...)
	for _, m := range c.Methods {
		if !ast.IsMemoize(m.UserAttributes) {
			continue
		}
		w, err := e.emitMemoizeMethod(env, c, m)
		if err != nil {
			return nil, err
		}
		methods = append(methods, w)
	}

	var typeConsts []*hhbc.TypeConstant
	var ctxConsts []*hhbc.CtxConstant
	for i := range c.TypeConsts {
		tc := &c.TypeConsts[i]
		if tc.IsCtx {
			ctxConsts = append(ctxConsts, emitCtxConstant(tc))
			continue
		}
		k, err := emitTypeConstant(tc)
		if err != nil {
			return nil, err
		}
		typeConsts = append(typeConsts, k)
	}
	if hasXhpAttrs {
		props = append(props, xhpCacheProperty())
	}

	closureBody := false
	for _, m := range methods {
		if m.Flags&hhbc.MethodIsClosureBody != 0 {
			closureBody = true
			break
		}
	}
	systemlib := e.Systemlib()
	enumClass := c.Kind == ast.KindEnumClass || hasAttribute(attributes, ast.AttrEnumClass)
	var flags hhbc.Attr
	flags.Set(hhbc.AttrAbstract, c.Abstract)
	flags.Set(hhbc.AttrBuiltin|hhbc.AttrPersistent|hhbc.AttrUnique, systemlib)
	flags.Set(hhbc.AttrFinal, c.Final || isTrait)
	flags.Set(hhbc.AttrForbidDynamicProps|hhbc.AttrIsConst, isConst)
	flags.Set(hhbc.AttrInterface, isInterface)
	flags.Set(hhbc.AttrTrait, isTrait)
	flags.Set(hhbc.AttrNoOverride, closureBody)
	flags.Set(hhbc.AttrNoReifiedInit, noReifiedInit)
	flags.Set(hhbc.AttrSealed, hasAttribute(attributes, ast.AttrSealed))
	flags.Set(hhbc.AttrEnumClass, enumClass)
	flags.Set(hhbc.AttrEnum, et != nil && !enumClass)
	flags.Set(hhbc.AttrIsFoldable, hasAttribute(attributes, ast.AttrIsFoldable))
	flags.Set(hhbc.AttrDynamicallyConstructible, hasAttribute(attributes, ast.AttrDynamicallyConstructible))

	e.AddSymbol(hhbc.SymClass, base)
	for _, n := range implements {
		e.AddSymbol(hhbc.SymClass, n)
	}
	for _, n := range uses {
		e.AddSymbol(hhbc.SymClass, n)
	}
	for _, r := range reqs {
		e.AddSymbol(hhbc.SymClass, r.Name)
	}

	hc := &hhbc.Class{
		Attributes:     attributes,
		Base:           base,
		Implements:     implements,
		EnumIncludes:   enumIncludes,
		Name:           name,
		Span:           sp,
		Uses:           uses,
		UseAliases:     useAliases(c),
		UsePrecedences: usePrecedences(c),
		EnumType:       et,
		Methods:        methods,
		Properties:     props,
		Constants:      consts,
		TypeConstants:  typeConsts,
		CtxConstants:   ctxConsts,
		Requirements:   reqs,
		UpperBounds:    upperBounds(env, c.TParams),
		DocComment:     c.DocComment,
		Flags:          flags,
	}
	log.Debugf("class %s: %d methods, %d properties, %d constants",
		name, len(methods), len(props), len(consts))
	if u != nil {
		u.AddClass(hc)
	}
	return hc, nil
}
