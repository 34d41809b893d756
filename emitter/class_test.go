package emitter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/config"
	"github.com/chazu/hackemit/hhbc"
)

func emitClass(t *testing.T, c *ast.Class) *hhbc.Class {
	t.Helper()
	hc, err := New(nil, nil, nil).EmitClass(nil, c)
	require.NoError(t, err)
	return hc
}

func TestPropertyInitializers(t *testing.T) {
	c := class("C", ast.KindClass)
	c.Vars = []ast.ClassVar{
		{Id: id("$a"), Expr: call("foo")},
		{Id: id("$b"), Visibility: ast.Private, Expr: call("foo")},
		{Id: id("$s"), Static: true, Expr: call("bar")},
		{Id: id("$l"), Static: true, Expr: call("baz"), UserAttributes: []ast.UserAttribute{attr(ast.AttrLSB)}},
		{Id: id("$c"), Expr: intLit(1)},
		{Id: id("$n"), Type: &ast.HOption{Inner: prim(ast.PrimInt)}},
		{Id: id("$u"), Type: prim(ast.PrimInt)},
		{Id: id("$late"), Type: prim(ast.PrimInt), UserAttributes: []ast.UserAttribute{attr(ast.AttrLateInit)}},
	}
	hc := emitClass(t, c)

	assert.Equal(t, []string{pinitName, sinitName, linitName}, hc.MethodNames())
	pinit := hc.Method(pinitName)
	assertGolden(t, "pinit", pinit.Body.Instrs.Listing())
	assert.True(t, pinit.Attrs.Has(hhbc.AttrPrivate|hhbc.AttrStatic|hhbc.AttrNoInjection))
	assert.Equal(t, hhbc.PureCoeffects(), pinit.Coeffects)

	sinit := hc.Method(sinitName).Body.Instrs
	assert.Equal(t, 1, sinit.Count(func(i hhbc.Instr) bool { return i.Op == hhbc.OpInitProp && i.Str == "s" }))
	assert.Zero(t, sinit.Count(func(i hhbc.Instr) bool { return i.Op == hhbc.OpInitProp && i.Str == "l" }))
	linit := hc.Method(linitName).Body.Instrs
	assert.Equal(t, 1, linit.Count(func(i hhbc.Instr) bool { return i.Op == hhbc.OpInitProp && i.Str == "l" }))

	// Exactly one of initial value and initializer.
	for _, p := range hc.Properties {
		assert.False(t, p.InitialValue != nil && p.Initializer != nil, p.Name)
	}
	assert.Equal(t, int64(1), hc.Property("c").InitialValue.Int)
	assert.Equal(t, hhbc.KindNull, hc.Property("n").InitialValue.Kind)
	assert.True(t, hc.Property("n").Attrs.Has(hhbc.AttrSystemInitialValue))
	assert.Equal(t, hhbc.KindUninit, hc.Property("u").InitialValue.Kind)
	assert.True(t, hc.Property("late").Attrs.Has(hhbc.AttrLateInit))
	assert.True(t, hc.Property("l").IsLSB())
}

func TestNoInitMethodsWithoutInitializers(t *testing.T) {
	c := class("C", ast.KindClass)
	c.Vars = []ast.ClassVar{{Id: id("$a"), Expr: intLit(3)}}
	c.Consts = []ast.ConstDecl{{Id: id("K"), Expr: str("k")}}
	hc := emitClass(t, c)
	assert.Empty(t, hc.Methods)
}

func TestConstantInitializers(t *testing.T) {
	c := class("C", ast.KindClass)
	c.Consts = []ast.ConstDecl{
		{Id: id("A"), Expr: intLit(1)},
		{Id: id("B"), Expr: call("foo")},
		{Id: id("D"), Expr: &ast.Const{Name: id("X")}},
		{Id: id("E"), Abstract: true, Expr: call("foo")},
	}
	hc := emitClass(t, c)

	require.Equal(t, []string{cinitName}, hc.MethodNames())
	cinit := hc.Method(cinitName)
	assertGolden(t, "cinit", cinit.Body.Instrs.Listing())
	assert.Equal(t, []hhbc.Param{{Name: constNameParam}}, cinit.Body.Params)
	assert.Equal(t, hhbc.DefaultCoeffects(), cinit.Coeffects)

	var sw hhbc.Instr
	for _, in := range cinit.Body.Instrs {
		if in.Op == hhbc.OpSSwitch {
			sw = in
		}
	}
	require.Len(t, sw.Cases, 3)
	assert.Equal(t, hhbc.DefaultCase, sw.Cases[2].Name)

	byName := map[string]*hhbc.Constant{}
	for _, k := range hc.Constants {
		byName[k.Name] = k
	}
	assert.NotNil(t, byName["A"].Value)
	assert.Nil(t, byName["A"].Initializer)
	assert.Nil(t, byName["B"].Value)
	assert.NotNil(t, byName["B"].Initializer)
	assert.True(t, byName["E"].IsAbstract)
	assert.Nil(t, byName["E"].Value)
	assert.Nil(t, byName["E"].Initializer)
}

func TestOverflowingConstantIsNotFolded(t *testing.T) {
	c := class("C", ast.KindClass)
	c.Consts = []ast.ConstDecl{
		{Id: id("BIG"), Expr: binop("+", intLit(math.MaxInt64), intLit(1))},
		{Id: id("MAX"), Expr: binop("-", intLit(math.MaxInt64), intLit(0))},
	}
	hc := emitClass(t, c)

	require.Len(t, hc.Constants, 2)
	big, top := hc.Constants[0], hc.Constants[1]
	assert.Nil(t, big.Value)
	require.NotNil(t, big.Initializer)
	assert.Equal(t, 1, countOp(big.Initializer, hhbc.OpAdd))
	require.NotNil(t, top.Value)
	assert.Equal(t, int64(math.MaxInt64), top.Value.Int)
	require.NotNil(t, hc.Method(cinitName))
}

func TestInterfaceCinitIsAbstract(t *testing.T) {
	c := class("I", ast.KindInterface)
	c.Consts = []ast.ConstDecl{{Id: id("B"), Expr: call("foo")}}
	hc := emitClass(t, c)
	assert.True(t, hc.Method(cinitName).Attrs.Has(hhbc.AttrAbstract))
	assert.True(t, hc.Flags.Has(hhbc.AttrInterface))
}

func TestTypeAndContextConstants(t *testing.T) {
	c := class("C", ast.KindClass)
	c.TypeConsts = []ast.TypeConstDecl{
		{Name: id("T"), Type: prim(ast.PrimInt)},
		{Name: id("TAbs"), Abstract: true},
		{Name: id("Ctx"), IsCtx: true, Contexts: []string{"write_props", "\\HH\\Contexts\\globals", "Foo::C"}},
	}
	hc := emitClass(t, c)
	require.Len(t, hc.TypeConstants, 2)
	assert.Equal(t, `dict["kind" => 1]`, hc.TypeConstants[0].Initializer.String())
	assert.Nil(t, hc.TypeConstants[1].Initializer)
	require.Len(t, hc.CtxConstants, 1)
	assert.Equal(t, []string{"write_props", "globals"}, hc.CtxConstants[0].Recognized)
	assert.Equal(t, []string{"Foo::C"}, hc.CtxConstants[0].Unrecognized)
}

func TestReservedClassNames(t *testing.T) {
	tests := []struct {
		name, ns string
		msg      string
	}{
		{"Self", "", "Cannot use 'Self' as class name as it is reserved"},
		{"Foo\\array", "Foo", "Cannot use 'array' as class name as it is reserved"},
		{"int", "", "Cannot use 'int' as class name as it is reserved"},
		{"HH\\Mixed", "HH", "Cannot use 'HH\\Mixed' as class name as it is reserved"},
	}
	for _, tt := range tests {
		c := class(tt.name, ast.KindClass)
		c.Namespace = ast.Namespace{Name: tt.ns}
		_, err := New(nil, nil, nil).EmitClass(nil, c)
		requireFatal(t, err, hhbc.FatalParse, tt.msg)
	}

	for _, ok := range []struct{ name, ns string }{{"Foo\\int", "Foo"}, {"int$gen", ""}, {"Integer", ""}} {
		c := class(ok.name, ast.KindClass)
		c.Namespace = ast.Namespace{Name: ok.ns}
		_, err := New(nil, nil, nil).EmitClass(nil, c)
		assert.NoError(t, err, ok.name)
	}
}

func TestInterfaceRestrictions(t *testing.T) {
	c := class("I", ast.KindInterface)
	c.Uses = []ast.Hint{ast.Apply("T")}
	_, err := New(nil, nil, nil).EmitClass(nil, c)
	requireFatal(t, err, hhbc.FatalParse, "Interfaces cannot use traits")

	c = class("I", ast.KindInterface)
	c.Vars = []ast.ClassVar{{Id: id("$x")}}
	_, err = New(nil, nil, nil).EmitClass(nil, c)
	requireFatal(t, err, hhbc.FatalParse, "Interfaces may not include properties")
}

func TestExtendingClosure(t *testing.T) {
	c := class("C", ast.KindClass)
	c.Extends = []ast.Hint{ast.Apply("\\Closure")}
	_, err := New(nil, nil, nil).EmitClass(nil, c)
	requireFatal(t, err, hhbc.FatalRuntime, "Class cannot extend Closure")

	c = class("Closure$f", ast.KindClass)
	c.Extends = []ast.Hint{ast.Apply("Closure")}
	c.Methods = []*ast.Method{method("__invoke", ret(intLit(1)))}
	hc := emitClass(t, c)
	assert.Equal(t, "Closure", hc.Base)
	assert.NotZero(t, hc.Method("__invoke").Flags&hhbc.MethodIsClosureBody)
	assert.True(t, hc.Flags.Has(hhbc.AttrNoOverride))
}

func TestEnums(t *testing.T) {
	c := class("E", ast.KindEnum)
	c.Enum = &ast.Enum{Base: prim(ast.PrimInt), Includes: []ast.Hint{ast.Apply("F")}}
	hc := emitClass(t, c)
	assert.Equal(t, "HH\\BuiltinEnum", hc.Base)
	require.NotNil(t, hc.EnumType)
	assert.Equal(t, "HH\\int", hc.EnumType.UserType)
	assert.Equal(t, []string{"F"}, hc.EnumIncludes)
	assert.True(t, hc.Flags.Has(hhbc.AttrEnum))
	assert.False(t, hc.Flags.Has(hhbc.AttrEnumClass))

	c = class("EC", ast.KindEnumClass)
	c.Enum = &ast.Enum{Base: ast.Apply("Member")}
	hc = emitClass(t, c)
	assert.Equal(t, "HH\\BuiltinEnumClass", hc.Base)
	assert.True(t, hc.Flags.Has(hhbc.AttrEnumClass))
	assert.False(t, hc.Flags.Has(hhbc.AttrEnum))

	c.Abstract = true
	hc = emitClass(t, c)
	assert.Equal(t, "HH\\BuiltinAbstractEnumClass", hc.Base)
}

func TestReifiedInit(t *testing.T) {
	c := class("C", ast.KindClass)
	c.TParams = []ast.TParam{tparam("T", ast.Reified), tparam("U", ast.Erased)}
	hc := emitClass(t, c)

	require.Equal(t, []string{reifiedInitName}, hc.MethodNames())
	ri := hc.Method(reifiedInitName)
	assertGolden(t, "reifiedinit", ri.Body.Instrs.Listing())
	assert.Equal(t, hhbc.VisProtected, ri.Visibility)
	assert.False(t, ri.Attrs.Has(hhbc.AttrStatic))
	assert.True(t, hc.Flags.Has(hhbc.AttrNoReifiedInit))
	require.Len(t, hc.Attributes, 1)
	assert.Equal(t, ast.AttrReified, hc.Attributes[0].Name)
	assert.Equal(t, "vec[2, 0, 0, 0]", hhbc.VecValue(hc.Attributes[0].Args...).String())
}

func TestReifiedInitForwardsToParent(t *testing.T) {
	c := class("D", ast.KindClass)
	c.Extends = []ast.Hint{ast.Apply("C", prim(ast.PrimInt))}
	hc := emitClass(t, c)

	ri := hc.Method(reifiedInitName)
	require.NotNil(t, ri)
	assert.False(t, hc.Flags.Has(hhbc.AttrNoReifiedInit))
	assert.Contains(t, ri.Body.Instrs.Listing(), `FCallClsMethodSD <1 1 -> ParentCls "86reifiedinit"`)
	assert.Equal(t, 1, countOp(ri.Body.Instrs, hhbc.OpRecordReifiedGeneric))
	assert.Zero(t, countOp(ri.Body.Instrs, hhbc.OpCheckReifiedGenericMismatch))
	assert.False(t, hasAttribute(hc.Attributes, ast.AttrHasReifiedParent), "int is never reified")

	// Own witnesses are stored before the parent call.
	c = class("D", ast.KindClass)
	c.TParams = []ast.TParam{tparam("T", ast.Reified)}
	c.Extends = []ast.Hint{ast.Apply("C", ast.Apply("Vector", ast.Apply("T")))}
	hc = emitClass(t, c)
	assertGolden(t, "reifiedinit_parent", hc.Method(reifiedInitName).Body.Instrs.Listing())
	assert.True(t, hasAttribute(hc.Attributes, ast.AttrHasReifiedParent))
	assert.False(t, hc.Flags.Has(hhbc.AttrNoReifiedInit))

	// An erased parent needs no forwarding.
	c = class("D", ast.KindClass)
	c.Extends = []ast.Hint{ast.Apply("C")}
	hc = emitClass(t, c)
	assert.Nil(t, hc.Method(reifiedInitName))
	assert.False(t, hasAttribute(hc.Attributes, ast.AttrHasReifiedParent))
}

func TestNoReifiedInitFor(t *testing.T) {
	reified := []ast.TParam{tparam("T", ast.Reified)}

	trait := class("T", ast.KindTrait)
	trait.TParams = reified
	assert.Nil(t, emitClass(t, trait).Method(reifiedInitName))

	iface := class("I", ast.KindInterface)
	iface.TParams = reified
	assert.Nil(t, emitClass(t, iface).Method(reifiedInitName))

	closure := class("Closure$x", ast.KindClass)
	closure.TParams = reified
	hc := emitClass(t, closure)
	assert.Nil(t, hc.Method(reifiedInitName))
	assert.Empty(t, hc.Attributes)

	opts := config.Default()
	opts.Compiler.Systemlib = true
	c := class("C", ast.KindClass)
	c.TParams = reified
	hc, err := New(opts, nil, nil).EmitClass(nil, c)
	require.NoError(t, err)
	assert.Nil(t, hc.Method(reifiedInitName))
	assert.True(t, hc.Flags.Has(hhbc.AttrBuiltin|hhbc.AttrPersistent|hhbc.AttrUnique))
}

func TestMethodOrder(t *testing.T) {
	memo := method("m", ret(intLit(1)))
	memo.UserAttributes = []ast.UserAttribute{attr(ast.AttrMemoize)}
	c := class("C", ast.KindClass)
	c.TParams = []ast.TParam{tparam("T", ast.Reified)}
	c.Methods = []*ast.Method{memo, method("n")}
	c.Vars = []ast.ClassVar{{Id: id("$a"), Expr: call("foo")}}
	c.Consts = []ast.ConstDecl{{Id: id("B"), Expr: call("foo")}}
	c.XhpCategory = &ast.XhpCategory{Names: []string{"%flow"}}

	hc := emitClass(t, c)
	assert.Equal(t, []string{
		"m$memoize_impl", "n",
		xhpCategoryMethod, reifiedInitName, pinitName, cinitName,
		"m",
	}, hc.MethodNames())
	assert.Equal(t, hhbc.VisPrivate, hc.Method("m$memoize_impl").Visibility)
	assert.True(t, hc.Method("m").Body.IsMemoizeWrapper)
}

func TestSymbolRefs(t *testing.T) {
	c := class("C", ast.KindClass)
	c.Extends = []ast.Hint{ast.Apply("\\B")}
	c.Implements = []ast.Hint{ast.Apply("I")}
	c.Uses = []ast.Hint{ast.Apply("T"), ast.Apply("T")}
	c.Reqs = []ast.Requirement{{Hint: ast.Apply("R"), Kind: ast.RequireImplements}}
	c.Vars = []ast.ClassVar{{Id: id("$a"), Expr: call("\\make")}}

	u := hhbc.NewUnit("c.hack")
	hc, err := New(nil, nil, nil).EmitClass(u, c)
	require.NoError(t, err)
	assert.Same(t, hc, u.Class("C"))
	assert.Equal(t, []string{"T"}, hc.Uses)
	assert.Equal(t, []string{"B", "I", "R", "T"}, u.SymbolRefs.Classes())
	assert.Equal(t, []string{"make"}, u.SymbolRefs.Functions())
	assert.Equal(t, []hhbc.Requirement{{Name: "R", Kind: hhbc.MustImplement}}, hc.Requirements)
}

func TestTraitUseClauses(t *testing.T) {
	alias := id("bar")
	c := class("C", ast.KindClass)
	c.Uses = []ast.Hint{ast.Apply("T1"), ast.Apply("T2")}
	c.UseAsAliases = []ast.UseAsAlias{{Method: id("foo"), Alias: &alias, Modifiers: []ast.UseModifier{ast.UsePrivate, ast.UseFinal}}}
	c.InsteadofAliases = []ast.InsteadofAlias{{Trait: id("T1"), Method: id("foo"), Excluded: []ast.Id{id("\\T2")}}}
	hc := emitClass(t, c)
	assert.Equal(t, []hhbc.UseAlias{{Method: "foo", Alias: "bar", Attrs: hhbc.AttrPrivate | hhbc.AttrFinal}}, hc.UseAliases)
	assert.Equal(t, []hhbc.UsePrecedence{{Trait: "T1", Method: "foo", Excluded: []string{"T2"}}}, hc.UsePrecedences)
}

func TestConstClass(t *testing.T) {
	c := class("C", ast.KindClass)
	c.UserAttributes = []ast.UserAttribute{attr(ast.AttrConst)}
	c.Vars = []ast.ClassVar{{Id: id("$a"), Expr: intLit(1)}, {Id: id("$s"), Static: true, Expr: intLit(1)}}
	hc := emitClass(t, c)
	assert.True(t, hc.Flags.Has(hhbc.AttrIsConst|hhbc.AttrForbidDynamicProps))
	assert.True(t, hc.Property("a").Attrs.Has(hhbc.AttrIsConst))
	assert.False(t, hc.Property("s").Attrs.Has(hhbc.AttrIsConst))
}

func TestAttributeArgumentsMustFold(t *testing.T) {
	c := class("C", ast.KindClass)
	c.UserAttributes = []ast.UserAttribute{attr("Foo", lvar("$x"))}
	_, err := New(nil, nil, nil).EmitClass(nil, c)
	requireFatal(t, err, hhbc.FatalParse, "Attribute arguments must be literals or constant expressions")
}

func TestAbstractMethodBody(t *testing.T) {
	m := method("m")
	m.Abstract = true
	c := class("C", ast.KindClass)
	c.Abstract = true
	c.Methods = []*ast.Method{m}
	hc := emitClass(t, c)
	assert.Equal(t, `  String "Cannot call abstract method C::m()"
  Fatal RuntimeOmitFrame
`, hc.Method("m").Body.Instrs.Listing())
	assert.True(t, hc.Method("m").Attrs.Has(hhbc.AttrAbstract))
}

func TestXHPDeclarations(t *testing.T) {
	c := class("xhp_div", ast.KindClass)
	c.XhpCategory = &ast.XhpCategory{Names: []string{"%flow", "%phrase"}}
	c.XhpChildren = &ast.XhpChildren{Pattern: &ast.XhpChild{
		Kind: ast.XhpChildList,
		Children: []ast.XhpChild{
			{Kind: ast.XhpChildName, Name: "xhp_head"},
			{Kind: ast.XhpChildUnary, Op: "*", Children: []ast.XhpChild{{Kind: ast.XhpChildName, Name: "xhp_p"}}},
		},
	}}
	c.XhpAttrs = []ast.XhpAttr{
		{Type: prim(ast.PrimString), Var: ast.ClassVar{Id: id("$title"), Expr: str("t")}, Tag: ast.XhpAttrRequired},
		{Type: &ast.HOption{Inner: ast.Apply("Widget")}, Var: ast.ClassVar{Id: id("$w")}},
		{Var: ast.ClassVar{Id: id("$size")}, Enum: []ast.Expr{str("s"), str("m")}},
	}
	c.XhpAttrUses = []ast.Hint{ast.Apply("xhp_base")}

	u := hhbc.NewUnit("x.hack")
	hc, err := New(nil, nil, nil).EmitClass(u, c)
	require.NoError(t, err)
	assert.Equal(t, []string{xhpCategoryMethod, xhpChildrenMethod, xhpAttributeMethod}, hc.MethodNames())

	assert.Equal(t, `  TypedValue dict["flow" => 1, "phrase" => 1]
  RetC
`, hc.Method(xhpCategoryMethod).Body.Instrs.Listing())
	assert.Equal(t, `  TypedValue vec["list", vec["name", "xhp_head"], vec["*", vec["name", "xhp_p"]]]
  RetC
`, hc.Method(xhpChildrenMethod).Body.Instrs.Listing())
	assertGolden(t, "xhp_attributes", hc.Method(xhpAttributeMethod).Body.Instrs.Listing())

	cache := hc.Property(xhpAttributeCache)
	require.NotNil(t, cache)
	assert.True(t, cache.IsStatic())
	assert.True(t, u.SymbolRefs.Has(hhbc.SymClass, "xhp_base"))
	assert.True(t, u.SymbolRefs.Has(hhbc.SymFunction, "array_merge"))
}

func TestXHPChildrenShortForms(t *testing.T) {
	c := class("xhp_br", ast.KindClass)
	c.XhpChildren = &ast.XhpChildren{Empty: true}
	hc := emitClass(t, c)
	assert.Equal(t, "  Int 0\n  RetC\n", hc.Method(xhpChildrenMethod).Body.Instrs.Listing())

	c.XhpChildren = &ast.XhpChildren{Any: true}
	hc = emitClass(t, c)
	assert.Equal(t, "  Int 1\n  RetC\n", hc.Method(xhpChildrenMethod).Body.Instrs.Listing())
}

func TestClassFingerprintIsStable(t *testing.T) {
	build := func() *ast.Class {
		c := class("C", ast.KindClass)
		c.Vars = []ast.ClassVar{{Id: id("$a"), Expr: call("foo")}}
		c.Consts = []ast.ConstDecl{{Id: id("B"), Expr: call("foo")}}
		return c
	}
	a, err := hhbc.FingerprintOf(emitClass(t, build()))
	require.NoError(t, err)
	b, err := hhbc.FingerprintOf(emitClass(t, build()))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
