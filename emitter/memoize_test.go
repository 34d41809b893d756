package emitter

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/config"
	"github.com/chazu/hackemit/hhbc"
)

func memoFun(name string, params ...ast.FunParam) *ast.FunDef {
	return &ast.FunDef{
		Name:           id(name),
		Params:         params,
		Body:           []ast.Stmt{ret(intLit(1))},
		UserAttributes: []ast.UserAttribute{attr(ast.AttrMemoize)},
	}
}

func emitMemoFun(t *testing.T, e *Emitter, fd *ast.FunDef) (impl, wrapper *hhbc.Function) {
	t.Helper()
	fs, err := e.EmitFunction(nil, fd)
	require.NoError(t, err)
	require.Len(t, fs, 2)
	return fs[0], fs[1]
}

// checkSingleCall walks every path through a wrapper body from its entry
// points and fails if a path calls impl more than once or stores a result
// it did not compute.
func checkSingleCall(t *testing.T, body hhbc.Body, impl string) {
	t.Helper()
	instrs := body.Instrs
	require.Equal(t, 1, instrs.Count(func(i hhbc.Instr) bool { return i.FCall != nil && i.Str == impl }),
		"one call site")

	labels := map[hhbc.Label]int{}
	for pc, in := range instrs {
		if in.Op == hhbc.OpLabel {
			labels[in.Label] = pc
		}
	}
	target := func(l hhbc.Label) int {
		pc, ok := labels[l]
		require.True(t, ok, "undefined label %s", l)
		return pc
	}

	type state struct{ pc, calls int }
	seen := map[state]bool{}
	stores := 0
	var walk func(pc, calls int)
	walk = func(pc, calls int) {
		for ; pc < len(instrs); pc++ {
			st := state{pc, calls}
			if seen[st] {
				return
			}
			seen[st] = true
			in := instrs[pc]
			if in.FCall != nil && in.Str == impl {
				calls++
				require.LessOrEqual(t, calls, 1, "second call at %d", pc)
				if in.FCall.AsyncEager != 0 {
					walk(target(in.FCall.AsyncEager), calls)
				}
			}
			switch in.Op {
			case hhbc.OpMemoSet, hhbc.OpMemoSetEager:
				assert.Equal(t, 1, calls, "store without call at %d", pc)
				stores++
			case hhbc.OpRetC, hhbc.OpRetCSuspended, hhbc.OpFatal:
				return
			case hhbc.OpJmp, hhbc.OpJmpNS:
				walk(target(in.Label), calls)
				return
			case hhbc.OpJmpZ, hhbc.OpJmpNZ, hhbc.OpMemoGet:
				walk(target(in.Label), calls)
			case hhbc.OpMemoGetEager:
				walk(target(in.Label), calls)
				walk(target(in.Label2), calls)
			}
		}
		t.Fatalf("control falls off the end of the body")
	}
	walk(0, 0)
	for _, p := range body.Params {
		if p.DefaultValue != nil {
			walk(target(p.DefaultValue.Label), 0)
		}
	}
	assert.Positive(t, stores, "the miss path stores the result")
}

func TestMemoizeFunctionSync(t *testing.T) {
	impl, wrapper := emitMemoFun(t, New(nil, nil, nil), &ast.FunDef{
		Name:           id("f"),
		Params:         []ast.FunParam{{Name: "$x"}},
		Body:           []ast.Stmt{ret(lvar("$x"))},
		UserAttributes: []ast.UserAttribute{attr(ast.AttrMemoize)},
	})
	assert.Equal(t, "f$memoize_impl", impl.Name)
	assert.Empty(t, impl.Attributes)
	assert.False(t, impl.Attrs.Has(hhbc.AttrDynamicallyCallable))

	assert.Equal(t, "f", wrapper.Name)
	assert.True(t, wrapper.Body.IsMemoizeWrapper)
	assert.Equal(t, 1, wrapper.Body.NumUnnamedLocals)
	require.Len(t, wrapper.Attributes, 1)
	assert.Equal(t, ast.AttrMemoize, wrapper.Attributes[0].Name)
	assertGolden(t, "memoize_function_sync", wrapper.Body.Instrs.Listing())
}

func TestMemoizeFunctionAsyncWithDefault(t *testing.T) {
	fd := memoFun("f", ast.FunParam{Name: "$x", Default: intLit(1)})
	fd.FunKind = ast.FAsync
	_, wrapper := emitMemoFun(t, New(nil, nil, nil), fd)
	assert.NotZero(t, wrapper.Flags&hhbc.MethodIsAsync)
	assertGolden(t, "memoize_function_async", wrapper.Body.Instrs.Listing())
	require.NotNil(t, wrapper.Body.Params[0].DefaultValue)
	assert.Equal(t, "1", wrapper.Body.Params[0].DefaultValue.Expr)
}

func TestMemoizeNoParams(t *testing.T) {
	_, wrapper := emitMemoFun(t, New(nil, nil, nil), memoFun("f"))
	assert.Equal(t, `  .srcloc 0:0,0:0;
  MemoGet L1 L:0+0
  RetC
L1:
  NullUninit
  NullUninit
  FCallFuncD <0 1 -> "f$memoize_impl"
  MemoSet L:0+0
  RetC
`, wrapper.Body.Instrs.Listing())
	assert.Zero(t, wrapper.Body.NumUnnamedLocals)
}

func TestMemoizeReified(t *testing.T) {
	fd := memoFun("f", ast.FunParam{Name: "$x"})
	fd.TParams = []ast.TParam{tparam("T", ast.Reified)}
	impl, wrapper := emitMemoFun(t, New(nil, nil, nil), fd)

	assert.Equal(t, []string{ReifiedGenericsLocal}, wrapper.Body.DeclVars)
	assert.Equal(t, []string{ReifiedGenericsLocal}, impl.Body.DeclVars)
	assert.Equal(t, 2, wrapper.Body.NumUnnamedLocals)
	listing := wrapper.Body.Instrs.Listing()
	assert.Contains(t, listing, "GetMemoKeyL $x\n  SetL _2\n")
	assert.Contains(t, listing, "GetMemoKeyL $0ReifiedGenerics\n  SetL _3\n")
	assert.Contains(t, listing, "MemoGet L1 L:2+2")
	assert.Contains(t, listing, "CGetL $x\n  CGetL $0ReifiedGenerics\n  FCallFuncD <Generics 1 1 -> \"f$memoize_impl\"")
	require.Len(t, wrapper.Attributes, 2)
	assert.Equal(t, ast.AttrReified, wrapper.Attributes[1].Name)
}

func TestMemoizeImplicitContext(t *testing.T) {
	fd := memoFun("f")
	fd.UserAttributes = []ast.UserAttribute{attr(ast.AttrPolicyShardedMemoize)}

	// Without the runtime option the context is not part of the key.
	_, wrapper := emitMemoFun(t, New(nil, nil, nil), fd)
	assert.Contains(t, wrapper.Body.Instrs.Listing(), "MemoGet L1 L:0+0")

	opts := config.Default()
	opts.HHVM.ImplicitContext = true
	u := hhbc.NewUnit("f.hack")
	fs, err := New(opts, nil, nil).EmitFunction(u, fd)
	require.NoError(t, err)
	wrapper = fs[1]
	listing := wrapper.Body.Instrs.Listing()
	assert.Contains(t, listing, "FCallFuncD <0 1 -> "+strconv.Quote(implicitContextKeyFunc)+"\n  SetL _0\n")
	assert.Contains(t, listing, "MemoGet L1 L:0+1")
	assert.Equal(t, 1, wrapper.Body.NumUnnamedLocals)
	assert.True(t, u.SymbolRefs.Has(hhbc.SymFunction, implicitContextKeyFunc))
	assert.True(t, u.SymbolRefs.Has(hhbc.SymFunction, "f$memoize_impl"))
	assert.Same(t, wrapper, u.Function("f"))
}

func TestMemoizeKeySlotsFollowParams(t *testing.T) {
	fd := memoFun("f", ast.FunParam{Name: "$a"}, ast.FunParam{Name: "$b"})
	fd.TParams = []ast.TParam{tparam("T", ast.Reified)}
	fd.UserAttributes = []ast.UserAttribute{attr(ast.AttrPolicyShardedMemoize)}
	opts := config.Default()
	opts.HHVM.ImplicitContext = true
	_, wrapper := emitMemoFun(t, New(opts, nil, nil), fd)

	listing := wrapper.Body.Instrs.Listing()
	assert.Contains(t, listing, "GetMemoKeyL $a\n  SetL _3\n")
	assert.Contains(t, listing, "GetMemoKeyL $b\n  SetL _4\n")
	assert.Contains(t, listing, "GetMemoKeyL $0ReifiedGenerics\n  SetL _5\n")
	assert.Contains(t, listing, strconv.Quote(implicitContextKeyFunc)+"\n  SetL _6\n")
	assert.Contains(t, listing, " L:3+4\n")
}

func TestLocalGen(t *testing.T) {
	var g LocalGen
	g.ResetFrom(4)
	assert.Equal(t, hhbc.Unnamed(4), g.Next())
	assert.Equal(t, hhbc.Unnamed(5), g.Next())
	g.Reset()
	assert.Equal(t, hhbc.Unnamed(0), g.Next())
}

func TestMemoizeIdentityKey(t *testing.T) {
	fd := memoFun("f", ast.FunParam{Name: "$o", MemoizeKey: ast.MemoKeyIdentity})
	_, wrapper := emitMemoFun(t, New(nil, nil, nil), fd)
	listing := wrapper.Body.Instrs.Listing()
	assert.Contains(t, listing, "CGetL $o\n  SetL _1\n")
	assert.NotContains(t, listing, "GetMemoKeyL")
}

func TestMemoizeDeprecationOnlyInWrapper(t *testing.T) {
	fd := memoFun("f")
	fd.UserAttributes = append(fd.UserAttributes, attr(ast.AttrDeprecated, str("use g")))
	impl, wrapper := emitMemoFun(t, New(nil, nil, nil), fd)
	isWarning := func(i hhbc.Instr) bool { return i.Op == hhbc.OpFCallFuncD && i.Str == "trigger_sampled_error" }
	assert.Zero(t, impl.Body.Instrs.Count(isWarning))
	assert.Equal(t, 1, wrapper.Body.Instrs.Count(isWarning))
	assert.Contains(t, wrapper.Body.Instrs.Listing(), `String "f: use g"`)
	assert.True(t, hasAttribute(impl.Attributes, ast.AttrDeprecated))
}

func TestMemoizeSingleCall(t *testing.T) {
	paramSets := map[string][]ast.FunParam{
		"none":    nil,
		"one":     {{Name: "$x", Hint: prim(ast.PrimInt)}},
		"default": {{Name: "$x"}, {Name: "$y", Default: intLit(2)}},
	}
	for pname, params := range paramSets {
		for _, async := range []bool{false, true} {
			for _, reified := range []bool{false, true} {
				for _, implicit := range []bool{false, true} {
					name := fmt.Sprintf("%s/async=%t/reified=%t/implicit=%t", pname, async, reified, implicit)
					t.Run(name, func(t *testing.T) {
						fd := memoFun("f", params...)
						if async {
							fd.FunKind = ast.FAsync
						}
						if reified {
							fd.TParams = []ast.TParam{tparam("T", ast.Reified)}
						}
						opts := config.Default()
						if implicit {
							opts.HHVM.ImplicitContext = true
							fd.UserAttributes = []ast.UserAttribute{attr(ast.AttrPolicyShardedMemoize)}
						}
						_, wrapper := emitMemoFun(t, New(opts, nil, nil), fd)
						checkSingleCall(t, wrapper.Body, "f"+MemoizeSuffix)
					})
				}
			}
		}
	}
}

func memoClass(m *ast.Method) *ast.Class {
	c := class("C", ast.KindClass)
	c.Methods = []*ast.Method{m}
	return c
}

func TestMemoizeMethods(t *testing.T) {
	impl := "m" + MemoizeSuffix
	tests := []struct {
		name   string
		static bool
		attr   string
		call   string
		lsb    bool
	}{
		{"instance", false, ast.AttrMemoize, `FCallObjMethodD <1 1 -> "m$memoize_impl"`, false},
		{"static", true, ast.AttrMemoize, `FCallClsMethodSD <1 1 -> SelfCls "m$memoize_impl"`, false},
		{"lsb", true, ast.AttrMemoizeLSB, `FCallClsMethodSD <1 1 -> LateBoundCls "m$memoize_impl"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := method("m", ret(lvar("$x")))
			m.Static = tt.static
			m.Visibility = ast.Protected
			m.Params = []ast.FunParam{{Name: "$x"}}
			m.UserAttributes = []ast.UserAttribute{attr(tt.attr)}
			hc := emitClass(t, memoClass(m))

			require.Equal(t, []string{impl, "m"}, hc.MethodNames())
			im := hc.Method(impl)
			assert.True(t, im.Attrs.Has(hhbc.AttrPrivate))
			assert.False(t, im.Attrs.Has(hhbc.AttrProtected))
			assert.Empty(t, im.Attributes)

			w := hc.Method("m")
			assert.Equal(t, hhbc.VisProtected, w.Visibility)
			assert.Equal(t, tt.static, w.Attrs.Has(hhbc.AttrStatic))
			assert.Equal(t, tt.lsb, w.Body.IsMemoizeWrapperLSB)
			listing := w.Body.Instrs.Listing()
			assert.Contains(t, listing, tt.call)
			if !tt.static {
				assert.Contains(t, listing, "  CheckThis\n")
				assert.Contains(t, listing, "  This\n  NullUninit\n  CGetL $x\n")
			}
			checkSingleCall(t, w.Body, impl)
		})
	}
}

func TestMemoizeMethodNoParamsChecksThis(t *testing.T) {
	m := method("m", ret(intLit(1)))
	m.UserAttributes = []ast.UserAttribute{attr(ast.AttrMemoize)}
	hc := emitClass(t, memoClass(m))
	assert.Equal(t, `  .srcloc 0:0,0:0;
  CheckThis
  MemoGet L1 L:0+0
  RetC
L1:
  This
  NullUninit
  FCallObjMethodD <0 1 -> "m$memoize_impl"
  MemoSet L:0+0
  RetC
`, hc.Method("m").Body.Instrs.Listing())
}

func TestMemoizeRejections(t *testing.T) {
	variadic := memoFun("f", ast.FunParam{Name: "$xs", IsVariadic: true})
	_, err := New(nil, nil, nil).EmitFunction(nil, variadic)
	requireFatal(t, err, hhbc.FatalRuntime, "<<__Memoize>> cannot be used on functions with variable arguments")

	inout := memoFun("f", ast.FunParam{Name: "$x", IsInout: true})
	_, err = New(nil, nil, nil).EmitFunction(nil, inout)
	requireFatal(t, err, hhbc.FatalRuntime, "<<__Memoize>> cannot be used on functions with inout parameters")

	m := method("m")
	m.UserAttributes = []ast.UserAttribute{attr(ast.AttrMemoize)}
	iface := memoClass(m)
	iface.Kind = ast.KindInterface
	_, err = New(nil, nil, nil).EmitClass(nil, iface)
	requireFatal(t, err, hhbc.FatalRuntime, "<<__Memoize>> cannot be used in interfaces")

	abstract := method("m")
	abstract.Abstract = true
	abstract.UserAttributes = []ast.UserAttribute{attr(ast.AttrMemoize)}
	c := memoClass(abstract)
	c.Abstract = true
	_, err = New(nil, nil, nil).EmitClass(nil, c)
	requireFatal(t, err, hhbc.FatalRuntime, "Abstract method C::m cannot be memoized")

	// Methods may take inout parameters.
	ok := method("m", ret(intLit(1)))
	ok.Params = []ast.FunParam{{Name: "$x", IsInout: true}}
	ok.UserAttributes = []ast.UserAttribute{attr(ast.AttrMemoize)}
	_, err = New(nil, nil, nil).EmitClass(nil, memoClass(ok))
	assert.NoError(t, err)
}
