package emitter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/decls"
	"github.com/chazu/hackemit/hhbc"
)

var levels = []ReificationLevel{Definitely, Maybe, Not}

func TestCombineLattice(t *testing.T) {
	for _, a := range levels {
		assert.Equal(t, a, Combine(a, a), "idempotent %s", a)
		assert.Equal(t, Definitely, Combine(a, Definitely), "absorbing %s", a)
		assert.Equal(t, a, Combine(Not, a), "identity %s", a)
		for _, b := range levels {
			assert.Equal(t, Combine(a, b), Combine(b, a), "commutative %s %s", a, b)
			for _, c := range levels {
				assert.Equal(t, Combine(Combine(a, b), c), Combine(a, Combine(b, c)),
					"associative %s %s %s", a, b, c)
			}
		}
	}
	assert.Equal(t, Maybe, Combine(Maybe, Not))
}

func scopedEnv() *Env {
	return &Env{
		ClassName:    "C",
		ClassTParams: []ast.TParam{tparam("U", ast.SoftReified), tparam("E", ast.Erased)},
		FunName:      "f",
		FunTParams:   []ast.TParam{tparam("T", ast.Reified)},
	}
}

func TestClassify(t *testing.T) {
	env := scopedEnv()
	tests := []struct {
		name string
		hint ast.Hint
		want ReificationLevel
	}{
		{"reified fun param", ast.Apply("T"), Definitely},
		{"soft class param", ast.Apply("U"), Definitely},
		{"erased param", ast.Apply("E"), Not},
		{"class without args", ast.Apply("Foo"), Not},
		{"erased args", ast.Apply("Foo", ast.Apply("E"), ast.Apply(ast.Wildcard)), Not},
		{"concrete arg", ast.Apply("Foo", prim(ast.PrimInt)), Maybe},
		{"reified arg", ast.Apply("Foo", prim(ast.PrimInt), ast.Apply("T")), Definitely},
		{"nested soft", ast.Apply("Foo", ast.Apply("Bar", ast.Apply("U"))), Maybe},
		{"nested reified", ast.Apply("Foo", ast.Apply("Bar", ast.Apply("T"))), Definitely},
		{"option", &ast.HOption{Inner: ast.Apply("T")}, Definitely},
		{"soft", &ast.HSoft{Inner: ast.Apply("Foo", prim(ast.PrimInt))}, Maybe},
		{"like", &ast.HLike{Inner: ast.Apply("E")}, Not},
		{"prim", prim(ast.PrimString), Not},
		{"tuple", &ast.HTuple{Elems: []ast.Hint{ast.Apply("T")}}, Not},
		{"fun", &ast.HFun{Params: []ast.Hint{ast.Apply("T")}, Return: prim(ast.PrimVoid)}, Not},
		{"mixed", &ast.HMixed{}, Not},
		{"nil", nil, Not},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.Classify(tt.hint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyRejectsUnresolvedHints(t *testing.T) {
	env := scopedEnv()
	for _, h := range []ast.Hint{&ast.HVar{Name: "T"}, &ast.HAny{}, &ast.HErr{}} {
		_, err := env.Classify(h)
		var ie *InternalError
		assert.True(t, errors.As(err, &ie), "%T", h)
	}
}

func TestErase(t *testing.T) {
	env := scopedEnv()
	h := ast.Apply("Foo",
		ast.Apply("E"),
		ast.Apply("T"),
		&ast.HOption{Inner: ast.Apply("U")},
		&ast.HTuple{Elems: []ast.Hint{ast.Apply("E"), prim(ast.PrimInt)}},
	)
	erased := env.Erase(h)
	assert.Equal(t, "Foo<_, T, ?_, (_, HH\\int)>", fmtHint(erased))
	assert.Equal(t, fmtHint(erased), fmtHint(env.Erase(erased)))
	assert.Equal(t, "Foo<E, T, ?U, (E, HH\\int)>", fmtHint(h), "input is not mutated")

	fun := &ast.HFun{Params: []ast.Hint{ast.Apply("E")}, Return: ast.Apply("E")}
	assert.Same(t, fun, env.Erase(fun))
}

func TestStripAsyncResult(t *testing.T) {
	awaitable := func(name string) ast.Hint { return ast.Apply(name, prim(ast.PrimInt)) }
	async := &Env{IsAsync: true}
	tests := []struct {
		hint ast.Hint
		want string
	}{
		{awaitable("Awaitable"), "HH\\int"},
		{awaitable("\\HH\\Awaitable"), "HH\\int"},
		{awaitable("awaitable"), "HH\\int"},
		{&ast.HSoft{Inner: awaitable("Awaitable")}, "@HH\\int"},
		{&ast.HLike{Inner: awaitable("Awaitable")}, "~HH\\int"},
		{&ast.HOption{Inner: awaitable("Awaitable")}, "HH\\int"},
		{ast.Apply("Awaitable", prim(ast.PrimInt), prim(ast.PrimInt)), "Awaitable<HH\\int, HH\\int>"},
		{awaitable("Vector"), "Vector<HH\\int>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fmtHint(async.StripAsyncResult(tt.hint)), fmtHint(tt.hint))
	}
	sync := &Env{}
	assert.Equal(t, "Awaitable<HH\\int>", fmtHint(sync.StripAsyncResult(awaitable("Awaitable"))))
}

func TestEmitRuntimeCheckBareTParam(t *testing.T) {
	e := New(nil, nil, nil)
	x := hhbc.Named("$x")
	seq, err := e.EmitRuntimeCheck(scopedEnv(), ast.Apply("T"), hhbc.IsTypeL(x, hhbc.IsTypeNull), hhbc.VerifyParamTypeTS(x))
	require.NoError(t, err)
	assert.Equal(t, `  BaseL $0ReifiedGenerics
  QueryM CGet EI:0
  VerifyParamTypeTS $x
`, seq.Listing())
}

func TestEmitRuntimeCheckOption(t *testing.T) {
	e := New(nil, nil, nil)
	x := hhbc.Named("$x")
	seq, err := e.EmitRuntimeCheck(scopedEnv(), &ast.HOption{Inner: ast.Apply("T")},
		hhbc.IsTypeL(x, hhbc.IsTypeNull), hhbc.VerifyParamTypeTS(x))
	require.NoError(t, err)
	assert.Equal(t, `  IsTypeL $x Null
  JmpNZ L1
  BaseL $0ReifiedGenerics
  QueryM CGet EI:0
  VerifyParamTypeTS $x
L1:
`, seq.Listing())
}

func TestEmitRuntimeCheckCombinesWitnesses(t *testing.T) {
	e := New(nil, nil, nil)
	x := hhbc.Named("$x")
	h := ast.Apply("Foo", ast.Apply("T"), ast.Apply("E"), ast.Apply("U"), ast.Apply("T"))
	seq, err := e.EmitRuntimeCheck(scopedEnv(), h, nil, hhbc.VerifyParamTypeTS(x))
	require.NoError(t, err)

	// T is pushed once; E and the soft-reified U become wildcards.
	assert.Equal(t, 1, countOp(seq, hhbc.OpBaseL))
	assert.Equal(t, 0, countOp(seq, hhbc.OpCheckThis))
	require.Equal(t, 1, countOp(seq, hhbc.OpTypedValue))
	var ts hhbc.TypedValue
	for _, in := range seq {
		if in.Op == hhbc.OpTypedValue {
			ts = *in.Value
		}
		if in.Op == hhbc.OpCombineAndResolveTypeStruct {
			assert.Equal(t, int64(2), in.Int)
		}
	}
	wild := `dict["kind" => 13, "name" => "_"]`
	witness := `dict["kind" => 104, "index" => 0]`
	assert.Equal(t,
		`dict["kind" => 101, "classname" => "Foo", "generic_types" => vec[`+witness+", "+wild+", "+wild+", "+witness+"]]",
		ts.String())
}

func TestEmitRuntimeCheckClassWitness(t *testing.T) {
	e := New(nil, nil, nil)
	seq, err := e.EmitRuntimeCheck(scopedEnv(), ast.Apply("U"), nil, hhbc.VerifyRetTypeTS())
	require.NoError(t, err)
	assert.Equal(t, `  CheckThis
  BaseH
  Dim PT:"86reified_prop"
  QueryM CGet EI:0
  VerifyRetTypeTS
`, seq.Listing())
}

func TestDeclHasNoReifiedGenerics(t *testing.T) {
	provider := decls.NewMemory(
		&decls.Class{Name: "Reified", TParams: []decls.TParam{{Name: "T", Reified: ast.Reified}}},
		&decls.Class{Name: "Plain", TParams: []decls.TParam{{Name: "T"}}},
	)
	e := New(nil, provider, nil)
	assert.False(t, e.DeclHasNoReifiedGenerics(ast.Apply("Reified", prim(ast.PrimInt))))
	assert.False(t, e.DeclHasNoReifiedGenerics(ast.Apply("\\reified", prim(ast.PrimInt))))
	assert.True(t, e.DeclHasNoReifiedGenerics(ast.Apply("Plain", prim(ast.PrimInt))))
	assert.True(t, e.DeclHasNoReifiedGenerics(ast.Apply("Missing", prim(ast.PrimInt))))
	assert.False(t, e.DeclHasNoReifiedGenerics(prim(ast.PrimInt)))
}

func TestPrologChecksMaybeHintsAgainstDecls(t *testing.T) {
	provider := decls.NewMemory(&decls.Class{Name: "Box", TParams: []decls.TParam{{Name: "T", Reified: ast.Reified}}})
	fd := &ast.FunDef{
		Name: id("f"),
		Params: []ast.FunParam{
			{Name: "$a", Hint: ast.Apply("Box", prim(ast.PrimInt))},
			{Name: "$b", Hint: ast.Apply("Vector", prim(ast.PrimInt))},
			{Name: "$c", Hint: &ast.HMixed{}},
		},
	}
	fs, err := New(nil, provider, nil).EmitFunction(nil, fd)
	require.NoError(t, err)
	instrs := fs[0].Body.Instrs
	assert.Equal(t, 1, countOp(instrs, hhbc.OpVerifyParamTypeTS), "Box has reified generics")
	assert.Equal(t, 1, countOp(instrs, hhbc.OpVerifyParamType), "Vector is erased; mixed is unchecked")
}

func TestHintConstraint(t *testing.T) {
	env := scopedEnv()
	tests := []struct {
		hint  ast.Hint
		user  string
		name  string
		flags hhbc.TypeConstraintFlags
	}{
		{prim(ast.PrimInt), "HH\\int", "HH\\int", 0},
		{&ast.HOption{Inner: ast.Apply("Foo")}, "?Foo", "Foo", hhbc.TCNullable | hhbc.TCDisplayNullable | hhbc.TCExtendedHint},
		{&ast.HSoft{Inner: prim(ast.PrimString)}, "@HH\\string", "HH\\string", hhbc.TCSoft | hhbc.TCExtendedHint},
		{ast.Apply("T"), "T", "", hhbc.TCTypeVar | hhbc.TCExtendedHint},
		{prim(ast.PrimVoid), "HH\\void", "", 0},
		{&ast.HThis{}, "HH\\this", "HH\\this", hhbc.TCExtendedHint},
		{&ast.HTuple{Elems: []ast.Hint{prim(ast.PrimInt), ast.Apply("T")}}, "(HH\\int, T)", "HH\\vec", hhbc.TCExtendedHint},
		{&ast.HShape{Fields: []ast.ShapeField{{Name: "a", Optional: true, Hint: prim(ast.PrimInt)}}, AllowsUnknownFields: true},
			"HH\\shape(?'a' => HH\\int, ...)", "HH\\dict", hhbc.TCExtendedHint},
		{&ast.HAccess{Root: ast.Apply("C"), Names: []ast.Id{id("T")}}, "C::T", "C::T", hhbc.TCTypeConstant | hhbc.TCExtendedHint},
		{&ast.HLike{Inner: prim(ast.PrimInt)}, "~HH\\int", "", 0},
	}
	for _, tt := range tests {
		ti := typeInfo(env, tt.hint)
		require.NotNil(t, ti)
		assert.Equal(t, tt.user, ti.UserType)
		assert.Equal(t, tt.name, ti.Constraint.Name, tt.user)
		assert.Equal(t, tt.flags, ti.Constraint.Flags, tt.user)
	}
	assert.Nil(t, typeInfo(env, nil))
}

func TestAsyncReturnTypeChecksAwaitedType(t *testing.T) {
	env := &Env{IsAsync: true}
	ti := returnTypeInfo(env, ast.Apply("Awaitable", prim(ast.PrimInt)))
	assert.Equal(t, "Awaitable<HH\\int>", ti.UserType)
	assert.Equal(t, "HH\\int", ti.Constraint.Name)
}

func TestTypeStructure(t *testing.T) {
	shape := &ast.HShape{Fields: []ast.ShapeField{
		{Name: "id", Hint: prim(ast.PrimInt)},
		{Name: "tag", Optional: true, Hint: &ast.HOption{Inner: prim(ast.PrimString)}},
	}}
	ts, err := typeStructure(shape, nil)
	require.NoError(t, err)
	assert.Equal(t,
		`dict["kind" => 14, "fields" => dict["id" => dict["value" => dict["kind" => 1]], "tag" => dict["value" => dict["kind" => 4, "nullable" => true], "optional_shape_field" => true]]]`,
		ts.String())

	_, err = typeStructure(&ast.HVar{Name: "T"}, nil)
	var ie *InternalError
	assert.True(t, errors.As(err, &ie))
}
