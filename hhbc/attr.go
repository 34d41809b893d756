package hhbc

import "strings"

// Attr is the VM attribute bitset carried by classes, methods, functions
// and properties.
type Attr uint64

const (
	AttrNone Attr = 0

	AttrPublic Attr = 1 << iota
	AttrProtected
	AttrPrivate
	AttrStatic
	AttrAbstract
	AttrFinal
	AttrInterface
	AttrTrait
	AttrEnum
	AttrEnumClass
	AttrSealed
	AttrIsConst
	AttrForbidDynamicProps
	AttrNoReifiedInit
	AttrNoOverride
	AttrBuiltin
	AttrPersistent
	AttrUnique
	AttrIsFoldable
	AttrDynamicallyConstructible
	AttrDynamicallyCallable
	AttrInterceptable
	AttrNoInjection
	AttrLSB
	AttrLateInit
	AttrIsReadonly
	AttrReadonlyReturn
	AttrSystemInitialValue
	AttrNoImplicitNullable
	AttrInitialSatisfiesTC
	AttrProvenanceSkipFrame
)

var attrNames = []struct {
	bit  Attr
	name string
}{
	{AttrPublic, "public"},
	{AttrProtected, "protected"},
	{AttrPrivate, "private"},
	{AttrStatic, "static"},
	{AttrAbstract, "abstract"},
	{AttrFinal, "final"},
	{AttrInterface, "interface"},
	{AttrTrait, "trait"},
	{AttrEnum, "enum"},
	{AttrEnumClass, "enum_class"},
	{AttrSealed, "sealed"},
	{AttrIsConst, "is_const"},
	{AttrForbidDynamicProps, "no_dynamic_props"},
	{AttrNoReifiedInit, "noreifiedinit"},
	{AttrNoOverride, "nooverride"},
	{AttrBuiltin, "builtin"},
	{AttrPersistent, "persistent"},
	{AttrUnique, "unique"},
	{AttrIsFoldable, "foldable"},
	{AttrDynamicallyConstructible, "dyn_constructible"},
	{AttrDynamicallyCallable, "dyn_callable"},
	{AttrInterceptable, "interceptable"},
	{AttrNoInjection, "no_injection"},
	{AttrLSB, "lsb"},
	{AttrLateInit, "late_init"},
	{AttrIsReadonly, "readonly"},
	{AttrReadonlyReturn, "readonly_return"},
	{AttrSystemInitialValue, "sys_initial_val"},
	{AttrNoImplicitNullable, "no_implicit_null"},
	{AttrInitialSatisfiesTC, "initial_satisfies_tc"},
	{AttrProvenanceSkipFrame, "prov_skip_frame"},
}

// Has reports whether every bit of mask is set.
func (a Attr) Has(mask Attr) bool { return a&mask == mask }

// Set turns the mask on or off.
func (a *Attr) Set(mask Attr, on bool) {
	if on {
		*a |= mask
	} else {
		*a &^= mask
	}
}

// String lists the set attributes in declaration order.
func (a Attr) String() string {
	var names []string
	for _, n := range attrNames {
		if a&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return "[" + strings.Join(names, " ") + "]"
}
