package hhbc

// ---------------------------------------------------------------------------
// Single-instruction constructors
// ---------------------------------------------------------------------------

func one(i Instr) InstrSeq { return InstrSeq{i} }

func op(o Opcode) InstrSeq { return one(Instr{Op: o}) }

func withLocal(o Opcode, l Local) InstrSeq { return one(Instr{Op: o, Local: &l}) }

// Mark defines label l at this point of the sequence.
func Mark(l Label) InstrSeq { return one(Instr{Op: OpLabel, Label: l}) }

// Pos emits a source position marker.
func Pos(loc SrcLoc) InstrSeq { return one(Instr{Op: OpSrcLoc, Loc: &loc}) }

func Null() InstrSeq       { return op(OpNull) }
func NullUninit() InstrSeq { return op(OpNullUninit) }
func True() InstrSeq       { return op(OpTrue) }
func False() InstrSeq      { return op(OpFalse) }
func PopC() InstrSeq       { return op(OpPopC) }
func Concat() InstrSeq     { return op(OpConcat) }
func Not() InstrSeq        { return op(OpNot) }
func AddElemC() InstrSeq   { return op(OpAddElemC) }
func RetC() InstrSeq       { return op(OpRetC) }

// RetCSuspended returns from an async function without awaiting the
// result, preserving its suspension.
func RetCSuspended() InstrSeq { return op(OpRetCSuspended) }

func This() InstrSeq      { return op(OpThis) }
func CheckThis() InstrSeq { return op(OpCheckThis) }
func BaseH() InstrSeq     { return op(OpBaseH) }

func CheckReifiedGenericMismatch() InstrSeq { return op(OpCheckReifiedGenericMismatch) }
func RecordReifiedGeneric() InstrSeq        { return op(OpRecordReifiedGeneric) }
func VerifyRetTypeC() InstrSeq              { return op(OpVerifyRetTypeC) }
func VerifyRetTypeTS() InstrSeq             { return op(OpVerifyRetTypeTS) }

func Int(i int64) InstrSeq        { return one(Instr{Op: OpInt, Int: i}) }
func Double(d float64) InstrSeq   { return one(Instr{Op: OpDouble, Double: d}) }
func String(s string) InstrSeq    { return one(Instr{Op: OpString, Str: s}) }
func ConcatN(n int) InstrSeq      { return one(Instr{Op: OpConcatN, Int: int64(n)}) }
func NewVec(n int) InstrSeq       { return one(Instr{Op: OpNewVec, Int: int64(n)}) }
func NewDict(n int) InstrSeq      { return one(Instr{Op: OpNewDict, Int: int64(n)}) }
func NewKeyset(n int) InstrSeq    { return one(Instr{Op: OpNewKeyset, Int: int64(n)}) }
func QueryMEI(idx int) InstrSeq   { return one(Instr{Op: OpQueryMEI, Int: int64(idx)}) }
func IsTypeC(t IsTypeOp) InstrSeq { return one(Instr{Op: OpIsTypeC, Sub: uint8(t)}) }

// TypedValueC pushes a folded value.
func TypedValueC(v TypedValue) InstrSeq { return one(Instr{Op: OpTypedValue, Value: &v}) }

// CombineAndResolveTypeStruct merges n type structures from the stack.
func CombineAndResolveTypeStruct(n int) InstrSeq {
	return one(Instr{Op: OpCombineAndResolveTypeStruct, Int: int64(n)})
}

// BinOp emits an arithmetic or comparison operator.
func BinOp(o Opcode) InstrSeq { return op(o) }

func CGetL(l Local) InstrSeq             { return withLocal(OpCGetL, l) }
func SetL(l Local) InstrSeq              { return withLocal(OpSetL, l) }
func PopL(l Local) InstrSeq              { return withLocal(OpPopL, l) }
func GetMemoKeyL(l Local) InstrSeq       { return withLocal(OpGetMemoKeyL, l) }
func BaseL(l Local) InstrSeq             { return withLocal(OpBaseL, l) }
func VerifyParamType(l Local) InstrSeq   { return withLocal(OpVerifyParamType, l) }
func VerifyParamTypeTS(l Local) InstrSeq { return withLocal(OpVerifyParamTypeTS, l) }

// IsTypeL tests the type of a local without reading it onto the stack.
func IsTypeL(l Local, t IsTypeOp) InstrSeq {
	return one(Instr{Op: OpIsTypeL, Local: &l, Sub: uint8(t)})
}

func Jmp(l Label) InstrSeq   { return one(Instr{Op: OpJmp, Label: l}) }
func JmpNS(l Label) InstrSeq { return one(Instr{Op: OpJmpNS, Label: l}) }
func JmpZ(l Label) InstrSeq  { return one(Instr{Op: OpJmpZ, Label: l}) }
func JmpNZ(l Label) InstrSeq { return one(Instr{Op: OpJmpNZ, Label: l}) }

// SSwitch dispatches on the string on top of the stack.
func SSwitch(cases []SwitchCase) InstrSeq { return one(Instr{Op: OpSSwitch, Cases: cases}) }

// Fatal raises a fatal error with the message on top of the stack.
func Fatal(f FatalOp) InstrSeq { return one(Instr{Op: OpFatal, Sub: uint8(f)}) }

// FCallFuncD calls a function by name.
func FCallFuncD(args FCallArgs, fn string) InstrSeq {
	return one(Instr{Op: OpFCallFuncD, FCall: &args, Str: fn})
}

// FCallClsMethodD calls a static method on a named class.
func FCallClsMethodD(args FCallArgs, method, class string) InstrSeq {
	return one(Instr{Op: OpFCallClsMethodD, FCall: &args, Str: method, Str2: class})
}

// FCallClsMethodSD calls a static method through a special class reference.
func FCallClsMethodSD(args FCallArgs, ref SpecialClsRef, method string) InstrSeq {
	return one(Instr{Op: OpFCallClsMethodSD, FCall: &args, ClsRef: ref, Str: method})
}

// FCallObjMethodD calls an instance method on the object below the
// arguments; a null object throws.
func FCallObjMethodD(args FCallArgs, method string) InstrSeq {
	return one(Instr{Op: OpFCallObjMethodD, FCall: &args, Str: method})
}

func DimPT(prop string) InstrSeq     { return one(Instr{Op: OpDimPT, Str: prop}) }
func SetMPT(prop string) InstrSeq    { return one(Instr{Op: OpSetMPT, Str: prop}) }
func CheckProp(prop string) InstrSeq { return one(Instr{Op: OpCheckProp, Str: prop}) }
func CnsE(name string) InstrSeq      { return one(Instr{Op: OpCnsE, Str: name}) }

// InitProp stores the value on top of the stack as a property's initial
// value.
func InitProp(prop string, o InitPropOp) InstrSeq {
	return one(Instr{Op: OpInitProp, Str: prop, Sub: uint8(o)})
}

// CGetS reads a static property through a special class reference.
func CGetS(ref SpecialClsRef, prop string) InstrSeq {
	return one(Instr{Op: OpCGetS, ClsRef: ref, Str: prop})
}

// SetS writes a static property through a special class reference.
func SetS(ref SpecialClsRef, prop string) InstrSeq {
	return one(Instr{Op: OpSetS, ClsRef: ref, Str: prop})
}

// ClsCnsD reads constant name of class.
func ClsCnsD(name, class string) InstrSeq {
	return one(Instr{Op: OpClsCnsD, Str: name, Str2: class})
}

// MemoGet jumps to notFound on a cache miss and otherwise pushes the hit.
// A nil key range means the cache has no key components.
func MemoGet(notFound Label, key *LocalRange) InstrSeq {
	return one(Instr{Op: OpMemoGet, Label: notFound, Range: key})
}

// MemoGetEager is MemoGet for async functions: an eagerly-finished hit
// falls through, a pending hit jumps to suspended.
func MemoGetEager(notFound, suspended Label, key *LocalRange) InstrSeq {
	return one(Instr{Op: OpMemoGetEager, Label: notFound, Label2: suspended, Range: key})
}

// MemoSet stores the value on top of the stack in the cache.
func MemoSet(key *LocalRange) InstrSeq { return one(Instr{Op: OpMemoSet, Range: key}) }

// MemoSetEager stores an eagerly-finished async result in the cache.
func MemoSetEager(key *LocalRange) InstrSeq { return one(Instr{Op: OpMemoSetEager, Range: key}) }
