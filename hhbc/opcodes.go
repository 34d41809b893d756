package hhbc

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode identifies one instruction of the VM's abstract vocabulary. The
// numbering is internal to the emitter; binary encoding happens later.
type Opcode uint8

// Pseudo instructions
const (
	OpLabel  Opcode = iota + 1 // defines a branch target
	OpSrcLoc                   // source position marker
)

// Literals
const (
	OpNull Opcode = iota + 0x10
	OpNullUninit
	OpTrue
	OpFalse
	OpInt
	OpDouble
	OpString
	OpTypedValue // push a constant vec/dict/keyset/scalar
	OpNewVec
	OpNewDict
	OpAddElemC
	OpNewKeyset
)

// Operators
const (
	OpPopC Opcode = iota + 0x30
	OpConcat
	OpConcatN
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpSame
	OpNSame
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpNot
	OpIsTypeC
)

// Locals
const (
	OpCGetL Opcode = iota + 0x50
	OpSetL
	OpPopL
	OpIsTypeL
	OpGetMemoKeyL
)

// Control flow
const (
	OpJmp Opcode = iota + 0x60
	OpJmpNS
	OpJmpZ
	OpJmpNZ
	OpSSwitch
	OpRetC
	OpRetCSuspended
	OpFatal
)

// Calls
const (
	OpFCallFuncD Opcode = iota + 0x70
	OpFCallClsMethodD
	OpFCallClsMethodSD
	OpFCallObjMethodD
)

// Objects, properties and constants
const (
	OpThis Opcode = iota + 0x80
	OpCheckThis
	OpBaseH
	OpBaseL
	OpDimPT
	OpQueryMEI
	OpSetMPT
	OpCheckProp
	OpInitProp
	OpCGetS
	OpSetS
	OpClsCnsD
	OpCnsE
)

// Reified generics and type verification
const (
	OpCheckReifiedGenericMismatch Opcode = iota + 0x90
	OpRecordReifiedGeneric
	OpCombineAndResolveTypeStruct
	OpVerifyParamType
	OpVerifyParamTypeTS
	OpVerifyRetTypeC
	OpVerifyRetTypeTS
)

// Memoization
const (
	OpMemoGet Opcode = iota + 0xA0
	OpMemoGetEager
	OpMemoSet
	OpMemoSetEager
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name       string // assembler mnemonic
	Terminates bool   // control never falls through
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpLabel:  {"Label", false},
	OpSrcLoc: {".srcloc", false},

	OpNull:       {"Null", false},
	OpNullUninit: {"NullUninit", false},
	OpTrue:       {"True", false},
	OpFalse:      {"False", false},
	OpInt:        {"Int", false},
	OpDouble:     {"Double", false},
	OpString:     {"String", false},
	OpTypedValue: {"TypedValue", false},
	OpNewVec:     {"NewVec", false},
	OpNewDict:    {"NewDictArray", false},
	OpAddElemC:   {"AddElemC", false},
	OpNewKeyset:  {"NewKeysetArray", false},

	OpPopC:    {"PopC", false},
	OpConcat:  {"Concat", false},
	OpConcatN: {"ConcatN", false},
	OpAdd:     {"Add", false},
	OpSub:     {"Sub", false},
	OpMul:     {"Mul", false},
	OpDiv:     {"Div", false},
	OpMod:     {"Mod", false},
	OpSame:    {"Same", false},
	OpNSame:   {"NSame", false},
	OpEq:      {"Eq", false},
	OpNeq:     {"Neq", false},
	OpLt:      {"Lt", false},
	OpLte:     {"Lte", false},
	OpGt:      {"Gt", false},
	OpGte:     {"Gte", false},
	OpNot:     {"Not", false},
	OpIsTypeC: {"IsTypeC", false},

	OpCGetL:       {"CGetL", false},
	OpSetL:        {"SetL", false},
	OpPopL:        {"PopL", false},
	OpIsTypeL:     {"IsTypeL", false},
	OpGetMemoKeyL: {"GetMemoKeyL", false},

	OpJmp:           {"Jmp", true},
	OpJmpNS:         {"JmpNS", true},
	OpJmpZ:          {"JmpZ", false},
	OpJmpNZ:         {"JmpNZ", false},
	OpSSwitch:       {"SSwitch", true},
	OpRetC:          {"RetC", true},
	OpRetCSuspended: {"RetCSuspended", true},
	OpFatal:         {"Fatal", true},

	OpFCallFuncD:       {"FCallFuncD", false},
	OpFCallClsMethodD:  {"FCallClsMethodD", false},
	OpFCallClsMethodSD: {"FCallClsMethodSD", false},
	OpFCallObjMethodD:  {"FCallObjMethodD", false},

	OpThis:      {"This", false},
	OpCheckThis: {"CheckThis", false},
	OpBaseH:     {"BaseH", false},
	OpBaseL:     {"BaseL", false},
	OpDimPT:     {"Dim", false},
	OpQueryMEI:  {"QueryM", false},
	OpSetMPT:    {"SetM", false},
	OpCheckProp: {"CheckProp", false},
	OpInitProp:  {"InitProp", false},
	OpCGetS:     {"CGetS", false},
	OpSetS:      {"SetS", false},
	OpClsCnsD:   {"ClsCnsD", false},
	OpCnsE:      {"CnsE", false},

	OpCheckReifiedGenericMismatch: {"CheckReifiedGenericMismatch", false},
	OpRecordReifiedGeneric:        {"RecordReifiedGeneric", false},
	OpCombineAndResolveTypeStruct: {"CombineAndResolveTypeStruct", false},
	OpVerifyParamType:             {"VerifyParamType", false},
	OpVerifyParamTypeTS:           {"VerifyParamTypeTS", false},
	OpVerifyRetTypeC:              {"VerifyRetTypeC", false},
	OpVerifyRetTypeTS:             {"VerifyRetTypeTS", false},

	OpMemoGet:      {"MemoGet", false},
	OpMemoGetEager: {"MemoGetEager", false},
	OpMemoSet:      {"MemoSet", false},
	OpMemoSetEager: {"MemoSetEager", false},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Info().Name
}
