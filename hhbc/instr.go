package hhbc

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Operand types
// ---------------------------------------------------------------------------

// Label identifies a branch target inside one method body. Zero is never
// minted by a label generator and means "no label".
type Label uint32

// String renders the label in assembler syntax.
func (l Label) String() string { return "L" + strconv.FormatUint(uint64(l), 10) }

// LocalKind distinguishes named locals from compiler-generated slots.
type LocalKind uint8

const (
	LocalNamed LocalKind = iota
	LocalUnnamed
)

// Local is a local variable operand.
type Local struct {
	Kind LocalKind `cbor:"k"`
	ID   uint32    `cbor:"i,omitempty"`
	Name string    `cbor:"n,omitempty"`
}

// Named returns a named local such as "$x".
func Named(name string) Local { return Local{Kind: LocalNamed, Name: name} }

// Unnamed returns a compiler-generated local slot.
func Unnamed(id uint32) Local { return Local{Kind: LocalUnnamed, ID: id} }

// String renders the local in assembler syntax.
func (l Local) String() string {
	if l.Kind == LocalNamed {
		return l.Name
	}
	return "_" + strconv.FormatUint(uint64(l.ID), 10)
}

// LocalRange is a run of consecutive unnamed locals used as a memo key.
type LocalRange struct {
	Start uint32 `cbor:"s"`
	Count int    `cbor:"c"`
}

// FCallFlags modify a call.
type FCallFlags uint8

const (
	FCallHasGenerics FCallFlags = 1 << iota
	FCallHasUnpack
)

// FCallArgs describes the arguments of a call instruction.
type FCallArgs struct {
	Flags      FCallFlags `cbor:"f,omitempty"`
	NumArgs    int        `cbor:"a"`
	NumRets    int        `cbor:"r"`
	AsyncEager Label      `cbor:"e,omitempty"` // resume target when the callee finishes eagerly
}

// SwitchCase is one arm of an SSwitch.
type SwitchCase struct {
	Name   string `cbor:"n"`
	Target Label  `cbor:"l"`
}

// DefaultCase is the name of the fallback SSwitch arm.
const DefaultCase = "default"

// FatalOp is the kind of a Fatal instruction.
type FatalOp uint8

const (
	FatalRuntime FatalOp = iota
	FatalParse
	FatalRuntimeOmitFrame
)

func (op FatalOp) String() string {
	switch op {
	case FatalParse:
		return "Parse"
	case FatalRuntimeOmitFrame:
		return "RuntimeOmitFrame"
	default:
		return "Runtime"
	}
}

// SpecialClsRef is a statically-known class reference.
type SpecialClsRef uint8

const (
	ClsRefSelf SpecialClsRef = iota
	ClsRefStatic
	ClsRefParent
)

func (r SpecialClsRef) String() string {
	switch r {
	case ClsRefStatic:
		return "LateBoundCls"
	case ClsRefParent:
		return "ParentCls"
	default:
		return "SelfCls"
	}
}

// InitPropOp selects the property table InitProp writes to.
type InitPropOp uint8

const (
	InitPropNonStatic InitPropOp = iota
	InitPropStatic
)

// IsTypeOp is the type tested by IsTypeL / IsTypeC.
type IsTypeOp uint8

const (
	IsTypeNull IsTypeOp = iota
	IsTypeBool
	IsTypeInt
	IsTypeStr
)

// SrcLoc is a source position attached to following instructions.
type SrcLoc struct {
	Line1 int `cbor:"l1"`
	Col1  int `cbor:"c1"`
	Line2 int `cbor:"l2"`
	Col2  int `cbor:"c2"`
}

// ---------------------------------------------------------------------------
// Instr and InstrSeq
// ---------------------------------------------------------------------------

// Instr is one instruction. Only the operand fields used by Op are set.
type Instr struct {
	Op     Opcode        `cbor:"op"`
	Label  Label         `cbor:"l,omitempty"`
	Label2 Label         `cbor:"l2,omitempty"`
	Local  *Local        `cbor:"lo,omitempty"`
	Int    int64         `cbor:"i,omitempty"`
	Double float64       `cbor:"d,omitempty"`
	Str    string        `cbor:"s,omitempty"` // literal or class/function/method/property name
	Str2   string        `cbor:"s2,omitempty"`
	Value  *TypedValue   `cbor:"v,omitempty"`
	Cases  []SwitchCase  `cbor:"cs,omitempty"`
	FCall  *FCallArgs    `cbor:"fc,omitempty"`
	Range  *LocalRange   `cbor:"r,omitempty"`
	ClsRef SpecialClsRef `cbor:"cr,omitempty"`
	Sub    uint8         `cbor:"sub,omitempty"` // FatalOp, InitPropOp or IsTypeOp
	Loc    *SrcLoc       `cbor:"loc,omitempty"`
}

// InstrSeq is a linear instruction sequence. Sequences are values: they
// are built by concatenation and never mutated once handed out.
type InstrSeq []Instr

// Empty returns an empty sequence.
func Empty() InstrSeq { return nil }

// Gather concatenates sequences in order.
func Gather(seqs ...InstrSeq) InstrSeq {
	n := 0
	for _, s := range seqs {
		n += len(s)
	}
	if n == 0 {
		return nil
	}
	out := make(InstrSeq, 0, n)
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out
}

// Clone returns a copy of the sequence that shares no backing array.
func (s InstrSeq) Clone() InstrSeq {
	if len(s) == 0 {
		return nil
	}
	return append(InstrSeq(nil), s...)
}

// Count returns how many instructions in the sequence satisfy pred.
func (s InstrSeq) Count(pred func(Instr) bool) int {
	n := 0
	for _, i := range s {
		if pred(i) {
			n++
		}
	}
	return n
}

// Listing renders one instruction per line.
func (s InstrSeq) Listing() string {
	var sb strings.Builder
	for _, i := range s {
		if i.Op != OpLabel {
			sb.WriteString("  ")
		}
		sb.WriteString(i.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String renders the instruction in assembler syntax.
func (i Instr) String() string {
	name := i.Op.String()
	switch i.Op {
	case OpLabel:
		return i.Label.String() + ":"
	case OpSrcLoc:
		return fmt.Sprintf(".srcloc %d:%d,%d:%d;", i.Loc.Line1, i.Loc.Col1, i.Loc.Line2, i.Loc.Col2)
	case OpInt, OpConcatN, OpNewVec, OpNewDict, OpNewKeyset, OpCombineAndResolveTypeStruct:
		return name + " " + strconv.FormatInt(i.Int, 10)
	case OpQueryMEI:
		return fmt.Sprintf("%s CGet EI:%d", name, i.Int)
	case OpDouble:
		return name + " " + strconv.FormatFloat(i.Double, 'g', -1, 64)
	case OpString:
		return name + " " + strconv.Quote(i.Str)
	case OpTypedValue:
		return name + " " + i.Value.String()
	case OpCGetL, OpSetL, OpPopL, OpGetMemoKeyL, OpBaseL, OpVerifyParamType, OpVerifyParamTypeTS:
		return name + " " + i.Local.String()
	case OpIsTypeL:
		return fmt.Sprintf("%s %s %s", name, i.Local, isTypeName(IsTypeOp(i.Sub)))
	case OpIsTypeC:
		return name + " " + isTypeName(IsTypeOp(i.Sub))
	case OpJmp, OpJmpNS, OpJmpZ, OpJmpNZ:
		return name + " " + i.Label.String()
	case OpSSwitch:
		parts := make([]string, len(i.Cases))
		for n, c := range i.Cases {
			parts[n] = strconv.Quote(c.Name) + ":" + c.Target.String()
		}
		return name + " <" + strings.Join(parts, " ") + ">"
	case OpFatal:
		return name + " " + FatalOp(i.Sub).String()
	case OpFCallFuncD:
		return fmt.Sprintf("%s %s %s", name, i.FCall, strconv.Quote(i.Str))
	case OpFCallClsMethodD:
		return fmt.Sprintf("%s %s %s %s", name, i.FCall, strconv.Quote(i.Str2), strconv.Quote(i.Str))
	case OpFCallClsMethodSD:
		return fmt.Sprintf("%s %s %s %s", name, i.FCall, i.ClsRef, strconv.Quote(i.Str))
	case OpFCallObjMethodD:
		return fmt.Sprintf("%s %s %s", name, i.FCall, strconv.Quote(i.Str))
	case OpDimPT, OpSetMPT:
		return fmt.Sprintf("%s PT:%s", name, strconv.Quote(i.Str))
	case OpCheckProp:
		return name + " " + strconv.Quote(i.Str)
	case OpInitProp:
		op := "NonStatic"
		if InitPropOp(i.Sub) == InitPropStatic {
			op = "Static"
		}
		return fmt.Sprintf("%s %s %s", name, strconv.Quote(i.Str), op)
	case OpCGetS, OpSetS:
		return fmt.Sprintf("%s %s %s", name, i.ClsRef, strconv.Quote(i.Str))
	case OpClsCnsD:
		return fmt.Sprintf("%s %s %s", name, strconv.Quote(i.Str), strconv.Quote(i.Str2))
	case OpCnsE:
		return name + " " + strconv.Quote(i.Str)
	case OpMemoGet:
		return fmt.Sprintf("%s %s %s", name, i.Label, rangeString(i.Range))
	case OpMemoGetEager:
		return fmt.Sprintf("%s %s %s %s", name, i.Label, i.Label2, rangeString(i.Range))
	case OpMemoSet, OpMemoSetEager:
		return name + " " + rangeString(i.Range)
	}
	return name
}

// String renders call arguments as `<args rets eager>`.
func (a *FCallArgs) String() string {
	if a == nil {
		return "<>"
	}
	eager := "-"
	if a.AsyncEager != 0 {
		eager = a.AsyncEager.String()
	}
	flags := ""
	if a.Flags&FCallHasGenerics != 0 {
		flags = "Generics "
	}
	return fmt.Sprintf("<%s%d %d %s>", flags, a.NumArgs, a.NumRets, eager)
}

func rangeString(r *LocalRange) string {
	if r == nil {
		return "L:0+0"
	}
	return fmt.Sprintf("L:%d+%d", r.Start, r.Count)
}

func isTypeName(op IsTypeOp) string {
	switch op {
	case IsTypeBool:
		return "Bool"
	case IsTypeInt:
		return "Int"
	case IsTypeStr:
		return "Str"
	default:
		return "Null"
	}
}
