package ir

import "fmt"

// Op names. The core dialect holds structural ops that are always
// type-legal; the lin dialect holds the convertible computational ops.
const (
	CoreAlloc  = "core.alloc"
	CoreCopy   = "core.copy"
	CoreConst  = "core.const"
	CoreReturn = "core.return"
	CoreBr     = "core.br"
	CoreCondBr = "core.cond_br"

	LinGeneric = "lin.generic"
	LinYield   = "lin.yield"
)

// Alloc builds a core.alloc producing one buffer of the given type.
func Alloc(t *BufferType) *Op {
	if !t.StaticShape() {
		panic(fmt.Sprintf("alloc of non-static buffer %s", t))
	}
	return NewOp(CoreAlloc, nil, []Type{t})
}

// Copy builds a core.copy from src to dst, both buffers.
func Copy(src, dst Value) *Op {
	return NewOp(CoreCopy, []Value{src, dst}, nil)
}

// Const builds a core.const with a literal attribute.
func Const(t Type, lit string) *Op {
	o := NewOp(CoreConst, nil, []Type{t})
	o.SetAttr("value", lit)
	return o
}

// Return builds the function terminator.
func Return(operands ...Value) *Op {
	return NewOp(CoreReturn, operands, nil)
}

// Br builds an unconditional branch.
func Br(dst *Block) *Op {
	o := NewOp(CoreBr, nil, nil)
	o.AddSuccessor(dst)
	return o
}

// CondBr builds a two-way branch on an i1 value.
func CondBr(cond Value, yes, no *Block) *Op {
	o := NewOp(CoreCondBr, []Value{cond}, nil)
	o.AddSuccessor(yes)
	o.AddSuccessor(no)
	return o
}

// Generic builds a lin.generic with one empty nested region.
// Callers populate the region's single block: one scalar argument
// per shaped operand, a body of scalar ops, and a lin.yield.
func Generic(operands []Value, resultTypes []Type) *Op {
	o := NewOp(LinGeneric, operands, resultTypes)
	o.NewRegion()
	return o
}

// Yield builds the lin.generic region terminator.
func Yield(operands ...Value) *Op {
	return NewOp(LinYield, operands, nil)
}
