package bufferize

import (
	"github.com/tirlang/tir/ir"
)

// target classifies ops, terminators, and function signatures as
// legal or conversion candidates. It is a pure predicate over the
// current IR and is re-queried after every rewrite, since legality
// downstream depends on rewrites already applied upstream.
type target struct {
	conv TypeConverter
}

// opLegal reports whether op needs no conversion:
//   - lin-dialect ops are legal iff every operand and result type is
//     already in buffer form;
//   - core.return is legal iff every operand type is;
//   - everything else is outside the convertible subset and legal
//     as-is, which keeps partially converted input valid.
func (t target) opLegal(op *ir.Op) bool {
	switch {
	case op.Name() == ir.CoreReturn:
		return t.operandsLegal(op)
	case ir.Dialect(op.Name()) == "lin":
		if !t.operandsLegal(op) {
			return false
		}
		for _, r := range op.Results() {
			if !t.conv.IsLegal(r.Type()) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t target) operandsLegal(op *ir.Op) bool {
	for _, v := range op.Operands() {
		if !t.conv.IsLegal(v.Type()) {
			return false
		}
	}
	return true
}

// blocksLegal reports whether every block argument in the function
// body is in buffer form. Entry arguments mirror the signature, so
// funcLegal covers them too; branch-target arguments only show up
// here.
func (t target) blocksLegal(f *ir.Func) bool {
	for _, b := range f.Body().Blocks() {
		for _, a := range b.Args() {
			if !t.conv.IsLegal(a.Type()) {
				return false
			}
		}
	}
	return true
}

// funcLegal reports whether the full signature is in buffer form.
func (t target) funcLegal(f *ir.Func) bool {
	typ := f.Type()
	for _, p := range typ.Parms {
		if !t.conv.IsLegal(p) {
			return false
		}
	}
	for _, r := range typ.Rets {
		if !t.conv.IsLegal(r) {
			return false
		}
	}
	return true
}
