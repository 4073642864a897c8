package bufferize

import (
	"github.com/pkg/errors"

	"github.com/tirlang/tir/ir"
)

// rewriteCtx carries the per-function conversion state shared by the
// patterns: the type converter and the allocation placer.
type rewriteCtx struct {
	conv   TypeConverter
	placer *Placer
}

// A pattern rewrites one illegal op into its buffer-typed form.
// Patterns are registered by op name and only fire on ops the
// target classified as illegal.
type pattern interface {
	rewrite(op *ir.Op, cx *rewriteCtx) error
}

// patterns maps op-kind tags to their rewrite rule. Illegal ops
// with no entry here are a conversion failure, not skipped.
var patterns = map[string]pattern{
	ir.LinGeneric: genericPattern{},
	ir.CoreReturn: returnPattern{},
}

// convertSignature rewrites the function's block arguments to
// buffer types and updates the declared signature to match: entry
// arguments follow the converted parameter list, branch-target
// arguments convert individually. Any non-static argument or result
// shape aborts the whole function.
func convertSignature(f *ir.Func, conv TypeConverter) error {
	typ := f.Type()
	parms := make([]ir.Type, len(typ.Parms))
	for i, p := range typ.Parms {
		c, err := conv.Convert(p)
		if err != nil {
			return errors.Wrapf(err, "parameter %d of func %s", i, f.Name())
		}
		parms[i] = c
	}
	rets := make([]ir.Type, len(typ.Rets))
	for i, r := range typ.Rets {
		c, err := conv.Convert(r)
		if err != nil {
			return errors.Wrapf(err, "result %d of func %s", i, f.Name())
		}
		rets[i] = c
	}
	entry := f.Body().Entry()
	for i, a := range entry.Args() {
		if !conv.IsLegal(a.Type()) {
			entry.ReplaceArg(i, parms[i])
		}
	}
	for _, b := range f.Body().Blocks() {
		if b == entry {
			continue
		}
		for i, a := range b.Args() {
			if conv.IsLegal(a.Type()) {
				continue
			}
			c, err := conv.Convert(a.Type())
			if err != nil {
				return errors.Wrapf(err, "block argument %d in func %s", i, f.Name())
			}
			b.ReplaceArg(i, c)
		}
	}
	f.SetType(parms, rets)
	return nil
}

// genericPattern converts a lin.generic over tensors into one over
// buffers: one allocation per abstract result at the position the
// placer chooses, the buffers appended as trailing operands, the
// nested block cloned with its arguments remapped one-to-one plus
// one appended element-typed argument per buffer, and the original
// results replaced by the buffers.
type genericPattern struct{}

func (genericPattern) rewrite(op *ir.Op, cx *rewriteCtx) error {
	operands := op.Operands()
	for i, v := range operands {
		// Operands convert before their consumer; a still-abstract
		// operand means the definition-before-use order was broken.
		if !cx.conv.IsLegal(v.Type()) {
			return errors.Wrapf(ErrMatchFailure,
				"operand %d of %s is not yet converted", i, op.Name())
		}
	}

	newOperands := make([]ir.Value, 0, op.NumOperands()+op.NumResults())
	newOperands = append(newOperands, operands...)
	buffers := make([]*ir.Result, 0, op.NumResults())
	for _, res := range op.Results() {
		ct, err := cx.conv.Convert(res.Type())
		if err != nil {
			return errors.Wrapf(err, "result %d of %s", res.Index(), op.Name())
		}
		bt, ok := ct.(*ir.BufferType)
		if !ok {
			return errors.Wrapf(ErrMatchFailure,
				"result %d of %s is not shaped", res.Index(), op.Name())
		}
		pos, err := cx.placer.AllocPosition(res)
		if err != nil {
			return err
		}
		alloc := ir.Alloc(bt)
		pos.Block.InsertBefore(alloc, pos.Before)
		buffers = append(buffers, alloc.Result(0))
		newOperands = append(newOperands, alloc.Result(0))
	}

	newOp := ir.Generic(newOperands, nil)
	for k, v := range op.Attrs() {
		newOp.SetAttr(k, v)
	}

	// Clone the nested block, mapping old arguments one-to-one and
	// appending an element-typed argument per new buffer.
	oldBlock := op.Region(0).Entry()
	if oldBlock == nil {
		return errors.Wrapf(ErrMatchFailure, "%s has an empty region", op.Name())
	}
	newBlock := newOp.Region(0).NewBlock()
	vm := make(map[ir.Value]ir.Value)
	for _, a := range oldBlock.Args() {
		ct, err := cx.conv.Convert(a.Type())
		if err != nil {
			return errors.Wrapf(err, "region argument %d of %s", a.Index(), op.Name())
		}
		vm[a] = newBlock.AddArg(ct)
	}
	for _, buf := range buffers {
		newBlock.AddArg(buf.Type().(*ir.BufferType).Elem)
	}
	for _, o := range oldBlock.Ops() {
		newBlock.Append(ir.CloneOp(o, vm))
	}

	op.Block().InsertBefore(newOp, op)
	for i, res := range op.Results() {
		ir.ReplaceAllUses(res, buffers[i])
	}
	op.Erase()
	return nil
}

// returnPattern fires on a core.return still carrying an abstract
// operand type. Converting a producer replaces its result uses in
// place, so a return whose producers all convert turns legal
// without being matched; being matched means some operand has no
// converting producer.
type returnPattern struct{}

func (returnPattern) rewrite(op *ir.Op, cx *rewriteCtx) error {
	for i, v := range op.Operands() {
		if !cx.conv.IsLegal(v.Type()) {
			return errors.Wrapf(ErrMatchFailure,
				"return operand %d has no conversion producing %s", i, v.Type())
		}
	}
	panic("impossible") // the target only matches returns with an abstract operand
}
