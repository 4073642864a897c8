// Package bufferize legalizes tensor-typed functions into
// buffer-typed ones: every abstract tensor value is replaced by an
// explicitly allocated buffer, with allocations inserted at the
// earliest position dominating all uses. Conversion is all-or-nothing
// per function; a failed function keeps its original body.
package bufferize

import (
	"github.com/pkg/errors"

	"github.com/tirlang/tir/ir"
)

// Conversion failure classes. All are scoped to one function and
// leave it unmodified.
var (
	// ErrUnsupportedShape marks a tensor with a dynamic dimension.
	ErrUnsupportedShape = errors.New("unsupported non-static shape")
	// ErrDominanceViolation marks input IR whose uses are not
	// dominated by their definitions.
	ErrDominanceViolation = errors.New("dominance violation")
	// ErrMatchFailure marks any other unmet pattern precondition.
	ErrMatchFailure = errors.New("conversion match failure")
)

// Module converts every function of m independently, in place.
// It returns one error per failed function; failed functions are
// left untouched and do not block the others.
func Module(m *ir.Module) []error {
	var errs []error
	for _, f := range m.Funcs() {
		if err := Func(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Func converts one function to a fixed point against the legality
// target. The rewrite runs on a clone and is committed only on full
// success, so a failure leaves f observably unmodified.
func Func(f *ir.Func) error {
	tg := target{}
	if tg.funcLegal(f) && tg.blocksLegal(f) && firstIllegal(f, tg) == nil {
		return nil // already legal, zero rewrites
	}
	work := f.Clone()
	if err := convert(work); err != nil {
		return errors.Wrapf(err, "bufferize func %s", f.Name())
	}
	f.ReplaceWith(work)
	return nil
}

func convert(f *ir.Func) error {
	tg := target{}
	cx := &rewriteCtx{placer: NewPlacer(f)}
	if !tg.funcLegal(f) || !tg.blocksLegal(f) {
		if err := convertSignature(f, cx.conv); err != nil {
			return err
		}
	}
	// Each rewrite erases the op it matched, so the op count bounds
	// the number of steps a converging conversion can take.
	limit := opCount(f) + len(f.Type().Parms) + 1
	for i := 0; ; i++ {
		op := firstIllegal(f, tg)
		if op == nil {
			return nil
		}
		if i > limit {
			return errors.Wrap(ErrMatchFailure, "conversion did not reach a fixed point")
		}
		p, ok := patterns[op.Name()]
		if !ok {
			return errors.Wrapf(ErrMatchFailure, "no conversion rule for illegal op %s", op.Name())
		}
		if err := p.rewrite(op, cx); err != nil {
			return err
		}
	}
}

// firstIllegal returns the next conversion candidate in
// definition-before-use order: blocks in reverse postorder (any
// unreachable blocks after them), ops in block order, nested
// regions right after their op. Legality is recomputed on every
// call; it is never cached across rewrites.
func firstIllegal(f *ir.Func, tg target) *ir.Op {
	rpo := ir.ReversePostorder(f.Body())
	inRPO := make(map[*ir.Block]bool, len(rpo))
	for _, b := range rpo {
		inRPO[b] = true
	}
	blocks := rpo
	for _, b := range f.Body().Blocks() {
		if !inRPO[b] {
			blocks = append(blocks, b)
		}
	}
	for _, b := range blocks {
		for _, o := range b.Ops() {
			if op := firstIllegalIn(o, tg); op != nil {
				return op
			}
		}
	}
	return nil
}

func firstIllegalIn(o *ir.Op, tg target) *ir.Op {
	if !tg.opLegal(o) {
		return o
	}
	for _, r := range o.Regions() {
		for _, b := range r.Blocks() {
			for _, nested := range b.Ops() {
				if op := firstIllegalIn(nested, tg); op != nil {
					return op
				}
			}
		}
	}
	return nil
}

func opCount(f *ir.Func) int {
	n := 0
	f.Walk(func(*ir.Op) error {
		n++
		return nil
	})
	return n
}
