package bufferize

import (
	"github.com/pkg/errors"

	"github.com/tirlang/tir/ir"
)

// Placer computes allocation insertion points within one function.
// It indexes the function body's dominance structure once and is
// discarded with the function's conversion attempt. Inserting ops
// into existing blocks does not invalidate it; only changes to the
// block graph would.
type Placer struct {
	fn  *ir.Func
	dom *ir.DomTree
}

func NewPlacer(f *ir.Func) *Placer {
	return &Placer{fn: f, dom: ir.NewDomTree(f.Body())}
}

// InsertionPoint is a position within a block: immediately before
// Before, or at the block's end when Before is nil.
type InsertionPoint struct {
	Block  *ir.Block
	Before *ir.Op
}

// AllocPosition returns where the allocation replacing res must go:
// the nearest block on the dominance path from the defining op's
// block that dominates every use, immediately before the defining
// op's position within that block. An op nested inside regions is
// positioned by its outermost enclosing op in the function body, so
// the allocation lands ahead of the whole enclosing construct.
// A result with no uses still gets a position, so dead values
// legalize like any other. If no such
// block exists the input IR breaks SSA dominance, which is fatal
// for the enclosing function's conversion.
func (p *Placer) AllocPosition(res *ir.Result) (InsertionPoint, error) {
	def := res.Op()
	defBlock, mark := p.bodyPosition(def)
	if defBlock == nil {
		return InsertionPoint{}, errors.Wrapf(ErrDominanceViolation,
			"%s is not inside the function body", res)
	}
	useBlocks := make(map[*ir.Block]bool)
	for _, u := range res.Users() {
		ub, _ := p.bodyPosition(u)
		if ub == nil {
			return InsertionPoint{}, errors.Wrapf(ErrDominanceViolation,
				"a use of %s is not inside the function body", res)
		}
		useBlocks[ub] = true
	}

	// Walk up the dominance tree from the defining block to the
	// nearest block dominating every use. In well-formed SSA the
	// defining block itself qualifies and the walk stops there.
	for b := defBlock; b != nil; b = p.dom.IDom(b) {
		if p.dominatesAll(b, useBlocks) {
			if b == defBlock {
				return InsertionPoint{Block: b, Before: mark}, nil
			}
			return InsertionPoint{Block: b, Before: b.Terminator()}, nil
		}
	}
	return InsertionPoint{}, errors.Wrapf(ErrDominanceViolation,
		"no block dominates every use of %s", res)
}

func (p *Placer) dominatesAll(b *ir.Block, uses map[*ir.Block]bool) bool {
	for u := range uses {
		if !p.dom.Dominates(b, u) {
			return false
		}
	}
	return true
}

// bodyPosition hoists an op out of nested regions to the function
// body: it returns the containing body block and the op's ancestor
// within it, which is the op itself when it already sits in the
// body. Both are nil if the op is not in this function.
func (p *Placer) bodyPosition(op *ir.Op) (*ir.Block, *ir.Op) {
	body := p.fn.Body()
	for op != nil && op.Block() != nil {
		r := op.Block().Region()
		if r == body {
			return op.Block(), op
		}
		if r.Owner() == nil {
			return nil, nil
		}
		op = r.Owner()
	}
	return nil, nil
}
