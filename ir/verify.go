package ir

import (
	"github.com/pkg/errors"
)

// Verify checks module-wide structural invariants, returning the
// first violation found.
func Verify(m *Module) error {
	for _, f := range m.funcs {
		if err := VerifyFunc(f); err != nil {
			return errors.Wrapf(err, "func %s", f.name)
		}
	}
	return nil
}

// VerifyFunc checks one function: signature/entry agreement, block
// termination, successor scoping, SSA dominance of every use, and
// use-list consistency.
func VerifyFunc(f *Func) error {
	if f.body == nil || f.body.Entry() == nil {
		return errors.New("function has no entry block")
	}
	entry := f.body.Entry()
	if len(entry.args) != len(f.typ.Parms) {
		return errors.Errorf("entry block has %d arguments, signature has %d parameters",
			len(entry.args), len(f.typ.Parms))
	}
	for i, a := range entry.args {
		if !a.typ.Eq(f.typ.Parms[i]) {
			return errors.Errorf("entry argument %d has type %s, signature says %s",
				i, a.typ, f.typ.Parms[i])
		}
	}
	v := &verifier{doms: make(map[*Region]*DomTree)}
	return v.region(f.body, f)
}

type verifier struct {
	doms map[*Region]*DomTree
}

func (v *verifier) dom(r *Region) *DomTree {
	t, ok := v.doms[r]
	if !ok {
		t = NewDomTree(r)
		v.doms[r] = t
	}
	return t
}

func (v *verifier) region(r *Region, f *Func) error {
	for bi, b := range r.blocks {
		if b.region != r {
			return errors.Errorf("block %d has a stale region link", bi)
		}
		if len(b.ops) == 0 {
			return errors.Errorf("block %d is empty", bi)
		}
		for oi, o := range b.ops {
			if o.block != b {
				return errors.Errorf("op %s has a stale block link", o.name)
			}
			if o.IsTerminator() != (oi == len(b.ops)-1) {
				if o.IsTerminator() {
					return errors.Errorf("terminator %s is not last in its block", o.name)
				}
				return errors.Errorf("block %d does not end in a terminator", bi)
			}
			for _, s := range o.succs {
				if s.region != r {
					return errors.Errorf("%s branches to a block of another region", o.name)
				}
			}
			if o.name == CoreReturn && r.fn != nil {
				if err := v.returnOp(o, f); err != nil {
					return err
				}
			}
			for i, use := range o.operands {
				if err := v.operand(o, i, use); err != nil {
					return err
				}
			}
			for _, res := range o.results {
				for _, u := range res.users {
					if !usesValue(u, res) {
						return errors.Errorf("use list of %s result lists a non-user", o.name)
					}
				}
			}
			for _, nested := range o.regions {
				if err := v.region(nested, f); err != nil {
					return errors.Wrapf(err, "in region of %s", o.name)
				}
			}
		}
	}
	return nil
}

func (v *verifier) returnOp(o *Op, f *Func) error {
	if len(o.operands) != len(f.typ.Rets) {
		return errors.Errorf("return has %d operands, signature has %d results",
			len(o.operands), len(f.typ.Rets))
	}
	for i, use := range o.operands {
		if !use.Type().Eq(f.typ.Rets[i]) {
			return errors.Errorf("return operand %d has type %s, signature says %s",
				i, use.Type(), f.typ.Rets[i])
		}
	}
	return nil
}

func (v *verifier) operand(o *Op, i int, use Value) error {
	found := false
	for _, u := range use.Users() {
		if u == o {
			found = true
			break
		}
	}
	if !found {
		return errors.Errorf("operand %d of %s is missing from its value's use list", i, o.name)
	}

	var defBlock *Block
	var defIndex int // -1 for block arguments
	switch d := use.(type) {
	case *BlockArg:
		defBlock, defIndex = d.block, -1
	case *Result:
		defBlock = d.op.block
		if defBlock == nil {
			return errors.Errorf("operand %d of %s is defined by a detached op", i, o.name)
		}
		defIndex = defBlock.indexOf(d.op)
	default:
		return errors.Errorf("operand %d of %s has unknown value kind", i, o.name)
	}

	// Hoist the use up to the def's region; uses may sit in regions
	// nested below the definition.
	useOp := o
	for useOp.block.region != defBlock.region {
		owner := useOp.block.region.owner
		if owner == nil {
			return errors.Errorf("operand %d of %s is defined in a non-enclosing region", i, o.name)
		}
		useOp = owner
	}
	if useOp.block == defBlock {
		if defIndex >= 0 && defBlock.indexOf(useOp) <= defIndex {
			return errors.Errorf("operand %d of %s is used before its definition", i, o.name)
		}
		return nil
	}
	if !v.dom(defBlock.region).Dominates(defBlock, useOp.block) {
		return errors.Errorf("operand %d of %s is not dominated by its definition", i, o.name)
	}
	return nil
}

func usesValue(o *Op, v Value) bool {
	for _, w := range o.operands {
		if w == v {
			return true
		}
	}
	return false
}
