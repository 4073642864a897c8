package ir

// CloneOp deep-copies an op, mapping operands through vm.
// Operands missing from vm are carried over as-is, so values
// defined in enclosing scopes stay shared. Results of the clone
// are recorded in vm so later clones see them. Ops with block
// successors cannot be cloned this way; use Func.Clone.
func CloneOp(o *Op, vm map[Value]Value) *Op {
	if len(o.succs) > 0 {
		panic("CloneOp cannot clone an op with block successors")
	}
	return cloneOp(o, vm, nil)
}

func cloneOp(o *Op, vm map[Value]Value, bm map[*Block]*Block) *Op {
	operands := make([]Value, len(o.operands))
	for i, v := range o.operands {
		if mapped, ok := vm[v]; ok {
			operands[i] = mapped
		} else {
			operands[i] = v
		}
	}
	resultTypes := make([]Type, len(o.results))
	for i, r := range o.results {
		resultTypes[i] = r.typ
	}
	n := NewOp(o.name, operands, resultTypes)
	for i, r := range o.results {
		vm[r] = n.results[i]
	}
	for k, v := range o.attrs {
		n.SetAttr(k, v)
	}
	for _, s := range o.succs {
		mapped, ok := bm[s]
		if !ok {
			panic("cloned op branches to a block outside the clone")
		}
		n.AddSuccessor(mapped)
	}
	for _, r := range o.regions {
		cloneRegionInto(n.NewRegion(), r, vm)
	}
	return n
}

func cloneRegionInto(dst, src *Region, vm map[Value]Value) {
	bm := make(map[*Block]*Block, len(src.blocks))
	for _, b := range src.blocks {
		nb := dst.NewBlock()
		for _, a := range b.args {
			vm[a] = nb.AddArg(a.typ)
		}
		bm[b] = nb
	}
	for _, b := range src.blocks {
		nb := bm[b]
		for _, o := range b.ops {
			nb.Append(cloneOp(o, vm, bm))
		}
	}
}

// Clone returns a deep copy of the function, detached from any module.
func (f *Func) Clone() *Func {
	n := &Func{
		name: f.name,
		typ: &FuncType{
			Parms: append([]Type{}, f.typ.Parms...),
			Rets:  append([]Type{}, f.typ.Rets...),
		},
	}
	n.body = &Region{fn: n}
	cloneRegionInto(n.body, f.body, make(map[Value]Value))
	return n
}
