package ir

// ReversePostorder returns the region's blocks in reverse postorder
// of its control-flow graph. Unreachable blocks are omitted.
func ReversePostorder(r *Region) []*Block {
	entry := r.Entry()
	if entry == nil {
		return nil
	}
	var post []*Block
	seen := map[*Block]bool{entry: true}
	var visit func(*Block)
	visit = func(b *Block) {
		for _, s := range b.Succs() {
			if !seen[s] {
				seen[s] = true
				visit(s)
			}
		}
		post = append(post, b)
	}
	visit(entry)
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// DomTree is the dominator tree of one region's control-flow graph,
// built with the Cooper-Harvey-Kennedy iterative algorithm.
type DomTree struct {
	entry *Block
	idom  map[*Block]*Block
	num   map[*Block]int
}

func NewDomTree(r *Region) *DomTree {
	rpo := ReversePostorder(r)
	t := &DomTree{
		idom: make(map[*Block]*Block, len(rpo)),
		num:  make(map[*Block]int, len(rpo)),
	}
	if len(rpo) == 0 {
		return t
	}
	t.entry = rpo[0]
	for i, b := range rpo {
		t.num[b] = i
	}
	preds := make(map[*Block][]*Block)
	for _, b := range rpo {
		for _, s := range b.Succs() {
			preds[s] = append(preds[s], b)
		}
	}
	t.idom[t.entry] = t.entry
	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom *Block
			for _, p := range preds[b] {
				if t.idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = t.intersect(p, newIdom)
				}
			}
			if newIdom != nil && t.idom[b] != newIdom {
				t.idom[b] = newIdom
				changed = true
			}
		}
	}
	return t
}

func (t *DomTree) intersect(a, b *Block) *Block {
	for a != b {
		for t.num[a] > t.num[b] {
			a = t.idom[a]
		}
		for t.num[b] > t.num[a] {
			b = t.idom[b]
		}
	}
	return a
}

// IDom returns the immediate dominator of b, or nil for the entry
// block and for blocks unreachable from the entry.
func (t *DomTree) IDom(b *Block) *Block {
	if b == t.entry {
		return nil
	}
	return t.idom[b]
}

// Dominates reports whether a dominates b. A block dominates itself.
func (t *DomTree) Dominates(a, b *Block) bool {
	if a == b {
		return true
	}
	if t.idom[a] == nil || t.idom[b] == nil {
		return false
	}
	for b != t.entry {
		b = t.idom[b]
		if b == a {
			return true
		}
	}
	return false
}
