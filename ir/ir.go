// Package ir defines a region-based, SSA-form tensor IR:
// a Module of Funcs, each owning a single Region of Blocks,
// where Blocks hold Ops producing Values tracked by use-def lists.
package ir

import (
	"fmt"
	"strings"
)

type Module struct {
	Name  string
	funcs []*Func
}

func NewModule(name string) *Module {
	return &Module{Name: name}
}

func (m *Module) Funcs() []*Func {
	return append([]*Func{}, m.funcs...)
}

func (m *Module) Func(name string) *Func {
	for _, f := range m.funcs {
		if f.name == name {
			return f
		}
	}
	return nil
}

// NewFunc adds a function to the module. Its body gets an entry
// block with one argument per parameter type.
func (m *Module) NewFunc(name string, parms, rets []Type) *Func {
	if m.Func(name) != nil {
		panic(fmt.Sprintf("duplicate function %s", name))
	}
	f := newFunc(name, parms, rets)
	f.mod = m
	m.funcs = append(m.funcs, f)
	return f
}

type Func struct {
	mod  *Module
	name string
	typ  *FuncType
	body *Region
}

func newFunc(name string, parms, rets []Type) *Func {
	f := &Func{
		name: name,
		typ: &FuncType{
			Parms: append([]Type{}, parms...),
			Rets:  append([]Type{}, rets...),
		},
	}
	f.body = &Region{fn: f}
	entry := f.body.NewBlock()
	for _, t := range parms {
		entry.AddArg(t)
	}
	return f
}

func (f *Func) Name() string { return f.name }

func (f *Func) Type() *FuncType {
	return &FuncType{
		Parms: append([]Type{}, f.typ.Parms...),
		Rets:  append([]Type{}, f.typ.Rets...),
	}
}

func (f *Func) Body() *Region { return f.body }

// SetType updates the declared signature. The entry block
// arguments are not touched; callers keep them in sync.
func (f *Func) SetType(parms, rets []Type) {
	f.typ = &FuncType{
		Parms: append([]Type{}, parms...),
		Rets:  append([]Type{}, rets...),
	}
}

// ReplaceWith splices other's signature and body into f.
// Used to commit a converted clone back into its module.
func (f *Func) ReplaceWith(other *Func) {
	f.typ = other.typ
	f.body = other.body
	f.body.fn = f
	other.body = nil
}

// Walk visits every op in the function body, outermost first,
// in block order, recursing into nested regions. It stops and
// returns the first non-nil error from fn.
func (f *Func) Walk(fn func(*Op) error) error {
	return f.body.walk(fn)
}

// A Region owns an ordered list of blocks. It is either a
// function body or nested under an op.
type Region struct {
	owner  *Op
	fn     *Func
	blocks []*Block
}

// Owner returns the op this region is nested under, or nil for a
// function body.
func (r *Region) Owner() *Op { return r.owner }

// Fn returns the function owning this region directly, or nil for
// regions nested under ops.
func (r *Region) Fn() *Func { return r.fn }

func (r *Region) Blocks() []*Block {
	return append([]*Block{}, r.blocks...)
}

func (r *Region) Entry() *Block {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[0]
}

func (r *Region) NewBlock(argTypes ...Type) *Block {
	b := &Block{region: r}
	for _, t := range argTypes {
		b.AddArg(t)
	}
	r.blocks = append(r.blocks, b)
	return b
}

func (r *Region) walk(fn func(*Op) error) error {
	for _, b := range r.blocks {
		for _, o := range b.ops {
			if err := fn(o); err != nil {
				return err
			}
			for _, nested := range o.regions {
				if err := nested.walk(fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type Block struct {
	region *Region
	args   []*BlockArg
	ops    []*Op
}

func (b *Block) Region() *Region { return b.region }

func (b *Block) Args() []*BlockArg {
	return append([]*BlockArg{}, b.args...)
}

func (b *Block) Arg(i int) *BlockArg { return b.args[i] }
func (b *Block) NumArgs() int        { return len(b.args) }

func (b *Block) AddArg(t Type) *BlockArg {
	a := &BlockArg{block: b, index: len(b.args), typ: t}
	b.args = append(b.args, a)
	return a
}

// ReplaceArg installs a fresh argument of the given type at index i,
// replaces all uses of the old argument with it, and returns it.
func (b *Block) ReplaceArg(i int, t Type) *BlockArg {
	old := b.args[i]
	a := &BlockArg{block: b, index: i, typ: t}
	b.args[i] = a
	ReplaceAllUses(old, a)
	return a
}

func (b *Block) Ops() []*Op {
	return append([]*Op{}, b.ops...)
}

func (b *Block) NumOps() int { return len(b.ops) }

// Terminator returns the block's final op, or nil for an empty block.
func (b *Block) Terminator() *Op {
	if len(b.ops) == 0 {
		return nil
	}
	t := b.ops[len(b.ops)-1]
	if !t.IsTerminator() {
		return nil
	}
	return t
}

// Succs returns the successor blocks of the block's terminator.
func (b *Block) Succs() []*Block {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	return t.Successors()
}

// Append adds op at the end of the block.
func (b *Block) Append(op *Op) {
	op.attach(b)
	b.ops = append(b.ops, op)
}

// InsertBefore inserts op immediately before mark, which must be
// in this block. A nil mark appends.
func (b *Block) InsertBefore(op *Op, mark *Op) {
	if mark == nil {
		b.Append(op)
		return
	}
	i := b.indexOf(mark)
	if i < 0 {
		panic("insertion mark is not in the block")
	}
	op.attach(b)
	b.ops = append(b.ops, nil)
	copy(b.ops[i+1:], b.ops[i:])
	b.ops[i] = op
}

func (b *Block) indexOf(op *Op) int {
	for i, o := range b.ops {
		if o == op {
			return i
		}
	}
	return -1
}

func (b *Block) remove(op *Op) {
	i := b.indexOf(op)
	if i < 0 {
		return
	}
	copy(b.ops[i:], b.ops[i+1:])
	b.ops = b.ops[:len(b.ops)-1]
}

// Value is an SSA value: a block argument or an op result.
type Value interface {
	Type() Type
	Users() []*Op
	addUser(*Op)
	rmUser(*Op)
	String() string
}

type value struct {
	users []*Op
}

func (v *value) Users() []*Op {
	// Copy so users may be modified while ranging over Users().
	return append([]*Op{}, v.users...)
}

func (v *value) addUser(op *Op) {
	for _, u := range v.users {
		if u == op {
			return
		}
	}
	v.users = append(v.users, op)
}

func (v *value) rmUser(op *Op) {
	var n int
	for _, u := range v.users {
		if u != op {
			v.users[n] = u
			n++
		}
	}
	v.users = v.users[:n]
}

type BlockArg struct {
	value
	block *Block
	index int
	typ   Type
}

func (a *BlockArg) Type() Type    { return a.typ }
func (a *BlockArg) Block() *Block { return a.block }
func (a *BlockArg) Index() int    { return a.index }
func (a *BlockArg) String() string {
	return fmt.Sprintf("arg%d of block", a.index)
}

type Result struct {
	value
	op    *Op
	index int
	typ   Type
}

func (r *Result) Type() Type { return r.typ }
func (r *Result) Op() *Op    { return r.op }
func (r *Result) Index() int { return r.index }
func (r *Result) String() string {
	return fmt.Sprintf("result %d of %s", r.index, r.op.name)
}

// ReplaceAllUses rewrites every operand slot holding old to new.
func ReplaceAllUses(old, new Value) {
	if old == new {
		return
	}
	for _, op := range old.Users() {
		for i, v := range op.operands {
			if v == old {
				op.operands[i] = new
				new.addUser(op)
			}
		}
		old.rmUser(op)
	}
}

// An Op is an operation: a dialect-qualified name, ordered operands,
// owned results, string attributes, successor blocks, and nested regions.
type Op struct {
	name     string
	block    *Block
	operands []Value
	results  []*Result
	attrs    map[string]string
	succs    []*Block
	regions  []*Region
}

// NewOp builds a detached op. Operand use lists are updated
// immediately; Erase undoes them.
func NewOp(name string, operands []Value, resultTypes []Type) *Op {
	o := &Op{name: name, operands: append([]Value{}, operands...)}
	for i, t := range resultTypes {
		o.results = append(o.results, &Result{op: o, index: i, typ: t})
	}
	for _, v := range o.operands {
		v.addUser(o)
	}
	return o
}

func (o *Op) Name() string { return o.name }

// Dialect returns the name prefix before the first dot.
func Dialect(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func (o *Op) Block() *Block { return o.block }

func (o *Op) Operands() []Value {
	return append([]Value{}, o.operands...)
}

func (o *Op) Operand(i int) Value { return o.operands[i] }
func (o *Op) NumOperands() int    { return len(o.operands) }

func (o *Op) SetOperand(i int, v Value) {
	old := o.operands[i]
	if old == v {
		return
	}
	o.operands[i] = v
	v.addUser(o)
	stillUsed := false
	for _, w := range o.operands {
		if w == old {
			stillUsed = true
		}
	}
	if !stillUsed {
		old.rmUser(o)
	}
}

func (o *Op) Results() []*Result {
	return append([]*Result{}, o.results...)
}

func (o *Op) Result(i int) *Result { return o.results[i] }
func (o *Op) NumResults() int      { return len(o.results) }

func (o *Op) Attr(key string) (string, bool) {
	v, ok := o.attrs[key]
	return v, ok
}

func (o *Op) Attrs() map[string]string {
	m := make(map[string]string, len(o.attrs))
	for k, v := range o.attrs {
		m[k] = v
	}
	return m
}

func (o *Op) SetAttr(key, val string) {
	if o.attrs == nil {
		o.attrs = make(map[string]string)
	}
	o.attrs[key] = val
}

func (o *Op) Successors() []*Block {
	return append([]*Block{}, o.succs...)
}

func (o *Op) AddSuccessor(b *Block) { o.succs = append(o.succs, b) }

func (o *Op) Regions() []*Region {
	return append([]*Region{}, o.regions...)
}

func (o *Op) Region(i int) *Region { return o.regions[i] }
func (o *Op) NumRegions() int      { return len(o.regions) }

// NewRegion adds an empty nested region to the op.
func (o *Op) NewRegion() *Region {
	r := &Region{owner: o}
	o.regions = append(o.regions, r)
	return r
}

func (o *Op) IsTerminator() bool {
	switch o.name {
	case CoreReturn, CoreBr, CoreCondBr, LinYield:
		return true
	}
	return false
}

func (o *Op) attach(b *Block) {
	if o.block != nil {
		panic(fmt.Sprintf("op %s is already in a block", o.name))
	}
	o.block = b
}

// Erase removes the op from its block and drops its operand uses.
// The op's results must have no remaining users.
func (o *Op) Erase() {
	for _, r := range o.results {
		if len(r.users) > 0 {
			panic(fmt.Sprintf("erasing %s whose result %d still has users", o.name, r.index))
		}
	}
	o.dropUses()
	if o.block != nil {
		o.block.remove(o)
		o.block = nil
	}
}

// dropUses unregisters o, and every op nested in its regions, from
// their operands' use lists, so erasing an op with regions leaves
// no stale users on values of enclosing scopes.
func (o *Op) dropUses() {
	for _, v := range o.operands {
		v.rmUser(o)
	}
	for _, r := range o.regions {
		for _, b := range r.blocks {
			for _, nested := range b.ops {
				nested.dropUses()
			}
		}
	}
}
