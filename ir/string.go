package ir

import (
	"fmt"
	"sort"
	"strings"
)

func (m *Module) String() string     { return m.buildString(new(strings.Builder)).String() }
func (f *Func) String() string       { return f.buildString(new(strings.Builder)).String() }
func (t *ScalarType) String() string { return t.buildString(new(strings.Builder)).String() }
func (t *TensorType) String() string { return t.buildString(new(strings.Builder)).String() }
func (t *BufferType) String() string { return t.buildString(new(strings.Builder)).String() }
func (t *FuncType) String() string   { return t.buildString(new(strings.Builder)).String() }

func (t *ScalarType) buildString(s *strings.Builder) *strings.Builder {
	switch t.Kind {
	case I1:
		s.WriteString("i1")
	case I32:
		s.WriteString("i32")
	case I64:
		s.WriteString("i64")
	case F32:
		s.WriteString("f32")
	case F64:
		s.WriteString("f64")
	case Index:
		s.WriteString("index")
	default:
		s.WriteString("scalar?")
	}
	return s
}

func (t *TensorType) buildString(s *strings.Builder) *strings.Builder {
	s.WriteString("tensor<")
	buildDims(s, t.Dim)
	t.Elem.buildString(s)
	s.WriteRune('>')
	return s
}

func (t *BufferType) buildString(s *strings.Builder) *strings.Builder {
	s.WriteString("buffer<")
	buildDims(s, t.Dim)
	t.Elem.buildString(s)
	s.WriteRune('>')
	return s
}

func buildDims(s *strings.Builder, dims []int) {
	for _, d := range dims {
		if d == DynamicDim {
			s.WriteRune('?')
		} else {
			fmt.Fprintf(s, "%d", d)
		}
		s.WriteRune('x')
	}
}

func (t *FuncType) buildString(s *strings.Builder) *strings.Builder {
	s.WriteRune('(')
	for i, p := range t.Parms {
		if i > 0 {
			s.WriteString(", ")
		}
		p.buildString(s)
	}
	s.WriteString(") -> (")
	for i, r := range t.Rets {
		if i > 0 {
			s.WriteString(", ")
		}
		r.buildString(s)
	}
	s.WriteRune(')')
	return s
}

func (m *Module) buildString(s *strings.Builder) *strings.Builder {
	fmt.Fprintf(s, "module @%s", m.Name)
	for _, f := range m.funcs {
		s.WriteString("\n\n")
		f.buildString(s)
	}
	return s
}

// namer assigns printed names to every value and block of a function
// before printing, so uses in any block order resolve consistently.
// Entry block arguments are %arg0...; every other value is numbered
// in definition order.
type namer struct {
	vals   map[Value]string
	blocks map[*Block]string
	next   int
}

func newNamer(f *Func) *namer {
	n := &namer{
		vals:   make(map[Value]string),
		blocks: make(map[*Block]string),
	}
	entry := f.body.Entry()
	if entry != nil {
		for i, a := range entry.args {
			n.vals[a] = fmt.Sprintf("%%arg%d", i)
		}
	}
	n.nameRegion(f.body, true)
	return n
}

func (n *namer) nameRegion(r *Region, isBody bool) {
	for i, b := range r.blocks {
		n.blocks[b] = fmt.Sprintf("^bb%d", i)
		if isBody && i == 0 {
			continue // entry args named %arg0... already
		}
		for _, a := range b.args {
			n.vals[a] = fmt.Sprintf("%%%d", n.next)
			n.next++
		}
	}
	for _, b := range r.blocks {
		for _, o := range b.ops {
			for _, res := range o.results {
				n.vals[res] = fmt.Sprintf("%%%d", n.next)
				n.next++
			}
			for _, nested := range o.regions {
				n.nameRegion(nested, false)
			}
		}
	}
}

func (n *namer) value(v Value) string {
	if name, ok := n.vals[v]; ok {
		return name
	}
	return "%?"
}

func (f *Func) buildString(s *strings.Builder) *strings.Builder {
	n := newNamer(f)
	fmt.Fprintf(s, "func @%s(", f.name)
	entry := f.body.Entry()
	for i, a := range entry.args {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(n.value(a))
		s.WriteString(": ")
		s.WriteString(a.typ.String())
	}
	s.WriteString(") -> (")
	for i, r := range f.typ.Rets {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(r.String())
	}
	s.WriteString(") {\n")
	for i, b := range f.body.blocks {
		if i > 0 {
			b.buildLabel(s, n, 0)
		}
		b.buildOps(s, n, 1)
	}
	s.WriteRune('}')
	return s
}

func (b *Block) buildLabel(s *strings.Builder, n *namer, depth int) {
	indent(s, depth)
	s.WriteString(n.blocks[b])
	if len(b.args) > 0 {
		s.WriteRune('(')
		for i, a := range b.args {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString(n.value(a))
			s.WriteString(": ")
			s.WriteString(a.typ.String())
		}
		s.WriteRune(')')
	}
	s.WriteString(":\n")
}

func (b *Block) buildOps(s *strings.Builder, n *namer, depth int) {
	for _, o := range b.ops {
		o.buildString(s, n, depth)
		s.WriteRune('\n')
	}
}

func (o *Op) buildString(s *strings.Builder, n *namer, depth int) {
	indent(s, depth)
	for i, r := range o.results {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(n.value(r))
	}
	if len(o.results) > 0 {
		s.WriteString(" = ")
	}
	s.WriteString(o.name)
	if len(o.operands) > 0 {
		s.WriteRune('(')
		for i, v := range o.operands {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString(n.value(v))
		}
		s.WriteRune(')')
	}
	if len(o.succs) > 0 {
		s.WriteString(" [")
		for i, b := range o.succs {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString(n.blocks[b])
		}
		s.WriteRune(']')
	}
	if len(o.attrs) > 0 {
		keys := make([]string, 0, len(o.attrs))
		for k := range o.attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				s.WriteString(", ")
			}
			fmt.Fprintf(s, "%s = %q", k, o.attrs[k])
		}
		s.WriteRune('}')
	}
	if len(o.results) > 0 {
		s.WriteString(" : ")
		for i, r := range o.results {
			if i > 0 {
				s.WriteString(", ")
			}
			s.WriteString(r.typ.String())
		}
	}
	for _, r := range o.regions {
		s.WriteString(" {\n")
		for _, b := range r.blocks {
			b.buildLabel(s, n, depth)
			b.buildOps(s, n, depth+1)
		}
		indent(s, depth)
		s.WriteRune('}')
	}
}

func indent(s *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		s.WriteString("  ")
	}
}
