package ir

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// DynamicDim marks a dimension whose extent is unknown until runtime.
const DynamicDim = -1

type Type interface {
	String() string
	buildString(*strings.Builder) *strings.Builder
	Eq(Type) bool
}

// ShapedType is implemented by types with a dimension list
// over a scalar element type.
type ShapedType interface {
	Type
	Dims() []int
	Elem() *ScalarType
	// StaticShape reports whether every dimension is known.
	StaticShape() bool
}

type ScalarKind int

const (
	I1 ScalarKind = iota + 1
	I32
	I64
	F32
	F64
	Index
)

type ScalarType struct {
	Kind ScalarKind
}

func (t *ScalarType) Eq(other Type) bool {
	o, ok := other.(*ScalarType)
	return ok && o.Kind == t.Kind
}

// TensorType is the abstract, value-semantic shaped type.
// Programs are legalized away from it by the bufferize pass.
type TensorType struct {
	Dim  []int
	Elem *ScalarType
}

func NewTensorType(dims []int, elem *ScalarType) *TensorType {
	return &TensorType{Dim: append([]int{}, dims...), Elem: elem}
}

func (t *TensorType) Dims() []int { return t.Dim }

func (t *TensorType) StaticShape() bool {
	for _, d := range t.Dim {
		if d < 0 {
			return false
		}
	}
	return true
}

func (t *TensorType) Eq(other Type) bool {
	o, ok := other.(*TensorType)
	return ok && dimsEq(t.Dim, o.Dim) && t.Elem.Eq(o.Elem)
}

// BufferType is the mutable, explicitly allocated shaped type.
type BufferType struct {
	Dim  []int
	Elem *ScalarType
}

func NewBufferType(dims []int, elem *ScalarType) *BufferType {
	return &BufferType{Dim: append([]int{}, dims...), Elem: elem}
}

func (t *BufferType) Dims() []int { return t.Dim }

func (t *BufferType) StaticShape() bool {
	for _, d := range t.Dim {
		if d < 0 {
			return false
		}
	}
	return true
}

func (t *BufferType) Eq(other Type) bool {
	o, ok := other.(*BufferType)
	return ok && dimsEq(t.Dim, o.Dim) && t.Elem.Eq(o.Elem)
}

func dimsEq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FuncType is an ordered parameter and result type list.
type FuncType struct {
	Parms []Type
	Rets  []Type
}

func (t *FuncType) Eq(other Type) bool {
	o, ok := other.(*FuncType)
	if !ok || len(t.Parms) != len(o.Parms) || len(t.Rets) != len(o.Rets) {
		return false
	}
	for i := range t.Parms {
		if !t.Parms[i].Eq(o.Parms[i]) {
			return false
		}
	}
	for i := range t.Rets {
		if !t.Rets[i].Eq(o.Rets[i]) {
			return false
		}
	}
	return true
}

var scalarNames = map[string]ScalarKind{
	"i1":    I1,
	"i32":   I32,
	"i64":   I64,
	"f32":   F32,
	"f64":   F64,
	"index": Index,
}

// ParseType parses the textual form of a type:
// a scalar name, tensor<4x8xf32>, or buffer<?xf64>.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if k, ok := scalarNames[s]; ok {
		return &ScalarType{Kind: k}, nil
	}
	var shaped string
	switch {
	case strings.HasPrefix(s, "tensor<") && strings.HasSuffix(s, ">"):
		shaped = "tensor"
	case strings.HasPrefix(s, "buffer<") && strings.HasSuffix(s, ">"):
		shaped = "buffer"
	default:
		return nil, errors.Errorf("cannot parse type %q", s)
	}
	body := s[len(shaped)+1 : len(s)-1]
	parts := strings.Split(body, "x")
	if len(parts) == 0 {
		return nil, errors.Errorf("cannot parse type %q: empty body", s)
	}
	elemKind, ok := scalarNames[parts[len(parts)-1]]
	if !ok {
		return nil, errors.Errorf("cannot parse type %q: bad element type %q", s, parts[len(parts)-1])
	}
	dims := make([]int, len(parts)-1)
	for i, p := range parts[:len(parts)-1] {
		if p == "?" {
			dims[i] = DynamicDim
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, errors.Errorf("cannot parse type %q: bad dimension %q", s, p)
		}
		dims[i] = n
	}
	elem := &ScalarType{Kind: elemKind}
	if shaped == "tensor" {
		return &TensorType{Dim: dims, Elem: elem}, nil
	}
	return &BufferType{Dim: dims, Elem: elem}, nil
}
