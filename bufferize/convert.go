package bufferize

import (
	"github.com/pkg/errors"

	"github.com/tirlang/tir/ir"
)

// TypeConverter maps abstract tensor types to their buffer-backed
// counterparts. It is idempotent: buffer and scalar types pass
// through unchanged.
type TypeConverter struct{}

// Convert returns the buffer-typed counterpart of t. Tensors with a
// dynamic dimension are unsupported and fail with ErrUnsupportedShape.
func (TypeConverter) Convert(t ir.Type) (ir.Type, error) {
	tt, ok := t.(*ir.TensorType)
	if !ok {
		return t, nil
	}
	if !tt.StaticShape() {
		return nil, errors.Wrapf(ErrUnsupportedShape, "type %s", tt)
	}
	return ir.NewBufferType(tt.Dims(), tt.Elem), nil
}

// IsLegal reports whether t is already in target form, that is,
// anything but an abstract tensor type.
func (TypeConverter) IsLegal(t ir.Type) bool {
	_, abstract := t.(*ir.TensorType)
	return !abstract
}
