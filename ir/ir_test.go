package ir_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tirlang/tir/ir"
)

func f32() *ir.ScalarType { return &ir.ScalarType{Kind: ir.F32} }

func tensor(dims ...int) *ir.TensorType {
	return ir.NewTensorType(dims, f32())
}

func buffer(dims ...int) *ir.BufferType {
	return ir.NewBufferType(dims, f32())
}

// reluFunc builds:
//
//	func @relu(%arg0: tensor<4xf32>) -> (tensor<4xf32>) {
//	  %0 = lin.generic(%arg0) : tensor<4xf32> { ^bb0(%1: f32): lin.yield(%1) }
//	  core.return(%0)
//	}
func reluFunc(m *ir.Module) *ir.Func {
	f := m.NewFunc("relu", []ir.Type{tensor(4)}, []ir.Type{tensor(4)})
	entry := f.Body().Entry()
	g := ir.Generic([]ir.Value{entry.Arg(0)}, []ir.Type{tensor(4)})
	body := g.Region(0).NewBlock()
	x := body.AddArg(f32())
	body.Append(ir.Yield(x))
	entry.Append(g)
	entry.Append(ir.Return(g.Result(0)))
	return f
}

func TestUseLists(t *testing.T) {
	m := ir.NewModule("main")
	f := reluFunc(m)
	entry := f.Body().Entry()
	arg := entry.Arg(0)
	g := entry.Ops()[0]
	ret := entry.Ops()[1]

	if users := arg.Users(); len(users) != 1 || users[0] != g {
		t.Errorf("arg users = %v, want [lin.generic]", users)
	}
	if users := g.Result(0).Users(); len(users) != 1 || users[0] != ret {
		t.Errorf("generic result users = %v, want [core.return]", users)
	}
}

func TestReplaceAllUses(t *testing.T) {
	m := ir.NewModule("main")
	f := reluFunc(m)
	entry := f.Body().Entry()
	g := entry.Ops()[0]
	ret := entry.Ops()[1]

	alloc := ir.Alloc(buffer(4))
	entry.InsertBefore(alloc, g)
	ir.ReplaceAllUses(g.Result(0), alloc.Result(0))

	if got := ret.Operand(0); got != alloc.Result(0) {
		t.Errorf("return operand not rewritten to the alloc result")
	}
	if users := g.Result(0).Users(); len(users) != 0 {
		t.Errorf("old result still has %d users", len(users))
	}
	if users := alloc.Result(0).Users(); len(users) != 1 || users[0] != ret {
		t.Errorf("alloc result users = %v, want [core.return]", users)
	}

	g.Erase()
	if got := len(entry.Ops()); got != 2 {
		t.Errorf("block has %d ops after erase, want 2", got)
	}
	if users := f.Body().Entry().Arg(0).Users(); len(users) != 0 {
		t.Errorf("arg still used after erasing its only user")
	}
}

func TestInsertBefore(t *testing.T) {
	m := ir.NewModule("main")
	f := m.NewFunc("f", nil, nil)
	entry := f.Body().Entry()
	ret := ir.Return()
	entry.Append(ret)
	a := ir.Const(f32(), "1.0")
	entry.InsertBefore(a, ret)
	b := ir.Const(f32(), "2.0")
	entry.InsertBefore(b, a)

	ops := entry.Ops()
	if ops[0] != b || ops[1] != a || ops[2] != ret {
		t.Errorf("ops out of order after InsertBefore")
	}
}

func TestReplaceArg(t *testing.T) {
	m := ir.NewModule("main")
	f := reluFunc(m)
	entry := f.Body().Entry()
	g := entry.Ops()[0]

	na := entry.ReplaceArg(0, buffer(4))
	if got := entry.Arg(0); got != na {
		t.Errorf("entry arg not swapped")
	}
	if got := g.Operand(0); got != na {
		t.Errorf("generic operand not rewritten to the fresh argument")
	}
	if !na.Type().Eq(buffer(4)) {
		t.Errorf("fresh argument has type %s, want buffer<4xf32>", na.Type())
	}
}

func TestString(t *testing.T) {
	m := ir.NewModule("main")
	reluFunc(m)
	want := strings.Join([]string{
		"module @main",
		"",
		"func @relu(%arg0: tensor<4xf32>) -> (tensor<4xf32>) {",
		"  %0 = lin.generic(%arg0) : tensor<4xf32> {",
		"  ^bb0(%1: f32):",
		"    lin.yield(%1)",
		"  }",
		"  core.return(%0)",
		"}",
	}, "\n")
	if diff := cmp.Diff(want, m.String()); diff != "" {
		t.Errorf("module text mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTypeRoundTrip(t *testing.T) {
	tests := []string{
		"f32",
		"f64",
		"i1",
		"i32",
		"i64",
		"index",
		"tensor<4xf32>",
		"tensor<4x8xi32>",
		"tensor<?xf32>",
		"tensor<4x?x2xf64>",
		"buffer<4xf32>",
		"buffer<?xi64>",
	}
	for _, text := range tests {
		typ, err := ir.ParseType(text)
		if err != nil {
			t.Errorf("ParseType(%q): %v", text, err)
			continue
		}
		if got := typ.String(); got != text {
			t.Errorf("ParseType(%q).String() = %q", text, got)
		}
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, text := range []string{"", "f16", "tensor<>", "tensor<4x>", "tensor<-4xf32>", "buffer<fxf32>"} {
		if _, err := ir.ParseType(text); err == nil {
			t.Errorf("ParseType(%q) unexpectedly succeeded", text)
		}
	}
}

func TestCloneFuncIsIndependent(t *testing.T) {
	m := ir.NewModule("main")
	f := reluFunc(m)
	before := f.String()

	clone := f.Clone()
	if diff := cmp.Diff(before, clone.String()); diff != "" {
		t.Fatalf("clone text differs from original (-orig +clone):\n%s", diff)
	}

	// Mutating the clone must not touch the original.
	entry := clone.Body().Entry()
	g := entry.Ops()[0]
	alloc := ir.Alloc(buffer(4))
	entry.InsertBefore(alloc, g)
	ir.ReplaceAllUses(g.Result(0), alloc.Result(0))
	g.Erase()

	if diff := cmp.Diff(before, f.String()); diff != "" {
		t.Errorf("original changed under clone mutation (-want +got):\n%s", diff)
	}
}
