package pass_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tirlang/tir/ir"
	"github.com/tirlang/tir/pass"
)

func init() {
	pass.Register(pass.Pass{
		Name: "count-funcs",
		Doc:  "records how many functions the module has",
		Run: func(m *ir.Module) []error {
			ran = append(ran, "count-funcs")
			return nil
		},
	})
	pass.Register(pass.Pass{
		Name: "always-fails",
		Doc:  "fails every function",
		Run: func(m *ir.Module) []error {
			ran = append(ran, "always-fails")
			return []error{errors.New("boom")}
		},
	})
}

var ran []string

func TestLookup(t *testing.T) {
	p, ok := pass.Lookup("count-funcs")
	require.True(t, ok)
	assert.Equal(t, "count-funcs", p.Name)
	_, ok = pass.Lookup("missing")
	assert.False(t, ok)
	assert.Contains(t, pass.Names(), "always-fails")
}

func TestRunPipeline(t *testing.T) {
	ran = nil
	m := ir.NewModule("main")
	errs := pass.RunPipeline(m, []string{"count-funcs", "always-fails", "count-funcs"}, false)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "always-fails: boom")
	assert.Equal(t, []string{"count-funcs", "always-fails", "count-funcs"}, ran)
}

func TestRunPipelineFailFast(t *testing.T) {
	ran = nil
	m := ir.NewModule("main")
	errs := pass.RunPipeline(m, []string{"always-fails", "count-funcs"}, true)
	require.Len(t, errs, 1)
	assert.Equal(t, []string{"always-fails"}, ran, "fail-fast must stop the pipeline")
}

func TestRunPipelineUnknownPass(t *testing.T) {
	m := ir.NewModule("main")
	errs := pass.RunPipeline(m, []string{"nope"}, false)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "unknown pass nope")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		pass.Register(pass.Pass{Name: "count-funcs", Run: func(*ir.Module) []error { return nil }})
	})
}
