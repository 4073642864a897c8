package iryaml_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tirlang/tir/ir"
	"github.com/tirlang/tir/iryaml"
)

const reluYAML = `
module: main
funcs:
  - name: relu
    params: [tensor<4xf32>]
    results: [tensor<4xf32>]
    blocks:
      - ops:
          - op: lin.generic
            operands: [arg0]
            results: [{name: t0, type: tensor<4xf32>}]
            attrs: {library_call: relu}
            region:
              blocks:
                - args: [{name: x, type: f32}]
                  ops:
                    - op: lin.yield
                      operands: [x]
          - op: core.return
            operands: [t0]
`

func TestParseSimple(t *testing.T) {
	m, err := iryaml.Parse([]byte(reluYAML))
	require.NoError(t, err)
	require.NoError(t, ir.Verify(m))

	want := strings.Join([]string{
		"module @main",
		"",
		"func @relu(%arg0: tensor<4xf32>) -> (tensor<4xf32>) {",
		`  %0 = lin.generic(%arg0) {library_call = "relu"} : tensor<4xf32> {`,
		"  ^bb0(%1: f32):",
		"    lin.yield(%1)",
		"  }",
		"  core.return(%0)",
		"}",
	}, "\n")
	assert.Equal(t, want, m.String())
}

func TestParseBranches(t *testing.T) {
	const src = `
module: main
funcs:
  - name: pick
    params: [i1, buffer<4xf32>, buffer<4xf32>]
    results: [buffer<4xf32>]
    blocks:
      - ops:
          - op: core.cond_br
            operands: [arg0]
            succs: [left, right]
      - name: left
        ops:
          - op: core.return
            operands: [arg1]
      - name: right
        ops:
          - op: core.return
            operands: [arg2]
`
	m, err := iryaml.Parse([]byte(src))
	require.NoError(t, err)
	require.NoError(t, ir.Verify(m))

	f := m.Func("pick")
	require.NotNil(t, f)
	entry := f.Body().Entry()
	succs := entry.Succs()
	require.Len(t, succs, 2)
	blocks := f.Body().Blocks()
	assert.Equal(t, blocks[1], succs[0])
	assert.Equal(t, blocks[2], succs[1])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "unknown operand",
			src: `
funcs:
  - name: f
    blocks:
      - ops:
          - op: core.return
            operands: [ghost]
`,
			want: "unknown value ghost",
		},
		{
			name: "unknown successor",
			src: `
funcs:
  - name: f
    blocks:
      - ops:
          - op: core.br
            succs: [nowhere]
`,
			want: "unknown block nowhere",
		},
		{
			name: "generic without region",
			src: `
funcs:
  - name: f
    params: [tensor<4xf32>]
    blocks:
      - ops:
          - op: lin.generic
            operands: [arg0]
          - op: core.return
`,
			want: "requires a region",
		},
		{
			name: "bad type",
			src: `
funcs:
  - name: f
    params: [tensor<4xbogus>]
    blocks:
      - ops:
          - op: core.return
`,
			want: "cannot parse type",
		},
		{
			name: "duplicate result name",
			src: `
funcs:
  - name: f
    blocks:
      - ops:
          - op: core.const
            results: [{name: c, type: f32}]
            attrs: {value: "1.0"}
          - op: core.const
            results: [{name: c, type: f32}]
            attrs: {value: "2.0"}
          - op: core.return
`,
			want: "duplicate value name c",
		},
		{
			name: "entry block with args",
			src: `
funcs:
  - name: f
    blocks:
      - args: [{name: x, type: f32}]
        ops:
          - op: core.return
`,
			want: "entry block arguments come from params",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iryaml.Parse([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
