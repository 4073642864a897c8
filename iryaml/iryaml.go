// Package iryaml builds ir Modules from a YAML description. It is
// the external builder surface: tests and the tiropt tool describe
// input programs as data instead of carrying a textual IR parser.
package iryaml

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tirlang/tir/ir"
)

type moduleYAML struct {
	Module string     `yaml:"module"`
	Funcs  []funcYAML `yaml:"funcs"`
}

type funcYAML struct {
	Name    string      `yaml:"name"`
	Params  []string    `yaml:"params"`
	Results []string    `yaml:"results"`
	Blocks  []blockYAML `yaml:"blocks"`
}

type blockYAML struct {
	Name string    `yaml:"name"`
	Args []argYAML `yaml:"args"`
	Ops  []opYAML  `yaml:"ops"`
}

type argYAML struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type opYAML struct {
	Op       string            `yaml:"op"`
	Operands []string          `yaml:"operands"`
	Results  []argYAML         `yaml:"results"`
	Attrs    map[string]string `yaml:"attrs"`
	Succs    []string          `yaml:"succs"`
	Region   *regionYAML       `yaml:"region"`
}

type regionYAML struct {
	Blocks []blockYAML `yaml:"blocks"`
}

// Load reads and parses a module description from a file.
func Load(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read module")
	}
	return Parse(data)
}

// Parse builds a Module from YAML. The first block of a function is
// its entry block; its arguments come from params and are named
// arg0, arg1, and so on. Other blocks declare their own named,
// typed arguments and may be branch targets by block name.
func Parse(data []byte) (*ir.Module, error) {
	var my moduleYAML
	if err := yaml.Unmarshal(data, &my); err != nil {
		return nil, errors.Wrap(err, "parse module")
	}
	if my.Module == "" {
		my.Module = "module"
	}
	m := ir.NewModule(my.Module)
	for _, fy := range my.Funcs {
		if err := buildFunc(m, fy); err != nil {
			return nil, errors.Wrapf(err, "func %s", fy.Name)
		}
	}
	return m, nil
}

func buildFunc(m *ir.Module, fy funcYAML) error {
	if fy.Name == "" {
		return errors.New("function has no name")
	}
	if m.Func(fy.Name) != nil {
		return errors.New("duplicate function name")
	}
	parms, err := parseTypes(fy.Params)
	if err != nil {
		return errors.Wrap(err, "params")
	}
	rets, err := parseTypes(fy.Results)
	if err != nil {
		return errors.Wrap(err, "results")
	}
	f := m.NewFunc(fy.Name, parms, rets)
	if len(fy.Blocks) == 0 {
		return errors.New("function has no blocks")
	}
	if len(fy.Blocks[0].Args) > 0 {
		return errors.New("entry block arguments come from params")
	}

	vals := make(map[string]ir.Value, len(parms))
	for i, a := range f.Body().Entry().Args() {
		vals[argName(i)] = a
	}
	return buildBlocks(f.Body(), fy.Blocks, vals)
}

func buildBlocks(r *ir.Region, bys []blockYAML, vals map[string]ir.Value) error {
	// Blocks first, so branches can target later blocks.
	blocks := make(map[string]*ir.Block, len(bys))
	for i, by := range bys {
		var b *ir.Block
		if i == 0 && r.Entry() != nil {
			b = r.Entry()
		} else {
			b = r.NewBlock()
		}
		for _, a := range by.Args {
			t, err := ir.ParseType(a.Type)
			if err != nil {
				return errors.Wrapf(err, "block %s", blockName(by, i))
			}
			if a.Name == "" {
				return errors.Errorf("block %s has an unnamed argument", blockName(by, i))
			}
			if _, dup := vals[a.Name]; dup {
				return errors.Errorf("duplicate value name %s", a.Name)
			}
			vals[a.Name] = b.AddArg(t)
		}
		name := blockName(by, i)
		if _, dup := blocks[name]; dup {
			return errors.Errorf("duplicate block name %s", name)
		}
		blocks[name] = b
	}
	for i, by := range bys {
		b := blocks[blockName(by, i)]
		for _, oy := range by.Ops {
			if err := buildOp(b, oy, vals, blocks); err != nil {
				return errors.Wrapf(err, "block %s", blockName(by, i))
			}
		}
	}
	return nil
}

func buildOp(b *ir.Block, oy opYAML, vals map[string]ir.Value, blocks map[string]*ir.Block) error {
	if oy.Op == "" {
		return errors.New("op has no name")
	}
	operands := make([]ir.Value, len(oy.Operands))
	for i, name := range oy.Operands {
		v, ok := vals[name]
		if !ok {
			return errors.Errorf("%s: unknown value %s", oy.Op, name)
		}
		operands[i] = v
	}
	resultTypes := make([]ir.Type, len(oy.Results))
	for i, ry := range oy.Results {
		t, err := ir.ParseType(ry.Type)
		if err != nil {
			return errors.Wrap(err, oy.Op)
		}
		resultTypes[i] = t
	}
	o := ir.NewOp(oy.Op, operands, resultTypes)
	for k, v := range oy.Attrs {
		o.SetAttr(k, v)
	}
	for _, s := range oy.Succs {
		dst, ok := blocks[s]
		if !ok {
			return errors.Errorf("%s: unknown block %s", oy.Op, s)
		}
		o.AddSuccessor(dst)
	}
	if oy.Op == ir.LinGeneric && oy.Region == nil {
		return errors.Errorf("%s requires a region", oy.Op)
	}
	if oy.Region != nil {
		if err := buildBlocks(o.NewRegion(), oy.Region.Blocks, vals); err != nil {
			return errors.Wrap(err, oy.Op)
		}
	}
	b.Append(o)
	for i, ry := range oy.Results {
		if ry.Name == "" {
			return errors.Errorf("%s: result %d has no name", oy.Op, i)
		}
		if _, dup := vals[ry.Name]; dup {
			return errors.Errorf("duplicate value name %s", ry.Name)
		}
		vals[ry.Name] = o.Result(i)
	}
	return nil
}

func parseTypes(names []string) ([]ir.Type, error) {
	types := make([]ir.Type, len(names))
	for i, name := range names {
		t, err := ir.ParseType(name)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

func argName(i int) string { return "arg" + strconv.Itoa(i) }

func blockName(by blockYAML, i int) string {
	if by.Name != "" {
		return by.Name
	}
	if i == 0 {
		return "entry"
	}
	return "bb" + strconv.Itoa(i)
}
