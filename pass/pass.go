// Package pass exposes module transformations as named, parameterless
// units that a host driver can look up and run as a pipeline.
package pass

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/tirlang/tir/ir"
)

// A Pass is a named transformation over a whole Module. Run returns
// one error per function (or check) that failed; an empty slice is
// full success. Passes must leave failed functions unmodified.
type Pass struct {
	Name string
	Doc  string
	Run  func(*ir.Module) []error
}

var registry = map[string]Pass{}

// Register makes a pass available by name. Registering the same
// name twice is a programmer error.
func Register(p Pass) {
	if p.Name == "" || p.Run == nil {
		panic("registering an incomplete pass")
	}
	if _, dup := registry[p.Name]; dup {
		panic(fmt.Sprintf("pass %s registered twice", p.Name))
	}
	registry[p.Name] = p
}

// Lookup finds a registered pass.
func Lookup(name string) (Pass, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names lists registered passes in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunPipeline runs the named passes in order. With failFast set it
// stops at the first pass reporting any error; otherwise it runs
// the whole pipeline and accumulates errors.
func RunPipeline(m *ir.Module, names []string, failFast bool) []error {
	var errs []error
	for _, name := range names {
		p, ok := Lookup(name)
		if !ok {
			errs = append(errs, errors.Errorf("unknown pass %s", name))
			if failFast {
				return errs
			}
			continue
		}
		passErrs := p.Run(m)
		for _, err := range passErrs {
			errs = append(errs, errors.Wrap(err, name))
		}
		if failFast && len(passErrs) > 0 {
			return errs
		}
	}
	return errs
}
