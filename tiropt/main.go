// tiropt loads a module description, runs a pass pipeline over it,
// and prints the resulting IR.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tirlang/tir/bufferize"
	"github.com/tirlang/tir/ir"
	"github.com/tirlang/tir/iryaml"
	"github.com/tirlang/tir/pass"
)

func main() {
	registerPasses()
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func registerPasses() {
	pass.Register(pass.Pass{
		Name: "bufferize",
		Doc:  "legalize tensor-typed functions to buffer-typed ones",
		Run:  bufferize.Module,
	})
	pass.Register(pass.Pass{
		Name: "verify",
		Doc:  "check SSA and structural invariants",
		Run: func(m *ir.Module) []error {
			if err := ir.Verify(m); err != nil {
				return []error{err}
			}
			return nil
		},
	})
}

type options struct {
	verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "tiropt",
		Short: "tir optimizer driver",
		Long:  "Loads a YAML module description, runs passes over it, and prints the IR.",
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "report per-pass progress")
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newPrintCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	var (
		passNames []string
		failFast  bool
		out       string
	)
	cmd := &cobra.Command{
		Use:   "run <module.yaml>",
		Short: "run a pass pipeline over a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := iryaml.Load(args[0])
			if err != nil {
				return err
			}
			if opts.verbose {
				fmt.Fprintf(os.Stderr, "running %v on module @%s\n", passNames, m.Name)
			}
			errs := pass.RunPipeline(m, passNames, failFast)
			for _, err := range errs {
				fmt.Fprintln(os.Stderr, err)
			}
			if err := writeOut(out, m); err != nil {
				return err
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d conversion failures", len(errs))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&passNames, "pass", []string{"bufferize", "verify"}, "passes to run, in order")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failing pass")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write IR to a file instead of stdout")
	return cmd
}

func newPrintCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "print <module.yaml>",
		Short: "load a module and print its IR without running passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := iryaml.Load(args[0])
			if err != nil {
				return err
			}
			if opts.verbose {
				fmt.Fprintf(os.Stderr, "loaded module @%s with %d functions\n", m.Name, len(m.Funcs()))
			}
			return writeOut("", m)
		},
	}
}

func writeOut(path string, m *ir.Module) error {
	text := m.String() + "\n"
	if path == "" {
		_, err := os.Stdout.WriteString(text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
