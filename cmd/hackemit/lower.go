package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/hackemit/decls"
	"github.com/chazu/hackemit/emitter"
	"github.com/chazu/hackemit/fixture"
	"github.com/chazu/hackemit/hhbc"
)

func newLowerCommand(ro *rootOptions) *cobra.Command {
	var listing bool
	cmd := &cobra.Command{
		Use:   "lower <fixture.yaml>",
		Short: "Lower a fixture unit and summarize the emitted records",
		Long: `Lower every class and function of a fixture unit. Declarations listed in
the fixture are consulted first, then the declaration store if one is
configured.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(ro, args[0], listing, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&listing, "listing", "l", false, "print the instruction listing of every body")
	return cmd
}

func runLower(ro *rootOptions, path string, listing bool, w io.Writer) error {
	f, err := fixture.Load(path)
	if err != nil {
		return err
	}
	local, err := f.Declarations()
	if err != nil {
		return err
	}
	prog, err := f.Program()
	if err != nil {
		return err
	}

	provider := decls.Chain{decls.NewMemory(local...)}
	if ro.opts.Decls.Path != "" {
		store, err := decls.Open(ro.opts.Decls.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		provider = append(provider, store)
	}

	u, err := emitter.New(ro.opts, provider, nil).EmitProgram(f.Unit, prog)
	if err != nil {
		return err
	}
	log.Debugf("lowered %s: %d classes, %d functions", u.Path, len(u.Classes), len(u.Functions))
	return writeUnit(w, u, listing)
}

func writeUnit(w io.Writer, u *hhbc.Unit, listing bool) error {
	fmt.Fprintf(w, "unit %s\n", u.Path)
	for _, c := range u.Classes {
		fp, err := hhbc.FingerprintOf(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "class %s %s %s\n", c.Name, c.Flags, fp.Short())
		for _, m := range c.Methods {
			fmt.Fprintf(w, "  method %s %s (%d instrs)\n", m.Name, m.Attrs, len(m.Body.Instrs))
			if listing {
				writeListing(w, m.Body.Instrs)
			}
		}
	}
	for _, fn := range u.Functions {
		fp, err := hhbc.FingerprintOf(fn)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "function %s %s %s (%d instrs)\n", fn.Name, fn.Attrs, fp.Short(), len(fn.Body.Instrs))
		if listing {
			writeListing(w, fn.Body.Instrs)
		}
	}
	refs := &u.SymbolRefs
	writeRefs(w, "classes", refs.Classes())
	writeRefs(w, "functions", refs.Functions())
	writeRefs(w, "constants", refs.Constants())
	return nil
}

func writeListing(w io.Writer, seq hhbc.InstrSeq) {
	for _, line := range strings.SplitAfter(seq.Listing(), "\n") {
		if line != "" {
			fmt.Fprintf(w, "    %s", line)
		}
	}
}

func writeRefs(w io.Writer, kind string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(w, "refs %s: %s\n", kind, strings.Join(names, ", "))
}
