package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/decls"
	"github.com/chazu/hackemit/fixture"
)

func newDeclsCommand(ro *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decls",
		Short: "Manage the declaration store",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <fixture.yaml>...",
		Short: "Store the declarations listed in fixture files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ro, func(s *decls.Store) error {
				return runImport(cmd, s, args)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored class declarations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ro, func(s *decls.Store) error {
				names, err := s.Names(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <class>",
		Short: "Print the type parameters of a stored class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ro, func(s *decls.Store) error {
				c, err := s.ClassContext(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), c.Name)
				for _, tp := range c.TParams {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", tp.Name, reifyName(tp.Reified))
				}
				return nil
			})
		},
	})
	return cmd
}

func withStore(ro *rootOptions, fn func(*decls.Store) error) error {
	path, err := ro.declsPath()
	if err != nil {
		return err
	}
	s, err := decls.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func runImport(cmd *cobra.Command, s *decls.Store, paths []string) error {
	ctx := cmd.Context()
	for _, path := range paths {
		f, err := fixture.Load(path)
		if err != nil {
			return err
		}
		ds, err := f.Declarations()
		if err != nil {
			return err
		}
		if err := s.Put(ctx, ds...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d declarations from %s\n", len(ds), path)
	}
	n, err := s.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "store holds %d declarations\n", n)
	return nil
}

func reifyName(k ast.ReifyKind) string {
	switch k {
	case ast.Reified:
		return "reified"
	case ast.SoftReified:
		return "soft"
	}
	return "erased"
}
