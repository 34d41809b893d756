package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/hackemit/config"
)

var log = commonlog.GetLogger("hackemit.cmd")

// rootOptions holds the global flags and the configuration they resolve to.
type rootOptions struct {
	ConfigPath string
	DeclsPath  string
	Verbose    int

	opts *config.Options
}

func newRootCommand() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hackemit",
		Short: "Lower classes and memoized functions to bytecode records",
		Long: `hackemit lowers type-checked declarations, described as YAML fixtures,
to bytecode records: synthesized initializers, memoize wrappers and
reified-generics bootstrap code.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ro.load()
		},
	}

	cmd.PersistentFlags().StringVar(&ro.ConfigPath, "config", "", "path to hackc.toml (default: search upward from the working directory)")
	cmd.PersistentFlags().StringVar(&ro.DeclsPath, "decls", "", "path to the declaration store (overrides [decls] path)")
	cmd.PersistentFlags().CountVarP(&ro.Verbose, "verbose", "v", "increase log verbosity")

	cmd.AddCommand(newLowerCommand(ro))
	cmd.AddCommand(newDeclsCommand(ro))
	return cmd
}

func (ro *rootOptions) load() error {
	var err error
	if ro.ConfigPath != "" {
		ro.opts, err = config.LoadFile(ro.ConfigPath)
	} else {
		ro.opts, err = config.FindAndLoad(".")
	}
	if err != nil {
		return err
	}
	if ro.DeclsPath != "" {
		ro.opts.Decls.Path = ro.DeclsPath
	}

	var logFile *string
	if ro.opts.Log.File != "" {
		logFile = &ro.opts.Log.File
	}
	commonlog.Configure(ro.opts.Log.Verbosity+ro.Verbose, logFile)
	if ro.opts.Dir != "" {
		log.Infof("using configuration from %s", ro.opts.Dir)
	}
	return nil
}

// declsPath returns the configured store path or an error naming both ways
// to set it.
func (ro *rootOptions) declsPath() (string, error) {
	if ro.opts.Decls.Path == "" {
		return "", fmt.Errorf("no declaration store: pass --decls or set [decls] path in %s", config.FileName)
	}
	return ro.opts.Decls.Path, nil
}
