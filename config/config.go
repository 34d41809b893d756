// Package config handles hackc.toml compiler configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file searched for by FindAndLoad.
const FileName = "hackc.toml"

// Options are the compilation-mode flags consulted while lowering.
type Options struct {
	HHVM     HHVM     `toml:"hhvm" json:"hhvm"`
	Repo     Repo     `toml:"repo" json:"repo"`
	Compiler Compiler `toml:"compiler" json:"compiler"`
	Log      Log      `toml:"log" json:"log"`
	Decls    Decls    `toml:"decls" json:"decls"`

	// Dir is the directory containing the hackc.toml file (set at load time).
	Dir string `toml:"-" json:"-"`
}

// HHVM holds runtime feature switches that change emitted code.
type HHVM struct {
	// RenameFunctions marks functions interceptable unless the repo is
	// authoritative.
	RenameFunctions bool `toml:"rename_functions" json:"rename_functions"`
	// ImplicitContext folds the ambient context into policy-sharded
	// memoize keys.
	ImplicitContext bool `toml:"implicit_context" json:"implicit_context"`
}

// Repo describes the deployment mode.
type Repo struct {
	Authoritative bool `toml:"authoritative" json:"authoritative"`
}

// Compiler holds compilation-mode flags.
type Compiler struct {
	// Systemlib is set when compiling the builtin library.
	Systemlib bool `toml:"systemlib" json:"systemlib"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity" json:"verbosity"`
	File      string `toml:"file" json:"file"`
}

// Decls locates the declaration store.
type Decls struct {
	Path string `toml:"path" json:"path"`
}

// Default returns the options used when no hackc.toml exists.
func Default() *Options {
	return &Options{Log: Log{Verbosity: 1}}
}

// Interceptable reports whether emitted functions may be renamed at
// runtime.
func (o *Options) Interceptable() bool {
	return o.HHVM.RenameFunctions && !o.Repo.Authoritative
}

// Parse decodes and validates configuration text. name is used in error
// messages only.
func Parse(name string, data []byte) (*Options, error) {
	o := Default()
	if err := toml.Unmarshal(data, o); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", name, err)
	}
	if err := Validate(o); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return o, nil
}

// Load parses hackc.toml from the given directory.
func Load(dir string) (*Options, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the configuration file at path.
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	o, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	o.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if o.Decls.Path != "" && !filepath.IsAbs(o.Decls.Path) {
		o.Decls.Path = filepath.Join(o.Dir, o.Decls.Path)
	}
	return o, nil
}

// FindAndLoad walks up from startDir to find a hackc.toml file, then
// loads it. Returns the defaults if no file is found.
func FindAndLoad(startDir string) (*Options, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
