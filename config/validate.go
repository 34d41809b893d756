package config

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schema     cue.Value
	schemaErr  error

	// cue.Context is not safe for concurrent use.
	validateMu sync.Mutex
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compiling schema: %w", err)
			return
		}
		schema = v.LookupPath(cue.ParsePath("#Options"))
	})
	return schemaCtx, schema, schemaErr
}

// Validate checks the options against the embedded CUE schema.
func Validate(o *Options) error {
	validateMu.Lock()
	defer validateMu.Unlock()
	ctx, s, err := loadSchema()
	if err != nil {
		return err
	}
	v := ctx.Encode(o)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encoding options: %w", err)
	}
	if err := s.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
