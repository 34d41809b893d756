package emitter

import (
	"fmt"

	"github.com/chazu/hackemit/ast"
	"github.com/chazu/hackemit/hhbc"
)

// FatalError is a compile-time fatal raised against a declaration. Op
// tells the runtime how to report it.
type FatalError struct {
	Op      hhbc.FatalOp
	Pos     ast.Span
	Message string
}

func (e *FatalError) Error() string {
	if e.Pos.IsZero() {
		return fmt.Sprintf("fatal %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: fatal %s: %s",
		e.Pos.File, e.Pos.Start.Line, e.Pos.Start.Column, e.Op, e.Message)
}

func parseFatal(pos ast.Span, format string, args ...any) error {
	return &FatalError{Op: hhbc.FatalParse, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func runtimeFatal(pos ast.Span, format string, args ...any) error {
	return &FatalError{Op: hhbc.FatalRuntime, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// InternalError reports input that earlier phases should have rejected.
type InternalError struct {
	Pos     ast.Span
	Message string
}

func (e *InternalError) Error() string {
	return "internal compiler error: " + e.Message
}

func internalErrorf(pos ast.Span, format string, args ...any) error {
	return &InternalError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
