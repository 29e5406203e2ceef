// Package compiler implements the per-thread compile driver and the
// recursive code generator: it turns one TSL source string into a
// shader unit template backed by an IR module.
package compiler

import (
	"fmt"
	"strings"

	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
)

// ParseError is returned when the parser frontend fails.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse failed: %s", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }

// CodegenError is returned when one or more semantic errors were
// accumulated on the context's error sink during lowering; the whole
// compile fails and the partial module is discarded.
type CodegenError struct {
	Errors []*source.SyntaxError
}

func (e *CodegenError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		msgs[i] = se.Error()
	}
	return fmt.Sprintf("codegen failed with %d error(s):\n%s", len(e.Errors), strings.Join(msgs, "\n"))
}

// UnregisteredClosureError is returned when a shader references a closure
// name that was never registered with the closure registry.
type UnregisteredClosureError struct {
	Name string
}

func (e *UnregisteredClosureError) Error() string {
	return fmt.Sprintf("shader references unregistered closure %q", e.Name)
}
