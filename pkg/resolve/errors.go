package resolve

import "fmt"

// ErrorKind enumerates the instance resolver's failure modes.
type ErrorKind int

// Recognised error kinds.
const (
	InvalidInput ErrorKind = iota
	InvalidShaderGroupTemplate
	LLVMFunctionVerificationFailed
)

// Error reports a failure encountered while resolving a template or group
// template into a ShaderInstance. Cause, when set, is the underlying fault
// from LLVM's native-target initialization, module cloning or JIT-engine
// construction, wrapped with
// github.com/pkg/errors so the original stack trace survives past the
// resolver's own frame.
type Error struct {
	Kind   ErrorKind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidInput:
		return fmt.Sprintf("tsl: invalid input to resolve: %s", e.Detail)
	case InvalidShaderGroupTemplate:
		return fmt.Sprintf("tsl: template lacks a module or root function: %s", e.Detail)
	case LLVMFunctionVerificationFailed:
		return fmt.Sprintf("tsl: function verification failed: %s", e.Detail)
	default:
		return "tsl: resolve error"
	}
}

// Unwrap exposes Cause to errors.Is/errors.As/errors.Unwrap.
func (e *Error) Unwrap() error {
	return e.Cause
}
