package closure

import "fmt"

// SchemaError is raised when a closure is registered with a zero size or
// malformed field types.
type SchemaError struct {
	Name   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid closure schema %q: %s", e.Name, e.Reason)
}
