package compiler

import (
	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"tinygo.org/x/go-llvm"
)

// symbol binds a name in scope to the IR storage location backing it
// (always a pointer: a local alloca, or the incoming pointer of an
// aggregate or shader out parameter; values are loaded through it on
// read) and its TSL type.
type symbol struct {
	ptr llvm.Value
	typ ast.BaseType
}

// scopeStack is the nested symbol-scope stack used while lowering one
// function. Each layer is a flat map; lookups search from the innermost
// layer outward.
type scopeStack struct {
	layers []map[string]symbol
}

func newScopeStack() *scopeStack {
	return &scopeStack{}
}

// push enters a new, empty scope layer.
func (s *scopeStack) push() {
	s.layers = append(s.layers, make(map[string]symbol))
}

// pop discards the innermost scope layer.
func (s *scopeStack) pop() {
	s.layers = s.layers[:len(s.layers)-1]
}

// declare binds name within the innermost layer.
func (s *scopeStack) declare(name string, ptr llvm.Value, typ ast.BaseType) {
	s.layers[len(s.layers)-1][name] = symbol{ptr, typ}
}

// lookup searches outward from the innermost layer for name.
func (s *scopeStack) lookup(name string) (symbol, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if sym, ok := s.layers[i][name]; ok {
			return sym, true
		}
	}
	return symbol{}, false
}
