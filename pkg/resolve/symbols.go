package resolve

import (
	"sync"
	"unsafe"

	"tinygo.org/x/go-llvm"
)

var (
	hostSymMu sync.Mutex
	hostSyms  = map[string]unsafe.Pointer{}
)

// RegisterHostSymbol binds addr as the host-provided implementation of an
// external symbol that resolved instances reference by name: a
// make_closure_<name> constructor or a math runtime helper. Hosts whose
// runtime is linked into the process image and visible to the engine's
// default symbol resolver don't need this; it exists for embedders (and
// test harnesses) that supply the runtime some other way. Registrations
// apply to every instance resolved afterwards.
func RegisterHostSymbol(name string, addr unsafe.Pointer) {
	hostSymMu.Lock()
	defer hostSymMu.Unlock()
	hostSyms[name] = addr
}

// mapHostSymbols installs every registered host symbol into the engine,
// binding each module's matching external declaration to its host address
// before the engine finalizes code.
func mapHostSymbols(engine llvm.ExecutionEngine, modules []llvm.Module) {
	hostSymMu.Lock()
	defer hostSymMu.Unlock()
	//
	for name, addr := range hostSyms {
		for _, m := range modules {
			if decl := m.NamedFunction(name); !decl.IsNil() {
				engine.AddGlobalMapping(decl, addr)
			}
		}
	}
}
