package closure

import (
	"fmt"
	"sync"

	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	log "github.com/sirupsen/logrus"
	"tinygo.org/x/go-llvm"
)

// Registration is the result of one successful Register call: the assigned
// ID together with the field layout the host and JIT agree on.
type Registration struct {
	ID         ID
	Name       string
	Fields     []Field
	StructSize uint32
	// ctor is the external-linkage make_closure_<name> declaration inside
	// the registry's own module; its body is supplied by the host library
	// at link time.
	ctor llvm.Value
}

// Registry assigns stable integer IDs to named closure types and owns the
// "closure module": an IR module declaring the per-closure constructors
// that the host library provides bodies for. It is a process-wide
// singleton and is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	ctx    llvm.Context
	module llvm.Module
	types  *global.TypeSet
	byName map[string]*Registration
	byID   map[ID]*Registration
	nextID int32
	logger *log.Logger
}

// NewRegistry constructs an empty registry with its own dedicated LLVM
// context and module. logger may be nil, in which case log.StandardLogger
// is used.
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.StandardLogger()
	}
	//
	ctx := llvm.NewContext()
	module := ctx.NewModule("tsl.closures")
	types := global.Declare(ctx)
	//
	return &Registry{
		ctx:    ctx,
		module: module,
		types:  types,
		byName: make(map[string]*Registration),
		byID:   make(map[ID]*Registration),
		nextID: 1,
		logger: logger,
	}
}

// Register assigns the next positive ID to name, recording its field
// layout and declaring make_closure_<name> inside the closure module.
// Registering the same name twice returns the previously assigned ID
// without redeclaring, so the module is never mutated by a repeat call.
// Thread-safe: serializes under one mutex.
func (r *Registry) Register(name string, fields []Field, structSize uint32) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	//
	if existing, ok := r.byName[name]; ok {
		return existing.ID, nil
	}
	//
	if structSize == 0 {
		return Invalid, &SchemaError{name, "struct size must be non-zero"}
	}
	for _, f := range fields {
		if f.Name == "" {
			return Invalid, &SchemaError{name, "field with empty name"}
		}
		if f.Type > FieldFloat4 {
			return Invalid, &SchemaError{name, fmt.Sprintf("unrecognised field type %d for %q", f.Type, f.Name)}
		}
	}
	//
	id := ID(r.nextID)
	r.nextID++
	//
	paramTypes := make([]llvm.Type, len(fields))
	for i, f := range fields {
		paramTypes[i] = fieldLLVMType(r.types, f.Type)
	}
	//
	fnType := llvm.FunctionType(r.types.Ptr, paramTypes, false)
	ctorName := "make_closure_" + name
	ctor := llvm.AddFunction(r.module, ctorName, fnType)
	ctor.SetLinkage(llvm.ExternalLinkage)
	//
	reg := &Registration{ID: id, Name: name, Fields: fields, StructSize: structSize, ctor: ctor}
	r.byName[name] = reg
	r.byID[id] = reg
	//
	r.logger.WithFields(log.Fields{"closure": name, "id": int32(id), "fields": len(fields)}).Debug("registered closure")
	//
	return id, nil
}

// Lookup returns the registration for a closure name, if any.
func (r *Registry) Lookup(name string) (*Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byName[name]
	return reg, ok
}

// ByID returns the registration for a previously assigned ID, if any.
func (r *Registry) ByID(id ID) (*Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[id]
	return reg, ok
}

// Module returns the registry's closure module. It must be cloned (never
// moved) whenever it is linked into an instance: the registry keeps the
// original for the lifetime of the process, and every execution engine
// owns its own copy.
func (r *Registry) Module() llvm.Module {
	return r.module
}

// Context returns the LLVM context the closure module and all its
// declared types belong to.
func (r *Registry) Context() llvm.Context {
	return r.ctx
}

func fieldLLVMType(ts *global.TypeSet, t FieldType) llvm.Type {
	switch t {
	case FieldInt:
		return ts.I32
	case FieldFloat:
		return ts.F32
	case FieldFloat3:
		return ts.Float3
	case FieldFloat4:
		return ts.Float4
	default:
		panic("tsl: unmapped closure field type")
	}
}
