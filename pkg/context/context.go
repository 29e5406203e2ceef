// Package context implements the ShadingContext façade: a process-wide
// entry point that owns the closure registry and a pool of compile
// drivers, and hands out drivers, templates, group templates and resolved
// instances to callers.
package context

import (
	"sync"

	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/ckod3/Tiny-Shading-Language/pkg/group"
	"github.com/ckod3/Tiny-Shading-Language/pkg/resolve"
	log "github.com/sirupsen/logrus"
)

// ShadingContext is the process-wide façade over the whole pipeline. One
// instance should be constructed per process (or per isolated test); it
// is safe for concurrent use from many goroutines.
type ShadingContext struct {
	closures *closure.Registry
	logger   *log.Logger

	driverMu sync.Mutex
	drivers  []*compiler.Driver // idle pool; begin_compile pops, Release pushes back
}

// New constructs a ShadingContext with a fresh closure registry. It
// asserts the closure-tree ABI layouts at construction, so a host whose
// build would shear the wire format fails before any shader compiles.
func New(logger *log.Logger) *ShadingContext {
	if logger == nil {
		logger = log.StandardLogger()
	}
	closure.AssertLayout()
	return &ShadingContext{
		closures: closure.NewRegistry(logger),
		logger:   logger,
	}
}

// RegisterClosure assigns an ID to a named closure type and declares its
// constructor in the closure module; repeat registrations of the same
// name return the original ID.
func (sc *ShadingContext) RegisterClosure(name string, fields []closure.Field, structSize uint32) (closure.ID, error) {
	return sc.closures.Register(name, fields, structSize)
}

// BeginCompile pops an idle driver from the pool or constructs a new one,
// each with its own LLVM context, so concurrent compiles never share IR
// state.
func (sc *ShadingContext) BeginCompile() *compiler.Driver {
	sc.driverMu.Lock()
	defer sc.driverMu.Unlock()
	//
	if n := len(sc.drivers); n > 0 {
		d := sc.drivers[n-1]
		sc.drivers[n-1] = nil
		sc.drivers = sc.drivers[:n-1]
		return d
	}
	return compiler.NewDriver(sc.closures, sc.logger)
}

// Release returns a driver to the idle pool for reuse by a later compile.
func (sc *ShadingContext) Release(d *compiler.Driver) {
	sc.driverMu.Lock()
	defer sc.driverMu.Unlock()
	sc.drivers = append(sc.drivers, d)
}

// Compile wraps one pooled driver's Compile call: it acquires a driver,
// compiles src, and releases the driver back to the pool regardless of
// outcome.
func (sc *ShadingContext) Compile(src, name string, cfg compiler.Config) (*compiler.Template, error) {
	d := sc.BeginCompile()
	defer sc.Release(d)
	return d.Compile(src, name, cfg)
}

// CreateGroupTemplate constructs an empty shader group named name.
func (sc *ShadingContext) CreateGroupTemplate(name string) *group.Template {
	return group.NewTemplate(name)
}

// ResolveGroup links the group (if not already linked) and JIT-compiles
// its wrapper into an instance. A successful link hands the wrapper
// module's context to gt, which retains it so the group can back further
// instances; release it with gt.Dispose.
func (sc *ShadingContext) ResolveGroup(gt *group.Template) (*resolve.Instance, error) {
	if !gt.Valid() {
		linker := group.NewResolver(sc.logger)
		if err := linker.Resolve(gt); err != nil {
			return nil, err
		}
	}
	return resolve.ResolveGroup(gt, sc.logger)
}

// ResolveTemplate JIT-compiles a single shader unit template into an
// instance, with no linking step.
func (sc *ShadingContext) ResolveTemplate(tmpl *compiler.Template) (*resolve.Instance, error) {
	return resolve.ResolveTemplate(tmpl, sc.logger)
}

// Closures exposes the registry, e.g. for hosts that want to inspect
// assigned IDs without going through Register again.
func (sc *ShadingContext) Closures() *closure.Registry {
	return sc.closures
}

// Dispose releases every idle pooled driver's LLVM context. Drivers
// currently checked out (not yet Released) are the caller's
// responsibility to dispose individually.
func (sc *ShadingContext) Dispose() {
	sc.driverMu.Lock()
	defer sc.driverMu.Unlock()
	for _, d := range sc.drivers {
		d.Dispose()
	}
	sc.drivers = nil
}
