package resolve

/*
// The one native signature every float-only shader is reachable through:
// the invoke thunk emitted by emitFloatThunk. ins/outs may be null when
// the shader has no arguments of that direction; the tsl_global context
// is null for host-less invocations (test harnesses, the CLI's run
// command).
static void tsl_invoke_floats(void *fn, float *ins, float *outs, void *tsl_global) {
	((void (*)(float *, float *, void *))fn)(ins, outs, tsl_global);
}

// Direct call into a shader whose single argument is an out closure: the
// root function's own signature is void(void **out, tsl_global *), so no
// emitted thunk is needed.
static void tsl_invoke_closure_out(void *fn, void **out, void *tsl_global) {
	((void (*)(void **, void *))fn)(out, tsl_global);
}
*/
import "C"

import "unsafe"

// callFloatThunk jumps into a JIT-compiled invoke thunk with the uniform
// void(float*, float*, tsl_global*) signature.
func callFloatThunk(fn unsafe.Pointer, ins, outs []float32) {
	var inPtr, outPtr *C.float
	if len(ins) > 0 {
		inPtr = (*C.float)(unsafe.Pointer(&ins[0]))
	}
	if len(outs) > 0 {
		outPtr = (*C.float)(unsafe.Pointer(&outs[0]))
	}
	C.tsl_invoke_floats(fn, inPtr, outPtr, nil)
}

// callClosureOut jumps into a JIT-compiled shader root with the
// void(void**, tsl_global*) signature a single-out-closure shader lowers
// to, returning the node pointer it wrote.
func callClosureOut(fn unsafe.Pointer) unsafe.Pointer {
	var out unsafe.Pointer
	C.tsl_invoke_closure_out(fn, &out, nil)
	return out
}
