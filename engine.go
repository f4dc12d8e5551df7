package nyx

import (
	"go.uber.org/zap"

	"github.com/nyx-lang/nyx/internal/enginelog"
)

// Runtime owns a heap and an interner. Runtimes are independent: a
// heap value allocated in one Runtime must never cross into another
// (§5 "Runtimes are independent").
type Runtime struct {
	heap   *Heap
	logger *zap.SugaredLogger
	closed bool
}

// NewRuntime constructs a Runtime using cfg's gc.*/heap.* settings
// (NewConfig defaults if cfg is nil).
func NewRuntime(cfg *Config) *Runtime {
	logger := enginelog.Sugar()
	return &Runtime{heap: NewHeap(cfg, logger), logger: logger}
}

// Close drops every context and heap object owned by this runtime.
// Go has no manual free; Close honors the spec's "drops all contexts
// and heap objects" by poisoning the heap so stray cross-runtime
// references fail loudly instead of silently aliasing.
func (rt *Runtime) Close() {
	if rt.closed {
		return
	}
	rt.heap.Close()
	rt.closed = true
}

// NewContext produces a Context with a fresh global object and VM.
func (rt *Runtime) NewContext(cfg *Config) *Context {
	vm := NewVM(rt.heap, cfg)
	return &Context{rt: rt, vm: vm}
}

// Context is one evaluation context: a VM plus its global object.
// Multiple contexts may share a Runtime's heap. A Context does no
// locking and is not safe for concurrent use.
type Context struct {
	rt  *Runtime
	vm  *VM
	src string
}

// Eval performs lex -> parse -> compile -> execute over source,
// returning the value of the final top-level expression statement on
// success, or the first error encountered by any pipeline stage (§6
// "evaluate"). When the last top-level statement is not an expression
// statement (a declaration, an if, a loop, a block), the result is
// Undefined; values computed inside nested statements are not returned.
func (ctx *Context) Eval(source, filename string) (Value, error) {
	ctx.src = filename

	p := NewParser([]byte(source))
	prog, err := p.ParseProgram()
	if err != nil {
		return Undefined(), err
	}

	bc, err := Compile(prog)
	if err != nil {
		return Undefined(), err
	}

	if ctx.vm.State() == StateError {
		ctx.vm.ClearError()
	}
	v, err := ctx.vm.Execute(bc)
	if err != nil {
		return Undefined(), err
	}
	return v, nil
}

// Global returns the context's global object.
func (ctx *Context) Global() *Object { return ctx.vm.Global() }

// GC forces a full collection.
func (ctx *Context) GC() { ctx.rt.heap.CollectFull() }

// MemoryUsage returns the runtime heap's live byte count.
func (ctx *Context) MemoryUsage() int { return ctx.rt.heap.MemoryUsage() }

// GCStats returns the collector's lifetime statistics (SPEC_FULL.md
// §13, supplemented from the original collector's `mjs_gc_stats_t`).
func (ctx *Context) GCStats() GCStats { return ctx.rt.heap.Stats() }

// InternedCount returns the number of distinct interned strings
// (SPEC_FULL.md §13).
func (ctx *Context) InternedCount() int { return ctx.rt.heap.interner.InternedCount() }

// ErrorMessage returns the message of the VM's current error, or ""
// if the VM is not in the Error state.
func (ctx *Context) ErrorMessage() string {
	if ctx.vm.State() != StateError || ctx.vm.ErrorValue() == nil {
		return ""
	}
	return ctx.vm.ErrorValue().Error()
}

// ClearError resets the context's VM from Error back to Ready.
func (ctx *Context) ClearError() { ctx.vm.ClearError() }

// Close releases ctx. Contexts share their runtime's heap, so Close
// is a no-op beyond dropping ctx's own reference to its VM.
func (ctx *Context) Close() { ctx.vm = nil }

// --- value construction/introspection, matching §4.1 ---

// NewString allocates and returns a string Value.
func (ctx *Context) NewString(s string) Value {
	return StringValue(ctx.rt.heap.NewString(s))
}

// NewObject allocates and returns an empty object Value.
func (ctx *Context) NewObject() Value {
	return ObjectValue(ctx.rt.heap.NewObject(nil))
}

// NewArray allocates and returns an array Value from elems.
func (ctx *Context) NewArray(elems []Value) Value {
	return ArrayValue(ctx.rt.heap.NewArray(elems))
}

// NewNativeFunction binds a Go function as a callable Value.
func (ctx *Context) NewNativeFunction(name string, arity int, fn NativeFunc) Value {
	return FunctionValue(ctx.rt.heap.NewNativeFunction(name, arity, fn))
}

// AddRoot pins v against collection until RemoveRoot is called.
func (ctx *Context) AddRoot(v Value) { ctx.rt.heap.AddRoot(v) }

// RemoveRoot un-pins a value previously pinned with AddRoot.
func (ctx *Context) RemoveRoot(v Value) { ctx.rt.heap.RemoveRoot(v) }
