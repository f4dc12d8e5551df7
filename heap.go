package nyx

import "go.uber.org/zap"

// objKind tags the concrete type behind a gcObject header. It is set
// at allocation; the mark phase dispatches with a type switch instead.
type objKind uint8

const (
	objString objKind = iota
	objObject
	objArray
	objFunction
	objBigInt
	objSymbol
)

// gcColor is the tri-color mark used by the collector (§4.6 "Mark").
type gcColor uint8

const (
	colorWhite gcColor = iota // unreachable-so-far
	colorGray                 // reachable, children not yet scanned
	colorBlack                // reachable and scanned
)

// generation is the age cohort an object lives in.
type generation uint8

const (
	genYoung generation = iota
	genOld
)

// gcHeader is embedded in every heap-resident type. It carries the
// bookkeeping the collector needs: the object's kind (for dispatch
// during marking), its tri-color mark, its generation, how many minor
// cycles it has survived, an approximate byte size charged against the
// heap's usage counter, and an intrusive link to the next object in
// its generation's list.
type gcHeader struct {
	kind objKind
	mark gcColor
	gen  generation
	age  int
	size int
	next gcObject
}

func (h *gcHeader) header() *gcHeader { return h }

// gcObject is implemented by every heap-resident type
// (*StringObject, *Object, *Array, *Function, *BigIntObject,
// *SymbolObject). It is the GC's view of a language value; the
// interpreter never holds a raw pointer the GC doesn't know about
// (§9 "Raw back-pointers replaced with indices/handles").
type gcObject interface {
	header() *gcHeader
}

// BigIntObject is a heap-resident BigInt. This engine has no
// arbitrary-precision arithmetic; BigInt values are opaque decimal
// text with identity/ToString support only (§3 "HeapFn" sibling
// types), matching the engine's non-goal of full numeric conformance.
type BigIntObject struct {
	gcHeader
	digits string
}

// SymbolObject is a heap-resident, identity-compared Symbol.
type SymbolObject struct {
	gcHeader
	description string
}

// GCStats mirrors the statistics the original mikojscore collector
// tracks (`mjs_gc_stats_t`), surfaced here for the CLI `.stats`
// command and for tests asserting collector behavior (§13 of
// SPEC_FULL.md, "supplemented features").
type GCStats struct {
	Collections       int
	MinorCollections  int
	Allocations       int
	Deallocations     int
	BytesAllocated    int
	BytesFreed        int
	PeakHeapUsage     int
}

// Heap is the engine's managed heap: a generational, tri-color
// mark-sweep collector with an explicit root set and weak-reference
// support (§4.6).
type Heap struct {
	cfg      *Config
	logger   *zap.SugaredLogger
	capacity int
	used     int
	maxBytes int

	young      gcObject
	old        gcObject
	youngCount int
	oldCount   int

	promoteAfter int
	threshold    float64
	incremental  bool
	stepItems    int

	roots       []Value // explicit embedder pins (AddRoot/RemoveRoot)
	pinStack    []Value // scoped push/pop-root pins for in-flight allocations
	rootFn      func() []Value
	remembered  []gcObject // old objects holding refs to young objects (write-barrier set)
	grayStack   []gcObject

	weakRefs []*WeakRef

	interner *Interner
	stats    GCStats

	closed bool
}

// WeakRef holds a non-owning reference to a heap object. When the
// target becomes unreachable, the collector nils Target and invokes
// Callback exactly once (§4.6 "Weak references").
type WeakRef struct {
	Target   gcObject
	Callback func()
}

// NewHeap constructs a Heap using cfg's gc.*/heap.* settings.
func NewHeap(cfg *Config, logger *zap.SugaredLogger) *Heap {
	if cfg == nil {
		cfg = NewConfig()
	}
	h := &Heap{
		cfg:          cfg,
		logger:       logger,
		capacity:     cfg.GetInt("heap.initial_bytes"),
		maxBytes:     cfg.GetInt("heap.max_bytes"),
		promoteAfter: cfg.GetInt("gc.young_promote_after"),
		threshold:    cfg.GetFloat("gc.threshold"),
		incremental:  cfg.GetBool("gc.incremental"),
		stepItems:    cfg.GetInt("gc.incremental_step_items"),
	}
	h.interner = newInterner(h)
	return h
}

// Close poisons the heap so stray cross-runtime references fail
// loudly instead of silently aliasing (§5 "Runtimes are independent;
// crossing runtimes with heap references is forbidden").
func (h *Heap) Close() {
	h.young, h.old = nil, nil
	h.roots, h.pinStack, h.weakRefs = nil, nil, nil
	h.closed = true
}

// SetRootProvider registers the callback the collector uses to
// gather VM-owned roots (operand stack, frame `this` values, scope
// bindings, global object) ahead of every mark phase.
func (h *Heap) SetRootProvider(fn func() []Value) { h.rootFn = fn }

// AddRoot pins v for the runtime's lifetime, until RemoveRoot is
// called with an equal value. Mirrors the embedder-facing
// `add_root`/`remove_root` operations of §6.
func (h *Heap) AddRoot(v Value) { h.roots = append(h.roots, v) }

// RemoveRoot un-pins the first root equal to v, if any.
func (h *Heap) RemoveRoot(v Value) {
	for i, r := range h.roots {
		if r.ref == v.ref && r.tag == v.tag {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// PushRoot scopes a temporary pin for a multi-step allocation
// sequence; pair with PopRoot.
func (h *Heap) PushRoot(v Value) { h.pinStack = append(h.pinStack, v) }

// PopRoot removes the most recently pushed scoped pin.
func (h *Heap) PopRoot() {
	if n := len(h.pinStack); n > 0 {
		h.pinStack = h.pinStack[:n-1]
	}
}

// MemoryUsage returns the heap's live byte count.
func (h *Heap) MemoryUsage() int { return h.used }

// Stats returns a snapshot of the collector's lifetime statistics.
func (h *Heap) Stats() GCStats { return h.stats }

// link adds obj to the head of the young generation's list and
// accounts for its size against the heap's usage counter.
func (h *Heap) linkYoung(obj gcObject) {
	hdr := obj.header()
	hdr.gen = genYoung
	hdr.mark = colorWhite
	hdr.next = h.young
	h.young = obj
	h.youngCount++
	h.used += hdr.size
	h.stats.Allocations++
	h.stats.BytesAllocated += hdr.size
	if h.used > h.stats.PeakHeapUsage {
		h.stats.PeakHeapUsage = h.used
	}
}

// ensureCapacity runs a collection (and grows the heap if that isn't
// enough) before an allocation of `size` bytes, per §4.6 "Allocation".
func (h *Heap) ensureCapacity(size int) error {
	if h.closed {
		return memoryErr("allocation on a closed heap")
	}
	if float64(h.used+size) >= h.threshold*float64(h.capacity) {
		h.CollectFull()
	}
	for h.used+size > h.capacity {
		if h.maxBytes > 0 && h.capacity*2 > h.maxBytes {
			if h.used+size > h.maxBytes {
				return memoryErr("heap exhausted: cannot grow past max_bytes=%d", h.maxBytes)
			}
			h.capacity = h.maxBytes
			break
		}
		h.capacity *= 2
	}
	return nil
}

func (h *Heap) logDebug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debugw(msg, args...)
	}
}
