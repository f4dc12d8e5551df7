package nyx

// StringObject is a heap-resident string. Strings are immutable once
// constructed; the `data` field is never mutated in place (§3 "String
// values are immutable").
type StringObject struct {
	gcHeader
	data     string
	interned bool
}

func (s *StringObject) Len() int    { return len(s.data) }
func (s *StringObject) String() string { return s.data }

// Interner deduplicates string allocations, per §4.5 "string pool":
// the VM interns string literals as it loads them and the results of
// typeof. Property keys and identifiers are plain Go strings, and
// StrictEquals compares string contents byte by byte.
type Interner struct {
	heap  *Heap
	table map[string]*StringObject
}

func newInterner(h *Heap) *Interner {
	return &Interner{heap: h, table: make(map[string]*StringObject)}
}

// Intern returns the unique *StringObject for s, allocating one on
// first use.
func (in *Interner) Intern(s string) *StringObject {
	if existing, ok := in.table[s]; ok {
		return existing
	}
	obj := &StringObject{data: s, interned: true}
	obj.kind = objString
	obj.size = len(s) + 16
	in.heap.linkYoung(obj)
	in.table[s] = obj
	return obj
}

// InternedCount reports how many distinct strings are currently
// interned, surfaced by the CLI `.stats` command (SPEC_FULL.md §13).
func (in *Interner) InternedCount() int { return len(in.table) }

// NewString allocates a fresh, non-interned string object. Used for
// runtime-computed strings (concatenation, coercions) that are
// unlikely to be deduplication candidates.
func (h *Heap) NewString(s string) *StringObject {
	if err := h.ensureCapacity(len(s) + 16); err != nil {
		return nil
	}
	obj := &StringObject{data: s}
	obj.kind = objString
	obj.size = len(s) + 16
	h.linkYoung(obj)
	return obj
}

// Intern is a convenience wrapper over the heap's Interner.
func (h *Heap) Intern(s string) *StringObject { return h.interner.Intern(s) }
