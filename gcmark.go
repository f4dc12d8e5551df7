package nyx

// CollectFull runs a full mark-sweep collection: every root, both
// generations scanned and swept (§4.6 "Minor vs full collection").
func (h *Heap) CollectFull() {
	h.mark(false)
	h.sweep(false)
	h.stats.Collections++
}

// CollectMinor runs a minor collection: only young-generation roots
// plus the remembered set, only the young generation swept.
func (h *Heap) CollectMinor() {
	h.mark(true)
	h.sweep(true)
	h.stats.MinorCollections++
}

// mark performs the tri-color mark phase (§4.6 "Mark"): every root is
// grayed and pushed onto the worklist, then repeatedly popped,
// scanned for outgoing references (which are grayed and pushed), and
// blackened.
func (h *Heap) mark(minor bool) {
	h.grayStack = h.grayStack[:0]
	for _, root := range h.gatherRoots(minor) {
		h.grayObj(root)
	}
	for len(h.grayStack) > 0 {
		n := len(h.grayStack) - 1
		obj := h.grayStack[n]
		h.grayStack = h.grayStack[:n]
		h.scanChildren(obj)
		obj.header().mark = colorBlack
	}
}

// Step performs bounded incremental mark work: at most stepItems gray
// entries are processed before returning, allowing the caller to
// resume execution between steps (§4.6 "Incremental option").
func (h *Heap) Step() (done bool) {
	if h.grayStack == nil {
		for _, root := range h.gatherRoots(false) {
			h.grayObj(root)
		}
	}
	budget := h.stepItems
	if budget <= 0 {
		budget = 100
	}
	for i := 0; i < budget && len(h.grayStack) > 0; i++ {
		n := len(h.grayStack) - 1
		obj := h.grayStack[n]
		h.grayStack = h.grayStack[:n]
		h.scanChildren(obj)
		obj.header().mark = colorBlack
	}
	return len(h.grayStack) == 0
}

func (h *Heap) grayObj(obj gcObject) {
	if obj == nil {
		return
	}
	hdr := obj.header()
	if hdr.mark != colorWhite {
		return
	}
	hdr.mark = colorGray
	h.grayStack = append(h.grayStack, obj)
}

// scanChildren grays every reference obj directly holds. What counts
// as a child reference depends on the object's kind (§4.6 "Mark"
// step 2): object property values and prototype, array elements,
// function captured scope, string has none.
func (h *Heap) scanChildren(obj gcObject) {
	switch o := obj.(type) {
	case *Object:
		for _, p := range o.props {
			h.grayObj(p.value.heapRef())
		}
		if o.proto != nil {
			h.grayObj(o.proto)
		}
	case *Array:
		for _, v := range o.elems {
			h.grayObj(v.heapRef())
		}
	case *Function:
		h.grayScope(o.closure)
	case *StringObject, *BigIntObject, *SymbolObject:
		// leaves: no outgoing references
	}
}

func (h *Heap) grayScope(s *Scope) {
	for cur := s; cur != nil; cur = cur.parent {
		for _, v := range cur.bindings {
			h.grayObj(v.heapRef())
		}
	}
}
