package nyx

// gatherRoots assembles the full root set for a collection: the
// embedder's explicit pins, the scoped push/pop-root stack, and
// whatever the VM's root provider reports (operand stack, frame
// `this` values, scope bindings, global object) — §4.6 "Roots".
func (h *Heap) gatherRoots(minor bool) []gcObject {
	var roots []Value
	roots = append(roots, h.roots...)
	roots = append(roots, h.pinStack...)
	if h.rootFn != nil {
		roots = append(roots, h.rootFn()...)
	}

	objs := make([]gcObject, 0, len(roots))
	for _, v := range roots {
		ref := v.heapRef()
		if ref == nil {
			continue
		}
		if minor && ref.header().gen != genYoung {
			continue
		}
		objs = append(objs, ref)
	}
	if minor {
		objs = append(objs, h.remembered...)
	}
	return objs
}

// WriteBarrier must be called whenever a reference field on obj is
// mutated to point at ref. In incremental mode it re-grays obj if it
// is currently black, preserving the strong tri-color invariant (no
// black-to-white edge); outside incremental mode it only maintains
// the old-to-young remembered set used by minor collections (§4.6
// "Minor vs full collection").
func (h *Heap) WriteBarrier(obj gcObject, ref gcObject) {
	if obj == nil {
		return
	}
	hdr := obj.header()
	if ref != nil && hdr.gen == genOld && ref.header().gen == genYoung {
		h.remember(obj)
	}
	if h.incremental && hdr.mark == colorBlack {
		hdr.mark = colorGray
		h.grayStack = append(h.grayStack, obj)
	}
}

func (h *Heap) remember(obj gcObject) {
	for _, r := range h.remembered {
		if r == obj {
			return
		}
	}
	h.remembered = append(h.remembered, obj)
}

func (h *Heap) clearRemembered() { h.remembered = h.remembered[:0] }

// AddWeakRef registers a weak reference to target; callback fires at
// most once, when target becomes unreachable.
func (h *Heap) AddWeakRef(target gcObject, callback func()) *WeakRef {
	w := &WeakRef{Target: target, Callback: callback}
	h.weakRefs = append(h.weakRefs, w)
	return w
}
