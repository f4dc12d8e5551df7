package nyx

// sweep walks each generation list, reclaiming white (unreached)
// objects and resetting survivors to white for the next cycle,
// promoting young survivors that have lived through enough cycles
// (§4.6 "Sweep"). A minor collection only sweeps the young
// generation.
func (h *Heap) sweep(minor bool) {
	h.sweepWeakRefs(minor)
	if !minor {
		h.old, h.oldCount = h.sweepList(h.old, false)
		h.clearRemembered()
	}
	h.young, h.youngCount = h.sweepList(h.young, true)
}

// sweepList walks a generation's linked list starting at head,
// freeing white objects and returning the new head plus its count.
// Survivors in the young generation have their age incremented and
// are promoted to the old generation once age reaches promoteAfter;
// promoted objects are unlinked from this list and relinked onto the
// old generation's head instead.
func (h *Heap) sweepList(head gcObject, young bool) (gcObject, int) {
	var newHead, tail gcObject
	count := 0

	cur := head
	for cur != nil {
		hdr := cur.header()
		next := hdr.next
		if hdr.mark == colorWhite {
			h.reclaim(cur)
			cur = next
			continue
		}
		hdr.mark = colorWhite

		if young && hdr.age+1 >= h.promoteAfter {
			hdr.next = nil
			h.promote(cur)
			cur = next
			continue
		}
		if young {
			hdr.age++
		}

		hdr.next = nil
		if newHead == nil {
			newHead = cur
		}
		if tail != nil {
			tail.header().next = cur
		}
		tail = cur
		count++
		cur = next
	}
	return newHead, count
}

func (h *Heap) reclaim(obj gcObject) {
	hdr := obj.header()
	h.used -= hdr.size
	h.stats.Deallocations++
	h.stats.BytesFreed += hdr.size
	if hdr.gen == genYoung {
		h.youngCount--
	} else {
		h.oldCount--
	}
}

// promote moves a surviving young object onto the head of the old
// generation's list.
func (h *Heap) promote(obj gcObject) {
	hdr := obj.header()
	hdr.gen = genOld
	hdr.age = 0
	hdr.next = h.old
	h.old = obj
	h.oldCount++
}

func (h *Heap) sweepWeakRefs(minor bool) {
	live := h.weakRefs[:0]
	for _, w := range h.weakRefs {
		if minor && w.Target != nil && w.Target.header().gen != genYoung {
			live = append(live, w)
			continue
		}
		if w.Target != nil && w.Target.header().mark == colorWhite {
			w.Target = nil
			if w.Callback != nil {
				safeInvoke(w.Callback)
			}
			continue
		}
		live = append(live, w)
	}
	h.weakRefs = live
}

// safeInvoke runs a weak-ref callback, swallowing any panic so a
// broken callback cannot abort the collector (§4.6 "Failure modes":
// weak-ref callback errors are swallowed).
func safeInvoke(fn func()) {
	defer func() { recover() }()
	fn()
}
