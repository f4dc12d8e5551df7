package nyx

// propEntry is one property slot on an Object: a value plus the
// writable/enumerable/configurable attributes of §3 "property
// descriptors".
type propEntry struct {
	key          string
	value        Value
	writable     bool
	enumerable   bool
	configurable bool
}

// Object is a heap-resident object: an insertion-ordered list of
// properties, a prototype link for delegation, and an extensible
// flag. Properties are kept in an ordered slice plus a name->index
// map so iteration preserves insertion order while lookup stays O(1)
// (§3 "objects preserve property insertion order").
type Object struct {
	gcHeader
	props      []propEntry
	index      map[string]int
	proto      *Object
	extensible bool
}

// NewObject allocates an empty object with the given prototype (nil
// for no prototype).
func (h *Heap) NewObject(proto *Object) *Object {
	if err := h.ensureCapacity(64); err != nil {
		return nil
	}
	o := &Object{
		index:      make(map[string]int),
		proto:      proto,
		extensible: true,
	}
	o.kind = objObject
	o.size = 64
	h.linkYoung(o)
	return o
}

// Get looks up key, walking the prototype chain. Returns Undefined
// and false if not found anywhere in the chain (§3 "Get").
func (o *Object) Get(key string) (Value, bool) {
	for cur := o; cur != nil; cur = cur.proto {
		if i, ok := cur.index[key]; ok {
			return cur.props[i].value, true
		}
	}
	return Undefined(), false
}

// HasOwn reports whether key is defined directly on o, ignoring the
// prototype chain.
func (o *Object) HasOwn(key string) bool {
	_, ok := o.index[key]
	return ok
}

// Has reports whether key resolves anywhere in the prototype chain.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set assigns key := value. If an own writable property exists it is
// updated in place; if it exists but is non-writable, the write is a
// silent no-op (§3 "non-writable properties reject assignment"). If
// no own property exists, Set defines a new one with the default
// attributes (writable/enumerable/configurable = true), provided the
// object is extensible.
func (o *Object) Set(key string, value Value) {
	if i, ok := o.index[key]; ok {
		if o.props[i].writable {
			o.props[i].value = value
		}
		return
	}
	if !o.extensible {
		return
	}
	o.defineOwn(key, value, true, true, true)
}

// Define creates or replaces an own property with explicit
// attributes, bypassing the writable/extensible checks Set applies.
// Used by the VM for object-literal construction and by native
// built-ins installing fixed members (§3 "DefineProperty").
func (o *Object) Define(key string, value Value, writable, enumerable, configurable bool) {
	o.defineOwn(key, value, writable, enumerable, configurable)
}

func (o *Object) defineOwn(key string, value Value, writable, enumerable, configurable bool) {
	if i, ok := o.index[key]; ok {
		o.props[i] = propEntry{key, value, writable, enumerable, configurable}
		return
	}
	o.index[key] = len(o.props)
	o.props = append(o.props, propEntry{key, value, writable, enumerable, configurable})
}

// Delete removes an own property, honoring configurability: a
// non-configurable property refuses deletion and Delete returns
// false (§3 "Delete").
func (o *Object) Delete(key string) bool {
	i, ok := o.index[key]
	if !ok {
		return true
	}
	if !o.props[i].configurable {
		return false
	}
	o.props = append(o.props[:i], o.props[i+1:]...)
	delete(o.index, key)
	for k, idx := range o.index {
		if idx > i {
			o.index[k] = idx - 1
		}
	}
	return true
}

// Keys returns the own enumerable property names in insertion order
// (§3 "for-in enumeration order").
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.props))
	for _, p := range o.props {
		if p.enumerable {
			keys = append(keys, p.key)
		}
	}
	return keys
}

// OwnKeys returns every own property name (enumerable or not), in
// insertion order.
func (o *Object) OwnKeys() []string {
	keys := make([]string, len(o.props))
	for i, p := range o.props {
		keys[i] = p.key
	}
	return keys
}

// Proto returns o's prototype, or nil.
func (o *Object) Proto() *Object { return o.proto }

// SetProto replaces o's prototype link.
func (o *Object) SetProto(p *Object) { o.proto = p }
