package nyx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectGetSetOwn(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)

	_, ok := o.Get("x")
	require.False(t, ok)

	o.Set("x", Number(1))
	v, ok := o.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, v.AsNumber())

	o.Set("x", Number(2))
	v, _ = o.Get("x")
	assert.Equal(t, 2.0, v.AsNumber(), "Set updates an existing writable property in place")
}

func TestObjectPrototypeChain(t *testing.T) {
	h := NewHeap(nil, nil)
	proto := h.NewObject(nil)
	proto.Set("greeting", Number(1))
	child := h.NewObject(proto)

	v, ok := child.Get("greeting")
	require.True(t, ok, "Get walks the prototype chain")
	assert.Equal(t, 1.0, v.AsNumber())

	assert.False(t, child.HasOwn("greeting"))
	assert.True(t, child.Has("greeting"))

	child.Set("greeting", Number(2))
	v, _ = child.Get("greeting")
	assert.Equal(t, 2.0, v.AsNumber(), "Set defines a new own property rather than mutating the prototype")

	protoVal, _ := proto.Get("greeting")
	assert.Equal(t, 1.0, protoVal.AsNumber(), "the prototype's own property is untouched")
}

func TestObjectNonWritableRejectsAssignment(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)
	o.Define("frozen", Number(1), false, true, true)

	o.Set("frozen", Number(2))
	v, _ := o.Get("frozen")
	assert.Equal(t, 1.0, v.AsNumber(), "writes to a non-writable property are a silent no-op")
}

func TestObjectNonExtensibleRejectsNewProperty(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)
	o.extensible = false

	o.Set("x", Number(1))
	_, ok := o.Get("x")
	assert.False(t, ok, "Set on a non-extensible object cannot define a new property")
}

func TestObjectDeleteHonorsConfigurable(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)
	o.Define("a", Number(1), true, true, true)
	o.Define("b", Number(2), true, true, false)

	assert.True(t, o.Delete("a"))
	assert.False(t, o.HasOwn("a"))

	assert.False(t, o.Delete("b"), "a non-configurable property refuses deletion")
	assert.True(t, o.HasOwn("b"))

	assert.True(t, o.Delete("missing"), "deleting an absent key succeeds trivially")
}

func TestObjectKeysPreserveInsertionOrder(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)
	o.Set("z", Number(1))
	o.Set("a", Number(2))
	o.Set("m", Number(3))

	assert.Equal(t, []string{"z", "a", "m"}, o.Keys())
}

func TestObjectKeysExcludeNonEnumerable(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)
	o.Define("visible", Number(1), true, true, true)
	o.Define("hidden", Number(2), true, false, true)

	assert.Equal(t, []string{"visible"}, o.Keys())
	assert.ElementsMatch(t, []string{"visible", "hidden"}, o.OwnKeys())
}

func TestObjectDeleteReindexesRemainingProps(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)
	o.Set("a", Number(1))
	o.Set("b", Number(2))
	o.Set("c", Number(3))

	require.True(t, o.Delete("a"))
	v, ok := o.Get("c")
	require.True(t, ok)
	assert.Equal(t, 3.0, v.AsNumber())
	assert.Equal(t, []string{"b", "c"}, o.Keys())
}

func TestObjectSetProto(t *testing.T) {
	h := NewHeap(nil, nil)
	o := h.NewObject(nil)
	assert.Nil(t, o.Proto())

	proto := h.NewObject(nil)
	o.SetProto(proto)
	assert.Same(t, proto, o.Proto())
}
