package nyx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeLookupWalksChain(t *testing.T) {
	outer := NewScope(nil)
	outer.Define("x", Number(1))
	inner := NewScope(outer)
	inner.Define("y", Number(2))

	v, ok := inner.Lookup("x")
	require.True(t, ok, "Lookup searches ancestor scopes")
	assert.Equal(t, 1.0, v.AsNumber())

	v, ok = inner.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, 2.0, v.AsNumber())

	_, ok = outer.Lookup("y")
	assert.False(t, ok, "an inner binding is not visible from the outer scope")
}

func TestScopeDefineShadowsOuter(t *testing.T) {
	outer := NewScope(nil)
	outer.Define("x", Number(1))
	inner := NewScope(outer)
	inner.Define("x", Number(2))

	v, _ := inner.Lookup("x")
	assert.Equal(t, 2.0, v.AsNumber())
	v, _ = outer.Lookup("x")
	assert.Equal(t, 1.0, v.AsNumber(), "shadowing in the inner scope leaves the outer binding untouched")
}

func TestScopeAssignUpdatesNearestBinding(t *testing.T) {
	outer := NewScope(nil)
	outer.Define("x", Number(1))
	inner := NewScope(outer)

	ok := inner.Assign("x", Number(9))
	assert.True(t, ok)
	v, _ := outer.Lookup("x")
	assert.Equal(t, 9.0, v.AsNumber(), "Assign mutates the binding in the scope where it was found")
}

func TestScopeAssignUndeclaredFails(t *testing.T) {
	s := NewScope(nil)
	ok := s.Assign("missing", Number(1))
	assert.False(t, ok, "assigning a name never declared anywhere in the chain fails")
}

func TestNewBytecodeFunction(t *testing.T) {
	h := NewHeap(nil, nil)
	scope := NewScope(nil)
	bc := &Bytecode{Name: "f"}
	fn := h.NewBytecodeFunction("f", []string{"a", "b"}, bc, scope)

	assert.False(t, fn.IsNative())
	assert.Equal(t, "f", fn.Name())
	assert.Equal(t, 2, fn.Arity())
}

func TestNewNativeFunction(t *testing.T) {
	h := NewHeap(nil, nil)
	fn := h.NewNativeFunction("double", 1, func(vm *VM, this Value, args []Value) (Value, error) {
		return Number(ToNumber(args[0]) * 2), nil
	})

	assert.True(t, fn.IsNative())
	assert.Equal(t, "double", fn.Name())
	assert.Equal(t, 1, fn.Arity())
}
