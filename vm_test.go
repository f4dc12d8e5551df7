package nyx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (Value, *VM) {
	t.Helper()
	p := NewParser([]byte(src))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	bc, err := Compile(prog)
	require.NoError(t, err)
	heap := NewHeap(nil, nil)
	vm := NewVM(heap, nil)
	v, err := vm.Execute(bc)
	require.NoError(t, err)
	return v, vm
}

func TestVMArithmetic(t *testing.T) {
	v, _ := run(t, "1 + 2 * 3;")
	assert.Equal(t, 7.0, v.AsNumber())

	v, _ = run(t, "(1 + 2) * 3;")
	assert.Equal(t, 9.0, v.AsNumber())
}

func TestVMDivisionByZeroSignsFollowDividend(t *testing.T) {
	v, _ := run(t, "1 / 0;")
	assert.True(t, math.IsInf(v.AsNumber(), 1))

	v, _ = run(t, "-1 / 0;")
	assert.True(t, math.IsInf(v.AsNumber(), -1))

	v, _ = run(t, "0 / 0;")
	assert.True(t, math.IsNaN(v.AsNumber()))
}

func TestVMModuloByZeroIsNaN(t *testing.T) {
	v, _ := run(t, "5 % 0;")
	assert.True(t, math.IsNaN(v.AsNumber()))
}

func TestVMStringConcatenation(t *testing.T) {
	v, _ := run(t, `"foo" + "bar";`)
	assert.Equal(t, "foobar", ToString(v))

	v, _ = run(t, `"count: " + 3;`)
	assert.Equal(t, "count: 3", ToString(v))
}

func TestVMComparisonOperators(t *testing.T) {
	v, _ := run(t, "1 < 2;")
	assert.True(t, v.AsBool())

	v, _ = run(t, "2 <= 2;")
	assert.True(t, v.AsBool())

	v, _ = run(t, "1 === 1;")
	assert.True(t, v.AsBool())

	v, _ = run(t, `1 === "1";`)
	assert.False(t, v.AsBool(), "strict equality never coerces across tags")
}

func TestVMLogicalShortCircuit(t *testing.T) {
	v, _ := run(t, "false && (1 / 0);")
	assert.False(t, v.AsBool(), "&& short-circuits without evaluating the right operand")

	v, _ = run(t, "true || (1 / 0);")
	assert.True(t, v.AsBool(), "|| short-circuits without evaluating the right operand")
}

func TestVMBitwiseAndShiftUseToInt32(t *testing.T) {
	v, _ := run(t, "5 & 3;")
	assert.Equal(t, 1.0, v.AsNumber())

	v, _ = run(t, "5 | 2;")
	assert.Equal(t, 7.0, v.AsNumber())

	v, _ = run(t, "1 << 3;")
	assert.Equal(t, 8.0, v.AsNumber())

	v, _ = run(t, "-8 >> 1;")
	assert.Equal(t, -4.0, v.AsNumber())
}

func TestVMVariableDeclarationAndAssignment(t *testing.T) {
	v, _ := run(t, "let x = 1; x = x + 41; x;")
	assert.Equal(t, 42.0, v.AsNumber())
}

func TestVMCompoundAssignment(t *testing.T) {
	v, _ := run(t, "let x = 10; x += 5; x;")
	assert.Equal(t, 15.0, v.AsNumber())
}

func TestVMUpdateExprPrefixAndPostfix(t *testing.T) {
	v, _ := run(t, "let x = 1; let y = x++; y;")
	assert.Equal(t, 1.0, v.AsNumber(), "postfix ++ yields the pre-increment value")

	v, _ = run(t, "let x = 1; let y = ++x; y;")
	assert.Equal(t, 2.0, v.AsNumber(), "prefix ++ yields the post-increment value")
}

func TestVMIfElseBranching(t *testing.T) {
	v, _ := run(t, "let x = 0; if (true) { x = 1; } else { x = 2; } x;")
	assert.Equal(t, 1.0, v.AsNumber())

	v, _ = run(t, "let x = 0; if (false) { x = 1; } else { x = 2; } x;")
	assert.Equal(t, 2.0, v.AsNumber())
}

func TestVMWhileLoop(t *testing.T) {
	v, _ := run(t, "let i = 0; let sum = 0; while (i < 5) { sum = sum + i; i = i + 1; } sum;")
	assert.Equal(t, 10.0, v.AsNumber())
}

func TestVMForLoopWithBreakAndContinue(t *testing.T) {
	v, _ := run(t, `
		let sum = 0;
		for (let i = 0; i < 10; i = i + 1) {
			if (i == 5) { break; }
			if (i % 2 == 0) { continue; }
			sum = sum + i;
		}
		sum;
	`)
	assert.Equal(t, 4.0, v.AsNumber(), "1 + 3 from the odd indices below the break at 5")
}

func TestVMFunctionCallAndReturn(t *testing.T) {
	v, _ := run(t, `
		function add(a, b) { return a + b; }
		add(2, 3);
	`)
	assert.Equal(t, 5.0, v.AsNumber())
}

func TestVMClosureCapturesEnclosingScope(t *testing.T) {
	v, _ := run(t, `
		function makeCounter() {
			let count = 0;
			function increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		let counter = makeCounter();
		counter();
		counter();
		counter();
	`)
	assert.Equal(t, 3.0, v.AsNumber(), "each call shares the same captured `count` binding")
}

func TestVMFunctionArityMismatchFillsUndefined(t *testing.T) {
	v, _ := run(t, `
		function f(a, b) { return b; }
		f(1);
	`)
	assert.True(t, v.IsUndefined(), "missing arguments are filled with undefined")
}

func TestVMCallingNonFunctionIsReferenceError(t *testing.T) {
	p := NewParser([]byte("let x = 1; x();"))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	bc, err := Compile(prog)
	require.NoError(t, err)
	vm := NewVM(NewHeap(nil, nil), nil)

	_, err = vm.Execute(bc)
	require.Error(t, err)
	ee, ok := err.(*EngineError)
	require.True(t, ok)
	assert.Equal(t, KindReference, ee.Kind)
	assert.Equal(t, StateError, vm.State())
}

func TestVMObjectLiteralAndPropertyAccess(t *testing.T) {
	v, _ := run(t, `let o = {x: 1, y: 2}; o.x + o.y;`)
	assert.Equal(t, 3.0, v.AsNumber())
}

func TestVMComputedPropertyAssignment(t *testing.T) {
	v, _ := run(t, `let o = {}; o["k"] = 5; o["k"];`)
	assert.Equal(t, 5.0, v.AsNumber())
}

func TestVMArrayLiteralAndIndexing(t *testing.T) {
	v, _ := run(t, `let a = [10, 20, 30]; a[1];`)
	assert.Equal(t, 20.0, v.AsNumber())
}

func TestVMArrayLength(t *testing.T) {
	v, _ := run(t, `let a = [1, 2, 3]; a.length;`)
	assert.Equal(t, 3.0, v.AsNumber())
}

func TestVMTypeofOperator(t *testing.T) {
	v, _ := run(t, "typeof 1;")
	assert.Equal(t, "number", ToString(v))

	v, _ = run(t, "typeof null;")
	assert.Equal(t, "object", ToString(v))

	v, _ = run(t, "typeof undefined;")
	assert.Equal(t, "undefined", ToString(v))
}

func TestVMTernaryConditional(t *testing.T) {
	v, _ := run(t, "true ? 1 : 2;")
	assert.Equal(t, 1.0, v.AsNumber())
}

func TestVMSetPropertyOnNonObjectIsTypeError(t *testing.T) {
	p := NewParser([]byte("let x = 1; x.y = 2;"))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	bc, err := Compile(prog)
	require.NoError(t, err)
	vm := NewVM(NewHeap(nil, nil), nil)

	_, err = vm.Execute(bc)
	require.Error(t, err)
	ee, ok := err.(*EngineError)
	require.True(t, ok)
	assert.Equal(t, KindType, ee.Kind)
}

func TestVMClearErrorResetsState(t *testing.T) {
	p := NewParser([]byte("let x = 1; x();"))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	bc, err := Compile(prog)
	require.NoError(t, err)
	vm := NewVM(NewHeap(nil, nil), nil)

	_, err = vm.Execute(bc)
	require.Error(t, err)
	require.Equal(t, StateError, vm.State())

	vm.ClearError()
	assert.Equal(t, StateReady, vm.State())
	assert.Nil(t, vm.ErrorValue())
}

func TestVMVariableBindingsSurviveGC(t *testing.T) {
	p := NewParser([]byte(`let o = { x: 42 };`))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	bc, err := Compile(prog)
	require.NoError(t, err)
	heap := NewHeap(nil, nil)
	vm := NewVM(heap, nil)
	_, err = vm.Execute(bc)
	require.NoError(t, err)

	heap.CollectFull()

	p2 := NewParser([]byte(`o.x;`))
	prog2, err := p2.ParseProgram()
	require.NoError(t, err)
	bc2, err := Compile(prog2)
	require.NoError(t, err)
	v, err := vm.Execute(bc2)
	require.NoError(t, err, "a global `let` binding must survive a full GC even though nothing else roots it")
	assert.Equal(t, 42.0, v.AsNumber())
}

func TestVMLocalBindingSurvivesGCDuringCall(t *testing.T) {
	heap := NewHeap(nil, nil)
	vm := NewVM(heap, nil)
	gcNow := heap.NewNativeFunction("gcNow", 0, func(vm *VM, this Value, args []Value) (Value, error) {
		heap.CollectFull()
		return Undefined(), nil
	})
	vm.Global().Set("gcNow", FunctionValue(gcNow))

	p := NewParser([]byte(`
		function make() {
			let local = { tag: "kept" };
			gcNow();
			return local.tag;
		}
		make();
	`))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	bc, err := Compile(prog)
	require.NoError(t, err)

	v, err := vm.Execute(bc)
	require.NoError(t, err, "a call-frame local must survive a full GC triggered mid-call")
	assert.Equal(t, "kept", ToString(v))
}

func TestVMOperandStackOverflow(t *testing.T) {
	cfg := NewConfig()
	cfg.SetInt("vm.operand_stack_capacity", 4)
	// A call expression pushes its callee then every argument before
	// OpCall consumes them, so enough arguments overflow a small stack.
	p := NewParser([]byte("function f(a,b,c,d,e) { return a; } f(1, 2, 3, 4, 5);"))
	prog, err := p.ParseProgram()
	require.NoError(t, err)
	bc, err := Compile(prog)
	require.NoError(t, err)
	vm := NewVM(NewHeap(nil, nil), cfg)

	_, err = vm.Execute(bc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RuntimeError")
}
