package nyx

import "math"

// VMState is the VM's coarse execution state (§4.5 "state machine").
type VMState int

const (
	StateReady VMState = iota
	StateRunning
	StateError
)

// frame is one call-stack entry: the bytecode being executed, the
// program counter, the operand-stack index where this call's locals
// begin, the scope chain for variable lookup, and `this`.
type frame struct {
	bc    *Bytecode
	pc    int
	base  int
	scope *Scope
	this  Value
}

// VM is a stack-based bytecode interpreter (§4.5). It owns a bounded
// operand stack, a bounded call-frame stack, and a reference to the
// heap it allocates from.
type VM struct {
	heap      *Heap
	global    *Scope
	globalObj *Object

	operand []Value
	frames  []*frame

	state  VMState
	errVal *EngineError

	operandCap int
	callCap    int

	interrupted bool
}

const (
	defaultOperandCap = 1024
	defaultCallCap    = 256
)

// NewVM constructs a VM over heap with the capacities named in cfg.
func NewVM(heap *Heap, cfg *Config) *VM {
	if cfg == nil {
		cfg = NewConfig()
	}
	vm := &VM{
		heap:       heap,
		global:     NewScope(nil),
		operandCap: cfg.GetInt("vm.operand_stack_capacity"),
		callCap:    cfg.GetInt("vm.call_stack_capacity"),
	}
	if vm.operandCap <= 0 {
		vm.operandCap = defaultOperandCap
	}
	if vm.callCap <= 0 {
		vm.callCap = defaultCallCap
	}
	vm.globalObj = heap.NewObject(nil)
	heap.SetRootProvider(vm.collectRoots)
	return vm
}

// Global returns the VM's global object.
func (vm *VM) Global() *Object { return vm.globalObj }

// State returns the VM's current state.
func (vm *VM) State() VMState { return vm.state }

// ErrorValue returns the error that put the VM in the Error state, or
// nil.
func (vm *VM) ErrorValue() *EngineError { return vm.errVal }

// ClearError resets the VM from Error back to Ready, dropping the
// recorded error.
func (vm *VM) ClearError() {
	vm.state = StateReady
	vm.errVal = nil
}

// Interrupt requests that the VM abort at the next instruction
// boundary (§5 "Cancellation/timeout").
func (vm *VM) Interrupt() { vm.interrupted = true }

func (vm *VM) collectRoots() []Value {
	roots := make([]Value, 0, len(vm.operand)+8)
	roots = append(roots, vm.operand...)
	for _, f := range vm.frames {
		roots = append(roots, f.this)
		roots = appendScopeChain(roots, f.scope)
	}
	roots = appendScopeChain(roots, vm.global)
	roots = append(roots, ObjectValue(vm.globalObj))
	return roots
}

// appendScopeChain walks s and every ancestor, appending every bound
// value so mark/sweep sees live var/let/const bindings at every scope
// level (§4.6 "Roots") — not just the operand stack and `this`.
func appendScopeChain(roots []Value, s *Scope) []Value {
	for cur := s; cur != nil; cur = cur.parent {
		for _, v := range cur.bindings {
			roots = append(roots, v)
		}
	}
	return roots
}

func (vm *VM) push(v Value) error {
	if len(vm.operand) >= vm.operandCap {
		return runtimeErr("operand stack overflow")
	}
	vm.operand = append(vm.operand, v)
	return nil
}

func (vm *VM) pop() (Value, error) {
	if len(vm.operand) == 0 {
		return Undefined(), runtimeErr("operand stack underflow")
	}
	v := vm.operand[len(vm.operand)-1]
	vm.operand = vm.operand[:len(vm.operand)-1]
	return v, nil
}

func (vm *VM) peek(offset int) (Value, error) {
	i := len(vm.operand) - 1 - offset
	if i < 0 {
		return Undefined(), runtimeErr("operand stack underflow")
	}
	return vm.operand[i], nil
}

// Execute runs bc to completion and returns its result value, or an
// error if execution failed. It honors first-error-wins: once the VM
// transitions to Error state, execution stops and subsequent calls
// must ClearError before reuse.
func (vm *VM) Execute(bc *Bytecode) (Value, error) {
	if vm.state == StateError {
		return Undefined(), vm.errVal
	}
	vm.state = StateRunning
	vm.frames = append(vm.frames, &frame{bc: bc, base: len(vm.operand), scope: vm.global, this: Undefined()})

	result, err := vm.run()
	if err != nil {
		vm.frames = vm.frames[:0]
		vm.operand = vm.operand[:0]
		vm.fail(err)
		return Undefined(), err
	}
	vm.state = StateReady
	return result, nil
}

func (vm *VM) fail(err error) {
	vm.state = StateError
	if ee, ok := err.(*EngineError); ok {
		vm.errVal = ee
	} else {
		vm.errVal = runtimeErr("%s", err.Error())
	}
}

func (vm *VM) run() (Value, error) {
	var last Value
	for len(vm.frames) > 0 {
		if vm.interrupted {
			return Undefined(), runtimeErr("interrupted")
		}
		f := vm.frames[len(vm.frames)-1]
		if f.pc >= len(f.bc.Instructions) {
			vm.frames = vm.frames[:len(vm.frames)-1]
			continue
		}
		instr := f.bc.Instructions[f.pc]
		f.pc++
		v, done, err := vm.step(f, instr)
		if err != nil {
			return Undefined(), err
		}
		if done {
			last = v
		}
	}
	return last, nil
}

// step executes one instruction in frame f. It returns (value, true,
// nil) when a RETURN has produced a value that should propagate to
// the caller (or be the program's result, for the outermost frame).
func (vm *VM) step(f *frame, instr Instr) (Value, bool, error) {
	switch instr.Op {
	case OpNop:
		// no-op
	case OpLoadConst:
		if instr.Arg < 0 || instr.Arg >= len(f.bc.Constants) {
			return Undefined(), false, runtimeErr("invalid constant index %d", instr.Arg)
		}
		if err := vm.push(f.bc.Constants[instr.Arg]); err != nil {
			return Undefined(), false, err
		}
	case OpLoadString:
		s, err := vm.stringAt(f, instr.Arg)
		if err != nil {
			return Undefined(), false, err
		}
		if err := vm.push(StringValue(vm.heap.Intern(s))); err != nil {
			return Undefined(), false, err
		}
	case OpLoadBigInt:
		s, err := vm.stringAt(f, instr.Arg)
		if err != nil {
			return Undefined(), false, err
		}
		if err := vm.push(BigIntValue(&BigIntObject{digits: s})); err != nil {
			return Undefined(), false, err
		}
	case OpPushUndefined:
		return Undefined(), false, vm.push(Undefined())
	case OpPushNull:
		return Undefined(), false, vm.push(Null())
	case OpPushTrue:
		return Undefined(), false, vm.push(Bool(true))
	case OpPushFalse:
		return Undefined(), false, vm.push(Bool(false))
	case OpLoadVar:
		name, err := vm.stringAt(f, instr.Arg)
		if err != nil {
			return Undefined(), false, err
		}
		if v, ok := f.scope.Lookup(name); ok {
			return Undefined(), false, vm.push(v)
		}
		if v, ok := vm.globalObj.Get(name); ok {
			return Undefined(), false, vm.push(v)
		}
		return Undefined(), false, vm.push(Undefined())
	case OpStoreVar:
		name, err := vm.stringAt(f, instr.Arg)
		if err != nil {
			return Undefined(), false, err
		}
		val, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		if !f.scope.Assign(name, val) {
			f.scope.Define(name, val)
		}
		return Undefined(), false, vm.push(val)
	case OpPop:
		_, err := vm.pop()
		return Undefined(), false, err
	case OpDup:
		v, err := vm.peek(0)
		if err != nil {
			return Undefined(), false, err
		}
		return Undefined(), false, vm.push(v)
	case OpDup2:
		a, err := vm.peek(1)
		if err != nil {
			return Undefined(), false, err
		}
		b, err := vm.peek(0)
		if err != nil {
			return Undefined(), false, err
		}
		if err := vm.push(a); err != nil {
			return Undefined(), false, err
		}
		return Undefined(), false, vm.push(b)
	case OpSwap:
		b, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		a, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		if err := vm.push(b); err != nil {
			return Undefined(), false, err
		}
		return Undefined(), false, vm.push(a)
	case OpAdd:
		return Undefined(), false, vm.binaryAdd()
	case OpSubOpc:
		return Undefined(), false, vm.binaryArith(func(a, b float64) float64 { return a - b })
	case OpMulOpc:
		return Undefined(), false, vm.binaryArith(func(a, b float64) float64 { return a * b })
	case OpDivOpc:
		return Undefined(), false, vm.binaryArith(divide)
	case OpModOpc:
		return Undefined(), false, vm.binaryArith(modulo)
	case OpNegOpc:
		return Undefined(), false, vm.unaryNumber(func(a float64) float64 { return -a })
	case OpPlusOpc:
		return Undefined(), false, vm.unaryNumber(func(a float64) float64 { return a })
	case OpEqOpc:
		return Undefined(), false, vm.binaryCompareEq(true)
	case OpNeOpc:
		return Undefined(), false, vm.binaryCompareEq(false)
	case OpLtOpc:
		return Undefined(), false, vm.binaryCompareNum(func(a, b float64) bool { return a < b })
	case OpLeOpc:
		return Undefined(), false, vm.binaryCompareNum(func(a, b float64) bool { return a <= b })
	case OpGtOpc:
		return Undefined(), false, vm.binaryCompareNum(func(a, b float64) bool { return a > b })
	case OpGeOpc:
		return Undefined(), false, vm.binaryCompareNum(func(a, b float64) bool { return a >= b })
	case OpNotOpc:
		v, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		return Undefined(), false, vm.push(Bool(!ToBoolean(v)))
	case OpBitAndOpc:
		return Undefined(), false, vm.binaryBit(func(a, b int32) int32 { return a & b })
	case OpBitOrOpc:
		return Undefined(), false, vm.binaryBit(func(a, b int32) int32 { return a | b })
	case OpBitXorOpc:
		return Undefined(), false, vm.binaryBit(func(a, b int32) int32 { return a ^ b })
	case OpBitNotOpc:
		v, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		return Undefined(), false, vm.push(Number(float64(^ToInt32(v))))
	case OpShlOpc:
		return Undefined(), false, vm.binaryShift(func(a int32, b uint32) int32 { return a << (b & 31) })
	case OpShrOpc:
		return Undefined(), false, vm.binaryShift(func(a int32, b uint32) int32 { return a >> (b & 31) })
	case OpNewObject:
		return Undefined(), false, vm.push(ObjectValue(vm.heap.NewObject(nil)))
	case OpNewArray:
		return Undefined(), false, vm.push(ArrayValue(vm.heap.NewArray(nil)))
	case OpGetProp:
		return Undefined(), false, vm.getProp(f, instr.Arg)
	case OpSetProp:
		return Undefined(), false, vm.setProp(f, instr.Arg)
	case OpGetPropComputed:
		return Undefined(), false, vm.getPropComputed()
	case OpSetPropComputed:
		return Undefined(), false, vm.setPropComputed()
	case OpArrayPush:
		return Undefined(), false, vm.arrayPush()
	case OpArrayPop:
		return Undefined(), false, vm.arrayPop()
	case OpArrayGet:
		return Undefined(), false, vm.arrayGet()
	case OpArraySet:
		return Undefined(), false, vm.arraySet()
	case OpCall:
		return vm.call(instr.Arg)
	case OpReturn:
		return vm.doReturn()
	case OpJump:
		f.pc = instr.Arg
	case OpJumpIfTrue:
		v, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		if ToBoolean(v) {
			f.pc = instr.Arg
		}
	case OpJumpIfFalse:
		v, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		if !ToBoolean(v) {
			f.pc = instr.Arg
		}
	case OpTypeof:
		v, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		return Undefined(), false, vm.push(StringValue(vm.heap.Intern(TypeOf(v))))
	case OpMakeFunction:
		if instr.Arg < 0 || instr.Arg >= len(f.bc.Functions) {
			return Undefined(), false, runtimeErr("invalid function index %d", instr.Arg)
		}
		fnBc := f.bc.Functions[instr.Arg]
		fn := vm.heap.NewBytecodeFunction(fnBc.Name, fnBc.Params, fnBc, f.scope)
		return Undefined(), false, vm.push(FunctionValue(fn))
	default:
		return Undefined(), false, runtimeErr("unknown opcode %d", instr.Op)
	}
	return Undefined(), false, nil
}

func (vm *VM) stringAt(f *frame, idx int) (string, error) {
	if idx < 0 || idx >= len(f.bc.Strings) {
		return "", runtimeErr("invalid string index %d", idx)
	}
	return f.bc.Strings[idx], nil
}

func (vm *VM) binaryAdd() error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.IsString() || b.IsString() {
		return vm.push(StringValue(vm.heap.NewString(ToString(a) + ToString(b))))
	}
	return vm.push(Number(ToNumber(a) + ToNumber(b)))
}

func divide(a, b float64) float64 {
	if b == 0 {
		if a == 0 || math.IsNaN(a) {
			return math.NaN()
		}
		if a > 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return a / b
}

func modulo(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	return math.Mod(a, b)
}

func (vm *VM) binaryArith(op func(a, b float64) float64) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(Number(op(ToNumber(a), ToNumber(b))))
}

func (vm *VM) unaryNumber(op func(a float64) float64) error {
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(Number(op(ToNumber(a))))
}

func (vm *VM) binaryCompareEq(wantEqual bool) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	eq := StrictEquals(a, b)
	if !wantEqual {
		eq = !eq
	}
	return vm.push(Bool(eq))
}

func (vm *VM) binaryCompareNum(op func(a, b float64) bool) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(Bool(op(ToNumber(a), ToNumber(b))))
}

func (vm *VM) binaryBit(op func(a, b int32) int32) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(Number(float64(op(ToInt32(a), ToInt32(b)))))
}

func (vm *VM) binaryShift(op func(a int32, b uint32) int32) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(Number(float64(op(ToInt32(a), uint32(ToInt32(b))))))
}

func (vm *VM) getProp(f *frame, strIdx int) error {
	name, err := vm.stringAt(f, strIdx)
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.push(lookupProp(obj, name))
}

func lookupProp(obj Value, name string) Value {
	switch obj.tag {
	case TagObject:
		if v, ok := obj.AsObject().Get(name); ok {
			return v
		}
	case TagArray:
		if name == "length" {
			return Number(float64(obj.AsArray().Len()))
		}
	case TagFunction:
		if name == "name" {
			return Undefined()
		}
	case TagString:
		if name == "length" {
			return Number(float64(obj.AsStringObject().Len()))
		}
	}
	return Undefined()
}

func (vm *VM) setProp(f *frame, strIdx int) error {
	name, err := vm.stringAt(f, strIdx)
	if err != nil {
		return err
	}
	val, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	if obj.tag != TagObject {
		return typeErr("cannot set property %q on non-object", name)
	}
	obj.AsObject().Set(name, val)
	return vm.push(val)
}

func (vm *VM) getPropComputed() error {
	key, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	if obj.tag == TagArray {
		idx, ok := arrayIndex(key)
		if ok {
			return vm.push(obj.AsArray().Get(idx))
		}
	}
	return vm.push(lookupProp(obj, ToString(key)))
}

func (vm *VM) setPropComputed() error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	key, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	if obj.tag == TagArray {
		if idx, ok := arrayIndex(key); ok {
			obj.AsArray().Set(idx, val)
			return vm.push(val)
		}
	}
	if obj.tag != TagObject {
		return typeErr("cannot set computed property on non-object")
	}
	obj.AsObject().Set(ToString(key), val)
	return vm.push(val)
}

func arrayIndex(key Value) (int, bool) {
	if !key.IsNumber() {
		return 0, false
	}
	f := key.AsNumber()
	i := int(f)
	if float64(i) != f || i < 0 {
		return 0, false
	}
	return i, true
}

func (vm *VM) arrayPush() error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	arr, err := vm.peek(0)
	if err != nil {
		return err
	}
	if arr.tag != TagArray {
		return typeErr("ARRAY_PUSH on non-array")
	}
	arr.AsArray().Push(val)
	return nil
}

func (vm *VM) arrayPop() error {
	arr, err := vm.pop()
	if err != nil {
		return err
	}
	if arr.tag != TagArray {
		return typeErr("ARRAY_POP on non-array")
	}
	return vm.push(arr.AsArray().Pop())
}

func (vm *VM) arrayGet() error {
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	arr, err := vm.pop()
	if err != nil {
		return err
	}
	if arr.tag != TagArray {
		return typeErr("ARRAY_GET on non-array")
	}
	i, _ := arrayIndex(idx)
	return vm.push(arr.AsArray().Get(i))
}

func (vm *VM) arraySet() error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	arr, err := vm.pop()
	if err != nil {
		return err
	}
	if arr.tag != TagArray {
		return typeErr("ARRAY_SET on non-array")
	}
	i, ok := arrayIndex(idx)
	if !ok {
		return rangeErr("invalid array index")
	}
	arr.AsArray().Set(i, val)
	return vm.push(val)
}

func (vm *VM) call(argc int) (Value, bool, error) {
	callee, err := vm.peek(argc)
	if err != nil {
		return Undefined(), false, err
	}
	if callee.tag != TagFunction {
		return Undefined(), false, referenceErr("value is not callable")
	}
	fn := callee.AsFunction()

	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return Undefined(), false, err
		}
		args[i] = v
	}
	if _, err := vm.pop(); err != nil { // discard callee
		return Undefined(), false, err
	}

	if fn.IsNative() {
		for len(args) < fn.Arity() {
			args = append(args, Undefined())
		}
		result, err := fn.native(vm, Undefined(), args)
		if err != nil {
			return Undefined(), false, err
		}
		return Undefined(), false, vm.push(result)
	}

	if len(vm.frames) >= vm.callCap {
		return Undefined(), false, runtimeErr("call stack overflow")
	}
	callScope := NewScope(fn.closure)
	for i, p := range fn.params {
		if i < len(args) {
			callScope.Define(p, args[i])
		} else {
			callScope.Define(p, Undefined())
		}
	}
	vm.frames = append(vm.frames, &frame{bc: fn.body, base: len(vm.operand), scope: callScope, this: Undefined()})
	return Undefined(), false, nil
}

func (vm *VM) doReturn() (Value, bool, error) {
	val, err := vm.pop()
	if err != nil {
		return Undefined(), false, err
	}
	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		return val, true, nil
	}
	return Undefined(), false, vm.push(val)
}
