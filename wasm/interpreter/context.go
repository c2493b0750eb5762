package interpreter

import (
	"math"
	"math/bits"

	"github.com/wazcore/wazcore/internal/moremath"
	"github.com/wazcore/wazcore/wasm"
)

// Context is the evaluator's entire state: one linear memory and one
// value stack. There is no frame, no locals, no globals, and no module —
// Exec implements exactly the operation kinds spec's evaluator names
// (constants, numeric ops, conversions, reinterprets, memory access,
// CurrentMemory/GrowMemory, Unreachable, Nop); everything that needs a
// calling frame (locals, globals, calls, branches, select, drop) is out
// of scope and reported as RuntimeUnimpl.
type Context struct {
	Mem   *Memory
	Stack Stack
}

// NewContext returns a Context with one zero-initialized memory page and
// an empty stack, per spec's construction rule.
func NewContext() *Context {
	return &Context{Mem: NewMemory()}
}

func (c *Context) popI32(op wasm.Opcode) (int32, error) {
	v, err := c.Stack.popTyped(wasm.ValueTypeI32, op)
	return v.I32, err
}

func (c *Context) popI64(op wasm.Opcode) (int64, error) {
	v, err := c.Stack.popTyped(wasm.ValueTypeI64, op)
	return v.I64, err
}

func (c *Context) popF32(op wasm.Opcode) (float32, error) {
	v, err := c.Stack.popTyped(wasm.ValueTypeF32, op)
	return v.F32, err
}

func (c *Context) popF64(op wasm.Opcode) (float64, error) {
	v, err := c.Stack.popTyped(wasm.ValueTypeF64, op)
	return v.F64, err
}

func (c *Context) pushI32(v int32)     { c.Stack.Push(I32Value(v)) }
func (c *Context) pushI64(v int64)     { c.Stack.Push(I64Value(v)) }
func (c *Context) pushF32(v float32)   { c.Stack.Push(F32Value(v)) }
func (c *Context) pushF64(v float64)   { c.Stack.Push(F64Value(v)) }
func (c *Context) pushBool(v bool) {
	if v {
		c.pushI32(1)
	} else {
		c.pushI32(0)
	}
}

// Exec interprets a single decoded Op against c, mutating Mem and Stack
// on success. On any error the resulting Mem/Stack state is unspecified
// per spec's ordering guarantee — callers must discard the Context.
func (c *Context) Exec(op wasm.Op) error {
	switch op.Code {
	case wasm.OpcodeUnreachable:
		return &wasm.RuntimeError{Kind: wasm.Unreachable, Op: op.Code}
	case wasm.OpcodeNop:
		return nil

	case wasm.OpcodeI32Const:
		c.pushI32(op.I32)
		return nil
	case wasm.OpcodeI64Const:
		c.pushI64(op.I64)
		return nil
	case wasm.OpcodeF32Const:
		c.pushF32(math.Float32frombits(op.F32Bits))
		return nil
	case wasm.OpcodeF64Const:
		c.pushF64(math.Float64frombits(op.F64Bits))
		return nil

	case wasm.OpcodeI32Eqz:
		return c.execI32Eqz(op.Code)
	case wasm.OpcodeI32Eq, wasm.OpcodeI32Ne,
		wasm.OpcodeI32LtS, wasm.OpcodeI32LtU, wasm.OpcodeI32GtS, wasm.OpcodeI32GtU,
		wasm.OpcodeI32LeS, wasm.OpcodeI32LeU, wasm.OpcodeI32GeS, wasm.OpcodeI32GeU:
		return c.execI32Compare(op.Code)

	case wasm.OpcodeI64Eqz:
		return c.execI64Eqz(op.Code)
	case wasm.OpcodeI64Eq, wasm.OpcodeI64Ne,
		wasm.OpcodeI64LtS, wasm.OpcodeI64LtU, wasm.OpcodeI64GtS, wasm.OpcodeI64GtU,
		wasm.OpcodeI64LeS, wasm.OpcodeI64LeU, wasm.OpcodeI64GeS, wasm.OpcodeI64GeU:
		return c.execI64Compare(op.Code)

	case wasm.OpcodeF32Eq, wasm.OpcodeF32Ne, wasm.OpcodeF32Lt, wasm.OpcodeF32Gt,
		wasm.OpcodeF32Le, wasm.OpcodeF32Ge:
		return c.execF32Compare(op.Code)
	case wasm.OpcodeF64Eq, wasm.OpcodeF64Ne, wasm.OpcodeF64Lt, wasm.OpcodeF64Gt,
		wasm.OpcodeF64Le, wasm.OpcodeF64Ge:
		return c.execF64Compare(op.Code)

	case wasm.OpcodeI32Clz, wasm.OpcodeI32Ctz, wasm.OpcodeI32Popcnt:
		return c.execI32Unary(op.Code)
	case wasm.OpcodeI32Add, wasm.OpcodeI32Sub, wasm.OpcodeI32Mul,
		wasm.OpcodeI32DivS, wasm.OpcodeI32DivU, wasm.OpcodeI32RemS, wasm.OpcodeI32RemU,
		wasm.OpcodeI32And, wasm.OpcodeI32Or, wasm.OpcodeI32Xor,
		wasm.OpcodeI32Shl, wasm.OpcodeI32ShrS, wasm.OpcodeI32ShrU,
		wasm.OpcodeI32Rotl, wasm.OpcodeI32Rotr:
		return c.execI32Binary(op.Code)

	case wasm.OpcodeI64Clz, wasm.OpcodeI64Ctz, wasm.OpcodeI64Popcnt:
		return c.execI64Unary(op.Code)
	case wasm.OpcodeI64Add, wasm.OpcodeI64Sub, wasm.OpcodeI64Mul,
		wasm.OpcodeI64DivS, wasm.OpcodeI64DivU, wasm.OpcodeI64RemS, wasm.OpcodeI64RemU,
		wasm.OpcodeI64And, wasm.OpcodeI64Or, wasm.OpcodeI64Xor,
		wasm.OpcodeI64Shl, wasm.OpcodeI64ShrS, wasm.OpcodeI64ShrU,
		wasm.OpcodeI64Rotl, wasm.OpcodeI64Rotr:
		return c.execI64Binary(op.Code)

	case wasm.OpcodeF32Abs, wasm.OpcodeF32Neg, wasm.OpcodeF32Ceil, wasm.OpcodeF32Floor,
		wasm.OpcodeF32Trunc, wasm.OpcodeF32Nearest, wasm.OpcodeF32Sqrt:
		return c.execF32Unary(op.Code)
	case wasm.OpcodeF32Add, wasm.OpcodeF32Sub, wasm.OpcodeF32Mul, wasm.OpcodeF32Div,
		wasm.OpcodeF32Min, wasm.OpcodeF32Max, wasm.OpcodeF32Copysign:
		return c.execF32Binary(op.Code)

	case wasm.OpcodeF64Abs, wasm.OpcodeF64Neg, wasm.OpcodeF64Ceil, wasm.OpcodeF64Floor,
		wasm.OpcodeF64Trunc, wasm.OpcodeF64Nearest, wasm.OpcodeF64Sqrt:
		return c.execF64Unary(op.Code)
	case wasm.OpcodeF64Add, wasm.OpcodeF64Sub, wasm.OpcodeF64Mul, wasm.OpcodeF64Div,
		wasm.OpcodeF64Min, wasm.OpcodeF64Max, wasm.OpcodeF64Copysign:
		return c.execF64Binary(op.Code)

	case wasm.OpcodeI32WrapI64,
		wasm.OpcodeI32TruncF32S, wasm.OpcodeI32TruncF32U, wasm.OpcodeI32TruncF64S, wasm.OpcodeI32TruncF64U,
		wasm.OpcodeI64ExtendI32S, wasm.OpcodeI64ExtendI32U,
		wasm.OpcodeI64TruncF32S, wasm.OpcodeI64TruncF32U, wasm.OpcodeI64TruncF64S, wasm.OpcodeI64TruncF64U,
		wasm.OpcodeF32ConvertI32S, wasm.OpcodeF32ConvertI32U, wasm.OpcodeF32ConvertI64S, wasm.OpcodeF32ConvertI64U,
		wasm.OpcodeF32DemoteF64,
		wasm.OpcodeF64ConvertI32S, wasm.OpcodeF64ConvertI32U, wasm.OpcodeF64ConvertI64S, wasm.OpcodeF64ConvertI64U,
		wasm.OpcodeF64PromoteF32:
		return c.execConversion(op.Code)

	case wasm.OpcodeI32ReinterpretF32, wasm.OpcodeI64ReinterpretF64,
		wasm.OpcodeF32ReinterpretI32, wasm.OpcodeF64ReinterpretI64:
		return c.execReinterpret(op.Code)

	case wasm.OpcodeI32Load, wasm.OpcodeI64Load, wasm.OpcodeF32Load, wasm.OpcodeF64Load,
		wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
		wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
		wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U:
		return c.execLoad(op)

	case wasm.OpcodeI32Store, wasm.OpcodeI64Store, wasm.OpcodeF32Store, wasm.OpcodeF64Store,
		wasm.OpcodeI32Store8, wasm.OpcodeI32Store16, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16,
		wasm.OpcodeI64Store32:
		return c.execStore(op)

	case wasm.OpcodeMemorySize:
		c.pushI32(int32(c.Mem.PageCount()))
		return nil
	case wasm.OpcodeMemoryGrow:
		delta, err := c.popI32(op.Code)
		if err != nil {
			return err
		}
		old, ok := c.Mem.Grow(uint32(delta))
		if !ok {
			c.pushI32(-1)
			return nil
		}
		c.pushI32(int32(old))
		return nil

	default:
		// Block/Loop/If/Else/End/Br/BrIf/BrTable/Return/Call/CallIndirect/
		// Drop/Select/LocalGet/LocalSet/LocalTee/GlobalGet/GlobalSet all
		// require frame state (locals, globals, a call stack, or a
		// control-flow label stack) that Context does not hold. Per
		// spec's evaluator scope, this core rejects them rather than
		// silently no-opping.
		return &wasm.RuntimeError{Kind: wasm.RuntimeUnimpl, Op: op.Code}
	}
}

func (c *Context) execI32Eqz(op wasm.Opcode) error {
	v, err := c.popI32(op)
	if err != nil {
		return err
	}
	c.pushBool(v == 0)
	return nil
}

func (c *Context) execI32Compare(op wasm.Opcode) error {
	v2, err := c.popI32(op)
	if err != nil {
		return err
	}
	v1, err := c.popI32(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeI32Eq:
		c.pushBool(v1 == v2)
	case wasm.OpcodeI32Ne:
		c.pushBool(v1 != v2)
	case wasm.OpcodeI32LtS:
		c.pushBool(v1 < v2)
	case wasm.OpcodeI32LtU:
		c.pushBool(uint32(v1) < uint32(v2))
	case wasm.OpcodeI32GtS:
		c.pushBool(v1 > v2)
	case wasm.OpcodeI32GtU:
		c.pushBool(uint32(v1) > uint32(v2))
	case wasm.OpcodeI32LeS:
		c.pushBool(v1 <= v2)
	case wasm.OpcodeI32LeU:
		c.pushBool(uint32(v1) <= uint32(v2))
	case wasm.OpcodeI32GeS:
		c.pushBool(v1 >= v2)
	case wasm.OpcodeI32GeU:
		c.pushBool(uint32(v1) >= uint32(v2))
	}
	return nil
}

func (c *Context) execI64Eqz(op wasm.Opcode) error {
	v, err := c.popI64(op)
	if err != nil {
		return err
	}
	c.pushBool(v == 0)
	return nil
}

func (c *Context) execI64Compare(op wasm.Opcode) error {
	v2, err := c.popI64(op)
	if err != nil {
		return err
	}
	v1, err := c.popI64(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeI64Eq:
		c.pushBool(v1 == v2)
	case wasm.OpcodeI64Ne:
		c.pushBool(v1 != v2)
	case wasm.OpcodeI64LtS:
		c.pushBool(v1 < v2)
	case wasm.OpcodeI64LtU:
		c.pushBool(uint64(v1) < uint64(v2))
	case wasm.OpcodeI64GtS:
		c.pushBool(v1 > v2)
	case wasm.OpcodeI64GtU:
		c.pushBool(uint64(v1) > uint64(v2))
	case wasm.OpcodeI64LeS:
		c.pushBool(v1 <= v2)
	case wasm.OpcodeI64LeU:
		c.pushBool(uint64(v1) <= uint64(v2))
	case wasm.OpcodeI64GeS:
		c.pushBool(v1 >= v2)
	case wasm.OpcodeI64GeU:
		c.pushBool(uint64(v1) >= uint64(v2))
	}
	return nil
}

func (c *Context) execF32Compare(op wasm.Opcode) error {
	v2, err := c.popF32(op)
	if err != nil {
		return err
	}
	v1, err := c.popF32(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeF32Eq:
		c.pushBool(v1 == v2)
	case wasm.OpcodeF32Ne:
		c.pushBool(v1 != v2)
	case wasm.OpcodeF32Lt:
		c.pushBool(v1 < v2)
	case wasm.OpcodeF32Gt:
		c.pushBool(v1 > v2)
	case wasm.OpcodeF32Le:
		c.pushBool(v1 <= v2)
	case wasm.OpcodeF32Ge:
		c.pushBool(v1 >= v2)
	}
	return nil
}

func (c *Context) execF64Compare(op wasm.Opcode) error {
	v2, err := c.popF64(op)
	if err != nil {
		return err
	}
	v1, err := c.popF64(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeF64Eq:
		c.pushBool(v1 == v2)
	case wasm.OpcodeF64Ne:
		c.pushBool(v1 != v2)
	case wasm.OpcodeF64Lt:
		c.pushBool(v1 < v2)
	case wasm.OpcodeF64Gt:
		c.pushBool(v1 > v2)
	case wasm.OpcodeF64Le:
		c.pushBool(v1 <= v2)
	case wasm.OpcodeF64Ge:
		c.pushBool(v1 >= v2)
	}
	return nil
}

func (c *Context) execI32Unary(op wasm.Opcode) error {
	v, err := c.popI32(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeI32Clz:
		c.pushI32(int32(bits.LeadingZeros32(uint32(v))))
	case wasm.OpcodeI32Ctz:
		c.pushI32(int32(bits.TrailingZeros32(uint32(v))))
	case wasm.OpcodeI32Popcnt:
		c.pushI32(int32(bits.OnesCount32(uint32(v))))
	}
	return nil
}

func (c *Context) execI32Binary(op wasm.Opcode) error {
	v2, err := c.popI32(op)
	if err != nil {
		return err
	}
	v1, err := c.popI32(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeI32Add:
		c.pushI32(v1 + v2)
	case wasm.OpcodeI32Sub:
		c.pushI32(v1 - v2)
	case wasm.OpcodeI32Mul:
		c.pushI32(v1 * v2)
	case wasm.OpcodeI32DivS:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		if v1 == math.MinInt32 && v2 == -1 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI32(v1 / v2)
	case wasm.OpcodeI32DivU:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI32(int32(uint32(v1) / uint32(v2)))
	case wasm.OpcodeI32RemS:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI32(v1 % v2)
	case wasm.OpcodeI32RemU:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI32(int32(uint32(v1) % uint32(v2)))
	case wasm.OpcodeI32And:
		c.pushI32(v1 & v2)
	case wasm.OpcodeI32Or:
		c.pushI32(v1 | v2)
	case wasm.OpcodeI32Xor:
		c.pushI32(v1 ^ v2)
	case wasm.OpcodeI32Shl:
		c.pushI32(v1 << (uint32(v2) % 32))
	case wasm.OpcodeI32ShrS:
		c.pushI32(v1 >> (uint32(v2) % 32))
	case wasm.OpcodeI32ShrU:
		c.pushI32(int32(uint32(v1) >> (uint32(v2) % 32)))
	case wasm.OpcodeI32Rotl:
		c.pushI32(int32(bits.RotateLeft32(uint32(v1), int(v2))))
	case wasm.OpcodeI32Rotr:
		c.pushI32(int32(bits.RotateLeft32(uint32(v1), -int(v2))))
	}
	return nil
}

func (c *Context) execI64Unary(op wasm.Opcode) error {
	v, err := c.popI64(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeI64Clz:
		c.pushI64(int64(bits.LeadingZeros64(uint64(v))))
	case wasm.OpcodeI64Ctz:
		c.pushI64(int64(bits.TrailingZeros64(uint64(v))))
	case wasm.OpcodeI64Popcnt:
		c.pushI64(int64(bits.OnesCount64(uint64(v))))
	}
	return nil
}

func (c *Context) execI64Binary(op wasm.Opcode) error {
	v2, err := c.popI64(op)
	if err != nil {
		return err
	}
	v1, err := c.popI64(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeI64Add:
		c.pushI64(v1 + v2)
	case wasm.OpcodeI64Sub:
		c.pushI64(v1 - v2)
	case wasm.OpcodeI64Mul:
		c.pushI64(v1 * v2)
	case wasm.OpcodeI64DivS:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		if v1 == math.MinInt64 && v2 == -1 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI64(v1 / v2)
	case wasm.OpcodeI64DivU:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI64(int64(uint64(v1) / uint64(v2)))
	case wasm.OpcodeI64RemS:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI64(v1 % v2)
	case wasm.OpcodeI64RemU:
		if v2 == 0 {
			return &wasm.RuntimeError{Kind: wasm.DivideByZero, Op: op}
		}
		c.pushI64(int64(uint64(v1) % uint64(v2)))
	case wasm.OpcodeI64And:
		c.pushI64(v1 & v2)
	case wasm.OpcodeI64Or:
		c.pushI64(v1 | v2)
	case wasm.OpcodeI64Xor:
		c.pushI64(v1 ^ v2)
	case wasm.OpcodeI64Shl:
		c.pushI64(v1 << (uint64(v2) % 64))
	case wasm.OpcodeI64ShrS:
		c.pushI64(v1 >> (uint64(v2) % 64))
	case wasm.OpcodeI64ShrU:
		c.pushI64(int64(uint64(v1) >> (uint64(v2) % 64)))
	case wasm.OpcodeI64Rotl:
		c.pushI64(int64(bits.RotateLeft64(uint64(v1), int(v2))))
	case wasm.OpcodeI64Rotr:
		c.pushI64(int64(bits.RotateLeft64(uint64(v1), -int(v2))))
	}
	return nil
}

func (c *Context) execF32Unary(op wasm.Opcode) error {
	v, err := c.popF32(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeF32Abs:
		c.pushF32(math.Float32frombits(math.Float32bits(v) &^ (1 << 31)))
	case wasm.OpcodeF32Neg:
		c.pushF32(-v)
	case wasm.OpcodeF32Ceil:
		c.pushF32(float32(math.Ceil(float64(v))))
	case wasm.OpcodeF32Floor:
		c.pushF32(float32(math.Floor(float64(v))))
	case wasm.OpcodeF32Trunc:
		c.pushF32(float32(math.Trunc(float64(v))))
	case wasm.OpcodeF32Nearest:
		c.pushF32(moremath.WasmCompatNearestF32(v))
	case wasm.OpcodeF32Sqrt:
		c.pushF32(float32(math.Sqrt(float64(v))))
	}
	return nil
}

func (c *Context) execF32Binary(op wasm.Opcode) error {
	v2, err := c.popF32(op)
	if err != nil {
		return err
	}
	v1, err := c.popF32(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeF32Add:
		c.pushF32(v1 + v2)
	case wasm.OpcodeF32Sub:
		c.pushF32(v1 - v2)
	case wasm.OpcodeF32Mul:
		c.pushF32(v1 * v2)
	case wasm.OpcodeF32Div:
		c.pushF32(v1 / v2)
	case wasm.OpcodeF32Min:
		c.pushF32(float32(moremath.WasmCompatMin(float64(v1), float64(v2))))
	case wasm.OpcodeF32Max:
		c.pushF32(float32(moremath.WasmCompatMax(float64(v1), float64(v2))))
	case wasm.OpcodeF32Copysign:
		const signbit = uint32(1) << 31
		b1, b2 := math.Float32bits(v1), math.Float32bits(v2)
		c.pushF32(math.Float32frombits(b1&^signbit | b2&signbit))
	}
	return nil
}

func (c *Context) execF64Unary(op wasm.Opcode) error {
	v, err := c.popF64(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeF64Abs:
		c.pushF64(math.Float64frombits(math.Float64bits(v) &^ (uint64(1) << 63)))
	case wasm.OpcodeF64Neg:
		c.pushF64(-v)
	case wasm.OpcodeF64Ceil:
		c.pushF64(math.Ceil(v))
	case wasm.OpcodeF64Floor:
		c.pushF64(math.Floor(v))
	case wasm.OpcodeF64Trunc:
		c.pushF64(math.Trunc(v))
	case wasm.OpcodeF64Nearest:
		c.pushF64(moremath.WasmCompatNearestF64(v))
	case wasm.OpcodeF64Sqrt:
		c.pushF64(math.Sqrt(v))
	}
	return nil
}

func (c *Context) execF64Binary(op wasm.Opcode) error {
	v2, err := c.popF64(op)
	if err != nil {
		return err
	}
	v1, err := c.popF64(op)
	if err != nil {
		return err
	}
	switch op {
	case wasm.OpcodeF64Add:
		c.pushF64(v1 + v2)
	case wasm.OpcodeF64Sub:
		c.pushF64(v1 - v2)
	case wasm.OpcodeF64Mul:
		c.pushF64(v1 * v2)
	case wasm.OpcodeF64Div:
		c.pushF64(v1 / v2)
	case wasm.OpcodeF64Min:
		c.pushF64(moremath.WasmCompatMin(v1, v2))
	case wasm.OpcodeF64Max:
		c.pushF64(moremath.WasmCompatMax(v1, v2))
	case wasm.OpcodeF64Copysign:
		const signbit = uint64(1) << 63
		b1, b2 := math.Float64bits(v1), math.Float64bits(v2)
		c.pushF64(math.Float64frombits(b1&^signbit | b2&signbit))
	}
	return nil
}
