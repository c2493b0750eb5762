package interpreter

import (
	"math"

	"github.com/wazcore/wazcore/wasm"
)

// execConversion implements the numeric conversion instructions: wrap,
// extend, the float<->int families, and the float width changes.
// Truncating conversions trap on NaN and on any value outside the
// destination's range, per the WebAssembly spec's trunc_sat-free trapping
// semantics — performing the truncation without these checks is unsound.
func (c *Context) execConversion(op wasm.Opcode) error {
	switch op {
	case wasm.OpcodeI32WrapI64:
		v, err := c.popI64(op)
		if err != nil {
			return err
		}
		c.pushI32(int32(v))
		return nil

	case wasm.OpcodeI64ExtendI32S:
		v, err := c.popI32(op)
		if err != nil {
			return err
		}
		c.pushI64(int64(v))
		return nil
	case wasm.OpcodeI64ExtendI32U:
		v, err := c.popI32(op)
		if err != nil {
			return err
		}
		c.pushI64(int64(uint32(v)))
		return nil

	case wasm.OpcodeI32TruncF32S:
		v, err := c.popF32(op)
		if err != nil {
			return err
		}
		r, err := truncToInt(float64(v), math.MinInt32, math.MaxInt32, op)
		if err != nil {
			return err
		}
		c.pushI32(int32(r))
		return nil
	case wasm.OpcodeI32TruncF32U:
		v, err := c.popF32(op)
		if err != nil {
			return err
		}
		r, err := truncToInt(float64(v), 0, math.MaxUint32, op)
		if err != nil {
			return err
		}
		c.pushI32(int32(uint32(r)))
		return nil
	case wasm.OpcodeI32TruncF64S:
		v, err := c.popF64(op)
		if err != nil {
			return err
		}
		r, err := truncToInt(v, math.MinInt32, math.MaxInt32, op)
		if err != nil {
			return err
		}
		c.pushI32(int32(r))
		return nil
	case wasm.OpcodeI32TruncF64U:
		v, err := c.popF64(op)
		if err != nil {
			return err
		}
		r, err := truncToInt(v, 0, math.MaxUint32, op)
		if err != nil {
			return err
		}
		c.pushI32(int32(uint32(r)))
		return nil

	case wasm.OpcodeI64TruncF32S:
		v, err := c.popF32(op)
		if err != nil {
			return err
		}
		return c.pushTruncI64(float64(v), math.MinInt64, math.MaxInt64, false, op)
	case wasm.OpcodeI64TruncF32U:
		v, err := c.popF32(op)
		if err != nil {
			return err
		}
		return c.pushTruncI64(float64(v), 0, math.MaxUint64, true, op)
	case wasm.OpcodeI64TruncF64S:
		v, err := c.popF64(op)
		if err != nil {
			return err
		}
		return c.pushTruncI64(v, math.MinInt64, math.MaxInt64, false, op)
	case wasm.OpcodeI64TruncF64U:
		v, err := c.popF64(op)
		if err != nil {
			return err
		}
		return c.pushTruncI64(v, 0, math.MaxUint64, true, op)

	case wasm.OpcodeF32ConvertI32S:
		v, err := c.popI32(op)
		if err != nil {
			return err
		}
		c.pushF32(float32(v))
		return nil
	case wasm.OpcodeF32ConvertI32U:
		v, err := c.popI32(op)
		if err != nil {
			return err
		}
		c.pushF32(float32(uint32(v)))
		return nil
	case wasm.OpcodeF32ConvertI64S:
		v, err := c.popI64(op)
		if err != nil {
			return err
		}
		c.pushF32(float32(v))
		return nil
	case wasm.OpcodeF32ConvertI64U:
		v, err := c.popI64(op)
		if err != nil {
			return err
		}
		c.pushF32(float32(uint64(v)))
		return nil
	case wasm.OpcodeF32DemoteF64:
		v, err := c.popF64(op)
		if err != nil {
			return err
		}
		c.pushF32(float32(v))
		return nil

	case wasm.OpcodeF64ConvertI32S:
		v, err := c.popI32(op)
		if err != nil {
			return err
		}
		c.pushF64(float64(v))
		return nil
	case wasm.OpcodeF64ConvertI32U:
		v, err := c.popI32(op)
		if err != nil {
			return err
		}
		c.pushF64(float64(uint32(v)))
		return nil
	case wasm.OpcodeF64ConvertI64S:
		v, err := c.popI64(op)
		if err != nil {
			return err
		}
		c.pushF64(float64(v))
		return nil
	case wasm.OpcodeF64ConvertI64U:
		v, err := c.popI64(op)
		if err != nil {
			return err
		}
		c.pushF64(float64(uint64(v)))
		return nil
	case wasm.OpcodeF64PromoteF32:
		v, err := c.popF32(op)
		if err != nil {
			return err
		}
		c.pushF64(float64(v))
		return nil
	}
	return &wasm.RuntimeError{Kind: wasm.RuntimeUnimpl, Op: op}
}

// truncToInt truncates f toward zero and validates it against [lo, hi]
// before the caller narrows it to the destination width. It's shared by
// every i32 truncating conversion; i64's conversions need wider bounds
// than float64 can represent exactly so they're handled by
// pushTruncI64 instead.
func truncToInt(f float64, lo, hi float64, op wasm.Opcode) (float64, error) {
	t := math.Trunc(f)
	if math.IsNaN(t) {
		return 0, &wasm.RuntimeError{Kind: wasm.InvalidConversion, Op: op}
	}
	if t < lo || t > hi {
		return 0, &wasm.RuntimeError{Kind: wasm.InvalidConversion, Op: op}
	}
	return t, nil
}

// pushTruncI64 handles the i64 truncating conversions, where
// math.MaxInt64 and math.MaxUint64 both round up when rounded to the
// nearest float64, so the upper-bound comparison must be strict (>=)
// rather than (>) to correctly reject values at the boundary.
func (c *Context) pushTruncI64(f float64, lo, hi float64, unsigned bool, op wasm.Opcode) error {
	t := math.Trunc(f)
	if math.IsNaN(t) {
		return &wasm.RuntimeError{Kind: wasm.InvalidConversion, Op: op}
	}
	if unsigned {
		if t < 0 || t >= hi {
			return &wasm.RuntimeError{Kind: wasm.InvalidConversion, Op: op}
		}
		c.pushI64(int64(uint64(t)))
		return nil
	}
	if t < lo || t >= hi {
		return &wasm.RuntimeError{Kind: wasm.InvalidConversion, Op: op}
	}
	c.pushI64(int64(t))
	return nil
}

func (c *Context) execReinterpret(op wasm.Opcode) error {
	switch op {
	case wasm.OpcodeI32ReinterpretF32:
		v, err := c.popF32(op)
		if err != nil {
			return err
		}
		c.pushI32(int32(math.Float32bits(v)))
	case wasm.OpcodeI64ReinterpretF64:
		v, err := c.popF64(op)
		if err != nil {
			return err
		}
		c.pushI64(int64(math.Float64bits(v)))
	case wasm.OpcodeF32ReinterpretI32:
		v, err := c.popI32(op)
		if err != nil {
			return err
		}
		c.pushF32(math.Float32frombits(uint32(v)))
	case wasm.OpcodeF64ReinterpretI64:
		v, err := c.popI64(op)
		if err != nil {
			return err
		}
		c.pushF64(math.Float64frombits(uint64(v)))
	}
	return nil
}

// execLoad implements every load instruction: the effective address is a
// popped i32 base plus the immediate's static offset, as the WebAssembly
// spec's memarg addressing defines it, and the load variant selects the
// access width and sign/zero extension applied before the canonical-width
// result is pushed.
func (c *Context) execLoad(op wasm.Op) error {
	addr, err := effectiveAddress(&c.Stack, op.Memarg, op.Code)
	if err != nil {
		return err
	}
	fault := &wasm.RuntimeError{Kind: wasm.MemoryFault, Op: op.Code}

	switch op.Code {
	case wasm.OpcodeI32Load:
		v, ok := c.Mem.ReadUint32Le(addr)
		if !ok {
			return fault
		}
		c.pushI32(int32(v))
	case wasm.OpcodeI64Load:
		v, ok := c.Mem.ReadUint64Le(addr)
		if !ok {
			return fault
		}
		c.pushI64(int64(v))
	case wasm.OpcodeF32Load:
		v, ok := c.Mem.ReadUint32Le(addr)
		if !ok {
			return fault
		}
		c.pushF32(math.Float32frombits(v))
	case wasm.OpcodeF64Load:
		v, ok := c.Mem.ReadUint64Le(addr)
		if !ok {
			return fault
		}
		c.pushF64(math.Float64frombits(v))
	case wasm.OpcodeI32Load8S:
		v, ok := c.Mem.ReadByte(addr)
		if !ok {
			return fault
		}
		c.pushI32(int32(int8(v)))
	case wasm.OpcodeI32Load8U:
		v, ok := c.Mem.ReadByte(addr)
		if !ok {
			return fault
		}
		c.pushI32(int32(v))
	case wasm.OpcodeI32Load16S:
		v, ok := c.Mem.ReadUint16Le(addr)
		if !ok {
			return fault
		}
		c.pushI32(int32(int16(v)))
	case wasm.OpcodeI32Load16U:
		v, ok := c.Mem.ReadUint16Le(addr)
		if !ok {
			return fault
		}
		c.pushI32(int32(v))
	case wasm.OpcodeI64Load8S:
		v, ok := c.Mem.ReadByte(addr)
		if !ok {
			return fault
		}
		c.pushI64(int64(int8(v)))
	case wasm.OpcodeI64Load8U:
		v, ok := c.Mem.ReadByte(addr)
		if !ok {
			return fault
		}
		c.pushI64(int64(v))
	case wasm.OpcodeI64Load16S:
		v, ok := c.Mem.ReadUint16Le(addr)
		if !ok {
			return fault
		}
		c.pushI64(int64(int16(v)))
	case wasm.OpcodeI64Load16U:
		v, ok := c.Mem.ReadUint16Le(addr)
		if !ok {
			return fault
		}
		c.pushI64(int64(v))
	case wasm.OpcodeI64Load32S:
		v, ok := c.Mem.ReadUint32Le(addr)
		if !ok {
			return fault
		}
		c.pushI64(int64(int32(v)))
	case wasm.OpcodeI64Load32U:
		v, ok := c.Mem.ReadUint32Le(addr)
		if !ok {
			return fault
		}
		c.pushI64(int64(v))
	}
	return nil
}

// execStore implements every store instruction: pop the value, then the
// effective address (address is pushed before value by every Wasm store,
// so it's popped second), then write the low bytes of the value.
func (c *Context) execStore(op wasm.Op) error {
	var raw uint64
	switch op.Code {
	case wasm.OpcodeI32Store, wasm.OpcodeI32Store8, wasm.OpcodeI32Store16:
		v, err := c.popI32(op.Code)
		if err != nil {
			return err
		}
		raw = uint64(uint32(v))
	case wasm.OpcodeI64Store, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16, wasm.OpcodeI64Store32:
		v, err := c.popI64(op.Code)
		if err != nil {
			return err
		}
		raw = uint64(v)
	case wasm.OpcodeF32Store:
		v, err := c.popF32(op.Code)
		if err != nil {
			return err
		}
		raw = uint64(math.Float32bits(v))
	case wasm.OpcodeF64Store:
		v, err := c.popF64(op.Code)
		if err != nil {
			return err
		}
		raw = math.Float64bits(v)
	}

	addr, err := effectiveAddress(&c.Stack, op.Memarg, op.Code)
	if err != nil {
		return err
	}
	fault := &wasm.RuntimeError{Kind: wasm.MemoryFault, Op: op.Code}

	var ok bool
	switch op.Code {
	case wasm.OpcodeI32Store, wasm.OpcodeF32Store:
		ok = c.Mem.WriteUint32Le(addr, uint32(raw))
	case wasm.OpcodeI64Store, wasm.OpcodeF64Store:
		ok = c.Mem.WriteUint64Le(addr, raw)
	case wasm.OpcodeI32Store8, wasm.OpcodeI64Store8:
		ok = c.Mem.WriteByte(addr, byte(raw))
	case wasm.OpcodeI32Store16, wasm.OpcodeI64Store16:
		ok = c.Mem.WriteUint16Le(addr, uint16(raw))
	case wasm.OpcodeI64Store32:
		ok = c.Mem.WriteUint32Le(addr, uint32(raw))
	}
	if !ok {
		return fault
	}
	return nil
}
