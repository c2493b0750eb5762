package interpreter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazcore/wazcore/wasm"
)

func popI32(t *testing.T, c *Context) int32 {
	t.Helper()
	v, err := c.Stack.Pop()
	require.NoError(t, err)
	require.Equal(t, wasm.ValueTypeI32, v.Kind)
	return v.I32
}

func TestExecConstants(t *testing.T) {
	c := NewContext()
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeI32Const, I32: 42}))
	require.Equal(t, int32(42), popI32(t, c))

	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeF32Const, F32Bits: math.Float32bits(1.5)}))
	v, err := c.Stack.Pop()
	require.NoError(t, err)
	require.Equal(t, float32(1.5), v.F32)
}

func TestExecI32Add(t *testing.T) {
	c := NewContext()
	c.Stack.Push(I32Value(3))
	c.Stack.Push(I32Value(4))
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeI32Add}))
	require.Equal(t, int32(7), popI32(t, c))
}

func TestExecI32DivSTrapsOnZero(t *testing.T) {
	c := NewContext()
	c.Stack.Push(I32Value(10))
	c.Stack.Push(I32Value(0))
	err := c.Exec(wasm.Op{Code: wasm.OpcodeI32DivS})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.DivideByZero, rerr.Kind)
}

func TestExecI32DivSTrapsOnOverflow(t *testing.T) {
	c := NewContext()
	c.Stack.Push(I32Value(math.MinInt32))
	c.Stack.Push(I32Value(-1))
	err := c.Exec(wasm.Op{Code: wasm.OpcodeI32DivS})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.DivideByZero, rerr.Kind)
}

func TestExecShiftIsModuloWidth(t *testing.T) {
	c := NewContext()
	c.Stack.Push(I32Value(1))
	c.Stack.Push(I32Value(33)) // 33 % 32 == 1
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeI32Shl}))
	require.Equal(t, int32(2), popI32(t, c))
}

func TestExecStackUnderflow(t *testing.T) {
	c := NewContext()
	err := c.Exec(wasm.Op{Code: wasm.OpcodeI32Eqz})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.StackUnderflow, rerr.Kind)
}

func TestExecTypeFault(t *testing.T) {
	c := NewContext()
	c.Stack.Push(F32Value(1.0))
	err := c.Exec(wasm.Op{Code: wasm.OpcodeI32Eqz})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.TypeFault, rerr.Kind)
}

func TestExecUnreachable(t *testing.T) {
	c := NewContext()
	err := c.Exec(wasm.Op{Code: wasm.OpcodeUnreachable})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.Unreachable, rerr.Kind)
}

func TestExecControlFlowUnimplemented(t *testing.T) {
	c := NewContext()
	err := c.Exec(wasm.Op{Code: wasm.OpcodeBr})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.RuntimeUnimpl, rerr.Kind)
}

func TestExecMemoryStoreThenLoad(t *testing.T) {
	c := NewContext()
	// store: push address then value, per Wasm stack order.
	c.Stack.Push(I32Value(8))   // address
	c.Stack.Push(I32Value(256)) // value
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeI32Store, Memarg: wasm.MemoryImmed{Offset: 4}}))

	c.Stack.Push(I32Value(8)) // address
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeI32Load, Memarg: wasm.MemoryImmed{Offset: 4}}))
	require.Equal(t, int32(256), popI32(t, c))
}

func TestExecMemoryFaultOutOfRange(t *testing.T) {
	c := NewContext()
	c.Stack.Push(I32Value(0))
	err := c.Exec(wasm.Op{Code: wasm.OpcodeI32Load, Memarg: wasm.MemoryImmed{Offset: PageSize - 2}})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.MemoryFault, rerr.Kind)
}

func TestExecCurrentAndGrowMemory(t *testing.T) {
	c := NewContext()
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeMemorySize}))
	require.Equal(t, int32(1), popI32(t, c))

	c.Stack.Push(I32Value(2))
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeMemoryGrow}))
	require.Equal(t, int32(1), popI32(t, c)) // old page count

	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeMemorySize}))
	require.Equal(t, int32(3), popI32(t, c))
}

func TestExecTruncTrapsOnNaN(t *testing.T) {
	c := NewContext()
	c.Stack.Push(F32Value(float32(math.NaN())))
	err := c.Exec(wasm.Op{Code: wasm.OpcodeI32TruncF32S})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.InvalidConversion, rerr.Kind)
}

func TestExecTruncTrapsOnOutOfRange(t *testing.T) {
	c := NewContext()
	c.Stack.Push(F64Value(1e20))
	err := c.Exec(wasm.Op{Code: wasm.OpcodeI32TruncF64S})
	var rerr *wasm.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, wasm.InvalidConversion, rerr.Kind)
}

func TestExecFloatMinMaxNaNPropagation(t *testing.T) {
	c := NewContext()
	c.Stack.Push(F64Value(math.Inf(-1)))
	c.Stack.Push(F64Value(math.NaN()))
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeF64Min}))
	v, err := c.Stack.Pop()
	require.NoError(t, err)
	require.True(t, math.IsNaN(v.F64))
}

func TestExecReinterpretIsBitIdentical(t *testing.T) {
	c := NewContext()
	c.Stack.Push(F32Value(1.0))
	require.NoError(t, c.Exec(wasm.Op{Code: wasm.OpcodeI32ReinterpretF32}))
	require.Equal(t, int32(math.Float32bits(1.0)), popI32(t, c))
}
