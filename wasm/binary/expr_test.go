package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazcore/wazcore/wasm"
)

func TestDecodeOp_BadOpcode(t *testing.T) {
	_, err := decodeOp(bytes.NewReader([]byte{0xfc}))
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.BadOpcode, cerr.Kind)
	require.Equal(t, byte(0xfc), cerr.Byte)
}

func TestDecodeOp_LocalGetReadsIndex(t *testing.T) {
	op, err := decodeOp(bytes.NewReader([]byte{0x20, 0x02}))
	require.NoError(t, err)
	require.Equal(t, wasm.OpcodeLocalGet, op.Code)
	require.Equal(t, wasm.Index(2), op.Idx)
}

func TestDecodeOp_CallIndirectRejectsNonZeroReservedByte(t *testing.T) {
	_, err := decodeOp(bytes.NewReader([]byte{0x11, 0x00, 0x01}))
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.BadOpArgs, cerr.Kind)
}

func TestDecodeOp_I32StoreReadsMemoryImmed(t *testing.T) {
	op, err := decodeOp(bytes.NewReader([]byte{0x36, 0x02, 0x04}))
	require.NoError(t, err)
	require.Equal(t, wasm.OpcodeI32Store, op.Code)
	require.Equal(t, wasm.MemoryImmed{Align: 2, Offset: 4}, op.Memarg)
}

func TestDecodeOp_I32ConstIsSignExtended(t *testing.T) {
	op, err := decodeOp(bytes.NewReader([]byte{0x41, 0x7f})) // i32.const -1
	require.NoError(t, err)
	require.Equal(t, int32(-1), op.I32)
}

func TestDecodeInitExpr_RejectsNonConstOp(t *testing.T) {
	_, err := decodeInitExpr(bytes.NewReader([]byte{0x01, 0x0b})) // nop, end
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.BadInitExpr, cerr.Kind)
}

func TestDecodeInitExpr_I32Const(t *testing.T) {
	expr, err := decodeInitExpr(bytes.NewReader([]byte{0x41, 0x2a, 0x0b})) // i32.const 42, end
	require.NoError(t, err)
	require.Len(t, expr.Ops, 1)
	require.Equal(t, int32(42), expr.Ops[0].I32)
}

func TestDecodeFunctionBody_RequiresTrailingEnd(t *testing.T) {
	// body size=2, locals=0, then a single nop with no End.
	_, err := decodeFunctionBody(bytes.NewReader([]byte{0x02, 0x00, 0x01}))
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.BadFunctionEnd, cerr.Kind)
}

func TestDecodeFunctionBody_ExpandsLocalGroups(t *testing.T) {
	// size=4, 1 local group: 2 x i32, then End.
	body, err := decodeFunctionBody(bytes.NewReader([]byte{0x04, 0x01, 0x02, 0x7f, 0x0b}))
	require.NoError(t, err)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, body.Locals)
	require.Len(t, body.Ops, 1)
	require.Equal(t, wasm.OpcodeEnd, body.Ops[0].Code)
}
