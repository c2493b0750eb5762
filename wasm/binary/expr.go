package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wazcore/wazcore/wasm"
	"github.com/wazcore/wazcore/wasm/leb128"
)

// decodeOp reads one instruction: an opcode byte plus whatever operand
// shape that opcode requires. The switch below is a dense opcode dispatch,
// grouped by operand shape rather than opcode value since Go has no
// array-of-function-pointer literal as readable as a grouped switch.
func decodeOp(r *bytes.Reader) (wasm.Op, error) {
	code, err := r.ReadByte()
	if err != nil {
		return wasm.Op{}, err // io.EOF bubbles to the caller, who knows whether that's expected.
	}

	switch code {
	case wasm.OpcodeUnreachable, wasm.OpcodeNop, wasm.OpcodeElse, wasm.OpcodeEnd,
		wasm.OpcodeReturn, wasm.OpcodeDrop, wasm.OpcodeSelect:
		return wasm.Op{Code: code}, nil

	case wasm.OpcodeBlock, wasm.OpcodeLoop, wasm.OpcodeIf:
		bt, err := decodeBlockType(r)
		if err != nil {
			return wasm.Op{}, err
		}
		return wasm.Op{Code: code, Block: bt}, nil

	case wasm.OpcodeBr, wasm.OpcodeBrIf, wasm.OpcodeCall,
		wasm.OpcodeLocalGet, wasm.OpcodeLocalSet, wasm.OpcodeLocalTee,
		wasm.OpcodeGlobalGet, wasm.OpcodeGlobalSet:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.BadVarInt, "op index", err)
		}
		return wasm.Op{Code: code, Idx: idx}, nil

	case wasm.OpcodeBrTable:
		bt, err := decodeBranchTable(r)
		if err != nil {
			return wasm.Op{}, err
		}
		return wasm.Op{Code: code, Table: bt}, nil

	case wasm.OpcodeCallIndirect:
		idx, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.BadVarInt, "call_indirect type index", err)
		}
		reserved, _, err := leb128.DecodeVaru1(r)
		if err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.BadVarInt, "call_indirect reserved byte", err)
		}
		if reserved != 0 {
			return wasm.Op{}, wasm.NewCodecError(wasm.BadOpArgs, "call_indirect reserved byte", nil)
		}
		return wasm.Op{Code: code, Idx: idx}, nil

	case wasm.OpcodeMemorySize, wasm.OpcodeMemoryGrow:
		if _, _, err := leb128.DecodeVaru1(r); err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.BadVarInt, "memory size/grow reserved byte", err)
		}
		return wasm.Op{Code: code}, nil

	case wasm.OpcodeI32Load, wasm.OpcodeI64Load, wasm.OpcodeF32Load, wasm.OpcodeF64Load,
		wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U, wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
		wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
		wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U,
		wasm.OpcodeI32Store, wasm.OpcodeI64Store, wasm.OpcodeF32Store, wasm.OpcodeF64Store,
		wasm.OpcodeI32Store8, wasm.OpcodeI32Store16, wasm.OpcodeI64Store8, wasm.OpcodeI64Store16,
		wasm.OpcodeI64Store32:
		immed, err := decodeMemoryImmed(r)
		if err != nil {
			return wasm.Op{}, err
		}
		return wasm.Op{Code: code, Memarg: immed}, nil

	case wasm.OpcodeI32Const:
		v, _, err := leb128.DecodeInt32(r)
		if err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.BadVarInt, "i32.const", err)
		}
		return wasm.Op{Code: code, I32: v}, nil

	case wasm.OpcodeI64Const:
		v, _, err := leb128.DecodeInt64(r)
		if err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.BadVarInt, "i64.const", err)
		}
		return wasm.Op{Code: code, I64: v}, nil

	case wasm.OpcodeF32Const:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.Truncated, "f32.const", err)
		}
		return wasm.Op{Code: code, F32Bits: binary.LittleEndian.Uint32(buf[:])}, nil

	case wasm.OpcodeF64Const:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return wasm.Op{}, wasm.NewCodecError(wasm.Truncated, "f64.const", err)
		}
		return wasm.Op{Code: code, F64Bits: binary.LittleEndian.Uint64(buf[:])}, nil

	default:
		if isNoOperandOpcode(code) {
			return wasm.Op{Code: code}, nil
		}
		return wasm.Op{}, &wasm.CodecError{Kind: wasm.BadOpcode, Where: "opcode", Byte: code}
	}
}

// isNoOperandOpcode reports whether code is one of the comparison,
// numeric, conversion, or reinterpret instructions — every Wasm v1
// opcode that carries no immediate operand beyond its own byte.
func isNoOperandOpcode(code wasm.Opcode) bool {
	return code >= wasm.OpcodeI32Eqz && code <= wasm.OpcodeF64ReinterpretI64
}

func decodeMemoryImmed(r *bytes.Reader) (wasm.MemoryImmed, error) {
	align, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.MemoryImmed{}, wasm.NewCodecError(wasm.BadVarInt, "memory immediate align", err)
	}
	offset, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.MemoryImmed{}, wasm.NewCodecError(wasm.BadVarInt, "memory immediate offset", err)
	}
	return wasm.MemoryImmed{Align: align, Offset: offset}, nil
}

func decodeBranchTable(r *bytes.Reader) (wasm.BranchTable, error) {
	count, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.BranchTable{}, wasm.NewCodecError(wasm.BadVarInt, "br_table count", err)
	}
	targets := make([]uint32, count)
	for i := range targets {
		if targets[i], _, err = leb128.DecodeUint32(r); err != nil {
			return wasm.BranchTable{}, wasm.NewCodecError(wasm.BadVarInt, fmt.Sprintf("br_table target[%d]", i), err)
		}
	}
	def, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.BranchTable{}, wasm.NewCodecError(wasm.BadVarInt, "br_table default", err)
	}
	return wasm.BranchTable{Targets: targets, Default: def}, nil
}

// decodeInitExpr decodes a constant expression: a sequence of constant-
// producing Ops terminated by End, which is consumed but not stored.
func decodeInitExpr(r *bytes.Reader) (wasm.InitExpr, error) {
	var ops []wasm.Op
	for {
		op, err := decodeOp(r)
		if err != nil {
			return wasm.InitExpr{}, fmt.Errorf("init expr: %w", err)
		}
		if op.Code == wasm.OpcodeEnd {
			return wasm.InitExpr{Ops: ops}, nil
		}
		if !wasm.IsConstOp(op) {
			return wasm.InitExpr{}, wasm.NewCodecError(wasm.BadInitExpr, "init expr", nil)
		}
		ops = append(ops, op)
	}
}

// decodeFunctionBody reads a varu32 body length, carves a bounded
// sub-view of exactly that many bytes, then decodes the local declarations
// and instruction sequence from within that sub-view. The sub-view
// boundary is authoritative: the final Op must be End exactly when the
// sub-view is exhausted, regardless of any nested block structure.
func decodeFunctionBody(r *bytes.Reader) (wasm.FunctionBody, error) {
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.FunctionBody{}, wasm.NewCodecError(wasm.BadVarInt, "function body size", err)
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return wasm.FunctionBody{}, wasm.NewCodecError(wasm.Truncated, "function body", err)
	}
	sub := bytes.NewReader(raw)

	groupCount, _, err := leb128.DecodeUint32(sub)
	if err != nil {
		return wasm.FunctionBody{}, wasm.NewCodecError(wasm.BadVarInt, "local group count", err)
	}
	var locals []wasm.ValueType
	for i := uint32(0); i < groupCount; i++ {
		n, _, err := leb128.DecodeUint32(sub)
		if err != nil {
			return wasm.FunctionBody{}, wasm.NewCodecError(wasm.BadVarInt, fmt.Sprintf("local group[%d] count", i), err)
		}
		vt, err := decodeValueType(sub)
		if err != nil {
			return wasm.FunctionBody{}, fmt.Errorf("local group[%d] type: %w", i, err)
		}
		for j := uint32(0); j < n; j++ {
			locals = append(locals, vt)
		}
	}

	// The sub-view boundary is authoritative, not the first End: blocks,
	// loops, and ifs nest their own Ends inside the body, so only
	// exhausting the sub-view tells us we've reached the function's own
	// terminator.
	var ops []wasm.Op
	for sub.Len() > 0 {
		op, err := decodeOp(sub)
		if err != nil {
			return wasm.FunctionBody{}, fmt.Errorf("function body op: %w", err)
		}
		ops = append(ops, op)
	}
	if len(ops) == 0 || ops[len(ops)-1].Code != wasm.OpcodeEnd {
		return wasm.FunctionBody{}, wasm.NewCodecError(wasm.BadFunctionEnd, "function body", nil)
	}
	return wasm.FunctionBody{Locals: locals, Ops: ops}, nil
}
