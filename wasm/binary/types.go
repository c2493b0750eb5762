// Package binary decodes a WebAssembly 1.0 (20191205) binary module from a
// byte sequence into the structural representation defined by the wasm
// package. Every decode function threads a *bytes.Reader as its cursor,
// the same cursor type wazero itself uses throughout its binary decoder.
package binary

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/wazcore/wazcore/wasm"
	"github.com/wazcore/wazcore/wasm/leb128"
)

func decodeValueType(r *bytes.Reader) (wasm.ValueType, error) {
	b, _, err := leb128.DecodeVari7(r)
	if err != nil {
		return 0, wasm.NewCodecError(wasm.BadVarInt, "value type", err)
	}
	switch b {
	case -1:
		return wasm.ValueTypeI32, nil
	case -2:
		return wasm.ValueTypeI64, nil
	case -3:
		return wasm.ValueTypeF32, nil
	case -4:
		return wasm.ValueTypeF64, nil
	default:
		return 0, wasm.NewCodecError(wasm.BadType, "value type", nil)
	}
}

func decodeBlockType(r *bytes.Reader) (wasm.BlockType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return wasm.BlockType{}, wasm.NewCodecError(wasm.Truncated, "block type", err)
	}
	if b == 0x40 {
		return wasm.BlockType{Void: true}, nil
	}
	if err := r.UnreadByte(); err != nil {
		return wasm.BlockType{}, wasm.NewCodecError(wasm.Truncated, "block type", err)
	}
	vt, err := decodeValueType(r)
	if err != nil {
		return wasm.BlockType{}, err
	}
	return wasm.BlockType{ValType: vt}, nil
}

func decodeElementType(r *bytes.Reader) error {
	b, _, err := leb128.DecodeVari7(r)
	if err != nil {
		return wasm.NewCodecError(wasm.BadVarInt, "element type", err)
	}
	if b != -0x10 {
		return wasm.NewCodecError(wasm.BadType, "element type", nil)
	}
	return nil
}

func decodeFunctionType(r *bytes.Reader) (wasm.FunctionType, error) {
	form, err := r.ReadByte()
	if err != nil {
		return wasm.FunctionType{}, wasm.NewCodecError(wasm.Truncated, "function type form", err)
	}
	_ = form // not checked: Wasm always sets 0x60 here, per spec's codec notes.

	paramCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.FunctionType{}, wasm.NewCodecError(wasm.BadVarInt, "function type param count", err)
	}
	params := make([]wasm.ValueType, paramCount)
	for i := range params {
		if params[i], err = decodeValueType(r); err != nil {
			return wasm.FunctionType{}, fmt.Errorf("param[%d]: %w", i, err)
		}
	}

	retCount, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.FunctionType{}, wasm.NewCodecError(wasm.BadVarInt, "function type result count", err)
	}
	if retCount > 1 {
		return wasm.FunctionType{}, wasm.NewCodecError(wasm.BadType, "function type result count", nil)
	}
	ft := wasm.FunctionType{Params: params}
	if retCount == 1 {
		ret, err := decodeValueType(r)
		if err != nil {
			return wasm.FunctionType{}, fmt.Errorf("result: %w", err)
		}
		ft.Ret = &ret
	}
	return ft, nil
}

func decodeResizableLimits(r *bytes.Reader) (wasm.ResizableLimits, error) {
	flag, _, err := leb128.DecodeVaru1(r)
	if err != nil {
		return wasm.ResizableLimits{}, wasm.NewCodecError(wasm.BadVarInt, "limits flag", err)
	}
	min, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.ResizableLimits{}, wasm.NewCodecError(wasm.BadVarInt, "limits minimum", err)
	}
	limits := wasm.ResizableLimits{Min: min}
	if flag == 1 {
		max, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return wasm.ResizableLimits{}, wasm.NewCodecError(wasm.BadVarInt, "limits maximum", err)
		}
		limits.Max = &max
	}
	return limits, nil
}

func decodeTableType(r *bytes.Reader) (wasm.TableType, error) {
	if err := decodeElementType(r); err != nil {
		return wasm.TableType{}, err
	}
	limits, err := decodeResizableLimits(r)
	if err != nil {
		return wasm.TableType{}, err
	}
	return wasm.TableType{ElemType: wasm.ElementTypeFuncRef, Limits: limits}, nil
}

func decodeMemoryType(r *bytes.Reader) (wasm.MemoryType, error) {
	limits, err := decodeResizableLimits(r)
	if err != nil {
		return wasm.MemoryType{}, err
	}
	return wasm.MemoryType{Limits: limits}, nil
}

func decodeGlobalType(r *bytes.Reader) (wasm.GlobalType, error) {
	vt, err := decodeValueType(r)
	if err != nil {
		return wasm.GlobalType{}, err
	}
	mut, _, err := leb128.DecodeVaru1(r)
	if err != nil {
		return wasm.GlobalType{}, wasm.NewCodecError(wasm.BadVarInt, "global mutability", err)
	}
	return wasm.GlobalType{ValType: vt, Mutable: mut == 1}, nil
}

// readUTF8 reads a length-prefixed UTF-8 string.
func readUTF8(r *bytes.Reader, where string) (string, error) {
	n, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return "", wasm.NewCodecError(wasm.BadVarInt, where+" length", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wasm.NewCodecError(wasm.Truncated, where, err)
	}
	if !utf8.Valid(buf) {
		return "", wasm.NewCodecError(wasm.BadUTF8, where, nil)
	}
	return string(buf), nil
}
