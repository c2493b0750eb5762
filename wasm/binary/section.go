package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/wazcore/wazcore/wasm"
	"github.com/wazcore/wazcore/wasm/leb128"
)

// magic is "\0asm" and version is 1, both little-endian, per the Wasm 1.0
// binary module envelope.
const (
	wasmMagic   = 0x6d736100
	wasmVersion = uint32(1)
)

// DecodeModule decodes a complete WebAssembly 1.0 binary module from data.
// It consumes the entire input by decoding sections until none is left.
// Bytes after the last complete section are decoded as one more section
// header, so they fail the way that section would (for example
// wasm.Truncated, wasm.BadVarInt or wasm.Unimpl) rather than as
// wasm.TrailingData; wasm.TrailingData reports a section whose payload is
// longer than its contents.
func DecodeModule(data []byte) (*wasm.Module, error) {
	r := bytes.NewReader(data)

	var magicBuf, versionBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, wasm.NewCodecError(wasm.Truncated, "magic", err)
	}
	if binary.LittleEndian.Uint32(magicBuf[:]) != wasmMagic {
		return nil, wasm.NewCodecError(wasm.BadMagic, "module header", nil)
	}
	if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
		return nil, wasm.NewCodecError(wasm.Truncated, "version", err)
	}
	if binary.LittleEndian.Uint32(versionBuf[:]) != wasmVersion {
		return nil, wasm.NewCodecError(wasm.BadVersion, "module header", nil)
	}

	m := &Module{}
	for r.Len() > 0 {
		if err := m.decodeSection(r); err != nil {
			return nil, err
		}
	}
	return &m.Module, nil
}

// Module wraps wasm.Module while it's under construction so decodeSection
// methods can live next to the struct they populate instead of threading
// eleven return values through DecodeModule.
type Module struct {
	wasm.Module
}

func (m *Module) decodeSection(r *bytes.Reader) error {
	id, _, err := leb128.DecodeVaru7(r)
	if err != nil {
		return wasm.NewCodecError(wasm.BadVarInt, "section id", err)
	}
	size, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.NewCodecError(wasm.BadVarInt, "section size", err)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return wasm.NewCodecError(wasm.Truncated, "section payload", err)
	}
	sub := bytes.NewReader(payload)

	switch id {
	case wasm.SectionIDCustom:
		name, err := readUTF8(sub, "custom section name")
		if err != nil {
			return err
		}
		rest := make([]byte, sub.Len())
		if _, err := io.ReadFull(sub, rest); err != nil {
			return wasm.NewCodecError(wasm.Truncated, "custom section payload", err)
		}
		m.CustomSections = append(m.CustomSections, wasm.CustomSection{Name: name, Payload: rest})
		return nil
	case wasm.SectionIDType:
		m.TypeSection, err = decodeVector(sub, decodeFunctionType)
	case wasm.SectionIDImport:
		m.ImportSection, err = decodeVector(sub, decodeImport)
	case wasm.SectionIDFunction:
		m.FunctionSection, err = decodeVector(sub, func(r *bytes.Reader) (wasm.Index, error) {
			v, _, err := leb128.DecodeUint32(r)
			return v, err
		})
	case wasm.SectionIDTable:
		m.TableSection, err = decodeVector(sub, func(r *bytes.Reader) (wasm.Table, error) {
			t, err := decodeTableType(r)
			return wasm.Table{Type: t}, err
		})
	case wasm.SectionIDMemory:
		m.MemorySection, err = decodeVector(sub, func(r *bytes.Reader) (wasm.Memory, error) {
			t, err := decodeMemoryType(r)
			return wasm.Memory{Type: t}, err
		})
	case wasm.SectionIDGlobal:
		m.GlobalSection, err = decodeVector(sub, decodeGlobal)
	case wasm.SectionIDExport:
		m.ExportSection, err = decodeVector(sub, decodeExport)
	case wasm.SectionIDStart:
		idx, _, serr := leb128.DecodeUint32(sub)
		err = serr
		if err == nil {
			m.StartSection = &idx
		}
	case wasm.SectionIDElement:
		m.ElementSection, err = decodeVector(sub, decodeElementSegment)
	case wasm.SectionIDCode:
		var bodies []wasm.FunctionBody
		bodies, err = decodeVector(sub, decodeFunctionBody)
		m.CodeSection = bodies
	case wasm.SectionIDData:
		m.DataSection, err = decodeVector(sub, decodeDataSegment)
	default:
		return wasm.NewCodecError(wasm.Unimpl, fmt.Sprintf("section id %d", id), nil)
	}
	if err != nil {
		return err
	}
	if sub.Len() != 0 {
		return wasm.NewCodecError(wasm.TrailingData, fmt.Sprintf("section id %d", id), nil)
	}
	return nil
}

// decodeVector reads a varu32 element count followed by that many
// elements decoded with decodeElem, the count-prefixed-vector pattern
// shared by every section body.
func decodeVector[T any](r *bytes.Reader, decodeElem func(*bytes.Reader) (T, error)) ([]T, error) {
	n, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, wasm.NewCodecError(wasm.BadVarInt, "vector count", err)
	}
	result := make([]T, n)
	for i := range result {
		if result[i], err = decodeElem(r); err != nil {
			return nil, fmt.Errorf("element[%d]: %w", i, err)
		}
	}
	return result, nil
}

func decodeExternalKind(r *bytes.Reader) (wasm.ExternalKind, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, wasm.NewCodecError(wasm.Truncated, "external kind", err)
	}
	switch b {
	case wasm.ExternalKindFunc, wasm.ExternalKindTable, wasm.ExternalKindMemory, wasm.ExternalKindGlobal:
		return b, nil
	default:
		return 0, wasm.NewCodecError(wasm.BadType, "external kind", nil)
	}
}

func decodeImport(r *bytes.Reader) (wasm.Import, error) {
	mod, err := readUTF8(r, "import module")
	if err != nil {
		return wasm.Import{}, err
	}
	name, err := readUTF8(r, "import name")
	if err != nil {
		return wasm.Import{}, err
	}
	kind, err := decodeExternalKind(r)
	if err != nil {
		return wasm.Import{}, err
	}
	imp := wasm.Import{Module: mod, Name: name, Kind: kind}
	switch kind {
	case wasm.ExternalKindFunc:
		imp.DescFunc, _, err = leb128.DecodeUint32(r)
	case wasm.ExternalKindTable:
		imp.DescTable, err = decodeTableType(r)
	case wasm.ExternalKindMemory:
		imp.DescMem, err = decodeMemoryType(r)
	case wasm.ExternalKindGlobal:
		imp.DescGlobal, err = decodeGlobalType(r)
	}
	return imp, err
}

func decodeGlobal(r *bytes.Reader) (wasm.Global, error) {
	gt, err := decodeGlobalType(r)
	if err != nil {
		return wasm.Global{}, err
	}
	init, err := decodeInitExpr(r)
	if err != nil {
		return wasm.Global{}, err
	}
	return wasm.Global{Type: gt, Init: init}, nil
}

func decodeExport(r *bytes.Reader) (wasm.Export, error) {
	name, err := readUTF8(r, "export name")
	if err != nil {
		return wasm.Export{}, err
	}
	kind, err := decodeExternalKind(r)
	if err != nil {
		return wasm.Export{}, err
	}
	idx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.Export{}, wasm.NewCodecError(wasm.BadVarInt, "export index", err)
	}
	return wasm.Export{Name: name, Kind: kind, Index: idx}, nil
}

func decodeElementSegment(r *bytes.Reader) (wasm.ElementSegment, error) {
	tableIdx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.ElementSegment{}, wasm.NewCodecError(wasm.BadVarInt, "element table index", err)
	}
	offset, err := decodeInitExpr(r)
	if err != nil {
		return wasm.ElementSegment{}, err
	}
	funcs, err := decodeVector(r, func(r *bytes.Reader) (wasm.Index, error) {
		v, _, err := leb128.DecodeUint32(r)
		return v, err
	})
	if err != nil {
		return wasm.ElementSegment{}, err
	}
	return wasm.ElementSegment{TableIndex: tableIdx, Offset: offset, Init: funcs}, nil
}

func decodeDataSegment(r *bytes.Reader) (wasm.DataSegment, error) {
	memIdx, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.DataSegment{}, wasm.NewCodecError(wasm.BadVarInt, "data memory index", err)
	}
	offset, err := decodeInitExpr(r)
	if err != nil {
		return wasm.DataSegment{}, err
	}
	n, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return wasm.DataSegment{}, wasm.NewCodecError(wasm.BadVarInt, "data byte count", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return wasm.DataSegment{}, wasm.NewCodecError(wasm.Truncated, "data bytes", err)
	}
	return wasm.DataSegment{MemoryIndex: memIdx, Offset: offset, Init: buf}, nil
}
