package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wazcore/wazcore/wasm"
)

func TestDecodeModule_EmptyModule(t *testing.T) {
	m, err := DecodeModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.Empty(t, m.TypeSection)
	require.Empty(t, m.ImportSection)
	require.Empty(t, m.FunctionSection)
	require.Nil(t, m.StartSection)
}

func TestDecodeModule_BadMagic(t *testing.T) {
	_, err := DecodeModule([]byte{0x01, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.BadMagic, cerr.Kind)
}

func TestDecodeModule_BadVersion(t *testing.T) {
	_, err := DecodeModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.BadVersion, cerr.Kind)
}

func TestDecodeModule_Truncated(t *testing.T) {
	_, err := DecodeModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00})
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.Truncated, cerr.Kind)
}

func TestDecodeModule_SingleFunctionType(t *testing.T) {
	input := append([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		wasm.SectionIDType, 0x07, // section id, byte length
		0x01,                   // 1 type
		0x60, 0x02, 0x7f, 0x7f, // form, 2 params: i32 i32
		0x01, 0x7f, // 1 result: i32
	)

	m, err := DecodeModule(input)
	require.NoError(t, err)
	require.Len(t, m.TypeSection, 1)
	i32 := wasm.ValueTypeI32
	require.Equal(t, wasm.FunctionType{Params: []wasm.ValueType{i32, i32}, Ret: &i32}, m.TypeSection[0])
}

func TestDecodeModule_TrailingDataWithinSection(t *testing.T) {
	// Declares a 2-byte Start section body, but the varu32 index only
	// consumes the first byte, leaving a dangling second byte.
	input := append([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		wasm.SectionIDStart, 0x02, 0x00, 0xff,
	)
	_, err := DecodeModule(input)
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.TrailingData, cerr.Kind)
}

func TestDecodeModule_UnknownSectionID(t *testing.T) {
	input := append([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		0x0d, 0x00, // section id 13 doesn't exist, zero-length body
	)
	_, err := DecodeModule(input)
	var cerr *wasm.CodecError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, wasm.Unimpl, cerr.Kind)
}

func TestDecodeModule_ExportSection(t *testing.T) {
	input := append([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		wasm.SectionIDExport, 0x08,
		0x02,                      // 2 exports
		0x00,                      // empty name
		wasm.ExternalKindFunc, 0x02, // func[2]
		0x01, 'a', // name "a"
		wasm.ExternalKindFunc, 0x01, // func[1]
	)
	m, err := DecodeModule(input)
	require.NoError(t, err)
	require.Len(t, m.ExportSection, 2)
	require.Equal(t, wasm.Export{Name: "", Kind: wasm.ExternalKindFunc, Index: 2}, m.ExportSection[0])
	require.Equal(t, wasm.Export{Name: "a", Kind: wasm.ExternalKindFunc, Index: 1}, m.ExportSection[1])
}

func TestDecodeModule_CustomSection(t *testing.T) {
	input := append([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00},
		wasm.SectionIDCustom, 0x06, 0x03, 'f', 'o', 'o', 0xAA, 0xBB,
	)
	m, err := DecodeModule(input)
	require.NoError(t, err)
	require.Len(t, m.CustomSections, 1)
	require.Equal(t, "foo", m.CustomSections[0].Name)
	require.Equal(t, []byte{0xAA, 0xBB}, m.CustomSections[0].Payload)
}
