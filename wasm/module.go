// Package wasm defines the structural representation of a decoded
// WebAssembly 1.0 (20191205) binary module: its section contents, its
// instruction set, and the error taxonomies raised while decoding or
// evaluating it.
package wasm

import "github.com/wazcore/wazcore/api"

// Index is a position in one of a Module's index spaces (function, table,
// memory, global, type). Index spaces begin with any imported entries of
// the same kind, followed by module-defined ones.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-index
type Index = uint32

// ValueType is an alias of api.ValueType, kept local so callers in this
// package don't need to import api just to spell a type.
type ValueType = api.ValueType

const (
	ValueTypeI32 = api.ValueTypeI32
	ValueTypeI64 = api.ValueTypeI64
	ValueTypeF32 = api.ValueTypeF32
	ValueTypeF64 = api.ValueTypeF64
)

// ExternType is an alias of api.ExternType.
type ExternType = api.ExternType

// Module is the decoded, structural representation of a Wasm v1 binary.
// Every field is populated by a single pass over the input and is
// immutable afterward; there is no validation or instantiation performed
// by this package (see spec's Non-goals).
type Module struct {
	// TypeSection holds every distinct function signature the module
	// references, imported or defined.
	TypeSection []FunctionType

	// ImportSection holds every entry from the import section, in
	// declaration order.
	ImportSection []Import

	// FunctionSection holds, for each module-defined function (not
	// counting imports), the index into TypeSection of its signature.
	FunctionSection []Index

	// TableSection holds module-defined tables. Wasm 1.0 permits at
	// most one, and only if none was imported.
	TableSection []Table

	// MemorySection holds module-defined memories. Wasm 1.0 permits at
	// most one, and only if none was imported.
	MemorySection []Memory

	// GlobalSection holds module-defined globals, each with its
	// constant initializer expression.
	GlobalSection []Global

	// ExportSection holds every exported definition, in declaration
	// order.
	ExportSection []Export

	// StartSection, if non-nil, names the function index called before
	// any other code runs. Out of scope here since control-flow
	// execution is not implemented by this module, but still decoded.
	StartSection *Index

	// ElementSection holds table initializer segments.
	ElementSection []ElementSegment

	// CodeSection is index-correlated with FunctionSection: the i'th
	// entry holds the locals and body of the i'th module-defined
	// function.
	CodeSection []FunctionBody

	// DataSection holds memory initializer segments.
	DataSection []DataSegment

	// CustomSections holds every custom section encountered, in
	// declaration order, including repeats of the same name.
	CustomSections []CustomSection
}

// Section IDs identify the twelve section kinds of a Wasm 1.0 binary, in
// the order they must appear (Custom sections may appear anywhere).
const (
	SectionIDCustom = iota
	SectionIDType
	SectionIDImport
	SectionIDFunction
	SectionIDTable
	SectionIDMemory
	SectionIDGlobal
	SectionIDExport
	SectionIDStart
	SectionIDElement
	SectionIDCode
	SectionIDData
)

// CustomSection is a name/payload pair from a SectionIDCustom entry. This
// decoder does not special-case any custom section name (e.g. "name");
// every custom section is surfaced uniformly.
type CustomSection struct {
	Name    string
	Payload []byte
}

// FunctionType is a function signature: the possibly-empty sequence of
// parameter types, and an optional single return type (Wasm 1.0 permits
// at most one result).
type FunctionType struct {
	Params []ValueType
	Ret    *ValueType
}

// ExternalKind selects which index space an Import or Export entry
// belongs to.
type ExternalKind = ExternType

const (
	ExternalKindFunc   = api.ExternTypeFunc
	ExternalKindTable  = api.ExternTypeTable
	ExternalKindMemory = api.ExternTypeMemory
	ExternalKindGlobal = api.ExternTypeGlobal
)

// Import is one entry of the import section.
type Import struct {
	Module string
	Name   string
	Kind   ExternalKind

	// DescFunc is the TypeSection index, populated when Kind is
	// ExternalKindFunc.
	DescFunc Index
	// DescTable is populated when Kind is ExternalKindTable.
	DescTable TableType
	// DescMem is populated when Kind is ExternalKindMemory.
	DescMem MemoryType
	// DescGlobal is populated when Kind is ExternalKindGlobal.
	DescGlobal GlobalType
}

// ResizableLimits is the `limits` production shared by TableType and
// MemoryType: a required minimum and an optional maximum.
type ResizableLimits struct {
	Min uint32
	Max *uint32
}

// TableType describes a table's element type (always ElementTypeFuncRef
// in Wasm 1.0) and its size limits.
type TableType struct {
	ElemType byte
	Limits   ResizableLimits
}

// ElementTypeFuncRef is the only element type defined in Wasm 1.0,
// encoded as vari7 value -0x10.
const ElementTypeFuncRef = 0x70

// MemoryType describes a memory's size limits in 64 KiB pages.
type MemoryType struct {
	Limits ResizableLimits
}

// Table is a module-defined table (see TableSection).
type Table struct {
	Type TableType
}

// Memory is a module-defined memory (see MemorySection).
type Memory struct {
	Type MemoryType
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global is a module-defined global: its type plus a constant
// initializer expression.
type Global struct {
	Type GlobalType
	Init InitExpr
}

// Export is one entry of the export section.
type Export struct {
	Name  string
	Kind  ExternalKind
	Index Index
}

// FunctionBody is the decoded locals-and-code of one module-defined
// function, an entry of CodeSection.
type FunctionBody struct {
	// Locals is the ordered sequence of declared local variables,
	// expanded from the encoded (count, type) run-length groups.
	Locals []ValueType
	// Ops is the function's instruction sequence, including the
	// terminal End.
	Ops []Op
}

// ElementSegment initializes a range of a table with function indices.
type ElementSegment struct {
	TableIndex Index
	Offset     InitExpr
	Init       []Index
}

// DataSegment initializes a range of linear memory with literal bytes.
type DataSegment struct {
	MemoryIndex Index
	Offset      InitExpr
	Init        []byte
}

// InitExpr is a restricted constant expression used for global
// initializers and segment offsets: a sequence of constant-producing Ops
// with the terminating End already stripped.
type InitExpr struct {
	Ops []Op
}

// IsConstOp reports whether op is legal inside an InitExpr: one of the
// four typed constant instructions or GetGlobal (which, per the Wasm 1.0
// spec, may only reference an imported immutable global in this
// position).
func IsConstOp(op Op) bool {
	switch op.Code {
	case OpcodeI32Const, OpcodeI64Const, OpcodeF32Const, OpcodeF64Const, OpcodeGlobalGet:
		return true
	}
	return false
}
