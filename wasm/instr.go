package wasm

// BlockType is the result-type annotation carried by block/loop/if: either
// Void (encoded 0x40, no value left on exit) or a single ValueType.
type BlockType struct {
	Void    bool
	ValType ValueType
}

// MemoryImmed is the alignment-and-offset immediate on every memory
// instruction. Align is advisory only — it is decoded and stored but
// never affects load/store semantics, matching the Wasm 1.0 spec.
type MemoryImmed struct {
	Align  uint32
	Offset uint32
}

// BranchTable is the operand of OpcodeBrTable: a vector of branch targets
// plus a mandatory default target.
type BranchTable struct {
	Targets []uint32
	Default uint32
}

// Op is a single decoded instruction. Rather than a closed sum type (which
// Go has no native syntax for), every instruction's operand is flattened
// into one of the fields below, following the same shape wazero's own
// internal instruction representation uses (a handful of generic operand
// slots reused across opcodes, selected by Code). Fields unused by a given
// Code are zero.
type Op struct {
	Code Opcode

	// Idx carries a local/global/function/type/table/memory index,
	// used by local.*, global.*, call, call_indirect, br, br_if.
	Idx Index

	// I32 carries the operand of I32Const.
	I32 int32
	// I64 carries the operand of I64Const.
	I64 int64
	// F32Bits carries the raw little-endian bit pattern of an F32Const.
	F32Bits uint32
	// F64Bits carries the raw little-endian bit pattern of an F64Const.
	F64Bits uint64

	// Block carries the result type of block/loop/if.
	Block BlockType
	// Table carries the operand of br_table.
	Table BranchTable
	// Memarg carries the operand of every memory load/store.
	Memarg MemoryImmed
}
