// Package bench compares wazcore's decoder and single-step evaluator against
// two production Wasm runtimes, wasmtime-go and wasmer-go, on the same
// hand-encoded module. wasmtime-go and wasmer-go are deliberately kept out
// of the core decode/evaluate packages and confined to this optional
// cross-engine comparison harness.
package bench

// AddModuleWasm is the binary encoding of:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
//
// wazcore's Context has no locals or call frames, so it can't run this
// function body as-is; wazcoreRunner.AddI32 feeds the same two operands
// through wazcore's evaluator directly via its stack instead of through a
// call, while the two cgo runtimes actually instantiate and call the
// exported function. Both paths compute x+y for the same (x, y);
// AddModuleWasm is what's handed to the real runtimes and to wazcore's
// decoder (to confirm it parses what they run).
var AddModuleWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version

	// Type section: [(i32, i32) -> i32]
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,

	// Function section: function 0 uses type 0
	0x03, 0x02, 0x01, 0x00,

	// Export section: export func 0 as "add"
	0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,

	// Code section: function 0 body: local.get 0; local.get 1; i32.add; end
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

// AddFuncName is the name AddModuleWasm exports its only function under.
const AddFuncName = "add"
