package bench

import (
	"github.com/wazcore/wazcore/wasm"
	"github.com/wazcore/wazcore/wasm/binary"
	"github.com/wazcore/wazcore/wasm/interpreter"
)

// wazcoreRunner decodes AddModuleWasm with the real decoder (so a malformed
// fixture fails here the same as it would for the other two runners), then
// evaluates the equivalent instruction sequence directly against a fresh
// Context's stack — the closest thing to "calling add" that a
// locals/frame-free evaluator can do.
type wazcoreRunner struct {
	mod *wasm.Module
}

func newWazcoreRunner() Runner { return &wazcoreRunner{} }

func (r *wazcoreRunner) Name() string { return "wazcore" }

func (r *wazcoreRunner) Compile() (err error) {
	r.mod, err = binary.DecodeModule(AddModuleWasm)
	return err
}

func (r *wazcoreRunner) AddI32(x, y int32) (int32, error) {
	c := interpreter.NewContext()
	c.Stack.Push(interpreter.I32Value(x))
	c.Stack.Push(interpreter.I32Value(y))
	if err := c.Exec(wasm.Op{Code: wasm.OpcodeI32Add}); err != nil {
		return 0, err
	}
	v, err := c.Stack.Pop()
	if err != nil {
		return 0, err
	}
	return v.I32, nil
}

func (r *wazcoreRunner) Close() error { return nil }
