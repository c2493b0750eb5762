//go:build amd64 && cgo

package bench

import (
	"fmt"

	"github.com/bytecodealliance/wasmtime-go"
)

// wasmtimeRunner wraps wasmtime-go's Engine/Store/Module/Instance call
// shape, trimmed to the single exported add(i32,i32)->i32 function this
// package needs.
type wasmtimeRunner struct {
	engine *wasmtime.Engine
	store  *wasmtime.Store
	fn     *wasmtime.Func
}

func newWasmtimeRunner() Runner { return &wasmtimeRunner{} }

func (r *wasmtimeRunner) Name() string { return "wasmtime" }

func (r *wasmtimeRunner) Compile() error {
	r.engine = wasmtime.NewEngine()
	r.store = wasmtime.NewStore(r.engine)

	m, err := wasmtime.NewModule(r.engine, AddModuleWasm)
	if err != nil {
		return err
	}
	instance, err := wasmtime.NewInstance(r.store, m, nil)
	if err != nil {
		return err
	}
	fn := instance.GetExport(r.store, AddFuncName).Func()
	if fn == nil {
		return fmt.Errorf("%s is not an exported function", AddFuncName)
	}
	r.fn = fn
	return nil
}

func (r *wasmtimeRunner) AddI32(x, y int32) (int32, error) {
	result, err := r.fn.Call(r.store, x, y)
	if err != nil {
		return 0, err
	}
	return result.(int32), nil
}

func (r *wasmtimeRunner) Close() error {
	r.fn = nil
	r.store = nil
	r.engine = nil
	return nil // wasmtime only closes via finalizer
}
