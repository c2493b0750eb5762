//go:build amd64 && cgo && !windows

package bench

import (
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// wasmerRunner wraps wasmer-go's Store/Module/Instance call shape, trimmed
// to the single exported add(i32,i32)->i32 function this package needs.
type wasmerRunner struct {
	store    *wasmer.Store
	module   *wasmer.Module
	instance *wasmer.Instance
	fn       *wasmer.Function
}

func newWasmerRunner() Runner { return &wasmerRunner{} }

func (r *wasmerRunner) Name() string { return "wasmer" }

func (r *wasmerRunner) Compile() (err error) {
	r.store = wasmer.NewStore(wasmer.NewEngine())
	if r.module, err = wasmer.NewModule(r.store, AddModuleWasm); err != nil {
		return err
	}
	if r.instance, err = wasmer.NewInstance(r.module, wasmer.NewImportObject()); err != nil {
		return err
	}
	fn, err := r.instance.Exports.GetRawFunction(AddFuncName)
	if err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%s is not an exported function", AddFuncName)
	}
	r.fn = fn
	return nil
}

func (r *wasmerRunner) AddI32(x, y int32) (int32, error) {
	result, err := r.fn.Call(x, y)
	if err != nil {
		return 0, err
	}
	return result.(int32), nil
}

func (r *wasmerRunner) Close() error {
	if r.instance != nil {
		r.instance.Close()
	}
	if r.module != nil {
		r.module.Close()
	}
	if r.store != nil {
		r.store.Close()
	}
	r.fn = nil
	return nil
}
