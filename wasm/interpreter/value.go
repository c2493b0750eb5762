// Package interpreter implements linear memory and a single-instruction-
// step evaluator for decoded Wasm v1 Ops. It does not implement control
// flow, locals, globals, or calls: those require a frame/module context
// this package deliberately doesn't model (see Context.Exec).
package interpreter

import "github.com/wazcore/wazcore/wasm"

// Value is a tagged union over the four Wasm numeric kinds. Kind selects
// which of the four fields is live; the others are zero.
type Value struct {
	Kind wasm.ValueType
	I32  int32
	I64  int64
	F32  float32
	F64  float64
}

func I32Value(v int32) Value   { return Value{Kind: wasm.ValueTypeI32, I32: v} }
func I64Value(v int64) Value   { return Value{Kind: wasm.ValueTypeI64, I64: v} }
func F32Value(v float32) Value { return Value{Kind: wasm.ValueTypeF32, F32: v} }
func F64Value(v float64) Value { return Value{Kind: wasm.ValueTypeF64, F64: v} }

// Stack is a LIFO sequence of Values. The zero value is an empty stack.
type Stack struct {
	values []Value
}

func (s *Stack) Push(v Value) {
	s.values = append(s.values, v)
}

func (s *Stack) Pop() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, &wasm.RuntimeError{Kind: wasm.StackUnderflow}
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// popTyped pops a Value and verifies its Kind, returning TypeFault if the
// top of stack isn't the type the caller's opcode requires.
func (s *Stack) popTyped(want wasm.ValueType, op wasm.Opcode) (Value, error) {
	v, err := s.Pop()
	if err != nil {
		return Value{}, err
	}
	if v.Kind != want {
		return Value{}, &wasm.RuntimeError{Kind: wasm.TypeFault, Op: op}
	}
	return v, nil
}

func (s *Stack) Len() int { return len(s.values) }

// Peek returns the top of stack without removing it; the second result is
// false if the stack is empty.
func (s *Stack) Peek() (Value, bool) {
	if len(s.values) == 0 {
		return Value{}, false
	}
	return s.values[len(s.values)-1], true
}
