// Package moremath implements the float semantics the Wasm 1.0 spec
// requires but Go's math package doesn't provide directly: NaN-propagating
// min/max, and round-to-even "nearest" rounding.
package moremath

import "math"

// WasmCompatMin doesn't use math.Min, which treats NaN as merely "not less
// than anything" rather than contagious. Per the Wasm spec, if either
// operand is NaN the result is NaN even when the other operand is -Inf.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L74-L91
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// WasmCompatMax is WasmCompatMin's counterpart for the max instructions.
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L42-L59
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatNearestF32 implements the f32.nearest instruction: round to the
// nearest integral value, ties to even. math.RoundToEven already has these
// semantics for the float64 domain; the only adjustment needed is rounding
// within float32 precision so a value like 0.5 (representable exactly in
// both widths) rounds to 0, not 1.
func WasmCompatNearestF32(f float32) float32 {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) || f == 0 {
		return f
	}
	return float32(math.RoundToEven(float64(f)))
}

// WasmCompatNearestF64 implements the f64.nearest instruction.
func WasmCompatNearestF64(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return f
	}
	return math.RoundToEven(f)
}
