//go:build amd64 && cgo

package bench

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func runners() []Runner {
	return []Runner{newWazcoreRunner(), newWasmtimeRunner(), newWasmerRunner()}
}

// TestRunnersAgreeOnAdd confirms all three engines compute the same result
// for AddModuleWasm's exported function before any benchmark trusts them.
func TestRunnersAgreeOnAdd(t *testing.T) {
	for _, r := range runners() {
		r := r
		t.Run(r.Name(), func(t *testing.T) {
			require.NoError(t, r.Compile())
			defer r.Close()

			sum, err := r.AddI32(19, 23)
			require.NoError(t, err)
			require.Equal(t, int32(42), sum)
		})
	}
}

func benchmarkAdd(b *testing.B, newRunner func() Runner) {
	r := newRunner()
	if err := r.Compile(); err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.AddI32(int32(i), 1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWazcoreAdd(b *testing.B)  { benchmarkAdd(b, newWazcoreRunner) }
func BenchmarkWasmtimeAdd(b *testing.B) { benchmarkAdd(b, newWasmtimeRunner) }
func BenchmarkWasmerAdd(b *testing.B)   { benchmarkAdd(b, newWasmerRunner) }
