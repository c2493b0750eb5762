package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMemoryStartsWithOnePage(t *testing.T) {
	m := NewMemory()
	require.Equal(t, uint32(1), m.PageCount())
}

func TestMemoryGrow(t *testing.T) {
	m := NewMemory()
	old, ok := m.Grow(2)
	require.True(t, ok)
	require.Equal(t, uint32(1), old)
	require.Equal(t, uint32(3), m.PageCount())

	// Zero-page grow is well defined and returns the current count.
	old, ok = m.Grow(0)
	require.True(t, ok)
	require.Equal(t, uint32(3), old)
}

func TestMemoryGrowRejectsOverflowPastMax(t *testing.T) {
	m := NewMemory()
	_, ok := m.Grow(MaxPages)
	require.False(t, ok)
	require.Equal(t, uint32(1), m.PageCount())
}

func TestMemoryReadWriteByte(t *testing.T) {
	m := NewMemory()
	require.True(t, m.WriteByte(7, 16))
	v, ok := m.ReadByte(7)
	require.True(t, ok)
	require.Equal(t, byte(16), v)

	_, ok = m.ReadByte(PageSize)
	require.False(t, ok)
}

func TestMemoryReadWriteUint32Le(t *testing.T) {
	m := NewMemory()
	require.True(t, m.WriteUint32Le(4, 16))
	v, ok := m.ReadUint32Le(4)
	require.True(t, ok)
	require.Equal(t, uint32(16), v)
}

func TestMemoryAccessCannotCrossPageBoundary(t *testing.T) {
	m := NewMemory()
	_, ok := m.Grow(1)
	require.True(t, ok)

	// A 4-byte access starting 2 bytes before the page boundary would
	// straddle page 0 and page 1; per spec this faults even though page
	// 1 exists, rather than reading across into it.
	_, ok = m.ReadUint32Le(PageSize - 2)
	require.False(t, ok)
}

func TestMemoryPagesStayStableAcrossGrow(t *testing.T) {
	m := NewMemory()
	require.True(t, m.WriteByte(10, 42))
	_, ok := m.Grow(5)
	require.True(t, ok)
	v, ok := m.ReadByte(10)
	require.True(t, ok)
	require.Equal(t, byte(42), v)
}
