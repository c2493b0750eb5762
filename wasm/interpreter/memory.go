package interpreter

import (
	"encoding/binary"
	"math"

	"github.com/wazcore/wazcore/wasm"
)

// PageSize is the fixed size of a Wasm linear memory page: 64 KiB.
const PageSize = 1 << 16

// MaxPages is the largest page count a Wasm 1.0 memory may reach (4 GiB of
// address space), per spec's Memory invariant.
const MaxPages = 1 << 16

// Memory is linear memory as a vector of independently allocated pages
// rather than one contiguous growable buffer, so that page addresses
// stay stable across Grow — growing never reallocates or moves an
// existing page.
type Memory struct {
	pages []*[PageSize]byte
}

// NewMemory returns a Memory with its required single initial page.
func NewMemory() *Memory {
	return &Memory{pages: []*[PageSize]byte{new([PageSize]byte)}}
}

func (m *Memory) PageCount() uint32 { return uint32(len(m.pages)) }

// Grow appends delta zero-initialized pages and returns the page count
// before growth, or (0, false) if that would overflow the addition or
// exceed MaxPages.
func (m *Memory) Grow(delta uint32) (old uint32, ok bool) {
	old = m.PageCount()
	total := uint64(old) + uint64(delta)
	if total > MaxPages {
		return 0, false
	}
	for i := uint32(0); i < delta; i++ {
		m.pages = append(m.pages, new([PageSize]byte))
	}
	return old, true
}

// locate splits addr into a page index and intra-page offset, and
// confirms that a width-byte access at addr stays within a single page
// and within memory's current bounds. Per spec, an access that would
// cross a page boundary is itself a fault, distinct from real Wasm's
// flat-address-space semantics.
func (m *Memory) locate(addr uint32, width uint32) (page, intra uint32, ok bool) {
	page = addr >> 16
	intra = addr & 0xffff
	if uint64(page) >= uint64(len(m.pages)) {
		return 0, 0, false
	}
	if intra+width > PageSize {
		return 0, 0, false
	}
	return page, intra, true
}

func (m *Memory) ReadByte(addr uint32) (byte, bool) {
	p, i, ok := m.locate(addr, 1)
	if !ok {
		return 0, false
	}
	return m.pages[p][i], true
}

func (m *Memory) WriteByte(addr uint32, v byte) bool {
	p, i, ok := m.locate(addr, 1)
	if !ok {
		return false
	}
	m.pages[p][i] = v
	return true
}

func (m *Memory) ReadUint16Le(addr uint32) (uint16, bool) {
	p, i, ok := m.locate(addr, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.pages[p][i : i+2]), true
}

func (m *Memory) WriteUint16Le(addr uint32, v uint16) bool {
	p, i, ok := m.locate(addr, 2)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint16(m.pages[p][i:i+2], v)
	return true
}

func (m *Memory) ReadUint32Le(addr uint32) (uint32, bool) {
	p, i, ok := m.locate(addr, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.pages[p][i : i+4]), true
}

func (m *Memory) WriteUint32Le(addr uint32, v uint32) bool {
	p, i, ok := m.locate(addr, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(m.pages[p][i:i+4], v)
	return true
}

func (m *Memory) ReadUint64Le(addr uint32) (uint64, bool) {
	p, i, ok := m.locate(addr, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.pages[p][i : i+8]), true
}

func (m *Memory) WriteUint64Le(addr uint32, v uint64) bool {
	p, i, ok := m.locate(addr, 8)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint64(m.pages[p][i:i+8], v)
	return true
}

// effectiveAddress pops a dynamic base address from stack and adds the
// immediate's static offset, bounds-checking the sum against uint32 range
// before any page lookup runs. This is the effective-address computation
// the WebAssembly spec mandates for every memory instruction's memarg:
// dynamic operand base plus static offset, not the offset alone.
func effectiveAddress(stack *Stack, immed wasm.MemoryImmed, op wasm.Opcode) (uint32, error) {
	base, err := stack.popTyped(wasm.ValueTypeI32, op)
	if err != nil {
		return 0, err
	}
	sum := uint64(uint32(base.I32)) + uint64(immed.Offset)
	if sum > math.MaxUint32 {
		return 0, &wasm.RuntimeError{Kind: wasm.MemoryFault, Op: op}
	}
	return uint32(sum), nil
}
