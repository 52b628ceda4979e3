package elf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMinimalELFHeader(t *testing.T) {
	code := []byte{0x90, 0x90, 0xC3} // nop; nop; ret

	b := NewBuilder()
	b.SetEntry(DefaultCodeBase + PageSize)
	b.AddLoadSegment(code, DefaultCodeBase+PageSize, PF_R|PF_X)
	b.AddBSSSegment(DefaultBSSBase, 30000, PF_R|PF_W)

	out := b.Build()
	require.True(t, len(out) > ELF64HeaderSize+2*ELF64PhdrSize, "output should hold header, two phdrs, and code")

	assert.Equal(t, byte(ELFMAG0), out[0])
	assert.Equal(t, byte('E'), out[1])
	assert.Equal(t, byte('L'), out[2])
	assert.Equal(t, byte('F'), out[3])
	assert.Equal(t, byte(ELFCLASS64), out[4])
	assert.Equal(t, byte(ELFDATA2LSB), out[5])

	typ := binary.LittleEndian.Uint16(out[16:18])
	assert.Equal(t, uint16(ET_EXEC), typ)

	machine := binary.LittleEndian.Uint16(out[18:20])
	assert.Equal(t, uint16(EM_X86_64), machine)

	entry := binary.LittleEndian.Uint64(out[24:32])
	assert.Equal(t, DefaultCodeBase+PageSize, entry)

	phoff := binary.LittleEndian.Uint64(out[32:40])
	assert.Equal(t, uint64(ELF64HeaderSize), phoff)

	phnum := binary.LittleEndian.Uint16(out[56:58])
	assert.Equal(t, uint16(2), phnum)
}

func TestCodeSegmentIsPageAligned(t *testing.T) {
	code := make([]byte, 10)

	b := NewBuilder()
	b.SetEntry(DefaultCodeBase + PageSize)
	b.AddLoadSegment(code, DefaultCodeBase+PageSize, PF_R|PF_X)

	out := b.Build()

	firstPhdrOff := ELF64HeaderSize
	fileOff := binary.LittleEndian.Uint64(out[firstPhdrOff+8 : firstPhdrOff+16])
	assert.Equal(t, uint64(PageSize), fileOff, "code segment must start at a page boundary")
	assert.Equal(t, code, out[fileOff:int(fileOff)+len(code)])
}

func TestBSSSegmentHasNoFileData(t *testing.T) {
	b := NewBuilder()
	b.SetEntry(DefaultCodeBase + PageSize)
	b.AddLoadSegment([]byte{0xC3}, DefaultCodeBase+PageSize, PF_R|PF_X)
	b.AddBSSSegment(DefaultBSSBase, 30000, PF_R|PF_W)

	out := b.Build()

	secondPhdrOff := ELF64HeaderSize + ELF64PhdrSize
	fileSz := binary.LittleEndian.Uint64(out[secondPhdrOff+32 : secondPhdrOff+40])
	memSz := binary.LittleEndian.Uint64(out[secondPhdrOff+40 : secondPhdrOff+48])

	assert.Equal(t, uint64(0), fileSz, "BSS segment carries no file bytes")
	assert.Equal(t, uint64(30000), memSz, "BSS segment reserves the tape size in memory")
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0x1000), alignUp(1, 0x1000))
	assert.Equal(t, uint64(0x1000), alignUp(0x1000, 0x1000))
	assert.Equal(t, uint64(0x2000), alignUp(0x1001, 0x1000))
}
