// Package linux produces ELF64 x86_64 Linux executables from IR operations.
//
// Unlike the in-process JIT (internal/codegen/jit), this backend emits a
// freestanding _start entry point that talks to the kernel directly
// through raw syscalls against fixed file descriptors 0 and 1 -- there
// is no host process to call back into, so there's no need for the
// handle-based registry or the Go-asm thunks the JIT uses.
package linux

import (
	"encoding/binary"

	"github.com/lcox74/bfjit/internal/ir"
	"github.com/lcox74/bfjit/pkg/amd64"
	"github.com/lcox74/bfjit/pkg/elf"
)

// Linux syscall numbers
const (
	// sysRead = 0 // Omitted, it's quicker to use xor to zero out
	sysWrite = 1
	sysExit  = 60
)

// Register convention, matching the in-process JIT: R12 is the tape
// base pointer, R13 is the current cell offset, R14 is scratch for
// ADDTO's target offset.
const (
	tapeBase   = amd64.R12
	cellOffset = amd64.R13
	scratch    = amd64.R14
)

// jumpFixup records a location that needs to be patched with a relative offset.
type jumpFixup struct {
	offset    int // Offset in code where rel32 starts
	targetIdx int // IR index of the jump target, or a helper marker below
}

const (
	readHelperMarker  = -1
	writeHelperMarker = -2
)

// X86_64Generator produces x86_64 machine code from IR operations.
type X86_64Generator struct {
	ops       []ir.Op
	code      []byte
	targets   map[int]bool // IR indices that are jump targets
	labelAddr map[int]int  // IR index -> code offset
	fixups    []jumpFixup  // Jumps that need patching
	codeBase  uint64       // Virtual address where code will be loaded
	bssBase   uint64       // Virtual address for BSS/tape
}

// NewX86_64Generator creates a new x86_64 machine code generator.
func NewX86_64Generator(ops []ir.Op) *X86_64Generator {
	g := &X86_64Generator{
		ops:       ops,
		code:      make([]byte, 0, 4096),
		targets:   make(map[int]bool),
		labelAddr: make(map[int]int),
		codeBase:  elf.DefaultCodeBase + elf.PageSize, // Code starts after ELF headers
		bssBase:   elf.DefaultBSSBase,
	}
	g.collectTargets()
	return g
}

// collectTargets finds all jump target indices.
func (g *X86_64Generator) collectTargets() {
	for _, op := range g.ops {
		if op.Kind == ir.OpJz || op.Kind == ir.OpJnz {
			g.targets[op.Arg] = true
		}
	}
}

// Generate produces raw x86_64 machine code.
func (g *X86_64Generator) Generate() []byte {
	g.emitPrologue()

	for i, op := range g.ops {
		if g.targets[i] {
			g.labelAddr[i] = len(g.code)
		}
		g.emitOp(op)
	}

	if g.targets[len(g.ops)] {
		g.labelAddr[len(g.ops)] = len(g.code)
	}

	g.emitEpilogue()
	g.emitHelpers()
	g.resolveFixups()

	return g.code
}

// GenerateELF produces a complete ELF64 executable.
func (g *X86_64Generator) GenerateELF() []byte {
	code := g.Generate()

	builder := elf.NewBuilder()
	builder.SetEntry(g.codeBase)
	builder.AddLoadSegment(code, g.codeBase, elf.PF_R|elf.PF_X)
	builder.AddBSSSegment(g.bssBase, ir.TapeSize, elf.PF_R|elf.PF_W)

	return builder.Build()
}

func (g *X86_64Generator) emitBytes(b []byte) {
	g.code = append(g.code, b...)
}

// emitPrologue outputs the program start: initialize R12 (tape base)
// and zero R13 (cell offset).
func (g *X86_64Generator) emitPrologue() {
	g.emitBytes(amd64.MovRegImm64(tapeBase, g.bssBase))
	g.emitBytes(amd64.XorRegReg(cellOffset, cellOffset))
}

// emitEpilogue outputs the exit(0) syscall.
func (g *X86_64Generator) emitEpilogue() {
	g.emitBytes(amd64.MovqImm32RAX(sysExit))
	g.emitBytes(amd64.XorRDIRDI())
	g.emitBytes(amd64.Syscall())
}

// helperReadOffset and helperWriteOffset store the code offsets of helper functions.
var helperReadOffset, helperWriteOffset int

// emitHelpers outputs the I/O helper functions, called against fixed
// fd 0 (stdin) and fd 1 (stdout).
func (g *X86_64Generator) emitHelpers() {
	// _bf_read:
	helperReadOffset = len(g.code)
	g.emitBytes(amd64.LeaMemToReg(amd64.RSI, tapeBase, cellOffset))
	g.emitBytes(amd64.XorRAXRAX()) // syscall 0 (read)
	g.emitBytes(amd64.XorRDIRDI()) // fd 0
	g.emitBytes(amd64.MovqImm32RDX(1))
	g.emitBytes(amd64.Syscall())
	g.emitBytes(amd64.Ret())

	// _bf_write:
	helperWriteOffset = len(g.code)
	g.emitBytes(amd64.LeaMemToReg(amd64.RSI, tapeBase, cellOffset))
	g.emitBytes(amd64.MovqImm32RAX(sysWrite))
	g.emitBytes(amd64.MovqImm32RDI(1)) // fd 1
	g.emitBytes(amd64.MovqImm32RDX(1))
	g.emitBytes(amd64.Syscall())
	g.emitBytes(amd64.Ret())
}

func (g *X86_64Generator) emitOp(op ir.Op) {
	switch op.Kind {
	case ir.OpShift:
		g.emitShift(op.Arg)
	case ir.OpAdd:
		g.emitAdd(op.Arg)
	case ir.OpZero:
		g.emitZero()
	case ir.OpAddTo:
		g.emitAddTo(op.Arg)
	case ir.OpIn:
		g.emitIn()
	case ir.OpOut:
		g.emitOut()
	case ir.OpJz:
		g.emitJz(op.Arg)
	case ir.OpJnz:
		g.emitJnz(op.Arg)
	}
}

// normalizeInto computes (cellOffset + delta) mod ir.TapeSize into dst
// using two signed IDIVs, so the tape pointer wraps instead of walking
// off the end of the BSS segment. Clobbers RAX, RDX, RCX.
func (g *X86_64Generator) normalizeInto(dst amd64.Reg, delta int32) {
	g.emitBytes(amd64.MovRegReg(amd64.RAX, cellOffset))
	if delta != 0 {
		g.emitBytes(amd64.AddRegImm32(amd64.RAX, delta))
	}
	g.emitBytes(amd64.MovRegImm32(amd64.RCX, ir.TapeSize))
	g.emitBytes(amd64.Cqo())
	g.emitBytes(amd64.IdivReg(amd64.RCX))
	g.emitBytes(amd64.MovRegReg(amd64.RAX, amd64.RDX))
	g.emitBytes(amd64.AddRegImm32(amd64.RAX, ir.TapeSize))
	g.emitBytes(amd64.Cqo())
	g.emitBytes(amd64.IdivReg(amd64.RCX))
	if dst != amd64.RDX {
		g.emitBytes(amd64.MovRegReg(dst, amd64.RDX))
	}
}

func (g *X86_64Generator) emitShift(k int) {
	if k == 0 {
		return
	}
	g.normalizeInto(cellOffset, int32(k))
}

// emitAdd outputs: addb $k, (%r12,%r13)
func (g *X86_64Generator) emitAdd(k int) {
	if k == 0 {
		return
	}
	g.emitBytes(amd64.AddByteMemImm8(tapeBase, cellOffset, uint8(k)))
}

// emitZero outputs: movb $0, (%r12,%r13)
func (g *X86_64Generator) emitZero() {
	g.emitBytes(amd64.MovByteMemImm8(tapeBase, cellOffset, 0))
}

// emitAddTo outputs the transfer-and-zero sequence for ADDTO offset.
func (g *X86_64Generator) emitAddTo(offset int) {
	g.normalizeInto(scratch, int32(offset))
	g.emitBytes(amd64.MovByteMemToReg(amd64.RAX, tapeBase, cellOffset))
	g.emitBytes(amd64.AddByteMemFromReg(tapeBase, scratch, amd64.RAX))
	g.emitBytes(amd64.MovByteMemImm8(tapeBase, cellOffset, 0))
}

// emitIn outputs a call to the _bf_read helper.
func (g *X86_64Generator) emitIn() {
	g.fixups = append(g.fixups, jumpFixup{
		offset:    len(g.code) + 1, // rel32 starts at offset 1 in call instruction
		targetIdx: readHelperMarker,
	})
	g.emitBytes(amd64.CallRel32(0)) // Placeholder
}

// emitOut outputs a call to the _bf_write helper.
func (g *X86_64Generator) emitOut() {
	g.fixups = append(g.fixups, jumpFixup{
		offset:    len(g.code) + 1,
		targetIdx: writeHelperMarker,
	})
	g.emitBytes(amd64.CallRel32(0)) // Placeholder
}

// emitJz outputs: testb $0xff, (%r12,%r13); jz target
func (g *X86_64Generator) emitJz(target int) {
	g.emitBytes(amd64.TestByteMemImm8(tapeBase, cellOffset, 0xFF))
	g.fixups = append(g.fixups, jumpFixup{
		offset:    len(g.code) + 2, // rel32 starts at offset 2 in jz instruction
		targetIdx: target,
	})
	g.emitBytes(amd64.JzRel32(0)) // Placeholder
}

// emitJnz outputs: testb $0xff, (%r12,%r13); jnz target
func (g *X86_64Generator) emitJnz(target int) {
	g.emitBytes(amd64.TestByteMemImm8(tapeBase, cellOffset, 0xFF))
	g.fixups = append(g.fixups, jumpFixup{
		offset:    len(g.code) + 2,
		targetIdx: target,
	})
	g.emitBytes(amd64.JnzRel32(0)) // Placeholder
}

// resolveFixups patches all jump and call targets.
func (g *X86_64Generator) resolveFixups() {
	for _, fixup := range g.fixups {
		var targetAddr int
		switch fixup.targetIdx {
		case readHelperMarker:
			targetAddr = helperReadOffset
		case writeHelperMarker:
			targetAddr = helperWriteOffset
		default:
			targetAddr = g.labelAddr[fixup.targetIdx]
		}

		instrEnd := fixup.offset + 4
		rel32 := int32(targetAddr - instrEnd)

		binary.LittleEndian.PutUint32(g.code[fixup.offset:], uint32(rel32))
	}
}
