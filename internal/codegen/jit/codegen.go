//go:build linux && amd64

package jit

import (
	"github.com/lcox74/bfjit/internal/ir"
	"github.com/lcox74/bfjit/pkg/amd64"
)

// Register convention for generated code, fixed by the sysv64 contract
// the JIT exposes: R12 holds the tape's base pointer (callee-saved,
// loaded from the incoming argument once in the prologue), R13 holds
// the current cell offset (callee-saved, zeroed in the prologue). R14
// is a scratch register for computing ADDTO's target offset. R11 is
// used as a scratch call-target register, since it's caller-saved and
// carries no argument under sysv64.
const (
	tapeBase   = amd64.R12
	cellOffset = amd64.R13
	scratch    = amd64.R14
	callScr    = amd64.R11
)

// fixup records a rel32 operand that needs patching once every op's
// code offset is known. targetOp is the IR op index to jump to, or
// errorExitTarget for the shared error-exit path.
type fixup struct {
	pos      int // byte offset immediately after the rel32 field
	targetOp int
}

const errorExitTarget = -1

type generator struct {
	ops       []ir.Op
	code      []byte
	opAddr    []int // code offset where op i's first instruction begins
	fixups    []fixup
	inHandle  uint64
	outHandle uint64
}

func newGenerator(ops []ir.Op, inHandle, outHandle uint64) *generator {
	return &generator{
		ops:       ops,
		opAddr:    make([]int, len(ops)+1), // +1: sentinel for "past the end"
		inHandle:  inHandle,
		outHandle: outHandle,
	}
}

func (g *generator) emit(b []byte) { g.code = append(g.code, b...) }

// patch resolves each fixup's pos (the byte right after its rel32 field)
// to op index targetOp's starting address, or to errorExitAddr when
// targetOp is errorExitTarget.
func (g *generator) patch(errorExitAddr int) {
	for _, f := range g.fixups {
		var target int
		if f.targetOp == errorExitTarget {
			target = errorExitAddr
		} else {
			target = g.opAddr[f.targetOp]
		}
		rel := int32(target - f.pos)
		g.code[f.pos-4] = byte(rel)
		g.code[f.pos-3] = byte(rel >> 8)
		g.code[f.pos-2] = byte(rel >> 16)
		g.code[f.pos-1] = byte(rel >> 24)
	}
}

func (g *generator) prologue() {
	g.emit(amd64.PushReg(amd64.RBP))
	g.emit(amd64.MovRegReg(amd64.RBP, amd64.RSP))
	g.emit(amd64.PushReg(tapeBase))
	g.emit(amd64.PushReg(cellOffset))
	g.emit(amd64.MovRegReg(tapeBase, amd64.RDI))
	g.emit(amd64.XorRegReg(cellOffset, cellOffset))
}

// emitEpilogue emits the shared exit path: pop callee-saved registers
// and return. Error paths jump here directly with RAX already carrying
// a nonzero error handle; the success path falls through after zeroing
// RAX first. Returns the code offset epilogue starts at.
func (g *generator) emitEpilogue() int {
	addr := len(g.code)
	g.emit(amd64.PopReg(cellOffset))
	g.emit(amd64.PopReg(tapeBase))
	g.emit(amd64.PopReg(amd64.RBP))
	g.emit(amd64.Ret())
	return addr
}

// normalizeInto computes (cellOffset + delta) mod ir.TapeSize into dst,
// using two signed IDIVs so the result lands in [0, TapeSize) regardless
// of delta's sign -- a single IDIV leaves a remainder with the sign of
// the dividend, so a second pass folds a negative remainder back into
// range. Clobbers RAX, RDX, RCX.
func (g *generator) normalizeInto(dst amd64.Reg, delta int32) {
	g.emit(amd64.MovRegReg(amd64.RAX, cellOffset))
	if delta != 0 {
		g.emit(amd64.AddRegImm32(amd64.RAX, delta))
	}
	g.emit(amd64.MovRegImm32(amd64.RCX, ir.TapeSize))
	g.emit(amd64.Cqo())
	g.emit(amd64.IdivReg(amd64.RCX))
	g.emit(amd64.MovRegReg(amd64.RAX, amd64.RDX))
	g.emit(amd64.AddRegImm32(amd64.RAX, ir.TapeSize))
	g.emit(amd64.Cqo())
	g.emit(amd64.IdivReg(amd64.RCX))
	if dst != amd64.RDX {
		g.emit(amd64.MovRegReg(dst, amd64.RDX))
	}
}

func (g *generator) emitShift(delta int) {
	g.normalizeInto(cellOffset, int32(delta))
}

func (g *generator) emitAdd(delta int) {
	g.emit(amd64.AddByteMemImm8(tapeBase, cellOffset, uint8(delta)))
}

func (g *generator) emitZero() {
	g.emit(amd64.MovByteMemImm8(tapeBase, cellOffset, 0))
}

func (g *generator) emitAddTo(offset int) {
	g.normalizeInto(scratch, int32(offset))
	g.emit(amd64.MovByteMemToReg(amd64.RAX, tapeBase, cellOffset))
	g.emit(amd64.AddByteMemFromReg(tapeBase, scratch, amd64.RAX))
	g.emit(amd64.MovByteMemImm8(tapeBase, cellOffset, 0))
}

// emitThunkCall emits a call to the thunk at addr with RDI/RSI set to
// the tape cell pointer and the given stream handle, then branches to
// the error exit if it returned nonzero.
func (g *generator) emitThunkCall(addr uintptr, handle uint64) {
	g.emit(amd64.LeaMemToReg(amd64.RDI, tapeBase, cellOffset))
	g.emit(amd64.MovRegImm64(amd64.RSI, handle))
	g.emit(amd64.MovRegImm64(callScr, uint64(addr)))
	g.emit(amd64.CallReg(callScr))
	g.emit(amd64.CmpRegImm8(amd64.RAX, 0))
	pos := len(g.code) + 2 // JnzRel32 is 2 opcode bytes + 4 rel32 bytes
	g.emit(amd64.JnzRel32(0))
	g.fixups = append(g.fixups, fixup{pos: pos + 4, targetOp: errorExitTarget})
}

func (g *generator) emitIn() {
	g.emitThunkCall(readThunkAddr, g.inHandle)
}

func (g *generator) emitOut() {
	g.emitThunkCall(writeThunkAddr, g.outHandle)
}

func (g *generator) emitJz(target int) {
	g.emit(amd64.TestByteMemImm8(tapeBase, cellOffset, 0xFF))
	pos := len(g.code) + 2
	g.emit(amd64.JzRel32(0))
	g.fixups = append(g.fixups, fixup{pos: pos + 4, targetOp: target})
}

func (g *generator) emitJnz(target int) {
	g.emit(amd64.TestByteMemImm8(tapeBase, cellOffset, 0xFF))
	pos := len(g.code) + 2
	g.emit(amd64.JnzRel32(0))
	g.fixups = append(g.fixups, fixup{pos: pos + 4, targetOp: target})
}

// generate assembles the full function body: prologue, one code block
// per IR op, the success tail, and the shared epilogue. Returns the
// finished machine code.
func generate(ops []ir.Op, inHandle, outHandle uint64) []byte {
	g := newGenerator(ops, inHandle, outHandle)
	g.prologue()

	for i, op := range ops {
		g.opAddr[i] = len(g.code)
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
	g.opAddr[len(ops)] = len(g.code)

	g.emit(amd64.XorRegReg(amd64.RAX, amd64.RAX))
	errorExitAddr := g.emitEpilogue()

	g.patch(errorExitAddr)
	return g.code
}
