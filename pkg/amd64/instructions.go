package amd64

// This file contains x86_64 instruction encoders used by both the
// in-process JIT (internal/codegen/jit) and the standalone ELF builder
// (internal/codegen/linux). Each function returns the machine code bytes
// for one instruction.
//
// For details on x86-64 instruction encoding (REX prefixes, ModRM, SIB
// bytes), see: https://wiki.osdev.org/X86-64_Instruction_Encoding
//
// Register operands are parameterized rather than hardcoded per
// instruction/register pair, since both codegen backends address tape
// memory through a [base+index] pair and need the same handful of
// opcodes against different register choices.

// rex builds a REX prefix byte. w selects 64-bit operand size, r extends
// ModRM.reg, x extends SIB.index, b extends ModRM.rm/SIB.base/opcode+reg.
func rex(w, r, x, b bool) byte {
	out := byte(0x40)
	if w {
		out |= 0x08
	}
	if r {
		out |= 0x04
	}
	if x {
		out |= 0x02
	}
	if b {
		out |= 0x01
	}
	return out
}

func modrm(mod, reg, rm byte) byte {
	return mod<<6 | (reg&0x7)<<3 | (rm & 0x7)
}

// memSIB encodes a [base+index] addressing mode, scale 1, no
// displacement. Only valid when base's low 3 bits aren't 0b101
// (RBP/R13) -- that combination forces a disp32 even with mod=00. Every
// tape access in this package uses R12 as base, which is safe.
func memSIB(base, index Reg) (sib byte, rexX, rexB bool) {
	sib = 0<<6 | index.low3()<<3 | base.low3()
	return sib, index.ext(), base.ext()
}

// PushReg encodes: push <reg>
func PushReg(r Reg) []byte {
	if r.ext() {
		return []byte{0x41, 0x50 + r.low3()}
	}
	return []byte{0x50 + r.low3()}
}

// PopReg encodes: pop <reg>
func PopReg(r Reg) []byte {
	if r.ext() {
		return []byte{0x41, 0x58 + r.low3()}
	}
	return []byte{0x58 + r.low3()}
}

// MovRegReg encodes: mov <dst>, <src> (64-bit)
func MovRegReg(dst, src Reg) []byte {
	return []byte{rex(true, src.ext(), false, dst.ext()), 0x89, modrm(3, src.low3(), dst.low3())}
}

// XorRegReg encodes: xor <dst>, <src> (64-bit)
func XorRegReg(dst, src Reg) []byte {
	return []byte{rex(true, src.ext(), false, dst.ext()), 0x31, modrm(3, src.low3(), dst.low3())}
}

// MovRegImm32 encodes: mov <dst>, imm32 (sign-extended to 64 bits)
func MovRegImm32(dst Reg, imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = rex(true, false, false, dst.ext())
	buf[1] = 0xC7
	buf[2] = modrm(3, 0, dst.low3())
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// MovRegImm64 encodes: movabs <dst>, imm64
func MovRegImm64(dst Reg, imm64 uint64) []byte {
	buf := make([]byte, 10)
	buf[0] = rex(true, false, false, dst.ext())
	buf[1] = 0xB8 + dst.low3()
	writeLE64(buf[2:], imm64)
	return buf
}

// AddRegImm32 encodes: add <dst>, imm32 (sign-extended, 64-bit). A
// negative imm32 performs the equivalent subtraction.
func AddRegImm32(dst Reg, imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = rex(true, false, false, dst.ext())
	buf[1] = 0x81
	buf[2] = modrm(3, 0, dst.low3())
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// CmpRegImm8 encodes: cmp <dst>, imm8 (sign-extended, 64-bit)
func CmpRegImm8(dst Reg, imm8 int8) []byte {
	return []byte{rex(true, false, false, dst.ext()), 0x83, modrm(3, 7, dst.low3()), byte(imm8)}
}

// Cqo encodes: cqo (sign-extend RAX into RDX:RAX)
func Cqo() []byte { return []byte{0x48, 0x99} }

// IdivReg encodes: idiv <reg> (signed 64-bit divide RDX:RAX by reg)
func IdivReg(r Reg) []byte {
	return []byte{rex(true, false, false, r.ext()), 0xF7, modrm(3, 7, r.low3())}
}

// CallReg encodes: call <reg> (indirect call through a register)
func CallReg(r Reg) []byte {
	if r.ext() {
		return []byte{0x41, 0xFF, modrm(3, 2, r.low3())}
	}
	return []byte{0xFF, modrm(3, 2, r.low3())}
}

// CallRel32 encodes: call rel32
func CallRel32(rel32 int32) []byte {
	buf := make([]byte, 5)
	buf[0] = 0xE8
	writeLE32(buf[1:], uint32(rel32))
	return buf
}

// JzRel32 encodes: jz rel32
func JzRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x84
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// JnzRel32 encodes: jnz rel32
func JnzRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x85
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// Ret encodes: ret
func Ret() []byte { return []byte{0xC3} }

// Syscall encodes: syscall
func Syscall() []byte { return []byte{0x0F, 0x05} }

// LeaMemToReg encodes: lea <dst>, [<base>+<index>]
func LeaMemToReg(dst, base, index Reg) []byte {
	sib, x, b := memSIB(base, index)
	return []byte{rex(true, dst.ext(), x, b), 0x8D, modrm(0, dst.low3(), 4), sib}
}

// AddByteMemImm8 encodes: addb imm8, [<base>+<index>]
func AddByteMemImm8(base, index Reg, imm8 uint8) []byte {
	sib, x, b := memSIB(base, index)
	return []byte{rex(false, false, x, b), 0x80, modrm(0, 0, 4), sib, imm8}
}

// MovByteMemImm8 encodes: movb imm8, [<base>+<index>]
func MovByteMemImm8(base, index Reg, imm8 uint8) []byte {
	sib, x, b := memSIB(base, index)
	return []byte{rex(false, false, x, b), 0xC6, modrm(0, 0, 4), sib, imm8}
}

// TestByteMemImm8 encodes: testb imm8, [<base>+<index>]
func TestByteMemImm8(base, index Reg, imm8 uint8) []byte {
	sib, x, b := memSIB(base, index)
	return []byte{rex(false, false, x, b), 0xF6, modrm(0, 0, 4), sib, imm8}
}

// MovByteMemToReg encodes: mov <dstLow8>, [<base>+<index>] (8-bit load)
func MovByteMemToReg(dst, base, index Reg) []byte {
	sib, x, b := memSIB(base, index)
	return []byte{rex(false, dst.ext(), x, b), 0x8A, modrm(0, dst.low3(), 4), sib}
}

// AddByteMemFromReg encodes: add [<base>+<index>], <srcLow8> (8-bit)
func AddByteMemFromReg(base, index, src Reg) []byte {
	sib, x, b := memSIB(base, index)
	return []byte{rex(false, src.ext(), x, b), 0x00, modrm(0, src.low3(), 4), sib}
}

// The freestanding ELF backend (internal/codegen/linux) targets a raw
// _start entry point and Linux syscalls directly rather than the
// in-process sysv64 ABI, so it still wants a few fixed-register
// short-forms for loading syscall numbers and zeroing argument
// registers.

// MovqImm32RAX encodes: mov rax, imm32 (sign-extended)
func MovqImm32RAX(imm32 int32) []byte { return MovRegImm32(RAX, imm32) }

// MovqImm32RDI encodes: mov rdi, imm32 (sign-extended)
func MovqImm32RDI(imm32 int32) []byte { return MovRegImm32(RDI, imm32) }

// MovqImm32RDX encodes: mov rdx, imm32 (sign-extended)
func MovqImm32RDX(imm32 int32) []byte { return MovRegImm32(RDX, imm32) }

// XorRDIRDI encodes: xor rdi, rdi
func XorRDIRDI() []byte { return XorRegReg(RDI, RDI) }

// XorRAXRAX encodes: xor rax, rax
func XorRAXRAX() []byte { return XorRegReg(RAX, RAX) }
