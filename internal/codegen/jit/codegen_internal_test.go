//go:build linux && amd64

package jit

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcox74/bfjit/internal/ir"
	"github.com/lcox74/bfjit/pkg/amd64"
)

func TestPrologueSavesCalleeSavedRegsAndLoadsTape(t *testing.T) {
	code := generate(nil, 1, 2)

	var want []byte
	want = append(want, amd64.PushReg(amd64.RBP)...)
	want = append(want, amd64.MovRegReg(amd64.RBP, amd64.RSP)...)
	want = append(want, amd64.PushReg(tapeBase)...)
	want = append(want, amd64.PushReg(cellOffset)...)
	want = append(want, amd64.MovRegReg(tapeBase, amd64.RDI)...)
	want = append(want, amd64.XorRegReg(cellOffset, cellOffset)...)

	require.True(t, len(code) >= len(want))
	assert.Equal(t, want, code[:len(want)])
}

func TestSuccessPathZeroesRAXBeforeEpilogue(t *testing.T) {
	code := generate(nil, 1, 2)

	// The shared epilogue is pop/pop/pop/ret; the instruction right
	// before it on the success path must zero RAX.
	epilogue := append(append(append(
		amd64.PopReg(cellOffset),
		amd64.PopReg(tapeBase)...),
		amd64.PopReg(amd64.RBP)...),
		amd64.Ret()...)

	idx := bytes.Index(code, epilogue)
	require.GreaterOrEqual(t, idx, len(amd64.XorRegReg(amd64.RAX, amd64.RAX)))

	xorRax := amd64.XorRegReg(amd64.RAX, amd64.RAX)
	assert.Equal(t, xorRax, code[idx-len(xorRax):idx])
}

func TestShiftAndAddToNormalizeWraparound(t *testing.T) {
	ops := []ir.Op{{Kind: ir.OpShift, Arg: -3}, {Kind: ir.OpAddTo, Arg: 2}}
	code := generate(ops, 1, 2)

	assert.Equal(t, 4, bytes.Count(code, amd64.Cqo()), "one shift and one addto, two cqo each")
}

func TestJzJnzFixupsLandOnOpBoundaries(t *testing.T) {
	// [>] with the JZ aimed at its JNZ (Parse aims it one past, at 3):
	// JZ 2, SHIFT 1, JNZ 0
	ops := []ir.Op{
		{Kind: ir.OpJz, Arg: 2},
		{Kind: ir.OpShift, Arg: 1},
		{Kind: ir.OpJnz, Arg: 0},
	}
	g := newGenerator(ops, 1, 2)
	g.prologue()
	for i, op := range ops {
		g.opAddr[i] = len(g.code)
		switch op.Kind {
		case ir.OpJz:
			g.emitJz(op.Arg)
		case ir.OpShift:
			g.emitShift(op.Arg)
		case ir.OpJnz:
			g.emitJnz(op.Arg)
		}
	}
	g.opAddr[len(ops)] = len(g.code)
	g.emit(amd64.XorRegReg(amd64.RAX, amd64.RAX))
	errAddr := g.emitEpilogue()
	g.patch(errAddr)

	require.Len(t, g.fixups, 2)
	assert.Equal(t, 2, g.fixups[0].targetOp)
	assert.Equal(t, 0, g.fixups[1].targetOp)

	for _, f := range g.fixups {
		rel := int32(binary.LittleEndian.Uint32(g.code[f.pos-4 : f.pos]))
		assert.Equal(t, g.opAddr[f.targetOp], f.pos+int(rel), "patched rel32 lands on the target op's first instruction")
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	r := newRegistry()
	h := r.put("hello")
	assert.Equal(t, "hello", r.get(h))
	r.delete(h)
	assert.Nil(t, r.get(h))
}

func TestRegisterAndResolveError(t *testing.T) {
	assert.Equal(t, uint64(0), registerError(nil))
	assert.NoError(t, resolveError(0))

	h := registerError(errf("boom"))
	err := resolveError(h)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())

	// resolving deletes the entry, so resolving the same handle again
	// falls through to the unresolvable-handle fallback.
	again := resolveError(h)
	require.Error(t, again)
	assert.Contains(t, again.Error(), "unresolvable error handle")
}
