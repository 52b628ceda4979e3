package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcox74/bfjit/internal/ir"
)

func TestParseO0NoFolding(t *testing.T) {
	ops, err := ir.Parse([]byte("++>>"), ir.O0)
	require.NoError(t, err)
	require.Len(t, ops, 4)
	assert.Equal(t, ir.OpAdd, ops[0].Kind)
	assert.Equal(t, 1, ops[0].Arg)
	assert.Equal(t, ir.OpShift, ops[2].Kind)
	assert.Equal(t, 1, ops[2].Arg)
}

func TestParseO1FoldsRuns(t *testing.T) {
	ops, err := ir.Parse([]byte("+++>>>"), ir.O1)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, ir.Op{Kind: ir.OpAdd, Arg: 3}, stripPos(ops[0]))
	assert.Equal(t, ir.Op{Kind: ir.OpShift, Arg: 3}, stripPos(ops[1]))
}

func TestParseO1RemovesCommentLoop(t *testing.T) {
	ops, err := ir.Parse([]byte("+[comment]+"), ir.O1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, ir.OpAdd, ops[0].Kind)
	assert.Equal(t, 2, ops[0].Arg)
}

func TestParseO2RecognizesClearLoop(t *testing.T) {
	ops, err := ir.Parse([]byte("+++[-]"), ir.O2)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, ir.OpAdd, ops[0].Kind)
	assert.Equal(t, ir.OpZero, ops[1].Kind)
}

func TestParseO2RecognizesClearLoopWithOddStep(t *testing.T) {
	ops, err := ir.Parse([]byte("+[+++]"), ir.O2)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, ir.OpZero, ops[1].Kind, "any odd ADD step cycles through every residue mod 256 and lands on zero")
}

func TestParseO2LeavesEvenStepLoopIntact(t *testing.T) {
	ops, err := ir.Parse([]byte("+[++]"), ir.O2)
	require.NoError(t, err)
	var kinds []ir.OpKind
	for _, op := range ops {
		kinds = append(kinds, op.Kind)
	}
	assert.Contains(t, kinds, ir.OpJz, "an even ADD step never reliably reaches zero, so this stays a real loop")
}

func TestParseO2RecognizesAddTo(t *testing.T) {
	ops, err := ir.Parse([]byte("+++>[-<+>]"), ir.O2)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, ir.OpAdd, ops[0].Kind)
	assert.Equal(t, ir.OpShift, ops[1].Kind)
	require.Equal(t, ir.OpAddTo, ops[2].Kind)
	assert.Equal(t, -1, ops[2].Arg)
}

func TestParseUnmatchedOpenBracket(t *testing.T) {
	_, err := ir.Parse([]byte("[+"), ir.O1)
	require.Error(t, err)
	assert.True(t, ir.IsIncompleteLoop(err))
}

func TestParseUnmatchedCloseBracket(t *testing.T) {
	_, err := ir.Parse([]byte("+]"), ir.O1)
	require.Error(t, err)
	assert.False(t, ir.IsIncompleteLoop(err))
}

func TestDumpFormatsOps(t *testing.T) {
	ops, err := ir.Parse([]byte("+.,"), ir.O1)
	require.NoError(t, err)
	out := ir.Dump(ops)
	assert.Contains(t, out, "ADD")
	assert.Contains(t, out, "OUT")
	assert.Contains(t, out, "IN")
}

func stripPos(op ir.Op) ir.Op {
	op.Pos = nil
	return op
}
