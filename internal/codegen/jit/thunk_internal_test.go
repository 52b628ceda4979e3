//go:build linux && amd64

package jit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeReadReturnsByteOnSuccess(t *testing.T) {
	h := streams.put(&inputStream{r: strings.NewReader("A"), eof: EOFZero})
	defer streams.delete(h)

	val, errHandle := bridgeRead(h)
	assert.Equal(t, uint64(0), errHandle)
	assert.Equal(t, uint64('A'), val)
}

func TestBridgeReadEOFBehaviors(t *testing.T) {
	for _, tc := range []struct {
		name string
		eof  EOFBehavior
		want uint64
	}{
		{"zero", EOFZero, 0},
		{"minusOne", EOFMinusOne, 255},
	} {
		h := streams.put(&inputStream{r: strings.NewReader(""), eof: tc.eof})
		val, errHandle := bridgeRead(h)
		streams.delete(h)

		assert.Equal(t, uint64(0), errHandle, tc.name)
		assert.Equal(t, tc.want, val, tc.name)
	}

	h := streams.put(&inputStream{r: strings.NewReader(""), eof: EOFNoChange})
	_, errHandle := bridgeRead(h)
	streams.delete(h)
	assert.Equal(t, eofNoChange, errHandle, "EOFNoChange reports the no-op sentinel instead of a real error handle")
}

func TestBridgeReadInvalidHandle(t *testing.T) {
	_, errHandle := bridgeRead(999999)
	require.NotZero(t, errHandle)
	err := resolveError(errHandle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input stream handle")
}

func TestBridgeWriteWritesByte(t *testing.T) {
	var buf bytes.Buffer
	h := streams.put(&buf)
	defer streams.delete(h)

	errHandle := bridgeWrite(h, uint64('z'))
	assert.Equal(t, uint64(0), errHandle)
	assert.Equal(t, "z", buf.String())
}

func TestBridgeWriteInvalidHandle(t *testing.T) {
	errHandle := bridgeWrite(999999, uint64('x'))
	require.NotZero(t, errHandle)
	err := resolveError(errHandle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output stream handle")
}

func TestFuncPCFindsAssemblyThunks(t *testing.T) {
	assert.NotZero(t, readThunkAddr)
	assert.NotZero(t, writeThunkAddr)
	assert.NotEqual(t, readThunkAddr, writeThunkAddr)
}
