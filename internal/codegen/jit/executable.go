//go:build linux && amd64

// Package jit compiles Brainfuck source directly to native x86-64
// machine code and executes it in-process.
package jit

import (
	"fmt"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"

	"github.com/lcox74/bfjit/internal/ir"
)

// Executable is a compiled, ready-to-run Brainfuck program backed by a
// page of native machine code.
type Executable struct {
	mapping   mmap.MMap
	entry     uintptr
	inHandle  uint64
	outHandle uint64
}

// newExecutable maps code RW via mmap-go, copies it in, then uses
// mprotect directly (mmap-go's own prot constants only apply at
// mapping time) to flip the page to R+X -- never RWX at once -- before
// recording its entry address for invokeNative to call into.
func newExecutable(code []byte, inHandle, outHandle uint64) (*Executable, error) {
	region, err := mmap.MapRegion(nil, len(code), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, &CompileError{Msg: fmt.Sprintf("jit: allocate executable memory: %v", err)}
	}
	copy(region, code)

	if err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		region.Unmap()
		return nil, &CompileError{Msg: fmt.Sprintf("jit: mark memory executable: %v", err)}
	}

	return &Executable{
		mapping:   region,
		entry:     uintptr(unsafe.Pointer(&region[0])),
		inHandle:  inHandle,
		outHandle: outHandle,
	}, nil
}

// Run executes the compiled program against a freshly zeroed tape.
func (e *Executable) Run() error {
	tape := new([ir.TapeSize]byte)
	errHandle := invokeNative(e.entry, &tape[0])
	return resolveError(errHandle)
}

// Close releases the executable's backing memory. After Close, Run
// must not be called again.
func (e *Executable) Close() error {
	streams.delete(e.inHandle)
	streams.delete(e.outHandle)
	return e.mapping.Unmap()
}
