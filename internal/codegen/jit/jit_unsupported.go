//go:build !(linux && amd64)

package jit

import (
	"errors"
	"io"
)

// EOFBehavior mirrors the linux/amd64 build's type so callers can
// reference it uniformly regardless of platform.
type EOFBehavior int

const (
	EOFZero EOFBehavior = iota
	EOFMinusOne
	EOFNoChange
	EOFFail
)

// Option configures a Compile call.
type Option func(*struct{})

// WithEOFBehavior is accepted for API compatibility but has no effect:
// this platform never reaches a VM to configure.
func WithEOFBehavior(EOFBehavior) Option { return func(*struct{}) {} }

// Executable is never constructed outside linux/amd64.
type Executable struct{}

func (e *Executable) Run() error   { return errUnsupported }
func (e *Executable) Close() error { return nil }

var errUnsupported = errors.New("jit: native code generation is only supported on linux/amd64, use the interpreter instead")

// Compile always fails on platforms other than linux/amd64, where the
// hand-encoded x86-64 sequences and the sysv64 call thunks do not
// apply. Callers should check the error and fall back to internal/vm.
func Compile(source []byte, in io.Reader, out io.Writer, opts ...Option) (*Executable, error) {
	return nil, errUnsupported
}
