//go:build linux && amd64

package jit

import (
	"fmt"
	"io"

	"github.com/lcox74/bfjit/internal/ir"
)

// Option configures a Compile call.
type Option func(*options)

type options struct {
	eof EOFBehavior
}

// WithEOFBehavior sets how the compiled program's read thunk handles
// EOF on its input stream (default EOFZero).
func WithEOFBehavior(b EOFBehavior) Option {
	return func(o *options) { o.eof = b }
}

// Compile lowers source into optimized IR and assembles it into an
// in-process native executable. in and out back the program's input
// and output operations for the lifetime of the returned Executable;
// callers must Close it to release the mmap'd code and the input
// stream's registry entry.
func Compile(source []byte, in io.Reader, out io.Writer, opts ...Option) (*Executable, error) {
	o := options{eof: EOFZero}
	for _, opt := range opts {
		opt(&o)
	}

	ops, err := ir.Parse(source, ir.O2)
	if err != nil {
		return nil, fmt.Errorf("jit: %w", err)
	}

	inHandle := streams.put(&inputStream{r: in, eof: o.eof})
	outHandle := streams.put(out)

	code := generate(ops, inHandle, outHandle)

	exe, err := newExecutable(code, inHandle, outHandle)
	if err != nil {
		streams.delete(inHandle)
		streams.delete(outHandle)
		return nil, err
	}
	return exe, nil
}
