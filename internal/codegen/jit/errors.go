//go:build linux && amd64

package jit

import "fmt"

// CompileError is returned when native code generation fails, or when
// the generated program reports a runtime fault back through its error
// handle (eg. a broken pipe on the output stream).
type CompileError struct {
	Msg string
}

func (e *CompileError) Error() string { return e.Msg }

func errf(format string, args ...any) *CompileError {
	return &CompileError{Msg: fmt.Sprintf(format, args...)}
}
