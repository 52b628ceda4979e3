// Package vm provides a Brainfuck interpreter for executing IR operations.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/lcox74/bfjit/internal/ir"
)

// EOFBehavior specifies how the VM handles EOF on input.
type EOFBehavior int

const (
	EOFZero     EOFBehavior = iota // Set cell to 0 (default)
	EOFMinusOne                    // Set cell to 255
	EOFNoChange                    // Leave cell unchanged
	EOFFail                        // Treat EOF as a runtime error
)

// VM executes Brainfuck IR operations.
type VM struct {
	memSize     int
	input       io.Reader
	output      io.Writer
	eofBehavior EOFBehavior
	memory      []byte
	dp          int     // data pointer
	pc          int     // program counter
	ioBuf       [1]byte // reusable I/O buffer to avoid allocations
}

// VMOption is a functional option for configuring a VM.
type VMOption func(*VM)

// WithMemorySize sets the tape size (default ir.TapeSize).
func WithMemorySize(size int) VMOption {
	return func(v *VM) {
		v.memSize = size
	}
}

// WithInput sets the input reader (default os.Stdin).
func WithInput(r io.Reader) VMOption {
	return func(v *VM) {
		v.input = r
	}
}

// WithOutput sets the output writer (default os.Stdout).
func WithOutput(w io.Writer) VMOption {
	return func(v *VM) {
		v.output = w
	}
}

// WithEOFBehavior sets the EOF handling behavior (default EOFZero).
func WithEOFBehavior(b EOFBehavior) VMOption {
	return func(v *VM) {
		v.eofBehavior = b
	}
}

// NewVM creates a new VM with the given options.
func NewVM(opts ...VMOption) *VM {
	vm := &VM{
		memSize:     ir.TapeSize,
		input:       os.Stdin,
		output:      os.Stdout,
		eofBehavior: EOFZero,
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Reset clears the tape and resets the data pointer, allowing a VM to be
// reused across multiple Run calls against a persistent tape -- the REPL
// keeps one VM alive across lines and only wants a fresh interpreter
// state at startup.
func (v *VM) Reset() {
	v.memory = make([]byte, v.memSize)
	v.dp = 0
}

// wrap normalizes an index into [0, memSize) under modular arithmetic,
// so the data pointer wraps around the tape rather than erroring at its
// edges.
func (v *VM) wrap(idx int) int {
	n := v.memSize
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

// Run executes the given IR operations against the VM's tape. If the VM
// has not been initialized yet (first call), the tape is allocated and
// zeroed; subsequent calls on the same VM continue from the current
// tape state, which is what the REPL relies on.
func (v *VM) Run(ops []ir.Op) error {
	if v.memory == nil {
		v.Reset()
	}
	v.pc = 0

	memory := v.memory
	numOps := len(ops)

	for v.pc < numOps {
		op := ops[v.pc]

		switch op.Kind {
		case ir.OpShift:
			v.dp = v.wrap(v.dp + op.Arg)

		case ir.OpAdd:
			memory[v.dp] += byte(op.Arg)

		case ir.OpZero:
			memory[v.dp] = 0

		case ir.OpAddTo:
			target := v.wrap(v.dp + op.Arg)
			memory[target] += memory[v.dp]
			memory[v.dp] = 0

		case ir.OpIn:
			n, err := v.input.Read(v.ioBuf[:])
			if err == io.EOF || n == 0 {
				switch v.eofBehavior {
				case EOFZero:
					memory[v.dp] = 0
				case EOFMinusOne:
					memory[v.dp] = 255
				case EOFNoChange:
				case EOFFail:
					return &RuntimeError{
						Msg: "input error: EOF",
						Pos: op.Pos,
						PC:  v.pc,
					}
				}
			} else if err != nil {
				return &RuntimeError{
					Msg: fmt.Sprintf("input error: %v", err),
					Pos: op.Pos,
					PC:  v.pc,
				}
			} else {
				memory[v.dp] = v.ioBuf[0]
			}

		case ir.OpOut:
			v.ioBuf[0] = memory[v.dp]
			_, err := v.output.Write(v.ioBuf[:])
			if err != nil {
				return &RuntimeError{
					Msg: fmt.Sprintf("output error: %v", err),
					Pos: op.Pos,
					PC:  v.pc,
				}
			}

		case ir.OpJz:
			if memory[v.dp] == 0 {
				v.pc = op.Arg
				continue
			}

		case ir.OpJnz:
			if memory[v.dp] != 0 {
				v.pc = op.Arg
				continue
			}
		}

		v.pc++
	}

	return nil
}
